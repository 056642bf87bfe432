package market

import (
	"time"

	"github.com/disgoorg/snowflake/v2"
)

// CategoryEffect is one influence's pressure on a single category,
// expressed in supply/demand percentage points.
type CategoryEffect struct {
	Category  string
	SupplyPct int64
	DemandPct int64
}

// VisibilityGuard gates whether an influence is shown to a given viewer.
// Activation is never gated; guards only hide influences from market news.
type VisibilityGuard func(viewer string) bool

// Influence is a time-boxed, category-scoped supply/demand modifier stamped
// from a template. It is active iff now lies in [AppliesFrom, AppliesUntil),
// with an unset AppliesUntil meaning open-ended.
type Influence struct {
	ID           snowflake.ID
	Template     string
	AppliesFrom  time.Time
	AppliesUntil *time.Time
	Effects      []CategoryEffect
	Visibility   VisibilityGuard
}

// ActiveAt reports whether the influence applies at the given instant.
// Purely a function of (state, now); expiry has no race window.
func (inf *Influence) ActiveAt(now time.Time) bool {
	if now.Before(inf.AppliesFrom) {
		return false
	}
	return inf.AppliesUntil == nil || now.Before(*inf.AppliesUntil)
}

// EffectOn returns the influence's effect for a category, if any.
func (inf *Influence) EffectOn(category string) (CategoryEffect, bool) {
	for _, e := range inf.Effects {
		if e.Category == category {
			return e, true
		}
	}
	return CategoryEffect{}, false
}

// VisibleTo applies the visibility guard; an influence without a guard is
// public.
func (inf *Influence) VisibleTo(viewer string) bool {
	return inf.Visibility == nil || inf.Visibility(viewer)
}
