// Package market implements the pricing engine: per-category price
// multipliers derived from supply/demand elasticity and scheduled,
// time-boxed influences.
package market

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/disgoorg/snowflake/v2"
	lru "github.com/hashicorp/golang-lru"
	"github.com/shopspring/decimal"

	"github.com/duskmud/engine/duskmud/economy"
)

const multiplierCacheSize = 4096

var (
	ErrUnknownCategory  = errors.New("unknown market category")
	ErrUnknownInfluence = errors.New("unknown market influence")
	ErrUnknownTag       = errors.New("no category for tag")
	ErrBadElasticity    = errors.New("category has no elasticity configured")
)

// Floor for a composed multiplier; influences can depress a price but
// never to zero or below.
var minMultiplier = decimal.RequireFromString("0.01")

// Category groups goods that move together in price. Elasticity converts a
// supply/demand delta into a price change, with distinct factors for
// oversupply and undersupply.
type Category struct {
	Name                  string
	ElasticityFactorAbove decimal.Decimal
	ElasticityFactorBelow decimal.Decimal
	DefaultTag            string
}

// Market belongs to one economic zone and owns categories, the tag index
// resolving item tags to categories, and the accumulated influences.
type Market struct {
	Zone string

	clock    economy.Clock
	recorder economy.Recorder
	ids      *economy.IDGenerator
	tick     time.Duration

	categories map[string]Category
	tagIndex   map[string]string
	influences map[snowflake.ID]*Influence

	cache      *lru.Cache
	generation uint64
}

// New builds a market. Tick is the scheduler granularity used when ending
// an influence early; categories missing an elasticity factor are a fatal
// configuration error.
func New(zone string, clock economy.Clock, recorder economy.Recorder, tick time.Duration, categories []Category) (*Market, error) {
	if clock == nil {
		panic("market clock cannot be nil")
	}
	if recorder == nil {
		recorder = economy.NopRecorder{}
	}
	if tick <= 0 {
		tick = time.Second
	}

	cache, _ := lru.New(multiplierCacheSize)
	m := &Market{
		Zone:       zone,
		clock:      clock,
		recorder:   recorder,
		ids:        economy.NewIDGenerator(),
		tick:       tick,
		categories: make(map[string]Category),
		tagIndex:   make(map[string]string),
		influences: make(map[snowflake.ID]*Influence),
		cache:      cache,
	}

	for _, c := range categories {
		if c.ElasticityFactorAbove.IsZero() || c.ElasticityFactorBelow.IsZero() {
			return nil, fmt.Errorf("%w: %q", ErrBadElasticity, c.Name)
		}
		m.categories[c.Name] = c
		if c.DefaultTag != "" {
			m.tagIndex[c.DefaultTag] = c.Name
		}
	}
	return m, nil
}

// Category looks a category up by name.
func (m *Market) Category(name string) (Category, error) {
	c, ok := m.categories[name]
	if !ok {
		return Category{}, fmt.Errorf("%w: %q", ErrUnknownCategory, name)
	}
	return c, nil
}

// AssignTag binds an item tag to a category in the explicit index. The
// index is resolved at lookup time rather than scanned dynamically, so
// pricing stays deterministic under configuration edits.
func (m *Market) AssignTag(tag, category string) error {
	if _, ok := m.categories[category]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}
	m.tagIndex[tag] = category
	m.generation++
	return nil
}

// CategoryForTag resolves an item tag through the index.
func (m *Market) CategoryForTag(tag string) (string, error) {
	c, ok := m.tagIndex[tag]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownTag, tag)
	}
	return c, nil
}

// AddInfluence stamps a new influence into the market.
func (m *Market) AddInfluence(template string, from time.Time, until *time.Time, effects []CategoryEffect, visibility VisibilityGuard) (*Influence, error) {
	for _, e := range effects {
		if _, ok := m.categories[e.Category]; !ok {
			return nil, fmt.Errorf("%w: influence %q touches %q", ErrUnknownCategory, template, e.Category)
		}
	}
	inf := &Influence{
		ID:           m.ids.Next(m.clock.CurrentDateTime()),
		Template:     template,
		AppliesFrom:  from,
		AppliesUntil: until,
		Effects:      effects,
		Visibility:   visibility,
	}
	m.influences[inf.ID] = inf
	m.generation++

	m.record(economy.Change{
		Kind: economy.ChangeInfluenceWindow, Ref: inf.ID.String(), At: m.clock.CurrentDateTime(),
		Detail: map[string]any{"template": template, "applies_from": from, "applies_until": until},
	})
	return inf, nil
}

// EndInfluence ends an influence early by setting AppliesUntil to one tick
// before now. The record is kept, not deleted, preserving auditability.
func (m *Market) EndInfluence(id snowflake.ID) error {
	inf, ok := m.influences[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownInfluence, id)
	}
	until := m.clock.CurrentDateTime().Add(-m.tick)
	inf.AppliesUntil = &until
	m.generation++

	m.record(economy.Change{
		Kind: economy.ChangeInfluenceWindow, Ref: inf.ID.String(), At: m.clock.CurrentDateTime(),
		Detail: map[string]any{"template": inf.Template, "applies_until": until, "ended_early": true},
	})
	return nil
}

// ActiveInfluences returns the influences active at now and visible to the
// viewer, for market-news style callers.
func (m *Market) ActiveInfluences(now time.Time, viewer string) []*Influence {
	var out []*Influence
	for _, inf := range m.influences {
		if inf.ActiveAt(now) && inf.VisibleTo(viewer) {
			out = append(out, inf)
		}
	}
	return out
}

// PriceMultiplierForCategory computes the category's multiplier at now:
// 1.0 scaled by every simultaneously active influence. Composition is a
// decimal product, so it is independent of influence order.
func (m *Market) PriceMultiplierForCategory(category string, now time.Time) (decimal.Decimal, error) {
	cat, ok := m.categories[category]
	if !ok {
		return decimal.Decimal{}, fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}

	// Cache hits are only valid within the same tick and configuration
	// generation; both are part of the key, so a result never survives a
	// time boundary or a config edit.
	key := fmt.Sprintf("%s|%d|%d", category, now.Truncate(m.tick).UnixNano(), m.generation)
	if v, ok := m.cache.Get(key); ok {
		return v.(decimal.Decimal), nil
	}

	multiplier := decimal.NewFromInt(1)
	for _, inf := range m.influences {
		if !inf.ActiveAt(now) {
			continue
		}
		effect, ok := inf.EffectOn(category)
		if !ok {
			continue
		}
		multiplier = multiplier.Mul(effectMultiplier(cat, effect))
	}
	if multiplier.LessThan(minMultiplier) {
		multiplier = minMultiplier
	}

	m.cache.Add(key, multiplier)
	return multiplier, nil
}

// PriceMultiplierForTag resolves a tag through the index and prices its
// category.
func (m *Market) PriceMultiplierForTag(tag string, now time.Time) (decimal.Decimal, error) {
	category, err := m.CategoryForTag(tag)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return m.PriceMultiplierForCategory(category, now)
}

// effectMultiplier converts one influence effect into a price factor. Net
// pressure is demand minus supply in percentage points; oversupply scales
// by the category's above factor, undersupply by the below factor.
func effectMultiplier(cat Category, effect CategoryEffect) decimal.Decimal {
	net := effect.DemandPct - effect.SupplyPct
	if net == 0 {
		return decimal.NewFromInt(1)
	}
	elasticity := cat.ElasticityFactorBelow
	if net < 0 {
		elasticity = cat.ElasticityFactorAbove
	}
	delta := decimal.NewFromInt(net).Mul(elasticity).Div(decimal.NewFromInt(100))
	factor := decimal.NewFromInt(1).Add(delta)
	if factor.LessThan(minMultiplier) {
		return minMultiplier
	}
	return factor
}

func (m *Market) record(change economy.Change) {
	if err := m.recorder.Record(context.Background(), change); err != nil {
		slog.Error("Failed to record market change",
			slog.String("type", "db"),
			slog.String("kind", string(change.Kind)),
			slog.String("ref", change.Ref),
			slog.Any("error", err))
	}
}
