package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Influence struct {
	bun.BaseModel `bun:"table:influences,alias:inf"`

	ID           int64      `bun:"id,pk,autoincrement"`
	InfluenceID  string     `bun:"influence_id,notnull,unique"`
	Zone         string     `bun:"zone,notnull"`
	Template     string     `bun:"template,notnull"`
	AppliesFrom  time.Time  `bun:"applies_from,notnull"`
	AppliesUntil *time.Time `bun:"applies_until"`

	// Effects is the per-category supply/demand payload.
	Effects map[string]any `bun:"effects,type:jsonb"`

	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}
