package models

import (
	"time"

	"github.com/uptrace/bun"
)

// EconomyEvent is the append-only journal of engine mutations, one row per
// recorded change. Detail carries the change-specific payload as JSONB.
type EconomyEvent struct {
	bun.BaseModel `bun:"table:economy_events,alias:ev"`

	ID     int64          `bun:"id,pk,autoincrement"`
	Kind   string         `bun:"kind,notnull"`
	Ref    string         `bun:"ref,notnull"`
	At     time.Time      `bun:"at,notnull"`
	Detail map[string]any `bun:"detail,type:jsonb"`

	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
}
