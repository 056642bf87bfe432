package database

import (
	"context"
	"fmt"
	"time"

	"github.com/duskmud/engine/duskmud/database/models"
	"github.com/duskmud/engine/duskmud/economy"
)

// BunRecorder journals every engine mutation into the economy_events
// table. The engine treats it as an opaque commit hook and never reads
// back through it.
type BunRecorder struct {
	db *DB
}

func NewBunRecorder(db *DB) *BunRecorder {
	return &BunRecorder{db: db}
}

var _ economy.Recorder = (*BunRecorder)(nil)

func (r *BunRecorder) Record(ctx context.Context, change economy.Change) error {
	event := &models.EconomyEvent{
		Kind:      string(change.Kind),
		Ref:       change.Ref,
		At:        change.At,
		Detail:    change.Detail,
		CreatedAt: time.Now(),
	}
	if _, err := r.db.BunDB().NewInsert().Model(event).Exec(ctx); err != nil {
		return fmt.Errorf("failed to journal %s event: %w", change.Kind, err)
	}
	return nil
}
