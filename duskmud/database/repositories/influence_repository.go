package repositories

import (
	"context"
	"time"

	"github.com/uptrace/bun"

	"github.com/duskmud/engine/duskmud/database/models"
)

type InfluenceRepository interface {
	DB() *bun.DB
	Create(ctx context.Context, influence *models.Influence) error
	GetByZone(ctx context.Context, zone string) ([]*models.Influence, error)
	GetActive(ctx context.Context, zone string, now time.Time) ([]*models.Influence, error)
	CloseWindow(ctx context.Context, influenceID string, until time.Time) error
}

type influenceRepository struct {
	*BaseRepository
}

func NewInfluenceRepository(db *bun.DB) InfluenceRepository {
	return &influenceRepository{BaseRepository: NewBaseRepository(db)}
}

func (r *influenceRepository) DB() *bun.DB {
	return r.GetDB()
}

func (r *influenceRepository) Create(ctx context.Context, influence *models.Influence) error {
	influence.CreatedAt = time.Now()
	influence.UpdatedAt = time.Now()

	_, err := r.GetDB().NewInsert().Model(influence).Exec(ctx)
	return r.HandleError("create", "influence", err)
}

func (r *influenceRepository) GetByZone(ctx context.Context, zone string) ([]*models.Influence, error) {
	var influences []*models.Influence
	err := r.GetDB().NewSelect().
		Model(&influences).
		Where("zone = ?", zone).
		Order("applies_from ASC").
		Scan(ctx)
	if err != nil {
		return nil, r.HandleError("get_by_zone", "influence", err)
	}
	return influences, nil
}

func (r *influenceRepository) GetActive(ctx context.Context, zone string, now time.Time) ([]*models.Influence, error) {
	var influences []*models.Influence
	err := r.GetDB().NewSelect().
		Model(&influences).
		Where("zone = ?", zone).
		Where("applies_from <= ?", now).
		Where("applies_until IS NULL OR applies_until > ?", now).
		Scan(ctx)
	if err != nil {
		return nil, r.HandleError("get_active", "influence", err)
	}
	return influences, nil
}

func (r *influenceRepository) CloseWindow(ctx context.Context, influenceID string, until time.Time) error {
	_, err := r.GetDB().NewUpdate().
		Model((*models.Influence)(nil)).
		Set("applies_until = ?", until).
		Set("updated_at = ?", time.Now()).
		Where("influence_id = ?", influenceID).
		Exec(ctx)
	return r.HandleErrorWithID("close_window", "influence", influenceID, err)
}
