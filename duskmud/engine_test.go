package duskmud

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"

	"github.com/duskmud/engine/duskmud/database/models"
	"github.com/duskmud/engine/duskmud/economy"
	"github.com/duskmud/engine/duskmud/economy/market"
)

type influenceRepoStub struct {
	created []*models.Influence
	closed  map[string]time.Time
}

func (s *influenceRepoStub) DB() *bun.DB { return nil }

func (s *influenceRepoStub) Create(_ context.Context, inf *models.Influence) error {
	s.created = append(s.created, inf)
	return nil
}

func (s *influenceRepoStub) GetByZone(context.Context, string) ([]*models.Influence, error) {
	return nil, nil
}

func (s *influenceRepoStub) GetActive(context.Context, string, time.Time) ([]*models.Influence, error) {
	return nil, nil
}

func (s *influenceRepoStub) CloseWindow(_ context.Context, id string, until time.Time) error {
	s.closed[id] = until
	return nil
}

func TestInfluenceWindowsArePersisted(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := economy.ClockFunc(func() time.Time { return now })

	mkt, err := market.New("harbour", clock, economy.NopRecorder{}, time.Second, []market.Category{{
		Name:                  "food",
		ElasticityFactorAbove: decimal.RequireFromString("0.5"),
		ElasticityFactorBelow: decimal.RequireFromString("1.5"),
	}})
	require.NoError(t, err)

	repo := &influenceRepoStub{closed: make(map[string]time.Time)}
	e := &Engine{
		Cfg:                 Config{Engine: EngineConfig{Zone: "harbour", TickSeconds: 1}},
		Clock:               clock,
		Market:              mkt,
		InfluenceRepository: repo,
	}

	inf, err := e.BeginInfluence(context.Background(), "famine", now, nil,
		[]market.CategoryEffect{{Category: "food", DemandPct: 30}}, nil)
	require.NoError(t, err)

	require.Len(t, repo.created, 1)
	row := repo.created[0]
	assert.Equal(t, inf.ID.String(), row.InfluenceID)
	assert.Equal(t, "harbour", row.Zone)
	assert.Equal(t, "famine", row.Template)
	assert.Nil(t, row.AppliesUntil)
	assert.Contains(t, row.Effects, "food")

	require.NoError(t, e.EndInfluence(context.Background(), inf.ID))
	assert.Equal(t, now.Add(-time.Second), repo.closed[inf.ID.String()])

	_, err = e.BeginInfluence(context.Background(), "phantom", now, nil,
		[]market.CategoryEffect{{Category: "livestock", DemandPct: 10}}, nil)
	require.Error(t, err, "effects must name known categories")
	assert.Len(t, repo.created, 1, "rejected influences are not persisted")
}
