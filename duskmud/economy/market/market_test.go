package market

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duskmud/engine/duskmud/economy"
)

var (
	now      = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	later    = now.Add(time.Hour)
	finished = now.Add(-time.Hour)
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func testMarket(t *testing.T, clock economy.Clock) *Market {
	t.Helper()
	m, err := New("kestrel-coast", clock, economy.NopRecorder{}, time.Second, []Category{
		{Name: "grain", ElasticityFactorAbove: dec("0.5"), ElasticityFactorBelow: dec("1.5"), DefaultTag: "food"},
		{Name: "weapons", ElasticityFactorAbove: dec("1.0"), ElasticityFactorBelow: dec("1.0"), DefaultTag: "arms"},
	})
	require.NoError(t, err)
	return m
}

func fixedClock(at time.Time) economy.Clock {
	return economy.ClockFunc(func() time.Time { return at })
}

func TestNewRejectsMissingElasticity(t *testing.T) {
	_, err := New("zone", fixedClock(now), nil, time.Second, []Category{{Name: "broken"}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBadElasticity))
}

func TestPriceMultiplierNoInfluences(t *testing.T) {
	m := testMarket(t, fixedClock(now))
	mult, err := m.PriceMultiplierForCategory("grain", now)
	require.NoError(t, err)
	assert.True(t, mult.Equal(decimal.NewFromInt(1)))
}

func TestPriceMultiplierAppliesElasticity(t *testing.T) {
	tests := []struct {
		name   string
		effect CategoryEffect
		want   string
	}{
		{
			// Oversupply of 20 points at above-factor 0.5: 1 - 20*0.5/100.
			name:   "oversupply depresses price",
			effect: CategoryEffect{Category: "grain", SupplyPct: 20},
			want:   "0.9",
		},
		{
			// Excess demand of 30 points at below-factor 1.5: 1 + 30*1.5/100.
			name:   "demand raises price",
			effect: CategoryEffect{Category: "grain", DemandPct: 30},
			want:   "1.45",
		},
		{
			name:   "balanced pressure is neutral",
			effect: CategoryEffect{Category: "grain", SupplyPct: 10, DemandPct: 10},
			want:   "1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := testMarket(t, fixedClock(now))
			_, err := m.AddInfluence("harvest", now, nil, []CategoryEffect{tt.effect}, nil)
			require.NoError(t, err)

			mult, err := m.PriceMultiplierForCategory("grain", now)
			require.NoError(t, err)
			assert.True(t, mult.Equal(dec(tt.want)), "got %s want %s", mult, tt.want)
		})
	}
}

func TestInfluenceCompositionIsCommutative(t *testing.T) {
	a := CategoryEffect{Category: "grain", SupplyPct: 40}
	b := CategoryEffect{Category: "grain", DemandPct: 25}

	multiplierFor := func(order []CategoryEffect) decimal.Decimal {
		m := testMarket(t, fixedClock(now))
		for i, e := range order {
			_, err := m.AddInfluence("inf", now, nil, []CategoryEffect{e}, nil)
			require.NoError(t, err, "influence %d", i)
		}
		mult, err := m.PriceMultiplierForCategory("grain", now)
		require.NoError(t, err)
		return mult
	}

	ab := multiplierFor([]CategoryEffect{a, b})
	ba := multiplierFor([]CategoryEffect{b, a})
	assert.True(t, ab.Equal(ba), "order must not matter: %s vs %s", ab, ba)
}

func TestInfluenceActivationWindow(t *testing.T) {
	m := testMarket(t, fixedClock(now))
	until := later
	inf, err := m.AddInfluence("festival", now, &until, []CategoryEffect{{Category: "grain", DemandPct: 10}}, nil)
	require.NoError(t, err)

	assert.False(t, inf.ActiveAt(now.Add(-time.Minute)), "before the window")
	assert.True(t, inf.ActiveAt(now), "inclusive start")
	assert.False(t, inf.ActiveAt(later), "exclusive end")

	open, err := m.AddInfluence("war", finished, nil, nil, nil)
	require.NoError(t, err)
	assert.True(t, open.ActiveAt(now.Add(24*time.Hour)), "unset until is open-ended")
}

func TestEndInfluenceEarly(t *testing.T) {
	m := testMarket(t, fixedClock(now))
	inf, err := m.AddInfluence("blight", finished, nil, []CategoryEffect{{Category: "grain", SupplyPct: -50, DemandPct: 0}}, nil)
	require.NoError(t, err)

	require.NoError(t, m.EndInfluence(inf.ID))

	require.NotNil(t, inf.AppliesUntil, "the window closes; the record stays for audit")
	assert.Equal(t, now.Add(-time.Second), *inf.AppliesUntil)
	assert.False(t, inf.ActiveAt(now))

	mult, err := m.PriceMultiplierForCategory("grain", now)
	require.NoError(t, err)
	assert.True(t, mult.Equal(decimal.NewFromInt(1)))
}

func TestMultiplierNotCachedAcrossConfigEdits(t *testing.T) {
	m := testMarket(t, fixedClock(now))
	inf, err := m.AddInfluence("glut", now, nil, []CategoryEffect{{Category: "grain", SupplyPct: 20}}, nil)
	require.NoError(t, err)

	mult, err := m.PriceMultiplierForCategory("grain", now)
	require.NoError(t, err)
	assert.True(t, mult.Equal(dec("0.9")))

	// Same instant, but the influence set changed: the cached value must
	// not be served.
	require.NoError(t, m.EndInfluence(inf.ID))
	mult, err = m.PriceMultiplierForCategory("grain", now)
	require.NoError(t, err)
	assert.True(t, mult.Equal(decimal.NewFromInt(1)))
}

func TestTagIndex(t *testing.T) {
	m := testMarket(t, fixedClock(now))

	cat, err := m.CategoryForTag("food")
	require.NoError(t, err)
	assert.Equal(t, "grain", cat)

	_, err = m.CategoryForTag("gemstones")
	assert.True(t, errors.Is(err, ErrUnknownTag))

	require.NoError(t, m.AssignTag("bread", "grain"))
	mult, err := m.PriceMultiplierForTag("bread", now)
	require.NoError(t, err)
	assert.True(t, mult.Equal(decimal.NewFromInt(1)))

	assert.True(t, errors.Is(m.AssignTag("x", "nope"), ErrUnknownCategory))
}

func TestVisibilityGuardFiltersNewsOnly(t *testing.T) {
	m := testMarket(t, fixedClock(now))
	guild := func(viewer string) bool { return viewer == "guildmaster" }
	_, err := m.AddInfluence("smuggling", now, nil, []CategoryEffect{{Category: "weapons", DemandPct: 50}}, guild)
	require.NoError(t, err)

	assert.Len(t, m.ActiveInfluences(now, "guildmaster"), 1)
	assert.Empty(t, m.ActiveInfluences(now, "farmhand"))

	// Hidden influences still move prices.
	mult, err := m.PriceMultiplierForCategory("weapons", now)
	require.NoError(t, err)
	assert.True(t, mult.Equal(dec("1.5")))
}
