package currency

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCurrency(t *testing.T) *Currency {
	t.Helper()
	c, err := New("argent", "mote",
		[]Division{
			{Name: "Silver", Value: 100, Words: []string{"silver"}},
			{Name: "Mote", Value: 1, Words: []string{"mote"}},
		},
		[]Coin{
			{Name: "silver piece", Division: "Silver", Value: 100},
			{Name: "quarter", Division: "Silver", Value: 25},
			{Name: "clipped bit", Division: "Mote", Value: 5},
			{Name: "mote", Division: "Mote", Value: 1},
		},
		[]DescriptionPattern{
			{
				Name: "default",
				Elements: []PatternElement{
					{Division: "Silver"},
					{Division: "Mote", Rounding: RoundNever},
				},
			},
		},
		true,
	)
	require.NoError(t, err)
	return c
}

func TestFindCoinsForAmount(t *testing.T) {
	c := testCurrency(t)

	tests := []struct {
		name   string
		amount int64
		want   map[string]int64
	}{
		{
			name:   "131 uses one of each greedy step",
			amount: 131,
			want:   map[string]int64{"silver piece": 1, "quarter": 1, "clipped bit": 1, "mote": 1},
		},
		{
			name:   "exact large coin",
			amount: 200,
			want:   map[string]int64{"silver piece": 2},
		},
		{
			name:   "zero",
			amount: 0,
			want:   map[string]int64{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel, err := c.FindCoinsForAmount(tt.amount)
			require.NoError(t, err)
			assert.Equal(t, tt.amount, sel.Total)
			assert.Zero(t, sel.Shortfall)
			for coin, count := range tt.want {
				assert.Equal(t, count, sel.Counts[coin], "coin %s", coin)
			}
		})
	}
}

func TestFindCoinsForAmountReportsShortfall(t *testing.T) {
	c, err := New("gap", "unit",
		[]Division{{Name: "Unit", Value: 1, Words: []string{"unit"}}},
		[]Coin{{Name: "trime", Division: "Unit", Value: 3}},
		[]DescriptionPattern{{Name: "default", Elements: []PatternElement{{Division: "Unit"}}}},
		true,
	)
	require.NoError(t, err)

	sel, err := c.FindCoinsForAmount(7)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInexactAmount))
	assert.Equal(t, int64(2), sel.Counts["trime"])
	assert.Equal(t, int64(6), sel.Total)
	assert.Equal(t, int64(1), sel.Shortfall, "shortfall is reported, never overshot")
}

func TestFindCurrency(t *testing.T) {
	c := testCurrency(t)
	piles := []Pile{
		{Ref: "purse-silver", Coin: Coin{Name: "silver piece", Value: 100}, Count: 3},
		{Ref: "purse-quarters", Coin: Coin{Name: "quarter", Value: 25}, Count: 2},
		{Ref: "purse-motes", Coin: Coin{Name: "mote", Value: 1}, Count: 10},
	}

	t.Run("exact match preferred", func(t *testing.T) {
		sel, err := c.FindCurrency(piles, 125)
		require.NoError(t, err)
		assert.Equal(t, int64(125), sel.Total)
		assert.Zero(t, sel.Overshoot)
		assert.Equal(t, int64(1), sel.Take["purse-silver"])
		assert.Equal(t, int64(1), sel.Take["purse-quarters"])
	})

	t.Run("exact match beats a greedy head start", func(t *testing.T) {
		// A largest-first pass would take 25+10=35; three 10s are exact.
		smallPiles := []Pile{
			{Ref: "drawer-quarters", Coin: Coin{Name: "quarter", Value: 25}, Count: 1},
			{Ref: "drawer-bits", Coin: Coin{Name: "bit", Value: 10}, Count: 3},
		}
		sel, err := c.FindCurrency(smallPiles, 30)
		require.NoError(t, err)
		assert.Equal(t, int64(30), sel.Total)
		assert.Zero(t, sel.Overshoot, "exact match should be preferred")
		assert.Equal(t, int64(3), sel.Take["drawer-bits"])
		assert.Zero(t, sel.Take["drawer-quarters"])
	})

	t.Run("minimal overshoot when inexact", func(t *testing.T) {
		noMotes := piles[:2]
		sel, err := c.FindCurrency(noMotes, 130)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, sel.Total, int64(130))
		assert.Equal(t, sel.Total-130, sel.Overshoot)
		assert.Equal(t, int64(20), sel.Overshoot, "closes the gap with a quarter, not a silver")
	})

	t.Run("insufficient piles reported", func(t *testing.T) {
		_, err := c.FindCurrency(piles, 100000)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInsufficientCoins))
	})

	t.Run("zero target selects nothing", func(t *testing.T) {
		sel, err := c.FindCurrency(piles, 0)
		require.NoError(t, err)
		assert.Empty(t, sel.Take)
	})
}

func TestNewRejectsBadDefinitions(t *testing.T) {
	_, err := New("bad", "unit",
		[]Division{{Name: "Zero", Value: 0, Words: []string{"zero"}}},
		nil, nil, true,
	)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidDefinition))

	_, err = New("bad", "unit",
		[]Division{
			{Name: "A", Value: 10, Words: []string{"bit"}},
			{Name: "B", Value: 5, Words: []string{"bit"}},
		},
		nil, nil, true,
	)
	require.Error(t, err, "two divisions claiming one word is a config error")
}
