package duskmud

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duskmud/engine/duskmud/economy/currency"
)

const currencyTOML = `
[currency]
name = "argent"
case_insensitive = true

[[currency.divisions]]
name = "Silver"
value = 100
words = ["silver"]

[[currency.divisions]]
name = "Mote"
value = 1
words = ["mote"]

[[currency.coins]]
name = "silver piece"
division = "Silver"
value = 100

[[currency.patterns]]
name = "bulk"
min_amount = 10000
[[currency.patterns.elements]]
division = "Silver"
rounding = "nearest"

[[currency.patterns]]
name = "default"
[[currency.patterns.elements]]
division = "Silver"
[[currency.patterns.elements]]
division = "Mote"
[currency.patterns.elements.special_values]
1 = "a single mote"
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfigBuildsDescribableCurrency(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, currencyTOML))
	require.NoError(t, err)
	require.Len(t, cfg.Currency.Patterns, 2)

	cur, err := buildCurrency(cfg.Currency)
	require.NoError(t, err)

	got, err := cur.Describe(305, currency.FormatLong)
	require.NoError(t, err)
	assert.Equal(t, "3 silvers and 5 motes", got)

	got, err = cur.Describe(101, currency.FormatLong)
	require.NoError(t, err)
	assert.Equal(t, "1 silver and a single mote", got)

	// Past the threshold the bulk pattern wins and rounds to whole silvers.
	got, err = cur.Describe(10050, currency.FormatLong)
	require.NoError(t, err)
	assert.Equal(t, "101 silvers", got)
}

func TestBuildCurrencyRejectsBadPatternConfig(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, currencyTOML))
	require.NoError(t, err)

	bad := cfg.Currency
	bad.Patterns[0].Elements[0].Rounding = "sideways"
	_, err = buildCurrency(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rounding")

	cfg, err = LoadConfig(writeConfig(t, currencyTOML))
	require.NoError(t, err)
	bad = cfg.Currency
	bad.Patterns[1].Elements[1].SpecialValues = map[string]string{"one": "a single mote"}
	_, err = buildCurrency(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a count")
}
