package duskmud

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/shopspring/decimal"

	"github.com/duskmud/engine/duskmud/database"
)

func LoadConfig(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err = toml.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type Config struct {
	Log      LogConfig         `toml:"log"`
	Engine   EngineConfig      `toml:"engine"`
	DB       database.DBConfig `toml:"db"`
	Mongo    MongoConfig       `toml:"mongo"`
	Currency CurrencyConfig    `toml:"currency"`
	Market   MarketConfig      `toml:"market"`
	Auction  AuctionConfig     `toml:"auction"`
	Shop     ShopConfig        `toml:"shop"`
}

type LogConfig struct {
	Level     slog.Level `toml:"level"`
	Format    string     `toml:"format"`
	AddSource bool       `toml:"add_source"`
}

type EngineConfig struct {
	Zone        string `toml:"zone"`
	BankName    string `toml:"bank_name"`
	TickSeconds int    `toml:"tick_seconds"`
}

// Tick is the scheduler granularity; lazy expiry and cache keys are
// quantised to it.
func (c EngineConfig) Tick() time.Duration {
	if c.TickSeconds <= 0 {
		return time.Second
	}
	return time.Duration(c.TickSeconds) * time.Second
}

// MongoConfig points at the legacy datastore read during -import-legacy.
type MongoConfig struct {
	URI      string `toml:"uri"`
	Database string `toml:"database"`
}

type CurrencyConfig struct {
	Name            string           `toml:"name"`
	CaseInsensitive bool             `toml:"case_insensitive"`
	Divisions       []DivisionConfig `toml:"divisions"`
	Coins           []CoinConfig     `toml:"coins"`
	Patterns        []PatternConfig  `toml:"patterns"`
}

type DivisionConfig struct {
	Name   string   `toml:"name"`
	Value  int64    `toml:"value"`
	Words  []string `toml:"words"`
	Plural string   `toml:"plural"`
}

type CoinConfig struct {
	Name     string `toml:"name"`
	Division string `toml:"division"`
	Value    int64  `toml:"value"`
}

// PatternConfig is one ordered description pattern. Kinds and the amount
// bounds gate eligibility; a pattern with no gates is the default and
// should come last.
type PatternConfig struct {
	Name      string                 `toml:"name"`
	Kinds     []string               `toml:"kinds"`
	MinAmount *int64                 `toml:"min_amount"`
	MaxAmount *int64                 `toml:"max_amount"`
	Elements  []PatternElementConfig `toml:"elements"`
}

type PatternElementConfig struct {
	Division   string `toml:"division"`
	Singular   string `toml:"singular"`
	Plural     string `toml:"plural"`
	Rounding   string `toml:"rounding"` // truncate, nearest or never
	ShowIfZero bool   `toml:"show_if_zero"`

	// SpecialValues maps a count to full replacement text. TOML keys are
	// strings; they must parse as integers.
	SpecialValues map[string]string `toml:"special_values"`
}

type MarketConfig struct {
	Categories []CategoryConfig `toml:"categories"`
}

type CategoryConfig struct {
	Name            string `toml:"name"`
	ElasticityAbove string `toml:"elasticity_above"`
	ElasticityBelow string `toml:"elasticity_below"`
	DefaultTag      string `toml:"default_tag"`
}

type AuctionConfig struct {
	HouseActor string `toml:"house_actor"`
	FeePct     string `toml:"fee_pct"`
}

// Fee returns the listing fee fraction, defaulting to 5%.
func (c AuctionConfig) Fee() (decimal.Decimal, error) {
	if c.FeePct == "" {
		return decimal.RequireFromString("0.05"), nil
	}
	fee, err := decimal.NewFromString(c.FeePct)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid auction fee %q: %w", c.FeePct, err)
	}
	return fee, nil
}

type ShopConfig struct {
	TaxRate    string `toml:"tax_rate"`
	BuybackPct string `toml:"buyback_pct"`
}
