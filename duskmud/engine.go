// Package duskmud wires the economy engine together: configuration,
// persistence, the ledger, market, auction house and shops for one zone.
package duskmud

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/shopspring/decimal"

	"github.com/duskmud/engine/duskmud/database"
	"github.com/duskmud/engine/duskmud/database/models"
	"github.com/duskmud/engine/duskmud/database/repositories"
	"github.com/duskmud/engine/duskmud/economy"
	"github.com/duskmud/engine/duskmud/economy/auction"
	"github.com/duskmud/engine/duskmud/economy/currency"
	"github.com/duskmud/engine/duskmud/economy/ledger"
	"github.com/duskmud/engine/duskmud/economy/market"
	"github.com/duskmud/engine/duskmud/economy/shop"
	"github.com/duskmud/engine/duskmud/logger"
)

func New(cfg Config, version string, commit string) *Engine {
	return &Engine{
		Cfg:     cfg,
		Clock:   economy.SystemClock,
		Version: version,
		Commit:  commit,
	}
}

// Engine is the per-process composition root. The game loop drives it
// through Tick; everything else is wiring.
type Engine struct {
	Cfg     Config
	Clock   economy.Clock
	Version string
	Commit  string

	DB                  *database.DB
	Recorder            economy.Recorder
	AccountRepository   repositories.AccountRepository
	AuctionRepository   repositories.AuctionRepository
	InfluenceRepository repositories.InfluenceRepository
	ShopRepository      repositories.ShopRepository

	Currency *currency.Currency
	Ledger   *ledger.Ledger
	Market   *market.Market
	House    *auction.House
	Shops    []*shop.Shop
}

// SetupDB connects to Postgres, initializes the schema and installs the
// journal recorder.
func (e *Engine) SetupDB(ctx context.Context) error {
	db, err := database.New(ctx, e.Cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.InitializeSchema(ctx); err != nil {
		db.Close()
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	e.DB = db
	e.Recorder = database.NewBunRecorder(db)
	e.AccountRepository = repositories.NewAccountRepository(db.BunDB())
	e.AuctionRepository = repositories.NewAuctionRepository(db.BunDB())
	e.InfluenceRepository = repositories.NewInfluenceRepository(db.BunDB())
	e.ShopRepository = repositories.NewShopRepository(db.BunDB())
	return nil
}

// SetupEconomy builds the in-memory simulation from configuration. Must
// run after SetupDB when persistence is wanted; with a nil recorder the
// engine runs purely in memory.
func (e *Engine) SetupEconomy() error {
	recorder := e.Recorder
	if recorder == nil {
		recorder = economy.NopRecorder{}
	}

	cur, err := buildCurrency(e.Cfg.Currency)
	if err != nil {
		return err
	}
	e.Currency = cur

	e.Ledger = ledger.New(e.Clock, recorder)

	categories := make([]market.Category, 0, len(e.Cfg.Market.Categories))
	for _, c := range e.Cfg.Market.Categories {
		above, err := decimal.NewFromString(c.ElasticityAbove)
		if err != nil {
			return fmt.Errorf("category %q: invalid elasticity_above: %w", c.Name, err)
		}
		below, err := decimal.NewFromString(c.ElasticityBelow)
		if err != nil {
			return fmt.Errorf("category %q: invalid elasticity_below: %w", c.Name, err)
		}
		categories = append(categories, market.Category{
			Name:                  c.Name,
			ElasticityFactorAbove: above,
			ElasticityFactorBelow: below,
			DefaultTag:            c.DefaultTag,
		})
	}
	mkt, err := market.New(e.Cfg.Engine.Zone, e.Clock, recorder, e.Cfg.Engine.Tick(), categories)
	if err != nil {
		return fmt.Errorf("failed to build market: %w", err)
	}
	e.Market = mkt

	logger.LogEconomy("Economy built",
		slog.String("zone", e.Cfg.Engine.Zone),
		slog.String("currency", cur.Name),
		slog.Int("categories", len(categories)))
	return nil
}

// BeginInfluence stamps a market influence and persists its window so the
// row outlives a restart. A persistence failure is logged, not rolled back
// into the simulation.
func (e *Engine) BeginInfluence(ctx context.Context, template string, from time.Time, until *time.Time, effects []market.CategoryEffect, visibility market.VisibilityGuard) (*market.Influence, error) {
	inf, err := e.Market.AddInfluence(template, from, until, effects, visibility)
	if err != nil {
		return nil, err
	}
	if e.InfluenceRepository != nil {
		row := &models.Influence{
			InfluenceID:  inf.ID.String(),
			Zone:         e.Cfg.Engine.Zone,
			Template:     template,
			AppliesFrom:  from,
			AppliesUntil: until,
			Effects:      influenceEffects(effects),
		}
		if err := e.InfluenceRepository.Create(ctx, row); err != nil {
			slog.Error("Failed to persist influence",
				slog.String("type", "db"),
				slog.String("influence", inf.ID.String()),
				slog.Any("error", err))
		}
	}
	return inf, nil
}

// EndInfluence ends a market influence early and closes its persisted
// window.
func (e *Engine) EndInfluence(ctx context.Context, id snowflake.ID) error {
	if err := e.Market.EndInfluence(id); err != nil {
		return err
	}
	if e.InfluenceRepository != nil {
		until := e.Clock.CurrentDateTime().Add(-e.Cfg.Engine.Tick())
		if err := e.InfluenceRepository.CloseWindow(ctx, id.String(), until); err != nil {
			slog.Error("Failed to close influence window",
				slog.String("type", "db"),
				slog.String("influence", id.String()),
				slog.Any("error", err))
		}
	}
	return nil
}

func influenceEffects(effects []market.CategoryEffect) map[string]any {
	out := make(map[string]any, len(effects))
	for _, eff := range effects {
		out[eff.Category] = map[string]any{
			"supply_pct": eff.SupplyPct,
			"demand_pct": eff.DemandPct,
		}
	}
	return out
}

// SetupAuctionHouse opens the zone's auction house on freshly created
// escrow and fee accounts at the given bank.
func (e *Engine) SetupAuctionHouse(bankID snowflake.ID) error {
	recorder := e.Recorder
	if recorder == nil {
		recorder = economy.NopRecorder{}
	}
	actor := e.Cfg.Auction.HouseActor
	if actor == "" {
		actor = "auction-house"
	}
	owner := economy.Owner{Kind: economy.OwnerSystem, ID: actor}

	escrow, err := e.Ledger.OpenAccount(bankID, owner, e.Cfg.Currency.Name)
	if err != nil {
		return fmt.Errorf("failed to open escrow account: %w", err)
	}
	fees, err := e.Ledger.OpenAccount(bankID, owner, e.Cfg.Currency.Name)
	if err != nil {
		return fmt.Errorf("failed to open fee account: %w", err)
	}
	fee, err := e.Cfg.Auction.Fee()
	if err != nil {
		return err
	}

	e.House = auction.NewHouse(e.Ledger, e.Clock, recorder, actor, escrow.ID, fees.ID, fee)
	return nil
}

// OpenShop builds a shop on an existing till account and registers it
// with the scheduler so Restock runs each tick.
func (e *Engine) OpenShop(cfg shop.Config) (*shop.Shop, error) {
	recorder := e.Recorder
	if recorder == nil {
		recorder = economy.NopRecorder{}
	}
	s, err := shop.New(cfg, e.Ledger, e.Market, e.Clock, recorder)
	if err != nil {
		return nil, fmt.Errorf("failed to open shop %q: %w", cfg.Name, err)
	}
	e.Shops = append(e.Shops, s)
	return s, nil
}

// Tick runs one scheduler step: lazily resolve expired auctions and
// restock shop shelves. All lazy state in the engine is pulled current
// here.
func (e *Engine) Tick(ctx context.Context) {
	now := e.Clock.CurrentDateTime()
	if e.House != nil {
		e.House.ResolveAll(ctx)
	}
	for _, s := range e.Shops {
		s.Restock(now)
	}
}

// Run drives Tick until the context ends.
func (e *Engine) Run(ctx context.Context) {
	ticker := time.NewTicker(e.Cfg.Engine.Tick())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.Tick(ctx)
		}
	}
}

func (e *Engine) Close() {
	if e.DB != nil {
		e.DB.Close()
	}
}

func buildCurrency(cfg CurrencyConfig) (*currency.Currency, error) {
	divisions := make([]currency.Division, 0, len(cfg.Divisions))
	baseUnit := ""
	for _, d := range cfg.Divisions {
		divisions = append(divisions, currency.Division{
			Name:   d.Name,
			Value:  d.Value,
			Words:  d.Words,
			Plural: d.Plural,
		})
		if d.Value == 1 {
			baseUnit = d.Name
		}
	}
	coins := make([]currency.Coin, 0, len(cfg.Coins))
	for _, c := range cfg.Coins {
		coins = append(coins, currency.Coin{
			Name:     c.Name,
			Division: c.Division,
			Value:    c.Value,
		})
	}
	patterns, err := buildPatterns(cfg.Patterns)
	if err != nil {
		return nil, err
	}
	return currency.New(cfg.Name, baseUnit, divisions, coins, patterns, cfg.CaseInsensitive)
}

func buildPatterns(cfgs []PatternConfig) ([]currency.DescriptionPattern, error) {
	patterns := make([]currency.DescriptionPattern, 0, len(cfgs))
	for _, pc := range cfgs {
		elements := make([]currency.PatternElement, 0, len(pc.Elements))
		for _, ec := range pc.Elements {
			rounding, err := parseRounding(ec.Rounding)
			if err != nil {
				return nil, fmt.Errorf("pattern %q: %w", pc.Name, err)
			}
			var special map[int64]string
			if len(ec.SpecialValues) > 0 {
				special = make(map[int64]string, len(ec.SpecialValues))
				for k, v := range ec.SpecialValues {
					count, err := strconv.ParseInt(k, 10, 64)
					if err != nil {
						return nil, fmt.Errorf("pattern %q: special value key %q is not a count", pc.Name, k)
					}
					special[count] = v
				}
			}
			elements = append(elements, currency.PatternElement{
				Division:      ec.Division,
				Singular:      ec.Singular,
				Plural:        ec.Plural,
				Rounding:      rounding,
				ShowIfZero:    ec.ShowIfZero,
				SpecialValues: special,
			})
		}
		patterns = append(patterns, currency.DescriptionPattern{
			Name:     pc.Name,
			Guard:    patternGuard(pc),
			Elements: elements,
		})
	}
	return patterns, nil
}

func parseRounding(s string) (currency.RoundingMode, error) {
	switch s {
	case "", "truncate":
		return currency.RoundTruncate, nil
	case "nearest":
		return currency.RoundNearest, nil
	case "never":
		return currency.RoundNever, nil
	}
	return 0, fmt.Errorf("unknown rounding mode %q", s)
}

// patternGuard compiles the configured gates into a guard predicate. A
// pattern without gates matches everything.
func patternGuard(pc PatternConfig) currency.PatternGuard {
	if len(pc.Kinds) == 0 && pc.MinAmount == nil && pc.MaxAmount == nil {
		return nil
	}
	kinds := make(map[currency.FormatKind]bool, len(pc.Kinds))
	for _, k := range pc.Kinds {
		kinds[currency.FormatKind(k)] = true
	}
	lo, hi := pc.MinAmount, pc.MaxAmount
	return func(amount int64, kind currency.FormatKind) bool {
		if len(kinds) > 0 && !kinds[kind] {
			return false
		}
		if lo != nil && amount < *lo {
			return false
		}
		if hi != nil && amount >= *hi {
			return false
		}
		return true
	}
}
