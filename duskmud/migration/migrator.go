// Package migration imports the legacy world's economy data from MongoDB
// into the engine's Postgres schema: characters become accounts, shops
// keep their tills and credit lines, and still-open auctions survive the
// cutover.
package migration

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/uptrace/bun"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/duskmud/engine/duskmud/database/models"
	"github.com/duskmud/engine/duskmud/database/repositories"
	"github.com/duskmud/engine/duskmud/economy"
)

type Migrator struct {
	pgDB    *bun.DB
	mongoDB *mongo.Database

	accounts repositories.AccountRepository
	auctions repositories.AuctionRepository
	shops    repositories.ShopRepository

	ids       *economy.IDGenerator
	batchSize int
	collNames map[string]string
	stats     MigrationStats
}

func NewMigrator(pgDB *bun.DB) *Migrator {
	return &Migrator{
		pgDB:      pgDB,
		accounts:  repositories.NewAccountRepository(pgDB),
		auctions:  repositories.NewAuctionRepository(pgDB),
		shops:     repositories.NewShopRepository(pgDB),
		ids:       economy.NewIDGenerator(),
		batchSize: 1000,
		collNames: map[string]string{
			"characters": "characters",
			"shops":      "shops",
			"auctions":   "auctions",
		},
		stats: MigrationStats{Tables: make(map[string]*TableStats)},
	}
}

// UseMongo enables direct-from-Mongo migration mode.
func (m *Migrator) UseMongo(client *mongo.Client, dbName string) {
	if client != nil && dbName != "" {
		m.mongoDB = client.Database(dbName)
	}
}

// SetMongoCollectionName overrides a source collection name.
func (m *Migrator) SetMongoCollectionName(kind, name string) {
	if kind != "" && name != "" {
		m.collNames[kind] = name
	}
}

func (m *Migrator) getColl(kind string) *mongo.Collection {
	if m.mongoDB == nil {
		return nil
	}
	return m.mongoDB.Collection(m.collNames[kind])
}

func (m *Migrator) table(name string) *TableStats {
	t, ok := m.stats.Tables[name]
	if !ok {
		t = &TableStats{}
		m.stats.Tables[name] = t
	}
	return t
}

// MigrateAllFromMongo runs every import step in dependency order.
func (m *Migrator) MigrateAllFromMongo(ctx context.Context) error {
	if m.mongoDB == nil {
		return fmt.Errorf("mongoDB not configured; call UseMongo first")
	}
	m.stats.StartTime = time.Now()

	steps := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"characters", m.MigrateCharacters},
		{"shops", m.MigrateShops},
		{"auctions", m.MigrateAuctions},
	}

	for _, s := range steps {
		slog.Info("Starting migration step",
			slog.String("type", "db"),
			slog.String("step", s.name))
		if err := s.fn(ctx); err != nil {
			return fmt.Errorf("migration failed at step %s: %w", s.name, err)
		}
	}

	m.stats.EndTime = time.Now()
	m.logFinalStats()
	return nil
}

// MigrateCharacters opens one account per legacy character and seeds it
// with the stored balance. The seed is journalled as a deposit so the
// transaction history starts consistent.
func (m *Migrator) MigrateCharacters(ctx context.Context) error {
	cur, err := m.getColl("characters").Find(ctx, bson.D{})
	if err != nil {
		return fmt.Errorf("failed to query characters: %w", err)
	}
	defer cur.Close(ctx)

	stats := m.table("accounts")
	banks := make(map[string]string)
	now := time.Now()

	for cur.Next(ctx) {
		var mc MongoCharacter
		if err := cur.Decode(&mc); err != nil {
			stats.Skipped++
			continue
		}
		stats.Read++
		if mc.Name == "" {
			stats.Skipped++
			continue
		}

		bankID, ok := banks[mc.BankName]
		if !ok {
			bankID = m.ids.Next(now).String()
			if err := m.accounts.CreateBank(ctx, &models.Bank{
				BankID:          bankID,
				Name:            mc.BankName,
				PrimaryCurrency: mc.Currency,
			}); err != nil {
				return fmt.Errorf("failed to create bank %q: %w", mc.BankName, err)
			}
			banks[mc.BankName] = bankID
		}

		account, tx := m.convertCharacter(mc, bankID)
		if err := m.accounts.Create(ctx, account); err != nil {
			return fmt.Errorf("failed to import account for %q: %w", mc.Name, err)
		}
		if tx != nil {
			tx.AccountID = account.AccountID
			if err := m.accounts.AppendTransaction(ctx, tx); err != nil {
				return fmt.Errorf("failed to seed balance for %q: %w", mc.Name, err)
			}
		}
		stats.Imported++
	}
	return cur.Err()
}

// MigrateShops imports shops and their credit lines.
func (m *Migrator) MigrateShops(ctx context.Context) error {
	cur, err := m.getColl("shops").Find(ctx, bson.D{})
	if err != nil {
		slog.Warn("Shops collection not found; skipping", slog.String("type", "db"))
		return nil
	}
	defer cur.Close(ctx)

	stats := m.table("shops")
	for cur.Next(ctx) {
		var ms MongoShop
		if err := cur.Decode(&ms); err != nil {
			stats.Skipped++
			continue
		}
		stats.Read++

		shop, till, credits := m.convertShop(ms)
		if err := m.accounts.Create(ctx, till); err != nil {
			return fmt.Errorf("failed to import till for %q: %w", ms.Name, err)
		}
		if err := m.shops.Create(ctx, shop); err != nil {
			return fmt.Errorf("failed to import shop %q: %w", ms.Name, err)
		}
		for _, c := range credits {
			if err := m.shops.UpsertCreditAccount(ctx, c); err != nil {
				return fmt.Errorf("failed to import credit line for %q: %w", c.Customer, err)
			}
		}
		stats.Imported++
	}
	return cur.Err()
}

// MigrateAuctions imports still-open listings with their bid history.
// Settled legacy auctions are history, not state, and stay behind.
func (m *Migrator) MigrateAuctions(ctx context.Context) error {
	cur, err := m.getColl("auctions").Find(ctx, bson.D{})
	if err != nil {
		slog.Warn("Auctions collection not found; skipping", slog.String("type", "db"))
		return nil
	}
	defer cur.Close(ctx)

	stats := m.table("auctions")
	for cur.Next(ctx) {
		var ma MongoAuction
		if err := cur.Decode(&ma); err != nil {
			stats.Skipped++
			continue
		}
		stats.Read++
		if ma.Status != "" && ma.Status != "listed" && ma.Status != "active" {
			stats.Skipped++
			continue
		}

		auction, bids := m.convertAuction(ma)
		if err := m.auctions.Create(ctx, auction); err != nil {
			return fmt.Errorf("failed to import auction %q: %w", ma.Lot, err)
		}
		for _, b := range bids {
			if err := m.auctions.AppendBid(ctx, b); err != nil {
				return fmt.Errorf("failed to import bid on %q: %w", ma.Lot, err)
			}
		}
		stats.Imported++
	}
	return cur.Err()
}

func (m *Migrator) logFinalStats() {
	for name, t := range m.stats.Tables {
		slog.Info("Migration table complete",
			slog.String("type", "db"),
			slog.String("table", name),
			slog.Int("read", t.Read),
			slog.Int("imported", t.Imported),
			slog.Int("skipped", t.Skipped))
	}
	slog.Info("Legacy import complete",
		slog.String("type", "db"),
		slog.Duration("took", m.stats.EndTime.Sub(m.stats.StartTime)))
}
