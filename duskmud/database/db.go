package database

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"os"
	"time"

	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"github.com/duskmud/engine/duskmud/database/models"
	"github.com/duskmud/engine/duskmud/logger"
)

const (
	defaultConnTimeout   = 5 * time.Second
	defaultMaxRetries    = 3
	defaultRetryInterval = time.Second
)

type DBConfig struct {
	Host         string `toml:"host"`
	Port         int    `toml:"port"`
	User         string `toml:"user"`
	Password     string `toml:"password"`
	Database     string `toml:"database"`
	PoolSize     int    `toml:"pool_size"`
	MaxIdleConns int    `toml:"max_idle_conns"`
	MaxLifetime  int    `toml:"max_lifetime"`
}

type DB struct {
	pool  *pgxpool.Pool
	bunDB *bun.DB
}

func New(ctx context.Context, cfg DBConfig) (*DB, error) {
	var conn net.Conn
	var err error

	// The pool lazily dials, so probe reachability up front and fail fast
	// instead of at first query.
	addr := net.JoinHostPort(cfg.Host, fmt.Sprintf("%d", cfg.Port))
	for i := 0; i < defaultMaxRetries; i++ {
		conn, err = net.DialTimeout("tcp", addr, defaultConnTimeout)
		if err == nil {
			break
		}
		time.Sleep(defaultRetryInterval)
	}
	if err != nil {
		return nil, fmt.Errorf("database server unreachable after %d attempts: %w", defaultMaxRetries, err)
	}
	defer conn.Close()

	poolConfig, err := pgxpool.ParseConfig(buildConnString(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}
	if cfg.PoolSize > 0 {
		poolConfig.MaxConns = int32(cfg.PoolSize)
	}
	if cfg.MaxIdleConns > 0 {
		poolConfig.MinConns = int32(cfg.MaxIdleConns)
	}
	if cfg.MaxLifetime > 0 {
		poolConfig.MaxConnLifetime = time.Duration(cfg.MaxLifetime) * time.Second
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	return &DB{pool: pool, bunDB: newBunDB(pool)}, nil
}

func buildConnString(cfg DBConfig) string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?connect_timeout=5",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database,
	)
}

func newBunDB(pool *pgxpool.Pool) *bun.DB {
	sslMode := os.Getenv("PG_SSLMODE")
	if sslMode == "" {
		sslMode = "disable"
	}

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		pool.Config().ConnConfig.User,
		pool.Config().ConnConfig.Password,
		pool.Config().ConnConfig.Host,
		pool.Config().ConnConfig.Port,
		pool.Config().ConnConfig.Database,
		sslMode,
	)

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	return bun.NewDB(sqldb, pgdialect.New())
}

func (db *DB) GetPool() *pgxpool.Pool {
	return db.pool
}

func (db *DB) BunDB() *bun.DB {
	return db.bunDB
}

// InitializeSchema creates the engine's tables and indexes.
func (db *DB) InitializeSchema(ctx context.Context) error {
	tables := []interface{}{
		(*models.Bank)(nil),
		(*models.Account)(nil),
		(*models.Transaction)(nil),
		(*models.Auction)(nil),
		(*models.AuctionBid)(nil),
		(*models.Influence)(nil),
		(*models.Shop)(nil),
		(*models.CreditAccount)(nil),
		(*models.ShopRecord)(nil),
		(*models.EconomyEvent)(nil),
	}

	for _, model := range tables {
		_, err := db.bunDB.NewCreateTable().
			Model(model).
			IfNotExists().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_accounts_owner ON accounts(owner_kind, owner_id);",
		"CREATE INDEX IF NOT EXISTS idx_accounts_bank_id ON accounts(bank_id);",
		"CREATE INDEX IF NOT EXISTS idx_transactions_account ON transactions(account_id, at);",
		"CREATE INDEX IF NOT EXISTS idx_transactions_ref ON transactions(ref);",
		"CREATE INDEX IF NOT EXISTS idx_auctions_status_finishes ON auctions(status, finishes_at);",
		"CREATE INDEX IF NOT EXISTS idx_auctions_listed ON auctions(finishes_at) WHERE status = 'listed';",
		"CREATE INDEX IF NOT EXISTS idx_auction_bids_lot ON auction_bids(lot);",
		"CREATE INDEX IF NOT EXISTS idx_influences_zone ON influences(zone);",
		"CREATE INDEX IF NOT EXISTS idx_influences_window ON influences(applies_from, applies_until);",
		"CREATE INDEX IF NOT EXISTS idx_credit_accounts_shop ON credit_accounts(shop_id, customer);",
		"CREATE INDEX IF NOT EXISTS idx_shop_records_shop_at ON shop_records(shop_id, at);",
		"CREATE INDEX IF NOT EXISTS idx_economy_events_kind_at ON economy_events(kind, at);",
	}

	for _, idx := range indexes {
		if _, err := db.ExecWithLog(ctx, idx); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	return nil
}

func (db *DB) ExecWithLog(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	start := time.Now()
	result, err := db.pool.Exec(ctx, sql, args...)
	duration := time.Since(start)

	if err != nil {
		logger.LogQuery(sql, duration, err,
			slog.String("operation", "exec"),
			slog.Any("args", args))
		return result, err
	}

	logger.LogQuery(sql, duration, nil,
		slog.String("operation", "exec"),
		slog.Int64("affected_rows", result.RowsAffected()))
	return result, nil
}

func (db *DB) QueryWithLog(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	start := time.Now()
	rows, err := db.pool.Query(ctx, sql, args...)
	duration := time.Since(start)

	if err != nil {
		logger.LogQuery(sql, duration, err,
			slog.String("operation", "query"),
			slog.Any("args", args))
		return rows, err
	}

	logger.LogQuery(sql, duration, nil,
		slog.String("operation", "query"))
	return rows, nil
}

// Ping verifies both database connections are working.
func (db *DB) Ping(ctx context.Context) error {
	if err := db.pool.Ping(ctx); err != nil {
		return fmt.Errorf("pgxpool ping failed: %w", err)
	}
	if err := db.bunDB.PingContext(ctx); err != nil {
		return fmt.Errorf("bun ping failed: %w", err)
	}
	return nil
}

func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
	if db.bunDB != nil {
		db.bunDB.Close()
	}
}
