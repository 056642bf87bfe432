package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/duskmud/engine/duskmud"
	"github.com/duskmud/engine/duskmud/logger"
	"github.com/duskmud/engine/duskmud/migration"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	// Initialize custom logger
	customHandler := logger.NewHandler()
	slog.SetDefault(slog.New(customHandler))

	slog.Info("Starting DuskMUD Economy Engine",
		slog.String("version", version),
		slog.String("commit", commit))

	shouldImportLegacy := flag.Bool("import-legacy", false, "Whether to import legacy world data from MongoDB on startup")
	path := flag.String("config", "config.toml", "path to config")
	flag.Parse()

	cfg, err := duskmud.LoadConfig(*path)
	if err != nil {
		slog.Error("Failed to load configuration", slog.Any("error", err))
		os.Exit(-1)
	}
	applyLogConfig(customHandler, cfg.Log)
	slog.Info("Configuration loaded successfully")

	slog.Info("Initializing database connection...")
	dbStartTime := time.Now()

	// Schema init can take a while on a cold volume
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	e := duskmud.New(*cfg, version, commit)
	if err := e.SetupDB(ctx); err != nil {
		slog.Error("Database setup failed",
			slog.String("error", err.Error()),
			slog.Duration("attempted_for", time.Since(dbStartTime)))
		os.Exit(-1)
	}
	defer e.Close()

	slog.Info("Database connected successfully",
		slog.String("database", cfg.DB.Database),
		slog.Duration("took", time.Since(dbStartTime)))

	if *shouldImportLegacy {
		if err := importLegacy(ctx, e); err != nil {
			slog.Error("Legacy import failed",
				slog.String("type", "db"),
				slog.Any("error", err))
			os.Exit(-1)
		}
	}

	if err := e.SetupEconomy(); err != nil {
		logger.LogError("Failed to build economy", err)
		os.Exit(-1)
	}

	bankName := cfg.Engine.BankName
	if bankName == "" {
		bankName = "Zone Reserve"
	}
	bank := e.Ledger.CreateBank(bankName, cfg.Currency.Name)
	if err := e.SetupAuctionHouse(bank.ID); err != nil {
		logger.LogError("Failed to open auction house", err)
		os.Exit(-1)
	}

	runCtx, stop := context.WithCancel(context.Background())
	defer stop()
	go e.Run(runCtx)

	logger.LogSystem("Engine is running. Press CTRL-C to exit.")
	s := make(chan os.Signal, 1)
	signal.Notify(s, syscall.SIGINT, syscall.SIGTERM)
	<-s
	logger.LogSystem("Shutting down engine...")
}

// applyLogConfig reshapes the default logger from the loaded config. The
// colored handler starts at debug so config load failures are visible.
func applyLogConfig(h *logger.CustomHandler, cfg duskmud.LogConfig) {
	if cfg.Format == "json" {
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level:     cfg.Level,
			AddSource: cfg.AddSource,
		})))
		return
	}
	h.SetLevel(cfg.Level)
}

func importLegacy(ctx context.Context, e *duskmud.Engine) error {
	cfg := e.Cfg.Mongo
	slog.Info("Importing legacy world data",
		slog.String("type", "db"),
		slog.String("source", cfg.Database))

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return err
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = client.Disconnect(disconnectCtx)
	}()

	m := migration.NewMigrator(e.DB.BunDB())
	m.UseMongo(client, cfg.Database)
	return m.MigrateAllFromMongo(ctx)
}
