// Package app wires configuration, storage, pricing and services into one unit shared
// by the server and the command line tool.
package app

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/ndewijer/Investment-Portfolio-Tracker/internal/api"
	"github.com/ndewijer/Investment-Portfolio-Tracker/internal/config"
	"github.com/ndewijer/Investment-Portfolio-Tracker/internal/database"
	"github.com/ndewijer/Investment-Portfolio-Tracker/internal/quote"
	"github.com/ndewijer/Investment-Portfolio-Tracker/internal/repository"
	"github.com/ndewijer/Investment-Portfolio-Tracker/internal/service"
	"github.com/ndewijer/Investment-Portfolio-Tracker/internal/yahoo"
)

// App holds the open resources and the wired services.
type App struct {
	DB     *sql.DB
	Quotes *quote.Provider
	Log    logrus.FieldLogger

	System      *service.SystemService
	Valuation   *service.ValuationService
	Benchmark   *service.BenchmarkService
	Snapshot    *service.SnapshotService
	Transaction *service.TransactionService

	redis *redis.Client
}

// New opens the database, applies pending migrations and wires every service.
// The caller must Close the returned App.
func New(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (*App, error) {
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		return nil, err
	}
	log.WithField("path", cfg.Database.Path).Info("connected to database")

	if err := database.Migrate(db, log); err != nil {
		db.Close()
		return nil, err
	}

	a := &App{DB: db, Log: log}

	a.Quotes, err = a.newProvider(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}

	// Create repositories
	transactionRepo := repository.NewTransactionRepository(db)
	assetRepo := repository.NewAssetRepository(db)
	benchmarkRepo := repository.NewBenchmarkRepository(db)
	snapshotRepo := repository.NewSnapshotRepository(db)

	// Create services
	a.System = service.NewSystemService(db)
	a.Valuation = service.NewValuationService(transactionRepo, a.Quotes, log)
	a.Benchmark = service.NewBenchmarkService(transactionRepo, benchmarkRepo, a.Quotes, log)
	a.Snapshot = service.NewSnapshotService(db, snapshotRepo, a.Benchmark, a.Valuation, log)
	a.Transaction = service.NewTransactionService(db, transactionRepo, assetRepo, a.Benchmark, a.Quotes, log)

	return a, nil
}

func (a *App) newProvider(ctx context.Context, cfg *config.Config) (*quote.Provider, error) {
	tables, err := quote.LoadTables(cfg.Quote.TablesPath)
	if err != nil {
		return nil, err
	}

	var source quote.Source
	switch cfg.Quote.Source {
	case "static":
		source = quote.NewStaticSource(tables)
	default:
		source = yahoo.NewFinanceClient(cfg.Quote.YahooBaseURL, cfg.Quote.Timeout)
	}

	var cache quote.Cache = quote.NewMemoryCache(cfg.Quote.CacheTTL)
	if cfg.Redis.Addr != "" {
		client, err := quote.DialRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, err
		}
		a.redis = client
		cache = quote.NewRedisCache(client, "", cfg.Quote.CacheTTL)
		a.Log.WithField("addr", cfg.Redis.Addr).Info("using Redis quote cache")
	}

	a.Log.WithFields(logrus.Fields{
		"source":  cfg.Quote.Source,
		"indices": len(tables.Indices),
	}).Info("quote provider ready")

	return quote.NewProvider(source, cache, tables, quote.Config{
		BatchSize:        cfg.Quote.BatchSize,
		Timeout:          cfg.Quote.Timeout,
		RequestsPerSec:   cfg.Quote.RequestsPerSec,
		DefaultUSDPerEUR: cfg.Quote.DefaultUSDPerEUR,
	}, a.Log), nil
}

// Services returns the services the HTTP layer depends on.
func (a *App) Services() api.Services {
	return api.Services{
		System:      a.System,
		Valuation:   a.Valuation,
		Benchmark:   a.Benchmark,
		Snapshot:    a.Snapshot,
		Transaction: a.Transaction,
	}
}

// Close releases the database and the Redis client.
func (a *App) Close() error {
	var firstErr error
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			firstErr = fmt.Errorf("failed to close Redis client: %w", err)
		}
	}
	if err := a.DB.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("failed to close database: %w", err)
	}
	return firstErr
}
