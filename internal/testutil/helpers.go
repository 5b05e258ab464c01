package testutil

import (
	"database/sql"
	"math/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"

	"github.com/ndewijer/Investment-Portfolio-Tracker/internal/quote"
	"github.com/ndewijer/Investment-Portfolio-Tracker/internal/repository"
	"github.com/ndewijer/Investment-Portfolio-Tracker/internal/service"
)

// NewTestLogger returns a logger that records entries instead of printing them.
//
// Example usage:
//
//	log, hook := testutil.NewTestLogger()
//	// ... run code that logs
//	entries := hook.AllEntries()
func NewTestLogger() (*logrus.Logger, *logtest.Hook) {
	log, hook := logtest.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	return log, hook
}

// NewTestProvider creates a quote.Provider over source with the default tables and a
// fresh in-memory cache.
func NewTestProvider(t *testing.T, source quote.Source) *quote.Provider {
	t.Helper()

	log, _ := NewTestLogger()
	return quote.NewProvider(
		source,
		quote.NewMemoryCache(quote.DefaultCacheTTL),
		quote.DefaultTables(),
		quote.Config{},
		log,
	)
}

// Services bundles every service wired over one database and one quote provider,
// the same way the server wires them.
type Services struct {
	Quotes      *quote.Provider
	Valuation   *service.ValuationService
	Benchmark   *service.BenchmarkService
	Snapshot    *service.SnapshotService
	Transaction *service.TransactionService
	System      *service.SystemService
}

// NewTestServices wires all services over db, pricing through source.
//
// Example usage:
//
//	db := testutil.SetupTestDB(t)
//	svc := testutil.NewTestServices(t, db, testutil.NewMockQuoteSourceWithIndices())
//	created, err := svc.Transaction.AddTransaction(ctx, req)
func NewTestServices(t *testing.T, db *sql.DB, source quote.Source) *Services {
	t.Helper()

	log, _ := NewTestLogger()
	quotes := NewTestProvider(t, source)

	transactionRepo := repository.NewTransactionRepository(db)
	assetRepo := repository.NewAssetRepository(db)
	benchmarkRepo := repository.NewBenchmarkRepository(db)
	snapshotRepo := repository.NewSnapshotRepository(db)

	valuation := service.NewValuationService(transactionRepo, quotes, log)
	benchmark := service.NewBenchmarkService(transactionRepo, benchmarkRepo, quotes, log)

	return &Services{
		Quotes:      quotes,
		Valuation:   valuation,
		Benchmark:   benchmark,
		Snapshot:    service.NewSnapshotService(db, snapshotRepo, benchmark, valuation, log),
		Transaction: service.NewTransactionService(db, transactionRepo, assetRepo, benchmark, quotes, log),
		System:      service.NewSystemService(db),
	}
}

func NewTestValuationService(t *testing.T, db *sql.DB, source quote.Source) *service.ValuationService {
	t.Helper()
	return NewTestServices(t, db, source).Valuation
}

func NewTestBenchmarkService(t *testing.T, db *sql.DB, source quote.Source) *service.BenchmarkService {
	t.Helper()
	return NewTestServices(t, db, source).Benchmark
}

func NewTestSnapshotService(t *testing.T, db *sql.DB, source quote.Source) *service.SnapshotService {
	t.Helper()
	return NewTestServices(t, db, source).Snapshot
}

func NewTestTransactionService(t *testing.T, db *sql.DB, source quote.Source) *service.TransactionService {
	t.Helper()
	return NewTestServices(t, db, source).Transaction
}

func NewTestSystemService(t *testing.T, db *sql.DB) *service.SystemService {
	t.Helper()

	return service.NewSystemService(db)
}

// MakeID generates a UUID string for use in tests.
//
// Example usage:
//
//	id := testutil.MakeID()
//	// Returns: "550e8400-e29b-41d4-a716-446655440000"
func MakeID() string {
	return uuid.New().String()
}

// MakeTicker generates a unique upper-case ticker for testing.
//
// Example usage:
//
//	ticker := testutil.MakeTicker("AAPL")
//	// Returns: "AAPL1A2B"
func MakeTicker(base string) string {
	if base == "" {
		base = "TEST"
	}
	return base + randomAlphanumeric(4)
}

// Float64 returns a pointer to v, for optional request fields.
func Float64(v float64) *float64 {
	return &v
}

// String returns a pointer to v, for optional request fields.
func String(v string) *string {
	return &v
}

// randomAlphanumeric generates a random alphanumeric string of specified length.
func randomAlphanumeric(length int) string {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	result := make([]byte, length)
	for i := range result {
		//nolint:gosec // G404: Using math/rand for test data generation is acceptable
		result[i] = charset[rand.Intn(len(charset))]
	}
	return string(result)
}
