package testutil

import (
	"database/sql"
	"sort"
	"testing"
	"time"

	"github.com/ndewijer/Investment-Portfolio-Tracker/internal/ledger"
	"github.com/ndewijer/Investment-Portfolio-Tracker/internal/model"
	"github.com/ndewijer/Investment-Portfolio-Tracker/internal/repository"
)

// AssetBuilder provides a fluent interface for creating test assets.
//
// Example usage:
//
//	// Simple creation with defaults
//	asset := testutil.NewAsset().Build(t, db)
//
//	// Customized asset
//	asset := testutil.NewAsset().
//	    WithTicker("BTC").
//	    WithType(model.AssetTypeCrypto).
//	    Build(t, db)
type AssetBuilder struct {
	ID        string
	Ticker    string
	Name      string
	Type      model.AssetType
	CreatedAt time.Time
}

// NewAsset creates an AssetBuilder with sensible defaults.
func NewAsset() *AssetBuilder {
	ticker := MakeTicker("TST")
	return &AssetBuilder{
		ID:        MakeID(),
		Ticker:    ticker,
		Name:      ticker + " Inc.",
		Type:      model.AssetTypeStock,
		CreatedAt: time.Now().UTC(),
	}
}

// WithID sets a custom ID.
func (b *AssetBuilder) WithID(id string) *AssetBuilder {
	b.ID = id
	return b
}

// WithTicker sets the ticker.
func (b *AssetBuilder) WithTicker(ticker string) *AssetBuilder {
	b.Ticker = ticker
	return b
}

// WithName sets the name.
func (b *AssetBuilder) WithName(name string) *AssetBuilder {
	b.Name = name
	return b
}

// WithType sets the asset type.
func (b *AssetBuilder) WithType(assetType model.AssetType) *AssetBuilder {
	b.Type = assetType
	return b
}

// Build creates the asset in the database and returns it.
func (b *AssetBuilder) Build(t *testing.T, db *sql.DB) model.Asset {
	t.Helper()

	query := `
		INSERT INTO asset (id, ticker, name, type, created_at)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := db.Exec(query, b.ID, b.Ticker, b.Name, b.Type, repository.FormatTime(b.CreatedAt))
	if err != nil {
		t.Fatalf("Failed to create test asset: %v", err)
	}

	return model.Asset{
		ID:        b.ID,
		Ticker:    b.Ticker,
		Name:      b.Name,
		Type:      b.Type,
		CreatedAt: b.CreatedAt.UTC().Truncate(time.Millisecond),
	}
}

// CreateAsset creates an asset with the given ticker and default values.
//
// Example usage:
//
//	asset := testutil.CreateAsset(t, db, "AAPL")
func CreateAsset(t *testing.T, db *sql.DB, ticker string) model.Asset {
	t.Helper()
	return NewAsset().WithTicker(ticker).Build(t, db)
}

// TransactionBuilder provides a fluent interface for creating transactions.
// TotalEUR is derived from the other fields unless set explicitly.
//
// Example usage:
//
//	tx := testutil.NewTransaction(asset.ID).
//	    WithType(model.TransactionSell).
//	    WithQuantity(2).
//	    Build(t, db)
type TransactionBuilder struct {
	ID           string
	AssetID      string
	Date         time.Time
	Type         model.TransactionType
	Quantity     float64
	UnitPrice    float64
	Currency     string
	ExchangeRate float64
	Fees         float64
	TotalEUR     *float64
}

// NewTransaction creates a TransactionBuilder for a 10 x 100 EUR BUY.
func NewTransaction(assetID string) *TransactionBuilder {
	return &TransactionBuilder{
		ID:           MakeID(),
		AssetID:      assetID,
		Date:         time.Now().UTC(),
		Type:         model.TransactionBuy,
		Quantity:     10,
		UnitPrice:    100,
		Currency:     "EUR",
		ExchangeRate: 1,
	}
}

// WithID sets a custom ID
func (b *TransactionBuilder) WithID(id string) *TransactionBuilder {
	b.ID = id
	return b
}

// WithDate sets the transaction date
func (b *TransactionBuilder) WithDate(date time.Time) *TransactionBuilder {
	b.Date = date
	return b
}

// WithType sets the transaction type
func (b *TransactionBuilder) WithType(txType model.TransactionType) *TransactionBuilder {
	b.Type = txType
	return b
}

// WithQuantity sets the quantity
func (b *TransactionBuilder) WithQuantity(quantity float64) *TransactionBuilder {
	b.Quantity = quantity
	return b
}

// WithUnitPrice sets the unit price
func (b *TransactionBuilder) WithUnitPrice(price float64) *TransactionBuilder {
	b.UnitPrice = price
	return b
}

// WithCurrency sets the currency and its exchange rate to EUR.
func (b *TransactionBuilder) WithCurrency(currency string, rate float64) *TransactionBuilder {
	b.Currency = currency
	b.ExchangeRate = rate
	return b
}

// WithFees sets the fees
func (b *TransactionBuilder) WithFees(fees float64) *TransactionBuilder {
	b.Fees = fees
	return b
}

// WithTotalEUR overrides the derived EUR total.
func (b *TransactionBuilder) WithTotalEUR(total float64) *TransactionBuilder {
	b.TotalEUR = &total
	return b
}

// Build creates the transaction in the database
func (b *TransactionBuilder) Build(t *testing.T, db *sql.DB) model.Transaction {
	t.Helper()

	total := ledger.TotalEUR(b.Quantity, b.UnitPrice, b.Fees, b.Currency, b.ExchangeRate)
	if b.TotalEUR != nil {
		total = *b.TotalEUR
	}
	now := time.Now().UTC()

	query := `
		INSERT INTO "transaction" (
			id, asset_id, date, type, quantity, unit_price,
			currency, exchange_rate, fees, total_eur, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := db.Exec(query,
		b.ID, b.AssetID, repository.FormatTime(b.Date), b.Type, b.Quantity, b.UnitPrice,
		b.Currency, b.ExchangeRate, b.Fees, total, repository.FormatTime(now),
	)
	if err != nil {
		t.Fatalf("Failed to create transaction: %v", err)
	}

	return model.Transaction{
		ID:           b.ID,
		AssetID:      b.AssetID,
		Date:         b.Date.UTC().Truncate(time.Millisecond),
		Type:         b.Type,
		Quantity:     b.Quantity,
		UnitPrice:    b.UnitPrice,
		Currency:     b.Currency,
		ExchangeRate: b.ExchangeRate,
		Fees:         b.Fees,
		TotalEUR:     total,
		CreatedAt:    now.Truncate(time.Millisecond),
	}
}

// BenchmarkBuilder provides a fluent interface for recording transaction benchmarks.
//
// Example usage:
//
//	testutil.NewBenchmark(tx.ID).
//	    WithPrice(model.IndexSP500, 4000).
//	    Build(t, db)
type BenchmarkBuilder struct {
	TransactionID string
	RecordedAt    time.Time
	Source        model.BenchmarkSource
	Prices        map[model.IndexKey]float64
}

// NewBenchmark creates a live BenchmarkBuilder without prices.
func NewBenchmark(transactionID string) *BenchmarkBuilder {
	return &BenchmarkBuilder{
		TransactionID: transactionID,
		RecordedAt:    time.Now().UTC(),
		Source:        model.BenchmarkSourceLive,
		Prices:        make(map[model.IndexKey]float64),
	}
}

// WithPrice sets the recorded EUR price of one index.
func (b *BenchmarkBuilder) WithPrice(key model.IndexKey, price float64) *BenchmarkBuilder {
	b.Prices[key] = price
	return b
}

// WithSource sets the benchmark source.
func (b *BenchmarkBuilder) WithSource(source model.BenchmarkSource) *BenchmarkBuilder {
	b.Source = source
	return b
}

// Build stores the benchmark and its prices.
func (b *BenchmarkBuilder) Build(t *testing.T, db *sql.DB) model.TransactionBenchmark {
	t.Helper()

	_, err := db.Exec(`
		INSERT INTO transaction_benchmark (transaction_id, recorded_at, source)
		VALUES (?, ?, ?)
	`, b.TransactionID, repository.FormatTime(b.RecordedAt), b.Source)
	if err != nil {
		t.Fatalf("Failed to create transaction benchmark: %v", err)
	}

	for key, price := range b.Prices {
		_, err := db.Exec(`
			INSERT INTO transaction_benchmark_price (transaction_id, index_key, price)
			VALUES (?, ?, ?)
		`, b.TransactionID, key, price)
		if err != nil {
			t.Fatalf("Failed to create transaction benchmark price: %v", err)
		}
	}

	return model.TransactionBenchmark{
		TransactionID: b.TransactionID,
		RecordedAt:    b.RecordedAt.UTC().Truncate(time.Millisecond),
		Source:        b.Source,
		Prices:        b.Prices,
	}
}

// SnapshotBuilder provides a fluent interface for creating portfolio snapshots.
type SnapshotBuilder struct {
	Bucket   time.Time
	Value    float64
	Invested float64
	Indices  map[model.IndexKey]model.SnapshotIndex
}

// NewSnapshot creates a SnapshotBuilder for the bucket containing at.
func NewSnapshot(at time.Time) *SnapshotBuilder {
	return &SnapshotBuilder{
		Bucket:   at.UTC().Truncate(15 * time.Minute),
		Value:    1000,
		Invested: 900,
		Indices:  make(map[model.IndexKey]model.SnapshotIndex),
	}
}

// WithValues sets the portfolio value and invested amount.
func (b *SnapshotBuilder) WithValues(value, invested float64) *SnapshotBuilder {
	b.Value = value
	b.Invested = invested
	return b
}

// WithIndex sets the price and theoretical units of one index.
func (b *SnapshotBuilder) WithIndex(key model.IndexKey, price, units float64) *SnapshotBuilder {
	b.Indices[key] = model.SnapshotIndex{Price: price, Units: units}
	return b
}

// Build stores the snapshot and its index rows.
func (b *SnapshotBuilder) Build(t *testing.T, db *sql.DB) model.PortfolioSnapshot {
	t.Helper()

	now := time.Now().UTC()
	bucket := repository.FormatTime(b.Bucket)

	_, err := db.Exec(`
		INSERT INTO portfolio_snapshot (bucket, total_value, total_invested, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`, bucket, b.Value, b.Invested, repository.FormatTime(now), repository.FormatTime(now))
	if err != nil {
		t.Fatalf("Failed to create portfolio snapshot: %v", err)
	}

	keys := make([]string, 0, len(b.Indices))
	for k := range b.Indices {
		keys = append(keys, string(k))
	}
	sort.Strings(keys)

	for _, k := range keys {
		idx := b.Indices[model.IndexKey(k)]
		_, err := db.Exec(`
			INSERT INTO portfolio_snapshot_index (bucket, index_key, price, units)
			VALUES (?, ?, ?, ?)
		`, bucket, k, idx.Price, idx.Units)
		if err != nil {
			t.Fatalf("Failed to create portfolio snapshot index: %v", err)
		}
	}

	return model.PortfolioSnapshot{
		Bucket:           b.Bucket,
		TotalValueEUR:    b.Value,
		TotalInvestedEUR: b.Invested,
		Indices:          b.Indices,
		CreatedAt:        now.Truncate(time.Millisecond),
		UpdatedAt:        now.Truncate(time.Millisecond),
	}
}
