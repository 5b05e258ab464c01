package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/ndewijer/Investment-Portfolio-Tracker/internal/apperrors"
	"github.com/ndewijer/Investment-Portfolio-Tracker/internal/model"
)

// BenchmarkRepository provides data access methods for the transaction_benchmark
// and transaction_benchmark_price tables.
type BenchmarkRepository struct {
	db *sql.DB
	tx *sql.Tx
}

// BenchmarkedBuy is a BUY transaction together with the index prices recorded for it.
type BenchmarkedBuy struct {
	TransactionID string
	TotalEUR      float64
	Prices        map[model.IndexKey]float64
}

// NewBenchmarkRepository creates a new BenchmarkRepository with the provided database connection.
func NewBenchmarkRepository(db *sql.DB) *BenchmarkRepository {
	return &BenchmarkRepository{db: db}
}

// WithTx returns a new BenchmarkRepository scoped to the provided transaction.
func (r *BenchmarkRepository) WithTx(tx *sql.Tx) *BenchmarkRepository {
	return &BenchmarkRepository{
		db: r.db,
		tx: tx,
	}
}

func (r *BenchmarkRepository) getQuerier() querier {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

// GetBenchmark retrieves the benchmark of a transaction.
// Returns apperrors.ErrBenchmarkNotFound if none was recorded.
func (r *BenchmarkRepository) GetBenchmark(ctx context.Context, transactionID string) (model.TransactionBenchmark, error) {
	b := model.TransactionBenchmark{TransactionID: transactionID}
	var recordedAtStr string

	err := r.getQuerier().QueryRowContext(ctx, `
		SELECT recorded_at, source FROM transaction_benchmark WHERE transaction_id = ?
	`, transactionID).Scan(&recordedAtStr, &b.Source)
	if errors.Is(err, sql.ErrNoRows) {
		return model.TransactionBenchmark{}, apperrors.ErrBenchmarkNotFound
	}
	if err != nil {
		return model.TransactionBenchmark{}, fmt.Errorf("failed to query transaction_benchmark table: %w", err)
	}

	if b.RecordedAt, err = ParseTime(recordedAtStr); err != nil {
		return model.TransactionBenchmark{}, err
	}

	prices, err := r.getPrices(ctx, []string{transactionID})
	if err != nil {
		return model.TransactionBenchmark{}, err
	}
	b.Prices = prices[transactionID]
	if b.Prices == nil {
		b.Prices = map[model.IndexKey]float64{}
	}

	return b, nil
}

// InsertBenchmark stores a benchmark unless the transaction already has one.
// Returns false when an existing benchmark was kept.
//
// The header and its index prices are written in one SQL transaction: either the
// whole benchmark is stored or nothing is. A repository scoped with WithTx joins
// the caller's transaction instead.
func (r *BenchmarkRepository) InsertBenchmark(ctx context.Context, b model.TransactionBenchmark) (bool, error) {
	if r.tx != nil {
		return r.insertBenchmark(ctx, r.tx, b)
	}

	var inserted bool
	err := RunInTx(ctx, r.db, func(tx *sql.Tx) error {
		var err error
		inserted, err = r.insertBenchmark(ctx, tx, b)
		return err
	})
	if err != nil {
		return false, err
	}
	return inserted, nil
}

func (r *BenchmarkRepository) insertBenchmark(ctx context.Context, q querier, b model.TransactionBenchmark) (bool, error) {

	result, err := q.ExecContext(ctx, `
		INSERT INTO transaction_benchmark (transaction_id, recorded_at, source)
		VALUES (?, ?, ?)
		ON CONFLICT(transaction_id) DO NOTHING
	`, b.TransactionID, FormatTime(b.RecordedAt), b.Source)
	if err != nil {
		return false, fmt.Errorf("failed to insert transaction benchmark: %w", err)
	}

	inserted, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if inserted == 0 {
		return false, nil
	}

	keys := make([]string, 0, len(b.Prices))
	for k := range b.Prices {
		keys = append(keys, string(k))
	}
	sort.Strings(keys)

	for _, k := range keys {
		_, err := q.ExecContext(ctx, `
			INSERT INTO transaction_benchmark_price (transaction_id, index_key, price)
			VALUES (?, ?, ?)
		`, b.TransactionID, k, b.Prices[model.IndexKey(k)])
		if err != nil {
			return false, fmt.Errorf("failed to insert transaction benchmark price: %w", err)
		}
	}

	return true, nil
}

// GetBenchmarkedBuys retrieves every BUY transaction that has a benchmark.
func (r *BenchmarkRepository) GetBenchmarkedBuys(ctx context.Context) ([]BenchmarkedBuy, error) {
	rows, err := r.getQuerier().QueryContext(ctx, `
		SELECT t.id, t.total_eur
		FROM "transaction" t
		JOIN transaction_benchmark tb ON tb.transaction_id = t.id
		WHERE t.type = ?
		ORDER BY t.date ASC
	`, model.TransactionBuy)
	if err != nil {
		return nil, fmt.Errorf("failed to query benchmarked transactions: %w", err)
	}
	defer rows.Close()

	buys := []BenchmarkedBuy{}
	var ids []string
	for rows.Next() {
		var b BenchmarkedBuy
		if err := rows.Scan(&b.TransactionID, &b.TotalEUR); err != nil {
			return nil, fmt.Errorf("failed to scan benchmarked transactions: %w", err)
		}
		buys = append(buys, b)
		ids = append(ids, b.TransactionID)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating benchmarked transactions: %w", err)
	}

	prices, err := r.getPrices(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range buys {
		buys[i].Prices = prices[buys[i].TransactionID]
	}

	return buys, nil
}

// GetBuysWithoutBenchmark retrieves BUY transactions lacking a benchmark, oldest first.
func (r *BenchmarkRepository) GetBuysWithoutBenchmark(ctx context.Context) ([]model.Transaction, error) {
	rows, err := r.getQuerier().QueryContext(ctx, `
		SELECT t.id, t.asset_id, t.date, t.type, t.total_eur
		FROM "transaction" t
		LEFT JOIN transaction_benchmark tb ON tb.transaction_id = t.id
		WHERE t.type = ? AND tb.transaction_id IS NULL
		ORDER BY t.date ASC
	`, model.TransactionBuy)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions without benchmark: %w", err)
	}
	defer rows.Close()

	transactions := []model.Transaction{}
	for rows.Next() {
		var t model.Transaction
		var dateStr string
		if err := rows.Scan(&t.ID, &t.AssetID, &dateStr, &t.Type, &t.TotalEUR); err != nil {
			return nil, fmt.Errorf("failed to scan transactions without benchmark: %w", err)
		}
		if t.Date, err = ParseTime(dateStr); err != nil {
			return nil, err
		}
		transactions = append(transactions, t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions without benchmark: %w", err)
	}

	return transactions, nil
}

func (r *BenchmarkRepository) getPrices(ctx context.Context, transactionIDs []string) (map[string]map[model.IndexKey]float64, error) {
	result := make(map[string]map[model.IndexKey]float64, len(transactionIDs))
	if len(transactionIDs) == 0 {
		return result, nil
	}

	args := make([]any, len(transactionIDs))
	for i, id := range transactionIDs {
		args[i] = id
	}

	//#nosec G202 -- Safe: placeholders are generated programmatically, not from user input
	rows, err := r.getQuerier().QueryContext(ctx, `
		SELECT transaction_id, index_key, price
		FROM transaction_benchmark_price
		WHERE transaction_id IN (`+placeholders(len(transactionIDs))+`)
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transaction_benchmark_price table: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		var key model.IndexKey
		var price float64
		if err := rows.Scan(&id, &key, &price); err != nil {
			return nil, fmt.Errorf("failed to scan transaction_benchmark_price table results: %w", err)
		}
		if result[id] == nil {
			result[id] = make(map[model.IndexKey]float64)
		}
		result[id][key] = price
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transaction_benchmark_price table: %w", err)
	}

	return result, nil
}
