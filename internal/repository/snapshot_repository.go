package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/ndewijer/Investment-Portfolio-Tracker/internal/apperrors"
	"github.com/ndewijer/Investment-Portfolio-Tracker/internal/model"
)

// SnapshotRepository provides data access methods for the portfolio_snapshot
// and portfolio_snapshot_index tables.
type SnapshotRepository struct {
	db *sql.DB
	tx *sql.Tx
}

// NewSnapshotRepository creates a new SnapshotRepository with the provided database connection.
func NewSnapshotRepository(db *sql.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// WithTx returns a new SnapshotRepository scoped to the provided transaction.
func (r *SnapshotRepository) WithTx(tx *sql.Tx) *SnapshotRepository {
	return &SnapshotRepository{
		db: r.db,
		tx: tx,
	}
}

func (r *SnapshotRepository) getQuerier() querier {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

// UpsertSnapshot writes the snapshot of a bucket, replacing the values and the index
// rows of an existing one. CreatedAt of an existing snapshot is kept.
// Run it inside a transaction so the parent row and index rows change together.
func (r *SnapshotRepository) UpsertSnapshot(ctx context.Context, s model.PortfolioSnapshot) error {
	q := r.getQuerier()
	bucket := FormatTime(s.Bucket)

	_, err := q.ExecContext(ctx, `
		INSERT INTO portfolio_snapshot (bucket, total_value, total_invested, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(bucket) DO UPDATE SET
			total_value = excluded.total_value,
			total_invested = excluded.total_invested,
			updated_at = excluded.updated_at
	`, bucket, s.TotalValueEUR, s.TotalInvestedEUR, FormatTime(s.CreatedAt), FormatTime(s.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to upsert portfolio snapshot: %w", err)
	}

	if _, err := q.ExecContext(ctx, `DELETE FROM portfolio_snapshot_index WHERE bucket = ?`, bucket); err != nil {
		return fmt.Errorf("failed to clear portfolio snapshot indices: %w", err)
	}

	keys := make([]string, 0, len(s.Indices))
	for k := range s.Indices {
		keys = append(keys, string(k))
	}
	sort.Strings(keys)

	for _, k := range keys {
		idx := s.Indices[model.IndexKey(k)]
		_, err := q.ExecContext(ctx, `
			INSERT INTO portfolio_snapshot_index (bucket, index_key, price, units)
			VALUES (?, ?, ?, ?)
		`, bucket, k, idx.Price, idx.Units)
		if err != nil {
			return fmt.Errorf("failed to insert portfolio snapshot index: %w", err)
		}
	}

	return nil
}

// GetSnapshot retrieves the snapshot of one bucket.
// Returns apperrors.ErrSnapshotNotFound if there is none.
func (r *SnapshotRepository) GetSnapshot(ctx context.Context, bucket time.Time) (model.PortfolioSnapshot, error) {
	snapshots, err := r.query(ctx, `WHERE bucket = ?`, FormatTime(bucket))
	if err != nil {
		return model.PortfolioSnapshot{}, err
	}
	if len(snapshots) == 0 {
		return model.PortfolioSnapshot{}, apperrors.ErrSnapshotNotFound
	}
	return snapshots[0], nil
}

// GetSnapshots retrieves every snapshot in ascending bucket order.
func (r *SnapshotRepository) GetSnapshots(ctx context.Context) ([]model.PortfolioSnapshot, error) {
	return r.query(ctx, "")
}

// CountSnapshots returns the number of stored buckets.
func (r *SnapshotRepository) CountSnapshots(ctx context.Context) (int, error) {
	var n int
	if err := r.getQuerier().QueryRowContext(ctx, `SELECT COUNT(*) FROM portfolio_snapshot`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count portfolio snapshots: %w", err)
	}
	return n, nil
}

func (r *SnapshotRepository) query(ctx context.Context, where string, args ...any) ([]model.PortfolioSnapshot, error) {
	q := r.getQuerier()

	rows, err := q.QueryContext(ctx, `
		SELECT bucket, total_value, total_invested, created_at, updated_at
		FROM portfolio_snapshot `+where+`
		ORDER BY bucket ASC
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query portfolio_snapshot table: %w", err)
	}
	defer rows.Close()

	snapshots := []model.PortfolioSnapshot{}
	positions := make(map[string]int)

	for rows.Next() {
		var s model.PortfolioSnapshot
		var bucketStr, createdAtStr, updatedAtStr string

		if err := rows.Scan(&bucketStr, &s.TotalValueEUR, &s.TotalInvestedEUR, &createdAtStr, &updatedAtStr); err != nil {
			return nil, fmt.Errorf("failed to scan portfolio_snapshot table results: %w", err)
		}
		if s.Bucket, err = ParseTime(bucketStr); err != nil {
			return nil, err
		}
		if s.CreatedAt, err = ParseTime(createdAtStr); err != nil {
			return nil, err
		}
		if s.UpdatedAt, err = ParseTime(updatedAtStr); err != nil {
			return nil, err
		}
		s.Indices = make(map[model.IndexKey]model.SnapshotIndex)

		positions[bucketStr] = len(snapshots)
		snapshots = append(snapshots, s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating portfolio_snapshot table: %w", err)
	}
	rows.Close()

	if len(snapshots) == 0 {
		return snapshots, nil
	}

	indexRows, err := q.QueryContext(ctx, `
		SELECT bucket, index_key, price, units
		FROM portfolio_snapshot_index `+where, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query portfolio_snapshot_index table: %w", err)
	}
	defer indexRows.Close()

	for indexRows.Next() {
		var bucketStr string
		var key model.IndexKey
		var idx model.SnapshotIndex

		if err := indexRows.Scan(&bucketStr, &key, &idx.Price, &idx.Units); err != nil {
			return nil, fmt.Errorf("failed to scan portfolio_snapshot_index table results: %w", err)
		}
		if pos, ok := positions[bucketStr]; ok {
			snapshots[pos].Indices[key] = idx
		}
	}
	if err = indexRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating portfolio_snapshot_index table: %w", err)
	}

	return snapshots, nil
}
