package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/ndewijer/Investment-Portfolio-Tracker/internal/apperrors"
	"github.com/ndewijer/Investment-Portfolio-Tracker/internal/model"
)

// AssetRepository provides data access methods for the asset table.
type AssetRepository struct {
	db *sql.DB
	tx *sql.Tx
}

// NewAssetRepository creates a new AssetRepository with the provided database connection.
func NewAssetRepository(db *sql.DB) *AssetRepository {
	return &AssetRepository{db: db}
}

// WithTx returns a new AssetRepository scoped to the provided transaction.
func (r *AssetRepository) WithTx(tx *sql.Tx) *AssetRepository {
	return &AssetRepository{
		db: r.db,
		tx: tx,
	}
}

func (r *AssetRepository) getQuerier() querier {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

const assetColumns = `id, ticker, name, type, created_at`

// GetAssets retrieves all assets ordered by ticker.
// Returns an empty slice if no assets exist.
func (r *AssetRepository) GetAssets(ctx context.Context) ([]model.Asset, error) {
	rows, err := r.getQuerier().QueryContext(ctx, `SELECT `+assetColumns+` FROM asset ORDER BY ticker ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query asset table: %w", err)
	}
	defer rows.Close()

	assets := []model.Asset{}
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, err
		}
		assets = append(assets, a)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating asset table: %w", err)
	}

	return assets, nil
}

// GetAsset retrieves an asset by ID.
// Returns apperrors.ErrAssetNotFound if no row matches.
func (r *AssetRepository) GetAsset(ctx context.Context, id string) (model.Asset, error) {
	row := r.getQuerier().QueryRowContext(ctx, `SELECT `+assetColumns+` FROM asset WHERE id = ?`, id)
	a, err := scanAsset(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Asset{}, apperrors.ErrAssetNotFound
	}
	return a, err
}

// GetAssetByTicker retrieves an asset by its ticker, case-insensitively.
// Returns apperrors.ErrAssetNotFound if no row matches.
func (r *AssetRepository) GetAssetByTicker(ctx context.Context, ticker string) (model.Asset, error) {
	row := r.getQuerier().QueryRowContext(ctx, `SELECT `+assetColumns+` FROM asset WHERE ticker = ?`, strings.ToUpper(ticker))
	a, err := scanAsset(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Asset{}, apperrors.ErrAssetNotFound
	}
	return a, err
}

// InsertAsset inserts a new asset.
func (r *AssetRepository) InsertAsset(ctx context.Context, a *model.Asset) error {
	_, err := r.getQuerier().ExecContext(ctx, `
		INSERT INTO asset (id, ticker, name, type, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, a.ID, a.Ticker, a.Name, a.Type, FormatTime(a.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to insert asset: %w", err)
	}
	return nil
}

// DeleteAsset deletes an asset; its transactions cascade.
func (r *AssetRepository) DeleteAsset(ctx context.Context, id string) error {
	result, err := r.getQuerier().ExecContext(ctx, `DELETE FROM asset WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete asset: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperrors.ErrAssetNotFound
	}
	return nil
}

// DeleteIfUnused deletes the asset when no transaction references it.
// Returns true when the asset was removed.
func (r *AssetRepository) DeleteIfUnused(ctx context.Context, id string) (bool, error) {
	result, err := r.getQuerier().ExecContext(ctx, `
		DELETE FROM asset
		WHERE id = ?
		AND NOT EXISTS (SELECT 1 FROM "transaction" WHERE asset_id = ?)
	`, id, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete unused asset: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAsset(s rowScanner) (model.Asset, error) {
	var a model.Asset
	var createdAtStr string

	if err := s.Scan(&a.ID, &a.Ticker, &a.Name, &a.Type, &createdAtStr); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Asset{}, err
		}
		return model.Asset{}, fmt.Errorf("failed to scan asset table results: %w", err)
	}

	var err error
	a.CreatedAt, err = ParseTime(createdAtStr)
	if err != nil {
		return model.Asset{}, err
	}
	return a, nil
}
