package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ndewijer/Investment-Portfolio-Tracker/internal/apperrors"
	"github.com/ndewijer/Investment-Portfolio-Tracker/internal/model"
)

// TransactionRepository provides data access methods for the transaction table.
type TransactionRepository struct {
	db *sql.DB
	tx *sql.Tx
}

// NewTransactionRepository creates a new TransactionRepository with the provided database connection.
func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// WithTx returns a new TransactionRepository scoped to the provided transaction.
func (r *TransactionRepository) WithTx(tx *sql.Tx) *TransactionRepository {
	return &TransactionRepository{
		db: r.db,
		tx: tx,
	}
}

func (r *TransactionRepository) getQuerier() querier {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

const transactionWithAssetQuery = `
	SELECT
		t.id, t.asset_id, t.date, t.type, t.quantity, t.unit_price,
		t.currency, t.exchange_rate, t.fees, t.total_eur, t.created_at,
		a.id, a.ticker, a.name, a.type, a.created_at
	FROM "transaction" t
	JOIN asset a ON t.asset_id = a.id
`

// GetTransactions retrieves all transactions with their asset, newest first.
// Returns an empty slice if there are none.
func (r *TransactionRepository) GetTransactions(ctx context.Context) ([]model.TransactionWithAsset, error) {
	rows, err := r.getQuerier().QueryContext(ctx, transactionWithAssetQuery+`
		ORDER BY t.date DESC, t.created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query transaction table: %w", err)
	}
	defer rows.Close()

	transactions := []model.TransactionWithAsset{}
	for rows.Next() {
		t, err := scanTransactionWithAsset(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, t)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transaction table: %w", err)
	}

	return transactions, nil
}

// GetTransaction retrieves a single transaction with its asset.
// Returns apperrors.ErrTransactionNotFound if no row matches.
func (r *TransactionRepository) GetTransaction(ctx context.Context, id string) (model.TransactionWithAsset, error) {
	row := r.getQuerier().QueryRowContext(ctx, transactionWithAssetQuery+` WHERE t.id = ?`, id)

	t, err := scanTransactionWithAsset(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.TransactionWithAsset{}, apperrors.ErrTransactionNotFound
	}
	return t, err
}

// GetTransactionsByAsset retrieves every transaction grouped by asset ID,
// each group in ascending date order, together with the referenced assets.
func (r *TransactionRepository) GetTransactionsByAsset(ctx context.Context) (map[string][]model.Transaction, map[string]model.Asset, error) {
	rows, err := r.getQuerier().QueryContext(ctx, transactionWithAssetQuery+`
		ORDER BY t.date ASC, t.created_at ASC
	`)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query transaction table: %w", err)
	}
	defer rows.Close()

	byAsset := make(map[string][]model.Transaction)
	assets := make(map[string]model.Asset)

	for rows.Next() {
		t, err := scanTransactionWithAsset(rows)
		if err != nil {
			return nil, nil, err
		}
		byAsset[t.AssetID] = append(byAsset[t.AssetID], t.Transaction)
		assets[t.Asset.ID] = t.Asset
	}

	if err = rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("error iterating transaction table: %w", err)
	}

	return byAsset, assets, nil
}

// InsertTransaction inserts a new transaction.
func (r *TransactionRepository) InsertTransaction(ctx context.Context, t *model.Transaction) error {
	_, err := r.getQuerier().ExecContext(ctx, `
		INSERT INTO "transaction" (
			id, asset_id, date, type, quantity, unit_price,
			currency, exchange_rate, fees, total_eur, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		t.ID,
		t.AssetID,
		FormatTime(t.Date),
		t.Type,
		t.Quantity,
		t.UnitPrice,
		t.Currency,
		t.ExchangeRate,
		t.Fees,
		t.TotalEUR,
		FormatTime(t.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	return nil
}

// UpdateTransaction overwrites every mutable column of a transaction.
// Returns apperrors.ErrTransactionNotFound if no row matches.
func (r *TransactionRepository) UpdateTransaction(ctx context.Context, t *model.Transaction) error {
	result, err := r.getQuerier().ExecContext(ctx, `
		UPDATE "transaction"
		SET asset_id = ?, date = ?, type = ?, quantity = ?, unit_price = ?,
			currency = ?, exchange_rate = ?, fees = ?, total_eur = ?
		WHERE id = ?
	`,
		t.AssetID,
		FormatTime(t.Date),
		t.Type,
		t.Quantity,
		t.UnitPrice,
		t.Currency,
		t.ExchangeRate,
		t.Fees,
		t.TotalEUR,
		t.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperrors.ErrTransactionNotFound
	}
	return nil
}

// DeleteTransaction deletes a transaction; its benchmark cascades.
// Returns apperrors.ErrTransactionNotFound if no row matches.
func (r *TransactionRepository) DeleteTransaction(ctx context.Context, id string) error {
	result, err := r.getQuerier().ExecContext(ctx, `DELETE FROM "transaction" WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperrors.ErrTransactionNotFound
	}
	return nil
}

func scanTransactionWithAsset(s rowScanner) (model.TransactionWithAsset, error) {
	var t model.TransactionWithAsset
	var dateStr, createdAtStr, assetCreatedAtStr string

	err := s.Scan(
		&t.ID,
		&t.AssetID,
		&dateStr,
		&t.Type,
		&t.Quantity,
		&t.UnitPrice,
		&t.Currency,
		&t.ExchangeRate,
		&t.Fees,
		&t.TotalEUR,
		&createdAtStr,
		&t.Asset.ID,
		&t.Asset.Ticker,
		&t.Asset.Name,
		&t.Asset.Type,
		&assetCreatedAtStr,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return t, err
		}
		return t, fmt.Errorf("failed to scan transaction table results: %w", err)
	}

	if t.Date, err = ParseTime(dateStr); err != nil {
		return t, err
	}
	if t.CreatedAt, err = ParseTime(createdAtStr); err != nil {
		return t, err
	}
	if t.Asset.CreatedAt, err = ParseTime(assetCreatedAtStr); err != nil {
		return t, err
	}
	return t, nil
}
