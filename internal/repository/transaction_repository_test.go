package repository_test

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndewijer/Investment-Portfolio-Tracker/internal/apperrors"
	"github.com/ndewijer/Investment-Portfolio-Tracker/internal/model"
	"github.com/ndewijer/Investment-Portfolio-Tracker/internal/repository"
	"github.com/ndewijer/Investment-Portfolio-Tracker/internal/testutil"
)

func TestTransactionRepository_GetTransactions(t *testing.T) {
	t.Run("newest first with asset", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo := repository.NewTransactionRepository(db)
		asset := testutil.CreateAsset(t, db, "AAPL")

		day := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
		older := testutil.NewTransaction(asset.ID).WithDate(day).Build(t, db)
		newer := testutil.NewTransaction(asset.ID).WithDate(day.AddDate(0, 0, 7)).Build(t, db)

		txs, err := repo.GetTransactions(t.Context())

		require.NoError(t, err)
		require.Len(t, txs, 2)
		assert.Equal(t, newer.ID, txs[0].ID)
		assert.Equal(t, older.ID, txs[1].ID)
		assert.Equal(t, "AAPL", txs[0].Asset.Ticker)
		assert.True(t, day.Equal(txs[1].Date))
	})

	t.Run("empty", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo := repository.NewTransactionRepository(db)

		txs, err := repo.GetTransactions(t.Context())

		require.NoError(t, err)
		assert.Empty(t, txs)
	})
}

func TestTransactionRepository_GetTransactionsByAsset(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewTransactionRepository(db)

	aapl := testutil.CreateAsset(t, db, "AAPL")
	btc := testutil.NewAsset().WithTicker("BTC").WithType(model.AssetTypeCrypto).Build(t, db)

	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	testutil.NewTransaction(aapl.ID).WithDate(day.AddDate(0, 1, 0)).WithType(model.TransactionSell).WithQuantity(1).Build(t, db)
	testutil.NewTransaction(aapl.ID).WithDate(day).Build(t, db)
	testutil.NewTransaction(btc.ID).WithDate(day).WithQuantity(0.5).Build(t, db)

	byAsset, assets, err := repo.GetTransactionsByAsset(t.Context())

	require.NoError(t, err)
	require.Len(t, byAsset, 2)
	require.Len(t, byAsset[aapl.ID], 2)
	assert.Equal(t, model.TransactionBuy, byAsset[aapl.ID][0].Type, "ascending by date")
	assert.Equal(t, model.TransactionSell, byAsset[aapl.ID][1].Type)
	assert.Equal(t, "BTC", assets[btc.ID].Ticker)
	assert.InDelta(t, 0.5, byAsset[btc.ID][0].Quantity, 1e-12)
}

func TestTransactionRepository_UpdateTransaction(t *testing.T) {
	t.Run("overwrites mutable columns", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo := repository.NewTransactionRepository(db)
		asset := testutil.CreateAsset(t, db, "AAPL")
		tx := testutil.NewTransaction(asset.ID).Build(t, db)

		tx.Quantity = 3
		tx.UnitPrice = 50
		tx.Currency = "USD"
		tx.ExchangeRate = 0.9
		tx.TotalEUR = 135
		require.NoError(t, repo.UpdateTransaction(t.Context(), &tx))

		got, err := repo.GetTransaction(t.Context(), tx.ID)
		require.NoError(t, err)
		assert.InDelta(t, 3, got.Quantity, 1e-12)
		assert.Equal(t, "USD", got.Currency)
		assert.InDelta(t, 135, got.TotalEUR, 1e-12)
	})

	t.Run("unknown id", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo := repository.NewTransactionRepository(db)

		err := repo.UpdateTransaction(t.Context(), &model.Transaction{ID: testutil.MakeID()})

		assert.ErrorIs(t, err, apperrors.ErrTransactionNotFound)
	})
}

func TestTransactionRepository_DeleteTransaction(t *testing.T) {
	t.Run("cascades to benchmark", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo := repository.NewTransactionRepository(db)
		benchmarks := repository.NewBenchmarkRepository(db)
		asset := testutil.CreateAsset(t, db, "AAPL")
		tx := testutil.NewTransaction(asset.ID).Build(t, db)
		testutil.NewBenchmark(tx.ID).WithPrice(model.IndexSP500, 4000).Build(t, db)

		require.NoError(t, repo.DeleteTransaction(t.Context(), tx.ID))

		_, err := benchmarks.GetBenchmark(t.Context(), tx.ID)
		assert.ErrorIs(t, err, apperrors.ErrBenchmarkNotFound)

		var prices int
		require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM transaction_benchmark_price`).Scan(&prices))
		assert.Zero(t, prices)
	})

	t.Run("unknown id", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo := repository.NewTransactionRepository(db)

		err := repo.DeleteTransaction(t.Context(), testutil.MakeID())

		assert.ErrorIs(t, err, apperrors.ErrTransactionNotFound)
	})
}

func TestRunInTx(t *testing.T) {
	t.Run("rolls back on error", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		assetRepo := repository.NewAssetRepository(db)

		err := repository.RunInTx(t.Context(), db, func(tx *sql.Tx) error {
			asset := model.Asset{ID: testutil.MakeID(), Ticker: "AAPL", Name: "Apple", Type: model.AssetTypeStock}
			if err := assetRepo.WithTx(tx).InsertAsset(t.Context(), &asset); err != nil {
				return err
			}
			return apperrors.ErrTransactionNotFound
		})

		assert.ErrorIs(t, err, apperrors.ErrTransactionNotFound)
		_, err = assetRepo.GetAssetByTicker(t.Context(), "AAPL")
		assert.ErrorIs(t, err, apperrors.ErrAssetNotFound)
	})
}

func TestParseTime(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2024-03-01T10:00:00.000Z", time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)},
		{"2024-03-01T12:00:00+02:00", time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)},
		{"2024-03-01", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := repository.ParseTime(tt.in)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got))
		})
	}

	_, err := repository.ParseTime("yesterday")
	assert.Error(t, err)

	assert.Equal(t, "2024-03-01T10:00:00.000Z", repository.FormatTime(time.Date(2024, 3, 1, 11, 0, 0, 0, time.FixedZone("CET", 3600))))
}
