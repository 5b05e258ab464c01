package repository_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndewijer/Investment-Portfolio-Tracker/internal/apperrors"
	"github.com/ndewijer/Investment-Portfolio-Tracker/internal/model"
	"github.com/ndewijer/Investment-Portfolio-Tracker/internal/repository"
	"github.com/ndewijer/Investment-Portfolio-Tracker/internal/testutil"
)

func TestBenchmarkRepository_InsertBenchmark(t *testing.T) {
	t.Run("stores benchmark with prices", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo := repository.NewBenchmarkRepository(db)
		asset := testutil.CreateAsset(t, db, "AAPL")
		tx := testutil.NewTransaction(asset.ID).Build(t, db)

		recorded := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
		inserted, err := repo.InsertBenchmark(t.Context(), model.TransactionBenchmark{
			TransactionID: tx.ID,
			RecordedAt:    recorded,
			Source:        model.BenchmarkSourceLive,
			Prices:        map[model.IndexKey]float64{model.IndexSP500: 4000, model.IndexCAC40: 7500},
		})

		require.NoError(t, err)
		assert.True(t, inserted)

		got, err := repo.GetBenchmark(t.Context(), tx.ID)
		require.NoError(t, err)
		assert.True(t, recorded.Equal(got.RecordedAt))
		assert.Equal(t, model.BenchmarkSourceLive, got.Source)
		assert.Equal(t, map[model.IndexKey]float64{model.IndexSP500: 4000, model.IndexCAC40: 7500}, got.Prices)
	})

	t.Run("keeps the first benchmark", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo := repository.NewBenchmarkRepository(db)
		asset := testutil.CreateAsset(t, db, "AAPL")
		tx := testutil.NewTransaction(asset.ID).Build(t, db)
		testutil.NewBenchmark(tx.ID).WithPrice(model.IndexSP500, 4000).Build(t, db)

		inserted, err := repo.InsertBenchmark(t.Context(), model.TransactionBenchmark{
			TransactionID: tx.ID,
			RecordedAt:    time.Now(),
			Source:        model.BenchmarkSourceHistorical,
			Prices:        map[model.IndexKey]float64{model.IndexSP500: 9999, model.IndexBTC: 1},
		})

		require.NoError(t, err)
		assert.False(t, inserted)

		got, err := repo.GetBenchmark(t.Context(), tx.ID)
		require.NoError(t, err)
		assert.Equal(t, model.BenchmarkSourceLive, got.Source)
		assert.Equal(t, map[model.IndexKey]float64{model.IndexSP500: 4000}, got.Prices)
	})

	t.Run("failed price insert leaves no benchmark", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo := repository.NewBenchmarkRepository(db)
		asset := testutil.CreateAsset(t, db, "AAPL")
		tx := testutil.NewTransaction(asset.ID).Build(t, db)

		_, err := db.ExecContext(t.Context(), `
			CREATE TRIGGER reject_sp500 BEFORE INSERT ON transaction_benchmark_price
			WHEN NEW.index_key = 'SP500'
			BEGIN SELECT RAISE(ABORT, 'rejected'); END
		`)
		require.NoError(t, err)

		// CAC40 sorts first and is written before SP500 is rejected.
		inserted, err := repo.InsertBenchmark(t.Context(), model.TransactionBenchmark{
			TransactionID: tx.ID,
			RecordedAt:    time.Now(),
			Source:        model.BenchmarkSourceLive,
			Prices:        map[model.IndexKey]float64{model.IndexSP500: 4000, model.IndexCAC40: 7500},
		})
		require.Error(t, err)
		assert.False(t, inserted)

		_, err = repo.GetBenchmark(t.Context(), tx.ID)
		assert.ErrorIs(t, err, apperrors.ErrBenchmarkNotFound)

		var priceRows int
		require.NoError(t, db.QueryRowContext(t.Context(),
			`SELECT COUNT(*) FROM transaction_benchmark_price WHERE transaction_id = ?`, tx.ID).Scan(&priceRows))
		assert.Zero(t, priceRows)

		pending, err := repo.GetBuysWithoutBenchmark(t.Context())
		require.NoError(t, err)
		require.Len(t, pending, 1)
		assert.Equal(t, tx.ID, pending[0].ID)
	})

	t.Run("missing benchmark", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo := repository.NewBenchmarkRepository(db)

		_, err := repo.GetBenchmark(t.Context(), testutil.MakeID())

		assert.ErrorIs(t, err, apperrors.ErrBenchmarkNotFound)
	})
}

func TestBenchmarkRepository_Buys(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewBenchmarkRepository(db)
	asset := testutil.CreateAsset(t, db, "AAPL")

	day := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	benchmarked := testutil.NewTransaction(asset.ID).WithDate(day).WithTotalEUR(1000).Build(t, db)
	testutil.NewBenchmark(benchmarked.ID).WithPrice(model.IndexSP500, 4000).WithPrice(model.IndexBTC, 40000).Build(t, db)

	laterBuy := testutil.NewTransaction(asset.ID).WithDate(day.AddDate(0, 0, 2)).Build(t, db)
	earlierBuy := testutil.NewTransaction(asset.ID).WithDate(day.AddDate(0, 0, -2)).Build(t, db)
	sell := testutil.NewTransaction(asset.ID).WithType(model.TransactionSell).WithQuantity(1).Build(t, db)
	testutil.NewBenchmark(sell.ID).WithPrice(model.IndexSP500, 4100).Build(t, db)

	t.Run("benchmarked buys exclude sells", func(t *testing.T) {
		buys, err := repo.GetBenchmarkedBuys(t.Context())

		require.NoError(t, err)
		require.Len(t, buys, 1)
		assert.Equal(t, benchmarked.ID, buys[0].TransactionID)
		assert.InDelta(t, 1000, buys[0].TotalEUR, 1e-12)
		assert.InDelta(t, 40000, buys[0].Prices[model.IndexBTC], 1e-12)
	})

	t.Run("buys without benchmark oldest first", func(t *testing.T) {
		pending, err := repo.GetBuysWithoutBenchmark(t.Context())

		require.NoError(t, err)
		require.Len(t, pending, 2)
		assert.Equal(t, earlierBuy.ID, pending[0].ID)
		assert.Equal(t, laterBuy.ID, pending[1].ID)
	})
}
