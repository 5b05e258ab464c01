package service_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndewijer/Investment-Portfolio-Tracker/internal/api/request"
	"github.com/ndewijer/Investment-Portfolio-Tracker/internal/apperrors"
	"github.com/ndewijer/Investment-Portfolio-Tracker/internal/model"
	"github.com/ndewijer/Investment-Portfolio-Tracker/internal/repository"
	"github.com/ndewijer/Investment-Portfolio-Tracker/internal/testutil"
	"github.com/ndewijer/Investment-Portfolio-Tracker/internal/validation"
)

func buyRequest(ticker string) request.CreateTransactionRequest {
	return request.CreateTransactionRequest{
		Ticker:    ticker,
		Date:      "2024-03-01",
		Type:      "BUY",
		Quantity:  10,
		UnitPrice: 100,
		Currency:  "EUR",
	}
}

// TestTransactionService_AddTransaction tests transaction creation.
//
// WHY: Creation fixes the EUR total and the benchmark of a BUY for good. Both must be
// right the first time because neither is recomputed later.
func TestTransactionService_AddTransaction(t *testing.T) {
	t.Run("USD buy with supplied rate", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestServices(t, db, testutil.NewMockQuoteSourceWithIndices())

		created, err := svc.Transaction.AddTransaction(t.Context(), request.CreateTransactionRequest{
			Ticker:       "btc",
			Date:         "2024-03-01T09:30",
			Type:         "buy",
			Quantity:     0.1,
			UnitPrice:    42000,
			Currency:     "usd",
			ExchangeRate: testutil.Float64(0.92),
			Fees:         10,
		})

		require.NoError(t, err)
		assert.InDelta(t, 3873.2, created.TotalEUR, 1e-9)
		assert.Equal(t, "USD", created.Currency)
		assert.Equal(t, model.TransactionBuy, created.Type)
		assert.Equal(t, "BTC", created.Asset.Ticker)
		assert.Equal(t, "BTC", created.Asset.Name)
		assert.Equal(t, model.AssetTypeCrypto, created.Asset.Type)

		stored, err := svc.Transaction.GetTransaction(t.Context(), created.ID)
		require.NoError(t, err)
		assert.InDelta(t, 3873.2, stored.TotalEUR, 1e-9)
		assert.Equal(t, "2024-03-01T09:30:00Z", stored.Date.Format("2006-01-02T15:04:05Z07:00"))

		benchmark, err := svc.Benchmark.GetBenchmark(t.Context(), created.ID)
		require.NoError(t, err)
		assert.InDelta(t, 4000, benchmark.Prices[model.IndexSP500], 1e-9)

		units, err := svc.Benchmark.CumulativeTheoreticalUnits(t.Context())
		require.NoError(t, err)
		assert.InDelta(t, 3873.2, units.TotalInvested, 1e-9)
		assert.InDelta(t, 3873.2/4000, units.Units[model.IndexSP500], 1e-12)
	})

	t.Run("USD without rate uses the spot rate", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestTransactionService(t, db, testutil.NewMockQuoteSourceWithIndices())

		req := buyRequest("AAPL")
		req.Currency = "USD"
		created, err := svc.AddTransaction(t.Context(), req)

		require.NoError(t, err)
		assert.InDelta(t, 0.8, created.ExchangeRate, 1e-12)
		assert.InDelta(t, 800, created.TotalEUR, 1e-9)
		assert.Equal(t, model.AssetTypeStock, created.Asset.Type)
	})

	t.Run("EUR ignores a supplied rate", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestTransactionService(t, db, testutil.NewMockQuoteSourceWithIndices())

		req := buyRequest("IWDA")
		req.Currency = ""
		req.ExchangeRate = testutil.Float64(3)
		req.AssetType = "etf"
		req.Name = "iShares Core MSCI World"
		created, err := svc.AddTransaction(t.Context(), req)

		require.NoError(t, err)
		assert.Equal(t, "EUR", created.Currency)
		assert.InDelta(t, 1, created.ExchangeRate, 1e-12)
		assert.InDelta(t, 1000, created.TotalEUR, 1e-9)
		assert.Equal(t, model.AssetTypeETF, created.Asset.Type)
		assert.Equal(t, "iShares Core MSCI World", created.Asset.Name)
	})

	t.Run("other currency requires a rate", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestTransactionService(t, db, testutil.NewMockQuoteSourceWithIndices())

		req := buyRequest("VOD")
		req.Currency = "GBP"
		_, err := svc.AddTransaction(t.Context(), req)

		assert.ErrorIs(t, err, apperrors.ErrExchangeRateRequired)
		txs, err := svc.GetTransactions(t.Context())
		require.NoError(t, err)
		assert.Empty(t, txs)
		assets, err := svc.GetAssets(t.Context())
		require.NoError(t, err)
		assert.Empty(t, assets, "no asset is created for a rejected transaction")

		req.ExchangeRate = testutil.Float64(1.17)
		created, err := svc.AddTransaction(t.Context(), req)
		require.NoError(t, err)
		assert.InDelta(t, 1170, created.TotalEUR, 1e-9)
	})

	t.Run("reuses the asset of a known ticker", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestTransactionService(t, db, testutil.NewMockQuoteSourceWithIndices())

		first, err := svc.AddTransaction(t.Context(), buyRequest("aapl"))
		require.NoError(t, err)
		second, err := svc.AddTransaction(t.Context(), buyRequest("AAPL "))
		require.NoError(t, err)

		assert.Equal(t, first.AssetID, second.AssetID)
		assets, err := svc.GetAssets(t.Context())
		require.NoError(t, err)
		assert.Len(t, assets, 1)
	})

	t.Run("invalid numbers fail before any write", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestTransactionService(t, db, testutil.NewMockQuoteSourceWithIndices())

		req := buyRequest("")
		req.Quantity = math.NaN()
		req.UnitPrice = math.Inf(1)
		req.Fees = -1
		_, err := svc.AddTransaction(t.Context(), req)

		var verr *validation.Error
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Fields, "ticker")
		assert.Contains(t, verr.Fields, "quantity")
		assert.Contains(t, verr.Fields, "unitPrice")
		assert.Contains(t, verr.Fields, "fees")

		txs, err := svc.GetTransactions(t.Context())
		require.NoError(t, err)
		assert.Empty(t, txs)
	})

	t.Run("buy without index prices is still stored", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestServices(t, db, testutil.NewMockQuoteSource())

		created, err := svc.Transaction.AddTransaction(t.Context(), buyRequest("AAPL"))

		require.NoError(t, err)
		_, err = svc.Benchmark.GetBenchmark(t.Context(), created.ID)
		assert.ErrorIs(t, err, apperrors.ErrBenchmarkNotFound)
	})

	t.Run("sell records no benchmark", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestServices(t, db, testutil.NewMockQuoteSourceWithIndices())

		req := buyRequest("AAPL")
		req.Type = "SELL"
		created, err := svc.Transaction.AddTransaction(t.Context(), req)

		require.NoError(t, err)
		_, err = svc.Benchmark.GetBenchmark(t.Context(), created.ID)
		assert.ErrorIs(t, err, apperrors.ErrBenchmarkNotFound)
	})
}

func TestTransactionService_GetTransactions(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := testutil.NewTestTransactionService(t, db, testutil.NewMockQuoteSourceWithIndices())

	older := buyRequest("AAPL")
	older.Date = "2024-01-01"
	newer := buyRequest("BTC")
	newer.Date = "2024-06-01"

	_, err := svc.AddTransaction(t.Context(), older)
	require.NoError(t, err)
	_, err = svc.AddTransaction(t.Context(), newer)
	require.NoError(t, err)

	txs, err := svc.GetTransactions(t.Context())

	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, "BTC", txs[0].Asset.Ticker)
	assert.Equal(t, "AAPL", txs[1].Asset.Ticker)

	_, err = svc.GetTransaction(t.Context(), "")
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransactionID)
	_, err = svc.GetTransaction(t.Context(), testutil.MakeID())
	assert.ErrorIs(t, err, apperrors.ErrTransactionNotFound)
}

// TestTransactionService_UpdateTransaction tests partial updates.
//
// WHY: Edits recompute the EUR total but must leave recorded facts alone: the exchange
// rate unless asked, and the benchmark always.
func TestTransactionService_UpdateTransaction(t *testing.T) {
	t.Run("recomputes total and keeps the benchmark frozen", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		source := testutil.NewMockQuoteSourceWithIndices()
		svc := testutil.NewTestServices(t, db, source)

		req := buyRequest("AAPL")
		req.Currency = "USD"
		req.ExchangeRate = testutil.Float64(0.9)
		created, err := svc.Transaction.AddTransaction(t.Context(), req)
		require.NoError(t, err)

		source.WithQuote("^GSPC", 6000, "USD")
		require.NoError(t, svc.Quotes.ClearCache(t.Context()))

		updated, err := svc.Transaction.UpdateTransaction(t.Context(), created.ID, request.UpdateTransactionRequest{
			Quantity: testutil.Float64(20),
			Date:     testutil.String("2024-04-01"),
		})

		require.NoError(t, err)
		assert.InDelta(t, 0.9, updated.ExchangeRate, 1e-12)
		assert.InDelta(t, 1800, updated.TotalEUR, 1e-9)

		benchmark, err := svc.Benchmark.GetBenchmark(t.Context(), created.ID)
		require.NoError(t, err)
		assert.InDelta(t, 4000, benchmark.Prices[model.IndexSP500], 1e-9)

		stored, err := svc.Transaction.GetTransaction(t.Context(), created.ID)
		require.NoError(t, err)
		assert.InDelta(t, 1800, stored.TotalEUR, 1e-9)
		assert.Equal(t, "2024-04-01", stored.Date.Format("2006-01-02"))
	})

	t.Run("currency change re-resolves the rate", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestTransactionService(t, db, testutil.NewMockQuoteSourceWithIndices())

		created, err := svc.AddTransaction(t.Context(), buyRequest("AAPL"))
		require.NoError(t, err)

		_, err = svc.UpdateTransaction(t.Context(), created.ID, request.UpdateTransactionRequest{
			Currency: testutil.String("GBP"),
		})
		assert.ErrorIs(t, err, apperrors.ErrExchangeRateRequired)

		updated, err := svc.UpdateTransaction(t.Context(), created.ID, request.UpdateTransactionRequest{
			Currency: testutil.String("USD"),
		})
		require.NoError(t, err)
		assert.InDelta(t, 0.8, updated.ExchangeRate, 1e-12)
		assert.InDelta(t, 800, updated.TotalEUR, 1e-9)
	})

	t.Run("ticker change moves the transaction and drops the old asset", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestTransactionService(t, db, testutil.NewMockQuoteSourceWithIndices())

		created, err := svc.AddTransaction(t.Context(), buyRequest("APPL"))
		require.NoError(t, err)

		updated, err := svc.UpdateTransaction(t.Context(), created.ID, request.UpdateTransactionRequest{
			Ticker:    testutil.String("aapl"),
			Name:      testutil.String("Apple Inc."),
			AssetType: testutil.String("STOCK"),
		})

		require.NoError(t, err)
		assert.Equal(t, "AAPL", updated.Asset.Ticker)
		assert.Equal(t, "Apple Inc.", updated.Asset.Name)

		assets, err := svc.GetAssets(t.Context())
		require.NoError(t, err)
		require.Len(t, assets, 1)
		assert.Equal(t, "AAPL", assets[0].Ticker)
	})

	t.Run("name is ignored without a ticker change", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestTransactionService(t, db, testutil.NewMockQuoteSourceWithIndices())

		created, err := svc.AddTransaction(t.Context(), buyRequest("AAPL"))
		require.NoError(t, err)

		updated, err := svc.UpdateTransaction(t.Context(), created.ID, request.UpdateTransactionRequest{
			Ticker: testutil.String("AAPL"),
			Name:   testutil.String("Renamed"),
		})

		require.NoError(t, err)
		assert.Equal(t, created.AssetID, updated.AssetID)
		assert.Equal(t, "AAPL", updated.Asset.Name)
	})

	t.Run("sell turned buy gets a benchmark", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestServices(t, db, testutil.NewMockQuoteSourceWithIndices())

		req := buyRequest("AAPL")
		req.Type = "SELL"
		created, err := svc.Transaction.AddTransaction(t.Context(), req)
		require.NoError(t, err)

		_, err = svc.Transaction.UpdateTransaction(t.Context(), created.ID, request.UpdateTransactionRequest{
			Type: testutil.String("buy"),
		})
		require.NoError(t, err)

		_, err = svc.Benchmark.GetBenchmark(t.Context(), created.ID)
		assert.NoError(t, err)
	})

	t.Run("validation and not found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestTransactionService(t, db, testutil.NewMockQuoteSourceWithIndices())

		_, err := svc.UpdateTransaction(t.Context(), testutil.MakeID(), request.UpdateTransactionRequest{
			Quantity: testutil.Float64(-1),
		})
		var verr *validation.Error
		assert.ErrorAs(t, err, &verr)

		_, err = svc.UpdateTransaction(t.Context(), testutil.MakeID(), request.UpdateTransactionRequest{})
		assert.ErrorIs(t, err, apperrors.ErrTransactionNotFound)
	})
}

// TestTransactionService_DeleteTransaction tests deletion and asset cleanup.
//
// WHY: An asset only exists while it has transactions. Deleting the last one must
// remove it; deleting any other must not.
func TestTransactionService_DeleteTransaction(t *testing.T) {
	t.Run("deleting the only transaction removes the asset", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestTransactionService(t, db, testutil.NewMockQuoteSourceWithIndices())
		assetRepo := repository.NewAssetRepository(db)

		created, err := svc.AddTransaction(t.Context(), buyRequest("AAPL"))
		require.NoError(t, err)

		require.NoError(t, svc.DeleteTransaction(t.Context(), created.ID))

		_, err = assetRepo.GetAssetByTicker(t.Context(), "AAPL")
		assert.ErrorIs(t, err, apperrors.ErrAssetNotFound)
		_, err = repository.NewBenchmarkRepository(db).GetBenchmark(t.Context(), created.ID)
		assert.ErrorIs(t, err, apperrors.ErrBenchmarkNotFound)
	})

	t.Run("deleting one of two keeps the asset", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestTransactionService(t, db, testutil.NewMockQuoteSourceWithIndices())
		assetRepo := repository.NewAssetRepository(db)

		first, err := svc.AddTransaction(t.Context(), buyRequest("AAPL"))
		require.NoError(t, err)
		_, err = svc.AddTransaction(t.Context(), buyRequest("AAPL"))
		require.NoError(t, err)

		require.NoError(t, svc.DeleteTransaction(t.Context(), first.ID))

		asset, err := assetRepo.GetAssetByTicker(t.Context(), "AAPL")
		require.NoError(t, err)
		assert.Equal(t, first.AssetID, asset.ID)
	})

	t.Run("unknown transaction", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestTransactionService(t, db, testutil.NewMockQuoteSourceWithIndices())

		err := svc.DeleteTransaction(t.Context(), testutil.MakeID())

		assert.ErrorIs(t, err, apperrors.ErrTransactionNotFound)
		assert.ErrorIs(t, svc.DeleteTransaction(t.Context(), ""), apperrors.ErrInvalidTransactionID)
	})
}
