package repository_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndewijer/Investment-Portfolio-Tracker/internal/apperrors"
	"github.com/ndewijer/Investment-Portfolio-Tracker/internal/model"
	"github.com/ndewijer/Investment-Portfolio-Tracker/internal/repository"
	"github.com/ndewijer/Investment-Portfolio-Tracker/internal/testutil"
)

func TestAssetRepository_GetAssets(t *testing.T) {
	t.Run("returns empty slice when no assets exist", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo := repository.NewAssetRepository(db)

		assets, err := repo.GetAssets(t.Context())

		require.NoError(t, err)
		assert.NotNil(t, assets)
		assert.Empty(t, assets)
	})

	t.Run("orders assets by ticker", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo := repository.NewAssetRepository(db)

		testutil.CreateAsset(t, db, "VOO")
		testutil.CreateAsset(t, db, "AAPL")
		testutil.NewAsset().WithTicker("BTC").WithType(model.AssetTypeCrypto).Build(t, db)

		assets, err := repo.GetAssets(t.Context())

		require.NoError(t, err)
		require.Len(t, assets, 3)
		assert.Equal(t, []string{"AAPL", "BTC", "VOO"}, []string{assets[0].Ticker, assets[1].Ticker, assets[2].Ticker})
		assert.Equal(t, model.AssetTypeCrypto, assets[1].Type)
	})
}

func TestAssetRepository_GetAssetByTicker(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewAssetRepository(db)
	created := testutil.CreateAsset(t, db, "AAPL")

	t.Run("finds existing ticker", func(t *testing.T) {
		asset, err := repo.GetAssetByTicker(t.Context(), "AAPL")

		require.NoError(t, err)
		assert.Equal(t, created, asset)
	})

	t.Run("unknown ticker", func(t *testing.T) {
		_, err := repo.GetAssetByTicker(t.Context(), "MSFT")

		assert.ErrorIs(t, err, apperrors.ErrAssetNotFound)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := repo.GetAsset(t.Context(), testutil.MakeID())

		assert.ErrorIs(t, err, apperrors.ErrAssetNotFound)
	})
}

func TestAssetRepository_InsertAsset(t *testing.T) {
	t.Run("rejects duplicate ticker", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo := repository.NewAssetRepository(db)
		existing := testutil.CreateAsset(t, db, "AAPL")

		dup := existing
		dup.ID = testutil.MakeID()
		err := repo.InsertAsset(t.Context(), &dup)

		assert.Error(t, err)
	})
}

func TestAssetRepository_DeleteIfUnused(t *testing.T) {
	t.Run("removes asset without transactions", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo := repository.NewAssetRepository(db)
		asset := testutil.CreateAsset(t, db, "AAPL")

		removed, err := repo.DeleteIfUnused(t.Context(), asset.ID)

		require.NoError(t, err)
		assert.True(t, removed)
		_, err = repo.GetAsset(t.Context(), asset.ID)
		assert.ErrorIs(t, err, apperrors.ErrAssetNotFound)
	})

	t.Run("keeps asset still referenced", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo := repository.NewAssetRepository(db)
		asset := testutil.CreateAsset(t, db, "AAPL")
		testutil.NewTransaction(asset.ID).Build(t, db)

		removed, err := repo.DeleteIfUnused(t.Context(), asset.ID)

		require.NoError(t, err)
		assert.False(t, removed)
		_, err = repo.GetAsset(t.Context(), asset.ID)
		assert.NoError(t, err)
	})
}

func TestAssetRepository_DeleteAsset(t *testing.T) {
	t.Run("cascades to transactions", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo := repository.NewAssetRepository(db)
		txRepo := repository.NewTransactionRepository(db)
		asset := testutil.CreateAsset(t, db, "AAPL")
		tx := testutil.NewTransaction(asset.ID).Build(t, db)

		require.NoError(t, repo.DeleteAsset(t.Context(), asset.ID))

		_, err := txRepo.GetTransaction(t.Context(), tx.ID)
		assert.ErrorIs(t, err, apperrors.ErrTransactionNotFound)
	})

	t.Run("unknown id", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo := repository.NewAssetRepository(db)

		err := repo.DeleteAsset(t.Context(), testutil.MakeID())

		assert.ErrorIs(t, err, apperrors.ErrAssetNotFound)
	})
}
