package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ndewijer/Investment-Portfolio-Tracker/internal/api/request"
	"github.com/ndewijer/Investment-Portfolio-Tracker/internal/apperrors"
	"github.com/ndewijer/Investment-Portfolio-Tracker/internal/ledger"
	"github.com/ndewijer/Investment-Portfolio-Tracker/internal/model"
	"github.com/ndewijer/Investment-Portfolio-Tracker/internal/quote"
	"github.com/ndewijer/Investment-Portfolio-Tracker/internal/repository"
	"github.com/ndewijer/Investment-Portfolio-Tracker/internal/validation"
)

// TransactionService handles transaction and asset business logic operations.
type TransactionService struct {
	db              *sql.DB
	transactionRepo *repository.TransactionRepository
	assetRepo       *repository.AssetRepository
	benchmarks      *BenchmarkService
	quotes          *quote.Provider
	log             logrus.FieldLogger
	now             func() time.Time
}

// NewTransactionService creates a new TransactionService with the provided dependencies.
func NewTransactionService(
	db *sql.DB,
	transactionRepo *repository.TransactionRepository,
	assetRepo *repository.AssetRepository,
	benchmarks *BenchmarkService,
	quotes *quote.Provider,
	log logrus.FieldLogger,
) *TransactionService {
	return &TransactionService{
		db:              db,
		transactionRepo: transactionRepo,
		assetRepo:       assetRepo,
		benchmarks:      benchmarks,
		quotes:          quotes,
		log:             log.WithField("service", "transaction"),
		now:             time.Now,
	}
}

// GetTransactions retrieves all transactions, newest first, each with its asset.
func (s *TransactionService) GetTransactions(ctx context.Context) ([]model.TransactionWithAsset, error) {
	return s.transactionRepo.GetTransactions(ctx)
}

// GetTransaction retrieves a single transaction by its ID.
func (s *TransactionService) GetTransaction(ctx context.Context, transactionID string) (model.TransactionWithAsset, error) {
	if transactionID == "" {
		return model.TransactionWithAsset{}, apperrors.ErrInvalidTransactionID
	}
	return s.transactionRepo.GetTransaction(ctx, transactionID)
}

// GetAssets retrieves all assets ordered by ticker.
func (s *TransactionService) GetAssets(ctx context.Context) ([]model.Asset, error) {
	return s.assetRepo.GetAssets(ctx)
}

// AddTransaction validates and stores a new transaction.
//
// The ticker is upper-cased and its asset created on first use. The exchange rate is
// 1 for EUR, the supplied rate or the current spot rate for USD, and must be supplied
// for any other currency. Asset creation and the insert share one database
// transaction. For a BUY the current index prices are then frozen as its benchmark;
// a failure there is logged and left for the backfill.
//
// Returns a *validation.Error for invalid input and apperrors.ErrExchangeRateRequired
// when a rate is missing.
func (s *TransactionService) AddTransaction(ctx context.Context, req request.CreateTransactionRequest) (model.TransactionWithAsset, error) {
	if err := validation.ValidateCreateTransaction(req); err != nil {
		return model.TransactionWithAsset{}, err
	}

	date, err := validation.ParseTime(req.Date)
	if err != nil {
		return model.TransactionWithAsset{}, validation.FieldError("date", err.Error())
	}

	currency := normalizeCurrency(req.Currency)
	rate, err := s.resolveRate(ctx, currency, req.ExchangeRate)
	if err != nil {
		return model.TransactionWithAsset{}, err
	}

	t := model.Transaction{
		ID:           uuid.New().String(),
		Date:         date,
		Type:         model.TransactionType(strings.ToUpper(strings.TrimSpace(req.Type))),
		Quantity:     req.Quantity,
		UnitPrice:    req.UnitPrice,
		Currency:     currency,
		ExchangeRate: rate,
		Fees:         req.Fees,
		CreatedAt:    s.now().UTC(),
	}
	t.TotalEUR = ledger.TotalEUR(t.Quantity, t.UnitPrice, t.Fees, t.Currency, t.ExchangeRate)

	var asset model.Asset
	err = repository.RunInTx(ctx, s.db, func(tx *sql.Tx) error {
		var err error
		asset, err = s.findOrCreateAsset(ctx, s.assetRepo.WithTx(tx), req.Ticker, req.Name, req.AssetType)
		if err != nil {
			return err
		}
		t.AssetID = asset.ID
		return s.transactionRepo.WithTx(tx).InsertTransaction(ctx, &t)
	})
	if err != nil {
		return model.TransactionWithAsset{}, fmt.Errorf("failed to create transaction: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"transaction_id": t.ID,
		"ticker":         asset.Ticker,
		"type":           t.Type,
		"total_eur":      t.TotalEUR,
	}).Info("created transaction")

	if t.Type == model.TransactionBuy {
		s.recordBenchmark(ctx, t.ID)
	}

	return model.TransactionWithAsset{Transaction: t, Asset: asset}, nil
}

// UpdateTransaction applies the non-nil fields of req to a transaction and recomputes
// its EUR total.
//
// Changing the ticker moves the transaction to that asset, creating it if needed with
// the supplied name and asset type, and deletes the previous asset when it has no
// transactions left. Name and asset type are otherwise ignored.
//
// The recorded exchange rate is kept unless a rate is supplied or the currency
// changes. An existing benchmark stays frozen at its original prices; a transaction
// that becomes a BUY without one gets one recorded.
func (s *TransactionService) UpdateTransaction(ctx context.Context, transactionID string, req request.UpdateTransactionRequest) (model.TransactionWithAsset, error) {
	if transactionID == "" {
		return model.TransactionWithAsset{}, apperrors.ErrInvalidTransactionID
	}
	if err := validation.ValidateUpdateTransaction(req); err != nil {
		return model.TransactionWithAsset{}, err
	}

	existing, err := s.transactionRepo.GetTransaction(ctx, transactionID)
	if err != nil {
		return model.TransactionWithAsset{}, err
	}

	t := existing.Transaction
	if req.Date != nil {
		if t.Date, err = validation.ParseTime(*req.Date); err != nil {
			return model.TransactionWithAsset{}, validation.FieldError("date", err.Error())
		}
	}
	if req.Type != nil {
		t.Type = model.TransactionType(strings.ToUpper(strings.TrimSpace(*req.Type)))
	}
	if req.Quantity != nil {
		t.Quantity = *req.Quantity
	}
	if req.UnitPrice != nil {
		t.UnitPrice = *req.UnitPrice
	}
	if req.Fees != nil {
		t.Fees = *req.Fees
	}

	currencyChanged := req.Currency != nil && normalizeCurrency(*req.Currency) != t.Currency
	if req.Currency != nil {
		t.Currency = normalizeCurrency(*req.Currency)
	}
	if currencyChanged || req.ExchangeRate != nil {
		if t.ExchangeRate, err = s.resolveRate(ctx, t.Currency, req.ExchangeRate); err != nil {
			return model.TransactionWithAsset{}, err
		}
	}
	t.TotalEUR = ledger.TotalEUR(t.Quantity, t.UnitPrice, t.Fees, t.Currency, t.ExchangeRate)

	asset := existing.Asset
	err = repository.RunInTx(ctx, s.db, func(tx *sql.Tx) error {
		assetRepo := s.assetRepo.WithTx(tx)

		if req.Ticker != nil && !strings.EqualFold(strings.TrimSpace(*req.Ticker), existing.Asset.Ticker) {
			var name, assetType string
			if req.Name != nil {
				name = *req.Name
			}
			if req.AssetType != nil {
				assetType = *req.AssetType
			}

			var err error
			if asset, err = s.findOrCreateAsset(ctx, assetRepo, *req.Ticker, name, assetType); err != nil {
				return err
			}
			t.AssetID = asset.ID
		}

		if err := s.transactionRepo.WithTx(tx).UpdateTransaction(ctx, &t); err != nil {
			return err
		}

		if t.AssetID != existing.AssetID {
			removed, err := assetRepo.DeleteIfUnused(ctx, existing.AssetID)
			if err != nil {
				return err
			}
			if removed {
				s.log.WithField("ticker", existing.Asset.Ticker).Info("deleted asset without transactions")
			}
		}
		return nil
	})
	if err != nil {
		return model.TransactionWithAsset{}, fmt.Errorf("failed to update transaction: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"transaction_id": t.ID,
		"ticker":         asset.Ticker,
		"total_eur":      t.TotalEUR,
	}).Info("updated transaction")

	if t.Type == model.TransactionBuy {
		s.recordBenchmark(ctx, t.ID)
	}

	return model.TransactionWithAsset{Transaction: t, Asset: asset}, nil
}

// DeleteTransaction deletes a transaction with its benchmark, and its asset when no
// other transaction references it, in one database transaction.
//
// Returns apperrors.ErrTransactionNotFound if the transaction does not exist.
func (s *TransactionService) DeleteTransaction(ctx context.Context, transactionID string) error {
	if transactionID == "" {
		return apperrors.ErrInvalidTransactionID
	}

	var existing model.TransactionWithAsset
	var assetRemoved bool

	err := repository.RunInTx(ctx, s.db, func(tx *sql.Tx) error {
		transactionRepo := s.transactionRepo.WithTx(tx)

		var err error
		if existing, err = transactionRepo.GetTransaction(ctx, transactionID); err != nil {
			return err
		}
		if err := transactionRepo.DeleteTransaction(ctx, transactionID); err != nil {
			return err
		}

		assetRemoved, err = s.assetRepo.WithTx(tx).DeleteIfUnused(ctx, existing.AssetID)
		return err
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrTransactionNotFound) {
			return err
		}
		return fmt.Errorf("failed to delete transaction: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"transaction_id": transactionID,
		"ticker":         existing.Asset.Ticker,
		"asset_removed":  assetRemoved,
	}).Info("deleted transaction")

	return nil
}

// resolveRate returns the currency-to-EUR multiplier for a new or re-priced transaction.
func (s *TransactionService) resolveRate(ctx context.Context, currency string, supplied *float64) (float64, error) {
	switch {
	case ledger.IsAccounting(currency):
		return 1, nil
	case supplied != nil:
		return *supplied, nil
	case currency == ledger.USD:
		return s.quotes.SpotRate(ctx), nil
	default:
		return 0, fmt.Errorf("%w: %s", apperrors.ErrExchangeRateRequired, currency)
	}
}

func (s *TransactionService) findOrCreateAsset(ctx context.Context, repo *repository.AssetRepository, ticker, name, assetType string) (model.Asset, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))

	asset, err := repo.GetAssetByTicker(ctx, ticker)
	if err == nil {
		return asset, nil
	}
	if !errors.Is(err, apperrors.ErrAssetNotFound) {
		return model.Asset{}, err
	}

	asset = model.Asset{
		ID:        uuid.New().String(),
		Ticker:    ticker,
		Name:      strings.TrimSpace(name),
		Type:      model.AssetType(strings.ToUpper(strings.TrimSpace(assetType))),
		CreatedAt: s.now().UTC(),
	}
	if asset.Name == "" {
		asset.Name = ticker
	}
	if asset.Type == "" {
		asset.Type = s.guessAssetType(ticker)
	}

	if err := repo.InsertAsset(ctx, &asset); err != nil {
		return model.Asset{}, err
	}

	s.log.WithFields(logrus.Fields{
		"ticker": asset.Ticker,
		"type":   asset.Type,
	}).Info("created asset")

	return asset, nil
}

// guessAssetType classifies a ticker without an explicit type: known crypto and proxy
// tokens are CRYPTO, everything else STOCK.
func (s *TransactionService) guessAssetType(ticker string) model.AssetType {
	tables := s.quotes.Tables()
	if _, ok := tables.Crypto[ticker]; ok {
		return model.AssetTypeCrypto
	}
	if _, ok := tables.Proxies[ticker]; ok {
		return model.AssetTypeCrypto
	}
	if strings.HasSuffix(ticker, "-USD") {
		return model.AssetTypeCrypto
	}
	return model.AssetTypeStock
}

func (s *TransactionService) recordBenchmark(ctx context.Context, transactionID string) {
	if err := s.benchmarks.RecordBenchmarkForTransaction(ctx, transactionID); err != nil {
		s.log.WithError(err).WithField("transaction_id", transactionID).
			Warn("failed to record transaction benchmark, run the backfill to retry")
	}
}

func normalizeCurrency(currency string) string {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		return model.AccountingCurrency
	}
	return currency
}
