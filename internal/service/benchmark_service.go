package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ndewijer/Investment-Portfolio-Tracker/internal/apperrors"
	"github.com/ndewijer/Investment-Portfolio-Tracker/internal/ledger"
	"github.com/ndewijer/Investment-Portfolio-Tracker/internal/model"
	"github.com/ndewijer/Investment-Portfolio-Tracker/internal/quote"
	"github.com/ndewijer/Investment-Portfolio-Tracker/internal/repository"
)

// BenchmarkService maintains the theoretical benchmark ledger: for every BUY it
// freezes the EUR price of each tracked index, and from those prices derives what the
// same money would have bought in each index.
type BenchmarkService struct {
	transactionRepo *repository.TransactionRepository
	benchmarkRepo   *repository.BenchmarkRepository
	quotes          *quote.Provider
	log             logrus.FieldLogger
	now             func() time.Time
}

// NewBenchmarkService creates a new BenchmarkService with the provided dependencies.
func NewBenchmarkService(
	transactionRepo *repository.TransactionRepository,
	benchmarkRepo *repository.BenchmarkRepository,
	quotes *quote.Provider,
	log logrus.FieldLogger,
) *BenchmarkService {
	return &BenchmarkService{
		transactionRepo: transactionRepo,
		benchmarkRepo:   benchmarkRepo,
		quotes:          quotes,
		log:             log.WithField("service", "benchmark"),
		now:             time.Now,
	}
}

// WithClock replaces the time source, for tests.
func (s *BenchmarkService) WithClock(now func() time.Time) *BenchmarkService {
	s.now = now
	return s
}

// IndexPrices returns the current EUR price of every tracked index that could be priced.
// USD-quoted indices are converted with the spot rate; EUR-quoted ones pass through.
func (s *BenchmarkService) IndexPrices(ctx context.Context) map[model.IndexKey]float64 {
	tracked := s.quotes.Tables().Tracked()

	reqs := make([]quote.Request, 0, len(tracked))
	for _, idx := range tracked {
		reqs = append(reqs, quote.Request{Ticker: idx.Symbol})
	}
	live := s.quotes.Quotes(ctx, reqs)

	var eurPerUSD float64
	prices := make(map[model.IndexKey]float64, len(tracked))

	for _, idx := range tracked {
		p, ok := live[strings.ToUpper(idx.Symbol)]
		if !ok {
			s.log.WithField("index", idx.Key).Warn("no current price for benchmark index")
			continue
		}
		if p.Currency == "" {
			p.Currency = idx.Currency
		}
		if !ledger.IsAccounting(p.Currency) && eurPerUSD == 0 {
			eurPerUSD = s.quotes.SpotRate(ctx)
		}

		eur, ok := ledger.ToAccounting(p, eurPerUSD)
		if !ok || eur <= 0 {
			s.log.WithFields(logrus.Fields{
				"index":    idx.Key,
				"currency": p.Currency,
			}).Warn("benchmark index price cannot be converted")
			continue
		}
		prices[idx.Key] = eur
	}

	return prices
}

// RecordBenchmarkForTransaction freezes the current index prices for a transaction.
// A transaction that already has a benchmark keeps it unchanged.
//
// Returns:
//   - apperrors.ErrTransactionNotFound if the transaction does not exist
//   - apperrors.ErrNoIndexPrices if no tracked index could be priced
func (s *BenchmarkService) RecordBenchmarkForTransaction(ctx context.Context, transactionID string) error {
	if _, err := s.transactionRepo.GetTransaction(ctx, transactionID); err != nil {
		return err
	}

	_, err := s.benchmarkRepo.GetBenchmark(ctx, transactionID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, apperrors.ErrBenchmarkNotFound) {
		return err
	}

	prices := s.IndexPrices(ctx)
	if len(prices) == 0 {
		return apperrors.ErrNoIndexPrices
	}

	inserted, err := s.benchmarkRepo.InsertBenchmark(ctx, model.TransactionBenchmark{
		TransactionID: transactionID,
		RecordedAt:    s.now().UTC(),
		Source:        model.BenchmarkSourceLive,
		Prices:        prices,
	})
	if err != nil {
		return fmt.Errorf("failed to record benchmark: %w", err)
	}

	if inserted {
		s.log.WithFields(logrus.Fields{
			"transaction_id": transactionID,
			"indices":        len(prices),
		}).Info("recorded transaction benchmark")
	}
	return nil
}

// GetBenchmark returns the frozen benchmark of a transaction.
func (s *BenchmarkService) GetBenchmark(ctx context.Context, transactionID string) (model.TransactionBenchmark, error) {
	return s.benchmarkRepo.GetBenchmark(ctx, transactionID)
}

// CumulativeTheoreticalUnits sums, per tracked index, the units every benchmarked BUY
// would have bought: TotalEUR / price recorded for that index. An index without a
// positive recorded price is skipped for that transaction only.
// TotalInvested sums TotalEUR of every benchmarked BUY.
func (s *BenchmarkService) CumulativeTheoreticalUnits(ctx context.Context) (model.BenchmarkUnits, error) {
	buys, err := s.benchmarkRepo.GetBenchmarkedBuys(ctx)
	if err != nil {
		return model.BenchmarkUnits{}, err
	}

	tracked := s.quotes.Tables().Tracked()
	units := model.BenchmarkUnits{Units: make(map[model.IndexKey]float64, len(tracked))}
	for _, idx := range tracked {
		units.Units[idx.Key] = 0
	}

	for _, buy := range buys {
		units.TotalInvested += buy.TotalEUR
		for _, idx := range tracked {
			price := buy.Prices[idx.Key]
			if price <= 0 {
				continue
			}
			units.Units[idx.Key] += buy.TotalEUR / price
		}
	}

	return units, nil
}

// CurrentBenchmarkValues values the cumulative theoretical units at current index prices.
// An index that cannot be priced now is reported with zero price and value.
func (s *BenchmarkService) CurrentBenchmarkValues(ctx context.Context) (model.BenchmarkValues, error) {
	units, err := s.CumulativeTheoreticalUnits(ctx)
	if err != nil {
		return model.BenchmarkValues{}, err
	}
	prices := s.IndexPrices(ctx)

	values := model.BenchmarkValues{
		TotalInvested: units.TotalInvested,
		Benchmarks:    []model.BenchmarkValue{},
	}
	for _, idx := range s.quotes.Tables().Tracked() {
		u := units.Units[idx.Key]
		price := prices[idx.Key]
		values.Benchmarks = append(values.Benchmarks, model.BenchmarkValue{
			Key:          idx.Key,
			Name:         idx.Name,
			Units:        u,
			CurrentPrice: price,
			CurrentValue: u * price,
		})
	}

	return values, nil
}

// BackfillBenchmarks records benchmarks for BUY transactions that have none, using the
// index closes on or before each transaction date and the EUR/USD rate of that date.
// A transaction for which no index close can be found is skipped.
func (s *BenchmarkService) BackfillBenchmarks(ctx context.Context) (model.BackfillResult, error) {
	pending, err := s.benchmarkRepo.GetBuysWithoutBenchmark(ctx)
	if err != nil {
		return model.BackfillResult{}, err
	}

	var result model.BackfillResult
	for _, tx := range pending {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		result.Processed++

		entry := s.log.WithFields(logrus.Fields{
			"transaction_id": tx.ID,
			"date":           tx.Date.Format("2006-01-02"),
		})

		prices := s.historicalIndexPrices(ctx, tx.Date)
		if len(prices) == 0 {
			entry.Warn("no historical index prices, skipping")
			result.Skipped++
			continue
		}

		inserted, err := s.benchmarkRepo.InsertBenchmark(ctx, model.TransactionBenchmark{
			TransactionID: tx.ID,
			RecordedAt:    s.now().UTC(),
			Source:        model.BenchmarkSourceHistorical,
			Prices:        prices,
		})
		if err != nil {
			return result, fmt.Errorf("failed to record benchmark for %s: %w", tx.ID, err)
		}
		if inserted {
			result.Recorded++
			entry.WithField("indices", len(prices)).Info("backfilled transaction benchmark")
		} else {
			result.Skipped++
		}
	}

	return result, nil
}

func (s *BenchmarkService) historicalIndexPrices(ctx context.Context, date time.Time) map[model.IndexKey]float64 {
	start := date.AddDate(0, 0, -quote.RateLookback)
	end := date.AddDate(0, 0, 1)

	var eurPerUSD float64
	prices := make(map[model.IndexKey]float64)

	for _, idx := range s.quotes.Tables().Tracked() {
		points := s.quotes.History(ctx, idx.Symbol, "", start, end)
		closePrice, ok := quote.CloseOnOrBefore(points, date)
		if !ok {
			continue
		}

		if !ledger.IsAccounting(idx.Currency) && eurPerUSD == 0 {
			eurPerUSD = s.quotes.RateAt(ctx, date)
		}
		eur, ok := ledger.ToAccounting(model.Price{Value: closePrice, Currency: idx.Currency}, eurPerUSD)
		if !ok {
			continue
		}
		prices[idx.Key] = eur
	}

	return prices
}

// IndexHistory returns the daily closes of an index, tracked or chart-only, in the
// index's own currency. An empty end means today.
//
// Returns apperrors.ErrUnknownIndex for an unconfigured key.
func (s *BenchmarkService) IndexHistory(ctx context.Context, key model.IndexKey, start, end time.Time) ([]model.IndexPoint, error) {
	idx, ok := s.quotes.Tables().Index(key)
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrUnknownIndex, key)
	}
	if end.IsZero() {
		end = s.now().UTC()
	}

	points := s.quotes.History(ctx, idx.Symbol, "", start, end)

	series := make([]model.IndexPoint, 0, len(points))
	for _, p := range points {
		series = append(series, model.IndexPoint{
			Date:  p.Date.UTC().Format("2006-01-02"),
			Value: p.Close,
		})
	}
	return series, nil
}

// Indices lists every configured index.
func (s *BenchmarkService) Indices() []model.BenchmarkIndex {
	return s.quotes.Tables().Indices
}
