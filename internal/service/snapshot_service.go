package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ndewijer/Investment-Portfolio-Tracker/internal/model"
	"github.com/ndewijer/Investment-Portfolio-Tracker/internal/repository"
)

// SnapshotInterval is the width of a snapshot bucket.
const SnapshotInterval = 15 * time.Minute

// SnapshotService persists one portfolio snapshot per 15-minute bucket and reads the
// series back for charts.
type SnapshotService struct {
	db           *sql.DB
	snapshotRepo *repository.SnapshotRepository
	benchmarks   *BenchmarkService
	valuation    *ValuationService
	log          logrus.FieldLogger
	now          func() time.Time
}

// NewSnapshotService creates a new SnapshotService with the provided dependencies.
func NewSnapshotService(
	db *sql.DB,
	snapshotRepo *repository.SnapshotRepository,
	benchmarks *BenchmarkService,
	valuation *ValuationService,
	log logrus.FieldLogger,
) *SnapshotService {
	return &SnapshotService{
		db:           db,
		snapshotRepo: snapshotRepo,
		benchmarks:   benchmarks,
		valuation:    valuation,
		log:          log.WithField("service", "snapshot"),
		now:          time.Now,
	}
}

// WithClock replaces the time source, for tests.
func (s *SnapshotService) WithClock(now func() time.Time) *SnapshotService {
	s.now = now
	return s
}

// Bucket floors t to the start of its 15-minute snapshot bucket, in UTC.
func Bucket(t time.Time) time.Time {
	return t.UTC().Truncate(SnapshotInterval)
}

// CreateSnapshot stores the snapshot of the current bucket with the given portfolio value.
// A second call within the same bucket overwrites the first.
func (s *SnapshotService) CreateSnapshot(ctx context.Context, portfolioValue float64) (model.PortfolioSnapshot, error) {
	now := s.now().UTC()
	bucket := Bucket(now)

	prices := s.benchmarks.IndexPrices(ctx)
	units, err := s.benchmarks.CumulativeTheoreticalUnits(ctx)
	if err != nil {
		return model.PortfolioSnapshot{}, fmt.Errorf("failed to compute theoretical units: %w", err)
	}

	snapshot := model.PortfolioSnapshot{
		Bucket:           bucket,
		TotalValueEUR:    portfolioValue,
		TotalInvestedEUR: units.TotalInvested,
		Indices:          make(map[model.IndexKey]model.SnapshotIndex, len(units.Units)),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	for key, u := range units.Units {
		snapshot.Indices[key] = model.SnapshotIndex{Price: prices[key], Units: u}
	}

	err = repository.RunInTx(ctx, s.db, func(tx *sql.Tx) error {
		return s.snapshotRepo.WithTx(tx).UpsertSnapshot(ctx, snapshot)
	})
	if err != nil {
		return model.PortfolioSnapshot{}, err
	}

	stored, err := s.snapshotRepo.GetSnapshot(ctx, bucket)
	if err != nil {
		return model.PortfolioSnapshot{}, err
	}

	s.log.WithFields(logrus.Fields{
		"bucket":          bucket.Format(time.RFC3339),
		"portfolio_value": portfolioValue,
		"invested":        units.TotalInvested,
		"indices_priced":  len(prices),
	}).Info("stored portfolio snapshot")

	return stored, nil
}

// CaptureSnapshot values the portfolio now and stores the snapshot of the current bucket.
func (s *SnapshotService) CaptureSnapshot(ctx context.Context) (model.PortfolioSnapshot, error) {
	value, err := s.valuation.PortfolioValue(ctx)
	if err != nil {
		return model.PortfolioSnapshot{}, fmt.Errorf("failed to value portfolio: %w", err)
	}
	return s.CreateSnapshot(ctx, value)
}

// GetPortfolioHistory returns every snapshot in ascending time order, with each index
// valued as units times the price recorded in that snapshot.
func (s *SnapshotService) GetPortfolioHistory(ctx context.Context) ([]model.HistoryPoint, error) {
	snapshots, err := s.snapshotRepo.GetSnapshots(ctx)
	if err != nil {
		return nil, err
	}

	history := make([]model.HistoryPoint, 0, len(snapshots))
	for _, snap := range snapshots {
		point := model.HistoryPoint{
			Date:           snap.Bucket.Format("2006-01-02"),
			Time:           snap.Bucket.Format("15:04"),
			Timestamp:      snap.Bucket,
			PortfolioValue: snap.TotalValueEUR,
			Invested:       snap.TotalInvestedEUR,
			Benchmarks:     make(map[model.IndexKey]float64, len(snap.Indices)),
		}
		for key, idx := range snap.Indices {
			point.Benchmarks[key] = idx.Units * idx.Price
		}
		history = append(history, point)
	}

	return history, nil
}
