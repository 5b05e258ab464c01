package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/ndewijer/Investment-Portfolio-Tracker/internal/ledger"
	"github.com/ndewijer/Investment-Portfolio-Tracker/internal/model"
	"github.com/ndewijer/Investment-Portfolio-Tracker/internal/quote"
	"github.com/ndewijer/Investment-Portfolio-Tracker/internal/repository"
)

// ValuationService values the current holdings of the portfolio.
// It only reads: nothing is persisted.
type ValuationService struct {
	transactionRepo *repository.TransactionRepository
	quotes          *quote.Provider
	log             logrus.FieldLogger
}

// NewValuationService creates a new ValuationService with the provided dependencies.
func NewValuationService(
	transactionRepo *repository.TransactionRepository,
	quotes *quote.Provider,
	log logrus.FieldLogger,
) *ValuationService {
	return &ValuationService{
		transactionRepo: transactionRepo,
		quotes:          quotes,
		log:             log.WithField("service", "valuation"),
	}
}

// GetPortfolioData aggregates every asset's ledger into a holding, prices it and sums
// the priced holdings into a summary.
//
// Price resolution per holding:
//   - live quote, converted to EUR with the spot rate
//   - static table price, converted the same way
//   - otherwise the holding is reported with PriceStatus "unpriced" and zero value
//
// Holdings are sorted by market value descending, unpriced ones last.
func (s *ValuationService) GetPortfolioData(ctx context.Context) (model.PortfolioData, error) {
	byAsset, assets, err := s.transactionRepo.GetTransactionsByAsset(ctx)
	if err != nil {
		return model.PortfolioData{}, fmt.Errorf("failed to load transactions: %w", err)
	}

	type held struct {
		asset    model.Asset
		position ledger.Position
	}

	var positions []held
	var reqs []quote.Request
	for assetID, txs := range byAsset {
		pos := ledger.Aggregate(txs)
		if !pos.Held() {
			continue
		}
		asset := assets[assetID]
		positions = append(positions, held{asset: asset, position: pos})
		reqs = append(reqs, quote.Request{Ticker: asset.Ticker, AssetType: asset.Type})
	}

	data := model.PortfolioData{Holdings: []model.Holding{}}
	if len(positions) == 0 {
		return data, nil
	}

	live := s.quotes.Quotes(ctx, reqs)
	eurPerUSD := s.quotes.SpotRate(ctx)

	for _, h := range positions {
		holding := model.Holding{
			AssetID:   h.asset.ID,
			Ticker:    h.asset.Ticker,
			Name:      h.asset.Name,
			Type:      h.asset.Type,
			Quantity:  h.position.Quantity,
			CostBasis: h.position.CostBasis,
			Invested:  h.position.Quantity * h.position.CostBasis,
		}

		price, status := s.resolvePrice(h.asset.Ticker, live, eurPerUSD)
		holding.PriceStatus = status

		if status == model.PriceUnpriced {
			data.Summary.UnpricedCount++
		} else {
			holding.CurrentPrice = price
			holding.MarketValue = holding.Quantity * price
			holding.PnL = holding.MarketValue - holding.Invested
			holding.PnLPercent = percent(holding.PnL, holding.Invested)

			data.Summary.TotalValue += holding.MarketValue
			data.Summary.TotalInvested += holding.Invested
		}

		data.Holdings = append(data.Holdings, holding)
	}

	data.Summary.TotalPnL = data.Summary.TotalValue - data.Summary.TotalInvested
	data.Summary.TotalPnLPercent = percent(data.Summary.TotalPnL, data.Summary.TotalInvested)

	sort.SliceStable(data.Holdings, func(i, j int) bool {
		a, b := data.Holdings[i], data.Holdings[j]
		if (a.PriceStatus == model.PriceUnpriced) != (b.PriceStatus == model.PriceUnpriced) {
			return b.PriceStatus == model.PriceUnpriced
		}
		if a.MarketValue != b.MarketValue {
			return a.MarketValue > b.MarketValue
		}
		return a.Ticker < b.Ticker
	})

	return data, nil
}

// PortfolioValue returns the current EUR market value of the priced holdings.
func (s *ValuationService) PortfolioValue(ctx context.Context) (float64, error) {
	data, err := s.GetPortfolioData(ctx)
	if err != nil {
		return 0, err
	}
	return data.Summary.TotalValue, nil
}

func (s *ValuationService) resolvePrice(ticker string, live map[string]model.Price, eurPerUSD float64) (float64, model.PriceStatus) {
	if p, ok := live[ticker]; ok {
		if eur, ok := ledger.ToAccounting(p, eurPerUSD); ok {
			return eur, model.PriceLive
		}
		s.log.WithFields(logrus.Fields{
			"ticker":   ticker,
			"currency": p.Currency,
		}).Warn("live quote currency cannot be converted")
	}

	if p, ok := s.quotes.StaticPrice(ticker); ok {
		if eur, ok := ledger.ToAccounting(p, eurPerUSD); ok {
			return eur, model.PriceStatic
		}
	}

	s.log.WithField("ticker", ticker).Warn("no price available, holding is unpriced")
	return 0, model.PriceUnpriced
}

// percent returns part/whole*100, or 0 when whole is 0.
func percent(part, whole float64) float64 {
	if whole == 0 {
		return 0
	}
	return part / whole * 100
}
