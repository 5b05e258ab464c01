package quote

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ndewijer/Investment-Portfolio-Tracker/internal/apperrors"
	"github.com/ndewijer/Investment-Portfolio-Tracker/internal/model"
)

// StaticSource is an offline Source answering from a fixed price table.
// Symbols are matched as-is first, then by their base ticker ("BTC-USD" -> "BTC").
// History is a flat daily series at the table price.
type StaticSource struct {
	prices map[string]model.Price
}

// NewStaticSource builds a source from the Static table plus fixed entries for the FX
// pair and every index symbol, so an offline run can still value benchmarks.
func NewStaticSource(tables Tables) *StaticSource {
	prices := map[string]model.Price{
		FXSymbol: {Value: DefaultUSDPerEUR, Currency: "USD"},
		"URTH":   {Value: 150, Currency: "USD"},
		"^GSPC":  {Value: 5000, Currency: "USD"},
		"^IXIC":  {Value: 16000, Currency: "USD"},
		"^FCHI":  {Value: 7500, Currency: "EUR"},
		"^GDAXI": {Value: 18000, Currency: "EUR"},
		"^FTSE":  {Value: 8000, Currency: "GBP"},
		"^N225":  {Value: 38000, Currency: "JPY"},
	}
	for k, v := range tables.Static {
		prices[strings.ToUpper(k)] = v
	}
	return &StaticSource{prices: prices}
}

func (s *StaticSource) lookup(symbol string) (model.Price, bool) {
	symbol = strings.ToUpper(symbol)
	if p, ok := s.prices[symbol]; ok {
		return p, true
	}
	if base, ok := strings.CutSuffix(symbol, "-USD"); ok {
		p, ok := s.prices[base]
		return p, ok
	}
	return model.Price{}, false
}

func (s *StaticSource) Quote(_ context.Context, symbol string) (model.Price, error) {
	p, ok := s.lookup(symbol)
	if !ok {
		return model.Price{}, fmt.Errorf("no static price for %s: %w", symbol, apperrors.ErrNoPriceData)
	}
	return p, nil
}

func (s *StaticSource) History(_ context.Context, symbol string, start, end time.Time) ([]model.PricePoint, error) {
	p, ok := s.lookup(symbol)
	if !ok {
		return nil, fmt.Errorf("no static price for %s: %w", symbol, apperrors.ErrNoPriceData)
	}

	var points []model.PricePoint
	for d := start.UTC().Truncate(24 * time.Hour); !d.After(end); d = d.AddDate(0, 0, 1) {
		points = append(points, model.PricePoint{Date: d, Close: p.Value})
	}
	return points, nil
}
