package testutil

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ndewijer/Investment-Portfolio-Tracker/internal/model"
	"github.com/ndewijer/Investment-Portfolio-Tracker/internal/quote"
)

// MockQuoteSource is a quote.Source returning predefined data instead of calling Yahoo.
// It is safe for concurrent use.
type MockQuoteSource struct {
	mu      sync.Mutex
	quotes  map[string]model.Price
	history map[string][]model.PricePoint
	errs    map[string]error
	calls   map[string]int
}

// NewMockQuoteSource creates an empty mock. Every unknown symbol fails.
func NewMockQuoteSource() *MockQuoteSource {
	return &MockQuoteSource{
		quotes:  make(map[string]model.Price),
		history: make(map[string][]model.PricePoint),
		errs:    make(map[string]error),
		calls:   make(map[string]int),
	}
}

// NewMockQuoteSourceWithIndices creates a mock pricing the FX pair at 1.25 USD per EUR
// (0.8 EUR per USD) and every default tracked index:
// URTH 100 USD, ^GSPC 5000 USD, ^IXIC 15000 USD, ^FCHI 7500 EUR, BTC-USD 50000 USD,
// ETH-USD 2500 USD.
func NewMockQuoteSourceWithIndices() *MockQuoteSource {
	return NewMockQuoteSource().
		WithQuote(quote.FXSymbol, 1.25, "USD").
		WithQuote("URTH", 100, "USD").
		WithQuote("^GSPC", 5000, "USD").
		WithQuote("^IXIC", 15000, "USD").
		WithQuote("^FCHI", 7500, "EUR").
		WithQuote("BTC-USD", 50000, "USD").
		WithQuote("ETH-USD", 2500, "USD")
}

// WithQuote sets the current price of a symbol.
func (m *MockQuoteSource) WithQuote(symbol string, value float64, currency string) *MockQuoteSource {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.quotes[strings.ToUpper(symbol)] = model.Price{Value: value, Currency: currency}
	delete(m.errs, strings.ToUpper(symbol))
	return m
}

// WithHistory sets the daily closes of a symbol.
func (m *MockQuoteSource) WithHistory(symbol string, points ...model.PricePoint) *MockQuoteSource {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.history[strings.ToUpper(symbol)] = points
	return m
}

// WithError makes every call for symbol fail with err.
func (m *MockQuoteSource) WithError(symbol string, err error) *MockQuoteSource {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs[strings.ToUpper(symbol)] = err
	return m
}

// Calls returns how many times symbol was requested.
func (m *MockQuoteSource) Calls(symbol string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[strings.ToUpper(symbol)]
}

func (m *MockQuoteSource) Quote(_ context.Context, symbol string) (model.Price, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	symbol = strings.ToUpper(symbol)
	m.calls[symbol]++
	if err := m.errs[symbol]; err != nil {
		return model.Price{}, err
	}
	p, ok := m.quotes[symbol]
	if !ok {
		return model.Price{}, fmt.Errorf("no data found for %s", symbol)
	}
	return p, nil
}

// History returns the configured closes between start and end.
func (m *MockQuoteSource) History(_ context.Context, symbol string, start, end time.Time) ([]model.PricePoint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	symbol = strings.ToUpper(symbol)
	m.calls[symbol]++
	if err := m.errs[symbol]; err != nil {
		return nil, err
	}

	var points []model.PricePoint
	for _, p := range m.history[symbol] {
		if !p.Date.Before(start) && !p.Date.After(end) {
			points = append(points, p)
		}
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("no history for %s", symbol)
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })
	return points, nil
}
