// Package quote resolves market prices for portfolio tickers and benchmark indices.
//
// The Provider normalizes tickers to Yahoo symbols, serves recent quotes from a
// Cache, and absorbs every upstream failure: callers get an absent price or an
// empty series, never an error.
package quote

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/ndewijer/Investment-Portfolio-Tracker/internal/apperrors"
	"github.com/ndewijer/Investment-Portfolio-Tracker/internal/model"
)

const (
	// DefaultUSDPerEUR is used when the EUR/USD pair cannot be fetched.
	DefaultUSDPerEUR = 1.09
	// DefaultBatchSize bounds concurrent upstream fetches in Quotes.
	DefaultBatchSize = 5
	// DefaultTimeout bounds a single upstream call.
	DefaultTimeout = 10 * time.Second
	// RateLookback is how far back RateAt and historical closes search for a trading day.
	RateLookback = 5
)

// Source fetches raw quotes for Yahoo symbols.
type Source interface {
	Quote(ctx context.Context, symbol string) (model.Price, error)
	History(ctx context.Context, symbol string, start, end time.Time) ([]model.PricePoint, error)
}

// Request asks for the quote of one ticker.
type Request struct {
	Ticker    string
	AssetType model.AssetType
}

// Config tunes the Provider. Zero values select the defaults.
type Config struct {
	BatchSize        int
	Timeout          time.Duration
	RequestsPerSec   float64
	DefaultUSDPerEUR float64
}

// Provider is the price facade used by the services.
type Provider struct {
	source  Source
	cache   Cache
	tables  Tables
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
	cfg     Config
	log     logrus.FieldLogger
}

// NewProvider creates a Provider. A nil cache selects a MemoryCache with the default TTL.
func NewProvider(source Source, cache Cache, tables Tables, cfg Config, log logrus.FieldLogger) *Provider {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.DefaultUSDPerEUR <= 0 {
		cfg.DefaultUSDPerEUR = DefaultUSDPerEUR
	}
	if cache == nil {
		cache = NewMemoryCache(DefaultCacheTTL)
	}

	limit := rate.Inf
	if cfg.RequestsPerSec > 0 {
		limit = rate.Limit(cfg.RequestsPerSec)
	}

	log = log.WithField("component", "quote")

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:         "quote-source",
		MaxRequests:  1,
		Interval:     time.Minute,
		Timeout:      30 * time.Second,
		IsSuccessful: sourceHealthy,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.Requests >= 10 && float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("quote source circuit breaker changed state")
		},
	})

	return &Provider{
		source:  source,
		cache:   cache,
		tables:  tables,
		limiter: rate.NewLimiter(limit, cfg.BatchSize),
		breaker: breaker,
		cfg:     cfg,
		log:     log,
	}
}

// Tables returns the symbol tables the provider was built with.
func (p *Provider) Tables() Tables {
	return p.tables
}

// Symbol normalizes a ticker to its Yahoo symbol.
func (p *Provider) Symbol(ticker string, assetType model.AssetType) string {
	upper := strings.ToUpper(strings.TrimSpace(ticker))

	if strings.HasSuffix(upper, "-USD") {
		return upper
	}
	if proxy, ok := p.tables.Proxies[upper]; ok {
		return proxy
	}
	if pair, ok := p.tables.Crypto[upper]; ok {
		return pair
	}
	if assetType == model.AssetTypeCrypto {
		return upper + "-USD"
	}
	return upper
}

// StaticPrice looks up the fallback table.
func (p *Provider) StaticPrice(ticker string) (model.Price, bool) {
	price, ok := p.tables.Static[strings.ToUpper(ticker)]
	return price, ok
}

// Quote returns the current price of a ticker, or false when none is available.
func (p *Provider) Quote(ctx context.Context, ticker string, assetType model.AssetType) (model.Price, bool) {
	return p.quoteSymbol(ctx, p.Symbol(ticker, assetType))
}

// Quotes fetches many tickers concurrently. The result is keyed by trimmed upper-case ticker
// and omits tickers without a price; one failing ticker never affects the others.
func (p *Provider) Quotes(ctx context.Context, reqs []Request) map[string]model.Price {
	var (
		mu     sync.Mutex
		result = make(map[string]model.Price, len(reqs))
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.BatchSize)

	for _, req := range reqs {
		g.Go(func() error {
			price, ok := p.Quote(gctx, req.Ticker, req.AssetType)
			if !ok {
				return nil
			}
			mu.Lock()
			result[strings.ToUpper(strings.TrimSpace(req.Ticker))] = price
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return result
}

// History returns daily closes between start and end in ascending order.
// Non-positive closes are dropped; any failure yields an empty series.
func (p *Provider) History(ctx context.Context, ticker string, assetType model.AssetType, start, end time.Time) []model.PricePoint {
	symbol := p.Symbol(ticker, assetType)
	entry := p.log.WithField("symbol", symbol)

	var points []model.PricePoint
	err := p.call(ctx, func(ctx context.Context) error {
		var err error
		points, err = p.source.History(ctx, symbol, start, end)
		return err
	})
	if err != nil {
		entry.WithError(err).Warn("failed to fetch price history")
		return []model.PricePoint{}
	}

	kept := make([]model.PricePoint, 0, len(points))
	for _, pt := range points {
		if pt.Close > 0 {
			kept = append(kept, pt)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].Date.Before(kept[j].Date) })
	return kept
}

// SpotRate returns EUR per USD from the live EUR/USD pair, or the configured default.
func (p *Provider) SpotRate(ctx context.Context) float64 {
	if price, ok := p.quoteSymbol(ctx, FXSymbol); ok {
		return 1 / price.Value
	}
	p.log.WithField("fallback", p.cfg.DefaultUSDPerEUR).Warn("using default EUR/USD rate")
	return 1 / p.cfg.DefaultUSDPerEUR
}

// RateAt returns EUR per USD on a past date: the last close on or before t within
// RateLookback days, else the spot rate.
func (p *Provider) RateAt(ctx context.Context, t time.Time) float64 {
	points := p.History(ctx, FXSymbol, "", t.AddDate(0, 0, -RateLookback), t.AddDate(0, 0, 1))
	if usdPerEUR, ok := CloseOnOrBefore(points, t); ok {
		return 1 / usdPerEUR
	}
	return p.SpotRate(ctx)
}

// CloseOnOrBefore returns the close of the last point dated on or before the calendar
// day of t. points must be ascending.
func CloseOnOrBefore(points []model.PricePoint, t time.Time) (float64, bool) {
	day := t.UTC().Truncate(24 * time.Hour)
	for i := len(points) - 1; i >= 0; i-- {
		if !points[i].Date.UTC().Truncate(24 * time.Hour).After(day) {
			return points[i].Close, points[i].Close > 0
		}
	}
	return 0, false
}

// ClearCache drops every cached quote.
func (p *Provider) ClearCache(ctx context.Context) error {
	return p.cache.Clear(ctx)
}

func (p *Provider) quoteSymbol(ctx context.Context, symbol string) (model.Price, bool) {
	if price, ok := p.cache.Get(ctx, symbol); ok {
		return price, true
	}

	entry := p.log.WithField("symbol", symbol)

	var price model.Price
	err := p.call(ctx, func(ctx context.Context) error {
		var err error
		price, err = p.source.Quote(ctx, symbol)
		return err
	})
	if err != nil {
		entry.WithError(err).Warn("failed to fetch quote")
		return model.Price{}, false
	}
	if price.Value <= 0 {
		entry.Warn("quote has no usable price")
		return model.Price{}, false
	}

	if err := p.cache.Set(ctx, symbol, price); err != nil {
		entry.WithError(err).Warn("failed to cache quote")
	}
	return price, true
}

// call runs one upstream request under the rate limiter, the circuit breaker and
// the per-call timeout.
func (p *Provider) call(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := p.limiter.Wait(ctx); err != nil {
		return err
	}

	_, err := p.breaker.Execute(func() (interface{}, error) {
		callCtx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
		defer cancel()
		return nil, fn(callCtx)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("quote source unavailable: %w", err)
	}
	return err
}

// sourceHealthy reports whether a call left the source itself in good standing.
// A symbol without data and a caller that gave up do not count as breaker failures.
func sourceHealthy(err error) bool {
	return err == nil ||
		errors.Is(err, apperrors.ErrNoPriceData) ||
		errors.Is(err, context.Canceled)
}
