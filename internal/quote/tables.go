package quote

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/ndewijer/Investment-Portfolio-Tracker/internal/model"
)

// FXSymbol is the Yahoo pair quoting USD per EUR.
const FXSymbol = "EURUSD=X"

// Tables holds the symbol mapping and fallback data used by the Provider.
// Map keys are upper-case tickers.
type Tables struct {
	// Proxies maps tokens without a market of their own to a look-alike pair
	// (wrapped BTC, staked ETH, stablecoins).
	Proxies map[string]string `json:"proxies"`
	// Crypto maps known crypto tickers to their USD pair.
	Crypto map[string]string `json:"crypto"`
	// Static holds fallback prices used when no live quote is available.
	Static map[string]model.Price `json:"static"`
	// Indices lists the benchmark indices, tracked and chart-only.
	Indices []model.BenchmarkIndex `json:"indices"`
}

// DefaultTables returns the built-in tables.
func DefaultTables() Tables {
	return Tables{
		Proxies: map[string]string{
			"BETH":     "ETH-USD",
			"BETH-USD": "ETH-USD",
			"STETH":    "ETH-USD",
			"WSTETH":   "ETH-USD",
			"CBETH":    "ETH-USD",
			"RETH":     "ETH-USD",
			"WBTC":     "BTC-USD",
			"TBTC":     "BTC-USD",
			"HBTC":     "BTC-USD",
			"USDT":     "USDC-USD",
			"USDC":     "USDC-USD",
			"DAI":      "DAI-USD",
			"BUSD":     "USDC-USD",
			"TUSD":     "USDC-USD",
		},
		Crypto: map[string]string{
			"BTC":   "BTC-USD",
			"ETH":   "ETH-USD",
			"SOL":   "SOL-USD",
			"ADA":   "ADA-USD",
			"DOT":   "DOT-USD",
			"AVAX":  "AVAX-USD",
			"MATIC": "MATIC-USD",
			"LINK":  "LINK-USD",
			"UNI":   "UNI-USD",
			"XRP":   "XRP-USD",
			"DOGE":  "DOGE-USD",
			"SHIB":  "SHIB-USD",
			"LTC":   "LTC-USD",
			"BCH":   "BCH-USD",
			"ATOM":  "ATOM-USD",
			"FTM":   "FTM-USD",
			"NEAR":  "NEAR-USD",
			"ALGO":  "ALGO-USD",
			"XLM":   "XLM-USD",
			"VET":   "VET-USD",
		},
		Static: map[string]model.Price{
			"BTC":   {Value: 65000, Currency: "USD"},
			"ETH":   {Value: 3400, Currency: "USD"},
			"SOL":   {Value: 140, Currency: "USD"},
			"AAPL":  {Value: 185, Currency: "USD"},
			"MSFT":  {Value: 420, Currency: "USD"},
			"GOOGL": {Value: 175, Currency: "USD"},
			"AMZN":  {Value: 195, Currency: "USD"},
			"NVDA":  {Value: 145, Currency: "USD"},
			"TSLA":  {Value: 245, Currency: "USD"},
			"VOO":   {Value: 480, Currency: "USD"},
			"VTI":   {Value: 285, Currency: "USD"},
			"IWDA":  {Value: 85, Currency: "EUR"},
		},
		Indices: []model.BenchmarkIndex{
			{Key: model.IndexMSCIWorld, Symbol: "URTH", Name: "MSCI World", Currency: "USD", Tracked: true},
			{Key: model.IndexSP500, Symbol: "^GSPC", Name: "S&P 500", Currency: "USD", Tracked: true},
			{Key: model.IndexNasdaq, Symbol: "^IXIC", Name: "NASDAQ Composite", Currency: "USD", Tracked: true},
			{Key: model.IndexCAC40, Symbol: "^FCHI", Name: "CAC 40", Currency: "EUR", Tracked: true},
			{Key: model.IndexBTC, Symbol: "BTC-USD", Name: "Bitcoin", Currency: "USD", Tracked: true},
			{Key: model.IndexETH, Symbol: "ETH-USD", Name: "Ethereum", Currency: "USD", Tracked: true},
			{Key: model.IndexDAX, Symbol: "^GDAXI", Name: "DAX", Currency: "EUR"},
			{Key: model.IndexFTSE100, Symbol: "^FTSE", Name: "FTSE 100", Currency: "GBP"},
			{Key: model.IndexNikkei, Symbol: "^N225", Name: "Nikkei 225", Currency: "JPY"},
		},
	}
}

// LoadTables reads a JSON tables file and layers it over DefaultTables.
// Map entries in the file add to or replace the defaults; a non-empty indices list
// replaces the default list. An empty path returns the defaults.
func LoadTables(path string) (Tables, error) {
	tables := DefaultTables()
	if path == "" {
		return tables, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Tables{}, fmt.Errorf("failed to read quote tables: %w", err)
	}

	var overlay Tables
	if err := json.Unmarshal(data, &overlay); err != nil {
		return Tables{}, fmt.Errorf("failed to parse quote tables %s: %w", path, err)
	}

	for k, v := range overlay.Proxies {
		tables.Proxies[strings.ToUpper(k)] = strings.ToUpper(v)
	}
	for k, v := range overlay.Crypto {
		tables.Crypto[strings.ToUpper(k)] = strings.ToUpper(v)
	}
	for k, v := range overlay.Static {
		v.Currency = strings.ToUpper(v.Currency)
		tables.Static[strings.ToUpper(k)] = v
	}
	if len(overlay.Indices) > 0 {
		for i, idx := range overlay.Indices {
			if idx.Key == "" || idx.Symbol == "" {
				return Tables{}, fmt.Errorf("quote tables %s: index %d needs a key and a symbol", path, i)
			}
		}
		tables.Indices = overlay.Indices
	}

	return tables, nil
}

// Tracked returns the indices that take part in benchmarks and snapshots.
func (t Tables) Tracked() []model.BenchmarkIndex {
	tracked := make([]model.BenchmarkIndex, 0, len(t.Indices))
	for _, idx := range t.Indices {
		if idx.Tracked {
			tracked = append(tracked, idx)
		}
	}
	return tracked
}

// Index looks up an index by key, tracked or chart-only.
func (t Tables) Index(key model.IndexKey) (model.BenchmarkIndex, bool) {
	for _, idx := range t.Indices {
		if strings.EqualFold(string(idx.Key), string(key)) {
			return idx, true
		}
	}
	return model.BenchmarkIndex{}, false
}
