package model

import "time"

// IndexKey identifies a reference index, e.g. "SP500".
type IndexKey string

const (
	IndexMSCIWorld IndexKey = "MSCI_WORLD"
	IndexSP500     IndexKey = "SP500"
	IndexNasdaq    IndexKey = "NASDAQ"
	IndexCAC40     IndexKey = "CAC40"
	IndexBTC       IndexKey = "BTC"
	IndexETH       IndexKey = "ETH"

	// Chart-only indices.
	IndexDAX     IndexKey = "DAX"
	IndexFTSE100 IndexKey = "FTSE100"
	IndexNikkei  IndexKey = "NIKKEI"
)

// BenchmarkIndex describes a reference index and how to quote it.
// Only Tracked indices take part in theoretical investments and snapshots.
type BenchmarkIndex struct {
	Key      IndexKey `json:"key"`
	Symbol   string   `json:"symbol"`
	Name     string   `json:"name"`
	Currency string   `json:"currency"`
	Tracked  bool     `json:"tracked"`
}

// BenchmarkSource records how the prices of a TransactionBenchmark were obtained.
type BenchmarkSource string

const (
	BenchmarkSourceLive       BenchmarkSource = "live"
	BenchmarkSourceHistorical BenchmarkSource = "historical"
)

// TransactionBenchmark holds the EUR price of each tracked index at the time of a BUY.
// It is written once and never updated.
type TransactionBenchmark struct {
	TransactionID string               `json:"transactionId"`
	RecordedAt    time.Time            `json:"recordedAt"`
	Source        BenchmarkSource      `json:"source"`
	Prices        map[IndexKey]float64 `json:"prices"`
}

// BenchmarkUnits is the cumulative theoretical holding of every tracked index.
type BenchmarkUnits struct {
	Units         map[IndexKey]float64 `json:"units"`
	TotalInvested float64              `json:"totalInvested"`
}

// BenchmarkValue is the present-day worth of the theoretical holding of one index.
type BenchmarkValue struct {
	Key          IndexKey `json:"key"`
	Name         string   `json:"name"`
	Units        float64  `json:"units"`
	CurrentPrice float64  `json:"currentPrice"`
	CurrentValue float64  `json:"currentValue"`
}

// BenchmarkValues compares every tracked index against the real invested amount.
type BenchmarkValues struct {
	TotalInvested float64          `json:"totalInvested"`
	Benchmarks    []BenchmarkValue `json:"benchmarks"`
}

// IndexPoint is one daily close of an index for comparison charts.
type IndexPoint struct {
	Date  string  `json:"date"` // YYYY-MM-DD
	Value float64 `json:"value"`
}

// BackfillResult summarizes a benchmark backfill run.
type BackfillResult struct {
	Processed int `json:"processed"`
	Recorded  int `json:"recorded"`
	Skipped   int `json:"skipped"`
}
