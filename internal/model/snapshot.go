package model

import "time"

// SnapshotIndex is the state of one tracked index inside a snapshot.
type SnapshotIndex struct {
	Price float64 `json:"price"`
	Units float64 `json:"units"`
}

// PortfolioSnapshot is the persisted state of the portfolio for one 15-minute bucket.
type PortfolioSnapshot struct {
	Bucket           time.Time                  `json:"date"`
	TotalValueEUR    float64                    `json:"portfolioValue"`
	TotalInvestedEUR float64                    `json:"invested"`
	Indices          map[IndexKey]SnapshotIndex `json:"indices"`
	CreatedAt        time.Time                  `json:"createdAt"`
	UpdatedAt        time.Time                  `json:"updatedAt"`
}

// HistoryPoint is a snapshot as returned to charts, with benchmark values derived on read.
type HistoryPoint struct {
	Date           string               `json:"date"` // YYYY-MM-DD
	Time           string               `json:"time"` // HH:MM, UTC
	Timestamp      time.Time            `json:"timestamp"`
	PortfolioValue float64              `json:"portfolioValue"`
	Invested       float64              `json:"invested"`
	Benchmarks     map[IndexKey]float64 `json:"benchmarks"`
}
