package model

// PriceStatus tells where the price of a holding came from.
type PriceStatus string

const (
	PriceLive     PriceStatus = "live"
	PriceStatic   PriceStatus = "static"
	PriceUnpriced PriceStatus = "unpriced"
)

// Holding is the current valuation of one asset with positive quantity.
// All monetary values are in EUR. Unpriced holdings carry zero market value and P&L.
type Holding struct {
	AssetID      string      `json:"id"`
	Ticker       string      `json:"ticker"`
	Name         string      `json:"name"`
	Type         AssetType   `json:"type"`
	Quantity     float64     `json:"totalQuantity"`
	CostBasis    float64     `json:"pru"`
	CurrentPrice float64     `json:"currentPrice"`
	MarketValue  float64     `json:"currentValue"`
	Invested     float64     `json:"totalInvestedEur"`
	PnL          float64     `json:"pnlEur"`
	PnLPercent   float64     `json:"pnlPercent"`
	PriceStatus  PriceStatus `json:"priceStatus"`
}

// PortfolioSummary sums the priced holdings of the portfolio.
type PortfolioSummary struct {
	TotalValue      float64 `json:"totalValue"`
	TotalInvested   float64 `json:"totalInvested"`
	TotalPnL        float64 `json:"totalPnl"`
	TotalPnLPercent float64 `json:"totalPnlPercent"`
	UnpricedCount   int     `json:"unpricedCount"`
}

// PortfolioData is the full valuation read of the portfolio.
type PortfolioData struct {
	Holdings []Holding        `json:"holdings"`
	Summary  PortfolioSummary `json:"summary"`
}
