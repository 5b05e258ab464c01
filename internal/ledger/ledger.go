// Package ledger folds transaction histories into positions and converts amounts
// into the accounting currency. Everything here is pure; callers supply the data.
package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/ndewijer/Investment-Portfolio-Tracker/internal/model"
)

// Position is the aggregate of one asset's transaction history.
type Position struct {
	Quantity    float64 // BUY quantities minus SELL and WITHDRAW quantities
	BuyQuantity float64 // Sum of BUY quantities
	BuyCostEUR  float64 // Sum of BUY totals in EUR, fees included
	CostBasis   float64 // Weighted-average unit cost (PRU) in EUR
}

// Held reports whether the position still counts as a holding.
// Fully liquidated or oversold positions are not held.
func (p Position) Held() bool {
	return p.Quantity > 0
}

// Aggregate computes the running quantity and weighted-average cost basis of the
// given transactions, which must all belong to the same asset.
//
// Cost basis is the BUY total in EUR divided by the BUY quantity. SELL and WITHDRAW
// only reduce the quantity; they never move the cost basis. With no BUY quantity the
// cost basis is zero.
//
// Sums are carried in decimal so the result does not depend on transaction order.
func Aggregate(transactions []model.Transaction) Position {
	quantity := decimal.Zero
	buyQuantity := decimal.Zero
	buyCost := decimal.Zero

	for _, tx := range transactions {
		q := decimal.NewFromFloat(tx.Quantity)
		switch tx.Type {
		case model.TransactionBuy:
			quantity = quantity.Add(q)
			buyQuantity = buyQuantity.Add(q)
			buyCost = buyCost.Add(decimal.NewFromFloat(tx.TotalEUR))
		case model.TransactionSell, model.TransactionWithdraw:
			quantity = quantity.Sub(q)
		}
	}

	costBasis := decimal.Zero
	if buyQuantity.IsPositive() {
		costBasis = buyCost.Div(buyQuantity)
	}

	return Position{
		Quantity:    quantity.InexactFloat64(),
		BuyQuantity: buyQuantity.InexactFloat64(),
		BuyCostEUR:  buyCost.InexactFloat64(),
		CostBasis:   costBasis.InexactFloat64(),
	}
}

// GroupByAsset splits transactions by asset ID, keeping their relative order.
func GroupByAsset(transactions []model.Transaction) map[string][]model.Transaction {
	grouped := make(map[string][]model.Transaction)
	for _, tx := range transactions {
		grouped[tx.AssetID] = append(grouped[tx.AssetID], tx)
	}
	return grouped
}
