package model

import "time"

// TransactionType is the direction of a ledger entry.
type TransactionType string

const (
	TransactionBuy      TransactionType = "BUY"
	TransactionSell     TransactionType = "SELL"
	TransactionWithdraw TransactionType = "WITHDRAW"
)

// ValidTransactionTypes contains the allowed transaction type values.
var ValidTransactionTypes = map[TransactionType]bool{
	TransactionBuy: true, TransactionSell: true, TransactionWithdraw: true,
}

// AccountingCurrency is the single currency every value is normalized to.
const AccountingCurrency = "EUR"

// Transaction represents a buy, sell or withdraw entry for an asset.
// ExchangeRate is the quote-currency to EUR multiplier captured at entry time.
type Transaction struct {
	ID           string          `json:"id"`
	AssetID      string          `json:"assetId"`
	Date         time.Time       `json:"date"`
	Type         TransactionType `json:"type"`
	Quantity     float64         `json:"quantity"`
	UnitPrice    float64         `json:"unitPrice"`
	Currency     string          `json:"currency"`
	ExchangeRate float64         `json:"exchangeRate"`
	Fees         float64         `json:"fees"`
	TotalEUR     float64         `json:"totalEur"`
	CreatedAt    time.Time       `json:"createdAt,omitempty"`
}

// TransactionWithAsset is a transaction enriched with its owning asset for API responses.
type TransactionWithAsset struct {
	Transaction
	Asset Asset `json:"asset"`
}
