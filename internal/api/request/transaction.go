package request

// CreateTransactionRequest is the body of POST /api/transaction.
// ExchangeRate is optional for EUR and USD and required for any other currency.
type CreateTransactionRequest struct {
	Ticker       string   `json:"ticker"`
	Name         string   `json:"name"`
	AssetType    string   `json:"assetType"`
	Date         string   `json:"date"`
	Type         string   `json:"type"`
	Quantity     float64  `json:"quantity"`
	UnitPrice    float64  `json:"unitPrice"`
	Currency     string   `json:"currency"`
	ExchangeRate *float64 `json:"exchangeRate,omitempty"`
	Fees         float64  `json:"fees"`
}

// UpdateTransactionRequest is the body of PUT /api/transaction/{uuid}. Nil fields are left unchanged.
type UpdateTransactionRequest struct {
	Ticker       *string  `json:"ticker,omitempty"`
	Name         *string  `json:"name,omitempty"`
	AssetType    *string  `json:"assetType,omitempty"`
	Date         *string  `json:"date,omitempty"`
	Type         *string  `json:"type,omitempty"`
	Quantity     *float64 `json:"quantity,omitempty"`
	UnitPrice    *float64 `json:"unitPrice,omitempty"`
	Currency     *string  `json:"currency,omitempty"`
	ExchangeRate *float64 `json:"exchangeRate,omitempty"`
	Fees         *float64 `json:"fees,omitempty"`
}
