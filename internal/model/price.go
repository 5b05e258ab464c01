package model

import "time"

// Price is a quoted value in the currency the market reports it in.
type Price struct {
	Value    float64 `json:"value"`
	Currency string  `json:"currency"`
}

// PricePoint is one daily close of a price series.
type PricePoint struct {
	Date  time.Time `json:"date"`
	Close float64   `json:"close"`
}
