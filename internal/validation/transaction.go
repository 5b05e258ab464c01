package validation

import (
	"fmt"
	"strings"

	"github.com/ndewijer/Investment-Portfolio-Tracker/internal/api/request"
	"github.com/ndewijer/Investment-Portfolio-Tracker/internal/model"
)

const (
	maxTickerLength = 32
	maxNameLength   = 100
)

// ValidateCreateTransaction validates a transaction creation request.
// Checks all required fields and validates their formats and constraints.
//
// Required fields:
//   - ticker: non-empty, at most 32 characters
//   - date: YYYY-MM-DD, YYYY-MM-DDTHH:MM or RFC3339
//   - type: one of BUY, SELL, WITHDRAW (case-insensitive)
//   - quantity, unitPrice: finite and positive
//
// Optional fields (validated if provided):
//   - name: at most 100 characters
//   - assetType: one of STOCK, ETF, CRYPTO (case-insensitive)
//   - currency: ISO 4217 code
//   - exchangeRate: finite and positive
//   - fees: finite and not negative
//
// Returns a validation Error with field-specific error messages if validation fails.
func ValidateCreateTransaction(req request.CreateTransactionRequest) error {
	errors := make(map[string]string)

	validateTicker(errors, req.Ticker)
	validateName(errors, req.Name)
	if req.AssetType != "" {
		validateAssetType(errors, req.AssetType)
	}
	validateDate(errors, req.Date)
	validateType(errors, req.Type)
	validatePositive(errors, "quantity", req.Quantity)
	validatePositive(errors, "unitPrice", req.UnitPrice)
	if req.Currency != "" {
		validateCurrency(errors, req.Currency)
	}
	if req.ExchangeRate != nil {
		validatePositive(errors, "exchangeRate", *req.ExchangeRate)
	}
	validateFees(errors, req.Fees)

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}

	return nil
}

// ValidateUpdateTransaction validates a transaction update request.
// All fields are optional, but if provided, they must meet the same constraints as create.
//
// Returns a validation Error with field-specific error messages if validation fails.
func ValidateUpdateTransaction(req request.UpdateTransactionRequest) error {
	errors := make(map[string]string)

	if req.Ticker != nil {
		validateTicker(errors, *req.Ticker)
	}
	if req.Name != nil {
		validateName(errors, *req.Name)
	}
	if req.AssetType != nil {
		validateAssetType(errors, *req.AssetType)
	}
	if req.Date != nil {
		validateDate(errors, *req.Date)
	}
	if req.Type != nil {
		validateType(errors, *req.Type)
	}
	if req.Quantity != nil {
		validatePositive(errors, "quantity", *req.Quantity)
	}
	if req.UnitPrice != nil {
		validatePositive(errors, "unitPrice", *req.UnitPrice)
	}
	if req.Currency != nil {
		validateCurrency(errors, *req.Currency)
	}
	if req.ExchangeRate != nil {
		validatePositive(errors, "exchangeRate", *req.ExchangeRate)
	}
	if req.Fees != nil {
		validateFees(errors, *req.Fees)
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}

	return nil
}

func validateTicker(errors map[string]string, ticker string) {
	ticker = strings.TrimSpace(ticker)
	if ticker == "" {
		errors["ticker"] = "ticker is required"
	} else if len(ticker) > maxTickerLength {
		errors["ticker"] = fmt.Sprintf("ticker must be %d characters or less", maxTickerLength)
	}
}

func validateName(errors map[string]string, name string) {
	if len(name) > maxNameLength {
		errors["name"] = fmt.Sprintf("name must be %d characters or less", maxNameLength)
	}
}

func validateAssetType(errors map[string]string, assetType string) {
	if !model.ValidAssetTypes[model.AssetType(strings.ToUpper(strings.TrimSpace(assetType)))] {
		errors["assetType"] = fmt.Sprintf("invalid asset type: %s", assetType)
	}
}

func validateDate(errors map[string]string, date string) {
	if strings.TrimSpace(date) == "" {
		errors["date"] = "date is required"
		return
	}
	if _, err := ParseTime(date); err != nil {
		errors["date"] = err.Error()
	}
}

func validateType(errors map[string]string, txType string) {
	if strings.TrimSpace(txType) == "" {
		errors["type"] = "type is required"
	} else if !model.ValidTransactionTypes[model.TransactionType(strings.ToUpper(strings.TrimSpace(txType)))] {
		errors["type"] = fmt.Sprintf("invalid type: %s", txType)
	}
}

func validatePositive(errors map[string]string, field string, value float64) {
	if !finite(value) {
		errors[field] = field + " must be a number"
	} else if value <= 0 {
		errors[field] = field + " must be positive"
	}
}

func validateFees(errors map[string]string, fees float64) {
	if !finite(fees) {
		errors["fees"] = "fees must be a number"
	} else if fees < 0 {
		errors["fees"] = "fees cannot be negative"
	}
}

func validateCurrency(errors map[string]string, currency string) {
	if err := ValidateCurrency(currency); err != nil {
		errors["currency"] = err.Error()
	}
}
