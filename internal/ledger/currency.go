package ledger

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/Investment-Portfolio-Tracker/internal/model"
)

// USD is the only quote currency converted automatically.
const USD = "USD"

// IsAccounting reports whether the currency code is the accounting currency.
func IsAccounting(currency string) bool {
	return strings.EqualFold(currency, model.AccountingCurrency)
}

// TotalEUR returns the EUR total of a transaction: quantity*unitPrice + fees,
// multiplied by the exchange rate unless the transaction is already in EUR.
func TotalEUR(quantity, unitPrice, fees float64, currency string, exchangeRate float64) float64 {
	gross := decimal.NewFromFloat(quantity).
		Mul(decimal.NewFromFloat(unitPrice)).
		Add(decimal.NewFromFloat(fees))
	if IsAccounting(currency) {
		return gross.InexactFloat64()
	}
	return gross.Mul(decimal.NewFromFloat(exchangeRate)).InexactFloat64()
}

// ToAccounting converts a quoted price into EUR using the EUR-per-USD rate.
// Prices in a currency other than EUR or USD cannot be converted.
func ToAccounting(price model.Price, eurPerUSD float64) (float64, bool) {
	switch {
	case IsAccounting(price.Currency):
		return price.Value, true
	case strings.EqualFold(price.Currency, USD):
		return decimal.NewFromFloat(price.Value).Mul(decimal.NewFromFloat(eurPerUSD)).InexactFloat64(), true
	default:
		return 0, false
	}
}
