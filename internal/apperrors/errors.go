package apperrors

import "errors"

// Domain entity errors represent missing or invalid entities in the system.
// These errors indicate that a requested resource does not exist.
var (
	// ErrAssetNotFound indicates that an asset with the given ID or ticker does not exist.
	ErrAssetNotFound = errors.New("asset not found")

	// ErrTransactionNotFound indicates that a transaction with the given ID does not exist.
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrBenchmarkNotFound indicates that no benchmark was recorded for a transaction.
	ErrBenchmarkNotFound = errors.New("transaction benchmark not found")

	// ErrSnapshotNotFound indicates that no snapshot exists for a bucket.
	ErrSnapshotNotFound = errors.New("portfolio snapshot not found")

	// ErrUnknownIndex indicates that a benchmark index key is not configured.
	ErrUnknownIndex = errors.New("unknown benchmark index")
)

// Business logic errors represent validation failures or constraint violations.
var (
	// ErrInvalidDateRange indicates that the provided date range is invalid
	// (e.g., start date is after end date).
	ErrInvalidDateRange = errors.New("invalid date range")

	// ErrExchangeRateRequired indicates that a currency other than EUR and USD was used
	// without a manually supplied exchange rate.
	ErrExchangeRateRequired = errors.New("exchange rate is required for this currency")

	// ErrNoIndexPrices indicates that no tracked index could be priced, so no
	// benchmark was recorded.
	ErrNoIndexPrices = errors.New("no benchmark index prices available")

	// ErrInvalidTransactionID is returned when an empty transaction ID is given.
	ErrInvalidTransactionID = errors.New("transaction ID is required")
)

// Quote source errors.
var (
	// ErrNoPriceData indicates that the quote source answered but has no price for a
	// symbol, such as an unknown or delisted ticker. It is not a source outage.
	ErrNoPriceData = errors.New("no price data for symbol")
)

// Operation failure errors represent system-level failures when retrieving or processing data.
var (
	ErrFailedToRetrieveTransactions = errors.New("failed to retrieve transactions")
	ErrFailedToRetrieveTransaction  = errors.New("failed to retrieve transaction")
	ErrFailedToRetrieveAssets       = errors.New("failed to retrieve assets")
	ErrFailedToGetPortfolioData     = errors.New("failed to get portfolio data")
	ErrFailedToGetPortfolioHistory  = errors.New("failed to get portfolio history")
	ErrFailedToGetBenchmarks        = errors.New("failed to get benchmark values")
	ErrFailedToGetIndexHistory      = errors.New("failed to get index history")
	ErrFailedToCreateSnapshot       = errors.New("failed to create snapshot")
)
