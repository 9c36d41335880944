package custom_err

import "errors"

var (
	// Rate source errors
	ErrSourceUnavailable = errors.New("rate source unavailable")
	ErrMalformedResponse = errors.New("malformed rate source response")

	// Storage errors
	ErrPersistence    = errors.New("persistence failure")
	ErrSchemaMismatch = errors.New("schema mismatch")

	// Analytics states, not faults: callers render an empty state
	ErrNoData              = errors.New("no data ingested yet")
	ErrInsufficientHistory = errors.New("not enough history")

	// Scheduler errors
	ErrRunInProgress = errors.New("a run is already in progress")

	// Validation errors
	ErrInvalidCurrency  = errors.New("invalid currency")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidRate      = errors.New("rate must be positive")
	ErrCurrencyNotFound = errors.New("currency not found")
)
