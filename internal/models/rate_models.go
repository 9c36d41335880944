package models

import (
	"time"
)

// DateLayout is the calendar date format the rate source reports and the
// store persists.
const DateLayout = "2006-01-02"

// RateSnapshot is the raw result of one fetch against the rate source.
// It is never persisted directly; the normalizer flattens it into records.
type RateSnapshot struct {
	Base      string
	Date      string // as reported by the source, empty when the payload omits it
	Rates     map[string]float64
	FetchedAt time.Time
}

// RateRecord is one persisted row: the rate of a single currency against
// the base, for one fetch. Rows are append-only and never updated.
type RateRecord struct {
	Currency  string    `db:"currency" json:"currency"`
	Rate      float64   `db:"rate" json:"rate"`
	Base      string    `db:"base" json:"base"`
	Date      string    `db:"date" json:"date"`
	FetchedAt time.Time `db:"fetched_at" json:"fetched_at"`
}
