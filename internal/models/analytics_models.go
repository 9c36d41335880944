package models

// Mover is one row of the top-movers ranking between the two most recent
// distinct dates in the store.
type Mover struct {
	Currency     string  `json:"currency"`
	CurrentRate  float64 `json:"current_rate"`
	PreviousRate float64 `json:"previous_rate"`
	ChangePct    float64 `json:"change_pct"`
}

// TrendPoint is the average rate of one currency on one date. Multiple
// fetches on the same day are reconciled by averaging at read time.
type TrendPoint struct {
	Date     string  `json:"date"`
	Currency string  `json:"currency"`
	Rate     float64 `json:"rate"`
}

type ConversionResult struct {
	AmountInBase   float64 `json:"amount_in_base"`
	Base           string  `json:"base"`
	TargetCurrency string  `json:"target_currency"`
	Rate           float64 `json:"rate"`
	Converted      float64 `json:"converted"`
}

const (
	AnalyticsStatusOK                  = "ok"
	AnalyticsStatusNoData              = "no_data"
	AnalyticsStatusInsufficientHistory = "insufficient_history"
)

type LatestRatesResponse struct {
	Base  string       `json:"base"`
	Date  string       `json:"date"`
	Rates []RateRecord `json:"rates"`
}

type TopMoversResponse struct {
	Status string  `json:"status"`
	Movers []Mover `json:"movers"`
}

type TrendResponse struct {
	Status string       `json:"status"`
	Points []TrendPoint `json:"points"`
}
