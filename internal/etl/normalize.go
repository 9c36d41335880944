package etl

import (
	"github.com/inesruizblach/RateFlow/internal/models"
)

// Normalize flattens a snapshot into one record per quoted currency, all
// sharing the snapshot's base, date and retrieval instant. When the source
// omitted the date, the UTC calendar date of retrieval is substituted so
// ingestion never stalls on a missing field.
//
// Pure and deterministic; callers must not rely on record order.
func Normalize(snap models.RateSnapshot) []models.RateRecord {
	date := snap.Date
	if date == "" {
		date = snap.FetchedAt.UTC().Format(models.DateLayout)
	}

	records := make([]models.RateRecord, 0, len(snap.Rates))
	for currency, rate := range snap.Rates {
		records = append(records, models.RateRecord{
			Currency:  currency,
			Rate:      rate,
			Base:      snap.Base,
			Date:      date,
			FetchedAt: snap.FetchedAt,
		})
	}

	return records
}
