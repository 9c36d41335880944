package storage

import (
	"context"

	"github.com/inesruizblach/RateFlow/internal/models"
)

// Storage is the append-only table of rate records. The scheduler is the
// only writer; readers may run concurrently with a run in progress.
type Storage interface {
	// Append writes the batch atomically and returns the number of rows
	// written. Rows violating the rate > 0 invariant are rejected as a whole.
	Append(ctx context.Context, records []models.RateRecord) (int, error)

	// ReadAll returns every row ever appended. An empty store yields an
	// empty slice, not an error.
	ReadAll(ctx context.Context) ([]models.RateRecord, error)

	// LatestSnapshot returns all rows matching the exact (base, date) pair,
	// duplicates from multiple same-day fetches included.
	LatestSnapshot(ctx context.Context, base, date string) ([]models.RateRecord, error)

	Close()
}
