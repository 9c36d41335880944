package postgres

import (
	"context"
	"fmt"

	"github.com/inesruizblach/RateFlow/internal/custom_err"
	"github.com/inesruizblach/RateFlow/internal/models"
	"github.com/inesruizblach/RateFlow/internal/storage"

	"github.com/jackc/pgx/v5"
)

const ratesTable = "exchange_rates"

// expectedColumns is the fixed schema of the rates table. Drift against it
// fails fast instead of silently truncating data.
var expectedColumns = []string{"base", "currency", "date", "fetched_at", "rate"}

type PgxIface interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Close()
}

type PostgresStorage struct {
	db PgxIface
}

func NewPostgresStorage(db PgxIface) *PostgresStorage {
	return &PostgresStorage{db: db}
}

// VerifySchema compares the live table against the expected column set.
// Migrations create the table; this catches drift on every subsequent open.
func (s *PostgresStorage) VerifySchema(ctx context.Context) error {
	const op = "storage.VerifySchema"

	rows, err := s.db.Query(ctx, storage.TableColumnsQuery, ratesTable)
	if err != nil {
		return fmt.Errorf("%s: %w: %v", op, custom_err.ErrPersistence, err)
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return fmt.Errorf("%s: %w: %v", op, custom_err.ErrPersistence, err)
		}
		columns = append(columns, name)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("%s: %w: %v", op, custom_err.ErrPersistence, err)
	}

	if len(columns) == 0 {
		return fmt.Errorf("%s: %w: table %s does not exist", op, custom_err.ErrSchemaMismatch, ratesTable)
	}
	if len(columns) != len(expectedColumns) {
		return fmt.Errorf("%s: %w: expected columns %v, got %v", op, custom_err.ErrSchemaMismatch, expectedColumns, columns)
	}
	for i, name := range expectedColumns {
		if columns[i] != name {
			return fmt.Errorf("%s: %w: expected columns %v, got %v", op, custom_err.ErrSchemaMismatch, expectedColumns, columns)
		}
	}

	return nil
}

func (s *PostgresStorage) Append(ctx context.Context, records []models.RateRecord) (int, error) {
	const op = "storage.Append"

	if len(records) == 0 {
		return 0, nil
	}
	for _, r := range records {
		if r.Rate <= 0 {
			return 0, fmt.Errorf("%s: %w: %s=%f", op, custom_err.ErrInvalidRate, r.Currency, r.Rate)
		}
		if r.Currency == "" || r.Base == "" {
			return 0, fmt.Errorf("%s: %w: currency and base are required", op, custom_err.ErrInvalidCurrency)
		}
	}

	// One transaction per batch: either every row of a run becomes visible
	// or none does.
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("%s: %w: %v", op, custom_err.ErrPersistence, err)
	}

	for _, r := range records {
		if _, err := tx.Exec(ctx, storage.InsertRateQuery, r.Currency, r.Rate, r.Base, r.Date, r.FetchedAt); err != nil {
			_ = tx.Rollback(ctx)
			return 0, fmt.Errorf("%s: %w: %v", op, custom_err.ErrPersistence, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("%s: %w: %v", op, custom_err.ErrPersistence, err)
	}

	return len(records), nil
}

func (s *PostgresStorage) ReadAll(ctx context.Context) ([]models.RateRecord, error) {
	const op = "storage.ReadAll"
	return s.queryRecords(ctx, op, storage.ReadAllRatesQuery)
}

func (s *PostgresStorage) LatestSnapshot(ctx context.Context, base, date string) ([]models.RateRecord, error) {
	const op = "storage.LatestSnapshot"
	return s.queryRecords(ctx, op, storage.LatestSnapshotQuery, base, date)
}

func (s *PostgresStorage) queryRecords(ctx context.Context, op, query string, args ...any) ([]models.RateRecord, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", op, custom_err.ErrPersistence, err)
	}
	defer rows.Close()

	records := []models.RateRecord{}
	for rows.Next() {
		var r models.RateRecord
		if err := rows.Scan(&r.Currency, &r.Rate, &r.Base, &r.Date, &r.FetchedAt); err != nil {
			return nil, fmt.Errorf("%s: %w: %v", op, custom_err.ErrPersistence, err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w: %v", op, custom_err.ErrPersistence, err)
	}

	return records, nil
}

func (s *PostgresStorage) Close() {
	s.db.Close()
}
