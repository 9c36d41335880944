package storage

const (
	InsertRateQuery = `
		INSERT INTO exchange_rates (currency, rate, base, date, fetched_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	ReadAllRatesQuery = `
		SELECT currency, rate, base, date, fetched_at
		FROM exchange_rates
		ORDER BY fetched_at, currency
	`

	LatestSnapshotQuery = `
		SELECT currency, rate, base, date, fetched_at
		FROM exchange_rates
		WHERE base = $1 AND date = $2
		ORDER BY fetched_at, currency
	`

	TableColumnsQuery = `
		SELECT column_name
		FROM information_schema.columns
		WHERE table_name = $1
		ORDER BY column_name
	`
)
