package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"

	"github.com/inesruizblach/RateFlow/internal/custom_err"
	"github.com/inesruizblach/RateFlow/internal/models"
	"github.com/inesruizblach/RateFlow/internal/storage"
)

const topMoversLimit = 5

// Analytics is the read-side facade consumed by the HTTP layer. Everything
// is recomputed on demand from the store; nothing is cached here.
type Analytics interface {
	Latest(ctx context.Context, base, date string) (*models.LatestRatesResponse, error)
	TopMovers(ctx context.Context) ([]models.Mover, error)
	Trend(ctx context.Context, currencies []string) ([]models.TrendPoint, error)
	Convert(ctx context.Context, amount float64, target string) (*models.ConversionResult, error)
}

type Service struct {
	storage     storage.Storage
	defaultBase string
	log         *slog.Logger
}

func NewService(st storage.Storage, defaultBase string, log *slog.Logger) *Service {
	return &Service{
		storage:     st,
		defaultBase: defaultBase,
		log:         log,
	}
}

// Latest returns every row of the (base, date) snapshot. An empty date
// resolves to the most recent date present for the base.
func (s *Service) Latest(ctx context.Context, base, date string) (*models.LatestRatesResponse, error) {
	const op = "analytics.Latest"

	if base == "" {
		base = s.defaultBase
	}

	if date == "" {
		records, err := s.storage.ReadAll(ctx)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		date = latestDateForBase(records, base)
		if date == "" {
			return nil, fmt.Errorf("%s: %w", op, custom_err.ErrNoData)
		}
	}

	records, err := s.storage.LatestSnapshot(ctx, base, date)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &models.LatestRatesResponse{
		Base:  base,
		Date:  date,
		Rates: records,
	}, nil
}

// TopMovers ranks currencies by absolute percentage change between the two
// most recent distinct dates. Fewer than two dates is a legitimate early
// state, reported as ErrInsufficientHistory.
func (s *Service) TopMovers(ctx context.Context) ([]models.Mover, error) {
	const op = "analytics.TopMovers"

	records, err := s.storage.ReadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	movers, err := topMovers(records)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return movers, nil
}

// Trend returns the per-(date, currency) average rate for the requested
// currencies, reconciling multiple same-day fetches.
func (s *Service) Trend(ctx context.Context, currencies []string) ([]models.TrendPoint, error) {
	const op = "analytics.Trend"

	records, err := s.storage.ReadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return trendSeries(records, currencies), nil
}

// Convert multiplies an amount in the base currency by the most recently
// fetched rate for the target, irrespective of date grouping.
func (s *Service) Convert(ctx context.Context, amount float64, target string) (*models.ConversionResult, error) {
	const op = "analytics.Convert"

	if amount < 0 {
		return nil, fmt.Errorf("%s: %w", op, custom_err.ErrInvalidAmount)
	}
	target = strings.ToUpper(strings.TrimSpace(target))
	if target == "" {
		return nil, fmt.Errorf("%s: %w", op, custom_err.ErrInvalidCurrency)
	}

	records, err := s.storage.ReadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s: %w", op, custom_err.ErrNoData)
	}

	latest, ok := latestRateFor(records, target)
	if !ok {
		return nil, fmt.Errorf("%s: %w: %s", op, custom_err.ErrCurrencyNotFound, target)
	}

	return &models.ConversionResult{
		AmountInBase:   amount,
		Base:           latest.Base,
		TargetCurrency: target,
		Rate:           latest.Rate,
		Converted:      amount * latest.Rate,
	}, nil
}

// averageByDateCurrency reconciles same-day duplicate rows by averaging,
// keyed date -> currency -> mean rate.
func averageByDateCurrency(records []models.RateRecord) map[string]map[string]float64 {
	sums := make(map[string]map[string]float64)
	counts := make(map[string]map[string]int)

	for _, r := range records {
		if sums[r.Date] == nil {
			sums[r.Date] = make(map[string]float64)
			counts[r.Date] = make(map[string]int)
		}
		sums[r.Date][r.Currency] += r.Rate
		counts[r.Date][r.Currency]++
	}

	avgs := make(map[string]map[string]float64, len(sums))
	for date, byCurrency := range sums {
		avgs[date] = make(map[string]float64, len(byCurrency))
		for currency, sum := range byCurrency {
			avgs[date][currency] = sum / float64(counts[date][currency])
		}
	}
	return avgs
}

func distinctDatesSorted(avgs map[string]map[string]float64) []string {
	dates := make([]string, 0, len(avgs))
	for date := range avgs {
		dates = append(dates, date)
	}
	// ISO dates sort chronologically as strings.
	sort.Strings(dates)
	return dates
}

func topMovers(records []models.RateRecord) ([]models.Mover, error) {
	avgs := averageByDateCurrency(records)
	dates := distinctDatesSorted(avgs)
	if len(dates) < 2 {
		return nil, custom_err.ErrInsufficientHistory
	}

	latest := avgs[dates[len(dates)-1]]
	prev := avgs[dates[len(dates)-2]]

	movers := make([]models.Mover, 0, len(latest))
	for currency, rate := range latest {
		prevRate, ok := prev[currency]
		if !ok || prevRate == 0 {
			continue
		}
		movers = append(movers, models.Mover{
			Currency:     currency,
			CurrentRate:  rate,
			PreviousRate: prevRate,
			ChangePct:    (rate - prevRate) / prevRate * 100,
		})
	}

	sort.Slice(movers, func(i, j int) bool {
		ai, aj := math.Abs(movers[i].ChangePct), math.Abs(movers[j].ChangePct)
		if ai != aj {
			return ai > aj
		}
		return movers[i].Currency < movers[j].Currency
	})

	if len(movers) > topMoversLimit {
		movers = movers[:topMoversLimit]
	}
	return movers, nil
}

func trendSeries(records []models.RateRecord, currencies []string) []models.TrendPoint {
	wanted := make(map[string]bool, len(currencies))
	for _, c := range currencies {
		wanted[strings.ToUpper(strings.TrimSpace(c))] = true
	}

	avgs := averageByDateCurrency(records)
	points := []models.TrendPoint{}
	for _, date := range distinctDatesSorted(avgs) {
		byCurrency := avgs[date]

		codes := make([]string, 0, len(byCurrency))
		for currency := range byCurrency {
			if wanted[currency] {
				codes = append(codes, currency)
			}
		}
		sort.Strings(codes)

		for _, currency := range codes {
			points = append(points, models.TrendPoint{
				Date:     date,
				Currency: currency,
				Rate:     byCurrency[currency],
			})
		}
	}
	return points
}

func latestRateFor(records []models.RateRecord, currency string) (models.RateRecord, bool) {
	var latest models.RateRecord
	found := false
	for _, r := range records {
		if r.Currency != currency {
			continue
		}
		if !found || r.FetchedAt.After(latest.FetchedAt) {
			latest = r
			found = true
		}
	}
	return latest, found
}

func latestDateForBase(records []models.RateRecord, base string) string {
	date := ""
	for _, r := range records {
		if r.Base == base && r.Date > date {
			date = r.Date
		}
	}
	return date
}
