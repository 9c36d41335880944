package analytics

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/inesruizblach/RateFlow/internal/custom_err"
	"github.com/inesruizblach/RateFlow/internal/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func record(currency string, rate float64, date string, fetchedAt time.Time) models.RateRecord {
	return models.RateRecord{
		Currency:  currency,
		Rate:      rate,
		Base:      "USD",
		Date:      date,
		FetchedAt: fetchedAt,
	}
}

func TestTopMovers_RanksByAbsoluteChange(t *testing.T) {
	store := new(MockStorage)
	day1 := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	day2 := time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC)

	store.On("ReadAll", mock.Anything).Return([]models.RateRecord{
		record("EUR", 0.90, "2024-01-01", day1),
		record("GBP", 0.80, "2024-01-01", day1),
		record("EUR", 0.92, "2024-01-02", day2),
		record("GBP", 0.79, "2024-01-02", day2),
	}, nil)

	service := NewService(store, "USD", testLogger())

	movers, err := service.TopMovers(context.Background())

	require.NoError(t, err)
	require.Len(t, movers, 2)

	// EUR +2.22% outranks GBP -1.25% by absolute change.
	assert.Equal(t, "EUR", movers[0].Currency)
	assert.InDelta(t, 2.22, movers[0].ChangePct, 0.01)
	assert.Equal(t, "GBP", movers[1].Currency)
	assert.InDelta(t, -1.25, movers[1].ChangePct, 0.01)
}

func TestTopMovers_LimitsToFive(t *testing.T) {
	store := new(MockStorage)
	day1 := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	day2 := time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC)

	records := []models.RateRecord{}
	currencies := []string{"EUR", "GBP", "JPY", "CHF", "AUD", "CAD", "SEK"}
	for i, c := range currencies {
		rate := 1.0 + float64(i)
		records = append(records,
			record(c, rate, "2024-01-01", day1),
			record(c, rate*(1.01+float64(i)*0.01), "2024-01-02", day2),
		)
	}
	store.On("ReadAll", mock.Anything).Return(records, nil)

	service := NewService(store, "USD", testLogger())

	movers, err := service.TopMovers(context.Background())

	require.NoError(t, err)
	assert.Len(t, movers, 5)
}

func TestTopMovers_SingleDateIsInsufficientHistory(t *testing.T) {
	store := new(MockStorage)
	day1 := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

	store.On("ReadAll", mock.Anything).Return([]models.RateRecord{
		record("EUR", 0.90, "2024-01-01", day1),
	}, nil)

	service := NewService(store, "USD", testLogger())

	_, err := service.TopMovers(context.Background())

	assert.ErrorIs(t, err, custom_err.ErrInsufficientHistory)
}

func TestTopMovers_EmptyStoreIsInsufficientHistory(t *testing.T) {
	store := new(MockStorage)
	store.On("ReadAll", mock.Anything).Return([]models.RateRecord{}, nil)

	service := NewService(store, "USD", testLogger())

	_, err := service.TopMovers(context.Background())

	assert.ErrorIs(t, err, custom_err.ErrInsufficientHistory)
}

func TestTopMovers_SameDayDuplicatesAreAveragedBeforeJoining(t *testing.T) {
	store := new(MockStorage)
	day1 := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	day2a := time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC)
	day2b := time.Date(2024, 1, 2, 15, 0, 0, 0, time.UTC)

	store.On("ReadAll", mock.Anything).Return([]models.RateRecord{
		record("EUR", 1.00, "2024-01-01", day1),
		// Two fetches on the second day average out to 1.10.
		record("EUR", 1.05, "2024-01-02", day2a),
		record("EUR", 1.15, "2024-01-02", day2b),
	}, nil)

	service := NewService(store, "USD", testLogger())

	movers, err := service.TopMovers(context.Background())

	require.NoError(t, err)
	require.Len(t, movers, 1)
	assert.InDelta(t, 1.10, movers[0].CurrentRate, 1e-9)
	assert.InDelta(t, 10.0, movers[0].ChangePct, 1e-9)
}

func TestTrend_AveragesAndFilters(t *testing.T) {
	store := new(MockStorage)
	day1 := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	day1b := time.Date(2024, 1, 1, 15, 0, 0, 0, time.UTC)
	day2 := time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC)

	store.On("ReadAll", mock.Anything).Return([]models.RateRecord{
		record("EUR", 0.90, "2024-01-01", day1),
		record("EUR", 0.94, "2024-01-01", day1b),
		record("JPY", 150.0, "2024-01-01", day1),
		record("EUR", 0.92, "2024-01-02", day2),
	}, nil)

	service := NewService(store, "USD", testLogger())

	points, err := service.Trend(context.Background(), []string{"eur"})

	require.NoError(t, err)
	require.Len(t, points, 2)

	assert.Equal(t, models.TrendPoint{Date: "2024-01-01", Currency: "EUR", Rate: 0.92}, points[0])
	assert.Equal(t, models.TrendPoint{Date: "2024-01-02", Currency: "EUR", Rate: 0.92}, points[1])
}

func TestConvert_UsesMostRecentlyFetchedRate(t *testing.T) {
	store := new(MockStorage)
	older := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	newer := time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC)

	store.On("ReadAll", mock.Anything).Return([]models.RateRecord{
		record("JPY", 148.0, "2024-01-01", older),
		record("JPY", 150.0, "2024-01-02", newer),
	}, nil)

	service := NewService(store, "USD", testLogger())

	result, err := service.Convert(context.Background(), 100, "JPY")

	require.NoError(t, err)
	assert.Equal(t, 150.0, result.Rate)
	assert.Equal(t, 15000.0, result.Converted)
	assert.Equal(t, "JPY", result.TargetCurrency)
	assert.Equal(t, "USD", result.Base)
}

func TestConvert_UnknownCurrency(t *testing.T) {
	store := new(MockStorage)
	store.On("ReadAll", mock.Anything).Return([]models.RateRecord{
		record("EUR", 0.92, "2024-01-02", time.Now().UTC()),
	}, nil)

	service := NewService(store, "USD", testLogger())

	_, err := service.Convert(context.Background(), 100, "XXX")

	assert.ErrorIs(t, err, custom_err.ErrCurrencyNotFound)
}

func TestConvert_EmptyStore(t *testing.T) {
	store := new(MockStorage)
	store.On("ReadAll", mock.Anything).Return([]models.RateRecord{}, nil)

	service := NewService(store, "USD", testLogger())

	_, err := service.Convert(context.Background(), 100, "JPY")

	assert.ErrorIs(t, err, custom_err.ErrNoData)
}

func TestConvert_NegativeAmount(t *testing.T) {
	service := NewService(new(MockStorage), "USD", testLogger())

	_, err := service.Convert(context.Background(), -1, "JPY")

	assert.ErrorIs(t, err, custom_err.ErrInvalidAmount)
}

func TestLatest_ResolvesMostRecentDate(t *testing.T) {
	store := new(MockStorage)
	day1 := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	day2 := time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC)

	store.On("ReadAll", mock.Anything).Return([]models.RateRecord{
		record("EUR", 0.90, "2024-01-01", day1),
		record("EUR", 0.92, "2024-01-02", day2),
	}, nil)
	store.On("LatestSnapshot", mock.Anything, "USD", "2024-01-02").Return([]models.RateRecord{
		record("EUR", 0.92, "2024-01-02", day2),
	}, nil)

	service := NewService(store, "USD", testLogger())

	latest, err := service.Latest(context.Background(), "", "")

	require.NoError(t, err)
	assert.Equal(t, "USD", latest.Base)
	assert.Equal(t, "2024-01-02", latest.Date)
	require.Len(t, latest.Rates, 1)
	store.AssertExpectations(t)
}

func TestLatest_ExplicitDateSkipsResolution(t *testing.T) {
	store := new(MockStorage)
	day1 := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

	store.On("LatestSnapshot", mock.Anything, "EUR", "2024-01-01").Return([]models.RateRecord{
		{Currency: "USD", Rate: 1.08, Base: "EUR", Date: "2024-01-01", FetchedAt: day1},
	}, nil)

	service := NewService(store, "USD", testLogger())

	latest, err := service.Latest(context.Background(), "EUR", "2024-01-01")

	require.NoError(t, err)
	assert.Equal(t, "EUR", latest.Base)
	store.AssertNotCalled(t, "ReadAll", mock.Anything)
}

func TestLatest_EmptyStore(t *testing.T) {
	store := new(MockStorage)
	store.On("ReadAll", mock.Anything).Return([]models.RateRecord{}, nil)

	service := NewService(store, "USD", testLogger())

	_, err := service.Latest(context.Background(), "", "")

	assert.ErrorIs(t, err, custom_err.ErrNoData)
}
