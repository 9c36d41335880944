package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/inesruizblach/RateFlow/internal/analytics"
	"github.com/inesruizblach/RateFlow/internal/api/middlew"
	"github.com/inesruizblach/RateFlow/internal/custom_err"
	"github.com/inesruizblach/RateFlow/internal/models"
	"github.com/inesruizblach/RateFlow/pkg/response"
)

type RatesHandler struct {
	service analytics.Analytics
}

func NewRatesHandler(service analytics.Analytics) *RatesHandler {
	return &RatesHandler{
		service: service,
	}
}

// GetLatest returns the snapshot for ?base=&date=. When date is omitted the
// most recent date present for the base is used.
func (h *RatesHandler) GetLatest(w http.ResponseWriter, r *http.Request) {
	const op = "handler.GetLatest"
	log := middlew.GetLogger(r.Context())

	base := r.URL.Query().Get("base")
	date := r.URL.Query().Get("date")

	latest, err := h.service.Latest(r.Context(), base, date)
	if err != nil {
		if errors.Is(err, custom_err.ErrNoData) {
			// Not a fault: no successful run has happened yet.
			response.WriteJSONSuccess(w, log, http.StatusOK, models.LatestRatesResponse{
				Base:  base,
				Rates: []models.RateRecord{},
			})
			return
		}
		log.Error("failed to get latest rates", slog.String("op", op), slog.String("error", err.Error()))
		response.WriteJSONError(w, log, http.StatusInternalServerError, "internal_error", "Failed to retrieve rates")
		return
	}

	response.WriteJSONSuccess(w, log, http.StatusOK, latest)
}

// GetTopMovers returns the top currencies ranked by absolute day-over-day
// change. Insufficient history is a first-class empty state, not an error.
func (h *RatesHandler) GetTopMovers(w http.ResponseWriter, r *http.Request) {
	const op = "handler.GetTopMovers"
	log := middlew.GetLogger(r.Context())

	movers, err := h.service.TopMovers(r.Context())
	if err != nil {
		if errors.Is(err, custom_err.ErrInsufficientHistory) {
			response.WriteJSONSuccess(w, log, http.StatusOK, models.TopMoversResponse{
				Status: models.AnalyticsStatusInsufficientHistory,
				Movers: []models.Mover{},
			})
			return
		}
		log.Error("failed to compute top movers", slog.String("op", op), slog.String("error", err.Error()))
		response.WriteJSONError(w, log, http.StatusInternalServerError, "internal_error", "Failed to compute top movers")
		return
	}

	response.WriteJSONSuccess(w, log, http.StatusOK, models.TopMoversResponse{
		Status: models.AnalyticsStatusOK,
		Movers: movers,
	})
}

// GetTrend returns per-day average rates for ?currencies=EUR,GBP,JPY.
func (h *RatesHandler) GetTrend(w http.ResponseWriter, r *http.Request) {
	const op = "handler.GetTrend"
	log := middlew.GetLogger(r.Context())

	raw := r.URL.Query().Get("currencies")
	if strings.TrimSpace(raw) == "" {
		response.WriteJSONError(w, log, http.StatusBadRequest, "invalid_input", "Query parameter 'currencies' is required")
		return
	}

	currencies := []string{}
	for _, c := range strings.Split(raw, ",") {
		if c = strings.TrimSpace(c); c != "" {
			currencies = append(currencies, c)
		}
	}

	points, err := h.service.Trend(r.Context(), currencies)
	if err != nil {
		log.Error("failed to compute trend", slog.String("op", op), slog.String("error", err.Error()))
		response.WriteJSONError(w, log, http.StatusInternalServerError, "internal_error", "Failed to compute trend")
		return
	}

	status := models.AnalyticsStatusOK
	if len(points) == 0 {
		status = models.AnalyticsStatusNoData
	}

	response.WriteJSONSuccess(w, log, http.StatusOK, models.TrendResponse{
		Status: status,
		Points: points,
	})
}

// Convert converts ?amount= in the base currency into ?to= at the most
// recently fetched rate.
func (h *RatesHandler) Convert(w http.ResponseWriter, r *http.Request) {
	const op = "handler.Convert"
	log := middlew.GetLogger(r.Context())

	amountRaw := r.URL.Query().Get("amount")
	target := r.URL.Query().Get("to")

	amount, err := strconv.ParseFloat(amountRaw, 64)
	if err != nil {
		response.WriteJSONError(w, log, http.StatusBadRequest, "invalid_input", "Query parameter 'amount' must be a number")
		return
	}

	result, err := h.service.Convert(r.Context(), amount, target)
	if err != nil {
		switch {
		case errors.Is(err, custom_err.ErrInvalidAmount):
			response.WriteJSONError(w, log, http.StatusBadRequest, "invalid_amount", "Amount must not be negative")
		case errors.Is(err, custom_err.ErrInvalidCurrency):
			response.WriteJSONError(w, log, http.StatusBadRequest, "invalid_currency", "Query parameter 'to' is required")
		case errors.Is(err, custom_err.ErrCurrencyNotFound):
			response.WriteJSONError(w, log, http.StatusNotFound, "currency_not_found", "No rate ingested for the requested currency")
		case errors.Is(err, custom_err.ErrNoData):
			response.WriteJSONError(w, log, http.StatusNotFound, "no_data", "No data ingested yet, trigger a run first")
		default:
			log.Error("failed to convert", slog.String("op", op), slog.String("error", err.Error()))
			response.WriteJSONError(w, log, http.StatusInternalServerError, "internal_error", "Failed to convert")
		}
		return
	}

	response.WriteJSONSuccess(w, log, http.StatusOK, result)
}
