package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/inesruizblach/RateFlow/internal/api/middlew"
	"github.com/inesruizblach/RateFlow/internal/custom_err"
	"github.com/inesruizblach/RateFlow/internal/models"
	"github.com/inesruizblach/RateFlow/internal/scheduler"
	"github.com/inesruizblach/RateFlow/pkg/response"
)

type RunHandler struct {
	runner scheduler.Runner
}

func NewRunHandler(runner scheduler.Runner) *RunHandler {
	return &RunHandler{
		runner: runner,
	}
}

// TriggerRun performs a manual ingestion run and reports its outcome
// directly to the caller. A run already in flight yields 409.
func (h *RunHandler) TriggerRun(w http.ResponseWriter, r *http.Request) {
	const op = "handler.TriggerRun"
	log := middlew.GetLogger(r.Context())

	result, err := h.runner.RunOnce(r.Context(), models.TriggerManual)
	if err != nil {
		switch {
		case errors.Is(err, custom_err.ErrRunInProgress):
			response.WriteJSONError(w, log, http.StatusConflict, "run_in_progress", "A run is already in progress")
		case errors.Is(err, custom_err.ErrSourceUnavailable), errors.Is(err, custom_err.ErrMalformedResponse):
			log.Error("manual run failed at the source", slog.String("op", op), slog.String("error", err.Error()))
			response.WriteJSONError(w, log, http.StatusBadGateway, "source_error", result.Error)
		default:
			log.Error("manual run failed", slog.String("op", op), slog.String("error", err.Error()))
			response.WriteJSONError(w, log, http.StatusInternalServerError, "internal_error", result.Error)
		}
		return
	}

	response.WriteJSONSuccess(w, log, http.StatusOK, result)
}
