package handlers

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5"

	"github.com/partsflow/demandcast/internal/store"
	"github.com/partsflow/demandcast/pkg/logger"
)

// ForecastHandler handles per-SKU forecast lookups
type ForecastHandler struct {
	forecasts *store.ForecastRepository
	logger    *logger.Logger
}

// NewForecastHandler creates a new forecast handler
func NewForecastHandler(forecasts *store.ForecastRepository, log *logger.Logger) *ForecastHandler {
	return &ForecastHandler{
		forecasts: forecasts,
		logger:    log,
	}
}

// GetLatest returns the newest forecast for one SKU across runs
// GET /api/forecasts/:code
func (h *ForecastHandler) GetLatest(w http.ResponseWriter, r *http.Request) {
	if h.forecasts == nil {
		respondError(w, http.StatusServiceUnavailable, "persistence is not configured")
		return
	}

	code := mux.Vars(r)["code"]
	if code == "" {
		respondError(w, http.StatusBadRequest, "product code is required")
		return
	}

	forecast, err := h.forecasts.GetLatestForecast(r.Context(), code)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			respondError(w, http.StatusNotFound, "no forecast found")
			return
		}
		h.logger.WithError(err).WithField("product_code", code).Error("Failed to get forecast")
		respondError(w, http.StatusInternalServerError, "failed to get forecast")
		return
	}

	respondJSON(w, http.StatusOK, forecast)
}
