package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5"

	"github.com/partsflow/demandcast/internal/contracts"
	"github.com/partsflow/demandcast/internal/pipeline"
	"github.com/partsflow/demandcast/internal/store"
	"github.com/partsflow/demandcast/pkg/logger"
)

// AlertBroadcaster pushes a completed run's alerts to live subscribers.
type AlertBroadcaster interface {
	Broadcast(runID string, alerts []contracts.Alert)
}

// RunHandler handles forecast-run API endpoints
// SSOT: run endpoints live only on this struct.
type RunHandler struct {
	orchestrator *pipeline.Orchestrator
	runs         *store.RunRepository
	forecasts    *store.ForecastRepository
	alerts       *store.AlertRepository
	broadcaster  AlertBroadcaster
	defaultCodes []string
	logger       *logger.Logger
}

// NewRunHandler creates a new run handler. Repositories may be nil when the
// database is not configured; triggered runs then skip persistence, and the
// read endpoints return 503.
func NewRunHandler(
	orchestrator *pipeline.Orchestrator,
	runs *store.RunRepository,
	forecasts *store.ForecastRepository,
	alerts *store.AlertRepository,
	broadcaster AlertBroadcaster,
	defaultCodes []string,
	log *logger.Logger,
) *RunHandler {
	return &RunHandler{
		orchestrator: orchestrator,
		runs:         runs,
		forecasts:    forecasts,
		alerts:       alerts,
		broadcaster:  broadcaster,
		defaultCodes: defaultCodes,
		logger:       log,
	}
}

// TriggerRunRequest is the POST /api/runs body.
type TriggerRunRequest struct {
	ProductCodes []string `json:"product_codes"`
}

// TriggerRun executes the pipeline synchronously and returns the run state.
// POST /api/runs
func (h *RunHandler) TriggerRun(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req TriggerRunRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	codes := req.ProductCodes
	if len(codes) == 0 {
		codes = h.defaultCodes
	}
	if len(codes) == 0 {
		respondError(w, http.StatusBadRequest, "product_codes is required")
		return
	}

	state := h.orchestrator.Execute(ctx, codes)
	h.persist(ctx, state)

	if h.broadcaster != nil && len(state.Alerts) > 0 {
		h.broadcaster.Broadcast(state.RunID, state.Alerts)
	}

	status := http.StatusOK
	if state.Failed() {
		status = http.StatusUnprocessableEntity
	}
	respondJSON(w, status, state)
}

// GetRun returns one persisted run snapshot
// GET /api/runs/:id
func (h *RunHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	if h.runs == nil {
		respondError(w, http.StatusServiceUnavailable, "persistence is not configured")
		return
	}

	runID := mux.Vars(r)["id"]
	state, err := h.runs.GetRun(r.Context(), runID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			respondError(w, http.StatusNotFound, "run not found")
			return
		}
		h.logger.WithError(err).WithField("run_id", runID).Error("Failed to get run")
		respondError(w, http.StatusInternalServerError, "failed to get run")
		return
	}

	respondJSON(w, http.StatusOK, state)
}

// ListRuns returns recent runs, newest first
// GET /api/runs?limit=20
func (h *RunHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	if h.runs == nil {
		respondError(w, http.StatusServiceUnavailable, "persistence is not configured")
		return
	}

	limit := queryInt(r, "limit", 20)
	runs, err := h.runs.ListRuns(r.Context(), limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list runs")
		respondError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"runs": runs,
	})
}

// GetRunForecasts returns every forecast of one run
// GET /api/runs/:id/forecasts
func (h *RunHandler) GetRunForecasts(w http.ResponseWriter, r *http.Request) {
	if h.forecasts == nil {
		respondError(w, http.StatusServiceUnavailable, "persistence is not configured")
		return
	}

	runID := mux.Vars(r)["id"]
	forecasts, err := h.forecasts.GetForecasts(r.Context(), runID)
	if err != nil {
		h.logger.WithError(err).WithField("run_id", runID).Error("Failed to get forecasts")
		respondError(w, http.StatusInternalServerError, "failed to get forecasts")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"run_id":    runID,
		"forecasts": forecasts,
	})
}

// GetRunAlerts returns every alert of one run in priority order
// GET /api/runs/:id/alerts
func (h *RunHandler) GetRunAlerts(w http.ResponseWriter, r *http.Request) {
	if h.alerts == nil {
		respondError(w, http.StatusServiceUnavailable, "persistence is not configured")
		return
	}

	runID := mux.Vars(r)["id"]
	alerts, err := h.alerts.ListRunAlerts(r.Context(), runID)
	if err != nil {
		h.logger.WithError(err).WithField("run_id", runID).Error("Failed to get run alerts")
		respondError(w, http.StatusInternalServerError, "failed to get alerts")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"run_id": runID,
		"alerts": alerts,
	})
}

func (h *RunHandler) persist(ctx context.Context, state *contracts.RunState) {
	if h.runs == nil {
		return
	}

	if err := h.runs.SaveRun(ctx, state); err != nil {
		h.logger.WithError(err).WithField("run_id", state.RunID).Error("Failed to save run")
		return
	}
	if err := h.forecasts.SaveForecasts(ctx, state.RunID, pipeline.SortedForecasts(state)); err != nil {
		h.logger.WithError(err).WithField("run_id", state.RunID).Error("Failed to save forecasts")
	}
	if err := h.alerts.SaveAlerts(ctx, state.RunID, state.Alerts); err != nil {
		h.logger.WithError(err).WithField("run_id", state.RunID).Error("Failed to save alerts")
	}
}

// queryInt parses an integer query parameter with a default.
func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	if v, err := strconv.Atoi(raw); err == nil && v > 0 {
		return v
	}
	return fallback
}
