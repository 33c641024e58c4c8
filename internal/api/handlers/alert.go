package handlers

import (
	"net/http"

	"github.com/partsflow/demandcast/internal/store"
	"github.com/partsflow/demandcast/pkg/logger"
)

// AlertHandler handles alert listing
type AlertHandler struct {
	alerts *store.AlertRepository
	logger *logger.Logger
}

// NewAlertHandler creates a new alert handler
func NewAlertHandler(alerts *store.AlertRepository, log *logger.Logger) *AlertHandler {
	return &AlertHandler{
		alerts: alerts,
		logger: log,
	}
}

// ListAlerts returns recent alerts, highest priority first
// GET /api/alerts?severity=high&type=capacity_warning&limit=50
func (h *AlertHandler) ListAlerts(w http.ResponseWriter, r *http.Request) {
	severity := r.URL.Query().Get("severity")
	switch severity {
	case "", "high", "medium", "low":
	default:
		respondError(w, http.StatusBadRequest, "invalid severity (valid: high, medium, low)")
		return
	}

	if h.alerts == nil {
		respondError(w, http.StatusServiceUnavailable, "persistence is not configured")
		return
	}

	alertType := r.URL.Query().Get("type")
	limit := queryInt(r, "limit", 50)
	alerts, err := h.alerts.ListAlerts(r.Context(), severity, alertType, limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list alerts")
		respondError(w, http.StatusInternalServerError, "failed to list alerts")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"alerts": alerts,
	})
}
