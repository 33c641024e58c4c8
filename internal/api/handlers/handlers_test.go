package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/partsflow/demandcast/pkg/config"
	"github.com/partsflow/demandcast/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(&config.Config{Env: "development", LogLevel: "error", LogFormat: "json"})
}

func TestTriggerRunRejectsEmptyCodes(t *testing.T) {
	h := NewRunHandler(nil, nil, nil, nil, nil, nil, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/runs", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()

	h.TriggerRun(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "product_codes")
}

func TestTriggerRunRejectsBadBody(t *testing.T) {
	h := NewRunHandler(nil, nil, nil, nil, nil, nil, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/runs", strings.NewReader(`{not json`))
	rec := httptest.NewRecorder()

	h.TriggerRun(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReadEndpointsWithoutPersistence(t *testing.T) {
	runHandler := NewRunHandler(nil, nil, nil, nil, nil, nil, testLogger())
	forecastHandler := NewForecastHandler(nil, testLogger())
	alertHandler := NewAlertHandler(nil, testLogger())

	cases := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"list runs", runHandler.ListRuns},
		{"get run", runHandler.GetRun},
		{"run forecasts", runHandler.GetRunForecasts},
		{"run alerts", runHandler.GetRunAlerts},
		{"latest forecast", forecastHandler.GetLatest},
		{"list alerts", alertHandler.ListAlerts},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/x", nil)
			rec := httptest.NewRecorder()

			tc.handler(rec, req)

			assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		})
	}
}

func TestListAlertsRejectsUnknownSeverity(t *testing.T) {
	h := NewAlertHandler(nil, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/alerts?severity=critical", nil)
	rec := httptest.NewRecorder()

	h.ListAlerts(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestQueryInt(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/x?limit=7&bad=abc&neg=-2", nil)

	assert.Equal(t, 7, queryInt(req, "limit", 20))
	assert.Equal(t, 20, queryInt(req, "bad", 20))
	assert.Equal(t, 20, queryInt(req, "neg", 20))
	assert.Equal(t, 20, queryInt(req, "missing", 20))
}
