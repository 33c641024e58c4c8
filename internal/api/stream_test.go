package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/partsflow/demandcast/internal/contracts"
	"github.com/partsflow/demandcast/pkg/config"
	"github.com/partsflow/demandcast/pkg/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	return logger.New(&config.Config{Env: "development", LogLevel: "error", LogFormat: "json"})
}

func TestAlertStreamBroadcast(t *testing.T) {
	stream := NewAlertStream(testLogger(t))
	defer stream.Close()

	srv := httptest.NewServer(http.HandlerFunc(stream.HandleWS))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	// Registration happens during the upgrade, before Dial returns.
	stream.Broadcast("run-1", []contracts.Alert{
		{Type: contracts.AlertCapacityWarning, Severity: contracts.SeverityHigh, Message: "over capacity"},
	})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var event AlertEvent
	require.NoError(t, conn.ReadJSON(&event))

	assert.Equal(t, "run-1", event.RunID)
	require.Len(t, event.Alerts, 1)
	assert.Equal(t, contracts.AlertCapacityWarning, event.Alerts[0].Type)
}

func TestAlertStreamDropsDeadClients(t *testing.T) {
	stream := NewAlertStream(testLogger(t))
	defer stream.Close()

	srv := httptest.NewServer(http.HandlerFunc(stream.HandleWS))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	conn.Close()

	// Give the reader goroutine a moment to notice the close.
	assert.Eventually(t, func() bool {
		stream.mu.Lock()
		defer stream.mu.Unlock()
		return len(stream.clients) == 0
	}, 2*time.Second, 20*time.Millisecond)

	// Broadcasting with no subscribers is a no-op.
	stream.Broadcast("run-2", nil)
}
