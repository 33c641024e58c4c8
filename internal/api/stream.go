package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/partsflow/demandcast/internal/contracts"
	"github.com/partsflow/demandcast/pkg/logger"
)

const writeWait = 10 * time.Second

// AlertStream fans completed-run alerts out to websocket subscribers.
// SSOT: live alert delivery goes through this hub only.
type AlertStream struct {
	upgrader websocket.Upgrader
	logger   *logger.Logger

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

// AlertEvent is the wire format pushed to subscribers.
type AlertEvent struct {
	RunID  string            `json:"run_id"`
	Alerts []contracts.Alert `json:"alerts"`
}

// NewAlertStream creates an alert stream hub.
func NewAlertStream(log *logger.Logger) *AlertStream {
	return &AlertStream{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		logger:  log.WithField("component", "alert_stream"),
		clients: make(map[*websocket.Conn]struct{}),
	}
}

// HandleWS upgrades the connection and registers it for alert events
// GET /ws/alerts
func (s *AlertStream) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.WithError(err).Warn("Websocket upgrade failed")
		return
	}

	s.mu.Lock()
	s.clients[conn] = struct{}{}
	count := len(s.clients)
	s.mu.Unlock()

	s.logger.WithField("clients", count).Debug("Subscriber connected")

	// Drain reads until the peer disconnects.
	go func() {
		defer s.remove(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// Broadcast sends a run's alerts to every connected subscriber. Clients that
// fail the write are dropped.
func (s *AlertStream) Broadcast(runID string, alerts []contracts.Alert) {
	event := AlertEvent{RunID: runID, Alerts: alerts}

	s.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(s.clients))
	for conn := range s.clients {
		conns = append(conns, conn)
	}
	s.mu.Unlock()

	for _, conn := range conns {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(event); err != nil {
			s.logger.WithError(err).Debug("Dropping dead subscriber")
			s.remove(conn)
		}
	}
}

// Close disconnects every subscriber.
func (s *AlertStream) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.clients {
		conn.Close()
		delete(s.clients, conn)
	}
}

func (s *AlertStream) remove(conn *websocket.Conn) {
	s.mu.Lock()
	if _, ok := s.clients[conn]; ok {
		conn.Close()
		delete(s.clients, conn)
	}
	s.mu.Unlock()
}
