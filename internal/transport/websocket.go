// SPDX-License-Identifier: MIT
package transport

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	applog "synesthesia/internal/log"
)

// Minimum time between broadcasts. Frames arriving faster than this are
// dropped so slow clients never back up the processing loop.
const minSendInterval = 33 * time.Millisecond

// Monitor broadcasts per-frame analysis summaries to WebSocket clients
// connected on /monitor. It is an observation channel only; the session
// runs identically with zero clients connected.
type Monitor struct {
	clients   map[*websocket.Conn]bool
	clientsMu sync.Mutex
	upgrader  websocket.Upgrader
	server    *http.Server

	rateMu   sync.Mutex
	lastSend time.Time
}

// NewMonitor creates a monitor and starts its HTTP server on the given
// port (e.g. "8080"). The server runs until Close is called.
func NewMonitor(port string) *Monitor {
	m := &Monitor{
		clients: make(map[*websocket.Conn]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // Local monitoring tool, any origin is fine.
			},
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/monitor", m.handleWebSocket)
	m.server = &http.Server{
		Addr:    ":" + port,
		Handler: mux,
	}

	go func() {
		applog.Infof("Monitor: WebSocket server listening on port %s", port)
		if err := m.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			applog.Errorf("Monitor: Server error: %v", err)
		}
	}()

	return m
}

// handleWebSocket upgrades HTTP connections and registers the client.
// A per-connection goroutine reads until the peer disconnects, then
// deregisters it.
func (m *Monitor) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := m.upgrader.Upgrade(w, r, nil)
	if err != nil {
		applog.Warnf("Monitor: Upgrade error: %v", err)
		return
	}

	m.clientsMu.Lock()
	m.clients[conn] = true
	total := len(m.clients)
	m.clientsMu.Unlock()
	applog.Infof("Monitor: Client connected, total: %d", total)

	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				m.clientsMu.Lock()
				delete(m.clients, conn)
				total := len(m.clients)
				m.clientsMu.Unlock()
				conn.Close()
				applog.Infof("Monitor: Client disconnected, total: %d", total)
				return
			}
		}
	}()
}

// ClientCount reports the number of currently connected clients.
func (m *Monitor) ClientCount() int {
	m.clientsMu.Lock()
	defer m.clientsMu.Unlock()
	return len(m.clients)
}

// Send broadcasts data as JSON to all connected clients. Calls arriving
// within minSendInterval of the previous broadcast are dropped. Clients
// that fail a write are disconnected.
func (m *Monitor) Send(data any) error {
	m.rateMu.Lock()
	now := time.Now()
	if now.Sub(m.lastSend) < minSendInterval {
		m.rateMu.Unlock()
		return nil
	}
	m.lastSend = now
	m.rateMu.Unlock()

	m.clientsMu.Lock()
	defer m.clientsMu.Unlock()
	for client := range m.clients {
		if err := client.WriteJSON(data); err != nil {
			applog.Debugf("Monitor: Dropping client after write error: %v", err)
			client.Close()
			delete(m.clients, client)
		}
	}
	return nil
}

// Close disconnects all clients and shuts down the HTTP server.
func (m *Monitor) Close() error {
	applog.Infof("Monitor: Closing server")

	m.clientsMu.Lock()
	for client := range m.clients {
		client.Close()
	}
	m.clients = make(map[*websocket.Conn]bool)
	m.clientsMu.Unlock()

	if m.server != nil {
		return m.server.Close()
	}
	return nil
}

var _ Transport = (*Monitor)(nil)
