package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mreyes/confluence/internal/contracts"
	"github.com/mreyes/confluence/pkg/logger"
)

const writeWait = 10 * time.Second

// Hub pushes a summary of each completed fusion run to connected
// websocket clients. Implements pipeline.Notifier.
type Hub struct {
	upgrader websocket.Upgrader
	logger   *logger.Logger

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

// NewHub creates a new run-stream hub.
func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger:  log.WithField("module", "stream"),
		clients: make(map[*websocket.Conn]struct{}),
	}
}

// HandleWS upgrades the connection and registers the client.
// GET /ws
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("Websocket upgrade failed")
		return
	}

	h.mu.Lock()
	h.clients[conn] = struct{}{}
	count := len(h.clients)
	h.mu.Unlock()
	h.logger.WithField("clients", count).Debug("Websocket client connected")

	// Reader loop exists only to detect disconnect.
	go func() {
		defer h.drop(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// runSummary is the wire format pushed per run.
type runSummary struct {
	GeneratedAt      time.Time `json:"generated_at"`
	Degraded         bool      `json:"degraded"`
	ClustersAnalyzed int       `json:"clusters_analyzed"`
	TierCounts       [5]int    `json:"tier_counts"`
	TopTicker        string    `json:"top_ticker,omitempty"`
}

// BroadcastRun pushes the run summary to every connected client.
// Clients that fail the write are dropped.
func (h *Hub) BroadcastRun(result *contracts.TieredResult) {
	summary := runSummary{
		GeneratedAt:      result.GeneratedAt,
		Degraded:         result.Degraded,
		ClustersAnalyzed: result.ClustersAnalyzed,
		TierCounts: [5]int{
			len(result.Tier0), len(result.Tier1), len(result.Tier2),
			len(result.Tier3), len(result.Tier4),
		},
	}
	if len(result.Tier1) > 0 {
		summary.TopTicker = result.Tier1[0].Ticker
	} else if len(result.Tier2) > 0 {
		summary.TopTicker = result.Tier2[0].Ticker
	}

	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for conn := range h.clients {
		conns = append(conns, conn)
	}
	h.mu.Unlock()

	for _, conn := range conns {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(summary); err != nil {
			h.logger.WithError(err).Debug("Dropping websocket client")
			h.drop(conn)
		}
	}
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		conn.Close()
	}
	h.clients = make(map[*websocket.Conn]struct{})
}

func (h *Hub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
	conn.Close()
}
