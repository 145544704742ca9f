package ws

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/draftworks/batchd/internal/logging"
	"github.com/draftworks/batchd/internal/logstream"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins in dev
	},
}

// clientBuffer bounds the per-connection send queue. A client that falls
// this far behind starts losing events rather than stalling the hub.
const clientBuffer = 64

// pingInterval keeps idle connections alive through proxies.
const pingInterval = 30 * time.Second

// Hub fans log events out to connected WebSocket clients. It is one of the
// aggregator's sinks; Consume never blocks on a slow client.
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]struct{}
	closed  bool

	logger  *logging.Logger
	onCount func(delta int)
}

type client struct {
	conn *websocket.Conn
	send chan logstream.Event
}

// NewHub creates a hub. onCount, if non-nil, is called with +1/-1 as
// clients attach and detach.
func NewHub(logger *logging.Logger, onCount func(delta int)) *Hub {
	return &Hub{
		clients: make(map[*client]struct{}),
		logger:  logger,
		onCount: onCount,
	}
}

// HandleConnection upgrades the request and streams log events to the
// client until it disconnects.
func (h *Hub) HandleConnection(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	cl := &client{conn: conn, send: make(chan logstream.Event, clientBuffer)}
	if !h.register(cl) {
		conn.Close()
		return
	}

	go h.writePump(cl)
	h.readPump(cl)
}

// Consume implements logstream.Sink.
func (h *Hub) Consume(event logstream.Event) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for cl := range h.clients {
		select {
		case cl.send <- event:
		default:
			// Slow client; drop the event for it.
		}
	}
	return nil
}

// Close implements logstream.Sink. It disconnects every client and rejects
// new ones.
func (h *Hub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true
	for cl := range h.clients {
		close(cl.send)
		delete(h.clients, cl)
		h.count(-1)
	}
	return nil
}

// Clients returns the number of attached clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) register(cl *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[cl] = struct{}{}
	h.count(+1)
	return true
}

func (h *Hub) unregister(cl *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[cl]; !ok {
		return
	}
	delete(h.clients, cl)
	close(cl.send)
	h.count(-1)
}

// count assumes h.mu is held.
func (h *Hub) count(delta int) {
	if h.onCount != nil {
		h.onCount(delta)
	}
}

// writePump serializes events onto the connection, interleaving pings. It
// exits when the send channel closes, taking the connection down with it.
func (h *Hub) writePump(cl *client) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	defer cl.conn.Close()
	for {
		select {
		case event, ok := <-cl.send:
			if !ok {
				return
			}
			if err := cl.conn.WriteJSON(event); err != nil {
				h.unregister(cl)
				return
			}
		case <-ticker.C:
			if err := cl.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.unregister(cl)
				return
			}
		}
	}
}

// readPump discards inbound frames; the stream is one-way. It unblocks on
// disconnect, which is the only reason to read at all.
func (h *Hub) readPump(cl *client) {
	defer h.unregister(cl)
	for {
		if _, _, err := cl.conn.ReadMessage(); err != nil {
			return
		}
	}
}
