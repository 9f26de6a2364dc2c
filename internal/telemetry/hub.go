//
//
package telemetry

import (
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/kmitl-iot/ingest/internal/config"
)

// Event is one broadcast notification.
type Event struct {
	ID   int64  `json:"id,omitempty"`
	Type string `json:"event"`
	Data any    `json:"data"`
}

// State is a subscriber connection state. Connected is the only
// non-terminal state; there is no reconnect or resume.
type State int32

const (
	StateConnected State = iota
	StateDisconnected
)

func (s State) String() string {
	if s == StateConnected {
		return "connected"
	}
	return "disconnected"
}

// Client is a subscriber handle returned by Subscribe.
type Client struct {
	ID          string
	Transport   string
	ConnectedAt time.Time

	events chan Event
	state  atomic.Int32
	once   sync.Once
}

// Events delivers queued events. The channel is closed on disconnect.
func (c *Client) Events() <-chan Event {
	return c.events
}

// State reports whether the client is still registered.
func (c *Client) State() State {
	return State(c.state.Load())
}

// disconnect moves the client to its terminal state. Callers must hold the
// hub write lock, or own the only reference, so no Publish is mid-send.
func (c *Client) disconnect() {
	c.once.Do(func() {
		c.state.Store(int32(StateDisconnected))
		close(c.events)
	})
}

// Stats is a point-in-time snapshot of hub counters.
type Stats struct {
	Subscribers int    `json:"subscribers"`
	Published   uint64 `json:"published"`
	Dropped     uint64 `json:"dropped"`
}

// Hub manages subscriber registration and broadcast.
//
// Publish holds the read lock for the whole fan-out and only ever does
// non-blocking sends; Unsubscribe and Stop take the write lock before
// closing a client's channel, so a send never races a close.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	stopped bool

	config   *config.Config
	logger   zerolog.Logger
	upgrader websocket.Upgrader

	nextEventID atomic.Int64
	published   atomic.Uint64
	dropped     atomic.Uint64
}

// NewHub creates a hub using the bus settings from cfg.
func NewHub(cfg *config.Config, logger zerolog.Logger) *Hub {
	h := &Hub{
		clients: make(map[string]*Client),
		config:  cfg,
		logger:  logger.With().Str("component", "telemetry").Logger(),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// Subscribe registers a new connected client. After Stop the returned
// client is already disconnected.
func (h *Hub) Subscribe(transport string) *Client {
	client := &Client{
		ID:          uuid.NewString(),
		Transport:   transport,
		ConnectedAt: time.Now(),
		events:      make(chan Event, h.config.ClientBuffer),
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.stopped {
		client.disconnect()
		return client
	}
	h.clients[client.ID] = client

	h.logger.Info().
		Str("client", client.ID).
		Str("transport", transport).
		Int("subscribers", len(h.clients)).
		Msg("A client connected")
	return client
}

// Unsubscribe removes a client and closes its event channel. Unknown or
// already removed IDs are ignored.
func (h *Hub) Unsubscribe(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	client, exists := h.clients[clientID]
	if !exists {
		return
	}
	delete(h.clients, clientID)
	client.disconnect()

	h.logger.Info().
		Str("client", clientID).
		Str("transport", client.Transport).
		Int("subscribers", len(h.clients)).
		Msg("A client disconnected")
}

// Publish queues an event for every currently connected client and returns
// how many clients accepted it. Clients with a full queue miss the event.
func (h *Hub) Publish(eventType string, data any) int {
	event := Event{
		ID:   h.nextEventID.Add(1),
		Type: eventType,
		Data: data,
	}
	h.published.Add(1)

	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for _, client := range h.clients {
		select {
		case client.events <- event:
			delivered++
		default:
			h.dropped.Add(1)
			h.logger.Warn().
				Str("client", client.ID).
				Str("event", eventType).
				Msg("subscriber queue full, event dropped")
		}
	}
	return delivered
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Stats returns the current counters.
func (h *Hub) Stats() Stats {
	return Stats{
		Subscribers: h.ClientCount(),
		Published:   h.published.Load(),
		Dropped:     h.dropped.Load(),
	}
}

// Stop disconnects every client. Later subscriptions are refused.
func (h *Hub) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.stopped {
		return
	}
	h.stopped = true
	for id, client := range h.clients {
		client.disconnect()
		delete(h.clients, id)
	}
}

// checkOrigin accepts any origin when "*" is configured, and requests
// without an Origin header (non-browser clients).
func (h *Hub) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range h.config.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}
