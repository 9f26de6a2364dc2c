package telemetry

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	wsWriteWait      = 10 * time.Second
	wsMaxMessageSize = 512
)

// ServeWS upgrades the request to a WebSocket and streams events to it as
// JSON text frames: {"id":1,"event":"sensorUpdated","data":{...}}.
// Inbound messages are read and discarded; the read side only exists to
// notice the peer going away and to process pongs.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		h.logger.Debug().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := h.Subscribe("websocket")
	go h.wsReadPump(conn, client)
	h.wsWritePump(conn, client)
}

func (h *Hub) pongWait() time.Duration {
	return 2 * h.config.HeartbeatInterval
}

// wsReadPump runs until the peer closes or stops answering pings.
func (h *Hub) wsReadPump(conn *websocket.Conn, client *Client) {
	defer func() {
		h.Unsubscribe(client.ID)
		_ = conn.Close()
	}()

	conn.SetReadLimit(wsMaxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(h.pongWait()))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(h.pongWait()))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug().Err(err).Str("client", client.ID).Msg("websocket read failed")
			}
			return
		}
	}
}

// wsWritePump owns all writes to conn. It exits when the client is
// unsubscribed (events channel closed) or a write fails.
func (h *Hub) wsWritePump(conn *websocket.Conn, client *Client) {
	ticker := time.NewTicker(h.config.HeartbeatInterval)
	defer func() {
		ticker.Stop()
		h.Unsubscribe(client.ID)
		_ = conn.Close()
	}()

	for {
		select {
		case event, ok := <-client.Events():
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}
			if err := conn.WriteJSON(event); err != nil {
				h.logger.Debug().Err(err).Str("client", client.ID).Msg("websocket write failed")
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
