// Package e2e provides shared helper functions for end-to-end tests.
package e2e

import (
	"bufio"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/gorilla/websocket"
)

// envelope is the {success, data, error} response body.
type envelope struct {
	Success bool           `json:"success"`
	Data    map[string]any `json:"data"`
	Error   string         `json:"error"`
}

type listEnvelope struct {
	Success bool                `json:"success"`
	Data    []map[string]string `json:"data"`
}

// wsFrame is one real-time event as written to WebSocket subscribers.
type wsFrame struct {
	ID    int64             `json:"id"`
	Event string            `json:"event"`
	Data  map[string]string `json:"data"`
}

func newClient(baseURL string) *resty.Client {
	return resty.New().
		SetBaseURL(baseURL).
		SetTimeout(5*time.Second).
		SetHeader("Content-Type", "application/json")
}

// postUpdate sends body to /update/{kind} and decodes the envelope.
func postUpdate(t *testing.T, client *resty.Client, kind string, body any) (*resty.Response, envelope) {
	t.Helper()
	var out envelope
	resp, err := client.R().
		SetBody(body).
		SetResult(&out).
		SetError(&out).
		Post("/update/" + kind)
	if err != nil {
		t.Fatalf("POST /update/%s failed: %v", kind, err)
	}
	return resp, out
}

func listReadings(t *testing.T, client *resty.Client, kind string) []map[string]string {
	t.Helper()
	var out listEnvelope
	resp, err := client.R().SetResult(&out).Get("/readings/" + kind)
	if err != nil {
		t.Fatalf("GET /readings/%s failed: %v", kind, err)
	}
	if resp.StatusCode() != http.StatusOK {
		t.Fatalf("GET /readings/%s returned %d: %s", kind, resp.StatusCode(), resp.Body())
	}
	return out.Data
}

func dialWS(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		t.Fatalf("WebSocket dial failed (status %d): %v", status, err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// readFrame reads the next event frame.
func readFrame(t *testing.T, conn *websocket.Conn, timeout time.Duration) wsFrame {
	t.Helper()
	if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		t.Fatalf("SetReadDeadline failed: %v", err)
	}
	var frame wsFrame
	if err := conn.ReadJSON(&frame); err != nil {
		t.Fatalf("Failed to read WebSocket frame: %v", err)
	}
	return frame
}

// expectNoFrame fails if an event arrives within wait.
func expectNoFrame(t *testing.T, conn *websocket.Conn, wait time.Duration) {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(wait))
	var frame wsFrame
	if err := conn.ReadJSON(&frame); err == nil {
		t.Fatalf("Unexpected frame: %+v", frame)
	}
}

// waitFor polls cond until it holds or timeout passes.
func waitFor(t *testing.T, timeout time.Duration, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("Timed out waiting for %s", what)
}

// sseEvent is one parsed Server-Sent Events frame.
type sseEvent struct {
	ID    string
	Event string
	Data  string
}

// readSSEEvent reads lines until a complete event frame; comment lines
// (connected, heartbeat) are skipped.
func readSSEEvent(reader *bufio.Reader) (sseEvent, error) {
	var ev sseEvent
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			return ev, err
		}
		line = strings.TrimRight(line, "\n")
		switch {
		case line == "":
			if ev.Event != "" {
				return ev, nil
			}
		case strings.HasPrefix(line, ":"):
		case strings.HasPrefix(line, "id: "):
			ev.ID = strings.TrimPrefix(line, "id: ")
		case strings.HasPrefix(line, "event: "):
			ev.Event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			ev.Data = strings.TrimPrefix(line, "data: ")
		}
	}
}
