// Package websocket provides the live event stream for flashline.
//
// Clients open a WebSocket connection to:
//
//	GET /ws
//
// On connect the server replays the current display state (so a renderer
// attaching mid-session has something to draw), then pushes every engine
// event as it happens.
//
// Server → client event frames:
//
//	{"type":"display","entry":{...},"waiting":true}
//	{"type":"clear"}
//	{"type":"progress_tick","fraction":0.2}
//	{"type":"index_label","label":{"cursor":4,"length":5,"capacity":100,"wait_depth":1}}
//	{"type":"wait_queue_emptied"}
//
// Client → server submit frame, answered with a "submitted" or "error" frame:
//
//	{"type":"submit","text":"...","timeout_ms":5000,"preset":"error"}
package websocket

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	gorillaws "github.com/gorilla/websocket"

	"github.com/sneh-joshi/flashline/internal/bar"
	"github.com/sneh-joshi/flashline/internal/types"
)

// subscriberBuffer is the per-connection event channel size. A client that
// stays this far behind starts losing events (they are display hints, not
// durable data).
const subscriberBuffer = 256

// urlParse is an alias so the upgrader closure can call it without shadowing
// the url package import.
var urlParse = url.Parse

var upgrader = gorillaws.Upgrader{
	// CheckOrigin rejects cross-origin WebSocket upgrade requests.
	// A request is considered same-origin when its Origin header matches the
	// Host header (scheme-agnostic). Requests without an Origin header
	// (e.g. from native clients/curl) are always allowed.
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true // non-browser client, allow
		}
		// Parse and compare host portions only so that ws:// and http:// are
		// treated as the same origin.
		parsed, err := parseHost(origin)
		if err != nil {
			return false
		}
		return parsed == r.Host
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
}

// parseHost returns the host:port (or just host) portion of a URL string.
func parseHost(rawURL string) (string, error) {
	u, err := urlParse(rawURL)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("invalid origin %q", rawURL)
	}
	return u.Host, nil
}

// Handler serves the event-stream WebSocket endpoint.
type Handler struct {
	Bar    *bar.Bar
	Logger *slog.Logger
}

// eventFrame is the JSON structure the server pushes to the client. Type is
// the event kind's wire name; the remaining fields are populated per kind.
type eventFrame struct {
	Type     string            `json:"type"`
	Entry    *types.Entry      `json:"entry,omitempty"`
	Waiting  bool              `json:"waiting,omitempty"`
	Fraction float64           `json:"fraction,omitempty"`
	Label    *types.IndexLabel `json:"label,omitempty"`
}

// submitAck confirms a client submit frame.
type submitAck struct {
	Type   string `json:"type"` // "submitted"
	ID     string `json:"id"`
	Queued bool   `json:"queued"`
}

// errorFrame reports a rejected client frame.
type errorFrame struct {
	Type  string `json:"type"` // "error"
	Error string `json:"error"`
}

// clientFrame is the JSON structure the client sends to the server.
type clientFrame struct {
	Type       string `json:"type"` // "submit"
	Text       string `json:"text"`
	TimeoutMs  int64  `json:"timeout_ms"`
	Preset     string `json:"preset"`
	Foreground string `json:"foreground"`
	Background string `json:"background"`
	Bold       bool   `json:"bold"`
}

func frameFor(ev types.Event) eventFrame {
	f := eventFrame{Type: ev.Kind.String()}
	switch ev.Kind {
	case types.EventDisplay:
		f.Entry = ev.Entry
		f.Waiting = ev.Waiting
	case types.EventProgressTick:
		f.Fraction = ev.Fraction
	case types.EventIndexLabel:
		f.Label = &ev.Label
	}
	return f
}

// ServeHTTP upgrades the connection, replays current state, and starts the
// push loop.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := h.Logger
	if logger == nil {
		logger = slog.Default()
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("websocket upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	events, cancel := h.Bar.Subscribe(subscriberBuffer)
	defer cancel()

	// Replay: what the bar shows right now, so late attachers render
	// something before the next event.
	entry, label := h.Bar.Current()
	if entry != nil {
		if !h.writeFrame(conn, eventFrame{
			Type:    types.EventDisplay.String(),
			Entry:   entry,
			Waiting: label.WaitDepth > 0,
		}) {
			return
		}
	}
	if !h.writeFrame(conn, eventFrame{Type: types.EventIndexLabel.String(), Label: &label}) {
		return
	}

	// Read pump: client frames arrive on their own goroutine so the main
	// loop can select over them alongside engine events.
	controlCh := make(chan clientFrame, 64)
	go func() {
		defer close(controlCh)
		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var cf clientFrame
			if jsonErr := json.Unmarshal(raw, &cf); jsonErr == nil {
				controlCh <- cf
			}
		}
	}()

	for {
		select {
		case <-r.Context().Done():
			return

		case cf, ok := <-controlCh:
			if !ok {
				return // client disconnected
			}
			if !h.handleClientFrame(conn, cf, logger) {
				return
			}

		case ev, ok := <-events:
			if !ok {
				return // bar shut down
			}
			if !h.writeFrame(conn, frameFor(ev)) {
				return
			}
		}
	}
}

// handleClientFrame routes one inbound frame. Reports false when the
// connection should be torn down.
func (h *Handler) handleClientFrame(conn *gorillaws.Conn, cf clientFrame, logger *slog.Logger) bool {
	switch cf.Type {
	case "submit":
		var (
			res *bar.SubmitResult
			err error
		)
		if cf.Preset != "" {
			res, err = h.Bar.SubmitPreset(cf.Preset, cf.Text, cf.TimeoutMs)
		} else {
			res, err = h.Bar.Submit(bar.SubmitRequest{
				Text:      cf.Text,
				TimeoutMs: cf.TimeoutMs,
				Style: types.Style{
					Foreground: cf.Foreground,
					Background: cf.Background,
					Bold:       cf.Bold,
				},
			})
		}
		if err != nil {
			logger.Warn("ws submit rejected", "err", err)
			return h.writeFrame(conn, errorFrame{Type: "error", Error: err.Error()})
		}
		return h.writeFrame(conn, submitAck{Type: "submitted", ID: res.ID, Queued: res.Queued})
	default:
		return h.writeFrame(conn, errorFrame{Type: "error", Error: fmt.Sprintf("unknown frame type %q", cf.Type)})
	}
}

// writeFrame marshals and sends one frame, reporting false on write failure.
func (h *Handler) writeFrame(conn *gorillaws.Conn, v any) bool {
	data, _ := json.Marshal(v)
	return conn.WriteMessage(gorillaws.TextMessage, data) == nil
}
