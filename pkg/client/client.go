// Package client is the official Go SDK for flashline.
//
// # Quick start
//
//	c := client.New("http://localhost:8080")
//
//	// Show a message for 5 seconds
//	res, err := c.Submit(ctx, "deploy finished",
//	    client.WithDisplayFor(5*time.Second))
//
//	// Show an error-styled message using a server preset
//	res, err = c.Submit(ctx, "disk almost full",
//	    client.WithPreset("error"))
//
//	// Follow the display in real time
//	events, err := c.Tail(ctx)
//	for ev := range events {
//	    if ev.Type == client.EventDisplay {
//	        render(ev.Entry)
//	    }
//	}
//
// # Error handling
//
// All methods return an *APIError when the server responds with a non-2xx
// status code. Check errors.As(err, &client.APIError{}) to inspect the HTTP
// status and server message.
//
// # Connection reuse
//
// Client is safe for concurrent use. It shares a single http.Client internally
// so connections are reused across goroutines.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
)

// ─── Error type ───────────────────────────────────────────────────────────────

// APIError is returned when the flashline server responds with a non-2xx status.
type APIError struct {
	StatusCode int    // HTTP status code
	Message    string // "error" field from the JSON response body
}

func (e *APIError) Error() string {
	return fmt.Sprintf("flashline: server returned %d: %s", e.StatusCode, e.Message)
}

// IsUnauthorized reports whether the error is a 401 from the server,
// meaning the API key is missing or wrong.
func IsUnauthorized(err error) bool {
	var ae *APIError
	return errors.As(err, &ae) && ae.StatusCode == http.StatusUnauthorized
}

// IsConflict reports whether the error is a 409 from the server. Export
// returns this when no export directory is configured.
func IsConflict(err error) bool {
	var ae *APIError
	return errors.As(err, &ae) && ae.StatusCode == http.StatusConflict
}

// IsRateLimited reports whether the error is a 429 from the submitter
// rate limiter.
func IsRateLimited(err error) bool {
	var ae *APIError
	return errors.As(err, &ae) && ae.StatusCode == http.StatusTooManyRequests
}

// ─── Client options ───────────────────────────────────────────────────────────

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithAPIKey sets the API key sent in every request as the X-Api-Key header.
// Required when the server has auth.enabled = true.
func WithAPIKey(key string) ClientOption {
	return func(c *Client) { c.apiKey = key }
}

// WithHTTPClient replaces the default http.Client.
// Use this to configure TLS, proxies, or request tracing.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the per-request timeout.
// The default is 30 seconds.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.http.Timeout = d }
}

// ─── Client ───────────────────────────────────────────────────────────────────

// Client is the flashline API client. It is safe for concurrent use.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// New creates a new Client that connects to the flashline server at baseURL.
//
//	c := client.New("http://localhost:8080")
//	c := client.New("http://flashline.example.com", client.WithAPIKey("secret"))
func New(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// ─── Submitting messages ──────────────────────────────────────────────────────

// Style is the visual treatment of a displayed message. Colors are
// CSS-style "#rgb", "#rrggbb" or "rgba(r,g,b,a)" strings; an empty color
// inherits the display default.
type Style struct {
	Foreground string
	Background string
	Bold       bool
}

// SubmitResult reports how the server accepted a submission.
type SubmitResult struct {
	ID     string // server-assigned message ID
	Queued bool   // true when the message waits behind an active display
}

// SubmitOption configures a single Submit call.
type SubmitOption func(*submitPayload)

// WithDisplayFor sets how long the message holds the screen before the next
// queued message (or a blank display) replaces it. Zero, the default, shows
// the message for a short fixed hold.
func WithDisplayFor(d time.Duration) SubmitOption {
	return func(p *submitPayload) { p.TimeoutMs = d.Milliseconds() }
}

// WithStyle renders the message with explicit colors.
// Mutually exclusive with WithPreset.
func WithStyle(s Style) SubmitOption {
	return func(p *submitPayload) {
		p.Style = &wireStyle{Foreground: s.Foreground, Background: s.Background, Bold: s.Bold}
	}
}

// WithPreset renders the message with a named style preset registered on the
// server ("error", "warning", "ask-for-input", or a configured custom one).
// Mutually exclusive with WithStyle.
func WithPreset(name string) SubmitOption {
	return func(p *submitPayload) { p.Preset = name }
}

// Submit sends text to the server for display. The message is shown
// immediately when the display is free, otherwise it joins the wait queue
// and Queued is true in the result.
func (c *Client) Submit(ctx context.Context, text string, opts ...SubmitOption) (*SubmitResult, error) {
	payload := submitPayload{Text: text}
	for _, o := range opts {
		o(&payload)
	}
	var resp struct {
		ID     string `json:"id"`
		Queued bool   `json:"queued"`
	}
	if err := c.do(ctx, http.MethodPost, "/messages", payload, &resp); err != nil {
		return nil, err
	}
	return &SubmitResult{ID: resp.ID, Queued: resp.Queued}, nil
}

// ─── Browsing the buffer ──────────────────────────────────────────────────────

// Message is a buffered status message.
type Message struct {
	ID        string        // ULID assigned at submission
	Text      string        // display text
	Timeout   time.Duration // how long the message holds the screen; 0 = short hold
	Style     Style
	CreatedAt time.Time // when the message reached the buffer
}

// ListOption configures a Messages call.
type ListOption func(*listParams)

// WithLimit returns only the newest n messages.
func WithLimit(n int) ListOption {
	return func(p *listParams) { p.limit = n }
}

// Messages returns the buffered messages in submission order, oldest first.
func (c *Client) Messages(ctx context.Context, opts ...ListOption) ([]*Message, error) {
	var p listParams
	for _, o := range opts {
		o(&p)
	}
	path := "/messages"
	if p.limit > 0 {
		path += "?limit=" + strconv.Itoa(p.limit)
	}
	var resp struct {
		Messages []*wireEntry `json:"messages"`
		Length   int          `json:"length"`
		Capacity int          `json:"capacity"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	out := make([]*Message, len(resp.Messages))
	for i, w := range resp.Messages {
		out[i] = w.toMessage()
	}
	return out, nil
}

// DeleteAll empties the message buffer and clears the display.
// It returns the number of messages removed.
func (c *Client) DeleteAll(ctx context.Context) (int, error) {
	var resp struct {
		Deleted int `json:"deleted"`
	}
	if err := c.do(ctx, http.MethodDelete, "/messages", nil, &resp); err != nil {
		return 0, err
	}
	return resp.Deleted, nil
}

// ─── Export ───────────────────────────────────────────────────────────────────

// ExportOption configures a single Export call.
type ExportOption func(*exportPayload)

// WithExportDir writes the export file under dir on the server instead of
// the server's configured export directory.
func WithExportDir(dir string) ExportOption {
	return func(p *exportPayload) { p.Dir = dir }
}

// Export writes the buffered messages to a timestamped text file on the
// server. It returns the file path and the number of messages written.
// Without WithExportDir the server must have export.dir configured,
// otherwise the call fails with a 409 (see IsConflict).
func (c *Client) Export(ctx context.Context, opts ...ExportOption) (string, int, error) {
	var payload exportPayload
	for _, o := range opts {
		o(&payload)
	}
	var body any
	if payload.Dir != "" {
		body = payload
	}
	var resp struct {
		File  string `json:"file"`
		Count int    `json:"count"`
	}
	if err := c.do(ctx, http.MethodPost, "/export", body, &resp); err != nil {
		return "", 0, err
	}
	return resp.File, resp.Count, nil
}

// ─── Presets ──────────────────────────────────────────────────────────────────

// Preset is a named reusable style registered on the server.
type Preset struct {
	Name  string
	Style Style
}

// Presets returns the style presets the server accepts in WithPreset,
// sorted by name.
func (c *Client) Presets(ctx context.Context) ([]*Preset, error) {
	var resp struct {
		Presets []*wirePreset `json:"presets"`
	}
	if err := c.do(ctx, http.MethodGet, "/presets", nil, &resp); err != nil {
		return nil, err
	}
	out := make([]*Preset, len(resp.Presets))
	for i, w := range resp.Presets {
		out[i] = &Preset{
			Name:  w.Name,
			Style: Style{Foreground: w.Style.Foreground, Background: w.Style.Background, Bold: w.Style.Bold},
		}
	}
	return out, nil
}

// ─── Health and stats ─────────────────────────────────────────────────────────

// HealthInfo is the server health snapshot.
type HealthInfo struct {
	Status    string
	Uptime    time.Duration
	Version   string
	Buffered  int // messages currently in the buffer
	WaitDepth int // submissions waiting for the display
}

// Stats is the live display state of the server.
type Stats struct {
	Length    int      // messages in the buffer
	Capacity  int      // buffer capacity
	Cursor    int      // browse position, -1 before anything was displayed
	WaitDepth int      // submissions waiting for the display
	State     string   // "idle", "active_timed", "active_zero_timeout" or "draining"
	Visible   *Message // message currently on screen, nil when the display is blank
}

// Health returns the server health snapshot.
func (c *Client) Health(ctx context.Context) (*HealthInfo, error) {
	var resp struct {
		Status    string `json:"status"`
		UptimeMs  int64  `json:"uptime_ms"`
		Version   string `json:"version"`
		Buffered  int    `json:"buffered"`
		WaitDepth int    `json:"wait_depth"`
	}
	if err := c.do(ctx, http.MethodGet, "/health", nil, &resp); err != nil {
		return nil, err
	}
	return &HealthInfo{
		Status:    resp.Status,
		Uptime:    time.Duration(resp.UptimeMs) * time.Millisecond,
		Version:   resp.Version,
		Buffered:  resp.Buffered,
		WaitDepth: resp.WaitDepth,
	}, nil
}

// Stats returns the live buffer and display state.
func (c *Client) Stats(ctx context.Context) (*Stats, error) {
	var resp struct {
		Length    int        `json:"length"`
		Capacity  int        `json:"capacity"`
		Cursor    int        `json:"cursor"`
		WaitDepth int        `json:"wait_depth"`
		State     string     `json:"state"`
		Visible   *wireEntry `json:"visible"`
	}
	if err := c.do(ctx, http.MethodGet, "/stats", nil, &resp); err != nil {
		return nil, err
	}
	s := &Stats{
		Length:    resp.Length,
		Capacity:  resp.Capacity,
		Cursor:    resp.Cursor,
		WaitDepth: resp.WaitDepth,
		State:     resp.State,
	}
	if resp.Visible != nil {
		s.Visible = resp.Visible.toMessage()
	}
	return s, nil
}

// ─── Live event stream ────────────────────────────────────────────────────────

// EventType identifies a display event on the Tail stream.
type EventType string

// Event types emitted by the server.
const (
	EventDisplay          EventType = "display"            // a message took the screen
	EventClear            EventType = "clear"              // the screen went blank
	EventProgressTick     EventType = "progress_tick"      // countdown progress of a timed message
	EventIndexLabel       EventType = "index_label"        // position indicator refresh
	EventWaitQueueEmptied EventType = "wait_queue_emptied" // the last queued submission was displayed
)

// IndexLabel describes the "position/length [waiting]" indicator.
// Cursor is -1 while the display is blank.
type IndexLabel struct {
	Cursor    int
	Length    int
	Capacity  int
	WaitDepth int
}

// Event is a single display event from the live stream. Which fields are
// set depends on Type: Entry and Waiting accompany EventDisplay, Fraction
// accompanies EventProgressTick and Label accompanies EventIndexLabel.
type Event struct {
	Type     EventType
	Entry    *Message
	Waiting  bool
	Fraction float64
	Label    *IndexLabel
}

// Tail opens a websocket to the server and streams display events as they
// happen. The first events replay the current display state so late
// attachers render correctly. The returned channel closes when ctx is
// cancelled or the connection drops; cancel ctx to stop tailing.
func (c *Client) Tail(ctx context.Context) (<-chan Event, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("flashline: parse base URL: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	u.Path = "/ws"

	header := http.Header{}
	if c.apiKey != "" {
		header.Set("X-Api-Key", c.apiKey)
	}

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, resp, err := dialer.DialContext(ctx, u.String(), header)
	if err != nil {
		if resp != nil {
			defer resp.Body.Close()
			data, _ := io.ReadAll(resp.Body)
			var errResp struct {
				Error string `json:"error"`
			}
			_ = json.Unmarshal(data, &errResp)
			msg := errResp.Error
			if msg == "" {
				msg = http.StatusText(resp.StatusCode)
			}
			return nil, &APIError{StatusCode: resp.StatusCode, Message: msg}
		}
		return nil, fmt.Errorf("flashline: dial %s: %w", u.String(), err)
	}

	events := make(chan Event, 64)
	done := make(chan struct{})

	// Closing the connection on ctx cancellation unblocks the read loop.
	go func() {
		select {
		case <-ctx.Done():
		case <-done:
		}
		_ = conn.Close()
	}()

	go func() {
		defer close(events)
		defer close(done)
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var f wireFrame
			if err := json.Unmarshal(data, &f); err != nil {
				continue
			}
			select {
			case events <- f.toEvent():
			case <-ctx.Done():
				return
			}
		}
	}()

	return events, nil
}

// ─── HTTP transport ───────────────────────────────────────────────────────────

// do performs a single HTTP request.
// body is encoded as JSON when non-nil, resp is decoded from JSON when non-nil.
// A 204 No Content response is treated as success with no body.
func (c *Client) do(ctx context.Context, method, path string, body, resp any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("flashline: marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("flashline: build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("X-Api-Key", c.apiKey)
	}
	req.Header.Set("Accept", "application/json")

	httpResp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("flashline: request %s %s: %w", method, path, err)
	}
	defer httpResp.Body.Close()

	// Success without body
	if httpResp.StatusCode == http.StatusNoContent {
		return nil
	}

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return fmt.Errorf("flashline: read response body: %w", err)
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		var errResp struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(respBody, &errResp)
		msg := errResp.Error
		if msg == "" {
			msg = http.StatusText(httpResp.StatusCode)
		}
		return &APIError{StatusCode: httpResp.StatusCode, Message: msg}
	}

	if resp != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, resp); err != nil {
			return fmt.Errorf("flashline: decode response: %w", err)
		}
	}
	return nil
}

// ─── Internal wire types ──────────────────────────────────────────────────────

type submitPayload struct {
	Text      string     `json:"text"`
	TimeoutMs int64      `json:"timeout_ms,omitempty"`
	Preset    string     `json:"preset,omitempty"`
	Style     *wireStyle `json:"style,omitempty"`
}

type listParams struct {
	limit int
}

type exportPayload struct {
	Dir string `json:"dir"`
}

type wireStyle struct {
	Foreground string `json:"foreground,omitempty"`
	Background string `json:"background,omitempty"`
	Bold       bool   `json:"bold"`
}

type wirePreset struct {
	Name  string    `json:"name"`
	Style wireStyle `json:"style"`
}

type wireEntry struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	TimeoutMs int64     `json:"timeout_ms"`
	Style     wireStyle `json:"style"`
	CreatedAt int64     `json:"created_at"`
}

func (w *wireEntry) toMessage() *Message {
	return &Message{
		ID:        w.ID,
		Text:      w.Text,
		Timeout:   time.Duration(w.TimeoutMs) * time.Millisecond,
		Style:     Style{Foreground: w.Style.Foreground, Background: w.Style.Background, Bold: w.Style.Bold},
		CreatedAt: time.UnixMilli(w.CreatedAt).UTC(),
	}
}

type wireFrame struct {
	Type     string     `json:"type"`
	Entry    *wireEntry `json:"entry"`
	Waiting  bool       `json:"waiting"`
	Fraction float64    `json:"fraction"`
	Label    *wireLabel `json:"label"`
}

type wireLabel struct {
	Cursor    int `json:"cursor"`
	Length    int `json:"length"`
	Capacity  int `json:"capacity"`
	WaitDepth int `json:"wait_depth"`
}

func (f *wireFrame) toEvent() Event {
	ev := Event{Type: EventType(f.Type), Waiting: f.Waiting, Fraction: f.Fraction}
	if f.Entry != nil {
		ev.Entry = f.Entry.toMessage()
	}
	if f.Label != nil {
		ev.Label = &IndexLabel{
			Cursor:    f.Label.Cursor,
			Length:    f.Label.Length,
			Capacity:  f.Label.Capacity,
			WaitDepth: f.Label.WaitDepth,
		}
	}
	return ev
}
