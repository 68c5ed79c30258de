package client_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/sneh-joshi/flashline/internal/bar"
	"github.com/sneh-joshi/flashline/internal/config"
	"github.com/sneh-joshi/flashline/internal/display"
	"github.com/sneh-joshi/flashline/internal/metrics"
	transphttp "github.com/sneh-joshi/flashline/internal/transport/http"
	"github.com/sneh-joshi/flashline/pkg/client"
)

// ─── test server helpers ──────────────────────────────────────────────────────

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestStack spins up a real flashline stack (bar + HTTP transport) backed
// by httptest.Server and returns its base URL. All resources are cleaned up
// in t.Cleanup.
func newTestStack(t *testing.T, mutate ...func(*config.Config)) string {
	t.Helper()

	cfg := config.Default()
	cfg.Submitters.MaxRate = 1000
	cfg.Submitters.Burst = 1000
	for _, fn := range mutate {
		fn(cfg)
	}

	b := bar.New(bar.Config{
		Capacity:        cfg.Bar.Capacity,
		PageSize:        cfg.Bar.PageSize,
		ExportDir:       cfg.Export.Dir,
		StrictDeleteAll: cfg.Bar.StrictDeleteAll,
		Timing: display.Config{
			ZeroTimeoutHoldMs:   20,
			ProgressThresholdMs: 2000,
			TickInterval:        10 * time.Millisecond,
		},
	}, bar.WithLogger(quietLogger()))
	t.Cleanup(b.Close)

	srv := transphttp.New(b, cfg, &metrics.Registry{}, quietLogger())

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	return ts.URL
}

// newTestEnv is newTestStack plus a ready Client.
func newTestEnv(t *testing.T) *client.Client {
	t.Helper()
	return client.New(newTestStack(t))
}

// ctx is a convenience context for tests.
func ctx() context.Context { return context.Background() }

// waitMessages polls Messages until the buffer holds at least want entries.
// Queued submissions reach the buffer on display timers, not synchronously.
func waitMessages(t *testing.T, c *client.Client, want int) []*client.Message {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		msgs, err := c.Messages(ctx())
		if err != nil {
			t.Fatalf("Messages: %v", err)
		}
		if len(msgs) >= want {
			return msgs
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("buffer never reached %d messages", want)
	return nil
}

// nextEvent receives one event of the given type, discarding others.
func nextEvent(t *testing.T, events <-chan client.Event, typ client.EventType) client.Event {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				t.Fatalf("event stream closed while waiting for %q", typ)
			}
			if ev.Type == typ {
				return ev
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %q event", typ)
		}
	}
}

// ─── Submit tests ─────────────────────────────────────────────────────────────

func TestSubmit_DisplaysImmediately(t *testing.T) {
	c := newTestEnv(t)

	res, err := c.Submit(ctx(), "build passed", client.WithDisplayFor(10*time.Second))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if res.ID == "" {
		t.Fatal("expected non-empty message ID")
	}
	if res.Queued {
		t.Fatal("first submission should take the display, not queue")
	}
}

func TestSubmit_QueuesBehindActiveDisplay(t *testing.T) {
	c := newTestEnv(t)

	if _, err := c.Submit(ctx(), "first", client.WithDisplayFor(10*time.Second)); err != nil {
		t.Fatalf("Submit first: %v", err)
	}
	res, err := c.Submit(ctx(), "second")
	if err != nil {
		t.Fatalf("Submit second: %v", err)
	}
	if !res.Queued {
		t.Fatal("second submission should queue behind the active display")
	}
}

func TestSubmit_WithPreset(t *testing.T) {
	c := newTestEnv(t)

	if _, err := c.Submit(ctx(), "low disk space",
		client.WithPreset("warning"),
		client.WithDisplayFor(10*time.Second),
	); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	msgs := waitMessages(t, c, 1)
	m := msgs[0]
	if m.Text != "low disk space" {
		t.Fatalf("text = %q", m.Text)
	}
	if m.Style.Background != "#ffff00" || !m.Style.Bold {
		t.Fatalf("warning preset not applied: %+v", m.Style)
	}
	if m.CreatedAt.IsZero() {
		t.Fatal("CreatedAt must not be zero")
	}
	if m.Timeout != 10*time.Second {
		t.Fatalf("Timeout = %v, want 10s", m.Timeout)
	}
}

func TestSubmit_UnknownPresetRejected(t *testing.T) {
	c := newTestEnv(t)

	_, err := c.Submit(ctx(), "boom", client.WithPreset("sparkly"))
	var ae *client.APIError
	if !errors.As(err, &ae) {
		t.Fatalf("expected *APIError, got %T: %v", err, err)
	}
	if ae.StatusCode != http.StatusBadRequest {
		t.Fatalf("StatusCode = %d, want 400", ae.StatusCode)
	}
}

func TestSubmit_InvalidColorRejected(t *testing.T) {
	c := newTestEnv(t)

	_, err := c.Submit(ctx(), "boom",
		client.WithStyle(client.Style{Foreground: "bright-mauve"}),
	)
	var ae *client.APIError
	if !errors.As(err, &ae) {
		t.Fatalf("expected *APIError, got %T: %v", err, err)
	}
	if ae.StatusCode != http.StatusBadRequest {
		t.Fatalf("StatusCode = %d, want 400", ae.StatusCode)
	}
}

// ─── Browse tests ─────────────────────────────────────────────────────────────

func TestMessages_OrderAndLimit(t *testing.T) {
	c := newTestEnv(t)

	for _, text := range []string{"one", "two", "three"} {
		if _, err := c.Submit(ctx(), text, client.WithDisplayFor(time.Millisecond)); err != nil {
			t.Fatalf("Submit %q: %v", text, err)
		}
	}

	msgs := waitMessages(t, c, 3)
	if msgs[0].Text != "one" || msgs[2].Text != "three" {
		t.Fatalf("wrong order: %q … %q", msgs[0].Text, msgs[2].Text)
	}

	newest, err := c.Messages(ctx(), client.WithLimit(2))
	if err != nil {
		t.Fatalf("Messages with limit: %v", err)
	}
	if len(newest) != 2 {
		t.Fatalf("limit=2 returned %d messages", len(newest))
	}
	if newest[0].Text != "two" || newest[1].Text != "three" {
		t.Fatalf("limit should keep the newest: %q, %q", newest[0].Text, newest[1].Text)
	}
}

func TestDeleteAll(t *testing.T) {
	c := newTestEnv(t)

	_, _ = c.Submit(ctx(), "a", client.WithDisplayFor(time.Millisecond))
	_, _ = c.Submit(ctx(), "b", client.WithDisplayFor(time.Millisecond))
	waitMessages(t, c, 2)

	n, err := c.DeleteAll(ctx())
	if err != nil {
		t.Fatalf("DeleteAll: %v", err)
	}
	if n != 2 {
		t.Fatalf("deleted = %d, want 2", n)
	}

	msgs, err := c.Messages(ctx())
	if err != nil {
		t.Fatalf("Messages: %v", err)
	}
	if len(msgs) != 0 {
		t.Fatalf("expected empty buffer, got %d messages", len(msgs))
	}
}

// ─── Export tests ─────────────────────────────────────────────────────────────

func TestExport(t *testing.T) {
	c := newTestEnv(t)
	dir := t.TempDir()

	if _, err := c.Submit(ctx(), "keep this line", client.WithDisplayFor(10*time.Second)); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	file, count, err := c.Export(ctx(), client.WithExportDir(dir))
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if count != 1 {
		t.Fatalf("count = %d, want 1", count)
	}
	if !strings.HasPrefix(file, dir) {
		t.Fatalf("file %q not under %q", file, dir)
	}

	data, err := os.ReadFile(file)
	if err != nil {
		t.Fatalf("read export file: %v", err)
	}
	if !strings.Contains(string(data), "keep this line") {
		t.Fatalf("export file missing message text:\n%s", data)
	}
}

func TestExport_DisabledReturnsConflict(t *testing.T) {
	c := newTestEnv(t)

	_, _, err := c.Export(ctx())
	if !client.IsConflict(err) {
		t.Fatalf("want IsConflict, got %v", err)
	}
}

// ─── Presets tests ────────────────────────────────────────────────────────────

func TestPresets(t *testing.T) {
	c := newTestEnv(t)

	presets, err := c.Presets(ctx())
	if err != nil {
		t.Fatalf("Presets: %v", err)
	}
	found := false
	for _, p := range presets {
		if p.Name == "error" {
			found = true
			if p.Style.Foreground != "#ffff00" || p.Style.Background != "#aa0000" || !p.Style.Bold {
				t.Fatalf("error preset style = %+v", p.Style)
			}
		}
	}
	if !found {
		t.Fatalf("builtin 'error' preset missing: %v", presets)
	}
}

// ─── Health / Stats tests ─────────────────────────────────────────────────────

func TestHealth(t *testing.T) {
	c := newTestEnv(t)

	h, err := c.Health(ctx())
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	if h.Status != "ok" {
		t.Fatalf("status = %q, want ok", h.Status)
	}
	if h.Version == "" {
		t.Fatal("Version must not be empty")
	}
	if h.Buffered != 0 || h.WaitDepth != 0 {
		t.Fatalf("fresh server should be empty: %+v", h)
	}
}

func TestStats(t *testing.T) {
	c := newTestEnv(t)

	s, err := c.Stats(ctx())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if s.Capacity != 100 || s.Length != 0 || s.Cursor != -1 || s.State != "idle" {
		t.Fatalf("fresh stats = %+v", s)
	}
	if s.Visible != nil {
		t.Fatal("nothing should be visible yet")
	}

	if _, err := c.Submit(ctx(), "running", client.WithDisplayFor(10*time.Second)); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	s, err = c.Stats(ctx())
	if err != nil {
		t.Fatalf("Stats after submit: %v", err)
	}
	if s.Length != 1 || s.Cursor != 0 || s.State != "active_timed" {
		t.Fatalf("active stats = %+v", s)
	}
	if s.Visible == nil || s.Visible.Text != "running" {
		t.Fatalf("visible = %+v", s.Visible)
	}
}

// ─── Live stream tests ────────────────────────────────────────────────────────

func TestTail_StreamsDisplayEvents(t *testing.T) {
	c := newTestEnv(t)

	tailCtx, cancel := context.WithCancel(ctx())
	defer cancel()

	events, err := c.Tail(tailCtx)
	if err != nil {
		t.Fatalf("Tail: %v", err)
	}

	// The stream opens with a replay of the (blank) display state.
	label := nextEvent(t, events, client.EventIndexLabel)
	if label.Label == nil || label.Label.Cursor != -1 {
		t.Fatalf("replay label = %+v, want cursor -1", label.Label)
	}

	if _, err := c.Submit(ctx(), "hello", client.WithDisplayFor(10*time.Second)); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	disp := nextEvent(t, events, client.EventDisplay)
	if disp.Entry == nil || disp.Entry.Text != "hello" {
		t.Fatalf("display event = %+v", disp.Entry)
	}
	if disp.Waiting {
		t.Fatal("nothing should be waiting behind the first message")
	}

	label = nextEvent(t, events, client.EventIndexLabel)
	if label.Label == nil || label.Label.Cursor != 0 || label.Label.Length != 1 {
		t.Fatalf("label after display = %+v", label.Label)
	}

	cancel()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-events:
			if !ok {
				return // closed as promised
			}
		case <-deadline:
			t.Fatal("event stream did not close after cancel")
		}
	}
}

func TestTail_RequiresAPIKey(t *testing.T) {
	url := newTestStack(t, func(cfg *config.Config) {
		cfg.Auth.Enabled = true
		cfg.Auth.APIKey = "sekrit"
	})

	_, err := client.New(url).Tail(ctx())
	if !client.IsUnauthorized(err) {
		t.Fatalf("want IsUnauthorized without key, got %v", err)
	}

	tailCtx, cancel := context.WithCancel(ctx())
	defer cancel()
	events, err := client.New(url, client.WithAPIKey("sekrit")).Tail(tailCtx)
	if err != nil {
		t.Fatalf("Tail with API key: %v", err)
	}
	label := nextEvent(t, events, client.EventIndexLabel)
	if label.Label == nil || label.Label.Cursor != -1 {
		t.Fatalf("replay label = %+v", label.Label)
	}
}

// ─── APIError tests ───────────────────────────────────────────────────────────

func TestAPIError_Fields(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "draining"})
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	c := client.New(ts.URL)
	_, err := c.Health(ctx())

	var ae *client.APIError
	if !errors.As(err, &ae) {
		t.Fatalf("expected *APIError, got %T: %v", err, err)
	}
	if ae.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("StatusCode = %d, want 503", ae.StatusCode)
	}
	if ae.Message != "draining" {
		t.Fatalf("Message = %q, want draining", ae.Message)
	}
	if !strings.Contains(err.Error(), "flashline: server returned 503") {
		t.Fatalf("Error() = %q", err.Error())
	}
	if client.IsConflict(err) || client.IsUnauthorized(err) || client.IsRateLimited(err) {
		t.Fatal("status helpers should not match a 503")
	}
}

// ─── Client options tests ─────────────────────────────────────────────────────

func TestWithAPIKey_Passed(t *testing.T) {
	url := newTestStack(t, func(cfg *config.Config) {
		cfg.Auth.Enabled = true
		cfg.Auth.APIKey = "mysecret"
	})

	// Without key → 401
	_, err := client.New(url).Health(ctx())
	if !client.IsUnauthorized(err) {
		t.Fatalf("want IsUnauthorized without key, got %v", err)
	}

	// With key → success
	c := client.New(url, client.WithAPIKey("mysecret"))
	h, err := c.Health(ctx())
	if err != nil {
		t.Fatalf("Health with API key: %v", err)
	}
	if h.Status != "ok" {
		t.Fatalf("status = %q, want ok", h.Status)
	}
}

func TestWithTimeout(t *testing.T) {
	c := client.New("http://localhost:1", client.WithTimeout(50*time.Millisecond))
	_, err := c.Health(ctx())
	if err == nil {
		t.Fatal("expected error on unreachable server")
	}
}
