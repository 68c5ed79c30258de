package http_test

import (
	"bytes"
	"encoding/json"
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
)

// ─── helpers ─────────────────────────────────────────────────────────────────

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(t *testing.T, mutate ...func(*config.Config)) http.Handler {
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
	return srv.Handler()
}

func doRequest(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reqBody bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&reqBody).Encode(body); err != nil {
			t.Fatalf("encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &reqBody)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeResp(t *testing.T, rr *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v, body: %s", err, rr.Body.String())
	}
}

// waitBuffered polls GET /messages until length reaches want. Submissions
// behind an active display drain on timers, so history fills asynchronously.
func waitBuffered(t *testing.T, h http.Handler, want int) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		rr := doRequest(t, h, "GET", "/messages", nil)
		var resp struct {
			Length int `json:"length"`
		}
		decodeResp(t, rr, &resp)
		if resp.Length >= want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("buffer never reached %d entries", want)
}

// ─── Health / Stats ───────────────────────────────────────────────────────────

func TestHTTP_Health(t *testing.T) {
	h := newTestServer(t)
	rr := doRequest(t, h, "GET", "/health", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("health: want 200, got %d — body: %s", rr.Code, rr.Body)
	}
	var resp map[string]any
	decodeResp(t, rr, &resp)
	if resp["status"] != "ok" {
		t.Errorf("health status: want ok, got %v", resp["status"])
	}
}

func TestHTTP_Stats(t *testing.T) {
	h := newTestServer(t)
	rr := doRequest(t, h, "GET", "/stats", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("stats: want 200, got %d", rr.Code)
	}
	var resp struct {
		Capacity int    `json:"capacity"`
		Cursor   int    `json:"cursor"`
		State    string `json:"state"`
	}
	decodeResp(t, rr, &resp)
	if resp.Capacity != 100 {
		t.Errorf("capacity: want 100, got %d", resp.Capacity)
	}
	if resp.Cursor != -1 {
		t.Errorf("fresh cursor: want -1, got %d", resp.Cursor)
	}
	if resp.State != "idle" {
		t.Errorf("fresh state: want idle, got %s", resp.State)
	}
}

// ─── Submit ───────────────────────────────────────────────────────────────────

func TestHTTP_SubmitMessage(t *testing.T) {
	h := newTestServer(t)

	rr := doRequest(t, h, "POST", "/messages", map[string]any{
		"text":       "deploy finished",
		"timeout_ms": 5000,
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("submit: want 201, got %d — body: %s", rr.Code, rr.Body)
	}

	var resp struct {
		ID     string `json:"id"`
		Queued bool   `json:"queued"`
	}
	decodeResp(t, rr, &resp)
	if resp.ID == "" {
		t.Error("expected non-empty id")
	}
	if resp.Queued {
		t.Error("first submission should display, not queue")
	}

	// A second submission while the first holds the display must queue.
	rr = doRequest(t, h, "POST", "/messages", map[string]any{"text": "right behind"})
	decodeResp(t, rr, &resp)
	if !resp.Queued {
		t.Error("second submission should queue behind the active display")
	}
}

func TestHTTP_SubmitWithPreset(t *testing.T) {
	h := newTestServer(t)

	rr := doRequest(t, h, "POST", "/messages", map[string]any{
		"text":   "disk almost full",
		"preset": "warning",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("preset submit: want 201, got %d — body: %s", rr.Code, rr.Body)
	}

	rr = doRequest(t, h, "GET", "/messages", nil)
	var list struct {
		Messages []struct {
			Style struct {
				Background string `json:"background"`
				Bold       bool   `json:"bold"`
			} `json:"style"`
		} `json:"messages"`
	}
	decodeResp(t, rr, &list)
	if len(list.Messages) != 1 {
		t.Fatalf("want 1 buffered message, got %d", len(list.Messages))
	}
	if list.Messages[0].Style.Background != "#ffff00" || !list.Messages[0].Style.Bold {
		t.Errorf("warning preset style not applied: %+v", list.Messages[0].Style)
	}
}

func TestHTTP_SubmitRejections(t *testing.T) {
	h := newTestServer(t)

	cases := []struct {
		desc string
		body map[string]any
	}{
		{"unknown preset", map[string]any{"text": "x", "preset": "sparkle"}},
		{"invalid color", map[string]any{"text": "x", "style": map[string]any{"foreground": "bright-ish"}}},
		{"preset and style together", map[string]any{
			"text":   "x",
			"preset": "error",
			"style":  map[string]any{"bold": true},
		}},
		{"unknown field", map[string]any{"text": "x", "ttl": 5}},
		{"oversized text", map[string]any{"text": strings.Repeat("a", 5000)}},
	}
	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			rr := doRequest(t, h, "POST", "/messages", tc.body)
			if rr.Code != http.StatusBadRequest {
				t.Errorf("%s: want 400, got %d — body: %s", tc.desc, rr.Code, rr.Body)
			}
		})
	}
}

// ─── Messages ─────────────────────────────────────────────────────────────────

func TestHTTP_ListMessages(t *testing.T) {
	h := newTestServer(t)

	for _, text := range []string{"one", "two", "three"} {
		doRequest(t, h, "POST", "/messages", map[string]any{"text": text, "timeout_ms": 1})
	}
	waitBuffered(t, h, 3)

	rr := doRequest(t, h, "GET", "/messages", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("list: want 200, got %d", rr.Code)
	}
	var resp struct {
		Messages []struct {
			Text string `json:"text"`
		} `json:"messages"`
		Length   int `json:"length"`
		Capacity int `json:"capacity"`
	}
	decodeResp(t, rr, &resp)
	if resp.Length != 3 || resp.Capacity != 100 {
		t.Errorf("length/capacity = %d/%d, want 3/100", resp.Length, resp.Capacity)
	}
	if len(resp.Messages) != 3 || resp.Messages[0].Text != "one" || resp.Messages[2].Text != "three" {
		t.Errorf("messages out of insertion order: %+v", resp.Messages)
	}

	// limit keeps the newest entries and still reports the full length.
	rr = doRequest(t, h, "GET", "/messages?limit=2", nil)
	decodeResp(t, rr, &resp)
	if len(resp.Messages) != 2 || resp.Messages[0].Text != "two" {
		t.Errorf("limited messages = %+v, want newest two", resp.Messages)
	}
	if resp.Length != 3 {
		t.Errorf("limited length = %d, want full 3", resp.Length)
	}
}

func TestHTTP_DeleteAll(t *testing.T) {
	h := newTestServer(t)

	for _, text := range []string{"a", "b"} {
		doRequest(t, h, "POST", "/messages", map[string]any{"text": text, "timeout_ms": 1})
	}
	waitBuffered(t, h, 2)

	rr := doRequest(t, h, "DELETE", "/messages", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("delete-all: want 200, got %d — body: %s", rr.Code, rr.Body)
	}
	var resp struct {
		Deleted int `json:"deleted"`
	}
	decodeResp(t, rr, &resp)
	if resp.Deleted != 2 {
		t.Errorf("deleted = %d, want 2", resp.Deleted)
	}

	rr = doRequest(t, h, "GET", "/messages", nil)
	var list struct {
		Length int `json:"length"`
	}
	decodeResp(t, rr, &list)
	if list.Length != 0 {
		t.Errorf("length after delete-all = %d, want 0", list.Length)
	}
}

// ─── Export ───────────────────────────────────────────────────────────────────

func TestHTTP_Export(t *testing.T) {
	dir := t.TempDir()
	h := newTestServer(t, func(cfg *config.Config) { cfg.Export.Dir = dir })

	doRequest(t, h, "POST", "/messages", map[string]any{"text": "keep me", "timeout_ms": 1})
	waitBuffered(t, h, 1)

	rr := doRequest(t, h, "POST", "/export", nil)
	if rr.Code != http.StatusCreated {
		t.Fatalf("export: want 201, got %d — body: %s", rr.Code, rr.Body)
	}
	var resp struct {
		File  string `json:"file"`
		Count int    `json:"count"`
	}
	decodeResp(t, rr, &resp)
	if resp.Count != 1 {
		t.Errorf("export count = %d, want 1", resp.Count)
	}
	data, err := os.ReadFile(resp.File)
	if err != nil {
		t.Fatalf("reading exported file: %v", err)
	}
	if !strings.Contains(string(data), "keep me") {
		t.Errorf("export file missing message text:\n%s", data)
	}
}

func TestHTTP_ExportDisabled(t *testing.T) {
	h := newTestServer(t) // no export dir configured

	rr := doRequest(t, h, "POST", "/export", nil)
	if rr.Code != http.StatusConflict {
		t.Fatalf("export without directory: want 409, got %d — body: %s", rr.Code, rr.Body)
	}

	// A per-request directory override still works.
	rr = doRequest(t, h, "POST", "/export", map[string]any{"dir": t.TempDir()})
	if rr.Code != http.StatusCreated {
		t.Fatalf("export with override dir: want 201, got %d — body: %s", rr.Code, rr.Body)
	}
}

// ─── Presets ──────────────────────────────────────────────────────────────────

func TestHTTP_ListPresets(t *testing.T) {
	h := newTestServer(t)

	rr := doRequest(t, h, "GET", "/presets", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("presets: want 200, got %d", rr.Code)
	}
	var resp struct {
		Presets []struct {
			Name string `json:"name"`
		} `json:"presets"`
	}
	decodeResp(t, rr, &resp)

	want := map[string]bool{"ask-for-input": false, "error": false, "warning": false}
	for _, p := range resp.Presets {
		if _, ok := want[p.Name]; ok {
			want[p.Name] = true
		}
	}
	for name, seen := range want {
		if !seen {
			t.Errorf("builtin preset %q missing from list", name)
		}
	}
}

// ─── Metrics ──────────────────────────────────────────────────────────────────

func TestHTTP_Metrics(t *testing.T) {
	h := newTestServer(t)

	doRequest(t, h, "POST", "/messages", map[string]any{"text": "counted"})

	rr := doRequest(t, h, "GET", "/metrics", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("metrics: want 200, got %d", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "flashline_messages_submitted_total 1") {
		t.Errorf("metrics missing submission counter:\n%s", body)
	}
	if !strings.Contains(body, "flashline_http_requests_total") {
		t.Errorf("metrics missing http request counter:\n%s", body)
	}
}

// ─── Middleware ───────────────────────────────────────────────────────────────

func TestHTTP_AuthRequired(t *testing.T) {
	h := newTestServer(t, func(cfg *config.Config) {
		cfg.Auth.Enabled = true
		cfg.Auth.APIKey = "sekrit"
	})

	rr := doRequest(t, h, "GET", "/stats", nil)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("no key: want 401, got %d", rr.Code)
	}

	req := httptest.NewRequest("GET", "/stats", nil)
	req.Header.Set("X-Api-Key", "sekrit")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("with key: want 200, got %d", rec.Code)
	}
}

func TestHTTP_CORSPreflight(t *testing.T) {
	h := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/messages", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("preflight: want 204, got %d", rr.Code)
	}
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("allow-origin = %q, want reflected origin", got)
	}
}
