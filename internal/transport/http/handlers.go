package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/sneh-joshi/flashline/internal/bar"
	"github.com/sneh-joshi/flashline/internal/export"
	"github.com/sneh-joshi/flashline/internal/style"
	"github.com/sneh-joshi/flashline/internal/types"
)

// maxTextBytes is the upper bound on a single message's text. Status messages
// are one bar line; anything larger is a client bug.
const maxTextBytes = 4096

// Handler groups all HTTP request handlers around a Bar.
type Handler struct {
	bar *bar.Bar
}

// ─── DTOs ─────────────────────────────────────────────────────────────────────

type submitReq struct {
	Text      string       `json:"text"`
	TimeoutMs int64        `json:"timeout_ms"` // 0 = default short display
	Preset    string       `json:"preset"`     // mutually exclusive with style
	Style     *types.Style `json:"style"`
}

type submitResp struct {
	ID     string `json:"id"`
	Queued bool   `json:"queued"`
}

type messagesResp struct {
	Messages []*types.Entry `json:"messages"`
	Length   int            `json:"length"`
	Capacity int            `json:"capacity"`
}

type deleteAllResp struct {
	Deleted int `json:"deleted"`
}

type exportReq struct {
	Dir string `json:"dir"` // optional override of the configured directory
}

type exportResp struct {
	File  string `json:"file"`
	Count int    `json:"count"`
}

type presetsResp struct {
	Presets []*style.Preset `json:"presets"`
}

type healthResp struct {
	Status    string `json:"status"`
	Uptime    string `json:"uptime"`
	UptimeMs  int64  `json:"uptime_ms"`
	Version   string `json:"version"`
	Buffered  int    `json:"buffered"`
	WaitDepth int    `json:"wait_depth"`
}

// ─── Health / Stats ───────────────────────────────────────────────────────────

var startTime = time.Now()

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	stats := h.bar.Stats()
	elapsed := time.Since(startTime)
	writeJSON(w, http.StatusOK, healthResp{
		Status:    "ok",
		Uptime:    elapsed.Round(time.Second).String(),
		UptimeMs:  elapsed.Milliseconds(),
		Version:   "1.0.0",
		Buffered:  stats.Length,
		WaitDepth: stats.WaitDepth,
	})
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.bar.Stats())
}

// ─── Submit ───────────────────────────────────────────────────────────────────

func (h *Handler) submitMessage(w http.ResponseWriter, r *http.Request) {
	var req submitReq
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.Text) > maxTextBytes {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "text exceeds maximum of " + strconv.Itoa(maxTextBytes) + " bytes",
		})
		return
	}
	if req.Preset != "" && req.Style != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "preset and style are mutually exclusive",
		})
		return
	}

	var (
		res *bar.SubmitResult
		err error
	)
	if req.Preset != "" {
		res, err = h.bar.SubmitPreset(req.Preset, req.Text, req.TimeoutMs)
	} else {
		sr := bar.SubmitRequest{Text: req.Text, TimeoutMs: req.TimeoutMs}
		if req.Style != nil {
			sr.Style = *req.Style
		}
		res, err = h.bar.Submit(sr)
	}
	if err != nil {
		code := http.StatusInternalServerError
		if errors.Is(err, style.ErrNotFound) || errors.Is(err, style.ErrInvalidColor) {
			code = http.StatusBadRequest
		}
		writeError(w, code, err)
		return
	}
	writeJSON(w, http.StatusCreated, submitResp{ID: res.ID, Queued: res.Queued})
}

// ─── Messages ─────────────────────────────────────────────────────────────────

// listMessages returns the buffer snapshot, oldest first. ?limit=N keeps only
// the newest N entries.
func (h *Handler) listMessages(w http.ResponseWriter, r *http.Request) {
	snap := h.bar.Snapshot()
	total := len(snap)

	if limit := parseIntParam(r, "limit", 0); limit > 0 && limit < len(snap) {
		snap = snap[len(snap)-limit:]
	}
	if snap == nil {
		snap = []*types.Entry{}
	}
	writeJSON(w, http.StatusOK, messagesResp{
		Messages: snap,
		Length:   total,
		Capacity: h.bar.Stats().Capacity,
	})
}

func (h *Handler) deleteAll(w http.ResponseWriter, r *http.Request) {
	n := h.bar.DeleteAll()
	writeJSON(w, http.StatusOK, deleteAllResp{Deleted: n})
}

// ─── Export ───────────────────────────────────────────────────────────────────

func (h *Handler) exportBuffer(w http.ResponseWriter, r *http.Request) {
	var req exportReq
	// The body is optional; an empty one exports to the configured directory.
	if r.ContentLength != 0 {
		if !decodeJSON(w, r, &req) {
			return
		}
	}

	path, count, err := h.bar.Export(req.Dir)
	if err != nil {
		code := http.StatusInternalServerError
		if errors.Is(err, export.ErrDisabled) {
			code = http.StatusConflict
		}
		writeError(w, code, err)
		return
	}
	writeJSON(w, http.StatusCreated, exportResp{File: path, Count: count})
}

// ─── Presets ──────────────────────────────────────────────────────────────────

func (h *Handler) listPresets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, presetsResp{Presets: h.bar.Presets().List()})
}

// ─── Helpers ──────────────────────────────────────────────────────────────────

func parseIntParam(r *http.Request, key string, def int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 1 {
		return def
	}
	return v
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json: " + err.Error()})
		return false
	}
	return true
}
