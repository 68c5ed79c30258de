// Package metrics provides a lightweight Prometheus-compatible metrics
// registry for flashline. It deliberately avoids the prometheus/client_golang
// package so the daemon binary stays small with no additional dependencies.
//
// # Counter layout
//
// Bar-level counters are plain atomics (one bar per process, no labels).
// Labeled counters use a tab-separated string as their label key so that a
// single sync.Map can hold all label combinations without map nesting:
//
//	PresetUsed                →  key = "preset"
//	HTTPReqs                  →  key = "method\tpath\tstatus"
//	HTTPDurMs / HTTPDurCnt    →  key = "method\tpath"
//
// # Prometheus text output
//
// Calling Registry.Handler() returns an http.Handler that renders all metrics
// in the Prometheus exposition format (text/plain; version=0.0.4).
package metrics

import (
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
)

// ─── labelCounter ─────────────────────────────────────────────────────────────

// labelCounter is a lock-free, label-keyed counter map backed by sync.Map and
// atomic.Int64 values.
type labelCounter struct {
	vals sync.Map // key string → *atomic.Int64
}

func (lc *labelCounter) get(key string) *atomic.Int64 {
	v, _ := lc.vals.LoadOrStore(key, new(atomic.Int64))
	return v.(*atomic.Int64)
}

// Inc increments the counter for key by 1.
func (lc *labelCounter) Inc(key string) { lc.get(key).Add(1) }

// Add increments the counter for key by n.
func (lc *labelCounter) Add(key string, n int64) { lc.get(key).Add(n) }

// Each calls fn for every key/value pair. The order is non-deterministic.
func (lc *labelCounter) Each(fn func(key string, val int64)) {
	lc.vals.Range(func(k, v any) bool {
		fn(k.(string), v.(*atomic.Int64).Load())
		return true
	})
}

// ─── Registry ─────────────────────────────────────────────────────────────────

// Registry holds all flashline application metrics.
type Registry struct {
	// Bar-level counters.
	Submitted      atomic.Int64 // every submission accepted
	Queued         atomic.Int64 // submissions routed to the wait queue
	Displayed      atomic.Int64 // scheduler display transitions
	Evicted        atomic.Int64 // capacity evictions at admission
	Deleted        atomic.Int64 // delete-current commands that removed an entry
	DeleteAll      atomic.Int64 // delete-all commands
	Emptied        atomic.Int64 // wait-queue-emptied notifications
	Navigations    atomic.Int64 // cursor moves that refreshed the display
	Exports        atomic.Int64 // successful buffer exports
	ExportFailures atomic.Int64 // export attempts that returned an error
	EventsDropped  atomic.Int64 // events dropped on full subscriber channels

	// Live gauges, set by the bar after every mutation.
	BufferLength atomic.Int64
	WaitDepth    atomic.Int64

	// PresetUsed counts submissions through each named preset. key = preset name.
	PresetUsed labelCounter

	// HTTP-level counters. key = "method\tpath\tstatus" (Reqs) or "method\tpath" (Dur*)
	HTTPReqs   labelCounter
	HTTPDurMs  labelCounter // sum of request durations in milliseconds
	HTTPDurCnt labelCounter // number of requests (same key as HTTPDurMs, for avg)
}

// ─── Prometheus text serialisation ────────────────────────────────────────────

// Handler returns an http.Handler that renders all metrics in the Prometheus
// plain-text exposition format (text/plain; version=0.0.4).
func (r *Registry) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		w.WriteHeader(http.StatusOK)

		var b strings.Builder

		// ── bar counters ──────────────────────────────────────────────────────
		writeScalar(&b, "flashline_messages_submitted_total",
			"Total messages submitted", "counter", r.Submitted.Load())
		writeScalar(&b, "flashline_messages_queued_total",
			"Total submissions routed to the wait queue", "counter", r.Queued.Load())
		writeScalar(&b, "flashline_messages_displayed_total",
			"Total scheduler display transitions", "counter", r.Displayed.Load())
		writeScalar(&b, "flashline_messages_evicted_total",
			"Total entries evicted from a full buffer", "counter", r.Evicted.Load())
		writeScalar(&b, "flashline_messages_deleted_total",
			"Total entries removed by delete-current", "counter", r.Deleted.Load())
		writeScalar(&b, "flashline_buffer_delete_all_total",
			"Total delete-all commands", "counter", r.DeleteAll.Load())
		writeScalar(&b, "flashline_wait_queue_emptied_total",
			"Total wait-queue-emptied notifications", "counter", r.Emptied.Load())
		writeScalar(&b, "flashline_navigations_total",
			"Total cursor moves that refreshed the display", "counter", r.Navigations.Load())
		writeScalar(&b, "flashline_exports_total",
			"Total successful buffer exports", "counter", r.Exports.Load())
		writeScalar(&b, "flashline_export_failures_total",
			"Total failed buffer exports", "counter", r.ExportFailures.Load())
		writeScalar(&b, "flashline_events_dropped_total",
			"Total events dropped on full subscriber channels", "counter", r.EventsDropped.Load())

		// ── live gauges ───────────────────────────────────────────────────────
		writeScalar(&b, "flashline_buffer_length",
			"Current number of buffered entries", "gauge", r.BufferLength.Load())
		writeScalar(&b, "flashline_wait_queue_depth",
			"Current number of entries waiting for the display", "gauge", r.WaitDepth.Load())

		// ── preset counters ───────────────────────────────────────────────────
		writeFamily(&b, "flashline_preset_submissions_total",
			"Total submissions through each named preset", "counter",
			func(fn func(labels, val string)) {
				r.PresetUsed.Each(func(key string, val int64) {
					fn(fmt.Sprintf(`preset=%q`, key), fmt.Sprintf("%d", val))
				})
			})

		// ── HTTP counters ─────────────────────────────────────────────────────
		writeFamily(&b, "flashline_http_requests_total",
			"Total HTTP requests by method, path, and status code", "counter",
			func(fn func(labels, val string)) {
				r.HTTPReqs.Each(func(key string, val int64) {
					method, path, status := splitThree(key)
					fn(fmt.Sprintf(`method=%q,path=%q,status=%q`, method, path, status),
						fmt.Sprintf("%d", val))
				})
			})

		writeFamily(&b, "flashline_http_request_duration_milliseconds_sum",
			"Sum of HTTP request durations in milliseconds", "counter",
			func(fn func(labels, val string)) {
				r.HTTPDurMs.Each(func(key string, val int64) {
					method, path := splitTwo(key)
					fn(fmt.Sprintf(`method=%q,path=%q`, method, path),
						fmt.Sprintf("%d", val))
				})
			})

		writeFamily(&b, "flashline_http_request_duration_milliseconds_count",
			"Count of observed HTTP request durations", "counter",
			func(fn func(labels, val string)) {
				r.HTTPDurCnt.Each(func(key string, val int64) {
					method, path := splitTwo(key)
					fn(fmt.Sprintf(`method=%q,path=%q`, method, path),
						fmt.Sprintf("%d", val))
				})
			})

		fmt.Fprint(w, b.String())
	})
}

// ─── helpers ──────────────────────────────────────────────────────────────────

// writeScalar writes a metric family with a single unlabeled series. Scalar
// families always render, even at zero, so scrapes see a stable set.
func writeScalar(b *strings.Builder, name, help, typ string, val int64) {
	fmt.Fprintf(b, "# HELP %s %s\n", name, help)
	fmt.Fprintf(b, "# TYPE %s %s\n", name, typ)
	fmt.Fprintf(b, "%s %d\n", name, val)
}

// writeFamily writes a single labeled Prometheus metric family to b.
// fill is called with a writer function that appends individual label+value lines.
func writeFamily(
	b *strings.Builder,
	name, help, typ string,
	fill func(fn func(labels, val string)),
) {
	// Buffer individual metric lines so we can skip the header when empty.
	var lines []string
	fill(func(labels, val string) {
		lines = append(lines, fmt.Sprintf("%s{%s} %s\n", name, labels, val))
	})
	if len(lines) == 0 {
		return
	}
	fmt.Fprintf(b, "# HELP %s %s\n", name, help)
	fmt.Fprintf(b, "# TYPE %s %s\n", name, typ)
	for _, l := range lines {
		b.WriteString(l)
	}
}

// splitTwo splits a tab-delimited key of the form "a\tb" into (a, b).
// If there is no tab, the whole string is returned as the first component.
func splitTwo(key string) (string, string) {
	i := strings.IndexByte(key, '\t')
	if i < 0 {
		return key, ""
	}
	return key[:i], key[i+1:]
}

// splitThree splits a tab-delimited key "a\tb\tc" into (a, b, c).
func splitThree(key string) (string, string, string) {
	a, rest := splitTwo(key)
	b, c := splitTwo(rest)
	return a, b, c
}

// ─── Convenience key builders ─────────────────────────────────────────────────

// HTTPKey builds the label key used by HTTPReqs.
func HTTPKey(method, path, status string) string {
	return method + "\t" + path + "\t" + status
}

// HTTPDurKey builds the label key used by HTTPDurMs / HTTPDurCnt.
func HTTPDurKey(method, path string) string {
	return method + "\t" + path
}
