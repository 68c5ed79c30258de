package metrics_test

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sneh-joshi/flashline/internal/metrics"
)

func scrape(t *testing.T, r *metrics.Registry) string {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	r.Handler().ServeHTTP(rec, req)

	res := rec.Result()
	defer res.Body.Close()
	if res.StatusCode != 200 {
		t.Fatalf("status = %d", res.StatusCode)
	}
	if ct := res.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Fatalf("content type = %q", ct)
	}
	body, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatal(err)
	}
	return string(body)
}

func TestHandler_RendersBarCounters(t *testing.T) {
	r := &metrics.Registry{}
	r.Submitted.Add(7)
	r.Queued.Add(2)
	r.Evicted.Add(1)
	r.BufferLength.Store(42)
	r.WaitDepth.Store(3)

	body := scrape(t, r)

	for _, want := range []string{
		"flashline_messages_submitted_total 7",
		"flashline_messages_queued_total 2",
		"flashline_messages_evicted_total 1",
		"flashline_buffer_length 42",
		"flashline_wait_queue_depth 3",
		"# TYPE flashline_buffer_length gauge",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("output missing %q\n%s", want, body)
		}
	}
}

func TestHandler_ScalarsRenderAtZero(t *testing.T) {
	body := scrape(t, &metrics.Registry{})
	if !strings.Contains(body, "flashline_messages_submitted_total 0") {
		t.Errorf("zero-valued scalar family missing:\n%s", body)
	}
}

func TestHandler_RendersLabeledSeries(t *testing.T) {
	r := &metrics.Registry{}
	r.PresetUsed.Inc("error")
	r.PresetUsed.Add("warning", 3)
	r.HTTPReqs.Inc(metrics.HTTPKey("POST", "/api/v1/messages", "202"))
	r.HTTPDurMs.Add(metrics.HTTPDurKey("POST", "/api/v1/messages"), 12)
	r.HTTPDurCnt.Inc(metrics.HTTPDurKey("POST", "/api/v1/messages"))

	body := scrape(t, r)

	for _, want := range []string{
		`flashline_preset_submissions_total{preset="error"} 1`,
		`flashline_preset_submissions_total{preset="warning"} 3`,
		`flashline_http_requests_total{method="POST",path="/api/v1/messages",status="202"} 1`,
		`flashline_http_request_duration_milliseconds_sum{method="POST",path="/api/v1/messages"} 12`,
		`flashline_http_request_duration_milliseconds_count{method="POST",path="/api/v1/messages"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("output missing %q\n%s", want, body)
		}
	}
}

func TestHandler_SkipsEmptyLabeledFamilies(t *testing.T) {
	body := scrape(t, &metrics.Registry{})
	if strings.Contains(body, "flashline_http_requests_total") {
		t.Errorf("empty labeled family rendered:\n%s", body)
	}
}
