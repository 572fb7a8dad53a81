package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
)

func TestPrometheusHandler_ExposesCounters(t *testing.T) {
	m := New()
	m.Inc(Joins)
	m.Inc(Joins)
	m.Inc(SignalsForwarded)

	rec := httptest.NewRecorder()
	PrometheusHandler(m).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	if rec.Code != 200 {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Fatalf("content-type = %q", ct)
	}

	body := rec.Body.String()
	for _, want := range []string{
		"# TYPE openmeet_signal_relay_events_total counter",
		`openmeet_signal_relay_events_total{event="joins"} 2`,
		`openmeet_signal_relay_events_total{event="signals_forwarded"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q:\n%s", want, body)
		}
	}
}

func TestPrometheusHandler_NilMetrics(t *testing.T) {
	rec := httptest.NewRecorder()
	PrometheusHandler(nil).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if rec.Code != 500 {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
}

func TestMetrics_NilReceiverIsSafe(t *testing.T) {
	var m *Metrics
	m.Inc("x")
	if got := m.Get("x"); got != 0 {
		t.Fatalf("Get on nil = %d, want 0", got)
	}
	if snap := m.Snapshot(); snap != nil {
		t.Fatalf("Snapshot on nil = %v, want nil", snap)
	}
}
