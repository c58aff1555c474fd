package metrics

import (
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveRun(t *testing.T) {
	m := New()
	m.ObserveRun(ResultSuccess, 20*time.Millisecond, 5, 100)
	m.ObserveRun(ResultError, time.Millisecond, 0, 0)

	if got := testutil.ToFloat64(m.records); got != 100 {
		t.Fatalf("records = %v, want 100", got)
	}
	if got := testutil.ToFloat64(m.runs.WithLabelValues(ResultError)); got != 1 {
		t.Fatalf("error runs = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.gridEntries); got != 5 {
		t.Fatalf("grid entries = %v, want 5", got)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveRun(ResultSuccess, time.Second, 1, 1)
	if err := m.WriteTextfile("ignored.prom"); err != nil {
		t.Fatalf("nil WriteTextfile: %v", err)
	}
	if m.Registry() != nil {
		t.Fatalf("expected nil registry")
	}
}

func TestWriteTextfileAndHandler(t *testing.T) {
	m := New()
	m.ObserveRun(ResultSuccess, time.Millisecond, 1, 2)

	path := filepath.Join(t.TempDir(), "propgen.prom")
	if err := m.WriteTextfile(path); err != nil {
		t.Fatalf("write textfile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read textfile: %v", err)
	}
	if !strings.Contains(string(data), "propgen_records_generated_total 2") {
		t.Fatalf("textfile missing counter:\n%s", data)
	}

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if rec.Code != 200 || !strings.Contains(rec.Body.String(), "propgen_runs_total") {
		t.Fatalf("unexpected /metrics response %d:\n%s", rec.Code, rec.Body.String())
	}
}
