package obs

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestPromMeterCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewPromMeter(reg)

	m.Counter("test_requests_total", 1, Label{Key: "method", Value: "GET"})
	m.Counter("test_requests_total", 1, Label{Key: "method", Value: "GET"})
	m.Counter("test_requests_total", 1, Label{Key: "method", Value: "HEAD"})

	cv := m.counters["test_requests_total"]
	if cv == nil {
		t.Fatal("counter vec not created")
	}
	if got := testutil.ToFloat64(cv.WithLabelValues("GET")); got != 2 {
		t.Fatalf("GET count = %v, want 2", got)
	}
	if got := testutil.ToFloat64(cv.WithLabelValues("HEAD")); got != 1 {
		t.Fatalf("HEAD count = %v, want 1", got)
	}
}

func TestPromMeterReusesVecAcrossInstances(t *testing.T) {
	// Two meters on one registry must converge on the same collector
	// instead of failing the duplicate registration.
	reg := prometheus.NewRegistry()
	a := NewPromMeter(reg)
	b := NewPromMeter(reg)

	a.Counter("test_shared_total", 1)
	b.Counter("test_shared_total", 1)

	if got := testutil.ToFloat64(b.counters["test_shared_total"].WithLabelValues()); got != 2 {
		t.Fatalf("shared count = %v, want 2", got)
	}
}

func TestPromMeterHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewPromMeter(reg)

	m.Histogram("test_seconds", 0.5)
	m.Histogram("test_seconds", 1.5)

	if m.hists["test_seconds"] == nil {
		t.Fatal("histogram vec not created")
	}
	if got := testutil.CollectAndCount(m.hists["test_seconds"]); got != 1 {
		t.Fatalf("histogram series = %d, want 1", got)
	}
}
