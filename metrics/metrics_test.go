package metrics_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/zephyrtronium/noad/metrics"
)

func TestObservers(t *testing.T) {
	cnt := metrics.NewPromCounter(prometheus.NewCounter(prometheus.CounterOpts{Name: "c"}))
	gauge := metrics.NewPromGauge(prometheus.NewGauge(prometheus.GaugeOpts{Name: "g"}))
	vec := metrics.NewPromObserverVec(prometheus.NewHistogramVec(prometheus.HistogramOpts{Name: "h"}, []string{"command"}))
	hist := metrics.NewPromHistogram(prometheus.NewHistogram(prometheus.HistogramOpts{Name: "l"}))
	reg := prometheus.NewRegistry()
	reg.MustRegister(cnt, gauge, vec, hist)
	cnt.Observe(1)
	cnt.Observe(2)
	gauge.Observe(5)
	gauge.Observe(3)
	vec.Observe(0.5, "ping")
	vec.Observe(0.25, "ping")
	vec.Observe(0.25, "join")
	hist.Observe(1)
	mfs, err := reg.Gather()
	if err != nil {
		t.Fatal(err)
	}
	if len(mfs) != 4 {
		t.Fatalf("wrong number of metric families: want 4, got %d", len(mfs))
	}
	for _, mf := range mfs {
		m := mf.GetMetric()
		switch mf.GetName() {
		case "c":
			if got := m[0].GetCounter().GetValue(); got != 3 {
				t.Errorf("wrong counter value: want 3, got %v", got)
			}
		case "g":
			if got := m[0].GetGauge().GetValue(); got != 3 {
				t.Errorf("wrong gauge value: want 3, got %v", got)
			}
		case "h":
			if len(m) != 2 {
				t.Errorf("wrong number of histogram series: want 2, got %d", len(m))
			}
		case "l":
			if got := m[0].GetHistogram().GetSampleCount(); got != 1 {
				t.Errorf("wrong histogram count: want 1, got %d", got)
			}
		default:
			t.Errorf("unexpected metric %q", mf.GetName())
		}
	}
}
