package obs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Label is a key/value pair attached to measurements.
type Label struct {
	Key   string
	Value string
}

// Meter is a very small interface for emitting counters/histograms.
// Implementations may no-op or bridge to a metrics system.
type Meter interface {
	Counter(name string, value float64, labels ...Label)
	Histogram(name string, value float64, labels ...Label)
}

// NopMeter is a Meter that discards all measurements.
type NopMeter struct{}

func (NopMeter) Counter(name string, value float64, labels ...Label)   {}
func (NopMeter) Histogram(name string, value float64, labels ...Label) {}

// PromMeter bridges Meter to a Prometheus registry. Metric vectors are
// created lazily from the label keys of the first observation for each
// name; later observations for that name must carry the same label keys.
type PromMeter struct {
	reg      prometheus.Registerer
	mu       sync.Mutex
	counters map[string]*prometheus.CounterVec
	hists    map[string]*prometheus.HistogramVec
}

// NewPromMeter returns a PromMeter registering on reg; nil means the
// default registerer.
func NewPromMeter(reg prometheus.Registerer) *PromMeter {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	return &PromMeter{
		reg:      reg,
		counters: make(map[string]*prometheus.CounterVec),
		hists:    make(map[string]*prometheus.HistogramVec),
	}
}

func (m *PromMeter) Counter(name string, value float64, labels ...Label) {
	keys, values := splitLabels(labels)
	m.mu.Lock()
	cv, ok := m.counters[name]
	if !ok {
		cv = prometheus.NewCounterVec(prometheus.CounterOpts{Name: name}, keys)
		if err := m.reg.Register(cv); err != nil {
			if are, isDup := err.(prometheus.AlreadyRegisteredError); isDup {
				if existing, match := are.ExistingCollector.(*prometheus.CounterVec); match {
					cv = existing
				}
			}
		}
		m.counters[name] = cv
	}
	m.mu.Unlock()
	if c, err := cv.GetMetricWith(values); err == nil {
		c.Add(value)
	}
}

func (m *PromMeter) Histogram(name string, value float64, labels ...Label) {
	keys, values := splitLabels(labels)
	m.mu.Lock()
	hv, ok := m.hists[name]
	if !ok {
		hv = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    name,
			Buckets: prometheus.DefBuckets,
		}, keys)
		if err := m.reg.Register(hv); err != nil {
			if are, isDup := err.(prometheus.AlreadyRegisteredError); isDup {
				if existing, match := are.ExistingCollector.(*prometheus.HistogramVec); match {
					hv = existing
				}
			}
		}
		m.hists[name] = hv
	}
	m.mu.Unlock()
	if h, err := hv.GetMetricWith(values); err == nil {
		h.Observe(value)
	}
}

func splitLabels(labels []Label) ([]string, prometheus.Labels) {
	keys := make([]string, 0, len(labels))
	values := make(prometheus.Labels, len(labels))
	for _, l := range labels {
		keys = append(keys, l.Key)
		values[l.Key] = l.Value
	}
	return keys, values
}
