package metrics

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var invalidMetricChars = regexp.MustCompile(`[^a-zA-Z0-9_]`)

// PromRecorder registers one collector per metric name on first use. Counts become counters,
// values gauges and latencies histograms in seconds.
type PromRecorder struct {
	namespace  string
	registerer prometheus.Registerer

	mu         sync.Mutex
	counters   map[string]*prometheus.CounterVec
	gauges     map[string]*prometheus.GaugeVec
	histograms map[string]*prometheus.HistogramVec
}

func NewPromRecorder(namespace string, registerer prometheus.Registerer) *PromRecorder {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	return &PromRecorder{
		namespace:  sanitize(namespace),
		registerer: registerer,
		counters:   make(map[string]*prometheus.CounterVec),
		gauges:     make(map[string]*prometheus.GaugeVec),
		histograms: make(map[string]*prometheus.HistogramVec),
	}
}

func (p *PromRecorder) RecordCount(_ context.Context, name string, dims map[string]string) error {
	keys, values := labels(dims)
	p.mu.Lock()
	defer p.mu.Unlock()

	id := name + "|" + strings.Join(keys, ",")
	vec, ok := p.counters[id]
	if !ok {
		vec = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Name:      sanitize(name) + "_total",
			Help:      name,
		}, keys)
		if err := p.registerer.Register(vec); err != nil {
			return err
		}
		p.counters[id] = vec
	}
	vec.WithLabelValues(values...).Inc()
	return nil
}

func (p *PromRecorder) RecordValue(_ context.Context, name string, value float64, dims map[string]string) error {
	keys, values := labels(dims)
	p.mu.Lock()
	defer p.mu.Unlock()

	id := name + "|" + strings.Join(keys, ",")
	vec, ok := p.gauges[id]
	if !ok {
		vec = prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: p.namespace,
			Name:      sanitize(name),
			Help:      name,
		}, keys)
		if err := p.registerer.Register(vec); err != nil {
			return err
		}
		p.gauges[id] = vec
	}
	vec.WithLabelValues(values...).Set(value)
	return nil
}

func (p *PromRecorder) RecordLatency(_ context.Context, name string, d time.Duration, dims map[string]string) error {
	keys, values := labels(dims)
	p.mu.Lock()
	defer p.mu.Unlock()

	id := name + "|" + strings.Join(keys, ",")
	vec, ok := p.histograms[id]
	if !ok {
		vec = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Name:      sanitize(name) + "_seconds",
			Help:      name,
			Buckets:   prometheus.DefBuckets,
		}, keys)
		if err := p.registerer.Register(vec); err != nil {
			return err
		}
		p.histograms[id] = vec
	}
	vec.WithLabelValues(values...).Observe(d.Seconds())
	return nil
}

func labels(dims map[string]string) ([]string, []string) {
	keys := make([]string, 0, len(dims))
	for k := range dims {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	names := make([]string, len(keys))
	values := make([]string, len(keys))
	for i, k := range keys {
		names[i] = strings.ToLower(sanitize(k))
		values[i] = dims[k]
	}
	return names, values
}

func sanitize(s string) string {
	return invalidMetricChars.ReplaceAllString(s, "_")
}
