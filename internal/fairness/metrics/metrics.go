package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the fairness module.
type Metrics struct {
	MetricValue *prometheus.GaugeVec
	Violations  prometheus.Gauge
	Reports     prometheus.Counter
	CacheHits   prometheus.Counter
	CacheMisses prometheus.Counter
}

// New creates a new Metrics instance with all fairness module metrics registered.
func New() *Metrics {
	return &Metrics{
		MetricValue: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "fairlend_fairness_metric_value",
			Help: "Latest computed fairness metric value per attribute",
		}, []string{"attribute", "metric"}),

		Violations: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "fairlend_fairness_violations",
			Help: "Number of threshold violations in the latest report",
		}),

		Reports: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fairlend_fairness_reports_total",
			Help: "Total fairness report computations",
		}),

		CacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fairlend_fairness_cache_hits_total",
			Help: "Total fairness report cache hits",
		}),

		CacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fairlend_fairness_cache_misses_total",
			Help: "Total fairness report cache misses",
		}),
	}
}

// SetMetricValue records a computed metric value.
func (m *Metrics) SetMetricValue(attribute, metric string, value float64) {
	if m != nil {
		m.MetricValue.WithLabelValues(attribute, metric).Set(value)
	}
}

// SetViolations records the violation count of the latest report.
func (m *Metrics) SetViolations(n int) {
	if m != nil {
		m.Violations.Set(float64(n))
	}
}

// IncReport records a report computation.
func (m *Metrics) IncReport() {
	if m != nil {
		m.Reports.Inc()
	}
}

// IncCacheHit records a cache hit.
func (m *Metrics) IncCacheHit() {
	if m != nil {
		m.CacheHits.Inc()
	}
}

// IncCacheMiss records a cache miss.
func (m *Metrics) IncCacheMiss() {
	if m != nil {
		m.CacheMisses.Inc()
	}
}
