package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the override module.
type Metrics struct {
	Applied  *prometheus.CounterVec
	Rejected *prometheus.CounterVec
}

// New creates a new Metrics instance with all override module metrics registered.
func New() *Metrics {
	return &Metrics{
		Applied: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "fairlend_overrides_applied_total",
			Help: "Total disposition overrides applied, labeled by transition",
		}, []string{"prior", "new"}),

		Rejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "fairlend_overrides_rejected_total",
			Help: "Total override requests rejected, labeled by cause",
		}, []string{"cause"}),
	}
}

// IncApplied records an accepted override.
func (m *Metrics) IncApplied(prior, next string) {
	if m != nil {
		m.Applied.WithLabelValues(prior, next).Inc()
	}
}

// IncRejected records a rejected override request.
func (m *Metrics) IncRejected(cause string) {
	if m != nil {
		m.Rejected.WithLabelValues(cause).Inc()
	}
}
