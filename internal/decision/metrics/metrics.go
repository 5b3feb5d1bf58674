package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the decision module.
type Metrics struct {
	Recorded   *prometheus.CounterVec
	TrailReads prometheus.Counter
}

// New creates a new Metrics instance with all decision module metrics registered.
func New() *Metrics {
	return &Metrics{
		Recorded: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "fairlend_decisions_recorded_total",
			Help: "Total decisions recorded on the ledger by outcome",
		}, []string{"outcome"}),

		TrailReads: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fairlend_decision_trail_reads_total",
			Help: "Total per-application trail reads",
		}),
	}
}

// IncRecorded records a decision append.
func (m *Metrics) IncRecorded(outcome string) {
	if m != nil {
		m.Recorded.WithLabelValues(outcome).Inc()
	}
}

// IncTrailRead records a trail read.
func (m *Metrics) IncTrailRead() {
	if m != nil {
		m.TrailReads.Inc()
	}
}
