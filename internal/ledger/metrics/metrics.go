package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the ledger module.
type Metrics struct {
	// Appends by entry type
	Appends *prometheus.CounterVec

	// Tail races lost (each one triggers a retry)
	AppendConflicts prometheus.Counter

	// End-to-end append latency including retries
	AppendLatency prometheus.Histogram

	// Chain verification runs
	VerifyRuns prometheus.Counter

	// 1 while the compromised latch is set
	ChainBroken prometheus.Gauge
}

// New creates a new Metrics instance with all ledger module metrics registered.
func New() *Metrics {
	return &Metrics{
		Appends: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "fairlend_ledger_appends_total",
			Help: "Total ledger entries appended by entry type",
		}, []string{"entry_type"}),

		AppendConflicts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fairlend_ledger_append_conflicts_total",
			Help: "Total appends that lost a tail race and retried",
		}),

		AppendLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "fairlend_ledger_append_duration_seconds",
			Help:    "Duration of ledger appends including conflict retries",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),

		VerifyRuns: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fairlend_ledger_verify_runs_total",
			Help: "Total chain verification walks",
		}),

		ChainBroken: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "fairlend_ledger_chain_broken",
			Help: "1 when chain verification has detected tampering and the store refuses writes",
		}),
	}
}

// IncAppend records a successful append.
func (m *Metrics) IncAppend(entryType string) {
	if m != nil {
		m.Appends.WithLabelValues(entryType).Inc()
	}
}

// IncAppendConflict records a lost tail race.
func (m *Metrics) IncAppendConflict() {
	if m != nil {
		m.AppendConflicts.Inc()
	}
}

// ObserveAppendLatency records the duration of a completed append.
func (m *Metrics) ObserveAppendLatency(d time.Duration) {
	if m != nil {
		m.AppendLatency.Observe(d.Seconds())
	}
}

// IncVerifyRun records a chain verification walk.
func (m *Metrics) IncVerifyRun() {
	if m != nil {
		m.VerifyRuns.Inc()
	}
}

// SetChainBroken reflects the compromised latch state.
func (m *Metrics) SetChainBroken(broken bool) {
	if m != nil {
		if broken {
			m.ChainBroken.Set(1)
		} else {
			m.ChainBroken.Set(0)
		}
	}
}
