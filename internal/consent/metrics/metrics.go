package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the consent module.
type Metrics struct {
	Changes *prometheus.CounterVec
}

// New creates a new Metrics instance with all consent module metrics registered.
func New() *Metrics {
	return &Metrics{
		Changes: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "fairlend_consent_changes_total",
			Help: "Total consent toggles recorded, labeled by category and direction",
		}, []string{"category", "granted"}),
	}
}

// IncChange records a consent toggle.
func (m *Metrics) IncChange(category string, granted bool) {
	if m != nil {
		direction := "revoked"
		if granted {
			direction = "granted"
		}
		m.Changes.WithLabelValues(category, direction).Inc()
	}
}
