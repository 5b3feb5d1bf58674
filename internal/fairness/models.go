// Package fairness computes group fairness metrics over the decisions on the
// governance ledger and checks them against configured thresholds.
package fairness

// Status classifies one metric evaluation.
type Status string

const (
	// StatusPass means the metric is within its configured threshold.
	StatusPass Status = "pass"

	// StatusViolation means the metric breached its threshold.
	StatusViolation Status = "violation"

	// StatusUndefined means the metric has no defined value for this
	// population, e.g. a ratio whose denominator is zero.
	StatusUndefined Status = "undefined"

	// StatusNotComputable means required inputs are missing entirely,
	// e.g. equal opportunity without any ground-truth labels.
	StatusNotComputable Status = "not_computable"
)

// Metric names as they appear in reports.
const (
	MetricDemographicParity = "demographic_parity_difference"
	MetricDisparateImpact   = "disparate_impact_ratio"
	MetricEqualOpportunity  = "equal_opportunity_difference"
)

// MetricResult is one metric evaluated for one protected attribute. Value is
// always serialized: a computed zero is a real result, distinct from
// not_computable.
type MetricResult struct {
	Metric    string  `json:"metric"`
	Value     float64 `json:"value"`
	Threshold float64 `json:"threshold"`
	Status    Status  `json:"status"`
}

// GroupSummary is the per-group population behind the metrics.
type GroupSummary struct {
	Total         int     `json:"total"`
	Favorable     int     `json:"favorable"`
	FavorableRate float64 `json:"favorable_rate"`

	// Labeled counts records with ground truth; TruePositiveRate is only
	// meaningful when Qualified is positive.
	Labeled          int     `json:"labeled,omitempty"`
	Qualified        int     `json:"qualified,omitempty"`
	TruePositiveRate float64 `json:"true_positive_rate,omitempty"`
}

// AttributeReport is the full evaluation for one protected attribute.
type AttributeReport struct {
	Attribute string                  `json:"attribute"`
	Groups    map[string]GroupSummary `json:"groups"`
	Metrics   []MetricResult          `json:"metrics"`
}

// Window bounds a report to decisions whose entry timestamp falls inside
// [From, To], epoch milliseconds inclusive. A zero bound is open; the zero
// Window covers the whole ledger. Overrides follow the decision they amend,
// so a decision inside the window counts with its effective disposition even
// when the override landed later.
type Window struct {
	From int64 `json:"from,omitempty"`
	To   int64 `json:"to,omitempty"`
}

// Contains reports whether the epoch-millis timestamp falls in the window.
func (w Window) Contains(ts int64) bool {
	if w.From != 0 && ts < w.From {
		return false
	}
	if w.To != 0 && ts > w.To {
		return false
	}
	return true
}

// ViolationExplanation describes one metric that needs attention, in terms a
// compliance reviewer can act on: which attribute, which groups, and how far
// past the threshold the value landed. Undefined metrics appear here too; a
// ratio nobody can compute is a finding, not a pass.
type ViolationExplanation struct {
	Attribute string   `json:"attribute"`
	Metric    string   `json:"metric"`
	Value     float64  `json:"value"`
	Threshold float64  `json:"threshold"`
	Status    Status   `json:"status"`
	Groups    []string `json:"groups"`
	Summary   string   `json:"summary"`
}

// Report is the complete fairness report across all configured attributes.
// Explanations are ordered by configured attribute, then metric.
type Report struct {
	GeneratedAt  int64                      `json:"generated_at"`
	Window       Window                     `json:"window"`
	SampleSize   int                        `json:"sample_size"`
	Attributes   map[string]AttributeReport `json:"attributes"`
	Violations   int                        `json:"violations"`
	Explanations []ViolationExplanation     `json:"violation_explanations"`
}
