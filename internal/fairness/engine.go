package fairness

import "sort"

// Observation is one decision projected onto a single protected attribute.
// Favorable reflects the effective disposition, overrides included; an
// overturned denial counts as an approval.
type Observation struct {
	Group     string
	Favorable bool

	// Qualified is the ground-truth label when known, nil otherwise.
	Qualified *bool
}

// groupStats accumulates per-group counts.
type groupStats struct {
	total        int
	favorable    int
	labeled      int
	qualified    int
	truePositive int
}

func accumulate(observations []Observation) map[string]*groupStats {
	groups := make(map[string]*groupStats)
	for _, o := range observations {
		g := groups[o.Group]
		if g == nil {
			g = &groupStats{}
			groups[o.Group] = g
		}
		g.total++
		if o.Favorable {
			g.favorable++
		}
		if o.Qualified != nil {
			g.labeled++
			if *o.Qualified {
				g.qualified++
				if o.Favorable {
					g.truePositive++
				}
			}
		}
	}
	return groups
}

// Evaluate computes all three metrics for one attribute's observations.
// Groups with zero population never appear; they are indistinguishable from
// groups that do not exist.
func Evaluate(attribute string, observations []Observation, thresholds Thresholds) AttributeReport {
	groups := accumulate(observations)

	report := AttributeReport{
		Attribute: attribute,
		Groups:    make(map[string]GroupSummary, len(groups)),
	}
	for name, g := range groups {
		summary := GroupSummary{
			Total:         g.total,
			Favorable:     g.favorable,
			FavorableRate: float64(g.favorable) / float64(g.total),
			Labeled:       g.labeled,
			Qualified:     g.qualified,
		}
		if g.qualified > 0 {
			summary.TruePositiveRate = float64(g.truePositive) / float64(g.qualified)
		}
		report.Groups[name] = summary
	}

	report.Metrics = []MetricResult{
		demographicParity(groups, thresholds.DemographicParityDifference),
		disparateImpact(groups, thresholds.DisparateImpactRatio),
		equalOpportunity(groups, thresholds.EqualOpportunityDifference),
	}
	return report
}

// Thresholds are the configured limits per metric.
type Thresholds struct {
	// DemographicParityDifference is the maximum allowed spread between the
	// highest and lowest group approval rate.
	DemographicParityDifference float64

	// DisparateImpactRatio is the minimum allowed ratio of the lowest group
	// approval rate to the highest (the four-fifths rule at 0.8).
	DisparateImpactRatio float64

	// EqualOpportunityDifference is the maximum allowed spread between group
	// true positive rates.
	EqualOpportunityDifference float64
}

// favorableRates returns group approval rates in a deterministic order.
func favorableRates(groups map[string]*groupStats) []float64 {
	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)

	rates := make([]float64, 0, len(names))
	for _, name := range names {
		g := groups[name]
		rates = append(rates, float64(g.favorable)/float64(g.total))
	}
	return rates
}

func minMax(values []float64) (min, max float64) {
	min, max = values[0], values[0]
	for _, v := range values[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return min, max
}

// demographicParity measures the spread between the highest and lowest group
// approval rate. With fewer than two groups there is nothing to compare.
func demographicParity(groups map[string]*groupStats, threshold float64) MetricResult {
	result := MetricResult{Metric: MetricDemographicParity, Threshold: threshold}
	if len(groups) < 2 {
		result.Status = StatusNotComputable
		return result
	}

	min, max := minMax(favorableRates(groups))
	result.Value = max - min
	result.Status = StatusPass
	if result.Value > threshold {
		result.Status = StatusViolation
	}
	return result
}

// disparateImpact measures the ratio of the lowest group approval rate to the
// highest. Undefined when no group was ever approved.
func disparateImpact(groups map[string]*groupStats, threshold float64) MetricResult {
	result := MetricResult{Metric: MetricDisparateImpact, Threshold: threshold}
	if len(groups) < 2 {
		result.Status = StatusNotComputable
		return result
	}

	min, max := minMax(favorableRates(groups))
	if max == 0 {
		result.Status = StatusUndefined
		return result
	}

	result.Value = min / max
	result.Status = StatusPass
	if result.Value < threshold {
		result.Status = StatusViolation
	}
	return result
}

// equalOpportunity measures the spread between group true positive rates:
// of the applicants who were actually qualified, how often was each group
// approved. Requires ground truth in at least two groups.
func equalOpportunity(groups map[string]*groupStats, threshold float64) MetricResult {
	result := MetricResult{Metric: MetricEqualOpportunity, Threshold: threshold}

	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)

	var rates []float64
	for _, name := range names {
		g := groups[name]
		if g.qualified > 0 {
			rates = append(rates, float64(g.truePositive)/float64(g.qualified))
		}
	}
	if len(rates) < 2 {
		result.Status = StatusNotComputable
		return result
	}

	min, max := minMax(rates)
	result.Value = max - min
	result.Status = StatusPass
	if result.Value > threshold {
		result.Status = StatusViolation
	}
	return result
}
