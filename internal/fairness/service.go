package fairness

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"fairlend/internal/decision"
	"fairlend/internal/fairness/metrics"
	"fairlend/internal/ledger"
	"fairlend/internal/platform/config"
	dErrors "fairlend/pkg/domain-errors"
)

// Ledger is the slice of the ledger service the fairness module needs.
type Ledger interface {
	Snapshot(ctx context.Context) ([]ledger.Entry, error)
}

// Service computes fairness reports over the effective dispositions on the
// ledger. Overrides count: an overturned denial is an approval for metric
// purposes, because that is the outcome the applicant experienced.
type Service struct {
	ledger  Ledger
	cfg     config.FairnessConfig
	cache   *Cache
	logger  *slog.Logger
	metrics *metrics.Metrics
	clock   func() time.Time
}

func NewService(l Ledger, cfg config.FairnessConfig, cache *Cache, logger *slog.Logger, m *metrics.Metrics) *Service {
	return &Service{
		ledger:  l,
		cfg:     cfg,
		cache:   cache,
		logger:  logger,
		metrics: m,
		clock:   time.Now,
	}
}

// WithClock overrides the clock for tests.
func (s *Service) WithClock(clock func() time.Time) *Service {
	s.clock = clock
	return s
}

// Report returns the fairness report for the given window, from cache when
// fresh enough. refresh forces a recompute. The zero window covers the whole
// ledger.
func (s *Service) Report(ctx context.Context, window Window, refresh bool) (Report, error) {
	if window.From < 0 || window.To < 0 || (window.To != 0 && window.From > window.To) {
		return Report{}, dErrors.New(dErrors.CodeBadRequest, "window bounds must be ordered epoch milliseconds")
	}

	if refresh {
		s.cache.Invalidate(ctx, window)
	} else if report, ok := s.cache.Get(ctx, window); ok {
		s.metrics.IncCacheHit()
		return report, nil
	}
	s.metrics.IncCacheMiss()

	entries, err := s.ledger.Snapshot(ctx)
	if err != nil {
		return Report{}, err
	}
	state, err := decision.Replay(entries)
	if err != nil {
		return Report{}, dErrors.Wrap(dErrors.CodeInternal, "replay ledger", err)
	}

	resolved := make([]decision.Resolved, 0, len(state))
	for _, r := range state {
		if window.Contains(r.Timestamp) {
			resolved = append(resolved, r)
		}
	}

	thresholds := Thresholds{
		DemographicParityDifference: s.cfg.Thresholds.DemographicParityDifference,
		DisparateImpactRatio:        s.cfg.Thresholds.DisparateImpactRatio,
		EqualOpportunityDifference:  s.cfg.Thresholds.EqualOpportunityDifference,
	}

	var (
		mu         sync.Mutex
		attributes = make(map[string]AttributeReport, len(s.cfg.ProtectedAttributes))
	)
	g, gctx := errgroup.WithContext(ctx)
	for _, attribute := range s.cfg.ProtectedAttributes {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			report := Evaluate(attribute, observations(resolved, attribute), thresholds)
			mu.Lock()
			attributes[attribute] = report
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Report{}, err
	}

	report := Report{
		GeneratedAt: s.clock().UnixMilli(),
		Window:      window,
		SampleSize:  len(resolved),
		Attributes:  attributes,
	}
	// Configured attribute order keeps explanations deterministic.
	for _, name := range s.cfg.ProtectedAttributes {
		attrReport := attributes[name]
		for _, m := range attrReport.Metrics {
			switch m.Status {
			case StatusViolation, StatusUndefined:
				// An undefined ratio still needs attention; it means nobody in
				// the window got a favorable outcome.
				report.Violations++
				report.Explanations = append(report.Explanations, explain(attrReport, m))
			}
			if m.Status == StatusPass || m.Status == StatusViolation {
				s.metrics.SetMetricValue(attrReport.Attribute, m.Metric, m.Value)
			}
		}
	}
	s.metrics.SetViolations(report.Violations)
	s.metrics.IncReport()

	if report.Violations > 0 {
		s.logger.WarnContext(ctx, "fairness thresholds violated",
			"violations", report.Violations,
			"sample_size", report.SampleSize,
		)
	}

	if err := s.cache.Set(ctx, window, report); err != nil {
		s.logger.WarnContext(ctx, "fairness report cache write failed", "error", err)
	}
	return report, nil
}

// explain phrases one violated or undefined metric for a compliance report.
func explain(attr AttributeReport, m MetricResult) ViolationExplanation {
	e := ViolationExplanation{
		Attribute: attr.Attribute,
		Metric:    m.Metric,
		Value:     m.Value,
		Threshold: m.Threshold,
		Status:    m.Status,
		Groups:    affectedGroups(attr, m.Metric),
	}
	switch {
	case m.Status == StatusUndefined:
		e.Summary = fmt.Sprintf("%s: %s is undefined because no group received a favorable outcome", attr.Attribute, m.Metric)
	case m.Metric == MetricDisparateImpact:
		e.Summary = fmt.Sprintf("%s: favorable rate ratio %.4f is below threshold %.4f", attr.Attribute, m.Value, m.Threshold)
	case m.Metric == MetricEqualOpportunity:
		e.Summary = fmt.Sprintf("%s: true positive rate spread %.4f exceeds threshold %.4f", attr.Attribute, m.Value, m.Threshold)
	default:
		e.Summary = fmt.Sprintf("%s: favorable rate spread %.4f exceeds threshold %.4f", attr.Attribute, m.Value, m.Threshold)
	}
	return e
}

// affectedGroups lists the groups the metric compared, sorted. Equal
// opportunity only compares groups with ground-truth qualified members.
func affectedGroups(attr AttributeReport, metric string) []string {
	names := make([]string, 0, len(attr.Groups))
	for name, g := range attr.Groups {
		if metric == MetricEqualOpportunity && g.Qualified == 0 {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// observations projects resolved decisions onto one protected attribute.
// Records that do not carry the attribute are excluded; an absent value is
// not a group.
func observations(resolved []decision.Resolved, attribute string) []Observation {
	out := make([]Observation, 0, len(resolved))
	for _, r := range resolved {
		group, ok := r.Record.ProtectedAttributes[attribute]
		if !ok || group == "" {
			continue
		}
		out = append(out, Observation{
			Group:     group,
			Favorable: r.Disposition.IsApproved(),
			Qualified: r.Record.Qualified,
		})
	}
	return out
}
