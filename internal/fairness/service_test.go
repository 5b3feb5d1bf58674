package fairness

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fairlend/internal/authz"
	"fairlend/internal/decision"
	"fairlend/internal/domain"
	"fairlend/internal/ledger"
	"fairlend/internal/override"
	"fairlend/internal/platform/config"
	id "fairlend/pkg/domain"
	dErrors "fairlend/pkg/domain-errors"
)

type fixture struct {
	fairness  *Service
	decisions *decision.Service
	overrides *override.Service

	// now drives the ledger clock; tests advance it to place decisions at
	// known timestamps.
	now int64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f := &fixture{now: 1_700_000_000_000}

	ledgerSvc := ledger.NewService(ledger.NewMemoryStore(), logger, nil, nil, 3)
	ledgerSvc.WithClock(func() time.Time { return time.UnixMilli(f.now) })
	f.decisions = decision.NewService(ledgerSvc, logger, nil)
	f.overrides = override.NewService(ledgerSvc, f.decisions, authz.NewChecker(), logger, nil)
	f.fairness = NewService(ledgerSvc, config.DefaultGovernance().Fairness, nil, logger, nil)
	return f
}

func (f *fixture) record(t *testing.T, gender string, outcome domain.Disposition) id.ApplicationID {
	t.Helper()
	appID, err := id.ParseApplicationID(uuid.NewString())
	require.NoError(t, err)
	subjectID, err := id.ParseSubjectID(uuid.NewString())
	require.NoError(t, err)

	_, err = f.decisions.Record(context.Background(), domain.DecisionRecord{
		ApplicationID:       appID,
		SubjectID:           subjectID,
		Outcome:             outcome,
		Probability:         0.5,
		ProtectedAttributes: map[string]string{"gender": gender},
	}, domain.SystemActor)
	require.NoError(t, err)
	return appID
}

func genderMetric(t *testing.T, report Report, name string) MetricResult {
	t.Helper()
	attr, ok := report.Attributes["gender"]
	require.True(t, ok)
	for _, m := range attr.Metrics {
		if m.Metric == name {
			return m
		}
	}
	t.Fatalf("metric %s not found", name)
	return MetricResult{}
}

func TestReportCoversConfiguredAttributes(t *testing.T) {
	f := newFixture(t)
	f.record(t, "female", domain.DispositionApproved)
	f.record(t, "male", domain.DispositionApproved)

	report, err := f.fairness.Report(context.Background(), Window{}, false)
	require.NoError(t, err)

	assert.Equal(t, 2, report.SampleSize)
	// All configured attributes appear, even ones no record carries.
	assert.Contains(t, report.Attributes, "gender")
	assert.Contains(t, report.Attributes, "region")
	assert.Contains(t, report.Attributes, "age_group")
	assert.Empty(t, report.Attributes["region"].Groups)
}

func TestReportBalancedPopulationPasses(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 3; i++ {
		f.record(t, "female", domain.DispositionApproved)
		f.record(t, "male", domain.DispositionApproved)
	}
	f.record(t, "female", domain.DispositionDenied)
	f.record(t, "male", domain.DispositionDenied)

	report, err := f.fairness.Report(context.Background(), Window{}, false)
	require.NoError(t, err)

	assert.Equal(t, 0, report.Violations)
	assert.Empty(t, report.Explanations)
	assert.Equal(t, 0.0, genderMetric(t, report, MetricDemographicParity).Value)
	assert.Equal(t, 1.0, genderMetric(t, report, MetricDisparateImpact).Value)
}

func TestReportCountsEffectiveDispositions(t *testing.T) {
	f := newFixture(t)
	// 2/2 female approvals, 0/2 male approvals: clear violation.
	f.record(t, "female", domain.DispositionApproved)
	f.record(t, "female", domain.DispositionApproved)
	deniedApp := f.record(t, "male", domain.DispositionDenied)
	f.record(t, "male", domain.DispositionDenied)

	report, err := f.fairness.Report(context.Background(), Window{}, false)
	require.NoError(t, err)
	assert.Equal(t, StatusViolation, genderMetric(t, report, MetricDemographicParity).Status)

	// Overriding one male denial to approved moves the rate to 1/2.
	admin := domain.Actor{ID: "admin-1", Role: domain.RoleAdmin}
	_, err = f.overrides.Request(context.Background(), deniedApp, domain.DispositionApproved, "manual review", admin)
	require.NoError(t, err)

	report, err = f.fairness.Report(context.Background(), Window{}, false)
	require.NoError(t, err)

	attr := report.Attributes["gender"]
	assert.Equal(t, 0.5, attr.Groups["male"].FavorableRate, "overrides must count as the effective outcome")
	dpd := genderMetric(t, report, MetricDemographicParity)
	assert.InDelta(t, 0.5, dpd.Value, 1e-12)
	assert.Equal(t, StatusViolation, dpd.Status)
	assert.Positive(t, report.Violations)
}

func TestReportExplainsViolations(t *testing.T) {
	f := newFixture(t)
	f.record(t, "female", domain.DispositionApproved)
	f.record(t, "female", domain.DispositionApproved)
	f.record(t, "male", domain.DispositionDenied)
	f.record(t, "male", domain.DispositionDenied)

	report, err := f.fairness.Report(context.Background(), Window{}, false)
	require.NoError(t, err)

	// Both parity and impact breach for gender; nothing else is computable.
	assert.Equal(t, 2, report.Violations)
	require.Len(t, report.Explanations, 2)

	parity := report.Explanations[0]
	assert.Equal(t, "gender", parity.Attribute)
	assert.Equal(t, MetricDemographicParity, parity.Metric)
	assert.Equal(t, StatusViolation, parity.Status)
	assert.InDelta(t, 1.0, parity.Value, 1e-12)
	assert.Equal(t, 0.1, parity.Threshold)
	assert.Equal(t, []string{"female", "male"}, parity.Groups)
	assert.Contains(t, parity.Summary, "exceeds threshold")

	impact := report.Explanations[1]
	assert.Equal(t, MetricDisparateImpact, impact.Metric)
	assert.Equal(t, StatusViolation, impact.Status)
	assert.Contains(t, impact.Summary, "below threshold")
}

func TestReportUndefinedRatioNeedsAttention(t *testing.T) {
	f := newFixture(t)
	// Two groups, nobody approved: the impact ratio has no defined value, and
	// that is itself a finding for the operator.
	f.record(t, "female", domain.DispositionDenied)
	f.record(t, "male", domain.DispositionDenied)

	report, err := f.fairness.Report(context.Background(), Window{}, false)
	require.NoError(t, err)

	assert.Equal(t, StatusUndefined, genderMetric(t, report, MetricDisparateImpact).Status)
	assert.Equal(t, 1, report.Violations, "an undefined ratio must count as needing attention")
	require.Len(t, report.Explanations, 1)
	assert.Equal(t, MetricDisparateImpact, report.Explanations[0].Metric)
	assert.Equal(t, StatusUndefined, report.Explanations[0].Status)
	assert.Equal(t, []string{"female", "male"}, report.Explanations[0].Groups)
	assert.Contains(t, report.Explanations[0].Summary, "undefined")
}

func TestReportWindowScopesDecisions(t *testing.T) {
	f := newFixture(t)
	early := f.now
	f.record(t, "female", domain.DispositionApproved)

	f.now += 60_000
	late := f.now
	f.record(t, "male", domain.DispositionDenied)

	report, err := f.fairness.Report(context.Background(), Window{To: early}, false)
	require.NoError(t, err)
	assert.Equal(t, 1, report.SampleSize)
	assert.Equal(t, Window{To: early}, report.Window)
	assert.Contains(t, report.Attributes["gender"].Groups, "female")
	assert.NotContains(t, report.Attributes["gender"].Groups, "male")

	report, err = f.fairness.Report(context.Background(), Window{From: late}, false)
	require.NoError(t, err)
	assert.Equal(t, 1, report.SampleSize)
	assert.Contains(t, report.Attributes["gender"].Groups, "male")

	report, err = f.fairness.Report(context.Background(), Window{}, false)
	require.NoError(t, err)
	assert.Equal(t, 2, report.SampleSize)
}

func TestReportRejectsInvertedWindow(t *testing.T) {
	f := newFixture(t)

	_, err := f.fairness.Report(context.Background(), Window{From: 10, To: 5}, false)
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeBadRequest))
}

func TestReportEmptyLedger(t *testing.T) {
	f := newFixture(t)

	report, err := f.fairness.Report(context.Background(), Window{}, false)
	require.NoError(t, err)

	assert.Equal(t, 0, report.SampleSize)
	assert.Equal(t, 0, report.Violations)
	assert.Empty(t, report.Explanations)
	for _, attr := range report.Attributes {
		for _, m := range attr.Metrics {
			assert.Equal(t, StatusNotComputable, m.Status)
		}
	}
}
