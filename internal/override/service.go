// Package override implements the human review path: an authorized actor
// changes the effective disposition of a recorded decision by appending an
// override entry. The original decision entry is never modified.
package override

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"fairlend/internal/decision"
	"fairlend/internal/domain"
	"fairlend/internal/ledger"
	"fairlend/internal/override/metrics"
	id "fairlend/pkg/domain"
	dErrors "fairlend/pkg/domain-errors"
)

// Ledger is the slice of the ledger service the override module needs.
type Ledger interface {
	Append(ctx context.Context, entryType ledger.EntryType, payload json.RawMessage, authorID string) (ledger.Entry, error)
}

// DispositionResolver resolves the effective disposition an override starts
// from.
type DispositionResolver interface {
	Current(ctx context.Context, applicationID id.ApplicationID) (decision.Resolved, error)
}

// CapabilityChecker gates who may override.
type CapabilityChecker interface {
	Allowed(role domain.Role, capability domain.Capability) bool
}

// Service validates and appends disposition overrides.
type Service struct {
	ledger    Ledger
	decisions DispositionResolver
	authz     CapabilityChecker
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

func NewService(l Ledger, decisions DispositionResolver, authz CapabilityChecker, logger *slog.Logger, m *metrics.Metrics) *Service {
	return &Service{
		ledger:    l,
		decisions: decisions,
		authz:     authz,
		logger:    logger,
		metrics:   m,
	}
}

// Request applies an override on behalf of actor. The recorded prior
// disposition is always the effective disposition at acceptance time, so a
// chain of overrides reads as a coherent history: each entry's prior matches
// the previous entry's new.
func (s *Service) Request(ctx context.Context, applicationID id.ApplicationID, newDisposition domain.Disposition, reason string, actor domain.Actor) (ledger.Entry, error) {
	if !s.authz.Allowed(actor.Role, domain.CapabilityOverrideDecision) {
		s.metrics.IncRejected("forbidden")
		return ledger.Entry{}, dErrors.New(dErrors.CodeForbidden, "actor lacks override capability")
	}
	if strings.TrimSpace(reason) == "" {
		s.metrics.IncRejected("reason_missing")
		return ledger.Entry{}, dErrors.New(dErrors.CodeReasonRequired, "override reason is required")
	}
	if !newDisposition.IsValid() {
		s.metrics.IncRejected("invalid_disposition")
		return ledger.Entry{}, dErrors.New(dErrors.CodeInvalidPayload, "new_disposition must be approved or denied")
	}

	resolved, err := s.decisions.Current(ctx, applicationID)
	if err != nil {
		return ledger.Entry{}, err
	}
	if resolved.Disposition == newDisposition {
		s.metrics.IncRejected("no_change")
		return ledger.Entry{}, dErrors.New(dErrors.CodeConflict, "application already has this disposition")
	}

	record := domain.OverrideRecord{
		ApplicationID:    applicationID,
		PriorDisposition: resolved.Disposition,
		NewDisposition:   newDisposition,
		Reason:           reason,
		ActorID:          actor.ID,
	}
	if err := record.Validate(); err != nil {
		return ledger.Entry{}, err
	}

	payload, err := ledger.CanonicalPayload(record)
	if err != nil {
		return ledger.Entry{}, dErrors.Wrap(dErrors.CodeInternal, "encode override payload", err)
	}

	entry, err := s.ledger.Append(ctx, ledger.EntryTypeOverride, payload, actor.ID)
	if err != nil {
		return ledger.Entry{}, err
	}

	s.metrics.IncApplied(string(resolved.Disposition), string(newDisposition))
	s.logger.InfoContext(ctx, "decision override applied",
		"application_id", applicationID,
		"prior_disposition", resolved.Disposition,
		"new_disposition", newDisposition,
		"actor_id", actor.ID,
		"sequence", entry.Sequence,
	)
	return entry, nil
}
