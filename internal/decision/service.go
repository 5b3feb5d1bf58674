// Package decision records loan decisions on the governance ledger and
// answers questions about an application's current disposition and trail.
package decision

import (
	"context"
	"encoding/json"
	"log/slog"

	"fairlend/internal/decision/metrics"
	"fairlend/internal/domain"
	"fairlend/internal/ledger"
	id "fairlend/pkg/domain"
	dErrors "fairlend/pkg/domain-errors"
)

// Ledger is the slice of the ledger service the decision module needs.
type Ledger interface {
	Append(ctx context.Context, entryType ledger.EntryType, payload json.RawMessage, authorID string) (ledger.Entry, error)
	Snapshot(ctx context.Context) ([]ledger.Entry, error)
}

// Service records decisions and resolves effective dispositions.
type Service struct {
	ledger  Ledger
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewService(l Ledger, logger *slog.Logger, m *metrics.Metrics) *Service {
	return &Service{ledger: l, logger: logger, metrics: m}
}

// Record validates the decision and appends it as a new ledger entry. The
// entry is immutable from this point on; later overrides change the effective
// disposition without touching it.
func (s *Service) Record(ctx context.Context, record domain.DecisionRecord, author domain.Actor) (ledger.Entry, error) {
	if err := record.Validate(); err != nil {
		return ledger.Entry{}, err
	}

	payload, err := ledger.CanonicalPayload(record)
	if err != nil {
		return ledger.Entry{}, dErrors.Wrap(dErrors.CodeInternal, "encode decision payload", err)
	}

	entry, err := s.ledger.Append(ctx, ledger.EntryTypeDecision, payload, author.ID)
	if err != nil {
		return ledger.Entry{}, err
	}

	s.metrics.IncRecorded(string(record.Outcome))
	s.logger.InfoContext(ctx, "decision recorded",
		"application_id", record.ApplicationID,
		"outcome", record.Outcome,
		"sequence", entry.Sequence,
	)
	return entry, nil
}

// Current resolves the effective disposition for one application.
func (s *Service) Current(ctx context.Context, applicationID id.ApplicationID) (Resolved, error) {
	entries, err := s.ledger.Snapshot(ctx)
	if err != nil {
		return Resolved{}, err
	}
	state, err := Replay(entries)
	if err != nil {
		return Resolved{}, dErrors.Wrap(dErrors.CodeInternal, "replay ledger", err)
	}
	resolved, ok := state[applicationID]
	if !ok {
		return Resolved{}, dErrors.New(dErrors.CodeNotFound, "no decision recorded for application")
	}
	return resolved, nil
}

// Trail returns, in ledger order, every decision and override entry that
// references the application. The raw entries go back to the caller so
// auditors see exactly what was hashed.
func (s *Service) Trail(ctx context.Context, applicationID id.ApplicationID) ([]ledger.Entry, error) {
	entries, err := s.ledger.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	var trail []ledger.Entry
	for _, entry := range entries {
		var ref struct {
			ApplicationID id.ApplicationID `json:"application_id"`
		}
		switch entry.Type {
		case ledger.EntryTypeDecision, ledger.EntryTypeOverride:
			if err := json.Unmarshal(entry.Payload, &ref); err != nil {
				return nil, dErrors.Wrap(dErrors.CodeInternal, "decode ledger payload", err)
			}
			if ref.ApplicationID == applicationID {
				trail = append(trail, entry)
			}
		}
	}
	if len(trail) == 0 {
		return nil, dErrors.New(dErrors.CodeNotFound, "no entries recorded for application")
	}
	s.metrics.IncTrailRead()
	return trail, nil
}
