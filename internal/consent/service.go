package consent

import (
	"context"
	"encoding/json"
	"log/slog"

	"fairlend/internal/consent/metrics"
	"fairlend/internal/domain"
	"fairlend/internal/ledger"
	"fairlend/internal/platform/config"
	id "fairlend/pkg/domain"
	dErrors "fairlend/pkg/domain-errors"
)

// Ledger is the slice of the ledger service the consent module needs.
type Ledger interface {
	Append(ctx context.Context, entryType ledger.EntryType, payload json.RawMessage, authorID string) (ledger.Entry, error)
	Snapshot(ctx context.Context) ([]ledger.Entry, error)
}

// CapabilityChecker gates who may change consent.
type CapabilityChecker interface {
	Allowed(role domain.Role, capability domain.Capability) bool
}

// Service records consent changes and derives current consent state.
type Service struct {
	ledger     Ledger
	authz      CapabilityChecker
	categories map[string]config.DataCategory
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

func NewService(l Ledger, authz CapabilityChecker, cfg config.ConsentConfig, logger *slog.Logger, m *metrics.Metrics) *Service {
	return &Service{
		ledger:     l,
		authz:      authz,
		categories: cfg.DataCategories,
		logger:     logger,
		metrics:    m,
	}
}

// Change appends a consent toggle for one category. Subjects change their own
// consent; admins may change anyone's.
func (s *Service) Change(ctx context.Context, subjectID id.SubjectID, category string, granted bool, actor domain.Actor) (ledger.Entry, error) {
	if !s.authz.Allowed(actor.Role, domain.CapabilityManageConsent) {
		return ledger.Entry{}, dErrors.New(dErrors.CodeForbidden, "actor lacks consent capability")
	}
	if actor.Role != domain.RoleAdmin && actor.ID != subjectID.String() {
		return ledger.Entry{}, dErrors.New(dErrors.CodeForbidden, "subjects may only change their own consent")
	}
	if _, ok := s.categories[category]; !ok {
		return ledger.Entry{}, dErrors.New(dErrors.CodeInvalidPayload, "unknown data category: "+category)
	}

	record := domain.ConsentChangeRecord{
		SubjectID:    subjectID,
		DataCategory: category,
		Granted:      granted,
		ActorID:      actor.ID,
	}
	if err := record.Validate(); err != nil {
		return ledger.Entry{}, err
	}

	payload, err := ledger.CanonicalPayload(record)
	if err != nil {
		return ledger.Entry{}, dErrors.Wrap(dErrors.CodeInternal, "encode consent payload", err)
	}

	entry, err := s.ledger.Append(ctx, ledger.EntryTypeConsentChange, payload, actor.ID)
	if err != nil {
		return ledger.Entry{}, err
	}

	s.metrics.IncChange(category, granted)
	s.logger.InfoContext(ctx, "consent change recorded",
		"subject_id", subjectID,
		"data_category", category,
		"granted", granted,
		"sequence", entry.Sequence,
	)
	return entry, nil
}

// Current derives the subject's effective consent: configured defaults
// overlaid with the subject's own toggles, last writer wins per category.
func (s *Service) Current(ctx context.Context, subjectID id.SubjectID) (Status, error) {
	status := Status{
		SubjectID:  subjectID.String(),
		Categories: make(map[string]CategoryStatus, len(s.categories)),
	}
	for name, category := range s.categories {
		status.Categories[name] = CategoryStatus{Granted: category.Default}
	}

	entries, err := s.ledger.Snapshot(ctx)
	if err != nil {
		return Status{}, err
	}
	for _, entry := range entries {
		if entry.Type != ledger.EntryTypeConsentChange {
			continue
		}
		var record domain.ConsentChangeRecord
		if err := json.Unmarshal(entry.Payload, &record); err != nil {
			return Status{}, dErrors.Wrap(dErrors.CodeInternal, "decode consent payload", err)
		}
		if record.SubjectID != subjectID {
			continue
		}
		status.Categories[record.DataCategory] = CategoryStatus{
			Granted:   record.Granted,
			Explicit:  true,
			Sequence:  entry.Sequence,
			Timestamp: entry.Timestamp,
		}
	}
	return status, nil
}

// History returns, in ledger order, every consent entry for the subject.
func (s *Service) History(ctx context.Context, subjectID id.SubjectID) ([]ledger.Entry, error) {
	entries, err := s.ledger.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	var history []ledger.Entry
	for _, entry := range entries {
		if entry.Type != ledger.EntryTypeConsentChange {
			continue
		}
		var record domain.ConsentChangeRecord
		if err := json.Unmarshal(entry.Payload, &record); err != nil {
			return nil, dErrors.Wrap(dErrors.CodeInternal, "decode consent payload", err)
		}
		if record.SubjectID == subjectID {
			history = append(history, entry)
		}
	}
	return history, nil
}
