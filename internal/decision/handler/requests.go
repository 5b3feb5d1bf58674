package handler

import (
	"fairlend/internal/domain"
	id "fairlend/pkg/domain"
	dErrors "fairlend/pkg/domain-errors"
)

// RecordDecisionRequest is the wire shape for recording a machine decision.
type RecordDecisionRequest struct {
	ApplicationID       string            `json:"application_id"`
	SubjectID           string            `json:"subject_id"`
	Outcome             string            `json:"outcome"`
	Probability         float64           `json:"probability"`
	ProtectedAttributes map[string]string `json:"protected_attributes"`
	ExplanationRef      string            `json:"explanation_ref,omitempty"`
	ModelVersion        string            `json:"model_version,omitempty"`
	Qualified           *bool             `json:"qualified,omitempty"`
}

// ToDomain parses the request into a domain record. Field-level validation
// beyond parsing happens in DecisionRecord.Validate.
func (r RecordDecisionRequest) ToDomain() (domain.DecisionRecord, error) {
	applicationID, err := id.ParseApplicationID(r.ApplicationID)
	if err != nil {
		return domain.DecisionRecord{}, dErrors.New(dErrors.CodeInvalidPayload, "application_id must be a UUID")
	}
	subjectID, err := id.ParseSubjectID(r.SubjectID)
	if err != nil {
		return domain.DecisionRecord{}, dErrors.New(dErrors.CodeInvalidPayload, "subject_id must be a UUID")
	}
	outcome, err := domain.ParseDisposition(r.Outcome)
	if err != nil {
		return domain.DecisionRecord{}, dErrors.New(dErrors.CodeInvalidPayload, "outcome must be approved or denied")
	}
	return domain.DecisionRecord{
		ApplicationID:       applicationID,
		SubjectID:           subjectID,
		Outcome:             outcome,
		Probability:         domain.Probability(r.Probability),
		ProtectedAttributes: r.ProtectedAttributes,
		ExplanationRef:      r.ExplanationRef,
		ModelVersion:        r.ModelVersion,
		Qualified:           r.Qualified,
	}, nil
}
