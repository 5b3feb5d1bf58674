package domain

import (
	"strconv"
	"strings"

	id "fairlend/pkg/domain"
	dErrors "fairlend/pkg/domain-errors"
)

// Disposition is the approve/deny status of a loan decision. The current
// disposition of an application is always derived from the latest relevant
// ledger entry, never stored as mutable state.
type Disposition string

const (
	DispositionApproved Disposition = "approved"
	DispositionDenied   Disposition = "denied"
)

// ParseDisposition constructs a Disposition from external input.
func ParseDisposition(s string) (Disposition, error) {
	d := Disposition(s)
	if !d.IsValid() {
		return "", dErrors.New(dErrors.CodeBadRequest, "invalid disposition: "+s)
	}
	return d, nil
}

func (d Disposition) IsValid() bool {
	return d == DispositionApproved || d == DispositionDenied
}

func (d Disposition) String() string { return string(d) }

// IsApproved reports the favorable outcome.
func (d Disposition) IsApproved() bool { return d == DispositionApproved }

// Probability is a model output score in [0,1]. It serializes as a
// fixed-precision decimal string so canonical payload bytes are identical
// across platforms; raw floats have no stable text form.
type Probability float64

const probabilityDigits = 4

func (p Probability) Valid() bool { return p >= 0 && p <= 1 }

func (p Probability) String() string {
	return strconv.FormatFloat(float64(p), 'f', probabilityDigits, 64)
}

func (p Probability) MarshalJSON() ([]byte, error) {
	return []byte(`"` + p.String() + `"`), nil
}

func (p *Probability) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return dErrors.New(dErrors.CodeInvalidPayload, "probability must be numeric")
	}
	*p = Probability(f)
	return nil
}

// DecisionRecord is the payload of a decision ledger entry. Created once when
// a prediction lands; never mutated. Protected attributes are carried apart
// from the general feature set so the fairness engine can partition on them
// without touching the opaque explanation payload.
type DecisionRecord struct {
	ApplicationID       id.ApplicationID  `json:"application_id"`
	SubjectID           id.SubjectID      `json:"subject_id"`
	Outcome             Disposition       `json:"outcome"`
	Probability         Probability       `json:"probability"`
	ProtectedAttributes map[string]string `json:"protected_attributes"`
	ExplanationRef      string            `json:"explanation_ref,omitempty"`
	ModelVersion        string            `json:"model_version,omitempty"`

	// Qualified is the ground-truth label (e.g. actual repayment) when it is
	// known. Nil means no ground truth exists yet; equal-opportunity metrics
	// skip such records rather than guessing.
	Qualified *bool `json:"qualified,omitempty"`
}

// Validate rejects malformed records before any ledger write happens.
func (r DecisionRecord) Validate() error {
	if r.ApplicationID.IsNil() {
		return dErrors.New(dErrors.CodeInvalidPayload, "application_id is required")
	}
	if r.SubjectID.IsNil() {
		return dErrors.New(dErrors.CodeInvalidPayload, "subject_id is required")
	}
	if !r.Outcome.IsValid() {
		return dErrors.New(dErrors.CodeInvalidPayload, "outcome must be approved or denied")
	}
	if !r.Probability.Valid() {
		return dErrors.New(dErrors.CodeInvalidPayload, "probability must lie in [0,1]")
	}
	return nil
}

// OverrideRecord is the payload of an override ledger entry. Created only by
// the override service; PriorDisposition always equals the disposition that
// was current when the override was accepted.
type OverrideRecord struct {
	ApplicationID    id.ApplicationID `json:"application_id"`
	PriorDisposition Disposition      `json:"prior_disposition"`
	NewDisposition   Disposition      `json:"new_disposition"`
	Reason           string           `json:"reason"`
	ActorID          string           `json:"actor_id"`
}

func (r OverrideRecord) Validate() error {
	if r.ApplicationID.IsNil() {
		return dErrors.New(dErrors.CodeInvalidPayload, "application_id is required")
	}
	if !r.PriorDisposition.IsValid() || !r.NewDisposition.IsValid() {
		return dErrors.New(dErrors.CodeInvalidPayload, "dispositions must be approved or denied")
	}
	if strings.TrimSpace(r.Reason) == "" {
		return dErrors.New(dErrors.CodeReasonRequired, "override reason is required")
	}
	if r.ActorID == "" {
		return dErrors.New(dErrors.CodeInvalidPayload, "actor_id is required")
	}
	return nil
}

// ConsentChangeRecord is the payload of a consent-change ledger entry.
// Every toggle appends a new record; current consent is a last-writer-wins
// read per (subject, category).
type ConsentChangeRecord struct {
	SubjectID    id.SubjectID `json:"subject_id"`
	DataCategory string       `json:"data_category"`
	Granted      bool         `json:"granted"`
	ActorID      string       `json:"actor_id"`
}

func (r ConsentChangeRecord) Validate() error {
	if r.SubjectID.IsNil() {
		return dErrors.New(dErrors.CodeInvalidPayload, "subject_id is required")
	}
	if r.DataCategory == "" {
		return dErrors.New(dErrors.CodeInvalidPayload, "data_category is required")
	}
	if r.ActorID == "" {
		return dErrors.New(dErrors.CodeInvalidPayload, "actor_id is required")
	}
	return nil
}
