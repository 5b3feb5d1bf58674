package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "fairlend/pkg/domain"
	dErrors "fairlend/pkg/domain-errors"
)

func mustApp(t *testing.T) id.ApplicationID {
	t.Helper()
	appID, err := id.ParseApplicationID("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	require.NoError(t, err)
	return appID
}

func mustSubject(t *testing.T) id.SubjectID {
	t.Helper()
	subjectID, err := id.ParseSubjectID("6ba7b812-9dad-11d1-80b4-00c04fd430c8")
	require.NoError(t, err)
	return subjectID
}

func TestProbabilitySerializesFixedPrecision(t *testing.T) {
	tests := []struct {
		value Probability
		want  string
	}{
		{0.7312, `"0.7312"`},
		{0, `"0.0000"`},
		{1, `"1.0000"`},
		{0.5, `"0.5000"`},
		// Digits past the fourth are rounded away, so two platforms never
		// disagree on the canonical bytes.
		{0.123456, `"0.1235"`},
	}
	for _, tt := range tests {
		raw, err := json.Marshal(tt.value)
		require.NoError(t, err)
		assert.Equal(t, tt.want, string(raw))
	}
}

func TestProbabilityRoundTrip(t *testing.T) {
	var p Probability
	require.NoError(t, json.Unmarshal([]byte(`"0.7312"`), &p))
	assert.Equal(t, Probability(0.7312), p)

	// Plain numbers are accepted on input for pipeline convenience.
	require.NoError(t, json.Unmarshal([]byte(`0.25`), &p))
	assert.Equal(t, Probability(0.25), p)

	err := json.Unmarshal([]byte(`"high"`), &p)
	assert.True(t, dErrors.Is(err, dErrors.CodeInvalidPayload))
}

func TestDecisionRecordValidate(t *testing.T) {
	valid := DecisionRecord{
		ApplicationID: mustApp(t),
		SubjectID:     mustSubject(t),
		Outcome:       DispositionApproved,
		Probability:   0.9,
	}
	assert.NoError(t, valid.Validate())

	missingApp := valid
	missingApp.ApplicationID = id.ApplicationID{}
	assert.True(t, dErrors.Is(missingApp.Validate(), dErrors.CodeInvalidPayload))

	missingSubject := valid
	missingSubject.SubjectID = id.SubjectID{}
	assert.True(t, dErrors.Is(missingSubject.Validate(), dErrors.CodeInvalidPayload))

	badOutcome := valid
	badOutcome.Outcome = "escalated"
	assert.True(t, dErrors.Is(badOutcome.Validate(), dErrors.CodeInvalidPayload))

	badProbability := valid
	badProbability.Probability = 1.01
	assert.True(t, dErrors.Is(badProbability.Validate(), dErrors.CodeInvalidPayload))
}

func TestOverrideRecordValidate(t *testing.T) {
	valid := OverrideRecord{
		ApplicationID:    mustApp(t),
		PriorDisposition: DispositionDenied,
		NewDisposition:   DispositionApproved,
		Reason:           "income verified",
		ActorID:          "admin-1",
	}
	assert.NoError(t, valid.Validate())

	blankReason := valid
	blankReason.Reason = "  \t "
	assert.True(t, dErrors.Is(blankReason.Validate(), dErrors.CodeReasonRequired))

	missingActor := valid
	missingActor.ActorID = ""
	assert.True(t, dErrors.Is(missingActor.Validate(), dErrors.CodeInvalidPayload))
}

func TestConsentChangeRecordValidate(t *testing.T) {
	valid := ConsentChangeRecord{
		SubjectID:    mustSubject(t),
		DataCategory: "marketing",
		Granted:      true,
		ActorID:      "6ba7b812-9dad-11d1-80b4-00c04fd430c8",
	}
	assert.NoError(t, valid.Validate())

	missingCategory := valid
	missingCategory.DataCategory = ""
	assert.True(t, dErrors.Is(missingCategory.Validate(), dErrors.CodeInvalidPayload))
}

func TestParseDisposition(t *testing.T) {
	d, err := ParseDisposition("approved")
	require.NoError(t, err)
	assert.Equal(t, DispositionApproved, d)
	assert.True(t, d.IsApproved())

	_, err = ParseDisposition("pending")
	assert.True(t, dErrors.Is(err, dErrors.CodeBadRequest))
}
