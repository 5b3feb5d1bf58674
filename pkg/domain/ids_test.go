package domain

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "fairlend/pkg/domain-errors"
)

func TestParseApplicationID(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseApplicationID("")
		require.Error(t, err)
		assert.True(t, dErrors.Is(err, dErrors.CodeBadRequest))
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParseApplicationID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, dErrors.Is(err, dErrors.CodeBadRequest))
	})

	t.Run("accepts valid UUID", func(t *testing.T) {
		valid := uuid.New()
		id, err := ParseApplicationID(valid.String())
		require.NoError(t, err)
		assert.Equal(t, valid.String(), id.String())
		assert.False(t, id.IsNil())
	})

	t.Run("nil UUID parses but is nil", func(t *testing.T) {
		id, err := ParseApplicationID(uuid.Nil.String())
		require.NoError(t, err)
		assert.True(t, id.IsNil())
	})
}

func TestIDsAreDistinctTypes(t *testing.T) {
	// The compiler enforces this; the test documents it.
	var _ ApplicationID
	var _ SubjectID

	appID := NewApplicationID()
	subjectID := NewSubjectID()
	assert.NotEqual(t, appID.String(), subjectID.String())
}

func TestIDJSONRoundTrip(t *testing.T) {
	appID := NewApplicationID()

	raw, err := json.Marshal(appID)
	require.NoError(t, err)
	assert.Equal(t, `"`+appID.String()+`"`, string(raw))

	var parsed ApplicationID
	require.NoError(t, json.Unmarshal(raw, &parsed))
	assert.Equal(t, appID, parsed)

	var bad SubjectID
	err = json.Unmarshal([]byte(`"garbage"`), &bad)
	assert.Error(t, err)
}
