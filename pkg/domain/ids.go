// Package domain holds shared identifier primitives. IDs are UUID-backed
// value types so mixing an application ID with a subject ID is a compile
// error, not a runtime surprise.
package domain

import (
	"github.com/google/uuid"

	dErrors "fairlend/pkg/domain-errors"
)

// ApplicationID identifies one loan application.
type ApplicationID uuid.UUID

// SubjectID identifies the person a decision or consent change concerns.
type SubjectID uuid.UUID

// NewApplicationID generates a random application ID.
func NewApplicationID() ApplicationID { return ApplicationID(uuid.New()) }

// NewSubjectID generates a random subject ID.
func NewSubjectID() SubjectID { return SubjectID(uuid.New()) }

// ParseApplicationID constructs an ApplicationID from external input.
// Call from handlers/adapters at trust boundaries.
func ParseApplicationID(s string) (ApplicationID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return ApplicationID{}, dErrors.New(dErrors.CodeBadRequest, "invalid application id")
	}
	return ApplicationID(u), nil
}

// ParseSubjectID constructs a SubjectID from external input.
func ParseSubjectID(s string) (SubjectID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return SubjectID{}, dErrors.New(dErrors.CodeBadRequest, "invalid subject id")
	}
	return SubjectID(u), nil
}

func (id ApplicationID) String() string { return uuid.UUID(id).String() }
func (id SubjectID) String() string     { return uuid.UUID(id).String() }

func (id ApplicationID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id SubjectID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }

// MarshalText/UnmarshalText keep IDs stable in JSON payloads.
func (id ApplicationID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id SubjectID) MarshalText() ([]byte, error)     { return []byte(id.String()), nil }

func (id *ApplicationID) UnmarshalText(b []byte) error {
	parsed, err := ParseApplicationID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *SubjectID) UnmarshalText(b []byte) error {
	parsed, err := ParseSubjectID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
