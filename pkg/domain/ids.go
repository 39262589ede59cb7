// Package domain defines the typed identifiers shared across modules.
// Wrapping uuid.UUID keeps user, application, and profile IDs from being
// mixed up at compile time.
package domain

import (
	"github.com/google/uuid"

	dErrors "github.com/stagelink/stagelink/pkg/domain-errors"
)

type (
	// UserID identifies an authenticated account (applicant or admin).
	UserID uuid.UUID
	// ApplicationID identifies one role application.
	ApplicationID uuid.UUID
	// ProfileID identifies a finalized public directory profile.
	ProfileID uuid.UUID
)

func (id UserID) String() string        { return uuid.UUID(id).String() }
func (id ApplicationID) String() string { return uuid.UUID(id).String() }
func (id ProfileID) String() string     { return uuid.UUID(id).String() }

func (id UserID) IsNil() bool        { return uuid.UUID(id) == uuid.Nil }
func (id ApplicationID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id ProfileID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }

// The text marshalers delegate to uuid.UUID so IDs travel as canonical UUID
// strings in JSON rather than raw byte arrays.

func (id UserID) MarshalText() ([]byte, error)        { return uuid.UUID(id).MarshalText() }
func (id ApplicationID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
func (id ProfileID) MarshalText() ([]byte, error)     { return uuid.UUID(id).MarshalText() }

func (id *UserID) UnmarshalText(b []byte) error        { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *ApplicationID) UnmarshalText(b []byte) error { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *ProfileID) UnmarshalText(b []byte) error     { return (*uuid.UUID)(id).UnmarshalText(b) }

// ParseUserID parses and validates a user ID from its string form.
// IDs must be valid, non-empty, non-nil UUIDs.
func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID(s, "user id")
	return UserID(u), err
}

// ParseApplicationID parses and validates an application ID from its string form.
func ParseApplicationID(s string) (ApplicationID, error) {
	u, err := parseUUID(s, "application id")
	return ApplicationID(u), err
}

// ParseProfileID parses and validates a profile ID from its string form.
func ParseProfileID(s string) (ProfileID, error) {
	u, err := parseUUID(s, "profile id")
	return ProfileID(u), err
}

func parseUUID(s, what string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, what+" is required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid "+what)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, what+" must not be the nil UUID")
	}
	return u, nil
}
