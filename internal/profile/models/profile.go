package models

import (
	"fmt"
	"time"

	id "github.com/stagelink/stagelink/pkg/domain"
	dErrors "github.com/stagelink/stagelink/pkg/domain-errors"
)

// Role is the account role chosen at onboarding. Admin is assigned
// out-of-band, never self-selected.
type Role string

const (
	RoleUnset           Role = "unset"
	RoleArtist          Role = "artist"
	RoleIndustry        Role = "industry"
	RoleInstrumentalist Role = "instrumentalist"
	RoleOther           Role = "other"
	RoleAdmin           Role = "admin"
)

// ParseSelectableRole validates a role string from the onboarding flow.
// Admin is deliberately not selectable.
func ParseSelectableRole(s string) (Role, error) {
	switch Role(s) {
	case RoleArtist, RoleIndustry, RoleInstrumentalist, RoleOther:
		return Role(s), nil
	case RoleAdmin:
		return "", dErrors.New(dErrors.CodeValidation, "admin role cannot be self-selected")
	}
	return "", dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("unknown role %q", s))
}

// Profile is the per-user record linking an account to its chosen role and
// its single application.
//
// Invariants:
//   - at most one non-draft application per profile
//   - Role is mutable by the owner only until that application leaves draft
type Profile struct {
	OwnerID       id.UserID         `json:"owner_id"`
	Role          Role              `json:"role"`
	HasApplied    bool              `json:"has_applied"`
	ApplicationID *id.ApplicationID `json:"application_id,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// New creates a profile at first role selection.
func New(owner id.UserID, role Role, now time.Time) *Profile {
	return &Profile{
		OwnerID:   owner,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (p *Profile) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// Clone returns a copy safe to hand out of an in-memory store.
func (p *Profile) Clone() *Profile {
	cp := *p
	if p.ApplicationID != nil {
		a := *p.ApplicationID
		cp.ApplicationID = &a
	}
	return &cp
}
