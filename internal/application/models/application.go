package models

import (
	"fmt"
	"time"

	id "github.com/stagelink/stagelink/pkg/domain"
	dErrors "github.com/stagelink/stagelink/pkg/domain-errors"
)

// Status is the closed set of application lifecycle states.
type Status string

const (
	StatusDraft               Status = "draft"
	StatusPending             Status = "pending"
	StatusPendingUserApproval Status = "pending_user_approval"
	StatusChangesRequested    Status = "changes_requested"
	StatusApproved            Status = "approved"
	StatusRejected            Status = "rejected"
	StatusFinalized           Status = "finalized"
)

// transitions is the single source of truth for the lifecycle graph.
// Rejection is reachable from every non-terminal state; rejected and
// finalized are terminal.
var transitions = map[Status][]Status{
	StatusDraft:               {StatusPending},
	StatusPending:             {StatusPendingUserApproval, StatusRejected},
	StatusPendingUserApproval: {StatusApproved, StatusChangesRequested, StatusRejected},
	StatusChangesRequested:    {StatusPendingUserApproval, StatusRejected},
	StatusApproved:            {StatusFinalized, StatusRejected},
}

// ParseStatus validates a status string from a trust boundary.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusDraft, StatusPending, StatusPendingUserApproval,
		StatusChangesRequested, StatusApproved, StatusRejected, StatusFinalized:
		return Status(s), nil
	}
	return "", dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("unknown status %q", s))
}

// CanTransitionTo reports whether the lifecycle graph permits the edge.
func (s Status) CanTransitionTo(to Status) bool {
	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are permitted.
func (s Status) IsTerminal() bool {
	return len(transitions[s]) == 0
}

// StatusChange is one append-only history entry. Every transition appends
// exactly one of these with the acting user and the request timestamp.
type StatusChange struct {
	Status Status    `json:"status"`
	At     time.Time `json:"at"`
	Actor  id.UserID `json:"actor"`
	Note   string    `json:"note,omitempty"`
}

// Application is the aggregate for one role application.
//
// Invariants:
//   - StatusHistory never shrinks or reorders; each transition appends one entry
//   - CurrentRevision starts at 1 and increments on every admin proposal edit
//   - at most one non-draft Application exists per owner (enforced by the
//     service before creation and by the store's unique owner constraint)
type Application struct {
	ID      id.ApplicationID `json:"id"`
	OwnerID id.UserID        `json:"owner_id"`
	Type    Type             `json:"application_type"`
	Fields  Fields           `json:"fields"`

	// PhotoRef is the object-storage reference; PhotoURL the public URL
	// derived from it at upload time.
	PhotoRef string `json:"photo_ref,omitempty"`
	PhotoURL string `json:"photo_url,omitempty"`

	Status        Status         `json:"status"`
	StatusHistory []StatusChange `json:"status_history"`

	// AdminApprovedProfile is the admin-normalized proposed public profile,
	// present once the application reaches pending_user_approval.
	AdminApprovedProfile ProposedProfile `json:"admin_approved_profile,omitempty"`

	// ModificationRequests collects applicant change-request notes in order.
	ModificationRequests []string `json:"modification_requests,omitempty"`

	CurrentRevision int `json:"current_revision"`

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	ReviewedAt  *time.Time `json:"reviewed_at,omitempty"`
	FinalizedAt *time.Time `json:"finalized_at,omitempty"`
	FinalizedBy *id.UserID `json:"finalized_by,omitempty"`
}

// NewSubmitted builds a pending application from a validated form submission.
// The note field is silently capped before storage.
func NewSubmitted(appID id.ApplicationID, owner id.UserID, typ Type, fields Fields, now time.Time) (*Application, error) {
	if err := fields.Validate(typ); err != nil {
		return nil, err
	}
	fields.CapNotes()

	return &Application{
		ID:      appID,
		OwnerID: owner,
		Type:    typ,
		Fields:  fields,
		Status:  StatusPending,
		StatusHistory: []StatusChange{
			{Status: StatusPending, At: now, Actor: owner},
		},
		CurrentRevision: 1,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// CanTransitionTo checks the lifecycle edge, returning a conflict error that
// names both states when it is not permitted.
func (a *Application) CanTransitionTo(to Status) error {
	if !a.Status.CanTransitionTo(to) {
		return dErrors.New(dErrors.CodeConflict,
			fmt.Sprintf("cannot transition application from %s to %s", a.Status, to))
	}
	return nil
}

// ApplyTransition moves the application to the new status and appends the
// history entry. Call CanTransitionTo first; pairs with the store Execute
// callback pattern.
func (a *Application) ApplyTransition(to Status, now time.Time, actor id.UserID, note string) {
	a.Status = to
	a.StatusHistory = append(a.StatusHistory, StatusChange{
		Status: to,
		At:     now,
		Actor:  actor,
		Note:   note,
	})
	a.UpdatedAt = now
}

// Transition validates and applies in one call.
func (a *Application) Transition(to Status, now time.Time, actor id.UserID, note string) error {
	if err := a.CanTransitionTo(to); err != nil {
		return err
	}
	a.ApplyTransition(to, now, actor, note)
	return nil
}

// LatestChange returns the most recent history entry for the given status,
// or nil if the application never entered it.
func (a *Application) LatestChange(status Status) *StatusChange {
	for i := len(a.StatusHistory) - 1; i >= 0; i-- {
		if a.StatusHistory[i].Status == status {
			return &a.StatusHistory[i]
		}
	}
	return nil
}

// ManualApproveAfter is how long an application may sit in
// pending_user_approval before the admin override is offered.
const ManualApproveAfter = 7 * 24 * time.Hour

// ShouldOfferManualApprove reports whether the admin override should be
// surfaced: the application awaits user approval and the latest
// pending_user_approval entry is at least seven days old. Pure; safe to call
// on any snapshot.
func (a *Application) ShouldOfferManualApprove(now time.Time) bool {
	if a.Status != StatusPendingUserApproval {
		return false
	}
	entry := a.LatestChange(StatusPendingUserApproval)
	if entry == nil {
		return false
	}
	return !entry.At.Add(ManualApproveAfter).After(now)
}

// Clone returns a deep copy so in-memory stores never hand out aliased
// history or field slices.
func (a *Application) Clone() *Application {
	cp := *a
	cp.StatusHistory = append([]StatusChange(nil), a.StatusHistory...)
	cp.ModificationRequests = append([]string(nil), a.ModificationRequests...)
	if a.AdminApprovedProfile != nil {
		cp.AdminApprovedProfile = a.AdminApprovedProfile.Clone()
	}
	if a.ReviewedAt != nil {
		t := *a.ReviewedAt
		cp.ReviewedAt = &t
	}
	if a.FinalizedAt != nil {
		t := *a.FinalizedAt
		cp.FinalizedAt = &t
	}
	if a.FinalizedBy != nil {
		u := *a.FinalizedBy
		cp.FinalizedBy = &u
	}
	return &cp
}
