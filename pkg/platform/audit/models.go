// Package audit records application status transitions as an append-only
// event trail, separate from the status_history embedded in each record.
// Services emit events best-effort through a channel; the worker persists
// them; the Kafka publisher drains the outbox for downstream consumers.
package audit

import (
	"context"
	"time"

	id "github.com/stagelink/stagelink/pkg/domain"
)

// Action names the workflow operation that caused a transition.
type Action string

const (
	ActionSubmitted        Action = "application.submitted"
	ActionProfileProposed  Action = "application.profile_proposed"
	ActionApproved         Action = "application.approved"
	ActionChangesRequested Action = "application.changes_requested"
	ActionRejected         Action = "application.rejected"
	ActionFinalized        Action = "application.finalized"
	ActionManualApproved   Action = "application.manual_approved"
)

// Event is one audited transition.
type Event struct {
	Action        Action           `json:"action"`
	ApplicationID id.ApplicationID `json:"application_id"`
	ActorID       id.UserID        `json:"actor_id"`
	From          string           `json:"from,omitempty"`
	To            string           `json:"to"`
	Note          string           `json:"note,omitempty"`
	RequestID     string           `json:"request_id,omitempty"`
	ClientIP      string           `json:"client_ip,omitempty"`
	UserAgent     string           `json:"user_agent,omitempty"`
	Timestamp     time.Time        `json:"timestamp"`
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
}
