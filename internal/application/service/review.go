package service

import (
	"context"

	"github.com/stagelink/stagelink/internal/application/models"
	"github.com/stagelink/stagelink/internal/auth"
	id "github.com/stagelink/stagelink/pkg/domain"
	dErrors "github.com/stagelink/stagelink/pkg/domain-errors"
	"github.com/stagelink/stagelink/pkg/platform/audit"
	"github.com/stagelink/stagelink/pkg/requestcontext"
)

// reviewQueueStatuses is the default admin queue filter: everything awaiting
// an admin or applicant action that the admin tracks.
var reviewQueueStatuses = []models.Status{
	models.StatusPending,
	models.StatusPendingUserApproval,
}

// ListPending returns the admin review queue, newest first. An explicit
// status narrows the filter; the zero value yields the default queue.
func (s *Service) ListPending(ctx context.Context, session auth.Session, status models.Status) ([]*models.Application, error) {
	ctx, span := s.tracer.Start(ctx, "application.ListPending")
	defer span.End()

	if err := s.requireAdmin(ctx, session); err != nil {
		return nil, err
	}

	statuses := reviewQueueStatuses
	if status != "" {
		statuses = []models.Status{status}
	}
	apps, err := s.apps.ListByStatus(ctx, statuses)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	return apps, nil
}

// ProposeProfile normalizes the admin-edited public profile and moves the
// application to pending_user_approval, incrementing the revision.
// Valid from pending and changes_requested, so admins can re-propose after
// applicant feedback. expectedRevision guards against two admins editing
// from the same stale read; zero skips the check.
func (s *Service) ProposeProfile(
	ctx context.Context,
	session auth.Session,
	appID id.ApplicationID,
	proposed models.ProposedProfile,
	expectedRevision int,
) (*models.Application, error) {
	ctx, span := s.tracer.Start(ctx, "application.ProposeProfile")
	defer span.End()

	if err := s.requireAdmin(ctx, session); err != nil {
		return nil, err
	}
	if len(proposed) == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "proposed profile must not be empty")
	}

	now := requestcontext.Now(ctx)

	var normalized models.ProposedProfile
	app, err := s.apps.Execute(ctx, appID, expectedRevision,
		func(a *models.Application) error {
			if a.Status != models.StatusPending && a.Status != models.StatusChangesRequested {
				return dErrors.New(dErrors.CodeConflict,
					"profile can only be proposed for pending or changes_requested applications")
			}
			var err error
			normalized, err = proposed.Normalized(a.Type)
			return err
		},
		func(a *models.Application) {
			a.AdminApprovedProfile = normalized
			a.CurrentRevision++
			a.ReviewedAt = &now
			a.ApplyTransition(models.StatusPendingUserApproval, now, session.UserID, "")
		},
	)
	if err != nil {
		return nil, wrapStoreErr(err)
	}

	if s.metrics != nil {
		s.metrics.ProfilesProposed.Inc()
	}
	s.emit(ctx, audit.Event{
		Action:        audit.ActionProfileProposed,
		ApplicationID: app.ID,
		ActorID:       session.UserID,
		To:            string(models.StatusPendingUserApproval),
		Timestamp:     now,
	})
	return app, nil
}

// Reject declines an application from any non-terminal status. Terminal: no
// further transitions are permitted afterwards.
func (s *Service) Reject(ctx context.Context, session auth.Session, appID id.ApplicationID, reason string) (*models.Application, error) {
	ctx, span := s.tracer.Start(ctx, "application.Reject")
	defer span.End()

	if err := s.requireAdmin(ctx, session); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	var from models.Status
	app, err := s.apps.Execute(ctx, appID, 0,
		func(a *models.Application) error {
			from = a.Status
			return a.CanTransitionTo(models.StatusRejected)
		},
		func(a *models.Application) {
			a.ApplyTransition(models.StatusRejected, now, session.UserID, reason)
		},
	)
	if err != nil {
		return nil, wrapStoreErr(err)
	}

	if s.metrics != nil {
		s.metrics.Rejected.Inc()
	}
	s.emit(ctx, audit.Event{
		Action:        audit.ActionRejected,
		ApplicationID: app.ID,
		ActorID:       session.UserID,
		From:          string(from),
		To:            string(models.StatusRejected),
		Note:          reason,
		Timestamp:     now,
	})
	return app, nil
}
