package service

import (
	"context"
	"strings"

	"github.com/stagelink/stagelink/internal/application/models"
	"github.com/stagelink/stagelink/internal/auth"
	id "github.com/stagelink/stagelink/pkg/domain"
	dErrors "github.com/stagelink/stagelink/pkg/domain-errors"
	"github.com/stagelink/stagelink/pkg/platform/audit"
	platstrings "github.com/stagelink/stagelink/pkg/platform/strings"
	"github.com/stagelink/stagelink/pkg/requestcontext"
)

// Approve records the applicant's sign-off on the admin-proposed profile.
// Only the owner may approve, and only from pending_user_approval.
func (s *Service) Approve(ctx context.Context, session auth.Session, appID id.ApplicationID) (*models.Application, error) {
	ctx, span := s.tracer.Start(ctx, "application.Approve")
	defer span.End()

	now := requestcontext.Now(ctx)
	app, err := s.apps.Execute(ctx, appID, 0,
		func(a *models.Application) error {
			if a.OwnerID != session.UserID {
				return dErrors.New(dErrors.CodeForbidden, "only the applicant can approve the proposed profile")
			}
			if a.Status != models.StatusPendingUserApproval {
				return dErrors.New(dErrors.CodeConflict,
					"application is not awaiting applicant approval")
			}
			return nil
		},
		func(a *models.Application) {
			a.ApplyTransition(models.StatusApproved, now, session.UserID, "")
		},
	)
	if err != nil {
		return nil, wrapStoreErr(err)
	}

	if s.metrics != nil {
		s.metrics.Approved.Inc()
	}
	s.emit(ctx, audit.Event{
		Action:        audit.ActionApproved,
		ApplicationID: app.ID,
		ActorID:       session.UserID,
		From:          string(models.StatusPendingUserApproval),
		To:            string(models.StatusApproved),
		Timestamp:     now,
	})
	return app, nil
}

// RequestChanges sends the proposal back to the admin with a note explaining
// what to change. The note is required and capped at the standard note length;
// the truncated form lands in both the history entry and the modification log.
func (s *Service) RequestChanges(ctx context.Context, session auth.Session, appID id.ApplicationID, note string) (*models.Application, error) {
	ctx, span := s.tracer.Start(ctx, "application.RequestChanges")
	defer span.End()

	note = strings.TrimSpace(note)
	if note == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "a note describing the requested changes is required")
	}
	note = platstrings.TruncateWords(note, models.NoteWordLimit)

	now := requestcontext.Now(ctx)
	app, err := s.apps.Execute(ctx, appID, 0,
		func(a *models.Application) error {
			if a.OwnerID != session.UserID {
				return dErrors.New(dErrors.CodeForbidden, "only the applicant can request changes")
			}
			if a.Status != models.StatusPendingUserApproval {
				return dErrors.New(dErrors.CodeConflict,
					"application is not awaiting applicant approval")
			}
			return nil
		},
		func(a *models.Application) {
			a.ModificationRequests = append(a.ModificationRequests, note)
			a.ApplyTransition(models.StatusChangesRequested, now, session.UserID, note)
		},
	)
	if err != nil {
		return nil, wrapStoreErr(err)
	}

	if s.metrics != nil {
		s.metrics.ChangesRequested.Inc()
	}
	s.emit(ctx, audit.Event{
		Action:        audit.ActionChangesRequested,
		ApplicationID: app.ID,
		ActorID:       session.UserID,
		From:          string(models.StatusPendingUserApproval),
		To:            string(models.StatusChangesRequested),
		Note:          note,
		Timestamp:     now,
	})
	return app, nil
}
