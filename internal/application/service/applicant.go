package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/stagelink/stagelink/internal/application/models"
	"github.com/stagelink/stagelink/internal/auth"
	profilemodels "github.com/stagelink/stagelink/internal/profile/models"
	id "github.com/stagelink/stagelink/pkg/domain"
	dErrors "github.com/stagelink/stagelink/pkg/domain-errors"
	"github.com/stagelink/stagelink/pkg/platform/audit"
	"github.com/stagelink/stagelink/pkg/platform/sentinel"
	"github.com/stagelink/stagelink/pkg/requestcontext"
)

// SelectRole creates or updates the caller's profile role. The role stays
// mutable only until an application leaves draft; no application is created
// here — that waits for form submission.
func (s *Service) SelectRole(ctx context.Context, session auth.Session, roleStr string) (*profilemodels.Profile, error) {
	ctx, span := s.tracer.Start(ctx, "application.SelectRole")
	defer span.End()

	role, err := profilemodels.ParseSelectableRole(roleStr)
	if err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	profile, err := s.profiles.FindByOwner(ctx, session.UserID)
	if errors.Is(err, sentinel.ErrNotFound) {
		profile = profilemodels.New(session.UserID, role, now)
		if err := s.profiles.Save(ctx, profile); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "create profile")
		}
		return profile, nil
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load profile")
	}

	if profile.ApplicationID != nil {
		app, err := s.apps.FindByID(ctx, *profile.ApplicationID)
		if err == nil && app.Status != models.StatusDraft && !app.Status.IsTerminal() {
			return nil, dErrors.New(dErrors.CodeConflict, "role is locked once an application has been submitted")
		}
		if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
			return nil, wrapStoreErr(err)
		}
	}

	profile.Role = role
	profile.UpdatedAt = now
	if err := s.profiles.Save(ctx, profile); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "save profile")
	}
	return profile, nil
}

// SubmitInput carries one application form submission. Photo is optional;
// when present it is uploaded before anything is persisted and removed again
// if the submission fails, so no orphaned object survives a failed submit.
type SubmitInput struct {
	Type          string
	Fields        models.Fields
	Photo         []byte
	PhotoFilename string
}

// Submit validates the form, stores the photo, and creates the application
// in pending with its first history entry. A second submission while a live
// application exists is a conflict; a rejected or finalized one does not
// block applying again.
func (s *Service) Submit(ctx context.Context, session auth.Session, in SubmitInput) (*models.Application, error) {
	ctx, span := s.tracer.Start(ctx, "application.Submit")
	defer span.End()

	typ, err := models.ParseType(in.Type)
	if err != nil {
		return nil, err
	}
	if err := in.Fields.Validate(typ); err != nil {
		return nil, err
	}

	existing, err := s.apps.FindByOwner(ctx, session.UserID)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return nil, wrapStoreErr(err)
	}
	if existing != nil && existing.Status != models.StatusDraft && !existing.Status.IsTerminal() {
		return nil, dErrors.New(dErrors.CodeConflict, "already applied")
	}

	now := requestcontext.Now(ctx)
	appID := id.ApplicationID(uuid.New())

	app, err := models.NewSubmitted(appID, session.UserID, typ, in.Fields, now)
	if err != nil {
		return nil, err
	}

	if len(in.Photo) > 0 {
		path := fmt.Sprintf("applications/%s/%s", appID, in.PhotoFilename)
		ref, err := s.objects.Upload(ctx, path, in.Photo)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "photo upload failed")
		}
		app.PhotoRef = ref
		app.PhotoURL = s.objects.PublicURL(ref)
	}

	// The application insert and the profile update land together or not at
	// all. With a database-backed Transactor both writes share one
	// transaction; the in-memory default unwinds the insert by hand.
	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.apps.Create(ctx, app); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return dErrors.New(dErrors.CodeConflict, "already applied")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "create application")
		}
		if err := s.updateProfileAfterSubmit(ctx, session.UserID, app, now); err != nil {
			_ = s.apps.Delete(ctx, app.ID)
			return err
		}
		return nil
	})
	if err != nil {
		s.removePhoto(ctx, app.PhotoRef)
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.Submitted.Inc()
	}
	s.emit(ctx, audit.Event{
		Action:        audit.ActionSubmitted,
		ApplicationID: app.ID,
		ActorID:       session.UserID,
		To:            string(models.StatusPending),
		Timestamp:     now,
	})
	return app, nil
}

// updateProfileAfterSubmit marks the profile applied and links the new
// application, creating the profile if role selection was skipped.
func (s *Service) updateProfileAfterSubmit(ctx context.Context, owner id.UserID, app *models.Application, now time.Time) error {
	profile, err := s.profiles.FindByOwner(ctx, owner)
	if errors.Is(err, sentinel.ErrNotFound) {
		profile = profilemodels.New(owner, profilemodels.Role(app.Type), now)
	} else if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "load profile")
	}

	profile.HasApplied = true
	profile.ApplicationID = &app.ID
	profile.UpdatedAt = now
	if err := s.profiles.Save(ctx, profile); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "update profile after submission")
	}
	return nil
}

func (s *Service) removePhoto(ctx context.Context, ref string) {
	if ref == "" {
		return
	}
	if err := s.objects.Remove(ctx, ref); err != nil {
		s.logger.WarnContext(ctx, "photo rollback failed, object may be orphaned",
			"ref", ref, "error", err)
	}
}

// emit sends an audit event without blocking the workflow. A full channel
// drops the event; the status_history on the record itself remains complete.
func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.auditCh == nil {
		return
	}
	event.RequestID = requestcontext.RequestID(ctx)
	event.ClientIP = requestcontext.ClientIP(ctx)
	event.UserAgent = requestcontext.UserAgent(ctx)
	select {
	case s.auditCh <- event:
	default:
		s.logger.WarnContext(ctx, "audit channel full, event dropped",
			"action", event.Action, "application_id", event.ApplicationID.String())
	}
}
