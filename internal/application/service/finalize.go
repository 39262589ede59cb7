package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/stagelink/stagelink/internal/application/models"
	"github.com/stagelink/stagelink/internal/auth"
	dirmodels "github.com/stagelink/stagelink/internal/directory/models"
	id "github.com/stagelink/stagelink/pkg/domain"
	dErrors "github.com/stagelink/stagelink/pkg/domain-errors"
	"github.com/stagelink/stagelink/pkg/platform/audit"
	"github.com/stagelink/stagelink/pkg/platform/sentinel"
	"github.com/stagelink/stagelink/pkg/requestcontext"
)

// Finalize copies the approved profile into the public directory and marks
// the application finalized. The directory insert happens before the status
// flip: if the insert fails the application stays approved and the operation
// can be retried; if the flip then fails, the retry treats the existing
// directory row as already done.
func (s *Service) Finalize(ctx context.Context, session auth.Session, appID id.ApplicationID) (*models.Application, error) {
	ctx, span := s.tracer.Start(ctx, "application.Finalize")
	defer span.End()
	start := time.Now()

	if err := s.requireAdmin(ctx, session); err != nil {
		return nil, err
	}

	app, err := s.apps.FindByID(ctx, appID)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	if app.Status != models.StatusApproved {
		return nil, dErrors.New(dErrors.CodeConflict,
			fmt.Sprintf("cannot finalize application in status %s", app.Status))
	}

	now := requestcontext.Now(ctx)
	switch err := s.insertDirectoryRecord(ctx, app, now); {
	case err == nil:
	case errors.Is(err, sentinel.ErrConflict):
		// A prior attempt inserted the record but never flipped the status.
		// Proceed to the flip rather than failing the retry.
		s.logger.WarnContext(ctx, "directory record already exists, completing finalize",
			"application_id", app.ID.String())
	case dErrors.CodeOf(err) != dErrors.CodeInternal:
		return nil, err
	default:
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "directory insert failed")
	}

	admin := session.UserID
	app, err = s.apps.Execute(ctx, appID, 0,
		func(a *models.Application) error {
			return a.CanTransitionTo(models.StatusFinalized)
		},
		func(a *models.Application) {
			a.FinalizedAt = &now
			a.FinalizedBy = &admin
			a.ApplyTransition(models.StatusFinalized, now, admin, "")
		},
	)
	if err != nil {
		return nil, wrapStoreErr(err)
	}

	if s.invalidator != nil {
		s.invalidator.Invalidate(ctx)
	}
	if s.metrics != nil {
		s.metrics.Finalized.Inc()
		s.metrics.ObserveFinalize(start)
	}
	s.emit(ctx, audit.Event{
		Action:        audit.ActionFinalized,
		ApplicationID: app.ID,
		ActorID:       admin,
		From:          string(models.StatusApproved),
		To:            string(models.StatusFinalized),
		Timestamp:     now,
	})
	return app, nil
}

// ManualApprove is the admin override for an applicant who never responded:
// it moves pending_user_approval to approved on the applicant's behalf,
// recording the admin's reason in the history. The seven-day predicate on the
// record gates when the UI offers this; the operation itself only requires
// the status.
func (s *Service) ManualApprove(ctx context.Context, session auth.Session, appID id.ApplicationID, reason string) (*models.Application, error) {
	ctx, span := s.tracer.Start(ctx, "application.ManualApprove")
	defer span.End()

	if err := s.requireAdmin(ctx, session); err != nil {
		return nil, err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "a reason is required for manual approval")
	}

	now := requestcontext.Now(ctx)
	app, err := s.apps.Execute(ctx, appID, 0,
		func(a *models.Application) error {
			if a.Status != models.StatusPendingUserApproval {
				return dErrors.New(dErrors.CodeConflict,
					"application is not awaiting applicant approval")
			}
			return nil
		},
		func(a *models.Application) {
			a.ApplyTransition(models.StatusApproved, now, session.UserID, reason)
		},
	)
	if err != nil {
		return nil, wrapStoreErr(err)
	}

	if s.metrics != nil {
		s.metrics.Approved.Inc()
	}
	s.emit(ctx, audit.Event{
		Action:        audit.ActionManualApproved,
		ApplicationID: app.ID,
		ActorID:       session.UserID,
		From:          string(models.StatusPendingUserApproval),
		To:            string(models.StatusApproved),
		Note:          reason,
		Timestamp:     now,
	})
	return app, nil
}

// insertDirectoryRecord builds the typed public record from the allow-listed
// slice of the approved profile and writes it to the matching directory.
func (s *Service) insertDirectoryRecord(ctx context.Context, app *models.Application, now time.Time) error {
	filtered, err := app.AdminApprovedProfile.FilterAllowed(app.Type)
	if err != nil {
		return err
	}
	doc := models.ProposedProfile(filtered)

	name := doc.String("name")
	if name == "" {
		name = app.Fields.Name()
	}
	email := doc.String("email")
	if email == "" {
		email = app.Fields.Email()
	}
	imageURL := doc.String("profile_image_url")
	if imageURL == "" {
		imageURL = app.PhotoURL
	}
	if s.probeImage != nil {
		imageURL = s.probeImage(ctx, imageURL)
	}

	profileID := id.ProfileID(uuid.New())

	switch app.Type {
	case models.TypeArtist:
		return s.directory.InsertArtist(ctx, &dirmodels.Artist{
			ID:              profileID,
			OwnerID:         app.OwnerID,
			Name:            name,
			Bio:             doc.String("bio"),
			Email:           email,
			ProfileImageURL: imageURL,
			ArtistType:      models.NormalizeArtistType(doc.String("artist_type")),
			Genres:          doc.Strings("genres"),
			Influences:      doc.Strings("influences"),
			StreamingLinks:  doc.Strings("streaming_links"),
			Location:        doc.String("location"),
			SocialLinks:     doc.String("social_links"),
			CreatedAt:       now,
		})
	case models.TypeIndustry:
		return s.directory.InsertIndustryProfessional(ctx, &dirmodels.IndustryProfessional{
			ID:              profileID,
			OwnerID:         app.OwnerID,
			Name:            name,
			Bio:             doc.String("bio"),
			Email:           email,
			ProfileImageURL: imageURL,
			IndustryRole:    doc.String("industry_role"),
			Company:         doc.String("company"),
			ExpertiseAreas:  doc.Strings("expertise_areas"),
			Website:         doc.String("website"),
			Location:        doc.String("location"),
			SocialLinks:     doc.String("social_links"),
			FavoriteArtists: doc.Strings("favorite_artists"),
			CreatedAt:       now,
		})
	case models.TypeInstrumentalist:
		return s.directory.InsertInstrumentalist(ctx, &dirmodels.Instrumentalist{
			ID:              profileID,
			OwnerID:         app.OwnerID,
			Name:            name,
			Bio:             doc.String("bio"),
			Email:           email,
			ProfileImageURL: imageURL,
			Instrument:      doc.String("instrument"),
			YearsExperience: doc.String("years_experience"),
			Equipment:       doc.Strings("equipment"),
			Rate:            doc.String("rate"),
			Location:        doc.String("location"),
			SocialLinks:     doc.String("social_links"),
			CreatedAt:       now,
		})
	}
	return dErrors.New(dErrors.CodeInvariantViolation,
		fmt.Sprintf("no directory for application type %q", app.Type))
}
