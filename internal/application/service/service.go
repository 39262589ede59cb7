// Package service orchestrates the application lifecycle: submission, admin
// review, applicant confirmation, and finalization into the public
// directories. All operations receive an explicit auth.Session; there is no
// ambient caller state.
package service

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	appmetrics "github.com/stagelink/stagelink/internal/application/metrics"
	"github.com/stagelink/stagelink/internal/application/models"
	"github.com/stagelink/stagelink/internal/auth"
	dirmodels "github.com/stagelink/stagelink/internal/directory/models"
	profilemodels "github.com/stagelink/stagelink/internal/profile/models"
	"github.com/stagelink/stagelink/internal/storage"
	id "github.com/stagelink/stagelink/pkg/domain"
	dErrors "github.com/stagelink/stagelink/pkg/domain-errors"
	"github.com/stagelink/stagelink/pkg/platform/audit"
	"github.com/stagelink/stagelink/pkg/platform/sentinel"
)

// ApplicationStore is the persistence contract for applications. Execute is
// the only mutation path after creation; it holds the record lock across
// validate and mutate so history appends cannot be lost, and rejects stale
// revisions when a non-zero expectedRevision is given.
type ApplicationStore interface {
	Create(ctx context.Context, app *models.Application) error
	FindByID(ctx context.Context, appID id.ApplicationID) (*models.Application, error)
	FindByOwner(ctx context.Context, owner id.UserID) (*models.Application, error)
	ListByStatus(ctx context.Context, statuses []models.Status) ([]*models.Application, error)
	Execute(
		ctx context.Context,
		appID id.ApplicationID,
		expectedRevision int,
		validate func(*models.Application) error,
		mutate func(*models.Application),
	) (*models.Application, error)
	Delete(ctx context.Context, appID id.ApplicationID) error
}

// ProfileStore is the persistence contract for user profiles.
type ProfileStore interface {
	FindByOwner(ctx context.Context, owner id.UserID) (*profilemodels.Profile, error)
	Save(ctx context.Context, profile *profilemodels.Profile) error
}

// DirectoryWriter is the slice of the directory store finalization needs.
type DirectoryWriter interface {
	InsertArtist(ctx context.Context, a *dirmodels.Artist) error
	InsertIndustryProfessional(ctx context.Context, p *dirmodels.IndustryProfessional) error
	InsertInstrumentalist(ctx context.Context, p *dirmodels.Instrumentalist) error
}

// DirectoryInvalidator drops cached directory listings after an insert.
type DirectoryInvalidator interface {
	Invalidate(ctx context.Context)
}

// ImageProber resolves a profile image URL before it is published, returning
// a substitute when the original cannot be fetched.
type ImageProber func(ctx context.Context, url string) string

// Transactor runs fn atomically across the stores that honor the context
// transaction. The default runs fn directly, which is what the in-memory
// stores need.
type Transactor interface {
	InTx(ctx context.Context, fn func(context.Context) error) error
}

type noTransaction struct{}

func (noTransaction) InTx(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

// Service wires the workflow dependencies.
type Service struct {
	apps        ApplicationStore
	profiles    ProfileStore
	directory   DirectoryWriter
	invalidator DirectoryInvalidator
	objects     storage.Store
	probeImage  ImageProber
	tx          Transactor

	auditCh chan<- audit.Event
	metrics *appmetrics.Metrics
	logger  *slog.Logger
	tracer  trace.Tracer
}

// Option configures optional service collaborators.
type Option func(*Service)

// WithAuditChannel routes status transitions into the audit pipeline.
func WithAuditChannel(ch chan<- audit.Event) Option {
	return func(s *Service) { s.auditCh = ch }
}

// WithMetrics enables Prometheus instrumentation.
func WithMetrics(m *appmetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithLogger overrides the default logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithDirectoryInvalidator hooks cache invalidation into finalization.
func WithDirectoryInvalidator(inv DirectoryInvalidator) Option {
	return func(s *Service) { s.invalidator = inv }
}

// WithImageProber checks profile image URLs during finalization, swapping in
// a placeholder for images that cannot be fetched.
func WithImageProber(p ImageProber) Option {
	return func(s *Service) { s.probeImage = p }
}

// WithTransactor makes the submission write to the application and profile
// stores a single database transaction.
func WithTransactor(t Transactor) Option {
	return func(s *Service) { s.tx = t }
}

func New(apps ApplicationStore, profiles ProfileStore, directory DirectoryWriter, objects storage.Store, opts ...Option) *Service {
	s := &Service{
		apps:      apps,
		profiles:  profiles,
		directory: directory,
		objects:   objects,
		tx:        noTransaction{},
		logger:    slog.Default(),
		tracer:    otel.Tracer("stagelink/application"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns one application to its owner or to an admin. Anyone else gets
// not-found rather than confirmation the record exists.
func (s *Service) Get(ctx context.Context, session auth.Session, appID id.ApplicationID) (*models.Application, error) {
	ctx, span := s.tracer.Start(ctx, "application.Get")
	defer span.End()

	app, err := s.apps.FindByID(ctx, appID)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	if app.OwnerID == session.UserID {
		return app, nil
	}
	if err := s.requireAdmin(ctx, session); err != nil {
		return nil, dErrors.New(dErrors.CodeNotFound, "application not found")
	}
	return app, nil
}

// GetOwn returns the caller's own application.
func (s *Service) GetOwn(ctx context.Context, session auth.Session) (*models.Application, error) {
	app, err := s.apps.FindByOwner(ctx, session.UserID)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	return app, nil
}

// requireAdmin loads the caller's profile and verifies the admin role.
func (s *Service) requireAdmin(ctx context.Context, session auth.Session) error {
	profile, err := s.profiles.FindByOwner(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeForbidden, "admin role required")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "load caller profile")
	}
	if !profile.IsAdmin() {
		return dErrors.New(dErrors.CodeForbidden, "admin role required")
	}
	return nil
}

// wrapStoreErr translates store sentinels into domain errors.
func wrapStoreErr(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "application not found")
	case errors.Is(err, sentinel.ErrRevisionMismatch):
		return dErrors.New(dErrors.CodeConflict, "application was modified concurrently, reload and retry")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.New(dErrors.CodeConflict, "conflicting application state")
	}
	if dErrors.CodeOf(err) != dErrors.CodeInternal {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "application store failure")
}
