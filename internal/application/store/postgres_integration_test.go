//go:build integration

package store_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/stagelink/stagelink/internal/application/models"
	"github.com/stagelink/stagelink/internal/application/store"
	profilemodels "github.com/stagelink/stagelink/internal/profile/models"
	profilestore "github.com/stagelink/stagelink/internal/profile/store"
	id "github.com/stagelink/stagelink/pkg/domain"
	"github.com/stagelink/stagelink/pkg/platform/sentinel"
	"github.com/stagelink/stagelink/pkg/platform/tx"
	"github.com/stagelink/stagelink/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "applications"))
}

func newPendingApplication(s *suite.Suite, owner id.UserID) *models.Application {
	app, err := models.NewSubmitted(
		id.ApplicationID(uuid.New()), owner, models.TypeArtist,
		models.Fields{Artist: &models.ArtistFields{
			ArtistType: "solo", Name: "N", Email: "n@b.edu", School: "NYU",
			Genres: "Folk", Links: "https://example.com",
		}},
		time.Now().UTC().Truncate(time.Microsecond),
	)
	s.Require().NoError(err)
	return app
}

func (s *PostgresStoreSuite) TestCreateAndFindRoundTrip() {
	ctx := context.Background()
	app := newPendingApplication(&s.Suite, id.UserID(uuid.New()))
	s.Require().NoError(s.store.Create(ctx, app))

	got, err := s.store.FindByID(ctx, app.ID)
	s.Require().NoError(err)
	s.Equal(app.ID, got.ID)
	s.Equal(models.StatusPending, got.Status)
	s.Require().Len(got.StatusHistory, 1)
	s.Equal(app.Fields.Artist.Name, got.Fields.Artist.Name)

	byOwner, err := s.store.FindByOwner(ctx, app.OwnerID)
	s.Require().NoError(err)
	s.Equal(app.ID, byOwner.ID)
}

func (s *PostgresStoreSuite) TestUniqueOwnerConstraint() {
	ctx := context.Background()
	owner := id.UserID(uuid.New())
	s.Require().NoError(s.store.Create(ctx, newPendingApplication(&s.Suite, owner)))

	err := s.store.Create(ctx, newPendingApplication(&s.Suite, owner))
	s.ErrorIs(err, sentinel.ErrConflict)
}

func (s *PostgresStoreSuite) TestCreateAllowedAfterRejection() {
	ctx := context.Background()
	owner := id.UserID(uuid.New())
	first := newPendingApplication(&s.Suite, owner)
	s.Require().NoError(s.store.Create(ctx, first))

	_, err := s.store.Execute(ctx, first.ID, 0,
		func(a *models.Application) error { return a.CanTransitionTo(models.StatusRejected) },
		func(a *models.Application) {
			a.ApplyTransition(models.StatusRejected, time.Now().UTC(), owner, "")
		},
	)
	s.Require().NoError(err)

	s.NoError(s.store.Create(ctx, newPendingApplication(&s.Suite, owner)),
		"a terminal application must not block a new one")
}

// TestTransactionRunnerSpansStores verifies the submission write path: the
// application insert and the profile upsert share one transaction, so an
// error after both writes leaves neither behind.
func (s *PostgresStoreSuite) TestTransactionRunnerSpansStores() {
	ctx := context.Background()
	s.Require().NoError(s.postgres.TruncateTables(ctx, "profiles"))

	runner := tx.NewRunner(s.postgres.DB)
	profiles := profilestore.NewPostgres(s.postgres.DB)
	owner := id.UserID(uuid.New())
	app := newPendingApplication(&s.Suite, owner)

	boom := errors.New("boom")
	err := runner.InTx(ctx, func(ctx context.Context) error {
		if err := s.store.Create(ctx, app); err != nil {
			return err
		}
		profile := profilemodels.New(owner, profilemodels.RoleArtist, time.Now().UTC())
		if err := profiles.Save(ctx, profile); err != nil {
			return err
		}
		return boom
	})
	s.Require().ErrorIs(err, boom)

	_, err = s.store.FindByID(ctx, app.ID)
	s.ErrorIs(err, sentinel.ErrNotFound, "rolled back with the transaction")
	_, err = profiles.FindByOwner(ctx, owner)
	s.ErrorIs(err, sentinel.ErrNotFound, "rolled back with the transaction")

	err = runner.InTx(ctx, func(ctx context.Context) error {
		return s.store.Create(ctx, app)
	})
	s.Require().NoError(err)
	got, err := s.store.FindByID(ctx, app.ID)
	s.Require().NoError(err)
	s.Equal(app.ID, got.ID)
}

func (s *PostgresStoreSuite) TestExecuteRevisionGuard() {
	ctx := context.Background()
	app := newPendingApplication(&s.Suite, id.UserID(uuid.New()))
	s.Require().NoError(s.store.Create(ctx, app))

	_, err := s.store.Execute(ctx, app.ID, 99,
		func(a *models.Application) error { return nil },
		func(a *models.Application) {},
	)
	s.ErrorIs(err, sentinel.ErrRevisionMismatch)

	got, err := s.store.Execute(ctx, app.ID, 1,
		func(a *models.Application) error { return nil },
		func(a *models.Application) {
			a.CurrentRevision++
			a.ApplyTransition(models.StatusPendingUserApproval, time.Now().UTC(), a.OwnerID, "")
		},
	)
	s.Require().NoError(err)
	s.Equal(2, got.CurrentRevision)
}

// TestConcurrentExecuteLosesNoHistory drives many concurrent transitions and
// verifies every successful one landed exactly one history entry.
func (s *PostgresStoreSuite) TestConcurrentExecuteLosesNoHistory() {
	ctx := context.Background()
	app := newPendingApplication(&s.Suite, id.UserID(uuid.New()))
	s.Require().NoError(s.store.Create(ctx, app))

	const goroutines = 20
	var wg sync.WaitGroup
	var applied atomic.Int32

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.store.Execute(ctx, app.ID, 0,
				func(a *models.Application) error { return nil },
				func(a *models.Application) {
					a.StatusHistory = append(a.StatusHistory, models.StatusChange{
						Status: a.Status, At: time.Now().UTC(), Actor: a.OwnerID,
					})
				},
			)
			if err == nil {
				applied.Add(1)
			} else if !errors.Is(err, sentinel.ErrRevisionMismatch) {
				s.T().Errorf("unexpected execute error: %v", err)
			}
		}()
	}
	wg.Wait()

	got, err := s.store.FindByID(ctx, app.ID)
	s.Require().NoError(err)
	s.Equal(int(applied.Load())+1, len(got.StatusHistory),
		"initial entry plus one per successful execute")
}

func (s *PostgresStoreSuite) TestListByStatus() {
	ctx := context.Background()
	a := newPendingApplication(&s.Suite, id.UserID(uuid.New()))
	s.Require().NoError(s.store.Create(ctx, a))
	b := newPendingApplication(&s.Suite, id.UserID(uuid.New()))
	s.Require().NoError(s.store.Create(ctx, b))

	_, err := s.store.Execute(ctx, a.ID, 0,
		func(app *models.Application) error { return app.CanTransitionTo(models.StatusRejected) },
		func(app *models.Application) {
			app.ApplyTransition(models.StatusRejected, time.Now().UTC(), app.OwnerID, "")
		},
	)
	s.Require().NoError(err)

	pending, err := s.store.ListByStatus(ctx, []models.Status{models.StatusPending})
	s.Require().NoError(err)
	s.Require().Len(pending, 1)
	s.Equal(b.ID, pending[0].ID)

	both, err := s.store.ListByStatus(ctx, []models.Status{models.StatusPending, models.StatusRejected})
	s.Require().NoError(err)
	s.Len(both, 2)
}

func (s *PostgresStoreSuite) TestDelete() {
	ctx := context.Background()
	app := newPendingApplication(&s.Suite, id.UserID(uuid.New()))
	s.Require().NoError(s.store.Create(ctx, app))
	s.Require().NoError(s.store.Delete(ctx, app.ID))

	_, err := s.store.FindByID(ctx, app.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
}
