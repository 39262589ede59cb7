package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stagelink/stagelink/internal/application/models"
	id "github.com/stagelink/stagelink/pkg/domain"
	dErrors "github.com/stagelink/stagelink/pkg/domain-errors"
	"github.com/stagelink/stagelink/pkg/platform/sentinel"
)

func seedApplication(t *testing.T, s *InMemoryStore, owner id.UserID, created time.Time) *models.Application {
	t.Helper()
	app, err := models.NewSubmitted(
		id.ApplicationID(uuid.New()), owner, models.TypeArtist,
		models.Fields{Artist: &models.ArtistFields{
			ArtistType: "solo", Name: "N", Email: "n@b.edu", School: "NYU",
			Genres: "Folk", Links: "https://example.com",
		}},
		created,
	)
	require.NoError(t, err)
	require.NoError(t, s.Create(context.Background(), app))
	return app
}

func TestCreateConflictOnSecondNonDraft(t *testing.T) {
	s := NewInMemory()
	owner := id.UserID(uuid.New())
	seedApplication(t, s, owner, time.Now())

	second, err := models.NewSubmitted(
		id.ApplicationID(uuid.New()), owner, models.TypeArtist,
		models.Fields{Artist: &models.ArtistFields{
			ArtistType: "solo", Name: "N", Email: "n@b.edu", School: "NYU",
			Genres: "Folk", Links: "https://example.com",
		}},
		time.Now(),
	)
	require.NoError(t, err)

	err = s.Create(context.Background(), second)
	assert.ErrorIs(t, err, sentinel.ErrConflict)
	assert.Equal(t, 1, s.Count())
}

func TestCreateAllowedAfterTerminalApplication(t *testing.T) {
	s := NewInMemory()
	owner := id.UserID(uuid.New())
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	first := seedApplication(t, s, owner, base)
	_, err := s.Execute(context.Background(), first.ID, 0,
		func(a *models.Application) error { return nil },
		func(a *models.Application) { a.ApplyTransition(models.StatusRejected, base, owner, "") },
	)
	require.NoError(t, err)

	second := seedApplication(t, s, owner, base.Add(time.Hour))
	assert.Equal(t, 2, s.Count())
	assert.NotEqual(t, first.ID, second.ID)
}

func TestFindByOwnerReturnsLatest(t *testing.T) {
	s := NewInMemory()
	owner := id.UserID(uuid.New())
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	first := seedApplication(t, s, owner, base)
	// Reject the first so the second Create is allowed.
	_, err := s.Execute(context.Background(), first.ID, 0,
		func(a *models.Application) error { return nil },
		func(a *models.Application) { a.ApplyTransition(models.StatusRejected, base, owner, "") },
	)
	require.NoError(t, err)
	second := seedApplication(t, s, owner, base.Add(time.Hour))

	got, err := s.FindByOwner(context.Background(), owner)
	require.NoError(t, err)
	assert.Equal(t, second.ID, got.ID)
}

func TestExecuteAppliesMutation(t *testing.T) {
	s := NewInMemory()
	app := seedApplication(t, s, id.UserID(uuid.New()), time.Now())
	admin := id.UserID(uuid.New())

	got, err := s.Execute(context.Background(), app.ID, 0,
		func(a *models.Application) error { return a.CanTransitionTo(models.StatusPendingUserApproval) },
		func(a *models.Application) {
			a.CurrentRevision++
			a.ApplyTransition(models.StatusPendingUserApproval, time.Now(), admin, "")
		},
	)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPendingUserApproval, got.Status)
	assert.Equal(t, 2, got.CurrentRevision)
	assert.Len(t, got.StatusHistory, 2)

	stored, err := s.FindByID(context.Background(), app.ID)
	require.NoError(t, err)
	assert.Equal(t, got.CurrentRevision, stored.CurrentRevision)
}

func TestExecuteRevisionMismatch(t *testing.T) {
	s := NewInMemory()
	app := seedApplication(t, s, id.UserID(uuid.New()), time.Now())

	_, err := s.Execute(context.Background(), app.ID, 99,
		func(a *models.Application) error { return nil },
		func(a *models.Application) {},
	)
	assert.ErrorIs(t, err, sentinel.ErrRevisionMismatch)

	_, err = s.Execute(context.Background(), app.ID, app.CurrentRevision,
		func(a *models.Application) error { return nil },
		func(a *models.Application) {},
	)
	assert.NoError(t, err, "matching expected revision passes")
}

func TestExecuteValidationFailureLeavesRecordUntouched(t *testing.T) {
	s := NewInMemory()
	app := seedApplication(t, s, id.UserID(uuid.New()), time.Now())

	_, err := s.Execute(context.Background(), app.ID, 0,
		func(a *models.Application) error {
			a.Status = models.StatusFinalized // mutating inside validate must not leak
			return dErrors.New(dErrors.CodeConflict, "nope")
		},
		func(a *models.Application) { a.CurrentRevision = 42 },
	)
	require.Error(t, err)

	stored, findErr := s.FindByID(context.Background(), app.ID)
	require.NoError(t, findErr)
	assert.Equal(t, models.StatusPending, stored.Status)
	assert.Equal(t, 1, stored.CurrentRevision)
}

func TestExecuteNotFound(t *testing.T) {
	s := NewInMemory()
	_, err := s.Execute(context.Background(), id.ApplicationID(uuid.New()), 0,
		func(a *models.Application) error { return nil },
		func(a *models.Application) {},
	)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestListByStatusNewestFirst(t *testing.T) {
	s := NewInMemory()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	older := seedApplication(t, s, id.UserID(uuid.New()), base)
	newer := seedApplication(t, s, id.UserID(uuid.New()), base.Add(time.Hour))

	out, err := s.ListByStatus(context.Background(), []models.Status{models.StatusPending})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, newer.ID, out[0].ID)
	assert.Equal(t, older.ID, out[1].ID)

	out, err = s.ListByStatus(context.Background(), []models.Status{models.StatusApproved})
	require.NoError(t, err)
	assert.Empty(t, out)
}
