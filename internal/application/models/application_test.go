package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "github.com/stagelink/stagelink/pkg/domain"
	dErrors "github.com/stagelink/stagelink/pkg/domain-errors"
)

func validArtistFields() Fields {
	return Fields{Artist: &ArtistFields{
		ArtistType: "band",
		Name:       "The Midnight Revue",
		Email:      "band@school.edu",
		School:     "Berklee",
		Genres:     "Indie, Rock",
		Links:      "https://example.com/midnight",
	}}
}

func newTestApplication(t *testing.T, now time.Time) *Application {
	t.Helper()
	app, err := NewSubmitted(
		id.ApplicationID(uuid.New()), id.UserID(uuid.New()),
		TypeArtist, validArtistFields(), now,
	)
	require.NoError(t, err)
	return app
}

func TestTransitionGraph(t *testing.T) {
	allowed := map[Status][]Status{
		StatusDraft:               {StatusPending},
		StatusPending:             {StatusPendingUserApproval, StatusRejected},
		StatusPendingUserApproval: {StatusApproved, StatusChangesRequested, StatusRejected},
		StatusChangesRequested:    {StatusPendingUserApproval, StatusRejected},
		StatusApproved:            {StatusFinalized, StatusRejected},
		StatusRejected:            nil,
		StatusFinalized:           nil,
	}
	all := []Status{
		StatusDraft, StatusPending, StatusPendingUserApproval,
		StatusChangesRequested, StatusApproved, StatusRejected, StatusFinalized,
	}

	for from, targets := range allowed {
		ok := make(map[Status]bool, len(targets))
		for _, to := range targets {
			ok[to] = true
		}
		for _, to := range all {
			assert.Equal(t, ok[to], from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}

	assert.True(t, StatusRejected.IsTerminal())
	assert.True(t, StatusFinalized.IsTerminal())
	assert.False(t, StatusPending.IsTerminal())
}

func TestNewSubmitted(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	app := newTestApplication(t, now)

	assert.Equal(t, StatusPending, app.Status)
	assert.Equal(t, 1, app.CurrentRevision)
	require.Len(t, app.StatusHistory, 1)
	assert.Equal(t, StatusPending, app.StatusHistory[0].Status)
	assert.Equal(t, app.OwnerID, app.StatusHistory[0].Actor)
	assert.Equal(t, now, app.StatusHistory[0].At)
}

func TestNewSubmittedInvalidFields(t *testing.T) {
	_, err := NewSubmitted(
		id.ApplicationID(uuid.New()), id.UserID(uuid.New()),
		TypeArtist, Fields{Artist: &ArtistFields{Name: "No Email"}}, time.Now(),
	)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestTransitionAppendsHistory(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	app := newTestApplication(t, now)
	admin := id.UserID(uuid.New())

	require.NoError(t, app.Transition(StatusPendingUserApproval, now.Add(time.Hour), admin, ""))
	require.NoError(t, app.Transition(StatusChangesRequested, now.Add(2*time.Hour), app.OwnerID, "fix the bio"))

	require.Len(t, app.StatusHistory, 3)
	assert.Equal(t, StatusChangesRequested, app.Status)
	assert.Equal(t, "fix the bio", app.StatusHistory[2].Note)

	err := app.Transition(StatusFinalized, now, admin, "")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
	assert.Len(t, app.StatusHistory, 3, "failed transition must not append history")
}

func TestShouldOfferManualApprove(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	app := newTestApplication(t, now)
	admin := id.UserID(uuid.New())
	require.NoError(t, app.Transition(StatusPendingUserApproval, now, admin, ""))

	assert.False(t, app.ShouldOfferManualApprove(now.Add(6*24*time.Hour)))
	assert.True(t, app.ShouldOfferManualApprove(now.Add(7*24*time.Hour)))
	assert.True(t, app.ShouldOfferManualApprove(now.Add(8*24*time.Hour)))
}

func TestShouldOfferManualApproveUsesLatestEntry(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	app := newTestApplication(t, now)
	admin := id.UserID(uuid.New())

	// First round sat for ten days before the applicant asked for changes.
	require.NoError(t, app.Transition(StatusPendingUserApproval, now, admin, ""))
	require.NoError(t, app.Transition(StatusChangesRequested, now.Add(10*24*time.Hour), app.OwnerID, "typo"))
	reproposed := now.Add(11 * 24 * time.Hour)
	require.NoError(t, app.Transition(StatusPendingUserApproval, reproposed, admin, ""))

	assert.False(t, app.ShouldOfferManualApprove(reproposed.Add(2*24*time.Hour)),
		"the waiting period restarts at the most recent proposal")
	assert.True(t, app.ShouldOfferManualApprove(reproposed.Add(7*24*time.Hour)))
}

func TestShouldOfferManualApproveWrongStatus(t *testing.T) {
	now := time.Now()
	app := newTestApplication(t, now)
	assert.False(t, app.ShouldOfferManualApprove(now.Add(30*24*time.Hour)))
}

func TestCloneIsIndependent(t *testing.T) {
	now := time.Now()
	app := newTestApplication(t, now)
	app.AdminApprovedProfile = ProposedProfile{"name": "X", "genres": []string{"Indie"}}
	app.ModificationRequests = []string{"first"}

	cp := app.Clone()
	cp.StatusHistory[0].Note = "mutated"
	cp.ModificationRequests[0] = "mutated"
	cp.AdminApprovedProfile["name"] = "Y"

	assert.Empty(t, app.StatusHistory[0].Note)
	assert.Equal(t, "first", app.ModificationRequests[0])
	assert.Equal(t, "X", app.AdminApprovedProfile["name"])
}
