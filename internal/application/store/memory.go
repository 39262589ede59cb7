// Package store provides application persistence with an atomic
// read-validate-mutate primitive. Status history must never lose entries to
// a concurrent write, so all mutations after creation flow through Execute
// rather than blind updates.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/stagelink/stagelink/internal/application/models"
	id "github.com/stagelink/stagelink/pkg/domain"
	"github.com/stagelink/stagelink/pkg/platform/sentinel"
)

// InMemoryStore keeps applications under a mutex. The lock is held across
// validate and mutate in Execute, giving the same atomicity the Postgres
// implementation gets from row locks.
type InMemoryStore struct {
	mu   sync.RWMutex
	apps map[id.ApplicationID]*models.Application
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{apps: make(map[id.ApplicationID]*models.Application)}
}

// Create inserts a new application. Returns sentinel.ErrConflict when the
// owner already has a live application; drafts and terminal records
// (rejected, finalized) do not block a new submission.
func (s *InMemoryStore) Create(ctx context.Context, app *models.Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.apps {
		if existing.OwnerID == app.OwnerID &&
			existing.Status != models.StatusDraft && !existing.Status.IsTerminal() {
			return sentinel.ErrConflict
		}
	}
	s.apps[app.ID] = app.Clone()
	return nil
}

func (s *InMemoryStore) FindByID(ctx context.Context, appID id.ApplicationID) (*models.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	app, ok := s.apps[appID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return app.Clone(), nil
}

// FindByOwner returns the owner's most recent application.
func (s *InMemoryStore) FindByOwner(ctx context.Context, owner id.UserID) (*models.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *models.Application
	for _, app := range s.apps {
		if app.OwnerID != owner {
			continue
		}
		if latest == nil || app.CreatedAt.After(latest.CreatedAt) {
			latest = app
		}
	}
	if latest == nil {
		return nil, sentinel.ErrNotFound
	}
	return latest.Clone(), nil
}

// ListByStatus returns applications in any of the given statuses, newest
// first by creation time.
func (s *InMemoryStore) ListByStatus(ctx context.Context, statuses []models.Status) ([]*models.Application, error) {
	wanted := make(map[models.Status]bool, len(statuses))
	for _, st := range statuses {
		wanted[st] = true
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Application
	for _, app := range s.apps {
		if wanted[app.Status] {
			out = append(out, app.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// Execute atomically loads, validates, mutates, and stores one application.
// When expectedRevision is non-zero it must match the stored revision
// (optimistic concurrency for admin edits based on a stale read); mismatch
// returns sentinel.ErrRevisionMismatch. Validation failures abort without
// mutating.
func (s *InMemoryStore) Execute(
	ctx context.Context,
	appID id.ApplicationID,
	expectedRevision int,
	validate func(*models.Application) error,
	mutate func(*models.Application),
) (*models.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	app, ok := s.apps[appID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if expectedRevision != 0 && app.CurrentRevision != expectedRevision {
		return nil, sentinel.ErrRevisionMismatch
	}

	working := app.Clone()
	if err := validate(working); err != nil {
		return nil, err
	}
	mutate(working)
	s.apps[appID] = working
	return working.Clone(), nil
}

// Delete removes an application. Used only to roll back a failed submission.
func (s *InMemoryStore) Delete(ctx context.Context, appID id.ApplicationID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.apps, appID)
	return nil
}

// Count reports the number of stored applications. Test helper.
func (s *InMemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.apps)
}
