// Package store provides profile persistence. The in-memory implementation
// backs unit tests and bucketless development; PostgresStore is the
// production path.
package store

import (
	"context"
	"errors"
	"sync"

	"github.com/stagelink/stagelink/internal/profile/models"
	id "github.com/stagelink/stagelink/pkg/domain"
	"github.com/stagelink/stagelink/pkg/platform/sentinel"
)

// InMemoryStore keeps profiles keyed by owner under a mutex.
type InMemoryStore struct {
	mu       sync.RWMutex
	profiles map[id.UserID]*models.Profile

	// FailSaves makes Save return an error. Test hook.
	FailSaves bool
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{profiles: make(map[id.UserID]*models.Profile)}
}

func (s *InMemoryStore) FindByOwner(ctx context.Context, owner id.UserID) (*models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[owner]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return p.Clone(), nil
}

// Save upserts a profile keyed by owner.
func (s *InMemoryStore) Save(ctx context.Context, profile *models.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailSaves {
		return errors.New("profile store unavailable")
	}
	s.profiles[profile.OwnerID] = profile.Clone()
	return nil
}
