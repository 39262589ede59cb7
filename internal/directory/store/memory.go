// Package store persists finalized directory profiles across the three
// directory tables.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/stagelink/stagelink/internal/directory/models"
	id "github.com/stagelink/stagelink/pkg/domain"
	"github.com/stagelink/stagelink/pkg/platform/sentinel"
)

// InMemoryStore keeps the three directories in slices under one mutex.
type InMemoryStore struct {
	mu              sync.RWMutex
	artists         []*models.Artist
	industry        []*models.IndustryProfessional
	instrumentalist []*models.Instrumentalist
	owners          map[id.UserID]bool
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{owners: make(map[id.UserID]bool)}
}

func (s *InMemoryStore) InsertArtist(ctx context.Context, a *models.Artist) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.owners[a.OwnerID] {
		return sentinel.ErrConflict
	}
	s.owners[a.OwnerID] = true
	cp := *a
	s.artists = append(s.artists, &cp)
	return nil
}

func (s *InMemoryStore) InsertIndustryProfessional(ctx context.Context, p *models.IndustryProfessional) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.owners[p.OwnerID] {
		return sentinel.ErrConflict
	}
	s.owners[p.OwnerID] = true
	cp := *p
	s.industry = append(s.industry, &cp)
	return nil
}

func (s *InMemoryStore) InsertInstrumentalist(ctx context.Context, p *models.Instrumentalist) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.owners[p.OwnerID] {
		return sentinel.ErrConflict
	}
	s.owners[p.OwnerID] = true
	cp := *p
	s.instrumentalist = append(s.instrumentalist, &cp)
	return nil
}

func (s *InMemoryStore) ListArtists(ctx context.Context) ([]*models.Artist, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Artist, len(s.artists))
	for i, a := range s.artists {
		cp := *a
		out[i] = &cp
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemoryStore) ListIndustryProfessionals(ctx context.Context) ([]*models.IndustryProfessional, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.IndustryProfessional, len(s.industry))
	for i, p := range s.industry {
		cp := *p
		out[i] = &cp
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemoryStore) ListInstrumentalists(ctx context.Context) ([]*models.Instrumentalist, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Instrumentalist, len(s.instrumentalist))
	for i, p := range s.instrumentalist {
		cp := *p
		out[i] = &cp
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}
