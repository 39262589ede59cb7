package storage

import (
	"context"
	"sync"
)

// InMemoryStore keeps uploaded objects in a map. Used by unit tests and by
// local development when no bucket is configured.
type InMemoryStore struct {
	mu      sync.RWMutex
	objects map[string][]byte

	// FailUploads forces Upload to fail; tests use it to exercise the
	// submission rollback path.
	FailUploads bool
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{objects: make(map[string][]byte)}
}

func (s *InMemoryStore) Upload(ctx context.Context, path string, data []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailUploads {
		return "", context.DeadlineExceeded
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	s.objects[path] = buf
	return path, nil
}

func (s *InMemoryStore) PublicURL(ref string) string {
	return "memory://" + ref
}

func (s *InMemoryStore) Remove(ctx context.Context, ref string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, ref)
	return nil
}

// Len reports the number of stored objects. Test helper for asserting that
// failed submissions leave no orphaned uploads behind.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
