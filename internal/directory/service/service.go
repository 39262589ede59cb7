// Package service serves the public directory listings with an optional
// Redis read-through cache.
package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/stagelink/stagelink/internal/directory/models"
	dErrors "github.com/stagelink/stagelink/pkg/domain-errors"
)

// Store is the directory persistence the service reads from.
type Store interface {
	ListArtists(ctx context.Context) ([]*models.Artist, error)
	ListIndustryProfessionals(ctx context.Context) ([]*models.IndustryProfessional, error)
	ListInstrumentalists(ctx context.Context) ([]*models.Instrumentalist, error)
}

// Cache is the subset of the Redis client the service needs. Nil-able: with
// no cache every read goes to the store.
type Cache interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, ttl time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

const (
	cacheKeyArtists         = "directory:artists"
	cacheKeyIndustry        = "directory:industry_professionals"
	cacheKeyInstrumentalist = "directory:instrumentalists"
)

// Service reads directory listings, caching serialized pages in Redis.
type Service struct {
	store  Store
	cache  Cache
	ttl    time.Duration
	logger *slog.Logger
}

func New(store Store, cache Cache, ttl time.Duration, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, cache: cache, ttl: ttl, logger: logger}
}

// ListArtists returns the artist directory newest-first.
func (s *Service) ListArtists(ctx context.Context) ([]*models.Artist, error) {
	var cached []*models.Artist
	if s.readCache(ctx, cacheKeyArtists, &cached) {
		return cached, nil
	}
	artists, err := s.store.ListArtists(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list artists")
	}
	s.writeCache(ctx, cacheKeyArtists, artists)
	return artists, nil
}

// ListIndustryProfessionals returns the industry directory newest-first.
func (s *Service) ListIndustryProfessionals(ctx context.Context) ([]*models.IndustryProfessional, error) {
	var cached []*models.IndustryProfessional
	if s.readCache(ctx, cacheKeyIndustry, &cached) {
		return cached, nil
	}
	pros, err := s.store.ListIndustryProfessionals(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list industry professionals")
	}
	s.writeCache(ctx, cacheKeyIndustry, pros)
	return pros, nil
}

// ListInstrumentalists returns the instrumentalist directory newest-first.
func (s *Service) ListInstrumentalists(ctx context.Context) ([]*models.Instrumentalist, error) {
	var cached []*models.Instrumentalist
	if s.readCache(ctx, cacheKeyInstrumentalist, &cached) {
		return cached, nil
	}
	players, err := s.store.ListInstrumentalists(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list instrumentalists")
	}
	s.writeCache(ctx, cacheKeyInstrumentalist, players)
	return players, nil
}

// Invalidate drops all cached listings. Finalization calls this after
// inserting a new directory record.
func (s *Service) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, cacheKeyArtists, cacheKeyIndustry, cacheKeyInstrumentalist).Err(); err != nil {
		s.logger.WarnContext(ctx, "directory cache invalidation failed", "error", err)
	}
}

// readCache loads a cached listing. Cache failures count as misses; the
// store remains the source of truth.
func (s *Service) readCache(ctx context.Context, key string, dst any) bool {
	if s.cache == nil {
		return false
	}
	raw, err := s.cache.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			s.logger.WarnContext(ctx, "directory cache read failed", "key", key, "error", err)
		}
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		s.logger.WarnContext(ctx, "directory cache entry corrupt", "key", key, "error", err)
		return false
	}
	return true
}

func (s *Service) writeCache(ctx context.Context, key string, v any) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, raw, s.ttl).Err(); err != nil {
		s.logger.WarnContext(ctx, "directory cache write failed", "key", key, "error", err)
	}
}
