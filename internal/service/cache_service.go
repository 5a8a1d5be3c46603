package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/noah-isme/skillmatrix-api/pkg/errors"
)

const defaultCacheTTL = 5 * time.Minute

// CacheRepository is the storage behind CacheService.
type CacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// CacheService fronts the compliance and dashboard caches. A nil or disabled
// service misses on every read and ignores writes, so callers never branch
// on whether Redis is configured.
type CacheService struct {
	repo    CacheRepository
	metrics *MetricsService
	ttl     time.Duration
	logger  *zap.Logger
	enabled bool
}

// NewCacheService constructs a cache service.
func NewCacheService(repo CacheRepository, metrics *MetricsService, ttl time.Duration, logger *zap.Logger, enabled bool) *CacheService {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{
		repo:    repo,
		metrics: metrics,
		ttl:     ttl,
		logger:  logger.Named("cache"),
		enabled: enabled && repo != nil,
	}
}

// Enabled reports whether lookups can ever hit.
func (s *CacheService) Enabled() bool {
	return s != nil && s.enabled
}

// Get decodes the entry at key into dest and reports whether it was found.
// A backend error is returned alongside a miss.
func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !s.Enabled() {
		return false, nil
	}
	err := s.repo.Get(ctx, key, dest)
	s.metrics.RecordCacheLookup(err == nil)
	if err == nil || errors.Is(err, appErrors.ErrCacheMiss) {
		return err == nil, nil
	}
	s.logger.Warn("lookup failed", zap.String("key", key), zap.Error(err))
	return false, err
}

// Set stores value at key. A non-positive ttl uses the configured default.
func (s *CacheService) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !s.Enabled() {
		return nil
	}
	if ttl <= 0 {
		ttl = s.ttl
	}
	started := time.Now()
	err := s.repo.Set(ctx, key, value, ttl)
	s.metrics.ObserveCacheWrite(time.Since(started))
	if err != nil {
		s.logger.Warn("write failed", zap.String("key", key), zap.Error(err))
	}
	return err
}

// Invalidate drops every key matching any of the patterns. All patterns are
// attempted and the first failure is returned.
func (s *CacheService) Invalidate(ctx context.Context, patterns ...string) error {
	if !s.Enabled() {
		return nil
	}
	var first error
	for _, pattern := range patterns {
		if err := s.repo.DeleteByPattern(ctx, pattern); err != nil {
			s.logger.Warn("invalidation failed", zap.String("pattern", pattern), zap.Error(err))
			if first == nil {
				first = err
			}
		}
	}
	return first
}
