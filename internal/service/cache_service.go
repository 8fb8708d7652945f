package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/noah-isme/student-records-api/pkg/errors"
)

// CacheRepository abstracts persistence for cached payloads.
type CacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Version(ctx context.Context, key string) (int64, error)
	SetIfVersion(ctx context.Context, key string, version int64, value interface{}, ttl time.Duration) (bool, error)
	Invalidate(ctx context.Context, versionTTL time.Duration, keys ...string) error
}

// noVersion marks a lookup whose version could not be read. Set ignores it.
const noVersion int64 = -1

// CacheService wraps a CacheRepository with metrics, a default TTL and an
// on/off switch. Cache failures are logged and never returned to callers.
type CacheService struct {
	repo       CacheRepository
	metrics    *MetricsService
	defaultTTL time.Duration
	logger     *zap.Logger
	enabled    bool
}

// NewCacheService constructs a cache service.
func NewCacheService(repo CacheRepository, metrics *MetricsService, defaultTTL time.Duration, logger *zap.Logger, enabled bool) *CacheService {
	if defaultTTL <= 0 {
		defaultTTL = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{repo: repo, metrics: metrics, defaultTTL: defaultTTL, logger: logger, enabled: enabled}
}

// Enabled indicates whether caching is active.
func (s *CacheService) Enabled() bool {
	return s != nil && s.enabled && s.repo != nil
}

// Get reports whether key was found and decoded into dest. On a miss it
// also returns the key's version, which the caller hands back to Set after
// loading the value from the database.
func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) (bool, int64) {
	if !s.Enabled() {
		return false, noVersion
	}
	version, err := s.repo.Version(ctx, key)
	if err != nil {
		s.logger.Warn("cache version lookup failed", zap.String("key", key), zap.Error(err))
		version = noVersion
	}
	err = s.repo.Get(ctx, key, dest)
	if err != nil && !errors.Is(err, appErrors.ErrCacheMiss) {
		s.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
	}
	s.metrics.RecordCacheLookup(err == nil)
	return err == nil, version
}

// Set stores the value using the default TTL unless key was invalidated
// after version was read.
func (s *CacheService) Set(ctx context.Context, key string, version int64, value interface{}) {
	if !s.Enabled() || version == noVersion {
		return
	}
	written, err := s.repo.SetIfVersion(ctx, key, version, value, s.defaultTTL)
	if err != nil {
		s.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
		return
	}
	if !written {
		s.logger.Debug("cache set skipped, key invalidated during load", zap.String("key", key))
	}
}

// Invalidate drops the given keys and fences off loads already in flight.
func (s *CacheService) Invalidate(ctx context.Context, keys ...string) {
	if !s.Enabled() {
		return
	}
	if err := s.repo.Invalidate(ctx, 2*s.defaultTTL, keys...); err != nil {
		s.logger.Warn("cache invalidate failed", zap.Strings("keys", keys), zap.Error(err))
	}
}
