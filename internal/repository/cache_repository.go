package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	appErrors "github.com/noah-isme/student-records-api/pkg/errors"
)

const versionSuffix = ":version"

// setIfVersion writes KEYS[1] only while KEYS[2] still holds ARGV[1]. A
// missing version key counts as 0.
var setIfVersion = redis.NewScript(`
local current = redis.call('GET', KEYS[2]) or '0'
if current ~= ARGV[1] then
	return 0
end
redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
return 1
`)

// CacheRepository stores JSON encoded payloads in Redis. A nil client turns
// every call into a miss or a no-op.
//
// Every key has a companion version counter. Invalidate bumps it, and
// SetIfVersion refuses to write a value loaded under an older version, so a
// slow reader cannot put back a row that a writer already replaced.
type CacheRepository struct {
	client *redis.Client
}

// NewCacheRepository constructs a cache repository.
func NewCacheRepository(client *redis.Client) *CacheRepository {
	return &CacheRepository{client: client}
}

// Get unmarshals the cached value into dest or returns appErrors.ErrCacheMiss.
func (r *CacheRepository) Get(ctx context.Context, key string, dest interface{}) error {
	if r.client == nil {
		return appErrors.ErrCacheMiss
	}

	raw, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return appErrors.ErrCacheMiss
		}
		return fmt.Errorf("redis get %s: %w", key, err)
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("unmarshal cache value for %s: %w", key, err)
	}
	return nil
}

// Version returns the current invalidation counter of key.
func (r *CacheRepository) Version(ctx context.Context, key string) (int64, error) {
	if r.client == nil {
		return 0, nil
	}

	version, err := r.client.Get(ctx, key+versionSuffix).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("redis get %s%s: %w", key, versionSuffix, err)
	}
	return version, nil
}

// SetIfVersion stores value under key only if the key was not invalidated
// since version was read. It reports whether the value was written.
func (r *CacheRepository) SetIfVersion(ctx context.Context, key string, version int64, value interface{}, ttl time.Duration) (bool, error) {
	if r.client == nil {
		return false, nil
	}

	payload, err := json.Marshal(value)
	if err != nil {
		return false, fmt.Errorf("marshal cache value for %s: %w", key, err)
	}
	written, err := setIfVersion.Run(ctx, r.client,
		[]string{key, key + versionSuffix},
		strconv.FormatInt(version, 10), payload, ttl.Milliseconds(),
	).Int()
	if err != nil {
		return false, fmt.Errorf("redis set %s: %w", key, err)
	}
	return written == 1, nil
}

// Invalidate drops the given keys and bumps their version counters in one
// transaction. Counters outlive the values by versionTTL.
func (r *CacheRepository) Invalidate(ctx context.Context, versionTTL time.Duration, keys ...string) error {
	if r.client == nil || len(keys) == 0 {
		return nil
	}
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, keys...)
		for _, key := range keys {
			pipe.Incr(ctx, key+versionSuffix)
			pipe.PExpire(ctx, key+versionSuffix, versionTTL)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis invalidate %v: %w", keys, err)
	}
	return nil
}

// Close releases the underlying Redis connection if present.
func (r *CacheRepository) Close() error {
	if r.client == nil {
		return nil
	}
	return r.client.Close()
}
