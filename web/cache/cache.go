// Package cache provides a keyed JSON cache with memory and Redis backends.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dispatchhub/dispatch/config"
	"github.com/dispatchhub/dispatch/logger"

	"github.com/goccy/go-json"
)

const (
	// TTLUser bounds how long a telegram lookup may be served from cache.
	TTLUser = 10 * time.Minute

	KeyUserTelegramPrefix = "user:tg:"

	// genTTL must outlive the slowest GetOrSet load.
	genTTL = time.Hour
)

// ErrMiss is returned by Get when the key is not cached.
var ErrMiss = errors.New("cache: key not found")

// Store is a byte-oriented cache. Implementations are safe for concurrent use.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	// Incr bumps a counter and returns the new value. The window starts
	// with the first increment and lasts ttl.
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)
	Close() error
}

// KeyUserTelegram is the key of a user looked up by telegram id.
func KeyUserTelegram(telegramID int64) string {
	return KeyUserTelegramPrefix + strconv.FormatInt(telegramID, 10)
}

// New opens the backend selected by config.GetCacheType.
func New() (Store, error) {
	switch t := config.GetCacheType(); t {
	case config.CacheMemory:
		return NewMemory(TTLUser), nil
	case config.CacheRedis:
		return NewRedis(config.GetRedisAddr())
	default:
		return nil, fmt.Errorf("unknown cache type: %s", t)
	}
}

// GetJSON retrieves a value from s and unmarshals it into dest.
func GetJSON(ctx context.Context, s Store, key string, dest any) error {
	val, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	if len(val) == 0 {
		return fmt.Errorf("empty value for key: %s", key)
	}
	return json.Unmarshal(val, dest)
}

// SetJSON marshals value as JSON and stores it in s.
func SetJSON(ctx context.Context, s Store, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	return s.Set(ctx, key, data, ttl)
}

// GetOrSet retrieves a value from s, or computes it with fn on a miss.
// Cache failures are logged; only fn's error is returned.
func GetOrSet[T any](ctx context.Context, s Store, key string, ttl time.Duration, fn func() (T, error)) (T, error) {
	var val T
	err := GetJSON(ctx, s, key, &val)
	if err == nil {
		logger.Debugf("Cache hit for key: %s", key)
		return val, nil
	}
	if !errors.Is(err, ErrMiss) {
		logger.Warningf("Cache read for key %s failed: %v", key, err)
	}

	logger.Debugf("Cache miss for key: %s", key)
	gen := generation(ctx, s, key)
	val, err = fn()
	if err != nil {
		return val, err
	}
	if generation(ctx, s, key) != gen {
		logger.Debugf("Cache key %s invalidated during load, not storing", key)
		return val, nil
	}
	if err := SetJSON(ctx, s, key, val, ttl); err != nil {
		logger.Warningf("Failed to set cache for key %s: %v", key, err)
	}
	return val, nil
}

// Invalidate deletes keys and logs on failure. It also bumps each key's
// generation so a GetOrSet load that started earlier does not store its
// result afterwards.
func Invalidate(ctx context.Context, s Store, keys ...string) {
	for _, key := range keys {
		if _, err := s.Incr(ctx, genKey(key), genTTL); err != nil {
			logger.Warningf("Failed to bump generation of cache key %s: %v", key, err)
		}
	}
	if err := s.Delete(ctx, keys...); err != nil {
		logger.Warningf("Failed to invalidate cache keys %v: %v", keys, err)
	}
}

func genKey(key string) string {
	return key + ":gen"
}

// generation returns the invalidation counter of key, empty when unset.
func generation(ctx context.Context, s Store, key string) string {
	val, err := s.Get(ctx, genKey(key))
	if err != nil {
		return ""
	}
	return string(val)
}
