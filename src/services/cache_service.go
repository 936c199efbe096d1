// backend/src/services/cache_service.go
package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/username/centavo/backend/src/logger"
)

// Cache key templates. Every key embeds "_user_<id>" so one SCAN pattern can
// sweep a user's whole analytical scope.
const (
	ckNetWorthSeries = "networth_series_user_%d_%s_%s"
	ckOverview       = "overview_user_%d"
)

// NewRedisClient connects and pings the cache backend.
func NewRedisClient(addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return rdb, nil
}

// SessionTTLFunc reports the remaining validity of a session token.
type SessionTTLFunc func(token string) (time.Duration, error)

// CacheCoordinator owns cache-key derivation and the invalidation rules tied
// to session lifetime and account filters. Every operation is non-fatal by
// construction: reads degrade to misses, writes and invalidations to logged
// warnings. A nil redis client disables caching entirely.
type CacheCoordinator struct {
	rdb        *redis.Client
	sessionTTL SessionTTLFunc
	defaultTTL time.Duration
}

func NewCacheCoordinator(rdb *redis.Client, sessionTTL SessionTTLFunc, defaultTTL time.Duration) *CacheCoordinator {
	return &CacheCoordinator{rdb: rdb, sessionTTL: sessionTTL, defaultTTL: defaultTTL}
}

// FilteredCacheKey derives a deterministic key from a base key and an
// account-id filter set. The filter is sorted before hashing so two requests
// with the same set hit the same entry regardless of supplied order; an empty
// filter yields the bare base key.
func FilteredCacheKey(base string, accountIDs []int64) string {
	if len(accountIDs) == 0 {
		return base
	}
	ids := append([]int64(nil), accountIDs...)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	h := sha256.New()
	for _, id := range ids {
		fmt.Fprintf(h, "%d,", id)
	}
	return base + "_" + hex.EncodeToString(h.Sum(nil)[:8])
}

// Get treats any backend error as a miss.
func (c *CacheCoordinator) Get(ctx context.Context, key string) (string, bool) {
	if c.rdb == nil {
		return "", false
	}
	value, err := c.rdb.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			logger.FromContext(ctx).Debug("Cache read failed, treating as miss", "key", key, "error", err)
		}
		return "", false
	}
	return value, true
}

// SetForSession stores value with a TTL aligned to the remaining lifetime of
// the caller's session, falling back to the default TTL when the session
// lookup fails. Write failures are logged and swallowed.
func (c *CacheCoordinator) SetForSession(ctx context.Context, key, value, sessionToken string) {
	if c.rdb == nil {
		return
	}
	ttl := c.defaultTTL
	if c.sessionTTL != nil && sessionToken != "" {
		remaining, err := c.sessionTTL(sessionToken)
		if err != nil || remaining <= 0 {
			logger.FromContext(ctx).Debug("Session TTL lookup failed, using default cache TTL", "error", err)
		} else {
			ttl = remaining
		}
	}
	if err := c.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		logger.FromContext(ctx).Warn("Cache write failed", "key", key, "error", err)
	}
}

// InvalidateUserScope removes every analytical cache entry scoped to the
// user. Correctness-critical for disconnects, password changes and logouts,
// but a failure downgrades to a warning rather than failing the caller.
func (c *CacheCoordinator) InvalidateUserScope(ctx context.Context, userID int64) {
	if c.rdb == nil {
		return
	}
	// Two patterns: keys ending in the user segment and keys with trailing
	// parameters. A bare "*user_<id>*" would also match user 421.
	patterns := []string{
		fmt.Sprintf("*_user_%d", userID),
		fmt.Sprintf("*_user_%d_*", userID),
	}
	for _, pattern := range patterns {
		iter := c.rdb.Scan(ctx, 0, pattern, 100).Iterator()
		for iter.Next(ctx) {
			if err := c.rdb.Del(ctx, iter.Val()).Err(); err != nil {
				logger.FromContext(ctx).Warn("Cache invalidation delete failed", "key", iter.Val(), "error", err)
			}
		}
		if err := iter.Err(); err != nil {
			logger.FromContext(ctx).Warn("Cache invalidation scan failed", "pattern", pattern, "error", err)
		}
	}
}
