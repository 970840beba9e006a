package bootstrap

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	appconfig "github.com/wolfman30/sms-booking-bot/internal/config"
	"github.com/wolfman30/sms-booking-bot/internal/location"
	"github.com/wolfman30/sms-booking-bot/internal/lock"
	"github.com/wolfman30/sms-booking-bot/internal/store"
	"github.com/wolfman30/sms-booking-bot/pkg/logging"
)

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available", "error", err)
		return nil
	}
	return client
}

// ConnectPostgresPool opens a pool for DATABASE_URL, or returns nil when unset.
func ConnectPostgresPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, nil
	}
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("bootstrap: ping postgres: %w", err)
	}
	return pool, nil
}

// BuildStore returns a retrying Postgres store when a pool is available and
// the in-memory store otherwise.
func BuildStore(pool *pgxpool.Pool, cfg *appconfig.Config, logger *logging.Logger) store.Store {
	if logger == nil {
		logger = logging.Default()
	}
	if pool == nil {
		logger.Warn("DATABASE_URL not set; conversation state is kept in memory")
		return store.NewMemoryStore()
	}
	policy := store.DefaultRetryPolicy()
	if cfg != nil {
		if cfg.StoreRetryAttempts > 0 {
			policy.Attempts = cfg.StoreRetryAttempts
		}
		if cfg.StoreRetryBaseDelay > 0 {
			policy.BaseDelay = cfg.StoreRetryBaseDelay
		}
	}
	return store.NewRetrying(store.NewPostgresStore(pool), policy, logger)
}

// BuildLocker picks the per-identity lock. Redis locks serialise turns across
// replicas; the local locker only covers one process.
func BuildLocker(cfg *appconfig.Config, redisClient *redis.Client, logger *logging.Logger) lock.Locker {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg != nil && cfg.UseRedisLocks && redisClient != nil {
		return lock.NewRedisLocker(redisClient, lock.WithTTL(cfg.LockTTL))
	}
	if cfg != nil && cfg.UseRedisLocks {
		logger.Warn("USE_REDIS_LOCKS set but redis unavailable; using in-process locks")
	}
	return lock.NewLocalLocker()
}

// BuildLocationRegistry prefers Redis for the shared incall location, then the
// conversation store, and loads the saved value.
func BuildLocationRegistry(ctx context.Context, redisClient *redis.Client, fallback location.Store, logger *logging.Logger) *location.Registry {
	var backing location.Store = fallback
	if redisClient != nil {
		backing = location.NewRedisStore(redisClient)
	}
	if logger == nil {
		logger = logging.Default()
	}
	registry := location.NewRegistry(backing, logger)
	if err := registry.Load(ctx); err != nil {
		logger.Warn("failed to load incall location; using default", "error", err)
	}
	return registry
}
