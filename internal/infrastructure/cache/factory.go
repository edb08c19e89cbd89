package cache

import (
	"context"
	"fmt"
	"time"

	inventoryapp "github.com/boxstock/backend/internal/application/inventory"
	"github.com/boxstock/backend/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const redisPingTimeout = 5 * time.Second

// NewRedisClient creates a Redis client and verifies the connection
func NewRedisClient(cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), redisPingTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// RowLockerFactory builds the ledger row locker selected by configuration
type RowLockerFactory struct {
	ledger                config.LedgerConfig
	redis                 config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// RowLockerFactoryOption is a functional option for configuring the factory
type RowLockerFactoryOption func(*RowLockerFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) RowLockerFactoryOption {
	return func(f *RowLockerFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether an unreachable Redis degrades to
// the in-process locker. Only safe with a single replica.
func WithInMemoryFallback(allow bool) RowLockerFactoryOption {
	return func(f *RowLockerFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewRowLockerFactory creates a new factory
func NewRowLockerFactory(ledger config.LedgerConfig, redisCfg config.RedisConfig, opts ...RowLockerFactoryOption) *RowLockerFactory {
	f := &RowLockerFactory{
		ledger: ledger,
		redis:  redisCfg,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Create returns the configured locker and a close func for any connection
// it opened
func (f *RowLockerFactory) Create() (inventoryapp.RowLocker, func() error, error) {
	noop := func() error { return nil }

	if f.ledger.LockBackend != config.LockBackendRedis {
		f.logger.Info("using in-process row locker")
		return NewLocalRowLocker(), noop, nil
	}

	client, err := NewRedisClient(f.redis)
	if err != nil {
		if !f.allowInMemoryFallback {
			return nil, noop, err
		}
		f.logger.Warn("Redis unavailable, falling back to in-process row locker",
			zap.String("addr", f.redis.Addr()),
			zap.Error(err),
		)
		return NewLocalRowLocker(), noop, nil
	}

	f.logger.Info("using Redis row locker",
		zap.String("addr", f.redis.Addr()),
		zap.Duration("ttl", f.ledger.LockTTL),
	)
	locker := NewRedisRowLocker(client, f.logger.Named("row_lock"), WithLockTTL(f.ledger.LockTTL))
	return locker, client.Close, nil
}
