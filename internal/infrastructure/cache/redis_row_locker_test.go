package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/boxstock/backend/internal/infrastructure/config"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// redisTestClient connects to BOXSTOCK_TEST_REDIS_ADDR or skips the test
func redisTestClient(t *testing.T) *redis.Client {
	t.Helper()

	addr := os.Getenv("BOXSTOCK_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("BOXSTOCK_TEST_REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, client.Ping(ctx).Err())
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRedisRowLocker(t *testing.T) {
	client := redisTestClient(t)
	ctx := context.Background()
	prefix := "boxstock:test:" + uuid.NewString() + ":"

	t.Run("second holder waits until release", func(t *testing.T) {
		locker := NewRedisRowLocker(client, zap.NewNop(), WithLockPrefix(prefix))
		unlock, err := locker.Lock(ctx, "stock:a")
		require.NoError(t, err)

		waitCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
		defer cancel()
		_, err = locker.Lock(waitCtx, "stock:a")
		assert.ErrorIs(t, err, context.DeadlineExceeded)

		unlock()
		again, err := locker.Lock(ctx, "stock:a")
		require.NoError(t, err)
		again()

		exists, err := client.Exists(ctx, prefix+"stock:a").Result()
		require.NoError(t, err)
		assert.Zero(t, exists)
	})

	t.Run("expired lock is not released by the old holder", func(t *testing.T) {
		core, logs := observer.New(zapcore.WarnLevel)
		locker := NewRedisRowLocker(client, zap.New(core), WithLockPrefix(prefix), WithLockTTL(30*time.Millisecond))

		stale, err := locker.Lock(ctx, "stock:b")
		require.NoError(t, err)
		time.Sleep(60 * time.Millisecond)

		fresh, err := locker.Lock(ctx, "stock:b")
		require.NoError(t, err)
		stale()

		exists, err := client.Exists(ctx, prefix+"stock:b").Result()
		require.NoError(t, err)
		assert.Equal(t, int64(1), exists)
		assert.Equal(t, 1, logs.FilterMessage("row lock expired before release").Len())
		fresh()
	})
}

func TestRowLockerFactory(t *testing.T) {
	t.Run("local backend", func(t *testing.T) {
		f := NewRowLockerFactory(config.LedgerConfig{LockBackend: config.LockBackendLocal}, config.RedisConfig{})
		locker, closeFn, err := f.Create()
		require.NoError(t, err)
		assert.IsType(t, &LocalRowLocker{}, locker)
		assert.NoError(t, closeFn())
	})

	t.Run("unreachable redis without fallback fails", func(t *testing.T) {
		f := NewRowLockerFactory(
			config.LedgerConfig{LockBackend: config.LockBackendRedis},
			config.RedisConfig{Host: "127.0.0.1", Port: 1},
		)
		_, _, err := f.Create()
		assert.Error(t, err)
	})

	t.Run("unreachable redis with fallback degrades to local", func(t *testing.T) {
		core, logs := observer.New(zapcore.WarnLevel)
		f := NewRowLockerFactory(
			config.LedgerConfig{LockBackend: config.LockBackendRedis},
			config.RedisConfig{Host: "127.0.0.1", Port: 1},
			WithLogger(zap.New(core)),
			WithInMemoryFallback(true),
		)
		locker, _, err := f.Create()
		require.NoError(t, err)
		assert.IsType(t, &LocalRowLocker{}, locker)
		assert.Equal(t, 1, logs.Len())
	})
}
