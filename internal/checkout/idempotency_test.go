package checkout_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vasiliy-maslov/educore/internal/checkout"
)

const envRedisAddr = "EDUCORE_TEST_REDIS_ADDR"

func redisClient(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv(envRedisAddr)
	if addr == "" {
		t.Skipf("%s is not set, skipping redis test", envRedisAddr)
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = rdb.Close() })
	require.NoError(t, rdb.Ping(context.Background()).Err())
	return rdb
}

func TestRedisIdempotencyStore_Lifecycle(t *testing.T) {
	rdb := redisClient(t)
	s := checkout.NewRedisIdempotencyStore(rdb, time.Minute, time.Hour)
	ctx := context.Background()
	key := "test:checkout:" + uuid.Must(uuid.NewV4()).String()
	t.Cleanup(func() { rdb.Del(ctx, key) })

	claimed, stored, err := s.Claim(ctx, key)
	require.NoError(t, err)
	assert.True(t, claimed)
	assert.Nil(t, stored)

	claimed, stored, err = s.Claim(ctx, key)
	require.NoError(t, err)
	assert.False(t, claimed, "second claim while pending")
	assert.Nil(t, stored)

	want := checkout.Result{OrderID: 7, Success: true, Message: "Order completed successfully", TransactionID: "tx-7"}
	require.NoError(t, s.Complete(ctx, key, want))

	claimed, stored, err = s.Claim(ctx, key)
	require.NoError(t, err)
	assert.False(t, claimed)
	require.NotNil(t, stored)
	assert.Equal(t, want, *stored)
}

func TestRedisIdempotencyStore_Release(t *testing.T) {
	rdb := redisClient(t)
	s := checkout.NewRedisIdempotencyStore(rdb, time.Minute, time.Hour)
	ctx := context.Background()
	key := "test:checkout:" + uuid.Must(uuid.NewV4()).String()
	t.Cleanup(func() { rdb.Del(ctx, key) })

	claimed, _, err := s.Claim(ctx, key)
	require.NoError(t, err)
	require.True(t, claimed)
	require.NoError(t, s.Release(ctx, key))

	claimed, _, err = s.Claim(ctx, key)
	require.NoError(t, err)
	assert.True(t, claimed)
}

func TestRedisIdempotencyStore_PendingClaimExpiresSooner(t *testing.T) {
	rdb := redisClient(t)
	s := checkout.NewRedisIdempotencyStore(rdb, 2*time.Minute, 24*time.Hour)
	ctx := context.Background()
	key := "test:checkout:" + uuid.Must(uuid.NewV4()).String()
	t.Cleanup(func() { rdb.Del(ctx, key) })

	claimed, _, err := s.Claim(ctx, key)
	require.NoError(t, err)
	require.True(t, claimed)

	ttl, err := rdb.TTL(ctx, key).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
	assert.LessOrEqual(t, ttl, 2*time.Minute, "a pending claim must not hold the key for the result TTL")

	require.NoError(t, s.Complete(ctx, key, checkout.Result{OrderID: 1, Success: true}))

	ttl, err = rdb.TTL(ctx, key).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Hour)
	assert.LessOrEqual(t, ttl, 24*time.Hour)
}
