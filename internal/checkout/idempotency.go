package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// IdempotencyStore remembers checkout results by client-supplied key.
type IdempotencyStore interface {
	// Claim reserves key. When the key is already taken it returns claimed=false together with the
	// stored result, or a nil result while the first request is still running.
	Claim(ctx context.Context, key string) (claimed bool, stored *Result, err error)
	Complete(ctx context.Context, key string, res Result) error
	// Release drops a claim so the client may retry with the same key.
	Release(ctx context.Context, key string) error
}

const pendingMarker = "pending"

// RedisIdempotencyStore keeps a short-lived pending marker while a checkout runs, so a crashed
// request frees its key after pendingTTL; finished results are kept for resultTTL.
type RedisIdempotencyStore struct {
	rdb        *redis.Client
	pendingTTL time.Duration
	resultTTL  time.Duration
}

func NewRedisIdempotencyStore(rdb *redis.Client, pendingTTL, resultTTL time.Duration) *RedisIdempotencyStore {
	return &RedisIdempotencyStore{rdb: rdb, pendingTTL: pendingTTL, resultTTL: resultTTL}
}

func (s *RedisIdempotencyStore) Claim(ctx context.Context, key string) (bool, *Result, error) {
	ok, err := s.rdb.SetNX(ctx, key, pendingMarker, s.pendingTTL).Result()
	if err != nil {
		return false, nil, fmt.Errorf("idempotency: failed to claim key: %w", err)
	}
	if ok {
		return true, nil, nil
	}

	val, err := s.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		// Истёк между SETNX и GET, пробуем ещё раз
		ok, err = s.rdb.SetNX(ctx, key, pendingMarker, s.pendingTTL).Result()
		if err != nil {
			return false, nil, fmt.Errorf("idempotency: failed to claim key: %w", err)
		}
		return ok, nil, nil
	}
	if err != nil {
		return false, nil, fmt.Errorf("idempotency: failed to read key: %w", err)
	}
	if val == pendingMarker {
		return false, nil, nil
	}

	var res Result
	if err := json.Unmarshal([]byte(val), &res); err != nil {
		return false, nil, fmt.Errorf("idempotency: corrupt stored result: %w", err)
	}
	return false, &res, nil
}

func (s *RedisIdempotencyStore) Complete(ctx context.Context, key string, res Result) error {
	data, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("idempotency: failed to marshal result: %w", err)
	}
	if err := s.rdb.Set(ctx, key, data, s.resultTTL).Err(); err != nil {
		return fmt.Errorf("idempotency: failed to store result: %w", err)
	}
	return nil
}

func (s *RedisIdempotencyStore) Release(ctx context.Context, key string) error {
	if err := s.rdb.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("idempotency: failed to release key: %w", err)
	}
	return nil
}

// NopIdempotencyStore claims every key. The orders table's unique key still rejects duplicates.
type NopIdempotencyStore struct{}

func (NopIdempotencyStore) Claim(context.Context, string) (bool, *Result, error) { return true, nil, nil }

func (NopIdempotencyStore) Complete(context.Context, string, Result) error { return nil }

func (NopIdempotencyStore) Release(context.Context, string) error { return nil }
