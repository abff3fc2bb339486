package metadata

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisRepository keeps records as plain Redis strings under a common key
// prefix, so several clients can share one Redis without colliding.
type RedisRepository struct {
	rdb    redis.UniversalClient
	prefix string
}

func NewRedisRepository(rdb redis.UniversalClient, prefix string) *RedisRepository {
	return &RedisRepository{rdb: rdb, prefix: prefix}
}

func (r *RedisRepository) key(k string) string {
	return r.prefix + k
}

func (r *RedisRepository) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := r.rdb.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get metadata[%s]: %w", key, err)
	}
	return value, nil
}

func (r *RedisRepository) Set(ctx context.Context, key string, value []byte) error {
	if err := r.rdb.Set(ctx, r.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("failed to set metadata[%s]: %w", key, err)
	}
	return nil
}

func (r *RedisRepository) Delete(ctx context.Context, key string) error {
	if err := r.rdb.Del(ctx, r.key(key)).Err(); err != nil {
		return fmt.Errorf("failed to delete metadata[%s]: %w", key, err)
	}
	return nil
}

// modifyRetries bounds optimistic retries when the watched key changes.
const modifyRetries = 5

// Modify watches key, so the write is dropped and retried when another
// client changed it after the read.
func (r *RedisRepository) Modify(ctx context.Context, key string, fn ModifyFunc) error {
	k := r.key(key)
	txf := func(tx *redis.Tx) error {
		old, err := tx.Get(ctx, k).Bytes()
		if errors.Is(err, redis.Nil) {
			old = nil
		} else if err != nil {
			return fmt.Errorf("failed to get metadata[%s]: %w", key, err)
		}

		value, err := fn(old)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if value == nil {
				pipe.Del(ctx, k)
			} else {
				pipe.Set(ctx, k, value, 0)
			}
			return nil
		})
		return err
	}

	for range modifyRetries {
		err := r.rdb.Watch(ctx, txf, k)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return fmt.Errorf("failed to modify metadata[%s]: %w", key, redis.TxFailedErr)
}
