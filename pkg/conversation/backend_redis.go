package conversation

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisBackend stores records under "<prefix><key>", letting several companion
// processes share one conversation history.
type RedisBackend struct {
	rdb     *redis.Client
	prefix  string
	timeout time.Duration
}

func NewRedisBackend(rdb *redis.Client, prefix string) *RedisBackend {
	return &RedisBackend{
		rdb:     rdb,
		prefix:  prefix,
		timeout: 3 * time.Second,
	}
}

func (b *RedisBackend) Get(key string) ([]byte, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
	defer cancel()

	data, err := b.rdb.Get(ctx, b.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (b *RedisBackend) Set(key string, data []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
	defer cancel()

	return b.rdb.Set(ctx, b.prefix+key, data, 0).Err()
}

func (b *RedisBackend) Remove(key string) error {
	ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
	defer cancel()

	return b.rdb.Del(ctx, b.prefix+key).Err()
}
