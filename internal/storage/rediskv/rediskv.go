package rediskv

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// Store keeps opaque string blobs in Redis without expiry. The same client also backs
// a fixed-window rate limiter.
type Store struct {
	c *redis.Client
}

func New(addr string) *Store {
	return &Store{
		c: redis.NewClient(&redis.Options{
			Addr: addr,
		}),
	}
}

func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := s.c.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrap(err, "redis get")
	}
	return val, true, nil
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	if err := s.c.Set(ctx, key, value, 0).Err(); err != nil {
		return errors.Wrap(err, "redis set")
	}
	return nil
}

// TTL ставим только при создании счётчика, чтобы окно не сдвигалось.
var allowScript = redis.NewScript(`
local n = redis.call("INCR", KEYS[1])
if n == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return n
`)

// Allow counts one call against key and reports whether the count is still within limit.
func (s *Store) Allow(ctx context.Context, key string, limit int64, window time.Duration) (bool, int64, error) {
	n, err := allowScript.Run(ctx, s.c, []string{key}, window.Milliseconds()).Int64()
	if err != nil {
		return false, 0, errors.Wrap(err, "redis ratelimit")
	}
	return n <= limit, n, nil
}

func (s *Store) Close() error {
	return s.c.Close()
}
