package check

import (
	"context"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"compliance/internal/constants"
	apperrors "compliance/pkg/errors"
)

// RunIDSource hands out monotonically increasing run identifiers.
type RunIDSource interface {
	Next(ctx context.Context) (string, error)
}

// CounterSource is an in-process counter seeded from the current unix
// milliseconds, so ids keep increasing across restarts.
type CounterSource struct {
	last atomic.Int64
}

func NewCounterSource() *CounterSource {
	s := &CounterSource{}
	s.last.Store(time.Now().UnixMilli())
	return s
}

func (s *CounterSource) Next(ctx context.Context) (string, error) {
	return strconv.FormatInt(s.last.Add(1), 10), nil
}

// RedisRunIDSource shares one counter between all instances using the same
// redis database.
type RedisRunIDSource struct {
	client *redis.Client
	key    string
}

func NewRedisRunIDSource(client *redis.Client, key string) *RedisRunIDSource {
	if key == "" {
		key = constants.RunIDCounterKey
	}
	return &RedisRunIDSource{client: client, key: key}
}

func (s *RedisRunIDSource) Next(ctx context.Context) (string, error) {
	// A fresh counter starts at the current time like CounterSource does.
	if err := s.client.SetNX(ctx, s.key, time.Now().UnixMilli(), 0).Err(); err != nil {
		return "", apperrors.Wrap(err, apperrors.ErrServiceUnavailable.WithDetail("message", "run id counter unavailable"))
	}
	id, err := s.client.Incr(ctx, s.key).Result()
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.ErrServiceUnavailable.WithDetail("message", "run id counter unavailable"))
	}
	return strconv.FormatInt(id, 10), nil
}
