// Package redis allocates document numbers with Redis INCR.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/LocalHostDiluk/reinicializado/internal/domain"
	"github.com/LocalHostDiluk/reinicializado/pkg/resilience"
)

// counterTTL keeps a day's counter around past the end of that day in
// every timezone.
const counterTTL = 48 * time.Hour

const keyPrefix = "retail:seq:"

// Config holds the Redis connection settings.
type Config struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

// NewClient connects to Redis and checks the connection, retrying the
// ping while Redis comes up.
func NewClient(ctx context.Context, cfg Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
	retry := resilience.DefaultRetryConfig()
	retry.RetryableErrors = func(err error) bool {
		return ctx.Err() == nil
	}
	err := resilience.Retry(ctx, retry, func() error {
		return client.Ping(ctx).Err()
	})
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis at %s: %w", cfg.Addr, err)
	}
	return client, nil
}

// Sequences is a domain.SequenceAllocator keeping one counter key per
// prefix and day.
type Sequences struct {
	client  redis.UniversalClient
	breaker *resilience.CircuitBreaker
}

var _ domain.SequenceAllocator = (*Sequences)(nil)

// NewSequences creates a Sequences. breaker may be nil.
func NewSequences(client redis.UniversalClient, breaker *resilience.CircuitBreaker) *Sequences {
	return &Sequences{client: client, breaker: breaker}
}

// Key returns the counter key of prefix on day.
func Key(prefix string, day time.Time) string {
	return keyPrefix + prefix + ":" + domain.SequenceDay(day)
}

func (s *Sequences) Next(ctx context.Context, prefix string, day time.Time) (int64, error) {
	next := func() (int64, error) {
		key := Key(prefix, day)
		var incr *redis.IntCmd
		_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			incr = pipe.Incr(ctx, key)
			pipe.Expire(ctx, key, counterTTL)
			return nil
		})
		if err != nil {
			return 0, fmt.Errorf("allocate %s sequence: %w", prefix, err)
		}
		return incr.Val(), nil
	}

	if s.breaker == nil {
		return next()
	}
	return resilience.ExecuteValue(ctx, s.breaker, next)
}
