package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	uuid "github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/neuroquarkk/authify/internal/core/port"
)

// RateLimitRepository implements port.RateLimitStore over Redis sorted sets.
// Each identifier maps to one set whose members are attempt timestamps, so a
// sliding window reduces to a score range query.
type RateLimitRepository struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRateLimitRepository constructs a repository using the provided Redis client.
// ttl bounds how long an idle identifier's set lingers; zero disables expiry.
func NewRateLimitRepository(client *redis.Client, prefix string, ttl time.Duration) *RateLimitRepository {
	return &RateLimitRepository{client: client, prefix: prefix, ttl: ttl}
}

// RecordAttempt stores the attempt timestamp and refreshes the key TTL.
// The member carries a uuid suffix so attempts sharing a timestamp stay
// distinct set members and count separately.
func (r *RateLimitRepository) RecordAttempt(ctx context.Context, identifier string, at time.Time) error {
	key := r.key(identifier)
	member := redis.Z{
		Score:  float64(at.UnixNano()),
		Member: fmt.Sprintf("%d:%s", at.UnixNano(), uuid.NewString()),
	}

	pipe := r.client.Pipeline()
	pipe.ZAdd(ctx, key, member)
	if r.ttl > 0 {
		pipe.Expire(ctx, key, r.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis record attempt: %w", err)
	}

	return nil
}

// CountAttempts returns how many attempts fall inside the window ending at reference.
func (r *RateLimitRepository) CountAttempts(ctx context.Context, identifier string, window time.Duration, reference time.Time) (int, error) {
	if window <= 0 {
		return 0, errors.New("window must be positive")
	}

	min := strconv.FormatInt(reference.Add(-window).UnixNano(), 10)
	max := strconv.FormatInt(reference.UnixNano(), 10)

	count, err := r.client.ZCount(ctx, r.key(identifier), min, max).Result()
	if err != nil {
		return 0, fmt.Errorf("redis zcount: %w", err)
	}

	return int(count), nil
}

// TrimWindow drops attempts that have aged out of the window.
func (r *RateLimitRepository) TrimWindow(ctx context.Context, identifier string, window time.Duration, reference time.Time) error {
	if window <= 0 {
		return errors.New("window must be positive")
	}

	threshold := strconv.FormatInt(reference.Add(-window).UnixNano(), 10)
	if err := r.client.ZRemRangeByScore(ctx, r.key(identifier), "-inf", "("+threshold).Err(); err != nil {
		return fmt.Errorf("redis zremrangebyscore: %w", err)
	}

	return nil
}

func (r *RateLimitRepository) key(identifier string) string {
	if r.prefix == "" {
		return identifier
	}
	return r.prefix + ":" + identifier
}

var _ port.RateLimitStore = (*RateLimitRepository)(nil)
