package attempt

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrBackendUnavailable indicates the shared attempt backend is unreachable.
var ErrBackendUnavailable = errors.New("attempt backend unavailable")

// Redis is the shared Store for multi-instance deployments. Counters and
// locks expire server-side, so SweepExpired is a no-op here.
type Redis struct {
	client   redis.UniversalClient
	maxCount int
	lockout  time.Duration
}

// NewRedis builds a Redis-backed store with the same lockout semantics as
// the in-memory one.
func NewRedis(client redis.UniversalClient, maxCount int, lockout time.Duration) *Redis {
	if maxCount <= 0 {
		maxCount = 5
	}
	if lockout <= 0 {
		lockout = 15 * time.Minute
	}

	return &Redis{client: client, maxCount: maxCount, lockout: lockout}
}

func (r *Redis) failKey(identifier string) string {
	return "auth:fail:" + identifier
}

func (r *Redis) lockKey(identifier string) string {
	return "auth:lock:" + identifier
}

func (r *Redis) Check(ctx context.Context, identifier string) (Decision, error) {
	remaining, err := r.client.PTTL(ctx, r.lockKey(identifier)).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	// PTTL reports a negative duration when the key is absent or has no
	// expiry; either way there is no active lock.
	if remaining > 0 {
		return Decision{RetryAfter: remaining}, nil
	}

	return Decision{Allowed: true}, nil
}

func (r *Redis) RecordFailure(ctx context.Context, identifier string) (bool, error) {
	locked, err := r.client.Exists(ctx, r.lockKey(identifier)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	if locked > 0 {
		return true, nil
	}

	count, err := r.client.Incr(ctx, r.failKey(identifier)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	if count == 1 {
		// TTL on the first failure makes the counter a rolling window.
		if err := r.client.Expire(ctx, r.failKey(identifier), r.lockout).Err(); err != nil {
			return false, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
		}
	}

	if count < int64(r.maxCount) {
		return false, nil
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, r.lockKey(identifier), "1", r.lockout)
	pipe.Del(ctx, r.failKey(identifier))
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	return true, nil
}

func (r *Redis) Reset(ctx context.Context, identifier string) error {
	if err := r.client.Del(ctx, r.failKey(identifier), r.lockKey(identifier)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return nil
}

func (r *Redis) SweepExpired(context.Context) (int, error) {
	return 0, nil
}
