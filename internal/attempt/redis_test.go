package attempt

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedis(client, 5, 15*time.Minute), mr
}

func TestRedisLockoutStateMachine(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestRedis(t)

	decision, err := store.Check(ctx, "a@b.com")
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !decision.Allowed {
		t.Fatal("clean identifier should be allowed")
	}

	for i := 0; i < 4; i++ {
		locked, err := store.RecordFailure(ctx, "a@b.com")
		if err != nil {
			t.Fatalf("RecordFailure: %v", err)
		}
		if locked {
			t.Fatalf("locked after %d failures, want threshold 5", i+1)
		}
	}

	locked, err := store.RecordFailure(ctx, "a@b.com")
	if err != nil {
		t.Fatalf("RecordFailure: %v", err)
	}
	if !locked {
		t.Fatal("fifth failure should lock")
	}

	decision, _ = store.Check(ctx, "a@b.com")
	if decision.Allowed {
		t.Fatal("locked identifier should be denied")
	}
	if decision.RetryAfter <= 0 || decision.RetryAfter > 15*time.Minute {
		t.Fatalf("RetryAfter = %v, want within (0, 15m]", decision.RetryAfter)
	}

	// Lock key expires server-side.
	mr.FastForward(16 * time.Minute)
	if decision, _ = store.Check(ctx, "a@b.com"); !decision.Allowed {
		t.Fatal("identifier should unlock after expiry")
	}

	if locked, _ := store.RecordFailure(ctx, "a@b.com"); locked {
		t.Fatal("first failure after expiry should not lock")
	}
}

func TestRedisFailureWindowRolls(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestRedis(t)

	for i := 0; i < 4; i++ {
		store.RecordFailure(ctx, "a@b.com")
	}

	// The counter carries a TTL from the first failure; once it lapses
	// the accumulated count is gone.
	mr.FastForward(16 * time.Minute)

	if locked, _ := store.RecordFailure(ctx, "a@b.com"); locked {
		t.Fatal("stale failures should not count toward the threshold")
	}
}

func TestRedisResetClearsCounterAndLock(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestRedis(t)

	for i := 0; i < 5; i++ {
		store.RecordFailure(ctx, "a@b.com")
	}
	if err := store.Reset(ctx, "a@b.com"); err != nil {
		t.Fatalf("Reset: %v", err)
	}

	decision, _ := store.Check(ctx, "a@b.com")
	if !decision.Allowed {
		t.Fatal("reset should clear the lock")
	}

	for i := 0; i < 4; i++ {
		if locked, _ := store.RecordFailure(ctx, "a@b.com"); locked {
			t.Fatalf("locked after %d post-reset failures", i+1)
		}
	}
}

func TestRedisRecordFailureWhileLockedStaysLocked(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestRedis(t)

	for i := 0; i < 5; i++ {
		store.RecordFailure(ctx, "a@b.com")
	}

	locked, err := store.RecordFailure(ctx, "a@b.com")
	if err != nil {
		t.Fatalf("RecordFailure: %v", err)
	}
	if !locked {
		t.Fatal("failure during an active lock should report locked")
	}
}
