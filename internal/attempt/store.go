// Package attempt tracks failed login attempts per identifier and enforces
// the timed lockout. The store is injected into the service rather than
// held as process-wide state so deployments can choose between a local map
// and a shared Redis backend.
package attempt

import (
	"context"
	"time"
)

// Decision is the outcome of a pre-login check.
type Decision struct {
	Allowed    bool
	RetryAfter time.Duration
}

// Store serializes attempt accounting per identifier. Implementations must
// keep concurrent RecordFailure calls for the same identifier from losing
// increments.
type Store interface {
	// Check reports whether a login attempt for the identifier may proceed.
	// A denied decision carries the remaining lockout duration.
	Check(ctx context.Context, identifier string) (Decision, error)

	// RecordFailure registers one failed attempt and reports whether the
	// identifier just transitioned into the locked state.
	RecordFailure(ctx context.Context, identifier string) (bool, error)

	// Reset drops all attempt state for the identifier. Called after a
	// verified successful login.
	Reset(ctx context.Context, identifier string) error

	// SweepExpired removes entries whose lockout has elapsed and returns
	// how many were dropped.
	SweepExpired(ctx context.Context) (int, error)
}
