package attempt

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	count       int
	lastAttempt time.Time
	lockedUntil time.Time
}

func (e *entry) locked(now time.Time) bool {
	return !e.lockedUntil.IsZero() && now.Before(e.lockedUntil)
}

// Memory is the in-process Store. State lives in a map guarded by a mutex
// and is lost on restart; that is an accepted limitation of the local
// backend, not something this type papers over.
type Memory struct {
	mu       sync.Mutex
	entries  map[string]*entry
	maxCount int
	lockout  time.Duration
	now      func() time.Time
}

// NewMemory builds an in-memory store locking identifiers after maxCount
// failures for the given lockout duration.
func NewMemory(maxCount int, lockout time.Duration) *Memory {
	if maxCount <= 0 {
		maxCount = 5
	}
	if lockout <= 0 {
		lockout = 15 * time.Minute
	}

	return &Memory{
		entries:  make(map[string]*entry),
		maxCount: maxCount,
		lockout:  lockout,
		now:      time.Now,
	}
}

func (m *Memory) Check(_ context.Context, identifier string) (Decision, error) {
	now := m.now().UTC()

	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[identifier]
	if !ok {
		return Decision{Allowed: true}, nil
	}

	if e.locked(now) {
		return Decision{RetryAfter: e.lockedUntil.Sub(now)}, nil
	}

	// An elapsed lock transitions the identifier back to clean.
	if !e.lockedUntil.IsZero() {
		delete(m.entries, identifier)
	}

	return Decision{Allowed: true}, nil
}

func (m *Memory) RecordFailure(_ context.Context, identifier string) (bool, error) {
	now := m.now().UTC()

	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[identifier]
	if !ok || (!e.lockedUntil.IsZero() && !e.locked(now)) {
		e = &entry{}
		m.entries[identifier] = e
	}

	if e.locked(now) {
		return true, nil
	}

	e.count++
	e.lastAttempt = now
	if e.count >= m.maxCount {
		e.lockedUntil = now.Add(m.lockout)
		return true, nil
	}

	return false, nil
}

func (m *Memory) Reset(_ context.Context, identifier string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, identifier)
	return nil
}

func (m *Memory) SweepExpired(_ context.Context) (int, error) {
	now := m.now().UTC()
	stale := now.Add(-2 * m.lockout)

	m.mu.Lock()
	defer m.mu.Unlock()

	dropped := 0
	for identifier, e := range m.entries {
		expiredLock := !e.lockedUntil.IsZero() && !e.locked(now)
		idle := e.lockedUntil.IsZero() && e.lastAttempt.Before(stale)
		if expiredLock || idle {
			delete(m.entries, identifier)
			dropped++
		}
	}

	return dropped, nil
}
