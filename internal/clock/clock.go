// Package clock abstracts the time source used for case timings and run
// durations, so tests can drive elapsed time explicitly.
package clock

import (
	"sync"
	"time"
)

// Clock returns the current time. It satisfies logger.Clock.
type Clock interface {
	Now() time.Time
}

// Real reads the system clock.
type Real struct{}

func (Real) Now() time.Time {
	return time.Now()
}

// Since returns the time elapsed on c since t.
func Since(c Clock, t time.Time) time.Duration {
	return c.Now().Sub(t)
}

// Mock is a Clock that only moves when told to. It is safe for concurrent
// use, so it can be shared by cases running in parallel.
type Mock struct {
	mu      sync.Mutex
	current time.Time
	step    time.Duration
}

// NewMock returns a mock clock set to t, or to a fixed epoch when t is zero
// so that results do not depend on the wall clock.
func NewMock(t time.Time) *Mock {
	if t.IsZero() {
		t = time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)
	}
	return &Mock{current: t}
}

// Now returns the current mock time and then advances it by the configured
// step, if any.
func (m *Mock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.current
	m.current = m.current.Add(m.step)
	return now
}

// Advance moves the clock forward by d.
func (m *Mock) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = m.current.Add(d)
}

// Set moves the clock to t.
func (m *Mock) Set(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = t
}

// AutoAdvance makes every Now call advance the clock by d afterwards, which
// gives each Start/Finish pair a deterministic elapsed time.
func (m *Mock) AutoAdvance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.step = d
}
