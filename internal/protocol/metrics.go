package protocol

import (
	"fmt"
	"sync"
)

// Metrics captures counters for diagnostics.
type Metrics struct {
	mu         sync.Mutex
	events     int
	pulls      int
	stale      int
	duplicates int
	blocked    int
	failures   int
}

func NewMetrics() *Metrics { return &Metrics{} }

func (m *Metrics) IncEvent()     { m.mu.Lock(); m.events++; m.mu.Unlock() }
func (m *Metrics) IncPull()      { m.mu.Lock(); m.pulls++; m.mu.Unlock() }
func (m *Metrics) IncStale()     { m.mu.Lock(); m.stale++; m.mu.Unlock() }
func (m *Metrics) IncDuplicate() { m.mu.Lock(); m.duplicates++; m.mu.Unlock() }
func (m *Metrics) IncBlocked()   { m.mu.Lock(); m.blocked++; m.mu.Unlock() }
func (m *Metrics) IncFailure()   { m.mu.Lock(); m.failures++; m.mu.Unlock() }

func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return MetricsSnapshot{
		Events:     m.events,
		Pulls:      m.pulls,
		Stale:      m.stale,
		Duplicates: m.duplicates,
		Blocked:    m.blocked,
		Failures:   m.failures,
	}
}

// MetricsSnapshot is printed in `/stats` command output.
type MetricsSnapshot struct {
	Events     int
	Pulls      int
	Stale      int
	Duplicates int
	Blocked    int
	Failures   int
}

func (s MetricsSnapshot) String() string {
	return fmt.Sprintf("events=%d pulls=%d stale=%d duplicates=%d blocked=%d failures=%d",
		s.Events, s.Pulls, s.Stale, s.Duplicates, s.Blocked, s.Failures)
}
