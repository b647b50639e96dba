package state

import (
	"sync"
	"time"

	"github.com/proyectoj/assistant/internal/endpoint"
)

// Snapshot is a copy of the resolution slot.
type Snapshot struct {
	Candidate  endpoint.Candidate
	Resolved   bool
	ResolvedAt time.Time
}

// Store holds at most one trusted endpoint. The zero value is unset and
// ready to use.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
}

// Load returns the trusted endpoint, if any.
func (s *Store) Load() (endpoint.Endpoint, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot.Candidate.Endpoint, s.snapshot.Resolved
}

// Set trusts c, replacing any previous value, and returns what was stored.
func (s *Store) Set(c endpoint.Candidate) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = Snapshot{Candidate: c, Resolved: !c.Endpoint.IsZero(), ResolvedAt: time.Now()}
	return s.snapshot
}

// Clear forgets the trusted endpoint.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = Snapshot{}
}

// Snapshot returns a copy of the slot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}
