// internal/scanner/store.go
package scanner

import (
	"sync"
	"time"
)

// Store holds the most recent scan's opportunity set. The scan orchestrator
// is the sole writer; readers always receive a complete snapshot — either
// the previous set or the new one, never a partially-populated list.
type Store struct {
	mu            sync.RWMutex
	opportunities []Opportunity
	updatedAt     time.Time
}

// NewStore creates an empty opportunity store.
func NewStore() *Store {
	return &Store{}
}

// Publish atomically replaces the current set with a defensive copy.
func (s *Store) Publish(opportunities []Opportunity) {
	snapshot := make([]Opportunity, len(opportunities))
	copy(snapshot, opportunities)

	s.mu.Lock()
	s.opportunities = snapshot
	s.updatedAt = time.Now()
	s.mu.Unlock()
}

// Current returns a copy of the published set. Mutating the returned slice
// never affects the live set.
func (s *Store) Current() []Opportunity {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := make([]Opportunity, len(s.opportunities))
	copy(snapshot, s.opportunities)
	return snapshot
}

// UpdatedAt returns the time of the last publish; zero before the first one.
func (s *Store) UpdatedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.updatedAt
}
