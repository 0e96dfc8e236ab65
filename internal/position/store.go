package position

import (
	"sync"
	"time"
)

type key struct {
	visitID    string
	employeeID string
}

// Store keeps the latest known position per (visit, employee). Updates
// may arrive out of order or duplicated; Apply keeps whichever sample
// carries the greatest RecordedAt. Writers for different keys never
// contend beyond the map lock.
type Store struct {
	mu     sync.RWMutex
	latest map[key]Sample
}

func NewStore() *Store {
	return &Store{latest: map[key]Sample{}}
}

// Apply merges a sample into the store. It reports whether the sample
// became the current position; an older or equal-timestamp sample is
// dropped, which also makes duplicate delivery harmless.
func (s *Store) Apply(sample Sample) bool {
	k := key{visitID: sample.VisitID, employeeID: sample.EmployeeID}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.latest[k]; ok && !sample.RecordedAt.After(existing.RecordedAt) {
		return false
	}
	s.latest[k] = sample
	return true
}

// Current returns the latest sample for a (visit, employee) pair. The
// second result is false when the subject has never reported; callers
// must not substitute a default coordinate.
func (s *Store) Current(visitID, employeeID string) (Sample, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sample, ok := s.latest[key{visitID: visitID, employeeID: employeeID}]
	return sample, ok
}

// State classifies the subject at the given instant.
func (s *Store) State(visitID, employeeID string, now time.Time, staleAfter time.Duration) State {
	sample, ok := s.Current(visitID, employeeID)
	if !ok {
		return StateNone
	}
	return StateOf(sample.RecordedAt, now, staleAfter)
}

// Drop clears the live entries for a visit. Called on visit end; the
// persisted history is unaffected.
func (s *Store) Drop(visitID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for k := range s.latest {
		if k.visitID == visitID {
			delete(s.latest, k)
		}
	}
}

// Len reports the number of tracked (visit, employee) pairs.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.latest)
}
