package sampler

import (
	"log"
	"sync"
	"time"
)

var nowFn = time.Now

// Fix is one raw geolocation reading from the device.
type Fix struct {
	Lat        float64
	Lng        float64
	RecordedAt time.Time
}

// Sampler forwards at most one fix per throttle window. Fixes inside the
// window are discarded silently; the rate bound holds regardless of how
// fast the device reports.
type Sampler struct {
	mu            sync.Mutex
	window        time.Duration
	lastForwarded time.Time
	forward       func(Fix)
}

func New(window time.Duration, forward func(Fix)) *Sampler {
	return &Sampler{window: window, forward: forward}
}

// Offer hands a raw fix to the sampler. It reports whether the fix was
// forwarded.
func (s *Sampler) Offer(fix Fix) bool {
	s.mu.Lock()
	now := nowFn()
	if !s.lastForwarded.IsZero() && now.Sub(s.lastForwarded) < s.window {
		s.mu.Unlock()
		return false
	}
	s.lastForwarded = now
	forward := s.forward
	s.mu.Unlock()

	if fix.RecordedAt.IsZero() {
		fix.RecordedAt = now
	}
	forward(fix)
	return true
}

// OfferError absorbs a geolocation failure. Sampling simply stops
// producing fixes until the device recovers; staleness is surfaced
// downstream, never as a session-ending error here.
func (s *Sampler) OfferError(err error) {
	if err == nil {
		return
	}
	log.Printf("sampler: geolocation error: %v", err)
}
