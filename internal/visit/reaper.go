package visit

import (
	"context"
	"log"
	"time"
)

// Reaper force-closes visits abandoned by their clients: an open visit
// with no sample for the idle timeout would otherwise stay open forever.
type Reaper struct {
	svc      *Service
	interval time.Duration
	timeout  time.Duration
}

func NewReaper(svc *Service, interval, timeout time.Duration) *Reaper {
	return &Reaper{svc: svc, interval: interval, timeout: timeout}
}

func (r *Reaper) Run(ctx context.Context) {
	if r.interval <= 0 {
		r.interval = 5 * time.Minute
	}
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.reap(ctx)
		}
	}
}

func (r *Reaper) reap(ctx context.Context) {
	ids, err := r.svc.ForceCloseIdle(ctx, time.Now().Add(-r.timeout))
	if err != nil {
		log.Printf("visit reaper error: %v", err)
		return
	}
	for _, id := range ids {
		log.Printf("visit %s force-closed after %s of inactivity", id, r.timeout)
	}
}
