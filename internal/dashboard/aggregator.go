package dashboard

import (
	"context"
	"sync"
	"time"

	"backend-fieldtrack/internal/position"
	"backend-fieldtrack/internal/shared/geo"
	"backend-fieldtrack/internal/stream"
	"backend-fieldtrack/internal/visit"
)

// Fetcher supplies the open-visit registry. *RegistryClient satisfies
// this; tests substitute their own.
type Fetcher interface {
	ActiveVisits(ctx context.Context) ([]visit.ActiveVisit, error)
}

// SitePoint is a known site location, used to derive distance-from-site
// for live subjects.
type SitePoint struct {
	Label string
	Lat   float64
	Lng   float64
}

// Row is one rendered dashboard line. Lat, Lng and DistanceKm are nil
// when no position has been reported yet.
type Row struct {
	VisitID       string
	EmployeeID    string
	EmployeeLabel string
	SiteLabel     string
	Lat           *float64
	Lng           *float64
	State         position.State
	Elapsed       time.Duration
	DistanceKm    *float64
}

// Aggregator joins the polled visit registry with a locally maintained
// position store fed from the realtime feed. It holds no truth of its
// own: rows are derived at read time.
type Aggregator struct {
	fetch      Fetcher
	live       *position.Store
	staleAfter time.Duration

	mu       sync.RWMutex
	visits   []visit.ActiveVisit
	sites    map[string]SitePoint
	degraded bool
}

func NewAggregator(fetch Fetcher, staleAfter time.Duration) *Aggregator {
	return &Aggregator{
		fetch:      fetch,
		live:       position.NewStore(),
		staleAfter: staleAfter,
		sites:      map[string]SitePoint{},
	}
}

// SetSites installs the site catalog used for distance derivation.
func (a *Aggregator) SetSites(sites []SitePoint) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sites = make(map[string]SitePoint, len(sites))
	for _, s := range sites {
		a.sites[s.Label] = s
	}
}

// Refresh re-fetches the open-visit registry. On failure the previous
// snapshot is kept and the aggregator is flagged degraded; the display
// must never be cleared by a transient fetch error.
func (a *Aggregator) Refresh(ctx context.Context) error {
	visits, err := a.fetch.ActiveVisits(ctx)
	if err != nil {
		a.mu.Lock()
		a.degraded = true
		a.mu.Unlock()
		return err
	}

	open := make(map[string]struct{}, len(visits))
	for _, v := range visits {
		open[v.VisitID] = struct{}{}
		// seed the live store from the registry join; last-write-wins
		// keeps any fresher feed sample
		if v.Lat != nil && v.Lng != nil && v.LastSampleAt != nil {
			a.live.Apply(position.Sample{
				VisitID:    v.VisitID,
				EmployeeID: v.EmployeeID,
				Lat:        *v.Lat,
				Lng:        *v.Lng,
				RecordedAt: *v.LastSampleAt,
			})
		}
	}

	a.mu.Lock()
	for _, prev := range a.visits {
		if _, ok := open[prev.VisitID]; !ok {
			a.live.Drop(prev.VisitID)
		}
	}
	a.visits = visits
	a.degraded = false
	a.mu.Unlock()
	return nil
}

// Apply merges one feed envelope into the local position store. Kinds
// other than subjectPositionUpdate are ignored.
func (a *Aggregator) Apply(env stream.Envelope) {
	if env.Kind != stream.KindSubjectPositionUpdate || env.VisitID == "" {
		return
	}
	a.live.Apply(position.Sample{
		VisitID:    env.VisitID,
		EmployeeID: env.EmployeeID,
		Lat:        env.Lat,
		Lng:        env.Lng,
		RecordedAt: env.RecordedAt,
		ReceivedAt: env.ReceivedAt,
	})
}

// Snapshot derives the current rows. degraded reports whether the rows
// come from a snapshot that failed to refresh.
func (a *Aggregator) Snapshot(now time.Time) (rows []Row, degraded bool) {
	a.mu.RLock()
	visits := a.visits
	sites := a.sites
	degraded = a.degraded
	a.mu.RUnlock()

	rows = make([]Row, 0, len(visits))
	for _, v := range visits {
		row := Row{
			VisitID:       v.VisitID,
			EmployeeID:    v.EmployeeID,
			EmployeeLabel: v.EmployeeName,
			SiteLabel:     v.SiteLabel,
			State:         position.StateNone,
			Elapsed:       now.Sub(v.StartedAt),
		}

		if sample, ok := a.live.Current(v.VisitID, v.EmployeeID); ok {
			lat, lng := sample.Lat, sample.Lng
			row.Lat, row.Lng = &lat, &lng
			row.State = position.StateOf(sample.RecordedAt, now, a.staleAfter)
			if site, ok := sites[v.SiteLabel]; ok {
				d := geo.HaversineKm(lat, lng, site.Lat, site.Lng)
				row.DistanceKm = &d
			}
		}
		rows = append(rows, row)
	}
	return rows, degraded
}

// Render draws every row with a known position through the map
// renderer. Subjects with no position yet are skipped, not defaulted.
func (a *Aggregator) Render(r MapRenderer, now time.Time) {
	rows, _ := a.Snapshot(now)
	for _, row := range rows {
		if row.Lat == nil || row.Lng == nil {
			continue
		}
		r.Render(Position{Lat: *row.Lat, Lng: *row.Lng}, row.EmployeeLabel, row.State == position.StateStale)
	}
}
