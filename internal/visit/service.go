package visit

import (
	"context"
	"time"

	"backend-fieldtrack/internal/db"
	"backend-fieldtrack/internal/position"

	"github.com/google/uuid"
)

type Service struct {
	db   db.Querier
	live *position.Store
}

func NewService(db db.Querier, live *position.Store) *Service {
	return &Service{db: db, live: live}
}

// Start opens a visit for an employee. At most one visit may be open
// per employee; a second start without an intervening end fails with
// ErrConflict and creates nothing.
func (s *Service) Start(ctx context.Context, employeeID, siteLabel string) (Visit, error) {
	var open bool
	row := s.db.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM visits WHERE employee_id=$1 AND status='open')
	`, employeeID)
	if err := row.Scan(&open); err != nil {
		return Visit{}, err
	}
	if open {
		return Visit{}, ErrConflict
	}

	v := Visit{
		ID:         uuid.NewString(),
		EmployeeID: employeeID,
		SiteLabel:  siteLabel,
		Status:     StatusOpen,
	}
	row = s.db.QueryRow(ctx, `
		INSERT INTO visits (id, employee_id, site_label, status)
		VALUES ($1,$2,$3,$4)
		RETURNING started_at
	`, v.ID, v.EmployeeID, v.SiteLabel, v.Status)
	if err := row.Scan(&v.StartedAt); err != nil {
		return Visit{}, err
	}
	return v, nil
}

// End closes a visit and clears its live position entries. Ending an
// already-closed or unknown visit is a no-op success. Works regardless
// of the state of any websocket connection.
func (s *Service) End(ctx context.Context, visitID, reason string) error {
	if reason == "" {
		reason = "ended"
	}
	_, err := s.db.Exec(ctx, `
		UPDATE visits
		SET status='closed', ended_at=now(), close_reason=$2
		WHERE id=$1 AND status='open'
	`, visitID, reason)
	if err != nil {
		return err
	}
	if s.live != nil {
		s.live.Drop(visitID)
	}
	return nil
}

// Active lists every open visit joined at read time with its
// latest-by-timestamp sample.
func (s *Service) Active(ctx context.Context) ([]ActiveVisit, error) {
	rows, err := s.db.Query(ctx, `
		SELECT v.id, v.employee_id, e.full_name, v.site_label, v.started_at,
		       p.lat, p.lng, p.recorded_at
		FROM visits v
		JOIN employees e ON e.id = v.employee_id
		LEFT JOIN LATERAL (
			SELECT ST_Y(location::geometry) AS lat, ST_X(location::geometry) AS lng, recorded_at
			FROM visit_samples
			WHERE visit_id = v.id
			ORDER BY recorded_at DESC
			LIMIT 1
		) p ON true
		WHERE v.status = 'open'
		ORDER BY v.started_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var visits []ActiveVisit
	for rows.Next() {
		var v ActiveVisit
		if err := rows.Scan(&v.VisitID, &v.EmployeeID, &v.EmployeeName, &v.SiteLabel, &v.StartedAt, &v.Lat, &v.Lng, &v.LastSampleAt); err != nil {
			return nil, err
		}
		visits = append(visits, v)
	}
	return visits, nil
}

// ByEmployee returns an employee's visit history, newest first.
func (s *Service) ByEmployee(ctx context.Context, employeeID string) ([]Visit, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, employee_id, site_label, status, started_at, ended_at, COALESCE(close_reason,'')
		FROM visits WHERE employee_id=$1
		ORDER BY started_at DESC
	`, employeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var visits []Visit
	for rows.Next() {
		var v Visit
		if err := rows.Scan(&v.ID, &v.EmployeeID, &v.SiteLabel, &v.Status, &v.StartedAt, &v.EndedAt, &v.CloseReason); err != nil {
			return nil, err
		}
		visits = append(visits, v)
	}
	return visits, nil
}

// ForceCloseIdle closes open visits whose newest sample (or start, when
// no sample exists) is older than the cutoff. Returns the closed ids.
func (s *Service) ForceCloseIdle(ctx context.Context, cutoff time.Time) ([]string, error) {
	rows, err := s.db.Query(ctx, `
		UPDATE visits v
		SET status='closed', ended_at=now(), close_reason='idle_timeout'
		WHERE v.status='open'
		  AND COALESCE(
		      (SELECT MAX(recorded_at) FROM visit_samples s WHERE s.visit_id = v.id),
		      v.started_at
		  ) < $1
		RETURNING v.id
	`, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if s.live != nil {
		for _, id := range ids {
			s.live.Drop(id)
		}
	}
	return ids, nil
}
