package position

import (
	"context"
	"errors"
	"time"

	"backend-fieldtrack/internal/db"
)

// ErrVisitClosed is returned when a sample targets a visit that is not
// open. Such samples are discarded; they never reopen the visit.
var ErrVisitClosed = errors.New("visit is not open")

// Recorder persists samples. Rows are insert-only: nothing updates or
// deletes a sample once written.
type Recorder struct {
	db db.Querier
}

func NewRecorder(db db.Querier) *Recorder {
	return &Recorder{db: db}
}

// Record appends a sample, guarded so that only open visits accept
// writes. The returned sample carries the server receipt time.
func (r *Recorder) Record(ctx context.Context, sample Sample) (Sample, error) {
	if sample.RecordedAt.IsZero() {
		sample.RecordedAt = time.Now()
	}
	sample.ReceivedAt = time.Now()

	tag, err := r.db.Exec(ctx, `
		INSERT INTO visit_samples (visit_id, employee_id, location, recorded_at, received_at)
		SELECT $1, $2, ST_SetSRID(ST_MakePoint($3,$4), 4326)::geography, $5, $6
		WHERE EXISTS (SELECT 1 FROM visits WHERE id=$1 AND status='open')
	`, sample.VisitID, sample.EmployeeID, sample.Lng, sample.Lat, sample.RecordedAt, sample.ReceivedAt)
	if err != nil {
		return Sample{}, err
	}
	if tag.RowsAffected() == 0 {
		return Sample{}, ErrVisitClosed
	}
	return sample, nil
}

// History returns every sample of a visit in capture order.
func (r *Recorder) History(ctx context.Context, visitID string) ([]Sample, error) {
	rows, err := r.db.Query(ctx, `
		SELECT visit_id, employee_id, ST_Y(location::geometry), ST_X(location::geometry), recorded_at, received_at
		FROM visit_samples WHERE visit_id=$1
		ORDER BY recorded_at
	`, visitID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var samples []Sample
	for rows.Next() {
		var s Sample
		if err := rows.Scan(&s.VisitID, &s.EmployeeID, &s.Lat, &s.Lng, &s.RecordedAt, &s.ReceivedAt); err != nil {
			return nil, err
		}
		samples = append(samples, s)
	}
	return samples, nil
}
