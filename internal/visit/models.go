package visit

import (
	"errors"
	"time"
)

const (
	StatusOpen   = "open"
	StatusClosed = "closed"
)

// ErrConflict is returned when a subject already has an open visit.
var ErrConflict = errors.New("employee already has an open visit")

// Visit is one continuous tracked period for one employee at one site.
// Closed visits are immutable.
type Visit struct {
	ID          string     `json:"id"`
	EmployeeID  string     `json:"employee_id"`
	SiteLabel   string     `json:"site_label"`
	Status      string     `json:"status"`
	StartedAt   time.Time  `json:"started_at"`
	EndedAt     *time.Time `json:"ended_at,omitempty"`
	CloseReason string     `json:"close_reason,omitempty"`
}

// ActiveVisit is the registry projection of an open visit joined with
// its latest sample. It is computed at read time from visit and sample
// state, never stored.
type ActiveVisit struct {
	VisitID      string     `json:"visit_id"`
	EmployeeID   string     `json:"employee_id"`
	EmployeeName string     `json:"employee_name"`
	SiteLabel    string     `json:"site_label"`
	StartedAt    time.Time  `json:"started_at"`
	Lat          *float64   `json:"lat,omitempty"`
	Lng          *float64   `json:"lng,omitempty"`
	LastSampleAt *time.Time `json:"last_sample_at,omitempty"`
}
