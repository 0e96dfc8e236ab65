package stream

import (
	"time"

	"backend-fieldtrack/internal/position"
)

const (
	// KindPositionUpdate is a tracker-to-server location report.
	KindPositionUpdate = "positionUpdate"
	// KindStopTracking is advisory; the authoritative stop is the
	// visit end call.
	KindStopTracking = "stopTracking"
	// KindSubjectPositionUpdate is the server-to-dashboard fan-out.
	KindSubjectPositionUpdate = "subjectPositionUpdate"
)

// Envelope is the wire format on both socket directions. The transport
// gives no ordering guarantee; receivers reconcile by RecordedAt.
type Envelope struct {
	Kind       string    `json:"kind"`
	VisitID    string    `json:"visit_id,omitempty"`
	EmployeeID string    `json:"employee_id,omitempty"`
	Lat        float64   `json:"lat,omitempty"`
	Lng        float64   `json:"lng,omitempty"`
	RecordedAt time.Time `json:"recorded_at,omitempty"`
	ReceivedAt time.Time `json:"received_at,omitempty"`
}

// Sample converts an inbound envelope to a position sample. The subject
// identity is taken from the resolved credential, never from the
// envelope itself.
func (e Envelope) Sample(employeeID string) position.Sample {
	return position.Sample{
		VisitID:    e.VisitID,
		EmployeeID: employeeID,
		Lat:        e.Lat,
		Lng:        e.Lng,
		RecordedAt: e.RecordedAt,
	}
}

// Broadcast builds the fan-out envelope for an accepted sample.
func Broadcast(sample position.Sample) Envelope {
	return Envelope{
		Kind:       KindSubjectPositionUpdate,
		VisitID:    sample.VisitID,
		EmployeeID: sample.EmployeeID,
		Lat:        sample.Lat,
		Lng:        sample.Lng,
		RecordedAt: sample.RecordedAt,
		ReceivedAt: sample.ReceivedAt,
	}
}
