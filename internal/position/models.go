package position

import "time"

// Sample is a single reported location fix. Samples are append-only; the
// current position of a subject is the sample with the greatest
// RecordedAt, never the most recently received one.
type Sample struct {
	VisitID    string    `json:"visit_id"`
	EmployeeID string    `json:"employee_id"`
	Lat        float64   `json:"lat"`
	Lng        float64   `json:"lng"`
	// RecordedAt is the client-side capture time and is authoritative
	// for ordering.
	RecordedAt time.Time `json:"recorded_at"`
	// ReceivedAt is stamped by the server on arrival. Display only.
	ReceivedAt time.Time `json:"received_at,omitempty"`
}

type State string

const (
	// StateLive means a sample arrived within the staleness window.
	StateLive State = "live"
	// StateStale means samples exist but the newest is too old.
	StateStale State = "stale"
	// StateNone means the subject has never reported.
	StateNone State = "none"
)

// StateOf classifies a subject by the age of its newest sample.
func StateOf(recordedAt, now time.Time, staleAfter time.Duration) State {
	if recordedAt.IsZero() {
		return StateNone
	}
	if now.Sub(recordedAt) > staleAfter {
		return StateStale
	}
	return StateLive
}
