package stream

import (
	"context"
	"encoding/json"
	"errors"

	"backend-fieldtrack/internal/position"
)

// SampleRecorder persists accepted samples. *position.Recorder satisfies
// this; tests substitute their own.
type SampleRecorder interface {
	Record(ctx context.Context, sample position.Sample) (position.Sample, error)
}

// Service turns inbound tracker messages into recorded, live, broadcast
// position state.
type Service struct {
	recorder SampleRecorder
	live     *position.Store
	hub      *Hub
}

func NewService(recorder SampleRecorder, live *position.Store, hub *Hub) *Service {
	return &Service{recorder: recorder, live: live, hub: hub}
}

// HandlePosition records one update, merges it into the live store and
// fans it out. Updates for closed visits come back as
// position.ErrVisitClosed and must be dropped by the caller; they never
// reach the store or the feed.
func (s *Service) HandlePosition(ctx context.Context, env Envelope, employeeID string) error {
	if env.VisitID == "" {
		return errors.New("visit_id required")
	}

	recorded, err := s.recorder.Record(ctx, env.Sample(employeeID))
	if err != nil {
		return err
	}

	if s.live != nil {
		s.live.Apply(recorded)
	}

	payload, _ := json.Marshal(Broadcast(recorded))
	s.hub.Broadcast(payload)
	return nil
}
