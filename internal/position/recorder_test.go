package position

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v3"
)

func TestRecorderRecord(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	recordedAt := time.Now().Add(-10 * time.Second)

	mock.ExpectExec(`INSERT INTO visit_samples`).
		WithArgs("visit-1", "emp-1", 106.8, -6.2, recordedAt, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	rec := NewRecorder(mock)
	sample, err := rec.Record(context.Background(), Sample{
		VisitID:    "visit-1",
		EmployeeID: "emp-1",
		Lat:        -6.2,
		Lng:        106.8,
		RecordedAt: recordedAt,
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if sample.ReceivedAt.IsZero() {
		t.Fatalf("expected server receipt time")
	}
	if !sample.RecordedAt.Equal(recordedAt) {
		t.Fatalf("client sample time must stay authoritative")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRecorderRejectsClosedVisit(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectExec(`INSERT INTO visit_samples`).
		WithArgs("visit-closed", "emp-1", 0.0, 0.0, pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	rec := NewRecorder(mock)
	_, err = rec.Record(context.Background(), Sample{VisitID: "visit-closed", EmployeeID: "emp-1"})
	if !errors.Is(err, ErrVisitClosed) {
		t.Fatalf("expected ErrVisitClosed, got %v", err)
	}
}

func TestRecorderInsertError(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectExec(`INSERT INTO visit_samples`).
		WithArgs("visit-1", "emp-1", 0.0, 0.0, pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(errRecord)

	rec := NewRecorder(mock)
	_, err = rec.Record(context.Background(), Sample{VisitID: "visit-1", EmployeeID: "emp-1"})
	if err == nil {
		t.Fatalf("expected error")
	}
}

func TestRecorderHistory(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	now := time.Now()
	mock.ExpectQuery(`SELECT visit_id, employee_id, ST_Y\(location::geometry\), ST_X\(location::geometry\), recorded_at, received_at`).
		WithArgs("visit-1").
		WillReturnRows(pgxmock.NewRows([]string{"visit_id", "employee_id", "lat", "lng", "recorded_at", "received_at"}).
			AddRow("visit-1", "emp-1", -6.2, 106.8, now.Add(-time.Minute), now).
			AddRow("visit-1", "emp-1", -6.1, 106.9, now, now))

	rec := NewRecorder(mock)
	samples, err := rec.History(context.Background(), "visit-1")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(samples) != 2 {
		t.Fatalf("expected 2 samples, got %d", len(samples))
	}
}

func TestRecorderHistoryError(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`SELECT visit_id, employee_id`).
		WithArgs("visit-1").
		WillReturnError(errRecord)

	rec := NewRecorder(mock)
	if _, err := rec.History(context.Background(), "visit-1"); err == nil {
		t.Fatalf("expected error")
	}
}

var errRecord = errors.New("record error")
