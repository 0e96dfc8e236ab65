package visit

import (
	"context"
	"errors"
	"testing"
	"time"

	"backend-fieldtrack/internal/position"

	"github.com/pashagolub/pgxmock/v3"
)

func TestStartVisit(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("emp-1").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))

	mock.ExpectQuery(`INSERT INTO visits`).
		WithArgs(pgxmock.AnyArg(), "emp-1", "North Depot", "open").
		WillReturnRows(pgxmock.NewRows([]string{"started_at"}).AddRow(time.Now()))

	svc := NewService(mock, nil)
	v, err := svc.Start(context.Background(), "emp-1", "North Depot")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if v.ID == "" || v.Status != StatusOpen {
		t.Fatalf("expected open visit with id")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestStartVisitConflict(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("emp-1").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	svc := NewService(mock, nil)
	_, err = svc.Start(context.Background(), "emp-1", "North Depot")
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	// no second open visit was created
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestStartVisitInsertError(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("emp-1").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))

	mock.ExpectQuery(`INSERT INTO visits`).
		WithArgs(pgxmock.AnyArg(), "emp-1", "North Depot", "open").
		WillReturnError(errVisit)

	svc := NewService(mock, nil)
	if _, err := svc.Start(context.Background(), "emp-1", "North Depot"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestEndVisitIdempotent(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	live := position.NewStore()
	live.Apply(position.Sample{VisitID: "visit-1", EmployeeID: "emp-1", RecordedAt: time.Now()})

	mock.ExpectExec(`UPDATE visits`).
		WithArgs("visit-1", "ended").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	svc := NewService(mock, live)
	if err := svc.End(context.Background(), "visit-1", "ended"); err != nil {
		t.Fatalf("end: %v", err)
	}
	if _, ok := live.Current("visit-1", "emp-1"); ok {
		t.Fatalf("expected live entries cleared")
	}

	// ending again, or ending an unknown id, touches no rows but succeeds
	mock.ExpectExec(`UPDATE visits`).
		WithArgs("visit-1", "ended").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	if err := svc.End(context.Background(), "visit-1", "ended"); err != nil {
		t.Fatalf("expected idempotent end, got %v", err)
	}
}

func TestEndVisitError(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectExec(`UPDATE visits`).
		WithArgs("visit-1", "ended").
		WillReturnError(errVisit)

	svc := NewService(mock, nil)
	if err := svc.End(context.Background(), "visit-1", "ended"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestActiveVisits(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	started := time.Now().Add(-70 * time.Second)
	lat, lng := 10.1, 20.1
	sampleAt := time.Now().Add(-5 * time.Second)

	mock.ExpectQuery(`SELECT v.id, v.employee_id, e.full_name, v.site_label, v.started_at`).
		WillReturnRows(pgxmock.NewRows([]string{"id", "employee_id", "full_name", "site_label", "started_at", "lat", "lng", "recorded_at"}).
			AddRow("visit-1", "emp-1", "S Subject", "North Depot", started, &lat, &lng, &sampleAt).
			AddRow("visit-2", "emp-2", "No Fix", "South Depot", started, nil, nil, nil))

	svc := NewService(mock, nil)
	visits, err := svc.Active(context.Background())
	if err != nil {
		t.Fatalf("active: %v", err)
	}
	if len(visits) != 2 {
		t.Fatalf("expected 2 visits")
	}
	if visits[0].Lat == nil || *visits[0].Lat != 10.1 {
		t.Fatalf("expected joined latest sample")
	}
	if visits[1].Lat != nil || visits[1].LastSampleAt != nil {
		t.Fatalf("expected no sample fields for unreported visit")
	}
}

func TestActiveVisitsQueryError(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`SELECT v.id, v.employee_id`).
		WillReturnError(errVisit)

	svc := NewService(mock, nil)
	if _, err := svc.Active(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
}

func TestByEmployee(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	endedAt := time.Now()
	mock.ExpectQuery(`SELECT id, employee_id, site_label, status, started_at, ended_at`).
		WithArgs("emp-1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "employee_id", "site_label", "status", "started_at", "ended_at", "close_reason"}).
			AddRow("visit-2", "emp-1", "South Depot", "closed", time.Now().Add(-time.Hour), &endedAt, "ended").
			AddRow("visit-1", "emp-1", "North Depot", "closed", time.Now().Add(-2*time.Hour), &endedAt, "idle_timeout"))

	svc := NewService(mock, nil)
	visits, err := svc.ByEmployee(context.Background(), "emp-1")
	if err != nil {
		t.Fatalf("by employee: %v", err)
	}
	if len(visits) != 2 || visits[0].ID != "visit-2" {
		t.Fatalf("expected history newest first")
	}
}

func TestForceCloseIdle(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	live := position.NewStore()
	live.Apply(position.Sample{VisitID: "visit-idle", EmployeeID: "emp-1", RecordedAt: time.Now().Add(-5 * time.Hour)})

	cutoff := time.Now().Add(-4 * time.Hour)
	mock.ExpectQuery(`UPDATE visits v`).
		WithArgs(pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow("visit-idle"))

	svc := NewService(mock, live)
	ids, err := svc.ForceCloseIdle(context.Background(), cutoff)
	if err != nil {
		t.Fatalf("force close: %v", err)
	}
	if len(ids) != 1 || ids[0] != "visit-idle" {
		t.Fatalf("expected idle visit closed")
	}
	if _, ok := live.Current("visit-idle", "emp-1"); ok {
		t.Fatalf("expected live entry dropped")
	}
}

func TestForceCloseIdleError(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`UPDATE visits v`).
		WithArgs(pgxmock.AnyArg()).
		WillReturnError(errVisit)

	svc := NewService(mock, nil)
	if _, err := svc.ForceCloseIdle(context.Background(), time.Now()); err == nil {
		t.Fatalf("expected error")
	}
}

var errVisit = errors.New("visit error")
