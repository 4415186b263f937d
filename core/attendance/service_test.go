package attendance_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/trezcool/kazi/core"
	"github.com/trezcool/kazi/core/attendance"
	dummydb "github.com/trezcool/kazi/storage/database/dummy"
	testutil "github.com/trezcool/kazi/tests"
)

var testConf = &core.Config{
	Attendance: core.AttendanceConfig{
		WorkdayStart:     "09:00",
		WorkdayEnd:       "17:00",
		GraceMinutes:     15,
		WorkdaysPerMonth: 22,
		HoursPerDay:      8,
	},
}

func setup(t *testing.T) *attendance.Service {
	t.Helper()

	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open() failed: %v", err)
	}
	svc, err := attendance.NewService(dummydb.NewAttendanceRepository(db), testConf, testutil.NewLogger())
	if err != nil {
		t.Fatalf("attendance.NewService() failed: %v", err)
	}
	return svc
}

func ts(day, hh, mm int) time.Time {
	return time.Date(2026, 8, day, hh, mm, 0, 0, time.UTC)
}

func TestService_ApplyEvent_togglesDirection(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	dir, rec, err := svc.ApplyEvent(ctx, 1, ts(3, 8, 55))
	if err != nil {
		t.Fatalf("ApplyEvent() failed: %v", err)
	}
	if dir != attendance.DirectionCheckIn {
		t.Errorf("first event direction = %q; expected check_in", dir)
	}
	if !rec.Date.Equal(ts(3, 0, 0)) {
		t.Errorf("record date = %v; expected the event's calendar day", rec.Date)
	}

	dir, rec, err = svc.ApplyEvent(ctx, 1, ts(3, 17, 10))
	if err != nil {
		t.Fatalf("ApplyEvent() failed: %v", err)
	}
	if dir != attendance.DirectionCheckOut {
		t.Errorf("second event direction = %q; expected check_out", dir)
	}
	if !rec.CheckIn.Valid || !rec.CheckOut.Valid {
		t.Fatalf("record = %+v; expected both check-in and check-out set", rec)
	}
	if got := rec.WorkedMinutes(); got != 495 {
		t.Errorf("WorkedMinutes() = %d; expected 495", got)
	}

	// a new day starts a new record
	dir, rec, err = svc.ApplyEvent(ctx, 1, ts(4, 9, 2))
	if err != nil {
		t.Fatalf("ApplyEvent() failed: %v", err)
	}
	if dir != attendance.DirectionCheckIn {
		t.Errorf("next-day event direction = %q; expected check_in", dir)
	}
	if rec.CheckOut.Valid {
		t.Errorf("next-day record = %+v; expected empty check-out", rec)
	}
}

func TestService_ApplyBatch_appliesInTimestampOrder(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	// delivered out of order, e.g. flushed from an offline queue
	err := svc.ApplyBatch(ctx, []attendance.StampedEvent{
		{EmployeeID: 1, Timestamp: ts(3, 17, 10)},
		{EmployeeID: 1, Timestamp: ts(3, 8, 55)},
	})
	if err != nil {
		t.Fatalf("ApplyBatch() failed: %v", err)
	}

	recs, err := svc.Records(ctx, 1, "2026-08")
	if err != nil {
		t.Fatalf("Records() failed: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("Records() returned %d records; expected 1", len(recs))
	}
	rec := recs[0]
	if !rec.CheckIn.Valid || !rec.CheckIn.Time.Equal(ts(3, 8, 55)) {
		t.Errorf("CheckIn = %v; expected the older event", rec.CheckIn)
	}
	if !rec.CheckOut.Valid || !rec.CheckOut.Time.Equal(ts(3, 17, 10)) {
		t.Errorf("CheckOut = %v; expected the newer event", rec.CheckOut)
	}
}

func TestService_DailyStatus(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	status, err := svc.DailyStatus(ctx, 1, ts(3, 12, 0))
	if err != nil {
		t.Fatalf("DailyStatus() failed: %v", err)
	}
	if status != attendance.StatusAbsent {
		t.Errorf("DailyStatus() with no record = %q; expected absent", status)
	}

	if _, _, err = svc.ApplyEvent(ctx, 1, ts(3, 9, 20)); err != nil {
		t.Fatalf("ApplyEvent() failed: %v", err)
	}
	if status, _ = svc.DailyStatus(ctx, 1, ts(3, 12, 0)); status != attendance.StatusLate {
		t.Errorf("DailyStatus() = %q; expected late", status)
	}

	if _, _, err = svc.ApplyEvent(ctx, 2, ts(3, 9, 0)); err != nil {
		t.Fatalf("ApplyEvent() failed: %v", err)
	}
	if _, _, err = svc.ApplyEvent(ctx, 2, ts(3, 17, 30)); err != nil {
		t.Fatalf("ApplyEvent() failed: %v", err)
	}
	if status, _ = svc.DailyStatus(ctx, 2, ts(3, 12, 0)); status != attendance.StatusOvertime {
		t.Errorf("DailyStatus() = %q; expected overtime", status)
	}
}

func TestService_MonthlyAggregate(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	// two full 8h days and one 9h day
	days := []struct{ day, inH, inM, outH, outM int }{
		{3, 9, 0, 17, 0},
		{4, 9, 0, 17, 0},
		{5, 9, 0, 18, 0},
	}
	for _, d := range days {
		if _, _, err := svc.ApplyEvent(ctx, 1, ts(d.day, d.inH, d.inM)); err != nil {
			t.Fatalf("ApplyEvent() failed: %v", err)
		}
		if _, _, err := svc.ApplyEvent(ctx, 1, ts(d.day, d.outH, d.outM)); err != nil {
			t.Fatalf("ApplyEvent() failed: %v", err)
		}
	}

	// threshold below the total: the excess is overtime
	agg, err := svc.MonthlyAggregate(ctx, 1, "2026-08", 24*60)
	if err != nil {
		t.Fatalf("MonthlyAggregate() failed: %v", err)
	}
	if agg.WorkedMinutes != 25*60 {
		t.Errorf("WorkedMinutes = %d; expected %d", agg.WorkedMinutes, 25*60)
	}
	if agg.OvertimeMinutes != 60 {
		t.Errorf("OvertimeMinutes = %d; expected 60", agg.OvertimeMinutes)
	}

	// threshold above the total: no overtime, never negative
	agg, err = svc.MonthlyAggregate(ctx, 1, "2026-08", testConf.Attendance.StandardMinutesPerMonth())
	if err != nil {
		t.Fatalf("MonthlyAggregate() failed: %v", err)
	}
	if agg.OvertimeMinutes != 0 {
		t.Errorf("OvertimeMinutes = %d; expected 0", agg.OvertimeMinutes)
	}

	// months without records aggregate to zero
	agg, err = svc.MonthlyAggregate(ctx, 1, "2026-09", 24*60)
	if err != nil {
		t.Fatalf("MonthlyAggregate() failed: %v", err)
	}
	if agg.WorkedMinutes != 0 || agg.OvertimeMinutes != 0 {
		t.Errorf("empty month aggregate = %+v; expected zeros", agg)
	}
}

func TestService_Clear(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	if _, _, err := svc.ApplyEvent(ctx, 1, ts(3, 9, 0)); err != nil {
		t.Fatalf("ApplyEvent() failed: %v", err)
	}
	if _, _, err := svc.ApplyEvent(ctx, 1, ts(3, 17, 0)); err != nil {
		t.Fatalf("ApplyEvent() failed: %v", err)
	}

	rec, err := svc.Clear(ctx, 1, ts(3, 12, 0))
	if err != nil {
		t.Fatalf("Clear() failed: %v", err)
	}
	if rec.CheckIn.Valid || rec.CheckOut.Valid {
		t.Errorf("cleared record = %+v; expected empty check-in and check-out", rec)
	}
	if status, _ := svc.DailyStatus(ctx, 1, ts(3, 12, 0)); status != attendance.StatusAbsent {
		t.Errorf("DailyStatus() after clear = %q; expected absent", status)
	}

	// clearing a missing record is an explicit not-found, not a failure
	if _, err = svc.Clear(ctx, 1, ts(20, 12, 0)); !errors.Is(err, attendance.ErrNotFound) {
		t.Errorf("Clear() on missing record returned %v; expected ErrNotFound", err)
	}
}
