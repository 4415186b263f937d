package attendance

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/kazi/core"
)

// Status is the derived classification of a day's attendance. It is a
// pure function of the record and the workday window, computed on read
// and never cached.
type Status string

const (
	StatusAbsent   Status = "absent"
	StatusOnTime   Status = "on_time"
	StatusLate     Status = "late"
	StatusOvertime Status = "overtime"
)

// Direction is the inferred meaning of a presence event.
type Direction string

const (
	DirectionCheckIn  Direction = "check_in"
	DirectionCheckOut Direction = "check_out"
)

// Record is the per-employee, per-day check-in/check-out state.
// At most one check-in and one check-out per (employee, date); both reset
// to empty by an administrative clear, never deleted otherwise.
type Record struct {
	ID         int       `db:"id" json:"id"`
	EmployeeID int       `db:"employee_id" json:"employeeId"`
	Date       time.Time `db:"date" json:"date"`
	CheckIn    null.Time `db:"check_in" json:"checkIn"`
	CheckOut   null.Time `db:"check_out" json:"checkOut"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt  time.Time `db:"updated_at" json:"updatedAt"`
}

// WorkWindow is the configured workday [start, end] with grace, in
// minutes from midnight.
type WorkWindow struct {
	StartMinutes int
	EndMinutes   int
	GraceMinutes int
}

func NewWorkWindow(conf core.AttendanceConfig) (WorkWindow, error) {
	start, err := parseClock(conf.WorkdayStart)
	if err != nil {
		return WorkWindow{}, fmt.Errorf("workday start: %v", err)
	}
	end, err := parseClock(conf.WorkdayEnd)
	if err != nil {
		return WorkWindow{}, fmt.Errorf("workday end: %v", err)
	}
	return WorkWindow{StartMinutes: start, EndMinutes: end, GraceMinutes: conf.GraceMinutes}, nil
}

// parseClock parses "HH:MM" into minutes from midnight.
func parseClock(s string) (int, error) {
	parts := strings.SplitN(core.CleanString(s), ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid clock value %q", s)
	}
	hh, err := strconv.Atoi(parts[0])
	if err != nil || hh < 0 || hh > 23 {
		return 0, fmt.Errorf("invalid clock value %q", s)
	}
	mm, err := strconv.Atoi(parts[1])
	if err != nil || mm < 0 || mm > 59 {
		return 0, fmt.Errorf("invalid clock value %q", s)
	}
	return hh*60 + mm, nil
}

func minutesOfDay(t time.Time) int { return t.Hour()*60 + t.Minute() }

// Status derives the day's classification:
//   - no check-in and no check-out        -> Absent
//   - check-in after start+grace          -> Late
//   - otherwise, check-out after end      -> Overtime
//   - otherwise                           -> OnTime
//
// With only a check-in recorded the OnTime/Late result is provisional
// (the day is still in progress).
func (r Record) Status(w WorkWindow) Status {
	if !r.CheckIn.Valid && !r.CheckOut.Valid {
		return StatusAbsent
	}
	if r.CheckIn.Valid && minutesOfDay(r.CheckIn.Time) > w.StartMinutes+w.GraceMinutes {
		return StatusLate
	}
	if r.CheckOut.Valid && minutesOfDay(r.CheckOut.Time) > w.EndMinutes {
		return StatusOvertime
	}
	return StatusOnTime
}

// WorkedMinutes is the day's worked duration, clamped to zero when the
// check-out precedes the check-in.
func (r Record) WorkedMinutes() int {
	if !r.CheckIn.Valid || !r.CheckOut.Valid {
		return 0
	}
	mins := int(r.CheckOut.Time.Sub(r.CheckIn.Time) / time.Minute)
	if mins < 0 {
		return 0
	}
	return mins
}

// MonthlyAggregate is the summed worked/overtime minutes of an employee
// over one month. Derived on demand, never stored.
type MonthlyAggregate struct {
	EmployeeID      int    `json:"employeeId"`
	Month           string `json:"month"`
	WorkedMinutes   int    `json:"workedMinutes"`
	OvertimeMinutes int    `json:"overtimeMinutes"`
}

// MonthKey formats t as the "2006-01" month key.
func MonthKey(t time.Time) string { return t.UTC().Format("2006-01") }

// DateOf truncates t to its UTC calendar date.
func DateOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseMonthKey validates a "2006-01" month key.
func ParseMonthKey(s string) (string, error) {
	t, err := time.Parse("2006-01", core.CleanString(s))
	if err != nil {
		return "", fmt.Errorf("invalid month %q", s)
	}
	return MonthKey(t), nil
}

// Transition applies one presence timestamp to a record and reports the
// inferred direction. This is the correctness-sensitive rule of the
// whole pipeline, kept as an explicit state machine:
//
//	no check-in                  -> the event is the check-in
//	check-in only                -> the event is the check-out
//	complete record              -> the event corrects the check-out
//
// Tie-break for out-of-order delivery (e.g. queued events across a
// reconnect gap): an event older than the recorded check-in always
// becomes the check-in, the previous check-in shifting to the check-out
// slot when it is free. Ordering is decided by event timestamp, never by
// arrival order.
func Transition(rec *Record, ts time.Time) Direction {
	ts = ts.UTC()
	switch {
	case !rec.CheckIn.Valid:
		rec.CheckIn = null.TimeFrom(ts)
		return DirectionCheckIn

	case !rec.CheckOut.Valid:
		if ts.Before(rec.CheckIn.Time) {
			rec.CheckOut = rec.CheckIn
			rec.CheckIn = null.TimeFrom(ts)
			return DirectionCheckIn
		}
		rec.CheckOut = null.TimeFrom(ts)
		return DirectionCheckOut

	default:
		if ts.Before(rec.CheckIn.Time) {
			rec.CheckIn = null.TimeFrom(ts)
			return DirectionCheckIn
		}
		rec.CheckOut = null.TimeFrom(ts)
		return DirectionCheckOut
	}
}
