package attendance

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/kazi/core"
)

var (
	// errors
	ErrNotFound = errors.New("attendance record not found")
)

type (
	Repository interface {
		// GetRecord returns the record for (employeeID, date) or ErrNotFound.
		GetRecord(ctx context.Context, employeeID int, date time.Time) (Record, error)
		// SaveRecord upserts rec on its (employeeID, date) key.
		SaveRecord(ctx context.Context, rec Record) (Record, error)
		// QueryRecordsByMonth returns the employee's records within the
		// "2006-01" month, ordered by date.
		QueryRecordsByMonth(ctx context.Context, employeeID int, month string) ([]Record, error)
	}

	Service struct {
		repo   Repository
		window WorkWindow
		logger core.Logger

		// applyMu makes each (employee, date) update one atomic
		// read-modify-write; two near-simultaneous events for the same key
		// must not lose an update.
		applyMu sync.Mutex
	}

	// StampedEvent is a resolved presence event ready for application.
	StampedEvent struct {
		EmployeeID int
		Timestamp  time.Time
	}
)

func NewService(repo Repository, conf *core.Config, logger core.Logger) (*Service, error) {
	window, err := NewWorkWindow(conf.Attendance)
	if err != nil {
		return nil, err
	}
	return &Service{repo: repo, window: window, logger: logger}, nil
}

func (svc *Service) Window() WorkWindow { return svc.window }

// ApplyEvent applies one presence event to the record for
// (employeeID, day of ts), creating the record on first contact. The
// inferred direction and the updated record are returned.
func (svc *Service) ApplyEvent(ctx context.Context, employeeID int, ts time.Time) (Direction, Record, error) {
	svc.applyMu.Lock()
	defer svc.applyMu.Unlock()

	date := DateOf(ts)
	rec, err := svc.repo.GetRecord(ctx, employeeID, date)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			return "", Record{}, err
		}
		now := time.Now().UTC()
		rec = Record{EmployeeID: employeeID, Date: date, CreatedAt: now}
	}

	dir := Transition(&rec, ts)
	rec.UpdatedAt = time.Now().UTC()

	rec, err = svc.repo.SaveRecord(ctx, rec)
	if err != nil {
		return "", Record{}, err
	}
	return dir, rec, nil
}

// ApplyBatch applies buffered events in timestamp order, not arrival
// order; the transport does not guarantee ordering across a reconnect
// flush.
func (svc *Service) ApplyBatch(ctx context.Context, events []StampedEvent) error {
	sorted := make([]StampedEvent, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Timestamp.Before(sorted[j].Timestamp) })

	for _, ev := range sorted {
		if _, _, err := svc.ApplyEvent(ctx, ev.EmployeeID, ev.Timestamp); err != nil {
			return err
		}
	}
	return nil
}

// DailyStatus derives the day's classification; a missing record is
// simply Absent.
func (svc *Service) DailyStatus(ctx context.Context, employeeID int, date time.Time) (Status, error) {
	rec, err := svc.repo.GetRecord(ctx, employeeID, DateOf(date))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return StatusAbsent, nil
		}
		return "", err
	}
	return rec.Status(svc.window), nil
}

func (svc *Service) Records(ctx context.Context, employeeID int, month string) ([]Record, error) {
	return svc.repo.QueryRecordsByMonth(ctx, employeeID, month)
}

// MonthlyAggregate folds the month's records into total worked and
// overtime minutes. standardMinutes is the configured
// workdays*hours*60 threshold.
func (svc *Service) MonthlyAggregate(ctx context.Context, employeeID int, month string, standardMinutes int) (MonthlyAggregate, error) {
	recs, err := svc.repo.QueryRecordsByMonth(ctx, employeeID, month)
	if err != nil {
		return MonthlyAggregate{}, err
	}

	agg := MonthlyAggregate{EmployeeID: employeeID, Month: month}
	for _, rec := range recs {
		agg.WorkedMinutes += rec.WorkedMinutes()
	}
	if over := agg.WorkedMinutes - standardMinutes; over > 0 {
		agg.OvertimeMinutes = over
	}
	return agg, nil
}

// Clear is the administrative reset of a day's record: both fields back
// to empty. Clearing a missing record reports ErrNotFound instead of
// failing hard; concurrent/duplicate administrative actions make this an
// expected condition.
func (svc *Service) Clear(ctx context.Context, employeeID int, date time.Time) (Record, error) {
	svc.applyMu.Lock()
	defer svc.applyMu.Unlock()

	rec, err := svc.repo.GetRecord(ctx, employeeID, DateOf(date))
	if err != nil {
		return Record{}, err
	}
	rec.CheckIn = null.Time{}
	rec.CheckOut = null.Time{}
	rec.UpdatedAt = time.Now().UTC()
	return svc.repo.SaveRecord(ctx, rec)
}
