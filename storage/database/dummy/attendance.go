package dummydb

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/trezcool/kazi/core/attendance"
)

type attendanceRepository struct {
	db *attendanceTable
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(db *DB) attendance.Repository {
	return &attendanceRepository{db: db.attendance}
}

func dateKey(t time.Time) string { return t.UTC().Format("2006-01-02") }

func (repo *attendanceRepository) GetRecord(_ context.Context, employeeID int, date time.Time) (attendance.Record, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if rec, ok := repo.db.table[attendanceKey{employeeID, dateKey(date)}]; ok {
		return *rec, nil
	}
	return attendance.Record{}, attendance.ErrNotFound
}

func (repo *attendanceRepository) SaveRecord(_ context.Context, rec attendance.Record) (attendance.Record, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	key := attendanceKey{rec.EmployeeID, dateKey(rec.Date)}
	if existing, ok := repo.db.table[key]; ok {
		rec.ID = existing.ID
	} else {
		repo.db.pkCount++
		rec.ID = repo.db.pkCount
	}
	repo.db.table[key] = &rec
	return rec, nil
}

func (repo *attendanceRepository) QueryRecordsByMonth(_ context.Context, employeeID int, month string) ([]attendance.Record, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	recs := make([]attendance.Record, 0)
	for key, rec := range repo.db.table {
		if key.employeeID == employeeID && strings.HasPrefix(key.date, month) {
			recs = append(recs, *rec)
		}
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].Date.Before(recs[j].Date) })
	return recs, nil
}
