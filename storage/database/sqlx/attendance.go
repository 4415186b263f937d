package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/kazi/core/attendance"
)

type attendanceRepository struct {
	db *sqlx.DB
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(db *sqlx.DB) attendance.Repository {
	return &attendanceRepository{db: db}
}

func (repo *attendanceRepository) GetRecord(ctx context.Context, employeeID int, date time.Time) (attendance.Record, error) {
	var rec attendance.Record
	err := repo.db.GetContext(ctx, &rec,
		`SELECT * FROM attendance_record WHERE employee_id = $1 AND date = $2`,
		employeeID, date,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return attendance.Record{}, attendance.ErrNotFound
		}
		return attendance.Record{}, errors.Wrap(err, "getting attendance record")
	}
	return rec, nil
}

func (repo *attendanceRepository) SaveRecord(ctx context.Context, rec attendance.Record) (attendance.Record, error) {
	err := repo.db.GetContext(ctx, &rec,
		`INSERT INTO attendance_record (employee_id, date, check_in, check_out, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (employee_id, date)
		 DO UPDATE SET check_in = EXCLUDED.check_in, check_out = EXCLUDED.check_out, updated_at = EXCLUDED.updated_at
		 RETURNING *`,
		rec.EmployeeID, rec.Date, rec.CheckIn, rec.CheckOut, rec.CreatedAt, rec.UpdatedAt,
	)
	if err != nil {
		return attendance.Record{}, errors.Wrap(err, "saving attendance record")
	}
	return rec, nil
}

func (repo *attendanceRepository) QueryRecordsByMonth(ctx context.Context, employeeID int, month string) ([]attendance.Record, error) {
	recs := make([]attendance.Record, 0)
	err := repo.db.SelectContext(ctx, &recs,
		`SELECT * FROM attendance_record
		 WHERE employee_id = $1 AND to_char(date, 'YYYY-MM') = $2
		 ORDER BY date`,
		employeeID, month,
	)
	if err != nil {
		return nil, errors.Wrap(err, "querying attendance records")
	}
	return recs, nil
}
