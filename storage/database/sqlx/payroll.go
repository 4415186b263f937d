package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/kazi/core/payroll"
)

type adjustmentRepository struct {
	db *sqlx.DB
}

var _ payroll.AdjustmentRepository = (*adjustmentRepository)(nil) // interface compliance check

func NewAdjustmentRepository(db *sqlx.DB) payroll.AdjustmentRepository {
	return &adjustmentRepository{db: db}
}

func (repo *adjustmentRepository) GetAdjustment(ctx context.Context, employeeID int) (payroll.Adjustment, error) {
	var adj payroll.Adjustment
	err := repo.db.GetContext(ctx, &adj, `SELECT * FROM payroll_adjustment WHERE employee_id = $1`, employeeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return payroll.Adjustment{}, payroll.ErrNotFound
		}
		return payroll.Adjustment{}, errors.Wrap(err, "getting adjustment")
	}
	return adj, nil
}

func (repo *adjustmentRepository) UpsertAdjustment(ctx context.Context, adj payroll.Adjustment) (payroll.Adjustment, error) {
	err := repo.db.GetContext(ctx, &adj,
		`INSERT INTO payroll_adjustment (employee_id, allowance, bonus, deduction)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (employee_id)
		 DO UPDATE SET allowance = EXCLUDED.allowance, bonus = EXCLUDED.bonus, deduction = EXCLUDED.deduction
		 RETURNING *`,
		adj.EmployeeID, adj.Allowance, adj.Bonus, adj.Deduction,
	)
	if err != nil {
		return payroll.Adjustment{}, errors.Wrap(err, "upserting adjustment")
	}
	return adj, nil
}

type payslipRepository struct {
	db *sqlx.DB
}

var _ payroll.PayslipRepository = (*payslipRepository)(nil) // interface compliance check

func NewPayslipRepository(db *sqlx.DB) payroll.PayslipRepository {
	return &payslipRepository{db: db}
}

func (repo *payslipRepository) AppendPayslip(ctx context.Context, snap payroll.Snapshot) (payroll.Snapshot, error) {
	err := repo.db.GetContext(ctx, &snap,
		`INSERT INTO payslip_snapshot
		     (ref, employee_id, month, base, allowance, bonus, overtime_hours, overtime_pay, deductions, gross, net, generated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 RETURNING *`,
		snap.Ref, snap.EmployeeID, snap.Month, snap.Base, snap.Allowance, snap.Bonus,
		snap.OvertimeHours, snap.OvertimePay, snap.Deductions, snap.Gross, snap.Net, snap.GeneratedAt,
	)
	if err != nil {
		return payroll.Snapshot{}, errors.Wrap(err, "appending payslip")
	}
	return snap, nil
}

func (repo *payslipRepository) QueryPayslips(ctx context.Context, employeeID int) ([]payroll.Snapshot, error) {
	snaps := make([]payroll.Snapshot, 0)
	err := repo.db.SelectContext(ctx, &snaps,
		`SELECT * FROM payslip_snapshot WHERE employee_id = $1 ORDER BY generated_at, id`,
		employeeID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "querying payslips")
	}
	return snaps, nil
}

func (repo *payslipRepository) ClearPayslips(ctx context.Context, employeeID int) error {
	if _, err := repo.db.ExecContext(ctx, `DELETE FROM payslip_snapshot WHERE employee_id = $1`, employeeID); err != nil {
		return errors.Wrap(err, "clearing payslips")
	}
	return nil
}

type statusStore struct {
	db *sqlx.DB
}

var _ payroll.StatusStore = (*statusStore)(nil) // interface compliance check

// NewStatusStore returns the authoritative payroll-status store.
func NewStatusStore(db *sqlx.DB) payroll.StatusStore {
	return &statusStore{db: db}
}

func (repo *statusStore) GetStatus(ctx context.Context, employeeID int, month string) (payroll.StatusEntry, error) {
	var entry payroll.StatusEntry
	err := repo.db.GetContext(ctx, &entry,
		`SELECT * FROM payroll_status WHERE employee_id = $1 AND month = $2`,
		employeeID, month,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return payroll.StatusEntry{}, payroll.ErrNotFound
		}
		return payroll.StatusEntry{}, errors.Wrap(err, "getting payroll status")
	}
	return entry, nil
}

func (repo *statusStore) SetStatus(ctx context.Context, entry payroll.StatusEntry) error {
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO payroll_status (employee_id, month, state)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (employee_id, month) DO UPDATE SET state = EXCLUDED.state`,
		entry.EmployeeID, entry.Month, entry.State,
	)
	if err != nil {
		return errors.Wrap(err, "setting payroll status")
	}
	return nil
}
