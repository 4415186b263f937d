package dummydb

import (
	"context"

	"github.com/trezcool/kazi/core/payroll"
)

type adjustmentRepository struct {
	db *adjustmentTable
}

var _ payroll.AdjustmentRepository = (*adjustmentRepository)(nil) // interface compliance check

func NewAdjustmentRepository(db *DB) payroll.AdjustmentRepository {
	return &adjustmentRepository{db: db.adjustment}
}

func (repo *adjustmentRepository) GetAdjustment(_ context.Context, employeeID int) (payroll.Adjustment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if adj, ok := repo.db.table[employeeID]; ok {
		return *adj, nil
	}
	return payroll.Adjustment{}, payroll.ErrNotFound
}

func (repo *adjustmentRepository) UpsertAdjustment(_ context.Context, adj payroll.Adjustment) (payroll.Adjustment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.table[adj.EmployeeID] = &adj
	return adj, nil
}

type payslipRepository struct {
	db *payslipTable
}

var _ payroll.PayslipRepository = (*payslipRepository)(nil) // interface compliance check

func NewPayslipRepository(db *DB) payroll.PayslipRepository {
	return &payslipRepository{db: db.payslip}
}

func (repo *payslipRepository) AppendPayslip(_ context.Context, snap payroll.Snapshot) (payroll.Snapshot, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.pkCount++
	snap.ID = repo.db.pkCount
	repo.db.table = append(repo.db.table, snap)
	return snap, nil
}

func (repo *payslipRepository) QueryPayslips(_ context.Context, employeeID int) ([]payroll.Snapshot, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	snaps := make([]payroll.Snapshot, 0)
	for _, snap := range repo.db.table {
		if snap.EmployeeID == employeeID {
			snaps = append(snaps, snap)
		}
	}
	return snaps, nil
}

func (repo *payslipRepository) ClearPayslips(_ context.Context, employeeID int) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	kept := repo.db.table[:0]
	for _, snap := range repo.db.table {
		if snap.EmployeeID != employeeID {
			kept = append(kept, snap)
		}
	}
	repo.db.table = kept
	return nil
}

type statusStore struct {
	db *statusTable
}

var _ payroll.StatusStore = (*statusStore)(nil) // interface compliance check

func NewStatusStore(db *DB) payroll.StatusStore {
	return &statusStore{db: db.status}
}

func (repo *statusStore) GetStatus(_ context.Context, employeeID int, month string) (payroll.StatusEntry, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if entry, ok := repo.db.table[statusKey{employeeID, month}]; ok {
		return *entry, nil
	}
	return payroll.StatusEntry{}, payroll.ErrNotFound
}

func (repo *statusStore) SetStatus(_ context.Context, entry payroll.StatusEntry) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.table[statusKey{entry.EmployeeID, entry.Month}] = &entry
	return nil
}
