package dummydb

import (
	"sync"

	"github.com/trezcool/kazi/core/attendance"
	"github.com/trezcool/kazi/core/employee"
	"github.com/trezcool/kazi/core/payroll"
)

// DB is the in-memory database used by tests and as the local fallback
// store when the authoritative database is unreachable.
type (
	DB struct {
		employee   *employeeTable
		attendance *attendanceTable
		adjustment *adjustmentTable
		payslip    *payslipTable
		status     *statusTable
	}

	employeeTable struct {
		sync.RWMutex
		table   map[int]*employee.Employee
		pkCount int
	}

	attendanceTable struct {
		sync.RWMutex
		table   map[attendanceKey]*attendance.Record
		pkCount int
	}

	attendanceKey struct {
		employeeID int
		date       string // "2006-01-02"
	}

	adjustmentTable struct {
		sync.RWMutex
		table map[int]*payroll.Adjustment
	}

	payslipTable struct {
		sync.RWMutex
		table   []payroll.Snapshot
		pkCount int
	}

	statusTable struct {
		sync.RWMutex
		table map[statusKey]*payroll.StatusEntry
	}

	statusKey struct {
		employeeID int
		month      string
	}
)

func Open() (*DB, error) {
	db := &DB{
		employee:   &employeeTable{table: make(map[int]*employee.Employee)},
		attendance: &attendanceTable{table: make(map[attendanceKey]*attendance.Record)},
		adjustment: &adjustmentTable{table: make(map[int]*payroll.Adjustment)},
		payslip:    &payslipTable{table: make([]payroll.Snapshot, 0)},
		status:     &statusTable{table: make(map[statusKey]*payroll.StatusEntry)},
	}
	return db, nil
}
