package payroll

import (
	"math"
	"time"

	"github.com/trezcool/kazi/core"
)

// State is the pay state of an employee for a month.
type State string

const (
	StatePending State = "pending"
	StatePaid    State = "paid"
)

// Adjustment is a manual, attendance-independent pay adjustment, keyed
// by employee only: it applies to whichever month is being computed.
type Adjustment struct {
	EmployeeID int     `db:"employee_id" json:"employeeId"`
	Allowance  float64 `db:"allowance" json:"allowance"`
	Bonus      float64 `db:"bonus" json:"bonus"`
	Deduction  float64 `db:"deduction" json:"deduction"`
}

type AdjustmentInput struct {
	Allowance float64 `json:"allowance" validate:"gte=0"`
	Bonus     float64 `json:"bonus" validate:"gte=0"`
	Deduction float64 `json:"deduction" validate:"gte=0"`
}

func (in *AdjustmentInput) Validate() error {
	return core.Validate.Struct(in)
}

// Computation is one deterministic, reproducible pay computation.
// Monetary fields are rounded to 2 decimal places at output only; the
// intermediate arithmetic keeps full precision so rounding error never
// compounds.
type Computation struct {
	EmployeeID         int     `json:"employeeId"`
	Month              string  `json:"month"`
	Base               float64 `json:"base"`
	Allowance          float64 `json:"allowance"`
	Bonus              float64 `json:"bonus"`
	OvertimeHours      float64 `json:"overtimeHours"`
	NormalHourlyRate   float64 `json:"normalHourlyRate"`
	OvertimeHourlyRate float64 `json:"overtimeHourlyRate"`
	OvertimePay        float64 `json:"overtimePay"`
	Deductions         float64 `json:"deductions"`
	Gross              float64 `json:"gross"`
	Net                float64 `json:"net"`
}

// Snapshot is an immutable, historical record of a computed pay result.
// Appended on every payslip generation; never mutated, only bulk-cleared.
type Snapshot struct {
	ID            int       `db:"id" json:"id"`
	Ref           string    `db:"ref" json:"ref"`
	EmployeeID    int       `db:"employee_id" json:"employeeId"`
	Month         string    `db:"month" json:"month"`
	Base          float64   `db:"base" json:"base"`
	Allowance     float64   `db:"allowance" json:"allowance"`
	Bonus         float64   `db:"bonus" json:"bonus"`
	OvertimeHours float64   `db:"overtime_hours" json:"overtimeHours"`
	OvertimePay   float64   `db:"overtime_pay" json:"overtimePay"`
	Deductions    float64   `db:"deductions" json:"deductions"`
	Gross         float64   `db:"gross" json:"gross"`
	Net           float64   `db:"net" json:"net"`
	GeneratedAt   time.Time `db:"generated_at" json:"generatedAt"`
}

// StatusEntry is the mutable paid/pending state per employee per month.
// Last write wins; no transition history is kept.
type StatusEntry struct {
	EmployeeID int    `db:"employee_id" json:"employeeId"`
	Month      string `db:"month" json:"month"`
	State      State  `db:"state" json:"state"`
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
