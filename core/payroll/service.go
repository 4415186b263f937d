package payroll

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/kazi/core"
	"github.com/trezcool/kazi/core/attendance"
	"github.com/trezcool/kazi/core/employee"
)

var (
	// errors
	ErrNotFound = errors.New("payroll record not found")
)

type (
	AdjustmentRepository interface {
		// GetAdjustment returns the employee's adjustment or ErrNotFound.
		GetAdjustment(ctx context.Context, employeeID int) (Adjustment, error)
		UpsertAdjustment(ctx context.Context, adj Adjustment) (Adjustment, error)
	}

	PayslipRepository interface {
		// AppendPayslip appends snap to the employee's ordered history.
		AppendPayslip(ctx context.Context, snap Snapshot) (Snapshot, error)
		// QueryPayslips returns the history ordered by generation time.
		QueryPayslips(ctx context.Context, employeeID int) ([]Snapshot, error)
		ClearPayslips(ctx context.Context, employeeID int) error
	}

	Service struct {
		empSvc   *employee.Service
		attSvc   *attendance.Service
		adjRepo  AdjustmentRepository
		slipRepo PayslipRepository
		statuses *TwoTierStatusStore
		mailSvc  core.EmailService
		logger   core.Logger
		conf     *core.Config
	}
)

func NewService(
	empSvc *employee.Service,
	attSvc *attendance.Service,
	adjRepo AdjustmentRepository,
	slipRepo PayslipRepository,
	statuses *TwoTierStatusStore,
	mailSvc core.EmailService,
	logger core.Logger,
	conf *core.Config,
) (*Service, error) {
	// the hourly rate divides by this; a zero would poison every
	// computation and persisted snapshot with Inf/NaN
	if conf.Attendance.StandardHoursPerMonth() <= 0 {
		return nil, fmt.Errorf(
			"invalid standard hours per month %v; workdaysPerMonth and hoursPerDay must be positive",
			conf.Attendance.StandardHoursPerMonth(),
		)
	}
	return &Service{
		empSvc:   empSvc,
		attSvc:   attSvc,
		adjRepo:  adjRepo,
		slipRepo: slipRepo,
		statuses: statuses,
		mailSvc:  mailSvc,
		logger:   logger,
		conf:     conf,
	}, nil
}

// ComputePay produces the deterministic pay computation for an employee
// and month:
//
//	normalHourlyRate   = basePay / standardHoursPerMonth
//	overtimeHourlyRate = normalHourlyRate * overtimeMultiplier
//	overtimePay        = overtimeHours * overtimeHourlyRate
//	gross              = basePay + allowance + bonus + overtimePay
//	net                = max(0, gross - deduction)
//
// Each monetary output is rounded to 2dp independently, from the full
// precision intermediates.
func (svc *Service) ComputePay(ctx context.Context, employeeID int, month string) (Computation, error) {
	emp, err := svc.empSvc.GetByID(ctx, employeeID)
	if err != nil {
		return Computation{}, err
	}

	agg, err := svc.attSvc.MonthlyAggregate(ctx, employeeID, month, svc.conf.Attendance.StandardMinutesPerMonth())
	if err != nil {
		return Computation{}, err
	}

	adj, err := svc.adjRepo.GetAdjustment(ctx, employeeID)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			return Computation{}, err
		}
		adj = Adjustment{EmployeeID: employeeID}
	}

	overtimeHours := float64(agg.OvertimeMinutes) / 60
	normalRate := emp.BasePay / svc.conf.Attendance.StandardHoursPerMonth()
	overtimeRate := normalRate * svc.conf.Payroll.OvertimeMultiplier
	overtimePay := overtimeHours * overtimeRate
	gross := emp.BasePay + adj.Allowance + adj.Bonus + overtimePay
	net := gross - adj.Deduction
	if net < 0 {
		net = 0
	}

	return Computation{
		EmployeeID:         employeeID,
		Month:              month,
		Base:               round2(emp.BasePay),
		Allowance:          round2(adj.Allowance),
		Bonus:              round2(adj.Bonus),
		OvertimeHours:      round2(overtimeHours),
		NormalHourlyRate:   round2(normalRate),
		OvertimeHourlyRate: round2(overtimeRate),
		OvertimePay:        round2(overtimePay),
		Deductions:         round2(adj.Deduction),
		Gross:              round2(gross),
		Net:                round2(net),
	}, nil
}

// GeneratePayslip computes pay and appends an immutable snapshot to the
// employee's history. Deliberately NOT idempotent: generating twice
// appends two snapshots ("payslip was (re)issued"); callers wanting
// idempotence must check Payslips first.
func (svc *Service) GeneratePayslip(ctx context.Context, employeeID int, month string) (Snapshot, error) {
	comp, err := svc.ComputePay(ctx, employeeID, month)
	if err != nil {
		return Snapshot{}, err
	}

	snap := Snapshot{
		Ref:           uuid.New().String(),
		EmployeeID:    comp.EmployeeID,
		Month:         comp.Month,
		Base:          comp.Base,
		Allowance:     comp.Allowance,
		Bonus:         comp.Bonus,
		OvertimeHours: comp.OvertimeHours,
		OvertimePay:   comp.OvertimePay,
		Deductions:    comp.Deductions,
		Gross:         comp.Gross,
		Net:           comp.Net,
		GeneratedAt:   time.Now().UTC(),
	}
	snap, err = svc.slipRepo.AppendPayslip(ctx, snap)
	if err != nil {
		return Snapshot{}, err
	}

	svc.sendPayslipIssuedEmail(ctx, employeeID, snap)
	return snap, nil
}

func (svc *Service) sendPayslipIssuedEmail(ctx context.Context, employeeID int, snap Snapshot) {
	emp, err := svc.empSvc.GetByID(ctx, employeeID)
	if err != nil || emp.Email == "" {
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: emp.Name, Address: emp.Email}},
		Subject:      fmt.Sprintf("Your payslip for %s", snap.Month),
		TemplateName: "payslip-issued",
		TemplateData: snap,
	})
}

func (svc *Service) Payslips(ctx context.Context, employeeID int) ([]Snapshot, error) {
	return svc.slipRepo.QueryPayslips(ctx, employeeID)
}

// ClearPayslips bulk-clears an employee's history; the only mutation the
// history supports besides append.
func (svc *Service) ClearPayslips(ctx context.Context, employeeID int) error {
	return svc.slipRepo.ClearPayslips(ctx, employeeID)
}

func (svc *Service) Adjustment(ctx context.Context, employeeID int) (Adjustment, error) {
	adj, err := svc.adjRepo.GetAdjustment(ctx, employeeID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Adjustment{EmployeeID: employeeID}, nil
		}
		return Adjustment{}, err
	}
	return adj, nil
}

func (svc *Service) SetAdjustment(ctx context.Context, employeeID int, in AdjustmentInput) (Adjustment, error) {
	if _, err := svc.empSvc.GetByID(ctx, employeeID); err != nil {
		return Adjustment{}, err
	}
	return svc.adjRepo.UpsertAdjustment(ctx, Adjustment{
		EmployeeID: employeeID,
		Allowance:  in.Allowance,
		Bonus:      in.Bonus,
		Deduction:  in.Deduction,
	})
}

// Status returns the employee's pay state for month, defaulting to
// Pending when none was recorded. degraded reports that the result came
// from the local cache because the remote store was unreachable.
func (svc *Service) Status(ctx context.Context, employeeID int, month string) (entry StatusEntry, degraded bool, err error) {
	entry, degraded, err = svc.statuses.Get(ctx, employeeID, month)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return StatusEntry{EmployeeID: employeeID, Month: month, State: StatePending}, degraded, nil
		}
		return StatusEntry{}, degraded, err
	}
	return entry, degraded, nil
}

// SetStatus overwrites the pay state; last write wins.
func (svc *Service) SetStatus(ctx context.Context, employeeID int, month string, state State) (degraded bool, err error) {
	if _, err = svc.empSvc.GetByID(ctx, employeeID); err != nil {
		return false, err
	}
	return svc.statuses.Set(ctx, StatusEntry{EmployeeID: employeeID, Month: month, State: state})
}
