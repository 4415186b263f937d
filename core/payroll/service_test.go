package payroll_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/trezcool/kazi/core"
	"github.com/trezcool/kazi/core/attendance"
	"github.com/trezcool/kazi/core/employee"
	"github.com/trezcool/kazi/core/payroll"
	emailsvc "github.com/trezcool/kazi/services/email"
	dummydb "github.com/trezcool/kazi/storage/database/dummy"
	testutil "github.com/trezcool/kazi/tests"
)

func TestMain(m *testing.M) {
	testutil.NewConfig()
	core.ParseEmailTemplates(testutil.NewLogger())
	os.Exit(m.Run())
}

type testDeps struct {
	svc     *payroll.Service
	empRepo employee.Repository
	attSvc  *attendance.Service
	logger  *testutil.Logger
}

// setup wires the payroll service over in-memory repositories. remote
// may be overridden to simulate an unreachable status store.
func setup(t *testing.T, remote ...payroll.StatusStore) testDeps {
	t.Helper()

	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open() failed: %v", err)
	}
	cacheDB, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open() failed: %v", err)
	}
	logger := testutil.NewLogger()

	empRepo := dummydb.NewEmployeeRepository(db)
	empSvc := employee.NewService(empRepo)
	attSvc, err := attendance.NewService(dummydb.NewAttendanceRepository(db), core.Conf, logger)
	if err != nil {
		t.Fatalf("attendance.NewService() failed: %v", err)
	}

	remoteStore := dummydb.NewStatusStore(db)
	if len(remote) > 0 {
		remoteStore = remote[0]
	}
	statuses := payroll.NewTwoTierStatusStore(remoteStore, dummydb.NewStatusStore(cacheDB), logger)

	svc, err := payroll.NewService(
		empSvc,
		attSvc,
		dummydb.NewAdjustmentRepository(db),
		dummydb.NewPayslipRepository(db),
		statuses,
		emailsvc.NewConsoleServiceMock(),
		logger,
		core.Conf,
	)
	if err != nil {
		t.Fatalf("payroll.NewService() failed: %v", err)
	}
	return testDeps{svc: svc, empRepo: empRepo, attSvc: attSvc, logger: logger}
}

func TestNewService_rejectsZeroStandardHours(t *testing.T) {
	tests := []struct {
		name     string
		workdays int
		hours    int
	}{
		{name: "zero hours per day", workdays: 22, hours: 0},
		{name: "zero workdays per month", workdays: 0, hours: 8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conf := *core.Conf
			conf.Attendance.WorkdaysPerMonth = tt.workdays
			conf.Attendance.HoursPerDay = tt.hours

			// the hourly-rate divisor is zero; the constructor must refuse
			// rather than let Inf/NaN reach computations and snapshots
			_, err := payroll.NewService(nil, nil, nil, nil, nil, nil, testutil.NewLogger(), &conf)
			if err == nil {
				t.Fatal("NewService() accepted a zero standard-hours configuration")
			}
		})
	}
}

// workMonth records 22 full 09:00-17:00 days plus one 3h day, i.e. 3h
// over the 176h standard month.
func workMonth(t *testing.T, attSvc *attendance.Service, employeeID int) {
	t.Helper()
	ctx := context.Background()

	event := func(day, hh, mm int) {
		ts := time.Date(2026, 8, day, hh, mm, 0, 0, time.UTC)
		if _, _, err := attSvc.ApplyEvent(ctx, employeeID, ts); err != nil {
			t.Fatalf("ApplyEvent() failed: %v", err)
		}
	}
	for day := 1; day <= 22; day++ {
		event(day, 9, 0)
		event(day, 17, 0)
	}
	event(23, 9, 0)
	event(23, 12, 0)
}

func TestService_ComputePay(t *testing.T) {
	deps := setup(t)
	ctx := context.Background()

	emp := testutil.CreateEmployee(t, deps.empRepo, "BADGE1", "Jane Doe", "jane@kazi.example", 100000)
	workMonth(t, deps.attSvc, emp.ID)

	if _, err := deps.svc.SetAdjustment(ctx, emp.ID, payroll.AdjustmentInput{
		Allowance: 5000,
		Bonus:     2000,
		Deduction: 1000,
	}); err != nil {
		t.Fatalf("SetAdjustment() failed: %v", err)
	}

	comp, err := deps.svc.ComputePay(ctx, emp.ID, "2026-08")
	if err != nil {
		t.Fatalf("ComputePay() failed: %v", err)
	}

	// 100000 base over a 176h standard month with 3h overtime at 1.5x:
	// every output rounded to 2dp from full-precision intermediates.
	expected := payroll.Computation{
		EmployeeID:         emp.ID,
		Month:              "2026-08",
		Base:               100000,
		Allowance:          5000,
		Bonus:              2000,
		OvertimeHours:      3,
		NormalHourlyRate:   568.18,
		OvertimeHourlyRate: 852.27,
		OvertimePay:        2556.82,
		Deductions:         1000,
		Gross:              109556.82,
		Net:                108556.82,
	}
	if comp != expected {
		t.Errorf("ComputePay() = %+v; expected %+v", comp, expected)
	}
}

func TestService_ComputePay_noAdjustmentNoOvertime(t *testing.T) {
	deps := setup(t)
	ctx := context.Background()

	emp := testutil.CreateEmployee(t, deps.empRepo, "BADGE1", "Jane Doe", "", 88000)

	comp, err := deps.svc.ComputePay(ctx, emp.ID, "2026-08")
	if err != nil {
		t.Fatalf("ComputePay() failed: %v", err)
	}
	if comp.Gross != 88000 || comp.Net != 88000 {
		t.Errorf("ComputePay() gross/net = %v/%v; expected base pay only", comp.Gross, comp.Net)
	}
	if comp.NormalHourlyRate != 500 { // 88000 / 176
		t.Errorf("NormalHourlyRate = %v; expected 500", comp.NormalHourlyRate)
	}
	if comp.OvertimeHours != 0 || comp.OvertimePay != 0 {
		t.Errorf("ComputePay() reported overtime %vh/%v on an empty month", comp.OvertimeHours, comp.OvertimePay)
	}
}

func TestService_ComputePay_netNeverNegative(t *testing.T) {
	deps := setup(t)
	ctx := context.Background()

	emp := testutil.CreateEmployee(t, deps.empRepo, "BADGE1", "Jane Doe", "", 1000)
	if _, err := deps.svc.SetAdjustment(ctx, emp.ID, payroll.AdjustmentInput{Deduction: 5000}); err != nil {
		t.Fatalf("SetAdjustment() failed: %v", err)
	}

	comp, err := deps.svc.ComputePay(ctx, emp.ID, "2026-08")
	if err != nil {
		t.Fatalf("ComputePay() failed: %v", err)
	}
	if comp.Net != 0 {
		t.Errorf("Net = %v; expected clamp to 0", comp.Net)
	}
}

func TestService_ComputePay_unknownEmployee(t *testing.T) {
	deps := setup(t)

	if _, err := deps.svc.ComputePay(context.Background(), 404, "2026-08"); !errors.Is(err, employee.ErrNotFound) {
		t.Errorf("ComputePay() returned %v; expected employee.ErrNotFound", err)
	}
}

func TestService_GeneratePayslip_appendsOnEveryCall(t *testing.T) {
	deps := setup(t)
	ctx := context.Background()

	emp := testutil.CreateEmployee(t, deps.empRepo, "BADGE1", "Jane Doe", "jane@kazi.example", 100000)
	workMonth(t, deps.attSvc, emp.ID)

	first, err := deps.svc.GeneratePayslip(ctx, emp.ID, "2026-08")
	if err != nil {
		t.Fatalf("GeneratePayslip() failed: %v", err)
	}
	second, err := deps.svc.GeneratePayslip(ctx, emp.ID, "2026-08")
	if err != nil {
		t.Fatalf("GeneratePayslip() failed: %v", err)
	}

	// reissuing appends a new snapshot; it never overwrites history
	if first.Ref == "" || first.Ref == second.Ref {
		t.Errorf("snapshot refs %q and %q; expected distinct non-empty refs", first.Ref, second.Ref)
	}
	if first.Net != second.Net || first.Gross != second.Gross {
		t.Errorf("reissued snapshot amounts differ: %+v vs %+v", first, second)
	}

	snaps, err := deps.svc.Payslips(ctx, emp.ID)
	if err != nil {
		t.Fatalf("Payslips() failed: %v", err)
	}
	if len(snaps) != 2 {
		t.Fatalf("Payslips() returned %d snapshots; expected 2", len(snaps))
	}

	if err = deps.svc.ClearPayslips(ctx, emp.ID); err != nil {
		t.Fatalf("ClearPayslips() failed: %v", err)
	}
	if snaps, _ = deps.svc.Payslips(ctx, emp.ID); len(snaps) != 0 {
		t.Errorf("Payslips() after clear returned %d snapshots; expected 0", len(snaps))
	}
}

func TestService_Status_defaultsToPending(t *testing.T) {
	deps := setup(t)
	ctx := context.Background()

	emp := testutil.CreateEmployee(t, deps.empRepo, "BADGE1", "Jane Doe", "", 100000)

	entry, degraded, err := deps.svc.Status(ctx, emp.ID, "2026-08")
	if err != nil {
		t.Fatalf("Status() failed: %v", err)
	}
	if degraded {
		t.Error("Status() reported degraded with a healthy store")
	}
	if entry.State != payroll.StatePending {
		t.Errorf("State = %q; expected pending default", entry.State)
	}

	if _, err = deps.svc.SetStatus(ctx, emp.ID, "2026-08", payroll.StatePaid); err != nil {
		t.Fatalf("SetStatus() failed: %v", err)
	}
	if entry, _, _ = deps.svc.Status(ctx, emp.ID, "2026-08"); entry.State != payroll.StatePaid {
		t.Errorf("State = %q after SetStatus; expected paid", entry.State)
	}

	// last write wins
	if _, err = deps.svc.SetStatus(ctx, emp.ID, "2026-08", payroll.StatePending); err != nil {
		t.Fatalf("SetStatus() failed: %v", err)
	}
	if entry, _, _ = deps.svc.Status(ctx, emp.ID, "2026-08"); entry.State != payroll.StatePending {
		t.Errorf("State = %q after second SetStatus; expected pending", entry.State)
	}
}

func TestService_SetStatus_unknownEmployee(t *testing.T) {
	deps := setup(t)

	if _, err := deps.svc.SetStatus(context.Background(), 404, "2026-08", payroll.StatePaid); !errors.Is(err, employee.ErrNotFound) {
		t.Errorf("SetStatus() returned %v; expected employee.ErrNotFound", err)
	}
}

// failingStatusStore simulates an unreachable authoritative store.
type failingStatusStore struct{ err error }

func (s failingStatusStore) GetStatus(context.Context, int, string) (payroll.StatusEntry, error) {
	return payroll.StatusEntry{}, s.err
}
func (s failingStatusStore) SetStatus(context.Context, payroll.StatusEntry) error { return s.err }

func TestService_Status_degradedFallback(t *testing.T) {
	deps := setup(t, failingStatusStore{err: errors.New("connection refused")})
	ctx := context.Background()

	emp := testutil.CreateEmployee(t, deps.empRepo, "BADGE1", "Jane Doe", "", 100000)

	// the write lands in the cache only and is flagged degraded
	degraded, err := deps.svc.SetStatus(ctx, emp.ID, "2026-08", payroll.StatePaid)
	if err != nil {
		t.Fatalf("SetStatus() failed: %v", err)
	}
	if !degraded {
		t.Error("SetStatus() did not report degraded with the remote store down")
	}

	// reads keep serving the cached state, still flagged degraded
	entry, degraded, err := deps.svc.Status(ctx, emp.ID, "2026-08")
	if err != nil {
		t.Fatalf("Status() failed: %v", err)
	}
	if !degraded {
		t.Error("Status() did not report degraded with the remote store down")
	}
	if entry.State != payroll.StatePaid {
		t.Errorf("State = %q from cache; expected paid", entry.State)
	}

	// every degraded operation is logged
	if len(deps.logger.Logged("warn")) == 0 {
		t.Error("degraded fallback was not logged")
	}
}

func TestService_Adjustment_defaultsToZero(t *testing.T) {
	deps := setup(t)

	adj, err := deps.svc.Adjustment(context.Background(), 1)
	if err != nil {
		t.Fatalf("Adjustment() failed: %v", err)
	}
	if adj.Allowance != 0 || adj.Bonus != 0 || adj.Deduction != 0 {
		t.Errorf("Adjustment() = %+v; expected zero values", adj)
	}
}
