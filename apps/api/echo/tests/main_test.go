package tests

import (
	"context"
	"fmt"
	"os"
	"testing"

	. "github.com/trezcool/kazi/apps/api/echo"
	"github.com/trezcool/kazi/core"
	"github.com/trezcool/kazi/core/attendance"
	"github.com/trezcool/kazi/core/employee"
	"github.com/trezcool/kazi/core/payroll"
	"github.com/trezcool/kazi/core/presence"
	brokersvc "github.com/trezcool/kazi/services/broker"
	emailsvc "github.com/trezcool/kazi/services/email"
	dummydb "github.com/trezcool/kazi/storage/database/dummy"
	testutil "github.com/trezcool/kazi/tests"
)

var (
	app    Server
	broker *brokersvc.MockBroker
	mgr    *presence.Manager

	empRepo employee.Repository
	empSvc  *employee.Service
	attSvc  *attendance.Service
	paySvc  *payroll.Service

	errNotFound = httpErr{Error: "not found"}
)

func TestMain(m *testing.M) {
	conf := testutil.NewConfig()
	testutil.InitValidators()
	logger := testutil.NewLogger()
	core.ParseEmailTemplates(logger)

	// set up DB & repos
	db, err := dummydb.Open()
	if err != nil {
		fmt.Printf("dummydb.Open(): %v", err)
		os.Exit(1)
	}
	cacheDB, err := dummydb.Open()
	if err != nil {
		fmt.Printf("dummydb.Open(): %v", err)
		os.Exit(1)
	}
	empRepo = dummydb.NewEmployeeRepository(db)

	// set up services
	empSvc = employee.NewService(empRepo)
	if attSvc, err = attendance.NewService(dummydb.NewAttendanceRepository(db), conf, logger); err != nil {
		fmt.Printf("attendance.NewService(): %v", err)
		os.Exit(1)
	}
	if paySvc, err = payroll.NewService(
		empSvc,
		attSvc,
		dummydb.NewAdjustmentRepository(db),
		dummydb.NewPayslipRepository(db),
		payroll.NewTwoTierStatusStore(dummydb.NewStatusStore(db), dummydb.NewStatusStore(cacheDB), logger),
		emailsvc.NewConsoleServiceMock(),
		logger,
		conf,
	); err != nil {
		fmt.Printf("payroll.NewService(): %v", err)
		os.Exit(1)
	}

	// set up the presence feed over a mock broker
	broker = brokersvc.NewMockBroker()
	mgr = presence.NewManager(broker, conf, logger)
	mgr.Subscribe(conf.Broker.PresenceTopic, presence.NewEventHandler(
		func(ctx context.Context, uid string) (int, error) {
			emp, err := empSvc.GetByUID(ctx, uid)
			if err != nil {
				return 0, err
			}
			return emp.ID, nil
		},
		func(ctx context.Context, employeeID int, ev presence.Event) error {
			_, _, err := attSvc.ApplyEvent(ctx, employeeID, ev.Timestamp)
			return err
		},
		logger,
	))
	if err = mgr.Connect(context.Background()); err != nil {
		fmt.Printf("mgr.Connect(): %v", err)
		os.Exit(1)
	}

	// set up server
	app = NewServer(
		&Options{
			DisableReqLogs: true,
			Logger:         logger,
			EmployeeSvc:    empSvc,
			AttendanceSvc:  attSvc,
			PayrollSvc:     paySvc,
			PresenceMgr:    mgr,
		},
	)

	os.Exit(m.Run())
}
