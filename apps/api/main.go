package main

import (
	"context"
	"database/sql"
	"expvar"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"

	echoapi "github.com/trezcool/kazi/apps/api/echo"
	"github.com/trezcool/kazi/core"
	"github.com/trezcool/kazi/core/attendance"
	"github.com/trezcool/kazi/core/employee"
	"github.com/trezcool/kazi/core/payroll"
	"github.com/trezcool/kazi/core/presence"
	brokersvc "github.com/trezcool/kazi/services/broker"
	emailsvc "github.com/trezcool/kazi/services/email"
	logsvc "github.com/trezcool/kazi/services/logger"
	"github.com/trezcool/kazi/storage/cache"
	"github.com/trezcool/kazi/storage/database"
	sqlxrepos "github.com/trezcool/kazi/storage/database/sqlx"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	brokerLogger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "BROKER : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	brokerLogger.Enable(!conf.Debug)

	// set up DB
	db, err := setUpDB(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = db.Close(); err != nil {
			logger.Error("failed to close database", err)
		}
	}()
	dbx := sqlx.NewDb(db, conf.Database.Engine)

	// set up Redis (payroll status cache + presence broker transport)
	rdb, err := cache.Connect(context.Background(), conf.Redis.URL)
	if err != nil {
		logger.Fatal(fmt.Sprintf("connecting to redis: %v", err), err)
	}
	defer func() {
		if err = rdb.Close(); err != nil {
			logger.Error("failed to close redis client", err)
		}
	}()

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService()
	} else {
		mailSvc = emailsvc.NewSendgridService(logger)
	}

	empSvc := employee.NewService(sqlxrepos.NewEmployeeRepository(dbx))

	attSvc, err := attendance.NewService(sqlxrepos.NewAttendanceRepository(dbx), conf, logger)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up attendance service: %v", err), err)
	}

	statuses := payroll.NewTwoTierStatusStore(
		sqlxrepos.NewStatusStore(dbx),
		cache.NewRedisStatusStore(rdb),
		logger,
	)
	paySvc, err := payroll.NewService(
		empSvc,
		attSvc,
		sqlxrepos.NewAdjustmentRepository(dbx),
		sqlxrepos.NewPayslipRepository(dbx),
		statuses,
		mailSvc,
		logger,
		conf,
	)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up payroll service: %v", err), err)
	}

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)

	core.ParseEmailTemplates(logger)

	// =========================================================================
	// Start Presence Feed

	mgr := presence.NewManager(brokersvc.NewRedisBroker(rdb), conf, brokerLogger)
	defer mgr.Disconnect()

	unsubscribe := mgr.Subscribe(conf.Broker.PresenceTopic, presence.NewEventHandler(
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
		brokerLogger,
	))
	defer unsubscribe()

	if err = mgr.Connect(context.Background()); err != nil {
		// the manager keeps retrying in the background; boot proceeds
		brokerLogger.Warn(fmt.Sprintf("initial broker connection failed: %v", err), err)
	}

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	go func() {
		if err = http.ListenAndServe(conf.Server.DebugAddress(), http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		&echoapi.Options{
			Address:       conf.Server.Address(),
			Logger:        logger,
			EmployeeSvc:   empSvc,
			AttendanceSvc: attSvc,
			PayrollSvc:    paySvc,
			PresenceMgr:   mgr,
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Stop(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)
		}
	}
}

func setUpDB(conf *core.Config) (*sql.DB, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, err
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}
