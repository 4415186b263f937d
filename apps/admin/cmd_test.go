package main

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/trezcool/kazi/core"
	"github.com/trezcool/kazi/core/attendance"
	"github.com/trezcool/kazi/core/employee"
	dummydb "github.com/trezcool/kazi/storage/database/dummy"
	testutil "github.com/trezcool/kazi/tests"
)

func TestMain(m *testing.M) {
	testutil.NewConfig()
	testutil.InitValidators()
	os.Exit(m.Run())
}

func setup(t *testing.T) (*commandLine, employee.Repository, *attendance.Service) {
	t.Helper()

	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open() failed: %v", err)
	}
	empRepo := dummydb.NewEmployeeRepository(db)
	empSvc := employee.NewService(empRepo)
	attSvc, err := attendance.NewService(dummydb.NewAttendanceRepository(db), core.Conf, testutil.NewLogger())
	if err != nil {
		t.Fatalf("attendance.NewService() failed: %v", err)
	}
	return &commandLine{empSvc: empSvc, attSvc: attSvc}, empRepo, attSvc
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
}

func checkCliErr(t *testing.T, tt cliTest, err error) {
	t.Helper()

	if tt.wantErr != nil {
		if err != tt.wantErr {
			t.Errorf("run() error = %v; expected %v", err, tt.wantErr)
		}
		return
	}
	if tt.wantErrStr != "" {
		if err == nil || err.Error() != tt.wantErrStr {
			t.Errorf("run() error = %v; expected %q", err, tt.wantErrStr)
		}
		return
	}
	if err != nil {
		t.Errorf("run() failed: %v", err)
	}
}

func Test_commandLine_run(t *testing.T) {
	cli, _, _ := setup(t)

	tests := []cliTest{
		{name: "no command", args: []string{}, wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "migrate: no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "addemployee: no flags", args: []string{"addemployee"}, wantErr: errHelp},
		{name: "addemployee: missing name", args: []string{"addemployee", "-uid", "BADGE1"}, wantErr: errHelp},
		{name: "clearattendance: missing employee", args: []string{"clearattendance"}, wantErr: errHelp},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(append([]string{"admin"}, tt.args...))
			checkCliErr(t, tt, err)
		})
	}
}

func Test_commandLine_migrate(t *testing.T) {
	cli, _, _ := setup(t)

	prevGooseRunFunc := gooseRunFunc
	gooseRunFunc = func(command string, db *sql.DB, fsys fs.FS, dir string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s must be of form: goose [OPTIONS] DRIVER DBSTRING %s VERSION", command, command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}
	t.Cleanup(func() { gooseRunFunc = prevGooseRunFunc })

	tests := []cliTest{
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "status", args: []string{"migrate", "status"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(append([]string{"admin"}, tt.args...))
			checkCliErr(t, tt, err)
		})
	}
}

func Test_commandLine_addEmployee(t *testing.T) {
	cli, _, _ := setup(t)

	args := []string{"admin", "addemployee", "-uid", "BADGE1", "-name", "Jane Doe", "-email", "jane@kazi.example", "-basepay", "100000"}
	if err := cli.run(args); err != nil {
		t.Fatalf("run() failed: %v", err)
	}

	emp, err := cli.empSvc.GetByUID(context.Background(), "BADGE1")
	if err != nil {
		t.Fatalf("GetByUID() failed: %v", err)
	}
	if emp.Name != "Jane Doe" || emp.BasePay != 100000 {
		t.Errorf("created employee = %+v", emp)
	}

	// duplicate badge uid is rejected
	if err = cli.run(args); err == nil {
		t.Error("run() accepted a duplicate badge uid")
	}
}

func Test_commandLine_clearAttendance(t *testing.T) {
	cli, empRepo, attSvc := setup(t)
	emp := testutil.CreateEmployee(t, empRepo, "BADGE1", "Jane Doe", "", 100000)

	ts := time.Date(2026, 8, 3, 9, 0, 0, 0, time.UTC)
	if _, _, err := attSvc.ApplyEvent(context.Background(), emp.ID, ts); err != nil {
		t.Fatalf("ApplyEvent() failed: %v", err)
	}

	tests := []cliTest{
		{name: "bad date", args: []string{"clearattendance", "-employee", strconv.Itoa(emp.ID), "-date", "lol"}, wantErrStr: "invalid date \"lol\", expected YYYY-MM-DD"},
		{name: "clear existing day", args: []string{"clearattendance", "-employee", strconv.Itoa(emp.ID), "-date", "2026-08-03"}},
		{name: "clear missing day is a no-op", args: []string{"clearattendance", "-employee", strconv.Itoa(emp.ID), "-date", "2026-08-04"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(append([]string{"admin"}, tt.args...))
			checkCliErr(t, tt, err)
		})
	}

	status, err := attSvc.DailyStatus(context.Background(), emp.ID, ts)
	if err != nil {
		t.Fatalf("DailyStatus() failed: %v", err)
	}
	if status != attendance.StatusAbsent {
		t.Errorf("status after clear = %q; expected absent", status)
	}
}
