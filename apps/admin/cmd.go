package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"time"

	"github.com/trezcool/kazi/core/attendance"
	"github.com/trezcool/kazi/core/employee"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	db     *sql.DB
	empSvc *employee.Service
	attSvc *attendance.Service
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate COMMAND [ARGS] - run database migrations (up, down, status, ...)")
	fmt.Println("  addemployee -uid UID -name NAME [-email EMAIL] [-basepay AMOUNT] - register an employee badge")
	fmt.Println("  clearattendance -employee ID [-date YYYY-MM-DD] - reset an employee's attendance record for a day")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addEmployeeCmd := flag.NewFlagSet("addemployee", flag.ExitOnError)
	addEmployeeUID := addEmployeeCmd.String("uid", "", "The employee's badge UID.")
	addEmployeeName := addEmployeeCmd.String("name", "", "The employee's full name.")
	addEmployeeEmail := addEmployeeCmd.String("email", "", "The employee's email address (optional).")
	addEmployeeBasePay := addEmployeeCmd.Float64("basepay", 0, "The employee's monthly base pay (optional).")

	clearAttendanceCmd := flag.NewFlagSet("clearattendance", flag.ExitOnError)
	clearAttendanceEmp := clearAttendanceCmd.Int("employee", 0, "The employee's ID.")
	clearAttendanceDate := clearAttendanceCmd.String("date", "", "The day to clear as YYYY-MM-DD. Defaults to today.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "addemployee":
		if err := addEmployeeCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addEmployeeUID == "" || *addEmployeeName == "" {
			addEmployeeCmd.Usage()
			return errHelp
		}
		return cli.addEmployee(*addEmployeeUID, *addEmployeeName, *addEmployeeEmail, *addEmployeeBasePay)
	case "clearattendance":
		if err := clearAttendanceCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *clearAttendanceEmp <= 0 {
			clearAttendanceCmd.Usage()
			return errHelp
		}
		return cli.clearAttendance(*clearAttendanceEmp, *clearAttendanceDate)
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) addEmployee(uid, name, email string, basePay float64) error {
	ne := employee.NewEmployee{
		UID:     uid,
		Name:    name,
		Email:   email,
		BasePay: basePay,
	}
	if err := ne.Validate(cli.empSvc); err != nil {
		return err
	}

	emp, err := cli.empSvc.Create(context.Background(), ne)
	if err != nil {
		return err
	}
	fmt.Printf("Employee %q created with ID %d\n", emp.Name, emp.ID)
	return nil
}

func (cli *commandLine) clearAttendance(employeeID int, date string) error {
	day := time.Now().UTC()
	if date != "" {
		var err error
		if day, err = time.Parse("2006-01-02", date); err != nil {
			return fmt.Errorf("invalid date %q, expected YYYY-MM-DD", date)
		}
	}

	rec, err := cli.attSvc.Clear(context.Background(), employeeID, day)
	if err != nil {
		if errors.Is(err, attendance.ErrNotFound) {
			fmt.Printf("No attendance record for employee %d on %s; nothing to clear\n", employeeID, attendance.DateOf(day).Format("2006-01-02"))
			return nil
		}
		return err
	}
	fmt.Printf("Attendance record cleared for employee %d on %s\n", employeeID, rec.Date.Format("2006-01-02"))
	return nil
}
