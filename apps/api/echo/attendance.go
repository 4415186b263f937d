package echoapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/kazi/core"
	"github.com/trezcool/kazi/core/attendance"
)

type attendanceApi struct {
	svc *attendance.Service
}

func registerAttendanceAPI(g *echo.Group, svc *attendance.Service) {
	api := attendanceApi{svc: svc}

	ag := g.Group("/employees/:id/attendance")
	ag.GET("/status", api.dailyStatus)
	ag.GET("/records", api.records)
	ag.GET("/aggregate", api.aggregate)
	ag.DELETE("/records", api.clear)
}

type dailyStatusResponse struct {
	EmployeeID int               `json:"employeeId"`
	Date       time.Time         `json:"date"`
	Status     attendance.Status `json:"status"`
}

func (api *attendanceApi) dailyStatus(ctx echo.Context) error {
	id, err := employeeIDParam(ctx)
	if err != nil {
		return err
	}
	date, err := dateQueryParam(ctx)
	if err != nil {
		return err
	}

	status, err := api.svc.DailyStatus(ctx.Request().Context(), id, date)
	if err != nil {
		return errors.Wrap(err, "getting daily status")
	}
	return ctx.JSON(http.StatusOK, dailyStatusResponse{
		EmployeeID: id,
		Date:       attendance.DateOf(date),
		Status:     status,
	})
}

func (api *attendanceApi) records(ctx echo.Context) error {
	id, err := employeeIDParam(ctx)
	if err != nil {
		return err
	}
	month, err := monthQueryParam(ctx)
	if err != nil {
		return err
	}

	recs, err := api.svc.Records(ctx.Request().Context(), id, month)
	if err != nil {
		return errors.Wrap(err, "querying attendance records")
	}
	return ctx.JSON(http.StatusOK, recs)
}

func (api *attendanceApi) aggregate(ctx echo.Context) error {
	id, err := employeeIDParam(ctx)
	if err != nil {
		return err
	}
	month, err := monthQueryParam(ctx)
	if err != nil {
		return err
	}

	agg, err := api.svc.MonthlyAggregate(ctx.Request().Context(), id, month, core.Conf.Attendance.StandardMinutesPerMonth())
	if err != nil {
		return errors.Wrap(err, "aggregating attendance")
	}
	return ctx.JSON(http.StatusOK, agg)
}

// clear resets a day's record; clearing a missing day is reported as 404
// rather than an error.
func (api *attendanceApi) clear(ctx echo.Context) error {
	id, err := employeeIDParam(ctx)
	if err != nil {
		return err
	}
	date, err := dateQueryParam(ctx)
	if err != nil {
		return err
	}

	rec, err := api.svc.Clear(ctx.Request().Context(), id, date)
	if err != nil {
		if errors.Cause(err) == attendance.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "clearing attendance record")
	}
	return ctx.JSON(http.StatusOK, rec)
}
