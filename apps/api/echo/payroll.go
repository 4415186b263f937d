package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/kazi/core"
	"github.com/trezcool/kazi/core/attendance"
	"github.com/trezcool/kazi/core/employee"
	"github.com/trezcool/kazi/core/payroll"
)

type payrollApi struct {
	svc *payroll.Service
}

func registerPayrollAPI(g *echo.Group, svc *payroll.Service) {
	api := payrollApi{svc: svc}

	pg := g.Group("/employees/:id/payroll")
	pg.GET("/computation", api.compute)
	pg.POST("/payslips", api.generatePayslip)
	pg.GET("/payslips", api.payslips)
	pg.DELETE("/payslips", api.clearPayslips)
	pg.GET("/status", api.status)
	pg.PUT("/status", api.setStatus)
	pg.GET("/adjustment", api.adjustment)
	pg.PUT("/adjustment", api.setAdjustment)
}

type (
	generatePayslipRequest struct {
		Month string `json:"month" validate:"required"`
	}

	setStatusRequest struct {
		Month string        `json:"month" validate:"required"`
		State payroll.State `json:"state" validate:"required,oneof=pending paid"`
	}

	// statusResponse flags results served from the local cache while the
	// authoritative store is unreachable.
	statusResponse struct {
		payroll.StatusEntry
		Degraded bool `json:"degraded"`
	}
)

func (api *payrollApi) compute(ctx echo.Context) error {
	id, err := employeeIDParam(ctx)
	if err != nil {
		return err
	}
	month, err := monthQueryParam(ctx)
	if err != nil {
		return err
	}

	comp, err := api.svc.ComputePay(ctx.Request().Context(), id, month)
	if err != nil {
		if errors.Cause(err) == employee.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "computing pay")
	}
	return ctx.JSON(http.StatusOK, comp)
}

func (api *payrollApi) generatePayslip(ctx echo.Context) error {
	id, err := employeeIDParam(ctx)
	if err != nil {
		return err
	}

	var data generatePayslipRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to generatePayslipRequest")
	}
	if err = core.Validate.Struct(&data); err != nil {
		return err
	}
	month, err := attendance.ParseMonthKey(data.Month)
	if err != nil {
		return core.NewValidationError(nil, core.FieldError{Field: "month", Error: err.Error()})
	}

	snap, err := api.svc.GeneratePayslip(ctx.Request().Context(), id, month)
	if err != nil {
		if errors.Cause(err) == employee.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "generating payslip")
	}
	return ctx.JSON(http.StatusCreated, snap)
}

func (api *payrollApi) payslips(ctx echo.Context) error {
	id, err := employeeIDParam(ctx)
	if err != nil {
		return err
	}

	snaps, err := api.svc.Payslips(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "querying payslips")
	}
	return ctx.JSON(http.StatusOK, snaps)
}

func (api *payrollApi) clearPayslips(ctx echo.Context) error {
	id, err := employeeIDParam(ctx)
	if err != nil {
		return err
	}

	if err = api.svc.ClearPayslips(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "clearing payslips")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *payrollApi) status(ctx echo.Context) error {
	id, err := employeeIDParam(ctx)
	if err != nil {
		return err
	}
	month, err := monthQueryParam(ctx)
	if err != nil {
		return err
	}

	entry, degraded, err := api.svc.Status(ctx.Request().Context(), id, month)
	if err != nil {
		return errors.Wrap(err, "getting payroll status")
	}
	return ctx.JSON(http.StatusOK, statusResponse{StatusEntry: entry, Degraded: degraded})
}

func (api *payrollApi) setStatus(ctx echo.Context) error {
	id, err := employeeIDParam(ctx)
	if err != nil {
		return err
	}

	var data setStatusRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to setStatusRequest")
	}
	if err = core.Validate.Struct(&data); err != nil {
		return err
	}
	month, err := attendance.ParseMonthKey(data.Month)
	if err != nil {
		return core.NewValidationError(nil, core.FieldError{Field: "month", Error: err.Error()})
	}

	degraded, err := api.svc.SetStatus(ctx.Request().Context(), id, month, data.State)
	if err != nil {
		if errors.Cause(err) == employee.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "setting payroll status")
	}
	return ctx.JSON(http.StatusOK, statusResponse{
		StatusEntry: payroll.StatusEntry{EmployeeID: id, Month: month, State: data.State},
		Degraded:    degraded,
	})
}

func (api *payrollApi) adjustment(ctx echo.Context) error {
	id, err := employeeIDParam(ctx)
	if err != nil {
		return err
	}

	adj, err := api.svc.Adjustment(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "getting adjustment")
	}
	return ctx.JSON(http.StatusOK, adj)
}

func (api *payrollApi) setAdjustment(ctx echo.Context) error {
	id, err := employeeIDParam(ctx)
	if err != nil {
		return err
	}

	var data payroll.AdjustmentInput
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AdjustmentInput")
	}
	if err = core.Validate.Struct(&data); err != nil {
		return err
	}

	adj, err := api.svc.SetAdjustment(ctx.Request().Context(), id, data)
	if err != nil {
		if errors.Cause(err) == employee.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "setting adjustment")
	}
	return ctx.JSON(http.StatusOK, adj)
}
