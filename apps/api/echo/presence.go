package echoapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/kazi/core"
	"github.com/trezcool/kazi/core/attendance"
	"github.com/trezcool/kazi/core/employee"
	"github.com/trezcool/kazi/core/presence"
)

type presenceApi struct {
	mgr    *presence.Manager
	empSvc *employee.Service
	attSvc *attendance.Service
}

func registerPresenceAPI(g *echo.Group, mgr *presence.Manager, empSvc *employee.Service, attSvc *attendance.Service) {
	api := presenceApi{mgr: mgr, empSvc: empSvc, attSvc: attSvc}

	pg := g.Group("/presence")
	pg.GET("/connection", api.connectionState)
	pg.POST("/events", api.ingestEvent)
}

type (
	connectionStateResponse struct {
		Connected  bool   `json:"connected"`
		Connecting bool   `json:"connecting"`
		LastError  string `json:"lastError,omitempty"`
	}

	// eventRequest is a manual presence event, the same payload scanning
	// devices publish on the broker.
	eventRequest struct {
		EmployeeUID string    `json:"employeeUid" validate:"required"`
		Timestamp   time.Time `json:"timestamp" validate:"required"`
	}

	eventResponse struct {
		Action attendance.Direction `json:"action"`
		Record attendance.Record    `json:"record"`
	}
)

func (api *presenceApi) connectionState(ctx echo.Context) error {
	state := api.mgr.State()
	resp := connectionStateResponse{
		Connected:  state.Connected,
		Connecting: state.Connecting,
	}
	if state.LastError != nil {
		resp.LastError = state.LastError.Error()
	}
	return ctx.JSON(http.StatusOK, resp)
}

// ingestEvent applies a presence event outside the broker path, e.g. a
// manual correction from the dashboard. The inferred check-in/check-out
// action is acked back.
func (api *presenceApi) ingestEvent(ctx echo.Context) error {
	var data eventRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to eventRequest")
	}
	if err := core.Validate.Struct(&data); err != nil {
		return err
	}

	emp, err := api.empSvc.GetByUID(ctx.Request().Context(), data.EmployeeUID)
	if err != nil {
		if errors.Cause(err) == employee.ErrNotFound {
			return core.NewValidationError(nil, core.FieldError{Field: "employeeUid", Error: "unknown badge uid"})
		}
		return errors.Wrap(err, "resolving badge uid")
	}

	dir, rec, err := api.attSvc.ApplyEvent(ctx.Request().Context(), emp.ID, data.Timestamp)
	if err != nil {
		return errors.Wrap(err, "applying presence event")
	}
	return ctx.JSON(http.StatusOK, eventResponse{Action: dir, Record: rec})
}
