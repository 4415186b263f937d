package echoapi

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/kazi/core"
	"github.com/trezcool/kazi/core/attendance"
)

var (
	orderingParam = "ordering"
	monthParam    = "month"
	dateParam     = "date"
)

type Ordering struct {
	Orderings []core.DBOrdering
}

func (ord *Ordering) Bind(ctx echo.Context) {
	data := ctx.QueryParams()
	if len(data) == 0 {
		return
	}
	val, ok := data[orderingParam]
	if !ok || len(val) == 0 || val[0] == "" {
		return
	}

	for _, field := range strings.Split(val[0], ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
}

func employeeIDParam(ctx echo.Context) (int, error) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid employee id")
	}
	return id, nil
}

// monthQueryParam returns the validated "2006-01" ?month, defaulting to
// the current month.
func monthQueryParam(ctx echo.Context) (string, error) {
	val := ctx.QueryParam(monthParam)
	if val == "" {
		return attendance.MonthKey(time.Now().UTC()), nil
	}
	month, err := attendance.ParseMonthKey(val)
	if err != nil {
		return "", core.NewValidationError(nil, core.FieldError{Field: monthParam, Error: err.Error()})
	}
	return month, nil
}

// dateQueryParam returns the validated "2006-01-02" ?date, defaulting to
// today.
func dateQueryParam(ctx echo.Context) (time.Time, error) {
	val := ctx.QueryParam(dateParam)
	if val == "" {
		return attendance.DateOf(time.Now().UTC()), nil
	}
	date, err := time.Parse("2006-01-02", core.CleanString(val))
	if err != nil {
		return time.Time{}, core.NewValidationError(nil, core.FieldError{Field: dateParam, Error: "invalid date, expected YYYY-MM-DD"})
	}
	return date, nil
}
