package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mueblesworkflow/backend/internal/finance"
)

type FinanceHandler struct {
	Finance *finance.Service
}

// GetDashboard aggregates the requested range. Priority: explicit from/to,
// then month=YYYY-MM, then the current month.
func (h *FinanceHandler) GetDashboard(c echo.Context) error {
	from, to, err := resolveRange(c.QueryParam("month"), c.QueryParam("from"), c.QueryParam("to"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	resp, err := h.Finance.Dashboard(from, to)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err)
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *FinanceHandler) GetYearly(c echo.Context) error {
	year := parseIntDefault(c.QueryParam("year"), time.Now().Year())
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)

	resp, err := h.Finance.Dashboard(from, to)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err)
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *FinanceHandler) GetUserPerformance(c echo.Context) error {
	from, to, err := resolveRange(c.QueryParam("month"), c.QueryParam("from"), c.QueryParam("to"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	rows, err := h.Finance.UserPerformance(from, to)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err)
	}
	return c.JSON(http.StatusOK, rows)
}

func resolveRange(month, fromParam, toParam string) (time.Time, time.Time, error) {
	if fromParam != "" && toParam != "" {
		from, err := time.Parse("2006-01-02", fromParam)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		to, err := time.Parse("2006-01-02", toParam)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		return from, to, nil
	}

	if strings.TrimSpace(month) != "" {
		start, err := time.Parse("2006-01", strings.TrimSpace(month))
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		return start, start.AddDate(0, 1, -1), nil
	}

	now := time.Now()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return start, start.AddDate(0, 1, -1), nil
}
