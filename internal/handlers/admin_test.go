package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/mueblesworkflow/backend/internal/models"
)

func TestAdminSummary(t *testing.T) {
	db := InitTestDB(t)
	h := &AdminHandler{DB: db}
	e := echo.New()

	db.Create(&models.User{Username: "a", PasswordHash: "x", Role: models.RoleAdmin})
	db.Create(&models.User{Username: "b", PasswordHash: "x", Role: models.RoleUser})

	soon := time.Now().AddDate(0, 0, 2)
	db.Create(&models.Product{Title: "Mesa", UnitPrice: 1, StartDate: time.Now(), EstimatedDate: &soon})
	db.Create(&models.Product{Title: "Silla", UnitPrice: 1, StartDate: time.Now()})
	db.Create(&models.WorkOrder{ProductID: 1, Status: models.StatusFinished, UpdatedAt: time.Now()})
	db.Create(&models.WorkOrder{ProductID: 2, Status: models.StatusInProgress, UpdatedAt: time.Now()})

	req := httptest.NewRequest(http.MethodGet, "/api/admin/summary", nil)
	rec := httptest.NewRecorder()
	require.NoError(t, h.GetSummary(e.NewContext(req, rec)))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		TotalUsers     int64            `json:"totalUsers"`
		TotalOrders    int64            `json:"totalOrders"`
		FinishedOrders int64            `json:"finishedOrders"`
		DueThisWeek    int64            `json:"dueThisWeek"`
		OrdersByStatus map[string]int64 `json:"ordersByStatus"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.EqualValues(t, 2, resp.TotalUsers)
	require.EqualValues(t, 2, resp.TotalOrders)
	require.EqualValues(t, 1, resp.FinishedOrders)
	require.EqualValues(t, 1, resp.DueThisWeek)
	require.EqualValues(t, 1, resp.OrdersByStatus[models.StatusInProgress])
}

func TestResolveRange(t *testing.T) {
	from, to, err := resolveRange("2026-02", "", "")
	require.NoError(t, err)
	require.Equal(t, "2026-02-01", from.Format("2006-01-02"))
	require.Equal(t, "2026-02-28", to.Format("2006-01-02"))

	from, to, err = resolveRange("2026-02", "2026-01-01", "2026-03-31")
	require.NoError(t, err)
	require.Equal(t, "2026-01-01", from.Format("2006-01-02"))
	require.Equal(t, "2026-03-31", to.Format("2006-01-02"))

	_, _, err = resolveRange("not-a-month", "", "")
	require.Error(t, err)
}
