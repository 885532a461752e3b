package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/mueblesworkflow/backend/internal/models"
)

type AdminHandler struct {
	DB *gorm.DB
}

// GetSummary returns the workshop-wide counters the admin dashboard shows.
func (h *AdminHandler) GetSummary(c echo.Context) error {
	var totalUsers int64
	if err := h.DB.Model(&models.User{}).Count(&totalUsers).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err)
	}

	var totalOrders int64
	if err := h.DB.Model(&models.Product{}).Count(&totalOrders).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err)
	}

	var workOrders []models.WorkOrder
	if err := h.DB.Find(&workOrders).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err)
	}
	ordersByStatus := map[string]int64{}
	for _, wo := range workOrders {
		ordersByStatus[wo.Status]++
	}

	today := time.Now()
	var dueThisWeek int64
	if err := h.DB.Model(&models.Product{}).
		Where("estimated_date BETWEEN ? AND ?", today, today.AddDate(0, 0, 7)).
		Count(&dueThisWeek).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"totalUsers":     totalUsers,
		"totalOrders":    totalOrders,
		"finishedOrders": ordersByStatus[models.StatusFinished],
		"dueThisWeek":    dueThisWeek,
		"ordersByStatus": ordersByStatus,
	})
}
