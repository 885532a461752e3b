package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/mueblesworkflow/backend/internal/models"
	"github.com/mueblesworkflow/backend/internal/mykafka"
	"github.com/mueblesworkflow/backend/internal/util"
)

type CostHandler struct {
	DB       *gorm.DB
	Producer *mykafka.Producer
}

type costRequest struct {
	Date      string   `json:"date"`
	Amount    *float64 `json:"amount"`
	Category  string   `json:"category"`
	Frequency string   `json:"frequency"`
	Reason    string   `json:"reason"`
}

func (h *CostHandler) publish(c echo.Context, key string, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, mykafka.TopicCostEvents, key, event); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}
}

// GetCosts pages through costs, newest date first, optionally narrowed by a
// text query over reason and category.
func (h *CostHandler) GetCosts(c echo.Context) error {
	page := parseIntDefault(c.QueryParam("page"), 0)
	size := parseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	tx := h.DB.Model(&models.Cost{})
	if query := c.QueryParam("query"); query != "" {
		pattern := "%" + query + "%"
		tx = tx.Where("LOWER(reason) LIKE LOWER(?) OR LOWER(category) LIKE LOWER(?)", pattern, pattern)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err)
	}

	var costs []models.Cost
	if err := tx.Order("date DESC, id DESC").Offset(offset).Limit(limit).Find(&costs).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err)
	}

	return c.JSON(http.StatusOK, pageResponse(costs, page, limit, total))
}

func (h *CostHandler) CreateCost(c echo.Context) error {
	var req costRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err)
	}
	if req.Amount == nil || *req.Amount <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "amount must be greater than zero")
	}
	if req.Reason == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "reason is required")
	}

	frequency := req.Frequency
	if frequency == "" {
		frequency = models.FrequencyOneTime
	}
	switch frequency {
	case models.FrequencyOneTime, models.FrequencyWeekly, models.FrequencyMonthly, models.FrequencyYearly:
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "unknown frequency")
	}

	date := time.Now()
	if req.Date != "" {
		d, err := parseDate(req.Date)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid date")
		}
		date = d
	}

	cost := models.Cost{
		Date:      date,
		Amount:    *req.Amount,
		Category:  req.Category,
		Frequency: frequency,
		Reason:    req.Reason,
		CreatedAt: time.Now(),
	}
	if err := h.DB.Create(&cost).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err)
	}

	h.publish(c, fmt.Sprint(cost.ID), map[string]any{
		"type":   "cost_created",
		"costID": cost.ID,
		"amount": cost.Amount,
		"reason": cost.Reason,
	})

	return c.JSON(http.StatusCreated, cost)
}

func (h *CostHandler) DeleteCost(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid cost id")
	}

	var cost models.Cost
	if err := h.DB.First(&cost, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "cost not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err)
	}

	if err := h.DB.Delete(&cost).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err)
	}

	h.publish(c, fmt.Sprint(cost.ID), map[string]any{
		"type":   "cost_deleted",
		"costID": cost.ID,
	})

	return c.NoContent(http.StatusNoContent)
}
