package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/mueblesworkflow/backend/internal/middleware/auth"
	"github.com/mueblesworkflow/backend/internal/models"
	"github.com/mueblesworkflow/backend/internal/mykafka"
	"github.com/mueblesworkflow/backend/internal/service/search"
	"github.com/mueblesworkflow/backend/internal/util"
)

// defaultLeadTimeDays is the estimate applied when an order arrives without
// an estimated date.
const defaultLeadTimeDays = 35

type ProductHandler struct {
	DB       *gorm.DB
	Producer *mykafka.Producer
	ES       *elasticsearch.Client
	ESIndex  string
}

type productRequest struct {
	Title         string   `json:"title"`
	ProductType   string   `json:"productType"`
	Measurements  string   `json:"measurements"`
	Material      string   `json:"material"`
	PaintType     string   `json:"paintType"`
	Lacquer       string   `json:"lacquer"`
	Color         string   `json:"color"`
	Quantity      *int64   `json:"quantity"`
	UnitPrice     *float64 `json:"unitPrice"`
	Notes         string   `json:"notes"`
	Photo         string   `json:"photo"`
	EstimatedDate string   `json:"estimatedDate"`
	DeliveryDate  string   `json:"deliveryDate"`
	Status        string   `json:"status"`

	// Optional payment recorded together with the order change. Absent
	// amount means no payment, never a zero payment.
	Amount      *float64 `json:"amount"`
	PaymentKind string   `json:"paymentKind"`
	Method      string   `json:"method"`
}

func (h *ProductHandler) publish(c echo.Context, key string, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, mykafka.TopicOrderEvents, key, event); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}
}

func (h *ProductHandler) indexProduct(c echo.Context, p models.Product) {
	if h.ES == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := search.IndexProduct(ctx, h.ES, h.ESIndex, p); err != nil {
		c.Logger().Errorf("ES index error: %v", err)
	}
}

// GetProducts lists orders as one server-paginated page. The text query
// matches title, type, material and color case-insensitively; mine=true
// narrows both the rows and the totals to the caller's own orders.
func (h *ProductHandler) GetProducts(c echo.Context) error {
	page := parseIntDefault(c.QueryParam("page"), 0)
	size := parseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	tx := h.DB.Model(&models.Product{})

	if query := strings.TrimSpace(c.QueryParam("query")); query != "" {
		pattern := "%" + strings.ToLower(query) + "%"
		tx = tx.Where(
			"LOWER(title) LIKE ? OR LOWER(product_type) LIKE ? OR LOWER(material) LIKE ? OR LOWER(color) LIKE ?",
			pattern, pattern, pattern, pattern,
		)
	}
	if t := c.QueryParam("type"); t != "" {
		tx = tx.Where("product_type = ?", t)
	}
	if c.QueryParam("mine") == "true" {
		tx = tx.Where("owner_id = ?", auth.UserID(c))
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err)
	}

	var orders []models.Product
	if err := tx.Order("id ASC").Offset(offset).Limit(limit).Find(&orders).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err)
	}

	responses, err := h.buildResponses(orders)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err)
	}

	return c.JSON(http.StatusOK, pageResponse(responses, page, limit, total))
}

func (h *ProductHandler) GetProduct(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid order id")
	}

	var order models.Product
	if err := h.DB.First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "order not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err)
	}

	responses, err := h.buildResponses([]models.Product{order})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err)
	}
	return c.JSON(http.StatusOK, responses[0])
}

// CreateProduct opens a production order: the product row, its work order,
// and the deposit payment when one was taken.
func (h *ProductHandler) CreateProduct(c echo.Context) error {
	var req productRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err)
	}
	if strings.TrimSpace(req.Title) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "title is required")
	}
	if req.UnitPrice == nil || *req.UnitPrice <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "unitPrice must be greater than zero")
	}

	now := time.Now()
	order := models.Product{
		Title:        req.Title,
		ProductType:  req.ProductType,
		Measurements: req.Measurements,
		Material:     req.Material,
		PaintType:    req.PaintType,
		Lacquer:      req.Lacquer,
		Color:        req.Color,
		UnitPrice:    *req.UnitPrice,
		Notes:        req.Notes,
		Photo:        req.Photo,
		StartDate:    now,
		OwnerID:      auth.UserID(c),
	}
	if req.Quantity != nil {
		order.Quantity = *req.Quantity
	}
	if req.EstimatedDate != "" {
		d, err := parseDate(req.EstimatedDate)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid estimatedDate")
		}
		order.EstimatedDate = &d
	} else {
		d := now.AddDate(0, 0, defaultLeadTimeDays)
		order.EstimatedDate = &d
	}
	if req.DeliveryDate != "" {
		d, err := parseDate(req.DeliveryDate)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid deliveryDate")
		}
		order.DeliveryDate = &d
	}

	wo := models.WorkOrder{Status: models.StatusInProgress, UpdatedAt: now}
	var deposit *models.Payment

	err := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&order).Error; err != nil {
			return err
		}
		wo.ProductID = order.ID
		if err := tx.Create(&wo).Error; err != nil {
			return err
		}
		if req.Amount != nil {
			deposit = &models.Payment{
				ProductID: order.ID,
				Kind:      models.PaymentDeposit,
				Amount:    *req.Amount,
				Method:    req.Method,
				Date:      now,
			}
			return tx.Create(deposit).Error
		}
		return nil
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err)
	}

	h.publish(c, fmt.Sprint(order.ID), map[string]any{
		"type":    "order_created",
		"orderID": order.ID,
		"title":   order.Title,
		"ownerID": order.OwnerID,
	})
	h.indexProduct(c, order)

	var payments []models.Payment
	if deposit != nil {
		payments = append(payments, *deposit)
	}
	return c.JSON(http.StatusCreated, models.BuildProductResponse(order, &wo, payments, time.Now()))
}

// UpdateProduct applies the non-empty fields of the request, optionally
// moving the work order status and recording an extra payment.
func (h *ProductHandler) UpdateProduct(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid order id")
	}

	var req productRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err)
	}

	var order models.Product
	if err := h.DB.First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "order not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err)
	}

	if req.Title != "" {
		order.Title = req.Title
	}
	if req.ProductType != "" {
		order.ProductType = req.ProductType
	}
	if req.Measurements != "" {
		order.Measurements = req.Measurements
	}
	if req.Material != "" {
		order.Material = req.Material
	}
	if req.PaintType != "" {
		order.PaintType = req.PaintType
	}
	if req.Lacquer != "" {
		order.Lacquer = req.Lacquer
	}
	if req.Color != "" {
		order.Color = req.Color
	}
	if req.Notes != "" {
		order.Notes = req.Notes
	}
	if req.Photo != "" {
		order.Photo = req.Photo
	}
	if req.Quantity != nil {
		order.Quantity = *req.Quantity
	}
	if req.UnitPrice != nil {
		if *req.UnitPrice <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "unitPrice must be greater than zero")
		}
		order.UnitPrice = *req.UnitPrice
	}
	if req.EstimatedDate != "" {
		d, err := parseDate(req.EstimatedDate)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid estimatedDate")
		}
		order.EstimatedDate = &d
	}
	if req.DeliveryDate != "" {
		d, err := parseDate(req.DeliveryDate)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid deliveryDate")
		}
		order.DeliveryDate = &d
	}

	err = h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&order).Error; err != nil {
			return err
		}
		if req.Status != "" {
			if err := tx.Model(&models.WorkOrder{}).
				Where("product_id = ?", order.ID).
				Updates(map[string]any{"status": req.Status, "updated_at": time.Now()}).Error; err != nil {
				return err
			}
		}
		if req.Amount != nil {
			kind := req.PaymentKind
			if kind == "" {
				kind = models.PaymentBalance
			}
			payment := models.Payment{
				ProductID: order.ID,
				Kind:      kind,
				Amount:    *req.Amount,
				Method:    req.Method,
				Date:      time.Now(),
			}
			return tx.Create(&payment).Error
		}
		return nil
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err)
	}

	h.publish(c, fmt.Sprint(order.ID), map[string]any{
		"type":    "order_updated",
		"orderID": order.ID,
		"title":   order.Title,
	})
	h.indexProduct(c, order)

	responses, err := h.buildResponses([]models.Product{order})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err)
	}
	return c.JSON(http.StatusOK, responses[0])
}

// DeleteProduct removes an order with its work order and payments. Admin
// only, enforced by the router.
func (h *ProductHandler) DeleteProduct(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid order id")
	}

	var order models.Product
	if err := h.DB.First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "order not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err)
	}

	err = h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", order.ID).Delete(&models.Payment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("product_id = ?", order.ID).Delete(&models.WorkOrder{}).Error; err != nil {
			return err
		}
		return tx.Delete(&order).Error
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err)
	}

	h.publish(c, fmt.Sprint(order.ID), map[string]any{
		"type":    "order_deleted",
		"orderID": order.ID,
	})
	if h.ES != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()
		if err := search.DeleteProduct(ctx, h.ES, h.ESIndex, order.ID); err != nil {
			c.Logger().Errorf("ES delete error: %v", err)
		}
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *ProductHandler) GetTypes(c echo.Context) error {
	return c.JSON(http.StatusOK, models.ProductTypes())
}

func (h *ProductHandler) GetStatuses(c echo.Context) error {
	return c.JSON(http.StatusOK, models.Statuses())
}

// DueThisWeek lists orders whose estimated date falls in the next 7 days.
func (h *ProductHandler) DueThisWeek(c echo.Context) error {
	today := time.Now()
	endOfWeek := today.AddDate(0, 0, 7)

	var orders []models.Product
	if err := h.DB.Where("estimated_date BETWEEN ? AND ?", today, endOfWeek).Find(&orders).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err)
	}
	return h.respondArray(c, orders)
}

// PastDue lists orders whose work order is marked late.
func (h *ProductHandler) PastDue(c echo.Context) error {
	return h.byStatus(c, models.StatusLate)
}

// NotPickedUp lists finished orders still waiting in the workshop.
func (h *ProductHandler) NotPickedUp(c echo.Context) error {
	return h.byStatus(c, models.StatusFinished)
}

func (h *ProductHandler) byStatus(c echo.Context, status string) error {
	var workOrders []models.WorkOrder
	if err := h.DB.Where("status = ?", status).Find(&workOrders).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err)
	}
	if len(workOrders) == 0 {
		return c.JSON(http.StatusOK, []models.ProductResponse{})
	}

	ids := make([]uint, len(workOrders))
	for i, wo := range workOrders {
		ids[i] = wo.ProductID
	}

	var orders []models.Product
	if err := h.DB.Where("id IN ?", ids).Find(&orders).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err)
	}
	return h.respondArray(c, orders)
}

func (h *ProductHandler) respondArray(c echo.Context, orders []models.Product) error {
	responses, err := h.buildResponses(orders)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err)
	}
	return c.JSON(http.StatusOK, responses)
}

// buildResponses loads the work orders and payments for a batch of orders
// in two queries and assembles the response views.
func (h *ProductHandler) buildResponses(orders []models.Product) ([]models.ProductResponse, error) {
	responses := make([]models.ProductResponse, 0, len(orders))
	if len(orders) == 0 {
		return responses, nil
	}

	ids := make([]uint, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
	}

	var workOrders []models.WorkOrder
	if err := h.DB.Where("product_id IN ?", ids).Find(&workOrders).Error; err != nil {
		return nil, err
	}
	woByProduct := make(map[uint]*models.WorkOrder, len(workOrders))
	for i := range workOrders {
		woByProduct[workOrders[i].ProductID] = &workOrders[i]
	}

	var payments []models.Payment
	if err := h.DB.Where("product_id IN ?", ids).Find(&payments).Error; err != nil {
		return nil, err
	}
	paymentsByProduct := make(map[uint][]models.Payment)
	for _, p := range payments {
		paymentsByProduct[p.ProductID] = append(paymentsByProduct[p.ProductID], p)
	}

	today := time.Now()
	for _, o := range orders {
		responses = append(responses, models.BuildProductResponse(o, woByProduct[o.ID], paymentsByProduct[o.ID], today))
	}
	return responses, nil
}

func parseDate(s string) (time.Time, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), "/", "-")
	if d, err := time.Parse("2006-01-02", s); err == nil {
		return d, nil
	}
	return time.Parse(time.RFC3339, s)
}
