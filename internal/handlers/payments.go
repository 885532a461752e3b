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
	"github.com/mueblesworkflow/backend/internal/receipts"
)

type PaymentHandler struct {
	DB       *gorm.DB
	Producer *mykafka.Producer
	Receipts *receipts.Store
}

type createPaymentRequest struct {
	ProductID uint     `json:"productId"`
	Kind      string   `json:"kind"`
	Amount    *float64 `json:"amount"`
	Method    string   `json:"method"`
	Date      string   `json:"date"`
}

func (h *PaymentHandler) publish(c echo.Context, key string, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, mykafka.TopicPaymentEvents, key, event); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}
}

// GetPayments lists an order's payments, oldest first. The response is
// always a JSON array; no payments yet is an empty array, not a 404.
func (h *PaymentHandler) GetPayments(c echo.Context) error {
	productID, err := strconv.Atoi(c.Param("productID"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid order id")
	}

	var order models.Product
	if err := h.DB.First(&order, productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "order not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err)
	}

	payments := []models.Payment{}
	if err := h.DB.Where("product_id = ?", order.ID).Order("date ASC, id ASC").Find(&payments).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err)
	}
	return c.JSON(http.StatusOK, paymentViews(payments))
}

// CreatePayment appends one payment to an order.
func (h *PaymentHandler) CreatePayment(c echo.Context) error {
	var req createPaymentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err)
	}
	if req.Amount == nil || *req.Amount <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "amount must be greater than zero")
	}
	kind := req.Kind
	if kind == "" {
		kind = models.PaymentBalance
	}
	if kind != models.PaymentDeposit && kind != models.PaymentBalance && kind != models.PaymentExtra {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown payment kind")
	}

	var order models.Product
	if err := h.DB.First(&order, req.ProductID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "order not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err)
	}

	date := time.Now()
	if req.Date != "" {
		d, err := parseDate(req.Date)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid date")
		}
		date = d
	}

	payment := models.Payment{
		ProductID: order.ID,
		Kind:      kind,
		Amount:    *req.Amount,
		Method:    req.Method,
		Date:      date,
	}
	if err := h.DB.Create(&payment).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err)
	}

	h.publish(c, fmt.Sprint(payment.ID), map[string]any{
		"type":      "payment_created",
		"paymentID": payment.ID,
		"orderID":   order.ID,
		"kind":      payment.Kind,
		"amount":    payment.Amount,
	})

	return c.JSON(http.StatusCreated, paymentView(payment))
}

// UploadReceipt attaches a receipt file (jpg/jpeg/png/pdf) to a payment.
func (h *PaymentHandler) UploadReceipt(c echo.Context) error {
	if h.Receipts == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "receipt storage is not configured")
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payment id")
	}

	var payment models.Payment
	if err := h.DB.First(&payment, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "payment not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err)
	}

	file, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "file is required")
	}
	src, err := file.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err)
	}
	defer src.Close()

	key, err := h.Receipts.Put(c.Request().Context(), payment.ID, file.Filename, src, file.Size)
	if err != nil {
		if errors.Is(err, receipts.ErrBadExtension) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to save receipt")
	}

	if err := h.DB.Model(&payment).Update("receipt_key", key).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err)
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "receipt uploaded"})
}

// GetReceipt redirects to a short-lived download URL for the receipt.
func (h *PaymentHandler) GetReceipt(c echo.Context) error {
	if h.Receipts == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "receipt storage is not configured")
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payment id")
	}

	var payment models.Payment
	if err := h.DB.First(&payment, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "payment not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err)
	}
	if !payment.HasReceipt() {
		return echo.NewHTTPError(http.StatusNotFound, "no receipt for this payment")
	}

	url, err := h.Receipts.PresignGet(c.Request().Context(), payment.ReceiptKey, 15*time.Minute)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err)
	}
	return c.Redirect(http.StatusFound, url)
}

// paymentView adds the derived attachment flag the UI keys off.
type paymentJSON struct {
	models.Payment
	HasReceiptAttachment bool `json:"hasReceiptAttachment"`
}

func paymentView(p models.Payment) paymentJSON {
	return paymentJSON{Payment: p, HasReceiptAttachment: p.HasReceipt()}
}

func paymentViews(payments []models.Payment) []paymentJSON {
	views := make([]paymentJSON, len(payments))
	for i, p := range payments {
		views[i] = paymentView(p)
	}
	return views
}
