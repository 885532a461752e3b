package workflowclient

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// Payment kinds and cost frequencies the backend accepts.
const (
	KindDeposit = "DEPOSIT"
	KindBalance = "BALANCE"
	KindExtra   = "EXTRA"

	FrequencyOneTime = "ONE_TIME"
	FrequencyWeekly  = "WEEKLY"
	FrequencyMonthly = "MONTHLY"
	FrequencyYearly  = "YEARLY"
)

// ValidationError blocks a form submission before any request is made.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

// ProductInput is the create payload for an order. Optional numeric fields
// stay nil when the form left them empty, so they marshal as absent rather
// than zero.
type ProductInput struct {
	Title         string   `json:"title"`
	ProductType   string   `json:"productType,omitempty"`
	Measurements  string   `json:"measurements,omitempty"`
	Material      string   `json:"material,omitempty"`
	PaintType     string   `json:"paintType,omitempty"`
	Lacquer       string   `json:"lacquer,omitempty"`
	Color         string   `json:"color,omitempty"`
	Quantity      *int64   `json:"quantity,omitempty"`
	UnitPrice     *float64 `json:"unitPrice,omitempty"`
	Notes         string   `json:"notes,omitempty"`
	EstimatedDate string   `json:"estimatedDate,omitempty"`
	Amount        *float64 `json:"amount,omitempty"`
	Method        string   `json:"method,omitempty"`
}

type CostInput struct {
	Date      string   `json:"date,omitempty"`
	Amount    *float64 `json:"amount,omitempty"`
	Category  string   `json:"category,omitempty"`
	Frequency string   `json:"frequency,omitempty"`
	Reason    string   `json:"reason"`
}

type PaymentInput struct {
	OrderID uint     `json:"productId"`
	Kind    string   `json:"kind,omitempty"`
	Amount  *float64 `json:"amount,omitempty"`
	Method  string   `json:"method,omitempty"`
	Date    string   `json:"date,omitempty"`
}

// ProductDraft holds the order form's fields as typed, numbers included.
// Validate coerces and gates them; an invalid draft never reaches the
// network.
type ProductDraft struct {
	Title         string
	ProductType   string
	Measurements  string
	Material      string
	PaintType     string
	Lacquer       string
	Color         string
	Quantity      string
	UnitPrice     string
	Notes         string
	EstimatedDate string
	Deposit       string
	Method        string
}

func (d ProductDraft) Validate() (ProductInput, error) {
	if strings.TrimSpace(d.Title) == "" {
		return ProductInput{}, &ValidationError{Field: "title", Reason: "is required"}
	}

	price, err := requiredPositiveFloat("unitPrice", d.UnitPrice)
	if err != nil {
		return ProductInput{}, err
	}
	quantity, err := optionalInt("quantity", d.Quantity)
	if err != nil {
		return ProductInput{}, err
	}
	deposit, err := optionalPositiveFloat("deposit", d.Deposit)
	if err != nil {
		return ProductInput{}, err
	}

	return ProductInput{
		Title:         strings.TrimSpace(d.Title),
		ProductType:   d.ProductType,
		Measurements:  d.Measurements,
		Material:      d.Material,
		PaintType:     d.PaintType,
		Lacquer:       d.Lacquer,
		Color:         d.Color,
		Quantity:      quantity,
		UnitPrice:     price,
		Notes:         d.Notes,
		EstimatedDate: strings.TrimSpace(d.EstimatedDate),
		Amount:        deposit,
		Method:        d.Method,
	}, nil
}

// CostDraft holds the cost form's fields as typed.
type CostDraft struct {
	Date      string
	Amount    string
	Category  string
	Frequency string
	Reason    string
}

func (d CostDraft) Validate() (CostInput, error) {
	if strings.TrimSpace(d.Reason) == "" {
		return CostInput{}, &ValidationError{Field: "reason", Reason: "is required"}
	}
	amount, err := requiredPositiveFloat("amount", d.Amount)
	if err != nil {
		return CostInput{}, err
	}
	switch d.Frequency {
	case "", FrequencyOneTime, FrequencyWeekly, FrequencyMonthly, FrequencyYearly:
	default:
		return CostInput{}, &ValidationError{Field: "frequency", Reason: "is not a known frequency"}
	}

	return CostInput{
		Date:      strings.TrimSpace(d.Date),
		Amount:    amount,
		Category:  d.Category,
		Frequency: d.Frequency,
		Reason:    strings.TrimSpace(d.Reason),
	}, nil
}

// PaymentDraft holds the payment form's fields as typed.
type PaymentDraft struct {
	OrderID uint
	Kind    string
	Amount  string
	Method  string
	Date    string
}

func (d PaymentDraft) Validate() (PaymentInput, error) {
	if d.OrderID == 0 {
		return PaymentInput{}, &ValidationError{Field: "orderId", Reason: "is required"}
	}
	amount, err := requiredPositiveFloat("amount", d.Amount)
	if err != nil {
		return PaymentInput{}, err
	}
	switch d.Kind {
	case "", KindDeposit, KindBalance, KindExtra:
	default:
		return PaymentInput{}, &ValidationError{Field: "kind", Reason: "is not a known payment kind"}
	}

	return PaymentInput{
		OrderID: d.OrderID,
		Kind:    d.Kind,
		Amount:  amount,
		Method:  d.Method,
		Date:    strings.TrimSpace(d.Date),
	}, nil
}

// SubmitOrder validates the draft and creates the order. Validation errors
// return before any request goes out.
func (c *Client) SubmitOrder(ctx context.Context, d ProductDraft) (Order, error) {
	in, err := d.Validate()
	if err != nil {
		return Order{}, err
	}
	return c.CreateOrder(ctx, in)
}

func (c *Client) SubmitCost(ctx context.Context, d CostDraft) (Cost, error) {
	in, err := d.Validate()
	if err != nil {
		return Cost{}, err
	}
	return c.CreateCost(ctx, in)
}

func (c *Client) SubmitPayment(ctx context.Context, d PaymentDraft) (Payment, error) {
	in, err := d.Validate()
	if err != nil {
		return Payment{}, err
	}
	return c.CreatePayment(ctx, in)
}

func requiredPositiveFloat(field, s string) (*float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, &ValidationError{Field: field, Reason: "is required"}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, &ValidationError{Field: field, Reason: "is not a number"}
	}
	if v <= 0 {
		return nil, &ValidationError{Field: field, Reason: "must be greater than zero"}
	}
	return &v, nil
}

func optionalPositiveFloat(field, s string) (*float64, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	return requiredPositiveFloat(field, s)
}

func optionalInt(field, s string) (*int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, &ValidationError{Field: field, Reason: "is not a whole number"}
	}
	if v < 0 {
		return nil, &ValidationError{Field: field, Reason: "must not be negative"}
	}
	return &v, nil
}
