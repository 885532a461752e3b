package workflowclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidCredentials is returned for a 401 on login, the one status the
// UI reports with a specific message.
var ErrInvalidCredentials = errors.New("invalid username or password")

// APIError is any non-2xx answer from the backend.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// Client calls the workshop backend over HTTP, attaching the session's
// bearer token to every authenticated request.
type Client struct {
	baseURL    string
	httpClient *http.Client
	sessions   *SessionStore
}

func NewClient(baseURL string, sessions *SessionStore) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
		sessions:   sessions,
	}
}

// Order is the order view the backend serves.
type Order struct {
	ID              uint    `json:"id"`
	Title           string  `json:"title"`
	ProductType     string  `json:"productType"`
	Measurements    string  `json:"measurements"`
	Material        string  `json:"material"`
	Color           string  `json:"color"`
	Quantity        int64   `json:"quantity"`
	UnitPrice       float64 `json:"unitPrice"`
	StartDate       string  `json:"startDate"`
	EstimatedDate   string  `json:"estimatedDate"`
	DeliveryDate    string  `json:"deliveryDate"`
	OwnerID         uint    `json:"ownerId"`
	Owner           *struct {
		ID uint `json:"id"`
	} `json:"owner"`
	WorkOrderStatus string  `json:"workOrderStatus"`
	DaysLate        int     `json:"daysLate"`
	TotalPaid       float64 `json:"totalPaid"`
	DepositPaid     float64 `json:"depositPaid"`
}

// OwnedBy checks the flat owner id and the nested owner object; servers
// have shipped both shapes.
func (o Order) OwnedBy(userID uint) bool {
	if o.OwnerID == userID {
		return true
	}
	return o.Owner != nil && o.Owner.ID == userID
}

type Payment struct {
	ID                   uint    `json:"id"`
	OrderID              uint    `json:"orderId"`
	Kind                 string  `json:"kind"`
	Amount               float64 `json:"amount"`
	Method               string  `json:"method"`
	Date                 string  `json:"date"`
	HasReceiptAttachment bool    `json:"hasReceiptAttachment"`
}

type Cost struct {
	ID        uint    `json:"id"`
	Date      string  `json:"date"`
	Amount    float64 `json:"amount"`
	Category  string  `json:"category"`
	Frequency string  `json:"frequency"`
	Reason    string  `json:"reason"`
}

// Page is one server-paginated slice of a listing.
type Page[T any] struct {
	Content       []T   `json:"content"`
	Page          int   `json:"page"`
	Size          int   `json:"size"`
	TotalElements int64 `json:"totalElements"`
	TotalPages    int   `json:"totalPages"`
}

// ListQuery carries the list-view state a fetch depends on.
type ListQuery struct {
	Page     int
	Size     int
	Query    string
	MineOnly bool
}

func (q ListQuery) values() url.Values {
	v := url.Values{}
	v.Set("page", strconv.Itoa(q.Page))
	if q.Size > 0 {
		v.Set("size", strconv.Itoa(q.Size))
	}
	if q.Query != "" {
		v.Set("query", q.Query)
	}
	if q.MineOnly {
		v.Set("mine", "true")
	}
	return v
}

// Login authenticates and stores the resulting session.
func (c *Client) Login(ctx context.Context, username, password string) (Session, error) {
	body, _ := json.Marshal(map[string]string{"username": username, "password": password})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/users/login", bytes.NewReader(body))
	if err != nil {
		return Session{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Session{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return Session{}, ErrInvalidCredentials
	}
	if resp.StatusCode != http.StatusOK {
		return Session{}, apiError(resp)
	}

	var payload struct {
		ID       uint   `json:"id"`
		Username string `json:"username"`
		Role     string `json:"role"`
		Token    string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Session{}, err
	}

	sess := Session{UserID: payload.ID, Username: payload.Username, Role: payload.Role, Token: payload.Token}
	if c.sessions != nil {
		if err := c.sessions.Set(sess); err != nil {
			return Session{}, err
		}
	}
	return sess, nil
}

func (c *Client) Logout() error {
	if c.sessions == nil {
		return nil
	}
	return c.sessions.Clear()
}

func (c *Client) ListOrders(ctx context.Context, q ListQuery) (Page[Order], error) {
	var page Page[Order]
	err := c.get(ctx, "/api/products?"+q.values().Encode(), &page)
	return page, err
}

func (c *Client) OrdersDueThisWeek(ctx context.Context) ([]Order, error) {
	var orders []Order
	err := c.get(ctx, "/api/products/due-this-week", &orders)
	return orders, err
}

func (c *Client) OrdersPastDue(ctx context.Context) ([]Order, error) {
	var orders []Order
	err := c.get(ctx, "/api/products/past-due", &orders)
	return orders, err
}

func (c *Client) OrdersNotPickedUp(ctx context.Context) ([]Order, error) {
	var orders []Order
	err := c.get(ctx, "/api/products/not-picked-up", &orders)
	return orders, err
}

func (c *Client) DeleteOrder(ctx context.Context, id uint) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/products/%d", id), nil, nil)
}

// CreateOrder opens a production order from an already-validated input.
func (c *Client) CreateOrder(ctx context.Context, in ProductInput) (Order, error) {
	var order Order
	err := c.post(ctx, "/api/products/create", in, &order)
	return order, err
}

func (c *Client) CreateCost(ctx context.Context, in CostInput) (Cost, error) {
	var cost Cost
	err := c.post(ctx, "/api/costs", in, &cost)
	return cost, err
}

func (c *Client) CreatePayment(ctx context.Context, in PaymentInput) (Payment, error) {
	var payment Payment
	err := c.post(ctx, "/api/payments", in, &payment)
	return payment, err
}

// Types lists the product type vocabulary the order form offers.
func (c *Client) Types(ctx context.Context) ([]string, error) {
	var types []string
	err := c.get(ctx, "/api/products/types", &types)
	return types, err
}

func (c *Client) ListCosts(ctx context.Context, q ListQuery) (Page[Cost], error) {
	var page Page[Cost]
	err := c.get(ctx, "/api/costs?"+q.values().Encode(), &page)
	return page, err
}

func (c *Client) DeleteCost(ctx context.Context, id uint) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/costs/%d", id), nil, nil)
}

// Payments lists an order's payments, tolerating every historical server
// shape: an array, a bare object, or a 404 for "none yet".
func (c *Client) Payments(ctx context.Context, orderID uint) ([]Payment, error) {
	req, err := c.newRequest(ctx, http.MethodGet, fmt.Sprintf("/api/payments/%d", orderID), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return []Payment{}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apiError(resp)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return normalizePayments(data)
}

// normalizePayments accepts an array or a single payment object.
func normalizePayments(data []byte) ([]Payment, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return []Payment{}, nil
	}

	if trimmed[0] == '[' {
		payments := []Payment{}
		if err := json.Unmarshal(trimmed, &payments); err != nil {
			return nil, err
		}
		return payments, nil
	}

	var single Payment
	if err := json.Unmarshal(trimmed, &single); err != nil {
		return nil, err
	}
	return []Payment{single}, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, path, bytes.NewReader(body), out)
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, out any) error {
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apiError(resp)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.sessions != nil {
		if sess := c.sessions.Current(); sess != nil {
			req.Header.Set("Authorization", "Bearer "+sess.Token)
		}
	}
	return req, nil
}

func apiError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &payload); err == nil && payload.Message != "" {
		return &APIError{Status: resp.StatusCode, Message: payload.Message}
	}
	return &APIError{Status: resp.StatusCode, Message: strings.TrimSpace(string(data))}
}
