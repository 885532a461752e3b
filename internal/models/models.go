package models

import (
	"time"
)

const (
	RoleUser   = "USER"
	RoleSeller = "SELLER"
	RoleAdmin  = "ADMIN"
)

// Work order statuses. Anything unknown is treated as in progress.
const (
	StatusInProgress = "IN_PROGRESS"
	StatusFinished   = "FINISHED"
	StatusLate       = "LATE"
	StatusDelivered  = "DELIVERED"
)

func Statuses() []string {
	return []string{StatusInProgress, StatusFinished, StatusLate, StatusDelivered}
}

const (
	PaymentDeposit = "DEPOSIT"
	PaymentBalance = "BALANCE"
	PaymentExtra   = "EXTRA"
)

const (
	FrequencyOneTime = "ONE_TIME"
	FrequencyWeekly  = "WEEKLY"
	FrequencyMonthly = "MONTHLY"
	FrequencyYearly  = "YEARLY"
)

// ProductTypes is the fixed catalog of furniture kinds the workshop builds.
func ProductTypes() []string {
	return []string{"MESA", "SILLA", "PLACARD", "CAMA", "ESCRITORIO", "ESTANTERIA", "OTRO"}
}

type User struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string `gorm:"unique;not null"          json:"username"`
	PasswordHash string `gorm:"not null"                 json:"-"`
	Role         string `gorm:"not null"                 json:"role"`
}

type RefreshToken struct {
	ID        uint   `gorm:"primaryKey"      json:"id"`
	Token     string `gorm:"unique;not null" json:"token"`
	UserID    uint   `gorm:"index;not null"  json:"user_id"`
	ExpiresAt int64  `gorm:"not null"        json:"expires_at"`
	Revoked   bool   `gorm:"default:false"   json:"revoked"`
}

// Product is a production order for one piece of furniture.
type Product struct {
	ID            uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	Title         string     `gorm:"not null;index"           json:"title"`
	ProductType   string     `gorm:"index"                    json:"productType"`
	Measurements  string     `json:"measurements"`
	Material      string     `json:"material"`
	PaintType     string     `json:"paintType"`
	Lacquer       string     `json:"lacquer"`
	Color         string     `json:"color"`
	Quantity      int64      `json:"quantity"`
	UnitPrice     float64    `gorm:"not null"                 json:"unitPrice"`
	Notes         string     `json:"notes"`
	Photo         string     `json:"photo"`
	StartDate     time.Time  `json:"startDate"`
	EstimatedDate *time.Time `json:"estimatedDate"`
	DeliveryDate  *time.Time `json:"deliveryDate"`
	OwnerID       uint       `gorm:"index"                    json:"ownerId"`
	Owner         *User      `gorm:"foreignKey:OwnerID"       json:"owner,omitempty"`
}

type WorkOrder struct {
	ID        uint      `gorm:"primaryKey"           json:"id"`
	ProductID uint      `gorm:"uniqueIndex;not null" json:"productId"`
	Status    string    `gorm:"not null"             json:"status"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Payment is append-only: the API creates and lists payments, never edits them.
type Payment struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID  uint      `gorm:"index;not null"           json:"orderId"`
	Kind       string    `gorm:"not null"                 json:"kind"`
	Amount     float64   `gorm:"not null"                 json:"amount"`
	Method     string    `json:"method"`
	Date       time.Time `json:"date"`
	ReceiptKey string    `json:"-"`
}

func (p Payment) HasReceipt() bool { return p.ReceiptKey != "" }

type Cost struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Date      time.Time `gorm:"index"                    json:"date"`
	Amount    float64   `gorm:"not null"                 json:"amount"`
	Category  string    `json:"category"`
	Frequency string    `gorm:"default:ONE_TIME"         json:"frequency"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"createdAt"`
}

// ProductResponse is the read view of an order: the entity plus fields the
// server derives at response time. Payment totals cover only the payments
// loaded with the product and are display-only.
type ProductResponse struct {
	Product
	WorkOrderID     uint    `json:"workOrderId"`
	WorkOrderStatus string  `json:"workOrderStatus"`
	DaysLate        int     `json:"daysLate"`
	TotalPaid       float64 `json:"totalPaid"`
	DepositPaid     float64 `json:"depositPaid"`
	HasReceipts     bool    `json:"hasReceipts"`
}

// BuildProductResponse derives the response view from an order, its work
// order and the payments loaded for it. A missing work order reads as an
// order still in progress.
func BuildProductResponse(p Product, wo *WorkOrder, payments []Payment, today time.Time) ProductResponse {
	resp := ProductResponse{Product: p, WorkOrderStatus: StatusInProgress}
	if wo != nil {
		resp.WorkOrderID = wo.ID
		if wo.Status != "" {
			resp.WorkOrderStatus = wo.Status
		}
	}
	for _, pay := range payments {
		resp.TotalPaid += pay.Amount
		if pay.Kind == PaymentDeposit {
			resp.DepositPaid += pay.Amount
		}
		if pay.HasReceipt() {
			resp.HasReceipts = true
		}
	}
	resp.DaysLate = DaysLate(p.EstimatedDate, resp.WorkOrderStatus, today)
	return resp
}

// DaysLate counts whole days past the estimated date. Delivered orders are
// never late; a FINISHED order keeps counting until it is picked up.
func DaysLate(estimated *time.Time, status string, today time.Time) int {
	if estimated == nil || status == StatusDelivered {
		return 0
	}
	days := int(today.Sub(truncateDay(*estimated)).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
