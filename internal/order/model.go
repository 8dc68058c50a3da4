package order

import (
	"time"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	StatusPending    OrderStatus = "Pending"
	StatusProcessing OrderStatus = "Processing"
	StatusCompleted  OrderStatus = "Completed"
	StatusCancelled  OrderStatus = "Cancelled"
	StatusRefunded   OrderStatus = "Refunded"
)

func (os OrderStatus) String() string {
	return string(os)
}

// Valid reports whether os is one of the known statuses.
func (os OrderStatus) Valid() bool {
	_, ok := allowedTransitions[os]
	return ok
}

type OrderItem struct {
	ID       int64 `json:"id" db:"id"`
	OrderID  int64 `json:"order_id" db:"order_id"`
	CourseID int64 `json:"course_id" db:"course_id"`
	// Price is the course price at the time of purchase.
	Price       decimal.Decimal `json:"price" db:"price"`
	PurchasedAt time.Time       `json:"purchased_at" db:"purchased_at"`
}

// Billing is a snapshot of the buyer's billing details taken at checkout.
type Billing struct {
	Name    string `json:"name" db:"billing_name"`
	Email   string `json:"email" db:"billing_email"`
	Address string `json:"address" db:"billing_address"`
	City    string `json:"city" db:"billing_city"`
	Country string `json:"country" db:"billing_country"`
}

type Order struct {
	ID             int64           `json:"id" db:"id"`
	UserID         uuid.UUID       `json:"user_id" db:"user_id"`
	Status         OrderStatus     `json:"status" db:"status"`
	Items          []OrderItem     `json:"items" db:"-"` // Загружаются отдельным запросом
	SubtotalAmount decimal.Decimal `json:"subtotal_amount" db:"subtotal_amount"`
	TaxAmount      decimal.Decimal `json:"tax_amount" db:"tax_amount"`
	TotalAmount    decimal.Decimal `json:"total_amount" db:"total_amount"`
	Currency       string          `json:"currency" db:"currency"`
	Billing        Billing         `json:"billing"`
	IdempotencyKey *string         `json:"-" db:"idempotency_key"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at" db:"updated_at"`
}

// CourseIDs returns the course ids of the order's items in item order.
func (o *Order) CourseIDs() []int64 {
	ids := make([]int64, 0, len(o.Items))
	for _, it := range o.Items {
		ids = append(ids, it.CourseID)
	}
	return ids
}

// Requester identifies who is asking for an order.
type Requester struct {
	UserID  uuid.UUID
	IsAdmin bool
}
