package checkout

import (
	"errors"

	"github.com/shopspring/decimal"

	"github.com/vasiliy-maslov/educore/internal/order"
)

var (
	ErrEmptyCart           = errors.New("nothing to check out: no courses given and the cart is empty")
	ErrTotalMismatch       = errors.New("total amount does not match the current course prices")
	ErrUnsupportedCurrency = errors.New("unsupported currency")
	ErrDuplicateRequest    = errors.New("a checkout with this idempotency key is already in progress")
)

type PaymentInfo struct {
	Method     string
	CardToken  string
	CardNumber string
}

type Request struct {
	// CourseIDs to buy; when empty the user's cart is used.
	CourseIDs []int64
	// TotalAmount is the total the client expects to pay. Zero means the client did not send one.
	TotalAmount    decimal.Decimal
	Currency       string
	Billing        order.Billing
	Payment        PaymentInfo
	IdempotencyKey string
}

type Result struct {
	OrderID       int64  `json:"order_id,omitempty"`
	Success       bool   `json:"success"`
	Message       string `json:"message"`
	TransactionID string `json:"transaction_id,omitempty"`
}
