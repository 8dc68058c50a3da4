package payment

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending    Status = "Pending"
	StatusProcessing Status = "Processing"
	StatusSucceeded  Status = "Succeeded"
	StatusFailed     Status = "Failed"
	StatusRefunded   Status = "Refunded"
)

func (s Status) String() string {
	return string(s)
}

type Payment struct {
	ID            int64           `json:"id" db:"id"`
	OrderID       int64           `json:"order_id" db:"order_id"`
	Amount        decimal.Decimal `json:"amount" db:"amount"`
	Currency      string          `json:"currency" db:"currency"`
	Status        Status          `json:"status" db:"status"`
	Method        string          `json:"payment_method" db:"payment_method"`
	TransactionID string          `json:"transaction_id" db:"transaction_id"`
	FailureReason string          `json:"failure_reason,omitempty" db:"failure_reason"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	ProcessedAt   *time.Time      `json:"processed_at,omitempty" db:"processed_at"`
}
