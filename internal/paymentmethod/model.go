package paymentmethod

import (
	"time"

	"github.com/gofrs/uuid"
)

type PaymentMethod struct {
	ID        int64     `json:"id" db:"id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	Brand     string    `json:"brand" db:"brand"`
	Last4     string    `json:"last4" db:"last4"`
	ExpMonth  int       `json:"exp_month" db:"exp_month"`
	ExpYear   int       `json:"exp_year" db:"exp_year"`
	IsDefault bool      `json:"is_default" db:"is_default"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// SaveInput carries a card to vault. Only the brand and last four digits are stored.
type SaveInput struct {
	CardNumber string
	ExpMonth   int
	ExpYear    int
	IsDefault  bool
}

func cardBrand(number string) string {
	switch {
	case number == "":
		return "unknown"
	case number[0] == '4':
		return "visa"
	case number[0] == '5' || number[0] == '2':
		return "mastercard"
	case len(number) > 1 && number[0] == '3' && (number[1] == '4' || number[1] == '7'):
		return "amex"
	case number[0] == '6':
		return "discover"
	default:
		return "unknown"
	}
}
