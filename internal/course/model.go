package course

import (
	"time"

	"github.com/shopspring/decimal"
)

type Course struct {
	ID           int64           `json:"id" db:"id"`
	Title        string          `json:"title" db:"title"`
	Description  string          `json:"description" db:"description"`
	Price        decimal.Decimal `json:"price" db:"price"`
	CategoryID   *int64          `json:"category_id,omitempty" db:"category_id"`
	InstructorID *int64          `json:"instructor_id,omitempty" db:"instructor_id"`
	Rating       decimal.Decimal `json:"rating" db:"rating"`
	ReviewCount  int             `json:"review_count" db:"review_count"`
	// IsPurchased latches to true once any order contains the course; the course is then read-only.
	IsPurchased bool      `json:"is_purchased" db:"is_purchased"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

type Filter struct {
	CategoryID *int64
	Search     string
	Page       int
	PageSize   int
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

func (f Filter) normalized() Filter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 {
		f.PageSize = DefaultPageSize
	}
	if f.PageSize > MaxPageSize {
		f.PageSize = MaxPageSize
	}
	return f
}

type Page struct {
	Items    []Course `json:"items"`
	Total    int64    `json:"total"`
	Page     int      `json:"page"`
	PageSize int      `json:"page_size"`
}
