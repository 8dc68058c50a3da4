// Package activity keeps the append-only audit feed shown on the admin dashboard.
package activity

import (
	"context"
	"fmt"
	"time"

	"github.com/gofrs/uuid"

	"github.com/vasiliy-maslov/educore/internal/db"
)

type Type string

const (
	TypeOrderPlaced     Type = "order_placed"
	TypePaymentFailed   Type = "payment_failed"
	TypeOrderReconciled Type = "order_reconciled"
	TypeUserRegistered  Type = "user_registered"
)

type Activity struct {
	ID          int64      `json:"id" db:"id"`
	Type        Type       `json:"type" db:"type"`
	Description string     `json:"description" db:"description"`
	UserID      *uuid.UUID `json:"user_id,omitempty" db:"user_id"`
	CourseID    *int64     `json:"course_id,omitempty" db:"course_id"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
}

type Repository interface {
	Append(ctx context.Context, a *Activity) error
	Recent(ctx context.Context, limit int) ([]Activity, error)
}

type postgresRepository struct {
	db db.DBTX
}

func NewRepository(conn db.DBTX) Repository {
	return &postgresRepository{db: conn}
}

func (r *postgresRepository) Append(ctx context.Context, a *Activity) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	err := r.db.QueryRow(ctx,
		"INSERT INTO activities (type, description, user_id, course_id, created_at) VALUES ($1, $2, $3, $4, $5) RETURNING id",
		string(a.Type), a.Description, a.UserID, a.CourseID, a.CreatedAt,
	).Scan(&a.ID)
	if err != nil {
		return fmt.Errorf("repository: failed to append activity: %w", err)
	}
	return nil
}

func (r *postgresRepository) Recent(ctx context.Context, limit int) ([]Activity, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := r.db.Query(ctx,
		"SELECT id, type, description, user_id, course_id, created_at FROM activities ORDER BY created_at DESC, id DESC LIMIT $1",
		limit)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query activities: %w", err)
	}
	defer rows.Close()

	activities := make([]Activity, 0, limit)
	for rows.Next() {
		var a Activity
		if err := rows.Scan(&a.ID, &a.Type, &a.Description, &a.UserID, &a.CourseID, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("repository: failed to scan activity: %w", err)
		}
		activities = append(activities, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: failed iterating activities: %w", err)
	}
	return activities, nil
}
