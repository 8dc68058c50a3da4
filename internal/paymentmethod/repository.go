package paymentmethod

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/vasiliy-maslov/educore/internal/db"
)

type Repository interface {
	List(ctx context.Context, userID uuid.UUID) ([]PaymentMethod, error)
	// LockOwner serializes vault changes of one user for the rest of the transaction.
	LockOwner(ctx context.Context, userID uuid.UUID) error
	Count(ctx context.Context, userID uuid.UUID) (int, error)
	UnsetDefault(ctx context.Context, userID uuid.UUID) error
	Insert(ctx context.Context, pm *PaymentMethod) error
	// Delete reports whether a row owned by userID was removed and whether it was the default.
	Delete(ctx context.Context, userID uuid.UUID, id int64) (deleted bool, wasDefault bool, err error)
	PromoteLatest(ctx context.Context, userID uuid.UUID) error
}

type postgresRepository struct {
	db db.DBTX
}

func NewRepository(conn db.DBTX) Repository {
	return &postgresRepository{db: conn}
}

func (r *postgresRepository) List(ctx context.Context, userID uuid.UUID) ([]PaymentMethod, error) {
	query := `
		SELECT id, user_id, brand, last4, exp_month, exp_year, is_default, created_at
		FROM payment_methods
		WHERE user_id = $1
		ORDER BY is_default DESC, created_at DESC, id DESC
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query payment methods: %w", err)
	}
	defer rows.Close()

	methods := make([]PaymentMethod, 0)
	for rows.Next() {
		var pm PaymentMethod
		if err := rows.Scan(&pm.ID, &pm.UserID, &pm.Brand, &pm.Last4, &pm.ExpMonth, &pm.ExpYear, &pm.IsDefault, &pm.CreatedAt); err != nil {
			return nil, fmt.Errorf("repository: failed to scan payment method: %w", err)
		}
		methods = append(methods, pm)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: failed iterating payment methods: %w", err)
	}
	return methods, nil
}

func (r *postgresRepository) LockOwner(ctx context.Context, userID uuid.UUID) error {
	var id uuid.UUID
	if err := r.db.QueryRow(ctx, "SELECT id FROM users WHERE id = $1 FOR UPDATE", userID).Scan(&id); err != nil {
		return fmt.Errorf("repository: failed to lock user %s: %w", userID, err)
	}
	return nil
}

func (r *postgresRepository) Count(ctx context.Context, userID uuid.UUID) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM payment_methods WHERE user_id = $1", userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("repository: failed to count payment methods: %w", err)
	}
	return n, nil
}

func (r *postgresRepository) UnsetDefault(ctx context.Context, userID uuid.UUID) error {
	if _, err := r.db.Exec(ctx, "UPDATE payment_methods SET is_default = FALSE WHERE user_id = $1 AND is_default", userID); err != nil {
		return fmt.Errorf("repository: failed to unset default payment method: %w", err)
	}
	return nil
}

func (r *postgresRepository) Insert(ctx context.Context, pm *PaymentMethod) error {
	now := time.Now().UTC()
	query := `
		INSERT INTO payment_methods (user_id, brand, last4, exp_month, exp_year, is_default, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	err := r.db.QueryRow(ctx, query, pm.UserID, pm.Brand, pm.Last4, pm.ExpMonth, pm.ExpYear, pm.IsDefault, now).Scan(&pm.ID)
	if err != nil {
		return fmt.Errorf("repository: failed to insert payment method: %w", err)
	}
	pm.CreatedAt = now
	return nil
}

func (r *postgresRepository) Delete(ctx context.Context, userID uuid.UUID, id int64) (bool, bool, error) {
	var wasDefault bool
	err := r.db.QueryRow(ctx,
		"DELETE FROM payment_methods WHERE id = $1 AND user_id = $2 RETURNING is_default", id, userID,
	).Scan(&wasDefault)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, false, nil
	}
	if err != nil {
		return false, false, fmt.Errorf("repository: failed to delete payment method %d: %w", id, err)
	}
	return true, wasDefault, nil
}

func (r *postgresRepository) PromoteLatest(ctx context.Context, userID uuid.UUID) error {
	_, err := r.db.Exec(ctx, `
		UPDATE payment_methods SET is_default = TRUE
		WHERE id = (
			SELECT id FROM payment_methods WHERE user_id = $1 ORDER BY created_at DESC, id DESC LIMIT 1
		)`, userID)
	if err != nil {
		return fmt.Errorf("repository: failed to promote default payment method: %w", err)
	}
	return nil
}
