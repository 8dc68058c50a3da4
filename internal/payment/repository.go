package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/vasiliy-maslov/educore/internal/db"
)

var ErrPaymentNotFound = errors.New("payment not found")

type Repository interface {
	Create(ctx context.Context, p *Payment) error
	GetByOrderID(ctx context.Context, orderID int64) (*Payment, error)
	// MarkSucceeded and MarkFailed only move a payment that is still Processing and report
	// whether they did.
	MarkSucceeded(ctx context.Context, orderID int64, transactionID string) (bool, error)
	MarkFailed(ctx context.Context, orderID int64, reason string) (bool, error)
}

type postgresRepository struct {
	db db.DBTX
}

func NewRepository(conn db.DBTX) Repository {
	return &postgresRepository{db: conn}
}

func (r *postgresRepository) Create(ctx context.Context, p *Payment) error {
	now := time.Now().UTC()
	query := `
		INSERT INTO payments (order_id, amount, currency, status, payment_method, transaction_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	err := r.db.QueryRow(ctx, query,
		p.OrderID, p.Amount, p.Currency, string(p.Status), p.Method, p.TransactionID, now,
	).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("repository: failed to insert payment for order %d: %w", p.OrderID, err)
	}
	p.CreatedAt = now
	return nil
}

func (r *postgresRepository) GetByOrderID(ctx context.Context, orderID int64) (*Payment, error) {
	query := `
		SELECT id, order_id, amount, currency, status, payment_method, transaction_id, failure_reason, created_at, processed_at
		FROM payments
		WHERE order_id = $1
	`
	var p Payment
	err := r.db.QueryRow(ctx, query, orderID).Scan(
		&p.ID,
		&p.OrderID,
		&p.Amount,
		&p.Currency,
		&p.Status,
		&p.Method,
		&p.TransactionID,
		&p.FailureReason,
		&p.CreatedAt,
		&p.ProcessedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("repository: failed to select payment for order %d: %w", orderID, err)
	}
	return &p, nil
}

func (r *postgresRepository) MarkSucceeded(ctx context.Context, orderID int64, transactionID string) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE payments
		SET status = $2, transaction_id = COALESCE(NULLIF($3, ''), transaction_id), processed_at = $4
		WHERE order_id = $1 AND status = $5`,
		orderID, string(StatusSucceeded), transactionID, time.Now().UTC(), string(StatusProcessing))
	if err != nil {
		return false, fmt.Errorf("repository: failed to mark payment succeeded for order %d: %w", orderID, err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *postgresRepository) MarkFailed(ctx context.Context, orderID int64, reason string) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE payments
		SET status = $2, failure_reason = $3, processed_at = $4
		WHERE order_id = $1 AND status = $5`,
		orderID, string(StatusFailed), reason, time.Now().UTC(), string(StatusProcessing))
	if err != nil {
		return false, fmt.Errorf("repository: failed to mark payment failed for order %d: %w", orderID, err)
	}
	return tag.RowsAffected() > 0, nil
}
