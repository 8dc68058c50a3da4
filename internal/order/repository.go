package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/vasiliy-maslov/educore/internal/db"
)

var (
	ErrOrderNotFound       = errors.New("order not found")
	ErrDuplicateIdempotent = errors.New("order with this idempotency key already exists")
)

type Repository interface {
	// Create inserts the order and its items. Run it inside a transaction to keep them atomic.
	Create(ctx context.Context, order *Order) error
	GetByID(ctx context.Context, id int64) (*Order, error)
	GetByIdempotencyKey(ctx context.Context, userID uuid.UUID, key string) (*Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]Order, error)
	// UpdateStatusFrom moves the order from one status to another and reports false when the
	// order is not currently in from. Moving to Refunded also refunds a succeeded payment.
	UpdateStatusFrom(ctx context.Context, id int64, from, to OrderStatus) (bool, error)
	ListStale(ctx context.Context, status OrderStatus, olderThan time.Time, limit int) ([]Order, error)
}

type postgresRepository struct {
	db db.DBTX
}

func NewRepository(conn db.DBTX) Repository {
	return &postgresRepository{db: conn}
}

const orderColumns = `id, user_id, status, subtotal_amount, tax_amount, total_amount, currency,
	billing_name, billing_email, billing_address, billing_city, billing_country,
	idempotency_key, created_at, updated_at`

func scanOrder(row pgx.Row, o *Order) error {
	return row.Scan(
		&o.ID,
		&o.UserID,
		&o.Status,
		&o.SubtotalAmount,
		&o.TaxAmount,
		&o.TotalAmount,
		&o.Currency,
		&o.Billing.Name,
		&o.Billing.Email,
		&o.Billing.Address,
		&o.Billing.City,
		&o.Billing.Country,
		&o.IdempotencyKey,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
}

func (r *postgresRepository) Create(ctx context.Context, order *Order) error {
	now := time.Now().UTC()

	queryOrder := `
		INSERT INTO orders (user_id, status, subtotal_amount, tax_amount, total_amount, currency,
			billing_name, billing_email, billing_address, billing_city, billing_country,
			idempotency_key, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id
	`
	err := r.db.QueryRow(ctx, queryOrder,
		order.UserID,
		string(order.Status),
		order.SubtotalAmount,
		order.TaxAmount,
		order.TotalAmount,
		order.Currency,
		order.Billing.Name,
		order.Billing.Email,
		order.Billing.Address,
		order.Billing.City,
		order.Billing.Country,
		order.IdempotencyKey,
		now,
		now,
	).Scan(&order.ID)
	if err != nil {
		if db.IsUniqueViolation(err, "orders_user_idempotency_key_idx") {
			return ErrDuplicateIdempotent
		}
		return fmt.Errorf("repository: failed to insert order: %w", err)
	}
	order.CreatedAt = now
	order.UpdatedAt = now

	queryItem := `
		INSERT INTO order_items (order_id, course_id, price, purchased_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	for i := range order.Items {
		item := &order.Items[i]
		if err := r.db.QueryRow(ctx, queryItem, order.ID, item.CourseID, item.Price, now).Scan(&item.ID); err != nil {
			return fmt.Errorf("repository: failed to insert order item for order %d: %w", order.ID, err)
		}
		item.OrderID = order.ID
		item.PurchasedAt = now
	}
	return nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id int64) (*Order, error) {
	return r.getOne(ctx, "SELECT "+orderColumns+" FROM orders WHERE id = $1", id)
}

func (r *postgresRepository) GetByIdempotencyKey(ctx context.Context, userID uuid.UUID, key string) (*Order, error) {
	return r.getOne(ctx, "SELECT "+orderColumns+" FROM orders WHERE user_id = $1 AND idempotency_key = $2", userID, key)
}

func (r *postgresRepository) getOne(ctx context.Context, query string, args ...any) (*Order, error) {
	var o Order
	if err := scanOrder(r.db.QueryRow(ctx, query, args...), &o); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("repository: failed to select order: %w", err)
	}

	orders := []Order{o}
	if err := r.attachItems(ctx, orders); err != nil {
		return nil, err
	}
	return &orders[0], nil
}

func (r *postgresRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]Order, error) {
	return r.list(ctx, "SELECT "+orderColumns+" FROM orders WHERE user_id = $1 ORDER BY created_at DESC, id DESC", userID)
}

func (r *postgresRepository) ListStale(ctx context.Context, status OrderStatus, olderThan time.Time, limit int) ([]Order, error) {
	return r.list(ctx,
		"SELECT "+orderColumns+" FROM orders WHERE status = $1 AND updated_at < $2 ORDER BY updated_at LIMIT $3",
		string(status), olderThan, limit)
}

func (r *postgresRepository) list(ctx context.Context, query string, args ...any) ([]Order, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query orders: %w", err)
	}
	defer rows.Close()

	orders := make([]Order, 0)
	for rows.Next() {
		var o Order
		if err := scanOrder(rows, &o); err != nil {
			return nil, fmt.Errorf("repository: failed to scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating orders: %w", err)
	}
	rows.Close()

	if err := r.attachItems(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// attachItems loads the items of all orders with one query.
func (r *postgresRepository) attachItems(ctx context.Context, orders []Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]int64, len(orders))
	index := make(map[int64]int, len(orders))
	for i := range orders {
		ids[i] = orders[i].ID
		index[orders[i].ID] = i
		orders[i].Items = make([]OrderItem, 0)
	}

	rows, err := r.db.Query(ctx,
		"SELECT id, order_id, course_id, price, purchased_at FROM order_items WHERE order_id = ANY($1) ORDER BY id", ids)
	if err != nil {
		return fmt.Errorf("repository: failed to query order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.CourseID, &item.Price, &item.PurchasedAt); err != nil {
			return fmt.Errorf("repository: failed to scan order item: %w", err)
		}
		i := index[item.OrderID]
		orders[i].Items = append(orders[i].Items, item)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("repository: error iterating order items: %w", err)
	}
	return nil
}

func (r *postgresRepository) UpdateStatusFrom(ctx context.Context, id int64, from, to OrderStatus) (bool, error) {
	query := `
		WITH updated AS (
			UPDATE orders SET status = $3, updated_at = $4
			WHERE id = $1 AND status = $2
			RETURNING id
		), refunded AS (
			UPDATE payments SET status = 'Refunded', processed_at = $4
			WHERE $3 = 'Refunded' AND status = 'Succeeded' AND order_id IN (SELECT id FROM updated)
		)
		SELECT COUNT(*) FROM updated
	`
	var n int
	if err := r.db.QueryRow(ctx, query, id, string(from), string(to), time.Now().UTC()).Scan(&n); err != nil {
		return false, fmt.Errorf("repository: failed to update status of order %d: %w", id, err)
	}
	return n > 0, nil
}
