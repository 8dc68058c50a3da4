package store_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vasiliy-maslov/educore/internal/db/dbtest"
	"github.com/vasiliy-maslov/educore/internal/order"
	"github.com/vasiliy-maslov/educore/internal/payment"
	"github.com/vasiliy-maslov/educore/internal/store"
)

func TestUnitOfWork_RollsBackOnError(t *testing.T) {
	pool := dbtest.Pool(t)
	uow := store.NewUnitOfWork(pool)
	ctx := context.Background()

	userID := dbtest.SeedUser(t, pool, "uow@example.com")
	courseID := dbtest.SeedCourse(t, pool, "Go", "10.00")

	boom := errors.New("boom")
	err := uow.Do(ctx, func(s *store.Store) error {
		o := &order.Order{
			UserID:   userID,
			Status:   order.StatusProcessing,
			Currency: "USD",
			Items:    []order.OrderItem{{CourseID: courseID, Price: decimal.RequireFromString("10.00")}},
		}
		if err := s.Orders.Create(ctx, o); err != nil {
			return err
		}
		if err := s.Payments.Create(ctx, &payment.Payment{OrderID: o.ID, Currency: "USD", Status: payment.StatusProcessing, Method: payment.MethodCard, TransactionID: "t"}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	for _, table := range []string{"orders", "order_items", "payments"} {
		var n int
		require.NoError(t, pool.QueryRow(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n))
		assert.Zero(t, n, table)
	}
}

func TestUnitOfWork_Commits(t *testing.T) {
	pool := dbtest.Pool(t)
	uow := store.NewUnitOfWork(pool)
	ctx := context.Background()

	userID := dbtest.SeedUser(t, pool, "uow2@example.com")

	var orderID int64
	err := uow.Do(ctx, func(s *store.Store) error {
		o := &order.Order{UserID: userID, Status: order.StatusPending, Currency: "USD"}
		if err := s.Orders.Create(ctx, o); err != nil {
			return err
		}
		orderID = o.ID
		return nil
	})
	require.NoError(t, err)

	got, err := store.New(pool).Orders.GetByID(ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusPending, got.Status)
}
