package payment_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vasiliy-maslov/educore/internal/db/dbtest"
	"github.com/vasiliy-maslov/educore/internal/order"
	"github.com/vasiliy-maslov/educore/internal/payment"
)

func TestPostgresRepository_Lifecycle(t *testing.T) {
	pool := dbtest.Pool(t)
	ctx := context.Background()

	userID := dbtest.SeedUser(t, pool, "pay@example.com")
	o := &order.Order{UserID: userID, Status: order.StatusProcessing, Currency: "USD"}
	require.NoError(t, order.NewRepository(pool).Create(ctx, o))

	repo := payment.NewRepository(pool)
	p := &payment.Payment{
		OrderID:       o.ID,
		Amount:        decimal.RequireFromString("12.34"),
		Currency:      "USD",
		Status:        payment.StatusProcessing,
		Method:        payment.MethodCard,
		TransactionID: "local-1",
	}
	require.NoError(t, repo.Create(ctx, p))

	ok, err := repo.MarkSucceeded(ctx, o.ID, "gw-1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.MarkFailed(ctx, o.ID, "late decline")
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := repo.GetByOrderID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, payment.StatusSucceeded, got.Status)
	assert.Equal(t, "gw-1", got.TransactionID)
	assert.NotNil(t, got.ProcessedAt)
	assert.Empty(t, got.FailureReason)

	_, err = repo.GetByOrderID(ctx, o.ID+1)
	assert.ErrorIs(t, err, payment.ErrPaymentNotFound)
}
