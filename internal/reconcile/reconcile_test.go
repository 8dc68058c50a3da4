package reconcile_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vasiliy-maslov/educore/internal/activity"
	"github.com/vasiliy-maslov/educore/internal/order"
	"github.com/vasiliy-maslov/educore/internal/payment"
	"github.com/vasiliy-maslov/educore/internal/reconcile"
	"github.com/vasiliy-maslov/educore/internal/store/memstore"
	"github.com/vasiliy-maslov/educore/internal/user"
)

func placeOrder(t *testing.T, db *memstore.DB, buyer user.User, status order.OrderStatus) int64 {
	t.Helper()
	c := db.AddCourse("Course", "10.00")
	st := db.Store()
	o := &order.Order{
		UserID:      buyer.ID,
		Status:      status,
		TotalAmount: decimal.RequireFromString("10.00"),
		Currency:    "USD",
		Items:       []order.OrderItem{{CourseID: c.ID, Price: c.Price}},
	}
	require.NoError(t, st.Orders.Create(context.Background(), o))
	require.NoError(t, st.Payments.Create(context.Background(), &payment.Payment{
		OrderID: o.ID, Amount: o.TotalAmount, Currency: "USD", Status: payment.StatusProcessing, Method: payment.MethodCard,
	}))
	return o.ID
}

func TestSweeper_CancelsOnlyStaleProcessingOrders(t *testing.T) {
	db := memstore.New()
	buyer := db.AddUser(user.User{Email: "a@example.com"})
	now := time.Now()

	stale := placeOrder(t, db, buyer, order.StatusProcessing)
	db.SetOrderUpdatedAt(stale, now.Add(-2*time.Hour))
	fresh := placeOrder(t, db, buyer, order.StatusProcessing)
	db.SetOrderUpdatedAt(fresh, now.Add(-time.Minute))
	done := placeOrder(t, db, buyer, order.StatusCompleted)
	db.SetOrderUpdatedAt(done, now.Add(-2*time.Hour))

	s := reconcile.NewSweeper(db.UnitOfWork(), db.Store().Orders, 30*time.Minute)
	s.SetClock(func() time.Time { return now })

	n, err := s.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	statuses := map[int64]order.OrderStatus{}
	for _, o := range db.Orders() {
		statuses[o.ID] = o.Status
	}
	assert.Equal(t, order.StatusCancelled, statuses[stale])
	assert.Equal(t, order.StatusProcessing, statuses[fresh])
	assert.Equal(t, order.StatusCompleted, statuses[done])

	p, err := db.Store().Payments.GetByOrderID(context.Background(), stale)
	require.NoError(t, err)
	assert.Equal(t, payment.StatusFailed, p.Status)
	assert.Equal(t, reconcile.FailureReason, p.FailureReason)

	acts := db.Activities()
	require.Len(t, acts, 1)
	assert.Equal(t, activity.TypeOrderReconciled, acts[0].Type)

	// второй проход ничего не трогает
	n, err = s.Sweep(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSweeper_FulfilsOrdersWithCapturedPayment(t *testing.T) {
	db := memstore.New()
	buyer := db.AddUser(user.User{Email: "a@example.com"})
	ctx := context.Background()

	id := placeOrder(t, db, buyer, order.StatusProcessing)
	courseID := db.Orders()[0].Items[0].CourseID
	db.AddToCart(buyer.ID, courseID)
	recorded, err := db.Store().Payments.MarkSucceeded(ctx, id, "gw-captured-123")
	require.NoError(t, err)
	require.True(t, recorded)
	db.SetOrderUpdatedAt(id, time.Now().Add(-time.Hour))

	s := reconcile.NewSweeper(db.UnitOfWork(), db.Store().Orders, time.Minute)
	n, err := s.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	assert.Equal(t, order.StatusCompleted, db.Orders()[0].Status)
	p := db.Payments()[0]
	assert.Equal(t, payment.StatusSucceeded, p.Status)
	assert.Equal(t, "gw-captured-123", p.TransactionID)

	enrolled := db.Enrollments()
	require.Len(t, enrolled, 1)
	assert.Equal(t, buyer.ID, enrolled[0].UserID)
	assert.Empty(t, db.CartCourseIDs(buyer.ID))
	c, _ := db.Course(courseID)
	assert.True(t, c.IsPurchased)

	acts := db.Activities()
	require.Len(t, acts, 1)
	assert.Equal(t, activity.TypeOrderPlaced, acts[0].Type)
}

func TestSweeper_CancelsOrdersWithFailedPayment(t *testing.T) {
	db := memstore.New()
	buyer := db.AddUser(user.User{Email: "a@example.com"})
	ctx := context.Background()

	id := placeOrder(t, db, buyer, order.StatusProcessing)
	_, err := db.Store().Payments.MarkFailed(ctx, id, "card declined")
	require.NoError(t, err)
	db.SetOrderUpdatedAt(id, time.Now().Add(-time.Hour))

	s := reconcile.NewSweeper(db.UnitOfWork(), db.Store().Orders, time.Minute)
	n, err := s.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	assert.Equal(t, order.StatusCancelled, db.Orders()[0].Status)
	p := db.Payments()[0]
	assert.Equal(t, payment.StatusFailed, p.Status)
	assert.Equal(t, "card declined", p.FailureReason, "the original reason is kept")
	assert.Empty(t, db.Enrollments())
}

func TestSweeper_FailedCancelRollsBack(t *testing.T) {
	db := memstore.New()
	buyer := db.AddUser(user.User{Email: "a@example.com"})
	id := placeOrder(t, db, buyer, order.StatusProcessing)
	db.SetOrderUpdatedAt(id, time.Now().Add(-time.Hour))
	db.Fail("activities.append", errors.New("boom"))

	s := reconcile.NewSweeper(db.UnitOfWork(), db.Store().Orders, time.Minute)
	n, err := s.Sweep(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)

	assert.Equal(t, order.StatusProcessing, db.Orders()[0].Status)
	assert.Equal(t, payment.StatusProcessing, db.Payments()[0].Status)
}

func TestSweeper_StartStop(t *testing.T) {
	db := memstore.New()
	s := reconcile.NewSweeper(db.UnitOfWork(), db.Store().Orders, time.Minute)

	require.Error(t, s.Start("not a schedule"))
	require.NoError(t, s.Start("@every 1h"))
	assert.Error(t, s.Start("@every 1h"), "second start")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
	s.Stop(ctx)
}
