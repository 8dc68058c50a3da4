package checkout

import (
	"context"
	"fmt"

	"github.com/vasiliy-maslov/educore/internal/activity"
	"github.com/vasiliy-maslov/educore/internal/order"
	"github.com/vasiliy-maslov/educore/internal/store"
)

// Fulfil completes a paid order: Processing → Completed, enrollments, the purchase latch on the
// courses, cart cleanup and the order_placed activity. It reports false and changes nothing when
// the order is no longer Processing. Call it inside a unit of work; the payment must already be
// recorded as succeeded.
func Fulfil(ctx context.Context, st *store.Store, o *order.Order) (bool, error) {
	moved, err := st.Orders.UpdateStatusFrom(ctx, o.ID, order.StatusProcessing, order.StatusCompleted)
	if err != nil || !moved {
		return false, err
	}

	courseIDs := o.CourseIDs()
	if _, err := st.Enrollments.EnsureEnrolled(ctx, o.UserID, courseIDs); err != nil {
		return false, err
	}
	if err := st.Courses.MarkPurchased(ctx, courseIDs); err != nil {
		return false, err
	}
	if err := st.Cart.RemoveCourses(ctx, o.UserID, courseIDs); err != nil {
		return false, err
	}
	userID := o.UserID
	if err := st.Activities.Append(ctx, &activity.Activity{
		Type:        activity.TypeOrderPlaced,
		Description: fmt.Sprintf("Order #%d placed for %s", o.ID, FormatMoney(o.TotalAmount, o.Currency)),
		UserID:      &userID,
	}); err != nil {
		return false, err
	}
	return true, nil
}
