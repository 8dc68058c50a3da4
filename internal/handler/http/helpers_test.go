package http

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/vasiliy-maslov/educore/internal/auth"
	"github.com/vasiliy-maslov/educore/internal/checkout"
	"github.com/vasiliy-maslov/educore/internal/course"
	"github.com/vasiliy-maslov/educore/internal/enrollment"
	"github.com/vasiliy-maslov/educore/internal/order"
	"github.com/vasiliy-maslov/educore/internal/payment"
	"github.com/vasiliy-maslov/educore/internal/user"
)

func TestMapErrorToStatusCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{user.ErrNotFound, http.StatusNotFound},
		{fmt.Errorf("wrapped: %w", course.ErrCourseNotFound), http.StatusNotFound},
		{order.ErrOrderNotFound, http.StatusNotFound},
		{user.ErrEmailExists, http.StatusConflict},
		{enrollment.ErrAlreadyEnrolled, http.StatusConflict},
		{course.ErrCourseLocked, http.StatusConflict},
		{checkout.ErrDuplicateRequest, http.StatusConflict},
		{fmt.Errorf("%w: order 3", order.ErrOrderInProgress), http.StatusConflict},
		{auth.ErrInvalidCredentials, http.StatusUnauthorized},
		{order.ErrForbidden, http.StatusForbidden},
		{enrollment.ErrInvalidProgress, http.StatusBadRequest},
		{fmt.Errorf("%w: from A to B", order.ErrInvalidStatusTransition), http.StatusBadRequest},
		{payment.ErrPaymentDeclined, http.StatusPaymentRequired},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, mapErrorToStatusCode(tt.err))
		})
	}
}

func TestRespondWithServiceError_HidesInternalErrors(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/x", nil)
	respondWithServiceError(w, r, errors.New("pq: connection refused"), "Failed to do thing")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Failed to do thing"}`, w.Body.String())
}

func TestRateLimiter(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l := NewRateLimiter(1, 2, time.Minute)
	l.now = func() time.Time { return now }

	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	h := l.Middleware(ok)

	call := func(id uuid.UUID) int {
		req := httptest.NewRequest(http.MethodPost, "/orders/checkout", nil)
		req = req.WithContext(auth.WithIdentity(req.Context(), auth.Identity{UserID: id}))
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		return w.Code
	}

	ann := uuid.Must(uuid.NewV4())
	bob := uuid.Must(uuid.NewV4())
	assert.Equal(t, http.StatusNoContent, call(ann))
	assert.Equal(t, http.StatusNoContent, call(ann))
	assert.Equal(t, http.StatusTooManyRequests, call(ann), "burst exhausted")
	assert.Equal(t, http.StatusNoContent, call(bob), "buckets are per user")

	now = now.Add(time.Second)
	assert.Equal(t, http.StatusNoContent, call(ann), "refilled")

	now = now.Add(2 * time.Minute)
	call(bob)
	l.mu.Lock()
	_, kept := l.visitors[ann.String()]
	l.mu.Unlock()
	assert.False(t, kept, "idle bucket evicted")
}
