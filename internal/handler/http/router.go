package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/vasiliy-maslov/educore/internal/auth"
	"github.com/vasiliy-maslov/educore/internal/cart"
	"github.com/vasiliy-maslov/educore/internal/checkout"
	"github.com/vasiliy-maslov/educore/internal/course"
	"github.com/vasiliy-maslov/educore/internal/dashboard"
	"github.com/vasiliy-maslov/educore/internal/enrollment"
	"github.com/vasiliy-maslov/educore/internal/order"
	"github.com/vasiliy-maslov/educore/internal/paymentmethod"
)

type Services struct {
	Tokens         *auth.TokenManager
	Auth           auth.Service
	Courses        course.Service
	Cart           cart.Service
	Orders         order.Service
	Checkout       checkout.Service
	Enrollments    enrollment.Service
	PaymentMethods paymentmethod.Service
	Dashboard      dashboard.Service
	// CheckoutLimiter throttles POST /orders/checkout; nil disables it.
	CheckoutLimiter *RateLimiter
}

func NewRouter(s Services) http.Handler {
	authH := NewAuthHandler(s.Auth)
	courseH := NewCourseHandler(s.Courses)
	cartH := NewCartHandler(s.Cart)
	orderH := NewOrderHandler(s.Orders, s.Checkout)
	enrollH := NewEnrollmentHandler(s.Enrollments)
	pmH := NewPaymentMethodHandler(s.PaymentMethods)
	dashH := NewDashboardHandler(s.Dashboard)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(RequestLogger)
	router.Use(middleware.Recoverer)

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	router.Post("/auth/register", authH.handleRegister)
	router.Post("/auth/login", authH.handleLogin)
	router.Get("/courses", courseH.handleList)
	router.Get("/courses/{id}", courseH.handleGet)

	router.Group(func(r chi.Router) {
		r.Use(auth.Authenticate(s.Tokens))

		r.Get("/cart", cartH.handleGet)
		r.Post("/cart", cartH.handleAdd)
		r.Delete("/cart", cartH.handleClear)
		r.Delete("/cart/{courseId}", cartH.handleRemove)

		checkoutHandler := http.Handler(http.HandlerFunc(orderH.handleCheckout))
		if s.CheckoutLimiter != nil {
			checkoutHandler = s.CheckoutLimiter.Middleware(checkoutHandler)
		}
		r.Method(http.MethodPost, "/orders/checkout", checkoutHandler)
		r.Get("/orders/my-orders", orderH.handleMyOrders)
		r.Get("/orders/{id}", orderH.handleGet)

		r.Post("/enrollments", enrollH.handleEnroll)
		r.Get("/enrollments/my-courses", enrollH.handleMyCourses)
		r.Get("/enrollments/{courseId}/progress", enrollH.handleGetProgress)
		r.Put("/enrollments/{courseId}/progress", enrollH.handleUpdateProgress)

		r.Get("/payment-methods", pmH.handleList)
		r.Post("/payment-methods", pmH.handleSave)
		r.Delete("/payment-methods/{id}", pmH.handleDelete)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAdmin)

			r.Put("/orders/{id}/status", orderH.handleUpdateStatus)
			r.Post("/courses", courseH.handleCreate)
			r.Put("/courses/{id}", courseH.handleUpdate)
			r.Delete("/courses/{id}", courseH.handleDelete)
			r.Get("/admin/dashboard", dashH.handleStats)
		})
	})

	return router
}
