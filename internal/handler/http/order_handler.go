package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/vasiliy-maslov/educore/internal/checkout"
	"github.com/vasiliy-maslov/educore/internal/order"
	"github.com/vasiliy-maslov/educore/internal/payment"
)

const idempotencyHeader = "Idempotency-Key"

type BillingRequest struct {
	Name    string `json:"name" validate:"max=200"`
	Email   string `json:"email" validate:"omitempty,email"`
	Address string `json:"address" validate:"max=255"`
	City    string `json:"city" validate:"max=100"`
	Country string `json:"country" validate:"max=100"`
}

type PaymentRequest struct {
	Method     string `json:"method" validate:"omitempty,oneof=card"`
	CardToken  string `json:"card_token" validate:"max=255"`
	CardNumber string `json:"card_number" validate:"omitempty,numeric,min=12,max=19"`
}

type CheckoutRequest struct {
	CourseIDs      []int64         `json:"course_ids" validate:"omitempty,dive,gt=0"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	Currency       string          `json:"currency" validate:"omitempty,len=3"`
	BillingInfo    BillingRequest  `json:"billing_info"`
	PaymentInfo    PaymentRequest  `json:"payment_info"`
	IdempotencyKey string          `json:"idempotency_key" validate:"max=100"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type OrderHandler struct {
	orders   order.Service
	checkout checkout.Service
	validate *validator.Validate
}

func NewOrderHandler(orders order.Service, checkoutSvc checkout.Service) *OrderHandler {
	return &OrderHandler{orders: orders, checkout: checkoutSvc, validate: newValidator()}
}

// checkoutStatus maps a checkout outcome to a status code. Declined payments are a normal result
// and answer 200 with success=false.
func checkoutStatus(err error) int {
	switch {
	case err == nil, errors.Is(err, payment.ErrPaymentDeclined):
		return http.StatusOK
	case errors.Is(err, checkout.ErrDuplicateRequest):
		return http.StatusConflict
	case checkout.IsValidationError(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (h *OrderHandler) handleCheckout(w http.ResponseWriter, r *http.Request) {
	id, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req CheckoutRequest
	if !h.decodeCheckout(w, r, &req) {
		return
	}

	key := strings.TrimSpace(r.Header.Get(idempotencyHeader))
	if key == "" {
		key = req.IdempotencyKey
	}

	res, err := h.checkout.Checkout(r.Context(), id.UserID, checkout.Request{
		CourseIDs:   req.CourseIDs,
		TotalAmount: req.TotalAmount,
		Currency:    req.Currency,
		Billing: order.Billing{
			Name:    req.BillingInfo.Name,
			Email:   req.BillingInfo.Email,
			Address: req.BillingInfo.Address,
			City:    req.BillingInfo.City,
			Country: req.BillingInfo.Country,
		},
		Payment: checkout.PaymentInfo{
			Method:     req.PaymentInfo.Method,
			CardToken:  req.PaymentInfo.CardToken,
			CardNumber: req.PaymentInfo.CardNumber,
		},
		IdempotencyKey: key,
	})
	code := checkoutStatus(err)
	if err != nil && code != http.StatusInternalServerError {
		log.Warn().Err(err).Stringer("user_id", id.UserID).Int("status", code).Msg("Checkout did not complete")
	}
	respondWithJSON(w, code, res)
}

type CheckoutValidationResponse struct {
	checkout.Result
	Details map[string]string `json:"details,omitempty"`
}

// decodeCheckout rejects bad input with the checkout result shape (success=false) instead of the
// generic error body.
func (h *OrderHandler) decodeCheckout(w http.ResponseWriter, r *http.Request, req *CheckoutRequest) bool {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(req); err != nil {
		log.Warn().Err(err).Msg("Failed to decode checkout request")
		respondWithJSON(w, http.StatusBadRequest, checkout.Result{Message: "Invalid request payload"})
		return false
	}

	if err := h.validate.Struct(req); err != nil {
		var validationErrors validator.ValidationErrors
		if !errors.As(err, &validationErrors) {
			log.Error().Err(err).Type("validation_error_type", err).Msg("Unexpected error type during validation")
			respondWithJSON(w, http.StatusInternalServerError, checkout.Result{Message: "Internal validation error"})
			return false
		}
		respondWithJSON(w, http.StatusBadRequest, CheckoutValidationResponse{
			Result:  checkout.Result{Message: "Validation failed"},
			Details: formatValidationErrors(validationErrors),
		})
		return false
	}

	if req.TotalAmount.IsNegative() {
		respondWithJSON(w, http.StatusBadRequest, checkout.Result{Message: "total_amount must not be negative"})
		return false
	}
	return true
}

func (h *OrderHandler) handleMyOrders(w http.ResponseWriter, r *http.Request) {
	id, ok := currentUser(w, r)
	if !ok {
		return
	}
	orders, err := h.orders.ListByUser(r.Context(), id.UserID)
	if err != nil {
		respondWithServiceError(w, r, err, "Failed to list orders")
		return
	}
	respondWithJSON(w, http.StatusOK, orders)
}

func (h *OrderHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := currentUser(w, r)
	if !ok {
		return
	}
	orderID, ok := parseInt64Param(w, r, "id")
	if !ok {
		return
	}

	o, err := h.orders.GetOrder(r.Context(), order.Requester{UserID: id.UserID, IsAdmin: id.IsAdmin()}, orderID)
	if err != nil {
		respondWithServiceError(w, r, err, "Failed to get order")
		return
	}
	respondWithJSON(w, http.StatusOK, o)
}

func (h *OrderHandler) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	orderID, ok := parseInt64Param(w, r, "id")
	if !ok {
		return
	}
	var req UpdateStatusRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	if err := h.orders.UpdateStatus(r.Context(), orderID, order.OrderStatus(req.Status)); err != nil {
		respondWithServiceError(w, r, err, "Failed to update order status")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]any{"id": orderID, "status": req.Status})
}
