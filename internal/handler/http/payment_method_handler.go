package http

import (
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/vasiliy-maslov/educore/internal/paymentmethod"
)

type SavePaymentMethodRequest struct {
	CardNumber string `json:"card_number" validate:"required,numeric,min=12,max=19"`
	ExpMonth   int    `json:"exp_month" validate:"required,min=1,max=12"`
	ExpYear    int    `json:"exp_year" validate:"required,min=2000,max=2100"`
	IsDefault  bool   `json:"is_default"`
}

type PaymentMethodHandler struct {
	service  paymentmethod.Service
	validate *validator.Validate
}

func NewPaymentMethodHandler(service paymentmethod.Service) *PaymentMethodHandler {
	return &PaymentMethodHandler{service: service, validate: newValidator()}
}

func (h *PaymentMethodHandler) handleList(w http.ResponseWriter, r *http.Request) {
	id, ok := currentUser(w, r)
	if !ok {
		return
	}
	methods, err := h.service.List(r.Context(), id.UserID)
	if err != nil {
		respondWithServiceError(w, r, err, "Failed to list payment methods")
		return
	}
	respondWithJSON(w, http.StatusOK, methods)
}

func (h *PaymentMethodHandler) handleSave(w http.ResponseWriter, r *http.Request) {
	id, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req SavePaymentMethodRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	pm, err := h.service.Save(r.Context(), id.UserID, paymentmethod.SaveInput{
		CardNumber: req.CardNumber,
		ExpMonth:   req.ExpMonth,
		ExpYear:    req.ExpYear,
		IsDefault:  req.IsDefault,
	})
	if err != nil {
		respondWithServiceError(w, r, err, "Failed to save payment method")
		return
	}
	respondWithJSON(w, http.StatusCreated, pm)
}

func (h *PaymentMethodHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := currentUser(w, r)
	if !ok {
		return
	}
	methodID, ok := parseInt64Param(w, r, "id")
	if !ok {
		return
	}

	deleted, err := h.service.Delete(r.Context(), id.UserID, methodID)
	if err != nil {
		respondWithServiceError(w, r, err, "Failed to delete payment method")
		return
	}
	if !deleted {
		respondWithError(w, http.StatusNotFound, paymentmethod.ErrPaymentMethodNotFound.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
