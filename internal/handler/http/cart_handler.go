package http

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/vasiliy-maslov/educore/internal/cart"
	"github.com/vasiliy-maslov/educore/internal/course"
)

type AddToCartRequest struct {
	CourseID int64 `json:"course_id" validate:"required,gt=0"`
}

type CartResponse struct {
	Items    []course.Course `json:"items"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

type CartHandler struct {
	service  cart.Service
	validate *validator.Validate
}

func NewCartHandler(service cart.Service) *CartHandler {
	return &CartHandler{service: service, validate: newValidator()}
}

func (h *CartHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := currentUser(w, r)
	if !ok {
		return
	}
	items, err := h.service.GetCart(r.Context(), id.UserID)
	if err != nil {
		respondWithServiceError(w, r, err, "Failed to get cart")
		return
	}
	subtotal := decimal.Zero
	for _, c := range items {
		subtotal = subtotal.Add(c.Price)
	}
	respondWithJSON(w, http.StatusOK, CartResponse{Items: items, Subtotal: subtotal})
}

// handleAdd answers 201 when the course was added and 200 when it was already in the cart.
func (h *CartHandler) handleAdd(w http.ResponseWriter, r *http.Request) {
	id, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req AddToCartRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	added, err := h.service.Add(r.Context(), id.UserID, req.CourseID)
	if err != nil {
		respondWithServiceError(w, r, err, "Failed to add course to cart")
		return
	}
	code := http.StatusOK
	if added {
		code = http.StatusCreated
	}
	respondWithJSON(w, code, map[string]any{"course_id": req.CourseID, "added": added})
}

func (h *CartHandler) handleRemove(w http.ResponseWriter, r *http.Request) {
	id, ok := currentUser(w, r)
	if !ok {
		return
	}
	courseID, ok := parseInt64Param(w, r, "courseId")
	if !ok {
		return
	}

	removed, err := h.service.Remove(r.Context(), id.UserID, courseID)
	if err != nil {
		respondWithServiceError(w, r, err, "Failed to remove course from cart")
		return
	}
	if !removed {
		respondWithError(w, http.StatusNotFound, "Course is not in the cart")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CartHandler) handleClear(w http.ResponseWriter, r *http.Request) {
	id, ok := currentUser(w, r)
	if !ok {
		return
	}
	if err := h.service.Clear(r.Context(), id.UserID); err != nil {
		respondWithServiceError(w, r, err, "Failed to clear cart")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
