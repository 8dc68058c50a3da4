package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"

	"github.com/vasiliy-maslov/educore/internal/auth"
	"github.com/vasiliy-maslov/educore/internal/checkout"
	"github.com/vasiliy-maslov/educore/internal/course"
	"github.com/vasiliy-maslov/educore/internal/enrollment"
	"github.com/vasiliy-maslov/educore/internal/order"
	"github.com/vasiliy-maslov/educore/internal/payment"
	"github.com/vasiliy-maslov/educore/internal/paymentmethod"
	"github.com/vasiliy-maslov/educore/internal/user"
)

type ValidationErrorResponse struct {
	Error   string            `json:"error"`
	Details map[string]string `json:"details"`
}

// respondWithError отправляет JSON ошибку
func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

// respondWithJSON отправляет JSON ответ
func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal JSON response")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"Failed to marshal JSON response"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(response); err != nil {
		log.Error().Err(err).Msg("Failed to write JSON response")
	}
}

func mapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, user.ErrNotFound),
		errors.Is(err, course.ErrCourseNotFound),
		errors.Is(err, order.ErrOrderNotFound),
		errors.Is(err, enrollment.ErrEnrollmentNotFound),
		errors.Is(err, paymentmethod.ErrPaymentMethodNotFound),
		errors.Is(err, payment.ErrPaymentNotFound):
		return http.StatusNotFound
	case errors.Is(err, user.ErrEmailExists),
		errors.Is(err, enrollment.ErrAlreadyEnrolled),
		errors.Is(err, course.ErrCourseLocked),
		errors.Is(err, checkout.ErrDuplicateRequest),
		errors.Is(err, order.ErrOrderInProgress):
		return http.StatusConflict
	case errors.Is(err, user.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, order.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, enrollment.ErrInvalidProgress),
		errors.Is(err, checkout.ErrEmptyCart),
		errors.Is(err, checkout.ErrTotalMismatch),
		errors.Is(err, checkout.ErrUnsupportedCurrency),
		errors.Is(err, order.ErrInvalidStatus),
		errors.Is(err, order.ErrInvalidStatusTransition),
		errors.Is(err, course.ErrInvalidCourse),
		errors.Is(err, paymentmethod.ErrInvalidCard):
		return http.StatusBadRequest
	case errors.Is(err, payment.ErrPaymentDeclined):
		return http.StatusPaymentRequired
	default:
		return http.StatusInternalServerError
	}
}

// respondWithServiceError maps err to a status. Internal errors are logged and hidden behind
// fallback; domain errors are returned as-is.
func respondWithServiceError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	code := mapErrorToStatusCode(err)
	if code == http.StatusInternalServerError {
		log.Error().Err(err).Str("path", r.URL.Path).Msg(fallback)
		respondWithError(w, code, fallback)
		return
	}
	log.Warn().Err(err).Str("path", r.URL.Path).Int("status", code).Msg("Request rejected")
	respondWithError(w, code, err.Error())
}

func formatValidationErrors(errs validator.ValidationErrors) map[string]string {
	details := make(map[string]string, len(errs))
	for _, fe := range errs {
		field := fe.Field()
		switch fe.Tag() {
		case "required":
			details[field] = "This field is required"
		case "email":
			details[field] = "Invalid email format"
		case "min":
			details[field] = fmt.Sprintf("Must be at least %s", fe.Param())
		case "max":
			details[field] = fmt.Sprintf("Must be at most %s", fe.Param())
		case "oneof":
			details[field] = fmt.Sprintf("Must be one of: %s", fe.Param())
		case "gt":
			details[field] = fmt.Sprintf("Must be greater than %s", fe.Param())
		default:
			details[field] = fmt.Sprintf("Failed on the '%s' rule", fe.Tag())
		}
	}
	return details
}

// newValidator reports JSON field names in validation details.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// decodeAndValidate writes the error response itself and returns false when the body is unusable.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, v *validator.Validate, dst any) bool {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		log.Warn().Err(err).Str("path", r.URL.Path).Msg("Failed to decode request body")
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return false
	}

	if err := v.Struct(dst); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			respondWithJSON(w, http.StatusBadRequest, ValidationErrorResponse{
				Error:   "Validation failed",
				Details: formatValidationErrors(validationErrors),
			})
		} else {
			log.Error().Err(err).Type("validation_error_type", err).Msg("Unexpected error type during validation")
			respondWithError(w, http.StatusInternalServerError, "Internal validation error")
		}
		return false
	}
	return true
}

func parseInt64Param(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		log.Warn().Str(name, raw).Msg("Failed to parse id parameter from URL")
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Invalid %s parameter", name))
		return 0, false
	}
	return id, true
}

// currentUser is only called behind auth.Authenticate.
func currentUser(w http.ResponseWriter, r *http.Request) (auth.Identity, bool) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok || id.UserID == uuid.Nil {
		respondWithError(w, http.StatusUnauthorized, "Missing bearer token")
		return auth.Identity{}, false
	}
	return id, true
}
