package http

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"

	"github.com/vasiliy-maslov/educore/internal/auth"
	"github.com/vasiliy-maslov/educore/internal/user"
)

type RegisterRequest struct {
	FirstName string `json:"first_name" validate:"required,min=2,max=100"`
	LastName  string `json:"last_name" validate:"required,min=2,max=100"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8,max=72"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	Role      user.Role `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

type SessionResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

func toSessionResponse(s *auth.Session) SessionResponse {
	return SessionResponse{
		Token: s.Token,
		User: UserResponse{
			ID:        s.User.ID,
			FirstName: s.User.FirstName,
			LastName:  s.User.LastName,
			Email:     s.User.Email,
			Role:      s.User.Role,
			CreatedAt: s.User.CreatedAt,
		},
	}
}

type AuthHandler struct {
	service  auth.Service
	validate *validator.Validate
}

func NewAuthHandler(service auth.Service) *AuthHandler {
	return &AuthHandler{service: service, validate: newValidator()}
}

func (h *AuthHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	session, err := h.service.Register(r.Context(), auth.RegisterInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
	})
	if err != nil {
		respondWithServiceError(w, r, err, "Failed to register user")
		return
	}
	respondWithJSON(w, http.StatusCreated, toSessionResponse(session))
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	session, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondWithServiceError(w, r, err, "Failed to log in")
		return
	}
	respondWithJSON(w, http.StatusOK, toSessionResponse(session))
}
