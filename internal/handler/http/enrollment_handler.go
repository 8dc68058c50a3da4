package http

import (
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/vasiliy-maslov/educore/internal/enrollment"
)

type EnrollRequest struct {
	CourseID int64 `json:"course_id" validate:"required,gt=0"`
}

type ProgressRequest struct {
	ProgressPercentage *float64 `json:"progress_percentage" validate:"required"`
	IsCompleted        bool     `json:"is_completed"`
}

type EnrollmentHandler struct {
	service  enrollment.Service
	validate *validator.Validate
}

func NewEnrollmentHandler(service enrollment.Service) *EnrollmentHandler {
	return &EnrollmentHandler{service: service, validate: newValidator()}
}

func (h *EnrollmentHandler) handleEnroll(w http.ResponseWriter, r *http.Request) {
	id, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req EnrollRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	e, err := h.service.Enroll(r.Context(), id.UserID, req.CourseID)
	if err != nil {
		respondWithServiceError(w, r, err, "Failed to enroll")
		return
	}
	respondWithJSON(w, http.StatusCreated, e)
}

func (h *EnrollmentHandler) handleMyCourses(w http.ResponseWriter, r *http.Request) {
	id, ok := currentUser(w, r)
	if !ok {
		return
	}
	enrollments, err := h.service.MyCourses(r.Context(), id.UserID)
	if err != nil {
		respondWithServiceError(w, r, err, "Failed to list enrollments")
		return
	}
	respondWithJSON(w, http.StatusOK, enrollments)
}

func (h *EnrollmentHandler) handleGetProgress(w http.ResponseWriter, r *http.Request) {
	id, ok := currentUser(w, r)
	if !ok {
		return
	}
	courseID, ok := parseInt64Param(w, r, "courseId")
	if !ok {
		return
	}
	e, err := h.service.GetProgress(r.Context(), id.UserID, courseID)
	if err != nil {
		respondWithServiceError(w, r, err, "Failed to get progress")
		return
	}
	respondWithJSON(w, http.StatusOK, e)
}

func (h *EnrollmentHandler) handleUpdateProgress(w http.ResponseWriter, r *http.Request) {
	id, ok := currentUser(w, r)
	if !ok {
		return
	}
	courseID, ok := parseInt64Param(w, r, "courseId")
	if !ok {
		return
	}
	var req ProgressRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	e, err := h.service.UpdateProgress(r.Context(), id.UserID, courseID, *req.ProgressPercentage, req.IsCompleted)
	if err != nil {
		respondWithServiceError(w, r, err, "Failed to update progress")
		return
	}
	respondWithJSON(w, http.StatusOK, e)
}
