package http

import (
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/vasiliy-maslov/educore/internal/course"
)

type CourseRequest struct {
	Title        string           `json:"title" validate:"required,max=255"`
	Description  string           `json:"description"`
	Price        *decimal.Decimal `json:"price" validate:"required"`
	CategoryID   *int64           `json:"category_id" validate:"omitempty,gt=0"`
	InstructorID *int64           `json:"instructor_id" validate:"omitempty,gt=0"`
}

func (req CourseRequest) toCourse(id int64) *course.Course {
	return &course.Course{
		ID:           id,
		Title:        req.Title,
		Description:  req.Description,
		Price:        *req.Price,
		CategoryID:   req.CategoryID,
		InstructorID: req.InstructorID,
	}
}

type CourseHandler struct {
	service  course.Service
	validate *validator.Validate
}

func NewCourseHandler(service course.Service) *CourseHandler {
	return &CourseHandler{service: service, validate: newValidator()}
}

func (h *CourseHandler) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := course.Filter{Search: q.Get("search")}

	if v := q.Get("category_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid category_id parameter")
			return
		}
		filter.CategoryID = &id
	}
	for name, dst := range map[string]*int{"page": &filter.Page, "page_size": &filter.PageSize} {
		if v := q.Get(name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				respondWithError(w, http.StatusBadRequest, "Invalid "+name+" parameter")
				return
			}
			*dst = n
		}
	}

	page, err := h.service.List(r.Context(), filter)
	if err != nil {
		respondWithServiceError(w, r, err, "Failed to list courses")
		return
	}
	respondWithJSON(w, http.StatusOK, page)
}

func (h *CourseHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := parseInt64Param(w, r, "id")
	if !ok {
		return
	}
	c, err := h.service.Get(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, r, err, "Failed to get course")
		return
	}
	respondWithJSON(w, http.StatusOK, c)
}

func (h *CourseHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req CourseRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}
	created, err := h.service.Create(r.Context(), req.toCourse(0))
	if err != nil {
		respondWithServiceError(w, r, err, "Failed to create course")
		return
	}
	log.Info().Int64("course_id", created.ID).Msg("Course created")
	respondWithJSON(w, http.StatusCreated, created)
}

func (h *CourseHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := parseInt64Param(w, r, "id")
	if !ok {
		return
	}
	var req CourseRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}
	updated, err := h.service.Update(r.Context(), req.toCourse(id))
	if err != nil {
		respondWithServiceError(w, r, err, "Failed to update course")
		return
	}
	respondWithJSON(w, http.StatusOK, updated)
}

func (h *CourseHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseInt64Param(w, r, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		respondWithServiceError(w, r, err, "Failed to delete course")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
