package http

import (
	"net/http"

	"github.com/vasiliy-maslov/educore/internal/dashboard"
)

type DashboardHandler struct {
	service dashboard.Service
}

func NewDashboardHandler(service dashboard.Service) *DashboardHandler {
	return &DashboardHandler{service: service}
}

func (h *DashboardHandler) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		respondWithServiceError(w, r, err, "Failed to load dashboard")
		return
	}
	respondWithJSON(w, http.StatusOK, stats)
}
