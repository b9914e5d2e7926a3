package handlers

import (
	"net/http"

	"github.com/hairizuan-noorazman/testcase-archive/database"
	"gorm.io/gorm"
)

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status string `json:"status"`
}

// HealthHandler reports service liveness including database reachability.
type HealthHandler struct {
	db *gorm.DB
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(db *gorm.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

// Handler handles health check requests.
func (h *HealthHandler) Handler(w http.ResponseWriter, r *http.Request) {
	if err := database.Ping(h.db); err != nil {
		respondJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "degraded"})
		return
	}
	respondJSON(w, http.StatusOK, HealthResponse{Status: "healthy"})
}
