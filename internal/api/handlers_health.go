package api

import (
	"net/http"

	"github.com/iammorganparry/recall/internal/models"
	"github.com/iammorganparry/recall/internal/store"
)

type HealthHandler struct {
	db *store.DB
}

func NewHealthHandler(db *store.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

// Health handles GET /health.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	resp := models.HealthResponse{Status: "ok", DB: "ok"}

	count, err := h.db.MemoryCount()
	if err != nil {
		resp.Status = "degraded"
		resp.DB = err.Error()
	}
	resp.MemoryCount = count

	status := http.StatusOK
	if resp.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}
