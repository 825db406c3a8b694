package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iammorganparry/recall/internal/memory"
	"github.com/iammorganparry/recall/internal/models"
)

type ProjectHandler struct {
	svc *memory.Service
}

func NewProjectHandler(svc *memory.Service) *ProjectHandler {
	return &ProjectHandler{svc: svc}
}

// Create handles POST /projects.
func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateProjectRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	id, err := h.svc.CreateProject(&req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

// List handles GET /projects.
func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	projects, err := h.svc.ListProjects()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if projects == nil {
		projects = []models.Project{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"projects": projects})
}

// Get handles GET /projects/{code}.
func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	p, err := h.svc.GetProjectByCode(code)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if p == nil {
		writeError(w, http.StatusNotFound, "project not found")
		return
	}

	writeJSON(w, http.StatusOK, p)
}

// Stats handles GET /projects/{code}/stats.
func (h *ProjectHandler) Stats(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	p, err := h.svc.GetProjectByCode(code)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if p == nil {
		writeError(w, http.StatusNotFound, "project not found")
		return
	}

	stats, err := h.svc.ProjectStats(p.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}
