package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/iammorganparry/recall/internal/memory"
	"github.com/iammorganparry/recall/internal/models"
	"github.com/iammorganparry/recall/internal/store"
)

type MemoryHandler struct {
	svc *memory.Service
}

func NewMemoryHandler(svc *memory.Service) *MemoryHandler {
	return &MemoryHandler{svc: svc}
}

// Store handles POST /memories.
func (h *MemoryHandler) Store(w http.ResponseWriter, r *http.Request) {
	var req models.StoreRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	id, err := h.svc.Store(&req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, models.StoreResponse{ID: id})
}

// Search handles POST /memories/search. Raw query text is escaped here,
// at the caller side of the search contract, so user input can never be
// parsed as FTS5 operator syntax.
func (h *MemoryHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req models.SearchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}
	if req.K == 0 {
		req.K = memory.DefaultK
	}
	req.Query = store.EscapeMatch(req.Query)

	resp, err := h.svc.Search(&req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Get handles GET /memories/{id}.
func (h *MemoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	mem, err := h.svc.GetByID(id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if mem == nil {
		writeError(w, http.StatusNotFound, "memory not found")
		return
	}

	writeJSON(w, http.StatusOK, mem)
}

// Update handles PATCH /memories/{id}.
func (h *MemoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req models.UpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	mem, err := h.svc.Update(id, &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, mem)
}

// Delete handles DELETE /memories/{id}.
func (h *MemoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	if err := h.svc.Delete(id); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// List handles GET /memories.
func (h *MemoryHandler) List(w http.ResponseWriter, r *http.Request) {
	projectID, _ := strconv.ParseInt(r.URL.Query().Get("project_id"), 10, 64)
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	req := &models.ListRequest{
		ProjectID: projectID,
		Kind:      models.Kind(r.URL.Query().Get("kind")),
		Page:      page,
		Limit:     limit,
		Sort:      r.URL.Query().Get("sort"),
		Order:     r.URL.Query().Get("order"),
	}
	if pinned := r.URL.Query().Get("pinned"); pinned != "" {
		b, err := strconv.ParseBool(pinned)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid pinned filter")
			return
		}
		req.Pinned = &b
	}

	if req.ProjectID <= 0 {
		writeError(w, http.StatusBadRequest, "project_id is required")
		return
	}

	resp, err := h.svc.List(req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// PurgeExpired handles POST /memories/purge-expired.
func (h *MemoryHandler) PurgeExpired(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.PurgeExpired()
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int64{"purged": n})
}
