package api

import (
	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/iammorganparry/recall/internal/memory"
	"github.com/iammorganparry/recall/internal/store"
)

// NewRouter creates the chi router with all routes and middleware.
func NewRouter(db *store.DB, svc *memory.Service, apiKey string, logger *slog.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(CORS)
	r.Use(RequestID)
	r.Use(Logger(logger))
	r.Use(Recovery(logger))

	healthH := NewHealthHandler(db)
	memoryH := NewMemoryHandler(svc)
	projectH := NewProjectHandler(svc)

	r.Get("/health", healthH.Health)

	r.Group(func(r chi.Router) {
		r.Use(BearerAuth(apiKey))

		r.Route("/projects", func(r chi.Router) {
			r.Get("/", projectH.List)
			r.Post("/", projectH.Create)
			r.Get("/{code}", projectH.Get)
			r.Get("/{code}/stats", projectH.Stats)
		})

		r.Route("/memories", func(r chi.Router) {
			r.Get("/", memoryH.List)
			r.Post("/", memoryH.Store)
			r.Post("/search", memoryH.Search)
			r.Post("/purge-expired", memoryH.PurgeExpired)
			r.Get("/{id}", memoryH.Get)
			r.Patch("/{id}", memoryH.Update)
			r.Delete("/{id}", memoryH.Delete)
		})
	})

	return r
}
