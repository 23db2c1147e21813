package web

import (
	"github.com/go-chi/chi/v5"
	"github.com/kozaktomas/face-registry/internal/database"
	"github.com/kozaktomas/face-registry/internal/registry"
	"github.com/kozaktomas/face-registry/internal/stats"
	"github.com/kozaktomas/face-registry/internal/web/handlers"
)

func (s *Server) setupRoutes(reg *registry.Registry, store database.SubjectWriter, counter *stats.Counter) {
	subjectsHandler := handlers.NewSubjectsHandler(s.config, reg, store)
	statsHandler := handlers.NewStatsHandler(counter, store)

	// Health check
	s.router.Get("/api/v1/health", handlers.HealthCheck)

	// API routes
	s.router.Route("/api/v1", func(r chi.Router) {
		// Subjects
		r.Post("/subjects", subjectsHandler.Register)
		r.Post("/subjects/verify", subjectsHandler.Verify)
		r.Get("/subjects", subjectsHandler.List)
		r.Get("/subjects/{id}", subjectsHandler.Get)
		r.Delete("/subjects/{id}", subjectsHandler.Delete)

		// Stats
		r.Get("/stats", statsHandler.Get)
		r.Get("/stats/detailed", statsHandler.GetDetailed)
		r.Post("/stats/reset", statsHandler.Reset)
	})
}
