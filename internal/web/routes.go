package web

import (
	"github.com/go-chi/chi/v5"
	"github.com/kozaktomas/face-registry/internal/web/handlers"
	"github.com/kozaktomas/face-registry/internal/web/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) setupRoutes() {
	facesHandler := handlers.NewFacesHandler(s.service)
	usersHandler := handlers.NewUsersHandler(s.service)

	s.router.Get("/api/v1/health", handlers.HealthCheck)
	s.router.Handle("/metrics", promhttp.Handler())

	s.router.Route("/api/v1", func(r chi.Router) {
		// Decisions
		r.Group(func(r chi.Router) {
			if s.config.Web.RateLimit > 0 {
				r.Use(middleware.NewRateLimiter(s.config.Web.RateLimit, s.config.Web.RateBurst).Handler)
			}
			r.Post("/face/check", facesHandler.Check)
			r.Post("/face/verify", facesHandler.Verify)
			r.Post("/face/register", facesHandler.Register)
			r.Post("/face/neighbors", facesHandler.Neighbors)
		})

		// Users
		r.Get("/users", usersHandler.List)
		r.Delete("/users/{name}", usersHandler.Delete)
	})
}
