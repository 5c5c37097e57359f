package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"commoni-api/internal/config"
	"commoni-api/internal/handler"
	"commoni-api/internal/middleware"
)

type Handlers struct {
	Auth   *handler.AuthHandler
	User   *handler.UserHandler
	Health *handler.HealthHandler
}

func New(cfg *config.Config, authMiddleware *middleware.AuthMiddleware, h Handlers) http.Handler {
	r := chi.NewRouter()
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(cfg.RateLimitRPM, cfg.AuthRateLimitRPM)

	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.SecurityHeaders)
	r.Use(rateLimitMiddleware.Handler)

	r.Get("/health", h.Health.Live)
	r.Get("/health/ready", h.Health.Ready)

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(middleware.Timeout(cfg.RequestTimeout))

		api.Route("/auth", func(auth chi.Router) {
			auth.Post("/login", h.Auth.Login)
			auth.Post("/refresh", h.Auth.Refresh)
			auth.With(authMiddleware.RequireAuth).Get("/me", h.Auth.Me)
			auth.With(authMiddleware.RequireAuth).Post("/permanent", h.Auth.Permanent)
		})

		api.Route("/users", func(users chi.Router) {
			users.Post("/", h.User.Create)

			users.Group(func(self chi.Router) {
				self.Use(authMiddleware.RequireAuth)
				self.Get("/{id}", h.User.Get)
				self.Get("/{id}/status", h.User.Status)
				self.Patch("/{id}", h.User.Update)
				self.Delete("/{id}", h.User.Delete)
			})
		})
	})

	return r
}
