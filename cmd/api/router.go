package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/zyora-ai/site/internal/config"
	"github.com/zyora-ai/site/internal/handler"
	"github.com/zyora-ai/site/internal/middleware"
	"github.com/zyora-ai/site/pkg/logger"
)

type handlers struct {
	health  *handler.HealthHandler
	chat    *handler.ChatHandler
	contact *handler.ContactHandler
	leads   *handler.LeadsHandler
}

func newRouter(cfg *config.Config, h handlers, log *logger.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(middleware.SecurityHeaders)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))

	// Health endpoints (no auth required)
	r.Get("/health", h.health.Health)
	r.Get("/ready", h.health.Ready)

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/functions/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWTSecret))
		r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

		r.Post("/chat", h.chat.Chat)
		r.Post("/send-contact-email", h.contact.Send)

		r.With(middleware.RequireRole(middleware.RoleService)).Get("/leads", h.leads.List)
	})

	return r
}
