package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fortipass/fortipass-go/internal/middleware"
)

// RouterConfig holds what the router needs besides the handlers.
type RouterConfig struct {
	SigningKey     []byte
	RateLimitRPS   float64
	RateLimitBurst int
}

// NewRouter wires the HTTP front end. history may be nil, in which case the
// history route is not registered. ctx bounds background work such as the
// rate limiter sweeper.
func NewRouter(ctx context.Context, cfg RouterConfig, gen *GeneratorHandler, history *HistoryHandler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.SessionAuth(cfg.SigningKey))

		r.With(middleware.RateLimit(ctx, cfg.RateLimitRPS, cfg.RateLimitBurst)).
			Post("/api/v1/generate", gen.HandleGenerate)
		r.Post("/api/v1/strength", gen.HandleStrength)

		if history != nil {
			r.Get("/api/v1/history", history.HandleListHistory)
		}
	})

	return r
}
