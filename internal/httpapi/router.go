package httpapi

import (
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
)

// NewRouter builds the chi router exposing the read-only picks/metrics/health
// surface and the administrative run-once/retrain endpoints, grounded on
// XavierBriggs-Services/api-gateway's cmd/api-gateway/main.go router
// assembly (RequestID/RealIP/Recoverer/Timeout middleware stack, CORS, a
// flat route table).
func NewRouter(h *Handler, log zerolog.Logger, corsOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger(log))
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", h.HealthCheck)

	r.Get("/picks/today", h.GetPicksToday)
	r.Get("/picks/{id}", h.GetPickByID)
	r.Get("/metrics/clv", h.GetCLVMetrics)

	r.Route("/admin", func(r chi.Router) {
		r.Post("/retrain", h.Retrain)
		r.Post("/run-once", h.RunOnce)
	})

	return r
}
