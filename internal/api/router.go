package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/cors"

	mw "github.com/mnardelli/audimed/internal/api/middleware"
	"github.com/mnardelli/audimed/internal/api/response"
)

// Dependencies holds all handler and middleware dependencies for the router.
// RateLimit is optional: nil when no Redis is configured. A nil Logger falls
// back to slog.Default.
type Dependencies struct {
	Logger    *slog.Logger
	RateLimit *mw.RateLimit

	HealthHandler  http.HandlerFunc
	ProcessHandler http.HandlerFunc
	StatusHandler  http.HandlerFunc
}

// NewRouter builds the Chi router with middleware stack and all routes.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	// Global middleware. CORS stays wide open: the service has no auth and
	// browser frontends poll the job endpoints directly.
	r.Use(mw.Logger(deps.Logger))
	r.Use(mw.Recovery)
	r.Use(cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	}).Handler)

	r.Get("/health", orNotImplemented(deps.HealthHandler))

	r.Group(func(r chi.Router) {
		if deps.RateLimit != nil {
			r.Use(deps.RateLimit.Limit)
		}

		r.Post("/procesar", orNotImplemented(deps.ProcessHandler))
		r.Get("/estado/{jobID}", orNotImplemented(deps.StatusHandler))
	})

	return r
}

// orNotImplemented returns the handler if non-nil, or a 501 placeholder.
func orNotImplemented(h http.HandlerFunc) http.HandlerFunc {
	if h != nil {
		return h
	}
	return func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotImplemented, "NOT_IMPLEMENTED", "Endpoint not yet implemented", nil)
	}
}
