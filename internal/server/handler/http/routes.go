package http

import (
	"net/http"

	"github.com/atinyakov/GophNotes/internal/metrics"
	"github.com/atinyakov/GophNotes/internal/middleware"
	"go.uber.org/zap"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// NewRouter constructs and returns an HTTP handler that serves
// the GophNotes API.
//
// Parameters:
//
//	authHandler  - handler for registration, login and identity endpoints
//	noteHandler  - handler for the note endpoints
//	logger       - structured logger for request logging middleware
//	m            - Prometheus metrics; nil disables /metrics
//
// Routes:
//
//	GET    /                    → Welcome
//	GET    /metrics             → Prometheus exposition
//	GET    /api/health          → Health
//	POST   /api/auth/register   → authHandler.Register
//	POST   /api/auth/login      → authHandler.Login
//	GET    /api/auth/me         → authHandler.Me       (bearer)
//	POST   /api/notes           → noteHandler.Create   (bearer)
//	GET    /api/notes           → noteHandler.List     (bearer)
//	GET    /api/notes/{id}      → noteHandler.Get      (bearer)
//	PUT    /api/notes/{id}      → noteHandler.Update   (bearer)
//	DELETE /api/notes/{id}      → noteHandler.Delete   (bearer)
func NewRouter(
	authHandler *AuthHandler,
	noteHandler *NoteHandler,
	logger *zap.Logger,
	m *metrics.Metrics,
) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.Recoverer)
	r.Use(m.Middleware)
	r.Use(middleware.WithRequestLogging(logger))

	// Bodies, when present, must be JSON.
	r.Use(chiMiddleware.AllowContentType("application/json"))

	r.Get("/", Welcome)
	if m != nil {
		r.Method(http.MethodGet, "/metrics", m.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", Health)

		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)

		// Protected group: requires a valid bearer token
		r.Group(func(r chi.Router) {
			r.Use(middleware.BearerAuth(authHandler.AuthService, logger, m))

			r.Get("/auth/me", authHandler.Me)

			r.Route("/notes", func(r chi.Router) {
				r.Post("/", noteHandler.Create)
				r.Get("/", noteHandler.List)
				r.Get("/{id}", noteHandler.Get)
				r.Put("/{id}", noteHandler.Update)
				r.Delete("/{id}", noteHandler.Delete)
			})
		})
	})

	return r
}
