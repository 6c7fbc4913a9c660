package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/atinyakov/teamsync/internal/middleware"
	"github.com/atinyakov/teamsync/internal/models"
	"github.com/atinyakov/teamsync/internal/remote"
)

// RouterDeps carries the collaborators of NewRouter. Limiter and Metrics
// are optional.
type RouterDeps struct {
	Auth     *AuthHandler
	Board    *BoardHandler
	Sessions middleware.SessionResolver
	Limiter  *middleware.RateLimiter
	Metrics  *middleware.Metrics
	Gatherer prometheus.Gatherer
	Logger   *zap.Logger
}

// NewRouter constructs and returns an HTTP handler that serves
// the workspace API.
//
// Routes:
//
//	POST   /api/register            → Auth.Register
//	GET    /api/me                  → Auth.Me
//	GET    /api/{collection}        → list
//	POST   /api/{collection}        → create
//	PUT    /api/{collection}/{id}   → update
//	DELETE /api/{collection}/{id}   → delete
//	GET    /metrics                 → Prometheus exposition
//
// Collections are tasks, contacts, members and messages; any other name
// answers 404 with code schema_missing.
//
// Middleware chain (applied in order):
//  1. AllowContentType("application/json"), rejecting non-JSON bodies
//  2. WithRequestLogging(logger)
//  3. Metrics, when configured
//  4. SessionAuth, resolving the bearer token to a login
//  5. RateLimiter, when configured, keyed by login
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.AllowContentType("application/json"))
	r.Use(middleware.WithRequestLogging(deps.Logger))
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Middleware)
	}
	r.Use(middleware.SessionAuth(deps.Sessions, deps.Logger))
	if deps.Limiter != nil {
		r.Use(deps.Limiter.Middleware)
	}

	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Post("/register", deps.Auth.Register)
		r.Get("/me", deps.Auth.Me)

		r.Route("/"+remote.CollectionName(models.KindTasks), deps.Board.Tasks.mount)
		r.Route("/"+remote.CollectionName(models.KindContacts), deps.Board.Contacts.mount)
		r.Route("/"+remote.CollectionName(models.KindMembers), deps.Board.Members.mount)
		r.Route("/"+remote.CollectionName(models.KindMessages), deps.Board.Messages.mount)

		r.HandleFunc("/{collection}", unknownCollection)
		r.HandleFunc("/{collection}/{id}", unknownCollection)
	})

	return r
}
