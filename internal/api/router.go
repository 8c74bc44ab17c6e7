package api

import (
	"net/http"

	"github.com/rs/zerolog"
	"github.com/zeelus/server/internal/api/handlers"
	"github.com/zeelus/server/internal/api/middleware"
	"github.com/zeelus/server/internal/api/problem"
	"github.com/zeelus/server/internal/auth"
	"github.com/zeelus/server/internal/config"
	"github.com/zeelus/server/internal/domain/bookings"
	"github.com/zeelus/server/internal/domain/events"
	"github.com/zeelus/server/internal/domain/users"
	"github.com/zeelus/server/internal/metrics"
)

// Deps is everything the HTTP surface is built from. The caller owns the
// lifecycle of the pool, the limiter and the notifier.
type Deps struct {
	Config    config.Config
	Logger    zerolog.Logger
	Users     *users.Service
	Events    *events.Service
	Bookings  *bookings.Service
	Tokens    *auth.TokenService
	Notifier  handlers.Notifier
	Limiter   *middleware.RateLimiter
	DB        handlers.Pinger
	Version   string
	GitCommit string
	BuildDate string
}

// NewRouter registers every route and wraps the mux in the middleware
// chain. Metrics sit directly around the mux so the matched route pattern
// is visible when the request is labelled.
func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	env := cfg.Environment

	authHandler := handlers.NewAuthHandler(deps.Users, deps.Tokens, deps.Notifier, handlers.CookieConfig{
		ExpiryDays: cfg.Auth.CookieExpiryDays,
		Secure:     cfg.IsProduction(),
	}, env)
	eventsHandler := handlers.NewEventsHandler(deps.Events, deps.Notifier, env)
	bookingsHandler := handlers.NewBookingsHandler(deps.Bookings, env)
	healthHandler := handlers.NewHealthHandler(deps.DB, deps.Version, deps.GitCommit, deps.BuildDate)

	protect := middleware.Authenticate(deps.Tokens, deps.Users, env)
	loginTier := deps.Limiter.Tier(middleware.TierLogin)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", healthHandler.Healthz)
	mux.HandleFunc("GET /readyz", healthHandler.Readyz)
	mux.HandleFunc("GET /version", healthHandler.Version)
	mux.Handle("GET /metrics", metrics.Handler())

	mux.Handle("POST /api/v1/auth/signup", loginTier(http.HandlerFunc(authHandler.Signup)))
	mux.Handle("POST /api/v1/auth/login", loginTier(http.HandlerFunc(authHandler.Login)))
	mux.Handle("GET /api/v1/auth/me", protect(http.HandlerFunc(authHandler.Me)))

	mux.HandleFunc("GET /api/v1/events", eventsHandler.List)
	mux.Handle("GET /api/v1/events/get-my-events", protect(http.HandlerFunc(eventsHandler.ListMine)))
	mux.HandleFunc("GET /api/v1/events/{id}", eventsHandler.Get)
	mux.Handle("POST /api/v1/events", protect(http.HandlerFunc(eventsHandler.Create)))
	mux.Handle("PUT /api/v1/events/{id}", protect(http.HandlerFunc(eventsHandler.Update)))
	mux.Handle("DELETE /api/v1/events/{id}", protect(http.HandlerFunc(eventsHandler.Delete)))

	mux.Handle("GET /api/v1/bookings", protect(http.HandlerFunc(bookingsHandler.List)))
	mux.Handle("POST /api/v1/bookings", protect(http.HandlerFunc(bookingsHandler.Create)))
	mux.Handle("DELETE /api/v1/bookings/{id}", protect(http.HandlerFunc(bookingsHandler.Delete)))

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		problem.Write(w, r, problem.New(http.StatusNotFound, "Can't find "+r.URL.Path+" on this server"), env)
	})

	var handler http.Handler = metrics.HTTPMiddleware(mux)
	handler = middleware.RequestSize(middleware.DefaultMaxBodySize)(handler)
	handler = deps.Limiter.Middleware(handler)
	handler = middleware.CORS(cfg.CORS, deps.Logger)(handler)
	handler = middleware.SecurityHeaders(cfg.IsProduction())(handler)
	handler = middleware.RequestLogging(deps.Logger)(handler)
	handler = middleware.CorrelationID(deps.Logger)(handler)
	handler = middleware.Tracing(handler)
	return handler
}
