package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/zeelus/server/internal/api/middleware"
	"github.com/zeelus/server/internal/audit"
	"github.com/zeelus/server/internal/auth"
	"github.com/zeelus/server/internal/config"
	"github.com/zeelus/server/internal/domain/bookings"
	"github.com/zeelus/server/internal/domain/events"
	"github.com/zeelus/server/internal/domain/users"
	"github.com/zeelus/server/internal/metrics"
	"github.com/zeelus/server/internal/storage/memory"
	"github.com/zeelus/server/internal/validation"
)

type nopNotifier struct{}

func (nopNotifier) NotifySignup(users.User)                     {}
func (nopNotifier) NotifyLogin(users.User)                      {}
func (nopNotifier) NotifyEventCreated(users.User, events.Event) {}
func (nopNotifier) NotifyEventUpdated(users.User, events.Event) {}

func newTestRouter(t *testing.T, limits config.RateLimitConfig) http.Handler {
	t.Helper()
	logger := zerolog.Nop()
	store := memory.New()
	validator := validation.New()
	auditLogger := audit.NewLogger(logger)

	eventService := events.NewService(store.Events(), validator, auditLogger, logger)
	cfg := config.Config{
		Environment: "test",
		Auth:        config.AuthConfig{TokenSecret: "test-secret", TokenExpiry: time.Hour, CookieExpiryDays: 90},
		CORS:        config.CORSConfig{AllowedOrigins: []string{"https://zeelus.app"}},
		RateLimit:   limits,
	}
	return NewRouter(Deps{
		Config:   cfg,
		Logger:   logger,
		Users:    users.NewService(store.Users(), validator, logger),
		Events:   eventService,
		Bookings: bookings.NewService(store.Bookings(), eventService, auditLogger, logger),
		Tokens:   auth.NewTokenService(cfg.Auth.TokenSecret, cfg.Auth.TokenExpiry),
		Notifier: nopNotifier{},
		Limiter:  middleware.NewRateLimiter(cfg.RateLimit, cfg.Environment),
		Version:  "1.0.0",
	})
}

func send(t *testing.T, h http.Handler, method, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "203.0.113.7:40000"
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRouterOperationalEndpoints(t *testing.T) {
	h := newTestRouter(t, config.RateLimitConfig{})

	rec := send(t, h, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, rec.Header().Get(middleware.RequestIDHeader))
	require.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))

	rec = send(t, h, http.MethodGet, "/readyz", nil)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = send(t, h, http.MethodGet, "/version", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"version":"1.0.0"`)

	rec = send(t, h, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "zeelus_http_requests_total")
}

func TestRouterUnknownRoute(t *testing.T) {
	h := newTestRouter(t, config.RateLimitConfig{})

	rec := send(t, h, http.MethodGet, "/api/v1/nope", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	var body struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "error", body.Status)
	require.Equal(t, "Can't find /api/v1/nope on this server", body.Message)
}

func TestRouterCookieSession(t *testing.T) {
	h := newTestRouter(t, config.RateLimitConfig{})

	rec := send(t, h, http.MethodPost, "/api/v1/auth/signup", map[string]string{
		"name":            "Ada Lovelace",
		"email":           "ada@example.com",
		"dob":             "1990-12-10",
		"password":        "password123",
		"confirmPassword": "password123",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)

	rec = send(t, h, http.MethodGet, "/api/v1/auth/me", nil, cookies[0])
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Contains(t, rec.Body.String(), "ada@example.com")

	rec = send(t, h, http.MethodGet, "/api/v1/auth/me", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouterLabelsRequestsByPattern(t *testing.T) {
	h := newTestRouter(t, config.RateLimitConfig{})
	counter := metrics.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/api/v1/events/{id}", "404")
	before := testutil.ToFloat64(counter)

	rec := send(t, h, http.MethodGet, "/api/v1/events/not-an-id", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, before+1, testutil.ToFloat64(counter))
}

func TestRouterLoginRateLimit(t *testing.T) {
	h := newTestRouter(t, config.RateLimitConfig{LoginPer15Minutes: 2})
	creds := map[string]string{"email": "ada@example.com", "password": "wrong-password"}

	for i := 0; i < 2; i++ {
		rec := send(t, h, http.MethodPost, "/api/v1/auth/login", creds)
		require.Equal(t, http.StatusNotFound, rec.Code, "attempt %d", i+1)
	}

	rec := send(t, h, http.MethodPost, "/api/v1/auth/login", creds)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.Equal(t, "450", rec.Header().Get("Retry-After"))

	rec = send(t, h, http.MethodGet, "/api/v1/events", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRouterCORSPreflight(t *testing.T) {
	h := newTestRouter(t, config.RateLimitConfig{})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/events", nil)
	req.Header.Set("Origin", "https://zeelus.app")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, "https://zeelus.app", rec.Header().Get("Access-Control-Allow-Origin"))
	require.True(t, strings.EqualFold(rec.Header().Get("Access-Control-Allow-Credentials"), "true"))
}
