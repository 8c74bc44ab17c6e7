package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/zeelus/server/internal/config"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestLoginTierBlocksAfterBurst(t *testing.T) {
	limiter := NewRateLimiter(config.RateLimitConfig{LoginPer15Minutes: 5}, "test")
	handler := limiter.Tier(TierLogin)(okHandler())

	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
		req.RemoteAddr = "192.168.1.101:54321"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, "request %d", i+1)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
	req.RemoteAddr = "192.168.1.101:54321"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.Equal(t, "180", rec.Header().Get("Retry-After"))
	require.Contains(t, rec.Body.String(), "Too many requests")

	other := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
	other.RemoteAddr = "192.168.1.102:54321"
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, other)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRetryAfterFollowsConfiguredLimit(t *testing.T) {
	tests := []struct {
		name  string
		cfg   config.RateLimitConfig
		tier  RateLimitTier
		burst int
		want  string
	}{
		{name: "login 3 per 15 minutes", cfg: config.RateLimitConfig{LoginPer15Minutes: 3}, tier: TierLogin, burst: 3, want: "300"},
		{name: "login 10 per 15 minutes", cfg: config.RateLimitConfig{LoginPer15Minutes: 10}, tier: TierLogin, burst: 10, want: "90"},
		{name: "public 2 per minute", cfg: config.RateLimitConfig{PublicPerMinute: 2}, tier: TierPublic, burst: 2, want: "30"},
		{name: "public rounds up to a second", cfg: config.RateLimitConfig{PublicPerMinute: 120}, tier: TierPublic, burst: 120, want: "1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewRateLimiter(tt.cfg, "test").Tier(tt.tier)(okHandler())
			var rec *httptest.ResponseRecorder
			for i := 0; i <= tt.burst; i++ {
				req := httptest.NewRequest(http.MethodGet, "/api/v1/events", nil)
				req.RemoteAddr = "192.168.1.150:54321"
				rec = httptest.NewRecorder()
				handler.ServeHTTP(rec, req)
			}
			require.Equal(t, http.StatusTooManyRequests, rec.Code)
			require.Equal(t, tt.want, rec.Header().Get("Retry-After"))
		})
	}
}

func TestPublicTierAndExemptPaths(t *testing.T) {
	limiter := NewRateLimiter(config.RateLimitConfig{PublicPerMinute: 1}, "test")
	handler := limiter.Middleware(okHandler())

	send := func(path string) int {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	require.Equal(t, http.StatusOK, send("/api/v1/events"))
	require.Equal(t, http.StatusTooManyRequests, send("/api/v1/events"))
	require.Equal(t, http.StatusOK, send("/healthz"))
	require.Equal(t, http.StatusOK, send("/metrics"))
}

func TestZeroLimitDisablesTier(t *testing.T) {
	limiter := NewRateLimiter(config.RateLimitConfig{}, "test")
	handler := limiter.Middleware(okHandler())
	for i := 0; i < 20; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/events", nil))
		require.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestClientKeyTrustsOnlyConfiguredProxies(t *testing.T) {
	trusted := parseCIDRs([]string{"10.0.0.0/8", "not-a-cidr"})
	require.Len(t, trusted, 1)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.1.2.3:4000"
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.1.2.3")
	require.Equal(t, "203.0.113.9", clientKey(req, trusted))

	req.RemoteAddr = "198.51.100.7:4000"
	require.Equal(t, "198.51.100.7", clientKey(req, trusted))
}

func TestLimiterCleanupEvictsIdleEntries(t *testing.T) {
	limiter := NewRateLimiter(config.RateLimitConfig{PublicPerMinute: 10}, "test")
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return start }

	limiter.limiter(TierPublic, "a")
	limiter.limiter(TierPublic, "b")
	require.Equal(t, 2, limiter.size())

	limiter.now = func() time.Time { return start.Add(limiterTTL + time.Second) }
	limiter.limiter(TierPublic, "b")
	limiter.cleanup()
	require.Equal(t, 1, limiter.size())
}
