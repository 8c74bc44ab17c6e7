package middleware

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/zeelus/server/internal/api/problem"
	"github.com/zeelus/server/internal/config"
	"golang.org/x/time/rate"
)

type RateLimitTier string

const (
	TierPublic RateLimitTier = "public"
	// TierLogin guards signup and login: a burst of N, refilled over 15 minutes.
	TierLogin RateLimitTier = "login"
)

const (
	limiterTTL      = 15 * time.Minute
	cleanupInterval = 5 * time.Minute
)

type rateLimitTierKey struct{}

func WithRateLimitTier(ctx context.Context, tier RateLimitTier) context.Context {
	return context.WithValue(ctx, rateLimitTierKey{}, tier)
}

// WithRateLimitTierHandler tags requests for the RateLimit middleware. It
// must run before RateLimit in the chain.
func WithRateLimitTierHandler(tier RateLimitTier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(WithRateLimitTier(r.Context(), tier)))
		})
	}
}

// RateLimiter applies per-client token buckets keyed by tier and client IP.
type RateLimiter struct {
	cfg      config.RateLimitConfig
	env      string
	trusted  []*net.IPNet
	mu       sync.Mutex
	limiters map[string]*limiterEntry
	now      func() time.Time
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewRateLimiter(cfg config.RateLimitConfig, env string) *RateLimiter {
	return &RateLimiter{
		cfg:      cfg,
		env:      env,
		trusted:  parseCIDRs(cfg.TrustedProxyCIDRs),
		limiters: make(map[string]*limiterEntry),
		now:      time.Now,
	}
}

// Run evicts idle limiters until ctx is cancelled.
func (l *RateLimiter) Run(ctx context.Context) error {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.cleanup()
		case <-ctx.Done():
			return nil
		}
	}
}

// Tier rate-limits the wrapped handler with the given tier's bucket.
func (l *RateLimiter) Tier(tier RateLimitTier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return WithRateLimitTierHandler(tier)(l.Middleware(next))
	}
}

// Middleware limits every request except health probes and metrics. The
// tier comes from the request context and defaults to TierPublic.
func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/healthz", "/readyz", "/metrics":
			next.ServeHTTP(w, r)
			return
		}

		tier := TierPublic
		if value, ok := r.Context().Value(rateLimitTierKey{}).(RateLimitTier); ok {
			tier = value
		}

		limiter := l.limiter(tier, clientKey(r, l.trusted))
		if limiter != nil && !limiter.Allow() {
			w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(l.refillInterval(tier))))
			problem.Write(w, r, problem.New(http.StatusTooManyRequests, "Too many requests. Please try again later."), l.env)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// tierLimit is the burst size and the window it refills over.
func (l *RateLimiter) tierLimit(tier RateLimitTier) (int, time.Duration) {
	if tier == TierLogin {
		return l.cfg.LoginPer15Minutes, 15 * time.Minute
	}
	return l.cfg.PublicPerMinute, time.Minute
}

// refillInterval is how long one token takes to come back, which is also
// the earliest a blocked client can succeed again.
func (l *RateLimiter) refillInterval(tier RateLimitTier) time.Duration {
	limit, window := l.tierLimit(tier)
	if limit <= 0 {
		return 0
	}
	return window / time.Duration(limit)
}

func retryAfterSeconds(d time.Duration) int {
	seconds := int((d + time.Second - 1) / time.Second)
	if seconds < 1 {
		return 1
	}
	return seconds
}

func (l *RateLimiter) limiter(tier RateLimitTier, key string) *rate.Limiter {
	limit, _ := l.tierLimit(tier)
	if limit <= 0 {
		return nil
	}

	lookup := string(tier) + ":" + key
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	if entry, ok := l.limiters[lookup]; ok {
		entry.lastSeen = now
		return entry.limiter
	}

	limiter := rate.NewLimiter(rate.Every(l.refillInterval(tier)), limit)
	l.limiters[lookup] = &limiterEntry{limiter: limiter, lastSeen: now}
	return limiter
}

func (l *RateLimiter) cleanup() {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()
	for key, entry := range l.limiters {
		if now.Sub(entry.lastSeen) > limiterTTL {
			delete(l.limiters, key)
		}
	}
}

func (l *RateLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.limiters)
}

// clientKey is the remote IP, or the first X-Forwarded-For hop when the
// connection comes from a trusted proxy.
func clientKey(r *http.Request, trusted []*net.IPNet) string {
	remoteIP := r.RemoteAddr
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		remoteIP = host
	}

	if isTrustedProxy(remoteIP, trusted) {
		if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
			first, _, _ := strings.Cut(forwarded, ",")
			return strings.TrimSpace(first)
		}
		if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
			return strings.TrimSpace(realIP)
		}
	}
	return remoteIP
}

func isTrustedProxy(ip string, trusted []*net.IPNet) bool {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return false
	}
	for _, cidr := range trusted {
		if cidr.Contains(parsed) {
			return true
		}
	}
	return false
}

func parseCIDRs(values []string) []*net.IPNet {
	var out []*net.IPNet
	for _, value := range values {
		if _, cidr, err := net.ParseCIDR(value); err == nil {
			out = append(out, cidr)
		}
	}
	return out
}
