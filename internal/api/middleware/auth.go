package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/zeelus/server/internal/api/problem"
	"github.com/zeelus/server/internal/auth"
	"github.com/zeelus/server/internal/domain/users"
	"github.com/zeelus/server/internal/metrics"
)

// TokenCookieName carries "Bearer <jwt>" for browser clients.
const TokenCookieName = "token"

var (
	errMissingToken = problem.New(http.StatusUnauthorized, "You are not authorized to access this request")
	errInvalidToken = problem.New(http.StatusUnauthorized, "You'll have to login again")
	errUserNotFound = problem.New(http.StatusUnauthorized, "The user doesn't exist")
)

// UserLookup resolves a token subject to a user.
type UserLookup interface {
	GetByID(ctx context.Context, id string) (users.User, error)
}

type principalKey struct{}

type tokenKey struct{}

// Authenticate rejects the request unless it carries a valid session token
// for an existing user. The Authorization header wins over the token cookie,
// and either must start with "Bearer ". On success the user and raw token
// are stored on the request context.
func Authenticate(tokens *auth.TokenService, lookup UserLookup, env string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, token, err := authenticate(r, tokens, lookup)
			if err != nil {
				metrics.AuthAttempts.WithLabelValues("token", "failure").Inc()
				problem.Write(w, r, err, env)
				return
			}

			ctx := context.WithValue(r.Context(), principalKey{}, user)
			ctx = context.WithValue(ctx, tokenKey{}, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func authenticate(r *http.Request, tokens *auth.TokenService, lookup UserLookup) (users.User, string, error) {
	raw := r.Header.Get("Authorization")
	if raw == "" {
		if cookie, err := r.Cookie(TokenCookieName); err == nil {
			raw = cookie.Value
		}
	}

	token, err := auth.TokenFromValue(raw)
	if err != nil {
		return users.User{}, "", errMissingToken
	}

	subject, err := tokens.Verify(token)
	switch {
	case errors.Is(err, auth.ErrInvalidToken):
		return users.User{}, "", errInvalidToken
	case errors.Is(err, auth.ErrMissingToken):
		return users.User{}, "", errMissingToken
	case err != nil:
		return users.User{}, "", err
	}

	user, err := lookup.GetByID(r.Context(), subject)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return users.User{}, "", errUserNotFound
		}
		return users.User{}, "", err
	}
	return user, token, nil
}

// Principal returns the authenticated user, if any.
func Principal(ctx context.Context) (users.User, bool) {
	user, ok := ctx.Value(principalKey{}).(users.User)
	return user, ok
}

// Token returns the raw session token the request was authenticated with.
func Token(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey{}).(string)
	return token
}
