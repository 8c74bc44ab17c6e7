package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/zeelus/server/internal/api/middleware"
	"github.com/zeelus/server/internal/api/problem"
	"github.com/zeelus/server/internal/auth"
	"github.com/zeelus/server/internal/domain/events"
	"github.com/zeelus/server/internal/domain/users"
	"github.com/zeelus/server/internal/metrics"
)

// Notifier sends account and event emails in the background.
// *email.Notifier satisfies it.
type Notifier interface {
	NotifySignup(user users.User)
	NotifyLogin(user users.User)
	NotifyEventCreated(user users.User, event events.Event)
	NotifyEventUpdated(user users.User, event events.Event)
}

// CookieConfig controls the session cookie.
type CookieConfig struct {
	ExpiryDays int
	Secure     bool
}

type AuthHandler struct {
	Users    *users.Service
	Tokens   *auth.TokenService
	Notifier Notifier
	Cookie   CookieConfig
	Env      string
	now      func() time.Time
}

func NewAuthHandler(service *users.Service, tokens *auth.TokenService, notifier Notifier, cookie CookieConfig, env string) *AuthHandler {
	return &AuthHandler{Users: service, Tokens: tokens, Notifier: notifier, Cookie: cookie, Env: env, now: time.Now}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionData struct {
	User userView `json:"user"`
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var input users.SignupInput
	if err := decodeBody(r, &input); err != nil {
		problem.Write(w, r, err, h.Env)
		return
	}

	user, err := h.Users.Signup(r.Context(), input)
	if err != nil {
		metrics.AuthAttempts.WithLabelValues("signup", "failure").Inc()
		problem.Write(w, r, err, h.Env)
		return
	}
	metrics.AuthAttempts.WithLabelValues("signup", "success").Inc()

	if err := h.startSession(w, user, "Signup successful"); err != nil {
		problem.Write(w, r, err, h.Env)
		return
	}
	h.Notifier.NotifySignup(user)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input loginRequest
	if err := decodeBody(r, &input); err != nil {
		problem.Write(w, r, err, h.Env)
		return
	}
	if strings.TrimSpace(input.Email) == "" || input.Password == "" {
		problem.Write(w, r, problem.New(http.StatusNotFound, "Please provide email and password"), h.Env)
		return
	}

	user, err := h.Users.Authenticate(r.Context(), input.Email, input.Password)
	if err != nil {
		metrics.AuthAttempts.WithLabelValues("login", "failure").Inc()
		if errors.Is(err, users.ErrInvalidCredentials) {
			err = problem.Wrap(http.StatusNotFound, "Incorrect email or password", err)
		}
		problem.Write(w, r, err, h.Env)
		return
	}
	metrics.AuthAttempts.WithLabelValues("login", "success").Inc()

	if err := h.startSession(w, user, "Login successful"); err != nil {
		problem.Write(w, r, err, h.Env)
		return
	}
	h.Notifier.NotifyLogin(user)
}

// Me returns the principal and refreshes the session cookie with the token
// the request was authenticated with.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := principal(r)
	if err != nil {
		problem.Write(w, r, err, h.Env)
		return
	}
	token := auth.BearerPrefix + middleware.Token(r.Context())
	h.setCookie(w, token)
	writeJSON(w, http.StatusOK, envelope{
		Status:  statusSuccess,
		Token:   token,
		Message: "Profile retrieval successful",
		Data:    sessionData{User: newUserView(user, h.now())},
	})
}

func (h *AuthHandler) startSession(w http.ResponseWriter, user users.User, message string) error {
	signed, err := h.Tokens.Issue(user.ID)
	if err != nil {
		return err
	}
	token := auth.BearerPrefix + signed
	h.setCookie(w, token)
	writeJSON(w, http.StatusOK, envelope{
		Status:  statusSuccess,
		Token:   token,
		Message: message,
		Data:    sessionData{User: newUserView(user, h.now())},
	})
	return nil
}

func (h *AuthHandler) setCookie(w http.ResponseWriter, value string) {
	expiry := time.Duration(h.Cookie.ExpiryDays) * 24 * time.Hour
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.TokenCookieName,
		Value:    value,
		Path:     "/",
		Expires:  h.now().Add(expiry),
		MaxAge:   int(expiry.Seconds()),
		HttpOnly: true,
		Secure:   h.Cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
