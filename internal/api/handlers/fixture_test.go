package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/zeelus/server/internal/api/middleware"
	"github.com/zeelus/server/internal/audit"
	"github.com/zeelus/server/internal/auth"
	"github.com/zeelus/server/internal/domain/bookings"
	"github.com/zeelus/server/internal/domain/events"
	"github.com/zeelus/server/internal/domain/users"
	"github.com/zeelus/server/internal/storage/memory"
	"github.com/zeelus/server/internal/validation"
)

var testNow = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

type recordingNotifier struct {
	mu    sync.Mutex
	calls []string
}

func (n *recordingNotifier) record(kind, email string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, kind+":"+email)
}

func (n *recordingNotifier) NotifySignup(u users.User) { n.record("signup", u.Email) }
func (n *recordingNotifier) NotifyLogin(u users.User)  { n.record("login", u.Email) }
func (n *recordingNotifier) NotifyEventCreated(u users.User, _ events.Event) {
	n.record("eventCreated", u.Email)
}
func (n *recordingNotifier) NotifyEventUpdated(u users.User, _ events.Event) {
	n.record("eventUpdated", u.Email)
}

func (n *recordingNotifier) Calls() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.calls...)
}

type fixture struct {
	store    *memory.Store
	users    *users.Service
	events   *events.Service
	tokens   *auth.TokenService
	notifier *recordingNotifier
	mux      *http.ServeMux
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := zerolog.Nop()
	store := memory.New()
	validator := validation.New(validation.WithClock(func() time.Time { return testNow }))
	auditLogger := audit.NewLogger(logger)

	userService := users.NewService(store.Users(), validator, logger)
	eventService := events.NewService(store.Events(), validator, auditLogger, logger)
	bookingService := bookings.NewService(store.Bookings(), eventService, auditLogger, logger)
	tokens := auth.NewTokenService("test-secret", time.Hour)
	notifier := &recordingNotifier{}

	authHandler := NewAuthHandler(userService, tokens, notifier, CookieConfig{ExpiryDays: 90}, "test")
	authHandler.now = func() time.Time { return testNow }
	eventsHandler := NewEventsHandler(eventService, notifier, "test")
	bookingsHandler := NewBookingsHandler(bookingService, "test")

	protect := middleware.Authenticate(tokens, userService, "test")
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/auth/signup", authHandler.Signup)
	mux.HandleFunc("POST /api/v1/auth/login", authHandler.Login)
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

	return &fixture{
		store:    store,
		users:    userService,
		events:   eventService,
		tokens:   tokens,
		notifier: notifier,
		mux:      mux,
	}
}

// account signs up a user directly through the service and returns it with
// a ready-to-use Authorization header value.
func (f *fixture) account(t *testing.T, name, email string) (users.User, string) {
	t.Helper()
	user, err := f.users.Signup(context.Background(), users.SignupInput{
		Name:            name,
		Email:           email,
		DOB:             "1990-05-01",
		Password:        "password123",
		ConfirmPassword: "password123",
	})
	require.NoError(t, err)
	token, err := f.tokens.Issue(user.ID)
	require.NoError(t, err)
	return user, auth.BearerPrefix + token
}

func (f *fixture) admin(t *testing.T) (users.User, string) {
	t.Helper()
	user, _, err := f.users.EnsureAdmin(context.Background(), users.AdminParams{
		Name: "Root", Email: "root@example.com", Password: "password123",
	})
	require.NoError(t, err)
	token, err := f.tokens.Issue(user.ID)
	require.NoError(t, err)
	return user, auth.BearerPrefix + token
}

func (f *fixture) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)
	return rec
}

// createEvent creates an event through the API and returns its id.
func (f *fixture) createEvent(t *testing.T, token string, body map[string]any) string {
	t.Helper()
	rec := f.do(t, http.MethodPost, "/api/v1/events", token, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp struct {
		Data struct {
			Event struct {
				ID string `json:"id"`
			} `json:"event"`
		} `json:"data"`
	}
	decode(t, rec, &resp)
	return resp.Data.Event.ID
}

func validEvent(title string) map[string]any {
	return map[string]any{
		"title":       title,
		"description": "A friendly gathering for everyone.",
		"date":        "2026-12-01",
		"startTime":   "18:00",
		"endTime":     "20:00",
	}
}

type errorBody struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst), rec.Body.String())
}

func requireError(t *testing.T, rec *httptest.ResponseRecorder, status int, message string) {
	t.Helper()
	require.Equal(t, status, rec.Code, rec.Body.String())
	var body errorBody
	decode(t, rec, &body)
	require.Equal(t, "error", body.Status)
	require.Equal(t, message, body.Message)
}

func (f *fixture) doRaw(t *testing.T, method, path string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)
	return rec
}
