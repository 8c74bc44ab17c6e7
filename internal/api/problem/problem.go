package problem

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	"github.com/zeelus/server/internal/auth"
	"github.com/zeelus/server/internal/storage"
	"github.com/zeelus/server/internal/validation"
)

const contentType = "application/json"

// Error is an application error: a status and a user-facing message chosen
// at the point of failure. It is written to the client verbatim.
type Error struct {
	Status  int
	Message string
	Cause   error
}

func New(status int, message string) *Error {
	return &Error{Status: status, Message: message}
}

func Wrap(status int, message string, cause error) *Error {
	return &Error{Status: status, Message: message, Cause: cause}
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Classified is the outcome of mapping an arbitrary error to a response.
type Classified struct {
	Status      int
	Message     string
	Cause       error
	Application bool
}

// Response is the error envelope every failed request receives.
type Response struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// Classify maps err to a status and message. The first matching rule wins.
func Classify(err error) Classified {
	var appErr *Error
	if errors.As(err, &appErr) {
		return Classified{Status: appErr.Status, Message: appErr.Message, Cause: err, Application: true}
	}

	var castErr *validation.CastError
	if errors.As(err, &castErr) {
		return Classified{Status: http.StatusNotFound, Message: "Please give a valid id", Cause: err}
	}

	var dupErr *storage.UniqueViolation
	if errors.As(err, &dupErr) {
		subject := strings.Join(dupErr.Fields, " and ")
		if subject == "" {
			subject = dupErr.Constraint
		}
		if subject == "" {
			subject = "record"
		}
		return Classified{
			Status:  http.StatusNotFound,
			Message: subject + " already exists. Try again.",
			Cause:   err,
		}
	}

	var validationErr *validation.Error
	if errors.As(err, &validationErr) {
		return Classified{Status: http.StatusNotFound, Message: validationErr.First().Describe(), Cause: err}
	}

	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return Classified{Status: http.StatusBadRequest, Message: "This token is expired. You'll have to login again.", Cause: err}
	case errors.Is(err, auth.ErrMalformedToken):
		return Classified{Status: http.StatusBadRequest, Message: "You'll have to login.", Cause: err}
	}

	return Classified{Status: http.StatusInternalServerError, Message: http.StatusText(http.StatusInternalServerError), Cause: err}
}

// Write classifies err and writes exactly one JSON error response. The
// cause text is only exposed in development and test environments.
func Write(w http.ResponseWriter, r *http.Request, err error, env string) {
	c := Classify(err)

	logger := zerolog.Ctx(r.Context())
	switch {
	case c.Status >= http.StatusInternalServerError:
		logger.Error().
			Err(err).
			Int("status", c.Status).
			Str("path", r.URL.Path).
			Str("method", r.Method).
			Msg("request failed")
	case errors.Is(err, auth.ErrMalformedToken):
		logger.Warn().
			Err(err).
			Str("path", r.URL.Path).
			Msg("malformed session token")
	default:
		logger.Debug().
			Err(err).
			Int("status", c.Status).
			Str("path", r.URL.Path).
			Msg(c.Message)
	}

	resp := Response{Status: "error", Message: c.Message}
	if !c.Application && c.Cause != nil && (env == "development" || env == "test") {
		resp.Error = c.Cause.Error()
	}
	WriteResponse(w, c.Status, resp)
}

func WriteResponse(w http.ResponseWriter, status int, resp Response) {
	payload, err := json.Marshal(resp)
	if err != nil {
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"status":"error","message":"Internal Server Error"}`))
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	_, _ = w.Write(payload)
}
