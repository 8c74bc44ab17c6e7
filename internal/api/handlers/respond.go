package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/zeelus/server/internal/api/middleware"
	"github.com/zeelus/server/internal/api/problem"
	"github.com/zeelus/server/internal/domain/users"
	"github.com/zeelus/server/internal/validation"
)

const statusSuccess = "success"

// envelope is the success body shared by every endpoint.
type envelope struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Token   string `json:"token,omitempty"`
	Results *int   `json:"results,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeSuccess(w http.ResponseWriter, status int, message string, data any) {
	writeJSON(w, status, envelope{Status: statusSuccess, Message: message, Data: data})
}

// decodeBody reads a JSON request body. Syntax errors and oversized bodies
// become a 400; type mismatches stay cast failures for the classifier.
func decodeBody(r *http.Request, dst any) error {
	err := validation.DecodeJSON(r.Body, dst)
	if err == nil {
		return nil
	}
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr):
		return problem.Wrap(http.StatusRequestEntityTooLarge, "Request body is too large", err)
	case errors.Is(err, validation.ErrMalformedBody):
		return problem.Wrap(http.StatusBadRequest, "Invalid request body", err)
	}
	return err
}

// principal returns the authenticated user. Handlers behind Authenticate
// always have one; the error branch guards against wiring mistakes.
func principal(r *http.Request) (users.User, error) {
	user, ok := middleware.Principal(r.Context())
	if !ok {
		return users.User{}, problem.New(http.StatusUnauthorized, "You are not authorized to access this request")
	}
	return user, nil
}
