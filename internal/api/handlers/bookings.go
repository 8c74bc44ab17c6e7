package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/zeelus/server/internal/api/problem"
	"github.com/zeelus/server/internal/domain/bookings"
	"github.com/zeelus/server/internal/domain/ids"
	"github.com/zeelus/server/internal/metrics"
)

type BookingsHandler struct {
	Service *bookings.Service
	Env     string
}

func NewBookingsHandler(service *bookings.Service, env string) *BookingsHandler {
	return &BookingsHandler{Service: service, Env: env}
}

type createBookingRequest struct {
	EventID string `json:"eventId"`
}

type bookingsData struct {
	Bookings []bookingView `json:"bookings"`
}

type bookingData struct {
	Booking bookingView `json:"booking"`
}

func (h *BookingsHandler) List(w http.ResponseWriter, r *http.Request) {
	user, err := principal(r)
	if err != nil {
		problem.Write(w, r, err, h.Env)
		return
	}
	items, err := h.Service.ListForUser(r.Context(), user.ID)
	if err != nil {
		problem.Write(w, r, err, h.Env)
		return
	}

	views := make([]bookingView, 0, len(items))
	for _, b := range items {
		views = append(views, newBookingView(b))
	}
	results := len(views)
	writeJSON(w, http.StatusOK, envelope{
		Status:  statusSuccess,
		Message: "Your bookings fetched successfully",
		Results: &results,
		Data:    bookingsData{Bookings: views},
	})
}

func (h *BookingsHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, err := principal(r)
	if err != nil {
		problem.Write(w, r, err, h.Env)
		return
	}
	var input createBookingRequest
	if err := decodeBody(r, &input); err != nil {
		problem.Write(w, r, err, h.Env)
		return
	}
	if strings.TrimSpace(input.EventID) == "" {
		problem.Write(w, r, problem.New(http.StatusNotFound, "Event not found"), h.Env)
		return
	}
	eventID, err := ids.Parse("eventId", input.EventID)
	if err != nil {
		problem.Write(w, r, err, h.Env)
		return
	}

	booking, err := h.Service.Create(r.Context(), user, eventID)
	if err != nil {
		problem.Write(w, r, bookingError(err), h.Env)
		return
	}
	metrics.DomainWrites.WithLabelValues("bookings", "create").Inc()
	writeSuccess(w, http.StatusCreated, "Booking created successfully", bookingData{Booking: newBookingView(booking)})
}

func (h *BookingsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, err := principal(r)
	if err != nil {
		problem.Write(w, r, err, h.Env)
		return
	}
	id, err := ids.Parse("_id", r.PathValue("id"))
	if err != nil {
		problem.Write(w, r, err, h.Env)
		return
	}

	if err := h.Service.Delete(r.Context(), user, id); err != nil {
		problem.Write(w, r, bookingError(err), h.Env)
		return
	}
	metrics.DomainWrites.WithLabelValues("bookings", "delete").Inc()
	w.WriteHeader(http.StatusNoContent)
}

func bookingError(err error) error {
	switch {
	case errors.Is(err, bookings.ErrEventNotFound):
		return problem.Wrap(http.StatusNotFound, "Event not found", err)
	case errors.Is(err, bookings.ErrAlreadyBooked):
		return problem.Wrap(http.StatusBadRequest, "You have already booked this event", err)
	case errors.Is(err, bookings.ErrOwnEvent):
		return problem.Wrap(http.StatusBadRequest, "You cannot book your own event", err)
	case errors.Is(err, bookings.ErrNotFound):
		return problem.Wrap(http.StatusNotFound, "No booking found with that ID", err)
	case errors.Is(err, bookings.ErrForbidden):
		return problem.Wrap(http.StatusForbidden, "You are not authorized to delete this booking", err)
	}
	return err
}
