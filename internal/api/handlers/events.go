package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/zeelus/server/internal/api/problem"
	"github.com/zeelus/server/internal/domain/events"
	"github.com/zeelus/server/internal/domain/ids"
	"github.com/zeelus/server/internal/metrics"
	"github.com/zeelus/server/internal/validation"
)

type EventsHandler struct {
	Service  *events.Service
	Notifier Notifier
	Env      string
}

func NewEventsHandler(service *events.Service, notifier Notifier, env string) *EventsHandler {
	return &EventsHandler{Service: service, Notifier: notifier, Env: env}
}

type eventListData struct {
	Events     []eventView       `json:"events"`
	Pagination events.Pagination `json:"pagination"`
}

type eventsData struct {
	Events []eventView `json:"events"`
}

type eventData struct {
	Event eventView `json:"event"`
}

func (h *EventsHandler) List(w http.ResponseWriter, r *http.Request) {
	filters, err := events.ParseFilters(r.URL.Query())
	if err != nil {
		var filterErr events.FilterError
		if errors.As(err, &filterErr) {
			err = problem.Wrap(http.StatusBadRequest, filterErr.Error(), err)
		}
		problem.Write(w, r, err, h.Env)
		return
	}

	page, err := h.Service.List(r.Context(), filters)
	if err != nil {
		problem.Write(w, r, err, h.Env)
		return
	}
	writeSuccess(w, http.StatusOK, "Events fetched successfully.", eventListData{
		Events:     newEventViews(page.Events),
		Pagination: page.Pagination,
	})
}

func (h *EventsHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	user, err := principal(r)
	if err != nil {
		problem.Write(w, r, err, h.Env)
		return
	}
	items, err := h.Service.ListMine(r.Context(), user.ID)
	if err != nil {
		problem.Write(w, r, err, h.Env)
		return
	}
	writeSuccess(w, http.StatusOK, "Events fetched successfully", eventsData{Events: newEventViews(items)})
}

func (h *EventsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := ids.Parse("_id", r.PathValue("id"))
	if err != nil {
		problem.Write(w, r, err, h.Env)
		return
	}
	event, err := h.Service.Get(r.Context(), id)
	if err != nil {
		problem.Write(w, r, eventError(err, "Event not found"), h.Env)
		return
	}
	writeSuccess(w, http.StatusOK, "Event retrieved successfully.", eventData{Event: newEventView(event)})
}

func (h *EventsHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, err := principal(r)
	if err != nil {
		problem.Write(w, r, err, h.Env)
		return
	}
	var input events.Input
	if err := decodeBody(r, &input); err != nil {
		problem.Write(w, r, err, h.Env)
		return
	}

	event, err := h.Service.Create(r.Context(), user, input)
	if err != nil {
		problem.Write(w, r, eventError(err, "Event not found"), h.Env)
		return
	}
	metrics.DomainWrites.WithLabelValues("events", "create").Inc()
	if event.Creator.ID == "" {
		event.Creator = user.Summary()
	}

	writeSuccess(w, http.StatusCreated, "Event created successfully.", eventData{Event: newEventView(event)})
	h.Notifier.NotifyEventCreated(user, event)
}

func (h *EventsHandler) Update(w http.ResponseWriter, r *http.Request) {
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
	var input events.Input
	if err := decodeBody(r, &input); err != nil {
		problem.Write(w, r, err, h.Env)
		return
	}

	event, err := h.Service.Update(r.Context(), user, id, input)
	if err != nil {
		problem.Write(w, r, eventError(err, "Event not found or has been deleted."), h.Env)
		return
	}
	metrics.DomainWrites.WithLabelValues("events", "update").Inc()

	writeSuccess(w, http.StatusOK, "Event updated successfully.", eventData{Event: newEventView(event)})
	h.Notifier.NotifyEventUpdated(user, event)
}

func (h *EventsHandler) Delete(w http.ResponseWriter, r *http.Request) {
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

	if _, err := h.Service.Delete(r.Context(), user, id); err != nil {
		problem.Write(w, r, eventError(err, "Event not found or already deleted."), h.Env)
		return
	}
	metrics.DomainWrites.WithLabelValues("events", "delete").Inc()
	writeSuccess(w, http.StatusOK, "Event deleted successfully.", nil)
}

// eventError turns event service failures into client-facing errors.
// notFound varies by operation.
func eventError(err error, notFound string) error {
	var validationErr *validation.Error
	switch {
	case errors.Is(err, events.ErrNotFound):
		return problem.Wrap(http.StatusNotFound, notFound, err)
	case errors.Is(err, events.ErrForbidden):
		return problem.Wrap(http.StatusForbidden, "You are not allowed to modify this event", err)
	case errors.Is(err, events.ErrMissingFields):
		return problem.Wrap(http.StatusBadRequest, "Missing required fields. Please provide all mandatory event details.", err)
	case errors.Is(err, events.ErrNoUpdateFields):
		return problem.Wrap(http.StatusBadRequest, "No valid fields provided for update.", err)
	case errors.Is(err, events.ErrEndBeforeStart):
		return problem.Wrap(http.StatusBadRequest, "End time must be later than start time.", err)
	case errors.As(err, &validationErr):
		described := make([]string, 0, len(validationErr.Failures))
		for _, f := range validationErr.Failures {
			described = append(described, f.Describe())
		}
		return problem.Wrap(http.StatusBadRequest, "Event validation failed: "+strings.Join(described, ", "), err)
	}
	return err
}
