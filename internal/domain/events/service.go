package events

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/zeelus/server/internal/audit"
	"github.com/zeelus/server/internal/auth"
	"github.com/zeelus/server/internal/domain/ids"
	"github.com/zeelus/server/internal/domain/users"
	"github.com/zeelus/server/internal/sanitize"
	"github.com/zeelus/server/internal/storage"
	"github.com/zeelus/server/internal/validation"
)

// fields is the validated shape of an event, in the order failures are
// reported.
type fields struct {
	Title       string `json:"title" validate:"required,min=3,max=100"`
	Description string `json:"description" validate:"required,min=10,max=1000"`
	Date        string `json:"date" validate:"required,isodate,notpast"`
	StartTime   string `json:"startTime" validate:"required,hhmm"`
	EndTime     string `json:"endTime" validate:"required,hhmm"`
}

var eventMessages = validation.Messages{
	"title.required":       "Event title is required.",
	"title.min":            "Event title must be at least 3 characters long.",
	"title.max":            "Event title cannot exceed 100 characters.",
	"description.required": "Event description is required.",
	"description.min":      "Event description must be at least 10 characters long.",
	"description.max":      "Event description cannot exceed 1000 characters.",
	"date.required":        "Event date is required.",
	"date.notpast":         "Event date cannot be in the past.",
	"startTime.required":   "Event start time is required.",
	"startTime.hhmm":       "Start time must be in HH:mm format (24-hour).",
	"endTime.required":     "Event end time is required.",
	"endTime.hhmm":         "End time must be in HH:mm format (24-hour).",
}

type Service struct {
	repo        Repository
	validator   *validation.Validator
	auditLogger *audit.Logger
	logger      zerolog.Logger
}

func NewService(repo Repository, validator *validation.Validator, auditLogger *audit.Logger, logger zerolog.Logger) *Service {
	return &Service{
		repo:        repo,
		validator:   validator,
		auditLogger: auditLogger,
		logger:      logger.With().Str("component", "events").Logger(),
	}
}

// List returns one page of live events ordered by date then start time.
func (s *Service) List(ctx context.Context, filters Filters) (Page, error) {
	if filters.Limit <= 0 {
		filters.Limit = DefaultLimit
	}
	if filters.Page <= 0 {
		filters.Page = 1
	}

	result, err := s.repo.List(ctx, filters)
	if err != nil {
		return Page{}, fmt.Errorf("list events: %w", err)
	}

	totalPages := (result.Total + filters.Limit - 1) / filters.Limit
	return Page{
		Events: result.Events,
		Pagination: Pagination{
			TotalItems:  result.Total,
			TotalPages:  totalPages,
			CurrentPage: filters.Page,
			Limit:       filters.Limit,
		},
	}, nil
}

func (s *Service) ListMine(ctx context.Context, creatorID string) ([]Event, error) {
	items, err := s.repo.ListByCreator(ctx, creatorID)
	if err != nil {
		return nil, fmt.Errorf("list creator events: %w", err)
	}
	return items, nil
}

// Get returns a live event. Soft-deleted events are reported as missing.
func (s *Service) Get(ctx context.Context, id string) (Event, error) {
	event, err := s.load(ctx, id)
	if err != nil {
		return Event{}, err
	}
	return event, nil
}

// Create validates input and stores a new event owned by creator.
func (s *Service) Create(ctx context.Context, creator users.User, input Input) (Event, error) {
	if creator.ID == "" || blank(input.Title) || blank(input.Description) || blank(input.Date) ||
		blank(input.StartTime) || blank(input.EndTime) {
		return Event{}, ErrMissingFields
	}

	f := fields{
		Title:       sanitize.Text(*input.Title),
		Description: sanitize.Text(*input.Description),
		Date:        strings.TrimSpace(*input.Date),
		StartTime:   strings.TrimSpace(*input.StartTime),
		EndTime:     strings.TrimSpace(*input.EndTime),
	}
	if err := s.validator.Struct(f, eventMessages); err != nil {
		return Event{}, err
	}
	if err := checkTimes(f.StartTime, f.EndTime); err != nil {
		return Event{}, err
	}

	date, err := validation.ParseDate(f.Date)
	if err != nil {
		return Event{}, validation.NewCastFailure("date", "date", "string", f.Date)
	}
	id, err := ids.NewULID()
	if err != nil {
		return Event{}, fmt.Errorf("generate id: %w", err)
	}

	event, err := s.repo.Create(ctx, Event{
		ID:          id,
		Title:       f.Title,
		Description: f.Description,
		Date:        date,
		StartTime:   f.StartTime,
		EndTime:     f.EndTime,
		CreatorID:   creator.ID,
	})
	if err != nil {
		return Event{}, fmt.Errorf("create event: %w", err)
	}
	s.logger.Info().Str("event_id", event.ID).Str("creator_id", creator.ID).Msg("event created")
	return event, nil
}

// Update applies the supplied fields to a live event. Only the creator or
// an admin may update; changed fields are validated, the time window is
// always rechecked.
func (s *Service) Update(ctx context.Context, actor users.User, id string, input Input) (Event, error) {
	event, err := s.load(ctx, id)
	if err != nil {
		return Event{}, err
	}
	if !auth.CanModify(actor.ID, actor.Role, event.CreatorID) {
		return Event{}, ErrForbidden
	}

	f := fields{
		Title:       event.Title,
		Description: event.Description,
		Date:        event.Date.Format(validation.DateLayout),
		StartTime:   event.StartTime,
		EndTime:     event.EndTime,
	}
	var changed []string
	if input.Title != nil {
		f.Title = sanitize.Text(*input.Title)
		changed = append(changed, "Title")
	}
	if input.Description != nil {
		f.Description = sanitize.Text(*input.Description)
		changed = append(changed, "Description")
	}
	if input.Date != nil {
		f.Date = strings.TrimSpace(*input.Date)
		changed = append(changed, "Date")
	}
	if input.StartTime != nil {
		f.StartTime = strings.TrimSpace(*input.StartTime)
		changed = append(changed, "StartTime")
	}
	if input.EndTime != nil {
		f.EndTime = strings.TrimSpace(*input.EndTime)
		changed = append(changed, "EndTime")
	}
	if len(changed) == 0 {
		return Event{}, ErrNoUpdateFields
	}

	if err := s.validator.StructPartial(f, eventMessages, changed...); err != nil {
		return Event{}, err
	}
	if err := checkTimes(f.StartTime, f.EndTime); err != nil {
		return Event{}, err
	}

	date, err := validation.ParseDate(f.Date)
	if err != nil {
		return Event{}, validation.NewCastFailure("date", "date", "string", f.Date)
	}
	event.Title = f.Title
	event.Description = f.Description
	event.Date = date
	event.StartTime = f.StartTime
	event.EndTime = f.EndTime

	updated, err := s.repo.Update(ctx, event)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return Event{}, ErrNotFound
		}
		return Event{}, fmt.Errorf("update event: %w", err)
	}
	s.auditForeign("event.update", actor, updated)
	return updated, nil
}

// Delete soft-deletes a live event. Only the creator or an admin may
// delete.
func (s *Service) Delete(ctx context.Context, actor users.User, id string) (Event, error) {
	event, err := s.load(ctx, id)
	if err != nil {
		return Event{}, err
	}
	if !auth.CanModify(actor.ID, actor.Role, event.CreatorID) {
		return Event{}, ErrForbidden
	}

	if err := s.repo.SoftDelete(ctx, event.ID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return Event{}, ErrNotFound
		}
		return Event{}, fmt.Errorf("delete event: %w", err)
	}
	event.IsDeleted = true
	s.auditForeign("event.delete", actor, event)
	return event, nil
}

// auditForeign records changes an admin makes to someone else's event.
func (s *Service) auditForeign(action string, actor users.User, event Event) {
	if actor.ID == event.CreatorID {
		return
	}
	s.auditLogger.LogSuccess(action, actor.ID, actor.Role, "event", event.ID, map[string]string{
		"creator_id": event.CreatorID,
	})
}

func (s *Service) load(ctx context.Context, id string) (Event, error) {
	event, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return Event{}, ErrNotFound
		}
		return Event{}, fmt.Errorf("get event: %w", err)
	}
	if event.IsDeleted {
		return Event{}, ErrNotFound
	}
	return event, nil
}

// checkTimes requires the end of the window to be strictly after the start.
// Malformed clocks are left to field validation.
func checkTimes(start, end string) error {
	if !validation.IsClock(start) || !validation.IsClock(end) {
		return nil
	}
	if minutes(end) <= minutes(start) {
		return ErrEndBeforeStart
	}
	return nil
}

func minutes(clock string) int {
	h := int(clock[0]-'0')*10 + int(clock[1]-'0')
	m := int(clock[3]-'0')*10 + int(clock[4]-'0')
	return h*60 + m
}

func blank(value *string) bool {
	return value == nil || strings.TrimSpace(*value) == ""
}
