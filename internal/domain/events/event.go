package events

import (
	"context"
	"errors"
	"time"

	"github.com/zeelus/server/internal/domain/users"
)

var (
	ErrNotFound       = errors.New("event not found")
	ErrForbidden      = errors.New("not allowed to modify event")
	ErrMissingFields  = errors.New("missing required event fields")
	ErrNoUpdateFields = errors.New("no updatable fields provided")
	ErrEndBeforeStart = errors.New("end time must be after start time")
)

type Event struct {
	ID          string
	Title       string
	Description string
	Date        time.Time
	StartTime   string
	EndTime     string
	IsDeleted   bool
	CreatorID   string
	Creator     users.Summary
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Input carries the writable fields of an event. A nil field was absent
// from the request body.
type Input struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Date        *string `json:"date"`
	StartTime   *string `json:"startTime"`
	EndTime     *string `json:"endTime"`
}

type Filters struct {
	Title     string
	StartDate *time.Time
	EndDate   *time.Time
	StartTime string
	EndTime   string
	Limit     int
	Page      int
}

// Offset is the number of rows skipped before the requested page.
func (f Filters) Offset() int {
	return (f.Page - 1) * f.Limit
}

type ListResult struct {
	Events []Event
	Total  int
}

type Pagination struct {
	TotalItems  int `json:"totalItems"`
	TotalPages  int `json:"totalPages"`
	CurrentPage int `json:"currentPage"`
	Limit       int `json:"limit"`
}

type Page struct {
	Events     []Event
	Pagination Pagination
}

// Repository persists events. Reads join the creator summary. GetByID
// returns soft-deleted rows so callers can tell them apart; Update and
// SoftDelete only touch live rows and report storage.ErrNotFound otherwise.
type Repository interface {
	Create(ctx context.Context, event Event) (Event, error)
	GetByID(ctx context.Context, id string) (Event, error)
	List(ctx context.Context, filters Filters) (ListResult, error)
	ListByCreator(ctx context.Context, creatorID string) ([]Event, error)
	Update(ctx context.Context, event Event) (Event, error)
	SoftDelete(ctx context.Context, id string) error
}
