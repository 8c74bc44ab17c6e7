package bookings

import (
	"context"
	"errors"
	"time"

	"github.com/zeelus/server/internal/domain/users"
)

var (
	ErrNotFound      = errors.New("booking not found")
	ErrForbidden     = errors.New("not allowed to delete booking")
	ErrEventNotFound = errors.New("event not found")
	ErrAlreadyBooked = errors.New("event already booked")
	ErrOwnEvent      = errors.New("cannot book own event")
)

type Booking struct {
	ID        string
	UserID    string
	EventID   string
	User      users.Summary
	Event     EventSummary
	CreatedAt time.Time
	UpdatedAt time.Time
}

// EventSummary is the event as embedded in a booking.
type EventSummary struct {
	ID          string
	Title       string
	Description string
	Date        time.Time
	StartTime   string
	EndTime     string
	CreatorID   string
}

// Repository persists bookings. Reads join the user and event summaries.
// Create reports a second booking of the same event by the same user as a
// *storage.UniqueViolation.
type Repository interface {
	Create(ctx context.Context, booking Booking) (Booking, error)
	GetByID(ctx context.Context, id string) (Booking, error)
	Exists(ctx context.Context, userID, eventID string) (bool, error)
	ListByUser(ctx context.Context, userID string) ([]Booking, error)
	Delete(ctx context.Context, id string) error
}
