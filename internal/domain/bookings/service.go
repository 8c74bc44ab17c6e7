package bookings

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/zeelus/server/internal/audit"
	"github.com/zeelus/server/internal/auth"
	"github.com/zeelus/server/internal/domain/events"
	"github.com/zeelus/server/internal/domain/ids"
	"github.com/zeelus/server/internal/domain/users"
	"github.com/zeelus/server/internal/storage"
)

// EventLookup resolves live events. *events.Service satisfies it.
type EventLookup interface {
	Get(ctx context.Context, id string) (events.Event, error)
}

type Service struct {
	repo        Repository
	events      EventLookup
	auditLogger *audit.Logger
	logger      zerolog.Logger
}

func NewService(repo Repository, lookup EventLookup, auditLogger *audit.Logger, logger zerolog.Logger) *Service {
	return &Service{
		repo:        repo,
		events:      lookup,
		auditLogger: auditLogger,
		logger:      logger.With().Str("component", "bookings").Logger(),
	}
}

func (s *Service) ListForUser(ctx context.Context, userID string) ([]Booking, error) {
	items, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	return items, nil
}

// Create books eventID for user. The event must be live, not already booked
// by the user, and not created by the user.
func (s *Service) Create(ctx context.Context, user users.User, eventID string) (Booking, error) {
	event, err := s.events.Get(ctx, eventID)
	if err != nil {
		if errors.Is(err, events.ErrNotFound) {
			return Booking{}, ErrEventNotFound
		}
		return Booking{}, fmt.Errorf("lookup event: %w", err)
	}

	exists, err := s.repo.Exists(ctx, user.ID, event.ID)
	if err != nil {
		return Booking{}, fmt.Errorf("check booking: %w", err)
	}
	if exists {
		return Booking{}, ErrAlreadyBooked
	}
	if event.CreatorID == user.ID {
		return Booking{}, ErrOwnEvent
	}

	id, err := ids.NewULID()
	if err != nil {
		return Booking{}, fmt.Errorf("generate id: %w", err)
	}
	booking, err := s.repo.Create(ctx, Booking{ID: id, UserID: user.ID, EventID: event.ID})
	if err != nil {
		var dup *storage.UniqueViolation
		if errors.As(err, &dup) {
			return Booking{}, ErrAlreadyBooked
		}
		return Booking{}, fmt.Errorf("create booking: %w", err)
	}
	return booking, nil
}

// Delete removes a booking. Only its owner or an admin may delete it.
// Denied attempts and admin deletions of another user's booking are
// audited.
func (s *Service) Delete(ctx context.Context, actor users.User, id string) error {
	booking, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("get booking: %w", err)
	}
	if !auth.CanModify(actor.ID, actor.Role, booking.UserID) {
		s.auditLogger.LogFailure("booking.delete", actor.ID, actor.Role, "booking", booking.ID, map[string]string{
			"owner_id": booking.UserID,
		})
		return ErrForbidden
	}

	if err := s.repo.Delete(ctx, booking.ID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete booking: %w", err)
	}

	if actor.ID != booking.UserID {
		s.auditLogger.LogSuccess("booking.delete", actor.ID, actor.Role, "booking", booking.ID, map[string]string{
			"owner_id": booking.UserID,
			"event_id": booking.EventID,
		})
	}
	return nil
}
