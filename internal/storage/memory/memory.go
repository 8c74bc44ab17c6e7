// Package memory implements the repositories in process memory. It backs
// handler and router tests that do not need PostgreSQL.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/zeelus/server/internal/domain/bookings"
	"github.com/zeelus/server/internal/domain/events"
	"github.com/zeelus/server/internal/domain/users"
	"github.com/zeelus/server/internal/storage"
)

// Store holds every table. Reads join summaries the way the PostgreSQL
// repositories do.
type Store struct {
	mu       sync.Mutex
	users    map[string]users.User
	events   map[string]events.Event
	bookings map[string]bookings.Booking
	now      func() time.Time
}

func New() *Store {
	return &Store{
		users:    map[string]users.User{},
		events:   map[string]events.Event{},
		bookings: map[string]bookings.Booking{},
		now:      time.Now,
	}
}

func (s *Store) Users() *Users       { return &Users{s} }
func (s *Store) Events() *Events     { return &Events{s} }
func (s *Store) Bookings() *Bookings { return &Bookings{s} }

type Users struct{ s *Store }

func (r *Users) Create(_ context.Context, params users.CreateParams) (users.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, params.Email) {
			return users.User{}, &storage.UniqueViolation{Constraint: "users_email_key", Fields: []string{"email"}}
		}
	}
	now := r.s.now()
	user := users.User{
		ID:           params.ID,
		Name:         params.Name,
		Email:        params.Email,
		DOB:          params.DOB,
		PasswordHash: params.PasswordHash,
		Role:         params.Role,
		ProfileImg:   users.DefaultProfileImage,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	r.s.users[user.ID] = user
	return user, nil
}

func (r *Users) GetByID(_ context.Context, id string) (users.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if u, ok := r.s.users[id]; ok {
		return u, nil
	}
	return users.User{}, storage.ErrNotFound
}

func (r *Users) GetByEmail(_ context.Context, email string) (users.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return users.User{}, storage.ErrNotFound
}

type Events struct{ s *Store }

func (r *Events) Create(_ context.Context, event events.Event) (events.Event, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	event.CreatedAt = r.s.now()
	event.UpdatedAt = event.CreatedAt
	r.s.events[event.ID] = event
	return r.s.joinEvent(event), nil
}

func (r *Events) GetByID(_ context.Context, id string) (events.Event, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	event, ok := r.s.events[id]
	if !ok {
		return events.Event{}, storage.ErrNotFound
	}
	return r.s.joinEvent(event), nil
}

func (r *Events) List(_ context.Context, filters events.Filters) (events.ListResult, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var matched []events.Event
	for _, e := range r.s.events {
		if e.IsDeleted || !matches(e, filters) {
			continue
		}
		matched = append(matched, r.s.joinEvent(e))
	}
	sortEvents(matched)

	total := len(matched)
	start := min(filters.Offset(), total)
	end := min(start+filters.Limit, total)
	return events.ListResult{Events: matched[start:end], Total: total}, nil
}

func (r *Events) ListByCreator(_ context.Context, creatorID string) ([]events.Event, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []events.Event{}
	for _, e := range r.s.events {
		if e.CreatorID == creatorID && !e.IsDeleted {
			out = append(out, r.s.joinEvent(e))
		}
	}
	sortEvents(out)
	return out, nil
}

func (r *Events) Update(_ context.Context, event events.Event) (events.Event, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	current, ok := r.s.events[event.ID]
	if !ok || current.IsDeleted {
		return events.Event{}, storage.ErrNotFound
	}
	event.CreatedAt = current.CreatedAt
	event.UpdatedAt = r.s.now()
	r.s.events[event.ID] = event
	return r.s.joinEvent(event), nil
}

func (r *Events) SoftDelete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	current, ok := r.s.events[id]
	if !ok || current.IsDeleted {
		return storage.ErrNotFound
	}
	current.IsDeleted = true
	current.UpdatedAt = r.s.now()
	r.s.events[id] = current
	return nil
}

type Bookings struct{ s *Store }

func (r *Bookings) Create(_ context.Context, booking bookings.Booking) (bookings.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, b := range r.s.bookings {
		if b.UserID == booking.UserID && b.EventID == booking.EventID {
			return bookings.Booking{}, &storage.UniqueViolation{Constraint: "bookings_user_id_event_id_key", Fields: []string{"userId", "eventId"}}
		}
	}
	booking.CreatedAt = r.s.now()
	booking.UpdatedAt = booking.CreatedAt
	r.s.bookings[booking.ID] = booking
	return r.s.joinBooking(booking), nil
}

func (r *Bookings) GetByID(_ context.Context, id string) (bookings.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.bookings[id]
	if !ok {
		return bookings.Booking{}, storage.ErrNotFound
	}
	return r.s.joinBooking(b), nil
}

func (r *Bookings) Exists(_ context.Context, userID, eventID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, b := range r.s.bookings {
		if b.UserID == userID && b.EventID == eventID {
			return true, nil
		}
	}
	return false, nil
}

func (r *Bookings) ListByUser(_ context.Context, userID string) ([]bookings.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []bookings.Booking{}
	for _, b := range r.s.bookings {
		if b.UserID == userID {
			out = append(out, r.s.joinBooking(b))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *Bookings) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.bookings[id]; !ok {
		return storage.ErrNotFound
	}
	delete(r.s.bookings, id)
	return nil
}

// joinEvent and joinBooking expect s.mu to be held.
func (s *Store) joinEvent(e events.Event) events.Event {
	e.Creator = users.Summary{ID: e.CreatorID}
	if u, ok := s.users[e.CreatorID]; ok {
		e.Creator = u.Summary()
	}
	return e
}

func (s *Store) joinBooking(b bookings.Booking) bookings.Booking {
	b.User = users.Summary{ID: b.UserID}
	if u, ok := s.users[b.UserID]; ok {
		b.User = u.Summary()
	}
	b.Event = bookings.EventSummary{ID: b.EventID}
	if e, ok := s.events[b.EventID]; ok {
		b.Event = bookings.EventSummary{
			ID:          e.ID,
			Title:       e.Title,
			Description: e.Description,
			Date:        e.Date,
			StartTime:   e.StartTime,
			EndTime:     e.EndTime,
			CreatorID:   e.CreatorID,
		}
	}
	return b
}

func matches(e events.Event, f events.Filters) bool {
	if f.Title != "" && !strings.Contains(strings.ToLower(e.Title), strings.ToLower(f.Title)) {
		return false
	}
	if f.StartDate != nil && e.Date.Before(*f.StartDate) {
		return false
	}
	if f.EndDate != nil && e.Date.After(*f.EndDate) {
		return false
	}
	if f.StartTime != "" && e.StartTime < f.StartTime {
		return false
	}
	if f.EndTime != "" && e.EndTime > f.EndTime {
		return false
	}
	return true
}

func sortEvents(items []events.Event) {
	sort.Slice(items, func(i, j int) bool {
		if !items[i].Date.Equal(items[j].Date) {
			return items[i].Date.Before(items[j].Date)
		}
		if items[i].StartTime != items[j].StartTime {
			return items[i].StartTime < items[j].StartTime
		}
		return items[i].ID < items[j].ID
	})
}
