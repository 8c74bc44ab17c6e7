package events

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/zeelus/server/internal/storage"
)

type stubRepo struct {
	mu     sync.Mutex
	events map[string]Event
	now    func() time.Time
}

func newStubRepo() *stubRepo {
	return &stubRepo{events: map[string]Event{}, now: time.Now}
}

func (r *stubRepo) Create(_ context.Context, event Event) (Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	event.CreatedAt = r.now()
	event.UpdatedAt = event.CreatedAt
	event.Creator.ID = event.CreatorID
	r.events[event.ID] = event
	return event, nil
}

func (r *stubRepo) GetByID(_ context.Context, id string) (Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	event, ok := r.events[id]
	if !ok {
		return Event{}, storage.ErrNotFound
	}
	return event, nil
}

func (r *stubRepo) List(_ context.Context, filters Filters) (ListResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var matched []Event
	for _, e := range r.events {
		if e.IsDeleted {
			continue
		}
		if filters.Title != "" && !strings.Contains(strings.ToLower(e.Title), strings.ToLower(filters.Title)) {
			continue
		}
		if filters.StartDate != nil && e.Date.Before(*filters.StartDate) {
			continue
		}
		if filters.EndDate != nil && e.Date.After(*filters.EndDate) {
			continue
		}
		if filters.StartTime != "" && e.StartTime < filters.StartTime {
			continue
		}
		if filters.EndTime != "" && e.EndTime > filters.EndTime {
			continue
		}
		matched = append(matched, e)
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].Date.Equal(matched[j].Date) {
			return matched[i].Date.Before(matched[j].Date)
		}
		return matched[i].StartTime < matched[j].StartTime
	})

	total := len(matched)
	start := filters.Offset()
	if start > total {
		start = total
	}
	end := start + filters.Limit
	if end > total {
		end = total
	}
	return ListResult{Events: matched[start:end], Total: total}, nil
}

func (r *stubRepo) ListByCreator(_ context.Context, creatorID string) ([]Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Event
	for _, e := range r.events {
		if e.CreatorID == creatorID && !e.IsDeleted {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *stubRepo) Update(_ context.Context, event Event) (Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.events[event.ID]
	if !ok || current.IsDeleted {
		return Event{}, storage.ErrNotFound
	}
	event.UpdatedAt = r.now()
	r.events[event.ID] = event
	return event, nil
}

func (r *stubRepo) SoftDelete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.events[id]
	if !ok || current.IsDeleted {
		return storage.ErrNotFound
	}
	current.IsDeleted = true
	r.events[id] = current
	return nil
}
