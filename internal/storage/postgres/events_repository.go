package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/zeelus/server/internal/domain/events"
	"github.com/zeelus/server/internal/storage"
)

var _ events.Repository = (*EventRepository)(nil)

type EventRepository struct {
	pool *pgxpool.Pool
}

const eventSelect = `
SELECT e.id, e.title, e.description, e.date, e.start_time, e.end_time, e.is_deleted,
       e.creator_id, u.name, u.email, e.created_at, e.updated_at
  FROM events e
  JOIN users u ON u.id = e.creator_id`

const eventFilter = `
 WHERE NOT e.is_deleted
   AND ($1 = '' OR e.title ILIKE '%' || $1 || '%' ESCAPE '\')
   AND ($2::date IS NULL OR e.date >= $2::date)
   AND ($3::date IS NULL OR e.date <= $3::date)
   AND ($4 = '' OR e.start_time >= $4)
   AND ($5 = '' OR e.end_time <= $5)`

func (r *EventRepository) Create(ctx context.Context, event events.Event) (events.Event, error) {
	q := r.pool
	_, err := q.Exec(ctx, `
INSERT INTO events (id, title, description, date, start_time, end_time, creator_id)
VALUES ($1, $2, $3, $4, $5, $6, $7)
`, event.ID, event.Title, event.Description, event.Date, event.StartTime, event.EndTime, event.CreatorID)
	if err != nil {
		return events.Event{}, fmt.Errorf("insert event: %w", translateError(err))
	}
	return r.GetByID(ctx, event.ID)
}

func (r *EventRepository) GetByID(ctx context.Context, id string) (events.Event, error) {
	row := r.pool.QueryRow(ctx, eventSelect+` WHERE e.id = $1`, id)
	event, err := scanEvent(row)
	if err != nil {
		return events.Event{}, fmt.Errorf("get event: %w", translateError(err))
	}
	return event, nil
}

func (r *EventRepository) List(ctx context.Context, filters events.Filters) (events.ListResult, error) {
	q := r.pool
	args := []any{
		escapeLike(filters.Title),
		filters.StartDate,
		filters.EndDate,
		filters.StartTime,
		filters.EndTime,
	}

	var total int
	if err := q.QueryRow(ctx, `SELECT count(*) FROM events e`+eventFilter, args...).Scan(&total); err != nil {
		return events.ListResult{}, fmt.Errorf("count events: %w", translateError(err))
	}

	rows, err := q.Query(ctx, eventSelect+eventFilter+`
 ORDER BY e.date ASC, e.start_time ASC, e.id ASC
 LIMIT $6 OFFSET $7`, append(args, filters.Limit, filters.Offset())...)
	if err != nil {
		return events.ListResult{}, fmt.Errorf("list events: %w", translateError(err))
	}
	items, err := collectEvents(rows)
	if err != nil {
		return events.ListResult{}, err
	}
	return events.ListResult{Events: items, Total: total}, nil
}

func (r *EventRepository) ListByCreator(ctx context.Context, creatorID string) ([]events.Event, error) {
	rows, err := r.pool.Query(ctx, eventSelect+`
 WHERE e.creator_id = $1 AND NOT e.is_deleted
 ORDER BY e.date ASC, e.start_time ASC, e.id ASC`, creatorID)
	if err != nil {
		return nil, fmt.Errorf("list creator events: %w", translateError(err))
	}
	return collectEvents(rows)
}

func (r *EventRepository) Update(ctx context.Context, event events.Event) (events.Event, error) {
	tag, err := r.pool.Exec(ctx, `
UPDATE events
   SET title = $2, description = $3, date = $4, start_time = $5, end_time = $6, updated_at = now()
 WHERE id = $1 AND NOT is_deleted
`, event.ID, event.Title, event.Description, event.Date, event.StartTime, event.EndTime)
	if err != nil {
		return events.Event{}, fmt.Errorf("update event: %w", translateError(err))
	}
	if tag.RowsAffected() == 0 {
		return events.Event{}, storage.ErrNotFound
	}
	return r.GetByID(ctx, event.ID)
}

func (r *EventRepository) SoftDelete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `
UPDATE events SET is_deleted = true, updated_at = now() WHERE id = $1 AND NOT is_deleted
`, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", translateError(err))
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func collectEvents(rows pgx.Rows) ([]events.Event, error) {
	defer rows.Close()

	items := make([]events.Event, 0)
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		items = append(items, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", translateError(err))
	}
	return items, nil
}

func scanEvent(row pgx.Row) (events.Event, error) {
	var (
		event events.Event
		date  time.Time
	)
	if err := row.Scan(
		&event.ID,
		&event.Title,
		&event.Description,
		&date,
		&event.StartTime,
		&event.EndTime,
		&event.IsDeleted,
		&event.CreatorID,
		&event.Creator.Name,
		&event.Creator.Email,
		&event.CreatedAt,
		&event.UpdatedAt,
	); err != nil {
		return events.Event{}, err
	}
	event.Date = date.UTC()
	event.Creator.ID = event.CreatorID
	return event, nil
}

// escapeLike escapes LIKE wildcards so user input matches literally.
func escapeLike(value string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(value)
}
