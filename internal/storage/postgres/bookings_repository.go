package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/zeelus/server/internal/domain/bookings"
	"github.com/zeelus/server/internal/storage"
)

var _ bookings.Repository = (*BookingRepository)(nil)

type BookingRepository struct {
	pool *pgxpool.Pool
}

const bookingSelect = `
SELECT b.id, b.user_id, u.name, u.email,
       b.event_id, e.title, e.description, e.date, e.start_time, e.end_time, e.creator_id,
       b.created_at, b.updated_at
  FROM bookings b
  JOIN users u ON u.id = b.user_id
  JOIN events e ON e.id = b.event_id`

func (r *BookingRepository) Create(ctx context.Context, booking bookings.Booking) (bookings.Booking, error) {
	_, err := r.pool.Exec(ctx, `
INSERT INTO bookings (id, user_id, event_id) VALUES ($1, $2, $3)
`, booking.ID, booking.UserID, booking.EventID)
	if err != nil {
		return bookings.Booking{}, fmt.Errorf("insert booking: %w", translateError(err))
	}
	return r.GetByID(ctx, booking.ID)
}

func (r *BookingRepository) GetByID(ctx context.Context, id string) (bookings.Booking, error) {
	row := r.pool.QueryRow(ctx, bookingSelect+` WHERE b.id = $1`, id)
	booking, err := scanBooking(row)
	if err != nil {
		return bookings.Booking{}, fmt.Errorf("get booking: %w", translateError(err))
	}
	return booking, nil
}

func (r *BookingRepository) Exists(ctx context.Context, userID, eventID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
SELECT EXISTS (SELECT 1 FROM bookings WHERE user_id = $1 AND event_id = $2)
`, userID, eventID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check booking: %w", translateError(err))
	}
	return exists, nil
}

func (r *BookingRepository) ListByUser(ctx context.Context, userID string) ([]bookings.Booking, error) {
	rows, err := r.pool.Query(ctx, bookingSelect+`
 WHERE b.user_id = $1
 ORDER BY b.created_at ASC, b.id ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", translateError(err))
	}
	defer rows.Close()

	items := make([]bookings.Booking, 0)
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		items = append(items, booking)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bookings: %w", translateError(err))
	}
	return items, nil
}

func (r *BookingRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM bookings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete booking: %w", translateError(err))
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func scanBooking(row pgx.Row) (bookings.Booking, error) {
	var (
		b    bookings.Booking
		date time.Time
	)
	if err := row.Scan(
		&b.ID,
		&b.UserID,
		&b.User.Name,
		&b.User.Email,
		&b.EventID,
		&b.Event.Title,
		&b.Event.Description,
		&date,
		&b.Event.StartTime,
		&b.Event.EndTime,
		&b.Event.CreatorID,
		&b.CreatedAt,
		&b.UpdatedAt,
	); err != nil {
		return bookings.Booking{}, err
	}
	b.User.ID = b.UserID
	b.Event.ID = b.EventID
	b.Event.Date = date.UTC()
	return b, nil
}
