package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/zeelus/server/internal/domain/users"
)

var _ users.Repository = (*UserRepository)(nil)

type UserRepository struct {
	pool *pgxpool.Pool
}

const userColumns = `id, name, email, dob, password_hash, role, is_verified, profile_img, created_at, updated_at`

func (r *UserRepository) Create(ctx context.Context, params users.CreateParams) (users.User, error) {
	row := r.pool.QueryRow(ctx, `
INSERT INTO users (id, name, email, dob, password_hash, role)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING `+userColumns,
		params.ID, params.Name, params.Email, params.DOB, params.PasswordHash, params.Role,
	)
	user, err := scanUser(row)
	if err != nil {
		return users.User{}, fmt.Errorf("insert user: %w", translateError(err))
	}
	return user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (users.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	user, err := scanUser(row)
	if err != nil {
		return users.User{}, fmt.Errorf("get user: %w", translateError(err))
	}
	return user, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (users.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	user, err := scanUser(row)
	if err != nil {
		return users.User{}, fmt.Errorf("get user by email: %w", translateError(err))
	}
	return user, nil
}

func scanUser(row pgx.Row) (users.User, error) {
	var (
		user users.User
		dob  time.Time
	)
	if err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&dob,
		&user.PasswordHash,
		&user.Role,
		&user.IsVerified,
		&user.ProfileImg,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return users.User{}, err
	}
	user.DOB = dob.UTC()
	return user, nil
}
