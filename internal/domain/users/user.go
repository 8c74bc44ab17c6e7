package users

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound           = errors.New("user not found")
	ErrInvalidCredentials = errors.New("incorrect email or password")
)

const (
	DefaultProfileImage = "default"
	RoleUser            = "user"
	RoleAdmin           = "admin"
)

type User struct {
	ID           string
	Name         string
	Email        string
	DOB          time.Time
	PasswordHash string
	Role         string
	IsVerified   bool
	ProfileImg   string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Age is the number of whole years between the date of birth and now.
func (u User) Age(now time.Time) int {
	now = now.UTC()
	dob := u.DOB.UTC()
	age := now.Year() - dob.Year()
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		age--
	}
	return age
}

// Summary is the subset of a user embedded in events and bookings.
type Summary struct {
	ID    string
	Name  string
	Email string
}

func (u User) Summary() Summary {
	return Summary{ID: u.ID, Name: u.Name, Email: u.Email}
}

type CreateParams struct {
	ID           string
	Name         string
	Email        string
	DOB          time.Time
	PasswordHash string
	Role         string
}

// Repository persists users. Create reports a duplicate email as a
// *storage.UniqueViolation; lookups report storage.ErrNotFound.
type Repository interface {
	Create(ctx context.Context, params CreateParams) (User, error)
	GetByID(ctx context.Context, id string) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
}
