package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/zeelus/server/internal/auth"
	"github.com/zeelus/server/internal/domain/ids"
	"github.com/zeelus/server/internal/storage"
	"github.com/zeelus/server/internal/validation"
)

// SignupInput is the signup request body. A role supplied by the client is
// ignored; new accounts are always plain users.
type SignupInput struct {
	Name            string `json:"name" validate:"required,min=3,max=40"`
	Email           string `json:"email" validate:"required,email"`
	DOB             string `json:"dob" validate:"required,isodate,past"`
	Password        string `json:"password" validate:"required,min=8"`
	ConfirmPassword string `json:"confirmPassword" validate:"eqfield=Password"`
}

var signupMessages = validation.Messages{
	"name.required":           "Name is required",
	"name.min":                "name can't be smaller than 3 characters",
	"name.max":                "name can't be larger than 40 characters",
	"email.required":          "Email is required",
	"email.email":             "%v is not a valid email address",
	"dob.required":            "Date is required",
	"dob.past":                "Date of birth must be in the past",
	"password.required":       "Password is required",
	"password.min":            "Password can't be smaller than 8 characters",
	"confirmPassword.eqfield": "Password and confirm password don't match",
}

type Service struct {
	repo      Repository
	validator *validation.Validator
	logger    zerolog.Logger
}

func NewService(repo Repository, validator *validation.Validator, logger zerolog.Logger) *Service {
	return &Service{
		repo:      repo,
		validator: validator,
		logger:    logger.With().Str("component", "users").Logger(),
	}
}

// Signup validates the input, hashes the password and stores a new user.
func (s *Service) Signup(ctx context.Context, input SignupInput) (User, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.TrimSpace(input.Email)

	if err := s.validator.Struct(input, signupMessages); err != nil {
		return User{}, err
	}

	dob, err := validation.ParseDate(input.DOB)
	if err != nil {
		return User{}, validation.NewCastFailure("dob", "date", "string", input.DOB)
	}

	return s.create(ctx, input.Name, input.Email, dob, input.Password, RoleUser)
}

// Authenticate checks an email/password pair. Unknown emails and wrong
// passwords both return ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (User, error) {
	user, err := s.repo.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return User{}, ErrInvalidCredentials
		}
		return User{}, fmt.Errorf("lookup user: %w", err)
	}

	ok, err := auth.CheckPassword(user.PasswordHash, password)
	if err != nil {
		return User{}, fmt.Errorf("check password: %w", err)
	}
	if !ok {
		return User{}, ErrInvalidCredentials
	}
	return user, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return User{}, ErrNotFound
		}
		return User{}, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// AdminParams seeds the administrator account at startup.
type AdminParams struct {
	Name     string
	Email    string
	Password string
}

// EnsureAdmin creates the administrator account unless a user with that
// email already exists. The bool reports whether a user was created.
func (s *Service) EnsureAdmin(ctx context.Context, params AdminParams) (User, bool, error) {
	existing, err := s.repo.GetByEmail(ctx, params.Email)
	if err == nil {
		if existing.Role != RoleAdmin {
			s.logger.Warn().Str("email", params.Email).Msg("bootstrap admin email belongs to a non-admin user")
		}
		return existing, false, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return User{}, false, fmt.Errorf("lookup admin: %w", err)
	}
	if len(params.Password) < 8 {
		return User{}, false, fmt.Errorf("admin password must be at least 8 characters")
	}

	name := strings.TrimSpace(params.Name)
	if name == "" {
		name = "Administrator"
	}
	user, err := s.create(ctx, name, params.Email, time.Unix(0, 0).UTC(), params.Password, RoleAdmin)
	if err != nil {
		return User{}, false, err
	}
	s.logger.Info().Str("user_id", user.ID).Str("email", user.Email).Msg("admin user created")
	return user, true, nil
}

func (s *Service) create(ctx context.Context, name, email string, dob time.Time, password, role string) (User, error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}
	id, err := ids.NewULID()
	if err != nil {
		return User{}, fmt.Errorf("generate id: %w", err)
	}

	user, err := s.repo.Create(ctx, CreateParams{
		ID:           id,
		Name:         name,
		Email:        email,
		DOB:          dob,
		PasswordHash: hash,
		Role:         role,
	})
	if err != nil {
		return User{}, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}
