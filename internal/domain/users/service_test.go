package users

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/zeelus/server/internal/auth"
	"github.com/zeelus/server/internal/storage"
	"github.com/zeelus/server/internal/validation"
)

type stubRepo struct {
	mu      sync.Mutex
	byID    map[string]User
	lookErr error
}

func newStubRepo() *stubRepo {
	return &stubRepo{byID: map[string]User{}}
}

func (r *stubRepo) Create(_ context.Context, params CreateParams) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byID {
		if strings.EqualFold(u.Email, params.Email) {
			return User{}, &storage.UniqueViolation{Constraint: "users_email_key", Fields: []string{"email"}}
		}
	}
	user := User{
		ID:           params.ID,
		Name:         params.Name,
		Email:        params.Email,
		DOB:          params.DOB,
		PasswordHash: params.PasswordHash,
		Role:         params.Role,
		ProfileImg:   DefaultProfileImage,
	}
	r.byID[user.ID] = user
	return user, nil
}

func (r *stubRepo) GetByID(_ context.Context, id string) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.byID[id]; ok {
		return u, nil
	}
	return User{}, storage.ErrNotFound
}

func (r *stubRepo) GetByEmail(_ context.Context, email string) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.lookErr != nil {
		return User{}, r.lookErr
	}
	for _, u := range r.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return User{}, storage.ErrNotFound
}

func newTestService(repo Repository) *Service {
	v := validation.New(validation.WithClock(func() time.Time {
		return time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	}))
	return NewService(repo, v, zerolog.Nop())
}

func validSignup() SignupInput {
	return SignupInput{
		Name:            "Grace Hopper",
		Email:           "grace@example.com",
		DOB:             "1990-12-09",
		Password:        "cobol-rules",
		ConfirmPassword: "cobol-rules",
	}
}

func TestSignupCreatesUser(t *testing.T) {
	repo := newStubRepo()
	svc := newTestService(repo)

	user, err := svc.Signup(context.Background(), validSignup())
	require.NoError(t, err)
	require.NotEmpty(t, user.ID)
	require.Equal(t, RoleUser, user.Role)
	require.Equal(t, time.Date(1990, 12, 9, 0, 0, 0, 0, time.UTC), user.DOB)
	require.NotEqual(t, "cobol-rules", user.PasswordHash)

	ok, err := auth.CheckPassword(user.PasswordHash, "cobol-rules")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestSignupValidation(t *testing.T) {
	svc := newTestService(newStubRepo())

	in := validSignup()
	in.Email = "grace-at-example"
	_, err := svc.Signup(context.Background(), in)
	var verr *validation.Error
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "grace-at-example is not a valid email address", verr.First().Describe())

	in = validSignup()
	in.ConfirmPassword = "other"
	_, err = svc.Signup(context.Background(), in)
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "Password and confirm password don't match", verr.First().Message)

	in = validSignup()
	in.Password, in.ConfirmPassword = "short", "short"
	_, err = svc.Signup(context.Background(), in)
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "Password can't be smaller than 8 characters", verr.First().Message)
}

func TestSignupDuplicateEmail(t *testing.T) {
	svc := newTestService(newStubRepo())
	_, err := svc.Signup(context.Background(), validSignup())
	require.NoError(t, err)

	_, err = svc.Signup(context.Background(), validSignup())
	var dup *storage.UniqueViolation
	require.ErrorAs(t, err, &dup)
	require.Equal(t, []string{"email"}, dup.Fields)
}

func TestAuthenticate(t *testing.T) {
	svc := newTestService(newStubRepo())
	created, err := svc.Signup(context.Background(), validSignup())
	require.NoError(t, err)

	user, err := svc.Authenticate(context.Background(), "grace@example.com", "cobol-rules")
	require.NoError(t, err)
	require.Equal(t, created.ID, user.ID)

	_, err = svc.Authenticate(context.Background(), "grace@example.com", "wrong-password")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Authenticate(context.Background(), "nobody@example.com", "cobol-rules")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthenticateStorageFailure(t *testing.T) {
	repo := newStubRepo()
	repo.lookErr = errors.New("connection reset")
	svc := newTestService(repo)

	_, err := svc.Authenticate(context.Background(), "grace@example.com", "x")
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrInvalidCredentials)
}

func TestGetByIDNotFound(t *testing.T) {
	svc := newTestService(newStubRepo())
	_, err := svc.GetByID(context.Background(), "01HYX3KQW7ERTV9XNBM2P8QJZF")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestEnsureAdminIsIdempotent(t *testing.T) {
	svc := newTestService(newStubRepo())
	params := AdminParams{Name: "Root", Email: "admin@example.com", Password: "admin-password"}

	admin, created, err := svc.EnsureAdmin(context.Background(), params)
	require.NoError(t, err)
	require.True(t, created)
	require.Equal(t, RoleAdmin, admin.Role)

	again, created, err := svc.EnsureAdmin(context.Background(), params)
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, admin.ID, again.ID)
}

func TestAge(t *testing.T) {
	u := User{DOB: time.Date(2000, 6, 16, 0, 0, 0, 0, time.UTC)}
	require.Equal(t, 25, u.Age(time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)))
	require.Equal(t, 26, u.Age(time.Date(2026, 6, 16, 0, 0, 0, 0, time.UTC)))
}
