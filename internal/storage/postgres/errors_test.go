package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
	"github.com/zeelus/server/internal/storage"
	"github.com/zeelus/server/internal/validation"
)

func TestTranslateError(t *testing.T) {
	require.NoError(t, translateError(nil))
	require.ErrorIs(t, translateError(fmt.Errorf("scan: %w", pgx.ErrNoRows)), storage.ErrNotFound)

	dup := translateError(&pgconn.PgError{
		Code:           codeUniqueViolation,
		ConstraintName: "bookings_user_id_event_id_key",
		Detail:         "Key (user_id, event_id)=(01A, 01B) already exists.",
	})
	var unique *storage.UniqueViolation
	require.ErrorAs(t, dup, &unique)
	require.Equal(t, []string{"userId", "eventId"}, unique.Fields)

	cast := translateError(&pgconn.PgError{Code: codeInvalidTextRepresentation, Message: "invalid input syntax for type date"})
	var castErr *validation.CastError
	require.ErrorAs(t, cast, &castErr)

	other := errors.New("connection refused")
	require.Equal(t, other, translateError(other))
}

func TestUniqueFieldsEmail(t *testing.T) {
	require.Equal(t, []string{"email"}, uniqueFields("Key (email)=(a@b.c) already exists."))
	require.Nil(t, uniqueFields("something else"))
}
