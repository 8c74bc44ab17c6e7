package postgres

import (
	"errors"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/zeelus/server/internal/storage"
	"github.com/zeelus/server/internal/validation"
)

const (
	codeUniqueViolation           = "23505"
	codeInvalidTextRepresentation = "22P02"
)

// uniqueKeyPattern matches the column list in a unique violation detail,
// e.g. `Key (user_id, event_id)=(a, b) already exists.`
var uniqueKeyPattern = regexp.MustCompile(`Key \(([^)]+)\)=`)

// translateError maps driver errors onto the storage error vocabulary.
// Errors it does not recognise are returned unchanged.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return storage.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case codeUniqueViolation:
		return &storage.UniqueViolation{
			Constraint: pgErr.ConstraintName,
			Fields:     uniqueFields(pgErr.Detail),
		}
	case codeInvalidTextRepresentation:
		return &validation.CastError{Path: pgErr.ColumnName, Kind: pgErr.DataTypeName, ValueType: "string", Value: pgErr.Message}
	}
	return err
}

func uniqueFields(detail string) []string {
	match := uniqueKeyPattern.FindStringSubmatch(detail)
	if match == nil {
		return nil
	}
	columns := strings.Split(match[1], ",")
	fields := make([]string, 0, len(columns))
	for _, col := range columns {
		fields = append(fields, apiFieldName(strings.TrimSpace(col)))
	}
	return fields
}

// apiFieldName converts a snake_case column to its camelCase JSON name.
func apiFieldName(column string) string {
	parts := strings.Split(column, "_")
	for i := 1; i < len(parts); i++ {
		if parts[i] != "" {
			parts[i] = strings.ToUpper(parts[i][:1]) + parts[i][1:]
		}
	}
	return strings.Join(parts, "")
}
