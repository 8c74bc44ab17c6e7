package ids

import (
	"crypto/rand"
	"regexp"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/zeelus/server/internal/validation"
)

var ulidRegex = regexp.MustCompile(`(?i)^[0-9A-HJKMNP-TV-Z]{26}$`)

// NewULID generates a new ULID string.
func NewULID() (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// IsULID returns true when value is a valid ULID (case-insensitive Crockford Base32).
func IsULID(value string) bool {
	return ulidRegex.MatchString(strings.TrimSpace(value))
}

// Parse normalises an identifier taken from a request. Anything that is not
// a ULID is reported as a cast failure at path.
func Parse(path, value string) (string, error) {
	value = strings.TrimSpace(value)
	if !IsULID(value) {
		return "", &validation.CastError{Path: path, Kind: "ULID", ValueType: "string", Value: value}
	}
	return strings.ToUpper(value), nil
}
