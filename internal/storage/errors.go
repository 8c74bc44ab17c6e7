package storage

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned by repositories when no row matches.
var ErrNotFound = errors.New("not found")

// UniqueViolation reports an insert or update that collided with a unique
// constraint. Fields lists the constrained columns as API field names.
type UniqueViolation struct {
	Constraint string
	Fields     []string
}

func (e *UniqueViolation) Error() string {
	if len(e.Fields) == 0 {
		return fmt.Sprintf("unique constraint %q violated", e.Constraint)
	}
	return fmt.Sprintf("duplicate value for %s", strings.Join(e.Fields, ", "))
}
