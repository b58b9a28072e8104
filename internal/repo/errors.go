package repo

import (
	"errors"
	"strings"

	"github.com/lib/pq"
)

// NotFoundError is returned when a lookup matches no row.
type NotFoundError struct {
	label string
}

func (e *NotFoundError) Error() string {
	return "repo: " + e.label + " not found"
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	var e *NotFoundError
	return errors.As(err, &e)
}

// ConstraintError wraps a unique or foreign key violation.
type ConstraintError struct {
	msg  string
	wrap error
}

func (e ConstraintError) Error() string {
	return "repo: constraint failed: " + e.msg
}

func (e *ConstraintError) Unwrap() error {
	return e.wrap
}

// IsConstraintError reports whether err is a ConstraintError.
func IsConstraintError(err error) bool {
	if err == nil {
		return false
	}
	var e *ConstraintError
	return errors.As(err, &e)
}

// asConstraint converts driver-level constraint failures into a
// ConstraintError and returns other errors unchanged.
func asConstraint(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Class() == "23" {
		return &ConstraintError{msg: pqErr.Message, wrap: err}
	}
	// modernc.org/sqlite reports e.g. "constraint failed: UNIQUE constraint failed: users.email (2067)".
	if strings.Contains(err.Error(), "constraint failed") {
		return &ConstraintError{msg: err.Error(), wrap: err}
	}
	return err
}
