// ABOUTME: Typed service errors mapped to transport status codes
// ABOUTME: Not found, duplicate email and validation failures

package services

import (
	"errors"
	"fmt"
)

// ErrLastAdmin is returned when a change would leave no admin account.
var ErrLastAdmin = errors.New("cannot remove the last admin user")

// NotFoundError reports a missing entity.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// DuplicateEmailError reports an email already used by another user.
type DuplicateEmailError struct {
	Email string
}

func (e *DuplicateEmailError) Error() string {
	return fmt.Sprintf("email %s is already registered", e.Email)
}

// ValidationError reports bad input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
