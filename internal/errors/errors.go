package errors

import (
	"errors"

	pkgerrors "github.com/pkg/errors"
)

// Process level errors. Authentication outcomes live in the auth package.
var (
	// Configuration errors
	ErrMissingSecret = errors.New("JWT_SECRET is not configured")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Wrapf annotates err with a formatted message. A nil err stays nil.
func Wrapf(err error, format string, args ...interface{}) error {
	return pkgerrors.Wrapf(err, format, args...)
}
