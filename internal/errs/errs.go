// Package errs declares the error taxonomy shared by the core services.
package errs

import (
	"errors"

	"github.com/m-mizutani/goerr/v2"
)

var (
	// ErrValidation marks a missing or invalid required field.
	ErrValidation = goerr.New("validation error")
	// ErrNotFound marks an unknown memory, category, or relationship id.
	ErrNotFound = goerr.New("not found")
	// ErrDuplicate marks a unique-constraint violation on a link or category path.
	ErrDuplicate = goerr.New("duplicate")
	// ErrUnavailable marks an unreachable or persistently conflicting storage layer.
	ErrUnavailable = goerr.New("storage unavailable")
)

func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsDuplicate(err error) bool {
	return errors.Is(err, ErrDuplicate)
}

func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}
