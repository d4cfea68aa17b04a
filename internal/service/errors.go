package service

import (
	"errors"
	"fmt"

	"scamfeed/internal/repository"
)

var (
	ErrValidation        = errors.New("validation failed")
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrUnauthorized      = errors.New("unauthorized")
	// ErrStorage marks a failed, rolled back persistence step. Callers may retry.
	ErrStorage = errors.New("storage failure")
)

func validationErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// storeErr translates repository errors into the service taxonomy. Anything
// unrecognized is a storage failure that still matches the original cause.
func storeErr(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrValidation), errors.Is(err, ErrNotFound), errors.Is(err, ErrConflict),
		errors.Is(err, ErrInsufficientFunds), errors.Is(err, ErrUnauthorized), errors.Is(err, ErrStorage):
		return err
	case errors.Is(err, repository.ErrNotFound):
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	case errors.Is(err, repository.ErrInsufficientFunds):
		return fmt.Errorf("%s: %w", op, ErrInsufficientFunds)
	case errors.Is(err, repository.ErrDuplicate):
		return fmt.Errorf("%s: %w", op, ErrConflict)
	}
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}
