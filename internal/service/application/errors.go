package application

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Sentinel errors for the application service layer.
var (
	ErrNotFound      = errors.New("application not found")
	ErrInvalidInput  = errors.New("invalid input")
	ErrUnavailable   = errors.New("service unavailable")
	ErrNotConfigured = fmt.Errorf("%w: database not configured", ErrUnavailable)
)

// ValidateID checks that id is a well-formed identifier and returns its
// canonical text. Stores call it before touching the backend so a malformed
// identifier surfaces as ErrInvalidInput rather than a driver error.
func ValidateID(id string) (string, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return "", fmt.Errorf("%w: %q is not a valid id", ErrInvalidInput, id)
	}
	return parsed.String(), nil
}

// NewID returns a fresh store-assigned identifier.
func NewID() string {
	return uuid.NewString()
}

// rejected maps a store failure to ErrInvalidInput unless it already carries
// one of the service sentinels.
func rejected(err error) error {
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidInput) || errors.Is(err, ErrUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrInvalidInput, err)
}

// unavailable maps a store failure on a read path to ErrUnavailable.
func unavailable(err error) error {
	if errors.Is(err, ErrUnavailable) || errors.Is(err, ErrInvalidInput) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}
