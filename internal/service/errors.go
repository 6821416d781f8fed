package service

import "errors"

// Sentinel errors mapped to HTTP statuses by the handler layer
var (
	// ErrInvalidCredentials covers both unknown email and wrong password so
	// responses cannot be used to enumerate users.
	ErrInvalidCredentials = errors.New("Invalid credentials")
	// ErrEmailTaken is returned when the registration email already exists
	ErrEmailTaken = errors.New("User already exists")
	// ErrNotFound is returned when a transaction is absent or owned by
	// another user.
	ErrNotFound = errors.New("Transaction not found")
)

// ValidationError reports missing or malformed input
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func newValidationError(msg string) error {
	return &ValidationError{Message: msg}
}
