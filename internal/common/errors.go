// Package common provides shared utilities and types used across the application.
package common

import (
	"errors"
	"fmt"
)

// Common application errors.
var (
	// Artifact errors.
	ErrArtifactNotFound = errors.New("artifact not found")
	ErrArtifactVersion  = errors.New("unsupported artifact version")
	ErrArtifactMismatch = errors.New("artifacts do not match")

	// Input errors.
	ErrInvalidInput = errors.New("invalid input")
	ErrEmptyDataset = errors.New("dataset has no rows")

	// Configuration errors.
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}

// ArtifactMissing wraps ErrArtifactNotFound with the path and a hint for the operator.
func ArtifactMissing(kind, path string) error {
	return NewUserError(
		fmt.Sprintf("%s not found at %s; run `risk train` first", kind, path),
		ErrArtifactNotFound,
	)
}
