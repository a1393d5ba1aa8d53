package middleware

import (
	"errors"
	"unicode/utf8"

	"github.com/google/uuid"
)

// ValidateSessionID validates a session ID.
func ValidateSessionID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return errors.New("invalid session ID format")
	}
	return nil
}

// ValidatePersonaID validates a persona ID.
func ValidatePersonaID(id string) error {
	if len(id) == 0 {
		return errors.New("persona ID cannot be empty")
	}
	if len(id) > 64 {
		return errors.New("persona ID exceeds maximum length")
	}
	if !utf8.ValidString(id) {
		return errors.New("persona ID must be valid UTF-8")
	}
	return nil
}
