package model

import (
	"errors"
	"fmt"
)

// Sentinel errors for the collaborator boundary and session lifecycle.
var (
	// ErrRetryExhausted means a session ran out of its retry budget.
	ErrRetryExhausted = errors.New("retry budget exhausted")
	// ErrSessionNotFound is returned by the registry for unknown ids.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionTerminal is returned when mutating an ended session.
	ErrSessionTerminal = errors.New("session already terminal")
	// ErrPhaseConflict is returned by compare-and-transition when the
	// expected phase no longer matches.
	ErrPhaseConflict = errors.New("phase conflict")
	// ErrInvalidTransition is returned by compare-and-transition when the
	// target phase is not reachable from the expected one.
	ErrInvalidTransition = errors.New("phase transition not allowed")
)

// TransportError is a transient send/poll failure. Always retryable.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// GenerationError is a failure of the NLG collaborator. Transient unless it
// repeats past the configured ceiling.
type GenerationError struct {
	Provider string
	Err      error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation (%s): %v", e.Provider, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// ProtocolViolation marks inbound content the state machine could not
// interpret. It is recovered locally (stay in phase, ask for clarification)
// and never propagated out of the machine.
type ProtocolViolation struct {
	SessionID string
	Detail    string
}

func (e *ProtocolViolation) Error() string {
	return fmt.Sprintf("uninterpretable inbound for session %s: %s", e.SessionID, e.Detail)
}

// IsTransient reports whether err should take the scheduler's backoff path.
func IsTransient(err error) bool {
	var te *TransportError
	var ge *GenerationError
	return errors.As(err, &te) || errors.As(err, &ge)
}
