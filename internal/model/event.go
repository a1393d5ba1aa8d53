package model

import (
	"time"
)

// EventKind is the type of a session lifecycle event.
type EventKind string

const (
	EventMessageSent     EventKind = "message_sent"
	EventMessageReceived EventKind = "message_received"
	EventPhaseChanged    EventKind = "phase_changed"
	EventSessionTerminal EventKind = "session_terminal"
)

// LifecycleEvent is emitted by the step runner on every observable session
// change and consumed by the analytics recorder. Seq is per-session and
// strictly increasing, which is what makes replay deduplication possible.
type LifecycleEvent struct {
	SessionID string         `json:"session_id"`
	PersonaID string         `json:"persona_id"`
	Seq       uint64         `json:"seq"`
	Kind      EventKind      `json:"kind"`
	Phase     Phase          `json:"phase,omitempty"`
	PrevPhase Phase          `json:"prev_phase,omitempty"`
	Reason    TerminalReason `json:"reason,omitempty"`
	// ResponseTimeSeconds is set on message_received events: how long the
	// counterpart took to answer the previous outbound message.
	ResponseTimeSeconds float64   `json:"response_time_seconds,omitempty"`
	CreatedAt           time.Time `json:"created_at"`
}
