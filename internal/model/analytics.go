package model

import (
	"time"
)

// SessionRecord is the per-session analytics view, derived solely from
// lifecycle events.
type SessionRecord struct {
	SessionID        string         `json:"session_id"`
	PersonaID        string         `json:"persona_id"`
	MessagesSent     int            `json:"messages_sent"`
	MessagesReceived int            `json:"messages_received"`
	PhaseChanges     int            `json:"phase_changes"`
	LastPhase        Phase          `json:"last_phase"`
	Outcome          TerminalReason `json:"outcome,omitempty"`
	Terminal         bool           `json:"terminal"`
	FirstEventAt     time.Time      `json:"first_event_at"`
	LastEventAt      time.Time      `json:"last_event_at"`
	ResponseTimes    []float64      `json:"response_times_seconds,omitempty"`
}

// PersonaSummary aggregates outcomes across sessions bound to one persona.
type PersonaSummary struct {
	PersonaID           string  `json:"persona_id"`
	Sessions            int     `json:"sessions"`
	Completed           int     `json:"completed"`
	Abandoned           int     `json:"abandoned"`
	Failed              int     `json:"failed"`
	CompletionRate      float64 `json:"completion_rate"`
	MeanResponseSeconds float64 `json:"mean_response_seconds"`
}

// RunSummary is the process-wide aggregate, computed on demand.
type RunSummary struct {
	Sessions            int              `json:"sessions"`
	Terminal            int              `json:"terminal"`
	MeanResponseSeconds float64          `json:"mean_response_seconds"`
	ByPersona           []PersonaSummary `json:"by_persona"`
}
