package model

import (
	"time"
)

// Phase is the current stage of a session's negotiation state machine.
type Phase string

const (
	PhaseInitiating        Phase = "initiating"
	PhaseAwaitingReply     Phase = "awaiting_reply"
	PhaseGatheringInfo     Phase = "gathering_info"
	PhaseReviewingProposal Phase = "reviewing_proposal"
	PhaseNegotiating       Phase = "negotiating"
	PhaseConfirming        Phase = "confirming"
	PhaseCompleted         Phase = "completed"
	PhaseAbandoned         Phase = "abandoned"
	PhaseFailed            Phase = "failed"
)

// Terminal reports whether the phase ends the session.
func (p Phase) Terminal() bool {
	return p == PhaseCompleted || p == PhaseAbandoned || p == PhaseFailed
}

// phaseRules is the transition table of the negotiation state machine.
// Abandoned and Failed are reachable from every non-terminal phase and are
// handled in ValidTransition directly.
var phaseRules = map[Phase][]Phase{
	PhaseInitiating:        {PhaseAwaitingReply},
	PhaseAwaitingReply:     {PhaseGatheringInfo, PhaseReviewingProposal},
	PhaseGatheringInfo:     {PhaseAwaitingReply, PhaseReviewingProposal},
	PhaseReviewingProposal: {PhaseNegotiating, PhaseConfirming},
	PhaseNegotiating:       {PhaseReviewingProposal},
	PhaseConfirming:        {PhaseCompleted},
}

// ValidTransition reports whether moving from one phase to the next follows
// the rule table. The registry consults it before committing any
// compare-and-swap, so an out-of-table move can never be persisted.
func ValidTransition(from, to Phase) bool {
	if from == to {
		return true
	}
	if to == PhaseAbandoned || to == PhaseFailed {
		return !from.Terminal()
	}
	for _, p := range phaseRules[from] {
		if p == to {
			return true
		}
	}
	return false
}

// TerminalReason explains why a session ended.
type TerminalReason string

const (
	ReasonBooked         TerminalReason = "booked"
	ReasonLostInterest   TerminalReason = "lost_interest"
	ReasonRetryExhausted TerminalReason = "retry_exhausted"
	ReasonGenerationDead TerminalReason = "generation_failed"
	ReasonCancelled      TerminalReason = "cancelled"
)

// Session is one simulated client's ongoing conversation with the
// counterpart. It is owned exclusively by the registry; other components
// receive value snapshots and mutate through registry operations only.
type Session struct {
	ID        string `json:"id"`
	PersonaID string `json:"persona_id"`

	Phase          Phase             `json:"phase"`
	Messages       []Message         `json:"messages"`
	Shared         map[InfoItem]bool `json:"shared"`
	PendingDetails []string          `json:"pending_details,omitempty"`

	InterestLevel   float64 `json:"interest_level"`
	AbandonmentRisk float64 `json:"abandonment_risk"`

	Retries      int            `json:"retries"`
	NextDue      time.Time      `json:"next_due"`
	EventSeq     uint64         `json:"event_seq"`
	TerminalFlag bool           `json:"terminal"`
	Reason       TerminalReason `json:"terminal_reason,omitempty"`

	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	LastOutbound  *time.Time `json:"last_outbound,omitempty"`
	LastInbound   *time.Time `json:"last_inbound,omitempty"`
	ResponseTimes []float64  `json:"response_times_seconds,omitempty"`
}

// SharedAll reports whether every information item has been disclosed.
func (s *Session) SharedAll() bool {
	for _, item := range AllInfoItems() {
		if !s.Shared[item] {
			return false
		}
	}
	return true
}

// MissingItems returns the information items not yet disclosed, in canonical
// order.
func (s *Session) MissingItems() []InfoItem {
	var missing []InfoItem
	for _, item := range AllInfoItems() {
		if !s.Shared[item] {
			missing = append(missing, item)
		}
	}
	return missing
}

// Clone returns a deep copy safe to hand outside the registry.
func (s *Session) Clone() *Session {
	dup := *s
	dup.Messages = append([]Message(nil), s.Messages...)
	dup.PendingDetails = append([]string(nil), s.PendingDetails...)
	dup.ResponseTimes = append([]float64(nil), s.ResponseTimes...)
	dup.Shared = make(map[InfoItem]bool, len(s.Shared))
	for k, v := range s.Shared {
		dup.Shared[k] = v
	}
	if s.LastOutbound != nil {
		t := *s.LastOutbound
		dup.LastOutbound = &t
	}
	if s.LastInbound != nil {
		t := *s.LastInbound
		dup.LastInbound = &t
	}
	return &dup
}
