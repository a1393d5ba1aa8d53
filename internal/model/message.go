package model

import (
	"time"
)

// Direction indicates whether a message was sent by the simulated client or
// received from the counterpart agency.
type Direction string

const (
	DirectionOutbound Direction = "outbound"
	DirectionInbound  Direction = "inbound"
)

// InfoItem names a piece of trip information the counterpart needs before it
// can produce a proposal.
type InfoItem string

const (
	InfoBudget       InfoItem = "budget"
	InfoDates        InfoItem = "dates"
	InfoGroupSize    InfoItem = "group_size"
	InfoInterests    InfoItem = "interests"
	InfoRequirements InfoItem = "requirements"
)

// AllInfoItems lists every information item in canonical order.
func AllInfoItems() []InfoItem {
	return []InfoItem{InfoBudget, InfoDates, InfoGroupSize, InfoInterests, InfoRequirements}
}

// Extraction is the structured reading of a message: which information items
// it requested or supplied, and the proposal/negotiation markers it carried.
type Extraction struct {
	Requested   []InfoItem `json:"requested,omitempty"`
	Provided    []InfoItem `json:"provided,omitempty"`
	HasProposal bool       `json:"has_proposal,omitempty"`
	HasDiscount bool       `json:"has_discount,omitempty"`
	HasInvoice  bool       `json:"has_invoice,omitempty"`
	Sentiment   int        `json:"sentiment,omitempty"`
	// Uninterpretable is set when the body matched nothing the rule table
	// understands; the session stays in phase and asks for clarification.
	Uninterpretable bool `json:"uninterpretable,omitempty"`
}

// Message is immutable once created. Ordering within a session is insertion
// order and is the negotiation history.
type Message struct {
	ID         string     `json:"id"`
	SessionID  string     `json:"session_id"`
	Direction  Direction  `json:"direction"`
	Subject    string     `json:"subject"`
	Body       string     `json:"body"`
	Extraction Extraction `json:"extraction"`
	CreatedAt  time.Time  `json:"created_at"`
}

// IntentKind is the purpose of a drafted outbound message. The state machine
// decides the intent; only the text realization is delegated to the NLG
// collaborator.
type IntentKind string

const (
	IntentInitialInquiry  IntentKind = "initial_inquiry"
	IntentProvideInfo     IntentKind = "provide_info"
	IntentAskClarify      IntentKind = "ask_clarification"
	IntentAcceptProposal  IntentKind = "accept_proposal"
	IntentRequestChange   IntentKind = "request_change"
	IntentConfirmBooking  IntentKind = "confirm_booking"
	IntentForgottenDetail IntentKind = "forgotten_detail"
)

// Intent is a drafted outbound message request: what to say, not how.
type Intent struct {
	Kind    IntentKind `json:"kind"`
	Items   []InfoItem `json:"items,omitempty"`
	Subject string     `json:"subject,omitempty"`
	// Detail carries the single forgotten requirement for
	// IntentForgottenDetail drafts.
	Detail string `json:"detail,omitempty"`
}
