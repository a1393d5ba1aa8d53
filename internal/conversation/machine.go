// Package conversation implements the per-session negotiation state machine.
//
// Phase decisions come from an explicit rule table over (current phase,
// extracted inbound content, persona trait weights). Only message text is
// delegated to the NLG collaborator; the machine never asks it what to do
// next.
package conversation

import (
	"math/rand"

	"github.com/WhiteTorn/Wandero-Client-Simulation/internal/model"
)

// abandonThreshold is the interest level below which a persona considers
// walking away at its next reply.
const abandonThreshold = 0.3

// Decision is the machine's output for one step: the next phase, the
// outbound intent to draft (nil when the session goes quiet), and terminal
// bookkeeping. The caller applies it to the registry; the machine mutates
// nothing.
type Decision struct {
	NextPhase     model.Phase
	Intent        *model.Intent
	Terminal      bool
	Reason        model.TerminalReason
	InterestDelta float64
}

// Initiate produces the first step for a fresh session: draft the initial
// inquiry and wait for the counterpart.
func Initiate(p *model.Persona) Decision {
	return Decision{
		NextPhase: model.PhaseAwaitingReply,
		Intent:    &model.Intent{Kind: model.IntentInitialInquiry},
	}
}

// React computes the next phase and outbound intent for an inbound message.
// rng feeds the persona-weighted categorical draws; a fixed seed makes the
// walk through the rule table reproducible.
func React(p *model.Persona, s *model.Session, ext model.Extraction, rng *rand.Rand) Decision {
	if s.Phase.Terminal() {
		return Decision{NextPhase: s.Phase, Terminal: true, Reason: s.Reason}
	}

	interestDelta := 0.1 * float64(sign(ext.Sentiment))

	// Low interest opens the lost-interest exit from any non-terminal phase.
	// The draw combines the session's accumulated abandonment risk with the
	// persona's propensity to walk away.
	if s.InterestLevel+interestDelta < abandonThreshold &&
		rng.Float64() < s.AbandonmentRisk*p.LostInterestProbability {
		return Decision{
			NextPhase:     model.PhaseAbandoned,
			Terminal:      true,
			Reason:        model.ReasonLostInterest,
			InterestDelta: interestDelta,
		}
	}

	// Uninterpretable inbound: stay in phase, ask for clarification. This is
	// the ProtocolViolation recovery path and never errors out.
	if ext.Uninterpretable {
		return Decision{
			NextPhase:     s.Phase,
			Intent:        &model.Intent{Kind: model.IntentAskClarify},
			InterestDelta: interestDelta,
		}
	}

	switch s.Phase {
	case model.PhaseConfirming:
		if ext.HasInvoice {
			return Decision{
				NextPhase:     model.PhaseCompleted,
				Intent:        &model.Intent{Kind: model.IntentConfirmBooking},
				Terminal:      true,
				Reason:        model.ReasonBooked,
				InterestDelta: interestDelta,
			}
		}
		// The deal is already agreed. Anything short of an invoice gets a
		// clarifying nudge, never a reopened negotiation, even when the
		// counterpart restates prices.
		return Decision{
			NextPhase:     s.Phase,
			Intent:        &model.Intent{Kind: model.IntentAskClarify},
			InterestDelta: interestDelta,
		}

	case model.PhaseReviewingProposal:
		// The proposal arrived on a previous step; this step is the
		// persona's verdict on it.
		return reviewProposal(p, rng)

	case model.PhaseNegotiating:
		if ext.HasProposal || ext.HasDiscount {
			// A revised offer goes back under review; the verdict is drawn
			// on the next step.
			return Decision{NextPhase: model.PhaseReviewingProposal, InterestDelta: interestDelta}
		}
		return Decision{
			NextPhase:     s.Phase,
			Intent:        &model.Intent{Kind: model.IntentAskClarify},
			InterestDelta: interestDelta,
		}

	case model.PhaseAwaitingReply, model.PhaseGatheringInfo:
		if ext.HasProposal {
			return Decision{NextPhase: model.PhaseReviewingProposal, InterestDelta: interestDelta}
		}
		if len(ext.Requested) > 0 {
			items := undisclosed(s, ext.Requested)
			next := model.PhaseGatheringInfo
			if willShareAll(s, items) {
				// Everything the persona is willing to disclose is out;
				// nothing left to gather.
				next = model.PhaseAwaitingReply
			}
			return Decision{
				NextPhase:     next,
				Intent:        &model.Intent{Kind: model.IntentProvideInfo, Items: items},
				InterestDelta: interestDelta,
			}
		}
		// A greeting or chit-chat with no request: acknowledge and keep
		// waiting.
		return Decision{
			NextPhase:     model.PhaseAwaitingReply,
			Intent:        &model.Intent{Kind: model.IntentProvideInfo, Items: nil},
			InterestDelta: interestDelta,
		}
	}

	return Decision{
		NextPhase:     s.Phase,
		Intent:        &model.Intent{Kind: model.IntentAskClarify},
		InterestDelta: interestDelta,
	}
}

// reviewProposal draws the persona's verdict on the proposal under review
// from its trait weights: accept, request a change, or ask a clarifying
// question (self-loop). Sentiment was accounted for when the proposal
// arrived, so the verdict carries no interest shift of its own.
func reviewProposal(p *model.Persona, rng *rand.Rand) Decision {
	switch drawReaction(p.Decision, rng) {
	case reactionAccept:
		return Decision{
			NextPhase: model.PhaseConfirming,
			Intent:    &model.Intent{Kind: model.IntentAcceptProposal},
		}
	case reactionModify:
		return Decision{
			NextPhase: model.PhaseNegotiating,
			Intent:    &model.Intent{Kind: model.IntentRequestChange},
		}
	default:
		return Decision{
			NextPhase: model.PhaseReviewingProposal,
			Intent:    &model.Intent{Kind: model.IntentAskClarify},
		}
	}
}

type reaction int

const (
	reactionAccept reaction = iota
	reactionModify
	reactionClarify
)

func drawReaction(w model.TraitWeights, rng *rand.Rand) reaction {
	total := w.Accept + w.Modify + w.Clarify
	if total <= 0 {
		return reactionClarify
	}
	r := rng.Float64() * total
	if r < w.Accept {
		return reactionAccept
	}
	if r < w.Accept+w.Modify {
		return reactionModify
	}
	return reactionClarify
}

// undisclosed filters the requested items down to those not yet shared, in
// request order.
func undisclosed(s *model.Session, requested []model.InfoItem) []model.InfoItem {
	var items []model.InfoItem
	for _, item := range requested {
		if !s.Shared[item] {
			items = append(items, item)
		}
	}
	return items
}

// willShareAll reports whether disclosing items leaves nothing undisclosed.
func willShareAll(s *model.Session, items []model.InfoItem) bool {
	pending := make(map[model.InfoItem]bool, len(items))
	for _, item := range items {
		pending[item] = true
	}
	for _, item := range model.AllInfoItems() {
		if !s.Shared[item] && !pending[item] {
			return false
		}
	}
	return true
}

func sign(n int) int {
	switch {
	case n > 0:
		return 1
	case n < 0:
		return -1
	}
	return 0
}
