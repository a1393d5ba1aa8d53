package nlg

import (
	"fmt"
	"strings"

	"github.com/WhiteTorn/Wandero-Client-Simulation/internal/model"
)

// templateDraft renders a deterministic message for the intent. It is the
// fallback path when no LLM client is configured or a provider call fails.
func templateDraft(p model.Persona, intent model.Intent, s *model.Session) Draft {
	subject := intent.Subject
	if subject == "" {
		subject = deriveSubject(p, intent, s)
	}

	var body string
	switch intent.Kind {
	case model.IntentInitialInquiry:
		body = fmt.Sprintf(
			"Hello,\n\nMy name is %s and I am planning a trip. I found your agency while researching tours and I am interested in %s.\n\nCould you tell me more about your services and what kind of trips you offer?\n\nThanks,\n%s",
			p.Name, joinOr(p.Interests, "a guided tour"), p.Name,
		)

	case model.IntentProvideInfo:
		lines := make([]string, 0, len(intent.Items))
		for _, item := range intent.Items {
			lines = append(lines, renderItem(p, item))
		}
		body = fmt.Sprintf(
			"Hi,\n\nThanks for getting back to me. To answer your questions:\n\n%s\n\nWhat would you recommend for us?\n\nBest,\n%s",
			strings.Join(lines, "\n"), p.Name,
		)

	case model.IntentAskClarify:
		body = fmt.Sprintf(
			"Hi,\n\nI read your last message but I am not sure I follow. Could you clarify the details? I have a few questions before we decide anything.\n\nThanks,\n%s",
			p.Name,
		)

	case model.IntentAcceptProposal:
		body = fmt.Sprintf(
			"Hi,\n\nThe proposal looks great. We would like to accept it and move forward with booking. What are the next steps?\n\nBest,\n%s",
			p.Name,
		)

	case model.IntentRequestChange:
		body = fmt.Sprintf(
			"Hi,\n\nThank you for the proposal. Could you adjust it a little? We were hoping for something closer to our budget of $%d-%d. Is there any flexibility on the price?\n\nBest,\n%s",
			p.Budget.Min, p.Budget.Max, p.Name,
		)

	case model.IntentConfirmBooking:
		body = fmt.Sprintf(
			"Hi,\n\nPayment sent. Thank you for putting this together, we are really looking forward to the trip!\n\nBest,\n%s",
			p.Name,
		)

	case model.IntentForgottenDetail:
		detail := intent.Detail
		if detail == "" {
			detail = "we have a dietary restriction in the group"
		}
		body = fmt.Sprintf(
			"Hi again,\n\nSorry, one more thing I forgot to mention: %s. I hope that is not a problem.\n\nThanks,\n%s",
			detail, p.Name,
		)

	default:
		body = fmt.Sprintf("Hi,\n\nJust checking in on my trip inquiry.\n\nBest,\n%s", p.Name)
	}

	return Draft{Subject: subject, Body: body}
}

func renderItem(p model.Persona, item model.InfoItem) string {
	switch item {
	case model.InfoBudget:
		return fmt.Sprintf("- Our budget is around $%d-%d per person (%s).", p.Budget.Min, p.Budget.Max, p.Budget.Flexibility)
	case model.InfoDates:
		return fmt.Sprintf("- We are looking at %s for the travel dates.", p.TravelDates)
	case model.InfoGroupSize:
		return fmt.Sprintf("- The group is %s.", p.TravelGroup)
	case model.InfoInterests:
		return fmt.Sprintf("- We are most interested in %s.", joinOr(p.Interests, "seeing the highlights"))
	case model.InfoRequirements:
		if len(p.Requirements) == 0 {
			return "- No special requirements on our side."
		}
		return fmt.Sprintf("- A few things to keep in mind: %s.", strings.Join(p.Requirements, "; "))
	default:
		return fmt.Sprintf("- %s: happy to share more if needed.", item)
	}
}

func deriveSubject(p model.Persona, intent model.Intent, s *model.Session) string {
	if s != nil {
		for i := len(s.Messages) - 1; i >= 0; i-- {
			m := s.Messages[i]
			if m.Direction == model.DirectionInbound && m.Subject != "" {
				if strings.HasPrefix(m.Subject, "Re: ") {
					return m.Subject
				}
				return "Re: " + m.Subject
			}
		}
	}
	return fmt.Sprintf("Trip inquiry from %s", p.Name)
}

func joinOr(items []string, fallback string) string {
	if len(items) == 0 {
		return fallback
	}
	if len(items) == 1 {
		return items[0]
	}
	return strings.Join(items[:len(items)-1], ", ") + " and " + items[len(items)-1]
}
