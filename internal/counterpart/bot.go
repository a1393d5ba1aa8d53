// Package counterpart implements a scripted travel-agency bot.
//
// It stands in for the real counterpart agent during broker-less demo runs
// and tests, walking each session through the canonical agency script:
// greeting and information request, proposal, one round of discount, then
// invoice.
package counterpart

import (
	"fmt"
	"strings"
	"sync"
)

// Company describes the simulated agency.
type Company struct {
	Name    string
	Country string
	Context string
}

// Bot replies to client mail with phase-appropriate agency messages.
type Bot struct {
	company Company

	mu    sync.Mutex
	state map[string]*sessionState
}

type sessionState struct {
	askedInfo    bool
	sentProposal bool
	sentDiscount bool
	sentInvoice  bool
	price        int
}

// NewBot creates a bot for the given company.
func NewBot(company Company) *Bot {
	return &Bot{
		company: company,
		state:   make(map[string]*sessionState),
	}
}

// Respond produces the agency's reply to a client message. It satisfies the
// loopback transport's Responder interface.
func (b *Bot) Respond(sessionID, subject, body string) (string, string, bool) {
	b.mu.Lock()
	st := b.state[sessionID]
	if st == nil {
		st = &sessionState{price: 4800}
		b.state[sessionID] = st
	}
	b.mu.Unlock()

	content := strings.ToLower(subject + "\n" + body)
	re := "Re: " + subject

	switch {
	case !st.askedInfo:
		st.askedInfo = true
		return re, b.welcome(), true

	case !st.sentProposal:
		st.sentProposal = true
		return re, b.proposal(st.price, ""), true

	case wantsToBook(content):
		st.sentInvoice = true
		return re, b.invoice(st.price), true

	case wantsChange(content) && !st.sentDiscount:
		st.sentDiscount = true
		st.price = st.price * 9 / 10
		return re, b.proposal(st.price, "We can offer a 10% discount for early booking - here is the revised quote.\n\n"), true

	case wantsChange(content):
		return re, b.proposal(st.price, "This is the best price we can offer for this itinerary, and we believe it is a great value.\n\n"), true

	default:
		// Clarifying questions and forgotten details: acknowledge and keep
		// the current proposal on the table.
		return re, b.proposal(st.price, "Thank you for the additional details, we have noted everything.\n\n"), true
	}
}

func (b *Bot) welcome() string {
	return fmt.Sprintf(
		"Hello, and welcome to %s!\n\n"+
			"Thank you for reaching out about traveling to %s. We specialize in %s.\n\n"+
			"To put together the right trip for you, could you share:\n"+
			"- What is your budget for the trip?\n"+
			"- What are your travel dates?\n"+
			"- How many travelers are in your group?\n"+
			"- What are you most interested in seeing and doing?\n"+
			"- Any special requirements or dietary needs we should know about?\n\n"+
			"Best regards,\n%s",
		b.company.Name, b.company.Country, b.company.Context, b.company.Name,
	)
}

func (b *Bot) proposal(price int, preamble string) string {
	return fmt.Sprintf(
		"%sPlease find our proposal below.\n\n"+
			"7-day %s itinerary, price $%d per person:\n"+
			"Day 1: Arrival and city tour\n"+
			"Day 2-3: Coastal excursion\n"+
			"Day 4-6: Desert adventures, salt flats and flamingo watching\n"+
			"Day 7: Departure\n\n"+
			"The quote includes transfers, accommodation, daily breakfast and guided tours.\n\n"+
			"Best regards,\n%s",
		preamble, b.company.Country, price, b.company.Name,
	)
}

func (b *Bot) invoice(price int) string {
	return fmt.Sprintf(
		"Wonderful news! Your booking is confirmed pending payment.\n\n"+
			"Invoice total: $%d. A 20%% deposit secures your dates; payment details are attached.\n"+
			"Your confirmation number is WND-%04d.\n\n"+
			"Best regards,\n%s",
		price, price%10000, b.company.Name,
	)
}

func wantsToBook(content string) bool {
	for _, w := range []string{"accept", "move forward", "like to book", "happy with", "payment sent"} {
		if strings.Contains(content, w) {
			return true
		}
	}
	return false
}

func wantsChange(content string) bool {
	for _, w := range []string{"adjust", "discount", "lower", "closer to", "too expensive", "change"} {
		if strings.Contains(content, w) {
			return true
		}
	}
	return false
}
