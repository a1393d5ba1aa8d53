package nlg

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/WhiteTorn/Wandero-Client-Simulation/internal/model"
	"github.com/WhiteTorn/Wandero-Client-Simulation/pkg/logger"
	"github.com/WhiteTorn/Wandero-Client-Simulation/pkg/metrics"
)

// Draft is a composed outbound message before quirk injection.
type Draft struct {
	Subject string
	Body    string
}

// historyWindow bounds how many prior messages are replayed to the model.
const historyWindow = 12

// Drafter composes persona-voiced email drafts. A nil client means
// template-only mode.
type Drafter struct {
	client      Client
	model       string
	temperature float64
	maxTokens   int
}

// NewDrafter creates a drafter backed by the given client.
func NewDrafter(client Client, model string, temperature float64) *Drafter {
	return &Drafter{
		client:      client,
		model:       model,
		temperature: temperature,
		maxTokens:   1024,
	}
}

// Draft produces the next outbound message for the session. Without a
// provider client drafts come from deterministic templates. Provider
// failures surface as a GenerationError so the step retries on the
// scheduler's backoff path.
func (d *Drafter) Draft(ctx context.Context, p model.Persona, intent model.Intent, s *model.Session) (Draft, error) {
	if err := ctx.Err(); err != nil {
		return Draft{}, err
	}

	fallback := templateDraft(p, intent, s)
	if d.client == nil {
		return fallback, nil
	}

	req := &CompletionRequest{
		Model:       d.model,
		Messages:    d.buildMessages(p, intent, s),
		MaxTokens:   d.maxTokens,
		Temperature: d.temperature,
	}

	start := time.Now()
	resp, err := d.client.Complete(ctx, req)
	if err != nil {
		metrics.RecordCollaborator("nlg", "error", time.Since(start).Seconds())
		if ctx.Err() != nil {
			return Draft{}, ctx.Err()
		}
		gerr := &model.GenerationError{Provider: d.client.Name(), Err: err}
		logger.Global().Warn("draft generation failed",
			zap.String("session_id", s.ID),
			zap.String("intent", string(intent.Kind)),
			zap.Error(gerr),
		)
		return Draft{}, gerr
	}
	metrics.RecordCollaborator("nlg", "ok", time.Since(start).Seconds())

	body := strings.TrimSpace(resp.Content)
	if body == "" {
		return fallback, nil
	}
	return Draft{Subject: fallback.Subject, Body: body}, nil
}

func (d *Drafter) buildMessages(p model.Persona, intent model.Intent, s *model.Session) []ChatMessage {
	msgs := []ChatMessage{{Role: "user", Content: personaCard(p)}}
	msgs = append(msgs, ChatMessage{Role: "assistant", Content: "Understood. I will write every email in this client's voice."})

	history := s.Messages
	if len(history) > historyWindow {
		history = history[len(history)-historyWindow:]
	}
	for _, m := range history {
		role := "user"
		if m.Direction == model.DirectionOutbound {
			role = "assistant"
		}
		msgs = append(msgs, ChatMessage{Role: role, Content: m.Body})
	}

	msgs = append(msgs, ChatMessage{Role: "user", Content: instruction(p, intent)})
	return msgs
}

func personaCard(p model.Persona) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are roleplaying %s, a travel client emailing an agency. Write only the email body, no commentary.\n\n", p.Name)
	fmt.Fprintf(&b, "Personality traits: %s\n", strings.Join(p.Traits, ", "))
	fmt.Fprintf(&b, "Communication style: %s\n", p.Style)
	fmt.Fprintf(&b, "Concerns: %s\n", strings.Join(p.Concerns, ", "))
	fmt.Fprintf(&b, "Interests: %s\n", strings.Join(p.Interests, ", "))
	fmt.Fprintf(&b, "Travel group: %s\n", p.TravelGroup)
	fmt.Fprintf(&b, "Travel dates: %s\n", p.TravelDates)
	fmt.Fprintf(&b, "Budget: $%d-%d (%s)\n", p.Budget.Min, p.Budget.Max, p.Budget.Flexibility)
	if len(p.Requirements) > 0 {
		fmt.Fprintf(&b, "Special requirements: %s\n", strings.Join(p.Requirements, "; "))
	}
	b.WriteString("\nStay in character. Keep emails short and natural, like a real person typing.")
	return b.String()
}

func instruction(p model.Persona, intent model.Intent) string {
	switch intent.Kind {
	case model.IntentInitialInquiry:
		return "Write your first email to the agency: introduce yourself briefly and ask what kind of trips they offer. Do not share all your details yet."
	case model.IntentProvideInfo:
		items := make([]string, len(intent.Items))
		for i, it := range intent.Items {
			items[i] = string(it)
		}
		return fmt.Sprintf("Reply to the agency's questions. Share the following and nothing more: %s.", strings.Join(items, ", "))
	case model.IntentAskClarify:
		return "You did not fully understand the last message. Ask the agency to clarify before making any decision."
	case model.IntentAcceptProposal:
		return "You have decided to accept the proposal. Say so clearly and ask about next steps for booking."
	case model.IntentRequestChange:
		return fmt.Sprintf("The proposal does not quite fit. Ask the agency to adjust it toward your budget of $%d-%d, in your own words.", p.Budget.Min, p.Budget.Max)
	case model.IntentConfirmBooking:
		return "You received the invoice and paid. Confirm the payment and express that you are looking forward to the trip."
	case model.IntentForgottenDetail:
		return fmt.Sprintf("Write a short follow-up apologizing that you forgot to mention something: %s.", intent.Detail)
	default:
		return "Write a brief check-in about your trip inquiry."
	}
}
