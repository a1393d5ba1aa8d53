package transport

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"

	natsclient "github.com/WhiteTorn/Wandero-Client-Simulation/internal/nats"
	"github.com/WhiteTorn/Wandero-Client-Simulation/internal/model"
)

// mailPayload is the wire form of a simulated email on the mail stream.
type mailPayload struct {
	MessageID string    `json:"message_id"`
	SessionID string    `json:"session_id"`
	Sender    string    `json:"sender"`
	Recipient string    `json:"recipient"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	SentAt    time.Time `json:"sent_at"`
}

// NATS delivers mail over JetStream mailbox subjects: sends publish to the
// session's outbound subject for the counterpart to consume, polls read the
// session's inbound subject. Poll cursors are per session, so each call
// resumes after the last sequence it saw.
type NATS struct {
	streams *natsclient.StreamManager

	mu      sync.Mutex
	cursors map[string]uint64
}

// NewNATS creates a NATS-backed transport.
func NewNATS(streams *natsclient.StreamManager) *NATS {
	return &NATS{
		streams: streams,
		cursors: make(map[string]uint64),
	}
}

// Send publishes the message to the session's outbound mailbox.
func (t *NATS) Send(ctx context.Context, sessionID, recipient, subject, body string) (Ack, error) {
	payload := mailPayload{
		MessageID: uuid.Must(uuid.NewV7()).String(),
		SessionID: sessionID,
		Recipient: recipient,
		Subject:   subject,
		Body:      body,
		SentAt:    time.Now(),
	}

	if _, err := t.streams.PublishMail(ctx, natsclient.OutboundSubject(sessionID), payload); err != nil {
		return Ack{}, &model.TransportError{Op: "send", Err: err}
	}
	return Ack{MessageID: payload.MessageID, Timestamp: payload.SentAt}, nil
}

// Poll fetches new inbound mail for the session.
func (t *NATS) Poll(ctx context.Context, sessionID string) ([]InboundMessage, error) {
	t.mu.Lock()
	cursor := t.cursors[sessionID]
	t.mu.Unlock()

	payloads, lastSeq, err := t.streams.FetchMail(ctx, natsclient.InboundSubject(sessionID), cursor, 16)
	if err != nil {
		return nil, &model.TransportError{Op: "poll", Err: err}
	}

	var msgs []InboundMessage
	for _, data := range payloads {
		var p mailPayload
		if err := json.Unmarshal(data, &p); err != nil {
			continue
		}
		msgs = append(msgs, InboundMessage{
			SessionID:  sessionID,
			Sender:     p.Sender,
			Subject:    p.Subject,
			Body:       p.Body,
			ReceivedAt: p.SentAt,
		})
	}

	t.mu.Lock()
	t.cursors[sessionID] = lastSeq
	t.mu.Unlock()

	return msgs, nil
}
