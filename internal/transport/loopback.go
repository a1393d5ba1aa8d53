package transport

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/WhiteTorn/Wandero-Client-Simulation/internal/model"
)

// Responder produces the counterpart's reply to a sent message, or none.
// The scripted counterpart bot implements this.
type Responder interface {
	Respond(sessionID, subject, body string) (replySubject, replyBody string, ok bool)
}

// Loopback is an in-memory transport that routes every send to a Responder
// and queues the reply in the session's inbox. It backs broker-less demo
// runs and most tests.
type Loopback struct {
	responder Responder
	sender    string

	mu      sync.Mutex
	inboxes map[string][]InboundMessage

	// FailSends makes the next N sends fail with a TransportError; tests
	// use it to drive the backoff path.
	failMu    sync.Mutex
	failSends int
}

// NewLoopback creates a loopback transport delivering replies from the
// given responder under the given sender address.
func NewLoopback(responder Responder, sender string) *Loopback {
	return &Loopback{
		responder: responder,
		sender:    sender,
		inboxes:   make(map[string][]InboundMessage),
	}
}

// FailNextSends arms transient failures for the next n sends.
func (l *Loopback) FailNextSends(n int) {
	l.failMu.Lock()
	l.failSends = n
	l.failMu.Unlock()
}

// Send delivers the message to the responder and queues any reply.
func (l *Loopback) Send(ctx context.Context, sessionID, recipient, subject, body string) (Ack, error) {
	if err := ctx.Err(); err != nil {
		return Ack{}, &model.TransportError{Op: "send", Err: err}
	}

	l.failMu.Lock()
	if l.failSends > 0 {
		l.failSends--
		l.failMu.Unlock()
		return Ack{}, &model.TransportError{Op: "send", Err: errSimulatedOutage}
	}
	l.failMu.Unlock()

	ack := Ack{
		MessageID: uuid.Must(uuid.NewV7()).String(),
		Timestamp: time.Now(),
	}

	if l.responder != nil {
		if replySubject, replyBody, ok := l.responder.Respond(sessionID, subject, body); ok {
			l.mu.Lock()
			l.inboxes[sessionID] = append(l.inboxes[sessionID], InboundMessage{
				SessionID:  sessionID,
				Sender:     l.sender,
				Subject:    replySubject,
				Body:       replyBody,
				ReceivedAt: time.Now(),
			})
			l.mu.Unlock()
		}
	}

	return ack, nil
}

// Poll drains the session's inbox.
func (l *Loopback) Poll(ctx context.Context, sessionID string) ([]InboundMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, &model.TransportError{Op: "poll", Err: err}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	msgs := l.inboxes[sessionID]
	if len(msgs) == 0 {
		return nil, nil
	}
	delete(l.inboxes, sessionID)
	return msgs, nil
}

// Inject queues an inbound message directly, bypassing the responder.
// Tests use it to script counterpart behavior precisely.
func (l *Loopback) Inject(msg InboundMessage) {
	l.mu.Lock()
	l.inboxes[msg.SessionID] = append(l.inboxes[msg.SessionID], msg)
	l.mu.Unlock()
}

var errSimulatedOutage = &outageError{}

type outageError struct{}

func (*outageError) Error() string { return "simulated network outage" }
