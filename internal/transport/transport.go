// Package transport defines the message delivery boundary.
//
// The simulator core treats delivery as an external collaborator: Send and
// Poll are the only operations, both carry a context, and failures surface
// as model.TransportError so the scheduler can take its backoff path.
package transport

import (
	"context"
	"time"
)

// Ack confirms a sent message.
type Ack struct {
	MessageID string
	Timestamp time.Time
}

// InboundMessage is mail received from the counterpart. Implementations
// resolve threading so every inbound message is already keyed to a session.
type InboundMessage struct {
	SessionID  string
	Sender     string
	Subject    string
	Body       string
	ReceivedAt time.Time
}

// Transport sends and receives session mail. Poll returns a finite batch
// and is restartable: the next call picks up where the last one stopped.
type Transport interface {
	Send(ctx context.Context, sessionID, recipient, subject, body string) (Ack, error)
	Poll(ctx context.Context, sessionID string) ([]InboundMessage, error)
}
