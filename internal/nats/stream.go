package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/WhiteTorn/Wandero-Client-Simulation/internal/model"
)

const (
	// EventStreamName is the stream carrying session lifecycle events.
	EventStreamName = "SIMULATION"

	// EventSubjectPrefix is the prefix for lifecycle event subjects.
	EventSubjectPrefix = "sim"

	// MailStreamName is the stream carrying simulated mail for the NATS
	// transport.
	MailStreamName = "SIMMAIL"

	// MailSubjectPrefix is the prefix for mailbox subjects.
	MailSubjectPrefix = "mail"
)

// StreamManager handles JetStream stream operations.
type StreamManager struct {
	client *Client
}

// NewStreamManager creates a new stream manager.
func NewStreamManager(client *Client) *StreamManager {
	return &StreamManager{client: client}
}

// EnsureStreams ensures the simulation streams exist with proper
// configuration.
func (m *StreamManager) EnsureStreams(ctx context.Context) error {
	js := m.client.JetStream()

	streams := []jetstream.StreamConfig{
		{
			Name:        EventStreamName,
			Subjects:    []string{fmt.Sprintf("%s.>", EventSubjectPrefix)},
			Retention:   jetstream.LimitsPolicy,
			MaxAge:      30 * 24 * time.Hour,
			Storage:     jetstream.FileStorage,
			Replicas:    1,
			Compression: jetstream.S2Compression,
			Description: "Session lifecycle events from the client simulator",
		},
		{
			Name:        MailStreamName,
			Subjects:    []string{fmt.Sprintf("%s.>", MailSubjectPrefix)},
			Retention:   jetstream.LimitsPolicy,
			MaxAge:      30 * 24 * time.Hour,
			Storage:     jetstream.FileStorage,
			Replicas:    1,
			Description: "Simulated client/counterpart mail",
		},
	}

	for _, cfg := range streams {
		if _, err := js.Stream(ctx, cfg.Name); err == nil {
			continue
		}
		if _, err := js.CreateStream(ctx, cfg); err != nil {
			return fmt.Errorf("failed to create stream %s: %w", cfg.Name, err)
		}
	}
	return nil
}

// EventSubject returns the subject for a lifecycle event.
func EventSubject(personaID, sessionID string, kind model.EventKind) string {
	return fmt.Sprintf("%s.%s.%s.%s", EventSubjectPrefix, personaID, sessionID, kind)
}

// OutboundSubject is where the simulator publishes mail it sends.
func OutboundSubject(sessionID string) string {
	return fmt.Sprintf("%s.%s.out", MailSubjectPrefix, sessionID)
}

// InboundSubject is where the counterpart publishes mail for a session.
func InboundSubject(sessionID string) string {
	return fmt.Sprintf("%s.%s.in", MailSubjectPrefix, sessionID)
}

// PublishEvent publishes a lifecycle event to the event stream.
func (m *StreamManager) PublishEvent(ctx context.Context, ev model.LifecycleEvent) (uint64, error) {
	subject := EventSubject(ev.PersonaID, ev.SessionID, ev.Kind)

	data, err := json.Marshal(ev)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal event: %w", err)
	}

	ack, err := m.client.JetStream().Publish(ctx, subject, data)
	if err != nil {
		return 0, fmt.Errorf("failed to publish event: %w", err)
	}
	return ack.Sequence, nil
}

// PublishMail publishes a mail payload to the given mailbox subject.
func (m *StreamManager) PublishMail(ctx context.Context, subject string, payload any) (uint64, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal mail: %w", err)
	}

	ack, err := m.client.JetStream().Publish(ctx, subject, data)
	if err != nil {
		return 0, fmt.Errorf("failed to publish mail: %w", err)
	}
	return ack.Sequence, nil
}

// FetchMail retrieves mail on a subject after the given stream sequence,
// using an ephemeral consumer. Returns the messages, the last sequence seen,
// or an empty batch when nothing new arrived.
func (m *StreamManager) FetchMail(ctx context.Context, subject string, afterSequence uint64, limit int) ([][]byte, uint64, error) {
	js := m.client.JetStream()

	consumerConfig := jetstream.ConsumerConfig{
		FilterSubject: subject,
		AckPolicy:     jetstream.AckNonePolicy,
		DeliverPolicy: jetstream.DeliverAllPolicy,
	}
	if afterSequence > 0 {
		consumerConfig.DeliverPolicy = jetstream.DeliverByStartSequencePolicy
		consumerConfig.OptStartSeq = afterSequence + 1
	}

	consumer, err := js.CreateConsumer(ctx, MailStreamName, consumerConfig)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create consumer: %w", err)
	}

	batch, err := consumer.Fetch(limit, jetstream.FetchMaxWait(2*time.Second))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch mail: %w", err)
	}

	var payloads [][]byte
	lastSequence := afterSequence
	for msg := range batch.Messages() {
		payloads = append(payloads, msg.Data())
		if meta, err := msg.Metadata(); err == nil {
			lastSequence = meta.Sequence.Stream
		}
	}
	if batch.Error() != nil && batch.Error() != context.DeadlineExceeded {
		return nil, 0, fmt.Errorf("batch error: %w", batch.Error())
	}

	return payloads, lastSequence, nil
}
