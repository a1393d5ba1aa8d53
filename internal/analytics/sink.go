package analytics

import (
	"context"

	natsclient "github.com/WhiteTorn/Wandero-Client-Simulation/internal/nats"
	"github.com/WhiteTorn/Wandero-Client-Simulation/internal/model"
)

// StreamSink publishes lifecycle events to the JetStream event stream.
type StreamSink struct {
	streams *natsclient.StreamManager
}

// NewStreamSink creates a sink over the stream manager.
func NewStreamSink(streams *natsclient.StreamManager) *StreamSink {
	return &StreamSink{streams: streams}
}

// Publish implements Sink.
func (s *StreamSink) Publish(ctx context.Context, ev model.LifecycleEvent) error {
	_, err := s.streams.PublishEvent(ctx, ev)
	return err
}
