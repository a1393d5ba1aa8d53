// Package analytics aggregates session lifecycle events.
package analytics

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/WhiteTorn/Wandero-Client-Simulation/internal/model"
	"github.com/WhiteTorn/Wandero-Client-Simulation/pkg/logger"
	"github.com/WhiteTorn/Wandero-Client-Simulation/pkg/metrics"
)

// Sink receives every accepted event after recording, e.g. for publishing
// to an external stream. Must not block for long; it runs on the recorder
// goroutine.
type Sink interface {
	Publish(ctx context.Context, ev model.LifecycleEvent) error
}

// Recorder consumes lifecycle events without blocking emitters and derives
// per-session records. Aggregates are computed on demand so the event log
// stays the only source of truth.
type Recorder struct {
	logger *logger.Logger
	sink   Sink

	events chan model.LifecycleEvent
	done   chan struct{}

	mu      sync.RWMutex
	records map[string]*model.SessionRecord
	seen    map[string]map[uint64]bool
}

// NewRecorder creates a recorder with the given buffer capacity.
func NewRecorder(buffer int, sink Sink, log *logger.Logger) *Recorder {
	if buffer < 1 {
		buffer = 256
	}
	return &Recorder{
		logger:  log,
		sink:    sink,
		events:  make(chan model.LifecycleEvent, buffer),
		done:    make(chan struct{}),
		records: make(map[string]*model.SessionRecord),
		seen:    make(map[string]map[uint64]bool),
	}
}

// Record delivers an event without blocking the emitter. When the buffer is
// full the event is dropped and counted; analytics are advisory, sessions
// are not.
func (r *Recorder) Record(ev model.LifecycleEvent) {
	select {
	case r.events <- ev:
	default:
		metrics.EventsDropped.Inc()
		r.logger.Warn("analytics buffer full, event dropped",
			zap.String("session_id", ev.SessionID),
			zap.String("kind", string(ev.Kind)),
		)
	}
}

// Run consumes events until the context is cancelled, then drains whatever
// is already buffered.
func (r *Recorder) Run(ctx context.Context) {
	defer close(r.done)
	for {
		select {
		case ev := <-r.events:
			r.apply(ctx, ev)
		case <-ctx.Done():
			for {
				select {
				case ev := <-r.events:
					r.apply(context.Background(), ev)
				default:
					return
				}
			}
		}
	}
}

// Wait blocks until Run has returned.
func (r *Recorder) Wait() {
	<-r.done
}

// apply folds one event into the record set. Replayed (session, seq) pairs
// are dropped, which is what makes transcript replay idempotent.
func (r *Recorder) apply(ctx context.Context, ev model.LifecycleEvent) {
	r.mu.Lock()
	seen := r.seen[ev.SessionID]
	if seen == nil {
		seen = make(map[uint64]bool)
		r.seen[ev.SessionID] = seen
	}
	if seen[ev.Seq] {
		r.mu.Unlock()
		return
	}
	seen[ev.Seq] = true

	rec := r.records[ev.SessionID]
	if rec == nil {
		rec = &model.SessionRecord{
			SessionID:    ev.SessionID,
			PersonaID:    ev.PersonaID,
			FirstEventAt: ev.CreatedAt,
		}
		r.records[ev.SessionID] = rec
	}
	rec.LastEventAt = ev.CreatedAt

	switch ev.Kind {
	case model.EventMessageSent:
		rec.MessagesSent++
	case model.EventMessageReceived:
		rec.MessagesReceived++
		if ev.ResponseTimeSeconds > 0 {
			rec.ResponseTimes = append(rec.ResponseTimes, ev.ResponseTimeSeconds)
		}
	case model.EventPhaseChanged:
		rec.PhaseChanges++
		rec.LastPhase = ev.Phase
	case model.EventSessionTerminal:
		rec.Terminal = true
		rec.Outcome = ev.Reason
		rec.LastPhase = ev.Phase
	}
	r.mu.Unlock()

	if r.sink != nil {
		if err := r.sink.Publish(ctx, ev); err != nil {
			r.logger.Warn("failed to publish lifecycle event",
				zap.String("session_id", ev.SessionID),
				zap.Error(err),
			)
		}
	}
}

// Session returns the record for one session.
func (r *Recorder) Session(id string) (*model.SessionRecord, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[id]
	if !ok {
		return nil, false
	}
	dup := *rec
	dup.ResponseTimes = append([]float64(nil), rec.ResponseTimes...)
	return &dup, true
}

// Summary computes the process-wide aggregate from the accumulated records.
func (r *Recorder) Summary() model.RunSummary {
	r.mu.RLock()
	defer r.mu.RUnlock()

	byPersona := make(map[string]*model.PersonaSummary)
	var all []float64
	summary := model.RunSummary{}

	for _, rec := range r.records {
		summary.Sessions++
		ps := byPersona[rec.PersonaID]
		if ps == nil {
			ps = &model.PersonaSummary{PersonaID: rec.PersonaID}
			byPersona[rec.PersonaID] = ps
		}
		ps.Sessions++
		all = append(all, rec.ResponseTimes...)
		ps.MeanResponseSeconds += sum(rec.ResponseTimes)

		if rec.Terminal {
			summary.Terminal++
			switch rec.Outcome {
			case model.ReasonBooked:
				ps.Completed++
			case model.ReasonLostInterest, model.ReasonCancelled:
				ps.Abandoned++
			default:
				ps.Failed++
			}
		}
	}

	for _, ps := range byPersona {
		var samples int
		for _, rec := range r.records {
			if rec.PersonaID == ps.PersonaID {
				samples += len(rec.ResponseTimes)
			}
		}
		if samples > 0 {
			ps.MeanResponseSeconds /= float64(samples)
		}
		if ps.Sessions > 0 {
			ps.CompletionRate = float64(ps.Completed) / float64(ps.Sessions)
		}
		summary.ByPersona = append(summary.ByPersona, *ps)
	}
	sort.Slice(summary.ByPersona, func(i, j int) bool {
		return summary.ByPersona[i].PersonaID < summary.ByPersona[j].PersonaID
	})

	if len(all) > 0 {
		summary.MeanResponseSeconds = sum(all) / float64(len(all))
	}
	return summary
}

func sum(vs []float64) float64 {
	var total float64
	for _, v := range vs {
		total += v
	}
	return total
}
