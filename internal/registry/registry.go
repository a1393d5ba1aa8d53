// Package registry is the authoritative store for in-flight sessions.
//
// All mutation funnels through the atomic operations here, so the scheduler
// and the state machine never race on a session's phase or history. Callers
// only ever see snapshots.
package registry

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/WhiteTorn/Wandero-Client-Simulation/internal/model"
	"github.com/WhiteTorn/Wandero-Client-Simulation/pkg/logger"
	"github.com/WhiteTorn/Wandero-Client-Simulation/pkg/metrics"
)

// Registry owns every ConversationSession. Terminal sessions are archived in
// place, never freed, so transcripts and analytics can still read them.
type Registry struct {
	logger *logger.Logger

	mu       sync.RWMutex
	sessions map[string]*model.Session
}

// New creates an empty registry.
func New(log *logger.Logger) *Registry {
	return &Registry{
		logger:   log,
		sessions: make(map[string]*model.Session),
	}
}

// Create builds a new session bound to the persona and returns a snapshot.
func (r *Registry) Create(p *model.Persona) *model.Session {
	now := time.Now()
	s := &model.Session{
		ID:              uuid.Must(uuid.NewV7()).String(),
		PersonaID:       p.ID,
		Phase:           model.PhaseInitiating,
		Shared:          make(map[model.InfoItem]bool),
		PendingDetails:  append([]string(nil), p.Requirements...),
		InterestLevel:   0.5,
		AbandonmentRisk: 0.1,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()

	metrics.SessionsStarted.WithLabelValues(p.ID).Inc()
	r.logger.Info("session created",
		zap.String("session_id", s.ID),
		zap.String("persona_id", p.ID),
	)

	return s.Clone()
}

// Restore inserts a previously persisted session, replacing any existing
// entry with the same id.
func (r *Registry) Restore(s *model.Session) {
	r.mu.Lock()
	r.sessions[s.ID] = s.Clone()
	r.mu.Unlock()
}

// Get returns a snapshot of the session.
func (r *Registry) Get(id string) (*model.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, model.ErrSessionNotFound
	}
	return s.Clone(), nil
}

// List returns snapshots of every session, live and archived.
func (r *Registry) List() []*model.Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*model.Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s.Clone())
	}
	return out
}

// Live returns snapshots of non-terminal sessions.
func (r *Registry) Live() []*model.Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*model.Session
	for _, s := range r.sessions {
		if !s.TerminalFlag {
			out = append(out, s.Clone())
		}
	}
	return out
}

// CompareAndTransitionPhase atomically moves the session from the expected
// phase to next, rejecting targets the rule table does not allow. It returns
// the event sequence number minted for the transition.
func (r *Registry) CompareAndTransitionPhase(id string, expect, next model.Phase) (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return 0, model.ErrSessionNotFound
	}
	if s.TerminalFlag {
		return 0, model.ErrSessionTerminal
	}
	if s.Phase != expect {
		return 0, model.ErrPhaseConflict
	}
	if !model.ValidTransition(expect, next) {
		return 0, model.ErrInvalidTransition
	}

	s.Phase = next
	s.UpdatedAt = time.Now()
	s.EventSeq++

	metrics.PhaseTransitions.WithLabelValues(string(expect), string(next)).Inc()
	return s.EventSeq, nil
}

// AppendMessage appends to the session's immutable history and returns the
// minted event sequence number. Inbound messages also record a counterpart
// response-time sample against the previous outbound send.
func (r *Registry) AppendMessage(id string, msg model.Message) (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return 0, model.ErrSessionNotFound
	}

	s.Messages = append(s.Messages, msg)
	s.UpdatedAt = time.Now()
	s.EventSeq++

	switch msg.Direction {
	case model.DirectionOutbound:
		t := msg.CreatedAt
		s.LastOutbound = &t
	case model.DirectionInbound:
		t := msg.CreatedAt
		if s.LastOutbound != nil {
			s.ResponseTimes = append(s.ResponseTimes, t.Sub(*s.LastOutbound).Seconds())
		}
		s.LastInbound = &t
	}

	metrics.MessagesTotal.WithLabelValues(s.PersonaID, string(msg.Direction)).Inc()
	return s.EventSeq, nil
}

// MarkTerminal archives the session with the given reason and returns the
// minted event sequence number. Marking twice is an error.
func (r *Registry) MarkTerminal(id string, phase model.Phase, reason model.TerminalReason) (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return 0, model.ErrSessionNotFound
	}
	if s.TerminalFlag {
		return 0, model.ErrSessionTerminal
	}

	s.Phase = phase
	s.TerminalFlag = true
	s.Reason = reason
	s.UpdatedAt = time.Now()
	s.EventSeq++

	metrics.SessionsTerminal.WithLabelValues(s.PersonaID, string(reason)).Inc()
	r.logger.Info("session terminal",
		zap.String("session_id", id),
		zap.String("phase", string(phase)),
		zap.String("reason", string(reason)),
	)
	return s.EventSeq, nil
}

// AdjustInterest shifts the interest level, clamped to [0,1], and nudges the
// abandonment risk the opposite way.
func (r *Registry) AdjustInterest(id string, delta float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return model.ErrSessionNotFound
	}

	s.InterestLevel = clamp01(s.InterestLevel + delta)
	if s.InterestLevel < 0.3 {
		s.AbandonmentRisk = clamp01(s.AbandonmentRisk + 0.1)
	} else if s.InterestLevel > 0.7 {
		s.AbandonmentRisk = clamp01(s.AbandonmentRisk - 0.1)
	}
	s.UpdatedAt = time.Now()
	return nil
}

// MarkShared records disclosed information items.
func (r *Registry) MarkShared(id string, items []model.InfoItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return model.ErrSessionNotFound
	}
	for _, item := range items {
		s.Shared[item] = true
	}
	s.UpdatedAt = time.Now()
	return nil
}

// ConsumePendingDetail removes a forgotten detail once its follow-up is
// sent.
func (r *Registry) ConsumePendingDetail(id, detail string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return model.ErrSessionNotFound
	}
	for i, d := range s.PendingDetails {
		if d == detail {
			s.PendingDetails = append(s.PendingDetails[:i], s.PendingDetails[i+1:]...)
			break
		}
	}
	s.UpdatedAt = time.Now()
	return nil
}

// IncrementRetry bumps the retry counter and returns the new value.
func (r *Registry) IncrementRetry(id string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return 0, model.ErrSessionNotFound
	}
	s.Retries++
	s.UpdatedAt = time.Now()

	metrics.Retries.WithLabelValues(s.PersonaID).Inc()
	return s.Retries, nil
}

// ResetRetries clears the retry counter after a successful step.
func (r *Registry) ResetRetries(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return model.ErrSessionNotFound
	}
	s.Retries = 0
	return nil
}

// SetNextDue records when the session's next action is scheduled.
func (r *Registry) SetNextDue(id string, due time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return model.ErrSessionNotFound
	}
	s.NextDue = due
	return nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
