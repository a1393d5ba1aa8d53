// Package sim glues the collaborators together: for each due scheduler
// event it runs one state machine step against the registry, drafts and
// sends mail, and emits lifecycle events.
package sim

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/WhiteTorn/Wandero-Client-Simulation/internal/analytics"
	"github.com/WhiteTorn/Wandero-Client-Simulation/internal/behavior"
	"github.com/WhiteTorn/Wandero-Client-Simulation/internal/conversation"
	"github.com/WhiteTorn/Wandero-Client-Simulation/internal/model"
	"github.com/WhiteTorn/Wandero-Client-Simulation/internal/nlg"
	"github.com/WhiteTorn/Wandero-Client-Simulation/internal/persona"
	"github.com/WhiteTorn/Wandero-Client-Simulation/internal/registry"
	"github.com/WhiteTorn/Wandero-Client-Simulation/internal/scheduler"
	"github.com/WhiteTorn/Wandero-Client-Simulation/internal/transcript"
	"github.com/WhiteTorn/Wandero-Client-Simulation/internal/transport"
	"github.com/WhiteTorn/Wandero-Client-Simulation/pkg/logger"
	"github.com/WhiteTorn/Wandero-Client-Simulation/pkg/metrics"
)

// Config tunes the runner.
type Config struct {
	// Recipient is the counterpart address outbound mail is sent to.
	Recipient string
	// PollInterval is the transport poll cadence while awaiting a reply.
	PollInterval time.Duration
	// Seed feeds the behavioral random source. The same seed over the same
	// inbound sequence reproduces the same run.
	Seed int64
}

func (c *Config) withDefaults() Config {
	out := *c
	if out.Recipient == "" {
		out.Recipient = "agency@wandero.example"
	}
	if out.PollInterval <= 0 {
		out.PollInterval = 2 * time.Second
	}
	return out
}

// Runner executes scheduler events for live sessions. Its Step method is the
// scheduler's StepFunc; Hooks exposes the retry callbacks.
type Runner struct {
	cfg       Config
	registry  *registry.Registry
	catalog   persona.Catalog
	drafter   *nlg.Drafter
	transport transport.Transport
	recorder  *analytics.Recorder
	store     *transcript.Store
	delays    *scheduler.DelayPlanner
	logger    *logger.Logger

	mu  sync.Mutex
	rng *rand.Rand

	sched *scheduler.Scheduler
}

// NewRunner wires a runner over its collaborators. store may be nil to
// disable transcript persistence.
func NewRunner(
	cfg Config,
	reg *registry.Registry,
	catalog persona.Catalog,
	drafter *nlg.Drafter,
	tr transport.Transport,
	rec *analytics.Recorder,
	store *transcript.Store,
	delays *scheduler.DelayPlanner,
	log *logger.Logger,
) *Runner {
	cfg = cfg.withDefaults()
	return &Runner{
		cfg:       cfg,
		registry:  reg,
		catalog:   catalog,
		drafter:   drafter,
		transport: tr,
		recorder:  rec,
		store:     store,
		delays:    delays,
		logger:    log,
		rng:       rand.New(rand.NewSource(cfg.Seed)),
	}
}

// Bind attaches the scheduler once it has been constructed around Step.
func (r *Runner) Bind(s *scheduler.Scheduler) {
	r.sched = s
}

// Hooks returns the scheduler hooks that keep the registry in sync with
// retry handling.
func (r *Runner) Hooks() scheduler.Hooks {
	return scheduler.Hooks{
		OnRetry: func(sessionID string, retries int, next time.Duration) {
			if _, err := r.registry.IncrementRetry(sessionID); err != nil {
				r.logger.Warn("retry bookkeeping failed",
					zap.String("session_id", sessionID), zap.Error(err))
			}
			r.registry.SetNextDue(sessionID, time.Now().Add(next))
		},
		OnExhausted: func(sessionID string) {
			r.finish(sessionID, model.PhaseFailed, model.ReasonRetryExhausted)
		},
		OnOrphan: func(sessionID string) {
			r.logger.Error("recovering orphaned session",
				zap.String("session_id", sessionID))
		},
	}
}

// Spawn creates a session for the persona and schedules its opening move.
func (r *Runner) Spawn(p model.Persona) *model.Session {
	s := r.registry.Create(&p)
	r.sched.Schedule(s.ID, scheduler.KindAct, 0)
	r.registry.SetNextDue(s.ID, time.Now())
	return s
}

// Restore re-registers persisted sessions and schedules every live one.
// Mid-conversation sessions come back after a freshly drawn persona delay
// rather than the flat poll cadence. Terminal sessions are kept for reads
// only.
func (r *Runner) Restore(sessions []*model.Session) {
	for _, s := range sessions {
		r.registry.Restore(s)
		if s.TerminalFlag {
			continue
		}
		kind := scheduler.KindPoll
		delay := r.cfg.PollInterval
		if s.Phase == model.PhaseInitiating {
			kind = scheduler.KindAct
			delay = 0
		} else if p, ok := r.catalog.FindByID(s.PersonaID); ok {
			delay = r.delays.ReplyDelay(&p)
		}
		r.sched.Schedule(s.ID, kind, delay)
		r.registry.SetNextDue(s.ID, time.Now().Add(delay))
		r.logger.Info("session restored",
			zap.String("session_id", s.ID),
			zap.String("phase", string(s.Phase)),
			zap.Duration("delay", delay),
		)
	}
}

// Cancel ends a session from the outside, e.g. via the ops API.
func (r *Runner) Cancel(sessionID string) error {
	r.sched.Cancel(sessionID)
	return r.finish(sessionID, model.PhaseAbandoned, model.ReasonCancelled)
}

// Step executes one scheduler event. It satisfies scheduler.StepFunc.
func (r *Runner) Step(ctx context.Context, ev scheduler.Event) (scheduler.StepResult, error) {
	s, err := r.registry.Get(ev.SessionID)
	if err != nil {
		if errors.Is(err, model.ErrSessionNotFound) {
			r.logger.Warn("dropping event for unknown session",
				zap.String("session_id", ev.SessionID))
			return scheduler.StepResult{Terminal: true}, nil
		}
		return scheduler.StepResult{}, err
	}
	if s.TerminalFlag {
		return scheduler.StepResult{Terminal: true}, nil
	}

	p, ok := r.catalog.FindByID(s.PersonaID)
	if !ok {
		r.logger.Error("session references unknown persona",
			zap.String("session_id", s.ID),
			zap.String("persona_id", s.PersonaID),
		)
		r.finish(s.ID, model.PhaseFailed, model.ReasonGenerationDead)
		return scheduler.StepResult{Terminal: true}, nil
	}

	switch ev.Kind {
	case scheduler.KindAct:
		return r.act(ctx, &p, s)
	case scheduler.KindFollowUp:
		return r.followUp(ctx, &p, s)
	default:
		return r.poll(ctx, &p, s)
	}
}

// act runs one state machine step: the initial inquiry for fresh sessions,
// otherwise the reaction to the most recent inbound message.
func (r *Runner) act(ctx context.Context, p *model.Persona, s *model.Session) (scheduler.StepResult, error) {
	var dec conversation.Decision
	if s.Phase == model.PhaseInitiating {
		dec = conversation.Initiate(p)
	} else {
		inbound, ok := lastInbound(s)
		if !ok {
			// Nothing to react to; the reply must still be in flight.
			return r.next(s.ID, scheduler.KindPoll, r.cfg.PollInterval), nil
		}
		r.mu.Lock()
		dec = conversation.React(p, s, inbound.Extraction, r.rng)
		r.mu.Unlock()
	}

	var followUp *behavior.FollowUp
	if dec.Intent != nil {
		var err error
		followUp, err = r.sendIntent(ctx, p, s, *dec.Intent)
		if err != nil {
			return scheduler.StepResult{}, err
		}
	}

	// Side effects are done; commit the step. A retried step therefore never
	// applies the interest shift or the transition twice.
	if dec.InterestDelta != 0 {
		r.registry.AdjustInterest(s.ID, dec.InterestDelta)
	}
	if dec.NextPhase != s.Phase {
		r.transition(s, dec.NextPhase)
	}

	if dec.Terminal {
		r.finish(s.ID, dec.NextPhase, dec.Reason)
		return scheduler.StepResult{Terminal: true}, nil
	}

	r.registry.ResetRetries(s.ID)
	r.persist(s.ID)

	if followUp != nil {
		return r.next(s.ID, scheduler.KindFollowUp, r.delays.Scale(followUp.Delay)), nil
	}
	if dec.Intent == nil {
		// Nothing went out: a proposal moved under review. The verdict is a
		// separate act step after the persona's usual mulling time.
		return r.next(s.ID, scheduler.KindAct, r.delays.ReplyDelay(p)), nil
	}
	return r.next(s.ID, scheduler.KindPoll, r.cfg.PollInterval), nil
}

// followUp sends the quirk-scheduled corrective message carrying the oldest
// pending detail, then resumes polling.
func (r *Runner) followUp(ctx context.Context, p *model.Persona, s *model.Session) (scheduler.StepResult, error) {
	if len(s.PendingDetails) == 0 {
		return r.next(s.ID, scheduler.KindPoll, r.cfg.PollInterval), nil
	}
	detail := s.PendingDetails[0]

	intent := model.Intent{Kind: model.IntentForgottenDetail, Detail: detail}
	if _, err := r.sendIntent(ctx, p, s, intent); err != nil {
		return scheduler.StepResult{}, err
	}

	r.registry.ResetRetries(s.ID)
	r.persist(s.ID)
	return r.next(s.ID, scheduler.KindPoll, r.cfg.PollInterval), nil
}

// poll drains the transport inbox. An inbound message moves the session to
// an act step after a persona-conditioned reply delay; silence polls again.
func (r *Runner) poll(ctx context.Context, p *model.Persona, s *model.Session) (scheduler.StepResult, error) {
	msgs, err := r.transport.Poll(ctx, s.ID)
	if err != nil {
		return scheduler.StepResult{}, err
	}
	if len(msgs) == 0 {
		return r.next(s.ID, scheduler.KindPoll, r.cfg.PollInterval), nil
	}

	for _, in := range msgs {
		ext := conversation.Extract(in.Subject, in.Body)
		if ext.Uninterpretable {
			r.logger.Warn("uninterpretable inbound message",
				zap.String("session_id", s.ID),
				zap.Error(&model.ProtocolViolation{SessionID: s.ID, Detail: in.Subject}),
			)
		}

		var responseTime float64
		if s.LastOutbound != nil {
			responseTime = in.ReceivedAt.Sub(*s.LastOutbound).Seconds()
		}

		msg := model.Message{
			ID:         uuid.Must(uuid.NewV7()).String(),
			SessionID:  s.ID,
			Direction:  model.DirectionInbound,
			Subject:    in.Subject,
			Body:       in.Body,
			Extraction: ext,
			CreatedAt:  in.ReceivedAt,
		}
		seq, err := r.registry.AppendMessage(s.ID, msg)
		if err != nil {
			return scheduler.StepResult{}, err
		}
		s.Messages = append(s.Messages, msg)
		t := in.ReceivedAt
		s.LastOutbound = nil
		s.LastInbound = &t

		r.emit(model.LifecycleEvent{
			SessionID:           s.ID,
			PersonaID:           s.PersonaID,
			Seq:                 seq,
			Kind:                model.EventMessageReceived,
			Phase:               s.Phase,
			ResponseTimeSeconds: responseTime,
			CreatedAt:           in.ReceivedAt,
		})
	}

	r.registry.ResetRetries(s.ID)
	r.persist(s.ID)

	delay := r.delays.ReplyDelay(p)
	r.registry.SetNextDue(s.ID, time.Now().Add(delay))
	return scheduler.StepResult{Next: &scheduler.Next{Kind: scheduler.KindAct, Delay: delay}}, nil
}

// sendIntent drafts, quirk-injects, and transmits one outbound message, then
// records the send. The returned follow-up, if any, is the quirk's request
// for a later corrective message.
func (r *Runner) sendIntent(ctx context.Context, p *model.Persona, s *model.Session, intent model.Intent) (*behavior.FollowUp, error) {
	draft, err := r.drafter.Draft(ctx, *p, intent, s)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	res := behavior.Apply(p, draft.Body, s, r.rng)
	r.mu.Unlock()
	if intent.Kind == model.IntentForgottenDetail {
		// A correction never spawns a correction of its own.
		res.FollowUp = nil
	}

	start := time.Now()
	ack, err := r.transport.Send(ctx, s.ID, r.cfg.Recipient, draft.Subject, res.Body)
	if err != nil {
		metrics.RecordCollaborator("transport", "error", time.Since(start).Seconds())
		return nil, err
	}
	metrics.RecordCollaborator("transport", "ok", time.Since(start).Seconds())

	msg := model.Message{
		ID:        ack.MessageID,
		SessionID: s.ID,
		Direction: model.DirectionOutbound,
		Subject:   draft.Subject,
		Body:      res.Body,
		CreatedAt: ack.Timestamp,
	}
	seq, err := r.registry.AppendMessage(s.ID, msg)
	if err != nil {
		return nil, err
	}
	s.Messages = append(s.Messages, msg)
	t := ack.Timestamp
	s.LastOutbound = &t

	if len(intent.Items) > 0 {
		r.registry.MarkShared(s.ID, intent.Items)
		for _, item := range intent.Items {
			s.Shared[item] = true
		}
	}
	if intent.Kind == model.IntentForgottenDetail && intent.Detail != "" {
		r.registry.ConsumePendingDetail(s.ID, intent.Detail)
	}

	r.emit(model.LifecycleEvent{
		SessionID: s.ID,
		PersonaID: s.PersonaID,
		Seq:       seq,
		Kind:      model.EventMessageSent,
		Phase:     s.Phase,
		CreatedAt: ack.Timestamp,
	})

	return res.FollowUp, nil
}

// transition commits a phase change and emits its event. A CAS conflict
// means another actor moved the session first; the next step will observe
// the fresh phase, so the conflict is logged and absorbed.
func (r *Runner) transition(s *model.Session, next model.Phase) {
	seq, err := r.registry.CompareAndTransitionPhase(s.ID, s.Phase, next)
	if err != nil {
		r.logger.Warn("phase transition rejected",
			zap.String("session_id", s.ID),
			zap.String("from", string(s.Phase)),
			zap.String("to", string(next)),
			zap.Error(err),
		)
		return
	}

	r.emit(model.LifecycleEvent{
		SessionID: s.ID,
		PersonaID: s.PersonaID,
		Seq:       seq,
		Kind:      model.EventPhaseChanged,
		Phase:     next,
		PrevPhase: s.Phase,
		CreatedAt: time.Now(),
	})
	s.Phase = next
}

// finish marks a session terminal, emits the closing event, and persists the
// final transcript. Safe to call twice; the second call is a no-op.
func (r *Runner) finish(sessionID string, phase model.Phase, reason model.TerminalReason) error {
	seq, err := r.registry.MarkTerminal(sessionID, phase, reason)
	if err != nil {
		if errors.Is(err, model.ErrSessionTerminal) {
			return nil
		}
		return err
	}

	s, getErr := r.registry.Get(sessionID)
	personaID := ""
	if getErr == nil {
		personaID = s.PersonaID
	}
	r.emit(model.LifecycleEvent{
		SessionID: sessionID,
		PersonaID: personaID,
		Seq:       seq,
		Kind:      model.EventSessionTerminal,
		Phase:     phase,
		Reason:    reason,
		CreatedAt: time.Now(),
	})
	r.persist(sessionID)
	return nil
}

func (r *Runner) next(sessionID string, kind scheduler.Kind, delay time.Duration) scheduler.StepResult {
	r.registry.SetNextDue(sessionID, time.Now().Add(delay))
	return scheduler.StepResult{Next: &scheduler.Next{Kind: kind, Delay: delay}}
}

func (r *Runner) emit(ev model.LifecycleEvent) {
	if r.recorder != nil {
		r.recorder.Record(ev)
	}
}

func (r *Runner) persist(sessionID string) {
	if r.store == nil {
		return
	}
	s, err := r.registry.Get(sessionID)
	if err != nil {
		return
	}
	if err := r.store.Save(s); err != nil {
		r.logger.Warn("failed to persist transcript",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
	}
}

func lastInbound(s *model.Session) (model.Message, bool) {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Direction == model.DirectionInbound {
			return s.Messages[i], true
		}
	}
	return model.Message{}, false
}
