// Package scheduler decides when each session acts next and multiplexes the
// due sessions onto a bounded worker pool.
package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/WhiteTorn/Wandero-Client-Simulation/internal/model"
	"github.com/WhiteTorn/Wandero-Client-Simulation/pkg/logger"
	"github.com/WhiteTorn/Wandero-Client-Simulation/pkg/metrics"
)

// Kind is the event kind of a ScheduledEvent.
type Kind string

const (
	// KindAct runs a state machine step: send the initial inquiry or react
	// to the most recent inbound message.
	KindAct Kind = "act"
	// KindFollowUp sends a quirk-scheduled corrective message.
	KindFollowUp Kind = "follow_up"
	// KindPoll checks the transport for new inbound mail.
	KindPoll Kind = "poll"
)

// Event is the unit of dispatch handed to the step function.
type Event struct {
	SessionID string
	Kind      Kind
	Due       time.Time
}

// Next tells the scheduler when the session should act again.
type Next struct {
	Kind  Kind
	Delay time.Duration
}

// StepResult is the contract every step must satisfy: either the session is
// terminal or Next is set. Anything else is an orphaned session, recovered
// with the fallback delay.
type StepResult struct {
	Terminal bool
	Next     *Next
}

// StepFunc executes one unit of work for a due session.
type StepFunc func(ctx context.Context, ev Event) (StepResult, error)

// Hooks let the owner observe retry and orphan handling without the
// scheduler reaching into the registry itself.
type Hooks struct {
	OnRetry     func(sessionID string, retries int, next time.Duration)
	OnExhausted func(sessionID string)
	OnOrphan    func(sessionID string)
}

// Config sizes the scheduler.
type Config struct {
	// Workers is the size of the execution pool, independent of session
	// count.
	Workers int
	// MaxInflight caps simultaneously in-flight collaborator work across
	// all workers.
	MaxInflight int
	// RetryCeiling is the number of consecutive transient failures a
	// session survives before it is declared exhausted.
	RetryCeiling int
	// FallbackDelay recovers orphaned sessions and floors backoff delays.
	FallbackDelay time.Duration
	// BackoffCeiling bounds exponential backoff.
	BackoffCeiling time.Duration
}

func (c *Config) withDefaults() Config {
	out := *c
	if out.Workers < 1 {
		out.Workers = 1
	}
	if out.MaxInflight < 1 {
		out.MaxInflight = out.Workers
	}
	if out.RetryCeiling < 1 {
		out.RetryCeiling = 3
	}
	if out.FallbackDelay <= 0 {
		out.FallbackDelay = 30 * time.Second
	}
	if out.BackoffCeiling <= 0 {
		out.BackoffCeiling = 10 * time.Minute
	}
	return out
}

// Scheduler multiplexes per-session timers onto a bounded worker pool. It
// guarantees at most one outstanding ScheduledEvent per session: Schedule
// replaces, and an executing step counts as the session's outstanding event
// until it completes.
type Scheduler struct {
	cfg    Config
	step   StepFunc
	hooks  Hooks
	logger *logger.Logger
	sem    *semaphore.Weighted

	mu      sync.Mutex
	queue   eventQueue
	entries map[string]*entry
	gen     uint64

	wake chan struct{}
}

// New creates a scheduler around the given step function.
func New(cfg Config, step StepFunc, hooks Hooks, log *logger.Logger) *Scheduler {
	cfg = cfg.withDefaults()
	return &Scheduler{
		cfg:     cfg,
		step:    step,
		hooks:   hooks,
		logger:  log,
		sem:     semaphore.NewWeighted(int64(cfg.MaxInflight)),
		entries: make(map[string]*entry),
		wake:    make(chan struct{}, 1),
	}
}

// Schedule registers or replaces the single outstanding event for the
// session.
func (s *Scheduler) Schedule(sessionID string, kind Kind, delay time.Duration) {
	s.schedule(sessionID, kind, delay, 0, delay)
}

func (s *Scheduler) schedule(sessionID string, kind Kind, delay time.Duration, retries int, lastDelay time.Duration) {
	if delay < 0 {
		delay = 0
	}

	s.mu.Lock()
	s.gen++
	e := &entry{
		sessionID: sessionID,
		kind:      kind,
		due:       time.Now().Add(delay),
		gen:       s.gen,
		retries:   retries,
		lastDelay: lastDelay,
	}
	s.entries[sessionID] = e
	s.queue.push(e)
	metrics.ScheduledEvents.Set(float64(len(s.entries)))
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Cancel drops the session's outstanding event, if any. An executing step is
// not interrupted; cancellation of running work flows through the context.
func (s *Scheduler) Cancel(sessionID string) {
	s.mu.Lock()
	delete(s.entries, sessionID)
	metrics.ScheduledEvents.Set(float64(len(s.entries)))
	s.mu.Unlock()
}

// Pending reports whether the session has an outstanding queued event.
func (s *Scheduler) Pending(sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[sessionID]
	return ok
}

// Outstanding returns the number of queued events.
func (s *Scheduler) Outstanding() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Run dispatches due events in due-time order until the context is
// cancelled. Dispatch blocks when every worker is busy, which is the
// backpressure that delays, rather than drops, additional due sessions.
func (s *Scheduler) Run(ctx context.Context) error {
	work := make(chan *entry)
	var wg sync.WaitGroup

	for i := 0; i < s.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.worker(ctx, work)
		}()
	}

	timer := time.NewTimer(time.Hour)
	defer timer.Stop()

dispatch:
	for {
		s.mu.Lock()
		e := s.nextDueLocked()
		if e == nil {
			wait := s.waitLocked(timer)
			s.mu.Unlock()

			select {
			case <-ctx.Done():
				break dispatch
			case <-s.wake:
			case <-wait:
			}
			continue
		}
		delete(s.entries, e.sessionID)
		metrics.ScheduledEvents.Set(float64(len(s.entries)))
		s.mu.Unlock()

		select {
		case <-ctx.Done():
			break dispatch
		case work <- e:
		}
	}

	close(work)
	wg.Wait()
	return ctx.Err()
}

// nextDueLocked pops the earliest due, still-current entry, or nil when
// nothing is due yet.
func (s *Scheduler) nextDueLocked() *entry {
	now := time.Now()
	for {
		head := s.queue.peek()
		if head == nil {
			return nil
		}
		current, ok := s.entries[head.sessionID]
		if !ok || current.gen != head.gen {
			// Replaced or cancelled; discard the stale heap item.
			s.queue.pop()
			continue
		}
		if head.due.After(now) {
			return nil
		}
		return s.queue.pop()
	}
}

// waitLocked arms the timer for the earliest pending due time and returns
// its channel.
func (s *Scheduler) waitLocked(timer *time.Timer) <-chan time.Time {
	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
	if head := s.queue.peek(); head != nil {
		timer.Reset(time.Until(head.due))
	} else {
		timer.Reset(time.Hour)
	}
	return timer.C
}

func (s *Scheduler) worker(ctx context.Context, work <-chan *entry) {
	for e := range work {
		if ctx.Err() != nil {
			continue
		}
		if err := s.sem.Acquire(ctx, 1); err != nil {
			continue
		}

		metrics.WorkersBusy.Inc()
		res, err := s.step(ctx, Event{SessionID: e.sessionID, Kind: e.kind, Due: e.due})
		metrics.WorkersBusy.Dec()
		s.sem.Release(1)

		s.settle(ctx, e, res, err)
	}
}

// settle applies the step's outcome: reschedule, back off, or retire.
func (s *Scheduler) settle(ctx context.Context, e *entry, res StepResult, err error) {
	if ctx.Err() != nil {
		return
	}

	switch {
	case err != nil && model.IsTransient(err):
		retries := e.retries + 1
		if retries > s.cfg.RetryCeiling {
			s.logger.Warn("session retry budget exhausted",
				zap.String("session_id", e.sessionID),
				zap.Int("retries", retries-1),
			)
			if s.hooks.OnExhausted != nil {
				s.hooks.OnExhausted(e.sessionID)
			}
			return
		}

		backoff := e.lastDelay * 2
		if backoff < s.cfg.FallbackDelay {
			backoff = s.cfg.FallbackDelay
		}
		if backoff > s.cfg.BackoffCeiling {
			backoff = s.cfg.BackoffCeiling
		}
		s.logger.Warn("transient step failure, backing off",
			zap.String("session_id", e.sessionID),
			zap.Int("retries", retries),
			zap.Duration("backoff", backoff),
			zap.Error(err),
		)
		if s.hooks.OnRetry != nil {
			s.hooks.OnRetry(e.sessionID, retries, backoff)
		}
		s.schedule(e.sessionID, e.kind, backoff, retries, backoff)

	case err != nil:
		// Non-transient step errors terminate in the step itself; reaching
		// here means the step broke its contract. Recover like an orphan.
		s.logger.Error("step failed without terminal marking",
			zap.String("session_id", e.sessionID),
			zap.Error(err),
		)
		s.schedule(e.sessionID, e.kind, s.cfg.FallbackDelay, 0, s.cfg.FallbackDelay)

	case res.Terminal:
		// Entry already removed on dispatch; nothing outstanding remains.

	case res.Next != nil:
		s.schedule(e.sessionID, res.Next.Kind, res.Next.Delay, 0, res.Next.Delay)

	default:
		s.logger.Error("step neither rescheduled nor terminated session",
			zap.String("session_id", e.sessionID),
			zap.String("kind", string(e.kind)),
		)
		if s.hooks.OnOrphan != nil {
			s.hooks.OnOrphan(e.sessionID)
		}
		s.schedule(e.sessionID, KindPoll, s.cfg.FallbackDelay, 0, s.cfg.FallbackDelay)
	}
}
