package sim

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WhiteTorn/Wandero-Client-Simulation/internal/analytics"
	"github.com/WhiteTorn/Wandero-Client-Simulation/internal/counterpart"
	"github.com/WhiteTorn/Wandero-Client-Simulation/internal/model"
	"github.com/WhiteTorn/Wandero-Client-Simulation/internal/nlg"
	"github.com/WhiteTorn/Wandero-Client-Simulation/internal/persona"
	"github.com/WhiteTorn/Wandero-Client-Simulation/internal/registry"
	"github.com/WhiteTorn/Wandero-Client-Simulation/internal/scheduler"
	"github.com/WhiteTorn/Wandero-Client-Simulation/internal/transport"
	"github.com/WhiteTorn/Wandero-Client-Simulation/pkg/logger"
)

// eagerBuyer always accepts the first proposal, which makes the whole walk
// through the loopback counterpart deterministic.
func eagerBuyer(quirks ...model.Quirk) model.Persona {
	return model.Persona{
		ID:            "eager_buyer",
		Name:          "Alex",
		DecisionSpeed: model.DecisionSpeedFast,
		Interests:     []string{"hiking"},
		TravelGroup:   "couple",
		TravelDates:   "next month",
		Budget:        model.Budget{Min: 4000, Max: 6000, Flexibility: "some"},
		Requirements:  []string{"vegetarian meals"},
		Quirks:        quirks,
		Decision:      model.TraitWeights{Accept: 1},
	}
}

type fixture struct {
	runner   *Runner
	registry *registry.Registry
	recorder *analytics.Recorder
	loopback *transport.Loopback
	sched    *scheduler.Scheduler
}

func newFixture(t *testing.T, p model.Persona) *fixture {
	t.Helper()
	drafter := nlg.NewDrafter(nil, "", 0)
	delays := scheduler.NewDelayPlanner(1.0/1000000.0, time.Hour, 11)
	return buildFixture(t, p, drafter, delays)
}

func buildFixture(t *testing.T, p model.Persona, drafter *nlg.Drafter, delays *scheduler.DelayPlanner) *fixture {
	t.Helper()

	log := logger.NewNop()
	reg := registry.New(log)
	rec := analytics.NewRecorder(256, nil, log)
	lb := transport.NewLoopback(counterpart.NewBot(counterpart.Company{
		Name:    "Chile Adventures Ltd.",
		Country: "Chile",
		Context: "Adventure travel",
	}), "agency@test")

	r := NewRunner(Config{
		Recipient:    "agency@test",
		PollInterval: time.Millisecond,
		Seed:         11,
	}, reg, persona.NewMemoryCatalog([]model.Persona{p}), drafter, lb, rec, nil, delays, log)

	sched := scheduler.New(scheduler.Config{
		Workers:        2,
		MaxInflight:    4,
		RetryCeiling:   3,
		FallbackDelay:  time.Millisecond,
		BackoffCeiling: 10 * time.Millisecond,
	}, r.Step, r.Hooks(), log)
	r.Bind(sched)

	return &fixture{runner: r, registry: reg, recorder: rec, loopback: lb, sched: sched}
}

// drive follows the step results, executing each returned event in order
// until the session is terminal.
func drive(t *testing.T, f *fixture, sessionID string, firstKind scheduler.Kind) {
	t.Helper()
	kind := firstKind
	for i := 0; i < 50; i++ {
		res, err := f.runner.Step(context.Background(), scheduler.Event{
			SessionID: sessionID,
			Kind:      kind,
			Due:       time.Now(),
		})
		require.NoError(t, err)
		if res.Terminal {
			return
		}
		require.NotNil(t, res.Next)
		kind = res.Next.Kind
	}
	t.Fatal("session never reached a terminal phase")
}

func TestRunnerBooksTripEndToEnd(t *testing.T) {
	p := eagerBuyer()
	f := newFixture(t, p)
	s := f.runner.Spawn(p)

	drive(t, f, s.ID, scheduler.KindAct)

	final, err := f.registry.Get(s.ID)
	require.NoError(t, err)
	assert.True(t, final.TerminalFlag)
	assert.Equal(t, model.PhaseCompleted, final.Phase)
	assert.Equal(t, model.ReasonBooked, final.Reason)

	var outbound, inbound int
	for _, m := range final.Messages {
		switch m.Direction {
		case model.DirectionOutbound:
			outbound++
		case model.DirectionInbound:
			inbound++
		}
	}
	// Inquiry, shared details, acceptance, payment confirmation; welcome,
	// proposal, invoice.
	assert.Equal(t, 4, outbound)
	assert.Equal(t, 3, inbound)

	for _, item := range model.AllInfoItems() {
		assert.True(t, final.Shared[item], "item %s was disclosed", item)
	}
	assert.NotEmpty(t, final.ResponseTimes)
}

func TestRunnerEmitsLifecycleEvents(t *testing.T) {
	p := eagerBuyer()
	f := newFixture(t, p)
	s := f.runner.Spawn(p)

	drive(t, f, s.ID, scheduler.KindAct)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	f.recorder.Run(ctx)

	rec, ok := f.recorder.Session(s.ID)
	require.True(t, ok)
	assert.Equal(t, 4, rec.MessagesSent)
	assert.Equal(t, 3, rec.MessagesReceived)
	assert.True(t, rec.Terminal)
	assert.Equal(t, model.ReasonBooked, rec.Outcome)
	assert.Equal(t, model.PhaseCompleted, rec.LastPhase)

	sum := f.recorder.Summary()
	assert.Equal(t, 1, sum.Sessions)
	assert.Equal(t, 1, sum.Terminal)
}

func TestRunnerFollowUpSendsForgottenDetail(t *testing.T) {
	p := eagerBuyer(model.Quirk{
		Kind:        model.QuirkCorrectiveFollowUp,
		Probability: 1,
		MinDelay:    time.Minute,
		MaxDelay:    2 * time.Minute,
	})
	f := newFixture(t, p)
	s := f.runner.Spawn(p)

	// The opening inquiry triggers the quirk: the step asks for a follow-up
	// instead of a poll.
	res, err := f.runner.Step(context.Background(), scheduler.Event{SessionID: s.ID, Kind: scheduler.KindAct})
	require.NoError(t, err)
	require.NotNil(t, res.Next)
	assert.Equal(t, scheduler.KindFollowUp, res.Next.Kind)

	res, err = f.runner.Step(context.Background(), scheduler.Event{SessionID: s.ID, Kind: scheduler.KindFollowUp})
	require.NoError(t, err)
	require.NotNil(t, res.Next)
	assert.Equal(t, scheduler.KindPoll, res.Next.Kind)

	snap, err := f.registry.Get(s.ID)
	require.NoError(t, err)
	assert.Empty(t, snap.PendingDetails, "the forgotten detail was consumed")

	var bodies []string
	for _, m := range snap.Messages {
		if m.Direction == model.DirectionOutbound {
			bodies = append(bodies, m.Body)
		}
	}
	require.Len(t, bodies, 2)
	assert.Contains(t, bodies[1], "vegetarian meals")
}

func TestRunnerTransientSendFailureSurfaces(t *testing.T) {
	p := eagerBuyer()
	f := newFixture(t, p)
	s := f.runner.Spawn(p)

	f.loopback.FailNextSends(1)

	_, err := f.runner.Step(context.Background(), scheduler.Event{SessionID: s.ID, Kind: scheduler.KindAct})
	require.Error(t, err)
	assert.True(t, model.IsTransient(err), "transport outages take the backoff path")

	// The session is untouched: no message recorded, phase unchanged.
	snap, _ := f.registry.Get(s.ID)
	assert.Empty(t, snap.Messages)
	assert.Equal(t, model.PhaseInitiating, snap.Phase)

	// The retry succeeds.
	res, err := f.runner.Step(context.Background(), scheduler.Event{SessionID: s.ID, Kind: scheduler.KindAct})
	require.NoError(t, err)
	require.NotNil(t, res.Next)
}

func TestRunnerCommitsInterestOnceAcrossRetry(t *testing.T) {
	p := eagerBuyer()
	f := newFixture(t, p)
	s := f.runner.Spawn(p)

	// The opening inquiry moves the session into the waiting phase.
	_, err := f.runner.Step(context.Background(), scheduler.Event{SessionID: s.ID, Kind: scheduler.KindAct})
	require.NoError(t, err)

	// A sour reply asking for the budget. Reacting to it shifts interest
	// down by one notch.
	_, err = f.registry.AppendMessage(s.ID, model.Message{
		ID:        "in-1",
		SessionID: s.ID,
		Direction: model.DirectionInbound,
		Body:      "Sorry, that is difficult. What is your budget?",
		Extraction: model.Extraction{
			Requested: []model.InfoItem{model.InfoBudget},
			Sentiment: -1,
		},
		CreatedAt: time.Now(),
	})
	require.NoError(t, err)

	f.loopback.FailNextSends(1)
	_, err = f.runner.Step(context.Background(), scheduler.Event{SessionID: s.ID, Kind: scheduler.KindAct})
	require.Error(t, err)

	snap, _ := f.registry.Get(s.ID)
	assert.Equal(t, 0.5, snap.InterestLevel, "a failed send leaves the step uncommitted")

	res, err := f.runner.Step(context.Background(), scheduler.Event{SessionID: s.ID, Kind: scheduler.KindAct})
	require.NoError(t, err)
	require.NotNil(t, res.Next)

	snap, _ = f.registry.Get(s.ID)
	assert.InDelta(t, 0.4, snap.InterestLevel, 1e-9, "the shift lands exactly once across the retry")
}

type downClient struct{}

func (downClient) Complete(context.Context, *nlg.CompletionRequest) (*nlg.CompletionResponse, error) {
	return nil, errors.New("gateway timeout")
}
func (downClient) Name() string     { return "down" }
func (downClient) Models() []string { return nil }

func TestRunnerGenerationFailureTakesBackoffPath(t *testing.T) {
	p := eagerBuyer()
	delays := scheduler.NewDelayPlanner(1.0/1000000.0, time.Hour, 11)
	f := buildFixture(t, p, nlg.NewDrafter(downClient{}, "test-model", 0), delays)
	s := f.runner.Spawn(p)

	_, err := f.runner.Step(context.Background(), scheduler.Event{SessionID: s.ID, Kind: scheduler.KindAct})
	require.Error(t, err)
	var gerr *model.GenerationError
	require.ErrorAs(t, err, &gerr)
	assert.True(t, model.IsTransient(err), "drafting failures retry before the session fails")

	// The step did not commit: nothing sent, phase unchanged.
	snap, getErr := f.registry.Get(s.ID)
	require.NoError(t, getErr)
	assert.Empty(t, snap.Messages)
	assert.Equal(t, model.PhaseInitiating, snap.Phase)
}

func TestRunnerCancelMarksSessionCancelled(t *testing.T) {
	p := eagerBuyer()
	f := newFixture(t, p)
	s := f.runner.Spawn(p)

	require.NoError(t, f.runner.Cancel(s.ID))

	snap, err := f.registry.Get(s.ID)
	require.NoError(t, err)
	assert.True(t, snap.TerminalFlag)
	assert.Equal(t, model.PhaseAbandoned, snap.Phase)
	assert.Equal(t, model.ReasonCancelled, snap.Reason)
	assert.False(t, f.sched.Pending(s.ID))

	// Events for a cancelled session retire quietly.
	res, err := f.runner.Step(context.Background(), scheduler.Event{SessionID: s.ID, Kind: scheduler.KindPoll})
	require.NoError(t, err)
	assert.True(t, res.Terminal)
}

func TestRunnerStepUnknownSessionRetires(t *testing.T) {
	f := newFixture(t, eagerBuyer())

	res, err := f.runner.Step(context.Background(), scheduler.Event{SessionID: "ghost", Kind: scheduler.KindAct})
	require.NoError(t, err)
	assert.True(t, res.Terminal)
}

func TestRunnerRestoreSchedulesLiveSessionsOnly(t *testing.T) {
	f := newFixture(t, eagerBuyer())

	live := &model.Session{
		ID:        "11111111-1111-7111-8111-111111111111",
		PersonaID: "eager_buyer",
		Phase:     model.PhaseAwaitingReply,
		Shared:    make(map[model.InfoItem]bool),
	}
	finished := &model.Session{
		ID:           "22222222-2222-7222-8222-222222222222",
		PersonaID:    "eager_buyer",
		Phase:        model.PhaseCompleted,
		TerminalFlag: true,
		Reason:       model.ReasonBooked,
		Shared:       make(map[model.InfoItem]bool),
	}

	f.runner.Restore([]*model.Session{live, finished})

	assert.True(t, f.sched.Pending(live.ID))
	assert.False(t, f.sched.Pending(finished.ID))
	assert.Len(t, f.registry.List(), 2)
	assert.Len(t, f.registry.Live(), 1)
}

func TestRunnerRestoreUsesPersonaDelay(t *testing.T) {
	p := eagerBuyer()
	p.DecisionSpeed = model.DecisionSpeedSlow
	delays := scheduler.NewDelayPlanner(1, 48*time.Hour, 11)
	f := buildFixture(t, p, nlg.NewDrafter(nil, "", 0), delays)

	mid := &model.Session{
		ID:        "33333333-3333-7333-8333-333333333333",
		PersonaID: "eager_buyer",
		Phase:     model.PhaseAwaitingReply,
		Shared:    make(map[model.InfoItem]bool),
	}
	f.runner.Restore([]*model.Session{mid})

	require.True(t, f.sched.Pending(mid.ID))

	// A slow persona mulls for hours; the flat poll cadence would put the
	// next due within milliseconds.
	snap, err := f.registry.Get(mid.ID)
	require.NoError(t, err)
	assert.True(t, snap.NextDue.After(time.Now().Add(time.Hour)),
		"restored sessions come back on the persona's clock")
}

func TestRunnerSchedulerIntegration(t *testing.T) {
	p := eagerBuyer()
	f := newFixture(t, p)
	s := f.runner.Spawn(p)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		f.sched.Run(ctx)
	}()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		snap, err := f.registry.Get(s.ID)
		require.NoError(t, err)
		if snap.TerminalFlag {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	<-done

	snap, err := f.registry.Get(s.ID)
	require.NoError(t, err)
	require.True(t, snap.TerminalFlag, "session should complete under the scheduler")
	assert.Equal(t, model.ReasonBooked, snap.Reason)
}
