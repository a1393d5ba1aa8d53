package registry

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WhiteTorn/Wandero-Client-Simulation/internal/model"
	"github.com/WhiteTorn/Wandero-Client-Simulation/pkg/logger"
)

func newTestRegistry() *Registry {
	return New(logger.NewNop())
}

func testPersona() *model.Persona {
	return &model.Persona{
		ID:           "worried_parent",
		Name:         "Maria",
		Requirements: []string{"vegetarian meals", "ground-floor rooms"},
	}
}

func TestCreateInitializesSession(t *testing.T) {
	r := newTestRegistry()
	s := r.Create(testPersona())

	assert.NotEmpty(t, s.ID)
	assert.Equal(t, "worried_parent", s.PersonaID)
	assert.Equal(t, model.PhaseInitiating, s.Phase)
	assert.Equal(t, 0.5, s.InterestLevel)
	assert.Equal(t, []string{"vegetarian meals", "ground-floor rooms"}, s.PendingDetails)
	assert.False(t, s.TerminalFlag)
}

func TestGetReturnsSnapshot(t *testing.T) {
	r := newTestRegistry()
	s := r.Create(testPersona())

	snap, err := r.Get(s.ID)
	require.NoError(t, err)

	// Mutating the snapshot must not leak into the registry.
	snap.Phase = model.PhaseConfirming
	snap.Shared[model.InfoBudget] = true

	again, err := r.Get(s.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PhaseInitiating, again.Phase)
	assert.False(t, again.Shared[model.InfoBudget])
}

func TestGetUnknown(t *testing.T) {
	r := newTestRegistry()
	_, err := r.Get("nope")
	assert.ErrorIs(t, err, model.ErrSessionNotFound)
}

func TestCompareAndTransitionPhase(t *testing.T) {
	r := newTestRegistry()
	s := r.Create(testPersona())

	seq, err := r.CompareAndTransitionPhase(s.ID, model.PhaseInitiating, model.PhaseAwaitingReply)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), seq)

	// Stale expectation loses.
	_, err = r.CompareAndTransitionPhase(s.ID, model.PhaseInitiating, model.PhaseGatheringInfo)
	assert.ErrorIs(t, err, model.ErrPhaseConflict)
}

func TestCompareAndTransitionRejectsInvalidTarget(t *testing.T) {
	r := newTestRegistry()
	s := r.Create(testPersona())

	_, err := r.CompareAndTransitionPhase(s.ID, model.PhaseInitiating, model.PhaseAwaitingReply)
	require.NoError(t, err)

	// The rule table has no edge from the waiting phase straight to a
	// closed deal, so even a matching expectation must not commit.
	_, err = r.CompareAndTransitionPhase(s.ID, model.PhaseAwaitingReply, model.PhaseConfirming)
	assert.ErrorIs(t, err, model.ErrInvalidTransition)

	snap, err := r.Get(s.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PhaseAwaitingReply, snap.Phase)
}

func TestCompareAndTransitionConcurrent(t *testing.T) {
	r := newTestRegistry()
	s := r.Create(testPersona())

	var wg sync.WaitGroup
	wins := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.CompareAndTransitionPhase(s.ID, model.PhaseInitiating, model.PhaseAwaitingReply)
			wins <- err
		}()
	}
	wg.Wait()
	close(wins)

	var ok, conflicts int
	for err := range wins {
		if err == nil {
			ok++
		} else {
			conflicts++
		}
	}
	assert.Equal(t, 1, ok, "exactly one racer commits")
	assert.Equal(t, 9, conflicts)
}

func TestAppendMessageRecordsResponseTimes(t *testing.T) {
	r := newTestRegistry()
	s := r.Create(testPersona())

	sent := time.Now()
	_, err := r.AppendMessage(s.ID, model.Message{
		ID: "m1", Direction: model.DirectionOutbound, CreatedAt: sent,
	})
	require.NoError(t, err)

	_, err = r.AppendMessage(s.ID, model.Message{
		ID: "m2", Direction: model.DirectionInbound, CreatedAt: sent.Add(90 * time.Second),
	})
	require.NoError(t, err)

	snap, err := r.Get(s.ID)
	require.NoError(t, err)
	require.Len(t, snap.ResponseTimes, 1)
	assert.InDelta(t, 90, snap.ResponseTimes[0], 0.1)
	assert.Len(t, snap.Messages, 2)
}

func TestEventSeqStrictlyIncreases(t *testing.T) {
	r := newTestRegistry()
	s := r.Create(testPersona())

	s1, err := r.AppendMessage(s.ID, model.Message{ID: "m1", Direction: model.DirectionOutbound})
	require.NoError(t, err)
	s2, err := r.CompareAndTransitionPhase(s.ID, model.PhaseInitiating, model.PhaseAwaitingReply)
	require.NoError(t, err)
	s3, err := r.MarkTerminal(s.ID, model.PhaseAbandoned, model.ReasonCancelled)
	require.NoError(t, err)

	assert.Less(t, s1, s2)
	assert.Less(t, s2, s3)
}

func TestMarkTerminal(t *testing.T) {
	r := newTestRegistry()
	s := r.Create(testPersona())

	_, err := r.MarkTerminal(s.ID, model.PhaseCompleted, model.ReasonBooked)
	require.NoError(t, err)

	snap, err := r.Get(s.ID)
	require.NoError(t, err)
	assert.True(t, snap.TerminalFlag)
	assert.Equal(t, model.PhaseCompleted, snap.Phase)
	assert.Equal(t, model.ReasonBooked, snap.Reason)

	// Archived sessions stay readable but refuse further transitions.
	_, err = r.MarkTerminal(s.ID, model.PhaseAbandoned, model.ReasonCancelled)
	assert.ErrorIs(t, err, model.ErrSessionTerminal)
	_, err = r.CompareAndTransitionPhase(s.ID, model.PhaseCompleted, model.PhaseAwaitingReply)
	assert.ErrorIs(t, err, model.ErrSessionTerminal)
}

func TestLiveExcludesTerminal(t *testing.T) {
	r := newTestRegistry()
	a := r.Create(testPersona())
	b := r.Create(testPersona())

	_, err := r.MarkTerminal(a.ID, model.PhaseAbandoned, model.ReasonLostInterest)
	require.NoError(t, err)

	live := r.Live()
	require.Len(t, live, 1)
	assert.Equal(t, b.ID, live[0].ID)
	assert.Len(t, r.List(), 2)
}

func TestAdjustInterestClampsAndMovesRisk(t *testing.T) {
	r := newTestRegistry()
	s := r.Create(testPersona())

	for i := 0; i < 20; i++ {
		require.NoError(t, r.AdjustInterest(s.ID, -0.1))
	}
	snap, _ := r.Get(s.ID)
	assert.Equal(t, 0.0, snap.InterestLevel)
	assert.Equal(t, 1.0, snap.AbandonmentRisk)

	for i := 0; i < 30; i++ {
		require.NoError(t, r.AdjustInterest(s.ID, 0.1))
	}
	snap, _ = r.Get(s.ID)
	assert.Equal(t, 1.0, snap.InterestLevel)
	assert.Equal(t, 0.0, snap.AbandonmentRisk)
}

func TestConsumePendingDetail(t *testing.T) {
	r := newTestRegistry()
	s := r.Create(testPersona())

	require.NoError(t, r.ConsumePendingDetail(s.ID, "vegetarian meals"))
	snap, _ := r.Get(s.ID)
	assert.Equal(t, []string{"ground-floor rooms"}, snap.PendingDetails)
}

func TestRetryBookkeeping(t *testing.T) {
	r := newTestRegistry()
	s := r.Create(testPersona())

	n, err := r.IncrementRetry(s.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	n, _ = r.IncrementRetry(s.ID)
	assert.Equal(t, 2, n)

	require.NoError(t, r.ResetRetries(s.ID))
	snap, _ := r.Get(s.ID)
	assert.Equal(t, 0, snap.Retries)
}

func TestRestore(t *testing.T) {
	r := newTestRegistry()
	s := &model.Session{
		ID:        "restored-1",
		PersonaID: "worried_parent",
		Phase:     model.PhaseNegotiating,
		Shared:    map[model.InfoItem]bool{model.InfoBudget: true},
	}
	r.Restore(s)

	snap, err := r.Get("restored-1")
	require.NoError(t, err)
	assert.Equal(t, model.PhaseNegotiating, snap.Phase)
	assert.True(t, snap.Shared[model.InfoBudget])
}
