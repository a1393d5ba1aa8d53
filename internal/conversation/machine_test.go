package conversation

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WhiteTorn/Wandero-Client-Simulation/internal/model"
)

func testPersona() *model.Persona {
	return &model.Persona{
		ID:                      "test_client",
		Name:                    "Test Client",
		DecisionSpeed:           model.DecisionSpeedFast,
		Decision:                model.TraitWeights{Accept: 1},
		LostInterestProbability: 0,
	}
}

func testSession(phase model.Phase) *model.Session {
	return &model.Session{
		ID:            "s1",
		PersonaID:     "test_client",
		Phase:         phase,
		Shared:        make(map[model.InfoItem]bool),
		InterestLevel: 0.5,
	}
}

func TestInitiate(t *testing.T) {
	dec := Initiate(testPersona())
	assert.Equal(t, model.PhaseAwaitingReply, dec.NextPhase)
	require.NotNil(t, dec.Intent)
	assert.Equal(t, model.IntentInitialInquiry, dec.Intent.Kind)
	assert.False(t, dec.Terminal)
}

func TestReactInfoRequest(t *testing.T) {
	p := testPersona()
	s := testSession(model.PhaseAwaitingReply)
	rng := rand.New(rand.NewSource(1))

	ext := model.Extraction{Requested: []model.InfoItem{model.InfoBudget, model.InfoDates}}
	dec := React(p, s, ext, rng)

	require.NotNil(t, dec.Intent)
	assert.Equal(t, model.IntentProvideInfo, dec.Intent.Kind)
	assert.Equal(t, []model.InfoItem{model.InfoBudget, model.InfoDates}, dec.Intent.Items)
	// More items remain undisclosed, so the session keeps gathering.
	assert.Equal(t, model.PhaseGatheringInfo, dec.NextPhase)
}

func TestReactInfoRequestSharesOnlyUndisclosed(t *testing.T) {
	p := testPersona()
	s := testSession(model.PhaseGatheringInfo)
	s.Shared[model.InfoBudget] = true
	rng := rand.New(rand.NewSource(1))

	ext := model.Extraction{Requested: []model.InfoItem{model.InfoBudget, model.InfoDates}}
	dec := React(p, s, ext, rng)

	require.NotNil(t, dec.Intent)
	assert.Equal(t, []model.InfoItem{model.InfoDates}, dec.Intent.Items)
}

func TestReactAllSharedReturnsToAwaiting(t *testing.T) {
	p := testPersona()
	s := testSession(model.PhaseGatheringInfo)
	for _, item := range model.AllInfoItems() {
		if item != model.InfoRequirements {
			s.Shared[item] = true
		}
	}
	rng := rand.New(rand.NewSource(1))

	ext := model.Extraction{Requested: []model.InfoItem{model.InfoRequirements}}
	dec := React(p, s, ext, rng)

	assert.Equal(t, model.PhaseAwaitingReply, dec.NextPhase)
}

func TestReactProposalMovesUnderReview(t *testing.T) {
	p := testPersona()
	rng := rand.New(rand.NewSource(1))

	for _, phase := range []model.Phase{model.PhaseAwaitingReply, model.PhaseGatheringInfo} {
		s := testSession(phase)
		dec := React(p, s, model.Extraction{HasProposal: true}, rng)

		// Arrival and verdict are separate steps: the proposal goes under
		// review first, nothing is sent, and no reaction is drawn yet.
		assert.Equal(t, model.PhaseReviewingProposal, dec.NextPhase, "from %s", phase)
		assert.Nil(t, dec.Intent)
		assert.False(t, dec.Terminal)
	}
}

func TestReactVerdictAccept(t *testing.T) {
	p := testPersona()
	s := testSession(model.PhaseReviewingProposal)
	rng := rand.New(rand.NewSource(1))

	dec := React(p, s, model.Extraction{HasProposal: true}, rng)

	assert.Equal(t, model.PhaseConfirming, dec.NextPhase)
	require.NotNil(t, dec.Intent)
	assert.Equal(t, model.IntentAcceptProposal, dec.Intent.Kind)
}

func TestReactVerdictModify(t *testing.T) {
	p := testPersona()
	p.Decision = model.TraitWeights{Modify: 1}
	s := testSession(model.PhaseReviewingProposal)
	rng := rand.New(rand.NewSource(1))

	dec := React(p, s, model.Extraction{HasProposal: true}, rng)

	assert.Equal(t, model.PhaseNegotiating, dec.NextPhase)
	require.NotNil(t, dec.Intent)
	assert.Equal(t, model.IntentRequestChange, dec.Intent.Kind)
}

func TestReactVerdictClarifySelfLoop(t *testing.T) {
	p := testPersona()
	p.Decision = model.TraitWeights{Clarify: 1}
	s := testSession(model.PhaseReviewingProposal)
	rng := rand.New(rand.NewSource(1))

	dec := React(p, s, model.Extraction{HasProposal: true}, rng)

	assert.Equal(t, model.PhaseReviewingProposal, dec.NextPhase)
	require.NotNil(t, dec.Intent)
	assert.Equal(t, model.IntentAskClarify, dec.Intent.Kind)
}

func TestReactRevisedOfferWhileNegotiating(t *testing.T) {
	p := testPersona()
	s := testSession(model.PhaseNegotiating)
	rng := rand.New(rand.NewSource(1))

	dec := React(p, s, model.Extraction{HasDiscount: true}, rng)

	assert.Equal(t, model.PhaseReviewingProposal, dec.NextPhase)
	assert.Nil(t, dec.Intent)
}

func TestReactProposalWhileConfirmingNeverReopens(t *testing.T) {
	// Once the deal is agreed, price-marked inbound (an invoice body, a
	// restated quote) must not pull the session back into negotiation even
	// for a change-happy persona.
	p := testPersona()
	p.Decision = model.TraitWeights{Modify: 1}
	s := testSession(model.PhaseConfirming)
	rng := rand.New(rand.NewSource(1))

	dec := React(p, s, model.Extraction{HasProposal: true}, rng)

	assert.Equal(t, model.PhaseConfirming, dec.NextPhase)
	require.NotNil(t, dec.Intent)
	assert.Equal(t, model.IntentAskClarify, dec.Intent.Kind)
	assert.False(t, model.ValidTransition(model.PhaseConfirming, model.PhaseNegotiating))
}

func TestReactInvoiceCompletesBooking(t *testing.T) {
	p := testPersona()
	s := testSession(model.PhaseConfirming)
	rng := rand.New(rand.NewSource(1))

	dec := React(p, s, model.Extraction{HasInvoice: true}, rng)

	assert.Equal(t, model.PhaseCompleted, dec.NextPhase)
	assert.True(t, dec.Terminal)
	assert.Equal(t, model.ReasonBooked, dec.Reason)
	require.NotNil(t, dec.Intent)
	assert.Equal(t, model.IntentConfirmBooking, dec.Intent.Kind)
}

func TestReactUninterpretableStaysInPhase(t *testing.T) {
	p := testPersona()
	for _, phase := range []model.Phase{
		model.PhaseAwaitingReply,
		model.PhaseReviewingProposal,
		model.PhaseNegotiating,
	} {
		s := testSession(phase)
		rng := rand.New(rand.NewSource(1))

		dec := React(p, s, model.Extraction{Uninterpretable: true}, rng)

		assert.Equal(t, phase, dec.NextPhase)
		require.NotNil(t, dec.Intent)
		assert.Equal(t, model.IntentAskClarify, dec.Intent.Kind)
		assert.False(t, dec.Terminal)
	}
}

func TestReactLostInterest(t *testing.T) {
	p := testPersona()
	p.LostInterestProbability = 1
	s := testSession(model.PhaseGatheringInfo)
	s.InterestLevel = 0.2
	s.AbandonmentRisk = 1
	rng := rand.New(rand.NewSource(1))

	dec := React(p, s, model.Extraction{Uninterpretable: true}, rng)

	assert.True(t, dec.Terminal)
	assert.Equal(t, model.PhaseAbandoned, dec.NextPhase)
	assert.Equal(t, model.ReasonLostInterest, dec.Reason)
	assert.Nil(t, dec.Intent)
}

func TestReactLostInterestScalesWithRisk(t *testing.T) {
	// The walk-away draw is the persona's propensity weighted by the
	// session's accumulated risk; a zero-risk session never abandons.
	p := testPersona()
	p.LostInterestProbability = 1
	s := testSession(model.PhaseGatheringInfo)
	s.InterestLevel = 0.2
	s.AbandonmentRisk = 0
	rng := rand.New(rand.NewSource(1))

	for i := 0; i < 50; i++ {
		dec := React(p, s, model.Extraction{Uninterpretable: true}, rng)
		assert.False(t, dec.Terminal)
	}
}

func TestReactSentimentMovesInterest(t *testing.T) {
	p := testPersona()
	s := testSession(model.PhaseAwaitingReply)
	rng := rand.New(rand.NewSource(1))

	up := React(p, s, model.Extraction{HasProposal: true, Sentiment: 2}, rng)
	assert.InDelta(t, 0.1, up.InterestDelta, 1e-9)

	down := React(p, s, model.Extraction{HasProposal: true, Sentiment: -1}, rng)
	assert.InDelta(t, -0.1, down.InterestDelta, 1e-9)
}

func TestReactDeterministicForSeed(t *testing.T) {
	p := testPersona()
	p.Decision = model.TraitWeights{Accept: 0.4, Modify: 0.3, Clarify: 0.3}

	run := func() []model.Phase {
		rng := rand.New(rand.NewSource(42))
		var phases []model.Phase
		for i := 0; i < 20; i++ {
			s := testSession(model.PhaseReviewingProposal)
			dec := React(p, s, model.Extraction{HasProposal: true}, rng)
			phases = append(phases, dec.NextPhase)
		}
		return phases
	}

	assert.Equal(t, run(), run())
}
