package behavior

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WhiteTorn/Wandero-Client-Simulation/internal/model"
)

func quirkyPersona(quirks ...model.Quirk) *model.Persona {
	return &model.Persona{
		ID:     "q",
		Name:   "Quirky",
		Traits: []string{"enthusiastic"},
		Quirks: quirks,
	}
}

func sessionWithDetails(details ...string) *model.Session {
	return &model.Session{
		ID:             "s1",
		PendingDetails: details,
		Shared:         make(map[model.InfoItem]bool),
	}
}

func TestApplyNoQuirksPassesThrough(t *testing.T) {
	p := quirkyPersona()
	rng := rand.New(rand.NewSource(1))

	res := Apply(p, "Hello, the trip sounds good.", sessionWithDetails(), rng)

	assert.Equal(t, "Hello, the trip sounds good.", res.Body)
	assert.Nil(t, res.FollowUp)
}

func TestApplyTypos(t *testing.T) {
	p := quirkyPersona(model.Quirk{
		Kind:        model.QuirkTypos,
		Probability: 1,
		Rate:        1,
	})
	rng := rand.New(rand.NewSource(1))

	res := Apply(p, "I think the trip would suit our family.", sessionWithDetails(), rng)

	assert.Contains(t, res.Body, "teh", "first table word gets slipped at rate 1")
	assert.NotEqual(t, "I think the trip would suit our family.", res.Body)
}

func TestApplyEmotionalFraming(t *testing.T) {
	p := quirkyPersona(model.Quirk{
		Kind:        model.QuirkEmotionalFraming,
		Probability: 1,
	})
	rng := rand.New(rand.NewSource(1))

	res := Apply(p, "This itinerary covers everything we wanted.", sessionWithDetails(), rng)

	assert.True(t, len(res.Body) > len("This itinerary covers everything we wanted."))
	assert.Contains(t, res.Body, "Oh wow, ")
}

func TestApplyCorrectiveFollowUp(t *testing.T) {
	p := quirkyPersona(model.Quirk{
		Kind:        model.QuirkCorrectiveFollowUp,
		Probability: 1,
		MinDelay:    2 * time.Minute,
		MaxDelay:    10 * time.Minute,
	})
	rng := rand.New(rand.NewSource(1))

	res := Apply(p, "Here are our dates.", sessionWithDetails("vegetarian meals", "window seats"), rng)

	require.NotNil(t, res.FollowUp)
	assert.Equal(t, model.IntentForgottenDetail, res.FollowUp.Intent.Kind)
	assert.Equal(t, "vegetarian meals", res.FollowUp.Intent.Detail)
	assert.GreaterOrEqual(t, res.FollowUp.Delay, 2*time.Minute)
	assert.Less(t, res.FollowUp.Delay, 10*time.Minute)
}

func TestApplyFollowUpNeedsPendingDetail(t *testing.T) {
	p := quirkyPersona(model.Quirk{
		Kind:        model.QuirkCorrectiveFollowUp,
		Probability: 1,
	})
	rng := rand.New(rand.NewSource(1))

	res := Apply(p, "Here are our dates.", sessionWithDetails(), rng)

	assert.Nil(t, res.FollowUp, "nothing left to forget")
}

func TestApplyDeterministicForSeed(t *testing.T) {
	p := quirkyPersona(
		model.Quirk{Kind: model.QuirkTypos, Probability: 0.5, Rate: 0.5},
		model.Quirk{Kind: model.QuirkEmotionalFraming, Probability: 0.5},
		model.Quirk{Kind: model.QuirkCorrectiveFollowUp, Probability: 0.5},
	)

	run := func() []string {
		rng := rand.New(rand.NewSource(7))
		var bodies []string
		for i := 0; i < 25; i++ {
			res := Apply(p, "We would like the family tour and the coast.", sessionWithDetails("early flights"), rng)
			bodies = append(bodies, res.Body)
		}
		return bodies
	}

	assert.Equal(t, run(), run())
}
