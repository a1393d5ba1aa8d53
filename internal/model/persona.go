// Package model defines data structures for the client simulator.
package model

import (
	"time"
)

// DecisionSpeed classifies how quickly a persona replies. Each class maps to
// a delay range in the scheduler.
type DecisionSpeed string

const (
	DecisionSpeedFast     DecisionSpeed = "fast"
	DecisionSpeedModerate DecisionSpeed = "moderate"
	DecisionSpeedSlow     DecisionSpeed = "slow"
)

// QuirkKind enumerates the supported behavioral perturbations.
type QuirkKind string

const (
	// QuirkCorrectiveFollowUp schedules a short-delay "forgot to mention"
	// follow-up message after an outbound send.
	QuirkCorrectiveFollowUp QuirkKind = "corrective_follow_up"
	// QuirkTypos injects realistic typos into outbound text.
	QuirkTypos QuirkKind = "typos"
	// QuirkEmotionalFraming prepends trait-conditioned interjections.
	QuirkEmotionalFraming QuirkKind = "emotional_framing"
)

// Quirk is a named probabilistic behavior with a fixed parameter schema.
type Quirk struct {
	Kind        QuirkKind     `json:"kind"`
	Probability float64       `json:"probability"`
	MinDelay    time.Duration `json:"min_delay,omitempty"`
	MaxDelay    time.Duration `json:"max_delay,omitempty"`
	Rate        float64       `json:"rate,omitempty"`
}

// TraitWeights is the categorical distribution a persona uses when deciding
// how to react to a proposal. Weights need not sum to 1; they are normalized
// at draw time.
type TraitWeights struct {
	Accept  float64 `json:"accept"`
	Modify  float64 `json:"modify"`
	Clarify float64 `json:"clarify"`
}

// Budget is the persona's spending envelope in whole dollars.
type Budget struct {
	Min         int    `json:"min"`
	Max         int    `json:"max"`
	Flexibility string `json:"flexibility"`
}

// Persona is an immutable behavioral template. Loaded once at startup and
// shared read-only by every session bound to it.
type Persona struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	Email         string        `json:"email"`
	Traits        []string      `json:"traits"`
	Style         string        `json:"style"`
	DecisionSpeed DecisionSpeed `json:"decision_speed"`
	Concerns      []string      `json:"concerns"`
	Interests     []string      `json:"interests"`
	TravelGroup   string        `json:"travel_group"`
	TravelDates   string        `json:"travel_dates"`
	Budget        Budget        `json:"budget"`
	Requirements  []string      `json:"requirements"`
	Quirks        []Quirk       `json:"quirks"`
	Decision      TraitWeights  `json:"decision"`
	// LostInterestProbability is the chance the persona walks away when
	// interest has dropped below the abandonment threshold.
	LostInterestProbability float64 `json:"lost_interest_probability"`
}

// Quirk returns the persona's quirk of the given kind, if declared.
func (p *Persona) Quirk(kind QuirkKind) (Quirk, bool) {
	for _, q := range p.Quirks {
		if q.Kind == kind {
			return q, true
		}
	}
	return Quirk{}, false
}

// HasTrait reports whether the persona declares the named trait.
func (p *Persona) HasTrait(trait string) bool {
	for _, t := range p.Traits {
		if t == trait {
			return true
		}
	}
	return false
}
