package persona

import (
	"time"

	"github.com/WhiteTorn/Wandero-Client-Simulation/internal/model"
)

// Seed provides the default persona catalog: six client archetypes covering
// the decision-speed classes and quirk combinations the simulator exercises.
func Seed() []model.Persona {
	return []model.Persona{
		{
			ID:            "worried_parent",
			Name:          "Sarah Thompson",
			Email:         "sarah.thompson@email.com",
			Traits:        []string{"cautious", "detail-oriented", "safety-conscious"},
			Style:         "polite but thorough, asks many questions",
			DecisionSpeed: model.DecisionSpeedSlow,
			Concerns:      []string{"child safety", "medical facilities", "food allergies", "language barrier"},
			Interests:     []string{"cultural experiences", "safe activities", "educational tours"},
			TravelGroup:   "family of four (2 adults, 2 children ages 8 and 12)",
			TravelDates:   "during summer school break (July)",
			Budget:        model.Budget{Min: 8000, Max: 12000, Flexibility: "some"},
			Requirements:  []string{"child has peanut allergy", "need connecting rooms"},
			Quirks: []model.Quirk{
				{Kind: model.QuirkCorrectiveFollowUp, Probability: 0.3, MinDelay: 2 * time.Minute, MaxDelay: 10 * time.Minute},
				{Kind: model.QuirkEmotionalFraming, Probability: 0.4},
			},
			Decision:                model.TraitWeights{Accept: 0.2, Modify: 0.3, Clarify: 0.5},
			LostInterestProbability: 0.1,
		},
		{
			ID:            "budget_backpacker",
			Name:          "Mike Chen",
			Email:         "mike.chen@email.com",
			Traits:        []string{"budget-conscious", "independent", "skeptical"},
			Style:         "casual and direct, cost comes up early",
			DecisionSpeed: model.DecisionSpeedModerate,
			Concerns:      []string{"hidden costs", "overpriced tours", "tourist traps"},
			Interests:     []string{"hiking", "local cuisine", "hostels", "public transport"},
			TravelGroup:   "solo",
			TravelDates:   "flexible, whenever cheapest",
			Budget:        model.Budget{Min: 1000, Max: 2000, Flexibility: "none"},
			Requirements:  []string{"vegetarian meals"},
			Quirks: []model.Quirk{
				{Kind: model.QuirkTypos, Probability: 0.3, Rate: 0.3},
			},
			Decision:                model.TraitWeights{Accept: 0.1, Modify: 0.6, Clarify: 0.3},
			LostInterestProbability: 0.4,
		},
		{
			ID:            "adventure_couple",
			Name:          "Jake and Emma Wilson",
			Email:         "jake.emma.wilson@email.com",
			Traits:        []string{"spontaneous", "enthusiastic", "adventure-seeking"},
			Style:         "casual, excited, quick replies",
			DecisionSpeed: model.DecisionSpeedFast,
			Concerns:      []string{"missing out on experiences", "too touristy"},
			Interests:     []string{"extreme sports", "hiking", "photography", "wine tasting"},
			TravelGroup:   "couple",
			TravelDates:   "next month",
			Budget:        model.Budget{Min: 6000, Max: 10000, Flexibility: "high for right experience"},
			Requirements:  []string{"need photography-friendly schedule"},
			Quirks: []model.Quirk{
				{Kind: model.QuirkCorrectiveFollowUp, Probability: 0.15, MinDelay: 2 * time.Minute, MaxDelay: 10 * time.Minute},
				{Kind: model.QuirkTypos, Probability: 0.3, Rate: 0.3},
				{Kind: model.QuirkEmotionalFraming, Probability: 0.6},
			},
			Decision:                model.TraitWeights{Accept: 0.6, Modify: 0.2, Clarify: 0.2},
			LostInterestProbability: 0.15,
		},
		{
			ID:                      "solo_traveler",
			Name:                    "Dr. Patricia Williams",
			Email:                   "patricia.williams@email.com",
			Traits:                  []string{"independent", "analytical"},
			Style:                   "professional, appreciates details, negotiates smartly",
			DecisionSpeed:           model.DecisionSpeedModerate,
			Concerns:                []string{"safety as solo female", "meeting other travelers"},
			Interests:               []string{"wine tours", "hiking", "local culture", "photography"},
			TravelGroup:             "solo",
			TravelDates:             "in 2-3 months",
			Budget:                  model.Budget{Min: 3000, Max: 5000, Flexibility: "moderate"},
			Requirements:            []string{"prefer small group tours"},
			Quirks:                  []model.Quirk{},
			Decision:                model.TraitWeights{Accept: 0.3, Modify: 0.4, Clarify: 0.3},
			LostInterestProbability: 0.2,
		},
		{
			ID:                      "business_solo",
			Name:                    "Dr. Richard Chen",
			Email:                   "richard.chen@email.com",
			Traits:                  []string{"independent", "efficient", "decisive"},
			Style:                   "professional and direct, values time over money",
			DecisionSpeed:           model.DecisionSpeedFast,
			Concerns:                []string{"time waste", "unreliable services", "poor communication"},
			Interests:               []string{"efficiency", "comfort", "networking"},
			TravelGroup:             "solo business traveler",
			TravelDates:             "specific dates due to business schedule",
			Budget:                  model.Budget{Min: 5000, Max: 7000, Flexibility: "moderate"},
			Requirements:            []string{"vegetarian meals", "reliable wifi", "airport transfers"},
			Quirks:                  []model.Quirk{},
			Decision:                model.TraitWeights{Accept: 0.5, Modify: 0.3, Clarify: 0.2},
			LostInterestProbability: 0.25,
		},
		{
			ID:            "confused_elderly",
			Name:          "Margaret Thompson",
			Email:         "margaret.thompson@email.com",
			Traits:        []string{"cautious", "needs reassurance"},
			Style:         "warm but meandering, asks the same question more than once",
			DecisionSpeed: model.DecisionSpeedSlow,
			Concerns:      []string{"too much walking", "complicated technology", "medical access", "language barriers"},
			Interests:     []string{"comfortable pace", "historical sites", "gardens", "easy walking"},
			TravelGroup:   "elderly couple",
			TravelDates:   "not sure, maybe spring",
			Budget:        model.Budget{Min: 4000, Max: 8000, Flexibility: "some"},
			Requirements:  []string{"mobility assistance", "travel insurance", "medication storage"},
			Quirks: []model.Quirk{
				{Kind: model.QuirkCorrectiveFollowUp, Probability: 0.4, MinDelay: 2 * time.Minute, MaxDelay: 10 * time.Minute},
			},
			Decision:                model.TraitWeights{Accept: 0.15, Modify: 0.25, Clarify: 0.6},
			LostInterestProbability: 0.1,
		},
	}
}
