package conversation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/WhiteTorn/Wandero-Client-Simulation/internal/model"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name    string
		subject string
		body    string
		check   func(t *testing.T, ext model.Extraction)
	}{
		{
			name:    "information request",
			subject: "Re: Trip inquiry",
			body:    "Welcome! What is your budget? What are your travel dates? How many travelers? What are you interested in? Any special requirements?",
			check: func(t *testing.T, ext model.Extraction) {
				assert.ElementsMatch(t, []model.InfoItem{
					model.InfoBudget, model.InfoDates, model.InfoGroupSize,
					model.InfoInterests, model.InfoRequirements,
				}, ext.Requested)
				assert.False(t, ext.HasProposal)
				assert.False(t, ext.Uninterpretable)
			},
		},
		{
			name:    "proposal with price",
			subject: "Your Chile itinerary",
			body:    "Please find our proposal: 7 days, price $4800 per person.",
			check: func(t *testing.T, ext model.Extraction) {
				assert.True(t, ext.HasProposal)
				assert.False(t, ext.HasInvoice)
			},
		},
		{
			name:    "discount counter",
			subject: "Re: pricing",
			body:    "We can offer a discount on the revised package.",
			check: func(t *testing.T, ext model.Extraction) {
				assert.True(t, ext.HasDiscount)
				assert.True(t, ext.HasProposal, "package marker also reads as proposal")
			},
		},
		{
			name:    "invoice",
			subject: "Booking",
			body:    "Booking confirmed pending payment. Invoice attached, deposit due.",
			check: func(t *testing.T, ext model.Extraction) {
				assert.True(t, ext.HasInvoice)
			},
		},
		{
			name:    "positive sentiment",
			subject: "Great news",
			body:    "Hello! This is a wonderful fit, perfect for your group size.",
			check: func(t *testing.T, ext model.Extraction) {
				assert.Greater(t, ext.Sentiment, 0)
			},
		},
		{
			name:    "negative sentiment",
			subject: "Re: dates",
			body:    "Sorry, those dates are unavailable and the alternative is expensive.",
			check: func(t *testing.T, ext model.Extraction) {
				assert.Less(t, ext.Sentiment, 0)
				assert.Contains(t, ext.Requested, model.InfoDates)
			},
		},
		{
			name:    "uninterpretable",
			subject: "zzz",
			body:    "lorem ipsum dolor sit amet",
			check: func(t *testing.T, ext model.Extraction) {
				assert.True(t, ext.Uninterpretable)
			},
		},
		{
			name:    "plain greeting is not a violation",
			subject: "Hi",
			body:    "Hello, thank you for reaching out.",
			check: func(t *testing.T, ext model.Extraction) {
				assert.False(t, ext.Uninterpretable)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, Extract(tt.subject, tt.body))
		})
	}
}
