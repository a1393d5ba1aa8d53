package conversation

import (
	"strings"

	"github.com/WhiteTorn/Wandero-Client-Simulation/internal/model"
)

// Marker tables for reading counterpart emails. Matching is keyword based on
// the lowercased subject+body, the same signals a human skims for.
var (
	requestMarkers = []struct {
		item  model.InfoItem
		words []string
	}{
		{model.InfoBudget, []string{"budget", "spend", "price range"}},
		{model.InfoDates, []string{"dates", "when are you", "what time of year", "travel date"}},
		{model.InfoGroupSize, []string{"how many", "travelers", "group size", "people in your party"}},
		{model.InfoInterests, []string{"interests", "interested in", "activities", "what would you like"}},
		{model.InfoRequirements, []string{"requirements", "special needs", "dietary", "anything else we should know"}},
	}

	proposalMarkers    = []string{"proposal", "quote", "$", "price", "itinerary", "package"}
	negotiationMarkers = []string{"discount", "negotiate", "flexible", "adjust", "revised"}
	invoiceMarkers     = []string{"invoice", "payment", "deposit", "booking confirmed", "confirmation number"}
	greetingMarkers    = []string{"welcome", "hello", "thank you for reaching out", "introduction"}

	positiveWords = []string{"exciting", "amazing", "perfect", "wonderful", "great"}
	negativeWords = []string{"expensive", "costly", "difficult", "impossible", "sorry", "unavailable"}
)

// Extract produces the structured reading of an inbound message.
func Extract(subject, body string) model.Extraction {
	content := strings.ToLower(subject + "\n" + body)

	var ext model.Extraction
	for _, m := range requestMarkers {
		if containsAny(content, m.words) {
			ext.Requested = append(ext.Requested, m.item)
		}
	}
	ext.HasProposal = containsAny(content, proposalMarkers)
	ext.HasDiscount = containsAny(content, negotiationMarkers)
	ext.HasInvoice = containsAny(content, invoiceMarkers)

	for _, w := range positiveWords {
		if strings.Contains(content, w) {
			ext.Sentiment++
		}
	}
	for _, w := range negativeWords {
		if strings.Contains(content, w) {
			ext.Sentiment--
		}
	}

	if len(ext.Requested) == 0 && !ext.HasProposal && !ext.HasDiscount &&
		!ext.HasInvoice && !containsAny(content, greetingMarkers) {
		ext.Uninterpretable = true
	}

	return ext
}

func containsAny(content string, words []string) bool {
	for _, w := range words {
		if strings.Contains(content, w) {
			return true
		}
	}
	return false
}
