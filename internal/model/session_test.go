package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidTransition(t *testing.T) {
	tests := []struct {
		from, to Phase
		want     bool
	}{
		{PhaseInitiating, PhaseAwaitingReply, true},
		{PhaseAwaitingReply, PhaseGatheringInfo, true},
		{PhaseAwaitingReply, PhaseReviewingProposal, true},
		{PhaseGatheringInfo, PhaseAwaitingReply, true},
		{PhaseGatheringInfo, PhaseReviewingProposal, true},
		{PhaseReviewingProposal, PhaseNegotiating, true},
		{PhaseReviewingProposal, PhaseConfirming, true},
		{PhaseNegotiating, PhaseReviewingProposal, true},
		{PhaseConfirming, PhaseCompleted, true},
		{PhaseAwaitingReply, PhaseAbandoned, true},
		{PhaseNegotiating, PhaseFailed, true},
		{PhaseAwaitingReply, PhaseAwaitingReply, true},

		// Proposals are answered from review, never straight from the
		// waiting phases, and an agreed deal never reopens.
		{PhaseAwaitingReply, PhaseConfirming, false},
		{PhaseAwaitingReply, PhaseNegotiating, false},
		{PhaseGatheringInfo, PhaseConfirming, false},
		{PhaseNegotiating, PhaseConfirming, false},
		{PhaseConfirming, PhaseNegotiating, false},
		{PhaseConfirming, PhaseGatheringInfo, false},
		{PhaseInitiating, PhaseConfirming, false},
		{PhaseCompleted, PhaseAwaitingReply, false},
		{PhaseCompleted, PhaseAbandoned, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ValidTransition(tt.from, tt.to),
			"%s -> %s", tt.from, tt.to)
	}
}
