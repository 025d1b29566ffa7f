// Package decision fuses the classifier probability with rule signals into
// the final risk score and disposition.
package decision

import (
	"github.com/openupi/kingfisher/internal/domain"
)

const (
	// RulePenalty is the fixed additive risk contribution per fired rule
	// signal. Additive rather than multiplicative, so stacked rules cannot
	// outrun a single high-confidence model score before the cap.
	RulePenalty = 0.12

	// DeclineThreshold is the fused risk above which a transaction is
	// declined. The comparison is strictly greater-than.
	DeclineThreshold = 0.75
)

// Fuse combines the classifier probability and the fired rule signals into
// the final risk score and decision.
//
// Precedence: a manual review flag routes to review regardless of score,
// even an otherwise-approvable low one. Then risk above the decline
// threshold declines; everything else approves.
func Fuse(mlProbability float64, signals []domain.RuleSignal, manualReview bool) (float64, domain.Decision) {
	finalRisk := mlProbability + RulePenalty*float64(len(signals))
	if finalRisk > 1.0 {
		finalRisk = 1.0
	}

	switch {
	case manualReview:
		return finalRisk, domain.DecisionReview
	case finalRisk > DeclineThreshold:
		return finalRisk, domain.DecisionDecline
	default:
		return finalRisk, domain.DecisionApprove
	}
}
