package domain

import (
	"time"
)

// Decision is the final disposition of an assessed transaction.
type Decision string

const (
	DecisionApprove Decision = "APPROVE"
	DecisionDecline Decision = "DECLINE"
	DecisionReview  Decision = "ROUTE_TO_REVIEW"
)

// RuleSignal is a named boolean fact derived from raw transaction
// attributes. Signals are stateless and recomputed per request.
type RuleSignal struct {
	Name string `json:"name"`
}

// Rule signal names for the built-in checks.
const (
	SignalHighValue        = "high-value transaction"
	SignalUntrustedNetwork = "untrusted network"
	SignalUnusualHour      = "unusual transaction hour"
)

// Assessment is the complete result of one online risk assessment. Each
// assessment is an independent, idempotent computation over its inputs.
type Assessment struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`

	Amount float64 `json:"amount"`

	// MLProbability is the raw classifier output in [0,1].
	MLProbability float64 `json:"mlProbability"`

	// FinalRisk is the fused risk score in [0,1]: classifier probability
	// plus a fixed penalty per fired rule signal, capped at 1.
	FinalRisk float64 `json:"finalRisk"`

	Decision Decision `json:"decision"`

	// Signals lists the fired rule signal names in evaluation order.
	Signals []string `json:"signals,omitempty"`
}

// CustomRule is an operator-defined CEL rule evaluated after the built-in
// checks. The expression must return a bool; a true result fires a signal
// carrying the rule name.
type CustomRule struct {
	Name       string `json:"name"`
	Expression string `json:"expression"`
	Enabled    bool   `json:"enabled"`
}
