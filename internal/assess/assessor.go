// Package assess orchestrates online risk assessment: feature engineering,
// model scoring, rule evaluation, and score fusion for a single transaction.
package assess

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/openupi/kingfisher/internal/audit"
	"github.com/openupi/kingfisher/internal/decision"
	"github.com/openupi/kingfisher/internal/domain"
	"github.com/openupi/kingfisher/internal/features"
	"github.com/openupi/kingfisher/internal/metrics"
	"github.com/openupi/kingfisher/internal/model"
	"github.com/openupi/kingfisher/internal/preprocess"
	"github.com/openupi/kingfisher/internal/rules"
	"github.com/openupi/kingfisher/internal/velocity"
)

// Assessor scores a single transaction and fuses the result with rule
// signals into a final decision. All dependencies are fixed at startup;
// Assess is safe for concurrent use.
type Assessor struct {
	pre      *preprocess.Preprocessor
	gbt      *model.GBT
	rules    *rules.Engine
	auditLog *audit.Log
	velocity *velocity.Service
	bus      domain.EventBus
	logger   *slog.Logger
}

// New creates an assessor. velocity and bus may be nil, in which case
// velocity tracking and event publishing are skipped.
func New(pre *preprocess.Preprocessor, gbt *model.GBT, engine *rules.Engine, auditLog *audit.Log, vel *velocity.Service, bus domain.EventBus, logger *slog.Logger) *Assessor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assessor{
		pre:      pre,
		gbt:      gbt,
		rules:    engine,
		auditLog: auditLog,
		velocity: vel,
		bus:      bus,
		logger:   logger,
	}
}

// Assess runs the full online pipeline for one transaction.
func (a *Assessor) Assess(ctx context.Context, req *domain.AssessmentRequest) (*domain.Assessment, error) {
	start := time.Now()

	if req.Timestamp.IsZero() {
		req.Timestamp = time.Now().UTC()
	}

	// Record velocity before rule evaluation so the current transaction
	// counts toward its own sender's window.
	if a.velocity != nil && req.SenderVPA != "" {
		if _, err := a.velocity.Record(ctx, req.SenderVPA); err != nil {
			a.logger.Warn("velocity record failed",
				"sender_vpa", req.SenderVPA,
				"error", err,
			)
		}
	}

	prob, err := a.score(req)
	if err != nil {
		return nil, err
	}

	signals := a.rules.Evaluate(ctx, req)
	finalRisk, verdict := decision.Fuse(prob, signals, req.ManualReview)

	names := make([]string, len(signals))
	for i, s := range signals {
		names[i] = s.Name
		metrics.RuleSignalsTotal.WithLabelValues(s.Name).Inc()
	}

	assessment := &domain.Assessment{
		ID:            uuid.New().String(),
		Timestamp:     time.Now().UTC(),
		Amount:        req.Amount,
		MLProbability: prob,
		FinalRisk:     finalRisk,
		Decision:      verdict,
		Signals:       names,
	}

	a.auditLog.Append(audit.Entry{
		Timestamp:   assessment.Timestamp,
		Amount:      req.Amount,
		RiskPercent: finalRisk * 100,
		Decision:    verdict,
	})

	metrics.AssessmentsTotal.WithLabelValues(string(verdict)).Inc()
	metrics.ModelProbability.Observe(prob)
	metrics.AssessmentDuration.Observe(time.Since(start).Seconds())

	a.publish(ctx, assessment)

	a.logger.Info("assessment complete",
		"assessment_id", assessment.ID,
		"decision", verdict,
		"final_risk", finalRisk,
		"ml_probability", prob,
		"signals", len(names),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return assessment, nil
}

// score runs feature engineering, preprocessing, and the classifier.
func (a *Assessor) score(req *domain.AssessmentRequest) (float64, error) {
	tx := req.ToTransaction()

	frame, err := features.EngineerOne(tx)
	if err != nil {
		return 0, fmt.Errorf("feature engineering: %w", err)
	}

	X, err := a.pre.Transform(frame)
	if err != nil {
		return 0, fmt.Errorf("preprocess: %w", err)
	}

	prob, err := a.gbt.PredictOne(X[0])
	if err != nil {
		return 0, fmt.Errorf("predict: %w", err)
	}
	return prob, nil
}

// publish emits assessment events. Failures are logged, never surfaced
// to the caller.
func (a *Assessor) publish(ctx context.Context, assessment *domain.Assessment) {
	if a.bus == nil {
		return
	}

	payload, err := json.Marshal(assessment)
	if err != nil {
		a.logger.Error("failed to marshal assessment event", "error", err)
		return
	}

	if err := a.bus.Publish(ctx, domain.TopicAssessmentCompleted, payload); err != nil {
		a.logger.Warn("failed to publish assessment event",
			"topic", domain.TopicAssessmentCompleted,
			"error", err,
		)
	}

	if assessment.Decision == domain.DecisionDecline {
		if err := a.bus.Publish(ctx, domain.TopicAssessmentDeclined, payload); err != nil {
			a.logger.Warn("failed to publish decline event",
				"topic", domain.TopicAssessmentDeclined,
				"error", err,
			)
		}
	}
}
