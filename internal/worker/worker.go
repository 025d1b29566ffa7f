// Package worker provides async assessment of submitted transactions.
package worker

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/openupi/kingfisher/internal/assess"
	"github.com/openupi/kingfisher/internal/domain"
)

// Worker consumes submitted transactions from the event bus and runs them
// through the assessor. Results are published by the assessor itself.
type Worker struct {
	bus      domain.EventBus
	assessor *assess.Assessor
	logger   *slog.Logger

	subscriptions []domain.Subscription
	wg            sync.WaitGroup
	ctx           context.Context
	cancel        context.CancelFunc
}

// NewWorker creates a new async worker.
func NewWorker(bus domain.EventBus, assessor *assess.Assessor, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		bus:      bus,
		assessor: assessor,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start subscribes to the submitted-transaction topic.
func (w *Worker) Start() error {
	sub, err := w.bus.Subscribe(w.ctx, domain.TopicTransactionSubmitted, w.handleMessage)
	if err != nil {
		return err
	}
	w.subscriptions = append(w.subscriptions, sub)

	w.logger.Info("worker started", "topic", domain.TopicTransactionSubmitted)
	return nil
}

// handleMessage assesses one submitted transaction.
func (w *Worker) handleMessage(ctx context.Context, msg *domain.Message) error {
	var req domain.AssessmentRequest
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		w.logger.Error("failed to parse submitted transaction",
			"message_id", msg.ID,
			"error", err,
		)
		return err
	}

	assessment, err := w.assessor.Assess(ctx, &req)
	if err != nil {
		w.logger.Error("async assessment failed",
			"message_id", msg.ID,
			"error", err,
		)
		return err
	}

	w.logger.Debug("async assessment complete",
		"message_id", msg.ID,
		"assessment_id", assessment.ID,
		"decision", assessment.Decision,
	)
	return nil
}

// Stop gracefully stops the worker.
func (w *Worker) Stop() error {
	w.cancel()

	for _, sub := range w.subscriptions {
		if err := sub.Unsubscribe(); err != nil {
			w.logger.Error("failed to unsubscribe",
				"topic", sub.Topic(),
				"error", err,
			)
		}
	}
	w.subscriptions = nil

	w.wg.Wait()

	w.logger.Info("worker stopped")
	return nil
}

// Stats returns worker statistics.
type Stats struct {
	SubscriptionCount int      `json:"subscriptionCount"`
	Topics            []string `json:"topics"`
}

// GetStats returns current worker statistics.
func (w *Worker) GetStats() Stats {
	topics := make([]string, len(w.subscriptions))
	for i, sub := range w.subscriptions {
		topics[i] = sub.Topic()
	}
	return Stats{
		SubscriptionCount: len(w.subscriptions),
		Topics:            topics,
	}
}
