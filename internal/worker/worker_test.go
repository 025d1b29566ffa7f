package worker

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/openupi/kingfisher/internal/assess"
	"github.com/openupi/kingfisher/internal/audit"
	"github.com/openupi/kingfisher/internal/bus"
	"github.com/openupi/kingfisher/internal/domain"
	"github.com/openupi/kingfisher/internal/features"
	"github.com/openupi/kingfisher/internal/model"
	"github.com/openupi/kingfisher/internal/preprocess"
	"github.com/openupi/kingfisher/internal/rules"
)

func newTestAssessor(t *testing.T, eventBus domain.EventBus, auditLog *audit.Log) *assess.Assessor {
	t.Helper()

	ts := time.Date(2025, 3, 12, 12, 0, 0, 0, time.UTC)
	var txs []domain.Transaction
	var labels []int
	for i := 0; i < 20; i++ {
		txs = append(txs, domain.Transaction{
			Amount: 500 + float64(i)*20, Type: "P2M", NetworkType: "4G",
			Timestamp: ts, HourOfDay: 12,
		})
		labels = append(labels, 0)
		txs = append(txs, domain.Transaction{
			Amount: 300000 + float64(i)*500, Type: "P2P", NetworkType: "Public WiFi",
			Timestamp: ts, HourOfDay: 2,
		})
		labels = append(labels, 1)
	}

	frame, err := features.Engineer(txs)
	if err != nil {
		t.Fatalf("engineer: %v", err)
	}
	pre, err := preprocess.Fit(frame)
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	X, err := pre.Transform(frame)
	if err != nil {
		t.Fatalf("transform: %v", err)
	}
	gbt, err := model.Train(X, labels, model.Config{
		Trees: 20, MaxDepth: 3, LearningRate: 0.3, MinLeaf: 1, Lambda: 1.0, Seed: 42,
	})
	if err != nil {
		t.Fatalf("train: %v", err)
	}
	engine, err := rules.NewEngine(nil, 4)
	if err != nil {
		t.Fatalf("engine: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return assess.New(pre, gbt, engine, auditLog, nil, eventBus, logger)
}

func TestWorker(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("AssessesSubmittedTransactions", func(t *testing.T) {
		eventBus := bus.NewChannelBus(10)
		defer eventBus.Close()

		auditLog := audit.NewLog()
		assessor := newTestAssessor(t, eventBus, auditLog)

		completed := make(chan *domain.Message, 1)
		eventBus.Subscribe(ctx, domain.TopicAssessmentCompleted, func(ctx context.Context, msg *domain.Message) error {
			completed <- msg
			return nil
		})

		w := NewWorker(eventBus, assessor, logger)
		if err := w.Start(); err != nil {
			t.Fatalf("Start failed: %v", err)
		}
		defer w.Stop()
		time.Sleep(10 * time.Millisecond)

		hour := 12
		payload, _ := json.Marshal(domain.AssessmentRequest{
			Amount:    600,
			Type:      "P2M",
			Network:   "4G",
			HourOfDay: &hour,
			Timestamp: time.Date(2025, 3, 12, 12, 0, 0, 0, time.UTC),
		})
		if err := eventBus.Publish(ctx, domain.TopicTransactionSubmitted, payload); err != nil {
			t.Fatalf("Publish failed: %v", err)
		}

		select {
		case msg := <-completed:
			var a domain.Assessment
			if err := json.Unmarshal(msg.Payload, &a); err != nil {
				t.Fatalf("unmarshal completed event: %v", err)
			}
			if a.Amount != 600 {
				t.Errorf("expected amount 600, got %v", a.Amount)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("timeout waiting for completed event")
		}

		if auditLog.Len() != 1 {
			t.Errorf("expected 1 audit entry, got %d", auditLog.Len())
		}
	})

	t.Run("IgnoresMalformedPayloads", func(t *testing.T) {
		eventBus := bus.NewChannelBus(10)
		defer eventBus.Close()

		auditLog := audit.NewLog()
		assessor := newTestAssessor(t, eventBus, auditLog)

		w := NewWorker(eventBus, assessor, logger)
		if err := w.Start(); err != nil {
			t.Fatalf("Start failed: %v", err)
		}
		defer w.Stop()
		time.Sleep(10 * time.Millisecond)

		_ = eventBus.Publish(ctx, domain.TopicTransactionSubmitted, []byte("{not json"))
		time.Sleep(50 * time.Millisecond)

		if auditLog.Len() != 0 {
			t.Errorf("malformed payload should not produce assessments, got %d", auditLog.Len())
		}
	})

	t.Run("StopUnsubscribes", func(t *testing.T) {
		eventBus := bus.NewChannelBus(10)
		defer eventBus.Close()

		auditLog := audit.NewLog()
		assessor := newTestAssessor(t, eventBus, auditLog)

		w := NewWorker(eventBus, assessor, logger)
		if err := w.Start(); err != nil {
			t.Fatalf("Start failed: %v", err)
		}

		if stats := w.GetStats(); stats.SubscriptionCount != 1 {
			t.Errorf("expected 1 subscription, got %d", stats.SubscriptionCount)
		}

		if err := w.Stop(); err != nil {
			t.Fatalf("Stop failed: %v", err)
		}
		time.Sleep(10 * time.Millisecond)

		hour := 12
		payload, _ := json.Marshal(domain.AssessmentRequest{Amount: 600, HourOfDay: &hour})
		_ = eventBus.Publish(ctx, domain.TopicTransactionSubmitted, payload)
		time.Sleep(50 * time.Millisecond)

		if auditLog.Len() != 0 {
			t.Errorf("stopped worker should not assess, got %d entries", auditLog.Len())
		}

		if stats := w.GetStats(); stats.SubscriptionCount != 0 {
			t.Errorf("expected 0 subscriptions after stop, got %d", stats.SubscriptionCount)
		}
	})
}
