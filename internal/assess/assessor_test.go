package assess

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/openupi/kingfisher/internal/audit"
	"github.com/openupi/kingfisher/internal/bus"
	"github.com/openupi/kingfisher/internal/cache"
	"github.com/openupi/kingfisher/internal/domain"
	"github.com/openupi/kingfisher/internal/features"
	"github.com/openupi/kingfisher/internal/model"
	"github.com/openupi/kingfisher/internal/preprocess"
	"github.com/openupi/kingfisher/internal/rules"
	"github.com/openupi/kingfisher/internal/velocity"
)

var testTime = time.Date(2025, 3, 12, 12, 0, 0, 0, time.UTC)

// newTestAssessor fits a preprocessor and trains a small classifier on
// cleanly separable data: huge payments over public WiFi at night are
// fraud, ordinary daytime payments are not.
func newTestAssessor(t *testing.T, vel *velocity.Service, eventBus domain.EventBus) (*Assessor, *audit.Log) {
	t.Helper()

	var txs []domain.Transaction
	var labels []int
	for i := 0; i < 30; i++ {
		txs = append(txs, domain.Transaction{
			Amount:           500 + float64(i)*20,
			Type:             "P2M",
			MerchantCategory: "General",
			Status:           "SUCCESS",
			NetworkType:      "4G",
			DeviceType:       "Android",
			Timestamp:        testTime,
			HourOfDay:        12,
			FraudFlag:        0,
		})
		labels = append(labels, 0)

		txs = append(txs, domain.Transaction{
			Amount:           300000 + float64(i)*500,
			Type:             "P2P",
			MerchantCategory: "General",
			Status:           "SUCCESS",
			NetworkType:      "Public WiFi",
			DeviceType:       "Android",
			Timestamp:        testTime,
			HourOfDay:        2,
			FraudFlag:        1,
		})
		labels = append(labels, 1)
	}

	frame, err := features.Engineer(txs)
	if err != nil {
		t.Fatalf("engineer: %v", err)
	}

	pre, err := preprocess.Fit(frame)
	if err != nil {
		t.Fatalf("fit preprocessor: %v", err)
	}

	X, err := pre.Transform(frame)
	if err != nil {
		t.Fatalf("transform: %v", err)
	}

	gbt, err := model.Train(X, labels, model.Config{
		Trees:        30,
		MaxDepth:     3,
		LearningRate: 0.3,
		MinLeaf:      1,
		Lambda:       1.0,
		Seed:         42,
	})
	if err != nil {
		t.Fatalf("train: %v", err)
	}

	var getter rules.VelocityGetter
	if vel != nil {
		getter = vel.Getter()
	}
	engine, err := rules.NewEngine(getter, 4)
	if err != nil {
		t.Fatalf("rules engine: %v", err)
	}

	auditLog := audit.NewLog()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return New(pre, gbt, engine, auditLog, vel, eventBus, logger), auditLog
}

func hourPtr(h int) *int { return &h }

func TestAssess(t *testing.T) {
	ctx := context.Background()

	t.Run("ApprovesLowRisk", func(t *testing.T) {
		assessor, auditLog := newTestAssessor(t, nil, nil)

		result, err := assessor.Assess(ctx, &domain.AssessmentRequest{
			Amount:    600,
			Type:      "P2M",
			Network:   "4G",
			Device:    "Android",
			HourOfDay: hourPtr(12),
			Timestamp: testTime,
		})
		if err != nil {
			t.Fatalf("Assess failed: %v", err)
		}

		if result.Decision != domain.DecisionApprove {
			t.Errorf("expected APPROVE, got %s (risk %v, signals %v)", result.Decision, result.FinalRisk, result.Signals)
		}
		if len(result.Signals) != 0 {
			t.Errorf("expected no signals, got %v", result.Signals)
		}
		if result.FinalRisk != result.MLProbability {
			t.Errorf("with no signals final risk %v should equal probability %v", result.FinalRisk, result.MLProbability)
		}
		if result.ID == "" {
			t.Error("expected assessment ID")
		}

		entries := auditLog.Entries()
		if len(entries) != 1 {
			t.Fatalf("expected 1 audit entry, got %d", len(entries))
		}
		if entries[0].Decision != domain.DecisionApprove {
			t.Errorf("audit decision mismatch: %s", entries[0].Decision)
		}
		if entries[0].RiskPercent != result.FinalRisk*100 {
			t.Errorf("audit risk %v != final risk %v * 100", entries[0].RiskPercent, result.FinalRisk)
		}
	})

	t.Run("DeclinesHighRisk", func(t *testing.T) {
		assessor, _ := newTestAssessor(t, nil, nil)

		result, err := assessor.Assess(ctx, &domain.AssessmentRequest{
			Amount:    305000,
			Type:      "P2P",
			Network:   "Public WiFi",
			Device:    "Android",
			HourOfDay: hourPtr(2),
			Timestamp: testTime,
		})
		if err != nil {
			t.Fatalf("Assess failed: %v", err)
		}

		if result.Decision != domain.DecisionDecline {
			t.Errorf("expected DECLINE, got %s (risk %v)", result.Decision, result.FinalRisk)
		}

		want := []string{"high-value transaction", "untrusted network", "unusual transaction hour"}
		if len(result.Signals) != len(want) {
			t.Fatalf("expected signals %v, got %v", want, result.Signals)
		}
		for i, name := range want {
			if result.Signals[i] != name {
				t.Errorf("signal %d: expected %q, got %q", i, name, result.Signals[i])
			}
		}
	})

	t.Run("ManualReviewOverrides", func(t *testing.T) {
		assessor, _ := newTestAssessor(t, nil, nil)

		result, err := assessor.Assess(ctx, &domain.AssessmentRequest{
			Amount:       600,
			Type:         "P2M",
			Network:      "4G",
			HourOfDay:    hourPtr(12),
			Timestamp:    testTime,
			ManualReview: true,
		})
		if err != nil {
			t.Fatalf("Assess failed: %v", err)
		}

		if result.Decision != domain.DecisionReview {
			t.Errorf("expected ROUTE_TO_REVIEW, got %s", result.Decision)
		}
	})

	t.Run("RejectsInvalidHour", func(t *testing.T) {
		assessor, auditLog := newTestAssessor(t, nil, nil)

		_, err := assessor.Assess(ctx, &domain.AssessmentRequest{
			Amount:    600,
			HourOfDay: hourPtr(24),
			Timestamp: testTime,
		})
		if err == nil {
			t.Fatal("expected error for hour 24")
		}

		// Failed assessments leave no audit trace
		if auditLog.Len() != 0 {
			t.Errorf("expected empty audit log, got %d entries", auditLog.Len())
		}
	})

	t.Run("RecordsVelocity", func(t *testing.T) {
		vel := velocity.NewService(cache.NewLRUCache(100), time.Minute)
		assessor, _ := newTestAssessor(t, vel, nil)

		req := &domain.AssessmentRequest{
			Amount:    600,
			Type:      "P2M",
			Network:   "4G",
			HourOfDay: hourPtr(12),
			Timestamp: testTime,
			SenderVPA: "alice@upi",
		}

		if _, err := assessor.Assess(ctx, req); err != nil {
			t.Fatalf("Assess failed: %v", err)
		}
		if _, err := assessor.Assess(ctx, req); err != nil {
			t.Fatalf("Assess failed: %v", err)
		}

		n, err := vel.Count(ctx, "alice@upi")
		if err != nil {
			t.Fatalf("Count failed: %v", err)
		}
		if n != 2 {
			t.Errorf("expected velocity count 2, got %d", n)
		}
	})

	t.Run("PublishesEvents", func(t *testing.T) {
		eventBus := bus.NewChannelBus(10)
		defer eventBus.Close()

		completed := make(chan *domain.Message, 1)
		declined := make(chan *domain.Message, 1)

		eventBus.Subscribe(ctx, domain.TopicAssessmentCompleted, func(ctx context.Context, msg *domain.Message) error {
			completed <- msg
			return nil
		})
		eventBus.Subscribe(ctx, domain.TopicAssessmentDeclined, func(ctx context.Context, msg *domain.Message) error {
			declined <- msg
			return nil
		})
		time.Sleep(10 * time.Millisecond)

		assessor, _ := newTestAssessor(t, nil, eventBus)

		result, err := assessor.Assess(ctx, &domain.AssessmentRequest{
			Amount:    305000,
			Type:      "P2P",
			Network:   "Public WiFi",
			HourOfDay: hourPtr(2),
			Timestamp: testTime,
		})
		if err != nil {
			t.Fatalf("Assess failed: %v", err)
		}
		if result.Decision != domain.DecisionDecline {
			t.Fatalf("expected DECLINE, got %s", result.Decision)
		}

		for topic, ch := range map[string]chan *domain.Message{
			domain.TopicAssessmentCompleted: completed,
			domain.TopicAssessmentDeclined:  declined,
		} {
			select {
			case msg := <-ch:
				var published domain.Assessment
				if err := json.Unmarshal(msg.Payload, &published); err != nil {
					t.Fatalf("unmarshal event on %s: %v", topic, err)
				}
				if published.ID != result.ID {
					t.Errorf("event on %s carries ID %q, expected %q", topic, published.ID, result.ID)
				}
			case <-time.After(time.Second):
				t.Fatalf("timeout waiting for event on %s", topic)
			}
		}
	})

	t.Run("AuditOrder", func(t *testing.T) {
		assessor, auditLog := newTestAssessor(t, nil, nil)

		amounts := []float64{600, 305000, 900}
		hours := []int{12, 2, 12}
		for i := range amounts {
			_, err := assessor.Assess(ctx, &domain.AssessmentRequest{
				Amount:    amounts[i],
				Type:      "P2M",
				Network:   "4G",
				HourOfDay: hourPtr(hours[i]),
				Timestamp: testTime,
			})
			if err != nil {
				t.Fatalf("Assess failed: %v", err)
			}
		}

		entries := auditLog.Entries()
		if len(entries) != 3 {
			t.Fatalf("expected 3 audit entries, got %d", len(entries))
		}
		for i := range amounts {
			if entries[i].Amount != amounts[i] {
				t.Errorf("entry %d: expected amount %v, got %v", i, amounts[i], entries[i].Amount)
			}
		}
	})
}
