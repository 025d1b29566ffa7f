package audit

import (
	"sync"
	"testing"
	"time"

	"github.com/openupi/kingfisher/internal/domain"
)

func TestLog(t *testing.T) {
	t.Run("AppendOrder", func(t *testing.T) {
		log := NewLog()

		log.Append(Entry{Amount: 100, RiskPercent: 12, Decision: domain.DecisionApprove})
		log.Append(Entry{Amount: 250000, RiskPercent: 91, Decision: domain.DecisionDecline})
		log.Append(Entry{Amount: 5000, RiskPercent: 40, Decision: domain.DecisionReview})

		entries := log.Entries()
		if len(entries) != 3 {
			t.Fatalf("expected 3 entries, got %d", len(entries))
		}

		if entries[0].Amount != 100 || entries[0].Decision != domain.DecisionApprove {
			t.Errorf("unexpected first entry: %+v", entries[0])
		}
		if entries[1].Amount != 250000 || entries[1].Decision != domain.DecisionDecline {
			t.Errorf("unexpected second entry: %+v", entries[1])
		}
		if entries[2].Decision != domain.DecisionReview {
			t.Errorf("unexpected third entry: %+v", entries[2])
		}
	})

	t.Run("Empty", func(t *testing.T) {
		log := NewLog()

		if log.Len() != 0 {
			t.Errorf("expected empty log, got %d entries", log.Len())
		}
		if entries := log.Entries(); len(entries) != 0 {
			t.Errorf("expected no entries, got %d", len(entries))
		}
	})

	t.Run("EntriesReturnsSnapshot", func(t *testing.T) {
		log := NewLog()
		log.Append(Entry{Amount: 100, Decision: domain.DecisionApprove})

		entries := log.Entries()
		entries[0].Amount = 999999

		fresh := log.Entries()
		if fresh[0].Amount != 100 {
			t.Errorf("mutating a snapshot leaked into the log: %v", fresh[0].Amount)
		}
	})

	t.Run("ConcurrentAppend", func(t *testing.T) {
		log := NewLog()

		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 100; j++ {
					log.Append(Entry{
						Timestamp: time.Now(),
						Amount:    float64(j),
						Decision:  domain.DecisionApprove,
					})
				}
			}()
		}
		wg.Wait()

		if log.Len() != 1000 {
			t.Errorf("expected 1000 entries, got %d", log.Len())
		}
	})
}
