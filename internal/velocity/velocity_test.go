package velocity

import (
	"context"
	"testing"
	"time"

	"github.com/openupi/kingfisher/internal/cache"
)

func TestService(t *testing.T) {
	ctx := context.Background()

	t.Run("RecordIncrements", func(t *testing.T) {
		svc := NewService(cache.NewLRUCache(100), time.Minute)

		n, err := svc.Record(ctx, "alice@upi")
		if err != nil {
			t.Fatalf("Record failed: %v", err)
		}
		if n != 1 {
			t.Errorf("expected 1, got %d", n)
		}

		n, _ = svc.Record(ctx, "alice@upi")
		if n != 2 {
			t.Errorf("expected 2, got %d", n)
		}
	})

	t.Run("CountDoesNotIncrement", func(t *testing.T) {
		svc := NewService(cache.NewLRUCache(100), time.Minute)

		_, _ = svc.Record(ctx, "bob@upi")
		_, _ = svc.Record(ctx, "bob@upi")

		for i := 0; i < 3; i++ {
			n, err := svc.Count(ctx, "bob@upi")
			if err != nil {
				t.Fatalf("Count failed: %v", err)
			}
			if n != 2 {
				t.Errorf("expected 2, got %d", n)
			}
		}
	})

	t.Run("UnseenSenderIsZero", func(t *testing.T) {
		svc := NewService(cache.NewLRUCache(100), time.Minute)

		n, err := svc.Count(ctx, "nobody@upi")
		if err != nil {
			t.Fatalf("Count failed: %v", err)
		}
		if n != 0 {
			t.Errorf("expected 0, got %d", n)
		}
	})

	t.Run("SendersAreIndependent", func(t *testing.T) {
		svc := NewService(cache.NewLRUCache(100), time.Minute)

		_, _ = svc.Record(ctx, "alice@upi")
		_, _ = svc.Record(ctx, "carol@upi")
		_, _ = svc.Record(ctx, "carol@upi")

		na, _ := svc.Count(ctx, "alice@upi")
		nc, _ := svc.Count(ctx, "carol@upi")

		if na != 1 {
			t.Errorf("expected alice count 1, got %d", na)
		}
		if nc != 2 {
			t.Errorf("expected carol count 2, got %d", nc)
		}
	})

	t.Run("WindowExpiry", func(t *testing.T) {
		svc := NewService(cache.NewLRUCache(100), 10*time.Millisecond)

		_, _ = svc.Record(ctx, "dave@upi")
		_, _ = svc.Record(ctx, "dave@upi")

		time.Sleep(20 * time.Millisecond)

		n, _ := svc.Count(ctx, "dave@upi")
		if n != 0 {
			t.Errorf("expected 0 after window expiry, got %d", n)
		}

		n, _ = svc.Record(ctx, "dave@upi")
		if n != 1 {
			t.Errorf("expected 1 in new window, got %d", n)
		}
	})

	t.Run("EmptySenderRejected", func(t *testing.T) {
		svc := NewService(cache.NewLRUCache(100), time.Minute)

		if _, err := svc.Record(ctx, ""); err == nil {
			t.Error("expected error for empty senderVPA on Record")
		}
		if _, err := svc.Count(ctx, ""); err == nil {
			t.Error("expected error for empty senderVPA on Count")
		}
	})

	t.Run("GetterMatchesCount", func(t *testing.T) {
		svc := NewService(cache.NewLRUCache(100), time.Minute)
		get := svc.Getter()

		_, _ = svc.Record(ctx, "erin@upi")
		_, _ = svc.Record(ctx, "erin@upi")
		_, _ = svc.Record(ctx, "erin@upi")

		n, err := get(ctx, "erin@upi")
		if err != nil {
			t.Fatalf("getter failed: %v", err)
		}
		if n != 3 {
			t.Errorf("expected 3, got %d", n)
		}
	})

	t.Run("DefaultWindow", func(t *testing.T) {
		svc := NewService(cache.NewLRUCache(100), 0)
		if svc.window != time.Hour {
			t.Errorf("expected default window 1h, got %v", svc.window)
		}
	})
}
