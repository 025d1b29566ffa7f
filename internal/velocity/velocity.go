// Package velocity tracks per-sender transaction counts within a sliding window.
package velocity

import (
	"context"
	"fmt"
	"time"

	"github.com/openupi/kingfisher/internal/domain"
)

// Service counts transactions per sender VPA using windowed cache counters.
type Service struct {
	cache  domain.Cache
	window time.Duration
}

// NewService creates a new velocity service.
func NewService(cache domain.Cache, window time.Duration) *Service {
	if window <= 0 {
		window = time.Hour
	}
	return &Service{
		cache:  cache,
		window: window,
	}
}

// Record increments the counter for a sender and returns the new count.
func (s *Service) Record(ctx context.Context, senderVPA string) (int64, error) {
	if senderVPA == "" {
		return 0, fmt.Errorf("senderVPA is required")
	}
	return s.cache.IncrementCounter(ctx, counterKey(senderVPA), s.window)
}

// Count returns the current count for a sender without incrementing.
// An expired or missing counter reads as zero.
func (s *Service) Count(ctx context.Context, senderVPA string) (int64, error) {
	if senderVPA == "" {
		return 0, fmt.Errorf("senderVPA is required")
	}
	return s.cache.GetCounter(ctx, counterKey(senderVPA))
}

// Getter returns a lookup function for the rule engine.
func (s *Service) Getter() func(ctx context.Context, senderVPA string) (int64, error) {
	return s.Count
}

func counterKey(senderVPA string) string {
	return "velocity:" + senderVPA
}
