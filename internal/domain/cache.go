package domain

import (
	"context"
	"time"
)

// Cache defines the interface for caching operations.
// Supports two-phase caching: local LRU (Community) + Redis (Pro).
type Cache interface {
	// Get retrieves a value from cache.
	// Returns nil, nil if key not found.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value in cache with expiration.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value from cache.
	Delete(ctx context.Context, key string) error

	// GetAssessment retrieves a cached assessment by client request ID.
	// Used for idempotent replay of POST /assess.
	GetAssessment(ctx context.Context, requestID string) (*Assessment, error)

	// SetAssessment caches a completed assessment by client request ID.
	SetAssessment(ctx context.Context, requestID string, a *Assessment, ttl time.Duration) error

	// IncrementCounter atomically increments a counter and returns new value.
	// Used for velocity checks (assessment count per VPA in a time window).
	IncrementCounter(ctx context.Context, key string, window time.Duration) (int64, error)

	// GetCounter returns the current counter value without incrementing.
	// Returns 0 if the counter does not exist or its window expired.
	GetCounter(ctx context.Context, key string) (int64, error)

	// Health check
	Ping(ctx context.Context) error

	// Lifecycle
	Close() error
}

// CacheConfig holds configuration for cache initialization.
type CacheConfig struct {
	// Type is the cache type: "memory" or "redis"
	Type string

	// Local LRU cache settings (Community tier)
	LocalMaxSize int
	LocalTTL     time.Duration

	// Redis settings (Pro tier)
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Two-phase settings
	EnableTwoPhase bool // If true, check local first, then Redis
}
