package domain

import (
	"os"
	"strconv"
	"time"
)

// Config holds the complete Kingfisher configuration.
type Config struct {
	// Server settings
	Server ServerConfig `json:"server"`

	// Tier determines component defaults
	Tier Tier `json:"tier"`

	// Artifacts are the fitted preprocessor and classifier locations.
	Artifacts ArtifactsConfig `json:"artifacts"`

	// RulesFile is an optional JSON file of operator-defined CEL rules.
	RulesFile string `json:"rulesFile"`

	// Component configurations
	Cache    CacheConfig    `json:"cache"`
	EventBus EventBusConfig `json:"eventBus"`
	Velocity VelocityConfig `json:"velocity"`

	// Observability
	Logging LoggingConfig `json:"logging"`
	Tracing TracingConfig `json:"tracing"`
}

// ArtifactsConfig holds the paths of the serialized fitted artifacts.
// Both must exist at startup; a missing artifact is a fatal error.
type ArtifactsConfig struct {
	PreprocessorPath string `json:"preprocessorPath"`
	ModelPath        string `json:"modelPath"`
}

// VelocityConfig holds per-sender velocity tracking settings.
type VelocityConfig struct {
	// WindowSecs is the sliding window for the per-VPA assessment counter.
	WindowSecs int `json:"windowSecs"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string `json:"host"`
	Port         int    `json:"port"`
	ReadTimeout  int    `json:"readTimeout"`  // seconds
	WriteTimeout int    `json:"writeTimeout"` // seconds
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `json:"level"`  // debug, info, warn, error
	Format string `json:"format"` // json, text
}

// TracingConfig holds OpenTelemetry settings.
type TracingConfig struct {
	Enabled     bool   `json:"enabled"`
	ServiceName string `json:"serviceName"`
	Endpoint    string `json:"endpoint"`
}

// Tier represents the deployment tier.
type Tier string

const (
	// TierCommunity is the free tier with in-memory cache + channel bus
	TierCommunity Tier = "community"

	// TierPro is the paid tier with Redis + NATS
	TierPro Tier = "pro"
)

// DefaultConfig returns a default configuration for Community tier.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  30,
			WriteTimeout: 30,
		},
		Tier: TierCommunity,
		Artifacts: ArtifactsConfig{
			PreprocessorPath: "./models/preprocessor.json",
			ModelPath:        "./models/gbt_model.json",
		},
		Cache: CacheConfig{
			Type:         "memory",
			LocalMaxSize: 10000,
			LocalTTL:     5 * time.Minute,
		},
		EventBus: EventBusConfig{
			Type:              "channel",
			ChannelBufferSize: 1000,
		},
		Velocity: VelocityConfig{
			WindowSecs: 3600,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Tracing: TracingConfig{
			Enabled:     false,
			ServiceName: "kingfisher",
		},
	}
}

// ProConfig returns a configuration for Pro tier with Redis + NATS.
func ProConfig() *Config {
	cfg := DefaultConfig()
	cfg.Tier = TierPro
	cfg.Cache = CacheConfig{
		Type:           "redis",
		RedisAddr:      "localhost:6379",
		EnableTwoPhase: true,
		LocalMaxSize:   1000,
		LocalTTL:       time.Minute,
	}
	cfg.EventBus = EventBusConfig{
		Type:              "nats",
		NATSUrl:           "nats://localhost:4222",
		NATSMaxReconnects: 10,
		NATSReconnectWait: 5,
	}
	cfg.Tracing.Enabled = true
	return cfg
}

// FromEnv builds the configuration from KINGFISHER_* environment variables
// on top of the tier defaults.
func FromEnv() *Config {
	cfg := DefaultConfig()
	if os.Getenv("KINGFISHER_TIER") == string(TierPro) {
		cfg = ProConfig()
	}

	if v := os.Getenv("KINGFISHER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("KINGFISHER_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = p
		}
	}
	if v := os.Getenv("KINGFISHER_PREPROCESSOR"); v != "" {
		cfg.Artifacts.PreprocessorPath = v
	}
	if v := os.Getenv("KINGFISHER_MODEL"); v != "" {
		cfg.Artifacts.ModelPath = v
	}
	if v := os.Getenv("KINGFISHER_RULES_FILE"); v != "" {
		cfg.RulesFile = v
	}
	if v := os.Getenv("KINGFISHER_REDIS_ADDR"); v != "" {
		cfg.Cache.RedisAddr = v
	}
	if v := os.Getenv("KINGFISHER_NATS_URL"); v != "" {
		cfg.EventBus.NATSUrl = v
	}
	if v := os.Getenv("KINGFISHER_VELOCITY_WINDOW"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			cfg.Velocity.WindowSecs = secs
		}
	}
	if v := os.Getenv("KINGFISHER_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	return cfg
}
