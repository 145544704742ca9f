package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Pipeline  PipelineConfig
	Drafting  DraftingConfig
	Logging   LogConfig
	Bus       BusConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8000"`
	Host string `envconfig:"HOST" default:"0.0.0.0"`
}

// PipelineConfig holds worker pool and queue configuration.
type PipelineConfig struct {
	// BuildWorkers sizes the build pool; 0 means host parallelism.
	BuildWorkers int `envconfig:"BUILD_WORKERS" default:"0"`
	// ValidateWorkers caps the ephemeral validation pool.
	ValidateWorkers int `envconfig:"VALIDATE_WORKERS" default:"8"`
	// QueueCapacity bounds the build queue for backpressure.
	QueueCapacity int `envconfig:"QUEUE_CAPACITY" default:"64"`
}

// DraftingConfig holds external console-tool configuration.
type DraftingConfig struct {
	ToolPath      string `envconfig:"DRAFT_TOOL_PATH" default:""`
	ScriptDir     string `envconfig:"DRAFT_SCRIPT_DIR" default:"./scripts"`
	CheckScript   string `envconfig:"DRAFT_CHECK_SCRIPT" default:"test_xrefs.scr"`
	BuildScript   string `envconfig:"DRAFT_BUILD_SCRIPT" default:"zipship.scr"`
	PublishScript string `envconfig:"DRAFT_PUBLISH_SCRIPT" default:"zipship_publish.scr"`
}

// LogConfig holds logging and log-transport configuration.
type LogConfig struct {
	Level        string        `envconfig:"LOG_LEVEL" default:"info"`
	Development  bool          `envconfig:"LOG_DEV" default:"false"`
	QueueSize    int           `envconfig:"LOG_QUEUE_SIZE" default:"256"`
	DrainTimeout time.Duration `envconfig:"LOG_DRAIN_TIMEOUT" default:"5s"`
}

// BusConfig holds NATS settings for the standalone log listener.
type BusConfig struct {
	Enabled bool   `envconfig:"BUS_ENABLED" default:"false"`
	URL     string `envconfig:"NATS_URL" default:"nats://127.0.0.1:4222"`
	Subject string `envconfig:"LOG_SUBJECT" default:"batchd.logs"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// CORSConfig holds cross-origin settings for the HTTP API.
type CORSConfig struct {
	AllowedOrigins []string      `envconfig:"CORS_ORIGINS" default:"*"`
	MaxAge         time.Duration `envconfig:"CORS_MAX_AGE" default:"12h"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8000",
			Host: "0.0.0.0",
		},
		Pipeline: PipelineConfig{
			BuildWorkers:    0,
			ValidateWorkers: 8,
			QueueCapacity:   64,
		},
		Drafting: DraftingConfig{
			ScriptDir:     "./scripts",
			CheckScript:   "test_xrefs.scr",
			BuildScript:   "zipship.scr",
			PublishScript: "zipship_publish.scr",
		},
		Logging: LogConfig{
			Level:        "info",
			Development:  false,
			QueueSize:    256,
			DrainTimeout: 5 * time.Second,
		},
		Bus: BusConfig{
			Enabled: false,
			URL:     "nats://127.0.0.1:4222",
			Subject: "batchd.logs",
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{"*"},
			MaxAge:         12 * time.Hour,
		},
	}
}
