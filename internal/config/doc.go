// Package config provides 12-factor configuration management for the
// batchd service.
//
// Configuration is loaded from environment variables with sensible
// defaults. CLI flags can override environment variables for development
// flexibility.
//
// Configuration Sections:
//   - Server: HTTP server settings (port, host)
//   - Pipeline: build/validation pool sizing and queue capacity
//   - Drafting: external console-tool and script locations
//   - Logging: log level, transport queue size, drain timeout
//   - Bus: NATS settings for the standalone log listener
//   - RateLimit: Per-IP rate limiting configuration
//   - CORS: allowed browser origins and preflight cache age
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	fmt.Printf("Server running on %s:%s\n", cfg.Server.Host, cfg.Server.Port)
//
// Environment Variables:
//   - PORT, HOST
//   - BUILD_WORKERS, VALIDATE_WORKERS, QUEUE_CAPACITY
//   - DRAFT_TOOL_PATH, DRAFT_SCRIPT_DIR, DRAFT_CHECK_SCRIPT, DRAFT_BUILD_SCRIPT, DRAFT_PUBLISH_SCRIPT
//   - LOG_LEVEL, LOG_DEV, LOG_QUEUE_SIZE, LOG_DRAIN_TIMEOUT
//   - BUS_ENABLED, NATS_URL, LOG_SUBJECT
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
//   - CORS_ORIGINS, CORS_MAX_AGE
package config
