// Package logging provides structured logging for the rules engine.
//
// This package wraps Go's standard log/slog package to provide
// consistent, structured logging across the poller, the scheduler and
// the transports.
//
// # Features
//
//   - JSON output for production (machine-parsable)
//   - Text output for development (human-readable)
//   - Default fields (service, version) on all log entries
//   - Level-based filtering (debug, info, warn, error)
//
// # Configuration
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// # Usage
//
//	logger := logging.New(cfg.Logging, "1.0.0")
//	logger.Info("automation started", "automation", "cooling")
//	logger.Error("fetch failed", "source", "OpenWeather", "error", err)
//
// # Security
//
// Never log secrets: REST source credentials (API keys, bearer tokens,
// basic auth passwords) must not appear in log fields.
package logging
