// Package logging provides structured logging for Gray Logic Motion.
//
// This package wraps Go's standard log/slog package so every component
// (queue, registry, coordinator, monitor, bridges) logs the same way.
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
//	q.SetLogger(logger.With("component", "queue"))
package logging
