// Package api implements the read-only HTTP API and WebSocket stream of the
// motion service.
//
// This package provides:
//   - REST endpoints for the queue, performance monitor, effect registry,
//     coordinator state and execution history
//   - WebSocket hub streaming queue events, command results, performance
//     samples and stage mutations
//   - Middleware stack (request ID, logging, recovery, CORS)
//
// # Architecture
//
// The API observes an engine.Engine and never changes it. Commands arrive
// over MQTT (see package bridge); the API exists so dashboards and
// developers can watch what the engine is doing.
//
// # Graceful Degradation
//
// History and MQTT are optional. Without a history repository the
// executions endpoints answer 503; without MQTT the metrics report it as
// disconnected.
package api
