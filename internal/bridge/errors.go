package bridge

import "errors"

// Domain errors for the MQTT bridge.
//
// Check with errors.Is:
//
//	if errors.Is(err, bridge.ErrInvalidMessage) { ... }
var (
	// ErrMissingDependency is returned by New when a required collaborator
	// is nil.
	ErrMissingDependency = errors.New("bridge: missing dependency")

	// ErrInvalidMessage is returned when a command payload or topic cannot
	// be decoded.
	ErrInvalidMessage = errors.New("bridge: invalid message")

	// ErrStopped is returned for commands received after Stop.
	ErrStopped = errors.New("bridge: stopped")
)
