package host

import "errors"

// Domain errors for the host package.
//
//	if errors.Is(err, host.ErrTargetNotFound) {
//	    // locator matched nothing, or the handle was disposed
//	}
var (
	// ErrTargetNotFound is returned when a locator or handle matches no element.
	ErrTargetNotFound = errors.New("host: target not found")

	// ErrArenaReleased is returned when spawning into an arena that was already released.
	ErrArenaReleased = errors.New("host: arena released")

	// ErrInvalidStage is returned when a stage file fails validation.
	ErrInvalidStage = errors.New("host: invalid stage")
)
