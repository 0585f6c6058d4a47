package coordinator

import "errors"

// Domain errors for the navigation coordinator.
// Use errors.Is() to check for these errors:
//
//	res := c.Execute(ctx, cmd)
//	if errors.Is(res.Err, coordinator.ErrValidationFailed) {
//	    // Fix the command; retrying will not help
//	}
var (
	// ErrValidationFailed is returned when a command fails validation.
	ErrValidationFailed = errors.New("coordinator: validation failed")

	// ErrRetryExhausted is returned when every retry failed and the
	// instant fallback was used.
	ErrRetryExhausted = errors.New("coordinator: retries exhausted")

	// ErrNotPlayed is returned for a group member the performer dropped,
	// for example because its animation failed to build.
	ErrNotPlayed = errors.New("coordinator: command was not played")

	// ErrUnknownAction is returned for an action outside the whitelist.
	ErrUnknownAction = errors.New("coordinator: unknown action")
)
