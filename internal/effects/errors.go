package effects

import "errors"

// Domain errors for the effects package.
//
//	if errors.Is(err, effects.ErrEffectNotFound) {
//	    // unknown effect name
//	}
var (
	// ErrEffectNotFound is returned when executing an unregistered effect.
	ErrEffectNotFound = errors.New("effect: not found")

	// ErrEffectExists is returned when a plugin registers an effect name
	// already owned by another plugin.
	ErrEffectExists = errors.New("effect: already exists")

	// ErrInvalidDefinition is returned when an effect definition fails
	// registration-time validation.
	ErrInvalidDefinition = errors.New("effect: invalid definition")

	// ErrInvalidOptions is returned when options carry out-of-range values.
	ErrInvalidOptions = errors.New("effect: invalid options")

	// ErrMissingOption is returned when a required option is unset.
	ErrMissingOption = errors.New("effect: missing required option")

	// ErrBuildFailed is returned when both the builder and the fallback fail.
	ErrBuildFailed = errors.New("effect: build failed")

	// ErrCompositionEmpty is returned when no child of a composition built.
	ErrCompositionEmpty = errors.New("effect: composition empty")

	// ErrUnknownVariant is returned when selecting a variant the effect does not define.
	ErrUnknownVariant = errors.New("effect: unknown variant")

	// ErrPluginExists is returned when registering a plugin name twice.
	ErrPluginExists = errors.New("effect: plugin already registered")

	// ErrPluginNotFound is returned when unregistering an unknown plugin.
	ErrPluginNotFound = errors.New("effect: plugin not found")

	// ErrInvalidPlugin is returned for a plugin without a name.
	ErrInvalidPlugin = errors.New("effect: invalid plugin")
)
