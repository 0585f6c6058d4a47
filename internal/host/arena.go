package host

import "sync"

// Arena owns the helper elements created for one timeline. Release disposes
// them in reverse creation order, whether the timeline completed or was
// killed.
type Arena struct {
	env      Environment
	mu       sync.Mutex
	handles  []Handle
	released bool
}

// NewArena creates an arena that spawns helpers through env.
func NewArena(env Environment) *Arena {
	return &Arena{env: env}
}

// Spawn creates a helper and records it for release.
func (a *Arena) Spawn(kind string, parent Handle) (Handle, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.released {
		return Handle{}, ErrArenaReleased
	}
	h, err := a.env.Spawn(kind, parent)
	if err != nil {
		return Handle{}, err
	}
	a.handles = append(a.handles, h)
	return h, nil
}

// Release disposes every helper. It is idempotent and safe on a nil arena.
func (a *Arena) Release() {
	if a == nil {
		return
	}

	a.mu.Lock()
	if a.released {
		a.mu.Unlock()
		return
	}
	a.released = true
	handles := a.handles
	a.handles = nil
	a.mu.Unlock()

	for i := len(handles) - 1; i >= 0; i-- {
		a.env.Dispose(handles[i])
	}
}

// Len returns the number of live helpers owned by the arena.
func (a *Arena) Len() int {
	if a == nil {
		return 0
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.handles)
}
