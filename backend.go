package shapegl

import (
	"image/draw"
	"sort"
	"sync"
)

// Context is a graphics context bound to one Surface. It mediates the
// stages of a frame, which a renderer calls in order:
// Viewport, Clear, Draw and Present.
type Context interface {
	// Viewport sets the drawing area to width x height pixels. Backends
	// reallocate their buffers only when the dimensions changed.
	Viewport(width, height int) error
	// Clear fills the whole viewport with c.
	Clear(c Color) error
	// Draw rasterizes one draw call.
	Draw(dc DrawCall) error
	// Present writes the finished frame to dst, whose bounds
	// match the current viewport.
	Present(dst draw.Image) error
	// Close releases the context's resources.
	Close() error
}

// Backend creates graphics contexts.
type Backend interface {
	// Name identifies the backend in the registry.
	Name() string
	// NewContext acquires a context for s. opts carries backend specific
	// options and may be nil.
	NewContext(s *Surface, opts any) (Context, error)
}

var (
	backendsMu sync.RWMutex
	backends   = make(map[string]Backend)
)

// Register makes a backend available by name. It panics if b is nil or
// a backend with the same name is already registered.
func Register(b Backend) {
	if b == nil {
		panic("shapegl: Register backend is nil")
	}
	name := b.Name()
	backendsMu.Lock()
	defer backendsMu.Unlock()
	if _, dup := backends[name]; dup {
		panic("shapegl: Register called twice for backend " + name)
	}
	backends[name] = b
}

// Lookup returns the backend registered under name.
func Lookup(name string) (Backend, bool) {
	backendsMu.RLock()
	defer backendsMu.RUnlock()
	b, ok := backends[name]
	return b, ok
}

// Backends returns the sorted names of the registered backends.
func Backends() []string {
	backendsMu.RLock()
	defer backendsMu.RUnlock()
	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
