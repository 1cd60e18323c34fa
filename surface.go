package shapegl

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"sort"
	"sync"
)

// Surface is a named drawable target with pixel dimensions. It holds the
// last presented frame. Its size may be changed with Resize at any time,
// also from other goroutines; renderers pick up the new size on their
// next frame.
type Surface struct {
	id string

	mu        sync.Mutex
	width     int
	height    int
	front     *image.NRGBA // last presented frame.
	back      *image.NRGBA // scratch buffer presentation writes to.
	bound     bool
	destroyed bool
}

func newSurface(id string, width, height int) *Surface {
	return &Surface{
		id:     id,
		width:  width,
		height: height,
		front:  image.NewNRGBA(image.Rect(0, 0, width, height)),
	}
}

// ID returns the surface identifier.
func (s *Surface) ID() string { return s.id }

// Size returns the current pixel dimensions of the surface.
func (s *Surface) Size() (width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.width, s.height
}

// Resize changes the pixel dimensions of the surface. Like resizing a canvas
// element, the contents are discarded and the surface becomes transparent.
func (s *Surface) Resize(width, height int) error {
	const op = "resize"
	if width <= 0 || height <= 0 {
		return NewError(op, s.id, ErrInvalidParameter, fmt.Errorf("bad dimensions %dx%d", width, height))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return NewError(op, s.id, ErrSurfaceNotFound, errSurfaceDestroyed)
	}
	if width == s.width && height == s.height {
		return nil
	}
	s.width, s.height = width, height
	s.front = image.NewNRGBA(image.Rect(0, 0, width, height))
	s.back = nil
	Logger().Debug("surface resized", "surface", s.id, "width", width, "height", height)
	return nil
}

// Destroy releases the surface's pixel buffers. Renderers bound to it fail
// on their next frame. Destroy is idempotent.
func (s *Surface) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.destroyed = true
	s.front = nil
	s.back = nil
}

// Destroyed reports whether Destroy has been called.
func (s *Surface) Destroyed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.destroyed
}

// Acquire binds the surface for exclusive use by one graphics context.
// It fails with ErrContextUnavailable if the surface is already bound.
func (s *Surface) Acquire() error {
	const op = "acquire"
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.destroyed:
		return NewError(op, s.id, ErrSurfaceNotFound, errSurfaceDestroyed)
	case s.bound:
		return NewError(op, s.id, ErrContextUnavailable, errors.New("surface already bound to another context"))
	}
	s.bound = true
	return nil
}

// Release undoes a successful Acquire.
func (s *Surface) Release() {
	s.mu.Lock()
	s.bound = false
	s.mu.Unlock()
}

// Bound reports whether the surface is bound to a graphics context.
func (s *Surface) Bound() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bound
}

// Present calls fn to write a width x height frame and makes it the
// surface's visible frame if fn succeeds. On any failure the previously
// presented frame is kept. Present fails if the surface was destroyed or
// no longer has the given dimensions.
func (s *Surface) Present(width, height int, fn func(dst draw.Image) error) error {
	const op = "present"
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.destroyed:
		return NewError(op, s.id, ErrDrawFailed, errSurfaceDestroyed)
	case width != s.width || height != s.height:
		return NewError(op, s.id, ErrDrawFailed, fmt.Errorf("frame is %dx%d but surface is now %dx%d", width, height, s.width, s.height))
	}
	if s.back == nil || s.back.Rect != s.front.Rect {
		s.back = image.NewNRGBA(s.front.Rect)
	}
	if err := fn(s.back); err != nil {
		return NewError(op, s.id, ErrDrawFailed, err)
	}
	s.front, s.back = s.back, s.front
	return nil
}

// Image returns a copy of the last presented frame.
// A destroyed surface returns an empty image.
func (s *Surface) Image() *image.NRGBA {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.front == nil {
		return image.NewNRGBA(image.Rectangle{})
	}
	img := image.NewNRGBA(s.front.Rect)
	copy(img.Pix, s.front.Pix)
	return img
}

// At samples the last presented frame.
func (s *Surface) At(x, y int) color.NRGBA {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.front == nil {
		return color.NRGBA{}
	}
	return s.front.NRGBAAt(x, y)
}

var errSurfaceDestroyed = errors.New("surface destroyed")

// Display is a registry of named surfaces. It is safe for concurrent use.
type Display struct {
	mu       sync.Mutex
	surfaces map[string]*Surface
}

// NewDisplay returns an empty display.
func NewDisplay() *Display {
	return &Display{surfaces: make(map[string]*Surface)}
}

// CreateSurface adds a width x height surface named id to the display.
func (d *Display) CreateSurface(id string, width, height int) (*Surface, error) {
	const op = "create surface"
	switch {
	case id == "":
		return nil, NewError(op, id, ErrInvalidParameter, errors.New("empty surface identifier"))
	case width <= 0 || height <= 0:
		return nil, NewError(op, id, ErrInvalidParameter, fmt.Errorf("bad dimensions %dx%d", width, height))
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.surfaces[id]; ok {
		return nil, NewError(op, id, ErrInvalidParameter, errors.New("surface identifier already in use"))
	}
	s := newSurface(id, width, height)
	d.surfaces[id] = s
	Logger().Debug("surface created", "surface", id, "width", width, "height", height)
	return s, nil
}

// Surface returns the surface named id.
func (d *Display) Surface(id string) (*Surface, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	s, ok := d.surfaces[id]
	return s, ok
}

// Remove destroys the surface named id and removes it from the display.
// It reports whether the surface existed.
func (d *Display) Remove(id string) bool {
	d.mu.Lock()
	s, ok := d.surfaces[id]
	delete(d.surfaces, id)
	d.mu.Unlock()
	if ok {
		s.Destroy()
		Logger().Debug("surface removed", "surface", id)
	}
	return ok
}

// IDs returns the sorted identifiers of all surfaces on the display.
func (d *Display) IDs() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	ids := make([]string, 0, len(d.surfaces))
	for id := range d.surfaces {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
