// Package render draws regular polygons onto named shapegl surfaces.
//
// A Renderer is bound to one surface for its whole life. Every call to
// Render clears the surface to a background color and fills a regular
// polygon centered on it with a shape color:
//
//	d := shapegl.NewDisplay()
//	d.CreateSurface("canvas", 200, 200)
//	r, err := render.New(d, "canvas", 200, 200)
//	if err != nil {
//		return err
//	}
//	defer r.Close()
//	err = r.Render(shapegl.Red, shapegl.Black, 6)
package render

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/soypat/shapegl"
	_ "github.com/soypat/shapegl/raster" // Default backend.
)

// DefaultBackend is the backend used when none is selected.
const DefaultBackend = "raster"

// Params are the inputs of one frame.
type Params struct {
	Shape       shapegl.RGB
	Background  shapegl.RGB
	VertexCount int
}

// DefaultParams returns a white triangle on a black background.
func DefaultParams() Params {
	return Params{
		Shape:       shapegl.White,
		Background:  shapegl.Black,
		VertexCount: 3,
	}
}

// Option configures a Renderer.
type Option func(*config)

type config struct {
	backend     string
	backendOpts any
	radius      float64
	logger      *slog.Logger
}

// WithBackend selects the backend registered under name.
func WithBackend(name string) Option {
	return func(c *config) { c.backend = name }
}

// WithBackendOptions passes backend specific options to the backend,
// for example raster.Options.
func WithBackendOptions(opts any) Option {
	return func(c *config) { c.backendOpts = opts }
}

// WithRadius sets the polygon radius in normalized device coordinates,
// where 1 reaches the nearest surface edge. The default is shapegl.DefaultRadius.
func WithRadius(r float64) Option {
	return func(c *config) { c.radius = r }
}

// WithLogger sets the logger of the renderer. By default the renderer
// logs to shapegl.Logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) { c.logger = l }
}

// Renderer owns a graphics context bound to one surface.
// It is not safe for concurrent use.
type Renderer struct {
	id      string
	width   int
	height  int
	backend string
	radius  float64
	surface *shapegl.Surface
	ctx     shapegl.Context
	log     *slog.Logger
}

// New binds a renderer to the surface named surfaceID on display.
// width and height are the dimensions the caller expects the surface to
// have; each frame is drawn at the surface's size at that time.
//
// New fails with shapegl.ErrSurfaceNotFound if no such surface exists and
// with shapegl.ErrContextUnavailable if the backend is unknown, cannot
// create a context or the surface is bound to another Renderer.
// Nothing is drawn until Render is called.
func New(display *shapegl.Display, surfaceID string, width, height int, opts ...Option) (*Renderer, error) {
	const op = "construct"
	cfg := config{
		backend: DefaultBackend,
		radius:  shapegl.DefaultRadius,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = shapegl.Logger()
	}
	switch {
	case display == nil:
		return nil, shapegl.NewError(op, surfaceID, shapegl.ErrInvalidParameter, errors.New("nil display"))
	case width <= 0 || height <= 0:
		return nil, shapegl.NewError(op, surfaceID, shapegl.ErrInvalidParameter, fmt.Errorf("bad dimensions %dx%d", width, height))
	case !(cfg.radius > 0) || math.IsInf(cfg.radius, 0):
		return nil, shapegl.NewError(op, surfaceID, shapegl.ErrInvalidParameter, fmt.Errorf("bad radius %g", cfg.radius))
	}
	surface, ok := display.Surface(surfaceID)
	if !ok {
		return nil, shapegl.NewError(op, surfaceID, shapegl.ErrSurfaceNotFound, nil)
	}
	backend, ok := shapegl.Lookup(cfg.backend)
	if !ok {
		return nil, shapegl.NewError(op, surfaceID, shapegl.ErrContextUnavailable, fmt.Errorf("backend %q not registered", cfg.backend))
	}
	if err := surface.Acquire(); err != nil {
		return nil, shapegl.NewError(op, surfaceID, shapegl.ErrContextUnavailable, err)
	}
	ctx, err := backend.NewContext(surface, cfg.backendOpts)
	if err != nil {
		surface.Release()
		return nil, shapegl.NewError(op, surfaceID, shapegl.ErrContextUnavailable, err)
	}
	r := &Renderer{
		id:      surfaceID,
		width:   width,
		height:  height,
		backend: cfg.backend,
		radius:  cfg.radius,
		surface: surface,
		ctx:     ctx,
		log:     cfg.logger.With("surface", surfaceID, "backend", cfg.backend),
	}
	r.log.Info("renderer bound")
	return r, nil
}

// ID returns the identifier of the surface the renderer is bound to.
func (r *Renderer) ID() string { return r.id }

// Size returns the dimensions given to New.
func (r *Renderer) Size() (width, height int) { return r.width, r.height }

// Backend returns the name of the renderer's backend.
func (r *Renderer) Backend() string { return r.backend }

// Render clears the surface to background and fills a regular polygon of
// vertexCount vertices with shape. The frame becomes visible only if every
// stage succeeds; otherwise the surface keeps its previous frame.
//
// A vertexCount below 3 fails with shapegl.ErrInvalidParameter before
// anything is cleared or drawn. Render fails with shapegl.ErrDrawFailed if
// the renderer was closed, the surface destroyed or the backend fails.
func (r *Renderer) Render(shape, background shapegl.RGB, vertexCount int) error {
	const op = "render"
	poly := shapegl.Polygon{Radius: r.radius, N: vertexCount}
	if err := poly.Validate(); err != nil {
		return shapegl.NewError(op, r.id, shapegl.ErrInvalidParameter, errors.Unwrap(err))
	}
	if r.ctx == nil {
		return shapegl.NewError(op, r.id, shapegl.ErrDrawFailed, errors.New("renderer closed"))
	}
	if r.surface.Destroyed() {
		return shapegl.NewError(op, r.id, shapegl.ErrDrawFailed, errors.New("surface destroyed"))
	}
	dc, err := shapegl.NewDrawCall(poly, shape.Normalize())
	if err != nil {
		return shapegl.NewError(op, r.id, shapegl.ErrInvalidParameter, errors.Unwrap(err))
	}
	w, h := r.surface.Size()
	r.log.Debug("render", "shape", shape, "background", background, "vertices", vertexCount, "width", w, "height", h)
	if err := r.frame(w, h, background.Normalize(), dc); err != nil {
		r.log.Warn("frame failed", "err", err)
		return shapegl.NewError(op, r.id, shapegl.ErrDrawFailed, err)
	}
	return nil
}

func (r *Renderer) frame(w, h int, background shapegl.Color, dc shapegl.DrawCall) error {
	if err := r.ctx.Viewport(w, h); err != nil {
		return err
	}
	if err := r.ctx.Clear(background); err != nil {
		return err
	}
	if err := r.ctx.Draw(dc); err != nil {
		return err
	}
	return r.surface.Present(w, h, r.ctx.Present)
}

// RenderParams is Render taking its inputs from p.
func (r *Renderer) RenderParams(p Params) error {
	return r.Render(p.Shape, p.Background, p.VertexCount)
}

// Close releases the graphics context and unbinds the surface so another
// Renderer may bind it. Close is idempotent.
func (r *Renderer) Close() error {
	if r.ctx == nil {
		return nil
	}
	err := r.ctx.Close()
	r.ctx = nil
	r.surface.Release()
	r.log.Info("renderer closed")
	return err
}
