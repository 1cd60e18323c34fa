// Package raster implements the default shapegl backend, a software
// triangle rasterizer built on fauxgl. Frames can be supersampled and are
// then downsampled with bilinear filtering when presented.
package raster

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	"math"

	"github.com/fogleman/fauxgl"
	"github.com/nfnt/resize"
	"github.com/soypat/shapegl"
	xdraw "golang.org/x/image/draw"
)

// Name is the name the backend is registered under.
const Name = "raster"

// MaxSupersample is the largest supported supersampling factor.
const MaxSupersample = 4

func init() {
	shapegl.Register(Backend{})
}

// Options configures raster contexts. The zero value is valid.
type Options struct {
	// Supersample renders at Supersample times the surface resolution on
	// each axis. 0 and 1 disable supersampling.
	Supersample int
}

// Backend creates raster contexts.
type Backend struct{}

func (Backend) Name() string { return Name }

// NewContext returns a *Context sized to s. opts may be nil, Options or *Options.
func (Backend) NewContext(s *shapegl.Surface, opts any) (shapegl.Context, error) {
	var o Options
	switch v := opts.(type) {
	case nil:
	case Options:
		o = v
	case *Options:
		if v != nil {
			o = *v
		}
	default:
		return nil, fmt.Errorf("raster: unsupported options type %T", opts)
	}
	if o.Supersample == 0 {
		o.Supersample = 1
	}
	if o.Supersample < 1 || o.Supersample > MaxSupersample {
		return nil, fmt.Errorf("raster: supersample factor %d outside [1, %d]", o.Supersample, MaxSupersample)
	}
	c := &Context{ss: o.Supersample}
	w, h := s.Size()
	c.alloc(w, h)
	shapegl.Logger().Info("raster context created", "surface", s.ID(), "width", w, "height", h, "supersample", c.ss)
	return c, nil
}

// Context is a software graphics context.
type Context struct {
	ss     int // supersample factor.
	width  int
	height int
	fctx   *fauxgl.Context
}

var errClosed = errors.New("raster: context closed")

func (c *Context) alloc(width, height int) {
	fctx := fauxgl.NewContext(width*c.ss, height*c.ss)
	// Flat 2D geometry: no depth test, both windings visible.
	fctx.Cull = fauxgl.CullNone
	fctx.ReadDepth = false
	fctx.WriteDepth = false
	fctx.AlphaBlend = false
	fctx.Shader = vertexColorShader{}
	c.fctx = fctx
	c.width, c.height = width, height
}

// Viewport implements shapegl.Context.
func (c *Context) Viewport(width, height int) error {
	if c.fctx == nil {
		return errClosed
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("raster: bad viewport %dx%d", width, height)
	}
	if width != c.width || height != c.height {
		shapegl.Logger().Debug("raster viewport reallocated", "width", width, "height", height)
		c.alloc(width, height)
	}
	return nil
}

// Clear implements shapegl.Context.
func (c *Context) Clear(col shapegl.Color) error {
	if c.fctx == nil {
		return errClosed
	}
	c.fctx.ClearColorBufferWith(fauxglColor(col))
	return nil
}

// Draw implements shapegl.Context.
func (c *Context) Draw(dc shapegl.DrawCall) error {
	if c.fctx == nil {
		return errClosed
	}
	if err := dc.Validate(); err != nil {
		return err
	}
	tris := dc.Triangles()
	triangles := make([]*fauxgl.Triangle, len(tris))
	for i, t := range tris {
		triangles[i] = fauxgl.NewTriangle(
			fauxglVertex(dc.Vertices[t[0]]),
			fauxglVertex(dc.Vertices[t[1]]),
			fauxglVertex(dc.Vertices[t[2]]),
		)
	}
	c.fctx.DrawTriangles(triangles)
	return nil
}

// Present implements shapegl.Context.
func (c *Context) Present(dst draw.Image) error {
	if c.fctx == nil {
		return errClosed
	}
	if b := dst.Bounds(); b.Dx() != c.width || b.Dy() != c.height {
		return fmt.Errorf("raster: present target %dx%d does not match viewport %dx%d", b.Dx(), b.Dy(), c.width, c.height)
	}
	img := c.fctx.Image()
	if c.ss > 1 {
		// downsample image for antialiasing
		img = resize.Resize(uint(c.width), uint(c.height), img, resize.Bilinear)
	}
	xdraw.Copy(dst, dst.Bounds().Min, img, img.Bounds(), xdraw.Src, nil)
	return nil
}

// Close implements shapegl.Context. It is idempotent.
func (c *Context) Close() error {
	if c.fctx != nil {
		shapegl.Logger().Info("raster context closed")
	}
	c.fctx = nil
	return nil
}

// Image returns the context's color buffer at render resolution.
func (c *Context) Image() image.Image {
	if c.fctx == nil {
		return nil
	}
	return c.fctx.Image()
}

// vertexColorShader takes positions already in normalized device
// coordinates and fills fragments with the interpolated vertex color.
type vertexColorShader struct{}

func (vertexColorShader) Vertex(v fauxgl.Vertex) fauxgl.Vertex {
	v.Output = fauxgl.VectorW{X: v.Position.X, Y: v.Position.Y, Z: v.Position.Z, W: 1}
	return v
}

func (vertexColorShader) Fragment(v fauxgl.Vertex) fauxgl.Color {
	return fauxgl.Color{R: snap(v.Color.R), G: snap(v.Color.G), B: snap(v.Color.B), A: 1}
}

func fauxglVertex(v shapegl.Vertex) fauxgl.Vertex {
	return fauxgl.Vertex{
		Position: fauxgl.V(float64(v.Pos.X), float64(v.Pos.Y), 0),
		Color:    fauxgl.Color{R: float64(v.Color.R), G: float64(v.Color.G), B: float64(v.Color.B), A: 1},
	}
}

func fauxglColor(c shapegl.Color) fauxgl.Color {
	return fauxgl.Color{R: snap(float64(c.R)), G: snap(float64(c.G)), B: snap(float64(c.B)), A: 1}
}

// snap moves a normalized channel onto the nearest 8-bit level, offset a
// quarter step upwards so converting back to 8 bits gives that level
// whether the conversion truncates or rounds.
func snap(v float64) float64 {
	level := math.Round(math.Max(0, math.Min(1, v)) * 255)
	return math.Min(1, (level+0.25)/255)
}
