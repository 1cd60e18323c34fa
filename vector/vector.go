// Package vector implements a shapegl backend that fills draw calls as
// anti-aliased paths with gogpu/gg.
package vector

import (
	"errors"
	"fmt"
	"image/draw"

	"github.com/gogpu/gg"
	"github.com/soypat/shapegl"
	"github.com/soypat/shapegl/internal/d2"
	xdraw "golang.org/x/image/draw"
	"gonum.org/v1/gonum/spatial/r2"
)

// Name is the name the backend is registered under.
const Name = "vector"

func init() {
	shapegl.Register(Backend{})
}

// Backend creates vector contexts. It takes no options.
type Backend struct{}

func (Backend) Name() string { return Name }

// NewContext returns a *Context sized to s.
func (Backend) NewContext(s *shapegl.Surface, opts any) (shapegl.Context, error) {
	if opts != nil {
		return nil, fmt.Errorf("vector: unexpected options %T", opts)
	}
	gg.SetLogger(shapegl.Logger())
	w, h := s.Size()
	c := &Context{
		dc:      gg.NewContext(w, h),
		width:   w,
		height:  h,
		toPixel: d2.NDCToPixel(w, h),
	}
	shapegl.Logger().Info("vector context created", "surface", s.ID(), "width", w, "height", h)
	return c, nil
}

// Context draws with a gg.Context.
type Context struct {
	dc      *gg.Context
	width   int
	height  int
	toPixel d2.Transform
}

var errClosed = errors.New("vector: context closed")

// Viewport implements shapegl.Context.
func (c *Context) Viewport(width, height int) error {
	if c.dc == nil {
		return errClosed
	}
	if width == c.width && height == c.height {
		return nil
	}
	if err := c.dc.Resize(width, height); err != nil {
		return fmt.Errorf("vector: %w", err)
	}
	shapegl.Logger().Debug("vector viewport reallocated", "width", width, "height", height)
	c.width, c.height = width, height
	c.toPixel = d2.NDCToPixel(width, height)
	return nil
}

// Clear implements shapegl.Context.
func (c *Context) Clear(col shapegl.Color) error {
	if c.dc == nil {
		return errClosed
	}
	c.dc.ClearWithColor(gg.RGB(float64(col.R), float64(col.G), float64(col.B)))
	return nil
}

// Draw implements shapegl.Context. All triangles are added to one path and
// filled at once, so edges shared between triangles leave no seams. The
// path is filled with the color of the first vertex.
func (c *Context) Draw(dc shapegl.DrawCall) error {
	if c.dc == nil {
		return errClosed
	}
	if err := dc.Validate(); err != nil {
		return err
	}
	pos := d2.Set(dc.Positions())
	px := c.toPixel.ApplySet(pos)
	c.dc.ClearPath()
	for _, t := range dc.Triangles() {
		c.moveTo(px[t[0]])
		c.lineTo(px[t[1]])
		c.lineTo(px[t[2]])
		c.dc.ClosePath()
	}
	col := dc.Vertices[0].Color
	c.dc.SetRGB(float64(col.R), float64(col.G), float64(col.B))
	if err := c.dc.Fill(); err != nil {
		return fmt.Errorf("vector: fill: %w", err)
	}
	return nil
}

func (c *Context) moveTo(p r2.Vec) { c.dc.MoveTo(p.X, p.Y) }
func (c *Context) lineTo(p r2.Vec) { c.dc.LineTo(p.X, p.Y) }

// Present implements shapegl.Context.
func (c *Context) Present(dst draw.Image) error {
	if c.dc == nil {
		return errClosed
	}
	if b := dst.Bounds(); b.Dx() != c.width || b.Dy() != c.height {
		return fmt.Errorf("vector: present target %dx%d does not match viewport %dx%d", b.Dx(), b.Dy(), c.width, c.height)
	}
	if err := c.dc.FlushGPU(); err != nil {
		return fmt.Errorf("vector: flush: %w", err)
	}
	img := c.dc.Image()
	xdraw.Copy(dst, dst.Bounds().Min, img, img.Bounds(), xdraw.Src, nil)
	return nil
}

// Close implements shapegl.Context. It is idempotent.
func (c *Context) Close() error {
	if c.dc == nil {
		return nil
	}
	err := c.dc.Close()
	c.dc = nil
	shapegl.Logger().Info("vector context closed")
	return err
}
