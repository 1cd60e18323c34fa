package render_test

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"os"
	"testing"

	"github.com/soypat/shapegl"
	"github.com/soypat/shapegl/internal/d2"
	"github.com/soypat/shapegl/raster"
	"github.com/soypat/shapegl/render"
	"gonum.org/v1/plot/cmpimg"
)

const (
	// imgDelta a normalized imgDelta parameter to describe how close the matching
	// should be performed (imgDelta=0: perfect match, imgDelta=1, loose match)
	imgDelta = 0
	canvasID = "canvas"
)

// recorder is a backend that records the stages it is asked to perform.
type recorder struct {
	contexts int
	calls    []string
	draws    []shapegl.DrawCall
	failDraw bool
}

var rec = &recorder{}

func init() {
	shapegl.Register(rec)
}

func (r *recorder) reset() { *r = recorder{} }

func (r *recorder) Name() string { return "recorder" }

func (r *recorder) NewContext(s *shapegl.Surface, opts any) (shapegl.Context, error) {
	if opts != nil {
		return nil, errors.New("recorder takes no options")
	}
	r.contexts++
	return &recordingContext{rec: r}, nil
}

type recordingContext struct {
	rec   *recorder
	clear shapegl.Color
}

func (c *recordingContext) Viewport(w, h int) error {
	c.rec.calls = append(c.rec.calls, "viewport")
	return nil
}

func (c *recordingContext) Clear(col shapegl.Color) error {
	c.rec.calls = append(c.rec.calls, "clear")
	c.clear = col
	return nil
}

func (c *recordingContext) Draw(dc shapegl.DrawCall) error {
	c.rec.calls = append(c.rec.calls, "draw")
	if c.rec.failDraw {
		return errors.New("context lost")
	}
	c.rec.draws = append(c.rec.draws, dc)
	return nil
}

func (c *recordingContext) Present(dst draw.Image) error {
	c.rec.calls = append(c.rec.calls, "present")
	draw.Draw(dst, dst.Bounds(), image.NewUniform(c.clear.Quantize()), image.Point{}, draw.Src)
	return nil
}

func (c *recordingContext) Close() error {
	c.rec.calls = append(c.rec.calls, "close")
	return nil
}

func newCanvas(t testing.TB, w, h int) (*shapegl.Display, *shapegl.Surface) {
	t.Helper()
	d := shapegl.NewDisplay()
	s, err := d.CreateSurface(canvasID, w, h)
	if err != nil {
		t.Fatal(err)
	}
	return d, s
}

func newRenderer(t testing.TB, d *shapegl.Display, w, h int, opts ...render.Option) *render.Renderer {
	t.Helper()
	r, err := render.New(d, canvasID, w, h, opts...)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

func TestRenderVertexCounts(t *testing.T) {
	rec.reset()
	d, _ := newCanvas(t, 64, 64)
	r := newRenderer(t, d, 64, 64, render.WithBackend("recorder"))
	for _, n := range []int{3, 4, 5, 6, 7, 12, 100, 1000} {
		rec.draws = nil
		rec.calls = nil
		err := r.Render(shapegl.Red, shapegl.Black, n)
		if err != nil {
			t.Fatalf("n=%d: %v", n, err)
		}
		if len(rec.draws) != 1 {
			t.Fatalf("n=%d: got %d draw calls, want 1", n, len(rec.draws))
		}
		want := []string{"viewport", "clear", "draw", "present"}
		if !equalStrings(rec.calls, want) {
			t.Errorf("n=%d: stages %v, want %v", n, rec.calls, want)
		}
		dc := rec.draws[0]
		if len(dc.Vertices) != n {
			t.Errorf("n=%d: draw call has %d vertices", n, len(dc.Vertices))
		}
		if distinct := d2.Set(dc.Positions()).Distinct(1e-6); distinct != n {
			t.Errorf("n=%d: got %d distinct positions", n, distinct)
		}
		if len(dc.Triangles()) == 0 {
			t.Errorf("n=%d: empty draw call", n)
		}
		wantTopology := shapegl.TriangleFan
		if n == 3 {
			wantTopology = shapegl.TriangleList
		}
		if dc.Topology != wantTopology {
			t.Errorf("n=%d: topology %v, want %v", n, dc.Topology, wantTopology)
		}
		for _, v := range dc.Vertices {
			if v.Color != shapegl.Red.Normalize() {
				t.Fatalf("n=%d: vertex color %v, want normalized red", n, v.Color)
			}
		}
	}
}

func TestRenderInvalidVertexCount(t *testing.T) {
	rec.reset()
	d, s := newCanvas(t, 16, 16)
	r := newRenderer(t, d, 16, 16, render.WithBackend("recorder"))
	err := r.Render(shapegl.White, shapegl.Blue, 3)
	if err != nil {
		t.Fatal(err)
	}
	before := s.Image()
	rec.calls = nil
	for _, n := range []int{2, 1, 0, -1, -300} {
		err := r.Render(shapegl.Red, shapegl.Green, n)
		if !errors.Is(err, shapegl.ErrInvalidParameter) {
			t.Errorf("n=%d: got error %v, want ErrInvalidParameter", n, err)
		}
	}
	if len(rec.calls) != 0 {
		t.Errorf("invalid vertex counts reached the backend: %v", rec.calls)
	}
	if !bytes.Equal(before.Pix, s.Image().Pix) {
		t.Error("surface changed after invalid render")
	}
}

func TestRenderIdempotent(t *testing.T) {
	for _, ss := range []int{1, 2} {
		d, s := newCanvas(t, 120, 90)
		r := newRenderer(t, d, 120, 90, render.WithBackendOptions(raster.Options{Supersample: ss}))
		p := render.Params{Shape: shapegl.RGB{R: 200, G: 30, B: 90}, Background: shapegl.RGB{R: 10, G: 20, B: 30}, VertexCount: 7}
		if err := r.RenderParams(p); err != nil {
			t.Fatal(err)
		}
		first := s.Image()
		var png1 bytes.Buffer
		if err := render.WritePNG(&png1, s); err != nil {
			t.Fatal(err)
		}
		if err := r.RenderParams(p); err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(first.Pix, s.Image().Pix) {
			t.Errorf("supersample=%d: consecutive frames differ", ss)
		}
		var png2 bytes.Buffer
		if err := render.WritePNG(&png2, s); err != nil {
			t.Fatal(err)
		}
		equal, err := cmpimg.EqualApprox("png", png1.Bytes(), png2.Bytes(), imgDelta)
		if err != nil {
			t.Fatal(err)
		}
		if !equal {
			t.Errorf("supersample=%d: PNG encodings of consecutive frames differ", ss)
		}
	}
}

func TestRenderColorRoundTrip(t *testing.T) {
	const w, h = 100, 80
	for _, test := range []struct {
		shape, background shapegl.RGB
		n                 int
	}{
		{shape: shapegl.Red, background: shapegl.Black, n: 3},
		{shape: shapegl.Red, background: shapegl.White, n: 8},
		{shape: shapegl.RGB{R: 1, G: 128, B: 254}, background: shapegl.RGB{R: 77, G: 77, B: 77}, n: 5},
	} {
		d, s := newCanvas(t, w, h)
		r := newRenderer(t, d, w, h)
		err := r.Render(test.shape, test.background, test.n)
		if err != nil {
			t.Fatal(err)
		}
		if got := s.At(w/2, h/2); !closeRGB(got, test.shape, 1) {
			t.Errorf("interior pixel %v, want %v", got, test.shape)
		}
		if got := s.At(0, 0); !closeRGB(got, test.background, 1) {
			t.Errorf("corner pixel %v, want %v", got, test.background)
		}
	}
}

func TestRenderTriangleOrientation(t *testing.T) {
	// The first vertex points up: the top center of the polygon's bounding
	// box is filled while its top corners are not.
	const size = 200
	d, s := newCanvas(t, size, size)
	r := newRenderer(t, d, size, size)
	if err := r.Render(shapegl.Red, shapegl.Black, 3); err != nil {
		t.Fatal(err)
	}
	toPixel := d2.NDCToPixel(size, size)
	bounds := d2.Box(shapegl.RegularPolygon(3).Bounds())
	top := toPixel.ApplyPos(bounds.Max)
	nearApex := s.At(size/2, int(top.Y)+10)
	if !closeRGB(nearApex, shapegl.Red, 1) {
		t.Errorf("pixel below apex: got %v, want red", nearApex)
	}
	topRight := s.At(int(top.X)-2, int(top.Y)+2)
	if !closeRGB(topRight, shapegl.Black, 1) {
		t.Errorf("top right corner of bounds: got %v, want black", topRight)
	}
}

func TestNewMissingSurface(t *testing.T) {
	rec.reset()
	d, _ := newCanvas(t, 10, 10)
	_, err := render.New(d, "missing-canvas", 10, 10, render.WithBackend("recorder"))
	if !errors.Is(err, shapegl.ErrSurfaceNotFound) {
		t.Fatalf("got %v, want ErrSurfaceNotFound", err)
	}
	if rec.contexts != 0 {
		t.Errorf("%d contexts allocated for a missing surface", rec.contexts)
	}
}

func TestNewInvalid(t *testing.T) {
	d, _ := newCanvas(t, 10, 10)
	for _, test := range []struct {
		name string
		w, h int
		opts []render.Option
		kind error
	}{
		{name: "unknown backend", w: 10, h: 10, opts: []render.Option{render.WithBackend("vulkan")}, kind: shapegl.ErrContextUnavailable},
		{name: "bad backend options", w: 10, h: 10, opts: []render.Option{render.WithBackendOptions(raster.Options{Supersample: 99})}, kind: shapegl.ErrContextUnavailable},
		{name: "zero width", w: 0, h: 10, kind: shapegl.ErrInvalidParameter},
		{name: "negative radius", w: 10, h: 10, opts: []render.Option{render.WithRadius(-1)}, kind: shapegl.ErrInvalidParameter},
	} {
		_, err := render.New(d, canvasID, test.w, test.h, test.opts...)
		if !errors.Is(err, test.kind) {
			t.Errorf("%s: got %v, want %v", test.name, err, test.kind)
		}
	}
	// Failed constructions must not leave the surface bound.
	s, _ := d.Surface(canvasID)
	if s.Bound() {
		t.Error("surface left bound after failed constructions")
	}
}

func TestRenderAfterResize(t *testing.T) {
	d, s := newCanvas(t, 100, 100)
	r := newRenderer(t, d, 100, 100)
	p := render.Params{Shape: shapegl.Red, Background: shapegl.Blue, VertexCount: 6}
	if err := r.RenderParams(p); err != nil {
		t.Fatal(err)
	}
	if err := s.Resize(60, 40); err != nil {
		t.Fatal(err)
	}
	if err := r.RenderParams(p); err != nil {
		t.Fatal(err)
	}
	got := s.Image()
	if b := got.Bounds(); b.Dx() != 60 || b.Dy() != 40 {
		t.Fatalf("frame bounds %v after resize, want 60x40", b)
	}
	if !closeRGB(got.NRGBAAt(30, 20), shapegl.Red, 1) {
		t.Errorf("center after resize: got %v, want red", got.NRGBAAt(30, 20))
	}

	// Output must match a renderer constructed at the new size.
	d2nd, fresh := newCanvas(t, 60, 40)
	r2nd := newRenderer(t, d2nd, 60, 40)
	if err := r2nd.RenderParams(p); err != nil {
		t.Fatal(err)
	}
	var b1, b2 bytes.Buffer
	if err := render.WritePNG(&b1, s); err != nil {
		t.Fatal(err)
	}
	if err := render.WritePNG(&b2, fresh); err != nil {
		t.Fatal(err)
	}
	equal, err := cmpimg.EqualApprox("png", b1.Bytes(), b2.Bytes(), imgDelta)
	if err != nil {
		t.Fatal(err)
	}
	if !equal {
		t.Error("resized output differs from a renderer built at the new size")
	}
}

func TestExclusiveBinding(t *testing.T) {
	d, s := newCanvas(t, 10, 10)
	r, err := render.New(d, canvasID, 10, 10)
	if err != nil {
		t.Fatal(err)
	}
	_, err = render.New(d, canvasID, 10, 10)
	if !errors.Is(err, shapegl.ErrContextUnavailable) {
		t.Fatalf("second renderer on bound surface: got %v, want ErrContextUnavailable", err)
	}
	if err := r.Close(); err != nil {
		t.Fatal(err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if s.Bound() {
		t.Fatal("surface still bound after Close")
	}
	err = r.Render(shapegl.Red, shapegl.Black, 3)
	if !errors.Is(err, shapegl.ErrDrawFailed) {
		t.Errorf("render after close: got %v, want ErrDrawFailed", err)
	}
	r2 := newRenderer(t, d, 10, 10)
	if err := r2.Render(shapegl.Red, shapegl.Black, 3); err != nil {
		t.Error(err)
	}
}

func TestRenderFailureKeepsFrame(t *testing.T) {
	rec.reset()
	d, s := newCanvas(t, 8, 8)
	r := newRenderer(t, d, 8, 8, render.WithBackend("recorder"))
	if err := r.Render(shapegl.White, shapegl.Green, 4); err != nil {
		t.Fatal(err)
	}
	before := s.Image()
	rec.failDraw = true
	err := r.Render(shapegl.White, shapegl.Red, 4)
	if !errors.Is(err, shapegl.ErrDrawFailed) {
		t.Fatalf("got %v, want ErrDrawFailed", err)
	}
	if !bytes.Equal(before.Pix, s.Image().Pix) {
		t.Error("failed frame replaced the presented frame")
	}
	rec.failDraw = false
	if err := r.Render(shapegl.White, shapegl.Red, 4); err != nil {
		t.Fatalf("render after recovered backend: %v", err)
	}
}

func TestRenderSurfaceRemoved(t *testing.T) {
	d, _ := newCanvas(t, 10, 10)
	r := newRenderer(t, d, 10, 10)
	if err := r.Render(shapegl.Red, shapegl.Black, 3); err != nil {
		t.Fatal(err)
	}
	d.Remove(canvasID)
	err := r.Render(shapegl.Red, shapegl.Black, 3)
	if !errors.Is(err, shapegl.ErrDrawFailed) {
		t.Errorf("got %v, want ErrDrawFailed", err)
	}
}

func TestCreatePNG(t *testing.T) {
	d, s := newCanvas(t, 32, 32)
	r := newRenderer(t, d, 32, 32)
	if err := r.Render(shapegl.Red, shapegl.White, 5); err != nil {
		t.Fatal(err)
	}
	path := t.TempDir() + "/frame.png"
	if err := render.CreatePNG(path, s); err != nil {
		t.Fatal(err)
	}
	var want bytes.Buffer
	if err := render.WritePNG(&want, s); err != nil {
		t.Fatal(err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	equal, err := cmpimg.EqualApprox("png", got, want.Bytes(), imgDelta)
	if err != nil {
		t.Fatal(err)
	}
	if !equal {
		t.Error("CreatePNG and WritePNG images differ")
	}
}

func closeRGB(got color.NRGBA, want shapegl.RGB, tol int) bool {
	return absDiff(got.R, want.R) <= tol && absDiff(got.G, want.G) <= tol &&
		absDiff(got.B, want.B) <= tol && got.A == 255
}

func absDiff(a, b uint8) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
