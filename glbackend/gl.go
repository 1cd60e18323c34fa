//go:build gl

// Package glbackend implements a hardware accelerated shapegl backend on
// OpenGL 3.3 core. Frames are rendered into an offscreen framebuffer and
// read back into the surface on present.
//
// The package is only built with the gl build tag since it needs cgo and
// a GL driver. OpenGL contexts are bound to the OS thread that created
// them, so a renderer using this backend must be used from one goroutine.
package glbackend

import (
	"fmt"
	"image"
	"image/draw"
	"runtime"
	"sync"

	"github.com/go-gl/gl/all-core/gl"
	"github.com/pkg/errors"
	"github.com/soypat/glgl/v4.6-core/glgl"
	"github.com/soypat/shapegl"
	xdraw "golang.org/x/image/draw"
)

// Name is the name the backend is registered under.
const Name = "gl"

func init() {
	shapegl.Register(Backend{})
}

// Only one window and GL context exist per process.
var (
	activeMu sync.Mutex
	active   bool
)

// Backend creates GL contexts. It takes no options.
type Backend struct{}

func (Backend) Name() string { return Name }

// NewContext opens the process' GL context. It fails if another
// renderer holds it.
func (Backend) NewContext(s *shapegl.Surface, opts any) (_ shapegl.Context, err error) {
	if opts != nil {
		return nil, errors.Errorf("gl: unexpected options %T", opts)
	}
	activeMu.Lock()
	defer activeMu.Unlock()
	if active {
		return nil, errors.New("gl: context already in use by another renderer")
	}
	runtime.LockOSThread()
	defer func() {
		if err != nil {
			runtime.UnlockOSThread()
		}
	}()
	w, h := s.Size()
	_, terminate, err := glgl.InitWithCurrentWindow33(glgl.WindowConfig{
		Title:   "shapegl",
		Version: [2]int{3, 3},
		Width:   w,
		Height:  h,
	})
	if err != nil {
		return nil, errors.Wrap(err, "gl: creating window")
	}
	if err := gl.Init(); err != nil {
		terminate()
		return nil, errors.Wrap(err, "gl: loading functions")
	}
	c := &Context{terminate: terminate}
	if err := c.init(); err != nil {
		c.release()
		return nil, err
	}
	if err := c.Viewport(w, h); err != nil {
		c.release()
		return nil, err
	}
	active = true
	shapegl.Logger().Info("gl context created", "surface", s.ID(), "width", w, "height", h,
		"renderer", gl.GoStr(gl.GetString(gl.RENDERER)))
	return c, nil
}

// Context is an OpenGL graphics context drawing into an offscreen framebuffer.
type Context struct {
	terminate func()
	program   *program
	vao, vbo  uint32

	fbo, rbo      uint32 // offscreen framebuffer and its color renderbuffer.
	width, height int32
	pixels        []byte

	closed bool
}

func (c *Context) init() (err error) {
	c.program, err = loadProgram(vertexShader, fragmentShader)
	if err != nil {
		return err
	}
	gl.GenVertexArrays(1, &c.vao)
	gl.GenBuffers(1, &c.vbo)
	gl.Disable(gl.DEPTH_TEST)
	gl.Disable(gl.CULL_FACE)
	gl.Disable(gl.BLEND)
	gl.Disable(gl.MULTISAMPLE)
	return checkError("init")
}

// Viewport implements shapegl.Context. The offscreen framebuffer
// is recreated when the size changes.
func (c *Context) Viewport(width, height int) error {
	if c.closed {
		return errClosed
	}
	w, h := int32(width), int32(height)
	if w != c.width || h != c.height || c.fbo == 0 {
		var maxSize int32
		gl.GetIntegerv(gl.MAX_RENDERBUFFER_SIZE, &maxSize)
		if w <= 0 || h <= 0 || w > maxSize || h > maxSize {
			return errors.Errorf("gl: viewport %dx%d outside renderbuffer limit %d", w, h, maxSize)
		}
		c.deleteFramebuffer()
		gl.GenFramebuffers(1, &c.fbo)
		gl.GenRenderbuffers(1, &c.rbo)
		gl.BindRenderbuffer(gl.RENDERBUFFER, c.rbo)
		gl.RenderbufferStorage(gl.RENDERBUFFER, gl.RGBA8, w, h)
		gl.BindRenderbuffer(gl.RENDERBUFFER, 0)
		gl.BindFramebuffer(gl.FRAMEBUFFER, c.fbo)
		gl.FramebufferRenderbuffer(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.RENDERBUFFER, c.rbo)
		status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER)
		if status != gl.FRAMEBUFFER_COMPLETE {
			return errors.Errorf("gl: incomplete framebuffer, status 0x%x", status)
		}
		c.width, c.height = w, h
		c.pixels = make([]byte, 4*width*height)
		shapegl.Logger().Debug("gl framebuffer reallocated", "width", width, "height", height)
	}
	gl.BindFramebuffer(gl.FRAMEBUFFER, c.fbo)
	gl.Viewport(0, 0, w, h)
	return checkError("viewport")
}

// Clear implements shapegl.Context.
func (c *Context) Clear(col shapegl.Color) error {
	if c.closed {
		return errClosed
	}
	gl.ClearColor(col.R, col.G, col.B, 1)
	gl.Clear(gl.COLOR_BUFFER_BIT)
	return checkError("clear")
}

// Draw implements shapegl.Context.
func (c *Context) Draw(dc shapegl.DrawCall) error {
	if c.closed {
		return errClosed
	}
	if err := dc.Validate(); err != nil {
		return err
	}
	mode := uint32(gl.TRIANGLES)
	if dc.Topology == shapegl.TriangleFan {
		mode = gl.TRIANGLE_FAN
	}
	data := packVertices(dc.Vertices)
	c.program.use()
	gl.BindVertexArray(c.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, c.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(data)*4, gl.Ptr(data), gl.STREAM_DRAW)
	gl.VertexAttribPointer(attribPosition, 2, gl.FLOAT, false, vertexStride, gl.PtrOffset(0))
	gl.EnableVertexAttribArray(attribPosition)
	gl.VertexAttribPointer(attribColor, 3, gl.FLOAT, false, vertexStride, gl.PtrOffset(2*4))
	gl.EnableVertexAttribArray(attribColor)
	gl.DrawArrays(mode, 0, int32(len(dc.Vertices)))
	gl.BindVertexArray(0)
	return checkError("draw")
}

// Present implements shapegl.Context. It waits for the GPU to finish the
// frame and reads it back, flipping rows since GL's origin is bottom left.
func (c *Context) Present(dst draw.Image) error {
	if c.closed {
		return errClosed
	}
	w, h := int(c.width), int(c.height)
	if b := dst.Bounds(); b.Dx() != w || b.Dy() != h {
		return fmt.Errorf("gl: present target %dx%d does not match viewport %dx%d", b.Dx(), b.Dy(), w, h)
	}
	gl.Finish()
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, c.fbo)
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, c.width, c.height, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(&c.pixels[0]))
	if err := checkError("read pixels"); err != nil {
		return err
	}
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	stride := 4 * w
	for y := 0; y < h; y++ {
		src := c.pixels[(h-1-y)*stride : (h-y)*stride]
		copy(img.Pix[y*img.Stride:y*img.Stride+stride], src)
	}
	xdraw.Copy(dst, dst.Bounds().Min, img, img.Bounds(), xdraw.Src, nil)
	return nil
}

// Close implements shapegl.Context. It destroys the window and frees the
// GL context for other renderers. It is idempotent.
func (c *Context) Close() error {
	if c.closed {
		return nil
	}
	activeMu.Lock()
	defer activeMu.Unlock()
	c.release()
	active = false
	runtime.UnlockOSThread()
	shapegl.Logger().Info("gl context closed")
	return nil
}

// release frees GL objects and terminates the window.
func (c *Context) release() {
	c.deleteFramebuffer()
	if c.vbo != 0 {
		gl.DeleteBuffers(1, &c.vbo)
	}
	if c.vao != 0 {
		gl.DeleteVertexArrays(1, &c.vao)
	}
	if c.program != nil {
		c.program.delete()
	}
	c.terminate()
	c.closed = true
}

func (c *Context) deleteFramebuffer() {
	if c.fbo != 0 {
		gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
		gl.DeleteFramebuffers(1, &c.fbo)
		c.fbo = 0
	}
	if c.rbo != 0 {
		gl.DeleteRenderbuffers(1, &c.rbo)
		c.rbo = 0
	}
}

var errClosed = errors.New("gl: context closed")

// checkError turns a pending GL error into a Go error. GL_CONTEXT_LOST is
// reported like any other error code.
func checkError(stage string) error {
	if code := gl.GetError(); code != gl.NO_ERROR {
		return errors.Errorf("gl: %s: error 0x%x", stage, code)
	}
	return nil
}
