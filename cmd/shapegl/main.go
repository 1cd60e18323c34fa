// Command shapegl renders a regular polygon onto an offscreen surface and
// writes it as PNG. After the first frame it reads control changes from
// standard input, one per line, and renders again after each one:
//
//	shape-red 255
//	background-blue 40
//	vertex-count 6
//	resize 800 600
//
// Usage:
//
//	shapegl [-config shapegl.yaml] [-backend raster] [-out shape.png] [-width 640] [-height 480] [-v]
package main

import (
	"bufio"
	"flag"
	"io"
	"log/slog"
	"os"

	"github.com/pkg/errors"
	"github.com/soypat/shapegl"
	"github.com/soypat/shapegl/render"
	_ "github.com/soypat/shapegl/vector"
)

func main() {
	var (
		cfgPath, backend, out string
		width, height         int
		verbose               bool
	)
	flag.StringVar(&cfgPath, "config", "", "Path to YAML configuration file")
	flag.StringVar(&backend, "backend", "", "Rendering backend, one of the registered backends")
	flag.StringVar(&out, "out", "shape.png", "Output PNG file, rewritten after every frame")
	flag.IntVar(&width, "width", 0, "Surface width override")
	flag.IntVar(&height, "height", 0, "Surface height override")
	flag.BoolVar(&verbose, "v", false, "Log every frame")
	flag.Parse()

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	shapegl.SetLogger(log)

	cfg := DefaultConfig()
	if cfgPath != "" {
		var err error
		cfg, err = loadConfigFile(cfgPath)
		if err != nil {
			log.Error("loading configuration", "err", err)
			os.Exit(1)
		}
	}
	if backend != "" {
		cfg.Backend = backend
	}
	if width > 0 {
		cfg.Surface.Width = width
	}
	if height > 0 {
		cfg.Surface.Height = height
	}
	if err := run(cfg, os.Stdin, out, log); err != nil {
		log.Error("shapegl failed", "err", err, "backends", shapegl.Backends())
		os.Exit(1)
	}
}

// session is a renderer bound to the command's single surface together
// with the current control values.
type session struct {
	log      *slog.Logger
	surface  *shapegl.Surface
	renderer *render.Renderer
	params   render.Params
	out      string
	frames   int
}

func newSession(cfg Config, out string, log *slog.Logger) (*session, error) {
	params, err := cfg.Params()
	if err != nil {
		return nil, err
	}
	opts, err := cfg.Options()
	if err != nil {
		return nil, err
	}
	display := shapegl.NewDisplay()
	surface, err := display.CreateSurface(cfg.Surface.ID, cfg.Surface.Width, cfg.Surface.Height)
	if err != nil {
		return nil, err
	}
	r, err := render.New(display, cfg.Surface.ID, cfg.Surface.Width, cfg.Surface.Height, append(opts, render.WithLogger(log))...)
	if err != nil {
		return nil, err
	}
	return &session{
		log:      log,
		surface:  surface,
		renderer: r,
		params:   params,
		out:      out,
	}, nil
}

// frame renders with the current parameters and writes the output file.
func (s *session) frame() error {
	if err := s.renderer.RenderParams(s.params); err != nil {
		return err
	}
	s.frames++
	if s.out == "" {
		return nil
	}
	return render.CreatePNG(s.out, s.surface)
}

// handle applies one line of input and renders a new frame. Parameters
// that fail validation are discarded so later events start from the last
// good frame.
func (s *session) handle(line string) error {
	ev, ok := parseEvent(line)
	if !ok {
		return nil
	}
	if ev.control == ctlResize {
		w, h, err := ev.size()
		if err != nil {
			return err
		}
		if err := s.surface.Resize(w, h); err != nil {
			return err
		}
		return s.frame()
	}
	next, err := ev.apply(s.params)
	if err != nil {
		return err
	}
	prev := s.params
	s.params = next
	err = s.frame()
	if errors.Is(err, shapegl.ErrInvalidParameter) {
		s.params = prev
	}
	return err
}

func (s *session) close() error {
	return s.renderer.Close()
}

func run(cfg Config, in io.Reader, out string, log *slog.Logger) error {
	s, err := newSession(cfg, out, log)
	if err != nil {
		return err
	}
	defer s.close()
	if err := s.frame(); err != nil {
		return err
	}
	scanner := bufio.NewScanner(in)
	for line := 1; scanner.Scan(); line++ {
		if err := s.handle(scanner.Text()); err != nil {
			log.Warn("skipping event", "line", line, "event", scanner.Text(), "err", err)
		}
	}
	log.Info("done", "frames", s.frames, "out", out)
	return scanner.Err()
}
