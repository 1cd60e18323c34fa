package main

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/soypat/shapegl"
	"github.com/soypat/shapegl/raster"
	"github.com/soypat/shapegl/render"
	"gopkg.in/yaml.v3"
)

// Config is the command's configuration file.
type Config struct {
	Surface struct {
		ID     string `yaml:"id"`
		Width  int    `yaml:"width"`
		Height int    `yaml:"height"`
	} `yaml:"surface"`
	Backend string `yaml:"backend"`
	// Supersample only applies to the raster backend.
	Supersample int     `yaml:"supersample"`
	Radius      float64 `yaml:"radius"`

	// Initial control values.
	Shape       string `yaml:"shape"`
	Background  string `yaml:"background"`
	VertexCount int    `yaml:"vertex_count"`
}

// DefaultConfig renders a white triangle on black onto a 640x480 surface.
func DefaultConfig() Config {
	var c Config
	c.Surface.ID = "canvas"
	c.Surface.Width = 640
	c.Surface.Height = 480
	c.Backend = render.DefaultBackend
	c.Supersample = 1
	c.Radius = shapegl.DefaultRadius
	c.Shape = shapegl.White.String()
	c.Background = shapegl.Black.String()
	c.VertexCount = 3
	return c
}

// LoadConfig decodes a YAML configuration. Fields missing from r keep
// their default value.
func LoadConfig(r io.Reader) (Config, error) {
	cfg := DefaultConfig()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && err != io.EOF {
		return Config{}, errors.Wrap(err, "decoding config")
	}
	return cfg, nil
}

func loadConfigFile(path string) (Config, error) {
	fp, err := os.Open(path)
	if err != nil {
		return Config{}, errors.Wrap(err, "opening config")
	}
	defer fp.Close()
	cfg, err := LoadConfig(fp)
	if err != nil {
		return Config{}, errors.Wrapf(err, "config %s", path)
	}
	return cfg, nil
}

// Params returns the initial frame parameters.
func (c Config) Params() (render.Params, error) {
	shape, err := shapegl.ParseHex(c.Shape)
	if err != nil {
		return render.Params{}, errors.Wrap(err, "shape")
	}
	bg, err := shapegl.ParseHex(c.Background)
	if err != nil {
		return render.Params{}, errors.Wrap(err, "background")
	}
	return render.Params{Shape: shape, Background: bg, VertexCount: c.VertexCount}, nil
}

// Options returns the renderer options the configuration selects.
func (c Config) Options() ([]render.Option, error) {
	opts := []render.Option{
		render.WithBackend(c.Backend),
		render.WithRadius(c.Radius),
	}
	switch {
	case c.Backend == raster.Name:
		opts = append(opts, render.WithBackendOptions(raster.Options{Supersample: c.Supersample}))
	case c.Supersample > 1:
		return nil, errors.Errorf("supersample is not supported by backend %q", c.Backend)
	}
	return opts, nil
}
