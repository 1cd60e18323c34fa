package render

import (
	"image/png"
	"io"

	"github.com/fogleman/fauxgl"
	"github.com/soypat/shapegl"
)

// CreatePNG writes the last presented frame of s to a PNG file at path.
func CreatePNG(path string, s *shapegl.Surface) error {
	return fauxgl.SavePNG(path, s.Image())
}

// WritePNG encodes the last presented frame of s as PNG to w.
func WritePNG(w io.Writer, s *shapegl.Surface) error {
	return png.Encode(w, s.Image())
}
