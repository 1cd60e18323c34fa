package shapegl

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/chewxy/math32"
)

// RGB is an opaque color with 8 bits per channel.
type RGB struct {
	R, G, B uint8
}

// Color is an opaque color with channels normalized to [0, 1].
// It is the form colors take once they reach the shading stage.
type Color struct {
	R, G, B float32
}

var (
	Black = RGB{}
	White = RGB{R: 255, G: 255, B: 255}
	Red   = RGB{R: 255}
	Green = RGB{G: 255}
	Blue  = RGB{B: 255}
)

// Normalize maps each channel from [0, 255] to [0.0, 1.0].
func (c RGB) Normalize() Color {
	return Color{
		R: float32(c.R) / 255,
		G: float32(c.G) / 255,
		B: float32(c.B) / 255,
	}
}

// RGBA implements color.Color.
func (c RGB) RGBA() (r, g, b, a uint32) {
	r = uint32(c.R) * 0x101
	g = uint32(c.G) * 0x101
	b = uint32(c.B) * 0x101
	return r, g, b, 0xffff
}

// String returns the color in #rrggbb notation.
func (c RGB) String() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// Quantize returns the nearest 8-bit color. Channels are clamped to [0, 1].
func (c Color) Quantize() RGB {
	return RGB{R: quantize(c.R), G: quantize(c.G), B: quantize(c.B)}
}

func quantize(v float32) uint8 {
	if v != v {
		return 0 // NaN.
	}
	v = math32.Max(0, math32.Min(1, v))
	return uint8(math32.Round(v * 255))
}

// ParseChannel parses a single color channel control value. The value is
// read as a number like a page input's value attribute is and must be an
// integer in [0, 255]. Out of range values are rejected instead of clamped.
func ParseChannel(s string) (uint8, error) {
	const op = "parse channel"
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, invalidParam(op, err)
	}
	if v != math.Trunc(v) || v < 0 || v > 255 {
		return 0, invalidParam(op, fmt.Errorf("channel value %q must be an integer in [0, 255]", s))
	}
	return uint8(v), nil
}

// ParseHex parses colors in #rrggbb or #rgb notation. The leading '#' is optional.
func ParseHex(s string) (RGB, error) {
	const op = "parse color"
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) != 6 {
		return RGB{}, invalidParam(op, fmt.Errorf("color %q is not #rrggbb or #rgb", s))
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return RGB{}, invalidParam(op, fmt.Errorf("color %q: %w", s, err))
	}
	return RGB{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, nil
}
