package shapegl_test

import (
	"errors"
	"image/color"
	"testing"

	"github.com/soypat/shapegl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, shapegl.Color{}, shapegl.Black.Normalize())
	assert.Equal(t, shapegl.Color{R: 1, G: 1, B: 1}, shapegl.White.Normalize())
	c := shapegl.RGB{R: 51, G: 102, B: 204}.Normalize()
	assert.InDelta(t, 0.2, c.R, 1e-6)
	assert.InDelta(t, 0.4, c.G, 1e-6)
	assert.InDelta(t, 0.8, c.B, 1e-6)
}

func TestQuantizeRoundTrip(t *testing.T) {
	for v := 0; v < 256; v++ {
		want := shapegl.RGB{R: uint8(v), G: uint8(255 - v), B: uint8(v / 2)}
		got := want.Normalize().Quantize()
		require.Equal(t, want, got, "channel value %d", v)
	}
}

func TestQuantizeClamp(t *testing.T) {
	nan := float32(0)
	nan = nan / nan
	got := shapegl.Color{R: -0.5, G: 2, B: nan}.Quantize()
	assert.Equal(t, shapegl.RGB{R: 0, G: 255, B: 0}, got)
}

func TestRGBColor(t *testing.T) {
	var c color.Color = shapegl.RGB{R: 255, G: 128}
	got := color.NRGBAModel.Convert(c).(color.NRGBA)
	assert.Equal(t, color.NRGBA{R: 255, G: 128, A: 255}, got)
	assert.Equal(t, "#ff8000", shapegl.RGB{R: 255, G: 128}.String())
}

func TestParseChannel(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want uint8
	}{
		{"0", 0}, {"255", 255}, {" 17 ", 17}, {"128.0", 128},
	} {
		got, err := shapegl.ParseChannel(tc.in)
		if assert.NoError(t, err, tc.in) {
			assert.Equal(t, tc.want, got, tc.in)
		}
	}
	for _, in := range []string{"256", "-1", "1.5", "", "red", "NaN"} {
		_, err := shapegl.ParseChannel(in)
		assert.True(t, errors.Is(err, shapegl.ErrInvalidParameter), "ParseChannel(%q) = %v", in, err)
	}
}

func TestParseHex(t *testing.T) {
	for in, want := range map[string]shapegl.RGB{
		"#ff0000": shapegl.Red,
		"00ff00":  shapegl.Green,
		"#00F":    shapegl.Blue,
		"#123456": {R: 0x12, G: 0x34, B: 0x56},
	} {
		got, err := shapegl.ParseHex(in)
		if assert.NoError(t, err, in) {
			assert.Equal(t, want, got, in)
		}
	}
	for _, in := range []string{"", "#", "#12345", "#gggggg", "#1234567"} {
		_, err := shapegl.ParseHex(in)
		assert.ErrorIs(t, err, shapegl.ErrInvalidParameter, in)
	}
}
