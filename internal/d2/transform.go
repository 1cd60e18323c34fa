package d2

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Transform represents a 2D affine transformation
// including translation, rotation and scaling.
// The bottom row is always {0, 0, 1}.
type Transform struct {
	data [3 * 3]float64 // row major
}

// Identity returns the identity transform.
func Identity() Transform {
	return Transform{data: [9]float64{
		1, 0, 0,
		0, 1, 0,
		0, 0, 1,
	}}
}

// Translate returns a transform that translates by v.
func Translate(v r2.Vec) Transform {
	return Transform{data: [9]float64{
		1, 0, v.X,
		0, 1, v.Y,
		0, 0, 1,
	}}
}

// Scale returns a transform that scales each axis by the components of v.
// Negative components mirror about the axis.
func Scale(v r2.Vec) Transform {
	return Transform{data: [9]float64{
		v.X, 0, 0,
		0, v.Y, 0,
		0, 0, 1,
	}}
}

// Rotate returns an anti-clockwise rotation about the origin by a radians.
func Rotate(a float64) Transform {
	s, c := math.Sincos(a)
	return Transform{data: [9]float64{
		c, -s, 0,
		s, c, 0,
		0, 0, 1,
	}}
}

func (t *Transform) At(i, j int) float64 {
	return t.data[i*3+j]
}

func (t *Transform) Set(i, j int, v float64) {
	t.data[i*3+j] = v
}

// Mul multiplies 3x3 matrices. The result applies b first, then a.
func (a Transform) Mul(b Transform) Transform {
	m := Transform{}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			m.Set(i, j, a.At(i, 0)*b.At(0, j)+a.At(i, 1)*b.At(1, j)+a.At(i, 2)*b.At(2, j))
		}
	}
	return m
}

// ApplyPos transforms a position.
func (t Transform) ApplyPos(b r2.Vec) r2.Vec {
	return r2.Vec{
		X: t.At(0, 0)*b.X + t.At(0, 1)*b.Y + t.At(0, 2),
		Y: t.At(1, 0)*b.X + t.At(1, 1)*b.Y + t.At(1, 2),
	}
}

// ApplySet transforms every position of s into a new set.
func (t Transform) ApplySet(s Set) Set {
	out := make(Set, len(s))
	for i := range s {
		out[i] = t.ApplyPos(s[i])
	}
	return out
}

// Determinant returns the determinant of the 3x3 matrix.
func (a Transform) Determinant() float64 {
	return a.At(0, 0)*(a.At(1, 1)*a.At(2, 2)-a.At(1, 2)*a.At(2, 1)) -
		a.At(0, 1)*(a.At(1, 0)*a.At(2, 2)-a.At(1, 2)*a.At(2, 0)) +
		a.At(0, 2)*(a.At(1, 0)*a.At(2, 1)-a.At(1, 1)*a.At(2, 0))
}

// Inverse returns the inverse of a 3x3 matrix.
func (a Transform) Inverse() Transform {
	m := Transform{}
	d := 1 / a.Determinant()
	m.Set(0, 0, (a.At(1, 1)*a.At(2, 2)-a.At(1, 2)*a.At(2, 1))*d)
	m.Set(0, 1, (a.At(2, 1)*a.At(0, 2)-a.At(0, 1)*a.At(2, 2))*d)
	m.Set(0, 2, (a.At(0, 1)*a.At(1, 2)-a.At(1, 1)*a.At(0, 2))*d)
	m.Set(1, 0, (a.At(1, 2)*a.At(2, 0)-a.At(2, 2)*a.At(1, 0))*d)
	m.Set(1, 1, (a.At(2, 2)*a.At(0, 0)-a.At(2, 0)*a.At(0, 2))*d)
	m.Set(1, 2, (a.At(0, 2)*a.At(1, 0)-a.At(1, 2)*a.At(0, 0))*d)
	m.Set(2, 0, (a.At(1, 0)*a.At(2, 1)-a.At(2, 0)*a.At(1, 1))*d)
	m.Set(2, 1, (a.At(2, 0)*a.At(0, 1)-a.At(0, 0)*a.At(2, 1))*d)
	m.Set(2, 2, (a.At(0, 0)*a.At(1, 1)-a.At(0, 1)*a.At(1, 0))*d)
	return m
}

// NDCToPixel returns the transform from normalized device coordinates
// (x right, y up, [-1, 1]) to pixel coordinates of a width x height image
// (origin top left, y down).
func NDCToPixel(width, height int) Transform {
	half := r2.Vec{X: float64(width) / 2, Y: float64(height) / 2}
	return Translate(half).Mul(Scale(r2.Vec{X: half.X, Y: -half.Y}))
}
