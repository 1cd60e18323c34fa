package shapegl

import (
	"errors"
	"fmt"
	"math"

	"github.com/soypat/glgl/math/ms2"
	"github.com/soypat/shapegl/internal/d2"
	"gonum.org/v1/gonum/spatial/r2"
)

const (
	// MaxVertices is the largest vertex count a polygon may have.
	MaxVertices = 1 << 16
	// DefaultRadius is the circumradius of polygons drawn by default, in
	// normalized device coordinates.
	DefaultRadius = 0.7
)

// Polygon is a regular polygon in normalized device coordinates, where x
// grows to the right, y grows upwards and the visible area spans [-1, 1]
// on both axes.
type Polygon struct {
	Center r2.Vec
	// Radius is the distance from the center to every vertex.
	Radius float64
	// N is the vertex count.
	N int
}

// RegularPolygon returns the n-vertex polygon centered at the origin
// with radius DefaultRadius.
func RegularPolygon(n int) Polygon {
	return Polygon{Radius: DefaultRadius, N: n}
}

// Validate returns an ErrInvalidParameter error if p cannot be drawn.
func (p Polygon) Validate() error {
	const op = "polygon"
	switch {
	case p.N < 3:
		return invalidParam(op, fmt.Errorf("vertex count %d below 3", p.N))
	case p.N > MaxVertices:
		return invalidParam(op, fmt.Errorf("vertex count %d above %d", p.N, MaxVertices))
	case !(p.Radius > 0) || math.IsInf(p.Radius, 0):
		return invalidParam(op, fmt.Errorf("bad radius %g", p.Radius))
	case !d2.IsFinite(p.Center):
		return invalidParam(op, fmt.Errorf("bad center %v", p.Center))
	}
	return nil
}

// Vertices returns the vertices of p. The first vertex lies straight above
// the center and the rest follow clockwise, vertex i at the angle 2*pi*i/N.
func (p Polygon) Vertices() []r2.Vec {
	v := make([]r2.Vec, p.N)
	top := r2.Vec{Y: p.Radius}
	step := 2 * math.Pi / float64(p.N)
	toCenter := d2.Translate(p.Center)
	for i := range v {
		// Negative angles rotate clockwise.
		v[i] = toCenter.Mul(d2.Rotate(-step * float64(i))).ApplyPos(top)
	}
	return v
}

// Bounds returns the bounding box of the polygon's vertices.
func (p Polygon) Bounds() r2.Box {
	return r2.Box(d2.Set(p.Vertices()).Bounds())
}

// Topology is the way a draw call's vertices are assembled into triangles.
type Topology uint8

const (
	// TriangleList takes every three consecutive vertices as a triangle.
	TriangleList Topology = iota
	// TriangleFan forms triangles (0, i, i+1) for every i in [1, n-2].
	TriangleFan
)

func (t Topology) String() string {
	switch t {
	case TriangleList:
		return "triangle list"
	case TriangleFan:
		return "triangle fan"
	}
	return fmt.Sprintf("Topology(%d)", uint8(t))
}

// Vertex is a draw call vertex. It matches the packed float32
// layout vec2 position followed by vec3 color.
type Vertex struct {
	Pos   ms2.Vec
	Color Color
}

// DrawCall is a single request to rasterize a vertex set as filled triangles.
type DrawCall struct {
	Topology Topology
	Vertices []Vertex
}

// NewDrawCall returns the draw call that fills p with color c. Every vertex
// carries c. A triangle is sent as a triangle list, larger polygons as a fan
// anchored at the first vertex so the buffer holds exactly p.N positions.
func NewDrawCall(p Polygon, c Color) (DrawCall, error) {
	if err := p.Validate(); err != nil {
		return DrawCall{}, err
	}
	dc := DrawCall{
		Topology: TriangleFan,
		Vertices: make([]Vertex, p.N),
	}
	if p.N == 3 {
		dc.Topology = TriangleList
	}
	for i, v := range p.Vertices() {
		dc.Vertices[i] = Vertex{
			Pos:   ms2.Vec{X: float32(v.X), Y: float32(v.Y)},
			Color: c,
		}
	}
	return dc, nil
}

// Validate checks the vertex count is consistent with the topology.
func (dc DrawCall) Validate() error {
	const op = "draw call"
	n := len(dc.Vertices)
	switch {
	case n < 3:
		return invalidParam(op, fmt.Errorf("%d vertices, need at least 3", n))
	case dc.Topology == TriangleList && n%3 != 0:
		return invalidParam(op, fmt.Errorf("triangle list of %d vertices", n))
	case dc.Topology != TriangleList && dc.Topology != TriangleFan:
		return invalidParam(op, errors.New("unknown topology "+dc.Topology.String()))
	}
	return nil
}

// Triangles returns the vertex indices of every triangle dc describes.
func (dc DrawCall) Triangles() [][3]int {
	n := len(dc.Vertices)
	var tris [][3]int
	switch dc.Topology {
	case TriangleList:
		tris = make([][3]int, 0, n/3)
		for i := 0; i+2 < n; i += 3 {
			tris = append(tris, [3]int{i, i + 1, i + 2})
		}
	case TriangleFan:
		if n < 3 {
			return nil
		}
		tris = make([][3]int, 0, n-2)
		for i := 1; i+1 < n; i++ {
			tris = append(tris, [3]int{0, i, i + 1})
		}
	}
	return tris
}

// Positions returns the vertex positions of dc in float64 precision.
func (dc DrawCall) Positions() []r2.Vec {
	pos := make([]r2.Vec, len(dc.Vertices))
	for i, v := range dc.Vertices {
		pos[i] = r2.Vec{X: float64(v.Pos.X), Y: float64(v.Pos.Y)}
	}
	return pos
}
