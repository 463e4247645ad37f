package geom

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

var (
	// ErrShortEdge is returned for a triangle or loop with an edge shorter
	// than the minimum curve length, including coincident vertices.
	ErrShortEdge = errors.New("edge shorter than minimum length")
	// ErrCollinear is returned for a triangle whose vertices lie on one line.
	ErrCollinear = errors.New("vertices are collinear")
)

// collinearSine is the smallest sine of the angle between two edges that
// still counts as a proper corner.
const collinearSine = 1e-9

// Triangle is one facet of a terrain mesh, in mesh winding order.
type Triangle struct {
	V0 Point3D `json:"v0"`
	V1 Point3D `json:"v1"`
	V2 Point3D `json:"v2"`
}

// Tri is shorthand for Triangle{a, b, c}.
func Tri(a, b, c Point3D) Triangle {
	return Triangle{V0: a, V1: b, V2: c}
}

// Vertices returns the corners in winding order.
func (t Triangle) Vertices() [3]Point3D {
	return [3]Point3D{t.V0, t.V1, t.V2}
}

// Edges returns v0->v1, v1->v2 and v2->v0.
func (t Triangle) Edges() [3]LineSegment {
	return [3]LineSegment{Seg(t.V0, t.V1), Seg(t.V1, t.V2), Seg(t.V2, t.V0)}
}

// EdgeLengths returns the lengths of Edges in the same order.
func (t Triangle) EdgeLengths() [3]float64 {
	return [3]float64{t.V0.Distance(t.V1), t.V1.Distance(t.V2), t.V2.Distance(t.V0)}
}

// cross returns (v1-v0) x (v2-v0).
func (t Triangle) cross() mgl64.Vec3 {
	return t.V1.Sub(t.V0).Cross(t.V2.Sub(t.V0))
}

// Normal returns the unit normal following the right-hand rule over the
// winding. It is the zero vector for a degenerate triangle.
func (t Triangle) Normal() mgl64.Vec3 {
	c := t.cross()
	l := c.Len()
	if l == 0 {
		return mgl64.Vec3{}
	}
	return c.Mul(1 / l)
}

// Area returns the surface area.
func (t Triangle) Area() float64 {
	return t.cross().Len() / 2
}

// Centroid returns the average of the three corners.
func (t Triangle) Centroid() Point3D {
	return Point3D{
		X: (t.V0.X + t.V1.X + t.V2.X) / 3,
		Y: (t.V0.Y + t.V1.Y + t.V2.Y) / 3,
		Z: (t.V0.Z + t.V1.Z + t.V2.Z) / 3,
	}
}

// Loop returns the triangle boundary as a closed contour.
func (t Triangle) Loop() Loop {
	return Loop{t.V0, t.V1, t.V2}
}

// Check reports why the triangle cannot bound a planar face, or nil.
// minEdge is the shortest edge the geometry engine accepts.
func (t Triangle) Check(minEdge float64) error {
	for i, l := range t.EdgeLengths() {
		if l < minEdge {
			return fmt.Errorf("edge %d length %g < %g: %w", i, l, minEdge, ErrShortEdge)
		}
	}
	e1 := t.V1.Sub(t.V0)
	e2 := t.V2.Sub(t.V0)
	if e1.Cross(e2).Len() <= collinearSine*e1.Len()*e2.Len() {
		return ErrCollinear
	}
	return nil
}
