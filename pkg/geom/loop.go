package geom

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

// Loop is a closed contour. The closing edge from the last vertex back to
// the first is implicit.
type Loop []Point3D

// Edges returns the bounded edges of the contour including the closing edge.
func (l Loop) Edges() []LineSegment {
	if len(l) < 2 {
		return nil
	}
	edges := make([]LineSegment, len(l))
	for i := range l {
		edges[i] = Seg(l[i], l[(i+1)%len(l)])
	}
	return edges
}

// Normal returns the unit plane normal by Newell's method, oriented by the
// right-hand rule over the vertex order. ok is false when the loop has no
// area.
func (l Loop) Normal() (n mgl64.Vec3, ok bool) {
	for i := range l {
		a, b := l[i], l[(i+1)%len(l)]
		n[0] += (a.Y - b.Y) * (a.Z + b.Z)
		n[1] += (a.Z - b.Z) * (a.X + b.X)
		n[2] += (a.X - b.X) * (a.Y + b.Y)
	}
	length := n.Len()
	if length == 0 {
		return mgl64.Vec3{}, false
	}
	return n.Mul(1 / length), true
}

// Reversed returns the loop walked the other way round.
func (l Loop) Reversed() Loop {
	r := make(Loop, len(l))
	for i, p := range l {
		r[len(l)-1-i] = p
	}
	return r
}

// Translated returns a copy of the loop moved by v.
func (l Loop) Translated(v mgl64.Vec3) Loop {
	r := make(Loop, len(l))
	for i, p := range l {
		r[i] = p.Add(v)
	}
	return r
}

// Centroid returns the vertex average.
func (l Loop) Centroid() Point3D {
	var c mgl64.Vec3
	for _, p := range l {
		c = c.Add(p.Vec())
	}
	if len(l) > 0 {
		c = c.Mul(1 / float64(len(l)))
	}
	return FromVec(c)
}

// Check reports whether the loop can bound a planar face: at least three
// vertices, no edge shorter than minEdge and a non-zero area.
func (l Loop) Check(minEdge float64) error {
	if len(l) < 3 {
		return fmt.Errorf("loop has %d vertices, need 3: %w", len(l), ErrCollinear)
	}
	for i, e := range l.Edges() {
		if e.Length() < minEdge {
			return fmt.Errorf("edge %d length %g < %g: %w", i, e.Length(), minEdge, ErrShortEdge)
		}
	}
	n, ok := l.Normal()
	if !ok {
		return ErrCollinear
	}
	// Area relative to the squared perimeter catches slivers that Newell
	// still assigns a direction to through rounding.
	var area2 float64
	for i := 1; i+1 < len(l); i++ {
		area2 += l[i].Sub(l[0]).Cross(l[i+1].Sub(l[0])).Dot(n)
	}
	var perim float64
	for _, e := range l.Edges() {
		perim += e.Length()
	}
	if area2 <= collinearSine*perim*perim {
		return ErrCollinear
	}
	return nil
}
