package kernel

import (
	"fmt"
	"math"

	"github.com/chazu/sitegeom/pkg/geom"
	"github.com/go-gl/mathgl/mgl64"
)

// Prism is the boundary of a planar contour swept along a straight
// direction: a base cap, a top cap and one quadrilateral side per edge.
type Prism struct {
	Base   geom.Loop  // counter-clockwise seen from PlaneNormal
	Offset mgl64.Vec3 // sweep vector from base to top
	// PlaneNormal is the contour normal oriented towards the sweep.
	PlaneNormal mgl64.Vec3
	faces       []Face
}

// NewPrism validates the contour and sweep and builds the prism boundary.
// The contour is re-oriented if its winding opposes dir.
func NewPrism(loop geom.Loop, dir mgl64.Vec3, thickness, minEdge float64) (*Prism, error) {
	if !(thickness > 0) || math.IsInf(thickness, 0) {
		return nil, fmt.Errorf("thickness %g: %w", thickness, ErrInvalidThickness)
	}
	if err := loop.Check(minEdge); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDegenerateContour, err)
	}
	dl := dir.Len()
	if dl == 0 || math.IsNaN(dl) || math.IsInf(dl, 0) {
		return nil, fmt.Errorf("direction %v: %w", dir, ErrInvalidDirection)
	}
	d := dir.Mul(1 / dl)

	n, _ := loop.Normal()
	base := loop
	switch c := n.Dot(d); {
	case math.Abs(c) <= DefaultNormalTolerance:
		return nil, fmt.Errorf("direction %v lies in contour plane: %w", d, ErrInvalidDirection)
	case c < 0:
		base = loop.Reversed()
		n = n.Mul(-1)
	}

	p := &Prism{
		Base:        base,
		Offset:      d.Mul(thickness),
		PlaneNormal: n,
	}
	p.faces = p.buildFaces(d)
	return p, nil
}

func (p *Prism) buildFaces(d mgl64.Vec3) []Face {
	faces := make([]Face, 0, len(p.Base)+2)
	faces = append(faces,
		Face{Boundary: p.Base.Reversed(), Normal: p.PlaneNormal.Mul(-1)},
		Face{Boundary: p.Base.Translated(p.Offset), Normal: p.PlaneNormal},
	)
	for _, e := range p.Base.Edges() {
		side := geom.Loop{e.Start, e.End, e.End.Add(p.Offset), e.Start.Add(p.Offset)}
		faces = append(faces, Face{
			Boundary: side,
			Normal:   e.End.Sub(e.Start).Cross(d).Normalize(),
		})
	}
	return faces
}

// Faces returns the base cap, the top cap and the sides in edge order.
func (p *Prism) Faces() []Face {
	return p.faces
}

// Bound returns the axis-aligned box of all prism vertices.
func (p *Prism) Bound() geom.Bound {
	pts := make([]geom.Point3D, 0, 2*len(p.Base))
	for _, v := range p.Base {
		pts = append(pts, v, v.Add(p.Offset))
	}
	return geom.BoundOf(pts...)
}

// BoundingBox returns Bound as arrays.
func (p *Prism) BoundingBox() (min, max [3]float64) {
	b := p.Bound()
	return [3]float64{b.Min.X, b.Min.Y, b.Min.Z}, [3]float64{b.Max.X, b.Max.Y, b.Max.Z}
}

// Mesh triangulates every face of the prism.
func (p *Prism) Mesh() *Mesh {
	m := &Mesh{}
	for _, f := range p.faces {
		for _, t := range f.Triangulate() {
			m.AddTriangle(t, f.Normal)
		}
	}
	return m
}
