package terrain

import (
	"errors"
	"fmt"

	"github.com/chazu/sitegeom/pkg/geom"
	"github.com/chazu/sitegeom/pkg/kernel"
)

var (
	// ErrNilCurve is returned when no curve is given.
	ErrNilCurve = errors.New("terrain: nil curve")
	// ErrEmptyCurve is returned for a curve without extent or with
	// non-finite coordinates.
	ErrEmptyCurve = errors.New("terrain: empty curve")
)

// probeMargin extends vertical probes past the surface bounds.
const probeMargin = 1.0

// Hit is the first intersection of a curve with a ground face.
type Hit struct {
	Point geom.Point3D
	Face  int // position in the face list
}

func checkCurve(c geom.Curve) error {
	if c == nil {
		return ErrNilCurve
	}
	pts := c.Points()
	if len(pts) < 2 {
		return fmt.Errorf("%w: %d points", ErrEmptyCurve, len(pts))
	}
	for _, p := range pts {
		if !p.IsFinite() {
			return fmt.Errorf("%w: non-finite point %v", ErrEmptyCurve, p)
		}
	}
	if c.Length() == 0 {
		return fmt.Errorf("%w: zero length", ErrEmptyCurve)
	}
	return nil
}

// FirstHit scans faces in order and returns the first intersection point of
// the first face the curve overlaps. Later faces are not examined, so the
// result follows face order, not distance. ok is false when no face
// overlaps, including for an empty face list.
func FirstHit(k kernel.Kernel, faces []GroundFace, c geom.Curve) (hit Hit, ok bool, err error) {
	if k == nil {
		return Hit{}, false, ErrNilKernel
	}
	if err := checkCurve(c); err != nil {
		return Hit{}, false, err
	}
	for i, gf := range faces {
		cmp, pts := k.Intersect(gf.Face, c)
		if cmp == kernel.Overlap && len(pts) > 0 {
			return Hit{Point: pts[0], Face: i}, true, nil
		}
	}
	return Hit{}, false, nil
}

// FirstIntersection returns the first intersection point of c with faces.
// See FirstHit.
func FirstIntersection(k kernel.Kernel, faces []GroundFace, c geom.Curve) (geom.Point3D, bool, error) {
	h, ok, err := FirstHit(k, faces, c)
	return h.Point, ok, err
}

// FirstIntersection runs FirstIntersection over the surface faces.
func (s *Surface) FirstIntersection(k kernel.Kernel, c geom.Curve) (geom.Point3D, bool, error) {
	return FirstIntersection(k, s.Faces, c)
}

// ElevationAt drops a vertical probe through (x, y) and returns the Z of
// the first ground face it meets. Ground faces sit one slab thickness above
// the mesh, so the value includes that offset. ok is false outside the
// surface footprint or over a hole left by a skipped triangle.
func (s *Surface) ElevationAt(k kernel.Kernel, x, y float64) (z float64, ok bool, err error) {
	if len(s.Faces) == 0 {
		return 0, false, nil
	}
	b := s.Bounds()
	if !b.ContainsXY(x, y) {
		return 0, false, nil
	}
	probe := geom.Seg(
		geom.Pt(x, y, b.Max.Z+probeMargin),
		geom.Pt(x, y, b.Min.Z-probeMargin),
	)
	p, ok, err := s.FirstIntersection(k, probe)
	if err != nil || !ok {
		return 0, false, err
	}
	return p.Z, true, nil
}

// Drape moves both endpoints of seg onto the ground along Z. An endpoint
// with no ground below it keeps its elevation; ok reports whether both
// endpoints were placed.
func (s *Surface) Drape(k kernel.Kernel, seg geom.LineSegment) (geom.LineSegment, bool, error) {
	out := seg
	placed := 0
	for _, p := range []*geom.Point3D{&out.Start, &out.End} {
		z, ok, err := s.ElevationAt(k, p.X, p.Y)
		if err != nil {
			return seg, false, err
		}
		if ok {
			p.Z = z
			placed++
		}
	}
	return out, placed == 2, nil
}
