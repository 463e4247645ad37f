package kernel

import (
	"fmt"
	"math"

	"github.com/chazu/sitegeom/pkg/geom"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Face is an oriented planar polygon bounding a solid. Boundary winds
// counter-clockwise seen from the side Normal points to.
type Face struct {
	Boundary geom.Loop  `json:"boundary"`
	Normal   mgl64.Vec3 `json:"normal"`
}

func (f Face) String() string {
	return fmt.Sprintf("face(%d vertices, normal %.4f %.4f %.4f)",
		len(f.Boundary), f.Normal[0], f.Normal[1], f.Normal[2])
}

// Origin returns the first boundary vertex, which lies on the face plane.
func (f Face) Origin() geom.Point3D {
	if len(f.Boundary) == 0 {
		return geom.Point3D{}
	}
	return f.Boundary[0]
}

// Centroid returns the boundary vertex average.
func (f Face) Centroid() geom.Point3D {
	return f.Boundary.Centroid()
}

// SignedDistance returns the distance of p from the face plane, positive on
// the side the normal points to.
func (f Face) SignedDistance(p geom.Point3D) float64 {
	return p.Sub(f.Origin()).Dot(f.Normal)
}

// frame returns two unit axes spanning the face plane such that
// (u, v, Normal) is right-handed.
func (f Face) frame() (u, v mgl64.Vec3) {
	ref := mgl64.Vec3{1, 0, 0}
	if math.Abs(f.Normal[0]) > 0.9 {
		ref = mgl64.Vec3{0, 1, 0}
	}
	u = ref.Sub(f.Normal.Mul(ref.Dot(f.Normal))).Normalize()
	v = f.Normal.Cross(u)
	return u, v
}

// project maps p into the face plane's 2D frame.
func (f Face) project(p geom.Point3D, u, v mgl64.Vec3) orb.Point {
	d := p.Sub(f.Origin())
	return orb.Point{d.Dot(u), d.Dot(v)}
}

// ring returns the boundary as a closed orb ring in the plane frame.
func (f Face) ring(u, v mgl64.Vec3) orb.Ring {
	r := make(orb.Ring, 0, len(f.Boundary)+1)
	for _, p := range f.Boundary {
		r = append(r, f.project(p, u, v))
	}
	if len(r) > 0 {
		r = append(r, r[0])
	}
	return r
}

// Contains reports whether p, assumed to lie on the face plane, is inside
// the boundary or within tol of it.
func (f Face) Contains(p geom.Point3D, tol float64) bool {
	u, v := f.frame()
	r := f.ring(u, v)
	q := f.project(p, u, v)
	if planar.RingContains(r, q) {
		return true
	}
	for i := 0; i+1 < len(r); i++ {
		if distToSegment2D(q, r[i], r[i+1]) <= tol {
			return true
		}
	}
	return false
}

// Area returns the face area.
func (f Face) Area() float64 {
	u, v := f.frame()
	return math.Abs(planar.Area(f.ring(u, v)))
}

// Triangulate fans the boundary into triangles that keep the face winding.
// Faces produced by the kernels are convex.
func (f Face) Triangulate() []geom.Triangle {
	if len(f.Boundary) < 3 {
		return nil
	}
	tris := make([]geom.Triangle, 0, len(f.Boundary)-2)
	for i := 1; i+1 < len(f.Boundary); i++ {
		tris = append(tris, geom.Tri(f.Boundary[0], f.Boundary[i], f.Boundary[i+1]))
	}
	return tris
}

func distToSegment2D(p, a, b orb.Point) float64 {
	dx, dy := b[0]-a[0], b[1]-a[1]
	l2 := dx*dx + dy*dy
	if l2 == 0 {
		return planar.Distance(p, a)
	}
	t := ((p[0]-a[0])*dx + (p[1]-a[1])*dy) / l2
	t = math.Max(0, math.Min(1, t))
	return planar.Distance(p, orb.Point{a[0] + t*dx, a[1] + t*dy})
}

// IntersectPlanar intersects a curve with a planar face piece by piece.
// Pieces lying in the face plane make the result Subset unless another
// piece crosses the face. Points are ordered along the curve with
// consecutive duplicates removed.
func IntersectPlanar(f Face, c geom.Curve, tol float64) (Comparison, []geom.Point3D) {
	if c == nil {
		return Empty, nil
	}
	pts := c.Points()
	if len(pts) < 2 || c.Length() <= tol {
		return Empty, nil
	}

	var hits []geom.Point3D
	coplanar := false
	for i := 1; i < len(pts); i++ {
		a, b := pts[i-1], pts[i]
		da, db := f.SignedDistance(a), f.SignedDistance(b)

		if math.Abs(da) <= tol && math.Abs(db) <= tol {
			coplanar = true
			continue
		}
		if (da > tol && db > tol) || (da < -tol && db < -tol) {
			continue
		}

		var p geom.Point3D
		switch {
		case math.Abs(da) <= tol:
			p = a
		case math.Abs(db) <= tol:
			p = b
		default:
			t := da / (da - db)
			p = a.Add(b.Sub(a).Mul(t))
		}
		if !f.Contains(p, tol) {
			continue
		}
		if n := len(hits); n > 0 && hits[n-1].ApproxEqual(p, tol) {
			continue
		}
		hits = append(hits, p)
	}

	switch {
	case len(hits) > 0:
		return Overlap, hits
	case coplanar:
		return Subset, nil
	}
	return Disjoint, nil
}

// SelectByNormal returns the first face whose outward normal lies within
// tol (as 1 - cos angle) of normal.
func SelectByNormal(faces []Face, normal mgl64.Vec3, tol float64) (Face, error) {
	l := normal.Len()
	if l == 0 || math.IsNaN(l) {
		return Face{}, fmt.Errorf("select face: zero normal: %w", ErrInvalidDirection)
	}
	n := normal.Mul(1 / l)
	for _, f := range faces {
		if f.Normal.Dot(n) >= 1-tol {
			return f, nil
		}
	}
	return Face{}, fmt.Errorf("select face with normal %v: %w", n, ErrNoMatchingFace)
}
