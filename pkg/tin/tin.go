// Package tin triangulates scattered survey points into a triangulated
// irregular network with the Bowyer-Watson algorithm. Triangulation runs in
// plan (XY); elevations ride along on the vertices.
package tin

import (
	"errors"
	"fmt"
	"math"

	"github.com/chazu/sitegeom/pkg/geom"
	"github.com/chazu/sitegeom/pkg/kernel"
	"github.com/samber/lo"
)

var (
	// ErrTooFewPoints is returned for fewer than three distinct plan positions.
	ErrTooFewPoints = errors.New("tin: need at least 3 distinct points")
	// ErrCollinear is returned when every point lies on one line in plan.
	ErrCollinear = errors.New("tin: points are collinear in plan")
)

// PartName labels meshes produced by Triangulate.
const PartName = "tin"

// superScale sizes the enclosing triangle relative to the point spread.
const superScale = 20

// inCircleEpsilon is the relative margin for the in-circumcircle test.
// Points on a circumcircle count as outside.
const inCircleEpsilon = 1e-12

type tri struct {
	a, b, c int
	cx, cy  float64 // circumcenter
	r2      float64 // squared circumradius, +Inf when degenerate
}

type edge struct{ a, b int }

func (e edge) key() edge {
	if e.a > e.b {
		return edge{e.b, e.a}
	}
	return e
}

// triangulation holds the working state. The last three points are the
// super triangle.
type triangulation struct {
	pts  []geom.Point3D
	tris []tri
}

func (t *triangulation) makeTri(a, b, c int) tri {
	pa, pb, pc := t.pts[a], t.pts[b], t.pts[c]
	// Keep every triangle counter-clockwise in plan.
	if orient(pa, pb, pc) < 0 {
		b, c = c, b
		pb, pc = pc, pb
	}
	out := tri{a: a, b: b, c: c, r2: math.Inf(1)}
	d := 2 * (pa.X*(pb.Y-pc.Y) + pb.X*(pc.Y-pa.Y) + pc.X*(pa.Y-pb.Y))
	if d == 0 {
		return out
	}
	sa := pa.X*pa.X + pa.Y*pa.Y
	sb := pb.X*pb.X + pb.Y*pb.Y
	sc := pc.X*pc.X + pc.Y*pc.Y
	out.cx = (sa*(pb.Y-pc.Y) + sb*(pc.Y-pa.Y) + sc*(pa.Y-pb.Y)) / d
	out.cy = (sa*(pc.X-pb.X) + sb*(pa.X-pc.X) + sc*(pb.X-pa.X)) / d
	dx, dy := pa.X-out.cx, pa.Y-out.cy
	out.r2 = dx*dx + dy*dy
	return out
}

func (tr tri) contains(p geom.Point3D) bool {
	if math.IsInf(tr.r2, 1) {
		return false
	}
	dx, dy := p.X-tr.cx, p.Y-tr.cy
	return dx*dx+dy*dy < tr.r2*(1-inCircleEpsilon)
}

// orient returns twice the signed plan area of abc; positive when
// counter-clockwise.
func orient(a, b, c geom.Point3D) float64 {
	return (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
}

// insert adds point i and re-triangulates the cavity it opens.
func (t *triangulation) insert(i int) {
	p := t.pts[i]
	var bad []tri
	keep := t.tris[:0:0]
	for _, tr := range t.tris {
		if tr.contains(p) {
			bad = append(bad, tr)
		} else {
			keep = append(keep, tr)
		}
	}

	// Cavity boundary: edges used by exactly one bad triangle, in a stable order.
	count := make(map[edge]int)
	var order []edge
	for _, tr := range bad {
		for _, e := range [3]edge{{tr.a, tr.b}, {tr.b, tr.c}, {tr.c, tr.a}} {
			if count[e.key()] == 0 {
				order = append(order, e)
			}
			count[e.key()]++
		}
	}
	for _, e := range order {
		if count[e.key()] == 1 {
			keep = append(keep, t.makeTri(e.a, e.b, i))
		}
	}
	t.tris = keep
}

// distinct drops points that repeat an earlier plan position.
func distinct(points []geom.Point3D) []geom.Point3D {
	return lo.UniqBy(points, func(p geom.Point3D) [2]float64 {
		return [2]float64{p.X, p.Y}
	})
}

// Triangles returns the Delaunay triangles of points, counter-clockwise in
// plan so their normals point up. Points sharing a plan position with an
// earlier point are ignored.
func Triangles(points []geom.Point3D) ([]geom.Triangle, error) {
	pts := distinct(points)
	if len(pts) < 3 {
		return nil, fmt.Errorf("%w: got %d", ErrTooFewPoints, len(pts))
	}
	for _, p := range pts {
		if !p.IsFinite() {
			return nil, fmt.Errorf("tin: non-finite point %v", p)
		}
	}

	b := geom.BoundOf(pts...)
	dmax := math.Max(b.Max.X-b.Min.X, b.Max.Y-b.Min.Y)
	midX, midY := (b.Min.X+b.Max.X)/2, (b.Min.Y+b.Max.Y)/2

	n := len(pts)
	t := &triangulation{pts: append(pts[:n:n],
		geom.Pt(midX-superScale*dmax, midY-dmax, 0),
		geom.Pt(midX, midY+superScale*dmax, 0),
		geom.Pt(midX+superScale*dmax, midY-dmax, 0),
	)}
	t.tris = []tri{t.makeTri(n, n+1, n+2)}
	for i := range n {
		t.insert(i)
	}

	var out []geom.Triangle
	for _, tr := range t.tris {
		if tr.a >= n || tr.b >= n || tr.c >= n {
			continue
		}
		if orient(t.pts[tr.a], t.pts[tr.b], t.pts[tr.c]) == 0 {
			continue
		}
		out = append(out, geom.Tri(t.pts[tr.a], t.pts[tr.b], t.pts[tr.c]))
	}
	if len(out) == 0 {
		return nil, ErrCollinear
	}
	return out, nil
}

// Triangulate builds an indexed mesh from points with shared vertices.
func Triangulate(points []geom.Point3D) (*kernel.Mesh, error) {
	tris, err := Triangles(points)
	if err != nil {
		return nil, err
	}
	return kernel.Weld(tris, PartName), nil
}
