package brep

import (
	"errors"
	"math"
	"testing"

	"github.com/chazu/sitegeom/pkg/geom"
	"github.com/chazu/sitegeom/pkg/kernel"
	"github.com/go-gl/mathgl/mgl64"
)

const groundThickness = 0.0328084

func TestExtrudeTriangle(t *testing.T) {
	k := New()
	tri := geom.Tri(geom.Pt(0, 0, 0), geom.Pt(1, 0, 0), geom.Pt(0, 1, 0))
	n := tri.Normal()

	s, err := k.ExtrudeContour(tri.Loop(), n, groundThickness)
	if err != nil {
		t.Fatalf("ExtrudeContour() error = %v", err)
	}
	if got := len(s.Faces()); got != 5 {
		t.Errorf("len(Faces()) = %d, want 5", got)
	}
	min, max := s.BoundingBox()
	if min[2] != 0 || math.Abs(max[2]-groundThickness) > 1e-15 {
		t.Errorf("z range = [%v, %v], want [0, %v]", min[2], max[2], groundThickness)
	}

	f, err := k.FaceByNormal(s, n)
	if err != nil {
		t.Fatalf("FaceByNormal() error = %v", err)
	}
	if !f.Normal.ApproxEqualThreshold(mgl64.Vec3{0, 0, 1}, 1e-12) {
		t.Errorf("face normal = %v, want +z", f.Normal)
	}
	for _, v := range f.Boundary {
		if math.Abs(v.Z-groundThickness) > 1e-15 {
			t.Errorf("face vertex %v not on top cap", v)
		}
	}
}

func TestExtrudeSlopedTriangle(t *testing.T) {
	k := New()
	tri := geom.Tri(geom.Pt(100, 200, 50), geom.Pt(110, 200, 52), geom.Pt(100, 212, 49))
	n := tri.Normal()
	s, err := k.ExtrudeContour(tri.Loop(), n, groundThickness)
	if err != nil {
		t.Fatalf("ExtrudeContour() error = %v", err)
	}
	f, err := k.FaceByNormal(s, n)
	if err != nil {
		t.Fatalf("FaceByNormal() error = %v", err)
	}
	if f.Normal.Dot(n) < 1-1e-12 {
		t.Errorf("face normal %v not parallel to %v", f.Normal, n)
	}
	// The cap sits one thickness above the triangle plane.
	if d := f.Origin().Sub(tri.V0).Dot(n); math.Abs(d-groundThickness) > 1e-9 {
		t.Errorf("cap offset = %v, want %v", d, groundThickness)
	}
}

func TestExtrudeDegenerate(t *testing.T) {
	k := New()
	tests := []struct {
		name string
		tri  geom.Triangle
	}{
		{"coincident", geom.Tri(geom.Pt(0, 0, 0), geom.Pt(0, 0, 0), geom.Pt(1, 1, 0))},
		{"collinear", geom.Tri(geom.Pt(0, 0, 0), geom.Pt(1, 1, 0), geom.Pt(2, 2, 0))},
		{"tiny", geom.Tri(geom.Pt(0, 0, 0), geom.Pt(0.001, 0, 0), geom.Pt(0, 0.001, 0))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := k.ExtrudeContour(tt.tri.Loop(), mgl64.Vec3{0, 0, 1}, groundThickness)
			if !errors.Is(err, kernel.ErrDegenerateContour) {
				t.Errorf("error = %v, want ErrDegenerateContour", err)
			}
		})
	}
}

func TestMinCurveLengthOption(t *testing.T) {
	tiny := geom.Tri(geom.Pt(0, 0, 0), geom.Pt(0.001, 0, 0), geom.Pt(0, 0.001, 0))
	k := NewWithOptions(Options{MinCurveLength: 1e-4})
	if _, err := k.ExtrudeContour(tiny.Loop(), tiny.Normal(), groundThickness); err != nil {
		t.Errorf("tiny triangle rejected with relaxed min length: %v", err)
	}
}

func TestIntersectFace(t *testing.T) {
	k := New()
	tri := geom.Tri(geom.Pt(0, 0, 0), geom.Pt(10, 0, 0), geom.Pt(0, 10, 0))
	s, _ := k.ExtrudeContour(tri.Loop(), tri.Normal(), 1)
	f, _ := k.FaceByNormal(s, tri.Normal())

	cmp, pts := k.Intersect(f, geom.Seg(geom.Pt(2, 2, 5), geom.Pt(2, 2, -5)))
	if cmp != kernel.Overlap || len(pts) != 1 || !pts[0].ApproxEqual(geom.Pt(2, 2, 1), 1e-12) {
		t.Errorf("Intersect() = %v %v, want overlap at (2, 2, 1)", cmp, pts)
	}
	cmp, _ = k.Intersect(f, geom.Seg(geom.Pt(9, 9, 5), geom.Pt(9, 9, -5)))
	if cmp != kernel.Disjoint {
		t.Errorf("Intersect() outside = %v, want disjoint", cmp)
	}
}

func TestToMesh(t *testing.T) {
	k := New()
	tri := geom.Tri(geom.Pt(0, 0, 0), geom.Pt(1, 0, 0), geom.Pt(0, 1, 0))
	s, _ := k.ExtrudeContour(tri.Loop(), tri.Normal(), 1)
	m, err := k.ToMesh(s)
	if err != nil {
		t.Fatalf("ToMesh() error = %v", err)
	}
	if m.TriangleCount() != 8 {
		t.Errorf("TriangleCount() = %d, want 8", m.TriangleCount())
	}
}

type otherSolid struct{}

func (otherSolid) BoundingBox() (min, max [3]float64) { return }
func (otherSolid) Faces() []kernel.Face               { return nil }

func TestForeignSolid(t *testing.T) {
	k := New()
	if _, err := k.FaceByNormal(otherSolid{}, mgl64.Vec3{0, 0, 1}); err == nil {
		t.Error("FaceByNormal accepted a foreign solid")
	}
	if _, err := k.ToMesh(otherSolid{}); err == nil {
		t.Error("ToMesh accepted a foreign solid")
	}
}
