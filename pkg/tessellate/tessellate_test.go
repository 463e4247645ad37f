package tessellate_test

import (
	"math"
	"testing"

	"github.com/chazu/sitegeom/pkg/geom"
	"github.com/chazu/sitegeom/pkg/kernel"
	"github.com/chazu/sitegeom/pkg/kernel/brep"
	"github.com/chazu/sitegeom/pkg/kernel/sdfx"
	"github.com/chazu/sitegeom/pkg/tessellate"
	"github.com/chazu/sitegeom/pkg/terrain"
)

// square returns a flat 10x10 ground square at height z split into two
// triangles, plus one degenerate triangle.
func square(z float64) terrain.Triangles {
	return terrain.Triangles{
		geom.Tri(geom.Pt(0, 0, z), geom.Pt(10, 0, z), geom.Pt(10, 10, z)),
		geom.Tri(geom.Pt(0, 0, z), geom.Pt(10, 10, z), geom.Pt(0, 10, z)),
		geom.Tri(geom.Pt(0, 0, z), geom.Pt(1, 0, z), geom.Pt(2, 0, z)),
	}
}

func build(t *testing.T, k kernel.Kernel) *terrain.Surface {
	t.Helper()
	return buildThick(t, k, terrain.DefaultThickness)
}

func buildThick(t *testing.T, k kernel.Kernel, thickness float64) *terrain.Surface {
	t.Helper()
	b := terrain.NewBuilder(k)
	b.Thickness = thickness
	s, err := b.BuildGroundFaces(square(2))
	if err != nil {
		t.Fatalf("BuildGroundFaces: %v", err)
	}
	if len(s.Faces) != 2 || len(s.Skipped) != 1 {
		t.Fatalf("faces=%d skipped=%d, want 2 and 1", len(s.Faces), len(s.Skipped))
	}
	return s
}

func TestTessellateBRep(t *testing.T) {
	k := brep.New()
	s := build(t, k)

	meshes, err := tessellate.Tessellate(s, k)
	if err != nil {
		t.Fatalf("Tessellate failed: %v", err)
	}
	if len(meshes) != 2 {
		t.Fatalf("expected 2 meshes, got %d", len(meshes))
	}
	for i, m := range meshes {
		if want := tessellate.PartName(i); m.PartName != want {
			t.Errorf("mesh %d PartName = %q, want %q", i, m.PartName, want)
		}
		// Two caps plus three quad sides.
		if m.TriangleCount() != 8 {
			t.Errorf("mesh %d has %d triangles, want 8", i, m.TriangleCount())
		}
		b := m.Bound()
		if math.Abs(b.Min.Z-2) > 1e-9 || math.Abs(b.Max.Z-(2+terrain.DefaultThickness)) > 1e-9 {
			t.Errorf("mesh %d z range = [%v, %v]", i, b.Min.Z, b.Max.Z)
		}
	}
}

func TestTessellateSDFX(t *testing.T) {
	k := sdfx.New()
	// Thick enough for the marching cubes grid to resolve.
	s := buildThick(t, k, 1)

	meshes, err := tessellate.Tessellate(s, k)
	if err != nil {
		t.Fatalf("Tessellate failed: %v", err)
	}
	if len(meshes) != 2 {
		t.Fatalf("expected 2 meshes, got %d", len(meshes))
	}
	for _, m := range meshes {
		if m.IsEmpty() {
			t.Errorf("mesh %s should not be empty", m.PartName)
		}
		// Marching cubes is approximate.
		b := m.Bound()
		if cz := (b.Min.Z + b.Max.Z) / 2; math.Abs(cz-2.5) > 1 {
			t.Errorf("mesh %s centered at z=%.2f, expected near 2.5", m.PartName, cz)
		}
	}
}

func TestTessellateNilSurface(t *testing.T) {
	meshes, err := tessellate.Tessellate(nil, brep.New())
	if err != nil || meshes != nil {
		t.Errorf("Tessellate(nil) = %v, %v", meshes, err)
	}
}

type failingKernel struct{ kernel.Kernel }

func (failingKernel) ToMesh(kernel.Solid) (*kernel.Mesh, error) {
	return nil, kernel.ErrNoMatchingFace
}

func TestTessellateWrapsKernelError(t *testing.T) {
	k := brep.New()
	s := build(t, k)
	_, err := tessellate.Tessellate(s, failingKernel{k})
	if err == nil {
		t.Fatal("expected error")
	}
	if got := err.Error(); got != "tessellate: ToMesh failed for triangle 0: "+kernel.ErrNoMatchingFace.Error() {
		t.Errorf("error = %q", got)
	}
}

func TestGroundWeldsTopFaces(t *testing.T) {
	s := build(t, brep.New())

	m := tessellate.Ground(s)
	if m.PartName != tessellate.GroundPartName {
		t.Errorf("PartName = %q", m.PartName)
	}
	if m.TriangleCount() != 2 {
		t.Fatalf("triangles = %d, want 2", m.TriangleCount())
	}
	// The shared diagonal is welded.
	if m.VertexCount() != 4 {
		t.Errorf("vertices = %d, want 4", m.VertexCount())
	}
	top := 2 + terrain.DefaultThickness
	for i := 0; i < m.VertexCount(); i++ {
		if v := m.Vertex(uint32(i)); math.Abs(v.Z-top) > 1e-9 {
			t.Errorf("vertex %d z = %v, want %v", i, v.Z, top)
		}
		if nz := m.Normals[3*i+2]; math.Abs(nz-1) > 1e-9 {
			t.Errorf("vertex %d normal z = %v, want 1", i, nz)
		}
	}
}

func TestGroundEmpty(t *testing.T) {
	if m := tessellate.Ground(nil); !m.IsEmpty() {
		t.Error("nil surface should give an empty mesh")
	}
	if m := tessellate.Ground(&terrain.Surface{}); !m.IsEmpty() {
		t.Error("surface without faces should give an empty mesh")
	}
}

func TestMerge(t *testing.T) {
	k := brep.New()
	s := build(t, k)
	meshes, err := tessellate.Tessellate(s, k)
	if err != nil {
		t.Fatal(err)
	}
	m := tessellate.Merge("all", append(meshes, nil)...)
	if m.PartName != "all" {
		t.Errorf("PartName = %q", m.PartName)
	}
	if m.TriangleCount() != 16 {
		t.Fatalf("triangles = %d, want 16", m.TriangleCount())
	}
	n := uint32(m.VertexCount())
	for _, i := range m.Indices {
		if i >= n {
			t.Fatalf("index %d out of range %d", i, n)
		}
	}
	if m.Triangle(8) != meshes[1].Triangle(0) {
		t.Errorf("second mesh not rebased: %+v vs %+v", m.Triangle(8), meshes[1].Triangle(0))
	}
}
