// Package sdfx implements the kernel.Kernel interface using the
// github.com/deadsy/sdfx SDF-based CAD library.
//
// A contour is mapped into its own plane frame, turned into an sdf.Polygon2D,
// extruded with sdf.Extrude3D and transformed back into model space. Signed
// distance fields carry no face topology, so the prism boundary is kept
// alongside the field and every selected face is checked against the field
// gradient before it is returned.
package sdfx

import (
	"fmt"
	"math"

	"github.com/chazu/sitegeom/pkg/geom"
	"github.com/chazu/sitegeom/pkg/kernel"
	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/go-gl/mathgl/mgl64"
)

// Compile-time interface check.
var _ kernel.Kernel = (*SdfxKernel)(nil)

// defaultMeshCells controls marching cubes tessellation resolution.
const defaultMeshCells = 200

// gradientTolerance is the allowed 1 - cos(angle) between a face normal and
// the sampled field gradient.
const gradientTolerance = 1e-3

// sdfxSolid wraps an sdf.SDF3 and the prism it was built from.
type sdfxSolid struct {
	s     sdf.SDF3
	prism *kernel.Prism
	probe float64 // finite difference step for gradient checks
}

// BoundingBox returns the axis-aligned bounding box.
func (s *sdfxSolid) BoundingBox() (min, max [3]float64) {
	bb := s.s.BoundingBox()
	min = [3]float64{bb.Min.X, bb.Min.Y, bb.Min.Z}
	max = [3]float64{bb.Max.X, bb.Max.Y, bb.Max.Z}
	return min, max
}

// Faces returns the prism faces.
func (s *sdfxSolid) Faces() []kernel.Face {
	return s.prism.Faces()
}

// SdfxKernel implements kernel.Kernel using sdfx.
type SdfxKernel struct {
	minCurveLength float64
	normalTol      float64
	distanceTol    float64
}

// New returns a new SdfxKernel with default tolerances.
func New() *SdfxKernel {
	return &SdfxKernel{
		minCurveLength: kernel.DefaultMinCurveLength,
		normalTol:      kernel.DefaultNormalTolerance,
		distanceTol:    kernel.DefaultDistanceTolerance,
	}
}

// WithMinCurveLength returns a copy of k using l as the shortest accepted edge.
func (k *SdfxKernel) WithMinCurveLength(l float64) *SdfxKernel {
	c := *k
	if l > 0 {
		c.minCurveLength = l
	}
	return &c
}

// WithNormalTolerance returns a copy of k that accepts face normals within
// tol of the requested direction, measured as 1 - cos(angle).
func (k *SdfxKernel) WithNormalTolerance(tol float64) *SdfxKernel {
	c := *k
	if tol > 0 {
		c.normalTol = tol
	}
	return &c
}

// WithDistanceTolerance returns a copy of k using tol as the face/curve
// intersection distance tolerance.
func (k *SdfxKernel) WithDistanceTolerance(tol float64) *SdfxKernel {
	c := *k
	if tol > 0 {
		c.distanceTol = tol
	}
	return &c
}

// unwrap extracts the sdfxSolid from a kernel.Solid.
func unwrap(s kernel.Solid) (*sdfxSolid, error) {
	ss, ok := s.(*sdfxSolid)
	if !ok || ss == nil {
		return nil, fmt.Errorf("sdfx: foreign solid %T", s)
	}
	return ss, nil
}

// toV3 converts a model-space point to an sdfx vector.
func toV3(p geom.Point3D) v3.Vec {
	return v3.Vec{X: p.X, Y: p.Y, Z: p.Z}
}

// planeRotation returns the rotation taking +Z onto n together with the
// images of +X and +Y. Rotation is RotateZ(phi) * RotateY(theta).
func planeRotation(n mgl64.Vec3) (rot sdf.M44, ex, ey mgl64.Vec3) {
	theta := math.Acos(math.Max(-1, math.Min(1, n[2])))
	phi := math.Atan2(n[1], n[0])
	st, ct := math.Sincos(theta)
	sp, cp := math.Sincos(phi)
	ex = mgl64.Vec3{ct * cp, ct * sp, -st}
	ey = mgl64.Vec3{-sp, cp, 0}
	return sdf.RotateZ(phi).Mul(sdf.RotateY(theta)), ex, ey
}

// ExtrudeContour builds the contour polygon in its plane frame, extrudes it
// by thickness and places it so the base lies on the contour plane.
// Only extrusion along the plane normal is supported.
func (k *SdfxKernel) ExtrudeContour(loop geom.Loop, dir mgl64.Vec3, thickness float64) (kernel.Solid, error) {
	prism, err := kernel.NewPrism(loop, dir, thickness, k.minCurveLength)
	if err != nil {
		return nil, fmt.Errorf("sdfx: extrude: %w", err)
	}
	n := prism.PlaneNormal
	if dir.Normalize().Dot(n) < 1-k.normalTol {
		return nil, fmt.Errorf("sdfx: oblique extrusion: %w", kernel.ErrInvalidDirection)
	}

	rot, ex, ey := planeRotation(n)
	origin := prism.Base.Centroid()

	verts := make([]v2.Vec, len(prism.Base))
	clearance := math.Inf(1)
	for i, p := range prism.Base {
		d := p.Sub(origin)
		verts[i] = v2.Vec{X: d.Dot(ex), Y: d.Dot(ey)}
	}
	for i := range verts {
		a, b := verts[i], verts[(i+1)%len(verts)]
		clearance = math.Min(clearance, distToLine(v2.Vec{}, a, b))
	}

	s2, err := sdf.Polygon2D(verts)
	if err != nil {
		return nil, fmt.Errorf("sdfx: polygon: %w: %w", kernel.ErrDegenerateContour, err)
	}
	s3 := sdf.Extrude3D(s2, thickness)

	// Extrude3D is centred on z=0; lift it so the base sits on the plane.
	m := sdf.Translate3d(toV3(origin)).Mul(rot).Mul(sdf.Translate3d(v3.Vec{X: 0, Y: 0, Z: thickness / 2}))

	return &sdfxSolid{
		s:     sdf.Transform3D(s3, m),
		prism: prism,
		probe: math.Min(thickness, clearance) / 8,
	}, nil
}

// distToLine returns the distance from p to the infinite line through a, b.
func distToLine(p, a, b v2.Vec) float64 {
	dx, dy := b.X-a.X, b.Y-a.Y
	l := math.Hypot(dx, dy)
	if l == 0 {
		return math.Hypot(p.X-a.X, p.Y-a.Y)
	}
	return math.Abs(dx*(a.Y-p.Y)-dy*(a.X-p.X)) / l
}

// gradient samples the field gradient at p by central differences.
func (s *sdfxSolid) gradient(p geom.Point3D) mgl64.Vec3 {
	h := s.probe
	var g mgl64.Vec3
	for axis := 0; axis < 3; axis++ {
		var step mgl64.Vec3
		step[axis] = h
		g[axis] = (s.s.Evaluate(toV3(p.Add(step))) - s.s.Evaluate(toV3(p.Add(step.Mul(-1))))) / (2 * h)
	}
	return g
}

// FaceByNormal selects the prism face with the given outward normal and
// confirms that the field agrees: the face centroid lies on the zero set
// and the gradient there points along the face normal.
func (k *SdfxKernel) FaceByNormal(s kernel.Solid, normal mgl64.Vec3) (kernel.Face, error) {
	ss, err := unwrap(s)
	if err != nil {
		return kernel.Face{}, err
	}
	f, err := kernel.SelectByNormal(ss.Faces(), normal, k.normalTol)
	if err != nil {
		return kernel.Face{}, fmt.Errorf("sdfx: %w", err)
	}

	c := f.Centroid()
	if v := ss.s.Evaluate(toV3(c)); math.Abs(v) > ss.probe/2 {
		return kernel.Face{}, fmt.Errorf("sdfx: face centroid %v is %g off the surface: %w", c, v, kernel.ErrNoMatchingFace)
	}
	g := ss.gradient(c)
	if gl := g.Len(); gl == 0 || g.Mul(1/gl).Dot(f.Normal) < 1-gradientTolerance {
		return kernel.Face{}, fmt.Errorf("sdfx: field gradient %v disagrees with face normal %v: %w", g, f.Normal, kernel.ErrNoMatchingFace)
	}
	return f, nil
}

// Intersect intersects a planar face with a curve.
func (k *SdfxKernel) Intersect(f kernel.Face, c geom.Curve) (kernel.Comparison, []geom.Point3D) {
	return kernel.IntersectPlanar(f, c, k.distanceTol)
}

// ToMesh converts a solid to a triangle mesh using marching cubes.
func (k *SdfxKernel) ToMesh(s kernel.Solid) (*kernel.Mesh, error) {
	ss, err := unwrap(s)
	if err != nil {
		return nil, err
	}

	renderer := render.NewMarchingCubesUniform(defaultMeshCells)
	triangles := render.ToTriangles(ss.s, renderer)

	numTri := len(triangles)
	numVerts := numTri * 3

	mesh := &kernel.Mesh{
		Vertices: make([]float64, 0, numVerts*3),
		Normals:  make([]float64, 0, numVerts*3),
		Indices:  make([]uint32, 0, numVerts),
	}

	for _, tri := range triangles {
		// Compute face normal.
		n := tri.Normal()
		normal := mgl64.Vec3{n.X, n.Y, n.Z}

		for j := 0; j < 3; j++ {
			v := tri[j]
			idx := mesh.AddVertex(geom.Pt(v.X, v.Y, v.Z), normal)
			mesh.Indices = append(mesh.Indices, idx)
		}
	}

	return mesh, nil
}
