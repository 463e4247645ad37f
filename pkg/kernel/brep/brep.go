// Package brep implements the kernel.Kernel interface with exact planar
// boundary representations. Solids are straight prisms whose faces are
// kept as oriented polygons, so face selection and intersection are exact
// up to the configured tolerances.
package brep

import (
	"fmt"

	"github.com/chazu/sitegeom/pkg/geom"
	"github.com/chazu/sitegeom/pkg/kernel"
	"github.com/go-gl/mathgl/mgl64"
)

// Compile-time interface check.
var _ kernel.Kernel = (*Kernel)(nil)

// solid wraps a kernel.Prism to implement kernel.Solid.
type solid struct {
	*kernel.Prism
}

// Options tunes the kernel tolerances. Zero fields take the kernel defaults.
type Options struct {
	MinCurveLength    float64
	NormalTolerance   float64
	DistanceTolerance float64
}

// Kernel implements kernel.Kernel with planar B-reps.
type Kernel struct {
	opts Options
}

// New returns a Kernel with default tolerances.
func New() *Kernel {
	return NewWithOptions(Options{})
}

// NewWithOptions returns a Kernel using opts.
func NewWithOptions(opts Options) *Kernel {
	if opts.MinCurveLength <= 0 {
		opts.MinCurveLength = kernel.DefaultMinCurveLength
	}
	if opts.NormalTolerance <= 0 {
		opts.NormalTolerance = kernel.DefaultNormalTolerance
	}
	if opts.DistanceTolerance <= 0 {
		opts.DistanceTolerance = kernel.DefaultDistanceTolerance
	}
	return &Kernel{opts: opts}
}

// unwrap extracts the prism from a kernel.Solid produced by this kernel.
func unwrap(s kernel.Solid) (*kernel.Prism, error) {
	b, ok := s.(*solid)
	if !ok || b == nil || b.Prism == nil {
		return nil, fmt.Errorf("brep: foreign solid %T", s)
	}
	return b.Prism, nil
}

// ExtrudeContour sweeps the contour along dir by thickness.
func (k *Kernel) ExtrudeContour(loop geom.Loop, dir mgl64.Vec3, thickness float64) (kernel.Solid, error) {
	p, err := kernel.NewPrism(loop, dir, thickness, k.opts.MinCurveLength)
	if err != nil {
		return nil, fmt.Errorf("brep: extrude: %w", err)
	}
	return &solid{Prism: p}, nil
}

// FaceByNormal returns the face of s whose outward normal matches normal.
func (k *Kernel) FaceByNormal(s kernel.Solid, normal mgl64.Vec3) (kernel.Face, error) {
	p, err := unwrap(s)
	if err != nil {
		return kernel.Face{}, err
	}
	return kernel.SelectByNormal(p.Faces(), normal, k.opts.NormalTolerance)
}

// Intersect intersects a face with a curve.
func (k *Kernel) Intersect(f kernel.Face, c geom.Curve) (kernel.Comparison, []geom.Point3D) {
	return kernel.IntersectPlanar(f, c, k.opts.DistanceTolerance)
}

// ToMesh triangulates the faces of s.
func (k *Kernel) ToMesh(s kernel.Solid) (*kernel.Mesh, error) {
	p, err := unwrap(s)
	if err != nil {
		return nil, err
	}
	return p.Mesh(), nil
}
