// Package kernel defines the abstract geometry kernel interface used by the
// terrain pipeline. Implementations (brep, sdfx) build thin solids from
// planar contours, pick faces by outward normal and intersect faces with
// curves. The abstraction stands in for the host CAD engine so the terrain
// algorithms never touch a host object model.
package kernel

import (
	"errors"

	"github.com/chazu/sitegeom/pkg/geom"
	"github.com/go-gl/mathgl/mgl64"
)

// Tolerances shared by the backends.
const (
	// DefaultMinCurveLength is the shortest edge the engine accepts
	// (1/256 of an internal length unit).
	DefaultMinCurveLength = 1.0 / 256
	// DefaultNormalTolerance is the allowed 1 - cos(angle) between two
	// normals that are considered equal.
	DefaultNormalTolerance = 1e-9
	// DefaultDistanceTolerance is the distance under which a point lies on
	// a plane or edge.
	DefaultDistanceTolerance = 1e-9
)

var (
	// ErrDegenerateContour is returned when a contour has a short edge,
	// collinear vertices or no area.
	ErrDegenerateContour = errors.New("degenerate contour")
	// ErrInvalidThickness is returned for a non-positive or non-finite
	// extrusion distance.
	ErrInvalidThickness = errors.New("extrusion thickness must be positive")
	// ErrInvalidDirection is returned for a zero extrusion direction or one
	// lying in the contour plane.
	ErrInvalidDirection = errors.New("invalid extrusion direction")
	// ErrNoMatchingFace is returned when no face of a solid has the
	// requested outward normal.
	ErrNoMatchingFace = errors.New("no face matches normal")
)

// Solid is an opaque handle to a kernel solid.
// Implementations wrap their internal representation.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() (min, max [3]float64)
	// Faces returns the bounding faces with outward normals.
	Faces() []Face
}

// Comparison classifies a face/curve intersection.
type Comparison int

const (
	// Disjoint means the curve and face share no point.
	Disjoint Comparison = iota
	// Overlap means the curve crosses or touches the face at isolated points.
	Overlap
	// Subset means the curve runs inside the face plane.
	Subset
	// Empty means the curve has no extent.
	Empty
)

func (c Comparison) String() string {
	switch c {
	case Disjoint:
		return "disjoint"
	case Overlap:
		return "overlap"
	case Subset:
		return "subset"
	case Empty:
		return "empty"
	}
	return "unknown"
}

// Kernel is the abstract geometry kernel interface.
type Kernel interface {
	// ExtrudeContour builds a solid by sweeping the closed planar loop
	// along dir by thickness. It fails for degenerate contours.
	ExtrudeContour(loop geom.Loop, dir mgl64.Vec3, thickness float64) (Solid, error)

	// FaceByNormal returns the face of s whose outward normal matches normal.
	FaceByNormal(s Solid, normal mgl64.Vec3) (Face, error)

	// Intersect classifies c against f and, on Overlap, returns the
	// intersection points ordered along the curve.
	Intersect(f Face, c geom.Curve) (Comparison, []geom.Point3D)

	// ToMesh converts a solid to a triangle mesh.
	ToMesh(s Solid) (*Mesh, error)
}
