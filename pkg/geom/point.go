package geom

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Point3D is a position in model space.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Pt is shorthand for Point3D{X: x, Y: y, Z: z}.
func Pt(x, y, z float64) Point3D {
	return Point3D{X: x, Y: y, Z: z}
}

// FromVec converts a mathgl vector to a point.
func FromVec(v mgl64.Vec3) Point3D {
	return Point3D{X: v[0], Y: v[1], Z: v[2]}
}

// Vec returns the point as a mathgl vector.
func (p Point3D) Vec() mgl64.Vec3 {
	return mgl64.Vec3{p.X, p.Y, p.Z}
}

// Add returns p translated by v.
func (p Point3D) Add(v mgl64.Vec3) Point3D {
	return Point3D{X: p.X + v[0], Y: p.Y + v[1], Z: p.Z + v[2]}
}

// Sub returns the vector from q to p.
func (p Point3D) Sub(q Point3D) mgl64.Vec3 {
	return mgl64.Vec3{p.X - q.X, p.Y - q.Y, p.Z - q.Z}
}

// Distance returns the Euclidean distance between p and q.
func (p Point3D) Distance(q Point3D) float64 {
	return p.Sub(q).Len()
}

// ApproxEqual reports whether every coordinate of p and q differs by at most tol.
func (p Point3D) ApproxEqual(q Point3D, tol float64) bool {
	return math.Abs(p.X-q.X) <= tol &&
		math.Abs(p.Y-q.Y) <= tol &&
		math.Abs(p.Z-q.Z) <= tol
}

// IsFinite reports whether no coordinate is NaN or infinite.
func (p Point3D) IsFinite() bool {
	for _, c := range [3]float64{p.X, p.Y, p.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

func (p Point3D) String() string {
	return fmt.Sprintf("(%g, %g, %g)", p.X, p.Y, p.Z)
}

// Bound is an axis-aligned bounding box.
type Bound struct {
	Min, Max Point3D
}

// BoundOf returns the bounding box of pts. The zero Bound is returned for no points.
func BoundOf(pts ...Point3D) Bound {
	if len(pts) == 0 {
		return Bound{}
	}
	b := Bound{Min: pts[0], Max: pts[0]}
	for _, p := range pts[1:] {
		b = b.Extend(p)
	}
	return b
}

// Extend grows b to contain p.
func (b Bound) Extend(p Point3D) Bound {
	return Bound{
		Min: Point3D{X: math.Min(b.Min.X, p.X), Y: math.Min(b.Min.Y, p.Y), Z: math.Min(b.Min.Z, p.Z)},
		Max: Point3D{X: math.Max(b.Max.X, p.X), Y: math.Max(b.Max.Y, p.Y), Z: math.Max(b.Max.Z, p.Z)},
	}
}

// Union returns the smallest box containing b and o.
func (b Bound) Union(o Bound) Bound {
	return b.Extend(o.Min).Extend(o.Max)
}

// ContainsXY reports whether (x, y) lies inside the box's plan footprint.
func (b Bound) ContainsXY(x, y float64) bool {
	return x >= b.Min.X && x <= b.Max.X && y >= b.Min.Y && y <= b.Max.Y
}
