package geom

// Curve is a bounded curve that can be sampled as an ordered polyline.
// Kernels intersect curves piecewise along Points.
type Curve interface {
	// Points returns the ordered samples from the curve start to its end.
	Points() []Point3D
	// Length returns the arc length of the sampled curve.
	Length() float64
}

// LineSegment is a bounded straight line from Start to End.
type LineSegment struct {
	Start Point3D `json:"start"`
	End   Point3D `json:"end"`
}

// Seg is shorthand for LineSegment{Start: a, End: b}.
func Seg(a, b Point3D) LineSegment {
	return LineSegment{Start: a, End: b}
}

// Points returns the two endpoints.
func (s LineSegment) Points() []Point3D {
	return []Point3D{s.Start, s.End}
}

// Length returns the distance between the endpoints.
func (s LineSegment) Length() float64 {
	return s.Start.Distance(s.End)
}

// At returns the point at parameter t, where 0 is Start and 1 is End.
func (s LineSegment) At(t float64) Point3D {
	return s.Start.Add(s.End.Sub(s.Start).Mul(t))
}

// IsVertical reports whether the segment has no extent in plan (dx == 0 and dy == 0).
func (s LineSegment) IsVertical() bool {
	return s.Start.X == s.End.X && s.Start.Y == s.End.Y
}

// Polyline is an open chain of straight pieces.
type Polyline []Point3D

// Points returns the vertices in order.
func (p Polyline) Points() []Point3D {
	return []Point3D(p)
}

// Length returns the sum of the piece lengths.
func (p Polyline) Length() float64 {
	var l float64
	for i := 1; i < len(p); i++ {
		l += p[i-1].Distance(p[i])
	}
	return l
}

var (
	_ Curve = LineSegment{}
	_ Curve = Polyline(nil)
)
