// Package snap aligns nearly axis-parallel line segments to the X axis so
// that downstream modeling tolerances do not reject them.
//
// Only the plan (XY) slope is considered; Z is carried through unchanged.
package snap

import (
	"math"

	"github.com/chazu/sitegeom/pkg/geom"
)

// Default tolerance values.
const (
	DefaultMinSlope        = 1e-9
	DefaultMaxAngleDegrees = 0.2
	// DefaultCompensation widens the angular window to absorb rounding in
	// imported coordinates.
	DefaultCompensation = 1e-3
)

// Tolerance bounds the slope window in which a segment is snapped.
type Tolerance struct {
	Min          float64 // slopes at or below this are already flat
	MaxDegrees   float64 // angular half-width of the snap window
	Compensation float64 // added to tan(MaxDegrees)
}

// DefaultTolerance returns the tolerance used by the host engine.
func DefaultTolerance() Tolerance {
	return Tolerance{
		Min:          DefaultMinSlope,
		MaxDegrees:   DefaultMaxAngleDegrees,
		Compensation: DefaultCompensation,
	}
}

// Threshold returns the exclusive upper slope bound of the snap window.
func (t Tolerance) Threshold() float64 {
	return math.Tan(t.MaxDegrees*math.Pi/180.0) + t.Compensation
}

// Slope returns dy/dx in plan. A segment with dx == 0 yields ±Inf, or NaN
// when dy is zero too.
func Slope(p1, p2 geom.Point3D) float64 {
	return (p2.Y - p1.Y) / (p2.X - p1.X)
}

// inWindow reports whether |m| lies strictly inside (t.Min, t.Threshold()).
// Non-finite slopes are outside.
func (t Tolerance) inWindow(m float64) bool {
	if math.IsNaN(m) || math.IsInf(m, 0) {
		return false
	}
	a := math.Abs(m)
	return a > t.Min && a < t.Threshold()
}

// Adjust returns the segment endpoints with p2 moved onto p1's Y when the
// plan slope lies strictly inside the snap window. Otherwise, including
// vertical segments whose slope is not finite, the points are returned
// unchanged. p1 is never moved.
func Adjust(p1, p2 geom.Point3D, tol Tolerance) (geom.Point3D, geom.Point3D) {
	m := Slope(p1, p2)
	if !tol.inWindow(m) {
		return p1, p2
	}
	if math.Abs(m) < tol.Threshold() {
		p2.Y = p1.Y
	} else {
		// Y-axis alignment. Unreachable while inWindow bounds |m| by the
		// same threshold.
		p2.X = p1.X
	}
	return p1, p2
}

// Snapped reports whether Adjust would move p2.
func Snapped(p1, p2 geom.Point3D, tol Tolerance) bool {
	return tol.inWindow(Slope(p1, p2))
}

// AdjustSegment applies Adjust to a segment.
func AdjustSegment(s geom.LineSegment, tol Tolerance) geom.LineSegment {
	a, b := Adjust(s.Start, s.End, tol)
	return geom.LineSegment{Start: a, End: b}
}

// AdjustAll applies AdjustSegment to every segment and returns the results in
// the same order together with the number of segments that moved.
func AdjustAll(segs []geom.LineSegment, tol Tolerance) ([]geom.LineSegment, int) {
	out := make([]geom.LineSegment, len(segs))
	var moved int
	for i, s := range segs {
		out[i] = AdjustSegment(s, tol)
		if out[i] != s {
			moved++
		}
	}
	return out, moved
}
