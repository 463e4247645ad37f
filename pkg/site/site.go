// Package site defines the terrain site model: the ground mesh, the line
// segments to place on it and the survey points the mesh may be
// triangulated from.
package site

import (
	"iter"

	"github.com/chazu/sitegeom/pkg/geom"
)

// Site is one terrain surface with the linework that belongs to it.
type Site struct {
	Name     string              `json:"name"`
	Ground   []geom.Triangle     `json:"ground,omitempty"`
	Segments []geom.LineSegment  `json:"segments,omitempty"`
	Survey   []geom.Point3D      `json:"survey,omitempty"`
	Layers   map[string][]string `json:"layers,omitempty"` // source layer names, keyed by element kind
}

// New returns an empty site.
func New(name string) *Site {
	return &Site{Name: name}
}

// AddTriangle appends a ground triangle.
func (s *Site) AddTriangle(t geom.Triangle) {
	s.Ground = append(s.Ground, t)
}

// AddSegment appends a line segment.
func (s *Site) AddSegment(seg geom.LineSegment) {
	s.Segments = append(s.Segments, seg)
}

// AddSurveyPoint appends a survey point.
func (s *Site) AddSurveyPoint(p geom.Point3D) {
	s.Survey = append(s.Survey, p)
}

// NoteLayer records that an element of the given kind came from layer.
// Duplicates are ignored.
func (s *Site) NoteLayer(kind, layer string) {
	if layer == "" {
		return
	}
	if s.Layers == nil {
		s.Layers = make(map[string][]string)
	}
	for _, l := range s.Layers[kind] {
		if l == layer {
			return
		}
	}
	s.Layers[kind] = append(s.Layers[kind], layer)
}

// Triangles yields the ground triangles in insertion order.
func (s *Site) Triangles() iter.Seq[geom.Triangle] {
	return func(yield func(geom.Triangle) bool) {
		for _, t := range s.Ground {
			if !yield(t) {
				return
			}
		}
	}
}

// NeedsTriangulation reports whether the ground has to be derived from the
// survey points.
func (s *Site) NeedsTriangulation() bool {
	return len(s.Ground) == 0 && len(s.Survey) >= 3
}

// Bound returns the box around every element of the site.
func (s *Site) Bound() geom.Bound {
	var pts []geom.Point3D
	for _, t := range s.Ground {
		pts = append(pts, t.V0, t.V1, t.V2)
	}
	for _, seg := range s.Segments {
		pts = append(pts, seg.Start, seg.End)
	}
	pts = append(pts, s.Survey...)
	return geom.BoundOf(pts...)
}

// IsEmpty reports whether the site holds no geometry.
func (s *Site) IsEmpty() bool {
	return len(s.Ground) == 0 && len(s.Segments) == 0 && len(s.Survey) == 0
}
