package terrain

import (
	"iter"

	"github.com/chazu/sitegeom/pkg/geom"
)

// TriangleSource yields the triangles of a terrain surface in a stable,
// repeatable order. kernel.Mesh, site.Site and Triangles implement it.
type TriangleSource interface {
	Triangles() iter.Seq[geom.Triangle]
}

// Triangles is an in-memory TriangleSource.
type Triangles []geom.Triangle

// Triangles yields the slice in order.
func (ts Triangles) Triangles() iter.Seq[geom.Triangle] {
	return func(yield func(geom.Triangle) bool) {
		for _, t := range ts {
			if !yield(t) {
				return
			}
		}
	}
}

// collect drains a source into a slice.
func collect(src TriangleSource) []geom.Triangle {
	var out []geom.Triangle
	for t := range src.Triangles() {
		out = append(out, t)
	}
	return out
}
