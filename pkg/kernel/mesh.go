package kernel

import (
	"iter"

	"github.com/chazu/sitegeom/pkg/geom"
	"github.com/go-gl/mathgl/mgl64"
)

// Mesh is a triangle mesh. All arrays are flat: vertices has 3 floats per
// vertex (x,y,z), normals has 3 floats per vertex, indices has 3 uint32s
// per triangle. Coordinates stay float64 because site coordinates are
// often far from the origin.
type Mesh struct {
	Vertices []float64 `json:"vertices"` // [x0,y0,z0, x1,y1,z1, ...]
	Normals  []float64 `json:"normals"`  // [nx0,ny0,nz0, ...]
	Indices  []uint32  `json:"indices"`  // [i0,i1,i2, ...] triangles
	PartName string    `json:"partName"` // which ground face or surface this came from
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices) / 3
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// IsEmpty returns true if the mesh has no geometry.
func (m *Mesh) IsEmpty() bool {
	return len(m.Vertices) == 0
}

// Vertex returns vertex i.
func (m *Mesh) Vertex(i uint32) geom.Point3D {
	return geom.Pt(m.Vertices[3*i], m.Vertices[3*i+1], m.Vertices[3*i+2])
}

// Triangle returns triangle i in index order.
func (m *Mesh) Triangle(i int) geom.Triangle {
	return geom.Tri(
		m.Vertex(m.Indices[3*i]),
		m.Vertex(m.Indices[3*i+1]),
		m.Vertex(m.Indices[3*i+2]),
	)
}

// Triangles yields every triangle in index order. Iteration order is stable,
// which makes a Mesh a triangle source for the terrain builder.
func (m *Mesh) Triangles() iter.Seq[geom.Triangle] {
	return func(yield func(geom.Triangle) bool) {
		for i := 0; i < m.TriangleCount(); i++ {
			if !yield(m.Triangle(i)) {
				return
			}
		}
	}
}

// AddVertex appends a vertex with its normal and returns its index.
func (m *Mesh) AddVertex(p geom.Point3D, n mgl64.Vec3) uint32 {
	idx := uint32(m.VertexCount())
	m.Vertices = append(m.Vertices, p.X, p.Y, p.Z)
	m.Normals = append(m.Normals, n[0], n[1], n[2])
	return idx
}

// AddTriangle appends an unshared triangle with a flat normal.
func (m *Mesh) AddTriangle(t geom.Triangle, n mgl64.Vec3) {
	for _, v := range t.Vertices() {
		m.Indices = append(m.Indices, m.AddVertex(v, n))
	}
}

// Bound returns the box around all vertices.
func (m *Mesh) Bound() geom.Bound {
	if m.IsEmpty() {
		return geom.Bound{}
	}
	b := geom.BoundOf(m.Vertex(0))
	for i := 1; i < m.VertexCount(); i++ {
		b = b.Extend(m.Vertex(uint32(i)))
	}
	return b
}

// Weld joins triangles into an indexed mesh, sharing vertices with equal
// coordinates. Vertex normals are the area-weighted sum of the adjacent
// face normals.
func Weld(tris []geom.Triangle, name string) *Mesh {
	m := &Mesh{PartName: name}
	index := make(map[geom.Point3D]uint32)
	var sums []mgl64.Vec3
	for _, t := range tris {
		// Cross product length is twice the area.
		w := t.V1.Sub(t.V0).Cross(t.V2.Sub(t.V0))
		for _, v := range t.Vertices() {
			i, ok := index[v]
			if !ok {
				i = m.AddVertex(v, mgl64.Vec3{})
				index[v] = i
				sums = append(sums, mgl64.Vec3{})
			}
			sums[i] = sums[i].Add(w)
			m.Indices = append(m.Indices, i)
		}
	}
	for i, s := range sums {
		if l := s.Len(); l > 0 {
			s = s.Mul(1 / l)
		}
		copy(m.Normals[3*i:3*i+3], s[:])
	}
	return m
}
