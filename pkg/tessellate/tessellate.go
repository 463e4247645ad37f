// Package tessellate turns built ground surfaces into triangle meshes.
package tessellate

import (
	"fmt"

	"github.com/chazu/sitegeom/pkg/geom"
	"github.com/chazu/sitegeom/pkg/kernel"
	"github.com/chazu/sitegeom/pkg/terrain"
)

// GroundPartName names the welded mesh returned by Ground.
const GroundPartName = "ground"

// PartName returns the mesh name of the slab built from triangle index.
func PartName(index int) string {
	return fmt.Sprintf("%s/%d", GroundPartName, index)
}

// Tessellate produces one mesh per ground slab using the kernel that built
// the surface. Meshes follow face order and are named by the source
// triangle index. The surface is never mutated.
func Tessellate(s *terrain.Surface, k kernel.Kernel) ([]*kernel.Mesh, error) {
	if s == nil {
		return nil, nil
	}
	meshes := make([]*kernel.Mesh, 0, len(s.Faces))
	for _, gf := range s.Faces {
		mesh, err := k.ToMesh(gf.Solid)
		if err != nil {
			return nil, fmt.Errorf("tessellate: ToMesh failed for triangle %d: %w", gf.Index, err)
		}
		mesh.PartName = PartName(gf.Index)
		meshes = append(meshes, mesh)
	}
	return meshes, nil
}

// Ground welds the selected ground faces into one indexed mesh. Skipped
// triangles leave holes.
func Ground(s *terrain.Surface) *kernel.Mesh {
	if s == nil {
		return &kernel.Mesh{PartName: GroundPartName}
	}
	var tris []geom.Triangle
	for _, gf := range s.Faces {
		tris = append(tris, gf.Face.Triangulate()...)
	}
	return kernel.Weld(tris, GroundPartName)
}

// Merge concatenates meshes into one, rebasing indices.
func Merge(name string, meshes ...*kernel.Mesh) *kernel.Mesh {
	out := &kernel.Mesh{PartName: name}
	for _, m := range meshes {
		if m == nil {
			continue
		}
		base := uint32(out.VertexCount())
		out.Vertices = append(out.Vertices, m.Vertices...)
		out.Normals = append(out.Normals, m.Normals...)
		for _, i := range m.Indices {
			out.Indices = append(out.Indices, base+i)
		}
	}
	return out
}
