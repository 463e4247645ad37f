// Package geom defines the value types shared by the snapper, the geometry
// kernels and the terrain pipeline: points, segments, polylines, triangles
// and closed planar loops. All coordinates are in the host's internal
// length unit.
package geom
