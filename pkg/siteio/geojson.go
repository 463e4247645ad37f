package siteio

import (
	"fmt"
	"io"
	"os"

	"github.com/chazu/sitegeom/pkg/geom"
	"github.com/chazu/sitegeom/pkg/terrain"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Feature kinds stored in the "kind" property.
const (
	KindGround  = "ground"
	KindSegment = "segment"
)

// FeatureCollection builds a plan-view collection: each ground face as a
// polygon and each segment as a line string. Elevations travel in the
// properties since orb geometry is 2D.
func FeatureCollection(faces []terrain.GroundFace, segments []geom.LineSegment) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, gf := range faces {
		var ring orb.Ring
		var zs []float64
		for _, p := range gf.Face.Boundary {
			ring = append(ring, orb.Point{p.X, p.Y})
			zs = append(zs, p.Z)
		}
		if len(ring) > 0 {
			ring = append(ring, ring[0])
		}
		f := geojson.NewFeature(orb.Polygon{ring})
		f.ID = gf.ID.String()
		f.Properties["kind"] = KindGround
		f.Properties["index"] = gf.Index
		f.Properties["elevations"] = zs
		f.Properties["normal"] = []float64{gf.Face.Normal[0], gf.Face.Normal[1], gf.Face.Normal[2]}
		fc.Append(f)
	}
	for i, seg := range segments {
		f := geojson.NewFeature(orb.LineString{
			{seg.Start.X, seg.Start.Y},
			{seg.End.X, seg.End.Y},
		})
		f.Properties["kind"] = KindSegment
		f.Properties["index"] = i
		f.Properties["elevations"] = []float64{seg.Start.Z, seg.End.Z}
		fc.Append(f)
	}
	return fc
}

// EncodeGeoJSON writes the collection built by FeatureCollection to w.
func EncodeGeoJSON(w io.Writer, faces []terrain.GroundFace, segments []geom.LineSegment) error {
	data, err := FeatureCollection(faces, segments).MarshalJSON()
	if err != nil {
		return fmt.Errorf("siteio: encode geojson: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("siteio: write geojson: %w", err)
	}
	return nil
}

// WriteGeoJSON saves the collection built by FeatureCollection to path.
func WriteGeoJSON(path string, faces []terrain.GroundFace, segments []geom.LineSegment) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("siteio: %w", err)
	}
	if err := EncodeGeoJSON(f, faces, segments); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
