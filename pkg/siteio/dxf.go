// Package siteio moves sites and built ground surfaces in and out of DXF
// drawings and GeoJSON.
package siteio

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/chazu/sitegeom/pkg/geom"
	"github.com/chazu/sitegeom/pkg/site"
	"github.com/chazu/sitegeom/pkg/terrain"
	"github.com/rpaloschi/dxf-go/document"
	"github.com/rpaloschi/dxf-go/entities"
	"github.com/yofu/dxf"
	"github.com/yofu/dxf/color"
)

// Layer names used on export, and the default survey layer on import.
const (
	GroundLayer  = "GROUND"
	SegmentLayer = "SEGMENTS"
	SurveyLayer  = "SURVEY"
)

// ErrNoGeometry is returned when a drawing holds nothing usable.
var ErrNoGeometry = errors.New("siteio: drawing has no polylines")

// ReadOptions controls how polylines are classified on import.
type ReadOptions struct {
	// SurveyLayers hold loose survey points; each vertex becomes one point.
	SurveyLayers []string
}

// DefaultReadOptions reads survey points from SurveyLayer.
func DefaultReadOptions() ReadOptions {
	return ReadOptions{SurveyLayers: []string{SurveyLayer}}
}

// polyline is one drawing polyline reduced to what the importer needs.
type polyline struct {
	layer  string
	pts    []geom.Point3D
	closed bool
}

// ReadDXF imports the polylines of a DXF file into a site named after the
// file.
func ReadDXF(path string, opts ReadOptions) (*site.Site, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("siteio: %w", err)
	}
	defer f.Close()

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	s, err := DecodeDXF(f, name, opts)
	if err != nil {
		return nil, fmt.Errorf("siteio: reading %s: %w", path, err)
	}
	return s, nil
}

// DecodeDXF imports the polylines of a DXF stream, including those nested in
// blocks.
//
// A polyline that closes on exactly three distinct vertices becomes a ground
// triangle. Polylines on a survey layer contribute their vertices as survey
// points. Everything else is split into line segments between consecutive
// vertices.
func DecodeDXF(r io.Reader, name string, opts ReadOptions) (*site.Site, error) {
	doc, err := document.DxfDocumentFromStream(r)
	if err != nil {
		return nil, fmt.Errorf("parse dxf: %w", err)
	}

	var recs []polyline
	collect := func(e any) {
		if p, ok := toPolyline(e); ok {
			recs = append(recs, p)
		}
	}
	for _, e := range doc.Entities.Entities {
		collect(e)
	}
	for _, b := range doc.Blocks {
		for _, e := range b.Entities {
			collect(e)
		}
	}
	if len(recs) == 0 {
		return nil, ErrNoGeometry
	}
	return fromPolylines(name, recs, opts), nil
}

func toPolyline(e any) (polyline, bool) {
	switch p := e.(type) {
	case *entities.Polyline:
		out := polyline{layer: p.LayerName, closed: p.Closed}
		for _, v := range p.Vertices {
			out.pts = append(out.pts, geom.Pt(v.Location.X, v.Location.Y, v.Location.Z))
		}
		return out, true
	case *entities.LWPolyline:
		out := polyline{layer: p.LayerName, closed: p.Closed}
		for _, v := range p.Points {
			out.pts = append(out.pts, geom.Pt(v.Point.X, v.Point.Y, v.Point.Z))
		}
		return out, true
	}
	return polyline{}, false
}

// ring drops a repeated closing vertex and reports whether the polyline is
// closed.
func (p polyline) ring() ([]geom.Point3D, bool) {
	pts := p.pts
	if n := len(pts); n > 3 && pts[0] == pts[n-1] {
		return pts[:n-1], true
	}
	return pts, p.closed
}

func fromPolylines(name string, recs []polyline, opts ReadOptions) *site.Site {
	s := site.New(name)
	for _, p := range recs {
		if slices.Contains(opts.SurveyLayers, p.layer) {
			for _, pt := range p.pts {
				s.AddSurveyPoint(pt)
			}
			s.NoteLayer(site.KindSurvey, p.layer)
			continue
		}
		if pts, closed := p.ring(); closed && len(pts) == 3 {
			s.AddTriangle(geom.Tri(pts[0], pts[1], pts[2]))
			s.NoteLayer(site.KindTriangle, p.layer)
			continue
		}
		if len(p.pts) < 2 {
			continue
		}
		pts, closed := p.ring()
		if closed {
			pts = append(slices.Clone(pts), pts[0])
		}
		for i := 0; i+1 < len(pts); i++ {
			s.AddSegment(geom.Seg(pts[i], pts[i+1]))
		}
		s.NoteLayer(site.KindSegment, p.layer)
	}
	return s
}

// WriteDXF saves the top faces of the ground as 3DFACE entities on
// GroundLayer and segments as LINE entities on SegmentLayer.
func WriteDXF(path string, faces []terrain.GroundFace, segments []geom.LineSegment) error {
	d := dxf.NewDrawing()
	d.Header().LtScale = 1.0

	if _, err := d.AddLayer(GroundLayer, color.Green, dxf.DefaultLineType, true); err != nil {
		return fmt.Errorf("siteio: add layer %s: %w", GroundLayer, err)
	}
	for _, gf := range faces {
		for _, t := range gf.Face.Triangulate() {
			pts := make([][]float64, 0, 4)
			for _, v := range t.Vertices() {
				pts = append(pts, []float64{v.X, v.Y, v.Z})
			}
			// A triangular 3DFACE repeats its last corner.
			pts = append(pts, pts[2])
			if _, err := d.ThreeDFace(pts); err != nil {
				return fmt.Errorf("siteio: face %d: %w", gf.Index, err)
			}
		}
	}

	if len(segments) > 0 {
		if _, err := d.AddLayer(SegmentLayer, color.Red, dxf.DefaultLineType, true); err != nil {
			return fmt.Errorf("siteio: add layer %s: %w", SegmentLayer, err)
		}
		for i, seg := range segments {
			a, b := seg.Start, seg.End
			if _, err := d.Line(a.X, a.Y, a.Z, b.X, b.Y, b.Z); err != nil {
				return fmt.Errorf("siteio: segment %d: %w", i, err)
			}
		}
	}

	if err := d.SaveAs(path); err != nil {
		return fmt.Errorf("siteio: save %s: %w", path, err)
	}
	return nil
}
