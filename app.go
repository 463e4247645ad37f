package main

import (
	"context"
	"fmt"
	"log"

	"github.com/chazu/sitegeom/pkg/config"
	"github.com/chazu/sitegeom/pkg/engine"
	"github.com/chazu/sitegeom/pkg/geom"
	"github.com/chazu/sitegeom/pkg/kernel"
	"github.com/chazu/sitegeom/pkg/kernel/brep"
	"github.com/chazu/sitegeom/pkg/kernel/sdfx"
	"github.com/chazu/sitegeom/pkg/site"
	"github.com/chazu/sitegeom/pkg/siteio"
	"github.com/chazu/sitegeom/pkg/snap"
	"github.com/chazu/sitegeom/pkg/terrain"
	"github.com/chazu/sitegeom/pkg/tessellate"
	"github.com/chazu/sitegeom/pkg/tin"
	"github.com/samber/lo"
)

// App runs a site through the whole pipeline: evaluation or import,
// triangulation, ground face construction, snapping and draping.
type App struct {
	cfg    *config.Config
	engine *engine.Engine
	kernel kernel.Kernel
}

// MeshData is the JSON-serializable mesh format.
type MeshData struct {
	Vertices []float64 `json:"vertices"`
	Normals  []float64 `json:"normals"`
	Indices  []uint32  `json:"indices"`
	PartName string    `json:"partName"`
}

// MessageData is a JSON-serializable error or warning.
type MessageData struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

// SegmentData is one input segment after snapping and draping.
type SegmentData struct {
	Index   int              `json:"index"`
	Source  geom.LineSegment `json:"source"`
	Start   geom.Point3D     `json:"start"`
	End     geom.Point3D     `json:"end"`
	Snapped bool             `json:"snapped"`
	Draped  bool             `json:"draped"`
}

// Result is the full outcome of one run.
type Result struct {
	Site     *site.Site       `json:"-"`
	Surface  *terrain.Surface `json:"-"`
	Meshes   []MeshData       `json:"meshes"`
	Segments []SegmentData    `json:"segments"`
	Errors   []MessageData    `json:"errors"`
	Warnings []MessageData    `json:"warnings"`
}

func newResult() *Result {
	return &Result{
		Meshes:   []MeshData{},
		Segments: []SegmentData{},
		Errors:   []MessageData{},
		Warnings: []MessageData{},
	}
}

func (r *Result) fail(format string, args ...any) *Result {
	r.Errors = append(r.Errors, MessageData{Message: fmt.Sprintf(format, args...)})
	return r
}

func (r *Result) warn(format string, args ...any) {
	r.Warnings = append(r.Warnings, MessageData{Message: fmt.Sprintf(format, args...)})
}

// newKernel returns the geometry backend named by the config.
func newKernel(c config.KernelConfig) (kernel.Kernel, error) {
	switch c.Backend {
	case config.BackendBRep:
		return brep.NewWithOptions(brep.Options{
			MinCurveLength:    c.MinCurveLength,
			NormalTolerance:   c.NormalTolerance,
			DistanceTolerance: c.DistanceTolerance,
		}), nil
	case config.BackendSDFX:
		return sdfx.New().
			WithMinCurveLength(c.MinCurveLength).
			WithNormalTolerance(c.NormalTolerance).
			WithDistanceTolerance(c.DistanceTolerance), nil
	}
	return nil, fmt.Errorf("%w: unknown kernel backend %q", config.ErrInvalid, c.Backend)
}

// NewApp creates an App from cfg. A nil cfg selects config.Default.
func NewApp(cfg *config.Config) (*App, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	k, err := newKernel(cfg.Kernel)
	if err != nil {
		return nil, err
	}
	return &App{
		cfg:    cfg,
		engine: engine.NewEngineWithTimeout(cfg.EvalTimeout()),
		kernel: k,
	}, nil
}

// Evaluate runs a site script through the pipeline.
func (a *App) Evaluate(name, source string) *Result {
	result := newResult()

	s, evalErrs, err := a.engine.Evaluate(name, source)
	if err != nil {
		// Fatal error (panic, timeout, etc.)
		log.Printf("Evaluate fatal error: %v", err)
		return result.fail("%v", err)
	}
	if len(evalErrs) > 0 {
		result.Errors = lo.Map(evalErrs, func(e engine.EvalError, _ int) MessageData {
			return MessageData{Line: e.Line, Col: e.Col, Message: e.Message}
		})
		return result
	}
	return a.process(s, result)
}

// Import reads a DXF drawing and runs it through the pipeline.
func (a *App) Import(path string, opts siteio.ReadOptions) *Result {
	result := newResult()
	s, err := siteio.ReadDXF(path, opts)
	if err != nil {
		log.Printf("Import error: %v", err)
		return result.fail("%v", err)
	}
	return a.process(s, result)
}

// process validates the site, builds its ground and places its segments.
func (a *App) process(s *site.Site, result *Result) *Result {
	result.Site = s
	if s.IsEmpty() {
		return result
	}

	v := site.ValidateWith(s, a.cfg.Kernel.MinCurveLength)
	for _, w := range v.Warnings {
		result.warn("%s", w)
	}
	if !v.OK() {
		result.Errors = append(result.Errors, lo.Map(v.Errors, func(e site.ValidationError, _ int) MessageData {
			return MessageData{Message: e.Error()}
		})...)
		return result
	}

	if s.NeedsTriangulation() {
		tris, err := tin.Triangles(s.Survey)
		if err != nil {
			return result.fail("triangulation failed: %v", err)
		}
		s.Ground = tris
		log.Printf("Triangulated %d survey points into %d triangles", len(s.Survey), len(tris))
	}

	surf, err := a.buildSurface(s)
	if err != nil {
		log.Printf("Ground build error: %v", err)
		return result.fail("ground build failed: %v", err)
	}
	result.Surface = surf
	for _, sk := range surf.Skipped {
		result.warn("skipped %s", sk.Error())
	}

	ground := tessellate.Ground(surf)
	if !ground.IsEmpty() {
		result.Meshes = append(result.Meshes, MeshData{
			Vertices: ground.Vertices,
			Normals:  ground.Normals,
			Indices:  ground.Indices,
			PartName: ground.PartName,
		})
	}

	if err := a.placeSegments(s, surf, result); err != nil {
		return result.fail("segment placement failed: %v", err)
	}
	return result
}

func (a *App) buildSurface(s *site.Site) (*terrain.Surface, error) {
	b := terrain.NewBuilder(a.kernel)
	b.Thickness = a.cfg.Ground.Thickness
	b.Workers = a.cfg.Ground.Workers
	if b.Workers == 1 {
		return b.BuildGroundFaces(s)
	}
	return b.BuildGroundFacesParallel(context.Background(), s)
}

// placeSegments snaps every segment and drapes it over the ground.
func (a *App) placeSegments(s *site.Site, surf *terrain.Surface, result *Result) error {
	snapped, moved := snap.AdjustAll(s.Segments, a.cfg.SnapTolerance())
	if moved > 0 {
		log.Printf("Snapped %d of %d segments", moved, len(snapped))
	}
	for i, seg := range snapped {
		sd := SegmentData{
			Index:   i,
			Source:  s.Segments[i],
			Snapped: seg != s.Segments[i],
			Start:   seg.Start,
			End:     seg.End,
		}
		if seg.Length() > 0 {
			draped, ok, err := surf.Drape(a.kernel, seg)
			if err != nil {
				return fmt.Errorf("segment %d: %w", i, err)
			}
			sd.Start, sd.End, sd.Draped = draped.Start, draped.End, ok
			if !ok {
				result.warn("segment %d is not fully over the ground", i)
			}
		}
		result.Segments = append(result.Segments, sd)
	}
	return nil
}

// Export writes the ground faces and placed segments of a successful run.
// Empty paths are skipped.
func (a *App) Export(result *Result, dxfPath, geojsonPath string) error {
	if result.Surface == nil {
		return fmt.Errorf("nothing to export")
	}
	segs := lo.Map(result.Segments, func(sd SegmentData, _ int) geom.LineSegment {
		return geom.Seg(sd.Start, sd.End)
	})
	if dxfPath != "" {
		if err := siteio.WriteDXF(dxfPath, result.Surface.Faces, segs); err != nil {
			return err
		}
	}
	if geojsonPath != "" {
		if err := siteio.WriteGeoJSON(geojsonPath, result.Surface.Faces, segs); err != nil {
			return err
		}
	}
	return nil
}
