// Package terrain turns a triangulated terrain surface into thin oriented
// ground faces and finds where curves first meet them.
//
// Each mesh triangle is closed into a planar contour, extruded along its
// own normal by a small fixed thickness and the face of the resulting slab
// whose outward normal matches the triangle normal is kept. Triangles the
// kernel cannot build are skipped and reported; they never abort the batch.
package terrain

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"runtime"

	"github.com/chazu/sitegeom/pkg/geom"
	"github.com/chazu/sitegeom/pkg/kernel"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// DefaultThickness is the ground slab thickness: 1 cm in feet.
const DefaultThickness = 0.0328084

var (
	// ErrNoTriangles is returned when the source yields nothing.
	ErrNoTriangles = errors.New("terrain: no triangles")
	// ErrNilSource is returned for a nil triangle source.
	ErrNilSource = errors.New("terrain: nil triangle source")
	// ErrNilKernel is returned when the builder has no kernel.
	ErrNilKernel = errors.New("terrain: nil kernel")
	// ErrKernelPanic wraps a panic raised by the kernel for one triangle.
	ErrKernelPanic = errors.New("terrain: kernel panic")
)

// faceNamespace seeds the content-addressed ground face IDs.
var faceNamespace = uuid.MustParse("6f1d3a52-8c1e-4d8b-9a57-2f0c4e9b7d31")

// GroundFace is the usable top face of the slab built from one triangle.
type GroundFace struct {
	ID       uuid.UUID     // derived from the triangle coordinates
	Index    int           // position of the triangle in the source
	Triangle geom.Triangle // the mesh triangle it was built from
	Solid    kernel.Solid  // the slab
	Face     kernel.Face   // the slab face whose normal matches the triangle
}

// SkippedTriangle records a triangle that produced no ground face.
type SkippedTriangle struct {
	Index    int
	Triangle geom.Triangle
	Err      error
}

func (s SkippedTriangle) Error() string {
	return fmt.Sprintf("triangle %d: %v", s.Index, s.Err)
}

func (s SkippedTriangle) Unwrap() error {
	return s.Err
}

// Surface is the output of a build: ground faces in source order and the
// triangles that were skipped.
type Surface struct {
	Faces   []GroundFace
	Skipped []SkippedTriangle
	Total   int // triangles read from the source
}

// Bounds returns the box around all ground faces.
func (s *Surface) Bounds() geom.Bound {
	var b geom.Bound
	for i, f := range s.Faces {
		fb := geom.BoundOf(f.Face.Boundary...)
		if i == 0 {
			b = fb
			continue
		}
		b = b.Union(fb)
	}
	return b
}

// FaceID derives the content-addressed ID of the ground face built from t.
func FaceID(t geom.Triangle) uuid.UUID {
	buf := make([]byte, 0, 9*8)
	for _, v := range t.Vertices() {
		for _, c := range [3]float64{v.X, v.Y, v.Z} {
			buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(c))
		}
	}
	return uuid.NewSHA1(faceNamespace, buf)
}

// Builder converts triangles to ground faces with a kernel.
type Builder struct {
	Kernel    kernel.Kernel
	Thickness float64 // slab thickness, DefaultThickness when zero
	Workers   int     // parallel workers, GOMAXPROCS when zero
}

// NewBuilder returns a Builder with the default thickness.
func NewBuilder(k kernel.Kernel) *Builder {
	return &Builder{Kernel: k, Thickness: DefaultThickness}
}

func (b *Builder) thickness() float64 {
	if b.Thickness == 0 {
		return DefaultThickness
	}
	return b.Thickness
}

func (b *Builder) check(src TriangleSource) error {
	if b.Kernel == nil {
		return ErrNilKernel
	}
	if src == nil {
		return ErrNilSource
	}
	if t := b.thickness(); !(t > 0) || math.IsInf(t, 0) {
		return fmt.Errorf("terrain: thickness %g: %w", t, kernel.ErrInvalidThickness)
	}
	return nil
}

// buildOne turns a single triangle into a ground face.
func (b *Builder) buildOne(i int, t geom.Triangle) (gf GroundFace, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrKernelPanic, r)
		}
	}()

	loop := t.Loop()
	n, ok := loop.Normal()
	if !ok {
		return GroundFace{}, fmt.Errorf("%w: %w", kernel.ErrDegenerateContour, geom.ErrCollinear)
	}
	s, err := b.Kernel.ExtrudeContour(loop, n, b.thickness())
	if err != nil {
		return GroundFace{}, err
	}
	f, err := b.Kernel.FaceByNormal(s, n)
	if err != nil {
		return GroundFace{}, err
	}
	return GroundFace{
		ID:       FaceID(t),
		Index:    i,
		Triangle: t,
		Solid:    s,
		Face:     f,
	}, nil
}

// record appends the outcome for triangle i to the surface.
func (s *Surface) record(i int, t geom.Triangle, gf GroundFace, err error) {
	if err != nil {
		s.Skipped = append(s.Skipped, SkippedTriangle{Index: i, Triangle: t, Err: err})
		Logger().Warn("skipping ground triangle",
			"index", i,
			"v0", t.V0.String(), "v1", t.V1.String(), "v2", t.V2.String(),
			"err", err)
		return
	}
	s.Faces = append(s.Faces, gf)
}

func logSummary(s *Surface) {
	Logger().Debug("ground faces built",
		"triangles", s.Total,
		"faces", len(s.Faces),
		"skipped", len(s.Skipped))
}

// BuildGroundFaces builds one ground face per valid triangle, in source
// order. Triangles the kernel rejects are recorded in Surface.Skipped.
// Only precondition violations (nil kernel or source, invalid thickness,
// empty source) are returned as errors.
func (b *Builder) BuildGroundFaces(src TriangleSource) (*Surface, error) {
	if err := b.check(src); err != nil {
		return nil, err
	}
	s := &Surface{}
	for t := range src.Triangles() {
		i := s.Total
		s.Total++
		gf, err := b.buildOne(i, t)
		s.record(i, t, gf, err)
	}
	if s.Total == 0 {
		return nil, ErrNoTriangles
	}
	logSummary(s)
	return s, nil
}

// BuildGroundFacesParallel is BuildGroundFaces spread over Workers
// goroutines. The result is identical to the sequential build: faces and
// skips are merged back into source order. Cancelling ctx abandons the
// batch and returns the context error.
func (b *Builder) BuildGroundFacesParallel(ctx context.Context, src TriangleSource) (*Surface, error) {
	if err := b.check(src); err != nil {
		return nil, err
	}
	tris := collect(src)
	if len(tris) == 0 {
		return nil, ErrNoTriangles
	}

	workers := b.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	faces := make([]GroundFace, len(tris))
	errs := make([]error, len(tris))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, t := range tris {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			faces[i], errs[i] = b.buildOne(i, t)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s := &Surface{Total: len(tris)}
	for i, t := range tris {
		s.record(i, t, faces[i], errs[i])
	}
	logSummary(s)
	return s, nil
}
