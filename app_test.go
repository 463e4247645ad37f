package main

import (
	"math"
	"os"
	"testing"

	"github.com/chazu/sitegeom/pkg/geom"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	app, err := NewApp(nil)
	if err != nil {
		t.Fatalf("NewApp: %v", err)
	}
	return app
}

func requireNoErrors(t *testing.T, result *Result) {
	t.Helper()
	if len(result.Errors) > 0 {
		for _, e := range result.Errors {
			t.Errorf("error (line %d): %s", e.Line, e.Message)
		}
		t.FailNow()
	}
}

// TestE2ELotExample exercises the full pipeline: script -> engine -> site
// -> ground faces -> snapped and draped segments.
func TestE2ELotExample(t *testing.T) {
	app := newTestApp(t)

	source, err := os.ReadFile("examples/lot7.lisp")
	if err != nil {
		t.Fatalf("failed to read lot7.lisp: %v", err)
	}
	result := app.Evaluate("lot7", string(source))
	requireNoErrors(t, result)

	if result.Site.Name != "lot 7" {
		t.Errorf("site name = %q", result.Site.Name)
	}
	if got := len(result.Surface.Faces); got != 4 {
		t.Fatalf("expected 4 ground faces, got %d", got)
	}
	if len(result.Surface.Skipped) != 0 {
		t.Errorf("unexpected skips: %v", result.Surface.Skipped)
	}
	if len(result.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", result.Warnings)
	}

	if len(result.Meshes) != 1 {
		t.Fatalf("expected 1 ground mesh, got %d", len(result.Meshes))
	}
	m := result.Meshes[0]
	if len(m.Indices) != 12 {
		t.Errorf("ground mesh has %d indices, want 12", len(m.Indices))
	}
	// Each face is offset along its own normal, so corners are not shared.
	if len(m.Vertices) != 36 || len(m.Normals) != 36 {
		t.Errorf("ground mesh has %d vertex coords and %d normal coords, want 36", len(m.Vertices), len(m.Normals))
	}

	// Driveway plus the two fence spans.
	if len(result.Segments) != 3 {
		t.Fatalf("expected 3 segments, got %d", len(result.Segments))
	}
	wantSnapped := []bool{true, false, true}
	for i, sd := range result.Segments {
		if sd.Snapped != wantSnapped[i] {
			t.Errorf("segment %d snapped = %t, want %t", i, sd.Snapped, wantSnapped[i])
		}
		if !sd.Draped {
			t.Errorf("segment %d should be draped", i)
		}
		if sd.Start.Z < 10 || sd.End.Z < 10 {
			t.Errorf("segment %d not lifted onto the ground: %v -> %v", i, sd.Start, sd.End)
		}
		if sd.Start.Y != sd.End.Y {
			t.Errorf("segment %d not axis aligned: %v -> %v", i, sd.Start, sd.End)
		}
	}
	if d := result.Segments[0]; d.Source.End.Y != 5.02 || d.End.Y != 5 {
		t.Errorf("driveway snap: source %v, placed %v", d.Source.End, d.End)
	}
}

// TestE2ESurveyExample triangulates spot elevations before building.
func TestE2ESurveyExample(t *testing.T) {
	app := newTestApp(t)

	source, err := os.ReadFile("examples/survey.lisp")
	if err != nil {
		t.Fatalf("failed to read survey.lisp: %v", err)
	}
	result := app.Evaluate("survey", string(source))
	requireNoErrors(t, result)

	if len(result.Site.Ground) == 0 {
		t.Fatal("survey points were not triangulated")
	}
	if len(result.Surface.Faces) == 0 {
		t.Fatal("expected ground faces")
	}
	if len(result.Segments) != 1 || !result.Segments[0].Snapped {
		t.Errorf("segments = %+v", result.Segments)
	}
}

// TestE2EEmptySource ensures the pipeline handles empty input gracefully.
func TestE2EEmptySource(t *testing.T) {
	result := newTestApp(t).Evaluate("empty", "")

	if len(result.Errors) > 0 {
		t.Errorf("unexpected errors for empty source: %v", result.Errors)
	}
	if len(result.Meshes) != 0 {
		t.Errorf("expected 0 meshes for empty source, got %d", len(result.Meshes))
	}
	if result.Surface != nil {
		t.Error("empty source should not build a surface")
	}
}

// TestE2ESyntaxError ensures eval errors are reported, not fatal errors.
func TestE2ESyntaxError(t *testing.T) {
	result := newTestApp(t).Evaluate("", `(triangle (pt 0 0 0)`)

	if len(result.Errors) == 0 {
		t.Fatal("expected eval errors for syntax error")
	}
	if len(result.Meshes) != 0 {
		t.Errorf("expected 0 meshes on error, got %d", len(result.Meshes))
	}
}

// TestE2ESingleTriangle ensures a minimal script builds one face.
func TestE2ESingleTriangle(t *testing.T) {
	result := newTestApp(t).Evaluate("one", `(triangle (pt 0 0 0) (pt 10 0 0) (pt 0 10 0))`)
	requireNoErrors(t, result)

	if len(result.Surface.Faces) != 1 {
		t.Fatalf("expected 1 face, got %d", len(result.Surface.Faces))
	}
	f := result.Surface.Faces[0]
	if math.Abs(f.Face.Normal.Z()-1) > 1e-12 {
		t.Errorf("face normal = %v, want +Z", f.Face.Normal)
	}
	if f.Triangle != geom.Tri(geom.Pt(0, 0, 0), geom.Pt(10, 0, 0), geom.Pt(0, 10, 0)) {
		t.Errorf("triangle = %+v", f.Triangle)
	}
}
