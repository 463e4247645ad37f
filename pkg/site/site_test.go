package site

import (
	"math"
	"strings"
	"testing"

	"github.com/chazu/sitegeom/pkg/geom"
)

func TestSiteTrianglesOrder(t *testing.T) {
	s := New("lot 7")
	a := geom.Tri(geom.Pt(0, 0, 0), geom.Pt(1, 0, 0), geom.Pt(0, 1, 0))
	b := geom.Tri(geom.Pt(1, 0, 0), geom.Pt(1, 1, 0), geom.Pt(0, 1, 0))
	s.AddTriangle(a)
	s.AddTriangle(b)

	var got []geom.Triangle
	for tri := range s.Triangles() {
		got = append(got, tri)
	}
	if len(got) != 2 || got[0] != a || got[1] != b {
		t.Errorf("Triangles() = %v", got)
	}
}

func TestNeedsTriangulation(t *testing.T) {
	s := New("x")
	if s.NeedsTriangulation() {
		t.Error("empty site needs triangulation")
	}
	s.AddSurveyPoint(geom.Pt(0, 0, 0))
	s.AddSurveyPoint(geom.Pt(1, 0, 0))
	s.AddSurveyPoint(geom.Pt(0, 1, 0))
	if !s.NeedsTriangulation() {
		t.Error("survey-only site does not need triangulation")
	}
	s.AddTriangle(geom.Tri(geom.Pt(0, 0, 0), geom.Pt(1, 0, 0), geom.Pt(0, 1, 0)))
	if s.NeedsTriangulation() {
		t.Error("site with ground needs triangulation")
	}
}

func TestBoundAndNoteLayer(t *testing.T) {
	s := New("x")
	s.AddSegment(geom.Seg(geom.Pt(-1, 2, 3), geom.Pt(4, -5, 6)))
	s.AddSurveyPoint(geom.Pt(0, 0, -7))
	b := s.Bound()
	if b.Min != geom.Pt(-1, -5, -7) || b.Max != geom.Pt(4, 2, 6) {
		t.Errorf("Bound() = %+v", b)
	}

	s.NoteLayer(KindSegment, "ROADS")
	s.NoteLayer(KindSegment, "ROADS")
	s.NoteLayer(KindSegment, "")
	s.NoteLayer(KindTriangle, "TIN")
	if len(s.Layers[KindSegment]) != 1 || len(s.Layers[KindTriangle]) != 1 {
		t.Errorf("Layers = %v", s.Layers)
	}
}

func TestValidateClean(t *testing.T) {
	s := New("lot 7")
	s.AddTriangle(geom.Tri(geom.Pt(0, 0, 0), geom.Pt(1, 0, 0), geom.Pt(0, 1, 0)))
	s.AddSegment(geom.Seg(geom.Pt(0, 0, 0), geom.Pt(10, 0.001, 0)))
	r := Validate(s)
	if !r.OK() || len(r.Warnings) != 0 {
		t.Errorf("Validate() = %+v, want clean", r)
	}
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name  string
		build func(*Site)
		kind  string
		index int
	}{
		{"nothing to build", func(s *Site) {}, KindSite, -1},
		{"two survey points", func(s *Site) {
			s.AddSurveyPoint(geom.Pt(0, 0, 0))
			s.AddSurveyPoint(geom.Pt(1, 0, 0))
			s.AddSurveyPoint(geom.Pt(1, 0, 0))
		}, KindSite, -1},
		{"survey points stacked in plan", func(s *Site) {
			s.AddSurveyPoint(geom.Pt(0, 0, 0))
			s.AddSurveyPoint(geom.Pt(1, 0, 0))
			s.AddSurveyPoint(geom.Pt(1, 0, 4))
		}, KindSite, -1},
		{"nan segment", func(s *Site) {
			s.AddTriangle(geom.Tri(geom.Pt(0, 0, 0), geom.Pt(1, 0, 0), geom.Pt(0, 1, 0)))
			s.AddSegment(geom.Seg(geom.Pt(0, 0, 0), geom.Pt(math.NaN(), 0, 0)))
		}, KindSegment, 0},
		{"infinite triangle", func(s *Site) {
			s.AddTriangle(geom.Tri(geom.Pt(0, 0, 0), geom.Pt(1, 0, 0), geom.Pt(0, 1, 0)))
			s.AddTriangle(geom.Tri(geom.Pt(0, 0, math.Inf(1)), geom.Pt(1, 0, 0), geom.Pt(0, 1, 0)))
		}, KindTriangle, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New("x")
			tt.build(s)
			r := Validate(s)
			if r.OK() {
				t.Fatal("Validate().OK() = true, want errors")
			}
			e := r.Errors[0]
			if e.Kind != tt.kind || e.Index != tt.index || e.Severity != SeverityError {
				t.Errorf("error = %+v, want %s %d", e, tt.kind, tt.index)
			}
		})
	}
}

func TestValidateWarnings(t *testing.T) {
	s := New("")
	s.AddTriangle(geom.Tri(geom.Pt(0, 0, 0), geom.Pt(1, 0, 0), geom.Pt(0, 1, 0)))
	s.AddTriangle(geom.Tri(geom.Pt(0, 0, 0), geom.Pt(1, 0, 0), geom.Pt(2, 0, 0)))
	s.AddSegment(geom.Seg(geom.Pt(1, 1, 1), geom.Pt(1, 1, 1)))
	s.AddSegment(geom.Seg(geom.Pt(1, 0, 0), geom.Pt(1, 5, 0)))
	s.AddSurveyPoint(geom.Pt(3, 3, 3))
	s.AddSurveyPoint(geom.Pt(3, 3, 3))

	r := Validate(s)
	if !r.OK() {
		t.Fatalf("errors = %v", r.Errors)
	}
	var got []string
	for _, w := range r.Warnings {
		got = append(got, w.String())
	}
	want := []string{
		"triangle 1: degenerate",
		"segment 0: zero-length",
		"segment 1: segment has no X extent",
		"survey 0: duplicate",
		"site has no name",
	}
	if len(got) != len(want) {
		t.Fatalf("warnings = %q", got)
	}
	for i := range want {
		if !strings.HasPrefix(got[i], want[i]) {
			t.Errorf("warning %d = %q, want prefix %q", i, got[i], want[i])
		}
	}
}

func TestValidationErrorString(t *testing.T) {
	e := ValidationError{Kind: KindTriangle, Index: 3, Message: "bad", Severity: SeverityError}
	if e.Error() != "[error] triangle 3: bad" {
		t.Errorf("Error() = %q", e.Error())
	}
	e = ValidationError{Kind: KindSite, Index: -1, Message: "empty", Severity: SeverityError}
	if e.Error() != "[error] empty" {
		t.Errorf("Error() = %q", e.Error())
	}
	if ValidationSeverity(9).String() != "ValidationSeverity(9)" {
		t.Error("unexpected severity string")
	}
}
