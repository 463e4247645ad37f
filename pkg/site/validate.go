package site

import (
	"fmt"

	"github.com/chazu/sitegeom/pkg/geom"
	"github.com/chazu/sitegeom/pkg/kernel"
	"github.com/samber/lo"
)

// ValidationSeverity indicates whether a finding blocks the build or is
// merely informational.
type ValidationSeverity int

const (
	SeverityError   ValidationSeverity = iota // blocks the build
	SeverityWarning                           // informational
)

func (s ValidationSeverity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("ValidationSeverity(%d)", int(s))
	}
}

// Element kinds used in findings.
const (
	KindSite     = "site"
	KindTriangle = "triangle"
	KindSegment  = "segment"
	KindSurvey   = "survey"
)

// ValidationError describes a single blocking finding.
type ValidationError struct {
	Kind     string // element kind
	Index    int    // element position, -1 for site-level findings
	Message  string
	Severity ValidationSeverity
}

func (e ValidationError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("[%s] %s", e.Severity, e.Message)
	}
	return fmt.Sprintf("[%s] %s %d: %s", e.Severity, e.Kind, e.Index, e.Message)
}

// ValidationWarning describes a non-blocking advisory finding.
type ValidationWarning struct {
	Kind    string
	Index   int
	Message string
}

func (w ValidationWarning) String() string {
	if w.Index < 0 {
		return w.Message
	}
	return fmt.Sprintf("%s %d: %s", w.Kind, w.Index, w.Message)
}

// ValidationResult bundles errors (blocking) and warnings (advisory).
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationWarning
}

// OK reports whether the site can be built.
func (r ValidationResult) OK() bool {
	return len(r.Errors) == 0
}

// Validate checks s with the default minimum edge length.
func Validate(s *Site) ValidationResult {
	return ValidateWith(s, kernel.DefaultMinCurveLength)
}

// ValidateWith checks s. Triangles with edges shorter than minEdge are
// reported as warnings because the face builder skips them. The site is
// never modified.
func ValidateWith(s *Site, minEdge float64) ValidationResult {
	var r ValidationResult
	r.Errors = append(r.Errors, validateFinite(s)...)
	r.Errors = append(r.Errors, validateBuildable(s)...)
	r.Warnings = append(r.Warnings, validateTriangles(s, minEdge)...)
	r.Warnings = append(r.Warnings, validateSegments(s)...)
	r.Warnings = append(r.Warnings, validateSurvey(s)...)
	if s.Name == "" {
		r.Warnings = append(r.Warnings, ValidationWarning{Kind: KindSite, Index: -1, Message: "site has no name"})
	}
	return r
}

func validateFinite(s *Site) []ValidationError {
	var errs []ValidationError
	bad := func(kind string, i int, pts ...geom.Point3D) {
		if lo.EveryBy(pts, geom.Point3D.IsFinite) {
			return
		}
		errs = append(errs, ValidationError{
			Kind:     kind,
			Index:    i,
			Message:  "non-finite coordinate",
			Severity: SeverityError,
		})
	}
	for i, t := range s.Ground {
		bad(KindTriangle, i, t.V0, t.V1, t.V2)
	}
	for i, seg := range s.Segments {
		bad(KindSegment, i, seg.Start, seg.End)
	}
	for i, p := range s.Survey {
		bad(KindSurvey, i, p)
	}
	return errs
}

// validateBuildable checks that there is a surface to build ground faces
// from. Survey points count once per plan position, as the triangulator
// sees them.
func validateBuildable(s *Site) []ValidationError {
	if len(s.Ground) > 0 {
		return nil
	}
	distinct := lo.UniqBy(s.Survey, func(p geom.Point3D) [2]float64 {
		return [2]float64{p.X, p.Y}
	})
	if len(distinct) >= 3 {
		return nil
	}
	return []ValidationError{{
		Kind:     KindSite,
		Index:    -1,
		Message:  fmt.Sprintf("no ground triangles and %d distinct survey positions, need at least 3", len(distinct)),
		Severity: SeverityError,
	}}
}

func validateTriangles(s *Site, minEdge float64) []ValidationWarning {
	var warnings []ValidationWarning
	for i, t := range s.Ground {
		if err := t.Check(minEdge); err != nil {
			warnings = append(warnings, ValidationWarning{
				Kind:    KindTriangle,
				Index:   i,
				Message: fmt.Sprintf("degenerate triangle will be skipped: %v", err),
			})
		}
	}
	return warnings
}

func validateSegments(s *Site) []ValidationWarning {
	var warnings []ValidationWarning
	for i, seg := range s.Segments {
		switch {
		case seg.Length() == 0:
			warnings = append(warnings, ValidationWarning{
				Kind:    KindSegment,
				Index:   i,
				Message: "zero-length segment cannot be intersected",
			})
		case seg.Start.X == seg.End.X:
			warnings = append(warnings, ValidationWarning{
				Kind:    KindSegment,
				Index:   i,
				Message: "segment has no X extent and passes through the snapper unchanged",
			})
		}
	}
	return warnings
}

func validateSurvey(s *Site) []ValidationWarning {
	dups := lo.FindDuplicates(s.Survey)
	return lo.Map(dups, func(p geom.Point3D, _ int) ValidationWarning {
		return ValidationWarning{
			Kind:    KindSurvey,
			Index:   lo.IndexOf(s.Survey, p),
			Message: fmt.Sprintf("duplicate survey point %v", p),
		}
	})
}
