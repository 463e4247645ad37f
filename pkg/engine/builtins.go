package engine

import (
	"fmt"
	"strings"

	"github.com/chazu/sitegeom/pkg/geom"
	"github.com/chazu/sitegeom/pkg/site"
	zygo "github.com/glycerine/zygomys/zygo"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource rewrites site script source before zygomys sees it:
//
//  1. Keywords become marked strings: :name -> "__kw_name". Registering
//     keywords as globals would collide with user variables.
//
//  2. Kebab-case identifiers become underscores: survey-point ->
//     survey_point. zygomys reads a hyphen as the subtraction operator.
//
//  3. ; line comments become // comments.
//
// String literals are copied through untouched.
func preprocessSource(source string) string {
	out := make([]byte, 0, len(source)+len(source)/4)
	b := []byte(source)
	i := 0
	for i < len(b) {
		switch {
		case b[i] == '"':
			j := skipQuoted(b, i, '"', true)
			out = append(out, b[i:j]...)
			i = j
		case b[i] == '`':
			j := skipQuoted(b, i, '`', false)
			out = append(out, b[i:j]...)
			i = j
		case b[i] == ';':
			out = append(out, '/', '/')
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				out = append(out, b[i])
				i++
			}
		case b[i] == ':' && i+1 < len(b) && b[i+1] == '=':
			out = append(out, ':', '=')
			i += 2
		case b[i] == ':' && i+1 < len(b) && isLetter(b[i+1]):
			j := i + 1
			for j < len(b) && isKWChar(b[j]) {
				j++
			}
			out = append(out, '"')
			out = append(out, kwPrefix...)
			out = append(out, b[i+1:j]...)
			out = append(out, '"')
			i = j
		case b[i] == '-' && i > 0 && i+1 < len(b) && isIdentChar(b[i-1]) && isLetter(b[i+1]):
			out = append(out, '_')
			i++
		default:
			out = append(out, b[i])
			i++
		}
	}
	return string(out)
}

// skipQuoted returns the index just past the literal opened at b[i].
func skipQuoted(b []byte, i int, quote byte, escapes bool) int {
	i++
	for i < len(b) && b[i] != quote {
		if escapes && b[i] == '\\' && i+1 < len(b) {
			i++
		}
		i++
	}
	if i < len(b) {
		i++
	}
	return i
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

// ---------------------------------------------------------------------------
// Sexp wrappers for site values
// ---------------------------------------------------------------------------

// sexpPoint wraps a geom.Point3D returned by `pt`.
type sexpPoint struct {
	p geom.Point3D
}

func (s *sexpPoint) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(pt %g %g %g)", s.p.X, s.p.Y, s.p.Z)
}
func (s *sexpPoint) Type() *zygo.RegisteredType { return nil }

// sexpTriangle refers to a ground triangle added by `triangle`.
type sexpTriangle struct {
	index int
}

func (s *sexpTriangle) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(triangle #%d)", s.index)
}
func (s *sexpTriangle) Type() *zygo.RegisteredType { return nil }

// sexpSegment refers to a segment added by `segment` or `polyline`.
type sexpSegment struct {
	index int
}

func (s *sexpSegment) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(segment #%d)", s.index)
}
func (s *sexpSegment) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix marks keyword names produced by preprocessSource.
const kwPrefix = "__kw_"

// isKW reports whether s is a preprocessed keyword and returns its name.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok || !strings.HasPrefix(str.S, kwPrefix) {
		return "", false
	}
	return str.S[len(kwPrefix):], true
}

// kwArgs holds a mixed positional and keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	for i := 0; i < len(args); i++ {
		name, ok := isKW(args[i])
		if !ok {
			result.positional = append(result.positional, args[i])
			continue
		}
		if i+1 < len(args) {
			result.kw[name] = args[i+1]
			i++
		} else {
			result.kw[name] = zygo.SexpNull
		}
	}
	return result
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a SexpInt or SexpFloat.
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toString extracts a string from a SexpStr.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// sexpListToSlice converts a list or array to a Go slice.
func sexpListToSlice(s zygo.Sexp) ([]zygo.Sexp, error) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		return zygo.ListToArray(v)
	case *zygo.SexpArray:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected list or array, got %T", s)
}

// toPoint accepts a `pt` value or a three-number list or array such as
// [1 2 3].
func toPoint(s zygo.Sexp) (geom.Point3D, error) {
	if p, ok := s.(*sexpPoint); ok {
		return p.p, nil
	}
	items, err := sexpListToSlice(s)
	if err != nil || len(items) != 3 {
		return geom.Point3D{}, fmt.Errorf("expected point, got %T (%s)", s, s.SexpString(nil))
	}
	var c [3]float64
	for i, item := range items {
		if c[i], err = toFloat64(item); err != nil {
			return geom.Point3D{}, fmt.Errorf("point coordinate %d: %w", i, err)
		}
	}
	return geom.Pt(c[0], c[1], c[2]), nil
}

// toPoints flattens args into points. Each arg is a point or a list of
// points.
func toPoints(args []zygo.Sexp) ([]geom.Point3D, error) {
	var pts []geom.Point3D
	for i, a := range args {
		if p, err := toPoint(a); err == nil {
			pts = append(pts, p)
			continue
		}
		items, err := sexpListToSlice(a)
		if err != nil {
			return nil, fmt.Errorf("argument %d: expected point or list of points, got %T (%s)", i, a, a.SexpString(nil))
		}
		for j, item := range items {
			p, err := toPoint(item)
			if err != nil {
				return nil, fmt.Errorf("argument %d item %d: %w", i, j, err)
			}
			pts = append(pts, p)
		}
	}
	return pts, nil
}

// layerArg reads an optional :layer keyword.
func layerArg(fn string, pa kwArgs) (string, error) {
	v, ok := pa.kw["layer"]
	if !ok {
		return "", nil
	}
	l, err := toString(v)
	if err != nil {
		return "", fmt.Errorf("%s: layer: %w", fn, err)
	}
	return l, nil
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// registerBuiltins installs the site DSL into env. Builtins add geometry to
// s as they run, so evaluation order is insertion order.
//
// Source must go through preprocessSource first so that :keyword tokens
// are recognizable.
func registerBuiltins(env *zygo.Zlisp, s *site.Site) {

	// -----------------------------------------------------------------------
	// (site :name "Lot 7")
	// -----------------------------------------------------------------------
	env.AddFunction("site", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if v, ok := pa.kw["name"]; ok {
			n, err := toString(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("site: name: %w", err)
			}
			s.Name = n
		}
		return &zygo.SexpStr{S: s.Name}, nil
	})

	// -----------------------------------------------------------------------
	// (pt 10 20 3.5)
	// -----------------------------------------------------------------------
	env.AddFunction("pt", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("pt requires exactly 3 arguments, got %d", len(args))
		}
		var c [3]float64
		for i, axis := range [3]string{"x", "y", "z"} {
			f, err := toFloat64(args[i])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("pt: %s: %w", axis, err)
			}
			c[i] = f
		}
		return &sexpPoint{p: geom.Pt(c[0], c[1], c[2])}, nil
	})

	// -----------------------------------------------------------------------
	// (triangle (pt 0 0 0) (pt 1 0 0) (pt 0 1 0) :layer "TIN")
	// -----------------------------------------------------------------------
	env.AddFunction("triangle", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) != 3 {
			return zygo.SexpNull, fmt.Errorf("triangle requires 3 points, got %d", len(pa.positional))
		}
		var v [3]geom.Point3D
		for i := range v {
			p, err := toPoint(pa.positional[i])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("triangle: v%d: %w", i, err)
			}
			v[i] = p
		}
		layer, err := layerArg("triangle", pa)
		if err != nil {
			return zygo.SexpNull, err
		}
		s.AddTriangle(geom.Tri(v[0], v[1], v[2]))
		s.NoteLayer(site.KindTriangle, layer)
		return &sexpTriangle{index: len(s.Ground) - 1}, nil
	})

	// -----------------------------------------------------------------------
	// (segment (pt 0 0 0) (pt 10 0.001 0) :layer "ROADS")
	// -----------------------------------------------------------------------
	env.AddFunction("segment", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) != 2 {
			return zygo.SexpNull, fmt.Errorf("segment requires 2 points, got %d", len(pa.positional))
		}
		a, err := toPoint(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("segment: start: %w", err)
		}
		b, err := toPoint(pa.positional[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("segment: end: %w", err)
		}
		layer, err := layerArg("segment", pa)
		if err != nil {
			return zygo.SexpNull, err
		}
		s.AddSegment(geom.Seg(a, b))
		s.NoteLayer(site.KindSegment, layer)
		return &sexpSegment{index: len(s.Segments) - 1}, nil
	})

	// -----------------------------------------------------------------------
	// (polyline (pt 0 0 0) (pt 5 0 0) (pt 5 5 0)) adds one segment per piece.
	// -----------------------------------------------------------------------
	env.AddFunction("polyline", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		pts, err := toPoints(pa.positional)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("polyline: %w", err)
		}
		if len(pts) < 2 {
			return zygo.SexpNull, fmt.Errorf("polyline requires at least 2 points, got %d", len(pts))
		}
		layer, err := layerArg("polyline", pa)
		if err != nil {
			return zygo.SexpNull, err
		}
		refs := make([]zygo.Sexp, 0, len(pts)-1)
		for i := 1; i < len(pts); i++ {
			s.AddSegment(geom.Seg(pts[i-1], pts[i]))
			refs = append(refs, &sexpSegment{index: len(s.Segments) - 1})
		}
		s.NoteLayer(site.KindSegment, layer)
		return &zygo.SexpArray{Val: refs}, nil
	})

	// -----------------------------------------------------------------------
	// (survey (pt 0 0 1) (pt 10 0 2) [5 5 3] (list (pt 1 1 1) ...))
	// -----------------------------------------------------------------------
	env.AddFunction("survey", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		pts, err := toPoints(pa.positional)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("survey: %w", err)
		}
		layer, err := layerArg("survey", pa)
		if err != nil {
			return zygo.SexpNull, err
		}
		for _, p := range pts {
			s.AddSurveyPoint(p)
		}
		s.NoteLayer(site.KindSurvey, layer)
		return &zygo.SexpInt{Val: int64(len(s.Survey))}, nil
	})
}
