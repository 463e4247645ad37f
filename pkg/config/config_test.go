package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/chazu/sitegeom/pkg/snap"
	"github.com/chazu/sitegeom/pkg/terrain"
)

func TestDefaultIsValid(t *testing.T) {
	c := Default()
	if err := c.Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
	if c.SnapTolerance() != snap.DefaultTolerance() {
		t.Errorf("SnapTolerance() = %+v, want %+v", c.SnapTolerance(), snap.DefaultTolerance())
	}
	if c.Ground.Thickness != terrain.DefaultThickness {
		t.Errorf("Ground.Thickness = %v, want %v", c.Ground.Thickness, terrain.DefaultThickness)
	}
	if c.EvalTimeout() != DefaultEvalTimeout {
		t.Errorf("EvalTimeout() = %v, want %v", c.EvalTimeout(), DefaultEvalTimeout)
	}
}

func TestParseOverridesDefaults(t *testing.T) {
	src := `
[snap]
max_angle_degrees = 0.5

[ground]
thickness = 0.01
workers = 2

[kernel]
backend = "sdfx"

[engine]
timeout_ms = 250
`
	c, err := Parse([]byte(src))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if c.Snap.MaxAngleDegrees != 0.5 {
		t.Errorf("MaxAngleDegrees = %v, want 0.5", c.Snap.MaxAngleDegrees)
	}
	if c.Snap.MinSlope != snap.DefaultMinSlope {
		t.Errorf("MinSlope = %v, want default", c.Snap.MinSlope)
	}
	if c.Ground.Thickness != 0.01 || c.Ground.Workers != 2 {
		t.Errorf("Ground = %+v", c.Ground)
	}
	if c.Kernel.Backend != BackendSDFX {
		t.Errorf("Backend = %q", c.Kernel.Backend)
	}
	if c.EvalTimeout() != 250*time.Millisecond {
		t.Errorf("EvalTimeout() = %v", c.EvalTimeout())
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		invalid bool
	}{
		{"unknown key", "[snap]\nmax_angle = 1\n", false},
		{"bad syntax", "[snap\n", false},
		{"wrong type", "[ground]\nthickness = \"thin\"\n", false},
		{"zero thickness", "[ground]\nthickness = 0.0\n", true},
		{"negative workers", "[ground]\nworkers = -1\n", true},
		{"right angle", "[snap]\nmax_angle_degrees = 90.0\n", true},
		{"negative compensation", "[snap]\ncompensation = -0.1\n", true},
		{"unknown backend", "[kernel]\nbackend = \"manifold\"\n", true},
		{"zero timeout", "[engine]\ntimeout_ms = 0\n", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.src))
			if err == nil {
				t.Fatal("Parse() error = nil")
			}
			if got := errors.Is(err, ErrInvalid); got != tt.invalid {
				t.Errorf("errors.Is(ErrInvalid) = %v, want %v (err = %v)", got, tt.invalid, err)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	c, err := Load(filepath.Join(dir, "missing.toml"))
	if err != nil {
		t.Fatalf("Load(missing) error = %v", err)
	}
	if *c != *Default() {
		t.Errorf("Load(missing) = %+v, want defaults", c)
	}

	path := filepath.Join(dir, "sitegeom.toml")
	if err := os.WriteFile(path, []byte("[ground]\nthickness = -1.0\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err = Load(path)
	if !errors.Is(err, ErrInvalid) || !strings.Contains(err.Error(), path) {
		t.Errorf("Load(bad) error = %v", err)
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	want := Default()
	want.Ground.Workers = 3
	data, err := want.Marshal()
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	got, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse(Marshal()) error = %v\n%s", err, data)
	}
	if *got != *want {
		t.Errorf("round trip = %+v, want %+v", got, want)
	}
}
