// Package config holds the tolerances and limits used across sitegeom.
// Settings are read from a TOML file; anything the file leaves out keeps its
// default.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/chazu/sitegeom/pkg/kernel"
	"github.com/chazu/sitegeom/pkg/snap"
	"github.com/chazu/sitegeom/pkg/terrain"
	"github.com/pelletier/go-toml/v2"
)

// Kernel backends accepted in [kernel] backend.
const (
	BackendBRep = "brep"
	BackendSDFX = "sdfx"
)

// DefaultEvalTimeout bounds a single script evaluation.
const DefaultEvalTimeout = 5 * time.Second

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("config: invalid")

// Config is the root TOML document.
type Config struct {
	Snap   SnapConfig   `toml:"snap"`
	Ground GroundConfig `toml:"ground"`
	Kernel KernelConfig `toml:"kernel"`
	Engine EngineConfig `toml:"engine"`
}

// SnapConfig controls the axis snapper.
type SnapConfig struct {
	MinSlope        float64 `toml:"min_slope"`         // slopes at or below this are already flat
	MaxAngleDegrees float64 `toml:"max_angle_degrees"` // widest deviation that still snaps
	Compensation    float64 `toml:"compensation"`      // added to tan(max angle)
}

// GroundConfig controls ground face construction.
type GroundConfig struct {
	Thickness float64 `toml:"thickness"` // slab thickness in internal units
	Workers   int     `toml:"workers"`   // 0 uses GOMAXPROCS, 1 builds sequentially
}

// KernelConfig selects and tunes the geometry kernel.
type KernelConfig struct {
	Backend           string  `toml:"backend"`
	MinCurveLength    float64 `toml:"min_curve_length"`
	NormalTolerance   float64 `toml:"normal_tolerance"`
	DistanceTolerance float64 `toml:"distance_tolerance"`
}

// EngineConfig controls script evaluation.
type EngineConfig struct {
	TimeoutMillis int `toml:"timeout_ms"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Snap: SnapConfig{
			MinSlope:        snap.DefaultMinSlope,
			MaxAngleDegrees: snap.DefaultMaxAngleDegrees,
			Compensation:    snap.DefaultCompensation,
		},
		Ground: GroundConfig{
			Thickness: terrain.DefaultThickness,
		},
		Kernel: KernelConfig{
			Backend:           BackendBRep,
			MinCurveLength:    kernel.DefaultMinCurveLength,
			NormalTolerance:   kernel.DefaultNormalTolerance,
			DistanceTolerance: kernel.DefaultDistanceTolerance,
		},
		Engine: EngineConfig{
			TimeoutMillis: int(DefaultEvalTimeout / time.Millisecond),
		},
	}
}

// Parse decodes a TOML document over the defaults and validates the result.
// Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	c := Default()
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(c); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Load reads the TOML file at path. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Marshal encodes c as TOML.
func (c *Config) Marshal() ([]byte, error) {
	return toml.Marshal(c)
}

func positive(name string, v float64) error {
	if !(v > 0) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: %s must be positive, got %g", ErrInvalid, name, v)
	}
	return nil
}

// Validate checks every setting and returns the first problem found.
func (c *Config) Validate() error {
	checks := []struct {
		name string
		v    float64
	}{
		{"snap.min_slope", c.Snap.MinSlope},
		{"snap.max_angle_degrees", c.Snap.MaxAngleDegrees},
		{"ground.thickness", c.Ground.Thickness},
		{"kernel.min_curve_length", c.Kernel.MinCurveLength},
		{"kernel.normal_tolerance", c.Kernel.NormalTolerance},
		{"kernel.distance_tolerance", c.Kernel.DistanceTolerance},
	}
	for _, ch := range checks {
		if err := positive(ch.name, ch.v); err != nil {
			return err
		}
	}
	if c.Snap.MaxAngleDegrees >= 90 {
		return fmt.Errorf("%w: snap.max_angle_degrees must be below 90, got %g", ErrInvalid, c.Snap.MaxAngleDegrees)
	}
	if c.Snap.Compensation < 0 || math.IsNaN(c.Snap.Compensation) || math.IsInf(c.Snap.Compensation, 0) {
		return fmt.Errorf("%w: snap.compensation must be non-negative, got %g", ErrInvalid, c.Snap.Compensation)
	}
	if c.Ground.Workers < 0 {
		return fmt.Errorf("%w: ground.workers must not be negative, got %d", ErrInvalid, c.Ground.Workers)
	}
	switch c.Kernel.Backend {
	case BackendBRep, BackendSDFX:
	default:
		return fmt.Errorf("%w: kernel.backend %q, want %q or %q", ErrInvalid, c.Kernel.Backend, BackendBRep, BackendSDFX)
	}
	if c.Engine.TimeoutMillis <= 0 {
		return fmt.Errorf("%w: engine.timeout_ms must be positive, got %d", ErrInvalid, c.Engine.TimeoutMillis)
	}
	return nil
}

// SnapTolerance returns the snapper tolerance.
func (c *Config) SnapTolerance() snap.Tolerance {
	return snap.Tolerance{
		Min:          c.Snap.MinSlope,
		MaxDegrees:   c.Snap.MaxAngleDegrees,
		Compensation: c.Snap.Compensation,
	}
}

// EvalTimeout returns the engine timeout as a duration.
func (c *Config) EvalTimeout() time.Duration {
	return time.Duration(c.Engine.TimeoutMillis) * time.Millisecond
}
