// Package config provides configuration loading and access for the cloth
// simulator and its viewer.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulator and viewer configuration.
type Config struct {
	Screen    ScreenConfig    `yaml:"screen"`
	Cloth     ClothConfig     `yaml:"cloth"`
	Solver    SolverConfig    `yaml:"solver"`
	Physics   PhysicsConfig   `yaml:"physics"`
	Wind      WindConfig      `yaml:"wind"`
	Scene     SceneConfig     `yaml:"scene"`
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// ClothConfig describes the grid cloth the viewer builds.
type ClothConfig struct {
	Columns         int     `yaml:"columns"`
	Rows            int     `yaml:"rows"`
	Spacing         float64 `yaml:"spacing"`          // rest distance between grid neighbors
	Compliance      float64 `yaml:"compliance"`       // stretch constraint compliance (0 = rigid)
	ShearCompliance float64 `yaml:"shear_compliance"` // diagonal constraints; negative disables them
	BendCompliance  float64 `yaml:"bend_compliance"`  // skip-one constraints; negative disables them
	PinTopRow       bool    `yaml:"pin_top_row"`
	PinCorners      bool    `yaml:"pin_corners"`
	Mass            float64 `yaml:"mass"` // per free particle
}

// SolverConfig holds substep scheduling and execution parameters.
type SolverConfig struct {
	StepsPerSecond   float64 `yaml:"steps_per_second"`
	MaxStepsPerFrame int     `yaml:"max_steps_per_frame"`
	Thickness        float64 `yaml:"thickness"`       // >0 enables the travel clamp
	AtomicFallback   bool    `yaml:"atomic_fallback"` // CAS path instead of batching
}

// PhysicsConfig holds the external acceleration.
type PhysicsConfig struct {
	GravityX float64 `yaml:"gravity_x"`
	GravityY float64 `yaml:"gravity_y"`
	GravityZ float64 `yaml:"gravity_z"`
}

// WindConfig holds the aerodynamic extension parameters.
type WindConfig struct {
	Enabled   bool    `yaml:"enabled"`
	VelocityX float64 `yaml:"velocity_x"`
	VelocityY float64 `yaml:"velocity_y"`
	VelocityZ float64 `yaml:"velocity_z"`
	Drag      float64 `yaml:"drag"`
	Lift      float64 `yaml:"lift"`
}

// SceneConfig lays out the cloth instances in the viewer.
type SceneConfig struct {
	ClothCount int     `yaml:"cloth_count"`
	Gap        float64 `yaml:"gap"` // spacing between instances
}

// TelemetryConfig holds stats collection parameters.
type TelemetryConfig struct {
	StatsWindow float64 `yaml:"stats_window"` // seconds averaged per stats sample
	LogEvery    int     `yaml:"log_every"`    // frames between slog stat lines (0 = off)
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	ScreenW32 float32
	ScreenH32 float32
	Spacing32 float32
	Gap32     float32
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults
// if path is empty. Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded
// defaults. If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into the same struct - only overwrites fields present
		// in the file.
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.computeDerived()
	return cfg, nil
}

func (c *Config) computeDerived() {
	if c.Cloth.Columns < 2 {
		c.Cloth.Columns = 2
	}
	if c.Cloth.Rows < 2 {
		c.Cloth.Rows = 2
	}
	if c.Cloth.Spacing <= 0 {
		c.Cloth.Spacing = 0.1
	}
	if c.Cloth.Mass <= 0 {
		c.Cloth.Mass = 1
	}
	if c.Scene.ClothCount < 1 {
		c.Scene.ClothCount = 1
	}

	c.Derived.ScreenW32 = float32(c.Screen.Width)
	c.Derived.ScreenH32 = float32(c.Screen.Height)
	c.Derived.Spacing32 = float32(c.Cloth.Spacing)
	c.Derived.Gap32 = float32(c.Scene.Gap)
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
