// Package fidmag holds the configuration, logging and frame telemetry shared by
// the fieldrt visualizer.
package fidmag

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// ErrInvalidConfig is wrapped by every Validate failure.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds every tunable of the visualizer.
type Config struct {
	Window    WindowConfig    `yaml:"window"`
	GPU       GPUConfig       `yaml:"gpu"`
	Particles ParticlesConfig `yaml:"particles"`
	Field     FieldConfig     `yaml:"field"`
	Camera    CameraConfig    `yaml:"camera"`
	Sim       SimConfig       `yaml:"sim"`
	Debug     bool            `yaml:"debug"`
	HUD       bool            `yaml:"hud"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

type WindowConfig struct {
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	Title  string `yaml:"title"`
}

type GPUConfig struct {
	PowerPreference string `yaml:"power_preference"`
	PresentMode     string `yaml:"present_mode"`
	SampleCount     uint32 `yaml:"sample_count"`
}

type ParticlesConfig struct {
	Count            uint32  `yaml:"count"`
	Seed             float32 `yaml:"seed"`
	MaxLifetime      float32 `yaml:"max_lifetime"`
	RespawnThreshold float32 `yaml:"respawn_threshold"`
	Drag             float32 `yaml:"drag"`
	FieldStrength    float32 `yaml:"field_strength"`
	SpeedLimit       float32 `yaml:"speed_limit"`
}

type FieldConfig struct {
	Width         int     `yaml:"width"`
	Height        int     `yaml:"height"`
	Depth         int     `yaml:"depth"`
	Charges       int     `yaml:"charges"`
	MaxCharge     float32 `yaml:"max_charge"`
	PositionRange float32 `yaml:"position_range"`
	Softening     float32 `yaml:"softening"`
	Turbulence    float32 `yaml:"turbulence"`
	Seed          int64   `yaml:"seed"`
}

type CameraConfig struct {
	Distance    float32 `yaml:"distance"`
	Pitch       float32 `yaml:"pitch"`
	Yaw         float32 `yaml:"yaw"`
	FovDegrees  float32 `yaml:"fov_degrees"`
	RotateSpeed float32 `yaml:"rotate_speed"`
	ZoomSpeed   float32 `yaml:"zoom_speed"`
}

type SimConfig struct {
	FixedDt   float32 `yaml:"fixed_dt"`
	MaxDt     float32 `yaml:"max_dt"`
	TargetFPS int     `yaml:"target_fps"`
}

type TelemetryConfig struct {
	PerfCSV string `yaml:"perf_csv"`
}

// DefaultConfig returns the embedded defaults. It panics only if the embedded
// file is malformed, which is a build defect.
func DefaultConfig() *Config {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		panic(fmt.Sprintf("parsing embedded defaults: %v", err))
	}
	return cfg
}

// LoadConfig overlays the YAML file at path onto the defaults. An empty path
// returns the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

// WriteYAML saves the configuration to path.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
		}
	}

	check(c.Window.Width > 0 && c.Window.Height > 0, "window size %dx%d", c.Window.Width, c.Window.Height)
	check(c.GPU.SampleCount == 1 || c.GPU.SampleCount == 4, "gpu.sample_count %d (want 1 or 4)", c.GPU.SampleCount)
	check(oneOf(c.GPU.PowerPreference, "high_performance", "low_power"), "gpu.power_preference %q", c.GPU.PowerPreference)
	check(oneOf(c.GPU.PresentMode, "fifo", "immediate", "mailbox"), "gpu.present_mode %q", c.GPU.PresentMode)

	check(c.Particles.Count > 0, "particles.count must be positive")
	check(c.Particles.MaxLifetime > 0, "particles.max_lifetime %v", c.Particles.MaxLifetime)
	check(c.Particles.RespawnThreshold < c.Particles.MaxLifetime, "particles.respawn_threshold %v >= max_lifetime", c.Particles.RespawnThreshold)
	check(c.Particles.Drag >= 0 && c.Particles.Drag < 1, "particles.drag %v (want [0,1))", c.Particles.Drag)
	check(c.Particles.SpeedLimit > 0, "particles.speed_limit %v", c.Particles.SpeedLimit)

	check(c.Field.Width > 0 && c.Field.Height > 0 && c.Field.Depth > 0,
		"field dims %dx%dx%d", c.Field.Width, c.Field.Height, c.Field.Depth)
	check(c.Field.Charges >= 0, "field.charges %d", c.Field.Charges)
	check(c.Field.MaxCharge >= 0, "field.max_charge %v", c.Field.MaxCharge)
	check(c.Field.PositionRange >= 0, "field.position_range %v", c.Field.PositionRange)
	check(c.Field.Softening > 0, "field.softening %v must be positive", c.Field.Softening)
	check(c.Field.Turbulence >= 0, "field.turbulence %v", c.Field.Turbulence)

	check(c.Camera.Distance > 0, "camera.distance %v", c.Camera.Distance)
	check(c.Camera.FovDegrees > 0 && c.Camera.FovDegrees < 180, "camera.fov_degrees %v", c.Camera.FovDegrees)

	check(c.Sim.FixedDt >= 0, "sim.fixed_dt %v", c.Sim.FixedDt)
	check(c.Sim.MaxDt > 0, "sim.max_dt %v", c.Sim.MaxDt)
	check(c.Sim.TargetFPS >= 0, "sim.target_fps %d", c.Sim.TargetFPS)

	return errors.Join(errs...)
}

func oneOf(v string, options ...string) bool {
	for _, o := range options {
		if v == o {
			return true
		}
	}
	return false
}
