package fidmag

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, uint32(1000000), cfg.Particles.Count)
	assert.Equal(t, uint32(4), cfg.GPU.SampleCount)
	assert.Equal(t, 64, cfg.Field.Width)
	assert.Equal(t, 9, cfg.Field.Charges)
	assert.InDelta(t, 0.01, cfg.Field.Softening, 1e-9)
	assert.Equal(t, "fifo", cfg.GPU.PresentMode)
	assert.Equal(t, float32(0), cfg.Sim.FixedDt)
}

func TestLoadConfig_OverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fieldrt.yaml")
	require.NoError(t, os.WriteFile(path, []byte("particles:\n  count: 4\nfield:\n  charges: 1\n"), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, uint32(4), cfg.Particles.Count)
	assert.Equal(t, 1, cfg.Field.Charges)
	// untouched keys keep their defaults
	assert.Equal(t, 64, cfg.Field.Depth)
	assert.Equal(t, 1280, cfg.Window.Width)
}

func TestLoadConfig_EmptyPath(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("particles: [1, 2"), 0644))
	_, err = LoadConfig(path)
	assert.Error(t, err)
}

func TestConfig_WriteYAMLRoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Field.Turbulence = 0.25
	cfg.HUD = true

	path := filepath.Join(t.TempDir(), "out.yaml")
	require.NoError(t, cfg.WriteYAML(path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero particles", func(c *Config) { c.Particles.Count = 0 }},
		{"sample count 2", func(c *Config) { c.GPU.SampleCount = 2 }},
		{"unknown present mode", func(c *Config) { c.GPU.PresentMode = "vsync" }},
		{"zero softening", func(c *Config) { c.Field.Softening = 0 }},
		{"flat field", func(c *Config) { c.Field.Depth = 0 }},
		{"negative charges", func(c *Config) { c.Field.Charges = -1 }},
		{"threshold above lifetime", func(c *Config) { c.Particles.RespawnThreshold = 10 }},
		{"drag of one", func(c *Config) { c.Particles.Drag = 1 }},
		{"negative fixed dt", func(c *Config) { c.Sim.FixedDt = -0.1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestConfig_ValidateZeroCharges(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Field.Charges = 0
	assert.NoError(t, cfg.Validate())
}
