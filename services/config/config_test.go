// services/config/config_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"powermeter-go/errcode"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	require.NotNil(t, cfg)
	assert.Equal(t, "meter0", cfg.Sensor.ID)
	assert.Equal(t, 14, cfg.Sensor.CFPin)
	assert.Equal(t, 13, cfg.Sensor.CF1Pin)
	assert.Equal(t, 5, cfg.Sensor.SelPin)
	assert.True(t, cfg.Sensor.CurrentWhenHigh)
	assert.True(t, cfg.Sensor.UseInterrupts)
	assert.Zero(t, cfg.Sensor.PulseTimeoutUs)
	assert.False(t, cfg.Sensor.Smoothing)
	assert.Equal(t, 2000, cfg.Report.IntervalMs)
	require.NoError(t, cfg.Validate())
}

func TestLoadFileNotExists(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadValidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meter.yaml")
	doc := `
sensor:
  id: bench
  cf_pin: 2
  cf1_pin: 3
  sel_pin: 4
  current_when_high: false
  use_interrupts: false
  pulse_timeout_us: 500000
  smoothing: true
calibration:
  current_resistor: 0.002
  voltage_upstream: 2000000
  voltage_downstream: 1000
report:
  interval_ms: 500
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "bench", cfg.Sensor.ID)
	assert.Equal(t, 2, cfg.Sensor.CFPin)
	assert.False(t, cfg.Sensor.UseInterrupts)
	assert.Equal(t, uint32(500000), cfg.Sensor.PulseTimeoutUs)
	assert.True(t, cfg.Sensor.Smoothing)
	assert.Equal(t, 0.002, cfg.Calibration.CurrentResistor)
	assert.Equal(t, float64(2000000), cfg.Calibration.VoltageUpstream)
	assert.Equal(t, 500, cfg.Report.IntervalMs)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sensor: ["), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Equal(t, errcode.InvalidParams, errcode.Of(err))
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"default", func(*Config) {}, true},
		{"negative pin", func(c *Config) { c.Sensor.CFPin = -1 }, false},
		{"duplicate pins", func(c *Config) { c.Sensor.CF1Pin = c.Sensor.CFPin }, false},
		{"timeout too small", func(c *Config) { c.Sensor.PulseTimeoutUs = 500 }, false},
		{"timeout in range", func(c *Config) { c.Sensor.PulseTimeoutUs = 500_000 }, true},
		{"negative resistor", func(c *Config) { c.Calibration.CurrentResistor = -1 }, false},
		{"resistor without divider", func(c *Config) { c.Calibration.CurrentResistor = 0.002 }, false},
		{"upstream without divider", func(c *Config) { c.Calibration.VoltageUpstream = 2000000 }, false},
		{"full resistor set", func(c *Config) {
			c.Calibration.CurrentResistor = 0.002
			c.Calibration.VoltageUpstream = 2000000
			c.Calibration.VoltageDownstream = 1000
		}, true},
		{"negative interval", func(c *Config) { c.Report.IntervalMs = -5 }, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			err := cfg.Validate()
			if tc.ok {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Equal(t, errcode.InvalidParams, errcode.Of(err))
			}
		})
	}
}
