// Package config loads the meter configuration from YAML with sane defaults
// for the common Sonoff POW pin assignment.
package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"powermeter-go/errcode"
	"powermeter-go/x/mathx"
)

// Config is the top-level application configuration.
type Config struct {
	Sensor      SensorConfig      `yaml:"sensor"`
	Calibration CalibrationConfig `yaml:"calibration"`
	Report      ReportConfig      `yaml:"report"`
}

// SensorConfig describes the HLW8012 wiring and ingestion mode.
type SensorConfig struct {
	ID              string `yaml:"id"`
	CFPin           int    `yaml:"cf_pin"`
	CF1Pin          int    `yaml:"cf1_pin"`
	SelPin          int    `yaml:"sel_pin"`
	CurrentWhenHigh bool   `yaml:"current_when_high"`
	UseInterrupts   bool   `yaml:"use_interrupts"`
	PulseTimeoutUs  uint32 `yaml:"pulse_timeout_us"` // 0 = driver default
	Smoothing       bool   `yaml:"smoothing"`
}

// CalibrationConfig carries board resistor values. Zero values keep the
// driver's datasheet defaults.
type CalibrationConfig struct {
	CurrentResistor   float64 `yaml:"current_resistor"`   // shunt, Ω
	VoltageUpstream   float64 `yaml:"voltage_upstream"`   // divider upper leg, Ω
	VoltageDownstream float64 `yaml:"voltage_downstream"` // divider lower leg, Ω
}

// ReportConfig controls the demo read loop.
type ReportConfig struct {
	IntervalMs int `yaml:"interval_ms"`
}

// Pulse-timeout sanity bounds, µs. Anything outside is a wiring mistake.
const (
	minPulseTimeoutUs = 10_000
	maxPulseTimeoutUs = 60_000_000
)

// Default returns the stock Sonoff POW configuration.
func Default() *Config {
	return &Config{
		Sensor: SensorConfig{
			ID:              "meter0",
			CFPin:           14,
			CF1Pin:          13,
			SelPin:          5,
			CurrentWhenHigh: true,
			UseInterrupts:   true,
		},
		Report: ReportConfig{IntervalMs: 2000},
	}
}

// Load reads path; a missing file yields Default() without error so first
// runs work out of the box.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, &errcode.E{C: errcode.InvalidParams, Op: "config.load", Msg: path, Err: err}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the driver could not run with.
func (c *Config) Validate() error {
	s := c.Sensor
	if s.CFPin < 0 || s.CF1Pin < 0 || s.SelPin < 0 {
		return &errcode.E{C: errcode.InvalidParams, Op: "config.validate", Msg: "negative pin number"}
	}
	if s.CFPin == s.CF1Pin || s.CFPin == s.SelPin || s.CF1Pin == s.SelPin {
		return &errcode.E{C: errcode.InvalidParams, Op: "config.validate", Msg: "pins must be distinct"}
	}
	if s.PulseTimeoutUs != 0 && !mathx.Between(s.PulseTimeoutUs, uint32(minPulseTimeoutUs), uint32(maxPulseTimeoutUs)) {
		return &errcode.E{C: errcode.InvalidParams, Op: "config.validate", Msg: "pulse_timeout_us out of range"}
	}
	cal := c.Calibration
	if cal.CurrentResistor < 0 || cal.VoltageUpstream < 0 || cal.VoltageDownstream < 0 {
		return &errcode.E{C: errcode.InvalidParams, Op: "config.validate", Msg: "negative resistor value"}
	}
	// Resistor updates only apply with a downstream divider leg; catch the
	// combination here rather than letting it be silently ignored.
	if (cal.CurrentResistor > 0 || cal.VoltageUpstream > 0) && cal.VoltageDownstream == 0 {
		return &errcode.E{C: errcode.InvalidParams, Op: "config.validate", Msg: "voltage_downstream required with resistor values"}
	}
	if c.Report.IntervalMs < 0 {
		return &errcode.E{C: errcode.InvalidParams, Op: "config.validate", Msg: "negative report interval"}
	}
	return nil
}
