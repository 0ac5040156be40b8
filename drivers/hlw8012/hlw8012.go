// Package hlw8012 provides a driver core for the HLW8012 single-phase
// energy metering IC.
//
// Design notes (datasheet references):
// • CF output: pulse frequency proportional to active power.
// • CF1 output: pulse frequency proportional to either RMS current or RMS
//   voltage, multiplexed by the SEL line level.
// • Internal reference 2.43 V, oscillator 3.579 MHz; channel gains 512/24
//   (current), 512/2 (voltage), 128/48 (power).
// • A pulse width of 0 always means "no valid signal", never a literal
//   zero-duration pulse.
//
// The package owns no hardware: the platform layer supplies the SEL output
// pin, a monotonic microsecond clock and, in polling mode, blocking pulse
// readers for CF and CF1. In interrupt mode the platform attaches CFEdge and
// CF1Edge to rising edges on the respective pins; both handlers are
// allocation-free and bounded so they are safe to run in interrupt context.
package hlw8012

import "sync/atomic"

// Chip constants.
const (
	vRef = 2.43    // internal voltage reference, V
	fOsc = 3579000 // oscillator frequency, Hz

	// DefaultCurrentResistor is the shunt value (Ω) found on common
	// HLW8012 boards (Sonoff POW and derivatives).
	DefaultCurrentResistor = 0.001
	// DefaultVoltageDivider is (upstream + downstream) / downstream for the
	// stock 5×470K + 1K divider.
	DefaultVoltageDivider = 2821

	// DefaultPulseTimeout is the window/staleness timeout in microseconds.
	// The CF channel uses twice this value, CF1 uses it as-is.
	DefaultPulseTimeout uint32 = 2_000_000
)

// Mode identifies which quantity the shared CF1 channel is measuring.
type Mode uint8

const (
	ModeCurrent Mode = iota
	ModeVoltage
)

func (m Mode) String() string {
	if m == ModeCurrent {
		return "current"
	}
	return "voltage"
}

// Ingest selects how pulse edges reach the driver.
type Ingest uint8

const (
	// IngestInterrupt: the platform invokes CFEdge/CF1Edge on rising edges.
	IngestInterrupt Ingest = iota
	// IngestPolling: reads block on a PulseReader per request; energy is
	// unavailable because pulses between reads are not counted.
	IngestPolling
)

// SelectPin drives the SEL multiplexer line.
type SelectPin interface {
	Set(level bool)
}

// Clock is a monotonic microsecond source. Values wrap at 2^32; the driver
// only ever compares timestamps by wrap-safe subtraction.
type Clock interface {
	Micros() uint32
}

// PulseReader measures one active-high pulse, blocking until the pulse
// completes or the timeout elapses. Returns the high duration in
// microseconds, or 0 on timeout.
type PulseReader interface {
	HighPulse(timeoutMicros uint32) uint32
}

// Config for New.
type Config struct {
	Sel   SelectPin
	Clock Clock

	// CF and CF1 are required in polling mode only.
	CF, CF1 PulseReader

	// CurrentWhenHigh is the SEL level that selects current measurement.
	CurrentWhenHigh bool

	Ingest Ingest

	// PulseTimeout in microseconds; 0 means DefaultPulseTimeout.
	PulseTimeout uint32

	// Smoothing enables the (3·new + old) / 4 IIR step on each closed
	// window's estimate. Off by default; the raw estimate already favours
	// stability at low rates and averaging at high rates.
	Smoothing bool
}

// Device holds all mutable sensor state. One instance per physical chip.
//
// Fields in the "ISR-shared" blocks are written by the interrupt context and
// read (or force-reset) by the foreground read path; every access goes
// through sync/atomic and each field has a single writer at any instant.
type Device struct {
	sel          SelectPin
	clk          Clock
	cfIn, cf1In  PulseReader
	ingest       Ingest
	pulseTimeout uint32
	smoothing    bool
	currentLevel uint32 // physical SEL level that means "measuring current"

	// selLevel is the physical SEL level currently driven. ISR-shared.
	selLevel uint32

	// CF channel (power). ISR-shared.
	cfLast     uint32 // last edge timestamp, µs
	cfFirst    uint32 // first edge of the open window, µs
	cfCount    uint32 // edges in the open window
	cfTotal    uint32 // cumulative edges since ResetEnergy; wraps at 2^32
	powerWidth uint32 // last estimate, µs; 0 = no signal

	// CF1 channel (current/voltage). ISR-shared.
	cf1Last      uint32
	cf1First     uint32
	cf1Count     uint32
	currentWidth uint32
	voltageWidth uint32

	// Calibration state. Foreground only.
	currentResistor float64
	voltageResistor float64
	currentMult     float64
	voltageMult     float64
	powerMult       float64

	// Last computed readings. Foreground only.
	current float32
	voltage float32
	power   float32
}

// New builds a Device, computes the datasheet-default multipliers and drives
// SEL to the initial mode (current).
func New(cfg Config) *Device {
	d := &Device{
		sel:          cfg.Sel,
		clk:          cfg.Clock,
		cfIn:         cfg.CF,
		cf1In:        cfg.CF1,
		ingest:       cfg.Ingest,
		pulseTimeout: cfg.PulseTimeout,
		smoothing:    cfg.Smoothing,
	}
	if d.pulseTimeout == 0 {
		d.pulseTimeout = DefaultPulseTimeout
	}
	if cfg.CurrentWhenHigh {
		d.currentLevel = 1
	}
	d.currentResistor = DefaultCurrentResistor
	d.voltageResistor = DefaultVoltageDivider
	d.calculateDefaultMultipliers()

	d.selLevel = d.currentLevel
	d.sel.Set(d.selLevel == 1)
	return d
}

// PulseTimeout returns the configured window/staleness timeout in µs.
func (d *Device) PulseTimeout() uint32 { return d.pulseTimeout }

// Mode returns the quantity the CF1 channel is currently measuring.
func (d *Device) Mode() Mode {
	if atomic.LoadUint32(&d.selLevel) == d.currentLevel {
		return ModeCurrent
	}
	return ModeVoltage
}

// SetMode drives SEL to the level encoding m and, in interrupt mode, resets
// the CF1 window timestamps so edges from the previous quantity are not
// attributed to the new one.
func (d *Device) SetMode(m Mode) {
	level := d.currentLevel
	if m != ModeCurrent {
		level = 1 - d.currentLevel
	}
	d.sel.Set(level == 1)
	atomic.StoreUint32(&d.selLevel, level)
	if d.ingest == IngestInterrupt {
		now := d.clk.Micros()
		atomic.StoreUint32(&d.cf1Last, now)
		atomic.StoreUint32(&d.cf1First, now)
	}
}

// ToggleMode switches to the other quantity and returns the new mode.
func (d *Device) ToggleMode() Mode {
	m := ModeVoltage
	if d.Mode() == ModeVoltage {
		m = ModeCurrent
	}
	d.SetMode(m)
	return m
}

// Raw pulse-width accessors, µs, 0 = no signal. Diagnostics only; readings
// should go through the metric accessors.
func (d *Device) CurrentPulseWidth() uint32 { return atomic.LoadUint32(&d.currentWidth) }
func (d *Device) VoltagePulseWidth() uint32 { return atomic.LoadUint32(&d.voltageWidth) }
func (d *Device) PowerPulseWidth() uint32   { return atomic.LoadUint32(&d.powerWidth) }
