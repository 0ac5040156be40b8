package hlw8012

import (
	"sync/atomic"

	"github.com/chewxy/math32"

	"powermeter-go/x/mathx"
)

// Metric accessors. Each returns the value in physical units plus a validity
// flag; invalid readings are reported as 0 rather than omitted. Accessors are
// foreground-path only and each read is a fresh, independent sample.

// Current returns RMS current in amperes.
func (d *Device) Current() (float32, bool) {
	// Power readings react to a disconnected load faster than current
	// readings, so a zero power forces current to zero without measuring.
	switch {
	case d.power == 0:
		atomic.StoreUint32(&d.currentWidth, 0)
	case d.ingest == IngestInterrupt:
		d.checkCF1()
	case d.Mode() == ModeCurrent:
		atomic.StoreUint32(&d.currentWidth, d.cf1In.HighPulse(d.pulseTimeout))
	}

	w := atomic.LoadUint32(&d.currentWidth)
	if w == 0 {
		d.current = 0
		return 0, false
	}
	d.current = float32(d.currentMult / float64(w) / 2)
	return d.current, true
}

// Voltage returns RMS voltage in volts.
func (d *Device) Voltage() (float32, bool) {
	if d.ingest == IngestInterrupt {
		d.checkCF1()
	} else if d.Mode() == ModeVoltage {
		atomic.StoreUint32(&d.voltageWidth, d.cf1In.HighPulse(d.pulseTimeout))
	}

	w := atomic.LoadUint32(&d.voltageWidth)
	if w == 0 {
		d.voltage = 0
		return 0, false
	}
	d.voltage = float32(d.voltageMult / float64(w) / 2)
	return d.voltage, true
}

// ActivePower returns active power in watts.
func (d *Device) ActivePower() (float32, bool) {
	if d.ingest == IngestInterrupt {
		d.checkCF()
	} else {
		atomic.StoreUint32(&d.powerWidth, d.cfIn.HighPulse(d.pulseTimeout))
	}

	w := atomic.LoadUint32(&d.powerWidth)
	if w == 0 {
		d.power = 0
		return 0, false
	}
	d.power = float32(d.powerMult / float64(w) / 2)
	return d.power, true
}

// ApparentPower returns V·I in volt-amperes; valid only when both components
// are valid.
func (d *Device) ApparentPower() (float32, bool) {
	current, okC := d.Current()
	voltage, okV := d.Voltage()
	return voltage * current, okC && okV
}

// ReactivePower returns sqrt(apparent² − active²) in var, or 0 when the
// active reading meets or exceeds the apparent one.
func (d *Device) ReactivePower() (float32, bool) {
	active, okA := d.ActivePower()
	apparent, okP := d.ApparentPower()
	ok := okA && okP
	if apparent > active {
		return math32.Sqrt(apparent*apparent - active*active), ok
	}
	return 0, ok
}

// PowerFactor returns active/apparent clamped to [0, 1]; the clamp absorbs
// measurement noise where active slightly overshoots apparent.
func (d *Device) PowerFactor() (float32, bool) {
	active, okA := d.ActivePower()
	apparent, okP := d.ApparentPower()
	ok := okA && okP
	if apparent == 0 {
		return 0, ok
	}
	return mathx.Clamp(active/apparent, 0, 1), ok
}

// Energy returns cumulative energy in watt-seconds since the last
// ResetEnergy.
//
// Pulse count is directly proportional to energy: P = m·f with m the power
// multiplier and f the CF frequency, f = N/t, so E = P·t = m·N.
//
// Only the interrupt path can count pulses, so polling mode reports energy
// as unavailable. The counter is 32-bit and wraps; a wrapped counter
// under-reports until the next reset (>14 days of continuous full-load
// pulses at the chip's maximum CF rate).
func (d *Device) Energy() (float32, bool) {
	if d.ingest != IngestInterrupt {
		return 0, false
	}
	n := atomic.LoadUint32(&d.cfTotal)
	return float32(float64(n) * d.powerMult / 1e6 / 2), true
}

// ResetEnergy zeroes the cumulative pulse counter. Safe to call concurrently
// with the interrupt path.
func (d *Device) ResetEnergy() {
	atomic.StoreUint32(&d.cfTotal, 0)
}
