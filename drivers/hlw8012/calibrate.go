package hlw8012

// Multipliers convert a pulse width (µs) into a physical-unit reading; these
// are the datasheet relations for each channel. For reference: a 1 Hz CF
// frequency is around 12 W, a 1 Hz CF1 frequency around 15 mA or 0.5 V.
func (d *Device) calculateDefaultMultipliers() {
	d.currentMult = 1e6 * 512 * vRef / d.currentResistor / 24 / fOsc
	d.voltageMult = 1e6 * 512 * vRef * d.voltageResistor / 2 / fOsc
	d.powerMult = 1e6 * 128 * vRef * vRef * d.voltageResistor / d.currentResistor / 48 / fOsc
}

// ResetMultipliers restores the datasheet-default multipliers for the
// configured resistors, discarding any self-calibration.
func (d *Device) ResetMultipliers() {
	d.calculateDefaultMultipliers()
}

// SetResistors updates the current-sense shunt (Ω) and the voltage divider
// (upstream and downstream Ω) and recomputes the multipliers. Non-positive
// values are ignored and the prior calibration is retained.
func (d *Device) SetResistors(current, voltageUpstream, voltageDownstream float64) {
	if voltageDownstream <= 0 {
		return
	}
	if current > 0 {
		d.currentResistor = current
	}
	d.voltageResistor = (voltageUpstream + voltageDownstream) / voltageDownstream
	d.calculateDefaultMultipliers()
}

// ExpectedCurrent scales the current multiplier so the present measurement
// reads as value (A). Ignored when value is non-positive or no raw
// measurement is obtainable; never calibrates against a forced zero.
func (d *Device) ExpectedCurrent(value float32) {
	if value <= 0 {
		return
	}
	if d.current == 0 {
		d.Current()
	}
	if d.current > 0 {
		d.currentMult *= float64(value / d.current)
	}
}

// ExpectedVoltage scales the voltage multiplier against a known reference (V).
func (d *Device) ExpectedVoltage(value float32) {
	if value <= 0 {
		return
	}
	if d.voltage == 0 {
		d.Voltage()
	}
	if d.voltage > 0 {
		d.voltageMult *= float64(value / d.voltage)
	}
}

// ExpectedActivePower scales the power multiplier against a known reference (W).
func (d *Device) ExpectedActivePower(value float32) {
	if value <= 0 {
		return
	}
	if d.power == 0 {
		d.ActivePower()
	}
	if d.power > 0 {
		d.powerMult *= float64(value / d.power)
	}
}

// Multiplier accessors. Setters ignore non-positive values so the invariant
// that multipliers stay strictly positive holds.
func (d *Device) CurrentMultiplier() float64 { return d.currentMult }
func (d *Device) VoltageMultiplier() float64 { return d.voltageMult }
func (d *Device) PowerMultiplier() float64   { return d.powerMult }

func (d *Device) SetCurrentMultiplier(m float64) {
	if m > 0 {
		d.currentMult = m
	}
}

func (d *Device) SetVoltageMultiplier(m float64) {
	if m > 0 {
		d.voltageMult = m
	}
}

func (d *Device) SetPowerMultiplier(m float64) {
	if m > 0 {
		d.powerMult = m
	}
}
