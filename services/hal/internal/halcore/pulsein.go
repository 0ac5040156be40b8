// services/hal/internal/halcore/pulsein.go
package halcore

// PulseIn measures one active-high pulse on pin: it waits out any pulse
// already in progress, waits for the next rising edge, then times the high
// period. Returns the high duration in microseconds, or 0 if the timeout
// elapses first. The caller's goroutine busy-waits for the whole measurement,
// which is the polling-mode trade-off: no ISR, but a blocked reader.
func PulseIn(pin GPIOPin, clk Clock, timeoutMicros uint32) uint32 {
	start := clk.Micros()
	expired := func() bool {
		return int32(clk.Micros()-start) > int32(timeoutMicros)
	}

	for pin.Get() {
		if expired() {
			return 0
		}
	}
	for !pin.Get() {
		if expired() {
			return 0
		}
	}
	rise := clk.Micros()
	for pin.Get() {
		if expired() {
			return 0
		}
	}
	return clk.Micros() - rise
}

// PulseSource binds a pin and clock into a blocking pulse reader, matching
// the drivers' PulseReader capability shape.
type PulseSource struct {
	Pin GPIOPin
	Clk Clock
}

func (s PulseSource) HighPulse(timeoutMicros uint32) uint32 {
	return PulseIn(s.Pin, s.Clk, timeoutMicros)
}
