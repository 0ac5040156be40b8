package hlw8012

import "sync/atomic"

// Interrupt-mode ingestion. CFEdge and CF1Edge are attached by the platform
// layer to rising edges on the CF and CF1 pins. Both run in interrupt
// context: no allocation, no blocking, O(1). Timestamps are copied into
// locals before use so a preempted foreground reader never sees a half
// applied window close.

// CFEdge handles one rising edge on the power channel, stamped with the
// current clock reading.
func (d *Device) CFEdge() {
	d.CFEdgeAt(d.clk.Micros())
}

// CFEdgeAt handles one rising edge on the power channel observed at now (µs).
// Dispatch paths that queue edges must capture the timestamp at the edge and
// pass it here; stamping at dispatch time compresses inter-edge intervals
// under backlog.
func (d *Device) CFEdgeAt(now uint32) {
	last := atomic.LoadUint32(&d.cfLast)
	atomic.StoreUint32(&d.cfLast, now)
	atomic.AddUint32(&d.cfTotal, 1)

	first := atomic.LoadUint32(&d.cfFirst)
	if int32(now-first) > int32(2*d.pulseTimeout) {
		count := atomic.LoadUint32(&d.cfCount)
		// Close the window before publishing its estimate.
		atomic.StoreUint32(&d.cfFirst, now)
		atomic.StoreUint32(&d.cfCount, 0)

		width := estimateWidth(first, last, now, count)
		if width != 0 && d.smoothing {
			width = smooth(atomic.LoadUint32(&d.powerWidth), width)
		}
		atomic.StoreUint32(&d.powerWidth, width)
	} else {
		atomic.AddUint32(&d.cfCount, 1)
	}
}

// CF1Edge handles one rising edge on the shared current/voltage channel,
// stamped with the current clock reading.
func (d *Device) CF1Edge() {
	d.CF1EdgeAt(d.clk.Micros())
}

// CF1EdgeAt handles one rising edge on the shared channel observed at now
// (µs). When the window closes it also flips SEL so the other quantity gets
// sampled next; the closed window's estimate belongs to the outgoing mode.
func (d *Device) CF1EdgeAt(now uint32) {
	last := atomic.LoadUint32(&d.cf1Last)
	atomic.StoreUint32(&d.cf1Last, now)

	first := atomic.LoadUint32(&d.cf1First)
	if int32(now-first) > int32(d.pulseTimeout) {
		count := atomic.LoadUint32(&d.cf1Count)
		level := atomic.LoadUint32(&d.selLevel)

		// Reset the window, then flip SEL. A reader racing this sees at
		// worst one spurious zero estimate, never edges attributed to the
		// wrong mode.
		atomic.StoreUint32(&d.cf1First, now)
		atomic.StoreUint32(&d.cf1Count, 0)
		d.sel.Set(level == 0)
		atomic.StoreUint32(&d.selLevel, 1-level)

		width := estimateWidth(first, last, now, count)
		if level == d.currentLevel {
			if width != 0 && d.smoothing {
				width = smooth(atomic.LoadUint32(&d.currentWidth), width)
			}
			atomic.StoreUint32(&d.currentWidth, width)
		} else {
			if width != 0 && d.smoothing {
				width = smooth(atomic.LoadUint32(&d.voltageWidth), width)
			}
			atomic.StoreUint32(&d.voltageWidth, width)
		}
	} else {
		atomic.AddUint32(&d.cf1Count, 1)
	}
}

// checkCF invalidates the power width when the CF source went quiet and no
// further edge will arrive to close the window. Foreground path only.
func (d *Device) checkCF() {
	now := d.clk.Micros()
	if int32(now-atomic.LoadUint32(&d.cfLast)) > int32(2*d.pulseTimeout) {
		atomic.StoreUint32(&d.cfLast, now)
		atomic.StoreUint32(&d.cfFirst, now)
		atomic.StoreUint32(&d.cfCount, 0)
		atomic.StoreUint32(&d.powerWidth, 0)
	}
}

// checkCF1 invalidates the stale quantity on the shared channel and forces a
// mode flip so the other quantity gets a chance to be sampled.
func (d *Device) checkCF1() {
	now := d.clk.Micros()
	if int32(now-atomic.LoadUint32(&d.cf1Last)) > int32(d.pulseTimeout) {
		atomic.StoreUint32(&d.cf1Last, now)
		atomic.StoreUint32(&d.cf1First, now)
		atomic.StoreUint32(&d.cf1Count, 0)

		level := atomic.LoadUint32(&d.selLevel)
		if level == d.currentLevel {
			atomic.StoreUint32(&d.currentWidth, 0)
		} else {
			atomic.StoreUint32(&d.voltageWidth, 0)
		}
		d.sel.Set(level == 0)
		atomic.StoreUint32(&d.selLevel, 1-level)
	}
}
