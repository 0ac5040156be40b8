package hlw8012

// estimateWidth turns a closed measurement window into a single pulse-width
// estimate in microseconds, or 0 for "no signal".
//
// The first pulses after a SEL switch are unstable, so a window that never
// accumulated enough edges is discarded. With few edges the most recent
// inter-edge interval is the most representative sample; with many, the
// average over the whole window suppresses jitter and gains resolution.
func estimateWidth(first, last, now, count uint32) uint32 {
	if last == first || count < 3 {
		return 0
	}
	if count < 10 {
		return now - last
	}
	return (now - first) / count
}

// smooth applies the optional IIR step: new = (3·new + old) / 4.
// A zero old value means no previous estimate; pass the new one through.
func smooth(old, new uint32) uint32 {
	if old == 0 {
		return new
	}
	return (old + 3*new) >> 2
}
