// services/hal/internal/platform/clock.go
package platform

import (
	"powermeter-go/services/hal/internal/halcore"
	"powermeter-go/x/timex"
)

type sysClock struct{}

func (sysClock) Micros() uint32 { return timex.Micros() }

// DefaultClock returns the platform's monotonic microsecond clock. The same
// source serves host, Linux and RP2 builds; values wrap at 2^32 (~71 min)
// and are only ever compared by subtraction.
func DefaultClock() halcore.Clock { return sysClock{} }
