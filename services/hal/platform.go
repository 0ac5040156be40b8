// services/hal/platform.go
package hal

import (
	"powermeter-go/services/hal/internal/gpioirq"
	"powermeter-go/services/hal/internal/platform"
)

// IRQWorker serialises pin edge callbacks onto one goroutine; see gpioirq.
type IRQWorker = gpioirq.Worker

// NewIRQWorker returns a worker stamping edges from clk, with the given ISR
// queue depth.
func NewIRQWorker(clk Clock, isrBuf int) *IRQWorker { return gpioirq.New(clk, isrBuf) }

// DefaultPinFactory returns the build-appropriate GPIO backend: machine pins
// on RP2, the GPIO character device on Linux, fakes elsewhere.
func DefaultPinFactory() PinFactory { return platform.DefaultPinFactory() }

// DefaultClock returns the platform monotonic microsecond clock.
func DefaultClock() Clock { return platform.DefaultClock() }
