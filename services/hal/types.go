// services/hal/types.go
package hal

import (
	"powermeter-go/services/hal/internal/halcore"
)

// Re-exports so callers depend on the hal package, not its internals.

type Reading = halcore.Reading
type Sample = halcore.Sample
type CapInfo = halcore.CapInfo
type Adaptor = halcore.Adaptor

type Pull = halcore.Pull
type Edge = halcore.Edge
type GPIOPin = halcore.GPIOPin
type IRQPin = halcore.IRQPin
type PinFactory = halcore.PinFactory
type Clock = halcore.Clock

const (
	PullNone = halcore.PullNone
	PullUp   = halcore.PullUp
	PullDown = halcore.PullDown

	EdgeNone    = halcore.EdgeNone
	EdgeRising  = halcore.EdgeRising
	EdgeFalling = halcore.EdgeFalling
	EdgeBoth    = halcore.EdgeBoth
)
