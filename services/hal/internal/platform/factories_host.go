// services/hal/internal/platform/factories_host.go
//go:build !linux && !rp2040 && !rp2350

package platform

import "powermeter-go/services/hal/internal/halcore"

// Host builds get fake pins; tests and the demo drive edges themselves.
func DefaultPinFactory() halcore.PinFactory {
	return &halcore.FakePinFactory{}
}
