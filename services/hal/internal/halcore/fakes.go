// services/hal/internal/halcore/fakes.go
package halcore

import (
	"sync"
	"sync/atomic"
)

// FakePin implements GPIOPin and IRQPin for host-side tests and the host
// demo build. Setting the level fires any registered IRQ handler whose edge
// matches, ISR-style on the caller's goroutine.
type FakePin struct {
	mu      sync.RWMutex
	number  int
	level   bool
	modeOut bool
	pull    Pull
	irqEdge Edge
	irqFunc func()
}

func NewFakePin(number int) *FakePin { return &FakePin{number: number} }

func (p *FakePin) ConfigureInput(pull Pull) error {
	p.mu.Lock()
	p.modeOut = false
	p.pull = pull
	p.mu.Unlock()
	return nil
}

func (p *FakePin) ConfigureOutput(initial bool) error {
	p.mu.Lock()
	p.modeOut = true
	p.level = initial
	p.mu.Unlock()
	return nil
}

func (p *FakePin) Set(level bool) {
	p.mu.Lock()
	old := p.level
	p.level = level
	irq := p.irqFunc
	fire := irq != nil && edgeWanted(p.irqEdge, edgeFrom(old, level))
	p.mu.Unlock()
	if fire {
		irq()
	}
}

func (p *FakePin) Get() bool {
	p.mu.RLock()
	v := p.level
	p.mu.RUnlock()
	return v
}

func (p *FakePin) Toggle()     { p.Set(!p.Get()) }
func (p *FakePin) Number() int { return p.number }

func (p *FakePin) SetIRQ(edge Edge, handler func()) error {
	p.mu.Lock()
	p.irqEdge = edge
	p.irqFunc = handler
	p.mu.Unlock()
	return nil
}

func (p *FakePin) ClearIRQ() error {
	p.mu.Lock()
	p.irqEdge = EdgeNone
	p.irqFunc = nil
	p.mu.Unlock()
	return nil
}

// IsOutput reports whether the pin was last configured as an output.
func (p *FakePin) IsOutput() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.modeOut
}

func edgeFrom(old, new bool) Edge {
	switch {
	case !old && new:
		return EdgeRising
	case old && !new:
		return EdgeFalling
	default:
		return EdgeNone
	}
}

func edgeWanted(cfg, seen Edge) bool {
	if seen == EdgeNone {
		return false
	}
	if cfg == EdgeBoth {
		return true
	}
	return cfg == seen
}

// FakePinFactory returns stable *FakePin instances per number.
type FakePinFactory struct {
	mu   sync.Mutex
	pins map[int]*FakePin
}

func (f *FakePinFactory) ByNumber(n int) (GPIOPin, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pins == nil {
		f.pins = make(map[int]*FakePin)
	}
	p, ok := f.pins[n]
	if !ok {
		p = NewFakePin(n)
		f.pins[n] = p
	}
	return p, true
}

// Pin exposes the underlying *FakePin for tests (e.g. to drive IRQ edges).
func (f *FakePinFactory) Pin(n int) (*FakePin, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.pins[n]
	return p, ok
}

// FakeClock is a manually advanced microsecond clock.
type FakeClock struct {
	us uint32
}

func (c *FakeClock) Micros() uint32 { return atomic.LoadUint32(&c.us) }

// Advance moves the clock forward by d microseconds.
func (c *FakeClock) Advance(d uint32) { atomic.AddUint32(&c.us, d) }

// SetMicros jumps the clock to an absolute value (wrap tests).
func (c *FakeClock) SetMicros(us uint32) { atomic.StoreUint32(&c.us, us) }
