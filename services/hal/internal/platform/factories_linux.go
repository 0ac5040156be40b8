// services/hal/internal/platform/factories_linux.go
//go:build linux && !rp2040 && !rp2350

package platform

import (
	"sync"

	"github.com/warthog618/go-gpiocdev"

	"powermeter-go/services/hal/internal/halcore"
)

// Linux builds use the GPIO character device. Edge handlers run on the
// gpiocdev event goroutine, so they behave like ISR callbacks: keep them
// short and non-blocking (the gpioirq worker takes care of that).

const defaultChip = "gpiochip0"

type linuxPinFactory struct {
	mu   sync.Mutex
	chip *gpiocdev.Chip
	pins map[int]*linuxPin
}

func DefaultPinFactory() halcore.PinFactory {
	return &linuxPinFactory{pins: make(map[int]*linuxPin)}
}

func (f *linuxPinFactory) ByNumber(n int) (halcore.GPIOPin, bool) {
	if n < 0 {
		return nil, false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.chip == nil {
		c, err := gpiocdev.NewChip(defaultChip)
		if err != nil {
			return nil, false
		}
		f.chip = c
	}
	p, ok := f.pins[n]
	if !ok {
		p = &linuxPin{chip: f.chip, n: n}
		f.pins[n] = p
	}
	return p, true
}

type linuxPin struct {
	mu   sync.Mutex
	chip *gpiocdev.Chip
	line *gpiocdev.Line
	n    int
	pull halcore.Pull
}

func (p *linuxPin) Number() int { return p.n }

// request drops any existing line claim and re-requests with opts. The
// chardev API fixes direction/edge detection at request time, so every
// reconfiguration is a fresh request.
func (p *linuxPin) request(opts ...gpiocdev.LineReqOption) error {
	if p.line != nil {
		_ = p.line.Close()
		p.line = nil
	}
	l, err := p.chip.RequestLine(p.n, opts...)
	if err != nil {
		return err
	}
	p.line = l
	return nil
}

func pullOpts(pull halcore.Pull) []gpiocdev.LineReqOption {
	switch pull {
	case halcore.PullUp:
		return []gpiocdev.LineReqOption{gpiocdev.WithPullUp}
	case halcore.PullDown:
		return []gpiocdev.LineReqOption{gpiocdev.WithPullDown}
	default:
		return nil
	}
}

func (p *linuxPin) ConfigureInput(pull halcore.Pull) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pull = pull
	opts := append([]gpiocdev.LineReqOption{gpiocdev.AsInput}, pullOpts(pull)...)
	return p.request(opts...)
}

func (p *linuxPin) ConfigureOutput(initial bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	v := 0
	if initial {
		v = 1
	}
	return p.request(gpiocdev.AsOutput(v))
}

func (p *linuxPin) Set(level bool) {
	p.mu.Lock()
	l := p.line
	p.mu.Unlock()
	if l == nil {
		return
	}
	v := 0
	if level {
		v = 1
	}
	_ = l.SetValue(v)
}

func (p *linuxPin) Get() bool {
	p.mu.Lock()
	l := p.line
	p.mu.Unlock()
	if l == nil {
		return false
	}
	v, err := l.Value()
	return err == nil && v != 0
}

func (p *linuxPin) Toggle() { p.Set(!p.Get()) }

func (p *linuxPin) SetIRQ(edge halcore.Edge, handler func()) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var edgeOpt gpiocdev.LineReqOption
	switch edge {
	case halcore.EdgeRising:
		edgeOpt = gpiocdev.WithRisingEdge
	case halcore.EdgeFalling:
		edgeOpt = gpiocdev.WithFallingEdge
	case halcore.EdgeBoth:
		edgeOpt = gpiocdev.WithBothEdges
	default:
		return p.clearIRQLocked()
	}

	opts := append([]gpiocdev.LineReqOption{gpiocdev.AsInput}, pullOpts(p.pull)...)
	opts = append(opts, edgeOpt,
		gpiocdev.WithEventHandler(func(gpiocdev.LineEvent) { handler() }))
	return p.request(opts...)
}

func (p *linuxPin) ClearIRQ() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.clearIRQLocked()
}

func (p *linuxPin) clearIRQLocked() error {
	opts := append([]gpiocdev.LineReqOption{gpiocdev.AsInput}, pullOpts(p.pull)...)
	return p.request(opts...)
}
