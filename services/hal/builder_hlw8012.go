// services/hal/builder_hlw8012.go
package hal

import (
	"powermeter-go/drivers/hlw8012"
	"powermeter-go/errcode"
	"powermeter-go/services/hal/internal/gpioirq"
	"powermeter-go/services/hal/internal/halcore"
)

// HLW8012Setup carries everything needed to claim pins and build a device.
type HLW8012Setup struct {
	ID              string
	CFPin           int // power pulse train
	CF1Pin          int // shared current/voltage pulse train
	SelPin          int // mux select output
	CurrentWhenHigh bool
	UseInterrupts   bool
	PulseTimeout    uint32 // µs; 0 = driver default
	Smoothing       bool
}

// BuildHLW8012 claims the three pins, configures their directions (inputs
// pulled up, SEL as output) and wires ingestion. With irqw non-nil the edge
// callbacks are serialised through the worker; with irqw nil they attach
// directly to the pin IRQ, which on MCU builds means real interrupt context.
// The returned cancel detaches any IRQs.
func BuildHLW8012(pins PinFactory, clk Clock, s HLW8012Setup, irqw *gpioirq.Worker) (*hlw8012.Device, func(), error) {
	if s.CFPin == s.CF1Pin || s.CFPin == s.SelPin || s.CF1Pin == s.SelPin {
		return nil, nil, &errcode.E{C: errcode.PinInUse, Op: "hlw8012.build", Msg: s.ID}
	}

	claim := func(n int) (GPIOPin, error) {
		p, ok := pins.ByNumber(n)
		if !ok {
			return nil, &errcode.E{C: errcode.UnknownPin, Op: "hlw8012.build", Msg: s.ID}
		}
		return p, nil
	}

	cf, err := claim(s.CFPin)
	if err != nil {
		return nil, nil, err
	}
	cf1, err := claim(s.CF1Pin)
	if err != nil {
		return nil, nil, err
	}
	sel, err := claim(s.SelPin)
	if err != nil {
		return nil, nil, err
	}

	if err := cf.ConfigureInput(PullUp); err != nil {
		return nil, nil, err
	}
	if err := cf1.ConfigureInput(PullUp); err != nil {
		return nil, nil, err
	}
	if err := sel.ConfigureOutput(false); err != nil {
		return nil, nil, err
	}

	cfg := hlw8012.Config{
		Sel:             sel,
		Clock:           clk,
		CurrentWhenHigh: s.CurrentWhenHigh,
		PulseTimeout:    s.PulseTimeout,
		Smoothing:       s.Smoothing,
	}
	if !s.UseInterrupts {
		cfg.Ingest = hlw8012.IngestPolling
		cfg.CF = halcore.PulseSource{Pin: cf, Clk: clk}
		cfg.CF1 = halcore.PulseSource{Pin: cf1, Clk: clk}
		return hlw8012.New(cfg), func() {}, nil
	}

	cfg.Ingest = hlw8012.IngestInterrupt
	dev := hlw8012.New(cfg)

	cfIRQ, ok := cf.(IRQPin)
	if !ok {
		return nil, nil, &errcode.E{C: errcode.Unsupported, Op: "hlw8012.build", Msg: "cf pin has no IRQ support"}
	}
	cf1IRQ, ok := cf1.(IRQPin)
	if !ok {
		return nil, nil, &errcode.E{C: errcode.Unsupported, Op: "hlw8012.build", Msg: "cf1 pin has no IRQ support"}
	}

	if irqw != nil {
		// The worker stamps each edge in the ISR; forward that time so a
		// queue backlog cannot compress the observed inter-edge intervals.
		cancelCF, err := irqw.Register(s.ID+"/cf", cfIRQ, EdgeRising, func(ev gpioirq.Event) { dev.CFEdgeAt(ev.TS) })
		if err != nil {
			return nil, nil, err
		}
		cancelCF1, err := irqw.Register(s.ID+"/cf1", cf1IRQ, EdgeRising, func(ev gpioirq.Event) { dev.CF1EdgeAt(ev.TS) })
		if err != nil {
			cancelCF()
			return nil, nil, err
		}
		return dev, func() { cancelCF(); cancelCF1() }, nil
	}

	if err := cfIRQ.SetIRQ(EdgeRising, dev.CFEdge); err != nil {
		return nil, nil, err
	}
	if err := cf1IRQ.SetIRQ(EdgeRising, dev.CF1Edge); err != nil {
		_ = cfIRQ.ClearIRQ()
		return nil, nil, err
	}
	return dev, func() {
		_ = cfIRQ.ClearIRQ()
		_ = cf1IRQ.ClearIRQ()
	}, nil
}
