package hal

import (
	"context"
	"testing"
	"time"

	"powermeter-go/errcode"
	"powermeter-go/services/hal/internal/halcore"
)

type noPins struct{}

func (noPins) ByNumber(int) (GPIOPin, bool) { return nil, false }

func TestBuildHLW8012UnknownPin(t *testing.T) {
	_, _, err := BuildHLW8012(noPins{}, &halcore.FakeClock{}, HLW8012Setup{
		ID: "meter0", CFPin: 14, CF1Pin: 13, SelPin: 5,
	}, nil)
	if errcode.Of(err) != errcode.UnknownPin {
		t.Fatalf("err = %v, want unknown pin", err)
	}
}

func TestBuildHLW8012RejectsSharedPin(t *testing.T) {
	_, _, err := BuildHLW8012(&halcore.FakePinFactory{}, &halcore.FakeClock{}, HLW8012Setup{
		ID: "meter0", CFPin: 14, CF1Pin: 14, SelPin: 5,
	}, nil)
	if errcode.Of(err) != errcode.PinInUse {
		t.Fatalf("err = %v, want pin in use", err)
	}
}

func TestBuildHLW8012PollingConfiguresPins(t *testing.T) {
	pins := &halcore.FakePinFactory{}
	dev, cancel, err := BuildHLW8012(pins, &halcore.FakeClock{}, HLW8012Setup{
		ID:              "meter0",
		CFPin:           14,
		CF1Pin:          13,
		SelPin:          5,
		CurrentWhenHigh: true,
		UseInterrupts:   false,
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer cancel()

	cf, _ := pins.Pin(14)
	cf1, _ := pins.Pin(13)
	sel, _ := pins.Pin(5)
	if cf.IsOutput() || cf1.IsOutput() {
		t.Fatal("pulse pins must be inputs")
	}
	if !sel.IsOutput() {
		t.Fatal("sel pin must be an output")
	}
	// Initial mode is current, and current-when-high means SEL starts high.
	if !sel.Get() {
		t.Fatal("sel should be driven high for current mode")
	}
	if dev == nil {
		t.Fatal("no device")
	}
}

func TestBuildHLW8012WorkerBacklogKeepsEdgeTiming(t *testing.T) {
	const timeout = 500000 // µs

	pins := &halcore.FakePinFactory{}
	clk := &halcore.FakeClock{}
	irqw := NewIRQWorker(clk, 64)

	dev, cancel, err := BuildHLW8012(pins, clk, HLW8012Setup{
		ID:              "meter0",
		CFPin:           14,
		CF1Pin:          13,
		SelPin:          5,
		CurrentWhenHigh: true,
		UseInterrupts:   true,
		PulseTimeout:    timeout,
	}, irqw)
	if err != nil {
		t.Fatal(err)
	}
	defer cancel()

	// Queue a full pulse train before the worker ever runs: a closing edge
	// for the empty startup window, 11 in-window edges, then the edge that
	// closes the window past 2× timeout.
	cf, _ := pins.Pin(14)
	edge := func(at uint32) {
		clk.SetMicros(at)
		cf.Set(true)
		cf.Set(false)
	}
	edge(1100000)
	for ts := uint32(1110000); ts <= 1210000; ts += 10000 {
		edge(ts)
	}
	edge(2150000)

	// Jump the clock far past the train; if dispatch re-read it, every edge
	// would appear simultaneous and the window would be discarded.
	clk.SetMicros(9000000)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	irqw.Start(ctx)

	want := uint32((2150000 - 1100000) / 11)
	deadline := time.Now().Add(time.Second)
	for dev.PowerPulseWidth() != want {
		if time.Now().After(deadline) {
			t.Fatalf("power width = %d, want %d from capture-time stamps", dev.PowerPulseWidth(), want)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestBuildHLW8012DirectIRQ(t *testing.T) {
	pins := &halcore.FakePinFactory{}
	dev, cancel, err := BuildHLW8012(pins, &halcore.FakeClock{}, HLW8012Setup{
		ID:              "meter0",
		CFPin:           14,
		CF1Pin:          13,
		SelPin:          5,
		CurrentWhenHigh: true,
		UseInterrupts:   true,
	}, nil)
	if err != nil {
		t.Fatal(err)
	}

	// Each rising edge on CF bumps the cumulative pulse counter, which is
	// what the energy reading is derived from.
	cf, _ := pins.Pin(14)
	for i := 0; i < 4; i++ {
		cf.Set(true)
		cf.Set(false)
	}
	want := float32(4 * dev.PowerMultiplier() / 1e6 / 2)
	if got, ok := dev.Energy(); !ok || got != want {
		t.Fatalf("energy = %v (valid=%v), want %v/valid", got, ok, want)
	}

	// After cancel the IRQs are detached and edges stop counting.
	cancel()
	dev.ResetEnergy()
	cf.Set(true)
	cf.Set(false)
	if got, _ := dev.Energy(); got != 0 {
		t.Fatalf("energy after cancel = %v, want 0", got)
	}
}
