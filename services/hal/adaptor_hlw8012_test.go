package hal

import (
	"context"
	"testing"

	"powermeter-go/drivers/hlw8012"
	"powermeter-go/errcode"
	"powermeter-go/services/hal/internal/halcore"
)

func newTestAdaptor(t *testing.T) (Adaptor, *hlw8012.Device) {
	t.Helper()
	sel := halcore.NewFakePin(5)
	if err := sel.ConfigureOutput(false); err != nil {
		t.Fatal(err)
	}
	dev := hlw8012.New(hlw8012.Config{
		Sel:             sel,
		Clock:           &halcore.FakeClock{},
		CurrentWhenHigh: true,
		Ingest:          hlw8012.IngestInterrupt,
	})
	return NewHLW8012Adaptor("meter0", dev), dev
}

func TestAdaptorCapabilities(t *testing.T) {
	a, _ := newTestAdaptor(t)

	if a.ID() != "meter0" {
		t.Fatalf("ID = %q, want meter0", a.ID())
	}

	want := []string{"power", "apparent_power", "reactive_power", "power_factor", "voltage", "current", "energy"}
	caps := a.Capabilities()
	if len(caps) != len(want) {
		t.Fatalf("got %d capabilities, want %d", len(caps), len(want))
	}
	for i, c := range caps {
		if c.Kind != want[i] {
			t.Errorf("capability %d = %q, want %q", i, c.Kind, want[i])
		}
		if c.Info["driver"] != "hlw8012" {
			t.Errorf("capability %q missing driver info", c.Kind)
		}
	}
}

func TestAdaptorCollect(t *testing.T) {
	a, _ := newTestAdaptor(t)

	if _, err := a.Trigger(context.Background()); err != nil {
		t.Fatalf("Trigger: %v", err)
	}
	sample, err := a.Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(sample) != 7 {
		t.Fatalf("got %d readings, want 7", len(sample))
	}
	for _, r := range sample {
		p, ok := r.Payload.(map[string]any)
		if !ok {
			t.Fatalf("reading %q payload is not a map", r.Kind)
		}
		valid, ok := p["valid"].(bool)
		if !ok {
			t.Fatalf("reading %q has no valid flag", r.Kind)
		}
		// No pulses have arrived, so only the energy counter (zero but
		// well-defined) reads as valid.
		if want := r.Kind == "energy"; valid != want {
			t.Errorf("reading %q valid = %v, want %v", r.Kind, valid, want)
		}
		if _, ok := p["value"].(float32); !ok {
			t.Errorf("reading %q has no float32 value", r.Kind)
		}
	}
}

func TestAdaptorControl(t *testing.T) {
	a, dev := newTestAdaptor(t)

	if _, err := a.Control("energy", "reset", nil); err != nil {
		t.Fatalf("energy/reset: %v", err)
	}

	got, err := a.Control("mode", "get", nil)
	if err != nil || got != "current" {
		t.Fatalf("mode/get = %v, %v; want current", got, err)
	}
	got, err = a.Control("mode", "toggle", nil)
	if err != nil || got != "voltage" {
		t.Fatalf("mode/toggle = %v, %v; want voltage", got, err)
	}
	if _, err := a.Control("mode", "set", "current"); err != nil {
		t.Fatalf("mode/set current: %v", err)
	}
	if dev.Mode() != hlw8012.ModeCurrent {
		t.Fatal("mode/set did not reach the device")
	}
	if _, err := a.Control("mode", "set", "sideways"); errcode.Of(err) != errcode.InvalidParams {
		t.Fatalf("mode/set bogus: err = %v, want invalid params", err)
	}

	if _, err := a.Control("calibration", "reset_multipliers", nil); err != nil {
		t.Fatalf("calibration/reset_multipliers: %v", err)
	}
	if _, err := a.Control("calibration", "expected_voltage", 230.0); err != nil {
		t.Fatalf("calibration/expected_voltage: %v", err)
	}
	if _, err := a.Control("calibration", "expected_current", "lots"); errcode.Of(err) != errcode.InvalidParams {
		t.Fatal("non-numeric calibration payload should be rejected")
	}

	if _, err := a.Control("thrust", "engage", nil); errcode.Of(err) != errcode.Unsupported {
		t.Fatalf("unknown control: err = %v, want unsupported", err)
	}
}
