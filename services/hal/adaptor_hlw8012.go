// services/hal/adaptor_hlw8012.go
package hal

import (
	"context"
	"time"

	"powermeter-go/drivers/hlw8012"
	"powermeter-go/errcode"
	"powermeter-go/x/timex"
)

type hlw8012Adaptor struct {
	id  string
	dev *hlw8012.Device
}

// NewHLW8012Adaptor wraps an already-built device. Pin claiming and IRQ
// wiring happen in BuildHLW8012.
func NewHLW8012Adaptor(id string, dev *hlw8012.Device) Adaptor {
	return &hlw8012Adaptor{id: id, dev: dev}
}

func (a *hlw8012Adaptor) ID() string { return a.id }

func (a *hlw8012Adaptor) Capabilities() []CapInfo {
	return []CapInfo{
		{Kind: "power", Info: map[string]any{"unit": "W", "schema_version": 1, "driver": "hlw8012"}},
		{Kind: "apparent_power", Info: map[string]any{"unit": "VA", "schema_version": 1, "driver": "hlw8012"}},
		{Kind: "reactive_power", Info: map[string]any{"unit": "var", "schema_version": 1, "driver": "hlw8012"}},
		{Kind: "power_factor", Info: map[string]any{"unit": "", "schema_version": 1, "driver": "hlw8012"}},
		{Kind: "voltage", Info: map[string]any{"unit": "V", "schema_version": 1, "driver": "hlw8012"}},
		{Kind: "current", Info: map[string]any{"unit": "A", "schema_version": 1, "driver": "hlw8012"}},
		{Kind: "energy", Info: map[string]any{"unit": "Ws", "schema_version": 1, "driver": "hlw8012"}},
	}
}

// Trigger is a no-op: the interrupt path measures continuously and the
// polling path measures during Collect.
func (a *hlw8012Adaptor) Trigger(ctx context.Context) (time.Duration, error) {
	return 0, nil
}

func (a *hlw8012Adaptor) Collect(ctx context.Context) (Sample, error) {
	ts := timex.NowMs()
	r := func(kind string, v float32, ok bool) Reading {
		return Reading{
			Kind:    kind,
			Payload: map[string]any{"value": v, "valid": ok, "ts_ms": ts},
			TsMs:    ts,
		}
	}

	// Active power first: a dead load shows up there before anywhere else,
	// and the current read depends on the freshest power value.
	power, okP := a.dev.ActivePower()
	voltage, okV := a.dev.Voltage()
	current, okC := a.dev.Current()
	apparent, okAp := a.dev.ApparentPower()
	reactive, okRe := a.dev.ReactivePower()
	pf, okPf := a.dev.PowerFactor()
	energy, okE := a.dev.Energy()

	return Sample{
		r("power", power, okP),
		r("apparent_power", apparent, okAp),
		r("reactive_power", reactive, okRe),
		r("power_factor", pf, okPf),
		r("voltage", voltage, okV),
		r("current", current, okC),
		r("energy", energy, okE),
	}, nil
}

func (a *hlw8012Adaptor) Control(kind, method string, payload any) (any, error) {
	switch kind {
	case "energy":
		if method == "reset" {
			a.dev.ResetEnergy()
			return nil, nil
		}
	case "mode":
		switch method {
		case "get":
			return a.dev.Mode().String(), nil
		case "toggle":
			return a.dev.ToggleMode().String(), nil
		case "set":
			switch payload {
			case "current":
				a.dev.SetMode(hlw8012.ModeCurrent)
				return nil, nil
			case "voltage":
				a.dev.SetMode(hlw8012.ModeVoltage)
				return nil, nil
			}
			return nil, errcode.InvalidParams
		}
	case "calibration":
		switch method {
		case "reset_multipliers":
			a.dev.ResetMultipliers()
			return nil, nil
		case "expected_current":
			if v, ok := toFloat32(payload); ok {
				a.dev.ExpectedCurrent(v)
				return nil, nil
			}
			return nil, errcode.InvalidParams
		case "expected_voltage":
			if v, ok := toFloat32(payload); ok {
				a.dev.ExpectedVoltage(v)
				return nil, nil
			}
			return nil, errcode.InvalidParams
		case "expected_power":
			if v, ok := toFloat32(payload); ok {
				a.dev.ExpectedActivePower(v)
				return nil, nil
			}
			return nil, errcode.InvalidParams
		}
	}
	return nil, errcode.Unsupported
}

func toFloat32(v any) (float32, bool) {
	switch x := v.(type) {
	case float32:
		return x, true
	case float64:
		return float32(x), true
	case int:
		return float32(x), true
	default:
		return 0, false
	}
}
