// cmd/powermeter/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"powermeter-go/services/config"
	"powermeter-go/services/hal"
)

// ---------- Configuration ----------

const (
	defaultConfigPath = "powermeter.yaml"
	configPathEnv     = "POWERMETER_CONFIG"
)

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}

func validity(ok bool) string {
	if ok {
		return ""
	}
	return " (no signal)"
}

func main() {
	// .env is optional; it only supplies POWERMETER_CONFIG overrides.
	_ = godotenv.Load()

	path := os.Getenv(configPathEnv)
	if path == "" {
		path = defaultConfigPath
	}
	cfg, err := config.Load(path)
	if err != nil {
		fatalf("config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		cancel()
	}()

	pins := hal.DefaultPinFactory()
	clk := hal.DefaultClock()

	var irqw *hal.IRQWorker
	if cfg.Sensor.UseInterrupts {
		irqw = hal.NewIRQWorker(clk, 64)
		irqw.Start(ctx)
	}

	dev, detach, err := hal.BuildHLW8012(pins, clk, hal.HLW8012Setup{
		ID:              cfg.Sensor.ID,
		CFPin:           cfg.Sensor.CFPin,
		CF1Pin:          cfg.Sensor.CF1Pin,
		SelPin:          cfg.Sensor.SelPin,
		CurrentWhenHigh: cfg.Sensor.CurrentWhenHigh,
		UseInterrupts:   cfg.Sensor.UseInterrupts,
		PulseTimeout:    cfg.Sensor.PulseTimeoutUs,
		Smoothing:       cfg.Sensor.Smoothing,
	}, irqw)
	if err != nil {
		fatalf("build %s: %v", cfg.Sensor.ID, err)
	}
	defer detach()

	if cal := cfg.Calibration; cal.VoltageDownstream > 0 || cal.CurrentResistor > 0 {
		dev.SetResistors(cal.CurrentResistor, cal.VoltageUpstream, cal.VoltageDownstream)
	}

	adaptor := hal.NewHLW8012Adaptor(cfg.Sensor.ID, dev)
	fmt.Printf("%s: cf=%d cf1=%d sel=%d interrupts=%v timeout=%dus\n",
		cfg.Sensor.ID, cfg.Sensor.CFPin, cfg.Sensor.CF1Pin, cfg.Sensor.SelPin,
		cfg.Sensor.UseInterrupts, dev.PulseTimeout())

	interval := time.Duration(cfg.Report.IntervalMs) * time.Millisecond
	if interval <= 0 {
		interval = 2 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			fmt.Println("shutting down")
			return
		case <-ticker.C:
		}

		if _, err := adaptor.Trigger(ctx); err != nil {
			fmt.Printf("trigger: %v\n", err)
			continue
		}
		sample, err := adaptor.Collect(ctx)
		if err != nil {
			fmt.Printf("collect: %v\n", err)
			continue
		}
		fmt.Printf("-- %s mode=%s\n", cfg.Sensor.ID, dev.Mode())
		for _, r := range sample {
			p := r.Payload.(map[string]any)
			fmt.Printf("  %-15s %10.3f%s\n", r.Kind, p["value"], validity(p["valid"].(bool)))
		}
	}
}
