package config

import (
	"sort"
	"time"

	"github.com/san-kum/doxa/internal/control"
	"github.com/san-kum/doxa/internal/sim"
)

// Presets adjust the default robot. Each is applied to a fresh DefaultConfig.
var Presets = map[string]func(*Config){
	"default": func(*Config) {},
	"precise": func(c *Config) {
		c.Drivetrain.MaxVoltage = 10
		c.Actions = c.Actions.
			WithLinearKi(0.002).
			WithLinearErrorTolerance(5).
			WithLinearToleranceDuration(250 * time.Millisecond).
			WithTurnErrorTolerance(0.01).
			WithTurnToleranceDuration(250 * time.Millisecond)
		c.Actions.Linear.IntegralLimit = 500
	},
	"aggressive": func(c *Config) {
		c.Actions = c.Actions.
			WithLinearKp(0.05).
			WithTurnKp(6).
			WithLinearTimeout(2500 * time.Millisecond).
			WithTurnTimeout(1200 * time.Millisecond).
			WithLinearToleranceDuration(50 * time.Millisecond)
	},
	"odom-pods": func(c *Config) {
		c.Tracking = []WheelConfig{
			{Name: "vertical", Orientation: "parallel", Source: SourcePod, Circumference: 219.4, Offset: -40},
			{Name: "horizontal", Orientation: "perpendicular", Source: SourcePod, Circumference: 219.4, Offset: -60},
		}
	},
	"noisy": func(c *Config) {
		c.Simulator.HeadingDrift = 0.2
		c.Simulator.HeadingNoise = 0.3
		c.Simulator.Faults = []sim.Fault{
			{Device: "imu", Kind: sim.Disconnected, Start: 3500 * time.Millisecond, End: 3800 * time.Millisecond},
			{Device: "left", Kind: sim.Stale, Start: 5 * time.Second, End: 5100 * time.Millisecond},
		}
		c.Actions.PursuitTurn = control.Gains{Kp: 5, Kd: 0.2, OutputLimit: 8}
	},
}

func GetPreset(name string) *Config {
	apply, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	apply(cfg)
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
