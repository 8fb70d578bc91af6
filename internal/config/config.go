// Package config loads robot descriptions from YAML: drivetrain, tracking wheels, default
// action tuning and simulator parameters.
package config

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/doxa/internal/actions"
	"github.com/san-kum/doxa/internal/integrators"
	"github.com/san-kum/doxa/internal/sim"
)

var ErrInvalid = errors.New("config: invalid")

const (
	DefaultRoutine       = "forward"
	DefaultMaxVoltage    = 12.0
	DefaultPeriod        = 10 * time.Millisecond
	DefaultDuration      = 15 * time.Second
	DefaultMotorsPerSide = 3
)

// Wheel sources.
const (
	SourceLeft  = "left"
	SourceRight = "right"
	SourcePod   = "pod"
)

type Config struct {
	Routine    string           `yaml:"routine"`
	Side       string           `yaml:"side"`
	Integrator string           `yaml:"integrator"`
	Duration   time.Duration    `yaml:"duration"`
	Drivetrain DrivetrainConfig `yaml:"drivetrain"`
	Tracking   []WheelConfig    `yaml:"tracking"`
	Actions    actions.Config   `yaml:"actions"`
	Simulator  sim.Params       `yaml:"simulator"`
}

type DrivetrainConfig struct {
	MaxVoltage        float64       `yaml:"max_voltage"`
	Period            time.Duration `yaml:"period"`
	MotorsPerSide     int           `yaml:"motors_per_side"`
	InvertTurns       bool          `yaml:"invert_turns"`
	CalibratePolarity bool          `yaml:"calibrate_polarity"`
}

// WheelConfig describes one tracking wheel. Source "left" and "right" read the fused
// position of that side's motor group; "pod" reads a dedicated encoder named Name.
type WheelConfig struct {
	Name          string  `yaml:"name"`
	Orientation   string  `yaml:"orientation"`
	Source        string  `yaml:"source"`
	Circumference float64 `yaml:"circumference"`
	Offset        float64 `yaml:"offset"`
}

func DefaultConfig() *Config {
	simParams := sim.DefaultParams()
	half := simParams.TrackWidth / 2
	return &Config{
		Routine:    DefaultRoutine,
		Side:       "red",
		Integrator: "rk4",
		Duration:   DefaultDuration,
		Drivetrain: DrivetrainConfig{
			MaxVoltage:    DefaultMaxVoltage,
			Period:        DefaultPeriod,
			MotorsPerSide: DefaultMotorsPerSide,
		},
		Tracking: []WheelConfig{
			{Name: "left", Orientation: "parallel", Source: SourceLeft, Circumference: simParams.WheelCircumference, Offset: -half},
			{Name: "right", Orientation: "parallel", Source: SourceRight, Circumference: simParams.WheelCircumference, Offset: half},
		},
		Actions:   actions.DefaultConfig(),
		Simulator: simParams,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config")
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "parse %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, path)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, "marshal config")
	}
	return errors.Wrap(os.WriteFile(path, data, 0644), "write config")
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	out := *c
	out.Tracking = append([]WheelConfig(nil), c.Tracking...)
	out.Simulator.Obstacles = append([]sim.Rect(nil), c.Simulator.Obstacles...)
	out.Simulator.Faults = append([]sim.Fault(nil), c.Simulator.Faults...)
	return &out
}

// Reversed reports whether the configured side runs mirrored routines.
func (c *Config) Reversed() bool { return c.Side == "blue" }

// PodNames lists the tracking wheels read from dedicated encoders.
func (c *Config) PodNames() []string {
	var names []string
	for _, w := range c.Tracking {
		if w.Source == SourcePod {
			names = append(names, w.Name)
		}
	}
	return names
}

func (c *Config) Validate() error {
	if c.Side != "red" && c.Side != "blue" {
		return errors.Wrapf(ErrInvalid, "side %q must be red or blue", c.Side)
	}
	if _, err := integrators.ByName(c.Integrator); err != nil {
		return errors.Wrap(ErrInvalid, err.Error())
	}
	if c.Duration <= 0 {
		return errors.Wrap(ErrInvalid, "duration must be positive")
	}

	d := c.Drivetrain
	if d.MaxVoltage <= 0 || d.MaxVoltage > 12 {
		return errors.Wrapf(ErrInvalid, "max voltage %.1f outside (0, 12]", d.MaxVoltage)
	}
	if d.Period <= 0 {
		return errors.Wrap(ErrInvalid, "tick period must be positive")
	}
	if d.MotorsPerSide < 1 {
		return errors.Wrap(ErrInvalid, "need at least one motor per side")
	}

	if len(c.Tracking) == 0 {
		return errors.Wrap(ErrInvalid, "no tracking wheels")
	}
	for _, w := range c.Tracking {
		if w.Orientation != "parallel" && w.Orientation != "perpendicular" {
			return errors.Wrapf(ErrInvalid, "wheel %q: orientation %q", w.Name, w.Orientation)
		}
		switch w.Source {
		case SourceLeft, SourceRight, SourcePod:
		default:
			return errors.Wrapf(ErrInvalid, "wheel %q: source %q", w.Name, w.Source)
		}
		if w.Circumference <= 0 {
			return errors.Wrapf(ErrInvalid, "wheel %q: circumference must be positive", w.Name)
		}
	}

	s := c.Simulator
	if s.TrackWidth <= 0 || s.WheelCircumference <= 0 || s.FreeSpeed <= 0 || s.TimeConstant <= 0 {
		return errors.Wrap(ErrInvalid, "simulator track width, wheel, speed and time constant must be positive")
	}

	if err := c.Actions.Validate(); err != nil {
		return errors.Wrap(ErrInvalid, err.Error())
	}
	return nil
}
