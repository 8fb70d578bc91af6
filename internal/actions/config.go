package actions

import (
	"time"

	"github.com/pkg/errors"

	"github.com/san-kum/doxa/internal/control"
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("actions: invalid config")

// Config carries the gains and tolerances for every action. It is a value type: each action
// keeps its own copy, and the With* methods return modified copies.
//
// Distances are mm, angles radians, outputs volts on a 12V scale.
type Config struct {
	Linear      control.Gains `yaml:"linear" json:"linear"`
	Turn        control.Gains `yaml:"turn" json:"turn"`
	PursuitTurn control.Gains `yaml:"pursuit_turn" json:"pursuit_turn"`

	PursuitLookahead float64 `yaml:"pursuit_lookahead" json:"pursuit_lookahead"`

	LinearSettle control.Tolerances `yaml:"linear_settle" json:"linear_settle"`
	TurnSettle   control.Tolerances `yaml:"turn_settle" json:"turn_settle"`

	// BoomerangLock is the distance under which the boomerang carrot is pinned to the target.
	BoomerangLock float64 `yaml:"boomerang_lock" json:"boomerang_lock"`
	// BoomerangLead scales how far behind the target the carrot is placed.
	BoomerangLead float64 `yaml:"boomerang_lead" json:"boomerang_lead"`
	// TurnFadeDistance is where point-seeking actions start fading out their turn term.
	TurnFadeDistance float64 `yaml:"turn_fade_distance" json:"turn_fade_distance"`
	// DivergenceGrace is how long after the start of a turn a growing error is reported.
	DivergenceGrace time.Duration `yaml:"divergence_grace" json:"divergence_grace"`
}

// DefaultConfig is tuned for the default simulated drivetrain.
func DefaultConfig() Config {
	return Config{
		Linear:           control.Gains{Kp: 0.03, Kd: 0.002, OutputLimit: 12},
		Turn:             control.Gains{Kp: 4.5, Kd: 0.3, OutputLimit: 12},
		PursuitTurn:      control.Gains{Kp: 6, OutputLimit: 8},
		PursuitLookahead: 300,
		LinearSettle: control.Tolerances{
			Error:    10,
			Velocity: 40,
			Duration: 100 * time.Millisecond,
			Timeout:  4 * time.Second,
		},
		TurnSettle: control.Tolerances{
			Error:    0.02,
			Velocity: 0.1,
			Duration: 100 * time.Millisecond,
			Timeout:  2 * time.Second,
		},
		BoomerangLock:    150,
		BoomerangLead:    0.5,
		TurnFadeDistance: 150,
		DivergenceGrace:  300 * time.Millisecond,
	}
}

// Validate is used when loading configs from files. Actions never validate at run time.
func (c Config) Validate() error {
	for name, g := range map[string]control.Gains{"linear": c.Linear, "turn": c.Turn, "pursuit_turn": c.PursuitTurn} {
		if g.Kp < 0 || g.Ki < 0 || g.Kd < 0 {
			return errors.Wrapf(ErrInvalidConfig, "%s gains must be non-negative", name)
		}
		if g.IntegralLimit < 0 || g.OutputLimit < 0 {
			return errors.Wrapf(ErrInvalidConfig, "%s limits must be non-negative", name)
		}
	}
	for name, t := range map[string]control.Tolerances{"linear": c.LinearSettle, "turn": c.TurnSettle} {
		if t.Error <= 0 || t.Velocity <= 0 {
			return errors.Wrapf(ErrInvalidConfig, "%s tolerances must be positive", name)
		}
		if t.Duration < 0 {
			return errors.Wrapf(ErrInvalidConfig, "%s settle duration must be non-negative", name)
		}
		if t.Timeout <= 0 {
			return errors.Wrapf(ErrInvalidConfig, "%s timeout must be positive", name)
		}
	}
	if c.PursuitLookahead <= 0 {
		return errors.Wrapf(ErrInvalidConfig, "pursuit lookahead %.1f must be positive", c.PursuitLookahead)
	}
	if c.BoomerangLead < 0 || c.BoomerangLock < 0 || c.TurnFadeDistance < 0 {
		return errors.Wrap(ErrInvalidConfig, "boomerang and fade distances must be non-negative")
	}
	return nil
}

func (c Config) WithLinearGains(g control.Gains) Config { c.Linear = g; return c }
func (c Config) WithLinearKp(kp float64) Config         { c.Linear.Kp = kp; return c }
func (c Config) WithLinearKi(ki float64) Config         { c.Linear.Ki = ki; return c }
func (c Config) WithLinearKd(kd float64) Config         { c.Linear.Kd = kd; return c }
func (c Config) WithLinearLimit(volts float64) Config   { c.Linear.OutputLimit = volts; return c }

func (c Config) WithLinearErrorTolerance(mm float64) Config {
	c.LinearSettle.Error = mm
	return c
}

func (c Config) WithLinearVelocityTolerance(mmPerSec float64) Config {
	c.LinearSettle.Velocity = mmPerSec
	return c
}

func (c Config) WithLinearToleranceDuration(d time.Duration) Config {
	c.LinearSettle.Duration = d
	return c
}

func (c Config) WithLinearTimeout(d time.Duration) Config {
	c.LinearSettle.Timeout = d
	return c
}

func (c Config) WithTurnGains(g control.Gains) Config { c.Turn = g; return c }
func (c Config) WithTurnKp(kp float64) Config         { c.Turn.Kp = kp; return c }
func (c Config) WithTurnKi(ki float64) Config         { c.Turn.Ki = ki; return c }
func (c Config) WithTurnKd(kd float64) Config         { c.Turn.Kd = kd; return c }
func (c Config) WithTurnLimit(volts float64) Config   { c.Turn.OutputLimit = volts; return c }

func (c Config) WithTurnErrorTolerance(rad float64) Config {
	c.TurnSettle.Error = rad
	return c
}

func (c Config) WithTurnVelocityTolerance(radPerSec float64) Config {
	c.TurnSettle.Velocity = radPerSec
	return c
}

func (c Config) WithTurnToleranceDuration(d time.Duration) Config {
	c.TurnSettle.Duration = d
	return c
}

func (c Config) WithTurnTimeout(d time.Duration) Config {
	c.TurnSettle.Timeout = d
	return c
}

func (c Config) WithPursuitTurnKp(kp float64) Config { c.PursuitTurn.Kp = kp; return c }
func (c Config) WithPursuitLookahead(mm float64) Config {
	c.PursuitLookahead = mm
	return c
}

func (c Config) WithBoomerangLead(lead float64) Config { c.BoomerangLead = lead; return c }
func (c Config) WithBoomerangLock(mm float64) Config   { c.BoomerangLock = mm; return c }
func (c Config) WithTurnFadeDistance(mm float64) Config {
	c.TurnFadeDistance = mm
	return c
}
