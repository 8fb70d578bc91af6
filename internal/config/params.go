package config

import (
	"sort"

	"github.com/pkg/errors"
)

var ErrUnknownParam = errors.New("config: unknown parameter")

// params are the knobs sweeps and searches may turn.
var params = map[string]struct {
	get func(*Config) float64
	set func(*Config, float64)
}{
	"linear.kp":         {func(c *Config) float64 { return c.Actions.Linear.Kp }, func(c *Config, v float64) { c.Actions.Linear.Kp = v }},
	"linear.ki":         {func(c *Config) float64 { return c.Actions.Linear.Ki }, func(c *Config, v float64) { c.Actions.Linear.Ki = v }},
	"linear.kd":         {func(c *Config) float64 { return c.Actions.Linear.Kd }, func(c *Config, v float64) { c.Actions.Linear.Kd = v }},
	"turn.kp":           {func(c *Config) float64 { return c.Actions.Turn.Kp }, func(c *Config, v float64) { c.Actions.Turn.Kp = v }},
	"turn.ki":           {func(c *Config) float64 { return c.Actions.Turn.Ki }, func(c *Config, v float64) { c.Actions.Turn.Ki = v }},
	"turn.kd":           {func(c *Config) float64 { return c.Actions.Turn.Kd }, func(c *Config, v float64) { c.Actions.Turn.Kd = v }},
	"pursuit.kp":        {func(c *Config) float64 { return c.Actions.PursuitTurn.Kp }, func(c *Config, v float64) { c.Actions.PursuitTurn.Kp = v }},
	"pursuit.lookahead": {func(c *Config) float64 { return c.Actions.PursuitLookahead }, func(c *Config, v float64) { c.Actions.PursuitLookahead = v }},
	"boomerang.lead":    {func(c *Config) float64 { return c.Actions.BoomerangLead }, func(c *Config, v float64) { c.Actions.BoomerangLead = v }},
	"max_voltage":       {func(c *Config) float64 { return c.Drivetrain.MaxVoltage }, func(c *Config, v float64) { c.Drivetrain.MaxVoltage = v }},
}

func (c *Config) GetParams() map[string]float64 {
	out := make(map[string]float64, len(params))
	for name, p := range params {
		out[name] = p.get(c)
	}
	return out
}

func (c *Config) SetParam(name string, value float64) error {
	p, ok := params[name]
	if !ok {
		return errors.Wrapf(ErrUnknownParam, "%q", name)
	}
	p.set(c, value)
	return nil
}

func ParamNames() []string {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
