package control

import (
	"math"
	"time"
)

// Gains configures a PID loop. A zero limit disables that clamp.
type Gains struct {
	Kp            float64 `yaml:"kp" json:"kp"`
	Ki            float64 `yaml:"ki" json:"ki"`
	Kd            float64 `yaml:"kd" json:"kd"`
	IntegralLimit float64 `yaml:"integral_limit" json:"integral_limit"`
	OutputLimit   float64 `yaml:"output_limit" json:"output_limit"`
}

type PID struct {
	Gains
	integral float64
	prevErr  float64
	prevT    time.Time
	first    bool
}

func NewPID(g Gains) *PID {
	return &PID{
		Gains: g,
		first: true,
	}
}

// Update returns the control output for err measured at now.
func (p *PID) Update(err float64, now time.Time) float64 {
	if p.first {
		p.prevErr = err
		p.prevT = now
		p.first = false
		return p.clampOutput(p.Kp * err)
	}

	dt := now.Sub(p.prevT).Seconds()
	if dt <= 0 {
		return p.clampOutput(p.Kp*err + p.Ki*p.integral)
	}

	p.integral += err * dt
	if p.IntegralLimit > 0 {
		p.integral = Clamp(p.integral, -p.IntegralLimit, p.IntegralLimit)
	}
	derivative := (err - p.prevErr) / dt

	u := p.Kp*err + p.Ki*p.integral + p.Kd*derivative

	p.prevErr = err
	p.prevT = now

	return p.clampOutput(u)
}

func (p *PID) clampOutput(u float64) float64 {
	if p.OutputLimit > 0 {
		return Clamp(u, -p.OutputLimit, p.OutputLimit)
	}
	return u
}

// Integral is the accumulated error term, after clamping.
func (p *PID) Integral() float64 { return p.integral }

// Reset clears integral and derivative state
func (p *PID) Reset() {
	p.integral = 0
	p.prevErr = 0
	p.first = true
}

// GetParams returns tunable parameters for live adjustment
func (p *PID) GetParams() map[string]float64 {
	return map[string]float64{
		"Kp":            p.Kp,
		"Ki":            p.Ki,
		"Kd":            p.Kd,
		"IntegralLimit": p.IntegralLimit,
		"OutputLimit":   p.OutputLimit,
	}
}

// SetParam adjusts a PID parameter
func (p *PID) SetParam(name string, value float64) {
	switch name {
	case "Kp":
		p.Kp = value
	case "Ki":
		p.Ki = value
	case "Kd":
		p.Kd = value
	case "IntegralLimit":
		p.IntegralLimit = value
	case "OutputLimit":
		p.OutputLimit = value
	}
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
