// Package metrics observes simulator steps and reduces them to one number each.
package metrics

import (
	"math"

	"github.com/san-kum/doxa/internal/sim"
)

// ControlEffort is the mean absolute voltage over both sides. Side reports each side alone.
type ControlEffort struct {
	sides [2]float64
	steps int
}

func NewControlEffort() *ControlEffort { return &ControlEffort{} }

func (c *ControlEffort) Name() string { return "control_effort" }

func (c *ControlEffort) Observe(x sim.State, u sim.Control, t float64) {
	for i := range c.sides {
		c.sides[i] += math.Abs(u[i])
	}
	c.steps++
}

func (c *ControlEffort) Value() float64 {
	return (c.Side(0) + c.Side(1)) / 2
}

// Side is the mean absolute voltage of side 0 (left) or 1 (right).
func (c *ControlEffort) Side(i int) float64 {
	if c.steps == 0 {
		return 0
	}
	return c.sides[i] / float64(c.steps)
}

func (c *ControlEffort) Reset() { *c = ControlEffort{} }

// PeakVoltage is the largest absolute voltage commanded on either side.
type PeakVoltage struct {
	peak float64
}

func NewPeakVoltage() *PeakVoltage { return &PeakVoltage{} }

func (p *PeakVoltage) Name() string { return "peak_voltage" }

func (p *PeakVoltage) Observe(x sim.State, u sim.Control, t float64) {
	for _, val := range u {
		p.peak = math.Max(p.peak, math.Abs(val))
	}
}

func (p *PeakVoltage) Value() float64 { return p.peak }
func (p *PeakVoltage) Reset()         { p.peak = 0 }
