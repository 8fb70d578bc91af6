package metrics

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/doxa/internal/sim"
)

// PathLength is the distance the robot centre travelled, in mm.
type PathLength struct {
	length  float64
	prevX   float64
	prevY   float64
	hasPrev bool
}

func NewPathLength() *PathLength { return &PathLength{} }

func (p *PathLength) Name() string { return "path_length" }

func (p *PathLength) Observe(x sim.State, u sim.Control, t float64) {
	px, py := x[sim.IdxX], x[sim.IdxY]
	if p.hasPrev {
		p.length += math.Hypot(px-p.prevX, py-p.prevY)
	}
	p.prevX, p.prevY, p.hasPrev = px, py, true
}

func (p *PathLength) Value() float64 { return p.length }

func (p *PathLength) Reset() { *p = PathLength{} }

// Jerk is the standard deviation of the step-to-step change in commanded voltage. Smooth
// controllers score low.
type Jerk struct {
	deltas []float64
	prev   [2]float64
	primed bool
}

func NewJerk() *Jerk { return &Jerk{} }

func (j *Jerk) Name() string { return "voltage_jerk" }

func (j *Jerk) Observe(x sim.State, u sim.Control, t float64) {
	if len(u) < 2 {
		return
	}
	if j.primed {
		j.deltas = append(j.deltas, u[0]-j.prev[0], u[1]-j.prev[1])
	}
	j.prev = [2]float64{u[0], u[1]}
	j.primed = true
}

func (j *Jerk) Value() float64 {
	if len(j.deltas) < 2 {
		return 0
	}
	return stat.StdDev(j.deltas, nil)
}

func (j *Jerk) Reset() { *j = Jerk{} }

// Default is the set every experiment records.
func Default() []sim.Metric {
	return []sim.Metric{
		NewControlEffort(),
		NewPeakVoltage(),
		NewSaturation(11.5),
		NewPathLength(),
		NewJerk(),
	}
}
