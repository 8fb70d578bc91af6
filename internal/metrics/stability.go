package metrics

import (
	"math"

	"github.com/san-kum/doxa/internal/sim"
)

// Saturation is the fraction of steps where either side was driven at or beyond threshold
// volts, i.e. where the controller asked for more than the motors could give.
type Saturation struct {
	threshold float64
	saturated int
	steps     int
}

func NewSaturation(threshold float64) *Saturation {
	return &Saturation{threshold: threshold}
}

func (s *Saturation) Name() string { return "saturation" }

func (s *Saturation) Observe(x sim.State, u sim.Control, t float64) {
	s.steps++
	if math.Max(math.Abs(u[0]), math.Abs(u[1])) >= s.threshold {
		s.saturated++
	}
}

func (s *Saturation) Value() float64 {
	if s.steps == 0 {
		return 0
	}
	return float64(s.saturated) / float64(s.steps)
}

func (s *Saturation) Reset() {
	s.saturated, s.steps = 0, 0
}
