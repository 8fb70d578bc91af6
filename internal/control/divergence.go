package control

import (
	"math"
	"time"
)

// Divergence watches the magnitude of an error during a grace window after the first
// update. It trips once if the error grows more than Slack past its initial value, which on
// a drivetrain means a stall or inverted polarity.
type Divergence struct {
	Grace time.Duration
	Slack float64

	start   time.Time
	initial float64
	started bool
	tripped bool
}

func NewDivergence(grace time.Duration, slack float64) *Divergence {
	return &Divergence{Grace: grace, Slack: slack}
}

// Update reports true exactly once, on the tick the error is first seen diverging.
func (d *Divergence) Update(err float64, now time.Time) bool {
	mag := math.Abs(err)
	if !d.started {
		d.started = true
		d.start = now
		d.initial = mag
		return false
	}
	if d.tripped || now.Sub(d.start) > d.Grace {
		return false
	}
	if mag > d.initial+d.Slack {
		d.tripped = true
		return true
	}
	return false
}

// Tripped reports whether divergence was ever detected.
func (d *Divergence) Tripped() bool { return d.tripped }
