package control

import (
	"math"
	"time"
)

// Tolerances decide when an action is finished.
type Tolerances struct {
	Error    float64       `yaml:"error" json:"error"`
	Velocity float64       `yaml:"velocity" json:"velocity"`
	Duration time.Duration `yaml:"duration" json:"duration"`
	// Timeout of zero means the attempt never times out.
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
}

// Settler tracks one error signal. The error counts as settled once both its magnitude
// and its rate of change stay inside tolerance for Duration without interruption.
// Elapsed time is measured from the first Update.
type Settler struct {
	Tolerances

	start    time.Time
	inside   time.Time
	prevErr  float64
	prevT    time.Time
	velocity float64
	started  bool
	within   bool
}

func NewSettler(t Tolerances) *Settler {
	return &Settler{Tolerances: t}
}

// Update feeds the error at now. Settling wins when both conditions hold on the same tick.
func (s *Settler) Update(err float64, now time.Time) (settled, timedOut bool) {
	if !s.started {
		s.started = true
		s.start = now
		s.velocity = math.Inf(1)
	} else if dt := now.Sub(s.prevT).Seconds(); dt > 0 {
		s.velocity = math.Abs(err-s.prevErr) / dt
	}
	s.prevErr = err
	s.prevT = now

	if math.Abs(err) <= s.Error && s.velocity <= s.Velocity {
		if !s.within {
			s.within = true
			s.inside = now
		}
		if now.Sub(s.inside) >= s.Duration {
			return true, false
		}
	} else {
		s.within = false
	}

	return false, s.Timeout > 0 && now.Sub(s.start) >= s.Timeout
}

// Elapsed is the time since the first update.
func (s *Settler) Elapsed(now time.Time) time.Duration {
	if !s.started {
		return 0
	}
	return now.Sub(s.start)
}

// Rate is the last measured rate of change of the error, per second. It is infinite before
// the second Update.
func (s *Settler) Rate() float64 { return s.velocity }
