// Package tracking maintains the robot's field pose from tracking wheels and an absolute
// heading sensor.
package tracking

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/doxa/internal/hw"
	"github.com/san-kum/doxa/internal/log"
	"github.com/san-kum/doxa/internal/pose"
)

// Subsystem fuses wheel odometry with the heading sensor. All methods are safe for
// concurrent use; Update may run on its own goroutine via Run.
//
// When reversed, the subsystem reports and accepts poses mirrored across the field's y axis
// so one routine serves both alliance sides.
type Subsystem struct {
	mu sync.Mutex

	wheels []*Wheel
	imu    hw.HeadingSensor

	pose     pose.Pose
	reversed bool

	prevHeading   float64
	headingPrimed bool
	headingFaults int

	logger *zap.SugaredLogger
}

// New builds a subsystem starting at the origin. imu may be nil, in which case the heading is
// estimated from parallel wheels.
func New(imu hw.HeadingSensor, wheels ...*Wheel) *Subsystem {
	s := &Subsystem{
		wheels: wheels,
		imu:    imu,
		logger: log.Named("tracking"),
	}
	for _, w := range wheels {
		if err := w.Reset(); err != nil {
			s.logger.Debugw("wheel not ready", "orientation", w.Orientation, "offset", w.Offset, "error", err)
		}
	}
	return s
}

// Pose is the current estimate, mirrored when reversed.
func (s *Subsystem) Pose() pose.Pose {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.reversed {
		return s.pose.Reversed()
	}
	return s.pose
}

// SetPose overwrites the estimate. p is interpreted on the current side of the field.
func (s *Subsystem) SetPose(p pose.Pose) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.reversed {
		p = p.Reversed()
	}
	s.pose = p
}

func (s *Subsystem) SetReverse(reversed bool) {
	s.mu.Lock()
	s.reversed = reversed
	s.mu.Unlock()
}

func (s *Subsystem) Reversed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reversed
}

// Rebaseline forgets the last sensor readings, so motion since then is not counted. Used
// after the robot is moved by hand.
func (s *Subsystem) Rebaseline() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var errs error
	for _, w := range s.wheels {
		errs = multierr.Append(errs, w.Reset())
	}
	s.headingPrimed = false
	return errs
}

// Wheels returns the configured tracking wheels.
func (s *Subsystem) Wheels() []*Wheel {
	return append([]*Wheel(nil), s.wheels...)
}

// HeadingFaults counts ticks where the heading sensor could not be read.
func (s *Subsystem) HeadingFaults() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.headingFaults
}

type wheelDelta struct {
	w *Wheel
	d float64
}

// Update advances the estimate by one tick of sensor deltas.
func (s *Subsystem) Update() {
	s.mu.Lock()
	defer s.mu.Unlock()

	deltas := make([]wheelDelta, 0, len(s.wheels))
	for _, w := range s.wheels {
		d, err := w.Delta()
		if err != nil {
			s.logger.Debugw("skipping wheel", "orientation", w.Orientation, "offset", w.Offset, "error", err)
			continue
		}
		deltas = append(deltas, wheelDelta{w, d})
	}

	dTheta := s.headingDelta(deltas)

	var forward, lateral float64
	var nf, nl int
	for _, wd := range deltas {
		switch wd.w.Orientation {
		case Parallel:
			forward += wd.d + wd.w.Offset*dTheta
			nf++
		case Perpendicular:
			lateral += wd.d - wd.w.Offset*dTheta
			nl++
		}
	}
	if nf > 0 {
		forward /= float64(nf)
	}
	if nl > 0 {
		lateral /= float64(nl)
	}

	local := r2.Vec{X: lateral, Y: forward}
	prev := s.pose.Heading
	var global r2.Vec
	if math.Abs(dTheta) < 1e-9 {
		global = pose.Rotate(local, prev)
	} else {
		chord := 2 * math.Sin(dTheta/2) / dTheta
		global = pose.Rotate(r2.Scale(chord, local), prev+dTheta/2)
	}

	s.pose.Offset = r2.Add(s.pose.Offset, global)
	s.pose.Heading = prev + dTheta
}

// headingDelta returns the heading change this tick in radians. Called with mu held.
func (s *Subsystem) headingDelta(deltas []wheelDelta) float64 {
	if s.imu == nil {
		return wheelHeading(deltas)
	}

	deg, err := s.imu.Heading()
	if err != nil {
		s.headingFaults++
		s.headingPrimed = false
		s.logger.Debugw("heading unavailable, estimating from wheels", "error", err)
		return wheelHeading(deltas)
	}

	heading := pose.Radians(deg)
	if !s.headingPrimed {
		s.prevHeading = heading
		s.headingPrimed = true
		return wheelHeading(deltas)
	}
	d := pose.AngleDiff(heading, s.prevHeading)
	s.prevHeading = heading
	return d
}

// wheelHeading estimates rotation from the first two parallel wheels with distinct offsets,
// or zero when there is no such pair.
func wheelHeading(deltas []wheelDelta) float64 {
	for i, a := range deltas {
		if a.w.Orientation != Parallel {
			continue
		}
		for _, b := range deltas[i+1:] {
			if b.w.Orientation != Parallel || b.w.Offset == a.w.Offset {
				continue
			}
			return (a.d - b.d) / (b.w.Offset - a.w.Offset)
		}
	}
	return 0
}

// Run calls Update every period until ctx is done.
func (s *Subsystem) Run(ctx context.Context, clk clock.Clock, period time.Duration) {
	ticker := clk.Ticker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Update()
		}
	}
}
