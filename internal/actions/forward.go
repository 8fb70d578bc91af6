package actions

import (
	"time"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/doxa/internal/control"
	"github.com/san-kum/doxa/internal/pose"
)

// Forward drives a signed distance along the heading held at the first poll.
type Forward struct {
	distance float64
	cfg      Config

	start         pose.Pose
	started       bool
	left, right   *control.PID
	heading       *control.PID
	settler       *control.Settler
	lastRemaining float64
}

func NewForward(distance float64, cfg Config) *Forward {
	return &Forward{
		distance: distance,
		cfg:      cfg,
		left:     control.NewPID(cfg.Linear),
		right:    control.NewPID(cfg.Linear),
		heading:  control.NewPID(cfg.Turn),
		settler:  control.NewSettler(cfg.LinearSettle),
	}
}

func (f *Forward) Name() string { return "forward" }

func (f *Forward) Poll(current pose.Pose, now time.Time) Output {
	if !f.started {
		f.start = current
		f.started = true
	}

	travelled := r2.Dot(r2.Sub(current.Offset, f.start.Offset), f.start.Forward())
	remaining := f.distance - travelled
	f.lastRemaining = remaining

	if out, done := finish(f.settler.Update(remaining, now)); done {
		return out
	}

	turn := f.heading.Update(pose.AngleDiff(f.start.Heading, current.Heading), now)
	left := f.left.Update(remaining, now)
	right := f.right.Update(remaining, now)
	return drive(left+turn, right-turn)
}

// Remaining is the distance left at the last poll.
func (f *Forward) Remaining() float64 { return f.lastRemaining }
