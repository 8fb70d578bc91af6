// Package actions implements the closed-loop motion primitives run by the drivetrain
// harness.
//
// An action is polled once per tick with the latest pose and the tick timestamp and answers
// with left/right voltages on a 12V scale, or with Done. Actions are single-use: build a fresh
// one for every move.
package actions

import (
	"fmt"
	"math"
	"time"

	"github.com/san-kum/doxa/internal/control"
	"github.com/san-kum/doxa/internal/pose"
)

// Reason explains why an action produced its output.
type Reason int

const (
	Running Reason = iota
	Settled
	TimedOut
)

func (r Reason) String() string {
	switch r {
	case Running:
		return "running"
	case Settled:
		return "settled"
	case TimedOut:
		return "timed out"
	default:
		return fmt.Sprintf("Reason(%d)", int(r))
	}
}

type Output struct {
	Left   float64
	Right  float64
	Done   bool
	Reason Reason
}

type Action interface {
	Poll(current pose.Pose, now time.Time) Output
	Name() string
}

// Diverger is implemented by actions that watch for an error growing instead of shrinking.
type Diverger interface {
	Diverged() bool
}

func drive(left, right float64) Output {
	return Output{Left: left, Right: right, Reason: Running}
}

func finish(settled, timedOut bool) (Output, bool) {
	switch {
	case settled:
		return Output{Done: true, Reason: Settled}, true
	case timedOut:
		return Output{Done: true, Reason: TimedOut}, true
	}
	return Output{}, false
}

// arcade mixes a linear and turn command and scales both sides down together so neither
// exceeds limit. A non-positive limit leaves the mix unscaled.
func arcade(linear, turn, limit float64) Output {
	left, right := linear+turn, linear-turn
	if m := math.Max(math.Abs(left), math.Abs(right)); limit > 0 && m > limit {
		left *= limit / m
		right *= limit / m
	}
	return drive(left, right)
}

// fade scales the turn term down as the target gets close, where bearing becomes noisy.
func fade(distance, fadeDistance float64) float64 {
	if fadeDistance <= 0 {
		return 1
	}
	return control.Clamp(distance/fadeDistance, 0, 1)
}

// Lazy defers building an action until it is first polled, so it can be planned from the
// pose the robot actually reached.
type Lazy struct {
	factory func(pose.Pose) Action
	inner   Action
}

func NewLazy(factory func(pose.Pose) Action) *Lazy {
	return &Lazy{factory: factory}
}

func (l *Lazy) Poll(current pose.Pose, now time.Time) Output {
	if l.inner == nil {
		l.inner = l.factory(current)
	}
	return l.inner.Poll(current, now)
}

func (l *Lazy) Name() string {
	if l.inner == nil {
		return "lazy"
	}
	return l.inner.Name()
}

func (l *Lazy) Diverged() bool {
	if d, ok := l.inner.(Diverger); ok {
		return d.Diverged()
	}
	return false
}
