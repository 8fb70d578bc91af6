package actions

import (
	"time"

	"go.uber.org/zap"

	"github.com/san-kum/doxa/internal/control"
	"github.com/san-kum/doxa/internal/log"
	"github.com/san-kum/doxa/internal/pose"
)

// turner is the shared loop for in-place turns: one PID on the wrapped heading error.
type turner struct {
	pid      *control.PID
	settler  *control.Settler
	watchdog *control.Divergence
	logger   *zap.SugaredLogger
	lastErr  float64
}

func newTurner(cfg Config, watch bool) turner {
	t := turner{
		pid:     control.NewPID(cfg.Turn),
		settler: control.NewSettler(cfg.TurnSettle),
		logger:  log.Named("actions"),
	}
	if watch {
		t.watchdog = control.NewDivergence(cfg.DivergenceGrace, cfg.TurnSettle.Error)
	}
	return t
}

func (t *turner) poll(name string, target float64, current pose.Pose, now time.Time) Output {
	err := pose.AngleDiff(target, current.Heading)
	t.lastErr = err

	if t.watchdog != nil && t.watchdog.Update(err, now) {
		t.logger.Warnw("turn error growing, check drivetrain polarity or stall",
			"action", name, "error_deg", pose.Deg(err), "pose", current.String())
	}

	if out, done := finish(t.settler.Update(err, now)); done {
		return out
	}

	u := t.pid.Update(err, now)
	return drive(u, -u)
}

func (t *turner) diverged() bool {
	return t.watchdog != nil && t.watchdog.Tripped()
}

// TurnTo rotates in place to an absolute heading in radians.
type TurnTo struct {
	heading float64
	turner
}

func NewTurnTo(heading float64, cfg Config) *TurnTo {
	return &TurnTo{heading: heading, turner: newTurner(cfg, true)}
}

func (t *TurnTo) Name() string { return "turn_to" }

func (t *TurnTo) Poll(current pose.Pose, now time.Time) Output {
	return t.poll(t.Name(), t.heading, current, now)
}

func (t *TurnTo) Diverged() bool { return t.diverged() }

// Error is the heading error at the last poll.
func (t *TurnTo) Error() float64 { return t.lastErr }

// TurnToPoint rotates in place to face a field point. The bearing is recomputed every poll.
// With approach set the robot is expected to be translating toward the point while turning,
// so a growing error is normal and the divergence watchdog is off.
type TurnToPoint struct {
	point pose.Pose
	turner
}

func NewTurnToPoint(point pose.Pose, approach bool, cfg Config) *TurnToPoint {
	return &TurnToPoint{point: point, turner: newTurner(cfg, !approach)}
}

func (t *TurnToPoint) Name() string { return "turn_to_point" }

func (t *TurnToPoint) Poll(current pose.Pose, now time.Time) Output {
	return t.poll(t.Name(), current.BearingTo(t.point), current, now)
}

func (t *TurnToPoint) Diverged() bool { return t.diverged() }
