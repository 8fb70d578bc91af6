package actions

import (
	"math"
	"time"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/doxa/internal/control"
	"github.com/san-kum/doxa/internal/pose"
)

// seeker steers toward a moving aim point: linear PID on distance projected onto the heading,
// turn PID on bearing, turn faded out close to the target.
type seeker struct {
	cfg     Config
	linear  *control.PID
	turn    *control.PID
	settler *control.Settler
}

func newSeeker(cfg Config) seeker {
	return seeker{
		cfg:     cfg,
		linear:  control.NewPID(cfg.Linear),
		turn:    control.NewPID(cfg.Turn),
		settler: control.NewSettler(cfg.LinearSettle),
	}
}

// steer computes the output for aiming at aim while the settle distance is distance.
func (s *seeker) steer(current pose.Pose, aim r2.Vec, distance float64, reverse bool, now time.Time) Output {
	if out, done := finish(s.settler.Update(distance, now)); done {
		return out
	}

	target := pose.Pose{Offset: aim}
	bearing := current.BearingTo(target)
	if reverse {
		bearing += math.Pi
	}
	headingErr := pose.AngleDiff(bearing, current.Heading)

	// slow down when pointing away, and back up once past the target
	linearErr := current.Distance(target) * math.Cos(headingErr)
	if reverse {
		linearErr = -linearErr
	}

	linear := s.linear.Update(linearErr, now)
	turn := s.turn.Update(headingErr, now) * fade(distance, s.cfg.TurnFadeDistance)
	return arcade(linear, turn, s.cfg.Linear.OutputLimit)
}

// DriveToPoint drives to a field point, facing it or, when reverse, backing into it.
type DriveToPoint struct {
	point   pose.Pose
	reverse bool
	seeker
}

func NewDriveToPoint(point pose.Pose, reverse bool, cfg Config) *DriveToPoint {
	return &DriveToPoint{point: point, reverse: reverse, seeker: newSeeker(cfg)}
}

func (d *DriveToPoint) Name() string { return "drive_to_point" }

func (d *DriveToPoint) Poll(current pose.Pose, now time.Time) Output {
	return d.steer(current, d.point.Offset, current.Distance(d.point), d.reverse, now)
}

// Boomerang approaches a target pose along a curve by chasing a carrot placed behind the
// target along its heading. The carrot closes in as the robot does and is pinned to the
// target once inside the lock distance, after which the action settles like DriveToPoint.
type Boomerang struct {
	target pose.Pose
	locked bool
	seeker
}

func NewBoomerang(target pose.Pose, cfg Config) *Boomerang {
	return &Boomerang{target: target, seeker: newSeeker(cfg)}
}

func (b *Boomerang) Name() string { return "boomerang" }

func (b *Boomerang) Poll(current pose.Pose, now time.Time) Output {
	d := current.Distance(b.target)
	if d < b.cfg.BoomerangLock {
		b.locked = true
	}
	return b.steer(current, b.Carrot(current), d, false, now)
}

// Carrot is the point the action is steering toward from current.
func (b *Boomerang) Carrot(current pose.Pose) r2.Vec {
	if b.locked {
		return b.target.Offset
	}
	lead := b.cfg.BoomerangLead * current.Distance(b.target)
	return r2.Sub(b.target.Offset, r2.Scale(lead, b.target.Forward()))
}
