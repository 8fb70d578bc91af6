package actions

import (
	"math"
	"time"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/doxa/internal/control"
	"github.com/san-kum/doxa/internal/path"
	"github.com/san-kum/doxa/internal/pose"
)

// PurePursuit follows a sampled path by steering along the arc through a lookahead point.
type PurePursuit struct {
	path           *path.CubicParametric
	reverse        bool
	disableSeeking bool
	cfg            Config

	linear  *control.PID
	turn    *control.PID
	settler *control.Settler

	index     int
	seeking   bool
	curvature float64
	lookahead r2.Vec
}

// NewPurePursuit follows p. With reverse the robot drives the path backwards-facing. With
// disableSeeking the action stops re-snapping to the path once its end is inside the
// lookahead circle: progress freezes, the lookahead point is pinned to the end and the
// action settles on the straight-line distance to it.
func NewPurePursuit(p *path.CubicParametric, reverse, disableSeeking bool, cfg Config) *PurePursuit {
	return &PurePursuit{
		path:           p,
		reverse:        reverse,
		disableSeeking: disableSeeking,
		cfg:            cfg,
		linear:         control.NewPID(cfg.Linear),
		turn:           control.NewPID(cfg.PursuitTurn),
		settler:        control.NewSettler(cfg.LinearSettle),
		seeking:        true,
	}
}

func (p *PurePursuit) Name() string { return "pure_pursuit" }

func (p *PurePursuit) Poll(current pose.Pose, now time.Time) Output {
	facing := current
	if p.reverse {
		facing.Heading += math.Pi
	}
	pos := current.Offset
	end := p.path.End().Offset
	L := p.cfg.PursuitLookahead

	if p.seeking {
		p.index = p.path.Nearest(pos, p.index)
		if p.disableSeeking && p.path.EndWithin(pos, L) {
			p.seeking = false
		}
	}

	var remaining float64
	switch {
	case !p.seeking:
		// signed so overshooting the end backs up
		remaining = r2.Norm(r2.Sub(end, pos))
		if r2.Dot(r2.Sub(end, pos), facing.Forward()) < 0 {
			remaining = -remaining
		}
	case p.path.EndWithin(pos, L):
		remaining = r2.Dot(r2.Sub(end, pos), facing.Forward())
	default:
		remaining = p.path.Remaining(p.index) + r2.Norm(r2.Sub(p.path.Point(p.index), pos))
	}

	if out, done := finish(p.settler.Update(remaining, now)); done {
		return out
	}

	linear := p.linear.Update(remaining, now)
	if p.reverse {
		linear = -linear
	}

	if p.seeking {
		p.lookahead, _ = p.path.Lookahead(pos, p.index, L)
	} else {
		p.lookahead = end
	}
	local := facing.Local(pose.Pose{Offset: p.lookahead})
	chord := r2.Norm(local)
	if chord > 1e-6 {
		p.curvature = 2 * local.X / (chord * chord)
	} else {
		p.curvature = 0
	}
	turn := p.turn.Update(p.curvature*L, now) * fade(r2.Norm(r2.Sub(end, pos)), p.cfg.TurnFadeDistance)

	return arcade(linear, turn, p.cfg.Linear.OutputLimit)
}

// Curvature is the steering curvature at the last poll, 1/mm, positive to the right.
func (p *PurePursuit) Curvature() float64 { return p.curvature }

// Seeking reports whether the action is still tracking progress along the path rather than
// aiming straight at its end.
func (p *PurePursuit) Seeking() bool { return p.seeking }
