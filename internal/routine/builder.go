// Package routine builds motion actions in field tiles and runs sequences of them on a
// drivetrain.
package routine

import (
	"math"

	"github.com/san-kum/doxa/internal/actions"
	"github.com/san-kum/doxa/internal/path"
	"github.com/san-kum/doxa/internal/pose"
)

// TilesToMM is the edge of one field tile.
const TilesToMM = 600.0

func Tiles(n float64) float64 { return n * TilesToMM }

// At is a pose given in tiles and degrees.
func At(x, y, headingDeg float64) pose.Pose {
	return pose.Degrees(Tiles(x), Tiles(y), headingDeg)
}

// Builder makes actions that share one tuning.
type Builder struct {
	cfg actions.Config
}

func NewBuilder(cfg actions.Config) *Builder {
	return &Builder{cfg: cfg}
}

func (b *Builder) Config() actions.Config { return b.cfg }

// With returns a builder using cfg, for steps that need their own tuning.
func (b *Builder) With(cfg actions.Config) *Builder {
	return &Builder{cfg: cfg}
}

func (b *Builder) Forward(tiles float64) actions.Action {
	return actions.NewForward(Tiles(tiles), b.cfg)
}

func (b *Builder) TurnTo(headingDeg float64) actions.Action {
	return actions.NewTurnTo(pose.Radians(headingDeg), b.cfg)
}

func (b *Builder) TurnToPoint(x, y float64) actions.Action {
	return actions.NewTurnToPoint(At(x, y, 0), false, b.cfg)
}

func (b *Builder) DriveToPoint(x, y float64, reverse bool) actions.Action {
	return actions.NewDriveToPoint(At(x, y, 0), reverse, b.cfg)
}

func (b *Builder) BoomerangToPoint(x, y, headingDeg float64) actions.Action {
	return actions.NewBoomerang(At(x, y, headingDeg), b.cfg)
}

// SmoothToPoint follows a cubic from wherever the robot is when the step starts to the
// target pose. Easings are in tiles. Headings are the robot's facing; a reversed path is
// planned along the direction of travel, opposite the facing.
func (b *Builder) SmoothToPoint(x, y, headingDeg, startEasing, endEasing float64, reverse, disableSeeking bool) actions.Action {
	target := At(x, y, headingDeg)
	cfg := b.cfg
	return actions.NewLazy(func(start pose.Pose) actions.Action {
		end := target
		if reverse {
			start.Heading = pose.Wrap(start.Heading + math.Pi)
			end.Heading = pose.Wrap(end.Heading + math.Pi)
		}
		p := path.NewCubicParametric(start, Tiles(startEasing), end, Tiles(endEasing))
		return actions.NewPurePursuit(p, reverse, disableSeeking, cfg)
	})
}
