package routine

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/san-kum/doxa/internal/actions"
	"github.com/san-kum/doxa/internal/pose"
)

var ErrUnknownRoutine = errors.New("routine: unknown")

// Routine is a fixed sequence of actions written for the red side. Start is where the robot
// is placed, in red coordinates.
type Routine struct {
	Name        string
	Description string
	Start       pose.Pose
	Steps       func(b *Builder) []actions.Action
}

var catalogue = map[string]Routine{
	"forward": {
		Name:        "forward",
		Description: "drive one tile straight ahead",
		Start:       At(0, 0, 0),
		Steps: func(b *Builder) []actions.Action {
			return []actions.Action{b.Forward(1)}
		},
	},
	"square": {
		Name:        "square",
		Description: "drive the edges of a one-tile square clockwise",
		Start:       At(-0.5, -0.5, 0),
		Steps: func(b *Builder) []actions.Action {
			return []actions.Action{
				b.Forward(1), b.TurnTo(90),
				b.Forward(1), b.TurnTo(180),
				b.Forward(1), b.TurnTo(270),
				b.Forward(1), b.TurnTo(0),
			}
		},
	},
	"curve": {
		Name:        "curve",
		Description: "pure pursuit along a quarter curve and back in reverse",
		Start:       At(0, 0, 0),
		Steps: func(b *Builder) []actions.Action {
			return []actions.Action{
				b.SmoothToPoint(1, 1, 90, 0.5, 0.5, false, false),
				b.SmoothToPoint(0, 0, 0, 0.5, 0.5, true, true),
			}
		},
	},
	"boomerang": {
		Name:        "boomerang",
		Description: "boomerang to a pose facing right",
		Start:       At(0, -1, 0),
		Steps: func(b *Builder) []actions.Action {
			return []actions.Action{b.BoomerangToPoint(1, 0.5, 90)}
		},
	},
	"rush": {
		Name:        "rush",
		Description: "rush the centre, face the goal, back out",
		Start:       At(-1, -1.5, 0),
		Steps: func(b *Builder) []actions.Action {
			return []actions.Action{
				b.DriveToPoint(-1, 0.5, false),
				b.TurnToPoint(0, 0.5),
				b.Forward(0.5),
				b.DriveToPoint(-1, -1, true),
			}
		},
	},
}

func Get(name string) (Routine, error) {
	r, ok := catalogue[name]
	if !ok {
		return Routine{}, errors.Wrapf(ErrUnknownRoutine, "%q (available: %v)", name, List())
	}
	return r, nil
}

func List() []string {
	names := make([]string, 0, len(catalogue))
	for name := range catalogue {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
