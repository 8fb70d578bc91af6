// Package automation runs user-written scenarios and batches of experiments: parameter
// sweeps and Monte Carlo placement trials.
package automation

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/doxa/internal/actions"
	"github.com/san-kum/doxa/internal/pose"
	"github.com/san-kum/doxa/internal/routine"
)

var ErrInvalidScenario = errors.New("automation: invalid scenario")

// Scenario is a routine written in YAML. Positions are tiles, headings degrees.
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Start       Point          `yaml:"start"`
	Steps       []ScenarioStep `yaml:"steps"`
}

type Point struct {
	X       float64 `yaml:"x"`
	Y       float64 `yaml:"y"`
	Heading float64 `yaml:"heading"`
}

// ScenarioStep is one action. Action is one of forward, turn_to, turn_to_point,
// drive_to_point, boomerang or smooth.
type ScenarioStep struct {
	Action         string        `yaml:"action"`
	Tiles          float64       `yaml:"tiles"`
	X              float64       `yaml:"x"`
	Y              float64       `yaml:"y"`
	Heading        float64       `yaml:"heading"`
	StartEasing    float64       `yaml:"start_easing"`
	EndEasing      float64       `yaml:"end_easing"`
	Reverse        bool          `yaml:"reverse"`
	DisableSeeking bool          `yaml:"disable_seeking"`
	MaxVolts       float64       `yaml:"max_volts"`
	Timeout        time.Duration `yaml:"timeout"`
}

const defaultEasing = 0.5

var stepBuilders = map[string]func(b *routine.Builder, s ScenarioStep) actions.Action{
	"forward": func(b *routine.Builder, s ScenarioStep) actions.Action {
		return b.Forward(s.Tiles)
	},
	"turn_to": func(b *routine.Builder, s ScenarioStep) actions.Action {
		return b.TurnTo(s.Heading)
	},
	"turn_to_point": func(b *routine.Builder, s ScenarioStep) actions.Action {
		return b.TurnToPoint(s.X, s.Y)
	},
	"drive_to_point": func(b *routine.Builder, s ScenarioStep) actions.Action {
		return b.DriveToPoint(s.X, s.Y, s.Reverse)
	},
	"boomerang": func(b *routine.Builder, s ScenarioStep) actions.Action {
		return b.BoomerangToPoint(s.X, s.Y, s.Heading)
	},
	"smooth": func(b *routine.Builder, s ScenarioStep) actions.Action {
		se, ee := s.StartEasing, s.EndEasing
		if se == 0 {
			se = defaultEasing
		}
		if ee == 0 {
			ee = defaultEasing
		}
		return b.SmoothToPoint(s.X, s.Y, s.Heading, se, ee, s.Reverse, s.DisableSeeking)
	},
}

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read scenario")
	}
	return ParseScenario(data)
}

func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, errors.Wrap(err, "parse scenario")
	}
	if err := scenario.Validate(); err != nil {
		return nil, err
	}
	return &scenario, nil
}

func (s *Scenario) Validate() error {
	if s.Name == "" {
		return errors.Wrap(ErrInvalidScenario, "missing name")
	}
	if len(s.Steps) == 0 {
		return errors.Wrapf(ErrInvalidScenario, "%s has no steps", s.Name)
	}
	for i, step := range s.Steps {
		if _, ok := stepBuilders[step.Action]; !ok {
			return errors.Wrapf(ErrInvalidScenario, "step %d: unknown action %q", i+1, step.Action)
		}
		if step.MaxVolts < 0 || step.MaxVolts > 12 {
			return errors.Wrapf(ErrInvalidScenario, "step %d: max_volts %.1f", i+1, step.MaxVolts)
		}
		if step.Timeout < 0 {
			return errors.Wrapf(ErrInvalidScenario, "step %d: negative timeout", i+1)
		}
	}
	return nil
}

// Routine turns the scenario into a runnable routine. Per-step max_volts and timeout
// override the tuning the routine is run with.
func (s *Scenario) Routine() routine.Routine {
	steps := append([]ScenarioStep(nil), s.Steps...)
	return routine.Routine{
		Name:        s.Name,
		Description: s.Description,
		Start:       routine.At(s.Start.X, s.Start.Y, s.Start.Heading),
		Steps: func(b *routine.Builder) []actions.Action {
			out := make([]actions.Action, 0, len(steps))
			for _, step := range steps {
				out = append(out, stepBuilders[step.Action](tuned(b, step), step))
			}
			return out
		},
	}
}

func tuned(b *routine.Builder, s ScenarioStep) *routine.Builder {
	if s.MaxVolts == 0 && s.Timeout == 0 {
		return b
	}
	cfg := b.Config()
	if s.MaxVolts > 0 {
		cfg = cfg.WithLinearLimit(s.MaxVolts).WithTurnLimit(s.MaxVolts)
	}
	if s.Timeout > 0 {
		cfg = cfg.WithLinearTimeout(s.Timeout).WithTurnTimeout(s.Timeout)
	}
	return b.With(cfg)
}

// Start is the scenario's start pose in millimetres.
func (s *Scenario) StartPose() pose.Pose {
	return routine.At(s.Start.X, s.Start.Y, s.Start.Heading)
}
