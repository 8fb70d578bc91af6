package routine

import (
	"context"

	"github.com/pkg/errors"

	"github.com/san-kum/doxa/internal/actions"
	"github.com/san-kum/doxa/internal/drivetrain"
	"github.com/san-kum/doxa/internal/pose"
)

type Option func(*runner)

type runner struct {
	cfg      actions.Config
	reversed bool
	onStep   func(int, actions.Action)
	onTick   func(pose.Pose)
	onResult func(drivetrain.Result)
}

// WithConfig sets the tuning every step is built with. Defaults to actions.DefaultConfig.
func WithConfig(cfg actions.Config) Option {
	return func(r *runner) { r.cfg = cfg }
}

// WithReverse runs the routine mirrored for the blue side.
func WithReverse(reversed bool) Option {
	return func(r *runner) { r.reversed = reversed }
}

// WithStepCallback runs cb before each step starts.
func WithStepCallback(cb func(index int, a actions.Action)) Option {
	return func(r *runner) { r.onStep = cb }
}

func WithTickCallback(cb func(pose.Pose)) Option {
	return func(r *runner) { r.onTick = cb }
}

func WithResultCallback(cb func(drivetrain.Result)) Option {
	return func(r *runner) { r.onResult = cb }
}

// Run places the tracking estimate at the routine's start and awaits each step in turn. It
// stops at the first error, returning the results so far.
func Run(ctx context.Context, d *drivetrain.Drivetrain, rt Routine, opts ...Option) ([]drivetrain.Result, error) {
	r := runner{cfg: actions.DefaultConfig()}
	for _, opt := range opts {
		opt(&r)
	}

	t := d.Tracking()
	t.SetReverse(r.reversed)
	t.SetPose(rt.Start)

	steps := rt.Steps(NewBuilder(r.cfg))
	results := make([]drivetrain.Result, 0, len(steps))
	for i, a := range steps {
		if r.onStep != nil {
			r.onStep(i, a)
		}
		res, err := d.Action(a).WithCallback(r.onTick).Await(ctx)
		results = append(results, res)
		if r.onResult != nil {
			r.onResult(res)
		}
		if err != nil {
			return results, errors.Wrapf(err, "%s step %d (%s)", rt.Name, i+1, res.Action)
		}
	}
	return results, nil
}
