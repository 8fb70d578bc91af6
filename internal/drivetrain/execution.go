package drivetrain

import (
	"context"
	"time"

	"github.com/san-kum/doxa/internal/actions"
	"github.com/san-kum/doxa/internal/pose"
)

// Result describes how an action ended.
type Result struct {
	Action   string
	Reason   actions.Reason
	Ticks    int
	Elapsed  time.Duration
	Final    pose.Pose
	Diverged bool
}

// Execution is a pending run of one action. Build it with Drivetrain.Action and start it
// with Await.
type Execution struct {
	d        *Drivetrain
	action   actions.Action
	callback func(pose.Pose)
}

func (d *Drivetrain) Action(a actions.Action) *Execution {
	return &Execution{d: d, action: a}
}

// WithCallback runs cb with the pose every tick.
func (e *Execution) WithCallback(cb func(pose.Pose)) *Execution {
	e.callback = cb
	return e
}

// Await ticks the action until it finishes or ctx is cancelled. The motors are stopped
// either way.
func (e *Execution) Await(ctx context.Context) (Result, error) {
	d := e.d
	start := d.clk.Now()
	res := Result{Action: e.action.Name()}

	defer func() {
		if err := d.Brake(); err != nil {
			d.logger.Warnw("brake failed", "action", res.Action, "error", err)
		}
	}()

	for {
		out := d.Tick(e.action, e.callback)
		res.Ticks++
		res.Action = e.action.Name()

		if out.Done {
			res.Reason = out.Reason
			res.Elapsed = d.clk.Since(start)
			res.Final = d.tracking.Pose()
			if dv, ok := e.action.(actions.Diverger); ok {
				res.Diverged = dv.Diverged()
			}
			d.logger.Infow(res.Action+" finished",
				"reason", res.Reason.String(),
				"ms", res.Elapsed.Milliseconds(),
				"ticks", res.Ticks,
				"pose", res.Final.String())
			return res, nil
		}

		if err := d.wait(ctx, d.period); err != nil {
			res.Elapsed = d.clk.Since(start)
			res.Final = d.tracking.Pose()
			return res, err
		}
	}
}
