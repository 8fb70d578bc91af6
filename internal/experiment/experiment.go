// Package experiment runs routines on the simulated robot: it wires the simulator's devices
// into the real tracking and drivetrain code and records what happened.
package experiment

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/san-kum/doxa/internal/actions"
	"github.com/san-kum/doxa/internal/config"
	"github.com/san-kum/doxa/internal/drivetrain"
	"github.com/san-kum/doxa/internal/integrators"
	"github.com/san-kum/doxa/internal/log"
	"github.com/san-kum/doxa/internal/metrics"
	"github.com/san-kum/doxa/internal/pose"
	"github.com/san-kum/doxa/internal/routine"
	"github.com/san-kum/doxa/internal/sim"
	"github.com/san-kum/doxa/internal/storage"
	"github.com/san-kum/doxa/internal/tracking"
)

// ErrOutOfTime ends a routine that ran past the configured duration.
var ErrOutOfTime = errors.New("experiment: out of simulated time")

const (
	polarityVolts    = 4.0
	polaritySpin     = 200 * time.Millisecond
	polaritySettle   = 500 * time.Millisecond
	calibrationLimit = 10 * time.Second
)

type Experiment struct {
	cfg     *config.Config
	world   *sim.World
	clk     *clock.Mock
	rig     *rig
	track   *tracking.Subsystem
	drive   *drivetrain.Drivetrain
	metrics []sim.Metric

	origin   time.Duration
	deadline time.Duration
	current  actions.Action
	samples  []storage.Sample
	onSample func(storage.Sample)

	logger *zap.SugaredLogger
}

// New builds a simulated robot from cfg. The config is validated first.
func New(cfg *config.Config) (*Experiment, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	integ, err := integrators.ByName(cfg.Integrator)
	if err != nil {
		return nil, err
	}

	world := sim.New(cfg.Simulator, integ)
	if err := world.ValidateFaults(cfg.PodNames()...); err != nil {
		return nil, errors.Wrap(config.ErrInvalid, err.Error())
	}
	r, err := buildRig(world, cfg)
	if err != nil {
		return nil, err
	}

	e := &Experiment{
		cfg:     cfg,
		world:   world,
		clk:     clock.NewMock(),
		rig:     r,
		track:   tracking.New(r.imu, r.wheels...),
		metrics: metrics.Default(),
		logger:  log.Named("experiment"),
	}
	for _, m := range e.metrics {
		world.AddMetric(m)
	}

	e.drive = drivetrain.New(r.left, r.right, r.imu, e.track,
		drivetrain.WithClock(e.clk),
		drivetrain.WithPeriod(cfg.Drivetrain.Period),
		drivetrain.WithWait(e.wait),
		drivetrain.WithMaxVoltage(cfg.Drivetrain.MaxVoltage),
		drivetrain.WithInvertedTurns(cfg.Drivetrain.InvertTurns),
	)
	return e, nil
}

func (e *Experiment) World() *sim.World                  { return e.world }
func (e *Experiment) Drivetrain() *drivetrain.Drivetrain { return e.drive }
func (e *Experiment) Samples() []storage.Sample          { return e.samples }

// OnSample runs cb for every recorded tick.
func (e *Experiment) OnSample(cb func(storage.Sample)) { e.onSample = cb }

// wait stands in for the drivetrain's sleep: it moves the physics and the clock together.
func (e *Experiment) wait(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if e.deadline > 0 && e.world.Elapsed() >= e.deadline {
		return ErrOutOfTime
	}
	if err := e.world.Advance(d); err != nil {
		return errors.Wrap(err, "advance simulation")
	}
	e.clk.Add(d)
	return nil
}

// Prepare calibrates the heading sensor and, if configured, the turn polarity, the way a
// robot does before a match.
func (e *Experiment) Prepare(ctx context.Context) error {
	if err := e.drive.CalibrateInertial(ctx); err != nil {
		return errors.Wrap(err, "prepare")
	}
	period := e.drive.Period()
	for waited := time.Duration(0); e.drive.IsInertialCalibrating(); waited += period {
		if waited >= calibrationLimit {
			return errors.New("prepare: heading sensor never finished calibrating")
		}
		if err := e.wait(ctx, period); err != nil {
			return err
		}
	}

	if !e.cfg.Drivetrain.CalibratePolarity {
		return nil
	}
	inverted, err := e.drive.CalibratePolarity(ctx, polarityVolts, polaritySpin)
	if err != nil {
		return errors.Wrap(err, "prepare")
	}
	e.logger.Infow("polarity", "inverted", inverted)
	for waited := time.Duration(0); waited < polaritySettle; waited += period {
		if err := e.wait(ctx, period); err != nil {
			return err
		}
	}
	return nil
}

// Run places the robot at the routine's start for the configured side and runs it to the
// end or until the simulated time budget is spent.
func (e *Experiment) Run(ctx context.Context, rt routine.Routine) (*Result, error) {
	return e.RunFrom(ctx, rt, rt.Start)
}

// RunFrom is Run with the robot really placed at start, in routine coordinates, while the
// tracking estimate still begins at the routine's nominal start.
func (e *Experiment) RunFrom(ctx context.Context, rt routine.Routine, start pose.Pose) (*Result, error) {
	reversed := e.cfg.Reversed()
	if reversed {
		start = start.Reversed()
	}
	e.world.Place(start)
	if err := e.track.Rebaseline(); err != nil {
		e.logger.Warnw("rebaseline", "error", err)
	}
	for _, m := range e.metrics {
		m.Reset()
	}
	e.samples = e.samples[:0]
	e.origin = e.world.Elapsed()
	e.deadline = e.origin + e.cfg.Duration
	defer func() { e.deadline = 0 }()

	stalls := e.world.Stalls()
	faults := e.track.HeadingFaults()

	results, err := routine.Run(ctx, e.drive, rt,
		routine.WithConfig(e.cfg.Actions),
		routine.WithReverse(reversed),
		routine.WithStepCallback(func(_ int, a actions.Action) { e.current = a }),
		routine.WithTickCallback(e.record),
	)

	res := &Result{
		Routine:   rt.Name,
		Actions:   results,
		Samples:   append([]storage.Sample(nil), e.samples...),
		SimTime:   e.world.Elapsed() - e.origin,
		OutOfTime: errors.Is(err, ErrOutOfTime),
		Estimate:  e.track.Pose(),
		Truth:     e.truth(),
		Metrics:   make(map[string]float64),
	}
	for _, m := range e.metrics {
		res.Metrics[m.Name()] = m.Value()
	}
	res.Metrics["tracking_error"] = res.TrackingError()
	res.Metrics["stalls"] = float64(e.world.Stalls() - stalls)
	res.Metrics["heading_faults"] = float64(e.track.HeadingFaults() - faults)
	res.Metrics["sim_time"] = res.SimTime.Seconds()
	if temp, terr := e.drive.Temperature(); terr == nil {
		res.Metrics["motor_temp"] = temp
	}

	if err != nil && !res.OutOfTime {
		return res, err
	}
	if res.OutOfTime {
		e.logger.Warnw("routine cut short", "routine", rt.Name, "budget", e.cfg.Duration)
	}
	return res, nil
}

// truth is the simulator's pose in the routine's own coordinates.
func (e *Experiment) truth() pose.Pose {
	p := e.world.Pose()
	if e.cfg.Reversed() {
		return p.Reversed()
	}
	return p
}

func (e *Experiment) record(estimate pose.Pose) {
	truth := e.truth()
	left, right := e.world.Voltages()
	s := storage.Sample{
		Time:        (e.world.Elapsed() - e.origin).Seconds(),
		X:           estimate.X(),
		Y:           estimate.Y(),
		Heading:     estimate.HeadingDegrees(),
		TrueX:       truth.X(),
		TrueY:       truth.Y(),
		TrueHeading: truth.HeadingDegrees(),
		Left:        left,
		Right:       right,
	}
	if e.current != nil {
		s.Action = e.current.Name()
	}
	e.samples = append(e.samples, s)
	if e.onSample != nil {
		e.onSample(s)
	}
}

// RunOnce builds, prepares and runs one experiment.
func RunOnce(ctx context.Context, cfg *config.Config, name string) (*Result, error) {
	rt, err := routine.Get(name)
	if err != nil {
		return nil, err
	}
	e, err := New(cfg)
	if err != nil {
		return nil, err
	}
	if err := e.Prepare(ctx); err != nil {
		return nil, err
	}
	return e.Run(ctx, rt)
}
