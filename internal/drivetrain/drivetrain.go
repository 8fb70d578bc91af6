// Package drivetrain runs motion actions against a tank drivetrain at a fixed tick rate.
package drivetrain

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/san-kum/doxa/internal/actions"
	"github.com/san-kum/doxa/internal/control"
	"github.com/san-kum/doxa/internal/hw"
	"github.com/san-kum/doxa/internal/log"
	"github.com/san-kum/doxa/internal/pose"
	"github.com/san-kum/doxa/internal/tracking"
)

const (
	// NominalVoltage is the scale actions produce their outputs on.
	NominalVoltage = 12.0
	// DefaultPeriod is the tick period of the action loop.
	DefaultPeriod = 10 * time.Millisecond
)

var (
	// ErrNoRotation is returned by CalibratePolarity when the robot did not turn.
	ErrNoRotation = errors.New("drivetrain: no rotation measured")
	// ErrNoHeadingSensor is returned by calls that need the heading sensor when none is fitted.
	ErrNoHeadingSensor = errors.New("drivetrain: no heading sensor")
)

// WaitFunc blocks for one tick. A simulator substitutes one that advances physics.
type WaitFunc func(ctx context.Context, d time.Duration) error

type Option func(*Drivetrain)

func WithClock(clk clock.Clock) Option {
	return func(d *Drivetrain) { d.clk = clk }
}

func WithPeriod(period time.Duration) Option {
	return func(d *Drivetrain) { d.period = period }
}

func WithWait(wait WaitFunc) Option {
	return func(d *Drivetrain) { d.wait = wait }
}

func WithMaxVoltage(v float64) Option {
	return func(d *Drivetrain) { d.maxVoltage = v }
}

// WithInvertedTurns swaps the sides of every command, for drivetrains whose turn polarity is
// known to be backwards.
func WithInvertedTurns(inverted bool) Option {
	return func(d *Drivetrain) { d.invertTurns = inverted }
}

// Drivetrain owns both motor sides and drives them from actions.
type Drivetrain struct {
	left, right hw.Motor
	imu         hw.HeadingSensor
	tracking    *tracking.Subsystem

	clk    clock.Clock
	period time.Duration
	wait   WaitFunc

	mu          sync.Mutex
	maxVoltage  float64
	invertTurns bool

	logger *zap.SugaredLogger
}

func New(left, right hw.Motor, imu hw.HeadingSensor, t *tracking.Subsystem, opts ...Option) *Drivetrain {
	d := &Drivetrain{
		left:       left,
		right:      right,
		imu:        imu,
		tracking:   t,
		clk:        clock.New(),
		period:     DefaultPeriod,
		maxVoltage: NominalVoltage,
		logger:     log.Named("drivetrain"),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.wait == nil {
		d.wait = d.sleep
	}
	return d
}

func (d *Drivetrain) sleep(ctx context.Context, period time.Duration) error {
	timer := d.clk.Timer(period)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (d *Drivetrain) Tracking() *tracking.Subsystem { return d.tracking }
func (d *Drivetrain) Clock() clock.Clock             { return d.clk }
func (d *Drivetrain) Period() time.Duration          { return d.period }

// SetMaxVoltage sets the voltage that a full-scale action output maps to.
func (d *Drivetrain) SetMaxVoltage(v float64) {
	d.mu.Lock()
	d.maxVoltage = v
	d.mu.Unlock()
}

func (d *Drivetrain) MaxVoltage() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.maxVoltage
}

// TurnsInverted reports whether commands are side-swapped to correct turn polarity.
func (d *Drivetrain) TurnsInverted() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.invertTurns
}

// SetVoltages writes both sides directly. Both are always attempted.
func (d *Drivetrain) SetVoltages(left, right float64) error {
	return multierr.Combine(
		errors.Wrap(d.left.SetVoltage(left), "left"),
		errors.Wrap(d.right.SetVoltage(right), "right"),
	)
}

// Brake stops both sides.
func (d *Drivetrain) Brake() error {
	return d.SetVoltages(0, 0)
}

// Temperature is the mean motor temperature over the sides that answered.
func (d *Drivetrain) Temperature() (float64, error) {
	var (
		sum  float64
		n    int
		errs error
	)
	for _, m := range []hw.Motor{d.left, d.right} {
		t, err := m.Temperature()
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		sum += t
		n++
	}
	if n == 0 {
		return 0, errs
	}
	return sum / float64(n), nil
}

// CalibrateInertial calibrates the heading sensor, retrying once on failure.
func (d *Drivetrain) CalibrateInertial(ctx context.Context) error {
	if d.imu == nil {
		return ErrNoHeadingSensor
	}
	err := d.imu.Calibrate(ctx)
	if err == nil {
		return nil
	}
	d.logger.Warnw("inertial calibration failed, retrying", "error", err)
	return errors.Wrap(d.imu.Calibrate(ctx), "calibrate inertial")
}

// IsInertialCalibrating reports true while calibrating, and also when the sensor cannot be
// queried.
func (d *Drivetrain) IsInertialCalibrating() bool {
	if d.imu == nil {
		return false
	}
	calibrating, err := d.imu.IsCalibrating()
	if err != nil {
		return true
	}
	return calibrating
}

// CalibratePolarity spins the robot clockwise briefly and checks which way the heading
// sensor saw it turn. Turns are inverted from then on if the sensor disagrees.
func (d *Drivetrain) CalibratePolarity(ctx context.Context, volts float64, duration time.Duration) (inverted bool, err error) {
	if d.imu == nil {
		return false, ErrNoHeadingSensor
	}
	before, err := d.imu.Heading()
	if err != nil {
		return false, errors.Wrap(err, "read heading")
	}

	if err := d.SetVoltages(volts, -volts); err != nil {
		d.logger.Warnw("polarity spin write failed", "error", err)
	}
	for elapsed := time.Duration(0); elapsed < duration; elapsed += d.period {
		if err := d.wait(ctx, d.period); err != nil {
			_ = d.Brake()
			return false, err
		}
	}
	if err := d.Brake(); err != nil {
		d.logger.Warnw("brake after polarity spin failed", "error", err)
	}

	after, err := d.imu.Heading()
	if err != nil {
		return false, errors.Wrap(err, "read heading")
	}

	delta := pose.AngleDiff(pose.Radians(after), pose.Radians(before))
	if pose.Deg(delta) > -1 && pose.Deg(delta) < 1 {
		return false, errors.Wrapf(ErrNoRotation, "heading moved %.2f degrees", pose.Deg(delta))
	}

	inverted = delta < 0
	d.mu.Lock()
	d.invertTurns = inverted
	d.mu.Unlock()
	d.logger.Infow("turn polarity calibrated", "inverted", inverted, "delta_deg", pose.Deg(delta))
	return inverted, nil
}

// command maps an action output onto the two sides.
func (d *Drivetrain) command(out actions.Output) (left, right float64) {
	d.mu.Lock()
	limit, invert := d.maxVoltage, d.invertTurns
	d.mu.Unlock()

	k := limit / NominalVoltage
	left = control.Clamp(out.Left*k, -limit, limit)
	right = control.Clamp(out.Right*k, -limit, limit)

	if d.tracking.Reversed() {
		left, right = right, left
	}
	if invert {
		left, right = right, left
	}
	return left, right
}

// Tick runs one step of a: update tracking, poll, write the motors, run cb. It does not wait.
func (d *Drivetrain) Tick(a actions.Action, cb func(pose.Pose)) actions.Output {
	d.tracking.Update()
	current := d.tracking.Pose()

	out := a.Poll(current, d.clk.Now())
	if !out.Done {
		left, right := d.command(out)
		if err := d.SetVoltages(left, right); err != nil {
			d.logger.Warnw("motor write failed", "action", a.Name(), "error", err)
		}
	}

	if cb != nil {
		cb(current)
	}
	return out
}
