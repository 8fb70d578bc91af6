package drivetrain_test

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/doxa/internal/actions"
	"github.com/san-kum/doxa/internal/drivetrain"
	"github.com/san-kum/doxa/internal/hw"
	"github.com/san-kum/doxa/internal/pose"
	"github.com/san-kum/doxa/internal/tracking"
)

type fakeMotor struct {
	mu       sync.Mutex
	volts    float64
	writes   int
	position float64
	temp     float64
	err      error
}

func (m *fakeMotor) SetVoltage(v float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes++
	if m.err != nil {
		return m.err
	}
	m.volts = v
	return nil
}

func (m *fakeMotor) Position() (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.position, nil
}

func (m *fakeMotor) Velocity() (float64, error) { return 0, nil }

func (m *fakeMotor) Temperature() (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.temp, m.err
}

func (m *fakeMotor) Volts() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.volts
}

type fakeIMU struct {
	mu           sync.Mutex
	deg          float64
	calibrations int
	failFirst    bool
	calibrating  bool
	queryErr     error
}

func (f *fakeIMU) Heading() (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.deg, nil
}

func (f *fakeIMU) SetHeading(deg float64) error {
	f.mu.Lock()
	f.deg = deg
	f.mu.Unlock()
	return nil
}

func (f *fakeIMU) IsCalibrating() (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calibrating, f.queryErr
}

func (f *fakeIMU) Calibrate(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calibrations++
	if f.failFirst && f.calibrations == 1 {
		return hw.ErrDisconnected
	}
	return nil
}

// scripted replays fixed outputs and finishes after the last one.
type scripted struct {
	outputs []actions.Output
	polls   []pose.Pose
	times   []time.Time
}

func (s *scripted) Name() string { return "scripted" }

func (s *scripted) Poll(current pose.Pose, now time.Time) actions.Output {
	s.polls = append(s.polls, current)
	s.times = append(s.times, now)
	if len(s.polls) > len(s.outputs) {
		return actions.Output{Done: true, Reason: actions.Settled}
	}
	return s.outputs[len(s.polls)-1]
}

var _ = Describe("Drivetrain", func() {
	var (
		left, right *fakeMotor
		imu         *fakeIMU
		track       *tracking.Subsystem
		mock        *clock.Mock
		waits       int
		dt          *drivetrain.Drivetrain
		ctx         context.Context
	)

	newDrivetrain := func(opts ...drivetrain.Option) *drivetrain.Drivetrain {
		base := []drivetrain.Option{
			drivetrain.WithClock(mock),
			drivetrain.WithWait(func(ctx context.Context, d time.Duration) error {
				waits++
				mock.Add(d)
				return ctx.Err()
			}),
		}
		return drivetrain.New(left, right, imu, track, append(base, opts...)...)
	}

	BeforeEach(func() {
		left = &fakeMotor{temp: 40}
		right = &fakeMotor{temp: 50}
		imu = &fakeIMU{}
		track = tracking.New(imu,
			tracking.NewWheel(left, 100, -150, tracking.Parallel),
			tracking.NewWheel(right, 100, 150, tracking.Parallel),
		)
		mock = clock.NewMock()
		waits = 0
		ctx = context.Background()
		dt = newDrivetrain()
	})

	Describe("Await", func() {
		It("ticks until the action is done and reports the result", func() {
			a := &scripted{outputs: []actions.Output{
				{Left: 6, Right: 6},
				{Left: 6, Right: 6},
				{Left: 3, Right: 3},
			}}

			res, err := dt.Action(a).Await(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Reason).To(Equal(actions.Settled))
			Expect(res.Ticks).To(Equal(4))
			Expect(res.Elapsed).To(Equal(30 * time.Millisecond))
			Expect(res.Action).To(Equal("scripted"))
			Expect(waits).To(Equal(3))
		})

		It("stamps each poll with the harness clock", func() {
			a := &scripted{outputs: []actions.Output{{}, {}}}
			start := mock.Now()
			_, err := dt.Action(a).Await(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(a.times).To(Equal([]time.Time{
				start,
				start.Add(10 * time.Millisecond),
				start.Add(20 * time.Millisecond),
			}))
		})

		It("stops the motors when finished", func() {
			a := &scripted{outputs: []actions.Output{{Left: 12, Right: 12}}}
			_, err := dt.Action(a).Await(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(left.Volts()).To(BeZero())
			Expect(right.Volts()).To(BeZero())
		})

		It("invokes the callback with the pose every tick", func() {
			track.SetPose(pose.New(100, 200, 0))
			var seen []pose.Pose
			a := &scripted{outputs: []actions.Output{{}, {}}}

			_, err := dt.Action(a).WithCallback(func(p pose.Pose) { seen = append(seen, p) }).Await(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(seen).To(HaveLen(3))
			Expect(seen[0].X()).To(BeNumerically("~", 100, 1e-9))
		})

		It("returns the context error and brakes on cancellation", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			a := &scripted{outputs: []actions.Output{{Left: 12, Right: 12}, {Left: 12, Right: 12}}}

			res, err := dt.Action(a).Await(cctx)
			Expect(err).To(MatchError(context.Canceled))
			Expect(res.Ticks).To(Equal(1))
			Expect(left.Volts()).To(BeZero())
		})

		It("keeps running when a motor write fails", func() {
			left.err = hw.ErrDisconnected
			a := &scripted{outputs: []actions.Output{{Left: 5, Right: 5}, {Left: 5, Right: 5}}}

			res, err := dt.Action(a).Await(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Ticks).To(Equal(3))
			Expect(right.Volts()).To(BeZero())
			Expect(right.writes).To(BeNumerically(">=", 2))
		})

		It("reports divergence from the action", func() {
			a := actions.NewTurnTo(pose.Radians(45), actions.DefaultConfig().WithTurnTimeout(50*time.Millisecond))
			// heading sensor turning the wrong way regardless of command
			res, err := dt.Action(a).WithCallback(func(pose.Pose) {
				imu.mu.Lock()
				imu.deg -= 2
				imu.mu.Unlock()
			}).Await(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Reason).To(Equal(actions.TimedOut))
			Expect(res.Diverged).To(BeTrue())
		})
	})

	Describe("Tick", func() {
		It("scales outputs by the max voltage", func() {
			dt.SetMaxVoltage(6)
			Expect(dt.MaxVoltage()).To(Equal(6.0))

			dt.Tick(&scripted{outputs: []actions.Output{{Left: 12, Right: -6}}}, nil)
			Expect(left.Volts()).To(BeNumerically("~", 6, 1e-9))
			Expect(right.Volts()).To(BeNumerically("~", -3, 1e-9))
		})

		It("clamps outputs to the max voltage", func() {
			dt.Tick(&scripted{outputs: []actions.Output{{Left: 20, Right: -30}}}, nil)
			Expect(left.Volts()).To(Equal(12.0))
			Expect(right.Volts()).To(Equal(-12.0))
		})

		It("swaps sides when tracking is reversed", func() {
			track.SetReverse(true)
			dt.Tick(&scripted{outputs: []actions.Output{{Left: 4, Right: -4}}}, nil)
			Expect(left.Volts()).To(Equal(-4.0))
			Expect(right.Volts()).To(Equal(4.0))
		})

		It("swaps sides when turns are inverted", func() {
			dt = newDrivetrain(drivetrain.WithInvertedTurns(true))
			dt.Tick(&scripted{outputs: []actions.Output{{Left: 4, Right: -4}}}, nil)
			Expect(left.Volts()).To(Equal(-4.0))
			Expect(right.Volts()).To(Equal(4.0))
		})

		It("updates tracking before polling", func() {
			a := &scripted{outputs: []actions.Output{{}}}
			left.position = 2
			right.position = 2
			dt.Tick(a, nil)
			Expect(a.polls[0].Y()).To(BeNumerically("~", 200, 1e-9))
		})
	})

	Describe("sensors and calibration", func() {
		It("averages temperature over both sides", func() {
			Expect(dt.Temperature()).To(BeNumerically("~", 45, 1e-9))
		})

		It("uses the healthy side when one temperature read fails", func() {
			left.err = hw.ErrDisconnected
			Expect(dt.Temperature()).To(BeNumerically("~", 50, 1e-9))
		})

		It("retries inertial calibration once", func() {
			imu.failFirst = true
			Expect(dt.CalibrateInertial(ctx)).To(Succeed())
			Expect(imu.calibrations).To(Equal(2))
		})

		It("assumes calibrating when the sensor cannot be queried", func() {
			Expect(dt.IsInertialCalibrating()).To(BeFalse())
			imu.queryErr = hw.ErrDisconnected
			Expect(dt.IsInertialCalibrating()).To(BeTrue())
		})

		DescribeTable("detects turn polarity",
			func(sign float64, inverted bool) {
				dt = newDrivetrain(drivetrain.WithWait(func(ctx context.Context, d time.Duration) error {
					// heading follows the commanded spin, scaled by sign
					imu.mu.Lock()
					imu.deg += sign * (left.Volts() - right.Volts()) * d.Seconds() * 10
					imu.mu.Unlock()
					return nil
				}))
				got, err := dt.CalibratePolarity(ctx, 4, 200*time.Millisecond)
				Expect(err).NotTo(HaveOccurred())
				Expect(got).To(Equal(inverted))
				Expect(dt.TurnsInverted()).To(Equal(inverted))
				Expect(left.Volts()).To(BeZero())
			},
			Entry("matching wiring", 1.0, false),
			Entry("swapped wiring", -1.0, true),
		)

		It("fails polarity calibration when the robot does not turn", func() {
			dt = newDrivetrain(drivetrain.WithWait(func(context.Context, time.Duration) error { return nil }))
			_, err := dt.CalibratePolarity(ctx, 4, 100*time.Millisecond)
			Expect(err).To(MatchError(drivetrain.ErrNoRotation))
		})
	})
})
