package experiment_test

import (
	"context"
	"math"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/doxa/internal/actions"
	"github.com/san-kum/doxa/internal/config"
	"github.com/san-kum/doxa/internal/experiment"
	"github.com/san-kum/doxa/internal/pose"
	"github.com/san-kum/doxa/internal/routine"
	"github.com/san-kum/doxa/internal/sim"
	"github.com/san-kum/doxa/internal/storage"
)

func single(name string, start pose.Pose, step func(b *routine.Builder) actions.Action) routine.Routine {
	return routine.Routine{
		Name:  name,
		Start: start,
		Steps: func(b *routine.Builder) []actions.Action { return []actions.Action{step(b)} },
	}
}

func headingErrDeg(p pose.Pose, deg float64) float64 {
	return math.Abs(pose.Deg(pose.AngleDiff(pose.Radians(deg), p.Heading)))
}

var _ = Describe("Experiment", func() {
	var (
		cfg *config.Config
		ctx context.Context
	)

	BeforeEach(func() {
		cfg = config.DefaultConfig()
		ctx = context.Background()
	})

	run := func(rt routine.Routine) *experiment.Result {
		e, err := experiment.New(cfg)
		Expect(err).NotTo(HaveOccurred())
		Expect(e.Prepare(ctx)).To(Succeed())
		res, err := e.Run(ctx, rt)
		Expect(err).NotTo(HaveOccurred())
		return res
	}

	It("drives one tile forward and settles there", func() {
		res, err := experiment.RunOnce(ctx, cfg, "forward")
		Expect(err).NotTo(HaveOccurred())

		Expect(res.Settled()).To(BeTrue())
		Expect(res.Truth.X()).To(BeNumerically("~", 0, 25))
		Expect(res.Truth.Y()).To(BeNumerically("~", 600, 25))
		Expect(headingErrDeg(res.Truth, 0)).To(BeNumerically("<", 3))
		Expect(res.TrackingError()).To(BeNumerically("<", 15))
		Expect(res.Metrics["path_length"]).To(BeNumerically("~", 600, 40))
	})

	It("drives backwards to a point behind the robot", func() {
		res := run(single("reverse", routine.At(0, 0, 0), func(b *routine.Builder) actions.Action {
			return b.DriveToPoint(0, -1, true)
		}))

		Expect(res.Settled()).To(BeTrue())
		Expect(res.Truth.Distance(routine.At(0, -1, 0))).To(BeNumerically("<", 30))
		Expect(headingErrDeg(res.Truth, 0)).To(BeNumerically("<", 10))
	})

	It("turns in place to a heading", func() {
		res := run(single("turn", routine.At(0, 0, 0), func(b *routine.Builder) actions.Action {
			return b.TurnTo(90)
		}))

		Expect(res.Settled()).To(BeTrue())
		Expect(headingErrDeg(res.Truth, 90)).To(BeNumerically("<", 3))
		Expect(res.Actions[0].Diverged).To(BeFalse())
		Expect(res.Truth.Distance(routine.At(0, 0, 0))).To(BeNumerically("<", 15))
	})

	It("follows a quarter curve with pure pursuit", func() {
		res := run(single("quarter", routine.At(0, 0, 0), func(b *routine.Builder) actions.Action {
			return b.SmoothToPoint(1, 1, 90, 0.5, 0.5, false, false)
		}))

		Expect(res.Actions[0].Action).To(Equal("pure_pursuit"))
		Expect(res.OutOfTime).To(BeFalse())
		Expect(res.Truth.Distance(routine.At(1, 1, 90))).To(BeNumerically("<", 80))
		Expect(headingErrDeg(res.Truth, 90)).To(BeNumerically("<", 20))
	})

	It("labels every sample with the action that produced it", func() {
		var streamed []storage.Sample
		cfg.Duration = 30 * time.Second
		e, err := experiment.New(cfg)
		Expect(err).NotTo(HaveOccurred())
		e.OnSample(func(s storage.Sample) { streamed = append(streamed, s) })
		Expect(e.Prepare(ctx)).To(Succeed())

		rt, err := routine.Get("square")
		Expect(err).NotTo(HaveOccurred())
		res, err := e.Run(ctx, rt)
		Expect(err).NotTo(HaveOccurred())

		Expect(res.Samples).To(HaveLen(len(streamed)))
		Expect(res.Samples[0].Action).To(Equal("forward"))
		Expect(res.Samples[0].Time).To(BeNumerically("<", 0.05))
		names := map[string]bool{}
		for _, s := range res.Samples {
			names[s.Action] = true
		}
		Expect(names).To(HaveKey("turn_to"))
		Expect(res.Actions).To(HaveLen(8))
	})

	Describe("sides", func() {
		It("mirrors the routine on the blue side", func() {
			rt := single("boomerang", routine.At(0, -1, 0), func(b *routine.Builder) actions.Action {
				return b.BoomerangToPoint(1, 0.5, 90)
			})

			red := run(rt)
			cfg.Side = "blue"
			e, err := experiment.New(cfg)
			Expect(err).NotTo(HaveOccurred())
			Expect(e.Prepare(ctx)).To(Succeed())
			blue, err := e.Run(ctx, rt)
			Expect(err).NotTo(HaveOccurred())

			// same path in routine coordinates, opposite side of the real field
			Expect(blue.Truth.Distance(red.Truth)).To(BeNumerically("<", 30))
			Expect(e.World().Pose().X()).To(BeNumerically("<", 0))
			Expect(red.Truth.X()).To(BeNumerically(">", 0))
		})
	})

	Describe("budgets and faults", func() {
		It("cuts a routine short when simulated time runs out", func() {
			cfg.Duration = 500 * time.Millisecond
			res, err := experiment.RunOnce(ctx, cfg, "square")
			Expect(err).NotTo(HaveOccurred())
			Expect(res.OutOfTime).To(BeTrue())
			Expect(res.Settled()).To(BeFalse())
			Expect(res.SimTime).To(BeNumerically("~", 500*time.Millisecond, 20*time.Millisecond))
		})

		It("keeps going through sensor faults", func() {
			cfg = config.GetPreset("noisy")
			res, err := experiment.RunOnce(ctx, cfg, "square")
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Metrics["heading_faults"]).To(BeNumerically(">", 0))
			Expect(res.Actions).NotTo(BeEmpty())
		})

		It("rejects faults on devices the robot does not have", func() {
			cfg.Simulator.Faults = []sim.Fault{{Device: "lidar", Kind: sim.Stale, End: time.Second}}
			_, err := experiment.New(cfg)
			Expect(err).To(MatchError(config.ErrInvalid))
		})
	})

	Describe("preparation", func() {
		It("calibrates turn polarity when asked", func() {
			cfg.Drivetrain.InvertTurns = true
			cfg.Drivetrain.CalibratePolarity = true
			e, err := experiment.New(cfg)
			Expect(err).NotTo(HaveOccurred())
			Expect(e.Drivetrain().TurnsInverted()).To(BeTrue())

			Expect(e.Prepare(ctx)).To(Succeed())
			Expect(e.Drivetrain().TurnsInverted()).To(BeFalse())
			Expect(e.Drivetrain().IsInertialCalibrating()).To(BeFalse())
		})

		It("tracks with dedicated pods", func() {
			cfg = config.GetPreset("odom-pods")
			res, err := experiment.RunOnce(ctx, cfg, "forward")
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Settled()).To(BeTrue())
			Expect(res.TrackingError()).To(BeNumerically("<", 15))
		})
	})

	Describe("ensembles", func() {
		It("runs each seed and summarizes the metrics", func() {
			results, err := experiment.NewEnsemble(cfg, "forward", 3, 10).Run(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(3))

			summary := experiment.Summarize(results)
			Expect(summary.Mean["path_length"]).To(BeNumerically("~", 600, 40))
			Expect(summary.StdDev).To(HaveKey("tracking_error"))
		})
	})
})
