package automation

import (
	"context"
	"math/rand"

	"github.com/pkg/errors"

	"github.com/san-kum/doxa/internal/config"
	"github.com/san-kum/doxa/internal/experiment"
	"github.com/san-kum/doxa/internal/log"
	"github.com/san-kum/doxa/internal/pose"
	"github.com/san-kum/doxa/internal/routine"
)

// ParameterSweep runs a routine once per evenly spaced value of one parameter.
type ParameterSweep struct {
	Routine   routine.Routine
	ParamName string
	ParamMin  float64
	ParamMax  float64
	NumSteps  int
}

type SweepResult struct {
	ParamValue    float64
	Settled       bool
	SimTime       float64
	TrackingError float64
	FinalError    float64
}

// RunSweep runs the sweep on copies of base. FinalError is the distance from where the
// robot really ended to where it ended in the first value's run.
func RunSweep(ctx context.Context, sweep *ParameterSweep, base *config.Config) ([]SweepResult, error) {
	if sweep.NumSteps < 2 {
		return nil, errors.New("sweep: need at least two steps")
	}
	logger := log.Named("sweep")
	results := make([]SweepResult, 0, sweep.NumSteps)
	paramStep := (sweep.ParamMax - sweep.ParamMin) / float64(sweep.NumSteps-1)

	var reference pose.Pose
	for i := 0; i < sweep.NumSteps; i++ {
		paramVal := sweep.ParamMin + float64(i)*paramStep
		cfg := base.Clone()
		if err := cfg.SetParam(sweep.ParamName, paramVal); err != nil {
			return nil, err
		}

		res, err := runRoutine(ctx, cfg, sweep.Routine)
		if err != nil {
			return results, errors.Wrapf(err, "%s=%.4f", sweep.ParamName, paramVal)
		}
		if i == 0 {
			reference = res.Truth
		}

		results = append(results, SweepResult{
			ParamValue:    paramVal,
			Settled:       res.Settled(),
			SimTime:       res.SimTime.Seconds(),
			TrackingError: res.TrackingError(),
			FinalError:    res.Truth.Distance(reference),
		})
		logger.Debugw("sweep step", "n", i+1, "of", sweep.NumSteps, sweep.ParamName, paramVal)
	}
	return results, nil
}

// MonteCarloConfig places the robot with random error around the routine's start.
type MonteCarloConfig struct {
	Routine      routine.Routine
	Perturbation float64 // mm, each axis
	HeadingError float64 // degrees
	NumTrials    int
	Seed         int64
}

type MonteCarloResult struct {
	TrialID int
	Start   pose.Pose
	Final   pose.Pose
	Settled bool
}

// RunMonteCarlo runs the routine from perturbed starts. The routine's actions still think
// the robot is exactly at its nominal start.
func RunMonteCarlo(ctx context.Context, mc *MonteCarloConfig, base *config.Config) ([]MonteCarloResult, error) {
	rng := rand.New(rand.NewSource(mc.Seed))
	results := make([]MonteCarloResult, 0, mc.NumTrials)

	for trial := 0; trial < mc.NumTrials; trial++ {
		nominal := mc.Routine.Start
		actual := pose.New(
			nominal.X()+(rng.Float64()-0.5)*2*mc.Perturbation,
			nominal.Y()+(rng.Float64()-0.5)*2*mc.Perturbation,
			nominal.Heading+pose.Radians((rng.Float64()-0.5)*2*mc.HeadingError),
		)

		cfg := base.Clone()
		cfg.Simulator.Seed = mc.Seed + int64(trial)
		e, err := experiment.New(cfg)
		if err != nil {
			return nil, err
		}
		if err := e.Prepare(ctx); err != nil {
			return results, err
		}
		res, err := e.RunFrom(ctx, mc.Routine, actual)
		if err != nil {
			return results, errors.Wrapf(err, "trial %d", trial)
		}

		results = append(results, MonteCarloResult{
			TrialID: trial,
			Start:   actual,
			Final:   res.Truth,
			Settled: res.Settled(),
		})
	}
	return results, nil
}

// MonteCarloStats counts settled and unsettled trials.
func MonteCarloStats(results []MonteCarloResult) (settled int, unsettled int) {
	for _, r := range results {
		if r.Settled {
			settled++
		} else {
			unsettled++
		}
	}
	return
}

func runRoutine(ctx context.Context, cfg *config.Config, rt routine.Routine) (*experiment.Result, error) {
	e, err := experiment.New(cfg)
	if err != nil {
		return nil, err
	}
	if err := e.Prepare(ctx); err != nil {
		return nil, err
	}
	return e.Run(ctx, rt)
}

// RunScenario runs a scenario once with cfg.
func RunScenario(ctx context.Context, s *Scenario, cfg *config.Config) (*experiment.Result, error) {
	return runRoutine(ctx, cfg, s.Routine())
}
