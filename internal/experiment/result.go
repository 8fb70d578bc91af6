package experiment

import (
	"time"

	"github.com/san-kum/doxa/internal/actions"
	"github.com/san-kum/doxa/internal/config"
	"github.com/san-kum/doxa/internal/drivetrain"
	"github.com/san-kum/doxa/internal/pose"
	"github.com/san-kum/doxa/internal/storage"
)

// Result is what one routine run produced. Poses are in the routine's own coordinates.
type Result struct {
	Routine   string
	Actions   []drivetrain.Result
	Samples   []storage.Sample
	Metrics   map[string]float64
	SimTime   time.Duration
	OutOfTime bool

	Estimate pose.Pose
	Truth    pose.Pose
}

// TrackingError is how far the final estimate is from where the robot really ended up.
func (r *Result) TrackingError() float64 {
	return r.Estimate.Distance(r.Truth)
}

// Settled reports whether every action settled.
func (r *Result) Settled() bool {
	if r.OutOfTime || len(r.Actions) == 0 {
		return false
	}
	for _, a := range r.Actions {
		if a.Reason != actions.Settled {
			return false
		}
	}
	return true
}

// Metadata describes the run for storage.
func (r *Result) Metadata(cfg *config.Config, preset string) storage.RunMetadata {
	meta := storage.RunMetadata{
		Routine:    r.Routine,
		Preset:     preset,
		Side:       cfg.Side,
		Seed:       cfg.Simulator.Seed,
		Period:     cfg.Drivetrain.Period.Seconds(),
		Duration:   r.SimTime.Seconds(),
		Integrator: cfg.Integrator,
		Metrics:    r.Metrics,
	}
	for _, a := range r.Actions {
		meta.Actions = append(meta.Actions, storage.ActionSummary{
			Name:     a.Action,
			Reason:   a.Reason.String(),
			Ms:       a.Elapsed.Milliseconds(),
			Ticks:    a.Ticks,
			Diverged: a.Diverged,
			X:        a.Final.X(),
			Y:        a.Final.Y(),
			Heading:  a.Final.HeadingDegrees(),
		})
	}
	return meta
}
