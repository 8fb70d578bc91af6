// Package optim tunes action gains by searching over simulated runs.
package optim

import (
	"context"
	"math"

	"github.com/pkg/errors"

	"github.com/san-kum/doxa/internal/config"
	"github.com/san-kum/doxa/internal/experiment"
)

// GridSearch tries every combination of the given parameter values.
type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges}
}

// Objective scores a run; lower is better.
type Objective func(*experiment.Result) float64

// MetricObjective scores by one metric. Runs that did not settle score +Inf.
func MetricObjective(name string) Objective {
	return func(r *experiment.Result) float64 {
		if !r.Settled() {
			return math.Inf(1)
		}
		v, ok := r.Metrics[name]
		if !ok {
			return math.Inf(1)
		}
		return v
	}
}

// Trial is one evaluated combination.
type Trial struct {
	Params map[string]float64
	Score  float64
}

// Search runs routine on a copy of base for every combination and returns the best
// parameters, their score and every trial in evaluation order.
func (g *GridSearch) Search(
	ctx context.Context,
	base *config.Config,
	routine string,
	objective Objective,
) (map[string]float64, float64, []Trial, error) {
	if len(g.paramNames) != len(g.ranges) {
		return nil, 0, nil, errors.New("grid search: one range per parameter")
	}

	best := math.Inf(1)
	var bestParams map[string]float64
	var trials []Trial

	err := g.searchRecursive(ctx, 0, make(map[string]float64), base, routine, objective, &best, &bestParams, &trials)
	if err != nil {
		return nil, 0, trials, err
	}
	if bestParams == nil {
		return nil, best, trials, errors.New("grid search: no combination settled")
	}
	return bestParams, best, trials, nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current map[string]float64,
	base *config.Config,
	routine string,
	objective Objective,
	best *float64,
	bestParams *map[string]float64,
	trials *[]Trial,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if depth == len(g.paramNames) {
		cfg := base.Clone()
		for k, v := range current {
			if err := cfg.SetParam(k, v); err != nil {
				return err
			}
		}
		if err := cfg.Validate(); err != nil {
			*trials = append(*trials, Trial{Params: current, Score: math.Inf(1)})
			return nil
		}

		result, err := experiment.RunOnce(ctx, cfg, routine)
		if err != nil {
			return err
		}

		val := objective(result)
		*trials = append(*trials, Trial{Params: current, Score: val})
		if val < *best {
			*best = val
			*bestParams = make(map[string]float64)
			for k, v := range current {
				(*bestParams)[k] = v
			}
		}
		return nil
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		newParams := make(map[string]float64)
		for k, v := range current {
			newParams[k] = v
		}
		newParams[paramName] = val

		if err := g.searchRecursive(ctx, depth+1, newParams, base, routine, objective, best, bestParams, trials); err != nil {
			return err
		}
	}
	return nil
}
