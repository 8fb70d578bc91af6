package experiment

import (
	"context"
	"sync"

	"go.uber.org/multierr"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/doxa/internal/config"
)

// Ensemble runs one routine under several simulator seeds in parallel.
type Ensemble struct {
	cfg       *config.Config
	routine   string
	numRuns   int
	seedStart int64
}

func NewEnsemble(cfg *config.Config, routine string, numRuns int, seedStart int64) *Ensemble {
	return &Ensemble{cfg: cfg, routine: routine, numRuns: numRuns, seedStart: seedStart}
}

func (e *Ensemble) Run(ctx context.Context) ([]*Result, error) {
	results := make([]*Result, e.numRuns)
	errs := make([]error, e.numRuns)

	var wg sync.WaitGroup
	for i := 0; i < e.numRuns; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			cfg := e.cfg.Clone()
			cfg.Simulator.Seed = e.seedStart + int64(idx)
			results[idx], errs[idx] = RunOnce(ctx, cfg, e.routine)
		}(i)
	}

	wg.Wait()

	if err := multierr.Combine(errs...); err != nil {
		return nil, err
	}
	return results, nil
}

// Summary is the mean and standard deviation of each metric across runs.
type Summary struct {
	Mean   map[string]float64
	StdDev map[string]float64
}

func Summarize(results []*Result) Summary {
	values := make(map[string][]float64)
	for _, r := range results {
		for name, v := range r.Metrics {
			values[name] = append(values[name], v)
		}
	}

	s := Summary{Mean: make(map[string]float64), StdDev: make(map[string]float64)}
	for name, vs := range values {
		mean, std := stat.MeanStdDev(vs, nil)
		if len(vs) < 2 {
			std = 0
		}
		s.Mean[name] = mean
		s.StdDev[name] = std
	}
	return s
}
