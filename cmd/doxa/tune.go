package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/san-kum/doxa/internal/automation"
	"github.com/san-kum/doxa/internal/config"
	"github.com/san-kum/doxa/internal/optim"
	"github.com/san-kum/doxa/internal/routine"
)

var (
	gridParams []string
	metric     string

	sweepParam string
	sweepMin   float64
	sweepMax   float64
	sweepSteps int

	trials       int
	perturb      float64
	headingError float64
)

func tuneCommands() []*cobra.Command {
	tuneCmd := &cobra.Command{
		Use:   "tune [routine]",
		Short: "grid search action gains on a routine",
		Long: "Runs the routine once per combination of parameter values and reports the best.\n" +
			"Each --param is name=v1,v2,... or name=min:max:steps.",
		Args: cobra.ExactArgs(1),
		RunE: tune,
	}
	configFlags(tuneCmd)
	tuneCmd.Flags().StringArrayVar(&gridParams, "param", nil, "parameter values, e.g. turn.kp=2:6:5")
	tuneCmd.Flags().StringVar(&metric, "metric", "sim_time", "metric to minimise")

	sweepCmd := &cobra.Command{
		Use:   "sweep [routine]",
		Short: "sweep one parameter and report how the routine ends",
		Args:  cobra.ExactArgs(1),
		RunE:  sweep,
	}
	configFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&sweepParam, "param", "linear.kp", "parameter to sweep")
	sweepCmd.Flags().Float64Var(&sweepMin, "min", 0.01, "first value")
	sweepCmd.Flags().Float64Var(&sweepMax, "max", 0.05, "last value")
	sweepCmd.Flags().IntVar(&sweepSteps, "steps", 5, "number of values")

	mcCmd := &cobra.Command{
		Use:   "montecarlo [routine]",
		Short: "run a routine from randomly misplaced starts",
		Args:  cobra.ExactArgs(1),
		RunE:  monteCarlo,
	}
	configFlags(mcCmd)
	mcCmd.Flags().IntVar(&trials, "trials", 10, "number of trials")
	mcCmd.Flags().Float64Var(&perturb, "perturb", 25, "start position error per axis (mm)")
	mcCmd.Flags().Float64Var(&headingError, "heading-error", 2, "start heading error (degrees)")

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run a routine described in a YAML scenario file",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}
	configFlags(scenarioCmd)

	return []*cobra.Command{tuneCmd, sweepCmd, mcCmd, scenarioCmd}
}

// parseRange reads name=v1,v2,... or name=min:max:steps.
func parseRange(s string) (string, []float64, error) {
	name, values, ok := strings.Cut(s, "=")
	if !ok || name == "" {
		return "", nil, errors.Errorf("bad param %q, want name=values", s)
	}

	if parts := strings.Split(values, ":"); len(parts) == 3 {
		lo, err1 := strconv.ParseFloat(parts[0], 64)
		hi, err2 := strconv.ParseFloat(parts[1], 64)
		n, err3 := strconv.Atoi(parts[2])
		if err1 != nil || err2 != nil || err3 != nil || n < 1 {
			return "", nil, errors.Errorf("bad range %q", values)
		}
		if n == 1 {
			return name, []float64{lo}, nil
		}
		vals := make([]float64, n)
		for i := range vals {
			vals[i] = lo + (hi-lo)*float64(i)/float64(n-1)
		}
		return name, vals, nil
	}

	var vals []float64
	for _, f := range strings.Split(values, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return "", nil, errors.Wrapf(err, "param %s", name)
		}
		vals = append(vals, v)
	}
	return name, vals, nil
}

func tune(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	if len(gridParams) == 0 {
		return errors.Errorf("no --param given (tunable: %v)", config.ParamNames())
	}

	var names []string
	var ranges [][]float64
	for _, p := range gridParams {
		name, vals, err := parseRange(p)
		if err != nil {
			return err
		}
		names = append(names, name)
		ranges = append(ranges, vals)
	}

	best, score, trials, err := optim.NewGridSearch(names, ranges).Search(cmd.Context(), cfg, args[0], optim.MetricObjective(metric))
	fmt.Printf("%d trials\n", len(trials))
	if err != nil {
		return err
	}

	fmt.Printf("best %s: %.4f\n", metric, score)
	for _, name := range names {
		fmt.Printf("  %s = %g\n", name, best[name])
	}
	return nil
}

func sweep(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	rt, err := routine.Get(args[0])
	if err != nil {
		return err
	}

	results, err := automation.RunSweep(cmd.Context(), &automation.ParameterSweep{
		Routine:   rt,
		ParamName: sweepParam,
		ParamMin:  sweepMin,
		ParamMax:  sweepMax,
		NumSteps:  sweepSteps,
	}, cfg)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tSETTLED\tTIME\tTRACKING\tSPREAD\n", strings.ToUpper(sweepParam))
	for _, r := range results {
		fmt.Fprintf(w, "%g\t%v\t%.2fs\t%.1fmm\t%.1fmm\n", r.ParamValue, r.Settled, r.SimTime, r.TrackingError, r.FinalError)
	}
	return w.Flush()
}

func monteCarlo(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	rt, err := routine.Get(args[0])
	if err != nil {
		return err
	}

	results, err := automation.RunMonteCarlo(cmd.Context(), &automation.MonteCarloConfig{
		Routine:      rt,
		Perturbation: perturb,
		HeadingError: headingError,
		NumTrials:    trials,
		Seed:         cfg.Simulator.Seed,
	}, cfg)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TRIAL\tSTART\tFINAL\tSETTLED")
	for _, r := range results {
		fmt.Fprintf(w, "%d\t%s\t%s\t%v\n", r.TrialID, r.Start, r.Final, r.Settled)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	settled, unsettled := automation.MonteCarloStats(results)
	fmt.Printf("\nsettled %d, unsettled %d\n", settled, unsettled)
	return nil
}

func runScenario(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	s, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("running scenario %s (%d steps)...\n", s.Name, len(s.Steps))
	res, err := automation.RunScenario(cmd.Context(), s, cfg)
	if err != nil {
		return err
	}
	return saveResult(res, res.Metadata(cfg, preset))
}
