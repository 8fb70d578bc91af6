package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/doxa/internal/actions"
	"github.com/san-kum/doxa/internal/config"
	"github.com/san-kum/doxa/internal/experiment"
	"github.com/san-kum/doxa/internal/log"
	"github.com/san-kum/doxa/internal/routine"
	"github.com/san-kum/doxa/internal/storage"
)

var (
	dataDir    string
	logLevel   string
	configFile string
	preset     string
	side       string
	seed       int64
	integrator string
	maxVoltage float64
	duration   float64

	ensemble   int
	speed      float64
	width      int
	signalName string
	out        string
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "doxa",
		Short:         "drivetrain motion control lab",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			log.Init(logLevel)
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".doxa", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	runCmd := &cobra.Command{
		Use:   "run [routine]",
		Short: "run a routine in the simulator and save it",
		Args:  cobra.ExactArgs(1),
		RunE:  runRoutine,
	}
	configFlags(runCmd)
	runCmd.Flags().IntVar(&ensemble, "ensemble", 0, "run this many seeds and summarise instead of saving")

	liveCmd := &cobra.Command{
		Use:   "live [routine]",
		Short: "run a routine with the live field view",
		Args:  cobra.ExactArgs(1),
		RunE:  runLive,
	}
	configFlags(liveCmd)
	liveCmd.Flags().Float64Var(&speed, "speed", 1, "playback speed")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list saved runs",
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "show how each action of a run ended",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot position, heading and voltages of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().IntVar(&width, "width", 70, "chart width")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "find oscillation in a run",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().StringVar(&signalName, "signal", "turn", "signal to analyse (drift, drive, heading, turn)")

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run samples to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}
	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export a run to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "draw a run's paths on the field as SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportPNGCmd := &cobra.Command{
		Use:   "export-png [run_id]",
		Short: "plot a run's paths on the field as PNG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportPNG,
	}
	for _, c := range []*cobra.Command{exportCSVCmd, exportJSONCmd, exportSVGCmd, exportPNGCmd} {
		c.Flags().StringVarP(&out, "out", "o", "", "output file (default <run_id>.<ext>)")
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list configuration presets",
		Run: func(cmd *cobra.Command, args []string) {
			for _, p := range config.ListPresets() {
				fmt.Println(p)
			}
		},
	}

	routinesCmd := &cobra.Command{
		Use:   "routines",
		Short: "list built-in routines",
		Run: func(cmd *cobra.Command, args []string) {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			for _, name := range routine.List() {
				rt, _ := routine.Get(name)
				fmt.Fprintf(w, "%s\t%s\n", rt.Name, rt.Description)
			}
			w.Flush()
		},
	}

	paramsCmd := &cobra.Command{
		Use:   "params",
		Short: "show tunable parameters of the resolved configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			params := cfg.GetParams()
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			for _, name := range config.ParamNames() {
				fmt.Fprintf(w, "%s\t%g\n", name, params[name])
			}
			return w.Flush()
		},
	}
	configFlags(paramsCmd)

	configCmd := &cobra.Command{
		Use:   "config [path]",
		Short: "write the resolved configuration as YAML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			if err := config.Save(args[0], cfg); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", args[0])
			return nil
		},
	}
	configFlags(configCmd)

	rootCmd.AddCommand(runCmd, liveCmd, listCmd, showCmd, plotCmd, analyzeCmd,
		exportCSVCmd, exportJSONCmd, exportSVGCmd, exportPNGCmd,
		presetsCmd, routinesCmd, paramsCmd, configCmd)
	rootCmd.AddCommand(tuneCommands()...)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	err := rootCmd.ExecuteContext(ctx)
	log.Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func configFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	cmd.Flags().StringVar(&side, "side", "", "alliance side (red, blue)")
	cmd.Flags().Int64Var(&seed, "seed", 1, "simulator seed")
	cmd.Flags().StringVar(&integrator, "integrator", "rk4", "integrator (euler, rk4)")
	cmd.Flags().Float64Var(&maxVoltage, "max-voltage", config.DefaultMaxVoltage, "drivetrain voltage limit")
	cmd.Flags().Float64Var(&duration, "time", config.DefaultDuration.Seconds(), "time budget in seconds")
}

// resolveConfig layers preset, then config file, then explicitly set flags.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("side") {
		cfg.Side = side
	}
	if flags.Changed("seed") {
		cfg.Simulator.Seed = seed
	}
	if flags.Changed("integrator") {
		cfg.Integrator = integrator
	}
	if flags.Changed("max-voltage") {
		cfg.Drivetrain.MaxVoltage = maxVoltage
	}
	if flags.Changed("time") {
		cfg.Duration = secondsToDuration(duration)
	}
	return cfg, cfg.Validate()
}

func runRoutine(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	name := args[0]
	if _, err := routine.Get(name); err != nil {
		return fmt.Errorf("%w (available: %v)", err, routine.List())
	}

	if ensemble > 0 {
		return runEnsemble(cmd.Context(), cfg, name)
	}

	fmt.Printf("running %s (%s)...\n", name, cfg.Side)
	res, err := experiment.RunOnce(cmd.Context(), cfg, name)
	if err != nil {
		return err
	}
	return saveResult(res, res.Metadata(cfg, preset))
}

func runEnsemble(ctx context.Context, cfg *config.Config, name string) error {
	fmt.Printf("running %s over %d seeds...\n", name, ensemble)
	results, err := experiment.NewEnsemble(cfg, name, ensemble, cfg.Simulator.Seed).Run(ctx)
	if err != nil {
		return err
	}

	settled := 0
	for _, r := range results {
		if r.Settled() {
			settled++
		}
	}
	fmt.Printf("settled: %d/%d\n\n", settled, len(results))

	sum := experiment.Summarize(results)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "METRIC\tMEAN\tSTD")
	for _, name := range sortedKeys(sum.Mean) {
		fmt.Fprintf(w, "%s\t%.4f\t%.4f\n", name, sum.Mean[name], sum.StdDev[name])
	}
	return w.Flush()
}

func saveResult(res *experiment.Result, meta storage.RunMetadata) error {
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	runID, err := st.Save(meta, res.Samples)
	if err != nil {
		return err
	}

	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("sim time: %.2fs\n", res.SimTime.Seconds())
	if res.OutOfTime {
		fmt.Println("out of time")
	}
	fmt.Printf("final: %s (estimate %s)\n\n", res.Truth, res.Estimate)
	printActions(meta.Actions)

	fmt.Println("\nmetrics:")
	for _, name := range sortedKeys(res.Metrics) {
		fmt.Printf("  %s: %.4f\n", name, res.Metrics[name])
	}
	return nil
}

func printActions(summaries []storage.ActionSummary) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tACTION\tRESULT\tMS\tX\tY\tHEADING")
	for i, a := range summaries {
		reason := a.Reason
		if a.Diverged {
			reason += " (diverged)"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%.0f\t%.0f\t%.1f\n", i+1, a.Name, reason, a.Ms, a.X, a.Y, a.Heading)
	}
	w.Flush()
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	return runLiveView(cmd.Context(), cfg, args[0])
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tROUTINE\tSIDE\tPRESET\tSETTLED\tTIME")
	for _, r := range runs {
		settled := 0
		for _, a := range r.Actions {
			if a.Reason == actions.Settled.String() {
				settled++
			}
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d/%d\t%.2fs\n",
			r.ID, r.Routine, r.Side, orDash(r.Preset), settled, len(r.Actions), r.Duration)
	}
	return w.Flush()
}

func showRun(cmd *cobra.Command, args []string) error {
	meta, err := storage.New(dataDir).Load(args[0])
	if err != nil {
		return err
	}
	fmt.Printf("%s: %s on %s, seed %d, %s\n\n", meta.ID, meta.Routine, meta.Side, meta.Seed, meta.Timestamp.Format("2006-01-02 15:04:05"))
	printActions(meta.Actions)
	fmt.Println("\nmetrics:")
	for _, name := range sortedKeys(meta.Metrics) {
		fmt.Printf("  %s: %.4f\n", name, meta.Metrics[name])
	}
	return nil
}

func loadRun(runID string) (*storage.RunMetadata, []storage.Sample, error) {
	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return nil, nil, err
	}
	samples, err := st.LoadSamples(runID)
	if err != nil {
		return nil, nil, err
	}
	return meta, samples, nil
}

func outPath(runID, ext string) string {
	if out != "" {
		return out
	}
	return filepath.Base(runID) + ext
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
