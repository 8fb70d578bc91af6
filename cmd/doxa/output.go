package main

import (
	"context"
	"fmt"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/doxa/internal/analysis"
	"github.com/san-kum/doxa/internal/config"
	"github.com/san-kum/doxa/internal/export"
	"github.com/san-kum/doxa/internal/storage"
	"github.com/san-kum/doxa/internal/viz"
)

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

func runLiveView(ctx context.Context, cfg *config.Config, name string) error {
	return viz.RunLive(ctx, cfg, name, speed)
}

func plotRun(cmd *cobra.Command, args []string) error {
	meta, samples, err := loadRun(args[0])
	if err != nil {
		return err
	}
	fmt.Print(viz.PlotRun(meta, samples, width))
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	meta, samples, err := loadRun(args[0])
	if err != nil {
		return err
	}
	rep, err := analysis.Analyze(samples, signalName, secondsToDuration(meta.Period))
	if err != nil {
		return fmt.Errorf("%w (available: %v)", err, analysis.SignalNames())
	}

	fmt.Printf("frequency analysis: %s\n", meta.ID)
	fmt.Printf("signal: %s\n\n", rep.Signal)

	// the interesting part of a drivetrain spectrum is well below Nyquist
	plotData := rep.Spectrum[1:]
	if len(plotData) > 8 {
		plotData = plotData[:len(plotData)/4]
	}
	fmt.Println(asciigraph.Plot(plotData,
		asciigraph.Height(12),
		asciigraph.Width(80),
		asciigraph.Caption(fmt.Sprintf("power spectrum (%s)", rep.Signal)),
	))
	fmt.Println()

	if rep.Freq == 0 {
		fmt.Println("no oscillation")
		return nil
	}
	fmt.Printf("dominant frequency: %.3f hz\n", rep.Freq)
	fmt.Printf("period: %.3f s\n", rep.Period)
	return nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	_, samples, err := loadRun(args[0])
	if err != nil {
		return err
	}
	path := outPath(args[0], ".csv")
	if err := storage.WriteCSV(path, samples); err != nil {
		return err
	}
	fmt.Printf("exported %d samples to %s\n", len(samples), path)
	return nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	meta, samples, err := loadRun(args[0])
	if err != nil {
		return err
	}
	path := outPath(args[0], ".json")
	if err := storage.ExportJSON(path, *meta, samples); err != nil {
		return err
	}
	fmt.Printf("exported to %s\n", path)
	return nil
}

func exportSVG(cmd *cobra.Command, args []string) error {
	_, samples, err := loadRun(args[0])
	if err != nil {
		return err
	}
	opts := export.DefaultSVGOptions()
	opts.HalfWidth = config.DefaultConfig().Simulator.FieldHalfWidth
	path := outPath(args[0], ".svg")
	if err := export.SaveSVG(path, samples, opts); err != nil {
		return err
	}
	fmt.Printf("exported to %s\n", path)
	return nil
}

func exportPNG(cmd *cobra.Command, args []string) error {
	meta, samples, err := loadRun(args[0])
	if err != nil {
		return err
	}
	path := outPath(args[0], ".png")
	half := config.DefaultConfig().Simulator.FieldHalfWidth
	if err := export.SavePNG(path, fmt.Sprintf("%s (%s)", meta.Routine, meta.Side), samples, half); err != nil {
		return err
	}
	fmt.Printf("exported to %s\n", path)
	return nil
}
