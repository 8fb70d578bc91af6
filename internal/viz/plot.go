package viz

import (
	"fmt"
	"strings"

	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/doxa/internal/storage"
)

// PlotRun renders a stored run as text charts: position, heading and side voltages.
func PlotRun(meta *storage.RunMetadata, samples []storage.Sample, width int) string {
	if len(samples) < 2 {
		return "not enough samples to plot\n"
	}
	if width <= 0 {
		width = 70
	}

	n := len(samples)
	x := make([]float64, n)
	y := make([]float64, n)
	heading := make([]float64, n)
	left := make([]float64, n)
	right := make([]float64, n)
	for i, s := range samples {
		x[i], y[i] = s.X, s.Y
		heading[i] = s.Heading
		left[i], right[i] = s.Left, s.Right
	}

	var b strings.Builder
	if meta != nil {
		fmt.Fprintf(&b, "%s  %s  side=%s  %.2fs\n\n", meta.ID, meta.Routine, meta.Side, meta.Duration)
	}

	b.WriteString(asciigraph.PlotMany([][]float64{x, y},
		asciigraph.Height(10),
		asciigraph.Width(width),
		asciigraph.SeriesColors(asciigraph.Red, asciigraph.Green),
		asciigraph.SeriesLegends("x", "y"),
		asciigraph.Caption("position (mm)")))
	b.WriteString("\n\n")

	b.WriteString(asciigraph.Plot(heading,
		asciigraph.Height(8),
		asciigraph.Width(width),
		asciigraph.Caption("heading (deg)")))
	b.WriteString("\n\n")

	b.WriteString(asciigraph.PlotMany([][]float64{left, right},
		asciigraph.Height(8),
		asciigraph.Width(width),
		asciigraph.SeriesColors(asciigraph.Blue, asciigraph.Yellow),
		asciigraph.SeriesLegends("left", "right"),
		asciigraph.Caption("voltage (V)")))
	b.WriteString("\n")
	return b.String()
}
