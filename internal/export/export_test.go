package export

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/san-kum/doxa/internal/storage"
)

func line(n int) []storage.Sample {
	samples := make([]storage.Sample, n)
	for i := range samples {
		y := float64(i) * 100
		samples[i] = storage.Sample{Time: float64(i) * 0.01, Y: y, TrueX: 5, TrueY: y}
	}
	return samples
}

func TestTrajectoryToSVG(t *testing.T) {
	opts := SVGOptions{Size: 400, HalfWidth: 1000, Tile: 500, Truth: true}
	svg := TrajectoryToSVG(line(5), opts)

	if !strings.HasPrefix(svg, "<?xml") || !strings.HasSuffix(svg, "</svg>\n") {
		t.Fatal("expected a complete svg document")
	}
	if got := strings.Count(svg, "<path"); got != 2 {
		t.Errorf("expected estimate and truth paths, got %d", got)
	}
	// three seams each way
	if got := strings.Count(svg, "<line"); got != 6 {
		t.Errorf("expected 6 grid lines, got %d", got)
	}
	// origin is the centre, +y is up
	if !strings.Contains(svg, "M200.0,200.0") {
		t.Error("expected the path to start at the centre")
	}
	if !strings.Contains(svg, "L200.0,120.0") {
		t.Error("expected the last point above the centre")
	}
}

func TestTrajectoryToSVGWithoutTruth(t *testing.T) {
	opts := DefaultSVGOptions()
	opts.Truth = false
	if got := strings.Count(TrajectoryToSVG(line(3), opts), "<path"); got != 1 {
		t.Errorf("expected only the estimate path, got %d", got)
	}
	if got := strings.Count(TrajectoryToSVG(nil, opts), "<path"); got != 0 {
		t.Errorf("expected no path for no samples, got %d", got)
	}
}

func TestSaveSVG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.svg")
	if err := SaveSVG(path, line(3), DefaultSVGOptions()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(string(data), "<svg") {
		t.Error("expected svg content")
	}
}

func TestTrajectoryPlot(t *testing.T) {
	p, err := TrajectoryPlot("forward", line(4), 1828, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Title.Text != "forward" {
		t.Errorf("expected title forward, got %q", p.Title.Text)
	}
	if p.X.Min != -1828 || p.Y.Max != 1828 {
		t.Errorf("expected field axes, got x [%v, %v] y [%v, %v]", p.X.Min, p.X.Max, p.Y.Min, p.Y.Max)
	}
}

func TestSavePNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.png")
	if err := SavePNG(path, "forward", line(4), 1828); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.Size() == 0 {
		t.Error("expected a non-empty image")
	}
}
