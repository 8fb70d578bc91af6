package export

import (
	"image/color"

	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/san-kum/doxa/internal/storage"
)

var (
	estimateColor = color.RGBA{R: 255, G: 160, B: 0, A: 255}
	truthColor    = color.RGBA{R: 40, G: 160, B: 60, A: 255}
)

// TrajectoryPlot builds a field plot of samples: the estimated path, and the true path when
// truth is set. Axes are fixed to the field.
func TrajectoryPlot(title string, samples []storage.Sample, halfWidth float64, truth bool) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "x (mm)"
	p.Y.Label.Text = "y (mm)"
	p.X.Min, p.X.Max = -halfWidth, halfWidth
	p.Y.Min, p.Y.Max = -halfWidth, halfWidth
	p.Add(plotter.NewGrid())

	est := make(plotter.XYs, 0, len(samples))
	tru := make(plotter.XYs, 0, len(samples))
	for _, s := range samples {
		est = append(est, plotter.XY{X: s.X, Y: s.Y})
		tru = append(tru, plotter.XY{X: s.TrueX, Y: s.TrueY})
	}
	if len(est) == 0 {
		return p, nil
	}

	if truth {
		line, err := plotter.NewLine(tru)
		if err != nil {
			return nil, errors.Wrap(err, "truth line")
		}
		line.Color = truthColor
		line.Width = vg.Points(1)
		line.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
		p.Add(line)
		p.Legend.Add("truth", line)
	}

	line, err := plotter.NewLine(est)
	if err != nil {
		return nil, errors.Wrap(err, "estimate line")
	}
	line.Color = estimateColor
	line.Width = vg.Points(1.5)
	p.Add(line)
	p.Legend.Add("estimate", line)
	p.Legend.Top = true
	return p, nil
}

// SavePNG renders TrajectoryPlot to a square image at path. The format follows the extension.
func SavePNG(path, title string, samples []storage.Sample, halfWidth float64) error {
	p, err := TrajectoryPlot(title, samples, halfWidth, true)
	if err != nil {
		return err
	}
	return errors.Wrap(p.Save(6*vg.Inch, 6*vg.Inch, path), "save plot")
}
