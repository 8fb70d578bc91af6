// Package export renders stored runs as field images.
package export

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"

	"github.com/san-kum/doxa/internal/storage"
)

// DefaultTile is the width of one field tile in mm.
const DefaultTile = 600.0

// SVGOptions control the SVG rendering.
type SVGOptions struct {
	Size      int     // pixels, square
	HalfWidth float64 // field half width, mm
	Tile      float64
	Truth     bool // also draw the true path
}

func DefaultSVGOptions() SVGOptions {
	return SVGOptions{Size: 600, HalfWidth: 1828, Tile: DefaultTile, Truth: true}
}

// TrajectoryToSVG draws the field grid and the estimated path of samples, plus the true path
// if asked. Field +y is up.
func TrajectoryToSVG(samples []storage.Sample, opts SVGOptions) string {
	if opts.Size <= 0 || opts.HalfWidth <= 0 {
		opts = DefaultSVGOptions()
	}
	size := float64(opts.Size)
	px := func(x, y float64) (float64, float64) {
		return (x + opts.HalfWidth) / (2 * opts.HalfWidth) * size,
			(opts.HalfWidth - y) / (2 * opts.HalfWidth) * size
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#1b1b1b"/>
`, opts.Size, opts.Size, opts.Size, opts.Size)

	if opts.Tile > 0 {
		sb.WriteString(`<g stroke="#3a3a3a" stroke-width="1">` + "\n")
		for v := -opts.HalfWidth + opts.Tile; v < opts.HalfWidth; v += opts.Tile {
			x, _ := px(v, 0)
			_, y := px(0, v)
			fmt.Fprintf(&sb, `<line x1="%.1f" y1="0" x2="%.1f" y2="%.0f"/>`+"\n", x, x, size)
			fmt.Fprintf(&sb, `<line x1="0" y1="%.1f" x2="%.0f" y2="%.1f"/>`+"\n", y, size, y)
		}
		sb.WriteString("</g>\n")
	}

	path := func(color string, xy func(storage.Sample) (float64, float64)) {
		if len(samples) < 2 {
			return
		}
		fmt.Fprintf(&sb, `<path fill="none" stroke="%s" stroke-width="2" d="`, color)
		for i, s := range samples {
			x, y := px(xy(s))
			if i == 0 {
				fmt.Fprintf(&sb, "M%.1f,%.1f", x, y)
			} else {
				fmt.Fprintf(&sb, " L%.1f,%.1f", x, y)
			}
		}
		sb.WriteString(`"/>` + "\n")
	}
	if opts.Truth {
		path("#5fd068", func(s storage.Sample) (float64, float64) { return s.TrueX, s.TrueY })
	}
	path("#ffc048", func(s storage.Sample) (float64, float64) { return s.X, s.Y })

	if n := len(samples); n > 0 {
		x, y := px(samples[0].X, samples[0].Y)
		fmt.Fprintf(&sb, `<circle cx="%.1f" cy="%.1f" r="5" fill="#5f87ff"/>`+"\n", x, y)
		x, y = px(samples[n-1].X, samples[n-1].Y)
		fmt.Fprintf(&sb, `<circle cx="%.1f" cy="%.1f" r="5" fill="#ff4757"/>`+"\n", x, y)
	}

	sb.WriteString("</svg>\n")
	return sb.String()
}

// WriteSVG writes TrajectoryToSVG to w.
func WriteSVG(w io.Writer, samples []storage.Sample, opts SVGOptions) error {
	_, err := io.WriteString(w, TrajectoryToSVG(samples, opts))
	return errors.Wrap(err, "write svg")
}

// SaveSVG writes TrajectoryToSVG to path.
func SaveSVG(path string, samples []storage.Sample, opts SVGOptions) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create svg")
	}
	defer f.Close()
	return WriteSVG(f, samples, opts)
}
