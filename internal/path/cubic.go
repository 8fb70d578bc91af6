// Package path builds the smooth reference curves followed by pure pursuit.
package path

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/doxa/internal/pose"
)

// SampleSpacing is the target distance between stored samples, in mm.
const SampleSpacing = 10.0

const minSamples = 16

// CubicParametric is a cubic Bézier from a start pose to an end pose. The inner control
// points sit along each pose's heading, pushed out by the easing distances: a longer easing
// keeps the curve tangent to that heading for longer.
//
// The curve is sampled once on construction and never changes.
type CubicParametric struct {
	start, end pose.Pose
	ctrl       [4]r2.Vec
	points     []r2.Vec
	arc        []float64
}

func NewCubicParametric(start pose.Pose, startEasing float64, end pose.Pose, endEasing float64) *CubicParametric {
	c := &CubicParametric{
		start: start,
		end:   end,
		ctrl: [4]r2.Vec{
			start.Offset,
			r2.Add(start.Offset, r2.Scale(startEasing, start.Forward())),
			r2.Sub(end.Offset, r2.Scale(endEasing, end.Forward())),
			end.Offset,
		},
	}

	hull := 0.0
	for i := 1; i < 4; i++ {
		hull += r2.Norm(r2.Sub(c.ctrl[i], c.ctrl[i-1]))
	}
	n := int(math.Ceil(hull / SampleSpacing))
	if n < minSamples {
		n = minSamples
	}

	c.points = make([]r2.Vec, n+1)
	steps := make([]float64, n+1)
	for i := 0; i <= n; i++ {
		c.points[i] = c.At(float64(i) / float64(n))
		if i > 0 {
			steps[i] = r2.Norm(r2.Sub(c.points[i], c.points[i-1]))
		}
	}
	c.arc = floats.CumSum(make([]float64, n+1), steps)
	return c
}

// At evaluates the curve at parameter t in [0, 1].
func (c *CubicParametric) At(t float64) r2.Vec {
	u := 1 - t
	b0 := u * u * u
	b1 := 3 * u * u * t
	b2 := 3 * u * t * t
	b3 := t * t * t
	return r2.Vec{
		X: b0*c.ctrl[0].X + b1*c.ctrl[1].X + b2*c.ctrl[2].X + b3*c.ctrl[3].X,
		Y: b0*c.ctrl[0].Y + b1*c.ctrl[1].Y + b2*c.ctrl[2].Y + b3*c.ctrl[3].Y,
	}
}

func (c *CubicParametric) Start() pose.Pose { return c.start }
func (c *CubicParametric) End() pose.Pose   { return c.end }

// Points returns the samples. Callers must not modify the slice.
func (c *CubicParametric) Points() []r2.Vec { return c.points }

// Len is the number of samples.
func (c *CubicParametric) Len() int { return len(c.points) }

// Point returns sample i.
func (c *CubicParametric) Point(i int) r2.Vec { return c.points[i] }

// Length is the sampled arc length in mm.
func (c *CubicParametric) Length() float64 { return c.arc[len(c.arc)-1] }

// Remaining is the arc length from sample i to the end.
func (c *CubicParametric) Remaining(i int) float64 {
	return c.Length() - c.arc[i]
}

// Nearest returns the index of the sample closest to p, searching from index `from` onward
// so progress along the path never moves backwards.
func (c *CubicParametric) Nearest(p r2.Vec, from int) int {
	if from < 0 {
		from = 0
	}
	best, bestDist := from, math.Inf(1)
	for i := from; i < len(c.points); i++ {
		d := r2.Norm(r2.Sub(c.points[i], p))
		if d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

// Lookahead walks forward from sample `from` and returns the first sample at least radius
// away from p, with its index. When the whole remainder lies inside the circle it returns
// the last sample.
func (c *CubicParametric) Lookahead(p r2.Vec, from int, radius float64) (r2.Vec, int) {
	for i := from; i < len(c.points); i++ {
		if r2.Norm(r2.Sub(c.points[i], p)) >= radius {
			return c.points[i], i
		}
	}
	last := len(c.points) - 1
	return c.points[last], last
}

// EndWithin reports whether the final sample is inside the circle of the given radius
// around p.
func (c *CubicParametric) EndWithin(p r2.Vec, radius float64) bool {
	return r2.Norm(r2.Sub(c.end.Offset, p)) < radius
}
