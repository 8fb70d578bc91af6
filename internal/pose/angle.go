package pose

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// AngleDiff returns the shortest signed rotation from `from` to `to`, in (-π, π].
func AngleDiff(to, from float64) float64 {
	return Wrap(to - from)
}

// Wrap maps an angle into (-π, π].
func Wrap(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a <= -math.Pi {
		a += 2 * math.Pi
	} else if a > math.Pi {
		a -= 2 * math.Pi
	}
	return a
}

// WrapDegrees maps an angle into (-180, 180].
func WrapDegrees(a float64) float64 {
	return Wrap(a*math.Pi/180) * 180 / math.Pi
}

// Radians converts degrees.
func Radians(deg float64) float64 { return deg * math.Pi / 180 }

// Deg converts radians.
func Deg(rad float64) float64 { return rad * 180 / math.Pi }

// Direction is the unit vector for a heading.
func Direction(heading float64) r2.Vec {
	return r2.Vec{X: math.Sin(heading), Y: math.Cos(heading)}
}

// Rotate turns a robot-frame vector (x right, y forward) into the field frame of a robot
// at the given heading.
func Rotate(v r2.Vec, heading float64) r2.Vec {
	sin, cos := math.Sincos(heading)
	return r2.Vec{
		X: v.X*cos + v.Y*sin,
		Y: -v.X*sin + v.Y*cos,
	}
}
