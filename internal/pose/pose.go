// Package pose defines the field pose type shared by tracking, actions and paths.
//
// Coordinates are millimetres. Heading is in radians, zero facing +y and growing
// clockwise, so the robot's forward unit vector is (sin h, cos h). Headings are never
// normalised on storage; every angular difference goes through [AngleDiff].
package pose

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Pose is a 2D offset plus heading.
type Pose struct {
	Offset  r2.Vec
	Heading float64
}

// New builds a pose from millimetres and radians.
func New(x, y, heading float64) Pose {
	return Pose{Offset: r2.Vec{X: x, Y: y}, Heading: heading}
}

// Point builds a pose with zero heading, for targets where heading is unused.
func Point(x, y float64) Pose {
	return New(x, y, 0)
}

// Degrees builds a pose with the heading given in degrees.
func Degrees(x, y, headingDeg float64) Pose {
	return New(x, y, headingDeg*math.Pi/180)
}

func (p Pose) X() float64 { return p.Offset.X }
func (p Pose) Y() float64 { return p.Offset.Y }

// Scale multiplies the offset by k. Heading is unchanged; used for unit conversion.
func (p Pose) Scale(k float64) Pose {
	return Pose{Offset: r2.Scale(k, p.Offset), Heading: p.Heading}
}

// Reversed mirrors the pose across the field's y axis for the opposite alliance side.
// Applying it twice returns the original pose.
func (p Pose) Reversed() Pose {
	return Pose{Offset: r2.Vec{X: -p.Offset.X, Y: p.Offset.Y}, Heading: -p.Heading}
}

// Forward is the unit vector the pose faces.
func (p Pose) Forward() r2.Vec {
	return Direction(p.Heading)
}

// Compose applies a robot-relative offset (x right, y forward) and heading change, e.g.
// a sensor mounting offset or a relative move.
func (p Pose) Compose(rel Pose) Pose {
	return Pose{
		Offset:  r2.Add(p.Offset, Rotate(rel.Offset, p.Heading)),
		Heading: p.Heading + rel.Heading,
	}
}

// Distance between the two offsets.
func (p Pose) Distance(q Pose) float64 {
	return r2.Norm(r2.Sub(q.Offset, p.Offset))
}

// BearingTo is the heading that faces q from p.
func (p Pose) BearingTo(q Pose) float64 {
	d := r2.Sub(q.Offset, p.Offset)
	return math.Atan2(d.X, d.Y)
}

// Local expresses q's offset in p's frame: X to the right, Y forward.
func (p Pose) Local(q Pose) r2.Vec {
	return Rotate(r2.Sub(q.Offset, p.Offset), -p.Heading)
}

// HeadingDegrees returns the heading in degrees.
func (p Pose) HeadingDegrees() float64 {
	return p.Heading * 180 / math.Pi
}

// IsValid reports whether every component is finite.
func (p Pose) IsValid() bool {
	for _, v := range []float64{p.Offset.X, p.Offset.Y, p.Heading} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (p Pose) String() string {
	return fmt.Sprintf("(%.1f, %.1f, %.1f°)", p.Offset.X, p.Offset.Y, p.HeadingDegrees())
}
