package sim

import "math"

// State layout of the differential drive.
const (
	IdxX = iota
	IdxY
	IdxHeading
	IdxVelLeft
	IdxVelRight
	IdxDistLeft
	IdxDistRight
	driveDim
)

// DiffDrive is a tank drivetrain whose wheel speeds follow the commanded voltage with a
// first-order lag. Heading is radians clockwise from +y; distances are mm.
//
// Control is [left volts, right volts].
type DiffDrive struct {
	TrackWidth   float64
	FreeSpeed    float64 // mm/s at 12V
	TimeConstant float64 // seconds
}

func (d *DiffDrive) StateDim() int   { return driveDim }
func (d *DiffDrive) ControlDim() int { return 2 }

func (d *DiffDrive) Derive(x State, u Control, t float64) State {
	dx := make(State, driveDim)
	vl, vr := x[IdxVelLeft], x[IdxVelRight]
	v := (vl + vr) / 2
	h := x[IdxHeading]

	dx[IdxX] = v * math.Sin(h)
	dx[IdxY] = v * math.Cos(h)
	dx[IdxHeading] = (vl - vr) / d.TrackWidth
	dx[IdxVelLeft] = (d.FreeSpeed*u[0]/12 - vl) / d.TimeConstant
	dx[IdxVelRight] = (d.FreeSpeed*u[1]/12 - vr) / d.TimeConstant
	dx[IdxDistLeft] = vl
	dx[IdxDistRight] = vr
	return dx
}
