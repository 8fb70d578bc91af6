package sim

import (
	"context"
	"math"

	"github.com/san-kum/doxa/internal/pose"
)

// Motor is one motor on a side of the simulated drivetrain. Every motor on a side shares the
// side's state, so a group of them behaves like a geared-together gearbox.
type Motor struct {
	w    *World
	side int
	name string
}

// LeftMotors returns n motor handles for the left side.
func (w *World) LeftMotors(n int) []*Motor { return w.motors(sideLeft, "left", n) }

// RightMotors returns n motor handles for the right side.
func (w *World) RightMotors(n int) []*Motor { return w.motors(sideRight, "right", n) }

func (w *World) motors(side int, name string, n int) []*Motor {
	ms := make([]*Motor, n)
	for i := range ms {
		ms[i] = &Motor{w: w, side: side, name: name}
	}
	return ms
}

func (m *Motor) SetVoltage(volts float64) error {
	m.w.mu.Lock()
	defer m.w.mu.Unlock()
	if err := m.w.fault(m.name); err != nil {
		m.w.u[m.side] = 0
		return err
	}
	m.w.u[m.side] = math.Max(-12, math.Min(12, volts))
	return nil
}

// Position is wheel revolutions.
func (m *Motor) Position() (float64, error) {
	m.w.mu.Lock()
	defer m.w.mu.Unlock()
	if err := m.w.fault(m.name); err != nil {
		return 0, err
	}
	return m.w.x[IdxDistLeft+m.side] / m.w.params.WheelCircumference, nil
}

// Velocity is wheel rpm.
func (m *Motor) Velocity() (float64, error) {
	m.w.mu.Lock()
	defer m.w.mu.Unlock()
	if err := m.w.fault(m.name); err != nil {
		return 0, err
	}
	return m.w.x[IdxVelLeft+m.side] / m.w.params.WheelCircumference * 60, nil
}

func (m *Motor) Temperature() (float64, error) {
	m.w.mu.Lock()
	defer m.w.mu.Unlock()
	if err := m.w.fault(m.name); err != nil {
		return 0, err
	}
	return m.w.temps[m.side], nil
}

// IMU is the simulated heading sensor. Its reading drifts linearly with time since the last
// calibration and carries Gaussian noise.
type IMU struct {
	w *World
}

func (w *World) IMU() *IMU { return &IMU{w: w} }

// rawDegrees is called with mu held.
func (i *IMU) rawDegrees() float64 {
	w := i.w
	drift := w.params.HeadingDrift * (w.t - w.driftOrigin).Seconds()
	return pose.Deg(w.x[IdxHeading]) + w.headingBias + drift
}

func (i *IMU) Heading() (float64, error) {
	w := i.w
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.fault("imu"); err != nil {
		return 0, err
	}
	deg := i.rawDegrees()
	if w.params.HeadingNoise > 0 {
		deg += w.rng.NormFloat64() * w.params.HeadingNoise
	}
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg, nil
}

func (i *IMU) SetHeading(deg float64) error {
	w := i.w
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.fault("imu"); err != nil {
		return err
	}
	w.headingBias += deg - i.rawDegrees()
	return nil
}

func (i *IMU) IsCalibrating() (bool, error) {
	w := i.w
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.fault("imu"); err != nil {
		return false, err
	}
	return w.t < w.calibUntil, nil
}

// Calibrate zeroes the accumulated drift. The sensor reports calibrating for
// CalibrationTime of simulated time; the call itself does not block, since simulated time
// only moves when the world is advanced.
func (i *IMU) Calibrate(ctx context.Context) error {
	w := i.w
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.fault("imu"); err != nil {
		return err
	}
	w.driftOrigin = w.t
	w.calibUntil = w.t + w.params.CalibrationTime
	return ctx.Err()
}

// Encoder is an unpowered tracking pod. Parallel pods sit at a lateral offset (right
// positive), perpendicular pods at a fore/aft offset (forward positive).
type Encoder struct {
	w             *World
	name          string
	parallel      bool
	offset        float64
	circumference float64
}

func (w *World) Encoder(name string, parallel bool, offset, circumference float64) *Encoder {
	return &Encoder{w: w, name: name, parallel: parallel, offset: offset, circumference: circumference}
}

// Position is pod revolutions.
func (e *Encoder) Position() (float64, error) {
	w := e.w
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.fault(e.name); err != nil {
		return 0, err
	}
	theta := w.x[IdxHeading]
	if e.parallel {
		centre := (w.x[IdxDistLeft] + w.x[IdxDistRight]) / 2
		return (centre - e.offset*theta) / e.circumference, nil
	}
	return e.offset * theta / e.circumference, nil
}

// Temperature of a side, for diagnostics.
func (w *World) Temperature(side string) float64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	if side == "right" {
		return w.temps[sideRight]
	}
	return w.temps[sideLeft]
}

