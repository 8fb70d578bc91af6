// Package hw declares the device surface the motion core drives: motors, motor groups,
// rotation sensors and the absolute heading sensor.
//
// Units at this boundary are revolutions, rpm, degrees and volts. Implementations are shared
// handles and must be safe for concurrent use.
package hw

import (
	"context"
	"errors"
)

var (
	// ErrDisconnected is returned by a device that is not currently reachable.
	ErrDisconnected = errors.New("hw: device disconnected")

	// ErrStale indicates the device answered but its reading has not refreshed.
	ErrStale = errors.New("hw: stale reading")

	// ErrEmptyGroup is returned when a motor group is built with no motors.
	ErrEmptyGroup = errors.New("hw: motor group needs at least one motor")
)

// RotationSensor reports accumulated rotation in revolutions.
type RotationSensor interface {
	Position() (float64, error)
}

// Motor is a single voltage-driven motor with an integrated encoder.
type Motor interface {
	RotationSensor
	SetVoltage(volts float64) error
	Velocity() (float64, error)
	Temperature() (float64, error)
}

// HeadingSensor is an absolute heading source, e.g. an IMU. Headings are degrees,
// clockwise positive.
type HeadingSensor interface {
	Heading() (float64, error)
	SetHeading(deg float64) error
	IsCalibrating() (bool, error)
	Calibrate(ctx context.Context) error
}
