package hw

import (
	"go.uber.org/multierr"
)

// MotorGroup fans commands out to every motor on one side of the drivetrain.
// Position and velocity are the mean over every motor and fail if any motor fails, since a
// mean over a subset would jump. Temperature is the mean over the motors that answered.
type MotorGroup struct {
	motors []Motor
}

func NewMotorGroup(motors ...Motor) (*MotorGroup, error) {
	if len(motors) == 0 {
		return nil, ErrEmptyGroup
	}
	return &MotorGroup{motors: append([]Motor(nil), motors...)}, nil
}

// MustMotorGroup is NewMotorGroup for static wiring; it panics on an empty list.
func MustMotorGroup(motors ...Motor) *MotorGroup {
	g, err := NewMotorGroup(motors...)
	if err != nil {
		panic(err)
	}
	return g
}

func (g *MotorGroup) Len() int { return len(g.motors) }

// SetVoltage writes every motor even if some fail; the failures are combined.
func (g *MotorGroup) SetVoltage(volts float64) error {
	var err error
	for _, m := range g.motors {
		err = multierr.Append(err, m.SetVoltage(volts))
	}
	return err
}

func (g *MotorGroup) Position() (float64, error) {
	return g.mean(Motor.Position, false)
}

func (g *MotorGroup) Velocity() (float64, error) {
	return g.mean(Motor.Velocity, false)
}

func (g *MotorGroup) Temperature() (float64, error) {
	return g.mean(Motor.Temperature, true)
}

// mean averages the readings. With partial it skips failed motors and only fails when none
// answered; otherwise any failure fails the read. Errors are combined.
func (g *MotorGroup) mean(read func(Motor) (float64, error), partial bool) (float64, error) {
	var (
		sum  float64
		n    int
		errs error
	)
	for _, m := range g.motors {
		v, err := read(m)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		sum += v
		n++
	}
	if n == 0 || (errs != nil && !partial) {
		return 0, errs
	}
	return sum / float64(n), nil
}

// Reverse flips the sign of a motor that is mounted backwards.
func Reverse(m Motor) Motor {
	return reversed{m}
}

type reversed struct {
	Motor
}

func (r reversed) SetVoltage(volts float64) error { return r.Motor.SetVoltage(-volts) }

func (r reversed) Position() (float64, error) {
	p, err := r.Motor.Position()
	return -p, err
}

func (r reversed) Velocity() (float64, error) {
	v, err := r.Motor.Velocity()
	return -v, err
}
