package experiment

import (
	"github.com/pkg/errors"

	"github.com/san-kum/doxa/internal/config"
	"github.com/san-kum/doxa/internal/hw"
	"github.com/san-kum/doxa/internal/sim"
	"github.com/san-kum/doxa/internal/tracking"
)

var ErrUnknownSource = errors.New("experiment: unknown wheel source")

// rig is the simulated hardware a config describes.
type rig struct {
	left, right *hw.MotorGroup
	imu         *sim.IMU
	wheels      []*tracking.Wheel
}

type sourceFunc func(w *sim.World, r *rig, wc config.WheelConfig) hw.RotationSensor

var sources = map[string]sourceFunc{
	config.SourceLeft: func(_ *sim.World, r *rig, _ config.WheelConfig) hw.RotationSensor {
		return r.left
	},
	config.SourceRight: func(_ *sim.World, r *rig, _ config.WheelConfig) hw.RotationSensor {
		return r.right
	},
	config.SourcePod: func(w *sim.World, _ *rig, wc config.WheelConfig) hw.RotationSensor {
		return w.Encoder(wc.Name, wc.Orientation == "parallel", wc.Offset, wc.Circumference)
	},
}

func orientation(name string) tracking.Orientation {
	if name == "perpendicular" {
		return tracking.Perpendicular
	}
	return tracking.Parallel
}

func asMotors[T hw.Motor](ms []T) []hw.Motor {
	out := make([]hw.Motor, len(ms))
	for i, m := range ms {
		out[i] = m
	}
	return out
}

func buildRig(w *sim.World, cfg *config.Config) (*rig, error) {
	n := cfg.Drivetrain.MotorsPerSide
	left, err := hw.NewMotorGroup(asMotors(w.LeftMotors(n))...)
	if err != nil {
		return nil, errors.Wrap(err, "left side")
	}
	right, err := hw.NewMotorGroup(asMotors(w.RightMotors(n))...)
	if err != nil {
		return nil, errors.Wrap(err, "right side")
	}

	r := &rig{left: left, right: right, imu: w.IMU()}
	for _, wc := range cfg.Tracking {
		src, ok := sources[wc.Source]
		if !ok {
			return nil, errors.Wrapf(ErrUnknownSource, "wheel %q: %q", wc.Name, wc.Source)
		}
		r.wheels = append(r.wheels, tracking.NewWheel(src(w, r, wc), wc.Circumference, wc.Offset, orientation(wc.Orientation)))
	}
	return r, nil
}
