package sim

import (
	"time"

	"github.com/pkg/errors"

	"github.com/san-kum/doxa/internal/hw"
)

type FaultKind string

const (
	Disconnected FaultKind = "disconnected"
	Stale        FaultKind = "stale"
)

// Fault makes a device fail between Start and End of simulated time. Device is "imu",
// "left", "right" or the name of a tracking pod.
type Fault struct {
	Device string        `yaml:"device" json:"device"`
	Kind   FaultKind     `yaml:"kind" json:"kind"`
	Start  time.Duration `yaml:"start" json:"start"`
	End    time.Duration `yaml:"end" json:"end"`
}

func (f Fault) active(device string, t time.Duration) bool {
	return f.Device == device && t >= f.Start && t < f.End
}

func (f Fault) err() error {
	if f.Kind == Stale {
		return errors.Wrap(hw.ErrStale, f.Device)
	}
	return errors.Wrap(hw.ErrDisconnected, f.Device)
}

// Rect is an axis-aligned obstacle in field mm.
type Rect struct {
	MinX float64 `yaml:"min_x" json:"min_x"`
	MinY float64 `yaml:"min_y" json:"min_y"`
	MaxX float64 `yaml:"max_x" json:"max_x"`
	MaxY float64 `yaml:"max_y" json:"max_y"`
}

func (r Rect) contains(x, y, margin float64) bool {
	return x > r.MinX-margin && x < r.MaxX+margin && y > r.MinY-margin && y < r.MaxY+margin
}
