package tracking

import (
	"sync"

	"github.com/san-kum/doxa/internal/hw"
)

type Orientation int

const (
	// Parallel wheels roll along the robot's forward axis. Offset is the signed lateral
	// distance from the tracking centre, right positive.
	Parallel Orientation = iota
	// Perpendicular wheels roll sideways. Offset is the signed fore/aft distance from the
	// tracking centre, forward positive.
	Perpendicular
)

func (o Orientation) String() string {
	switch o {
	case Parallel:
		return "parallel"
	case Perpendicular:
		return "perpendicular"
	default:
		return "unknown"
	}
}

// Wheel is an unpowered or powered wheel whose rotation is read from source.
type Wheel struct {
	Circumference float64
	Offset        float64
	Orientation   Orientation

	source hw.RotationSensor

	mu     sync.Mutex
	last   float64
	primed bool
}

func NewWheel(source hw.RotationSensor, circumference, offset float64, o Orientation) *Wheel {
	return &Wheel{
		Circumference: circumference,
		Offset:        offset,
		Orientation:   o,
		source:        source,
	}
}

// Reset re-zeros the wheel on its current reading.
func (w *Wheel) Reset() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	rev, err := w.source.Position()
	if err != nil {
		w.primed = false
		return err
	}
	w.last = rev
	w.primed = true
	return nil
}

// Delta returns the distance rolled in mm since the previous successful read. A failed read
// keeps the previous reading so the motion is picked up once the sensor answers again. The
// first successful read only establishes the baseline.
func (w *Wheel) Delta() (float64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	rev, err := w.source.Position()
	if err != nil {
		return 0, err
	}
	if !w.primed {
		w.last = rev
		w.primed = true
		return 0, nil
	}
	d := (rev - w.last) * w.Circumference
	w.last = rev
	return d, nil
}
