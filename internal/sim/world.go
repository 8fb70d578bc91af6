// Package sim is a differential-drive robot simulator. It exposes the robot's motors, heading
// sensor and tracking pods as hw devices so the real tracking and drivetrain code runs
// unchanged against it.
package sim

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/san-kum/doxa/internal/pose"
)

// Params describe the simulated robot and field. Durations and distances use mm and
// seconds unless noted.
type Params struct {
	TrackWidth         float64       `yaml:"track_width" json:"track_width"`
	WheelCircumference float64       `yaml:"wheel_circumference" json:"wheel_circumference"`
	FreeSpeed          float64       `yaml:"free_speed" json:"free_speed"`
	TimeConstant       float64       `yaml:"time_constant" json:"time_constant"`
	Dt                 time.Duration `yaml:"dt" json:"dt"`

	FieldHalfWidth float64 `yaml:"field_half_width" json:"field_half_width"`
	RobotRadius    float64 `yaml:"robot_radius" json:"robot_radius"`
	Obstacles      []Rect  `yaml:"obstacles,omitempty" json:"obstacles,omitempty"`

	HeadingDrift    float64       `yaml:"heading_drift" json:"heading_drift"` // deg/s
	HeadingNoise    float64       `yaml:"heading_noise" json:"heading_noise"` // deg std dev
	CalibrationTime time.Duration `yaml:"calibration_time" json:"calibration_time"`

	AmbientTemp float64 `yaml:"ambient_temp" json:"ambient_temp"`
	HeatRate    float64 `yaml:"heat_rate" json:"heat_rate"` // °C/s per V²
	CoolRate    float64 `yaml:"cool_rate" json:"cool_rate"` // 1/s

	Faults []Fault `yaml:"faults,omitempty" json:"faults,omitempty"`
	Seed   int64   `yaml:"seed" json:"seed"`
}

func DefaultParams() Params {
	return Params{
		TrackWidth:         300,
		WheelCircumference: 259.3,
		FreeSpeed:          1600,
		TimeConstant:       0.08,
		Dt:                 2 * time.Millisecond,
		FieldHalfWidth:     1828,
		RobotRadius:        200,
		HeadingDrift:       0.01,
		HeadingNoise:       0.02,
		CalibrationTime:    2 * time.Second,
		AmbientTemp:        25,
		HeatRate:           0.02,
		CoolRate:           0.01,
		Seed:               1,
	}
}

const (
	sideLeft = iota
	sideRight
)

// World owns the physical state. All access is serialised.
type World struct {
	mu sync.Mutex

	params     Params
	drive      *DiffDrive
	integrator Integrator

	x     State
	u     Control
	t     time.Duration
	steps int
	temps [2]float64

	headingBias float64
	driftOrigin time.Duration
	calibUntil  time.Duration
	rng         *rand.Rand

	stalls    int
	metrics   []Metric
	observers []Observer
}

func New(p Params, integrator Integrator) *World {
	if p.Dt <= 0 {
		p.Dt = DefaultParams().Dt
	}
	return &World{
		params: p,
		drive: &DiffDrive{
			TrackWidth:   p.TrackWidth,
			FreeSpeed:    p.FreeSpeed,
			TimeConstant: p.TimeConstant,
		},
		integrator: integrator,
		x:          make(State, driveDim),
		u:          make(Control, 2),
		temps:      [2]float64{p.AmbientTemp, p.AmbientTemp},
		rng:        rand.New(rand.NewSource(p.Seed)),
	}
}

func (w *World) AddMetric(m Metric)     { w.mu.Lock(); w.metrics = append(w.metrics, m); w.mu.Unlock() }
func (w *World) AddObserver(o Observer) { w.mu.Lock(); w.observers = append(w.observers, o); w.mu.Unlock() }

func (w *World) Params() Params { return w.params }

// Place puts the robot at p at rest. Wheel distances are kept so encoders stay continuous.
func (w *World) Place(p pose.Pose) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.x[IdxX] = p.X()
	w.x[IdxY] = p.Y()
	w.x[IdxHeading] = p.Heading
	w.x[IdxVelLeft] = 0
	w.x[IdxVelRight] = 0
}

// Pose is the true pose of the robot.
func (w *World) Pose() pose.Pose {
	w.mu.Lock()
	defer w.mu.Unlock()
	return pose.New(w.x[IdxX], w.x[IdxY], w.x[IdxHeading])
}

// State returns a copy of the physical state.
func (w *World) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.x.Clone()
}

func (w *World) Elapsed() time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.t
}

// Voltages are the last commanded side voltages.
func (w *World) Voltages() (left, right float64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.u[0], w.u[1]
}

// Stalls counts physics steps blocked by a wall or obstacle.
func (w *World) Stalls() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stalls
}

// Advance integrates the physics for d in steps of Params.Dt.
func (w *World) Advance(d time.Duration) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	for elapsed := time.Duration(0); elapsed < d; {
		dt := w.params.Dt
		if rem := d - elapsed; rem < dt {
			dt = rem
		}
		if err := w.step(dt); err != nil {
			return err
		}
		elapsed += dt
	}
	return nil
}

// step is called with mu held.
func (w *World) step(dt time.Duration) error {
	secs := dt.Seconds()
	t := w.t.Seconds()

	for _, m := range w.metrics {
		m.Observe(w.x, w.u, t)
	}
	for _, o := range w.observers {
		o.OnStep(w.x, w.u, t)
	}

	next := w.integrator.Step(w.drive, w.x, w.u, t, secs)
	if !next.IsValid() {
		return errors.WithStack(SimError{Step: w.steps, Time: t, Wrapped: ErrInvalidState})
	}

	if w.blocked(next[IdxX], next[IdxY]) {
		// pushing into something: wheels stall, the robot stays put
		next[IdxX], next[IdxY], next[IdxHeading] = w.x[IdxX], w.x[IdxY], w.x[IdxHeading]
		next[IdxDistLeft], next[IdxDistRight] = w.x[IdxDistLeft], w.x[IdxDistRight]
		next[IdxVelLeft], next[IdxVelRight] = 0, 0
		w.stalls++
	}
	w.x = next

	for side := range w.temps {
		v := w.u[side]
		w.temps[side] += (w.params.HeatRate*v*v - w.params.CoolRate*(w.temps[side]-w.params.AmbientTemp)) * secs
	}

	w.t += dt
	w.steps++
	return nil
}

func (w *World) blocked(x, y float64) bool {
	r := w.params.RobotRadius
	if f := w.params.FieldHalfWidth; f > 0 && (math.Abs(x) > f-r || math.Abs(y) > f-r) {
		return true
	}
	for _, o := range w.params.Obstacles {
		if o.contains(x, y, r) {
			return true
		}
	}
	return false
}

// fault returns the error for device if a fault window is open. Called with mu held.
func (w *World) fault(device string) error {
	for _, f := range w.params.Faults {
		if f.active(device, w.t) {
			return f.err()
		}
	}
	return nil
}

// ValidateFaults checks every fault names a known device and kind.
func (w *World) ValidateFaults(pods ...string) error {
	known := map[string]bool{"imu": true, "left": true, "right": true}
	for _, p := range pods {
		known[p] = true
	}
	for _, f := range w.params.Faults {
		if !known[f.Device] {
			return errors.Wrapf(ErrUnknownDevice, "fault on %q", f.Device)
		}
		if f.Kind != Disconnected && f.Kind != Stale {
			return errors.Wrapf(ErrUnknownFault, "%q", f.Kind)
		}
	}
	return nil
}
