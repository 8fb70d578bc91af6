package integrators

import (
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/doxa/internal/sim"
)

// Euler is the explicit first-order method. It is only here to compare against RK4.
type Euler struct{}

func NewEuler() *Euler { return &Euler{} }

func (e *Euler) Step(sys sim.System, x sim.State, u sim.Control, t, dt float64) sim.State {
	next := make(sim.State, len(x))
	floats.AddScaledTo(next, x, dt, sys.Derive(x, u, t))
	return next
}
