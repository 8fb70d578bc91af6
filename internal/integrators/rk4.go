package integrators

import (
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/doxa/internal/sim"
)

// RK4 is the classic fourth-order Runge-Kutta method. Stage buffers are reused between
// steps, so an RK4 must not be shared between worlds.
type RK4 struct {
	k       [4]sim.State
	scratch sim.State
}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) ensureScratch(n int) {
	if len(r.scratch) == n {
		return
	}
	for i := range r.k {
		r.k[i] = make(sim.State, n)
	}
	r.scratch = make(sim.State, n)
}

// stage evaluates the derivative at x + h*prev into k.
func (r *RK4) stage(k sim.State, sys sim.System, x, prev sim.State, u sim.Control, t, h float64) {
	floats.AddScaledTo(r.scratch, x, h, prev)
	copy(k, sys.Derive(r.scratch, u, t))
}

func (r *RK4) Step(sys sim.System, x sim.State, u sim.Control, t, dt float64) sim.State {
	r.ensureScratch(len(x))
	k1, k2, k3, k4 := r.k[0], r.k[1], r.k[2], r.k[3]

	copy(k1, sys.Derive(x, u, t))
	r.stage(k2, sys, x, k1, u, t+dt/2, dt/2)
	r.stage(k3, sys, x, k2, u, t+dt/2, dt/2)
	r.stage(k4, sys, x, k3, u, t+dt, dt)

	next := make(sim.State, len(x))
	copy(next, x)
	floats.AddScaled(next, dt/6, k1)
	floats.AddScaled(next, dt/3, k2)
	floats.AddScaled(next, dt/3, k3)
	floats.AddScaled(next, dt/6, k4)
	return next
}
