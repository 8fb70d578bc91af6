// Package integrators provides fixed-step ODE solvers for the simulator.
package integrators

import (
	"github.com/pkg/errors"

	"github.com/san-kum/doxa/internal/sim"
)

// ErrUnknownIntegrator is returned by ByName.
var ErrUnknownIntegrator = errors.New("integrators: unknown integrator")

// Names lists the integrators ByName accepts.
var Names = []string{"euler", "rk4"}

func ByName(name string) (sim.Integrator, error) {
	switch name {
	case "euler":
		return NewEuler(), nil
	case "rk4", "":
		return NewRK4(), nil
	}
	return nil, errors.Wrapf(ErrUnknownIntegrator, "%q", name)
}
