package sim

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrInvalidState indicates the physics produced NaN or Inf.
	ErrInvalidState = errors.New("sim: invalid state (NaN or Inf detected)")

	// ErrUnknownDevice indicates a fault names a device the world does not have.
	ErrUnknownDevice = errors.New("sim: unknown device")

	// ErrUnknownFault indicates a fault kind other than disconnected or stale.
	ErrUnknownFault = errors.New("sim: unknown fault kind")
)

// SimError wraps an error with the step it happened at.
type SimError struct {
	Step    int
	Time    float64
	Wrapped error
}

func (e SimError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %v", e.Step, e.Time, e.Wrapped)
}

func (e SimError) Unwrap() error {
	return e.Wrapped
}
