// Package control provides the feedback primitives shared by every motion action.
//
//   - [PID]: proportional-integral-derivative loop with integral and output clamping
//   - [Settler]: decides when an error has settled or the attempt has timed out
//   - [Divergence]: flags an error that grows instead of shrinking
//
// # Usage
//
//	pid := control.NewPID(control.Gains{Kp: 0.05, Kd: 0.004, OutputLimit: 12})
//	settle := control.NewSettler(control.Tolerances{Error: 10, Velocity: 20, Duration: 200 * time.Millisecond, Timeout: 3 * time.Second})
//	// each tick
//	volts := pid.Update(err, now)
//	settled, timedOut := settle.Update(err, now)
//
// All three are driven by the caller's tick timestamps, never the wall clock.
package control
