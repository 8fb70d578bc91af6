// Package viz draws robot runs in the terminal.
//
//   - [Canvas] and [FieldView]: Braille field map with trails and the robot outline
//   - [Live]: Bubble Tea view that follows a simulated run as it happens
//   - [PlotRun]: asciigraph charts of a stored run
//
// # Key Bindings (live view)
//
//	Space - Pause/Resume the simulation
//	+/-   - Playback speed
//	T     - Toggle estimate/truth overlay
//	Q     - Quit
package viz
