// Package analysis looks for oscillation in recorded runs.
//
// A badly tuned controller shows up as a ringing turn or drive voltage long before it shows
// up in the final pose. [Analyze] takes one signal out of a run, removes its mean and reports
// the strongest frequency in its power spectrum:
//
//	rep, err := analysis.Analyze(samples, "turn", 10*time.Millisecond)
//	if rep.Freq > 2 {
//	    // turn gains are likely too hot
//	}
package analysis
