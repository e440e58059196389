package mcmc

import "math"

// AcceptFloor is the score delta at or below which a proposal is never
// accepted.
const AcceptFloor = -10000.0

// AcceptanceLog returns the natural log of the acceptance probability for
// a proposal whose score differs from the current one by delta. The
// probability is zero exactly when the result is -Inf.
func AcceptanceLog(delta float64) float64 {
	if delta <= AcceptFloor {
		return math.Inf(-1)
	}
	if delta > 0 {
		return 0
	}
	return delta
}

// Accept decides a proposal given a uniform draw u in [0,1).
func Accept(u, delta float64) bool {
	return math.Log(u) < AcceptanceLog(delta)
}
