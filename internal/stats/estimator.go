// Package stats provides streaming estimators over the simulated return
// series: single-pass central moments (Welford), jump detection against a
// fixed threshold, and an EWMA of absolute returns as a volatility-clustering
// proxy. Every update is O(1); the estimator covers the whole run, not a
// sliding window.
package stats

import "math"

// Estimator accumulates moments of the log-return series. Create one per run
// and feed it exactly one log return per step.
type Estimator struct {
	n    int64
	mean float64
	m2   float64
	m3   float64
	m4   float64

	jumpCount     int64
	jumpThreshold float64

	absReturnEWMA float64
	ewmaDecay     float64
}

// New creates an estimator with the given jump threshold and EWMA decay.
func New(jumpThreshold, ewmaDecay float64) *Estimator {
	return &Estimator{jumpThreshold: jumpThreshold, ewmaDecay: ewmaDecay}
}

// Update folds one log return into the accumulators. This is the record path:
// a return that qualifies as a jump increments the jump counter here.
func (e *Estimator) Update(logReturn float64) {
	// Incremental central moment update (Welford / Pébay).
	n1 := float64(e.n)
	e.n++
	n := float64(e.n)

	delta := logReturn - e.mean
	deltaN := delta / n
	deltaN2 := deltaN * deltaN
	term1 := delta * deltaN * n1

	e.mean += deltaN
	e.m4 += term1*deltaN2*(n*n-3*n+3) + 6*deltaN2*e.m2 - 4*deltaN*e.m3
	e.m3 += term1*deltaN*(n-2) - 3*deltaN*e.m2
	e.m2 += term1

	if e.IsJump(logReturn) {
		e.jumpCount++
	}

	e.absReturnEWMA = e.ewmaDecay*e.absReturnEWMA + (1.0-e.ewmaDecay)*math.Abs(logReturn)
}

// Count returns the number of observations.
func (e *Estimator) Count() int64 { return e.n }

// Mean returns the running mean of log returns.
func (e *Estimator) Mean() float64 { return e.mean }

// Variance returns the sample variance (n-1 denominator), or 0 with fewer
// than two observations.
func (e *Estimator) Variance() float64 {
	if e.n < 2 {
		return 0.0
	}
	return e.m2 / float64(e.n-1)
}

// Skewness returns the sample skewness, or 0 when undefined.
func (e *Estimator) Skewness() float64 {
	if e.n < 2 || e.m2 == 0 {
		return 0.0
	}
	n := float64(e.n)
	return math.Sqrt(n) * e.m3 / math.Pow(e.m2, 1.5)
}

// Kurtosis returns the excess kurtosis n*m4/m2^2 - 3, or 0 when undefined.
// A positive value signals fatter tails than Gaussian. This convention is
// used consistently everywhere in the simulator.
func (e *Estimator) Kurtosis() float64 {
	if e.n < 2 || e.m2 == 0 {
		return 0.0
	}
	n := float64(e.n)
	return n*e.m4/(e.m2*e.m2) - 3.0
}

// IsJump reports whether |logReturn| strictly exceeds the jump threshold.
// The boundary is exclusive: a return exactly at the threshold is not a jump.
func (e *Estimator) IsJump(logReturn float64) bool {
	return math.Abs(logReturn) > e.jumpThreshold
}

// JumpCount returns the number of jumps seen on the record path.
func (e *Estimator) JumpCount() int64 { return e.jumpCount }

// JumpFrequency returns jumps per observation, or 0 before any update.
func (e *Estimator) JumpFrequency() float64 {
	if e.n == 0 {
		return 0.0
	}
	return float64(e.jumpCount) / float64(e.n)
}

// AbsReturnEWMA returns the clustering proxy: an exponentially weighted
// moving average of absolute log returns.
func (e *Estimator) AbsReturnEWMA() float64 { return e.absReturnEWMA }
