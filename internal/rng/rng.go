// Package rng provides reproducible pseudo-random streams for Monte Carlo
// simulation. Every component of the simulator draws from an explicit Stream
// keyed by a seed; the platform default generator is never used, so a run is
// fully determined by its configuration.
package rng

import "math"

// defaultState replaces a zero seed, which would lock xorshift at zero forever.
const defaultState uint64 = 88172645463325252

// Stream is a xorshift64 generator. It is not safe for concurrent use; give
// each consumer its own Stream.
type Stream struct {
	state uint64
}

// New returns a Stream seeded with the given value.
func New(seed uint64) *Stream {
	if seed == 0 {
		seed = defaultState
	}
	return &Stream{state: seed}
}

// Uint64 advances the stream and returns the next raw 64-bit value.
func (s *Stream) Uint64() uint64 {
	x := s.state
	x ^= x << 13
	x ^= x >> 7
	x ^= x << 17
	s.state = x
	return x
}

// Uniform returns a deviate in [0, 1).
func (s *Stream) Uniform() float64 {
	return float64(s.Uint64()>>11) * (1.0 / 9007199254740992.0)
}

// Normal returns a standard normal deviate via Box-Muller.
func (s *Stream) Normal() float64 {
	u1 := s.Uniform()
	if u1 < 1e-12 {
		u1 = 1e-12
	}
	u2 := s.Uniform()
	return math.Sqrt(-2.0*math.Log(u1)) * math.Cos(2.0*math.Pi*u2)
}

// HeavyTail returns a Student-t-like deviate with fatter tails than Gaussian:
// scale * z / sqrt(u). Used for news shock magnitudes.
func (s *Stream) HeavyTail(scale float64) float64 {
	z := s.Normal()
	u := s.Uniform()
	if u < 1e-12 {
		u = 1e-12
	}
	return scale * z / math.Sqrt(u)
}
