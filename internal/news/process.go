// Package news implements the exogenous information arrival process: a
// two-regime Markov switch (calm/stressed) driving rare, heavy-tailed global
// shocks. Regime persistence produces shock clustering; the Student-t-like
// magnitude draw produces fat tails. There is no feedback from prices or
// agents into the regime.
package news

import (
	"jumpsim/internal/domain/models"
	"jumpsim/internal/rng"
)

// Config holds the regime-switching and arrival parameters.
type Config struct {
	PSwitchToStress float64 // calm -> stressed transition probability
	PSwitchToCalm   float64 // stressed -> calm transition probability
	ArrivalCalm     float64 // shock arrival probability in calm regime
	ArrivalStressed float64 // shock arrival probability in stressed regime
	ScaleCalm       float64 // shock magnitude scale in calm regime
	ScaleStressed   float64 // shock magnitude scale in stressed regime
}

// Process is the process-wide news state. It starts in the calm regime and is
// mutated once per simulation step.
type Process struct {
	cfg    Config
	regime models.RegimeState
	stream *rng.Stream
}

// New creates a news process seeded with the given value.
func New(cfg Config, seed uint64) *Process {
	return &Process{cfg: cfg, stream: rng.New(seed)}
}

// Step draws one global shock. The regime transition is evaluated first, so a
// freshly entered regime already governs this step's arrival and magnitude.
// Most steps return exactly 0.0 (no meaningful news).
func (p *Process) Step() float64 {
	if p.regime == models.RegimeCalm {
		if p.stream.Uniform() < p.cfg.PSwitchToStress {
			p.regime = models.RegimeStressed
		}
	} else {
		if p.stream.Uniform() < p.cfg.PSwitchToCalm {
			p.regime = models.RegimeCalm
		}
	}

	arrival := p.cfg.ArrivalCalm
	scale := p.cfg.ScaleCalm
	if p.regime == models.RegimeStressed {
		arrival = p.cfg.ArrivalStressed
		scale = p.cfg.ScaleStressed
	}

	if p.stream.Uniform() > arrival {
		return 0.0
	}

	return p.stream.HeavyTail(scale)
}

// Regime returns the current macro regime.
func (p *Process) Regime() models.RegimeState { return p.regime }
