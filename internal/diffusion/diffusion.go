// Package diffusion propagates a global news shock into heterogeneous
// per-agent signals through the social network.
//
// Information does not reach everyone instantly or equally: agents filter
// news by type-dependent attention, and second- and third-order social
// transmission contributes with rapidly diminishing weight. The accumulated
// signal is strictly additive to beliefs and never touches the price
// directly, so any resulting jump is emergent rather than injected.
package diffusion

import (
	"math"

	"jumpsim/internal/agent"
	"jumpsim/internal/domain/models"
)

// negligibleShock short-circuits propagation for effectively-zero shocks.
const negligibleShock = 1e-9

// Config controls the propagation schedule.
type Config struct {
	Rounds        int     // number of social transmission rounds
	BaseAttention float64 // fraction of the shock reaching direct exposure
}

// attentionWeight models limited attention and media filtering. Retail
// agents overweight salient news, institutions dampen noisy signals.
func attentionWeight(t models.AgentType) float64 {
	switch t {
	case models.AgentRetail:
		return 1.2
	case models.AgentInstitutional:
		return 0.6
	default:
		return 0.9
	}
}

// temporalDecay discounts later transmission rounds exponentially.
func temporalDecay(round int) float64 {
	return math.Exp(-0.8 * float64(round))
}

// Propagate diffuses one global shock through the population and increments
// each agent's belief by its accumulated local signal. With a negligible
// shock it is a no-op and leaves every belief unchanged.
func Propagate(agents []*agent.Agent, net *Network, cfg Config, globalShock float64) {
	if math.Abs(globalShock) < negligibleShock {
		return
	}

	n := len(agents)
	localSignal := make([]float64, n)
	nextSignal := make([]float64, n)

	// Round 0: direct media exposure, filtered by type attention.
	for i, a := range agents {
		localSignal[i] = cfg.BaseAttention * attentionWeight(a.Type) * globalShock
	}

	// Social transmission rounds: each agent accumulates a decayed fraction
	// of its neighbors' previous-round signals.
	for round := 1; round <= cfg.Rounds; round++ {
		decay := temporalDecay(round)

		for i, a := range agents {
			nbrs := net.Neighbors(i)
			if len(nbrs) == 0 {
				continue
			}
			sum := 0.0
			for _, id := range nbrs {
				sum += localSignal[id]
			}
			avg := sum / float64(len(nbrs))
			nextSignal[i] += decay * a.Params().NetworkInfluence * avg
		}

		for i := range localSignal {
			localSignal[i] += nextSignal[i]
			nextSignal[i] = 0.0
		}
	}

	for i, a := range agents {
		a.Belief += localSignal[i]
	}
}
