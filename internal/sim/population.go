package sim

import (
	"fmt"

	"jumpsim/internal/agent"
	"jumpsim/internal/diffusion"
	"jumpsim/internal/domain/models"
	"jumpsim/internal/rng"
	"jumpsim/pkg/config"
)

// Population owns the agents and the neighbor adjacency backing storage.
// Agents hold non-owning views into the network's flattened id table.
type Population struct {
	Agents  []*agent.Agent
	Network *diffusion.Network
}

// BuildPopulation creates the agent population from configuration. Types are
// assigned by uniform draw against the configured shares, per-agent RNG seeds
// are drawn from the provided master stream, and every belief starts at the
// initial market price. The visitation order of the build is part of the
// determinism contract: the same seed always yields the same population.
func BuildPopulation(cfg *config.Config, master *rng.Stream) *Population {
	n := cfg.Population.Size
	agents := make([]*agent.Agent, n)

	for i := 0; i < n; i++ {
		r := master.Uniform()
		typ := models.AgentNoise
		switch {
		case r < cfg.Population.RetailShare:
			typ = models.AgentRetail
		case r < cfg.Population.RetailShare+cfg.Population.InstitutionalShare:
			typ = models.AgentInstitutional
		}

		tp := typeParams(cfg, typ)
		params := agent.Params{
			Aggressiveness:     tp.Aggressiveness,
			TradeSizeScale:     cfg.Population.TradeSizeScale,
			RiskAversion:       tp.RiskAversion,
			LiquidityTolerance: cfg.Population.LiquidityTolerance,
			BeliefUpdateRate:   cfg.Population.BeliefUpdateRate,
			NetworkInfluence:   tp.NetworkInfluence,
			NoiseStd:           tp.NoiseStd,
			FundamentalAnchor:  cfg.Market.InitialPrice,
		}

		agents[i] = agent.New(
			uint32(i),
			typ,
			fmt.Sprintf("agent-%d", i),
			cfg.Market.InitialPrice,
			params,
			master.Uint64(),
		)
	}

	net := diffusion.BuildRandom(n, cfg.Population.MeanDegree, master)
	for i, a := range agents {
		a.Neighbors = net.Neighbors(i)
	}

	return &Population{Agents: agents, Network: net}
}

func typeParams(cfg *config.Config, typ models.AgentType) config.TypeParams {
	switch typ {
	case models.AgentRetail:
		return cfg.Population.Retail
	case models.AgentInstitutional:
		return cfg.Population.Institutional
	default:
		return cfg.Population.Noise
	}
}

// AvgBelief returns the population mean belief, a simple sentiment proxy.
func (p *Population) AvgBelief() float64 {
	if len(p.Agents) == 0 {
		return 0.0
	}
	sum := 0.0
	for _, a := range p.Agents {
		sum += a.Belief
	}
	return sum / float64(len(p.Agents))
}

// Snapshots returns diagnostic views of every agent in id order.
func (p *Population) Snapshots() []models.AgentSnapshot {
	out := make([]models.AgentSnapshot, len(p.Agents))
	for i, a := range p.Agents {
		out[i] = a.Snapshot()
	}
	return out
}
