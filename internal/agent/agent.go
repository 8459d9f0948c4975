// Package agent implements the heterogeneous trading agents of the simulator.
//
// An agent holds a private belief about fair price, an inventory position, and
// a set of behavioral parameters fixed at construction. Demand is a linear
// combination of the belief-price gap, an inventory risk penalty, herding
// toward neighbors, idiosyncratic noise, and the current global shock. The
// three agent types (retail, institutional, noise) differ in how they weigh
// fundamentals and how strongly they react to raw news shocks.
package agent

import (
	"math"

	"jumpsim/internal/domain/models"
	"jumpsim/internal/rng"
)

// Params are the immutable behavioral parameters of one agent.
type Params struct {
	Aggressiveness     float64 // scales demand from the price signal
	TradeSizeScale     float64 // base lot size multiplier
	RiskAversion       float64 // penalizes large inventory
	LiquidityTolerance float64 // minimum |raw demand| required to trade
	BeliefUpdateRate   float64 // [0,1] adaptation speed toward observed price
	NetworkInfluence   float64 // weight on neighbors' average belief
	NoiseStd           float64 // std of idiosyncratic demand noise
	FundamentalAnchor  float64 // long-run value anchor (institutional only)
}

// Agent is a single market participant. Fields are mutated only by the
// agent's own methods; neighbor beliefs are read, never written, cross-agent.
type Agent struct {
	ID   uint32
	Name string
	Type models.AgentType

	Belief float64

	// Inventory state, updated only via ApplyExecution.
	Position int
	Cash     float64

	// Neighbors is a non-owning view into the population's flattened
	// adjacency table. The population builder owns the backing array.
	Neighbors []int

	// PassiveOnly suppresses market-order submission: demand is always zero.
	PassiveOnly bool

	params Params
	stream *rng.Stream
}

// New constructs an agent with its belief seeded at the initial market price
// and an empty inventory. The caller wires neighbors afterward.
func New(id uint32, typ models.AgentType, name string, initPrice float64, p Params, seed uint64) *Agent {
	return &Agent{
		ID:     id,
		Name:   name,
		Type:   typ,
		Belief: initPrice,
		params: p,
		stream: rng.New(seed),
	}
}

// Params returns the agent's behavioral parameters.
func (a *Agent) Params() Params { return a.params }

// positionPenalty is a smooth, bounded risk term: p / (1+|p|). It keeps the
// inventory cost comparable in units to the price signal and prevents large
// positions from dominating demand.
func positionPenalty(position int) float64 {
	p := float64(position)
	return p / (1.0 + math.Abs(p))
}

// ComputeDemand returns the agent's desired signed demand in asset units
// (positive = buy). It is a pure function of agent state and inputs except
// for the advance of the agent's private RNG stream.
//
// Decomposition:
//
//	demand = aggressiveness * (belief - price)   valuation signal
//	       - risk_aversion * penalty(position)   inventory control
//	       + influence * (neighbor_avg - belief) herding
//	       + noise + global_shock
//
// Raw demand below the liquidity tolerance is suppressed entirely, modelling
// a minimum-trade-size friction. Passive-only agents never submit demand.
func (a *Agent) ComputeDemand(marketPrice, globalShock, avgNeighborBelief float64) float64 {
	signal := a.Belief - marketPrice

	// Institutions anchor to fundamentals.
	if a.Type == models.AgentInstitutional {
		signal += 0.5 * (a.params.FundamentalAnchor - marketPrice)
	}

	inventoryCost := a.params.RiskAversion * positionPenalty(a.Position)

	herding := 0.0
	if len(a.Neighbors) > 0 {
		herding = a.params.NetworkInfluence * (avgNeighborBelief - a.Belief)
	}

	noise := a.params.NoiseStd * a.stream.Normal()

	raw := a.params.Aggressiveness*signal - inventoryCost + herding + noise + globalShock

	if a.PassiveOnly {
		return 0.0
	}
	if math.Abs(raw) < a.params.LiquidityTolerance {
		return 0.0
	}
	return a.params.TradeSizeScale * raw
}

// ApplyExecution books a fill against the agent's inventory. Position and
// cash move together so that cash + sum(position * fill price) stays a
// consistent accounting identity.
func (a *Agent) ApplyExecution(executedQuantity int, executionPrice float64) {
	a.Position += executedQuantity
	a.Cash -= float64(executedQuantity) * executionPrice
}

// UpdateBelief applies adaptive expectations after a clearing:
//
//	belief += rate * (target - belief) + 0.1 * shock
//
// Retail and noise agents target the observed price; institutions blend in
// their fundamental anchor, which dampens belief volatility. avgMarketSignal
// is part of the update contract but unused by the current learning rule.
func (a *Agent) UpdateBelief(observedPrice, globalShock, avgMarketSignal float64) {
	target := observedPrice
	if a.Type == models.AgentInstitutional {
		target = 0.7*observedPrice + 0.3*a.params.FundamentalAnchor
	}
	a.Belief += a.params.BeliefUpdateRate * (target - a.Belief)
	a.Belief += 0.1 * globalShock
}

// ApplyShock moves belief in direct response to a raw, non-diffused news
// shock. Retail overreacts, institutions dampen, noise traders respond
// randomly from their own stream.
func (a *Agent) ApplyShock(strength float64) {
	switch a.Type {
	case models.AgentRetail:
		a.Belief += 1.2 * strength
	case models.AgentInstitutional:
		a.Belief += 0.4 * strength
	default:
		a.Belief += strength * a.stream.Normal()
	}
}

// Snapshot returns a read-only diagnostic view of the agent.
func (a *Agent) Snapshot() models.AgentSnapshot {
	return models.AgentSnapshot{
		ID:       a.ID,
		Name:     a.Name,
		Type:     a.Type.String(),
		Belief:   a.Belief,
		Position: a.Position,
		Cash:     a.Cash,
	}
}
