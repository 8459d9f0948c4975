// Package market implements price formation under finite liquidity.
//
// The market aggregates signed demand from all agents each step and moves the
// price by a linear impact rule. There is no random price term anywhere in
// this package: volatility and jumps are entirely endogenous to agent
// behavior.
package market

import "math"

// priceFloor keeps the price strictly positive under extreme selling.
const priceFloor = 1e-6

// Market holds the clearing state for one asset.
type Market struct {
	price     float64
	lastPrice float64

	liquidity         float64 // market depth, higher = more stable
	impactCoefficient float64 // maps normalized excess demand to price change

	volatility      float64 // EWMA variance proxy over log returns
	volatilityDecay float64

	cumulativeDemand float64 // signed order flow this step
	cumulativeVolume float64 // sum of |demand|, liquidity-usage proxy

	time uint64

	maxPriceChange float64 // limit-up/limit-down band per step
	tradingHalted  bool
}

// New initializes a market at the given price.
func New(initPrice, liquidity, impactCoefficient, volatilityDecay, maxPriceChange float64) *Market {
	return &Market{
		price:             initPrice,
		lastPrice:         initPrice,
		liquidity:         liquidity,
		impactCoefficient: impactCoefficient,
		volatilityDecay:   volatilityDecay,
		maxPriceChange:    maxPriceChange,
	}
}

// BeginStep resets the per-step order flow accumulators. Call exactly once
// before any AddDemand in a clearing window.
func (m *Market) BeginStep() {
	m.cumulativeDemand = 0.0
	m.cumulativeVolume = 0.0
}

// AddDemand accumulates one agent's signed demand into the current window.
// Positive demand is net buying pressure.
func (m *Market) AddDemand(signedDemand float64) {
	m.cumulativeDemand += signedDemand
	m.cumulativeVolume += math.Abs(signedDemand)
}

// Clear advances the price by the linear impact rule
//
//	dP = impact * (excess demand / liquidity)
//
// clamped to the per-step band and floored at a positive epsilon, then
// advances the time counter. While halted, Clear leaves price and time
// untouched and snaps lastPrice to the current price so the step's return
// reads zero.
func (m *Market) Clear() float64 {
	if m.tradingHalted {
		m.lastPrice = m.price
		return m.price
	}

	m.lastPrice = m.price

	normalizedFlow := m.cumulativeDemand / m.liquidity
	change := m.impactCoefficient * normalizedFlow

	if change > m.maxPriceChange {
		change = m.maxPriceChange
	} else if change < -m.maxPriceChange {
		change = -m.maxPriceChange
	}

	m.price += change
	if m.price < priceFloor {
		m.price = priceFloor
	}

	m.time++
	return m.price
}

// LogReturn returns ln(price/lastPrice), or 0 if either price is
// non-positive (guards the floor case).
func (m *Market) LogReturn() float64 {
	if m.lastPrice <= 0.0 || m.price <= 0.0 {
		return 0.0
	}
	return math.Log(m.price / m.lastPrice)
}

// UpdateVolatility folds the latest squared log return into the EWMA
// variance proxy (RiskMetrics-style). Call once per step after Clear.
func (m *Market) UpdateVolatility() {
	r := m.LogReturn()
	m.volatility = m.volatilityDecay*m.volatility + (1.0-m.volatilityDecay)*r*r
}

// Halt engages the circuit breaker: price stops updating but order flow can
// still be measured.
func (m *Market) Halt() { m.tradingHalted = true }

// Resume releases the circuit breaker.
func (m *Market) Resume() { m.tradingHalted = false }

// Halted reports whether the circuit breaker is engaged.
func (m *Market) Halted() bool { return m.tradingHalted }

// Price returns the current market price.
func (m *Market) Price() float64 { return m.price }

// LastPrice returns the price before the most recent Clear.
func (m *Market) LastPrice() float64 { return m.lastPrice }

// Volatility returns the current EWMA variance proxy.
func (m *Market) Volatility() float64 { return m.volatility }

// Volume returns the cumulative absolute volume of the current step.
func (m *Market) Volume() float64 { return m.cumulativeVolume }

// ExcessDemand returns the cumulative signed demand of the current step.
func (m *Market) ExcessDemand() float64 { return m.cumulativeDemand }

// Time returns the discrete time counter, incremented once per non-halted
// Clear.
func (m *Market) Time() uint64 { return m.time }
