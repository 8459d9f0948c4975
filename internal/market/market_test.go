package market

import (
	"math"
	"testing"

	"pgregory.net/rapid"
)

func newTestMarket() *Market {
	return New(100.0, 1000.0, 1.0, 0.94, 5.0)
}

// Concrete clearing scenario: liquidity 1000, impact 1, step demand 50 gives
// a raw change of 0.05 and a final price of 100.05.
func TestClearLinearImpact(t *testing.T) {
	m := newTestMarket()

	m.BeginStep()
	m.AddDemand(50.0)
	p := m.Clear()

	if math.Abs(p-100.05) > 1e-12 {
		t.Fatalf("price = %v, want 100.05", p)
	}
	if m.LastPrice() != 100.0 {
		t.Fatalf("last price = %v, want 100", m.LastPrice())
	}

	want := math.Log(100.05 / 100.0)
	if math.Abs(m.LogReturn()-want) > 1e-12 {
		t.Fatalf("log return = %v, want %v", m.LogReturn(), want)
	}

	m.UpdateVolatility()
	wantVol := (1.0 - 0.94) * want * want
	if math.Abs(m.Volatility()-wantVol) > 1e-15 {
		t.Fatalf("volatility = %v, want %v", m.Volatility(), wantVol)
	}
}

// Holding all demand at zero leaves the price unchanged: price is a pure
// function of aggregated demand, never of an internal random draw.
func TestNoExogenousPriceNoise(t *testing.T) {
	m := newTestMarket()

	for i := 0; i < 100; i++ {
		m.BeginStep()
		m.Clear()
		if m.Price() != 100.0 {
			t.Fatalf("price moved without demand at step %d: %v", i, m.Price())
		}
		if m.LogReturn() != 0.0 {
			t.Fatalf("nonzero return without demand: %v", m.LogReturn())
		}
	}
}

func TestImpactCap(t *testing.T) {
	m := newTestMarket()

	m.BeginStep()
	m.AddDemand(1e9)
	m.Clear()
	if m.Price() != 105.0 {
		t.Fatalf("upward move not capped: %v", m.Price())
	}

	m.BeginStep()
	m.AddDemand(-1e9)
	m.Clear()
	if m.Price() != 100.0 {
		t.Fatalf("downward move not capped: %v", m.Price())
	}
}

func TestPriceFloor(t *testing.T) {
	m := New(1.0, 10.0, 1.0, 0.94, 100.0)

	m.BeginStep()
	m.AddDemand(-1e6)
	m.Clear()
	if m.Price() < 1e-6 {
		t.Fatalf("price below floor: %v", m.Price())
	}

	// The guarded return must not blow up at the floor.
	if r := m.LogReturn(); math.IsInf(r, 0) || math.IsNaN(r) {
		t.Fatalf("degenerate log return at floor: %v", r)
	}
}

func TestHaltInvariant(t *testing.T) {
	m := newTestMarket()
	m.Halt()

	for i := 0; i < 50; i++ {
		m.BeginStep()
		m.AddDemand(1e6)
		if p := m.Clear(); p != 100.0 {
			t.Fatalf("halted clear moved price at step %d: %v", i, p)
		}
		if m.LogReturn() != 0.0 {
			t.Fatalf("halted step must read a zero return, got %v", m.LogReturn())
		}
		if m.Time() != 0 {
			t.Fatalf("halted clear advanced time to %d", m.Time())
		}
	}

	// Order flow remains measurable during the halt.
	if m.Volume() != 1e6 {
		t.Fatalf("volume not tracked during halt: %v", m.Volume())
	}

	m.Resume()
	m.BeginStep()
	m.AddDemand(50.0)
	if p := m.Clear(); math.Abs(p-100.05) > 1e-12 {
		t.Fatalf("price after resume = %v, want 100.05", p)
	}
}

func TestBeginStepResetsAccumulators(t *testing.T) {
	m := newTestMarket()

	m.BeginStep()
	m.AddDemand(30.0)
	m.AddDemand(-10.0)
	if m.ExcessDemand() != 20.0 || m.Volume() != 40.0 {
		t.Fatalf("accumulators wrong: demand=%v volume=%v", m.ExcessDemand(), m.Volume())
	}

	m.BeginStep()
	if m.ExcessDemand() != 0.0 || m.Volume() != 0.0 {
		t.Fatalf("accumulators not reset")
	}
}

func TestVolatilityEWMADecay(t *testing.T) {
	m := newTestMarket()

	m.BeginStep()
	m.AddDemand(100.0)
	m.Clear()
	m.UpdateVolatility()
	v1 := m.Volatility()

	// A quiet step decays the estimate toward zero.
	m.BeginStep()
	m.Clear()
	m.UpdateVolatility()
	v2 := m.Volatility()

	if v1 <= 0 {
		t.Fatalf("volatility not positive after a move: %v", v1)
	}
	if math.Abs(v2-0.94*v1) > 1e-15 {
		t.Fatalf("quiet step must decay volatility by the EWMA factor: %v vs %v", v2, 0.94*v1)
	}
}

// Price positivity and the impact cap hold for all reachable demand
// sequences.
func TestProperty_PricePositivityAndCap(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		liquidity := rapid.Float64Range(1.0, 10000.0).Draw(t, "liquidity")
		impact := rapid.Float64Range(0.01, 10.0).Draw(t, "impact")
		cap := rapid.Float64Range(0.1, 10.0).Draw(t, "cap")
		m := New(100.0, liquidity, impact, 0.94, cap)

		steps := rapid.IntRange(1, 100).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			before := m.Price()
			m.BeginStep()
			n := rapid.IntRange(0, 5).Draw(t, "n")
			for j := 0; j < n; j++ {
				m.AddDemand(rapid.Float64Range(-1e6, 1e6).Draw(t, "demand"))
			}
			after := m.Clear()

			if after < 1e-6 {
				t.Fatalf("price %v below positivity floor", after)
			}
			if math.Abs(after-before) > cap+1e-12 {
				t.Fatalf("step move %v exceeds cap %v", math.Abs(after-before), cap)
			}
		}
	})
}
