package news

import (
	"math"
	"testing"

	"jumpsim/internal/domain/models"
)

func calmOnlyConfig() Config {
	return Config{
		PSwitchToStress: 0.0,
		PSwitchToCalm:   0.0,
		ArrivalCalm:     0.01,
		ArrivalStressed: 0.05,
		ScaleCalm:       2.0,
		ScaleStressed:   8.0,
	}
}

func TestStartsCalm(t *testing.T) {
	p := New(calmOnlyConfig(), 1)
	if p.Regime() != models.RegimeCalm {
		t.Fatalf("initial regime = %v, want calm", p.Regime())
	}
}

func TestDeterminism(t *testing.T) {
	cfg := Config{
		PSwitchToStress: 0.1,
		PSwitchToCalm:   0.1,
		ArrivalCalm:     0.3,
		ArrivalStressed: 0.6,
		ScaleCalm:       2.0,
		ScaleStressed:   8.0,
	}
	a := New(cfg, 42)
	b := New(cfg, 42)
	for i := 0; i < 1000; i++ {
		sa, sb := a.Step(), b.Step()
		if sa != sb {
			t.Fatalf("processes diverged at step %d: %v vs %v", i, sa, sb)
		}
		if a.Regime() != b.Regime() {
			t.Fatalf("regimes diverged at step %d", i)
		}
	}
}

func TestNoArrivalMeansZeroShock(t *testing.T) {
	cfg := calmOnlyConfig()
	cfg.ArrivalCalm = 0.0
	cfg.ArrivalStressed = 0.0
	p := New(cfg, 7)

	for i := 0; i < 1000; i++ {
		if s := p.Step(); s != 0.0 {
			t.Fatalf("shock without arrival at step %d: %v", i, s)
		}
	}
}

func TestCertainArrivalAlwaysShocks(t *testing.T) {
	cfg := calmOnlyConfig()
	cfg.ArrivalCalm = 1.0
	cfg.ArrivalStressed = 1.0
	p := New(cfg, 7)

	for i := 0; i < 1000; i++ {
		if s := p.Step(); s == 0.0 {
			t.Fatalf("missing shock with certain arrival at step %d", i)
		}
	}
}

func TestRegimePersistsWithoutTransitions(t *testing.T) {
	p := New(calmOnlyConfig(), 9)
	for i := 0; i < 1000; i++ {
		p.Step()
		if p.Regime() != models.RegimeCalm {
			t.Fatalf("regime flipped with zero transition probability")
		}
	}
}

// A certain calm->stressed transition must govern the same step's shock:
// the transition is evaluated before arrival and magnitude.
func TestFreshRegimeGovernsCurrentStep(t *testing.T) {
	cfg := Config{
		PSwitchToStress: 1.0,
		PSwitchToCalm:   0.0,
		ArrivalCalm:     0.0, // calm would never shock
		ArrivalStressed: 1.0, // stressed always shocks
		ScaleCalm:       2.0,
		ScaleStressed:   8.0,
	}
	p := New(cfg, 11)

	s := p.Step()
	if p.Regime() != models.RegimeStressed {
		t.Fatalf("regime = %v, want stressed", p.Regime())
	}
	if s == 0.0 {
		t.Fatalf("first step must already use the stressed arrival probability")
	}
}

func TestStressedShocksAreLarger(t *testing.T) {
	calm := calmOnlyConfig()
	calm.ArrivalCalm = 1.0

	stressed := calm
	stressed.PSwitchToStress = 1.0
	stressed.ArrivalStressed = 1.0

	n := 20000
	sumCalm, sumStressed := 0.0, 0.0
	pc := New(calm, 13)
	ps := New(stressed, 13)
	for i := 0; i < n; i++ {
		sumCalm += math.Abs(pc.Step())
		sumStressed += math.Abs(ps.Step())
	}

	if sumStressed <= sumCalm {
		t.Fatalf("stressed shocks not larger on average: %v vs %v", sumStressed, sumCalm)
	}
}
