package diffusion

import (
	"math"
	"testing"

	"pgregory.net/rapid"

	"jumpsim/internal/agent"
	"jumpsim/internal/domain/models"
	"jumpsim/internal/rng"
)

func defaultConfig() Config {
	return Config{Rounds: 3, BaseAttention: 0.6}
}

func buildAgents(types []models.AgentType, influence float64) []*agent.Agent {
	agents := make([]*agent.Agent, len(types))
	for i, typ := range types {
		agents[i] = agent.New(uint32(i), typ, "test", 100.0, agent.Params{
			NetworkInfluence: influence,
		}, uint64(i+1))
	}
	return agents
}

func emptyNetwork(n int) *Network {
	return BuildRandom(n, 0, rng.New(1))
}

func TestZeroShockLeavesBeliefsUnchanged(t *testing.T) {
	agents := buildAgents([]models.AgentType{models.AgentRetail, models.AgentInstitutional, models.AgentNoise}, 0.5)
	net := BuildRandom(len(agents), 1, rng.New(3))

	Propagate(agents, net, defaultConfig(), 0.0)
	for i, a := range agents {
		if a.Belief != 100.0 {
			t.Fatalf("agent %d belief changed on zero shock: %v", i, a.Belief)
		}
	}
}

func TestNegligibleShockIsNoOp(t *testing.T) {
	agents := buildAgents([]models.AgentType{models.AgentRetail}, 0.5)
	net := emptyNetwork(1)

	Propagate(agents, net, defaultConfig(), 1e-12)
	if agents[0].Belief != 100.0 {
		t.Fatalf("negligible shock must be skipped entirely, belief = %v", agents[0].Belief)
	}
}

// With no neighbors, each agent receives exactly the attention-weighted
// direct exposure.
func TestDirectExposureWeights(t *testing.T) {
	types := []models.AgentType{models.AgentRetail, models.AgentInstitutional, models.AgentNoise}
	agents := buildAgents(types, 0.0)
	net := emptyNetwork(len(agents))

	shock := 10.0
	Propagate(agents, net, defaultConfig(), shock)

	wants := []float64{
		0.6 * 1.2 * shock, // retail overweights salient news
		0.6 * 0.6 * shock, // institutions dampen
		0.6 * 0.9 * shock, // noise traders near neutral
	}
	for i, w := range wants {
		got := agents[i].Belief - 100.0
		if math.Abs(got-w) > 1e-12 {
			t.Fatalf("agent %d signal = %v, want %v", i, got, w)
		}
	}
	if agents[1].Belief >= agents[2].Belief || agents[2].Belief >= agents[0].Belief {
		t.Fatalf("attention ordering violated: %v", []float64{agents[0].Belief, agents[1].Belief, agents[2].Belief})
	}
}

// Social transmission adds a decayed fraction of the neighbors' round-0
// signal on top of direct exposure.
func TestSocialTransmissionAccumulates(t *testing.T) {
	types := []models.AgentType{models.AgentRetail, models.AgentRetail}
	influence := 0.5
	shock := 10.0

	connected := buildAgents(types, influence)
	net := &Network{offsets: []int{0, 1, 2}, IDs: []int{1, 0}} // 0 <-> 1
	Propagate(connected, net, defaultConfig(), shock)

	isolated := buildAgents(types, influence)
	Propagate(isolated, emptyNetwork(2), defaultConfig(), shock)

	for i := range connected {
		if connected[i].Belief <= isolated[i].Belief {
			t.Fatalf("agent %d gained nothing from social transmission", i)
		}
	}

	// Hand-rolled expectation for a symmetric pair: each round adds
	// decay(r) * influence * (neighbor signal from the previous round).
	direct := 0.6 * 1.2 * shock
	s0, s1 := direct, direct
	for round := 1; round <= 3; round++ {
		decay := math.Exp(-0.8 * float64(round))
		n0, n1 := decay*influence*s1, decay*influence*s0
		s0, s1 = s0+n0, s1+n1
	}
	if math.Abs(connected[0].Belief-100.0-s0) > 1e-9 {
		t.Fatalf("accumulated signal = %v, want %v", connected[0].Belief-100.0, s0)
	}
}

func TestLaterRoundsContributeLess(t *testing.T) {
	if temporalDecay(2) >= temporalDecay(1) || temporalDecay(3) >= temporalDecay(2) {
		t.Fatalf("temporal decay must be strictly decreasing")
	}
}

// Diffusion never touches the price path directly: it only mutates beliefs.
func TestProperty_ZeroShockConservation(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 50).Draw(t, "n")
		degree := rapid.IntRange(0, 4).Draw(t, "degree")

		types := make([]models.AgentType, n)
		for i := range types {
			types[i] = models.AgentType(rapid.IntRange(0, 2).Draw(t, "type"))
		}
		agents := buildAgents(types, 0.7)
		net := BuildRandom(n, degree, rng.New(rapid.Uint64().Draw(t, "seed")))

		before := make([]float64, n)
		for i, a := range agents {
			before[i] = a.Belief
		}

		Propagate(agents, net, defaultConfig(), 0.0)

		for i, a := range agents {
			if a.Belief != before[i] {
				t.Fatalf("belief %d changed under zero shock", i)
			}
		}
	})
}

func TestBuildRandomNetworkShape(t *testing.T) {
	n, degree := 50, 4
	net := BuildRandom(n, degree, rng.New(21))

	if net.Size() != n {
		t.Fatalf("size = %d, want %d", net.Size(), n)
	}
	for i := 0; i < n; i++ {
		nbrs := net.Neighbors(i)
		if len(nbrs) != degree {
			t.Fatalf("node %d degree = %d, want %d", i, len(nbrs), degree)
		}
		seen := make(map[int]bool, degree)
		for _, id := range nbrs {
			if id == i {
				t.Fatalf("node %d is its own neighbor", i)
			}
			if id < 0 || id >= n {
				t.Fatalf("node %d has out-of-range neighbor %d", i, id)
			}
			if seen[id] {
				t.Fatalf("node %d has duplicate neighbor %d", i, id)
			}
			seen[id] = true
		}
	}
}

func TestBuildRandomIsDeterministic(t *testing.T) {
	a := BuildRandom(30, 3, rng.New(5))
	b := BuildRandom(30, 3, rng.New(5))
	for i := 0; i < 30; i++ {
		na, nb := a.Neighbors(i), b.Neighbors(i)
		for k := range na {
			if na[k] != nb[k] {
				t.Fatalf("networks diverged at node %d", i)
			}
		}
	}
}

func TestBuildRandomClampsDegree(t *testing.T) {
	net := BuildRandom(3, 10, rng.New(2))
	for i := 0; i < 3; i++ {
		if net.Degree(i) != 2 {
			t.Fatalf("degree not clamped to n-1: %d", net.Degree(i))
		}
	}
}
