package diffusion

import "jumpsim/internal/rng"

// Network is the population-owned neighbor adjacency, stored as a flattened
// offsets+ids table. Agents hold sub-slice views into IDs rather than owning
// neighbor storage of their own.
type Network struct {
	offsets []int // len n+1; neighbors of i are IDs[offsets[i]:offsets[i+1]]
	IDs     []int
}

// BuildRandom wires a random directed graph where every agent observes
// `degree` neighbors drawn uniformly without replacement (excluding itself).
// A degree of zero yields an empty network, which disables herding and
// social transmission entirely.
func BuildRandom(n, degree int, stream *rng.Stream) *Network {
	if degree > n-1 {
		degree = n - 1
	}
	if degree < 0 {
		degree = 0
	}

	net := &Network{
		offsets: make([]int, n+1),
		IDs:     make([]int, 0, n*degree),
	}

	picked := make(map[int]bool, degree)
	for i := 0; i < n; i++ {
		net.offsets[i] = len(net.IDs)
		for k := range picked {
			delete(picked, k)
		}
		for len(picked) < degree {
			j := int(stream.Uint64() % uint64(n))
			if j == i || picked[j] {
				continue
			}
			picked[j] = true
			net.IDs = append(net.IDs, j)
		}
	}
	net.offsets[n] = len(net.IDs)
	return net
}

// Size returns the number of nodes.
func (n *Network) Size() int { return len(n.offsets) - 1 }

// Neighbors returns the neighbor ids of node i as a non-owning view.
func (n *Network) Neighbors(i int) []int {
	return n.IDs[n.offsets[i]:n.offsets[i+1]]
}

// Degree returns the number of neighbors of node i.
func (n *Network) Degree(i int) int {
	return n.offsets[i+1] - n.offsets[i]
}
