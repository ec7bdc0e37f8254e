package kialo

import (
	"math/rand/v2"

	"github.com/m-mizutani/argubots/pkg/model"
)

// RandomChain starts from a random thesis and repeatedly descends one random
// pro or con edge until it reaches a claim without children. Every element
// after the first is a pro or con of its predecessor. A claim never appears
// twice in the chain, which stops the walk on cyclic cross references.
//
// rng may be nil, in which case the global source is used. An empty graph
// yields nil.
func (g *Graph) RandomChain(rng *rand.Rand) []model.Claim {
	intN := rand.IntN
	if rng != nil {
		intN = rng.IntN
	}

	starts := g.roots
	if len(starts) == 0 {
		starts = g.claims
	}
	if len(starts) == 0 {
		return nil
	}

	cur := starts[intN(len(starts))]
	chain := []model.Claim{cur}
	visited := map[model.Claim]bool{cur: true}

	for {
		var next []model.Claim
		for _, c := range g.pros[cur] {
			if !visited[c] {
				next = append(next, c)
			}
		}
		for _, c := range g.cons[cur] {
			if !visited[c] {
				next = append(next, c)
			}
		}
		if len(next) == 0 {
			return chain
		}

		cur = next[intN(len(next))]
		visited[cur] = true
		chain = append(chain, cur)
	}
}
