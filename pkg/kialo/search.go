package kialo

import (
	"context"
	"sort"

	"github.com/m-mizutani/argubots/pkg/model"
	"github.com/m-mizutani/goerr/v2"
)

// ErrNoClaims is returned by callers that require at least one closest claim
// when the graph has none of the requested kind.
var ErrNoClaims = goerr.New("no claims of the requested kind")

// Ranker scores every indexed claim against a query. Higher is more similar.
type Ranker interface {
	// Index prepares the ranker for the given claims. It is called once,
	// right after loading.
	Index(ctx context.Context, claims []model.Claim) error

	// Score returns one score per indexed claim, in index order.
	Score(ctx context.Context, query string) ([]float64, error)
}

func (g *Graph) buildIndex(ctx context.Context, r Ranker) error {
	if err := r.Index(ctx, g.claims); err != nil {
		return goerr.Wrap(err, "failed to index claims", goerr.V("claims", len(g.claims)))
	}
	g.ranker = r
	return nil
}

// ClosestClaims ranks the claims satisfying kind by similarity to query and
// returns at most n of them, best first. Equal scores keep the order in which
// claims were loaded. The result is empty, never an error, when no claim
// qualifies.
func (g *Graph) ClosestClaims(ctx context.Context, query string, n int, kind model.EdgeKind) ([]model.Claim, error) {
	if err := kind.Validate(); err != nil {
		return nil, err
	}
	if n <= 0 {
		return nil, nil
	}

	var candidates []int
	for i, c := range g.claims {
		if g.matches(c, kind) {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	scores, err := g.ranker.Score(ctx, query)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to score claims", goerr.V("query", query))
	}
	if len(scores) != len(g.claims) {
		return nil, goerr.New("ranker returned wrong number of scores",
			goerr.V("expected", len(g.claims)),
			goerr.V("actual", len(scores)))
	}

	sort.SliceStable(candidates, func(a, b int) bool {
		return scores[candidates[a]] > scores[candidates[b]]
	})

	if len(candidates) > n {
		candidates = candidates[:n]
	}
	result := make([]model.Claim, len(candidates))
	for i, idx := range candidates {
		result[i] = g.claims[idx]
	}
	return result, nil
}
