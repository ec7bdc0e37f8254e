package agent

import (
	"context"
	"math/rand/v2"
	"strings"
	"sync"

	"github.com/m-mizutani/argubots/pkg/model"
	"github.com/m-mizutani/argubots/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// neighborCount is how many close claims are considered before picking one.
const neighborCount = 3

// Graph is the part of a claim graph the agents read from.
type Graph interface {
	RandomChain(rng *rand.Rand) []model.Claim
	ClosestClaims(ctx context.Context, query string, n int, kind model.EdgeKind) ([]model.Claim, error)
	Cons(c model.Claim) []model.Claim
}

// QueryPolicy turns a non-empty dialogue into a claim search query.
type QueryPolicy func(d model.Dialogue) string

// LastTurn searches with the content of the latest turn only.
func LastTurn(d model.Dialogue) string {
	return d.At(-1).Content
}

// RepeatedHistory searches with every turn, where turn i is repeated i+1
// times so that later turns weigh more. Turns are joined by ";".
func RepeatedHistory(d model.Dialogue) string {
	parts := make([]string, 0, d.Len())
	for i, turn := range d.Turns() {
		parts = append(parts, strings.Repeat(turn.Content, i+1))
	}
	return strings.Join(parts, ";")
}

// ClaimGraph answers with counterarguments looked up in a claim graph. No
// language model is involved.
type ClaimGraph struct {
	name   string
	graph  Graph
	policy QueryPolicy

	mu  sync.Mutex
	rng *rand.Rand
}

type ClaimGraphOption func(*ClaimGraph)

// WithQueryPolicy replaces the default LastTurn policy
func WithQueryPolicy(policy QueryPolicy) ClaimGraphOption {
	return func(a *ClaimGraph) {
		a.policy = policy
	}
}

// WithRand sets the random source used to pick claims
func WithRand(rng *rand.Rand) ClaimGraphOption {
	return func(a *ClaimGraph) {
		a.rng = rng
	}
}

func NewClaimGraph(name string, graph Graph, opts ...ClaimGraphOption) *ClaimGraph {
	a := &ClaimGraph{
		name:   name,
		graph:  graph,
		policy: LastTurn,
		rng:    rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *ClaimGraph) Name() string { return a.name }

// Response opens with a random thesis on an empty dialogue. Otherwise it
// picks one of the closest claims that has counterarguments and answers
// with one of them.
func (a *ClaimGraph) Response(ctx context.Context, d model.Dialogue) (string, error) {
	if d.Len() == 0 {
		a.mu.Lock()
		chain := a.graph.RandomChain(a.rng)
		a.mu.Unlock()

		if len(chain) == 0 {
			return "", goerr.Wrap(ErrNoClaims, "claim graph is empty", goerr.V("bot", a.name))
		}
		return chain[0].String(), nil
	}

	query := a.policy(d)
	neighbors, err := a.graph.ClosestClaims(ctx, query, neighborCount, model.EdgeKindHasCons)
	if err != nil {
		return "", goerr.Wrap(err, "failed to find closest claims", goerr.V("bot", a.name))
	}
	if len(neighbors) == 0 {
		return "", goerr.Wrap(ErrNoClaims, "no claim with counterarguments matched",
			goerr.V("bot", a.name),
			goerr.V("query", query))
	}

	a.mu.Lock()
	neighbor := neighbors[a.rng.IntN(len(neighbors))]
	cons := a.graph.Cons(neighbor)
	var reply model.Claim
	if len(cons) > 0 {
		reply = cons[a.rng.IntN(len(cons))]
	}
	a.mu.Unlock()

	if len(cons) == 0 {
		return "", goerr.Wrap(ErrNoClaims, "closest claim has no counterarguments",
			goerr.V("bot", a.name),
			goerr.V("claim", neighbor))
	}

	logging.From(ctx).Info("chose similar claim", "bot", a.name, "claim", neighbor.String())
	return reply.String(), nil
}
