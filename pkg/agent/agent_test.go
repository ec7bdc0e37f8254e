package agent_test

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"
	"sync"
	"testing"

	"github.com/m-mizutani/argubots/pkg/agent"
	"github.com/m-mizutani/argubots/pkg/kialo"
	"github.com/m-mizutani/argubots/pkg/model"
	"github.com/m-mizutani/gt"
)

const corpus = `Discussion Title: Should cities ban cars?

1. City centers should ban private cars.
1.1. Pro: Cars pollute the air in dense neighborhoods.
1.1.1. Con: Electric cars do not pollute the air where they drive.
1.1.2. Con: Buses also pollute the air.
1.2. Con: Shops lose customers who arrive by car.
1.2.1. Con: Pedestrian streets attract more shoppers than roads.
1.2.2. Pro: Delivery trucks would still need access to shops.
`

func loadGraph(t *testing.T) *kialo.Graph {
	t.Helper()
	g, err := kialo.Parse(context.Background(), "cars.txt", strings.NewReader(corpus))
	gt.NoError(t, err)
	return g
}

// fakeGraph resolves every query to a fixed set of claims.
type fakeGraph struct {
	closest []model.Claim
	cons    map[model.Claim][]model.Claim
	chain   []model.Claim
	queries []string
}

func (g *fakeGraph) RandomChain(rng *rand.Rand) []model.Claim { return g.chain }

func (g *fakeGraph) ClosestClaims(ctx context.Context, query string, n int, kind model.EdgeKind) ([]model.Claim, error) {
	g.queries = append(g.queries, query)
	if len(g.closest) > n {
		return g.closest[:n], nil
	}
	return g.closest, nil
}

func (g *fakeGraph) Cons(c model.Claim) []model.Claim { return g.cons[c] }

func TestConstant(t *testing.T) {
	a := agent.NewConstant("X", "hi")
	gt.Equal(t, a.Name(), "X")

	d := model.NewDialogue()
	for i := 0; i < 5; i++ {
		resp, err := a.Response(context.Background(), d)
		gt.NoError(t, err)
		gt.Equal(t, resp, "hi")
		d = d.Add("Someone", strings.Repeat("blah ", i))
	}
}

func TestClaimGraphAnswersWithCon(t *testing.T) {
	g := &fakeGraph{
		closest: []model.Claim{"C1"},
		cons:    map[model.Claim][]model.Claim{"C1": {"C1a", "C1b"}},
	}
	a := agent.NewClaimGraph("Akiko", g)
	d := model.NewDialogue().Add("User", "anything at all")

	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		resp, err := a.Response(context.Background(), d)
		gt.NoError(t, err)
		gt.True(t, resp == "C1a" || resp == "C1b")
		seen[resp] = true
	}
	gt.Equal(t, len(seen), 2)
}

func TestClaimGraphOpensWithChainHead(t *testing.T) {
	g := loadGraph(t)
	a := agent.NewClaimGraph("Akiko", g, agent.WithRand(rand.New(rand.NewPCG(1, 2))))

	resp, err := a.Response(context.Background(), model.NewDialogue())
	gt.NoError(t, err)
	// the only thesis is always the head of a random chain
	gt.Equal(t, resp, "City centers should ban private cars.")
}

func TestClaimGraphWithKialo(t *testing.T) {
	g := loadGraph(t)
	a := agent.NewClaimGraph("Akiko", g, agent.WithRand(rand.New(rand.NewPCG(3, 4))))
	d := model.NewDialogue().Add("User", "Cars make the air dirty, so we should ban them.")

	for i := 0; i < 20; i++ {
		resp, err := a.Response(context.Background(), d)
		gt.NoError(t, err)

		isCon := false
		for _, c := range g.Claims() {
			for _, con := range g.Cons(c) {
				if con.String() == resp {
					isCon = true
				}
			}
		}
		gt.True(t, isCon)
	}
}

func TestClaimGraphNoClaims(t *testing.T) {
	t.Run("nothing close", func(t *testing.T) {
		a := agent.NewClaimGraph("Akiko", &fakeGraph{})
		_, err := a.Response(context.Background(), model.NewDialogue().Add("User", "hello"))
		gt.Error(t, err)
		gt.True(t, errors.Is(err, agent.ErrNoClaims))
	})

	t.Run("empty graph", func(t *testing.T) {
		g := &fakeGraph{}
		a := agent.NewClaimGraph("Akiko", g)
		_, err := a.Response(context.Background(), model.NewDialogue())
		gt.True(t, errors.Is(err, agent.ErrNoClaims))
		// an opening turn comes from a chain, never from a similarity search
		gt.A(t, g.queries).Length(0)
	})
}

func TestQueryPolicies(t *testing.T) {
	d := model.NewDialogue().
		Add("A", "ab").
		Add("B", "c").
		Add("A", "d")

	gt.Equal(t, agent.LastTurn(d), "d")
	gt.Equal(t, agent.RepeatedHistory(d), "ab;cc;ddd")

	g := &fakeGraph{
		closest: []model.Claim{"C1"},
		cons:    map[model.Claim][]model.Claim{"C1": {"C1a"}},
	}
	_, err := agent.NewClaimGraph("Akiki", g, agent.WithQueryPolicy(agent.RepeatedHistory)).
		Response(context.Background(), d)
	gt.NoError(t, err)
	gt.Equal(t, g.queries, []string{"ab;cc;ddd"})
}

func TestClaimGraphConcurrentUse(t *testing.T) {
	g := loadGraph(t)
	a := agent.NewClaimGraph("Akiko", g)
	d := model.NewDialogue().Add("User", "Shops need customers with cars.")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := a.Response(context.Background(), d)
			gt.NoError(t, err)
		}()
	}
	wg.Wait()
}
