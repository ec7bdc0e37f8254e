package kialo

import (
	"strings"

	"github.com/m-mizutani/argubots/pkg/model"
)

// Graph is a read-only pro/con argument graph loaded from Kialo exports.
// After Load returns, a Graph is never modified and may be shared between
// goroutines.
type Graph struct {
	claims []model.Claim
	seen   map[model.Claim]int
	pros   map[model.Claim][]model.Claim
	cons   map[model.Claim][]model.Claim
	roots  []model.Claim
	titles []string

	// cross references whose target was never defined
	dangling []string

	ranker Ranker
}

func newGraph() *Graph {
	return &Graph{
		seen: make(map[model.Claim]int),
		pros: make(map[model.Claim][]model.Claim),
		cons: make(map[model.Claim][]model.Claim),
	}
}

func (g *Graph) addClaim(c model.Claim) {
	if _, ok := g.seen[c]; ok {
		return
	}
	g.seen[c] = len(g.claims)
	g.claims = append(g.claims, c)
}

func (g *Graph) addRoot(c model.Claim) {
	g.addClaim(c)
	for _, r := range g.roots {
		if r == c {
			return
		}
	}
	g.roots = append(g.roots, c)
}

func (g *Graph) addEdge(parent, child model.Claim, stance model.Stance) {
	g.addClaim(parent)
	g.addClaim(child)

	edges := g.pros
	if stance == model.StanceCon {
		edges = g.cons
	}
	for _, c := range edges[parent] {
		if c == child {
			return
		}
	}
	edges[parent] = append(edges[parent], child)
}

// Len returns the number of distinct claims.
func (g *Graph) Len() int { return len(g.claims) }

// Claims returns all claims in the order they were first seen.
func (g *Graph) Claims() []model.Claim {
	return append([]model.Claim(nil), g.claims...)
}

// Roots returns the theses of the loaded discussions.
func (g *Graph) Roots() []model.Claim {
	return append([]model.Claim(nil), g.roots...)
}

// Titles returns the discussion titles found in the loaded files.
func (g *Graph) Titles() []string {
	return append([]string(nil), g.titles...)
}

// Has reports whether c is a node of the graph.
func (g *Graph) Has(c model.Claim) bool {
	_, ok := g.seen[c]
	return ok
}

// Pros returns the claims supporting c.
func (g *Graph) Pros(c model.Claim) []model.Claim {
	return append([]model.Claim(nil), g.pros[c]...)
}

// Cons returns the claims opposing c.
func (g *Graph) Cons(c model.Claim) []model.Claim {
	return append([]model.Claim(nil), g.cons[c]...)
}

func (g *Graph) matches(c model.Claim, kind model.EdgeKind) bool {
	switch kind {
	case model.EdgeKindHasPros:
		return len(g.pros[c]) > 0
	case model.EdgeKindHasCons:
		return len(g.cons[c]) > 0
	default:
		return true
	}
}

// Context renders c together with its pro and con arguments as a text block
// suitable for adding to a language model prompt.
func (g *Graph) Context(c model.Claim) string {
	var b strings.Builder
	b.WriteString("One possibly related claim from the Kialo debate website:\n\t\"")
	b.WriteString(string(c))
	b.WriteString("\"")

	writeList := func(header string, claims []model.Claim) {
		if len(claims) == 0 {
			return
		}
		b.WriteString("\n")
		b.WriteString(header)
		for _, arg := range claims {
			b.WriteString("\n\t* ")
			b.WriteString(string(arg))
		}
	}
	writeList("Some arguments from other Kialo users in favor of that claim:", g.pros[c])
	writeList("Some arguments from other Kialo users against that claim:", g.cons[c])

	return b.String()
}

// merge adds every node and edge of o into g, keeping g's ordering first.
func (g *Graph) merge(o *Graph) {
	g.titles = append(g.titles, o.titles...)
	g.dangling = append(g.dangling, o.dangling...)
	for _, c := range o.claims {
		g.addClaim(c)
	}
	for _, r := range o.roots {
		g.addRoot(r)
	}
	for _, c := range o.claims {
		for _, p := range o.pros[c] {
			g.addEdge(c, p, model.StancePro)
		}
		for _, n := range o.cons[c] {
			g.addEdge(c, n, model.StanceCon)
		}
	}
}
