package mcp

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/m-mizutani/argubots/pkg/model"
	"github.com/m-mizutani/argubots/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const defaultClosestClaims = 3

// Graph is the claim graph served by the tools.
type Graph interface {
	ClosestClaims(ctx context.Context, query string, n int, kind model.EdgeKind) ([]model.Claim, error)
	RandomChain(rng *rand.Rand) []model.Claim
	Has(c model.Claim) bool
	Pros(c model.Claim) []model.Claim
	Cons(c model.Claim) []model.Claim
}

type closestClaimsInput struct {
	Query string `json:"query" jsonschema:"Free text to find related debate claims for"`
	N     int    `json:"n,omitempty" jsonschema:"Maximum number of claims to return (default 3)"`
	Kind  string `json:"kind,omitempty" jsonschema:"Only return claims that have pros (has_pros), cons (has_cons) or any (default)"`
}

type closestClaimsOutput struct {
	Claims []string `json:"claims"`
}

type claimArgumentsInput struct {
	Claim string `json:"claim" jsonschema:"Exact text of a claim returned by another tool"`
}

type claimArgumentsOutput struct {
	Claim string   `json:"claim"`
	Pros  []string `json:"pros"`
	Cons  []string `json:"cons"`
}

type randomChainInput struct{}

type randomChainOutput struct {
	Chain []string `json:"chain"`
}

type handler struct {
	graph Graph
}

// NewServer builds an MCP server exposing claim lookup tools over graph.
// Run it with a transport, e.g. &mcp.StdioTransport{}.
func NewServer(graph Graph, version string) *mcp.Server {
	h := &handler{graph: graph}

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "argubots-claims",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "closest_claims",
		Description: "Find debate claims most similar to a text, best match first",
	}, h.closestClaims)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "claim_arguments",
		Description: "List the arguments in favor of and against a debate claim",
	}, h.claimArguments)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "random_chain",
		Description: "Walk from a random thesis down random pro/con arguments until a leaf",
	}, h.randomChain)

	return server
}

func (h *handler) closestClaims(ctx context.Context, req *mcp.CallToolRequest, in closestClaimsInput) (*mcp.CallToolResult, closestClaimsOutput, error) {
	if in.Query == "" {
		return nil, closestClaimsOutput{}, goerr.New("query is required")
	}
	n := in.N
	if n <= 0 {
		n = defaultClosestClaims
	}
	kind := model.EdgeKindAny
	if in.Kind != "" {
		kind = model.EdgeKind(in.Kind)
	}

	claims, err := h.graph.ClosestClaims(ctx, in.Query, n, kind)
	if err != nil {
		return nil, closestClaimsOutput{}, err
	}
	logging.From(ctx).Debug("closest_claims called", "query", in.Query, "results", len(claims))

	out := closestClaimsOutput{Claims: toStrings(claims)}
	text := "No matching claims found"
	if len(claims) > 0 {
		text = bulletList(fmt.Sprintf("Found %d claims:", len(claims)), out.Claims)
	}
	return textResult(text), out, nil
}

func (h *handler) claimArguments(ctx context.Context, req *mcp.CallToolRequest, in claimArgumentsInput) (*mcp.CallToolResult, claimArgumentsOutput, error) {
	c := model.Claim(in.Claim)
	if !h.graph.Has(c) {
		return nil, claimArgumentsOutput{}, goerr.New("unknown claim", goerr.V("claim", in.Claim))
	}

	out := claimArgumentsOutput{
		Claim: in.Claim,
		Pros:  toStrings(h.graph.Pros(c)),
		Cons:  toStrings(h.graph.Cons(c)),
	}
	text := fmt.Sprintf("%q\n%s\n%s", in.Claim,
		bulletList("In favor:", out.Pros),
		bulletList("Against:", out.Cons))
	return textResult(text), out, nil
}

func (h *handler) randomChain(ctx context.Context, req *mcp.CallToolRequest, in randomChainInput) (*mcp.CallToolResult, randomChainOutput, error) {
	chain := h.graph.RandomChain(nil)
	if len(chain) == 0 {
		return nil, randomChainOutput{}, goerr.New("claim graph is empty")
	}

	out := randomChainOutput{Chain: toStrings(chain)}
	return textResult(strings.Join(out.Chain, "\n  -> ")), out, nil
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}

func bulletList(header string, items []string) string {
	if len(items) == 0 {
		return header + " (none)"
	}
	return header + "\n* " + strings.Join(items, "\n* ")
}

func toStrings(claims []model.Claim) []string {
	s := make([]string, 0, len(claims))
	for _, c := range claims {
		s = append(s, c.String())
	}
	return s
}
