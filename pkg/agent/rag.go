package agent

import (
	"context"

	"github.com/m-mizutani/argubots/pkg/adapter"
	"github.com/m-mizutani/argubots/pkg/model"
	"github.com/m-mizutani/argubots/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// ContextGraph is a claim graph that can also describe a claim for a prompt.
type ContextGraph interface {
	ClosestClaims(ctx context.Context, query string, n int, kind model.EdgeKind) ([]model.Claim, error)
	Context(c model.Claim) string
}

// RAG is an LLM agent that shows the model a related claim and its
// arguments before asking for the next turn.
type RAG struct {
	*LLM
	graph ContextGraph
}

func NewRAG(name string, client adapter.ChatClient, graph ContextGraph, opts ...LLMOption) *RAG {
	return &RAG{
		LLM:   NewLLM(name, client, opts...),
		graph: graph,
	}
}

func (a *RAG) Response(ctx context.Context, d model.Dialogue) (string, error) {
	return a.Complete(ctx, d, ChatOptions{})
}

func (a *RAG) Complete(ctx context.Context, d model.Dialogue, override ChatOptions) (string, error) {
	var extra []string
	if d.Len() > 0 {
		block, err := a.retrieve(ctx, d.At(-1).Content)
		if err != nil {
			return "", err
		}
		extra = append(extra, block)
	}

	return a.complete(ctx, a.messages(d, extra...), a.options.merge(override))
}

func (a *RAG) retrieve(ctx context.Context, query string) (string, error) {
	claims, err := a.graph.ClosestClaims(ctx, query, 1, model.EdgeKindHasCons)
	if err != nil {
		return "", goerr.Wrap(err, "failed to find closest claim", goerr.V("bot", a.name))
	}
	if len(claims) == 0 {
		return "", goerr.Wrap(ErrNoClaims, "no claim with counterarguments matched",
			goerr.V("bot", a.name),
			goerr.V("query", query))
	}

	logging.From(ctx).Debug("retrieved claim", "bot", a.name, "claim", claims[0].String())
	return a.graph.Context(claims[0]), nil
}
