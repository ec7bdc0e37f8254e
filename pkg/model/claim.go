package model

import (
	"github.com/m-mizutani/goerr/v2"
)

var (
	ErrInvalidEdgeKind = goerr.New("invalid edge kind")
)

// Claim is a single debate statement. The text itself identifies the node in
// the claim graph.
type Claim string

func (c Claim) String() string { return string(c) }

// EdgeKind restricts claim lookups to claims carrying a given kind of edge.
type EdgeKind string

const (
	EdgeKindHasPros EdgeKind = "has_pros"
	EdgeKindHasCons EdgeKind = "has_cons"
	EdgeKindAny     EdgeKind = "any"
)

// Validate checks if the edge kind is valid
func (k EdgeKind) Validate() error {
	switch k {
	case EdgeKindHasPros, EdgeKindHasCons, EdgeKindAny:
		return nil
	default:
		return goerr.Wrap(ErrInvalidEdgeKind, "unknown edge kind", goerr.V("kind", k))
	}
}

// Stance is the direction of an edge from a claim to one of its children.
type Stance string

const (
	StancePro Stance = "pro"
	StanceCon Stance = "con"
)
