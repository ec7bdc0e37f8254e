package agent

import (
	"context"

	"github.com/m-mizutani/argubots/pkg/kialo"
	"github.com/m-mizutani/argubots/pkg/model"
	"github.com/m-mizutani/goerr/v2"
)

var (
	// ErrNoClaims is returned when the claim graph has nothing to answer
	// with. It usually means the corpus is too sparse for the query.
	ErrNoClaims = kialo.ErrNoClaims

	// ErrNoContent is returned when a chat completion carries no text.
	ErrNoContent = goerr.New("no content returned from chat completion")
)

// Agent produces the next turn of a dialogue. Response is called once per
// turn and must not modify d.
type Agent interface {
	Name() string
	Response(ctx context.Context, d model.Dialogue) (string, error)
}

// Constant always says the same thing.
type Constant struct {
	name  string
	reply string
}

func NewConstant(name, reply string) *Constant {
	return &Constant{name: name, reply: reply}
}

func (a *Constant) Name() string { return a.name }

func (a *Constant) Response(ctx context.Context, d model.Dialogue) (string, error) {
	return a.reply, nil
}
