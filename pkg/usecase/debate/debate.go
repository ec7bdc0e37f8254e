package debate

import (
	"context"
	"errors"

	"github.com/m-mizutani/argubots/pkg/agent"
	"github.com/m-mizutani/argubots/pkg/model"
	"github.com/m-mizutani/argubots/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// DefaultTurns is the number of turns each agent takes by default.
const DefaultTurns = 4

// ErrStop can be returned by an agent to end the dialogue early without an
// error, e.g. when a human participant quits.
var ErrStop = errors.New("stop dialogue")

type options struct {
	turns  int
	prefix model.Dialogue
	onTurn func(ctx context.Context, turn model.Turn)
}

type Option func(*options)

// WithTurns sets how many turns each agent takes
func WithTurns(n int) Option {
	return func(o *options) {
		o.turns = n
	}
}

// WithPrefix starts the debate from an existing dialogue
func WithPrefix(d model.Dialogue) Option {
	return func(o *options) {
		o.prefix = d
	}
}

// WithTurnHook is called after every appended turn
func WithTurnHook(fn func(ctx context.Context, turn model.Turn)) Option {
	return func(o *options) {
		o.onTurn = fn
	}
}

// Run lets first and second speak alternately, first opening. Each agent
// takes the configured number of turns. When an agent fails the dialogue
// built so far is returned together with the error.
func Run(ctx context.Context, first, second agent.Agent, opts ...Option) (model.Dialogue, error) {
	o := &options{turns: DefaultTurns}
	for _, opt := range opts {
		opt(o)
	}
	if o.turns < 0 {
		return o.prefix, goerr.New("number of turns must not be negative", goerr.V("turns", o.turns))
	}

	logger := logging.From(ctx)
	d := o.prefix
	speakers := [2]agent.Agent{first, second}

	for i := 0; i < 2*o.turns; i++ {
		if err := ctx.Err(); err != nil {
			return d, goerr.Wrap(err, "dialogue interrupted", goerr.V("turn", d.Len()))
		}

		a := speakers[i%2]
		content, err := a.Response(ctx, d)
		if errors.Is(err, ErrStop) {
			logger.Info("dialogue stopped", "by", a.Name(), "turns", d.Len())
			return d, nil
		}
		if err != nil {
			return d, goerr.Wrap(err, "agent failed to respond",
				goerr.V("bot", a.Name()),
				goerr.V("turn", d.Len()))
		}

		d = d.Add(a.Name(), content)
		turn := d.At(-1)
		logger.Info("turn", "speaker", turn.Speaker, "content", turn.Content)
		if o.onTurn != nil {
			o.onTurn(ctx, turn)
		}
	}

	return d, nil
}
