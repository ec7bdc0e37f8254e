package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"
)

const version = "0.1.0"

type Error struct {
	Code    int
	Message string
}

// Option customizes the command tree, mainly for tests
type Option func(*cli.Command)

// WithWriter redirects normal command output
func WithWriter(w io.Writer) Option {
	return func(c *cli.Command) {
		c.Writer = w
	}
}

// WithErrWriter redirects error and progress output
func WithErrWriter(w io.Writer) Option {
	return func(c *cli.Command) {
		c.ErrWriter = w
	}
}

func Run(ctx context.Context, argv []string, opts ...Option) *Error {
	cmd := &cli.Command{
		Name:    "argubots",
		Usage:   "Argument bots that debate with claims from Kialo and LLMs",
		Version: version,
		Commands: []*cli.Command{
			chatCommand(),
			debateCommand(),
			evalCommand(),
			claimsCommand(),
			transcriptCommand(),
		},
	}
	for _, opt := range opts {
		opt(cmd)
	}

	if err := cmd.Run(ctx, argv); err != nil {
		w := cmd.ErrWriter
		if w == nil {
			w = os.Stderr
		}
		fmt.Fprintf(w, "Error: %s\n", err.Error())
		return &Error{
			Code:    1,
			Message: err.Error(),
		}
	}

	return nil
}
