package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/m-mizutani/argubots/pkg/model"
	"github.com/m-mizutani/argubots/pkg/service/mcp"
	"github.com/m-mizutani/goerr/v2"
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/urfave/cli/v3"
)

func claimsCommand() *cli.Command {
	return &cli.Command{
		Name:  "claims",
		Usage: "Inspect the Kialo claim corpus",
		Commands: []*cli.Command{
			claimsClosestCommand(),
			claimsChainCommand(),
			claimsServeCommand(),
		},
	}
}

func claimsClosestCommand() *cli.Command {
	var (
		cfg  config
		n    int64
		kind string
	)

	flags := []cli.Flag{
		&cli.IntFlag{
			Name:        "n",
			Usage:       "Maximum number of claims",
			Value:       3,
			Destination: &n,
		},
		&cli.StringFlag{
			Name:        "kind",
			Usage:       "Only claims that have pros (has_pros), cons (has_cons) or any",
			Value:       string(model.EdgeKindAny),
			Destination: &kind,
		},
	}
	flags = append(flags, loggingFlags(&cfg)...)
	flags = append(flags, corpusFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)

	return &cli.Command{
		Name:      "closest",
		Usage:     "Show the claims most similar to a text",
		ArgsUsage: "<text>",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			ctx = cfg.setupLogger(ctx)

			if c.Args().Len() == 0 {
				return goerr.New("text is required")
			}
			query := strings.Join(c.Args().Slice(), " ")

			graph, err := cfg.requireGraph(ctx)
			if err != nil {
				return err
			}

			claims, err := graph.ClosestClaims(ctx, query, int(n), model.EdgeKind(kind))
			if err != nil {
				return err
			}

			w := c.Root().Writer
			for i, claim := range claims {
				fmt.Fprintf(w, "%d. %s\n", i+1, claim)
				for _, p := range graph.Pros(claim) {
					fmt.Fprintf(w, "\tPro: %s\n", p)
				}
				for _, con := range graph.Cons(claim) {
					fmt.Fprintf(w, "\tCon: %s\n", con)
				}
			}
			return nil
		},
	}
}

func claimsChainCommand() *cli.Command {
	var cfg config

	flags := []cli.Flag{}
	flags = append(flags, loggingFlags(&cfg)...)
	flags = append(flags, corpusFlags(&cfg)...)

	return &cli.Command{
		Name:  "chain",
		Usage: "Walk from a random thesis down random arguments",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			ctx = cfg.setupLogger(ctx)

			graph, err := cfg.requireGraph(ctx)
			if err != nil {
				return err
			}

			for i, claim := range graph.RandomChain(nil) {
				fmt.Fprintf(c.Root().Writer, "%s%s\n", strings.Repeat("  ", i), claim)
			}
			return nil
		},
	}
}

func claimsServeCommand() *cli.Command {
	var cfg config

	flags := []cli.Flag{}
	flags = append(flags, loggingFlags(&cfg)...)
	flags = append(flags, corpusFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)

	return &cli.Command{
		Name:  "serve",
		Usage: "Serve claim lookup tools over MCP (stdio)",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			ctx = cfg.setupLogger(ctx)

			graph, err := cfg.requireGraph(ctx)
			if err != nil {
				return err
			}

			server := mcp.NewServer(graph, version)
			if err := server.Run(ctx, &mcpsdk.StdioTransport{}); err != nil {
				return goerr.Wrap(err, "MCP server failed")
			}
			return nil
		},
	}
}
