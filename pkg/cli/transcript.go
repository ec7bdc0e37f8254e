package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/m-mizutani/argubots/pkg/model"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func transcriptCommand() *cli.Command {
	return &cli.Command{
		Name:  "transcript",
		Usage: "Browse archived dialogues",
		Commands: []*cli.Command{
			transcriptListCommand(),
			transcriptShowCommand(),
		},
	}
}

func transcriptListCommand() *cli.Command {
	var (
		cfg    config
		offset int64
		limit  int64
	)

	flags := []cli.Flag{
		&cli.IntFlag{
			Name:        "offset",
			Usage:       "Offset for pagination",
			Value:       0,
			Sources:     cli.EnvVars("ARGUBOTS_LIST_OFFSET"),
			Destination: &offset,
		},
		&cli.IntFlag{
			Name:        "limit",
			Usage:       "Maximum number of transcripts to list",
			Value:       20,
			Sources:     cli.EnvVars("ARGUBOTS_LIST_LIMIT"),
			Destination: &limit,
		},
	}
	flags = append(flags, loggingFlags(&cfg)...)
	flags = append(flags, repositoryFlags(&cfg)...)

	return &cli.Command{
		Name:  "list",
		Usage: "List archived transcripts, newest first",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			ctx = cfg.setupLogger(ctx)

			repo, err := cfg.requireRepository(ctx)
			if err != nil {
				return err
			}

			transcripts, err := repo.ListTranscripts(ctx, int(offset), int(limit))
			if err != nil {
				return goerr.Wrap(err, "failed to list transcripts")
			}

			for _, t := range transcripts {
				fmt.Fprintf(c.Root().Writer, "%s\t%s\t%v\t%d turns\t%s\n",
					t.ID,
					t.CreatedAt.Format("2006-01-02 15:04:05"),
					t.Participants,
					len(t.Turns),
					t.Topic)
			}
			return nil
		},
	}
}

func transcriptShowCommand() *cli.Command {
	var (
		cfg    config
		asJSON bool
	)

	flags := []cli.Flag{
		&cli.BoolFlag{
			Name:        "json",
			Usage:       "Print the transcript as JSON",
			Destination: &asJSON,
		},
	}
	flags = append(flags, loggingFlags(&cfg)...)
	flags = append(flags, repositoryFlags(&cfg)...)

	return &cli.Command{
		Name:      "show",
		Usage:     "Show an archived transcript",
		ArgsUsage: "<transcript-id>",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			ctx = cfg.setupLogger(ctx)

			if c.Args().Len() == 0 {
				return goerr.New("transcript-id is required")
			}
			id := model.TranscriptID(c.Args().Get(0))

			repo, err := cfg.requireRepository(ctx)
			if err != nil {
				return err
			}
			t, err := repo.GetTranscript(ctx, id)
			if err != nil {
				return goerr.Wrap(err, "failed to get transcript")
			}

			w := c.Root().Writer
			if asJSON {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(t)
			}

			fmt.Fprintf(w, "ID: %s\nTopic: %s\nCreated: %s\n\n", t.ID, t.Topic, t.CreatedAt.Format("2006-01-02 15:04:05"))
			fmt.Fprintf(w, "%s\n\n", t.Dialogue())
			printEvaluations(w, t.Evaluations)
			return nil
		},
	}
}
