package cli

import (
	"context"
	"encoding/json"
	"os"

	"github.com/m-mizutani/argubots/pkg/model"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func evalCommand() *cli.Command {
	var (
		cfg       config
		file      string
		policyDir string
		maxLength int64
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "file",
			Aliases:     []string{"f"},
			Usage:       "Transcript JSON file to evaluate instead of an archived transcript",
			Destination: &file,
		},
	}
	flags = append(flags, evalFlags(&policyDir, &maxLength)...)
	flags = append(flags, loggingFlags(&cfg)...)
	flags = append(flags, repositoryFlags(&cfg)...)

	return &cli.Command{
		Name:      "eval",
		Usage:     "Score a finished dialogue with the evaluation policy",
		ArgsUsage: "[transcript-id]",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			ctx = cfg.setupLogger(ctx)

			evaluator, err := newEvaluator(ctx, policyDir, maxLength)
			if err != nil {
				return err
			}

			if file != "" {
				t, err := readTranscript(file)
				if err != nil {
					return err
				}
				evals, err := evaluator.EvaluateAll(ctx, t.Dialogue())
				if err != nil {
					return err
				}
				printEvaluations(c.Root().Writer, evals)
				return nil
			}

			if c.Args().Len() == 0 {
				return goerr.New("transcript-id or --file is required")
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

			if t.Evaluations, err = evaluator.EvaluateAll(ctx, t.Dialogue()); err != nil {
				return err
			}
			printEvaluations(c.Root().Writer, t.Evaluations)

			if err := repo.PutTranscript(ctx, t); err != nil {
				return goerr.Wrap(err, "failed to update transcript")
			}
			return nil
		},
	}
}

func readTranscript(path string) (*model.Transcript, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read transcript file", goerr.V("path", path))
	}

	var t model.Transcript
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, goerr.Wrap(err, "failed to parse transcript file", goerr.V("path", path))
	}
	return &t, nil
}
