package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/m-mizutani/argubots/pkg/adapter"
	"github.com/m-mizutani/argubots/pkg/model"
	"github.com/m-mizutani/argubots/pkg/usecase/debate"
	"github.com/m-mizutani/argubots/pkg/usecase/evaluate"
	"github.com/m-mizutani/argubots/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

// evalFlags returns flags for the Rego evaluation
func evalFlags(policyDir *string, maxLength *int64) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "policy-dir",
			Usage:       "Directory of Rego files replacing the built-in evaluation rules",
			Sources:     cli.EnvVars("ARGUBOTS_POLICY_DIR"),
			Destination: policyDir,
		},
		&cli.IntFlag{
			Name:        "max-length",
			Usage:       "Longest acceptable turn in characters (0 keeps the policy default)",
			Sources:     cli.EnvVars("ARGUBOTS_MAX_LENGTH"),
			Destination: maxLength,
		},
	}
}

func newEvaluator(ctx context.Context, policyDir string, maxLength int64) (*evaluate.Evaluator, error) {
	var opts []evaluate.Option
	if policyDir != "" {
		opts = append(opts, evaluate.WithPolicyDir(policyDir))
	}
	if maxLength > 0 {
		opts = append(opts, evaluate.WithMaxLength(int(maxLength)))
	}
	return evaluate.New(ctx, opts...)
}

func debateCommand() *cli.Command {
	var (
		cfg       config
		first     string
		second    string
		topic     string
		turns     int64
		noEval    bool
		policyDir string
		maxLength int64
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "first",
			Usage:       "Bot that opens the dialogue",
			Required:    true,
			Destination: &first,
		},
		&cli.StringFlag{
			Name:        "second",
			Usage:       "Bot that answers",
			Required:    true,
			Destination: &second,
		},
		&cli.StringFlag{
			Name:        "topic",
			Usage:       "Topic recorded with the transcript",
			Destination: &topic,
		},
		&cli.IntFlag{
			Name:        "turns",
			Aliases:     []string{"t"},
			Usage:       "Number of turns for each bot",
			Value:       debate.DefaultTurns,
			Sources:     cli.EnvVars("ARGUBOTS_TURNS"),
			Destination: &turns,
		},
		&cli.BoolFlag{
			Name:        "no-eval",
			Usage:       "Do not score the dialogue",
			Destination: &noEval,
		},
	}
	flags = append(flags, evalFlags(&policyDir, &maxLength)...)
	flags = append(flags, loggingFlags(&cfg)...)
	flags = append(flags, corpusFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)
	flags = append(flags, repositoryFlags(&cfg)...)
	flags = append(flags, storageFlags(&cfg)...)

	return &cli.Command{
		Name:  "debate",
		Usage: "Let two bots argue with each other",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			ctx = cfg.setupLogger(ctx)

			catalogue, err := cfg.newCatalogue(ctx)
			if err != nil {
				return err
			}
			a, err := catalogue.Get(first)
			if err != nil {
				return err
			}
			b, err := catalogue.Get(second)
			if err != nil {
				return err
			}
			if a.Name() == b.Name() {
				return goerr.New("a bot cannot debate itself", goerr.V("bot", a.Name()))
			}

			var evaluator *evaluate.Evaluator
			if !noEval {
				if evaluator, err = newEvaluator(ctx, policyDir, maxLength); err != nil {
					return err
				}
			}

			w := c.Root().Writer
			d, err := debate.Run(ctx, a, b,
				debate.WithTurns(int(turns)),
				debate.WithTurnHook(func(ctx context.Context, turn model.Turn) {
					fmt.Fprintf(w, "(%s) %s\n\n", turn.Speaker, turn.Content)
				}),
			)
			if err != nil {
				return goerr.Wrap(err, "debate failed", goerr.V("turns", d.Len()))
			}

			t := model.NewTranscript(topic, d)
			if evaluator != nil {
				if t.Evaluations, err = evaluator.EvaluateAll(ctx, d); err != nil {
					return err
				}
				printEvaluations(w, t.Evaluations)
			}

			return archive(ctx, &cfg, t)
		},
	}
}

func printEvaluations(w io.Writer, evals []*model.Evaluation) {
	for _, e := range evals {
		fmt.Fprintf(w, "Score %s: %.1f\n", e.Speaker, e.Score)
		for _, v := range e.Violations {
			fmt.Fprintf(w, "  - %s\n", v)
		}
	}
}

// archive stores t in the configured repository and exports it to the
// configured bucket. Both are optional.
func archive(ctx context.Context, cfg *config, t *model.Transcript) error {
	logger := logging.From(ctx)

	repo, err := cfg.newRepository(ctx)
	if err != nil {
		return err
	}
	if repo != nil {
		if err := repo.PutTranscript(ctx, t); err != nil {
			return goerr.Wrap(err, "failed to save transcript")
		}
		logger.Info("transcript saved", "id", t.ID, "db", cfg.dbType)
	}

	storage, err := cfg.newStorage(ctx)
	if err != nil {
		return err
	}
	if storage != nil {
		key := string(t.ID) + ".json"
		if err := adapter.PutJSON(ctx, storage, key, t); err != nil {
			return goerr.Wrap(err, "failed to export transcript", goerr.V("bucket", cfg.bucket))
		}
		logger.Info("transcript exported", "bucket", cfg.bucket, "key", cfg.prefix+key)
	}
	return nil
}
