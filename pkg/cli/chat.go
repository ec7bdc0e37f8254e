package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/chzyer/readline"
	"github.com/m-mizutani/argubots/pkg/agent"
	"github.com/m-mizutani/argubots/pkg/model"
	"github.com/m-mizutani/argubots/pkg/usecase/debate"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

// humanAgent reads the turns of the person at the terminal
type humanAgent struct {
	name string
	rl   *readline.Instance
}

func (h *humanAgent) Name() string { return h.name }

func (h *humanAgent) Response(ctx context.Context, d model.Dialogue) (string, error) {
	for {
		line, err := h.rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
			return "", debate.ErrStop
		}
		if err != nil {
			return "", goerr.Wrap(err, "failed to read input")
		}

		line = strings.TrimSpace(line)
		switch line {
		case "":
			continue
		case "exit", "quit":
			return "", debate.ErrStop
		}
		return line, nil
	}
}

// thinkingAgent shows a spinner while the wrapped bot works
type thinkingAgent struct {
	agent.Agent
	w io.Writer
}

func (a *thinkingAgent) Response(ctx context.Context, d model.Dialogue) (string, error) {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(a.w))
	s.Suffix = " " + a.Name() + " is thinking..."
	s.Start()
	defer s.Stop()

	return a.Agent.Response(ctx, d)
}

func chatCommand() *cli.Command {
	var (
		cfg      config
		botName  string
		userName string
		topic    string
		turns    int64
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "bot",
			Aliases:     []string{"b"},
			Usage:       "Bot to chat with",
			Value:       "Alice",
			Sources:     cli.EnvVars("ARGUBOTS_BOT"),
			Destination: &botName,
		},
		&cli.StringFlag{
			Name:        "name",
			Aliases:     []string{"n"},
			Usage:       "Your speaker name in the dialogue",
			Value:       "Human",
			Sources:     cli.EnvVars("ARGUBOTS_USER_NAME"),
			Destination: &userName,
		},
		&cli.StringFlag{
			Name:        "topic",
			Usage:       "Topic recorded with the transcript",
			Destination: &topic,
		},
		&cli.IntFlag{
			Name:        "turns",
			Usage:       "Maximum number of turns for each side",
			Value:       10,
			Destination: &turns,
		},
	}
	flags = append(flags, loggingFlags(&cfg)...)
	flags = append(flags, corpusFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)
	flags = append(flags, repositoryFlags(&cfg)...)
	flags = append(flags, storageFlags(&cfg)...)

	return &cli.Command{
		Name:  "chat",
		Usage: "Talk with a bot in the terminal. Type 'exit' to quit",
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
			bot, err := catalogue.Get(botName)
			if err != nil {
				return err
			}
			if userName == bot.Name() {
				return goerr.New("your name must differ from the bot name", goerr.V("name", userName))
			}

			rl, err := readline.NewEx(&readline.Config{
				Prompt:          userName + "> ",
				InterruptPrompt: "^C",
				EOFPrompt:       "exit",
			})
			if err != nil {
				return goerr.Wrap(err, "failed to initialize readline")
			}
			defer rl.Close()

			w := c.Root().Writer
			fmt.Fprintf(w, "Chatting with %s. Type 'exit' to quit.\n\n", bot.Name())

			d, err := debate.Run(ctx,
				&thinkingAgent{Agent: bot, w: c.Root().ErrWriter},
				&humanAgent{name: userName, rl: rl},
				debate.WithTurns(int(turns)),
				debate.WithTurnHook(func(ctx context.Context, turn model.Turn) {
					if turn.Speaker == bot.Name() {
						fmt.Fprintf(w, "(%s) %s\n\n", turn.Speaker, turn.Content)
					}
				}),
			)
			if err != nil {
				return goerr.Wrap(err, "chat failed")
			}

			fmt.Fprintf(w, "\nChat session completed\n")
			return archive(ctx, &cfg, model.NewTranscript(topic, d))
		},
	}
}
