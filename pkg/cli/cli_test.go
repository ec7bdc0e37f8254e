package cli_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/m-mizutani/argubots/pkg/cli"
	"github.com/m-mizutani/argubots/pkg/model"
	"github.com/m-mizutani/gt"
)

const corpus = `Discussion Title: Are cats better pets than dogs?

1. Cats are better pets than dogs.
1.1. Pro: Cats are independent and need little attention during the day.
1.1.1. Con: Independent animals are less affectionate companions.
1.2. Con: Dogs can be trained to help people with disabilities.
1.2.1. Con: Cats can be trained too, they just choose not to obey.
1.2.2. Pro: Guide dogs give blind people real independence.
`

func writeCorpus(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	gt.NoError(t, os.WriteFile(filepath.Join(dir, "cats.txt"), []byte(corpus), 0644))
	return filepath.Join(dir, "*.txt")
}

func run(t *testing.T, args ...string) (string, *cli.Error) {
	t.Helper()
	var buf bytes.Buffer
	err := cli.Run(context.Background(), append([]string{"argubots"}, args...),
		cli.WithWriter(&buf), cli.WithErrWriter(io.Discard))
	return buf.String(), err
}

func TestClaimsClosest(t *testing.T) {
	out, err := run(t, "claims", "closest",
		"--corpus", writeCorpus(t),
		"--n", "1",
		"--kind", "has_cons",
		"--log-level", "error",
		"dogs help people with disabilities")
	gt.Nil(t, err)
	gt.S(t, out).Contains("1. Dogs can be trained to help people with disabilities.")
	gt.S(t, out).Contains("\tCon: Cats can be trained too, they just choose not to obey.")
	gt.S(t, out).NotContains("2. ")
}

func TestClaimsClosestRequiresCorpus(t *testing.T) {
	_, err := run(t, "claims", "closest", "--log-level", "error", "cats")
	gt.NotNil(t, err)
	gt.S(t, err.Message).Contains("corpus is required")
}

func TestErrorIsReported(t *testing.T) {
	var out, errOut bytes.Buffer
	err := cli.Run(context.Background(), []string{"argubots", "claims", "chain"},
		cli.WithWriter(&out), cli.WithErrWriter(&errOut))
	gt.NotNil(t, err)
	gt.Equal(t, err.Code, 1)
	gt.S(t, errOut.String()).Contains("Error: ")
	gt.S(t, errOut.String()).Contains("corpus is required")
}

func TestClaimsChain(t *testing.T) {
	out, err := run(t, "claims", "chain", "--corpus", writeCorpus(t), "--log-level", "error")
	gt.Nil(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	gt.True(t, len(lines) >= 2)
	gt.Equal(t, lines[0], "Cats are better pets than dogs.")
}

func TestInvalidOption(t *testing.T) {
	_, err := run(t, "claims", "chain", "--corpus", writeCorpus(t), "--ranker", "magic")
	gt.NotNil(t, err)
	gt.Equal(t, err.Code, 1)
	gt.S(t, err.Message).Contains("invalid option value")
}

func TestDebateAndTranscripts(t *testing.T) {
	pattern := writeCorpus(t)
	dsn := filepath.Join(t.TempDir(), "argubots.db")

	out, err := run(t, "debate",
		"--first", "Airhead",
		"--second", "Akiko",
		"--turns", "2",
		"--topic", "cats",
		"--corpus", pattern,
		"--db", "sqlite",
		"--dsn", dsn,
		"--log-level", "error")
	gt.Nil(t, err)
	gt.Equal(t, strings.Count(out, "(Airhead) I know right???"), 2)
	gt.Equal(t, strings.Count(out, "(Akiko) "), 2)
	gt.S(t, out).Contains("Score Airhead: 8.0")
	gt.S(t, out).Contains("turn 2 repeats turn 0")

	out, err = run(t, "transcript", "list", "--db", "sqlite", "--dsn", dsn, "--log-level", "error")
	gt.Nil(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	gt.A(t, lines).Length(1)
	gt.S(t, lines[0]).Contains("4 turns")
	gt.S(t, lines[0]).Contains("cats")
	id := strings.Split(lines[0], "\t")[0]

	out, err = run(t, "transcript", "show", "--db", "sqlite", "--dsn", dsn, "--json", "--log-level", "error", id)
	gt.Nil(t, err)
	var tr model.Transcript
	gt.NoError(t, json.Unmarshal([]byte(out), &tr))
	gt.Equal(t, string(tr.ID), id)
	gt.A(t, tr.Turns).Length(4)
	gt.A(t, tr.Evaluations).Length(2)

	out, err = run(t, "eval", "--db", "sqlite", "--dsn", dsn, "--max-length", "5", "--log-level", "error", id)
	gt.Nil(t, err)
	gt.S(t, out).Contains("is longer than 5 characters")
}

func TestDebateUnknownBot(t *testing.T) {
	_, err := run(t, "debate", "--first", "Airhead", "--second", "Nobody", "--log-level", "error")
	gt.NotNil(t, err)
	gt.S(t, err.Message).Contains("unknown bot")
}

func TestDebateWithBotsFile(t *testing.T) {
	bots := filepath.Join(t.TempDir(), "bots.yaml")
	gt.NoError(t, os.WriteFile(bots, []byte("bots:\n  - name: Bella\n"), 0644))

	_, err := run(t, "debate", "--first", "Airhead", "--second", "Bella", "--bots", bots, "--log-level", "error")
	gt.NotNil(t, err)
	gt.S(t, err.Message).Contains("bots file requires an LLM provider")
}

func TestEvalFile(t *testing.T) {
	d := model.NewDialogue().
		Add("Alice", "Do you like cats?").
		Add("Bob", "").
		Add("Alice", "Do you like cats?")
	data, err := json.Marshal(model.NewTranscript("cats", d))
	gt.NoError(t, err)

	path := filepath.Join(t.TempDir(), "transcript.json")
	gt.NoError(t, os.WriteFile(path, data, 0644))

	out, cliErr := run(t, "eval", "--file", path, "--log-level", "error")
	gt.Nil(t, cliErr)
	gt.S(t, out).Contains("Score Alice: 8.0")
	gt.S(t, out).Contains("Score Bob: 8.0")
	gt.S(t, out).Contains("turn 1 is empty")
}

func TestTranscriptRequiresDB(t *testing.T) {
	_, err := run(t, "transcript", "list", "--log-level", "error")
	gt.NotNil(t, err)
	gt.S(t, err.Message).Contains("db is required")
}
