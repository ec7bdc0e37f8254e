package evaluate_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/m-mizutani/argubots/pkg/model"
	"github.com/m-mizutani/argubots/pkg/usecase/evaluate"
	"github.com/m-mizutani/gt"
)

func TestEvaluateDefaultPolicy(t *testing.T) {
	ctx := context.Background()
	e, err := evaluate.New(ctx)
	gt.NoError(t, err)

	d := model.NewDialogue().
		Add("Alice", "Do you like cats?").
		Add("Bob", "I know right???").
		Add("Alice", "Do you like cats?").
		Add("Bob", "do you like cats?").
		Add("Alice", "   ").
		Add("Bob", "I know right???")

	evals, err := e.EvaluateAll(ctx, d)
	gt.NoError(t, err)
	gt.A(t, evals).Length(2)

	gt.Equal(t, evals[0].Speaker, "Alice")
	gt.Equal(t, evals[0].Violations, []string{"turn 2 repeats turn 0", "turn 4 is empty"})
	gt.Equal(t, evals[0].Score, 6.0)

	gt.Equal(t, evals[1].Speaker, "Bob")
	gt.Equal(t, evals[1].Violations, []string{"turn 3 echoes the opponent", "turn 5 repeats turn 1"})
	gt.Equal(t, evals[1].Score, 6.0)
}

func TestEvaluateCleanDialogue(t *testing.T) {
	ctx := context.Background()
	e, err := evaluate.New(ctx)
	gt.NoError(t, err)

	d := model.NewDialogue().
		Add("Alice", "Do you like cats?").
		Add("Bob", "Yes, they are independent.").
		Add("Alice", "Is independence what you want from a pet?")

	eval, err := e.Evaluate(ctx, d, "Alice")
	gt.NoError(t, err)
	gt.Equal(t, eval.Score, 10.0)
	gt.A(t, eval.Violations).Length(0)
}

func TestEvaluateMaxLength(t *testing.T) {
	ctx := context.Background()
	e, err := evaluate.New(ctx, evaluate.WithMaxLength(10))
	gt.NoError(t, err)

	d := model.NewDialogue().
		Add("Alice", "Short.").
		Add("Bob", "Okay.").
		Add("Alice", "This one is far too long.")

	eval, err := e.Evaluate(ctx, d, "Alice")
	gt.NoError(t, err)
	gt.Equal(t, eval.Violations, []string{"turn 2 is longer than 10 characters"})
	gt.Equal(t, eval.Score, 8.0)
}

func TestEvaluateScoreFloor(t *testing.T) {
	ctx := context.Background()
	e, err := evaluate.New(ctx)
	gt.NoError(t, err)

	d := model.NewDialogue()
	for i := 0; i < 8; i++ {
		d = d.Add("Airhead", "").Add("Bob", "Hello "+strings.Repeat("!", i))
	}

	eval, err := e.Evaluate(ctx, d, "Airhead")
	gt.NoError(t, err)
	gt.Equal(t, eval.Score, 0.0)
	gt.A(t, eval.Violations).Length(8)
}

func TestEvaluatePolicyDir(t *testing.T) {
	ctx := context.Background()

	t.Run("custom rules", func(t *testing.T) {
		dir := t.TempDir()
		policy := `package evaluate

violations contains msg if {
	some turn in input.turns
	turn.speaker == input.speaker
	contains(lower(turn.content), "dogs")
	msg := "mentions dogs"
}

score := 10 - count(violations)
`
		gt.NoError(t, os.WriteFile(filepath.Join(dir, "custom.rego"), []byte(policy), 0644))

		e, err := evaluate.New(ctx, evaluate.WithPolicyDir(dir))
		gt.NoError(t, err)

		eval, err := e.Evaluate(ctx, model.NewDialogue().Add("Alice", "Dogs are fine."), "Alice")
		gt.NoError(t, err)
		gt.Equal(t, eval.Score, 9.0)
		gt.Equal(t, eval.Violations, []string{"mentions dogs"})
	})

	t.Run("empty directory", func(t *testing.T) {
		_, err := evaluate.New(ctx, evaluate.WithPolicyDir(t.TempDir()))
		gt.Error(t, err)
	})

	t.Run("broken policy", func(t *testing.T) {
		dir := t.TempDir()
		gt.NoError(t, os.WriteFile(filepath.Join(dir, "broken.rego"), []byte("package evaluate\n\nscore := \n"), 0644))
		_, err := evaluate.New(ctx, evaluate.WithPolicyDir(dir))
		gt.Error(t, err)
	})

	t.Run("policy without score", func(t *testing.T) {
		dir := t.TempDir()
		gt.NoError(t, os.WriteFile(filepath.Join(dir, "noscore.rego"), []byte("package evaluate\n\nviolations := set()\n"), 0644))
		e, err := evaluate.New(ctx, evaluate.WithPolicyDir(dir))
		gt.NoError(t, err)
		_, err = e.Evaluate(ctx, model.NewDialogue().Add("Alice", "Hi"), "Alice")
		gt.Error(t, err)
	})
}
