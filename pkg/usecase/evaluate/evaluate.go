package evaluate

import (
	"context"
	_ "embed"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"

	"github.com/m-mizutani/argubots/pkg/model"
	"github.com/m-mizutani/argubots/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/open-policy-agent/opa/v1/rego"
	"github.com/open-policy-agent/opa/v1/topdown/print"
)

//go:embed policy/evaluate.rego
var defaultPolicy string

const query = "data.evaluate"

type regoPrintHook struct{}

func (h *regoPrintHook) Print(ctx print.Context, message string) error {
	logger := logging.Default()
	if ctx.Context != nil {
		logger = logging.From(ctx.Context)
	}
	logger.Debug("rego print", "message", message)
	return nil
}

// Evaluator scores the turns of one speaker with Rego rules. The policy must
// define score and violations in package evaluate.
type Evaluator struct {
	query     rego.PreparedEvalQuery
	maxLength int
}

type options struct {
	policyDir string
	maxLength int
}

type Option func(*options)

// WithPolicyDir replaces the built-in rules with every .rego file in dir
func WithPolicyDir(dir string) Option {
	return func(o *options) {
		o.policyDir = dir
	}
}

// WithMaxLength sets the longest acceptable turn in characters
func WithMaxLength(n int) Option {
	return func(o *options) {
		o.maxLength = n
	}
}

func New(ctx context.Context, opts ...Option) (*Evaluator, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	modules := []func(*rego.Rego){rego.Module("evaluate.rego", defaultPolicy)}
	if o.policyDir != "" {
		loaded, err := loadPolicies(o.policyDir)
		if err != nil {
			return nil, err
		}
		modules = loaded
	}

	regoOpts := make([]func(*rego.Rego), 0, len(modules)+1)
	regoOpts = append(regoOpts, rego.Query(query))
	regoOpts = append(regoOpts, modules...)

	prepared, err := rego.New(regoOpts...).PrepareForEval(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to prepare evaluation policy", goerr.V("policy_dir", o.policyDir))
	}

	return &Evaluator{query: prepared, maxLength: o.maxLength}, nil
}

// loadPolicies reads all Rego files from policyDir
func loadPolicies(policyDir string) ([]func(*rego.Rego), error) {
	files, err := filepath.Glob(filepath.Join(policyDir, "*.rego"))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to glob policy files")
	}
	if len(files) == 0 {
		return nil, goerr.New("no policy file found", goerr.V("policy_dir", policyDir))
	}

	modules := make([]func(*rego.Rego), 0, len(files))
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to read policy file", goerr.V("path", file))
		}
		modules = append(modules, rego.Module(file, string(data)))
	}
	return modules, nil
}

// Evaluate scores the turns of speaker in d.
func (e *Evaluator) Evaluate(ctx context.Context, d model.Dialogue, speaker string) (*model.Evaluation, error) {
	input := map[string]any{
		"speaker": speaker,
		"turns":   d.Turns(),
	}
	if e.maxLength > 0 {
		input["max_length"] = e.maxLength
	}

	rs, err := e.query.Eval(ctx, rego.EvalInput(input), rego.EvalPrintHook(&regoPrintHook{}))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to evaluate dialogue", goerr.V("speaker", speaker))
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return nil, goerr.New("evaluation policy returned no result", goerr.V("speaker", speaker))
	}

	data, ok := rs[0].Expressions[0].Value.(map[string]any)
	if !ok {
		return nil, goerr.New("invalid evaluation result", goerr.V("result", rs[0].Expressions[0].Value))
	}

	score, err := toFloat(data["score"])
	if err != nil {
		return nil, goerr.Wrap(err, "invalid score in evaluation result", goerr.V("speaker", speaker))
	}

	eval := &model.Evaluation{
		Speaker: speaker,
		Score:   score,
	}
	if raw, ok := data["violations"].([]any); ok {
		for _, v := range raw {
			if s, ok := v.(string); ok {
				eval.Violations = append(eval.Violations, s)
			}
		}
	}
	sort.Strings(eval.Violations)

	logging.From(ctx).Debug("evaluated dialogue",
		"speaker", speaker,
		"score", eval.Score,
		"violations", len(eval.Violations))
	return eval, nil
}

// EvaluateAll scores every speaker of d, in order of first appearance.
func (e *Evaluator) EvaluateAll(ctx context.Context, d model.Dialogue) ([]*model.Evaluation, error) {
	var evals []*model.Evaluation
	for _, speaker := range d.Speakers() {
		eval, err := e.Evaluate(ctx, d, speaker)
		if err != nil {
			return nil, err
		}
		evals = append(evals, eval)
	}
	return evals, nil
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, goerr.Wrap(err, "failed to parse number", goerr.V("value", n))
		}
		return f, nil
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	default:
		return 0, goerr.New("score is not a number", goerr.V("value", v))
	}
}
