package adapter

import (
	"context"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/m-mizutani/goerr/v2"
)

const defaultClaudeMaxTokens = 1024

// claudeClient implements ChatClient with the Anthropic Messages API
type claudeClient struct {
	client *anthropic.Client
	model  string
}

type ClaudeOption func(*claudeClient)

// WithClaudeModel sets the default model used when a request does not name one
func WithClaudeModel(model string) ClaudeOption {
	return func(c *claudeClient) {
		c.model = model
	}
}

// NewClaude creates a new Claude API client
func NewClaude(apiKey string, opts ...ClaudeOption) ChatClient {
	client := anthropic.NewClient(
		option.WithAPIKey(apiKey),
	)
	c := &claudeClient{
		client: &client,
		model:  "claude-sonnet-4-5",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *claudeClient) Complete(ctx context.Context, req *ChatRequest) (*Completion, error) {
	params := toClaudeParams(req, c.model)

	msg, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create claude message", goerr.V("model", params.Model))
	}

	return fromClaudeMessage(msg), nil
}

func toClaudeParams(req *ChatRequest, defaultModel string) anthropic.MessageNewParams {
	system, messages := splitSystem(req.Messages)

	model := req.Model
	if model == "" {
		model = defaultModel
	}
	maxTokens := int64(req.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = defaultClaudeMaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: maxTokens,
		Messages:  make([]anthropic.MessageParam, 0, len(messages)),
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}
	if req.Temperature != nil {
		params.Temperature = anthropic.Float(*req.Temperature)
	}
	if req.TopP != nil {
		params.TopP = anthropic.Float(*req.TopP)
	}

	for _, m := range messages {
		block := anthropic.NewTextBlock(m.Content)
		if m.Role == RoleAssistant {
			params.Messages = append(params.Messages, anthropic.NewAssistantMessage(block))
		} else {
			params.Messages = append(params.Messages, anthropic.NewUserMessage(block))
		}
	}
	return params
}

func fromClaudeMessage(msg *anthropic.Message) *Completion {
	completion := &Completion{FinishReason: FinishReasonOther}
	if msg == nil {
		return completion
	}

	switch msg.StopReason {
	case anthropic.StopReasonEndTurn, anthropic.StopReasonStopSequence:
		completion.FinishReason = FinishReasonStop
	case anthropic.StopReasonMaxTokens:
		completion.FinishReason = FinishReasonLength
	}

	var text strings.Builder
	found := false
	for _, block := range msg.Content {
		if block.Type == "text" {
			found = true
			text.WriteString(block.Text)
		}
	}
	if found {
		s := text.String()
		completion.Content = &s
	}
	return completion
}
