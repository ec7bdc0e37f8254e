package adapter

import (
	"context"

	"github.com/cloudwego/eino-ext/components/model/openai"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/m-mizutani/goerr/v2"
)

// messageGenerator is the part of an eino chat model the adapter relies on.
type messageGenerator interface {
	Generate(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.Message, error)
}

// openAIClient implements ChatClient for OpenAI and OpenAI compatible
// endpoints through the eino OpenAI chat model.
type openAIClient struct {
	model messageGenerator
}

// NewOpenAI creates a chat client for an OpenAI compatible endpoint. baseURL
// may be empty to use api.openai.com.
func NewOpenAI(ctx context.Context, apiKey, baseURL, model string) (ChatClient, error) {
	cfg := &openai.ChatModelConfig{
		APIKey: apiKey,
		Model:  model,
	}
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}

	chatModel, err := openai.NewChatModel(ctx, cfg)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create openai chat model", goerr.V("model", model))
	}
	return &openAIClient{model: chatModel}, nil
}

func (c *openAIClient) Complete(ctx context.Context, req *ChatRequest) (*Completion, error) {
	input, opts := toEinoRequest(req)

	msg, err := c.model.Generate(ctx, input, opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to generate chat completion", goerr.V("model", req.Model))
	}
	return fromEinoMessage(msg), nil
}

func toEinoRequest(req *ChatRequest) ([]*schema.Message, []einomodel.Option) {
	input := make([]*schema.Message, 0, len(req.Messages))
	for _, m := range req.Messages {
		switch m.Role {
		case RoleSystem:
			input = append(input, schema.SystemMessage(m.Content))
		case RoleAssistant:
			input = append(input, schema.AssistantMessage(m.Content, nil))
		default:
			input = append(input, schema.UserMessage(m.Content))
		}
	}

	var opts []einomodel.Option
	if req.Model != "" {
		opts = append(opts, einomodel.WithModel(req.Model))
	}
	if req.Temperature != nil {
		opts = append(opts, einomodel.WithTemperature(float32(*req.Temperature)))
	}
	if req.TopP != nil {
		opts = append(opts, einomodel.WithTopP(float32(*req.TopP)))
	}
	if req.MaxTokens > 0 {
		opts = append(opts, einomodel.WithMaxTokens(req.MaxTokens))
	}
	return input, opts
}

func fromEinoMessage(msg *schema.Message) *Completion {
	completion := &Completion{FinishReason: FinishReasonOther}
	if msg == nil {
		return completion
	}

	if msg.ResponseMeta != nil {
		switch msg.ResponseMeta.FinishReason {
		case "stop":
			completion.FinishReason = FinishReasonStop
		case "length":
			completion.FinishReason = FinishReasonLength
		}
	}

	// a tool call without text is not a textual answer
	if msg.Content == "" && len(msg.ToolCalls) > 0 {
		return completion
	}
	content := msg.Content
	completion.Content = &content
	return completion
}
