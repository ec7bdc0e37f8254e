package agent

import (
	"context"
	"strings"

	"github.com/m-mizutani/argubots/pkg/adapter"
	"github.com/m-mizutani/argubots/pkg/model"
	"github.com/m-mizutani/argubots/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// truncationMarker is appended when a completion hit the token limit.
const truncationMarker = " ..."

// ChatOptions are the generation settings sent with every completion.
// Zero values leave the client default.
type ChatOptions struct {
	Model       string
	Temperature *float64
	TopP        *float64
	MaxTokens   int
}

// merge returns o with every field set in override replaced.
func (o ChatOptions) merge(override ChatOptions) ChatOptions {
	if override.Model != "" {
		o.Model = override.Model
	}
	if override.Temperature != nil {
		o.Temperature = override.Temperature
	}
	if override.TopP != nil {
		o.TopP = override.TopP
	}
	if override.MaxTokens > 0 {
		o.MaxTokens = override.MaxTokens
	}
	return o
}

// LLM asks a chat completion service how to continue the dialogue.
type LLM struct {
	name         string
	client       adapter.ChatClient
	system       string
	options      ChatOptions
	speakerNames bool
}

type LLMOption func(*LLM)

// WithSystem sets the system prompt sent before the dialogue
func WithSystem(prompt string) LLMOption {
	return func(a *LLM) {
		a.system = prompt
	}
}

// WithChatOptions sets the default generation settings
func WithChatOptions(opts ChatOptions) LLMOption {
	return func(a *LLM) {
		a.options = opts
	}
}

// WithSpeakerNames prefixes every turn with "<speaker>: " in the prompt
func WithSpeakerNames() LLMOption {
	return func(a *LLM) {
		a.speakerNames = true
	}
}

func NewLLM(name string, client adapter.ChatClient, opts ...LLMOption) *LLM {
	a := &LLM{
		name:   name,
		client: client,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *LLM) Name() string { return a.name }

func (a *LLM) Response(ctx context.Context, d model.Dialogue) (string, error) {
	return a.Complete(ctx, d, ChatOptions{})
}

// Complete is Response with per-call settings that override the ones given
// at construction.
func (a *LLM) Complete(ctx context.Context, d model.Dialogue, override ChatOptions) (string, error) {
	return a.complete(ctx, a.messages(d), a.options.merge(override))
}

// messages renders d from the point of view of this agent: its own turns are
// assistant messages and everybody else speaks as the user.
func (a *LLM) messages(d model.Dialogue, extraSystem ...string) []adapter.Message {
	var msgs []adapter.Message
	if a.system != "" {
		msgs = append(msgs, adapter.Message{Role: adapter.RoleSystem, Content: a.system})
	}
	for _, s := range extraSystem {
		msgs = append(msgs, adapter.Message{Role: adapter.RoleSystem, Content: s})
	}

	for _, turn := range d.Turns() {
		role := adapter.RoleUser
		if turn.Speaker == a.name {
			role = adapter.RoleAssistant
		}
		content := turn.Content
		if a.speakerNames {
			content = turn.Speaker + ": " + content
		}
		msgs = append(msgs, adapter.Message{Role: role, Content: content})
	}
	return msgs
}

func (a *LLM) complete(ctx context.Context, msgs []adapter.Message, opts ChatOptions) (string, error) {
	logger := logging.From(ctx)
	logger.Debug("calling LLM",
		"bot", a.name,
		"model", opts.Model,
		"messages", len(msgs))

	resp, err := a.client.Complete(ctx, &adapter.ChatRequest{
		Model:       opts.Model,
		Messages:    msgs,
		Temperature: opts.Temperature,
		TopP:        opts.TopP,
		MaxTokens:   opts.MaxTokens,
	})
	if err != nil {
		return "", goerr.Wrap(err, "chat completion failed", goerr.V("bot", a.name))
	}
	if resp == nil || resp.Content == nil {
		return "", goerr.Wrap(ErrNoContent, "completion has no text", goerr.V("bot", a.name))
	}

	content := *resp.Content
	if resp.FinishReason == adapter.FinishReasonLength {
		content += truncationMarker
	}
	content = strings.TrimPrefix(content, a.name+": ")

	logger.Info("response from LLM", "bot", a.name, "content", content)
	return content, nil
}
