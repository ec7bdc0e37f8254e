package adapter

import (
	"context"
	"strings"
)

// Role is the author of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry of a chat-completion request.
type Message struct {
	Role    Role
	Content string
}

// FinishReason tells why the service stopped generating.
type FinishReason string

const (
	FinishReasonStop   FinishReason = "stop"
	FinishReasonLength FinishReason = "length"
	FinishReasonOther  FinishReason = "other"
)

// ChatRequest is a provider independent chat-completion request. Zero values
// leave the provider defaults in place.
type ChatRequest struct {
	Model       string
	Messages    []Message
	Temperature *float64
	TopP        *float64
	MaxTokens   int
}

// Completion is the chosen completion of a chat request. Content is nil when
// the service returned no text at all.
type Completion struct {
	Content      *string
	FinishReason FinishReason
}

// ChatClient is the interface for chat-completion services
type ChatClient interface {
	Complete(ctx context.Context, req *ChatRequest) (*Completion, error)
}

const startPrompt = "(Please start the conversation.)"

// splitSystem separates system messages, joined into one instruction, from
// the conversational messages. Providers that need the conversation to open
// with a user message get a placeholder prepended.
func splitSystem(messages []Message) (string, []Message) {
	var system []string
	var rest []Message
	for _, m := range messages {
		if m.Role == RoleSystem {
			system = append(system, m.Content)
			continue
		}
		rest = append(rest, m)
	}

	if len(rest) == 0 || rest[0].Role != RoleUser {
		rest = append([]Message{{Role: RoleUser, Content: startPrompt}}, rest...)
	}
	return strings.Join(system, "\n\n"), rest
}
