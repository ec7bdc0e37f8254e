package adapter_test

import (
	"context"
	"os"
	"testing"

	"github.com/m-mizutani/argubots/pkg/adapter"
	"github.com/m-mizutani/gt"
	"google.golang.org/genai"
)

func ptr[T any](v T) *T { return &v }

func TestGeminiComplete(t *testing.T) {
	projectID := os.Getenv("TEST_GEMINI_PROJECT")
	if projectID == "" {
		t.Skip("TEST_GEMINI_PROJECT is not set")
	}

	ctx := context.Background()
	client, err := adapter.NewGemini(ctx, projectID, "us-central1")
	gt.NoError(t, err)

	resp, err := client.Complete(ctx, &adapter.ChatRequest{
		Messages: []adapter.Message{
			{Role: adapter.RoleSystem, Content: "Answer in one word."},
			{Role: adapter.RoleUser, Content: "What is the capital of France?"},
		},
	})
	gt.NoError(t, err)
	gt.NotNil(t, resp.Content)
	t.Log("response:", *resp.Content)
}

func TestGeminiEmbedding(t *testing.T) {
	projectID := os.Getenv("TEST_GEMINI_PROJECT")
	if projectID == "" {
		t.Skip("TEST_GEMINI_PROJECT is not set")
	}

	ctx := context.Background()
	client, err := adapter.NewGemini(ctx, projectID, "us-central1", adapter.WithEmbeddingDimensionality(128))
	gt.NoError(t, err)

	vec, err := client.Embedding(ctx, "Cats are better pets than dogs.")
	gt.NoError(t, err)
	gt.A(t, vec).Length(128)
}

func TestToGenaiRequest(t *testing.T) {
	contents, config := adapter.ToGenaiRequest(&adapter.ChatRequest{
		Messages: []adapter.Message{
			{Role: adapter.RoleSystem, Content: "You are Alice."},
			{Role: adapter.RoleUser, Content: "Cats rule."},
			{Role: adapter.RoleAssistant, Content: "Do they?"},
		},
		Temperature: ptr(0.5),
		MaxTokens:   64,
	})

	gt.A(t, contents).Length(2)
	gt.Equal(t, contents[0].Role, string(genai.RoleUser))
	gt.Equal(t, contents[1].Role, string(genai.RoleModel))
	gt.Equal(t, contents[1].Parts[0].Text, "Do they?")

	gt.NotNil(t, config.SystemInstruction)
	gt.Equal(t, config.SystemInstruction.Parts[0].Text, "You are Alice.")
	gt.Equal(t, *config.Temperature, float32(0.5))
	gt.Equal(t, config.MaxOutputTokens, int32(64))
	gt.Nil(t, config.TopP)
}

func TestFromGenaiResponse(t *testing.T) {
	t.Run("truncated text", func(t *testing.T) {
		c := adapter.FromGenaiResponse(&genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{{
				Content: &genai.Content{Parts: []*genai.Part{
					{Text: "Thinking...", Thought: true},
					{Text: "Cats are "},
					{Text: "great"},
				}},
				FinishReason: genai.FinishReasonMaxTokens,
			}},
		})
		gt.NotNil(t, c.Content)
		gt.Equal(t, *c.Content, "Cats are great")
		gt.Equal(t, c.FinishReason, adapter.FinishReasonLength)
	})

	t.Run("no candidates", func(t *testing.T) {
		c := adapter.FromGenaiResponse(&genai.GenerateContentResponse{})
		gt.Nil(t, c.Content)
	})

	t.Run("no text parts", func(t *testing.T) {
		c := adapter.FromGenaiResponse(&genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{{
				Content:      &genai.Content{Parts: []*genai.Part{{FunctionCall: &genai.FunctionCall{Name: "f"}}}},
				FinishReason: genai.FinishReasonStop,
			}},
		})
		gt.Nil(t, c.Content)
		gt.Equal(t, c.FinishReason, adapter.FinishReasonStop)
	})
}
