package adapter

import (
	"context"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/genai"
)

// GeminiClient talks to Gemini on Vertex AI. It serves both chat completions
// and embeddings.
type GeminiClient struct {
	client          *genai.Client
	generativeModel string
	embeddingModel  string
	dimensionality  int32
}

type GeminiOption func(*GeminiClient)

func WithGenerativeModel(model string) GeminiOption {
	return func(g *GeminiClient) {
		g.generativeModel = model
	}
}

func WithEmbeddingModel(model string) GeminiOption {
	return func(g *GeminiClient) {
		g.embeddingModel = model
	}
}

// WithEmbeddingDimensionality sets the size of embedding vectors
func WithEmbeddingDimensionality(dims int) GeminiOption {
	return func(g *GeminiClient) {
		g.dimensionality = int32(dims)
	}
}

func NewGemini(ctx context.Context, projectID, location string, opts ...GeminiOption) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Project:  projectID,
		Location: location,
		Backend:  genai.BackendVertexAI,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create genai client")
	}

	g := &GeminiClient{
		client:          client,
		generativeModel: "gemini-2.5-flash",
		embeddingModel:  "gemini-embedding-001",
		dimensionality:  768,
	}

	for _, opt := range opts {
		opt(g)
	}

	return g, nil
}

func (g *GeminiClient) Complete(ctx context.Context, req *ChatRequest) (*Completion, error) {
	model := req.Model
	if model == "" {
		model = g.generativeModel
	}

	contents, config := toGenaiRequest(req)
	resp, err := g.client.Models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to generate content", goerr.V("model", model))
	}

	return fromGenaiResponse(resp), nil
}

func (g *GeminiClient) Embedding(ctx context.Context, text string) ([]float32, error) {
	resp, err := g.client.Models.EmbedContent(ctx, g.embeddingModel, genai.Text(text), &genai.EmbedContentConfig{
		OutputDimensionality: &g.dimensionality,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to embed content")
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Values) == 0 {
		return nil, goerr.New("empty embedding returned", goerr.V("model", g.embeddingModel))
	}

	return resp.Embeddings[0].Values, nil
}

func toGenaiRequest(req *ChatRequest) ([]*genai.Content, *genai.GenerateContentConfig) {
	system, messages := splitSystem(req.Messages)

	contents := make([]*genai.Content, 0, len(messages))
	for _, m := range messages {
		var role genai.Role = genai.RoleUser
		if m.Role == RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Content, role))
	}

	config := &genai.GenerateContentConfig{}
	if system != "" {
		config.SystemInstruction = genai.NewContentFromText(system, "")
	}
	if req.Temperature != nil {
		config.Temperature = genai.Ptr(float32(*req.Temperature))
	}
	if req.TopP != nil {
		config.TopP = genai.Ptr(float32(*req.TopP))
	}
	if req.MaxTokens > 0 {
		config.MaxOutputTokens = int32(req.MaxTokens)
	}
	return contents, config
}

func fromGenaiResponse(resp *genai.GenerateContentResponse) *Completion {
	if resp == nil || len(resp.Candidates) == 0 {
		return &Completion{FinishReason: FinishReasonOther}
	}
	candidate := resp.Candidates[0]

	completion := &Completion{FinishReason: FinishReasonOther}
	switch candidate.FinishReason {
	case genai.FinishReasonStop:
		completion.FinishReason = FinishReasonStop
	case genai.FinishReasonMaxTokens:
		completion.FinishReason = FinishReasonLength
	}

	if candidate.Content == nil {
		return completion
	}
	var text strings.Builder
	found := false
	for _, part := range candidate.Content.Parts {
		if part == nil || part.Thought || part.Text == "" {
			continue
		}
		found = true
		text.WriteString(part.Text)
	}
	if found {
		s := text.String()
		completion.Content = &s
	}
	return completion
}
