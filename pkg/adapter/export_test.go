package adapter

var (
	SplitSystem       = splitSystem
	ToGenaiRequest    = toGenaiRequest
	FromGenaiResponse = fromGenaiResponse
	ToClaudeParams    = toClaudeParams
	FromClaudeMessage = fromClaudeMessage
	ToEinoRequest     = toEinoRequest
	FromEinoMessage   = fromEinoMessage
)

// NewOpenAIWithGenerator wraps a fake eino model for tests
func NewOpenAIWithGenerator(gen messageGenerator) ChatClient {
	return &openAIClient{model: gen}
}
