package agent

import (
	"errors"
	"io"
	"os"
	"sort"

	"github.com/m-mizutani/argubots/pkg/adapter"
	"github.com/m-mizutani/goerr/v2"
	"gopkg.in/yaml.v3"
)

// AliceSystemPrompt is the prompt of the baseline LLM bot.
const AliceSystemPrompt = "You are an intelligent bot who wants to broaden your user's mind. " +
	"Ask a conversation starter question.  Then, WHATEVER " +
	"position the user initially takes, push back on it. " +
	"Try to help the user see the other side of the issue. " +
	"Answer in 1-2 sentences. Be thoughtful and polite."

// AragornSystemPrompt steers the retrieval augmented bot.
const AragornSystemPrompt = AliceSystemPrompt +
	" Before each answer you are shown a related claim from a debate website with arguments for and against it." +
	" Use those arguments when they fit, in your own words."

// KialoGraph is what the built-in claim bots need from a claim graph.
type KialoGraph interface {
	Graph
	ContextGraph
}

// Catalogue is the set of bots a user can pick by name.
type Catalogue struct {
	bots map[string]Agent
}

// NewCatalogue registers the built-in bots. Bots that need a claim graph or
// a chat client are only added when it is given.
func NewCatalogue(graph KialoGraph, client adapter.ChatClient) *Catalogue {
	c := &Catalogue{bots: make(map[string]Agent)}

	c.bots["Airhead"] = NewConstant("Airhead", "I know right???")
	if client != nil {
		c.bots["Alice"] = NewLLM("Alice", client, WithSystem(AliceSystemPrompt))
	}
	if graph != nil {
		c.bots["Akiko"] = NewClaimGraph("Akiko", graph)
		c.bots["Akiki"] = NewClaimGraph("Akiki", graph, WithQueryPolicy(RepeatedHistory))
	}
	if graph != nil && client != nil {
		c.bots["Aragorn"] = NewRAG("Aragorn", client, graph, WithSystem(AragornSystemPrompt))
	}
	return c
}

// Add registers a. Names are unique.
func (c *Catalogue) Add(a Agent) error {
	if _, ok := c.bots[a.Name()]; ok {
		return goerr.New("bot already exists", goerr.V("bot", a.Name()))
	}
	c.bots[a.Name()] = a
	return nil
}

func (c *Catalogue) Get(name string) (Agent, error) {
	a, ok := c.bots[name]
	if !ok {
		return nil, goerr.New("unknown bot", goerr.V("bot", name), goerr.V("available", c.Names()))
	}
	return a, nil
}

// Names returns the registered bot names in alphabetical order.
func (c *Catalogue) Names() []string {
	names := make([]string, 0, len(c.bots))
	for name := range c.bots {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// BotConfig declares an LLM bot in a bots file.
type BotConfig struct {
	Name         string   `yaml:"name"`
	System       string   `yaml:"system"`
	Model        string   `yaml:"model"`
	Temperature  *float64 `yaml:"temperature"`
	TopP         *float64 `yaml:"top_p"`
	MaxTokens    int      `yaml:"max_tokens"`
	SpeakerNames bool     `yaml:"speaker_names"`
	RAG          bool     `yaml:"rag"`
}

func (b *BotConfig) Validate() error {
	if b.Name == "" {
		return goerr.New("bot name is required")
	}
	if b.Temperature != nil && (*b.Temperature < 0 || *b.Temperature > 2) {
		return goerr.New("temperature must be between 0 and 2", goerr.V("bot", b.Name), goerr.V("temperature", *b.Temperature))
	}
	if b.TopP != nil && (*b.TopP <= 0 || *b.TopP > 1) {
		return goerr.New("top_p must be in (0, 1]", goerr.V("bot", b.Name), goerr.V("top_p", *b.TopP))
	}
	if b.MaxTokens < 0 {
		return goerr.New("max_tokens must not be negative", goerr.V("bot", b.Name))
	}
	return nil
}

type botsFile struct {
	Bots []BotConfig `yaml:"bots"`
}

// ParseBots reads bot declarations from YAML.
func ParseBots(r io.Reader) ([]BotConfig, error) {
	var f botsFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, goerr.Wrap(err, "failed to decode bots file")
	}

	for i := range f.Bots {
		if err := f.Bots[i].Validate(); err != nil {
			return nil, goerr.Wrap(err, "invalid bot", goerr.V("index", i))
		}
	}
	return f.Bots, nil
}

// LoadBots reads bot declarations from a YAML file.
func LoadBots(path string) ([]BotConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open bots file", goerr.V("path", path))
	}
	defer f.Close()

	bots, err := ParseBots(f)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load bots file", goerr.V("path", path))
	}
	return bots, nil
}

// AddBots builds an agent for every config and registers it. RAG bots need
// graph to be non-nil.
func (c *Catalogue) AddBots(configs []BotConfig, client adapter.ChatClient, graph ContextGraph) error {
	if len(configs) > 0 && client == nil {
		return goerr.New("bots file requires an LLM provider")
	}

	for _, cfg := range configs {
		opts := []LLMOption{
			WithSystem(cfg.System),
			WithChatOptions(ChatOptions{
				Model:       cfg.Model,
				Temperature: cfg.Temperature,
				TopP:        cfg.TopP,
				MaxTokens:   cfg.MaxTokens,
			}),
		}
		if cfg.SpeakerNames {
			opts = append(opts, WithSpeakerNames())
		}

		var a Agent
		if cfg.RAG {
			if graph == nil {
				return goerr.New("RAG bot requires a claim corpus", goerr.V("bot", cfg.Name))
			}
			a = NewRAG(cfg.Name, client, graph, opts...)
		} else {
			a = NewLLM(cfg.Name, client, opts...)
		}

		if err := c.Add(a); err != nil {
			return err
		}
	}
	return nil
}
