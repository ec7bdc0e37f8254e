package cli

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/m-mizutani/argubots/pkg/adapter"
	"github.com/m-mizutani/argubots/pkg/agent"
	"github.com/m-mizutani/argubots/pkg/kialo"
	"github.com/m-mizutani/argubots/pkg/repository"
	"github.com/m-mizutani/argubots/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

// config holds configuration values
type config struct {
	// Logging
	logLevel  string
	logFormat string

	// Claim corpus
	corpus      []string
	ranker      string
	skipInvalid bool

	// LLM
	llm             string
	model           string
	botsFile        string
	anthropicAPIKey string
	geminiProject   string
	geminiLocation  string
	openaiAPIKey    string
	openaiBaseURL   string

	// Transcript archive
	dbType            string
	dsn               string
	firestoreProject  string
	firestoreDatabase string
	bucket            string
	prefix            string
}

// loggingFlags returns flags for log output
func loggingFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "Log level (debug, info, warn, error)",
			Value:       "info",
			Sources:     cli.EnvVars("ARGUBOTS_LOG_LEVEL"),
			Destination: &cfg.logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "Log format (console, json)",
			Value:       "console",
			Sources:     cli.EnvVars("ARGUBOTS_LOG_FORMAT"),
			Destination: &cfg.logFormat,
		},
	}
}

// corpusFlags returns flags for the Kialo claim corpus
func corpusFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringSliceFlag{
			Name:        "corpus",
			Aliases:     []string{"k"},
			Usage:       "Kialo export files or glob patterns (e.g. data/*.txt)",
			Sources:     cli.EnvVars("ARGUBOTS_CORPUS"),
			Destination: &cfg.corpus,
		},
		&cli.StringFlag{
			Name:        "ranker",
			Usage:       "Claim similarity ranker (bm25, embedding)",
			Value:       "bm25",
			Sources:     cli.EnvVars("ARGUBOTS_RANKER"),
			Destination: &cfg.ranker,
		},
		&cli.BoolFlag{
			Name:        "skip-invalid",
			Usage:       "Skip corpus files that fail to parse",
			Sources:     cli.EnvVars("ARGUBOTS_SKIP_INVALID"),
			Destination: &cfg.skipInvalid,
		},
	}
}

// llmFlags returns flags for LLM-related configuration with destination config
func llmFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "llm",
			Usage:       "LLM provider (gemini, claude, openai). Empty disables LLM bots",
			Sources:     cli.EnvVars("ARGUBOTS_LLM"),
			Destination: &cfg.llm,
		},
		&cli.StringFlag{
			Name:        "model",
			Usage:       "Model name passed to the LLM provider",
			Sources:     cli.EnvVars("ARGUBOTS_MODEL"),
			Destination: &cfg.model,
		},
		&cli.StringFlag{
			Name:        "bots",
			Usage:       "YAML file declaring additional LLM bots",
			Sources:     cli.EnvVars("ARGUBOTS_BOTS_FILE"),
			Destination: &cfg.botsFile,
		},
		&cli.StringFlag{
			Name:        "anthropic-api-key",
			Usage:       "Anthropic API key",
			Sources:     cli.EnvVars("ANTHROPIC_API_KEY"),
			Destination: &cfg.anthropicAPIKey,
		},
		&cli.StringFlag{
			Name:        "gemini-project",
			Usage:       "Google Cloud project ID for Gemini",
			Sources:     cli.EnvVars("GEMINI_PROJECT_ID"),
			Destination: &cfg.geminiProject,
		},
		&cli.StringFlag{
			Name:        "gemini-location",
			Usage:       "Google Cloud location for Gemini",
			Value:       "us-central1",
			Sources:     cli.EnvVars("GEMINI_LOCATION"),
			Destination: &cfg.geminiLocation,
		},
		&cli.StringFlag{
			Name:        "openai-api-key",
			Usage:       "API key of the OpenAI compatible endpoint",
			Sources:     cli.EnvVars("OPENAI_API_KEY"),
			Destination: &cfg.openaiAPIKey,
		},
		&cli.StringFlag{
			Name:        "openai-base-url",
			Usage:       "Base URL of an OpenAI compatible endpoint",
			Sources:     cli.EnvVars("OPENAI_BASE_URL"),
			Destination: &cfg.openaiBaseURL,
		},
	}
}

// repositoryFlags returns flags for the transcript archive
func repositoryFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "db",
			Usage:       "Transcript archive (sqlite, mysql, firestore, memory). Empty disables archiving",
			Sources:     cli.EnvVars("ARGUBOTS_DB"),
			Destination: &cfg.dbType,
		},
		&cli.StringFlag{
			Name:        "dsn",
			Usage:       "SQLite file path or MySQL DSN",
			Value:       "argubots.db",
			Sources:     cli.EnvVars("ARGUBOTS_DSN"),
			Destination: &cfg.dsn,
		},
		&cli.StringFlag{
			Name:        "firestore-project",
			Usage:       "Google Cloud project ID of Firestore",
			Sources:     cli.EnvVars("GOOGLE_CLOUD_PROJECT"),
			Destination: &cfg.firestoreProject,
		},
		&cli.StringFlag{
			Name:        "firestore-database",
			Usage:       "Firestore database ID",
			Value:       "(default)",
			Sources:     cli.EnvVars("FIRESTORE_DATABASE_ID"),
			Destination: &cfg.firestoreDatabase,
		},
	}
}

// storageFlags returns flags for exporting transcripts to Cloud Storage
func storageFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "bucket",
			Usage:       "Cloud Storage bucket to export transcripts to",
			Sources:     cli.EnvVars("ARGUBOTS_BUCKET"),
			Destination: &cfg.bucket,
		},
		&cli.StringFlag{
			Name:        "prefix",
			Usage:       "Object name prefix in the bucket",
			Value:       "transcripts/",
			Sources:     cli.EnvVars("ARGUBOTS_PREFIX"),
			Destination: &cfg.prefix,
		},
	}
}

// validate checks enumerated values before anything is created
func (cfg *config) validate() error {
	if err := oneOf("log-format", cfg.logFormat, "", "console", "json"); err != nil {
		return err
	}
	if err := oneOf("ranker", cfg.ranker, "", "bm25", "embedding"); err != nil {
		return err
	}
	if err := oneOf("llm", cfg.llm, "", "gemini", "claude", "openai"); err != nil {
		return err
	}
	if err := oneOf("db", cfg.dbType, "", "sqlite", "mysql", "firestore", "memory"); err != nil {
		return err
	}
	return nil
}

func oneOf(name, value string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return goerr.New("invalid option value",
		goerr.V("option", name),
		goerr.V("value", value),
		goerr.V("allowed", allowed))
}

// setupLogger installs the configured logger as default and into ctx
func (cfg *config) setupLogger(ctx context.Context) context.Context {
	logger := logging.New(cfg.logLevel, os.Stderr, logging.WithFormat(cfg.logFormat))
	logging.SetDefault(logger)
	return logging.With(ctx, logger)
}

// corpusPaths expands the corpus patterns into a sorted, duplicate free
// list of files
func (cfg *config) corpusPaths() ([]string, error) {
	seen := map[string]bool{}
	var paths []string
	for _, pattern := range cfg.corpus {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, goerr.Wrap(err, "invalid corpus pattern", goerr.V("pattern", pattern))
		}
		if len(matches) == 0 && !strings.ContainsAny(pattern, "*?[") {
			// a plain path that does not exist is reported by the loader
			matches = []string{pattern}
		}
		sort.Strings(matches)
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				paths = append(paths, m)
			}
		}
	}
	return paths, nil
}

// loadGraph loads the claim corpus. It returns nil without error when no
// corpus is configured.
func (cfg *config) loadGraph(ctx context.Context) (*kialo.Graph, error) {
	paths, err := cfg.corpusPaths()
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, nil
	}

	var opts []kialo.Option
	if cfg.skipInvalid {
		opts = append(opts, kialo.WithSkipInvalid())
	}
	if cfg.ranker == "embedding" {
		gemini, err := cfg.newGemini(ctx)
		if err != nil {
			return nil, goerr.Wrap(err, "embedding ranker requires Gemini")
		}
		opts = append(opts, kialo.WithRanker(kialo.NewEmbeddingRanker(gemini)))
	}

	graph, err := kialo.Load(ctx, paths, opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load claim corpus")
	}
	return graph, nil
}

// requireGraph is loadGraph for commands that cannot work without a corpus
func (cfg *config) requireGraph(ctx context.Context) (*kialo.Graph, error) {
	graph, err := cfg.loadGraph(ctx)
	if err != nil {
		return nil, err
	}
	if graph == nil {
		return nil, goerr.New("corpus is required")
	}
	return graph, nil
}

// newGemini creates a new Gemini adapter instance
func (cfg *config) newGemini(ctx context.Context) (*adapter.GeminiClient, error) {
	if cfg.geminiProject == "" {
		return nil, goerr.New("gemini-project is required")
	}
	if cfg.geminiLocation == "" {
		return nil, goerr.New("gemini-location is required")
	}

	var opts []adapter.GeminiOption
	if cfg.model != "" && cfg.llm == "gemini" {
		opts = append(opts, adapter.WithGenerativeModel(cfg.model))
	}
	return adapter.NewGemini(ctx, cfg.geminiProject, cfg.geminiLocation, opts...)
}

// newChatClient creates the configured LLM client. It returns nil without
// error when no provider is configured.
func (cfg *config) newChatClient(ctx context.Context) (adapter.ChatClient, error) {
	switch cfg.llm {
	case "":
		return nil, nil

	case "gemini":
		gemini, err := cfg.newGemini(ctx)
		if err != nil {
			return nil, err
		}
		return gemini, nil

	case "claude":
		if cfg.anthropicAPIKey == "" {
			return nil, goerr.New("anthropic-api-key is required")
		}
		var opts []adapter.ClaudeOption
		if cfg.model != "" {
			opts = append(opts, adapter.WithClaudeModel(cfg.model))
		}
		return adapter.NewClaude(cfg.anthropicAPIKey, opts...), nil

	case "openai":
		if cfg.openaiAPIKey == "" {
			return nil, goerr.New("openai-api-key is required")
		}
		model := cfg.model
		if model == "" {
			model = "gpt-4o-mini"
		}
		return adapter.NewOpenAI(ctx, cfg.openaiAPIKey, cfg.openaiBaseURL, model)
	}

	return nil, goerr.New("unsupported llm provider", goerr.V("llm", cfg.llm))
}

// newCatalogue builds the bot catalogue from the corpus, the LLM client and
// the bots file
func (cfg *config) newCatalogue(ctx context.Context) (*agent.Catalogue, error) {
	graph, err := cfg.loadGraph(ctx)
	if err != nil {
		return nil, err
	}
	client, err := cfg.newChatClient(ctx)
	if err != nil {
		return nil, err
	}

	// keep interface values nil when a dependency is absent
	var kg agent.KialoGraph
	if graph != nil {
		kg = graph
	}
	catalogue := agent.NewCatalogue(kg, client)

	if cfg.botsFile != "" {
		bots, err := agent.LoadBots(cfg.botsFile)
		if err != nil {
			return nil, err
		}
		if err := catalogue.AddBots(bots, client, kg); err != nil {
			return nil, goerr.Wrap(err, "failed to add bots", goerr.V("path", cfg.botsFile))
		}
	}
	return catalogue, nil
}

// newRepository creates a new repository instance. It returns nil without
// error when archiving is disabled.
func (cfg *config) newRepository(ctx context.Context) (repository.Repository, error) {
	switch cfg.dbType {
	case "":
		return nil, nil

	case "memory":
		return repository.NewMemory(), nil

	case "sqlite", "mysql":
		if cfg.dsn == "" {
			return nil, goerr.New("dsn is required", goerr.V("db", cfg.dbType))
		}
		repo, err := repository.NewSQL(cfg.dbType, cfg.dsn)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create repository")
		}
		return repo, nil

	case "firestore":
		if cfg.firestoreProject == "" {
			return nil, goerr.New("firestore-project is required")
		}
		if cfg.firestoreDatabase == "" {
			return nil, goerr.New("firestore-database is required")
		}
		repo, err := repository.NewFirestore(ctx, cfg.firestoreProject, cfg.firestoreDatabase)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create repository")
		}
		return repo, nil
	}

	return nil, goerr.New("unsupported database type", goerr.V("db", cfg.dbType))
}

// requireRepository is newRepository for commands that read the archive
func (cfg *config) requireRepository(ctx context.Context) (repository.Repository, error) {
	repo, err := cfg.newRepository(ctx)
	if err != nil {
		return nil, err
	}
	if repo == nil {
		return nil, goerr.New("db is required")
	}
	return repo, nil
}

// newStorage creates a new Storage adapter instance. It returns nil without
// error when no bucket is configured.
func (cfg *config) newStorage(ctx context.Context) (adapter.Storage, error) {
	if cfg.bucket == "" {
		return nil, nil
	}

	storage, err := adapter.NewStorage(ctx, cfg.bucket, cfg.prefix)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create storage")
	}
	return storage, nil
}
