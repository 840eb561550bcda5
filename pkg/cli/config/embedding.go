package config

import (
	"context"
	"log/slog"
	"time"

	"github.com/hindsight-journal/hindsight/pkg/service/embedding"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/m-mizutani/gollem/llm/gemini"
	"github.com/m-mizutani/gollem/llm/openai"
	"github.com/urfave/cli/v3"
)

// Embedding holds configuration for the embedding and completion provider
type Embedding struct {
	provider       string
	geminiProject  string
	geminiLocation string
	openaiAPIKey   string
	dimension      int
	timeout        time.Duration
	maxPayload     int
	workers        int
}

// Flags returns CLI flags for provider configuration
func (e *Embedding) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "embedding-provider",
			Usage:       "Embedding and completion provider (gemini, openai). Empty disables indexing and answers",
			Category:    "Embedding",
			Sources:     cli.EnvVars("HINDSIGHT_EMBEDDING_PROVIDER"),
			Destination: &e.provider,
		},
		&cli.StringFlag{
			Name:        "gemini-project",
			Usage:       "Google Cloud project ID for Gemini API",
			Category:    "Embedding",
			Sources:     cli.EnvVars("HINDSIGHT_GEMINI_PROJECT"),
			Destination: &e.geminiProject,
		},
		&cli.StringFlag{
			Name:        "gemini-location",
			Usage:       "Google Cloud location for Gemini API",
			Value:       "us-central1",
			Category:    "Embedding",
			Sources:     cli.EnvVars("HINDSIGHT_GEMINI_LOCATION"),
			Destination: &e.geminiLocation,
		},
		&cli.StringFlag{
			Name:        "openai-api-key",
			Usage:       "OpenAI API key",
			Category:    "Embedding",
			Sources:     cli.EnvVars("HINDSIGHT_OPENAI_API_KEY"),
			Destination: &e.openaiAPIKey,
		},
		&cli.IntFlag{
			Name:        "embedding-dimension",
			Usage:       "Embedding vector dimension",
			Value:       embedding.DefaultDimension,
			Category:    "Embedding",
			Sources:     cli.EnvVars("HINDSIGHT_EMBEDDING_DIMENSION"),
			Destination: &e.dimension,
		},
		&cli.DurationFlag{
			Name:        "embedding-timeout",
			Usage:       "Timeout of one embedding request",
			Value:       embedding.DefaultTimeout,
			Category:    "Embedding",
			Sources:     cli.EnvVars("HINDSIGHT_EMBEDDING_TIMEOUT"),
			Destination: &e.timeout,
		},
		&cli.IntFlag{
			Name:        "embedding-max-payload",
			Usage:       "Maximum serialized size in bytes of one embedding request",
			Value:       embedding.DefaultMaxPayloadBytes,
			Category:    "Embedding",
			Sources:     cli.EnvVars("HINDSIGHT_EMBEDDING_MAX_PAYLOAD"),
			Destination: &e.maxPayload,
		},
		&cli.IntFlag{
			Name:        "embedding-workers",
			Usage:       "Number of concurrent embedding requests during indexing",
			Value:       4,
			Category:    "Embedding",
			Sources:     cli.EnvVars("HINDSIGHT_EMBEDDING_WORKERS"),
			Destination: &e.workers,
		},
	}
}

// LogAttrs returns log attributes for the provider configuration
func (e *Embedding) LogAttrs() []slog.Attr {
	return []slog.Attr{
		slog.String("provider", e.provider),
		slog.String("gemini_project", e.geminiProject),
		slog.String("gemini_location", e.geminiLocation),
		slog.Bool("openai_api_key_set", e.openaiAPIKey != ""),
		slog.Int("dimension", e.dimension),
		slog.Duration("timeout", e.timeout),
		slog.Int("workers", e.workers),
	}
}

// Workers returns the embedding fan-out
func (e *Embedding) Workers() int {
	return e.workers
}

// Configure creates the LLM client and the embedding service on top of it.
// Returns nils if no provider is configured (indexing and answers will be disabled).
func (e *Embedding) Configure(ctx context.Context) (embedding.Service, gollem.LLMClient, error) {
	if e.provider == "" {
		return nil, nil, nil
	}

	var client gollem.LLMClient
	switch e.provider {
	case embedding.ProviderGemini:
		if e.geminiProject == "" {
			return nil, nil, goerr.Wrap(ErrMissingOption, "gemini-project is required for the gemini provider")
		}
		c, err := gemini.New(ctx, e.geminiProject, e.geminiLocation)
		if err != nil {
			return nil, nil, goerr.Wrap(err, "failed to create Gemini client")
		}
		client = c

	case embedding.ProviderOpenAI:
		if err := embedding.ValidateAPIKey(e.provider, e.openaiAPIKey); err != nil {
			return nil, nil, err
		}
		c, err := openai.New(ctx, e.openaiAPIKey)
		if err != nil {
			return nil, nil, goerr.Wrap(err, "failed to create OpenAI client")
		}
		client = c

	default:
		return nil, nil, goerr.Wrap(ErrInvalidConfig, "unknown embedding provider", goerr.V("provider", e.provider))
	}

	svc, err := embedding.New(client,
		embedding.WithProvider(e.provider),
		embedding.WithDimension(e.dimension),
		embedding.WithTimeout(e.timeout),
		embedding.WithMaxPayloadBytes(e.maxPayload),
	)
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to create embedding service")
	}

	return svc, client, nil
}
