package embedding

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
)

// client implements Service on top of a gollem LLM client
type client struct {
	llmClient       gollem.LLMClient
	provider        string
	dimension       int
	timeout         time.Duration
	maxPayloadBytes int
}

// Option is a functional option for client configuration
type Option func(*client)

// WithProvider sets the provider name recorded in Model
func WithProvider(provider string) Option {
	return func(c *client) {
		c.provider = provider
	}
}

// WithDimension sets the requested embedding dimension
func WithDimension(dimension int) Option {
	return func(c *client) {
		c.dimension = dimension
	}
}

// WithTimeout bounds each provider call. Zero disables the timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *client) {
		c.timeout = timeout
	}
}

// WithMaxPayloadBytes sets the request size cap
func WithMaxPayloadBytes(n int) Option {
	return func(c *client) {
		c.maxPayloadBytes = n
	}
}

// New creates a new embedding service with the provided LLM client
func New(llmClient gollem.LLMClient, opts ...Option) (Service, error) {
	if llmClient == nil {
		return nil, goerr.New("LLM client is required")
	}

	c := &client{
		llmClient:       llmClient,
		provider:        ProviderGemini,
		dimension:       DefaultDimension,
		timeout:         DefaultTimeout,
		maxPayloadBytes: DefaultMaxPayloadBytes,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.dimension <= 0 {
		return nil, goerr.New("embedding dimension must be positive", goerr.V("dimension", c.dimension))
	}

	return c, nil
}

func (c *client) Model() string {
	return fmt.Sprintf("%s/%d", c.provider, c.dimension)
}

func (c *client) Embed(ctx context.Context, inputs []string) ([][]float32, error) {
	if len(inputs) == 0 {
		return [][]float32{}, nil
	}

	payload, err := json.Marshal(inputs)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to serialize embedding request")
	}
	if c.maxPayloadBytes > 0 && len(payload) > c.maxPayloadBytes {
		return nil, goerr.Wrap(ErrPayloadTooLarge, "embedding request rejected",
			goerr.V("bytes", len(payload)),
			goerr.V("limit", c.maxPayloadBytes),
			goerr.V("inputs", len(inputs)))
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	embeddings, err := c.llmClient.GenerateEmbedding(ctx, c.dimension, inputs)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to generate embedding",
			goerr.V("provider", c.provider),
			goerr.V("inputs", len(inputs)))
	}
	if len(embeddings) == 0 {
		return nil, goerr.Wrap(ErrEmptyEmbedding, "provider returned no vectors", goerr.V("inputs", len(inputs)))
	}

	// Convert float64 to float32
	results := make([][]float32, len(embeddings))
	for i, e := range embeddings {
		v := make([]float32, len(e))
		for j, x := range e {
			v[j] = float32(x)
		}
		results[i] = v
	}

	return results, nil
}

// ValidateAPIKey checks the shape of a provider API key before any client is created.
func ValidateAPIKey(provider, apiKey string) error {
	switch provider {
	case ProviderOpenAI:
		if !strings.HasPrefix(apiKey, "sk-") || len(apiKey) <= len("sk-") {
			return goerr.Wrap(ErrInvalidAPIKey, "OpenAI API key must start with sk-", goerr.V("provider", provider))
		}
		return nil
	case ProviderGemini:
		// Vertex AI authenticates with application default credentials
		return nil
	default:
		return goerr.Wrap(ErrInvalidAPIKey, "unknown embedding provider", goerr.V("provider", provider))
	}
}
