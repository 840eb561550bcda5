package embedding

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
)

// Service turns texts into embedding vectors.
type Service interface {
	// Embed returns one vector per input, positionally aligned. An empty input returns an
	// empty result without calling the provider. A zero-length vector means the provider
	// failed for that item.
	Embed(ctx context.Context, inputs []string) ([][]float32, error)

	// Model identifies the provider and dimension. Vectors from different models are not
	// comparable.
	Model() string
}

var (
	ErrInvalidAPIKey   = goerr.New("invalid API key")
	ErrPayloadTooLarge = goerr.New("embedding request payload too large")
	ErrEmptyEmbedding  = goerr.New("no embedding returned")
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// DefaultDimension matches Gemini text-embedding-004.
const DefaultDimension = 768

// DefaultTimeout bounds one embedding request.
const DefaultTimeout = 30 * time.Second

// DefaultMaxPayloadBytes caps the serialized size of one request.
const DefaultMaxPayloadBytes = 2 * 1024 * 1024
