package usecase

import (
	"time"

	"github.com/hindsight-journal/hindsight/pkg/domain/interfaces"
	"github.com/hindsight-journal/hindsight/pkg/domain/model"
	"github.com/hindsight-journal/hindsight/pkg/service/embedding"
	"github.com/m-mizutani/gollem"
)

// DefaultVaultID is used when no vault ID is configured
const DefaultVaultID = "default"

type UseCases struct {
	repo      interfaces.IndexRepository
	source    interfaces.NoteSource
	embedder  embedding.Service
	llmClient gollem.LLMClient
	tuning    *model.Tuning
	vaultID   string
	clock     func() time.Time
	workers   int

	Index   *IndexUseCase
	Search  *SearchUseCase
	Context *ContextUseCase
	Ask     *AskUseCase
}

type Option func(*UseCases)

// WithEmbedding sets the embedding provider. Without it indexing is a no-op and searches
// return nothing.
func WithEmbedding(svc embedding.Service) Option {
	return func(uc *UseCases) {
		uc.embedder = svc
	}
}

// WithLLMClient sets the completion provider used by Ask
func WithLLMClient(client gollem.LLMClient) Option {
	return func(uc *UseCases) {
		uc.llmClient = client
	}
}

func WithTuning(t *model.Tuning) Option {
	return func(uc *UseCases) {
		uc.tuning = t
	}
}

func WithVaultID(id string) Option {
	return func(uc *UseCases) {
		uc.vaultID = id
	}
}

// WithClock replaces time.Now
func WithClock(clock func() time.Time) Option {
	return func(uc *UseCases) {
		uc.clock = clock
	}
}

// WithWorkers bounds concurrent embedding calls during an update
func WithWorkers(n int) Option {
	return func(uc *UseCases) {
		uc.workers = n
	}
}

func New(repo interfaces.IndexRepository, source interfaces.NoteSource, opts ...Option) *UseCases {
	uc := &UseCases{
		repo:    repo,
		source:  source,
		tuning:  model.DefaultTuning(),
		vaultID: DefaultVaultID,
		clock:   time.Now,
		workers: 4,
	}

	for _, opt := range opts {
		opt(uc)
	}
	if uc.workers < 1 {
		uc.workers = 1
	}

	uc.Index = NewIndexUseCase(uc)
	uc.Search = NewSearchUseCase(uc.Index, uc.embedder, uc.tuning, uc.clock)
	uc.Context = NewContextUseCase(uc.Search, uc.tuning, uc.clock)
	uc.Ask = NewAskUseCase(uc.Context, uc.llmClient, uc.clock)

	return uc
}

// Now returns the current time of the configured clock
func (uc *UseCases) Now() time.Time {
	return uc.clock()
}
