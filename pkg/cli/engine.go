package cli

import (
	"context"
	"log/slog"

	"github.com/hindsight-journal/hindsight/pkg/cli/config"
	"github.com/hindsight-journal/hindsight/pkg/domain/interfaces"
	"github.com/hindsight-journal/hindsight/pkg/service/vault"
	"github.com/hindsight-journal/hindsight/pkg/usecase"
	"github.com/hindsight-journal/hindsight/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

// engineConfig groups the flags every command needs to build the use cases
type engineConfig struct {
	repo      config.Repository
	source    config.Source
	embedding config.Embedding
	tuning    config.Tuning
}

func (e *engineConfig) Flags() []cli.Flag {
	var flags []cli.Flag
	flags = append(flags, e.repo.Flags()...)
	flags = append(flags, e.source.Flags()...)
	flags = append(flags, e.embedding.Flags()...)
	flags = append(flags, e.tuning.Flags()...)
	return flags
}

func (e *engineConfig) LogAttrs() []slog.Attr {
	var attrs []slog.Attr
	attrs = append(attrs, slog.Any("repository", slog.GroupValue(e.repo.LogAttrs()...)))
	attrs = append(attrs, slog.Any("source", slog.GroupValue(e.source.LogAttrs()...)))
	attrs = append(attrs, slog.Any("embedding", slog.GroupValue(e.embedding.LogAttrs()...)))
	attrs = append(attrs, slog.Any("tuning", slog.GroupValue(e.tuning.LogAttrs()...)))
	return attrs
}

// engine is the wired application of one command run
type engine struct {
	uc    *usecase.UseCases
	repo  interfaces.IndexRepository
	vault *vault.Vault
}

func (e *engine) Close() {
	if err := e.repo.Close(); err != nil {
		logging.Default().Error("failed to close repository", "error", err.Error())
	}
}

// Configure builds the use cases. Note sources are only required by commands that update
// the index; read-only commands run without them.
func (e *engineConfig) Configure(ctx context.Context, needSource bool) (*engine, error) {
	logging.Default().Debug("Configuring engine", slog.Any("config", slog.GroupValue(e.LogAttrs()...)))

	tuning, err := e.tuning.Configure()
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load tuning")
	}

	var source interfaces.NoteSource
	var v *vault.Vault
	if needSource {
		source, v, err = e.source.Configure()
		if err != nil {
			return nil, goerr.Wrap(err, "failed to configure note sources")
		}
	}

	embedder, llmClient, err := e.embedding.Configure(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to configure embedding provider")
	}
	if embedder == nil {
		logging.Default().Warn("Embedding provider not configured, indexing and search are disabled")
	}

	repo, err := e.repo.Configure(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to initialize repository")
	}

	opts := []usecase.Option{
		usecase.WithTuning(tuning),
		usecase.WithVaultID(e.source.VaultID()),
		usecase.WithWorkers(e.embedding.Workers()),
	}
	if embedder != nil {
		opts = append(opts, usecase.WithEmbedding(embedder))
	}
	if llmClient != nil {
		opts = append(opts, usecase.WithLLMClient(llmClient))
	}

	return &engine{
		uc:    usecase.New(repo, source, opts...),
		repo:  repo,
		vault: v,
	}, nil
}

// load publishes the stored index for read-only commands
func (e *engine) load(ctx context.Context) error {
	if _, err := e.uc.Index.Load(ctx); err != nil {
		return goerr.Wrap(err, "failed to load index")
	}
	return nil
}
