package config

import (
	"time"

	"github.com/hindsight-journal/hindsight/pkg/service/embedding"
	"github.com/hindsight-journal/hindsight/pkg/service/vault"
	"github.com/hindsight-journal/hindsight/pkg/usecase"
)

// NewEmbeddingForTest creates an Embedding config for testing purposes
func NewEmbeddingForTest(provider, geminiProject, openaiAPIKey string) *Embedding {
	return &Embedding{
		provider:       provider,
		geminiProject:  geminiProject,
		geminiLocation: "us-central1",
		openaiAPIKey:   openaiAPIKey,
		dimension:      embedding.DefaultDimension,
		timeout:        time.Second,
		maxPayload:     embedding.DefaultMaxPayloadBytes,
		workers:        4,
	}
}

// NewRepositoryForTest creates a Repository config for testing purposes
func NewRepositoryForTest(backend, path string) *Repository {
	return &Repository{
		backend: backend,
		path:    path,
	}
}

// NewSourceForTest creates a Source config for testing purposes
func NewSourceForTest(dir, notionToken, notionDatabaseID string) *Source {
	return &Source{
		vaultID:          usecase.DefaultVaultID,
		dir:              dir,
		include:          []string{vault.DefaultInclude},
		excludes:         vault.DefaultExcludes,
		notionToken:      notionToken,
		notionDatabaseID: notionDatabaseID,
	}
}

// NewLoggerForTest creates a Logger config for testing purposes
func NewLoggerForTest(level, format, output string) *Logger {
	return &Logger{
		level:  level,
		format: format,
		output: output,
	}
}
