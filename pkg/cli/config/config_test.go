package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hindsight-journal/hindsight/pkg/cli/config"
	"github.com/hindsight-journal/hindsight/pkg/domain/model"
	"github.com/m-mizutani/gt"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	gt.NoError(t, os.WriteFile(path, []byte(content), 0o600)).Required()
	return path
}

func TestLoadTuning(t *testing.T) {
	t.Run("overrides keep the other defaults", func(t *testing.T) {
		path := writeFile(t, "tuning.toml", `
[index]
chunk_size = 120
chunk_overlap = 30

[ranking]
exact_match_boost = 2.0

[context]
assistant_marker = "**Assistant**:"
`)
		tuning, err := config.LoadTuning(path)
		gt.NoError(t, err).Required()

		def := model.DefaultTuning()
		gt.Number(t, tuning.Index.ChunkSize).Equal(120)
		gt.Number(t, tuning.Index.ChunkOverlap).Equal(30)
		gt.Number(t, tuning.Index.MinChunkLength).Equal(def.Index.MinChunkLength)
		gt.Number(t, tuning.Ranking.ExactMatchBoost).Equal(2.0)
		gt.Number(t, tuning.Ranking.ContextTypeBoost).Equal(def.Ranking.ContextTypeBoost)
		gt.Value(t, tuning.Context.AssistantMarker).Equal("**Assistant**:")
		gt.Number(t, tuning.Context.MaxChunks).Equal(def.Context.MaxChunks)
		gt.Number(t, tuning.Days("week")).Equal(7)
	})

	t.Run("invalid values are rejected", func(t *testing.T) {
		path := writeFile(t, "tuning.toml", `
[index]
chunk_size = 50
chunk_overlap = 50
`)
		_, err := config.LoadTuning(path)
		gt.Error(t, err).Is(model.ErrInvalidTuning)
	})

	t.Run("unknown keys are rejected", func(t *testing.T) {
		path := writeFile(t, "tuning.toml", `
[ranking]
exact_match_bost = 2.0
`)
		_, err := config.LoadTuning(path)
		gt.Error(t, err).Is(config.ErrInvalidConfig)
	})

	t.Run("malformed TOML", func(t *testing.T) {
		path := writeFile(t, "tuning.toml", "[index\nchunk_size = ")
		_, err := config.LoadTuning(path)
		gt.Error(t, err).Is(config.ErrInvalidConfig)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := config.LoadTuning(filepath.Join(t.TempDir(), "nope.toml"))
		gt.Error(t, err).Is(config.ErrConfigNotFound)
	})
}

func TestTuning_ConfigureDefault(t *testing.T) {
	var cfg config.Tuning
	tuning, err := cfg.Configure()
	gt.NoError(t, err).Required()
	gt.Value(t, tuning).Equal(model.DefaultTuning())
}
