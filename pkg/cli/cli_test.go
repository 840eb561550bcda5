package cli_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/hindsight-journal/hindsight/pkg/cli"
	"github.com/hindsight-journal/hindsight/pkg/cli/config"
	"github.com/hindsight-journal/hindsight/pkg/domain/model"
	"github.com/hindsight-journal/hindsight/pkg/domain/types"
	"github.com/hindsight-journal/hindsight/pkg/repository/file"
	"github.com/hindsight-journal/hindsight/pkg/usecase"
	"github.com/m-mizutani/gt"
)

// run executes the app with stdin and returns what it printed
func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	color.NoColor = true

	var out, errOut bytes.Buffer
	app := cli.NewAppForTest("test")
	app.Writer = &out
	app.ErrWriter = &errOut
	app.Reader = strings.NewReader(stdin)

	err := app.Run(context.Background(), append([]string{"hindsight"}, args...))
	return out.String(), err
}

func storeIndex(t *testing.T, dir string) {
	t.Helper()
	repo, err := file.New(dir)
	gt.NoError(t, err).Required()
	defer func() { gt.NoError(t, repo.Close()) }()

	idx := model.NewIndex("word/3")
	idx.UpdatedAt = time.Date(2024, 1, 11, 12, 0, 0, 0, time.UTC)
	idx.Items = append(idx.Items, &model.Chunk{
		ID:          model.NewChunkID(),
		Path:        "2024-01-10.md",
		Date:        time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
		Text:        "Long meeting at work about the launch plan.",
		Vector:      []float32{1, 0, 0},
		ContextType: types.ContextTypeGeneral,
	})
	idx.FileHashes["2024-01-10.md"] = "abc"
	gt.NoError(t, repo.SaveIndex(context.Background(), usecase.DefaultVaultID, idx)).Required()
}

func TestStatus(t *testing.T) {
	t.Run("missing index", func(t *testing.T) {
		dir := t.TempDir()
		out, err := run(t, "", "status", "--repository-path", dir, "--json")
		gt.NoError(t, err).Required()

		var st map[string]any
		gt.NoError(t, json.Unmarshal([]byte(out), &st)).Required()
		gt.Value(t, st["state"]).Equal("missing")
		gt.Value(t, st["vault_id"]).Equal(usecase.DefaultVaultID)
	})

	t.Run("stored index", func(t *testing.T) {
		dir := t.TempDir()
		storeIndex(t, dir)

		out, err := run(t, "", "status", "--repository-path", dir, "--json")
		gt.NoError(t, err).Required()

		var st map[string]any
		gt.NoError(t, json.Unmarshal([]byte(out), &st)).Required()
		gt.Value(t, st["state"]).Equal("ready")
		gt.Value(t, st["model"]).Equal("word/3")
		gt.Value(t, st["chunks"]).Equal(float64(1))
		gt.Value(t, st["files"]).Equal(float64(1))
	})

	t.Run("text output", func(t *testing.T) {
		dir := t.TempDir()
		storeIndex(t, dir)

		out, err := run(t, "", "status", "--repository-path", dir)
		gt.NoError(t, err).Required()
		gt.String(t, out).Contains("Vault default")
		gt.String(t, out).Contains("ready")
		gt.String(t, out).Contains("1 chunks from 1 notes")
	})
}

func TestIndex(t *testing.T) {
	t.Run("no embedding provider leaves index unchanged", func(t *testing.T) {
		vaultDir := t.TempDir()
		gt.NoError(t, os.WriteFile(filepath.Join(vaultDir, "2024-01-10.md"), []byte("A day at work."), 0o600)).Required()

		out, err := run(t, "", "index",
			"--repository-path", t.TempDir(),
			"--vault-dir", vaultDir)
		gt.NoError(t, err).Required()
		gt.String(t, out).Contains("Index is up to date")
	})

	t.Run("no note source", func(t *testing.T) {
		_, err := run(t, "", "index", "--repository-path", t.TempDir())
		gt.Error(t, err).Is(config.ErrMissingOption)
	})
}

func TestSearch(t *testing.T) {
	t.Run("query is required", func(t *testing.T) {
		_, err := run(t, "", "search", "--repository-path", t.TempDir())
		gt.Value(t, err).NotNil()
	})

	t.Run("empty index", func(t *testing.T) {
		out, err := run(t, "", "search", "--repository-path", t.TempDir(), "work")
		gt.NoError(t, err).Required()
		gt.String(t, out).Contains("No matching notes")
	})

	t.Run("json on empty index", func(t *testing.T) {
		out, err := run(t, "", "search", "--repository-path", t.TempDir(), "--json", "work")
		gt.NoError(t, err).Required()
		gt.Value(t, strings.TrimSpace(out)).Equal("[]")
	})

	t.Run("invalid context type", func(t *testing.T) {
		_, err := run(t, "", "search", "--repository-path", t.TempDir(), "--context-type", "sad", "work")
		gt.Error(t, err).Is(types.ErrInvalidContextType)
	})

	t.Run("from after to", func(t *testing.T) {
		_, err := run(t, "", "search", "--repository-path", t.TempDir(),
			"--from", "2024-02-01", "--to", "2024-01-01", "work")
		gt.Value(t, err).NotNil()
	})

	t.Run("unknown mode", func(t *testing.T) {
		_, err := run(t, "", "search", "--repository-path", t.TempDir(), "--mode", "fuzzy", "work")
		gt.Value(t, err).NotNil()
	})

	t.Run("invalid frame", func(t *testing.T) {
		_, err := run(t, "", "search", "--repository-path", t.TempDir(), "--mode", "temporal", "--frame", "year", "work")
		gt.Error(t, err).Is(types.ErrInvalidTimeFrame)
	})
}

func TestContext(t *testing.T) {
	t.Run("reads text from input", func(t *testing.T) {
		out, err := run(t, "**Me**: how was work?\n", "context", "--repository-path", t.TempDir())
		gt.NoError(t, err).Required()
		gt.Value(t, out).Equal("")
	})
}

func TestAsk(t *testing.T) {
	_, err := run(t, "", "ask", "--repository-path", t.TempDir(), "how was work?")
	gt.Value(t, errors.Is(err, usecase.ErrNoLLMClient)).Equal(true)
}

func TestTuningFile(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := run(t, "", "status",
			"--repository-path", t.TempDir(),
			"--tuning-file", filepath.Join(t.TempDir(), "missing.toml"))
		gt.Error(t, err).Is(config.ErrConfigNotFound)
	})

	t.Run("unknown key", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "tuning.toml")
		gt.NoError(t, os.WriteFile(path, []byte("[index]\nchunk_sise = 10\n"), 0o600)).Required()

		_, err := run(t, "", "status", "--repository-path", t.TempDir(), "--tuning-file", path)
		gt.Error(t, err).Is(config.ErrInvalidConfig)
	})
}
