package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hindsight-journal/hindsight/pkg/cli/config"
	"github.com/hindsight-journal/hindsight/pkg/service/notion"
	"github.com/m-mizutani/gt"
)

func TestSource_Configure(t *testing.T) {
	t.Run("vault folder", func(t *testing.T) {
		dir := t.TempDir()
		gt.NoError(t, os.MkdirAll(filepath.Join(dir, "journal"), 0o755)).Required()
		gt.NoError(t, os.WriteFile(filepath.Join(dir, "journal", "2024-01-10.md"), []byte("A calm day"), 0o600)).Required()
		gt.NoError(t, os.WriteFile(filepath.Join(dir, "journal", "ignored.txt"), []byte("not a note"), 0o600)).Required()

		src, v, err := config.NewSourceForTest(dir, "", "").Configure()
		gt.NoError(t, err).Required()
		gt.Value(t, v).NotNil()

		notes, err := src.ListNotes(t.Context())
		gt.NoError(t, err).Required()
		gt.Array(t, notes).Length(1)
		gt.Value(t, notes[0].Path).Equal("journal/2024-01-10.md")
	})

	t.Run("missing folder", func(t *testing.T) {
		_, _, err := config.NewSourceForTest(filepath.Join(t.TempDir(), "nope"), "", "").Configure()
		gt.Value(t, err).NotNil()
	})

	t.Run("no source at all", func(t *testing.T) {
		_, _, err := config.NewSourceForTest("", "", "").Configure()
		gt.Error(t, err).Is(config.ErrMissingOption)
	})

	t.Run("notion options must be set together", func(t *testing.T) {
		_, _, err := config.NewSourceForTest("", "secret_token", "").Configure()
		gt.Error(t, err).Is(config.ErrMissingOption)
	})

	t.Run("notion only", func(t *testing.T) {
		src, v, err := config.NewSourceForTest("", "secret_token", "a1b2c3d4e5f6a7b8c9d0e1f2a3b4c5d6").Configure()
		gt.NoError(t, err).Required()
		gt.Value(t, src).NotNil()
		gt.Value(t, v).Nil()
	})

	t.Run("invalid notion database", func(t *testing.T) {
		_, _, err := config.NewSourceForTest("", "secret_token", "db-id").Configure()
		gt.Error(t, err).Is(notion.ErrInvalidDatabaseID)
	})
}
