package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/hindsight-journal/hindsight/pkg/domain/interfaces"
	"github.com/hindsight-journal/hindsight/pkg/domain/model"
	"github.com/hindsight-journal/hindsight/pkg/repository/file"
	"github.com/m-mizutani/gt"
)

func TestLoadIndex_Corrupted(t *testing.T) {
	dir := t.TempDir()
	repo, err := file.New(dir)
	gt.NoError(t, err).Required()

	gt.NoError(t, os.WriteFile(filepath.Join(dir, "main.json"), []byte("{not json"), 0o600)).Required()

	_, err = repo.LoadIndex(context.Background(), "main")
	gt.Error(t, err).Is(interfaces.ErrCorruptedIndex)
}

func TestSaveIndex_LeavesNoTemporaryFiles(t *testing.T) {
	dir := t.TempDir()
	repo, err := file.New(dir)
	gt.NoError(t, err).Required()

	ctx := context.Background()
	gt.NoError(t, repo.SaveIndex(ctx, "main", model.NewIndex("test/3"))).Required()
	gt.NoError(t, repo.SaveIndex(ctx, "main", model.NewIndex("test/3"))).Required()

	entries, err := os.ReadDir(dir)
	gt.NoError(t, err).Required()
	gt.Array(t, entries).Length(1)
	gt.Value(t, entries[0].Name()).Equal("main.json")
}

func TestInvalidVaultID(t *testing.T) {
	repo, err := file.New(t.TempDir())
	gt.NoError(t, err).Required()

	for _, id := range []string{"", "..", "a/b", "../escape"} {
		_, err := repo.LoadIndex(context.Background(), id)
		gt.Error(t, err).Is(file.ErrInvalidVaultID)
	}
}
