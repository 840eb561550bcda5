package vault_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"
	"time"

	"github.com/hindsight-journal/hindsight/pkg/domain/interfaces"
	"github.com/hindsight-journal/hindsight/pkg/domain/model"
	"github.com/hindsight-journal/hindsight/pkg/service/vault"
	"github.com/m-mizutani/gt"
)

func TestListNotes(t *testing.T) {
	mod := time.Date(2024, 1, 10, 21, 0, 0, 0, time.UTC)
	fsys := fstest.MapFS{
		"journal/2024-01-10.md":       {Data: []byte("Had a great day"), ModTime: mod},
		"journal/2024-01-09_08-30.md": {Data: []byte("Morning pages"), ModTime: mod},
		"journal/image.png":           {Data: []byte{0x89}},
		".trash/2023-12-01.md":        {Data: []byte("deleted")},
		".obsidian/workspace.md":      {Data: []byte("{}")},
		"README.md":                   {Data: []byte("readme")},
	}

	t.Run("default patterns", func(t *testing.T) {
		v, err := vault.New("", vault.WithFS(fsys))
		gt.NoError(t, err).Required()

		notes, err := v.ListNotes(context.Background())
		gt.NoError(t, err).Required()
		gt.Array(t, notes).Length(3)

		gt.Value(t, notes[0].Path).Equal("README.md")
		gt.Value(t, notes[1].Path).Equal("journal/2024-01-09_08-30.md")
		gt.Value(t, notes[1].Name).Equal("2024-01-09_08-30")
		gt.Value(t, notes[2].Path).Equal("journal/2024-01-10.md")
		gt.Value(t, notes[2].Text).Equal("Had a great day")
		gt.Bool(t, notes[2].ModifiedAt.Equal(mod)).True()
	})

	t.Run("custom include and exclude", func(t *testing.T) {
		v, err := vault.New("", vault.WithFS(fsys),
			vault.WithInclude("journal/*.md"),
			vault.WithExcludes("**/*_*.md"),
		)
		gt.NoError(t, err).Required()

		notes, err := v.ListNotes(context.Background())
		gt.NoError(t, err).Required()
		gt.Array(t, notes).Length(1)
		gt.Value(t, notes[0].Path).Equal("journal/2024-01-10.md")
	})

	t.Run("overlapping includes list a note once", func(t *testing.T) {
		v, err := vault.New("", vault.WithFS(fsys), vault.WithInclude("journal/*.md", "**/2024-*.md"))
		gt.NoError(t, err).Required()

		notes, err := v.ListNotes(context.Background())
		gt.NoError(t, err).Required()
		gt.Array(t, notes).Length(2)
	})
}

func TestNew(t *testing.T) {
	_, err := vault.New("")
	gt.Value(t, err).NotNil()

	_, err = vault.New(filepath.Join(t.TempDir(), "missing"))
	gt.Value(t, err).NotNil()

	_, err = vault.New("", vault.WithFS(fstest.MapFS{}), vault.WithInclude("[unclosed"))
	gt.Error(t, err).Is(vault.ErrInvalidPattern)
}

type staticSource []*model.Note

func (s staticSource) ListNotes(ctx context.Context) ([]*model.Note, error) {
	return s, nil
}

func TestJoin(t *testing.T) {
	a := staticSource{{Path: "a.md"}}
	b := staticSource{{Path: "notion/1"}, {Path: "notion/2"}}

	notes, err := vault.Join(a, b).ListNotes(context.Background())
	gt.NoError(t, err).Required()
	gt.Array(t, notes).Length(3)

	var single interfaces.NoteSource = a
	gt.Value(t, vault.Join(a)).Equal(single)

	_, err = vault.Join(a, staticSource{{Path: "a.md"}}).ListNotes(context.Background())
	gt.Value(t, err).NotNil()
}

func TestWatch(t *testing.T) {
	root := t.TempDir()
	gt.NoError(t, os.MkdirAll(filepath.Join(root, "journal"), 0o755)).Required()

	v, err := vault.New(root)
	gt.NoError(t, err).Required()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := v.Watch(ctx)
	gt.NoError(t, err).Required()

	gt.NoError(t, os.WriteFile(filepath.Join(root, "journal", "2024-01-10.md"), []byte("hello"), 0o600)).Required()

	select {
	case <-ch:
	case <-time.After(5 * time.Second):
		t.Fatal("no change signal received")
	}

	cancel()
	for range ch {
	}
}
