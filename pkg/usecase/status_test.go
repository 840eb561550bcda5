package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/hindsight-journal/hindsight/pkg/domain/model"
	"github.com/hindsight-journal/hindsight/pkg/repository/memory"
	"github.com/hindsight-journal/hindsight/pkg/usecase"
	"github.com/m-mizutani/gt"
)

func TestIndexUseCase_Status(t *testing.T) {
	t.Run("before load", func(t *testing.T) {
		f := newFixture([]*model.Note{sisterNote})
		st := f.uc.Index.Status()
		gt.Value(t, st.VaultID).Equal("test")
		gt.Value(t, st.Model).Equal(f.embedder.Model())
		gt.Bool(t, st.Loaded).False()
		gt.Bool(t, st.Updating).False()
		gt.Number(t, st.Chunks).Equal(0)
	})

	t.Run("after update", func(t *testing.T) {
		f := indexedFixture(t, sisterNote, meetingNote)
		st := f.uc.Index.Status()
		gt.Bool(t, st.Loaded).True()
		gt.Value(t, st.Version).Equal(model.IndexVersion)
		gt.Number(t, st.Files).Equal(2)
		gt.Number(t, st.Chunks).Equal(f.uc.Index.Snapshot().ChunkCount())
		gt.Value(t, st.UpdatedAt.IsZero()).Equal(false)
	})

	t.Run("updating while an update runs", func(t *testing.T) {
		f := newFixture([]*model.Note{sisterNote})
		f.embedder.started = make(chan struct{}, 1)
		f.embedder.release = make(chan struct{})

		done := make(chan error, 1)
		go func() {
			_, err := f.uc.Index.Update(context.Background())
			done <- err
		}()

		select {
		case <-f.embedder.started:
		case <-time.After(5 * time.Second):
			t.Fatal("update did not start")
		}
		gt.Bool(t, f.uc.Index.Updating()).True()
		gt.Bool(t, f.uc.Index.Status().Updating).True()

		close(f.embedder.release)
		gt.NoError(t, <-done)
		gt.Bool(t, f.uc.Index.Updating()).False()
	})

	t.Run("no embedding provider", func(t *testing.T) {
		uc := usecase.New(memory.New(), newNoteSource())
		st := uc.Index.Status()
		gt.Value(t, st.Model).Equal("")
		gt.Value(t, st.VaultID).Equal(usecase.DefaultVaultID)
	})
}
