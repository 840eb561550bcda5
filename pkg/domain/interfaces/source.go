package interfaces

import (
	"context"

	"github.com/hindsight-journal/hindsight/pkg/domain/model"
)

// NoteSource lists every note currently available. The listing must be complete: notes
// missing from it are removed from the index.
type NoteSource interface {
	ListNotes(ctx context.Context) ([]*model.Note, error)
}
