package vault

import (
	"context"

	"github.com/hindsight-journal/hindsight/pkg/domain/interfaces"
	"github.com/hindsight-journal/hindsight/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
)

type joined []interfaces.NoteSource

// Join merges sources into one listing. A path listed by more than one source is an error
// because its hash entry would flip between them on every update.
func Join(sources ...interfaces.NoteSource) interfaces.NoteSource {
	if len(sources) == 1 {
		return sources[0]
	}
	return joined(sources)
}

func (j joined) ListNotes(ctx context.Context) ([]*model.Note, error) {
	var all []*model.Note
	seen := make(map[string]struct{})

	for _, src := range j {
		notes, err := src.ListNotes(ctx)
		if err != nil {
			return nil, err
		}
		for _, n := range notes {
			if _, dup := seen[n.Path]; dup {
				return nil, goerr.New("note path listed by more than one source", goerr.V("path", n.Path))
			}
			seen[n.Path] = struct{}{}
			all = append(all, n)
		}
	}

	return all, nil
}
