package interfaces

import (
	"context"

	"github.com/hindsight-journal/hindsight/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
)

var (
	// ErrIndexNotFound is returned by LoadIndex when no index is stored for the vault
	ErrIndexNotFound = goerr.New("index not found")
	// ErrCorruptedIndex is returned by LoadIndex when the stored index cannot be decoded
	ErrCorruptedIndex = goerr.New("corrupted index")
)

// IndexRepository persists one index per vault. Implementations must replace the stored
// index atomically: a concurrent LoadIndex sees either the previous or the new index.
type IndexRepository interface {
	// LoadIndex returns the stored index of vaultID. The returned index is owned by the caller.
	LoadIndex(ctx context.Context, vaultID string) (*model.Index, error)

	// SaveIndex replaces the stored index of vaultID.
	SaveIndex(ctx context.Context, vaultID string, idx *model.Index) error

	// DeleteIndex removes the stored index of vaultID. Deleting a missing index is not an error.
	DeleteIndex(ctx context.Context, vaultID string) error

	Close() error
}
