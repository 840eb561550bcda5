package file

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"

	"github.com/hindsight-journal/hindsight/pkg/domain/interfaces"
	"github.com/hindsight-journal/hindsight/pkg/domain/model"
	"github.com/hindsight-journal/hindsight/pkg/utils/safe"
	"github.com/m-mizutani/goerr/v2"
)

var vaultIDPattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// ErrInvalidVaultID is returned when a vault ID cannot be used as a file name
var ErrInvalidVaultID = goerr.New("invalid vault ID")

// Repository stores each index as <dir>/<vaultID>.json. Saves write a temporary file in the
// same directory and rename it over the target.
type Repository struct {
	dir string
}

var _ interfaces.IndexRepository = &Repository{}

func New(dir string) (*Repository, error) {
	if dir == "" {
		return nil, goerr.New("index directory is required")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, goerr.Wrap(err, "failed to create index directory", goerr.V("dir", dir))
	}
	return &Repository{dir: dir}, nil
}

func (r *Repository) path(vaultID string) (string, error) {
	if !vaultIDPattern.MatchString(vaultID) || vaultID == "." || vaultID == ".." {
		return "", goerr.Wrap(ErrInvalidVaultID, "vault ID must be a plain file name", goerr.V("vault_id", vaultID))
	}
	return filepath.Join(r.dir, vaultID+".json"), nil
}

func (r *Repository) LoadIndex(ctx context.Context, vaultID string) (*model.Index, error) {
	path, err := r.path(vaultID)
	if err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, goerr.Wrap(interfaces.ErrIndexNotFound, "index file not found", goerr.V("path", path))
		}
		return nil, goerr.Wrap(err, "failed to read index file", goerr.V("path", path))
	}

	var idx model.Index
	if err := json.Unmarshal(raw, &idx); err != nil {
		return nil, goerr.Wrap(interfaces.ErrCorruptedIndex, "failed to decode index file",
			goerr.V("path", path), goerr.V("cause", err.Error()))
	}

	return &idx, nil
}

func (r *Repository) SaveIndex(ctx context.Context, vaultID string, idx *model.Index) error {
	if idx == nil {
		return goerr.New("index is required", goerr.V("vault_id", vaultID))
	}
	path, err := r.path(vaultID)
	if err != nil {
		return err
	}

	raw, err := json.Marshal(idx)
	if err != nil {
		return goerr.Wrap(err, "failed to encode index", goerr.V("vault_id", vaultID))
	}

	tmp, err := os.CreateTemp(r.dir, "."+vaultID+".*.tmp")
	if err != nil {
		return goerr.Wrap(err, "failed to create temporary index file", goerr.V("dir", r.dir))
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(raw); err != nil {
		safe.Close(ctx, tmp)
		safe.Remove(ctx, tmpName)
		return goerr.Wrap(err, "failed to write temporary index file", goerr.V("path", tmpName))
	}
	if err := tmp.Sync(); err != nil {
		safe.Close(ctx, tmp)
		safe.Remove(ctx, tmpName)
		return goerr.Wrap(err, "failed to sync temporary index file", goerr.V("path", tmpName))
	}
	if err := tmp.Close(); err != nil {
		safe.Remove(ctx, tmpName)
		return goerr.Wrap(err, "failed to close temporary index file", goerr.V("path", tmpName))
	}
	if err := os.Rename(tmpName, path); err != nil {
		safe.Remove(ctx, tmpName)
		return goerr.Wrap(err, "failed to replace index file", goerr.V("path", path))
	}

	return nil
}

func (r *Repository) DeleteIndex(ctx context.Context, vaultID string) error {
	path, err := r.path(vaultID)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return goerr.Wrap(err, "failed to delete index file", goerr.V("path", path))
	}
	return nil
}

func (r *Repository) Close() error {
	return nil
}
