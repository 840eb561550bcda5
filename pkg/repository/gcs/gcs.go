package gcs

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"path"

	"cloud.google.com/go/storage"
	"github.com/hindsight-journal/hindsight/pkg/domain/interfaces"
	"github.com/hindsight-journal/hindsight/pkg/domain/model"
	"github.com/hindsight-journal/hindsight/pkg/utils/safe"
	"github.com/m-mizutani/goerr/v2"
)

const objectName = "index.json"

// Repository stores each index as one JSON object, gs://<bucket>/<prefix><vaultID>/index.json.
// An object write becomes visible only when the writer is closed, so readers never see a
// partial index.
type Repository struct {
	client *storage.Client
	bucket string
	prefix string
}

var _ interfaces.IndexRepository = &Repository{}

type Option func(*Repository)

// WithPrefix sets the object name prefix
func WithPrefix(prefix string) Option {
	return func(r *Repository) {
		r.prefix = prefix
	}
}

func New(ctx context.Context, bucket string, opts ...Option) (*Repository, error) {
	if bucket == "" {
		return nil, goerr.New("GCS bucket is required")
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create storage client", goerr.V("bucket", bucket))
	}

	r := &Repository{
		client: client,
		bucket: bucket,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

func (r *Repository) object(vaultID string) *storage.ObjectHandle {
	return r.client.Bucket(r.bucket).Object(r.prefix + path.Join(vaultID, objectName))
}

func (r *Repository) LoadIndex(ctx context.Context, vaultID string) (*model.Index, error) {
	reader, err := r.object(vaultID).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, goerr.Wrap(interfaces.ErrIndexNotFound, "index object not found", goerr.V("vault_id", vaultID))
		}
		return nil, goerr.Wrap(err, "failed to open index object", goerr.V("vault_id", vaultID))
	}
	defer safe.Close(ctx, reader)

	raw, err := io.ReadAll(reader)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read index object", goerr.V("vault_id", vaultID))
	}

	var idx model.Index
	if err := json.Unmarshal(raw, &idx); err != nil {
		return nil, goerr.Wrap(interfaces.ErrCorruptedIndex, "failed to decode index object",
			goerr.V("vault_id", vaultID), goerr.V("cause", err.Error()))
	}
	return &idx, nil
}

func (r *Repository) SaveIndex(ctx context.Context, vaultID string, idx *model.Index) error {
	if idx == nil {
		return goerr.New("index is required", goerr.V("vault_id", vaultID))
	}

	raw, err := json.Marshal(idx)
	if err != nil {
		return goerr.Wrap(err, "failed to encode index", goerr.V("vault_id", vaultID))
	}

	// A cancelled context aborts the upload and leaves the previous object in place
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	w := r.object(vaultID).NewWriter(ctx)
	w.ContentType = "application/json"
	if _, err := w.Write(raw); err != nil {
		cancel()
		_ = w.Close()
		return goerr.Wrap(err, "failed to write index object", goerr.V("vault_id", vaultID))
	}
	if err := w.Close(); err != nil {
		return goerr.Wrap(err, "failed to commit index object", goerr.V("vault_id", vaultID))
	}
	return nil
}

func (r *Repository) DeleteIndex(ctx context.Context, vaultID string) error {
	if err := r.object(vaultID).Delete(ctx); err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return goerr.Wrap(err, "failed to delete index object", goerr.V("vault_id", vaultID))
	}
	return nil
}

func (r *Repository) Close() error {
	if err := r.client.Close(); err != nil {
		return goerr.Wrap(err, "failed to close storage client")
	}
	return nil
}
