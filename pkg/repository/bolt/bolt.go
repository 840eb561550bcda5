package bolt

import (
	"context"
	"encoding/json"
	"time"

	"github.com/hindsight-journal/hindsight/pkg/domain/interfaces"
	"github.com/hindsight-journal/hindsight/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
	bbolt "go.etcd.io/bbolt"
)

var bucketName = []byte("indexes")

// Repository stores indexes in a single bbolt file, one key per vault.
type Repository struct {
	db *bbolt.DB
}

var _ interfaces.IndexRepository = &Repository{}

type Option func(*bbolt.Options)

// WithTimeout bounds how long New waits for the file lock held by another process
func WithTimeout(d time.Duration) Option {
	return func(o *bbolt.Options) {
		o.Timeout = d
	}
}

func New(path string, opts ...Option) (*Repository, error) {
	options := &bbolt.Options{Timeout: 5 * time.Second}
	for _, opt := range opts {
		opt(options)
	}

	db, err := bbolt.Open(path, 0o600, options)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open bolt database", goerr.V("path", path))
	}

	if err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, goerr.Wrap(err, "failed to create bucket", goerr.V("path", path))
	}

	return &Repository{db: db}, nil
}

func (r *Repository) LoadIndex(ctx context.Context, vaultID string) (*model.Index, error) {
	var raw []byte
	if err := r.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(bucketName).Get([]byte(vaultID))
		if v != nil {
			// v is only valid inside the transaction
			raw = append([]byte(nil), v...)
		}
		return nil
	}); err != nil {
		return nil, goerr.Wrap(err, "failed to read index", goerr.V("vault_id", vaultID))
	}

	if raw == nil {
		return nil, goerr.Wrap(interfaces.ErrIndexNotFound, "index not found", goerr.V("vault_id", vaultID))
	}

	var idx model.Index
	if err := json.Unmarshal(raw, &idx); err != nil {
		return nil, goerr.Wrap(interfaces.ErrCorruptedIndex, "failed to decode index",
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

	if err := r.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketName).Put([]byte(vaultID), raw)
	}); err != nil {
		return goerr.Wrap(err, "failed to write index", goerr.V("vault_id", vaultID))
	}
	return nil
}

func (r *Repository) DeleteIndex(ctx context.Context, vaultID string) error {
	if err := r.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketName).Delete([]byte(vaultID))
	}); err != nil {
		return goerr.Wrap(err, "failed to delete index", goerr.V("vault_id", vaultID))
	}
	return nil
}

func (r *Repository) Close() error {
	if err := r.db.Close(); err != nil {
		return goerr.Wrap(err, "failed to close bolt database")
	}
	return nil
}
