package firestore

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/hindsight-journal/hindsight/pkg/domain/interfaces"
	"github.com/m-mizutani/goerr/v2"
)

// Firestore stores each index as a vault document plus a chunks subcollection.
type Firestore struct {
	client           *firestore.Client
	collectionPrefix string
}

var _ interfaces.IndexRepository = &Firestore{}

type Option func(*Firestore)

func WithCollectionPrefix(prefix string) Option {
	return func(f *Firestore) {
		f.collectionPrefix = prefix
	}
}

func New(ctx context.Context, projectID, databaseID string, opts ...Option) (*Firestore, error) {
	if databaseID == "" {
		databaseID = firestore.DefaultDatabaseID
	}

	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("projectID", projectID),
			goerr.V("databaseID", databaseID))
	}

	f := &Firestore{
		client: client,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f, nil
}

func (f *Firestore) vaults() *firestore.CollectionRef {
	return f.client.Collection(f.collectionPrefix + "vaults")
}

func (f *Firestore) Close() error {
	if f.client != nil {
		return f.client.Close()
	}
	return nil
}
