package firestore

import (
	"context"
	"math"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/hindsight-journal/hindsight/pkg/domain/interfaces"
	"github.com/hindsight-journal/hindsight/pkg/domain/model"
	"github.com/hindsight-journal/hindsight/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// vaultDoc is the index metadata. It is written after the chunk diff so that its ChunkCount
// describes a complete chunk set.
type vaultDoc struct {
	Model      string      `firestore:"Model"`
	Version    string      `firestore:"Version"`
	UpdatedAt  time.Time   `firestore:"UpdatedAt"`
	ChunkCount int         `firestore:"ChunkCount"`
	FileHashes []fileEntry `firestore:"FileHashes"`
}

// fileEntry keeps note paths out of map keys, which may not contain every character a path
// can hold.
type fileEntry struct {
	Path string `firestore:"Path"`
	Hash string `firestore:"Hash"`
}

// chunkDoc is the Firestore document representation of model.Chunk.
// Seq preserves the index order of chunks.
type chunkDoc struct {
	ID              model.ChunkID      `firestore:"ID"`
	Seq             int64              `firestore:"Seq"`
	Path            string             `firestore:"Path"`
	Date            time.Time          `firestore:"Date"`
	Text            string             `firestore:"Text"`
	Vector          firestore.Vector32 `firestore:"Vector"`
	ContextType     string             `firestore:"ContextType"`
	EmotionalTags   []string           `firestore:"EmotionalTags"`
	ThematicTags    []string           `firestore:"ThematicTags"`
	TemporalMarkers []string           `firestore:"TemporalMarkers"`
	Hash            string             `firestore:"Hash"`
}

func toChunkDoc(c *model.Chunk, seq int64) *chunkDoc {
	return &chunkDoc{
		ID:              c.ID,
		Seq:             seq,
		Path:            c.Path,
		Date:            c.Date,
		Text:            c.Text,
		Vector:          firestore.Vector32(c.Vector),
		ContextType:     c.ContextType.String(),
		EmotionalTags:   c.EmotionalTags,
		ThematicTags:    c.ThematicTags,
		TemporalMarkers: c.TemporalMarkers,
		Hash:            c.Hash,
	}
}

func fromChunkDoc(d *chunkDoc) *model.Chunk {
	return &model.Chunk{
		ID:              d.ID,
		Path:            d.Path,
		Date:            d.Date.Local(),
		Text:            d.Text,
		Vector:          []float32(d.Vector),
		ContextType:     types.ContextType(d.ContextType),
		EmotionalTags:   d.EmotionalTags,
		ThematicTags:    d.ThematicTags,
		TemporalMarkers: d.TemporalMarkers,
		Hash:            d.Hash,
	}
}

func (f *Firestore) chunks(vaultID string) *firestore.CollectionRef {
	return f.vaults().Doc(vaultID).Collection("chunks")
}

func (f *Firestore) LoadIndex(ctx context.Context, vaultID string) (*model.Index, error) {
	snap, err := f.vaults().Doc(vaultID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(interfaces.ErrIndexNotFound, "vault document not found", goerr.V("vault_id", vaultID))
		}
		return nil, goerr.Wrap(err, "failed to get vault document", goerr.V("vault_id", vaultID))
	}

	var meta vaultDoc
	if err := snap.DataTo(&meta); err != nil {
		return nil, goerr.Wrap(interfaces.ErrCorruptedIndex, "failed to decode vault document",
			goerr.V("vault_id", vaultID), goerr.V("cause", err.Error()))
	}

	idx := &model.Index{
		Model:      meta.Model,
		Version:    meta.Version,
		UpdatedAt:  meta.UpdatedAt,
		Items:      make([]*model.Chunk, 0, meta.ChunkCount),
		FileHashes: make(map[string]string, len(meta.FileHashes)),
	}
	for _, e := range meta.FileHashes {
		idx.FileHashes[e.Path] = e.Hash
	}

	iter := f.chunks(vaultID).OrderBy("Seq", firestore.Asc).Documents(ctx)
	defer iter.Stop()

	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate chunks", goerr.V("vault_id", vaultID))
		}

		var d chunkDoc
		if err := doc.DataTo(&d); err != nil {
			return nil, goerr.Wrap(interfaces.ErrCorruptedIndex, "failed to decode chunk",
				goerr.V("vault_id", vaultID), goerr.V("chunk_id", doc.Ref.ID), goerr.V("cause", err.Error()))
		}
		idx.Items = append(idx.Items, fromChunkDoc(&d))
	}

	// A save interrupted between the chunk diff and the metadata write leaves them disagreeing
	if len(idx.Items) != meta.ChunkCount {
		return nil, goerr.Wrap(interfaces.ErrCorruptedIndex, "chunk count does not match vault document",
			goerr.V("vault_id", vaultID),
			goerr.V("expected", meta.ChunkCount),
			goerr.V("actual", len(idx.Items)))
	}

	return idx, nil
}

// SaveIndex writes only the difference against the stored chunk set: chunks are immutable,
// so a chunk whose ID is already stored with an in-order Seq is left untouched.
func (f *Firestore) SaveIndex(ctx context.Context, vaultID string, idx *model.Index) error {
	if idx == nil {
		return goerr.New("index is required", goerr.V("vault_id", vaultID))
	}

	stored, err := f.storedSeqs(ctx, vaultID)
	if err != nil {
		return err
	}

	bw := f.client.BulkWriter(ctx)
	var jobs []*firestore.BulkWriterJob

	base := time.Now().UnixNano()
	last := int64(math.MinInt64)
	keep := make(map[model.ChunkID]struct{}, len(idx.Items))

	for i, c := range idx.Items {
		if c.ID == "" {
			bw.End()
			return goerr.New("chunk ID is required", goerr.V("vault_id", vaultID), goerr.V("path", c.Path))
		}
		keep[c.ID] = struct{}{}

		if seq, ok := stored[c.ID]; ok && seq > last {
			last = seq
			continue
		}

		seq := max(base+int64(i), last+1)
		last = seq
		job, err := bw.Set(f.chunks(vaultID).Doc(string(c.ID)), toChunkDoc(c, seq))
		if err != nil {
			bw.End()
			return goerr.Wrap(err, "failed to enqueue chunk write", goerr.V("vault_id", vaultID), goerr.V("chunk_id", c.ID))
		}
		jobs = append(jobs, job)
	}

	for id := range stored {
		if _, ok := keep[id]; ok {
			continue
		}
		job, err := bw.Delete(f.chunks(vaultID).Doc(string(id)))
		if err != nil {
			bw.End()
			return goerr.Wrap(err, "failed to enqueue chunk delete", goerr.V("vault_id", vaultID), goerr.V("chunk_id", id))
		}
		jobs = append(jobs, job)
	}

	bw.End()
	for _, job := range jobs {
		if _, err := job.Results(); err != nil {
			return goerr.Wrap(err, "failed to write chunks", goerr.V("vault_id", vaultID))
		}
	}

	meta := &vaultDoc{
		Model:      idx.Model,
		Version:    idx.Version,
		UpdatedAt:  idx.UpdatedAt,
		ChunkCount: len(idx.Items),
		FileHashes: make([]fileEntry, 0, len(idx.FileHashes)),
	}
	for p, h := range idx.FileHashes {
		meta.FileHashes = append(meta.FileHashes, fileEntry{Path: p, Hash: h})
	}

	if _, err := f.vaults().Doc(vaultID).Set(ctx, meta); err != nil {
		return goerr.Wrap(err, "failed to write vault document", goerr.V("vault_id", vaultID))
	}

	return nil
}

func (f *Firestore) storedSeqs(ctx context.Context, vaultID string) (map[model.ChunkID]int64, error) {
	iter := f.chunks(vaultID).Select("Seq").Documents(ctx)
	defer iter.Stop()

	seqs := make(map[model.ChunkID]int64)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to list stored chunks", goerr.V("vault_id", vaultID))
		}

		var d struct {
			Seq int64 `firestore:"Seq"`
		}
		if err := doc.DataTo(&d); err != nil {
			// Rewritten on the next save
			d.Seq = math.MaxInt64
		}
		seqs[model.ChunkID(doc.Ref.ID)] = d.Seq
	}
	return seqs, nil
}

func (f *Firestore) DeleteIndex(ctx context.Context, vaultID string) error {
	refs := f.chunks(vaultID).DocumentRefs(ctx)

	bw := f.client.BulkWriter(ctx)
	var jobs []*firestore.BulkWriterJob
	for {
		ref, err := refs.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			bw.End()
			return goerr.Wrap(err, "failed to list chunks", goerr.V("vault_id", vaultID))
		}
		job, err := bw.Delete(ref)
		if err != nil {
			bw.End()
			return goerr.Wrap(err, "failed to enqueue chunk delete", goerr.V("vault_id", vaultID))
		}
		jobs = append(jobs, job)
	}
	bw.End()

	for _, job := range jobs {
		if _, err := job.Results(); err != nil {
			return goerr.Wrap(err, "failed to delete chunks", goerr.V("vault_id", vaultID))
		}
	}

	if _, err := f.vaults().Doc(vaultID).Delete(ctx); err != nil && status.Code(err) != codes.NotFound {
		return goerr.Wrap(err, "failed to delete vault document", goerr.V("vault_id", vaultID))
	}
	return nil
}
