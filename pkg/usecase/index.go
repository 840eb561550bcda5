package usecase

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/hindsight-journal/hindsight/pkg/domain/interfaces"
	"github.com/hindsight-journal/hindsight/pkg/domain/model"
	"github.com/hindsight-journal/hindsight/pkg/service/embedding"
	"github.com/hindsight-journal/hindsight/pkg/utils/classifier"
	"github.com/hindsight-journal/hindsight/pkg/utils/errutil"
	"github.com/hindsight-journal/hindsight/pkg/utils/logging"
	"github.com/hindsight-journal/hindsight/pkg/utils/notedate"
	"github.com/hindsight-journal/hindsight/pkg/utils/vecmath"
	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/sync/errgroup"
)

// UpdateReport summarizes one update or rebuild pass.
type UpdateReport struct {
	Rebuilt   bool          `json:"rebuilt"`
	Unchanged bool          `json:"unchanged"`
	Scanned   int           `json:"scanned"`
	Skipped   int           `json:"skipped"`
	Updated   int           `json:"updated"`
	Removed   int           `json:"removed"`
	Failed    int           `json:"failed"`
	Empty     int           `json:"empty"`
	Chunks    int           `json:"chunks"`
	Files     int           `json:"files"`
	Duration  time.Duration `json:"duration"`
}

func (r *UpdateReport) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Bool("rebuilt", r.Rebuilt),
		slog.Bool("unchanged", r.Unchanged),
		slog.Int("scanned", r.Scanned),
		slog.Int("skipped", r.Skipped),
		slog.Int("updated", r.Updated),
		slog.Int("removed", r.Removed),
		slog.Int("failed", r.Failed),
		slog.Int("empty", r.Empty),
		slog.Int("chunks", r.Chunks),
		slog.Int("files", r.Files),
		slog.Duration("duration", r.Duration),
	)
}

// IndexUseCase owns the index of one vault. Updates build a new index from a clone of the
// current one and publish it only after it has been persisted; readers hold the snapshot
// they took and never observe a partial update.
type IndexUseCase struct {
	repo     interfaces.IndexRepository
	source   interfaces.NoteSource
	embedder embedding.Service
	tuning   *model.Tuning
	vaultID  string
	clock    func() time.Time
	workers  int

	running atomic.Bool

	mu       sync.RWMutex
	snapshot *model.Index
}

func NewIndexUseCase(uc *UseCases) *IndexUseCase {
	return &IndexUseCase{
		repo:     uc.repo,
		source:   uc.source,
		embedder: uc.embedder,
		tuning:   uc.tuning,
		vaultID:  uc.vaultID,
		clock:    uc.clock,
		workers:  uc.workers,
	}
}

// Snapshot returns the current index. The returned index must not be modified.
func (uc *IndexUseCase) Snapshot() *model.Index {
	uc.mu.RLock()
	defer uc.mu.RUnlock()
	return uc.snapshot
}

func (uc *IndexUseCase) publish(idx *model.Index) {
	uc.mu.Lock()
	uc.snapshot = idx
	uc.mu.Unlock()
}

// adopt publishes a stored index that nothing has served yet
func (uc *IndexUseCase) adopt(idx *model.Index) {
	uc.mu.Lock()
	if uc.snapshot == nil {
		uc.snapshot = idx
	}
	uc.mu.Unlock()
}

// Model returns the embedding model identity, empty when no provider is configured
func (uc *IndexUseCase) Model() string {
	if uc.embedder == nil {
		return ""
	}
	return uc.embedder.Model()
}

// IndexStatus describes the published index
type IndexStatus struct {
	VaultID   string    `json:"vault_id"`
	Model     string    `json:"model"`
	Version   string    `json:"version,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
	Chunks    int       `json:"chunks"`
	Files     int       `json:"files"`
	Loaded    bool      `json:"loaded"`
	Updating  bool      `json:"updating"`
}

// Status reports on the current snapshot; it does not touch the store
func (uc *IndexUseCase) Status() *IndexStatus {
	st := &IndexStatus{
		VaultID:  uc.vaultID,
		Model:    uc.Model(),
		Updating: uc.Updating(),
	}
	if snap := uc.Snapshot(); snap != nil {
		st.Loaded = true
		st.Version = snap.Version
		st.UpdatedAt = snap.UpdatedAt
		st.Chunks = snap.ChunkCount()
		st.Files = snap.FileCount()
	}
	return st
}

// Updating reports whether an update or rebuild is running
func (uc *IndexUseCase) Updating() bool {
	return uc.running.Load()
}

// Load publishes the stored index without updating it. A missing, corrupted or incompatible
// index leaves the snapshot empty and is not an error.
func (uc *IndexUseCase) Load(ctx context.Context) (*model.Index, error) {
	idx, err := uc.loadStored(ctx)
	if err != nil {
		return nil, err
	}
	if idx != nil {
		uc.publish(idx)
	}
	return idx, nil
}

// loadStored returns nil without error when the stored index cannot be reused
func (uc *IndexUseCase) loadStored(ctx context.Context) (*model.Index, error) {
	logger := logging.From(ctx).With(slog.String(VaultIDKey, uc.vaultID))

	idx, err := uc.repo.LoadIndex(ctx, uc.vaultID)
	switch {
	case errors.Is(err, interfaces.ErrIndexNotFound):
		logger.Info("no stored index")
		return nil, nil
	case errors.Is(err, interfaces.ErrCorruptedIndex):
		logger.Warn("stored index is corrupted, it will be rebuilt", slog.Any("error", err))
		return nil, nil
	case err != nil:
		return nil, goerr.Wrap(err, "failed to load index", goerr.V(VaultIDKey, uc.vaultID))
	}

	if !idx.IsCompatible(uc.Model()) {
		logger.Warn("stored index is incompatible, it will be rebuilt",
			slog.String("stored_version", idx.Version),
			slog.String("stored_model", idx.Model),
			slog.String("model", uc.Model()))
		return nil, nil
	}

	return idx, nil
}

// current returns the index an incremental update starts from
func (uc *IndexUseCase) current(ctx context.Context) (*model.Index, error) {
	if snap := uc.Snapshot(); snap != nil && snap.IsCompatible(uc.Model()) {
		return snap, nil
	}
	return uc.loadStored(ctx)
}

// Update applies the changes of the note sources to the index. It falls back to a full
// rebuild when no reusable index exists.
func (uc *IndexUseCase) Update(ctx context.Context) (*UpdateReport, error) {
	return uc.run(ctx, false)
}

// Rebuild discards the index and indexes every eligible note again.
func (uc *IndexUseCase) Rebuild(ctx context.Context) (*UpdateReport, error) {
	return uc.run(ctx, true)
}

// target is a note to (re)index
type target struct {
	note *model.Note
	date time.Time
	hash string
}

// outcome is the result of indexing one target
type outcome struct {
	chunks []*model.Chunk
	err    error
}

func (uc *IndexUseCase) run(ctx context.Context, rebuild bool) (*UpdateReport, error) {
	logger := logging.From(ctx).With(slog.String(VaultIDKey, uc.vaultID))

	if uc.embedder == nil {
		logger.Warn("embedding provider is not configured, skipping index update")
		return &UpdateReport{Unchanged: true}, nil
	}

	if !uc.running.CompareAndSwap(false, true) {
		return nil, goerr.Wrap(ErrUpdateInProgress, "index update rejected", goerr.V(VaultIDKey, uc.vaultID))
	}
	defer uc.running.Store(false)

	started := uc.clock()
	now := started

	var base *model.Index
	if !rebuild {
		idx, err := uc.current(ctx)
		if err != nil {
			return nil, err
		}
		if idx == nil {
			rebuild = true
		}
		base = idx
	}

	notes, err := uc.source.ListNotes(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list notes", goerr.V(VaultIDKey, uc.vaultID))
	}

	report := &UpdateReport{Rebuilt: rebuild, Scanned: len(notes)}

	var next *model.Index
	if rebuild {
		next = model.NewIndex(uc.Model())
	} else {
		next = base.Clone()
	}

	changed := rebuild
	seen := make(map[string]struct{}, len(notes))
	var targets []target

	for _, note := range notes {
		seen[note.Path] = struct{}{}

		date := uc.logicalDate(note)
		if notedate.AgeDays(date, now) > float64(uc.tuning.Index.RetentionDays) {
			report.Skipped++
			continue
		}

		hash := vecmath.Hash(note.Text + note.Marker())
		if !rebuild && next.FileHashes[note.Path] == hash {
			continue
		}
		targets = append(targets, target{note: note, date: date, hash: hash})
	}

	if !rebuild {
		var gone []string
		for path := range next.FileHashes {
			if _, ok := seen[path]; !ok {
				gone = append(gone, path)
			}
		}
		sort.Strings(gone)

		for _, path := range gone {
			next.RemovePath(path)
			delete(next.FileHashes, path)
			report.Removed++
			changed = true
			logger.Debug("removed note from index", slog.String(PathKey, path))
		}

		if len(targets) == 0 && !changed {
			report.Unchanged = true
			report.Chunks = next.ChunkCount()
			report.Files = next.FileCount()
			uc.adopt(next)
			report.Duration = uc.clock().Sub(started)
			logger.Info("index is up to date", slog.Any("report", report))
			return report, nil
		}
	}

	// All old chunks of changed notes go before any embedding starts
	for _, t := range targets {
		if next.RemovePath(t.note.Path) > 0 {
			changed = true
		}
	}

	outcomes := make([]outcome, len(targets))
	var eg errgroup.Group
	eg.SetLimit(uc.workers)
	for i, t := range targets {
		eg.Go(func() error {
			chunks, err := uc.indexNote(ctx, t)
			outcomes[i] = outcome{chunks: chunks, err: err}
			return nil
		})
	}
	_ = eg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, goerr.Wrap(err, "index update cancelled", goerr.V(VaultIDKey, uc.vaultID))
	}

	for i, t := range targets {
		o := outcomes[i]
		path := t.note.Path

		if o.err != nil {
			// The old hash entry stays so that the note is retried on the next update
			report.Failed++
			_ = errutil.Handle(ctx, goerr.Wrap(o.err, "failed to index note", goerr.V(PathKey, path)), "note skipped")
			continue
		}

		if len(o.chunks) == 0 {
			if _, ok := next.FileHashes[path]; ok {
				delete(next.FileHashes, path)
				changed = true
			}
			report.Empty++
			continue
		}

		next.Items = append(next.Items, o.chunks...)
		next.FileHashes[path] = t.hash
		report.Updated++
		changed = true
	}

	report.Chunks = next.ChunkCount()
	report.Files = next.FileCount()

	if !changed {
		report.Unchanged = true
		uc.adopt(next)
		report.Duration = uc.clock().Sub(started)
		logger.Info("index is up to date", slog.Any("report", report))
		return report, nil
	}

	next.UpdatedAt = uc.clock()
	if err := uc.repo.SaveIndex(ctx, uc.vaultID, next); err != nil {
		return nil, goerr.Wrap(err, "failed to save index", goerr.V(VaultIDKey, uc.vaultID))
	}
	uc.publish(next)

	report.Duration = uc.clock().Sub(started)
	logger.Info("index updated", slog.Any("report", report))

	return report, nil
}

// logicalDate is the date in the note name, or its modification time for undated notes
func (uc *IndexUseCase) logicalDate(note *model.Note) time.Time {
	if d, ok := notedate.FromFilename(note.Name); ok {
		return d
	}
	return note.ModifiedAt.Local()
}

// indexNote splits, classifies and embeds one note. Chunks beyond the batch cap are dropped.
func (uc *IndexUseCase) indexNote(ctx context.Context, t target) ([]*model.Chunk, error) {
	cfg := uc.tuning.Index

	var texts []string
	for _, piece := range vecmath.SplitIntoChunks(t.note.Text, cfg.ChunkSize, cfg.ChunkOverlap) {
		piece = strings.TrimSpace(piece)
		if utf8.RuneCountInString(piece) < cfg.MinChunkLength {
			continue
		}
		texts = append(texts, piece)
	}

	if len(texts) > cfg.MaxEmbeddingBatch {
		logging.From(ctx).Debug("dropping chunks over the embedding batch cap",
			slog.String(PathKey, t.note.Path),
			slog.Int("chunks", len(texts)),
			slog.Int("cap", cfg.MaxEmbeddingBatch))
		texts = texts[:cfg.MaxEmbeddingBatch]
	}
	if len(texts) == 0 {
		return nil, nil
	}

	vectors, err := uc.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, err
	}

	textHash := vecmath.Hash(t.note.Text)
	n := min(len(texts), len(vectors))
	chunks := make([]*model.Chunk, 0, n)
	for i := 0; i < n; i++ {
		if len(vectors[i]) == 0 {
			continue
		}
		cls := classifier.Classify(texts[i])
		chunks = append(chunks, &model.Chunk{
			ID:              model.NewChunkID(),
			Path:            t.note.Path,
			Date:            t.date,
			Text:            texts[i],
			Vector:          vectors[i],
			ContextType:     cls.ContextType,
			EmotionalTags:   cls.EmotionalTags,
			ThematicTags:    cls.ThematicTags,
			TemporalMarkers: cls.TemporalMarkers,
			Hash:            textHash,
		})
	}

	return chunks, nil
}
