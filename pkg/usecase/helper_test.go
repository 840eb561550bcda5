package usecase_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/hindsight-journal/hindsight/pkg/domain/model"
	"github.com/hindsight-journal/hindsight/pkg/repository/memory"
	"github.com/hindsight-journal/hindsight/pkg/usecase"
)

var errEmbed = errors.New("embedding provider unavailable")

// axes of the keyword embedder; a vector counts keyword occurrences per axis
var axes = [][]string{
	{"family", "sister", "brother", "mother"},
	{"happy", "great", "joy"},
	{"work", "meeting", "stress"},
	{"feel", "felt", "anxious"},
}

// keywordEmbedder is a deterministic embedding.Service for tests
type keywordEmbedder struct {
	mu      sync.Mutex
	calls   int
	inputs  []string
	failFn  func(input string) bool
	started chan struct{}
	release chan struct{}
}

func (e *keywordEmbedder) Embed(ctx context.Context, inputs []string) ([][]float32, error) {
	e.mu.Lock()
	e.calls++
	e.inputs = append(e.inputs, inputs...)
	failFn, started, release := e.failFn, e.started, e.release
	e.mu.Unlock()

	if started != nil {
		select {
		case started <- struct{}{}:
		default:
		}
	}
	if release != nil {
		<-release
	}

	out := make([][]float32, len(inputs))
	for i, in := range inputs {
		if failFn != nil && failFn(in) {
			return nil, errEmbed
		}
		out[i] = keywordVector(in)
	}
	return out, nil
}

func (e *keywordEmbedder) Model() string {
	return "keyword/4"
}

func (e *keywordEmbedder) setFail(fn func(string) bool) {
	e.mu.Lock()
	e.failFn = fn
	e.mu.Unlock()
}

func (e *keywordEmbedder) callCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

func keywordVector(text string) []float32 {
	lower := strings.ToLower(text)
	v := make([]float32, len(axes))
	for i, kws := range axes {
		for _, kw := range kws {
			v[i] += float32(strings.Count(lower, kw))
		}
	}
	return v
}

// noteSource is a mutable in-memory note listing
type noteSource struct {
	mu    sync.Mutex
	notes map[string]*model.Note
	err   error
}

func newNoteSource(notes ...*model.Note) *noteSource {
	s := &noteSource{notes: make(map[string]*model.Note)}
	for _, n := range notes {
		s.put(n)
	}
	return s
}

func (s *noteSource) put(n *model.Note) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notes[n.Path] = n
}

func (s *noteSource) remove(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.notes, path)
}

func (s *noteSource) ListNotes(ctx context.Context) ([]*model.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	out := make([]*model.Note, 0, len(s.notes))
	for _, n := range s.notes {
		out = append(out, n)
	}
	return out, nil
}

func note(name, text string) *model.Note {
	return &model.Note{
		Path:       "journal/" + name,
		Name:       name,
		Text:       text,
		ModifiedAt: time.Date(2024, 1, 10, 22, 0, 0, 0, time.UTC),
	}
}

// fakeClock returns a settable clock
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(now time.Time) *fakeClock {
	return &fakeClock{now: now}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// repoHook wraps the memory repository with overridable calls
type repoHook struct {
	*memory.Memory
	loadFn func(ctx context.Context, vaultID string) (*model.Index, error)
	saveFn func(ctx context.Context, vaultID string, idx *model.Index) error
	saves  int
}

func (r *repoHook) LoadIndex(ctx context.Context, vaultID string) (*model.Index, error) {
	if r.loadFn != nil {
		return r.loadFn(ctx, vaultID)
	}
	return r.Memory.LoadIndex(ctx, vaultID)
}

func (r *repoHook) SaveIndex(ctx context.Context, vaultID string, idx *model.Index) error {
	r.saves++
	if r.saveFn != nil {
		return r.saveFn(ctx, vaultID, idx)
	}
	return r.Memory.SaveIndex(ctx, vaultID, idx)
}

var asOf = time.Date(2024, 1, 11, 12, 0, 0, 0, time.Local)

type fixture struct {
	repo     *repoHook
	source   *noteSource
	embedder *keywordEmbedder
	clock    *fakeClock
	uc       *usecase.UseCases
}

func newFixture(notes []*model.Note, opts ...usecase.Option) *fixture {
	f := &fixture{
		repo:     &repoHook{Memory: memory.New()},
		source:   newNoteSource(notes...),
		embedder: &keywordEmbedder{},
		clock:    newFakeClock(asOf),
	}
	base := []usecase.Option{
		usecase.WithEmbedding(f.embedder),
		usecase.WithClock(f.clock.Now),
		usecase.WithVaultID("test"),
	}
	f.uc = usecase.New(f.repo, f.source, append(base, opts...)...)
	return f
}

func chunkIDs(idx *model.Index, path string) []model.ChunkID {
	var ids []model.ChunkID
	for _, c := range idx.Items {
		if c.Path == path {
			ids = append(ids, c.ID)
		}
	}
	return ids
}
