package usecase

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/hindsight-journal/hindsight/pkg/domain/model"
	"github.com/hindsight-journal/hindsight/pkg/domain/types"
	"github.com/hindsight-journal/hindsight/pkg/service/embedding"
	"github.com/hindsight-journal/hindsight/pkg/utils/classifier"
	"github.com/hindsight-journal/hindsight/pkg/utils/errutil"
	"github.com/hindsight-journal/hindsight/pkg/utils/logging"
	"github.com/hindsight-journal/hindsight/pkg/utils/notedate"
	"github.com/hindsight-journal/hindsight/pkg/utils/vecmath"
	"github.com/m-mizutani/goerr/v2"
)

// SearchUseCase ranks chunks of the current index snapshot against a query.
type SearchUseCase struct {
	index    *IndexUseCase
	embedder embedding.Service
	tuning   *model.Tuning
	clock    func() time.Time
}

func NewSearchUseCase(index *IndexUseCase, embedder embedding.Service, tuning *model.Tuning, clock func() time.Time) *SearchUseCase {
	return &SearchUseCase{
		index:    index,
		embedder: embedder,
		tuning:   tuning,
		clock:    clock,
	}
}

type scoredChunk struct {
	chunk *model.Chunk
	score float64
}

// ContextualSearch returns at most k chunks ranked by similarity to query, adjusted by
// recency, exact match and context type. It never fails: any error yields an empty result.
func (uc *SearchUseCase) ContextualSearch(ctx context.Context, query string, k int, opts *model.SearchOptions) []*model.SearchResult {
	results, err := uc.search(ctx, query, k, opts)
	return uc.softFail(ctx, results, err, "contextual search failed")
}

// EmotionalSearch looks for entries that share the writer's current mood.
func (uc *SearchUseCase) EmotionalSearch(ctx context.Context, query string, mood model.Mood, k int) []*model.SearchResult {
	var filter []string
	for _, e := range slices.Concat(mood.DominantEmotions, mood.Tags) {
		if c, ok := classifier.EmotionCategory(e); ok && !slices.Contains(filter, c) {
			filter = append(filter, c)
		}
	}

	opts := &model.SearchOptions{
		ContextTypes:       []types.ContextType{types.ContextTypeEmotional, types.ContextTypeGeneral},
		EmotionalFilter:    filter,
		BoostRecent:        mood.Sentiment == types.SentimentNegative,
		DiversityThreshold: model.Threshold(uc.tuning.Ranking.EmotionalDiversityThreshold),
	}
	results, err := uc.preset(ctx, query, k, opts)
	return uc.softFail(ctx, results, err, "emotional search failed")
}

// TemporalSearch looks for entries written within frame.
func (uc *SearchUseCase) TemporalSearch(ctx context.Context, query string, frame types.TimeFrame, k int) []*model.SearchResult {
	r, err := notedate.RangeForFrame(frame, uc.clock(), uc.tuning)
	if err != nil {
		return uc.softFail(ctx, nil, err, "temporal search failed")
	}

	opts := &model.SearchOptions{
		ContextTypes:  []types.ContextType{types.ContextTypeTemporal, types.ContextTypeGeneral},
		TemporalRange: &r,
		BoostRecent:   true,
	}
	results, err := uc.preset(ctx, query, k, opts)
	return uc.softFail(ctx, results, err, "temporal search failed")
}

// ThematicSearch looks for entries about any of themes.
func (uc *SearchUseCase) ThematicSearch(ctx context.Context, query string, themes []string, k int) []*model.SearchResult {
	filter := make([]string, 0, len(themes))
	for _, t := range themes {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			filter = append(filter, t)
		}
	}

	opts := &model.SearchOptions{
		ContextTypes:       []types.ContextType{types.ContextTypeThematic, types.ContextTypeGeneral},
		ThematicFilter:     filter,
		DiversityThreshold: model.Threshold(uc.tuning.Ranking.ThematicDiversityThreshold),
	}
	results, err := uc.preset(ctx, query, k, opts)
	return uc.softFail(ctx, results, err, "thematic search failed")
}

// preset runs a search restricted to the preset's context types, or without the restriction
// when it leaves no candidate while the other filters still do. The query is embedded once.
func (uc *SearchUseCase) preset(ctx context.Context, query string, k int, opts *model.SearchOptions) ([]*model.SearchResult, error) {
	if len(opts.ContextTypes) == 0 {
		return uc.search(ctx, query, k, opts)
	}

	snap := uc.index.Snapshot()
	if snap.ChunkCount() == 0 {
		return uc.search(ctx, query, k, opts)
	}
	items := snap.Items
	if len(filterChunks(items, opts)) > 0 {
		return uc.search(ctx, query, k, opts)
	}

	relaxed := *opts
	relaxed.ContextTypes = nil
	if len(filterChunks(items, &relaxed)) == 0 {
		return uc.search(ctx, query, k, opts)
	}

	logging.From(ctx).Debug("no candidate of the preset context types, relaxing",
		slog.Any("context_types", opts.ContextTypes))
	return uc.search(ctx, query, k, &relaxed)
}

func (uc *SearchUseCase) softFail(ctx context.Context, results []*model.SearchResult, err error, msg string) []*model.SearchResult {
	switch {
	case err == nil:
		return results
	case errors.Is(err, ErrIndexEmpty), errors.Is(err, ErrNoCandidates), errors.Is(err, ErrEmptyQuery):
		logging.From(ctx).Debug("search returned nothing", slog.String("reason", err.Error()))
	default:
		_ = errutil.Handle(ctx, err, msg)
	}
	return []*model.SearchResult{}
}

// search reports why it found nothing through its error.
func (uc *SearchUseCase) search(ctx context.Context, query string, k int, opts *model.SearchOptions) ([]*model.SearchResult, error) {
	if opts == nil {
		opts = &model.SearchOptions{}
	}
	if k <= 0 {
		return []*model.SearchResult{}, nil
	}
	if strings.TrimSpace(query) == "" {
		return nil, goerr.Wrap(ErrEmptyQuery, "nothing to search for")
	}

	snap := uc.index.Snapshot()
	if snap.ChunkCount() == 0 {
		return nil, goerr.Wrap(ErrIndexEmpty, "nothing to search in")
	}
	if uc.embedder == nil {
		return nil, goerr.Wrap(ErrNoEmbedder, "cannot embed query")
	}

	vectors, err := uc.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to embed query", goerr.V(QueryKey, query))
	}
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return nil, goerr.Wrap(ErrQueryVector, "provider returned no query vector", goerr.V(QueryKey, query))
	}
	qv := vectors[0]

	candidates := filterChunks(snap.Items, opts)
	if len(candidates) == 0 {
		return nil, goerr.Wrap(ErrNoCandidates, "filters excluded every chunk", goerr.V(QueryKey, query))
	}

	now := uc.clock()
	rank := uc.tuning.Ranking
	lowerQuery := strings.ToLower(query)

	scored := make([]scoredChunk, len(candidates))
	for i, c := range candidates {
		score := vecmath.Cosine(qv, c.Vector)
		if opts.BoostRecent {
			score *= 1 + math.Exp(-notedate.AgeDays(c.Date, now)/rank.RecencyDivisorDays)*rank.RecencyWeight
		}
		if strings.Contains(strings.ToLower(c.Text), lowerQuery) {
			score *= rank.ExactMatchBoost
		}
		if c.ContextType != types.ContextTypeGeneral {
			score *= rank.ContextTypeBoost
		}
		scored[i] = scoredChunk{chunk: c, score: score}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})

	threshold := rank.DiversityThreshold
	if opts.DiversityThreshold != nil {
		threshold = *opts.DiversityThreshold
	}
	scored = vecmath.DiversityFilter(scored, func(s scoredChunk) []float32 { return s.chunk.Vector }, threshold)

	if len(scored) > k {
		scored = scored[:k]
	}

	results := make([]*model.SearchResult, len(scored))
	for i, s := range scored {
		results[i] = &model.SearchResult{
			Chunk:   s.chunk,
			Score:   s.score,
			Display: "[" + notedate.Relative(s.chunk.Date, now) + "] " + s.chunk.Text,
		}
	}
	return results, nil
}

func filterChunks(items []*model.Chunk, opts *model.SearchOptions) []*model.Chunk {
	var out []*model.Chunk
	for _, c := range items {
		if len(c.Vector) == 0 {
			continue
		}
		if len(opts.ContextTypes) > 0 && !slices.Contains(opts.ContextTypes, c.ContextType) {
			continue
		}
		if len(opts.EmotionalFilter) > 0 && !model.HasTag(c.EmotionalTags, opts.EmotionalFilter) {
			continue
		}
		if len(opts.ThematicFilter) > 0 && !model.HasTag(c.ThematicTags, opts.ThematicFilter) {
			continue
		}
		if opts.TemporalRange != nil && !opts.TemporalRange.Contains(c.Date) {
			continue
		}
		out = append(out, c)
	}
	return out
}
