package usecase

import (
	"context"
	"time"

	"github.com/hindsight-journal/hindsight/pkg/domain/model"
)

// ExtractQuery is exported for testing
var ExtractQuery = extractQuery

// ExpansionTerms is exported for testing
var ExpansionTerms = expansionTerms

// MergeResults is exported for testing
var MergeResults = mergeResults

// BuildAskSystemPrompt is exported for testing
var BuildAskSystemPrompt = (*AskUseCase).buildSystemPrompt

// SearchWithError runs the internal search, which reports why it returned nothing
func (uc *SearchUseCase) SearchWithError(ctx context.Context, query string, k int, opts *model.SearchOptions) ([]*model.SearchResult, error) {
	return uc.search(ctx, query, k, opts)
}

// Prioritize is exported for testing
func (uc *ContextUseCase) Prioritize(results []*model.SearchResult, query string, now time.Time) []*model.SearchResult {
	return uc.prioritize(results, query, now)
}
