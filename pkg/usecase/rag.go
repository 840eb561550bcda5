package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/hindsight-journal/hindsight/pkg/domain/model"
	"github.com/hindsight-journal/hindsight/pkg/utils/errutil"
	"github.com/hindsight-journal/hindsight/pkg/utils/logging"
	"github.com/hindsight-journal/hindsight/pkg/utils/notedate"
)

// ContextUseCase turns conversational text into a numbered list of relevant journal
// passages for a completion prompt.
type ContextUseCase struct {
	search *SearchUseCase
	tuning *model.Tuning
	clock  func() time.Time
}

func NewContextUseCase(search *SearchUseCase, tuning *model.Tuning, clock func() time.Time) *ContextUseCase {
	return &ContextUseCase{
		search: search,
		tuning: tuning,
		clock:  clock,
	}
}

var (
	speakerPrefix = regexp.MustCompile(`^\*\*[^*]+\*\*:\s*`)
	buttonMarkup  = regexp.MustCompile("^(<button\\b|`?BUTTON\\[)")
	wordPattern   = regexp.MustCompile(`\p{L}+`)
)

var stopwords = map[string]struct{}{
	"about": {}, "after": {}, "again": {}, "also": {}, "because": {}, "been": {}, "before": {},
	"being": {}, "could": {}, "does": {}, "doing": {}, "down": {}, "each": {}, "even": {},
	"every": {}, "feel": {}, "from": {}, "have": {}, "having": {}, "here": {}, "into": {},
	"just": {}, "like": {}, "made": {}, "make": {}, "many": {}, "more": {}, "most": {},
	"much": {}, "only": {}, "other": {}, "over": {}, "really": {}, "same": {}, "should": {},
	"some": {}, "still": {}, "such": {}, "than": {}, "that": {}, "their": {}, "them": {},
	"then": {}, "there": {}, "these": {}, "they": {}, "thing": {}, "things": {}, "this": {},
	"those": {}, "through": {}, "today": {}, "very": {}, "want": {}, "were": {}, "what": {},
	"when": {}, "where": {}, "which": {}, "while": {}, "will": {}, "with": {}, "would": {},
	"your": {},
}

const maxExpansionTerms = 5

// BuildContext returns the context string for text, or an empty string when nothing
// relevant is found. targetLine, when not blank, is used as the query instead of text.
func (uc *ContextUseCase) BuildContext(ctx context.Context, text, targetLine string) string {
	out, err := uc.buildContext(ctx, text, targetLine)
	if err != nil {
		if errors.Is(err, ErrIndexEmpty) || errors.Is(err, ErrNoCandidates) || errors.Is(err, ErrEmptyQuery) {
			logging.From(ctx).Debug("no context", slog.String("reason", err.Error()))
		} else {
			_ = errutil.Handle(ctx, err, "failed to build context")
		}
		return ""
	}
	return out
}

func (uc *ContextUseCase) buildContext(ctx context.Context, text, targetLine string) (string, error) {
	cfg := uc.tuning.Context
	query := extractQuery(text, targetLine, cfg.AssistantMarker)

	// Recall over diversity at this stage
	opts := &model.SearchOptions{DiversityThreshold: model.Threshold(0)}

	primary, err := uc.search.search(ctx, query, cfg.PrimaryK, opts)
	if err != nil {
		return "", err
	}
	if len(primary) == 0 {
		return "", nil
	}

	now := uc.clock()
	combined := primary

	var secondQuery string
	secondK := cfg.PrimaryK
	if uc.allRecent(primary, now) {
		secondQuery, secondK = query, cfg.WidenedK
	} else if terms := expansionTerms(primary[0].Chunk.Text, query); len(terms) > 0 {
		secondQuery = query + " " + strings.Join(terms, " ")
	}

	if secondQuery != "" {
		secondary, err := uc.search.search(ctx, secondQuery, secondK, opts)
		if err != nil {
			logging.From(ctx).Debug("expanded search failed, using primary results", slog.Any("error", err))
		} else {
			combined = mergeResults(primary, secondary, cfg.CombinedCap)
		}
	}

	ordered := uc.prioritize(combined, query, now)
	return uc.format(ordered, now), nil
}

// extractQuery picks the part of a conversation worth searching for
func extractQuery(text, targetLine, marker string) string {
	if line := strings.TrimSpace(targetLine); line != "" {
		return line
	}

	if marker != "" && strings.Contains(text, marker) {
		lines := strings.Split(text, "\n")
		for i := len(lines) - 1; i >= 0; i-- {
			line := strings.TrimSpace(lines[i])
			if line == "" || strings.HasPrefix(line, marker) || strings.HasPrefix(line, "#") || buttonMarkup.MatchString(line) {
				continue
			}
			if q := strings.TrimSpace(speakerPrefix.ReplaceAllString(line, "")); q != "" {
				return q
			}
		}
	}

	return strings.TrimSpace(text)
}

// expansionTerms returns words of text that are repeated or start a sentence and are not
// already part of query, in order of first appearance.
func expansionTerms(text, query string) []string {
	inQuery := make(map[string]struct{})
	for _, w := range wordPattern.FindAllString(strings.ToLower(query), -1) {
		inQuery[w] = struct{}{}
	}

	locs := wordPattern.FindAllStringIndex(text, -1)
	freq := make(map[string]int, len(locs))
	for _, loc := range locs {
		freq[strings.ToLower(text[loc[0]:loc[1]])]++
	}

	var terms []string
	picked := make(map[string]struct{})
	for _, loc := range locs {
		word := text[loc[0]:loc[1]]
		lower := strings.ToLower(word)

		if utf8.RuneCountInString(word) < 4 {
			continue
		}
		if _, ok := stopwords[lower]; ok {
			continue
		}
		if _, ok := inQuery[lower]; ok {
			continue
		}
		if _, ok := picked[lower]; ok {
			continue
		}
		if freq[lower] < 2 && !(isCapitalized(word) && sentenceStart(text, loc[0])) {
			continue
		}

		picked[lower] = struct{}{}
		terms = append(terms, lower)
		if len(terms) == maxExpansionTerms {
			break
		}
	}
	return terms
}

func isCapitalized(word string) bool {
	r, _ := utf8.DecodeRuneInString(word)
	return r != utf8.RuneError && strings.ToUpper(string(r)) == string(r) && strings.ToLower(string(r)) != string(r)
}

// sentenceStart reports whether the word at pos begins the text, a line or a sentence
func sentenceStart(text string, pos int) bool {
	prefix := strings.TrimRight(text[:pos], " \t\r\n\"'(*_")
	if prefix == "" || strings.ContainsRune(text[len(prefix):pos], '\n') {
		return true
	}
	switch prefix[len(prefix)-1] {
	case '.', '!', '?', ':':
		return true
	}
	return false
}

// mergeResults appends secondary results whose chunk hash is not present yet, up to limit
func mergeResults(primary, secondary []*model.SearchResult, limit int) []*model.SearchResult {
	seen := make(map[string]struct{}, len(primary)+len(secondary))
	merged := make([]*model.SearchResult, 0, min(limit, len(primary)+len(secondary)))

	// primary results are kept as they are, several chunks of one note included
	for _, r := range primary {
		if len(merged) == limit {
			return merged
		}
		seen[r.Chunk.Hash] = struct{}{}
		merged = append(merged, r)
	}

	for _, r := range secondary {
		if len(merged) == limit {
			break
		}
		if _, dup := seen[r.Chunk.Hash]; dup {
			continue
		}
		seen[r.Chunk.Hash] = struct{}{}
		merged = append(merged, r)
	}
	return merged
}

func (uc *ContextUseCase) isRecent(r *model.SearchResult, now time.Time) bool {
	return notedate.AgeDays(r.Chunk.Date, now) <= float64(uc.tuning.Context.RecentDays)
}

func (uc *ContextUseCase) allRecent(results []*model.SearchResult, now time.Time) bool {
	for _, r := range results {
		if !uc.isRecent(r, now) {
			return false
		}
	}
	return true
}

func (uc *ContextUseCase) substantive(r *model.SearchResult, query string, recent bool) bool {
	text := r.Chunk.Text
	if utf8.RuneCountInString(text) <= uc.tuning.Context.SubstantiveChars {
		return false
	}
	if !strings.Contains(strings.ToLower(text), strings.ToLower(query)) {
		return false
	}
	if recent && uc.boilerplate(text) {
		return false
	}
	return true
}

// boilerplate reports whether text carries headings or assistant turns, which recent notes
// pick up from the current conversation itself
func (uc *ContextUseCase) boilerplate(text string) bool {
	if strings.Contains(text, uc.tuning.Context.AssistantMarker) {
		return true
	}
	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "#") {
			return true
		}
	}
	return false
}

func (uc *ContextUseCase) prioritize(results []*model.SearchResult, query string, now time.Time) []*model.SearchResult {
	var recent, historical []*model.SearchResult
	recentSubstance, historicalSubstance := false, false

	for _, r := range results {
		if uc.isRecent(r, now) {
			recent = append(recent, r)
			recentSubstance = recentSubstance || uc.substantive(r, query, true)
		} else {
			historical = append(historical, r)
			historicalSubstance = historicalSubstance || uc.substantive(r, query, false)
		}
	}

	switch {
	case historicalSubstance && !recentSubstance:
		return append(historical, recent...)

	case historicalSubstance && recentSubstance:
		cfg := uc.tuning.Context
		h := historical[:min(len(historical), cfg.HistoricalSlots)]
		r := recent[:min(len(recent), cfg.RecentSlots)]

		out := make([]*model.SearchResult, 0, len(h)+len(r))
		for i := 0; i < max(len(h), len(r)); i++ {
			if i < len(h) {
				out = append(out, h[i])
			}
			if i < len(r) {
				out = append(out, r[i])
			}
		}
		return out

	default:
		return results
	}
}

func (uc *ContextUseCase) format(results []*model.SearchResult, now time.Time) string {
	cfg := uc.tuning.Context
	if len(results) > cfg.MaxChunks {
		results = results[:cfg.MaxChunks]
	}

	parts := make([]string, len(results))
	for i, r := range results {
		parts[i] = fmt.Sprintf("%d. [%s] %s", i+1, notedate.Relative(r.Chunk.Date, now), truncate(r.Chunk.Text, cfg.SnippetLength))
	}
	return strings.Join(parts, "\n\n")
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
