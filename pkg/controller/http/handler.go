package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/hindsight-journal/hindsight/pkg/domain/model"
	"github.com/hindsight-journal/hindsight/pkg/domain/types"
	"github.com/hindsight-journal/hindsight/pkg/usecase"
	"github.com/hindsight-journal/hindsight/pkg/utils/async"
	"github.com/hindsight-journal/hindsight/pkg/utils/errutil"
	"github.com/hindsight-journal/hindsight/pkg/utils/safe"
	"github.com/m-mizutani/goerr/v2"
)

// DefaultK is the number of results when a request does not set k
const DefaultK = 10

type errorResponse struct {
	Error string `json:"error"`
}

type acceptedResponse struct {
	Status string `json:"status"`
}

type searchRequest struct {
	Query              string     `json:"query"`
	K                  int        `json:"k"`
	ContextTypes       []string   `json:"context_types,omitempty"`
	EmotionalFilter    []string   `json:"emotional_filter,omitempty"`
	ThematicFilter     []string   `json:"thematic_filter,omitempty"`
	From               *time.Time `json:"from,omitempty"`
	To                 *time.Time `json:"to,omitempty"`
	BoostRecent        bool       `json:"boost_recent,omitempty"`
	DiversityThreshold *float64   `json:"diversity_threshold,omitempty"`

	Mood   *model.Mood `json:"mood,omitempty"`
	Frame  string      `json:"frame,omitempty"`
	Themes []string    `json:"themes,omitempty"`
}

type searchResult struct {
	Path            string            `json:"path"`
	Date            time.Time         `json:"date"`
	Text            string            `json:"text"`
	Display         string            `json:"display"`
	Score           float64           `json:"score"`
	ContextType     types.ContextType `json:"context_type"`
	EmotionalTags   []string          `json:"emotional_tags,omitempty"`
	ThematicTags    []string          `json:"thematic_tags,omitempty"`
	TemporalMarkers []string          `json:"temporal_markers,omitempty"`
}

type searchResponse struct {
	Results []searchResult `json:"results"`
}

type contextRequest struct {
	Text       string `json:"text"`
	TargetLine string `json:"target_line,omitempty"`
}

type contextResponse struct {
	Context string `json:"context"`
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, http.StatusOK, acceptedResponse{Status: "ok"})
}

func (s *Server) statusHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, http.StatusOK, s.uc.Index.Status())
}

// indexHandler starts an update or rebuild in the background and answers 202
func (s *Server) indexHandler(rebuild bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.uc.Index.Updating() {
			writeJSON(r.Context(), w, http.StatusConflict, errorResponse{Error: usecase.ErrUpdateInProgress.Error()})
			return
		}

		name, run := "index-update", s.uc.Index.Update
		if rebuild {
			name, run = "index-rebuild", s.uc.Index.Rebuild
		}
		async.Dispatch(r.Context(), name, func(ctx context.Context) error {
			if _, err := run(ctx); err != nil && !errors.Is(err, usecase.ErrUpdateInProgress) {
				return err
			}
			return nil
		})

		writeJSON(r.Context(), w, http.StatusAccepted, acceptedResponse{Status: "accepted"})
	}
}

func (s *Server) searchHandler(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeSearch(w, r)
	if !ok {
		return
	}

	opts := &model.SearchOptions{
		EmotionalFilter:    req.EmotionalFilter,
		ThematicFilter:     req.ThematicFilter,
		BoostRecent:        req.BoostRecent,
		DiversityThreshold: req.DiversityThreshold,
	}
	for _, v := range req.ContextTypes {
		ct, err := types.ParseContextType(v)
		if err != nil {
			errutil.HandleHTTP(r.Context(), w, err, http.StatusBadRequest)
			return
		}
		opts.ContextTypes = append(opts.ContextTypes, ct)
	}
	if req.From != nil || req.To != nil {
		tr := &model.TimeRange{End: s.uc.Now()}
		if req.From != nil {
			tr.Start = *req.From
		}
		if req.To != nil {
			tr.End = *req.To
		}
		if tr.End.Before(tr.Start) {
			errutil.HandleHTTP(r.Context(), w, goerr.New("from must not be after to"), http.StatusBadRequest)
			return
		}
		opts.TemporalRange = tr
	}

	results := s.uc.Search.ContextualSearch(r.Context(), req.Query, req.K, opts)
	writeJSON(r.Context(), w, http.StatusOK, toSearchResponse(results))
}

func (s *Server) emotionalSearchHandler(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeSearch(w, r)
	if !ok {
		return
	}

	var mood model.Mood
	if req.Mood != nil {
		mood = *req.Mood
	}
	if mood.Sentiment != "" && !mood.Sentiment.IsValid() {
		errutil.HandleHTTP(r.Context(), w, goerr.Wrap(types.ErrInvalidSentiment, "bad mood", goerr.V("sentiment", mood.Sentiment)), http.StatusBadRequest)
		return
	}

	results := s.uc.Search.EmotionalSearch(r.Context(), req.Query, mood, req.K)
	writeJSON(r.Context(), w, http.StatusOK, toSearchResponse(results))
}

func (s *Server) temporalSearchHandler(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeSearch(w, r)
	if !ok {
		return
	}

	frame, err := types.ParseTimeFrame(req.Frame)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err, http.StatusBadRequest)
		return
	}

	results := s.uc.Search.TemporalSearch(r.Context(), req.Query, frame, req.K)
	writeJSON(r.Context(), w, http.StatusOK, toSearchResponse(results))
}

func (s *Server) thematicSearchHandler(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeSearch(w, r)
	if !ok {
		return
	}

	results := s.uc.Search.ThematicSearch(r.Context(), req.Query, req.Themes, req.K)
	writeJSON(r.Context(), w, http.StatusOK, toSearchResponse(results))
}

func (s *Server) contextHandler(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeContext(w, r)
	if !ok {
		return
	}

	out := s.uc.Context.BuildContext(r.Context(), req.Text, req.TargetLine)
	writeJSON(r.Context(), w, http.StatusOK, contextResponse{Context: out})
}

func (s *Server) askHandler(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeContext(w, r)
	if !ok {
		return
	}

	answer, err := s.uc.Ask.Ask(r.Context(), req.Text, req.TargetLine)
	switch {
	case errors.Is(err, usecase.ErrNoLLMClient):
		errutil.HandleHTTP(r.Context(), w, err, http.StatusServiceUnavailable)
		return
	case err != nil:
		errutil.HandleHTTP(r.Context(), w, err, http.StatusInternalServerError)
		return
	}

	writeJSON(r.Context(), w, http.StatusOK, answer)
}

func decodeSearch(w http.ResponseWriter, r *http.Request) (*searchRequest, bool) {
	var req searchRequest
	if !decodeJSON(w, r, &req) {
		return nil, false
	}
	if strings.TrimSpace(req.Query) == "" {
		errutil.HandleHTTP(r.Context(), w, goerr.New("query is required"), http.StatusBadRequest)
		return nil, false
	}
	if req.K == 0 {
		req.K = DefaultK
	}
	if req.K < 0 {
		errutil.HandleHTTP(r.Context(), w, goerr.New("k must be positive", goerr.V("k", req.K)), http.StatusBadRequest)
		return nil, false
	}
	return &req, true
}

func decodeContext(w http.ResponseWriter, r *http.Request) (*contextRequest, bool) {
	var req contextRequest
	if !decodeJSON(w, r, &req) {
		return nil, false
	}
	if strings.TrimSpace(req.Text) == "" && strings.TrimSpace(req.TargetLine) == "" {
		errutil.HandleHTTP(r.Context(), w, goerr.New("text is required"), http.StatusBadRequest)
		return nil, false
	}
	return &req, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	body := http.MaxBytesReader(w, r.Body, maxRequestBytes)
	defer safe.Close(r.Context(), body)

	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		errutil.HandleHTTP(r.Context(), w, goerr.Wrap(err, "invalid request body"), http.StatusBadRequest)
		return false
	}
	return true
}

func toSearchResponse(results []*model.SearchResult) searchResponse {
	resp := searchResponse{Results: make([]searchResult, len(results))}
	for i, r := range results {
		c := r.Chunk
		resp.Results[i] = searchResult{
			Path:            c.Path,
			Date:            c.Date,
			Text:            c.Text,
			Display:         r.Display,
			Score:           r.Score,
			ContextType:     c.ContextType,
			EmotionalTags:   c.EmotionalTags,
			ThematicTags:    c.ThematicTags,
			TemporalMarkers: c.TemporalMarkers,
		}
	}
	return resp
}

// writeJSON writes a JSON response with proper error handling
func writeJSON(ctx context.Context, w http.ResponseWriter, statusCode int, data any) {
	raw, err := json.Marshal(data)
	if err != nil {
		errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "failed to encode JSON response"), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	safe.Write(ctx, w, raw)
}
