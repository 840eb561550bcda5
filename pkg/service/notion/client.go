package notion

import (
	"context"
	"iter"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/hindsight-journal/hindsight/pkg/domain/interfaces"
	"github.com/hindsight-journal/hindsight/pkg/domain/model"
	"github.com/hindsight-journal/hindsight/pkg/utils/logging"
	"github.com/jomei/notionapi"
	"github.com/m-mizutani/goerr/v2"
)

// PathPrefix is prepended to page IDs to form note paths
const PathPrefix = "notion/"

// Source lists the pages of one Notion database as notes. Page contents are cached by last
// edited time so an unchanged page costs one query row per listing.
type Source struct {
	api          *notionapi.Client
	databaseID   string
	dateProperty string

	mu    sync.Mutex
	cache map[string]*Page
}

var _ interfaces.NoteSource = &Source{}

type Option func(*Source)

// WithDateProperty names the date property used as the entry's logical date. Without it the
// page title must carry the date.
func WithDateProperty(name string) Option {
	return func(s *Source) {
		s.dateProperty = name
	}
}

// New creates a new Notion note source with the provided API token
func New(token, databaseID string, opts ...Option) (*Source, error) {
	if token == "" {
		return nil, goerr.New("Notion API token is required")
	}
	id, err := ParseDatabaseID(databaseID)
	if err != nil {
		return nil, err
	}

	s := &Source{
		api: notionapi.NewClient(
			notionapi.Token(token),
			notionapi.WithRetry(3), // Retry up to 3 times on rate limit (HTTP 429)
		),
		databaseID: id,
		cache:      make(map[string]*Page),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// ListNotes returns every page of the database as a note
func (s *Source) ListNotes(ctx context.Context) ([]*model.Note, error) {
	var notes []*model.Note
	seen := make(map[string]struct{})

	for page, err := range s.queryPages(ctx) {
		if err != nil {
			return nil, err
		}
		seen[page.ID] = struct{}{}
		notes = append(notes, pageToNote(page))
	}

	s.mu.Lock()
	for id := range s.cache {
		if _, ok := seen[id]; !ok {
			delete(s.cache, id)
		}
	}
	s.mu.Unlock()

	logging.From(ctx).Debug("listed notion pages",
		slog.String("database_id", s.databaseID),
		slog.Int("count", len(notes)))

	return notes, nil
}

func pageToNote(page *Page) *model.Note {
	name := page.Title
	if !page.Date.IsZero() {
		name = page.Date.Format("2006-01-02_15-04")
	}
	return &model.Note{
		Path:       PathPrefix + page.ID,
		Name:       name,
		Text:       page.Blocks.Text(),
		ModifiedAt: page.LastEditedTime,
	}
}

// queryPages walks the database and yields pages with their blocks
func (s *Source) queryPages(ctx context.Context) iter.Seq2[*Page, error] {
	return func(yield func(*Page, error) bool) {
		var cursor notionapi.Cursor

		for {
			resp, err := s.api.Database.Query(ctx, notionapi.DatabaseID(s.databaseID), &notionapi.DatabaseQueryRequest{
				StartCursor: cursor,
				PageSize:    100,
			})
			if err != nil {
				yield(nil, goerr.Wrap(err, "failed to query database", goerr.V("databaseID", s.databaseID)))
				return
			}

			for _, obj := range resp.Results {
				page, err := s.page(ctx, obj)
				if err != nil {
					yield(nil, err)
					return
				}
				if !yield(page, nil) {
					return
				}
			}

			if !resp.HasMore {
				return
			}
			cursor = resp.NextCursor
		}
	}
}

func (s *Source) page(ctx context.Context, obj notionapi.Page) (*Page, error) {
	id := obj.ID.String()
	edited := time.Time(obj.LastEditedTime)

	s.mu.Lock()
	cached, ok := s.cache[id]
	s.mu.Unlock()
	if ok && cached.LastEditedTime.Equal(edited) {
		return cached, nil
	}

	blocks, err := s.fetchBlocks(ctx, id)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to fetch page blocks", goerr.V("pageID", id))
	}

	page := &Page{
		ID:             id,
		Title:          strings.TrimSpace(pageTitle(obj.Properties)),
		LastEditedTime: edited,
		URL:            obj.URL,
		Blocks:         blocks,
	}
	if date, ok := pageDate(obj.Properties, s.dateProperty); ok {
		page.Date = date.Local()
	}

	s.mu.Lock()
	s.cache[id] = page
	s.mu.Unlock()

	return page, nil
}

// fetchBlocks retrieves all blocks for a page or block, including nested children
func (s *Source) fetchBlocks(ctx context.Context, blockID string) (Blocks, error) {
	var blocks Blocks
	var cursor notionapi.Cursor

	for {
		resp, err := s.api.Block.GetChildren(ctx, notionapi.BlockID(blockID), &notionapi.Pagination{
			StartCursor: cursor,
			PageSize:    100,
		})
		if err != nil {
			return nil, goerr.Wrap(err, "failed to get block children", goerr.V("blockID", blockID))
		}

		for _, obj := range resp.Results {
			rt, checked := richTextOf(obj)
			block := Block{
				ID:       obj.GetID().String(),
				Type:     obj.GetType(),
				RichText: rt,
				Checked:  checked,
			}

			if obj.GetHasChildren() {
				children, err := s.fetchBlocks(ctx, block.ID)
				if err != nil {
					return nil, goerr.Wrap(err, "failed to fetch children blocks",
						goerr.V("blockID", block.ID), goerr.V("blockType", block.Type))
				}
				block.Children = children
			}
			blocks = append(blocks, block)
		}

		if !resp.HasMore {
			return blocks, nil
		}
		cursor = notionapi.Cursor(resp.NextCursor)
	}
}
