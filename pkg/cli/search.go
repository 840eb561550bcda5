package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/hindsight-journal/hindsight/pkg/domain/model"
	"github.com/hindsight-journal/hindsight/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

// Search modes of the search command
const (
	modeContextual = "contextual"
	modeEmotional  = "emotional"
	modeTemporal   = "temporal"
	modeThematic   = "thematic"
)

const dateLayout = "2006-01-02"

type searchFlags struct {
	mode            string
	k               int
	contextTypes    []string
	emotionalFilter []string
	thematicFilter  []string
	from            string
	to              string
	boostRecent     bool
	diversity       float64
	sentiment       string
	emotions        []string
	moodTags        []string
	frame           string
	themes          []string
	asJSON          bool
}

func (s *searchFlags) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "mode",
			Aliases:     []string{"m"},
			Usage:       "Search mode (contextual, emotional, temporal, thematic)",
			Value:       modeContextual,
			Destination: &s.mode,
		},
		&cli.IntFlag{
			Name:        "k",
			Aliases:     []string{"n"},
			Usage:       "Number of results",
			Value:       10,
			Destination: &s.k,
		},
		&cli.StringSliceFlag{
			Name:        "context-type",
			Usage:       "Contextual mode: only chunks of these context types (emotional, temporal, thematic, general)",
			Destination: &s.contextTypes,
		},
		&cli.StringSliceFlag{
			Name:        "emotional-filter",
			Usage:       "Contextual mode: only chunks with one of these emotional tags",
			Destination: &s.emotionalFilter,
		},
		&cli.StringSliceFlag{
			Name:        "thematic-filter",
			Usage:       "Contextual mode: only chunks with one of these thematic tags",
			Destination: &s.thematicFilter,
		},
		&cli.StringFlag{
			Name:        "from",
			Usage:       "Contextual mode: earliest note date (YYYY-MM-DD)",
			Destination: &s.from,
		},
		&cli.StringFlag{
			Name:        "to",
			Usage:       "Contextual mode: latest note date (YYYY-MM-DD, inclusive)",
			Destination: &s.to,
		},
		&cli.BoolFlag{
			Name:        "boost-recent",
			Usage:       "Contextual mode: favor recent notes",
			Destination: &s.boostRecent,
		},
		&cli.FloatFlag{
			Name:        "diversity",
			Usage:       "Contextual mode: similarity above which near duplicates are dropped, 0 disables",
			Destination: &s.diversity,
		},
		&cli.StringFlag{
			Name:        "sentiment",
			Usage:       "Emotional mode: current sentiment (positive, negative, neutral, mixed)",
			Destination: &s.sentiment,
		},
		&cli.StringSliceFlag{
			Name:        "emotion",
			Usage:       "Emotional mode: dominant emotions, such as happy or anxious",
			Destination: &s.emotions,
		},
		&cli.StringSliceFlag{
			Name:        "mood-tag",
			Usage:       "Emotional mode: extra mood tags",
			Destination: &s.moodTags,
		},
		&cli.StringFlag{
			Name:        "frame",
			Usage:       "Temporal mode: time frame (recent, week, month)",
			Value:       string(types.TimeFrameWeek),
			Destination: &s.frame,
		},
		&cli.StringSliceFlag{
			Name:        "theme",
			Usage:       "Thematic mode: themes, such as work or health",
			Destination: &s.themes,
		},
		&cli.BoolFlag{
			Name:        "json",
			Usage:       "Print results as JSON",
			Destination: &s.asJSON,
		},
	}
}

// options builds the contextual search options from the flags
func (s *searchFlags) options(c *cli.Command) (*model.SearchOptions, error) {
	opts := &model.SearchOptions{
		EmotionalFilter: s.emotionalFilter,
		ThematicFilter:  s.thematicFilter,
		BoostRecent:     s.boostRecent,
	}
	for _, v := range s.contextTypes {
		ct, err := types.ParseContextType(v)
		if err != nil {
			return nil, err
		}
		opts.ContextTypes = append(opts.ContextTypes, ct)
	}
	if c.IsSet("diversity") {
		opts.DiversityThreshold = model.Threshold(s.diversity)
	}

	if s.from != "" || s.to != "" {
		tr := &model.TimeRange{End: time.Now()}
		if s.from != "" {
			from, err := time.ParseInLocation(dateLayout, s.from, time.Local)
			if err != nil {
				return nil, goerr.Wrap(err, "invalid --from date", goerr.V("from", s.from))
			}
			tr.Start = from
		}
		if s.to != "" {
			to, err := time.ParseInLocation(dateLayout, s.to, time.Local)
			if err != nil {
				return nil, goerr.Wrap(err, "invalid --to date", goerr.V("to", s.to))
			}
			tr.End = to.AddDate(0, 0, 1).Add(-time.Nanosecond)
		}
		if tr.End.Before(tr.Start) {
			return nil, goerr.New("--from is after --to", goerr.V("from", s.from), goerr.V("to", s.to))
		}
		opts.TemporalRange = tr
	}

	return opts, nil
}

func cmdSearch() *cli.Command {
	var cfg engineConfig
	var sf searchFlags

	flags := sf.Flags()
	flags = append(flags, cfg.Flags()...)

	return &cli.Command{
		Name:      "search",
		Aliases:   []string{"s"},
		Usage:     "Search the journal",
		ArgsUsage: "QUERY...",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
			if query == "" {
				return goerr.New("query is required")
			}
			if sf.k <= 0 {
				return goerr.New("k must be positive", goerr.V("k", sf.k))
			}

			eng, err := cfg.Configure(ctx, false)
			if err != nil {
				return err
			}
			defer eng.Close()

			if err := eng.load(ctx); err != nil {
				return err
			}

			search := eng.uc.Search
			var results []*model.SearchResult
			switch sf.mode {
			case modeContextual:
				opts, err := sf.options(c)
				if err != nil {
					return err
				}
				results = search.ContextualSearch(ctx, query, sf.k, opts)

			case modeEmotional:
				sentiment, err := types.ParseSentiment(sf.sentiment)
				if err != nil {
					return err
				}
				mood := model.Mood{
					Sentiment:        sentiment,
					DominantEmotions: sf.emotions,
					Tags:             sf.moodTags,
				}
				results = search.EmotionalSearch(ctx, query, mood, sf.k)

			case modeTemporal:
				frame, err := types.ParseTimeFrame(sf.frame)
				if err != nil {
					return err
				}
				results = search.TemporalSearch(ctx, query, frame, sf.k)

			case modeThematic:
				results = search.ThematicSearch(ctx, query, sf.themes, sf.k)

			default:
				return goerr.New("unknown search mode", goerr.V("mode", sf.mode))
			}

			if sf.asJSON {
				return printResultsJSON(c.Root().Writer, results)
			}
			printResults(c.Root().Writer, results)
			return nil
		},
	}
}

func printResults(w io.Writer, results []*model.SearchResult) {
	if len(results) == 0 {
		color.New(color.Faint).Fprintln(w, "No matching notes")
		return
	}

	heading := color.New(color.FgCyan, color.Bold)
	faint := color.New(color.Faint)
	for i, r := range results {
		c := r.Chunk
		heading.Fprintf(w, "%d. %s", i+1, c.Path)
		faint.Fprintf(w, "  %s  score %.3f  %s\n", c.Date.Format(dateLayout), r.Score, c.ContextType)
		fmt.Fprintln(w, r.Display)
		fmt.Fprintln(w)
	}
}

type resultJSON struct {
	Path        string            `json:"path"`
	Date        time.Time         `json:"date"`
	Score       float64           `json:"score"`
	ContextType types.ContextType `json:"context_type"`
	Display     string            `json:"display"`
	Text        string            `json:"text"`
}

func printResultsJSON(w io.Writer, results []*model.SearchResult) error {
	out := make([]resultJSON, len(results))
	for i, r := range results {
		out[i] = resultJSON{
			Path:        r.Chunk.Path,
			Date:        r.Chunk.Date,
			Score:       r.Score,
			ContextType: r.Chunk.ContextType,
			Display:     r.Display,
			Text:        r.Chunk.Text,
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return goerr.Wrap(err, "failed to encode results")
	}
	return nil
}
