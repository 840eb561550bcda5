package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/hindsight-journal/hindsight/pkg/usecase"
	"github.com/hindsight-journal/hindsight/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func cmdIndex() *cli.Command {
	var cfg engineConfig
	var rebuild bool

	flags := []cli.Flag{
		&cli.BoolFlag{
			Name:        "rebuild",
			Usage:       "Discard the stored index and index every note again",
			Sources:     cli.EnvVars("HINDSIGHT_REBUILD"),
			Destination: &rebuild,
		},
	}
	flags = append(flags, cfg.Flags()...)

	return &cli.Command{
		Name:    "index",
		Aliases: []string{"i"},
		Usage:   "Update the index with changed, new and deleted notes",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			eng, err := cfg.Configure(ctx, true)
			if err != nil {
				return err
			}
			defer eng.Close()

			run := eng.uc.Index.Update
			if rebuild {
				run = eng.uc.Index.Rebuild
			}

			report, err := run(ctx)
			if err != nil {
				return goerr.Wrap(err, "index update failed")
			}
			logging.Default().Info("Index update completed", "report", report)

			printReport(c.Root().Writer, report)
			return nil
		},
	}
}

func printReport(w io.Writer, r *usecase.UpdateReport) {
	bold := color.New(color.Bold)
	switch {
	case r.Unchanged:
		bold.Fprintln(w, "Index is up to date")
	case r.Rebuilt:
		bold.Fprintln(w, "Index rebuilt")
	default:
		bold.Fprintln(w, "Index updated")
	}

	fmt.Fprintf(w, "  notes scanned:  %d (%d outside retention)\n", r.Scanned, r.Skipped)
	fmt.Fprintf(w, "  notes updated:  %s\n", color.GreenString("%d", r.Updated))
	fmt.Fprintf(w, "  notes removed:  %s\n", color.YellowString("%d", r.Removed))
	if r.Failed > 0 {
		fmt.Fprintf(w, "  notes failed:   %s (retried on next update)\n", color.RedString("%d", r.Failed))
	}
	fmt.Fprintf(w, "  index size:     %d chunks from %d notes\n", r.Chunks, r.Files)
	fmt.Fprintf(w, "  took:           %s\n", r.Duration)
}
