package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

// readText takes the text from the arguments, or from the command input when none are given
func readText(c *cli.Command) (string, error) {
	if c.Args().Len() > 0 {
		return strings.Join(c.Args().Slice(), " "), nil
	}

	raw, err := io.ReadAll(c.Root().Reader)
	if err != nil {
		return "", goerr.Wrap(err, "failed to read input")
	}
	return string(raw), nil
}

func cmdContext() *cli.Command {
	var cfg engineConfig
	var line string

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "line",
			Aliases:     []string{"l"},
			Usage:       "Line of the text to use as search query, the last user line by default",
			Destination: &line,
		},
	}
	flags = append(flags, cfg.Flags()...)

	return &cli.Command{
		Name:      "context",
		Aliases:   []string{"ctx"},
		Usage:     "Print the journal context assembled for a conversation (reads stdin without TEXT)",
		ArgsUsage: "[TEXT...]",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			text, err := readText(c)
			if err != nil {
				return err
			}

			eng, err := cfg.Configure(ctx, false)
			if err != nil {
				return err
			}
			defer eng.Close()

			if err := eng.load(ctx); err != nil {
				return err
			}

			out := eng.uc.Context.BuildContext(ctx, text, line)
			if out == "" {
				color.New(color.Faint).Fprintln(c.Root().ErrWriter, "No relevant journal context")
				return nil
			}
			fmt.Fprintln(c.Root().Writer, out)
			return nil
		},
	}
}
