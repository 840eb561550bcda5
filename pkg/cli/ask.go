package cli

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/urfave/cli/v3"
)

func cmdAsk() *cli.Command {
	var cfg engineConfig
	var line string
	var showContext bool

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "line",
			Aliases:     []string{"l"},
			Usage:       "Line of the text to use as search query, the last user line by default",
			Destination: &line,
		},
		&cli.BoolFlag{
			Name:        "show-context",
			Usage:       "Print the journal context given to the model before the answer",
			Destination: &showContext,
		},
	}
	flags = append(flags, cfg.Flags()...)

	return &cli.Command{
		Name:      "ask",
		Usage:     "Answer a message with the journal as context (reads stdin without TEXT)",
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

			answer, err := eng.uc.Ask.Ask(ctx, text, line)
			if err != nil {
				return err
			}

			w := c.Root().Writer
			if showContext && answer.Context != "" {
				color.New(color.Faint).Fprintln(w, answer.Context)
				fmt.Fprintln(w)
			}
			fmt.Fprintln(w, answer.Text)
			return nil
		},
	}
}
