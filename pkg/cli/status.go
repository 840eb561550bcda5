package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/hindsight-journal/hindsight/pkg/domain/interfaces"
	"github.com/hindsight-journal/hindsight/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

// Stored index states reported by the status command
const (
	stateReady        = "ready"
	stateMissing      = "missing"
	stateCorrupted    = "corrupted"
	stateIncompatible = "incompatible"
)

type indexStatus struct {
	VaultID   string    `json:"vault_id"`
	State     string    `json:"state"`
	Model     string    `json:"model,omitempty"`
	Version   string    `json:"version,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitzero"`
	Chunks    int       `json:"chunks"`
	Files     int       `json:"files"`
	// Provider is the configured embedding model, empty without a provider
	Provider string `json:"provider,omitempty"`
}

func cmdStatus() *cli.Command {
	var cfg engineConfig
	var asJSON bool

	flags := []cli.Flag{
		&cli.BoolFlag{
			Name:        "json",
			Usage:       "Print status as JSON",
			Destination: &asJSON,
		},
	}
	flags = append(flags, cfg.Flags()...)

	return &cli.Command{
		Name:  "status",
		Usage: "Show the stored index of the vault",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			eng, err := cfg.Configure(ctx, false)
			if err != nil {
				return err
			}
			defer eng.Close()

			st := &indexStatus{
				VaultID:  cfg.source.VaultID(),
				Provider: eng.uc.Index.Model(),
			}

			idx, err := eng.repo.LoadIndex(ctx, st.VaultID)
			switch {
			case errors.Is(err, interfaces.ErrIndexNotFound):
				st.State = stateMissing
			case errors.Is(err, interfaces.ErrCorruptedIndex):
				st.State = stateCorrupted
			case err != nil:
				return goerr.Wrap(err, "failed to load index", goerr.V("vault_id", st.VaultID))
			default:
				st.Model = idx.Model
				st.Version = idx.Version
				st.UpdatedAt = idx.UpdatedAt
				st.Chunks = idx.ChunkCount()
				st.Files = idx.FileCount()
				st.State = stateReady
				if idx.Version != model.IndexVersion || (st.Provider != "" && !idx.IsCompatible(st.Provider)) {
					st.State = stateIncompatible
				}
			}

			if asJSON {
				enc := json.NewEncoder(c.Root().Writer)
				enc.SetIndent("", "  ")
				if err := enc.Encode(st); err != nil {
					return goerr.Wrap(err, "failed to encode status")
				}
				return nil
			}
			printStatus(c.Root().Writer, st)
			return nil
		},
	}
}

func printStatus(w io.Writer, st *indexStatus) {
	var state string
	switch st.State {
	case stateReady:
		state = color.GreenString(st.State)
	case stateMissing:
		state = color.YellowString(st.State)
	default:
		state = color.RedString(st.State)
	}

	color.New(color.Bold).Fprintf(w, "Vault %s\n", st.VaultID)
	fmt.Fprintf(w, "  index:     %s\n", state)
	if st.State == stateMissing || st.State == stateCorrupted {
		fmt.Fprintln(w, "  run `hindsight index` to build it")
		return
	}

	fmt.Fprintf(w, "  model:     %s (version %s)\n", st.Model, st.Version)
	if st.Provider != "" && st.Provider != st.Model {
		fmt.Fprintf(w, "  provider:  %s\n", color.YellowString(st.Provider))
	}
	fmt.Fprintf(w, "  updated:   %s\n", st.UpdatedAt.Local().Format(time.DateTime))
	fmt.Fprintf(w, "  size:      %d chunks from %d notes\n", st.Chunks, st.Files)
	if st.State == stateIncompatible {
		fmt.Fprintln(w, "  run `hindsight index --rebuild` to rebuild it")
	}
}
