package config

import (
	"bytes"
	"errors"
	"io/fs"
	"log/slog"
	"os"

	"github.com/hindsight-journal/hindsight/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/urfave/cli/v3"
)

// Tuning holds the CLI flag pointing at the tuning file
type Tuning struct {
	path string
}

// Flags returns CLI flags for tuning configuration
func (t *Tuning) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "tuning-file",
			Usage:       "TOML file overriding indexing, ranking and context constants",
			Category:    "Tuning",
			Sources:     cli.EnvVars("HINDSIGHT_TUNING_FILE"),
			Destination: &t.path,
		},
	}
}

// LogAttrs returns log attributes for the tuning configuration
func (t *Tuning) LogAttrs() []slog.Attr {
	return []slog.Attr{
		slog.String("tuning_file", t.path),
	}
}

// Configure returns the default tuning, overridden by the tuning file when one is set
func (t *Tuning) Configure() (*model.Tuning, error) {
	if t.path == "" {
		return model.DefaultTuning(), nil
	}
	return LoadTuning(t.path)
}

// LoadTuning decodes a TOML file over the default tuning and validates the result.
// Keys missing from the file keep their default value.
func LoadTuning(path string) (*model.Tuning, error) {
	// #nosec G304 - path is expected to be provided by CLI argument
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, goerr.Wrap(ErrConfigNotFound, "tuning file not found", goerr.V(ConfigPathKey, path))
		}
		return nil, goerr.Wrap(err, "failed to read tuning file", goerr.V(ConfigPathKey, path))
	}

	tuning := model.DefaultTuning()
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(tuning); err != nil {
		return nil, goerr.Wrap(ErrInvalidConfig, "failed to parse TOML tuning", goerr.V(ConfigPathKey, path), goerr.V("error", err.Error()))
	}

	if err := tuning.Validate(); err != nil {
		return nil, goerr.Wrap(err, "tuning validation failed", goerr.V(ConfigPathKey, path))
	}

	return tuning, nil
}
