package config

import (
	"log/slog"

	"github.com/hindsight-journal/hindsight/pkg/domain/interfaces"
	"github.com/hindsight-journal/hindsight/pkg/service/notion"
	"github.com/hindsight-journal/hindsight/pkg/service/vault"
	"github.com/hindsight-journal/hindsight/pkg/usecase"
	"github.com/hindsight-journal/hindsight/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

// Source holds CLI flags for the note sources of a vault
type Source struct {
	vaultID            string
	dir                string
	include            []string
	excludes           []string
	notionToken        string
	notionDatabaseID   string
	notionDateProperty string
}

// Flags returns CLI flags for note source configuration
func (s *Source) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "vault-id",
			Usage:       "Identifier of the vault; one index is stored per vault",
			Value:       usecase.DefaultVaultID,
			Category:    "Source",
			Sources:     cli.EnvVars("HINDSIGHT_VAULT_ID"),
			Destination: &s.vaultID,
		},
		&cli.StringFlag{
			Name:        "vault-dir",
			Aliases:     []string{"d"},
			Usage:       "Root folder of the markdown notes",
			Category:    "Source",
			Sources:     cli.EnvVars("HINDSIGHT_VAULT_DIR"),
			Destination: &s.dir,
		},
		&cli.StringSliceFlag{
			Name:        "include",
			Usage:       "Glob of notes to index, relative to the vault folder",
			Value:       []string{vault.DefaultInclude},
			Category:    "Source",
			Sources:     cli.EnvVars("HINDSIGHT_INCLUDE"),
			Destination: &s.include,
		},
		&cli.StringSliceFlag{
			Name:        "exclude",
			Usage:       "Glob of files or folders to skip, relative to the vault folder",
			Value:       vault.DefaultExcludes,
			Category:    "Source",
			Sources:     cli.EnvVars("HINDSIGHT_EXCLUDE"),
			Destination: &s.excludes,
		},
		&cli.StringFlag{
			Name:        "notion-api-token",
			Usage:       "Notion API token to index a journal database",
			Category:    "Source",
			Sources:     cli.EnvVars("HINDSIGHT_NOTION_API_TOKEN"),
			Destination: &s.notionToken,
		},
		&cli.StringFlag{
			Name:        "notion-database-id",
			Usage:       "Notion database holding one page per journal entry",
			Category:    "Source",
			Sources:     cli.EnvVars("HINDSIGHT_NOTION_DATABASE_ID"),
			Destination: &s.notionDatabaseID,
		},
		&cli.StringFlag{
			Name:        "notion-date-property",
			Usage:       "Date property of the Notion database giving the entry date",
			Category:    "Source",
			Sources:     cli.EnvVars("HINDSIGHT_NOTION_DATE_PROPERTY"),
			Destination: &s.notionDateProperty,
		},
	}
}

// LogAttrs returns log attributes for the source configuration
func (s *Source) LogAttrs() []slog.Attr {
	return []slog.Attr{
		slog.String("vault_id", s.vaultID),
		slog.String("dir", s.dir),
		slog.Any("include", s.include),
		slog.Any("exclude", s.excludes),
		slog.String("notion_database_id", s.notionDatabaseID),
	}
}

// VaultID returns the configured vault identifier
func (s *Source) VaultID() string {
	return s.vaultID
}

// Configure builds the joined note source. The filesystem vault is also returned, nil when
// no folder is configured, so that callers can watch it.
func (s *Source) Configure() (interfaces.NoteSource, *vault.Vault, error) {
	var sources []interfaces.NoteSource
	var v *vault.Vault

	if s.dir != "" {
		var err error
		v, err = vault.New(s.dir, vault.WithInclude(s.include...), vault.WithExcludes(s.excludes...))
		if err != nil {
			return nil, nil, goerr.Wrap(err, "failed to open vault folder", goerr.V("dir", s.dir))
		}
		sources = append(sources, v)
		logging.Default().Info("Vault folder enabled", "dir", s.dir)
	}

	switch {
	case s.notionToken != "" && s.notionDatabaseID != "":
		var opts []notion.Option
		if s.notionDateProperty != "" {
			opts = append(opts, notion.WithDateProperty(s.notionDateProperty))
		}
		src, err := notion.New(s.notionToken, s.notionDatabaseID, opts...)
		if err != nil {
			return nil, nil, goerr.Wrap(err, "failed to initialize notion source")
		}
		sources = append(sources, src)
		logging.Default().Info("Notion journal database enabled", "database_id", s.notionDatabaseID)

	case s.notionToken != "" || s.notionDatabaseID != "":
		return nil, nil, goerr.Wrap(ErrMissingOption, "notion-api-token and notion-database-id must be set together")
	}

	if len(sources) == 0 {
		return nil, nil, goerr.Wrap(ErrMissingOption, "no note source configured, set --vault-dir or the Notion options")
	}

	return vault.Join(sources...), v, nil
}
