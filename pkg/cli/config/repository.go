package config

import (
	"context"
	"log/slog"

	"github.com/hindsight-journal/hindsight/pkg/domain/interfaces"
	"github.com/hindsight-journal/hindsight/pkg/repository/bolt"
	"github.com/hindsight-journal/hindsight/pkg/repository/file"
	"github.com/hindsight-journal/hindsight/pkg/repository/firestore"
	"github.com/hindsight-journal/hindsight/pkg/repository/gcs"
	"github.com/hindsight-journal/hindsight/pkg/repository/memory"
	"github.com/hindsight-journal/hindsight/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

// Repository backend names
const (
	BackendFile      = "file"
	BackendBolt      = "bolt"
	BackendGCS       = "gcs"
	BackendFirestore = "firestore"
	BackendMemory    = "memory"
)

// Repository holds CLI flags for index store configuration
type Repository struct {
	backend          string
	path             string
	gcsBucket        string
	gcsPrefix        string
	projectID        string
	databaseID       string
	collectionPrefix string
}

// Flags returns CLI flags for repository configuration
func (r *Repository) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "repository-backend",
			Usage:       "Index store (file, bolt, gcs, firestore or memory)",
			Value:       BackendFile,
			Category:    "Repository",
			Sources:     cli.EnvVars("HINDSIGHT_REPOSITORY_BACKEND"),
			Destination: &r.backend,
		},
		&cli.StringFlag{
			Name:        "repository-path",
			Usage:       "Directory of the file backend, or database file of the bolt backend",
			Value:       ".hindsight",
			Category:    "Repository",
			Sources:     cli.EnvVars("HINDSIGHT_REPOSITORY_PATH"),
			Destination: &r.path,
		},
		&cli.StringFlag{
			Name:        "gcs-bucket",
			Usage:       "GCS bucket (required when using gcs backend)",
			Category:    "Repository",
			Sources:     cli.EnvVars("HINDSIGHT_GCS_BUCKET"),
			Destination: &r.gcsBucket,
		},
		&cli.StringFlag{
			Name:        "gcs-prefix",
			Usage:       "Object name prefix in the GCS bucket",
			Category:    "Repository",
			Sources:     cli.EnvVars("HINDSIGHT_GCS_PREFIX"),
			Destination: &r.gcsPrefix,
		},
		&cli.StringFlag{
			Name:        "firestore-project-id",
			Usage:       "Firestore Project ID (required when using firestore backend)",
			Category:    "Repository",
			Sources:     cli.EnvVars("HINDSIGHT_FIRESTORE_PROJECT_ID"),
			Destination: &r.projectID,
		},
		&cli.StringFlag{
			Name:        "firestore-database-id",
			Usage:       "Firestore Database ID",
			Category:    "Repository",
			Sources:     cli.EnvVars("HINDSIGHT_FIRESTORE_DATABASE_ID"),
			Destination: &r.databaseID,
		},
		&cli.StringFlag{
			Name:        "firestore-collection-prefix",
			Usage:       "Prefix of the Firestore collections",
			Category:    "Repository",
			Sources:     cli.EnvVars("HINDSIGHT_FIRESTORE_COLLECTION_PREFIX"),
			Destination: &r.collectionPrefix,
		},
	}
}

// LogAttrs returns log attributes for the repository configuration
func (r *Repository) LogAttrs() []slog.Attr {
	return []slog.Attr{
		slog.String("backend", r.backend),
		slog.String("path", r.path),
		slog.String("gcs_bucket", r.gcsBucket),
		slog.String("firestore_project_id", r.projectID),
		slog.String("firestore_database_id", r.databaseID),
	}
}

// Backend returns the configured backend type
func (r *Repository) Backend() string {
	return r.backend
}

// Configure initializes and returns a repository based on the configured backend.
// The caller is responsible for calling Close() on the returned repository.
func (r *Repository) Configure(ctx context.Context) (interfaces.IndexRepository, error) {
	switch r.backend {
	case BackendFile:
		if r.path == "" {
			return nil, goerr.Wrap(ErrMissingOption, "repository-path is required when using file backend")
		}
		repo, err := file.New(r.path)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to initialize file repository")
		}
		logging.Default().Info("Using file repository", "dir", r.path)
		return repo, nil

	case BackendBolt:
		if r.path == "" {
			return nil, goerr.Wrap(ErrMissingOption, "repository-path is required when using bolt backend")
		}
		repo, err := bolt.New(r.path)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to initialize bolt repository")
		}
		logging.Default().Info("Using bolt repository", "path", r.path)
		return repo, nil

	case BackendGCS:
		if r.gcsBucket == "" {
			return nil, goerr.Wrap(ErrMissingOption, "gcs-bucket is required when using gcs backend")
		}
		repo, err := gcs.New(ctx, r.gcsBucket, gcs.WithPrefix(r.gcsPrefix))
		if err != nil {
			return nil, goerr.Wrap(err, "failed to initialize gcs repository")
		}
		logging.Default().Info("Using GCS repository", "bucket", r.gcsBucket, "prefix", r.gcsPrefix)
		return repo, nil

	case BackendFirestore:
		if r.projectID == "" {
			return nil, goerr.Wrap(ErrMissingOption, "firestore-project-id is required when using firestore backend")
		}
		repo, err := firestore.New(ctx, r.projectID, r.databaseID, firestore.WithCollectionPrefix(r.collectionPrefix))
		if err != nil {
			return nil, goerr.Wrap(err, "failed to initialize firestore repository")
		}
		logging.Default().Info("Using Firestore repository",
			"project_id", r.projectID,
			"database_id", r.databaseID,
		)
		return repo, nil

	case BackendMemory:
		logging.Default().Info("Using in-memory repository (index is lost on exit)")
		return memory.New(), nil

	default:
		return nil, goerr.Wrap(ErrInvalidConfig, "invalid repository backend", goerr.V("backend", r.backend))
	}
}
