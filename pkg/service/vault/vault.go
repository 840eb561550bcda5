package vault

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/hindsight-journal/hindsight/pkg/domain/interfaces"
	"github.com/hindsight-journal/hindsight/pkg/domain/model"
	"github.com/hindsight-journal/hindsight/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// DefaultInclude matches every markdown note
const DefaultInclude = "**/*.md"

// DefaultExcludes are the trash and settings folders of common note apps
var DefaultExcludes = []string{".trash/**", ".obsidian/**"}

var ErrInvalidPattern = goerr.New("invalid glob pattern")

// Vault lists markdown notes under a root folder. Note paths are slash separated and relative
// to the root.
type Vault struct {
	root     string
	fsys     fs.FS
	include  []string
	excludes []string
}

var _ interfaces.NoteSource = &Vault{}

type Option func(*Vault)

// WithInclude replaces the include patterns
func WithInclude(patterns ...string) Option {
	return func(v *Vault) {
		v.include = patterns
	}
}

// WithExcludes replaces the exclude patterns
func WithExcludes(patterns ...string) Option {
	return func(v *Vault) {
		v.excludes = patterns
	}
}

// WithFS reads notes from fsys instead of the root folder. Watch is unavailable.
func WithFS(fsys fs.FS) Option {
	return func(v *Vault) {
		v.fsys = fsys
	}
}

func New(root string, opts ...Option) (*Vault, error) {
	v := &Vault{
		root:     root,
		include:  []string{DefaultInclude},
		excludes: DefaultExcludes,
	}
	for _, opt := range opts {
		opt(v)
	}

	if v.fsys == nil {
		if root == "" {
			return nil, goerr.New("vault root is required")
		}
		st, err := os.Stat(root)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to stat vault root", goerr.V("root", root))
		}
		if !st.IsDir() {
			return nil, goerr.New("vault root is not a directory", goerr.V("root", root))
		}
		v.fsys = os.DirFS(root)
	}

	for _, p := range append(append([]string{}, v.include...), v.excludes...) {
		if !doublestar.ValidatePattern(p) {
			return nil, goerr.Wrap(ErrInvalidPattern, "bad pattern", goerr.V("pattern", p))
		}
	}

	return v, nil
}

func (v *Vault) excluded(p string) bool {
	for _, pattern := range v.excludes {
		if ok, _ := doublestar.Match(pattern, p); ok {
			return true
		}
	}
	return false
}

// ListNotes reads every included, non-excluded note. Files that vanish between listing and
// reading are skipped.
func (v *Vault) ListNotes(ctx context.Context) ([]*model.Note, error) {
	seen := make(map[string]struct{})
	var paths []string

	for _, pattern := range v.include {
		matches, err := doublestar.Glob(v.fsys, pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, goerr.Wrap(err, "failed to glob notes", goerr.V("pattern", pattern))
		}
		for _, m := range matches {
			if _, dup := seen[m]; dup || v.excluded(m) {
				continue
			}
			seen[m] = struct{}{}
			paths = append(paths, m)
		}
	}
	sort.Strings(paths)

	notes := make([]*model.Note, 0, len(paths))
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return nil, goerr.Wrap(err, "listing cancelled")
		}

		note, err := v.read(p)
		if err != nil {
			if os.IsNotExist(err) {
				logging.From(ctx).Debug("note vanished while listing", slog.String("path", p))
				continue
			}
			return nil, err
		}
		notes = append(notes, note)
	}

	return notes, nil
}

func (v *Vault) read(p string) (*model.Note, error) {
	st, err := fs.Stat(v.fsys, p)
	if err != nil {
		return nil, err
	}
	raw, err := fs.ReadFile(v.fsys, p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, err
		}
		return nil, goerr.Wrap(err, "failed to read note", goerr.V("path", p))
	}

	return &model.Note{
		Path:       p,
		Name:       strings.TrimSuffix(path.Base(p), path.Ext(p)),
		Text:       string(raw),
		ModifiedAt: st.ModTime(),
	}, nil
}
