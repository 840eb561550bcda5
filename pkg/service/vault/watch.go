package vault

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
	"github.com/hindsight-journal/hindsight/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// Watch sends on the returned channel whenever a note under the root is created, written,
// removed or renamed. Sends never block: a pending signal absorbs later events. The channel
// is closed when ctx is done.
func (v *Vault) Watch(ctx context.Context) (<-chan struct{}, error) {
	if v.root == "" {
		return nil, goerr.New("watch requires a vault root")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create watcher")
	}

	// fsnotify is not recursive, so every non-excluded directory is added
	if err := filepath.WalkDir(v.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if rel := v.rel(p); rel != "" && v.excluded(rel) {
			return filepath.SkipDir
		}
		return watcher.Add(p)
	}); err != nil {
		_ = watcher.Close()
		return nil, goerr.Wrap(err, "failed to watch vault", goerr.V("root", v.root))
	}

	ch := make(chan struct{}, 1)
	go func() {
		defer close(ch)
		defer func() {
			if err := watcher.Close(); err != nil {
				logging.From(ctx).Warn("failed to close watcher", slog.Any("error", err))
			}
		}()

		for {
			select {
			case <-ctx.Done():
				return

			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if ev.Has(fsnotify.Create) {
					if st, err := os.Stat(ev.Name); err == nil && st.IsDir() {
						if err := watcher.Add(ev.Name); err != nil {
							logging.From(ctx).Warn("failed to watch new directory", slog.String("path", ev.Name), slog.Any("error", err))
						}
						continue
					}
				}
				if !v.relevant(ev) {
					continue
				}
				select {
				case ch <- struct{}{}:
				default:
				}

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logging.From(ctx).Warn("watcher error", slog.Any("error", err))
			}
		}
	}()

	return ch, nil
}

func (v *Vault) rel(p string) string {
	rel, err := filepath.Rel(v.root, p)
	if err != nil || rel == "." {
		return ""
	}
	return filepath.ToSlash(rel)
}

func (v *Vault) relevant(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
		return false
	}
	rel := v.rel(ev.Name)
	if rel == "" || strings.HasPrefix(rel, "..") || v.excluded(rel) {
		return false
	}
	for _, pattern := range v.include {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}
