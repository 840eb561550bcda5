package safe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/hindsight-journal/hindsight/pkg/utils/logging"
)

// Close closes c, logging a failure. A nil closer is ignored.
func Close(ctx context.Context, c io.Closer) {
	if c == nil {
		return
	}
	if err := c.Close(); err != nil {
		logging.From(ctx).Warn("close failed",
			slog.String("type", fmt.Sprintf("%T", c)),
			slog.Any("error", err))
	}
}

// Write writes data to w for callers that cannot act on a failure anymore, such as an HTTP
// handler after the status line is sent. Short writes are logged.
func Write(ctx context.Context, w io.Writer, data []byte) {
	if w == nil {
		return
	}
	n, err := w.Write(data)
	if err != nil {
		logging.From(ctx).Warn("write failed",
			slog.Int("written", n),
			slog.Int("size", len(data)),
			slog.Any("error", err))
	}
}

// Remove deletes path. A file that is already gone is not a failure.
func Remove(ctx context.Context, path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logging.From(ctx).Warn("remove failed", slog.String("path", path), slog.Any("error", err))
	}
}
