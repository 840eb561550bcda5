package errutil_test

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hindsight-journal/hindsight/pkg/utils/errutil"
	"github.com/hindsight-journal/hindsight/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
)

func TestHandleReturnsSameError(t *testing.T) {
	var buf bytes.Buffer
	ctx := logging.With(context.Background(), logging.New(&buf, slog.LevelInfo, logging.FormatJSON))

	err := goerr.New("embedding failed", goerr.V("path", "2024-01-10.md"))
	got := errutil.Handle(ctx, err, "failed to index note")

	gt.Value(t, got).Equal(err)
	gt.String(t, buf.String()).Contains("failed to index note")
	gt.String(t, buf.String()).Contains("2024-01-10.md")
}

func TestHandleNil(t *testing.T) {
	gt.Value(t, errutil.Handle(context.Background(), nil, "noop")).Nil()
}

func TestHandleHTTPWritesStatus(t *testing.T) {
	var buf bytes.Buffer
	ctx := logging.With(context.Background(), logging.New(&buf, slog.LevelInfo, logging.FormatJSON))

	w := httptest.NewRecorder()
	errutil.HandleHTTP(ctx, w, goerr.New("bad request body"), http.StatusBadRequest)

	gt.Value(t, w.Code).Equal(http.StatusBadRequest)
	gt.String(t, w.Body.String()).Contains("bad request body")
}
