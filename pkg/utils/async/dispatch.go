package async

import (
	"context"

	"github.com/hindsight-journal/hindsight/pkg/utils/errutil"
	"github.com/hindsight-journal/hindsight/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// Dispatch runs job in its own goroutine, detached from the cancellation of ctx so that it
// outlives the request that started it. The logger of ctx is kept. A failure or panic is
// reported through errutil under the job name. The returned channel is closed when the job
// ends.
func Dispatch(ctx context.Context, name string, job func(ctx context.Context) error) <-chan struct{} {
	logger := logging.From(ctx).With("job", name)
	bgCtx := logging.With(context.WithoutCancel(ctx), logger)

	done := make(chan struct{})
	go func() {
		defer close(done)
		defer func() {
			if r := recover(); r != nil {
				err := goerr.New("panic in background job", goerr.V("job", name), goerr.V("panic", r))
				_ = errutil.Handle(bgCtx, err, "background job panicked")
			}
		}()

		logger.Debug("background job started")
		if err := job(bgCtx); err != nil {
			_ = errutil.Handle(bgCtx, err, "background job failed")
			return
		}
		logger.Debug("background job finished")
	}()

	return done
}
