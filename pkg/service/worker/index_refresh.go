package worker

import (
	"context"
	"errors"
	"time"

	"github.com/hindsight-journal/hindsight/pkg/usecase"
	"github.com/hindsight-journal/hindsight/pkg/utils/logging"
)

// DefaultDebounce is how long the worker waits after the last change notification before
// updating, so that a burst of file writes costs one update
const DefaultDebounce = 2 * time.Second

// IndexUpdater runs one incremental update pass
type IndexUpdater interface {
	Update(ctx context.Context) (*usecase.UpdateReport, error)
}

// IndexRefreshWorker keeps the index up to date in the background, on a timer and on change
// notifications from a note source.
//
// Architecture assumptions:
// - Single server instance (no distributed locking)
// - Overlapping updates are rejected by the index itself and logged here
type IndexRefreshWorker struct {
	index    IndexUpdater
	interval time.Duration
	trigger  <-chan struct{}
	debounce time.Duration
	stopCh   chan struct{}
	doneCh   chan struct{}
}

type Option func(*IndexRefreshWorker)

// WithTrigger makes the worker update after each notification on ch, debounced
func WithTrigger(ch <-chan struct{}) Option {
	return func(w *IndexRefreshWorker) {
		w.trigger = ch
	}
}

func WithDebounce(d time.Duration) Option {
	return func(w *IndexRefreshWorker) {
		w.debounce = d
	}
}

// NewIndexRefreshWorker creates a new worker. An interval <= 0 disables periodic updates.
func NewIndexRefreshWorker(index IndexUpdater, interval time.Duration, opts ...Option) *IndexRefreshWorker {
	w := &IndexRefreshWorker{
		index:    index,
		interval: interval,
		debounce: DefaultDebounce,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start begins the background refresh loop
// - Initial update and later ones all run in a background goroutine
// - Does not block server startup
func (w *IndexRefreshWorker) Start(ctx context.Context) error {
	logging.Default().Info("Index refresh worker starting",
		"interval", w.interval.String(),
		"trigger", w.trigger != nil,
		"debounce", w.debounce.String())

	go w.run(ctx)

	return nil
}

// Stop signals the worker to stop and waits for completion
func (w *IndexRefreshWorker) Stop() {
	logging.Default().Info("Index refresh worker stopping")
	close(w.stopCh)
	<-w.doneCh
	logging.Default().Info("Index refresh worker stopped")
}

func (w *IndexRefreshWorker) run(ctx context.Context) {
	defer close(w.doneCh)

	w.refresh(ctx, "initial")

	var tick <-chan time.Time
	if w.interval > 0 {
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	trigger := w.trigger
	var debounce *time.Timer
	var pending <-chan time.Time
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	for {
		select {
		case <-tick:
			w.refresh(ctx, "interval")

		case _, ok := <-trigger:
			if !ok {
				// source stopped watching; keep running on the timer
				trigger = nil
				continue
			}
			if debounce == nil {
				debounce = time.NewTimer(w.debounce)
			} else {
				debounce.Reset(w.debounce)
			}
			pending = debounce.C

		case <-pending:
			pending = nil
			w.refresh(ctx, "change")

		case <-w.stopCh:
			logging.Default().Info("Index refresh worker received stop signal")
			return

		case <-ctx.Done():
			logging.Default().Info("Index refresh worker context cancelled")
			return
		}
	}
}

// refresh runs one update; failures are logged and retried on the next tick or change
func (w *IndexRefreshWorker) refresh(ctx context.Context, reason string) {
	report, err := w.index.Update(ctx)
	switch {
	case errors.Is(err, usecase.ErrUpdateInProgress):
		logging.Default().Debug("Index update already running, skipped", "reason", reason)
	case err != nil:
		logging.Default().Error("Index refresh failed (will retry)",
			"reason", reason,
			"error", err.Error())
	default:
		logging.Default().Info("Index refresh completed", "reason", reason, "report", report)
	}
}
