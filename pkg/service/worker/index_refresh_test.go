package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/hindsight-journal/hindsight/pkg/service/worker"
	"github.com/hindsight-journal/hindsight/pkg/usecase"
	"github.com/m-mizutani/gt"
)

// mockUpdater counts update calls
type mockUpdater struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (m *mockUpdater) Update(ctx context.Context) (*usecase.UpdateReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return &usecase.UpdateReport{Unchanged: true}, nil
}

func (m *mockUpdater) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *mockUpdater) setError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func TestIndexRefreshWorker_ImmediateInitialUpdate(t *testing.T) {
	updater := &mockUpdater{}
	w := worker.NewIndexRefreshWorker(updater, 10*time.Minute)

	gt.NoError(t, w.Start(context.Background())).Required()
	defer w.Stop()

	time.Sleep(50 * time.Millisecond)
	gt.Number(t, updater.count()).Equal(1)
}

func TestIndexRefreshWorker_PeriodicRefresh(t *testing.T) {
	updater := &mockUpdater{}
	w := worker.NewIndexRefreshWorker(updater, 100*time.Millisecond)

	gt.NoError(t, w.Start(context.Background())).Required()
	defer w.Stop()

	time.Sleep(250 * time.Millisecond)
	gt.Bool(t, updater.count() >= 2).True()
}

func TestIndexRefreshWorker_NoInterval(t *testing.T) {
	updater := &mockUpdater{}
	w := worker.NewIndexRefreshWorker(updater, 0)

	gt.NoError(t, w.Start(context.Background())).Required()
	defer w.Stop()

	time.Sleep(100 * time.Millisecond)
	gt.Number(t, updater.count()).Equal(1)
}

func TestIndexRefreshWorker_DebouncedTrigger(t *testing.T) {
	updater := &mockUpdater{}
	trigger := make(chan struct{}, 1)
	w := worker.NewIndexRefreshWorker(updater, 0,
		worker.WithTrigger(trigger),
		worker.WithDebounce(100*time.Millisecond),
	)

	gt.NoError(t, w.Start(context.Background())).Required()
	defer w.Stop()

	time.Sleep(50 * time.Millisecond)
	gt.Number(t, updater.count()).Equal(1)

	// A burst of notifications ends in a single update
	for i := 0; i < 5; i++ {
		trigger <- struct{}{}
		time.Sleep(20 * time.Millisecond)
	}
	gt.Number(t, updater.count()).Equal(1)

	time.Sleep(250 * time.Millisecond)
	gt.Number(t, updater.count()).Equal(2)
}

func TestIndexRefreshWorker_ClosedTrigger(t *testing.T) {
	updater := &mockUpdater{}
	trigger := make(chan struct{})
	w := worker.NewIndexRefreshWorker(updater, 100*time.Millisecond, worker.WithTrigger(trigger))

	gt.NoError(t, w.Start(context.Background())).Required()
	defer w.Stop()

	close(trigger)
	time.Sleep(250 * time.Millisecond)
	gt.Bool(t, updater.count() >= 2).True()
}

func TestIndexRefreshWorker_KeepsRunningOnErrors(t *testing.T) {
	updater := &mockUpdater{}
	updater.setError(errors.New("store unavailable"))
	w := worker.NewIndexRefreshWorker(updater, 50*time.Millisecond)

	gt.NoError(t, w.Start(context.Background())).Required()
	defer w.Stop()

	time.Sleep(80 * time.Millisecond)
	updater.setError(usecase.ErrUpdateInProgress)
	time.Sleep(80 * time.Millisecond)
	updater.setError(nil)
	time.Sleep(80 * time.Millisecond)

	gt.Bool(t, updater.count() >= 3).True()
}

func TestIndexRefreshWorker_StopsCleanly(t *testing.T) {
	updater := &mockUpdater{}
	w := worker.NewIndexRefreshWorker(updater, 100*time.Millisecond)

	gt.NoError(t, w.Start(context.Background())).Required()
	time.Sleep(50 * time.Millisecond)

	stopStart := time.Now()
	w.Stop()
	gt.Bool(t, time.Since(stopStart) < time.Second).True()
}

func TestIndexRefreshWorker_StopsOnContextCancel(t *testing.T) {
	updater := &mockUpdater{}
	ctx, cancel := context.WithCancel(context.Background())
	w := worker.NewIndexRefreshWorker(updater, 100*time.Millisecond)

	gt.NoError(t, w.Start(ctx)).Required()
	time.Sleep(50 * time.Millisecond)
	cancel()

	// Stop still returns once the loop has exited on its own
	w.Stop()
	calls := updater.count()
	time.Sleep(150 * time.Millisecond)
	gt.Number(t, updater.count()).Equal(calls)
}
