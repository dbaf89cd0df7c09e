package worker

import (
	"context"
	"time"

	"github.com/secmon-lab/warden/pkg/usecase"
	"github.com/secmon-lab/warden/pkg/utils/logging"
)

// DefaultWatchInterval is how often the watcher polls the analytics source
// for mitigation candidates
const DefaultWatchInterval = 5 * time.Minute

// Watcher manages the background polling of analytics mitigation candidates
//
// Architecture assumptions:
// - Single server instance (no distributed locking)
// - For future horizontal scaling, implement distributed locking or leader election
type Watcher struct {
	monitor  *usecase.MonitorUseCase
	interval time.Duration
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewWatcher creates a new watcher for evaluating mitigation candidates
func NewWatcher(monitor *usecase.MonitorUseCase, interval time.Duration) *Watcher {
	if interval <= 0 {
		interval = DefaultWatchInterval
	}
	return &Watcher{
		monitor:  monitor,
		interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the background polling loop
// - Initial sweep and periodic polling both run in a background goroutine
// - Does not block server startup
func (w *Watcher) Start(ctx context.Context) error {
	logging.Default().Info("mitigation candidate watcher starting",
		"interval", w.interval.String())

	go w.run(ctx)

	return nil
}

// Stop signals the watcher to stop and waits for completion
func (w *Watcher) Stop() {
	logging.Default().Info("mitigation candidate watcher stopping")
	close(w.stopCh)
	<-w.doneCh
	logging.Default().Info("mitigation candidate watcher stopped")
}

// run is the main watcher loop (runs in goroutine)
func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	// Initial sweep (runs in goroutine, does not block server startup)
	if err := w.sweep(ctx); err != nil {
		logging.Default().Error("initial candidate sweep failed (will retry next interval)",
			"error", err.Error())
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := w.sweep(ctx); err != nil {
				// Log error but continue watcher
				logging.Default().Error("candidate sweep failed (will retry next interval)",
					"error", err.Error())
			}

		case <-w.stopCh:
			logging.Default().Info("watcher received stop signal")
			return

		case <-ctx.Done():
			logging.Default().Info("watcher context cancelled")
			return
		}
	}
}

// sweep performs a single candidate-evaluation cycle
func (w *Watcher) sweep(ctx context.Context) error {
	startTime := time.Now()

	results, err := w.monitor.EvaluateCandidates(ctx)
	if err != nil {
		return err
	}

	logging.Default().Info("candidate sweep completed",
		"evaluated", len(results),
		"duration", time.Since(startTime).String(),
	)
	return nil
}
