package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/couchcryptid/complaint-forecast-service/internal/domain"
	"github.com/jonboulle/clockwork"
)

// Watcher retrains the service whenever the dataset version moves away from
// the version the serving snapshot was trained on.
type Watcher struct {
	service   *Service
	versioner DatasetVersioner
	clock     clockwork.Clock
	interval  time.Duration
	logger    *slog.Logger
}

// NewWatcher creates a Watcher polling versioner every interval.
func NewWatcher(service *Service, versioner DatasetVersioner, clock clockwork.Clock, interval time.Duration, logger *slog.Logger) *Watcher {
	return &Watcher{
		service:   service,
		versioner: versioner,
		clock:     clock,
		interval:  interval,
		logger:    logger,
	}
}

// Run polls until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	w.logger.Info("dataset watcher started", "interval", w.interval)
	ticker := w.clock.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("dataset watcher stopping", "reason", ctx.Err())
			return nil
		case <-ticker.Chan():
			w.check(ctx)
		}
	}
}

// check runs one poll. It reports whether a refresh was attempted.
func (w *Watcher) check(ctx context.Context) bool {
	version, err := w.versioner.DatasetVersion(ctx)
	if err != nil {
		w.logger.Warn("dataset version check failed", "error", err)
		return false
	}

	if summary, ok := w.service.Summary(); ok && summary.DatasetVersion == version {
		return false
	}

	w.logger.Info("dataset changed, refreshing", "dataset_version", version)
	if _, err := w.service.Refresh(ctx); err != nil {
		if errors.Is(err, domain.ErrRefreshInProgress) {
			w.logger.Debug("refresh already running")
		} else {
			w.logger.Warn("refresh failed", "error", err)
		}
	}
	return true
}
