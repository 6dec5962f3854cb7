package ranking

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// RetentionWorker periodically deletes daily board rows older than the retention window.
type RetentionWorker struct {
	store     Store
	svc       *Service
	logger    zerolog.Logger
	interval  time.Duration
	retention time.Duration
}

func NewRetentionWorker(store Store, svc *Service, interval, retention time.Duration, logger zerolog.Logger) *RetentionWorker {
	if interval <= 0 {
		interval = time.Hour
	}
	return &RetentionWorker{
		store:     store,
		svc:       svc,
		logger:    logger.With().Str("component", "ranking_retention_worker").Logger(),
		interval:  interval,
		retention: retention,
	}
}

// Run blocks until context cancellation.
func (w *RetentionWorker) Run(ctx context.Context) error {
	if w.store == nil || w.retention <= 0 {
		return nil
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	// run immediately
	w.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

func (w *RetentionWorker) tick(ctx context.Context) {
	cutoff := w.Cutoff()
	deleted, err := w.store.DeleteDailyBefore(ctx, cutoff)
	if err != nil {
		w.logger.Warn().Err(err).Time("cutoff", cutoff).Msg("daily ranking cleanup failed")
		return
	}
	if deleted > 0 {
		w.logger.Info().
			Int64("deleted", deleted).
			Str("cutoff", cutoff.Format(time.DateOnly)).
			Msg("expired daily ranking rows removed")
	}
}

// Cutoff is the first service day that is still retained.
func (w *RetentionWorker) Cutoff() time.Time {
	return w.svc.ServiceDay(w.svc.sessions.Now().Add(-w.retention))
}
