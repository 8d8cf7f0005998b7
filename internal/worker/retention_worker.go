package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/Spectrumgrid/grade-pilot/internal/repository"
)

// RetentionWorker deletes grading sessions older than the retention period.
// It sweeps once when started and then every interval, if one is set.
type RetentionWorker struct {
	repo      repository.ArtifactRepository
	retention time.Duration
	interval  time.Duration
	log       zerolog.Logger
}

// NewRetentionWorker creates a new RetentionWorker. An interval of zero
// sweeps only at startup.
func NewRetentionWorker(repo repository.ArtifactRepository, retention, interval time.Duration, log zerolog.Logger) *RetentionWorker {
	return &RetentionWorker{
		repo:      repo,
		retention: retention,
		interval:  interval,
		log:       log.With().Str("component", "retention_worker").Logger(),
	}
}

// Start runs the sweep loop until ctx is cancelled. Call in a goroutine.
func (w *RetentionWorker) Start(ctx context.Context) {
	w.log.Info().
		Dur("retention", w.retention).
		Dur("interval", w.interval).
		Msg("Worker started")

	w.Sweep(ctx)
	if w.interval <= 0 {
		w.log.Info().Msg("Worker stopped (startup sweep only)")
		return
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopped")
			return
		case <-ticker.C:
			w.Sweep(ctx)
		}
	}
}

// Sweep runs one retention pass and returns the number of deleted sessions.
func (w *RetentionWorker) Sweep(ctx context.Context) int {
	start := time.Now()
	removed, err := w.repo.SweepOlderThan(ctx, w.retention)
	if err != nil {
		if ctx.Err() == nil {
			w.log.Error().Err(err).Int("removed", removed).Msg("Session sweep failed")
		}
		return removed
	}
	w.log.Info().
		Int("removed", removed).
		Dur("took", time.Since(start)).
		Msg("Expired sessions swept")
	return removed
}
