package store

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Retention deletes history rows older than a fixed age on an interval.
type Retention struct {
	store    Store
	maxAge   time.Duration
	interval time.Duration
	log      zerolog.Logger
	now      func() time.Time
}

// NewRetention creates a retention loop. A non-positive maxAge keeps
// history forever.
func NewRetention(s Store, maxAge, interval time.Duration, log zerolog.Logger) *Retention {
	return &Retention{
		store:    s,
		maxAge:   maxAge,
		interval: interval,
		log:      log.With().Str("component", "retention").Logger(),
		now:      time.Now,
	}
}

// Run prunes immediately and then every interval until ctx is cancelled.
func (r *Retention) Run(ctx context.Context) {
	if r.maxAge <= 0 {
		r.log.Info().Msg("history retention disabled")
		return
	}

	timer := time.NewTimer(0)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			if _, err := r.PruneOnce(ctx); err != nil {
				r.log.Error().Err(err).Msg("failed to prune history")
			}
			timer.Reset(r.interval)
		}
	}
}

// PruneOnce deletes the history rows older than maxAge.
func (r *Retention) PruneOnce(ctx context.Context) (int64, error) {
	cutoff := r.now().UTC().Add(-r.maxAge)
	n, err := r.store.PruneHistory(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		r.log.Info().Int64("rows", n).Time("before", cutoff).Msg("pruned reading history")
	}
	return n, nil
}
