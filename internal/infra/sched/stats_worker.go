package sched

import (
	"context"
	"time"

	"press-subscription/internal/domain/model"
	"press-subscription/internal/infra/logging"

	"github.com/rs/zerolog"
)

// StatusCounter is the slice of the subscription use case the worker needs.
type StatusCounter interface {
	CountByStatus(ctx context.Context) (map[model.SubscriptionStatus]int, error)
}

// StatsWorker periodically refreshes the subscriptions_total gauge.
// It only reads; no subscription state is ever changed here.
type StatsWorker struct {
	interval time.Duration
	counter  StatusCounter
	log      *zerolog.Logger
}

func NewStatsWorker(interval time.Duration, counter StatusCounter, logger *zerolog.Logger) *StatsWorker {
	if interval <= 0 {
		interval = time.Minute
	}
	l := logging.OrNop(logger).With().Str("component", "StatsWorker").Logger()
	return &StatsWorker{
		interval: interval,
		counter:  counter,
		log:      &l,
	}
}

// Run refreshes once immediately and then on every tick until ctx is done.
func (w *StatsWorker) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Msg("Starting stats worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		w.refresh(ctx)
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping stats worker")
			return nil
		case <-ticker.C:
		}
	}
}

func (w *StatsWorker) refresh(ctx context.Context) {
	counts, err := w.counter.CountByStatus(ctx)
	if err != nil {
		if ctx.Err() == nil {
			w.log.Error().Err(err).Msg("stats worker error")
		}
		return
	}
	w.log.Debug().Interface("counts", counts).Msg("subscription gauge refreshed")
}
