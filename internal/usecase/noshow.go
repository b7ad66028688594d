package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// NoShowSweeper periodically closes lessons nobody showed up for.
type NoShowSweeper struct {
	bookings BookingService
	grace    time.Duration
	interval time.Duration
	log      *zap.Logger
}

const defaultSweepInterval = 5 * time.Minute

func NewNoShowSweeper(bookings BookingService, grace, interval time.Duration, log *zap.Logger) *NoShowSweeper {
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	return &NoShowSweeper{
		bookings: bookings,
		grace:    grace,
		interval: interval,
		log:      log.With(zap.String("worker", "no_show_sweeper")),
	}
}

// Run sweeps on every tick until ctx is done.
func (w *NoShowSweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.log.Info("No-show sweeper started",
		zap.Duration("interval", w.interval),
		zap.Duration("grace", w.grace),
	)

	for {
		select {
		case <-ctx.Done():
			w.log.Info("No-show sweeper stopped")
			return
		case <-ticker.C:
			w.SweepOnce(ctx)
		}
	}
}

func (w *NoShowSweeper) SweepOnce(ctx context.Context) int {
	marked, err := w.bookings.SweepNoShows(ctx, w.grace)
	if err != nil {
		w.log.Warn("No-show sweep incomplete", zap.Int("marked", marked), zap.Error(err))
	}
	return marked
}
