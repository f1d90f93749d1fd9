package storage

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"roadbook/internal/store"
)

// SnapshotSaver persists a snapshot.
type SnapshotSaver interface {
	SaveSnapshot(ctx context.Context, s *store.Store) error
}

// SnapshotWriter coalesces mutation notifications into debounced snapshot
// writes: a write happens only after the configured idle gap, always with
// the latest snapshot, and never more often than the rate cap allows.
// Correctness does not depend on it; the application always works on the
// in-memory snapshot and the writer only trails it.
type SnapshotWriter struct {
	saver    SnapshotSaver
	debounce time.Duration
	limiter  *rate.Limiter
	logger   *zerolog.Logger

	mu      sync.Mutex
	pending *store.Store
	kick    chan struct{}
}

// NewSnapshotWriter builds a writer with the given idle delay and
// writes-per-minute cap.
func NewSnapshotWriter(saver SnapshotSaver, debounce time.Duration, writesPerMinute int, logger *zerolog.Logger) *SnapshotWriter {
	if writesPerMinute <= 0 {
		writesPerMinute = 30
	}
	return &SnapshotWriter{
		saver:    saver,
		debounce: debounce,
		limiter:  rate.NewLimiter(rate.Limit(float64(writesPerMinute)/60.0), 1),
		logger:   logger,
		kick:     make(chan struct{}, 1),
	}
}

// Notify records the latest snapshot and schedules a write. Calls during
// the debounce window replace the pending snapshot and restart the delay.
func (w *SnapshotWriter) Notify(s *store.Store) {
	w.mu.Lock()
	w.pending = s
	w.mu.Unlock()

	select {
	case w.kick <- struct{}{}:
	default:
	}
}

// Run processes notifications until ctx is cancelled, then flushes any
// pending snapshot so a shutdown never loses the last state.
func (w *SnapshotWriter) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			w.flushFinal()
			return
		case <-w.kick:
		}

		timer := time.NewTimer(w.debounce)
	settle:
		for {
			select {
			case <-w.kick:
				if !timer.Stop() {
					<-timer.C
				}
				timer.Reset(w.debounce)
			case <-timer.C:
				break settle
			case <-ctx.Done():
				timer.Stop()
				w.flushFinal()
				return
			}
		}

		if err := w.limiter.Wait(ctx); err != nil {
			w.flushFinal()
			return
		}
		if err := w.Flush(ctx); err != nil {
			w.logger.Error().Err(err).Msg("snapshot write failed")
		}
	}
}

// Flush writes the pending snapshot now, if there is one.
func (w *SnapshotWriter) Flush(ctx context.Context) error {
	w.mu.Lock()
	s := w.pending
	w.pending = nil
	w.mu.Unlock()

	if s == nil {
		return nil
	}
	return w.saver.SaveSnapshot(ctx, s)
}

func (w *SnapshotWriter) flushFinal() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := w.Flush(ctx); err != nil {
		w.logger.Error().Err(err).Msg("final snapshot flush failed")
	}
}
