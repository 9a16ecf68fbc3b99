package user

import (
	"context"
	"log/slog"
	"time"
)

// SessionCleaner is the interface used by Janitor to purge expired sessions.
// It exists to allow testing without a real database.
type SessionCleaner interface {
	CleanExpiredSessions(ctx context.Context) (int64, error)
}

// Janitor periodically deletes expired sessions in the background.
type Janitor struct {
	store    SessionCleaner
	interval time.Duration
	done     chan struct{}
	onSwept  func(int64)
}

// NewJanitor creates a Janitor that sweeps expired sessions every interval.
func NewJanitor(store SessionCleaner, interval time.Duration) *Janitor {
	return &Janitor{
		store:    store,
		interval: interval,
		done:     make(chan struct{}),
	}
}

// OnSwept registers a callback invoked with the number of sessions removed
// by each successful sweep. Used to feed the metrics counter.
func (j *Janitor) OnSwept(fn func(int64)) {
	j.onSwept = fn
}

// Start runs the sweep loop. It blocks until Stop is called or the context is
// cancelled, sweeping once more on the way out.
func (j *Janitor) Start(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			j.sweep(ctx)
		case <-ctx.Done():
			j.sweep(context.WithoutCancel(ctx))
			return
		case <-j.done:
			j.sweep(ctx)
			return
		}
	}
}

// Stop signals the sweep loop to exit.
func (j *Janitor) Stop() {
	close(j.done)
}

// sweep deletes expired sessions, logging errors rather than returning them.
func (j *Janitor) sweep(ctx context.Context) {
	n, err := j.store.CleanExpiredSessions(ctx)
	if err != nil {
		slog.Error("session sweep failed", "error", err)
		return
	}
	if j.onSwept != nil {
		j.onSwept(n)
	}
	if n > 0 {
		slog.Info("expired sessions removed", "count", n)
	}
}
