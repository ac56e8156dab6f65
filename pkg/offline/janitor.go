package offline

import (
	"context"
	"log/slog"
	"time"
)

// Janitor periodically purges expired cache entries so the backend does not
// grow with keys that are never read again.
type Janitor struct {
	Cache    *Cache
	Logger   *slog.Logger
	Interval time.Duration

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewJanitor creates a janitor. If interval is 0 or negative it defaults to
// the cache TTL.
func NewJanitor(cache *Cache, logger *slog.Logger, interval time.Duration) *Janitor {
	if interval <= 0 {
		interval = DefaultTTL
	}

	return &Janitor{
		Cache:    cache,
		Logger:   logger,
		Interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start runs a purge immediately and then every Interval until Stop.
func (j *Janitor) Start() {
	go j.run()
	j.Logger.Info("cache janitor started", "interval", j.Interval)
}

// Stop blocks until an in-progress purge has finished.
func (j *Janitor) Stop() {
	close(j.stopCh)
	<-j.doneCh
	j.Logger.Info("cache janitor stopped")
}

func (j *Janitor) run() {
	defer close(j.doneCh)

	ticker := time.NewTicker(j.Interval)
	defer ticker.Stop()

	j.purge()

	for {
		select {
		case <-ticker.C:
			j.purge()
		case <-j.stopCh:
			return
		}
	}
}

func (j *Janitor) purge() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	n, err := j.Cache.Purge(ctx)
	if err != nil {
		j.Logger.Error("cache purge failed", "removed", n, "error", err)
		return
	}
	j.Logger.Debug("cache purge completed", "removed", n)
}
