package speech

import (
	"context"
	"sync"
	"time"

	"log/slog"
)

// Breaker suppresses remote synthesis calls for a fixed cooldown after the
// provider signals throttling. It is a hard timed breaker: no half-open
// probing, no backoff growth. Shared by the live playback path and the
// preload worker.
type Breaker struct {
	cooldown time.Duration
	metrics  *Metrics
	log      *slog.Logger

	mu    sync.Mutex
	until time.Time
	now   func() time.Time
}

func NewBreaker(cooldown time.Duration, metrics *Metrics, log *slog.Logger) *Breaker {
	return &Breaker{
		cooldown: cooldown,
		metrics:  metrics,
		log:      log.With(slog.String("component", "rate-limit-breaker")),
		now:      time.Now,
	}
}

// Allow reports whether remote calls are currently permitted.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return !b.now().Before(b.until)
}

// Trip starts (or restarts) the cooldown window.
func (b *Breaker) Trip() {
	b.mu.Lock()
	b.until = b.now().Add(b.cooldown)
	b.mu.Unlock()
	b.metrics.BreakerTrip(context.Background())
	b.log.Warn("remote synthesis throttled, breaker tripped",
		slog.Duration("cooldown", b.cooldown))
}
