package speech

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the speech subsystem counters. A nil *Metrics is valid and
// records nothing, which keeps tests free of telemetry setup.
type Metrics struct {
	cacheHits      metric.Int64Counter
	cacheMisses    metric.Int64Counter
	remoteFetches  metric.Int64Counter
	remoteFailures metric.Int64Counter
	breakerTrips   metric.Int64Counter
	preloadDropped metric.Int64Counter
	sessions       metric.Int64Counter
	fallbacks      metric.Int64Counter
}

func NewMetrics() (*Metrics, error) {
	meter := otel.Meter("github.com/cornellj834-lang/Lego-Adventure-App/speech")
	m := &Metrics{}
	var err error
	if m.cacheHits, err = meter.Int64Counter("speech.cache.hits"); err != nil {
		return nil, err
	}
	if m.cacheMisses, err = meter.Int64Counter("speech.cache.misses"); err != nil {
		return nil, err
	}
	if m.remoteFetches, err = meter.Int64Counter("speech.remote.fetches"); err != nil {
		return nil, err
	}
	if m.remoteFailures, err = meter.Int64Counter("speech.remote.failures"); err != nil {
		return nil, err
	}
	if m.breakerTrips, err = meter.Int64Counter("speech.breaker.trips"); err != nil {
		return nil, err
	}
	if m.preloadDropped, err = meter.Int64Counter("speech.preload.dropped"); err != nil {
		return nil, err
	}
	if m.sessions, err = meter.Int64Counter("speech.playback.sessions"); err != nil {
		return nil, err
	}
	if m.fallbacks, err = meter.Int64Counter("speech.playback.fallbacks"); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Metrics) CacheHit(ctx context.Context) {
	if m != nil {
		m.cacheHits.Add(ctx, 1)
	}
}

func (m *Metrics) CacheMiss(ctx context.Context) {
	if m != nil {
		m.cacheMisses.Add(ctx, 1)
	}
}

func (m *Metrics) RemoteFetch(ctx context.Context) {
	if m != nil {
		m.remoteFetches.Add(ctx, 1)
	}
}

func (m *Metrics) RemoteFailure(ctx context.Context) {
	if m != nil {
		m.remoteFailures.Add(ctx, 1)
	}
}

func (m *Metrics) BreakerTrip(ctx context.Context) {
	if m != nil {
		m.breakerTrips.Add(ctx, 1)
	}
}

func (m *Metrics) PreloadDropped(ctx context.Context) {
	if m != nil {
		m.preloadDropped.Add(ctx, 1)
	}
}

func (m *Metrics) SessionStarted(ctx context.Context) {
	if m != nil {
		m.sessions.Add(ctx, 1)
	}
}

func (m *Metrics) FallbackUsed(ctx context.Context) {
	if m != nil {
		m.fallbacks.Add(ctx, 1)
	}
}
